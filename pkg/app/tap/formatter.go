package tap

import (
	"fmt"
	"io"
	"text/tabwriter"

	units "github.com/docker/go-units"

	core "github.com/deploymenttheory/go-judim/internal/services"
	"github.com/deploymenttheory/go-judim/pkg/app"
)

// FormatInfo renders a tape listing
func FormatInfo(w io.Writer, response *InfoResponse, format string) error {
	return app.Render(w, format, response, func(w io.Writer) error {
		return formatInfoTable(w, response)
	})
}

// FormatVerify renders a verification report
func FormatVerify(w io.Writer, response *VerifyResponse, format string) error {
	return app.Render(w, format, response, func(w io.Writer) error {
		if response.OK {
			fmt.Fprintf(w, "%s: %d blocks, %d entries, all checksums valid\n", response.TapePath, response.Blocks, response.Entries)
			return nil
		}
		if err := formatIssues(w, response.Issues); err != nil {
			return err
		}
		fmt.Fprintf(w, "\n%s: %s, %s\n", response.TapePath, plural(response.Blocks, "block"), plural(len(response.Issues), "issue"))
		return nil
	})
}

// FormatExtract renders the result of an extraction
func FormatExtract(w io.Writer, response *ExtractResponse, format string) error {
	return app.Render(w, format, response, func(w io.Writer) error {
		fmt.Fprintf(w, "Entry %d (%s) written to %s (%s)\n", response.Index, response.Form, response.Output, plural(response.Size, "byte"))
		return nil
	})
}

// FormatExplode renders the files written by an explode
func FormatExplode(w io.Writer, response *ExplodeResponse, format string) error {
	return app.Render(w, format, response, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "INDEX\tFILE\tSIZE\n")
		fmt.Fprintf(tw, "-----\t----\t----\n")
		total := 0
		for _, f := range response.Files {
			fmt.Fprintf(tw, "%d\t%s\t%d\n", f.Index, f.Path, f.Size)
			total += f.Size
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		for _, s := range response.Skipped {
			fmt.Fprintf(w, "skipped entry %d: %s\n", s.Index, s.Reason)
		}
		fmt.Fprintf(w, "\nWrote %s (%s) to %s\n", plural(len(response.Files), "file"), units.BytesSize(float64(total)), response.Directory)
		return nil
	})
}

func formatInfoTable(w io.Writer, response *InfoResponse) error {
	if len(response.Entries) == 0 {
		fmt.Fprintf(w, "%s: empty tape\n", response.TapePath)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "#\tNAME\tTYPE\tSIZE\tDETAILS\tOFFSET\tSTATUS\n")
	fmt.Fprintf(tw, "-\t----\t----\t----\t-------\t------\t------\n")

	total := 0
	for _, e := range response.Entries {
		status := "ok"
		switch {
		case !e.ChecksumOK:
			status = "bad checksum"
		case !e.LengthOK:
			status = "length mismatch"
		case e.Kind != "paired":
			status = e.Kind
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%d\t%s\n", e.Index, e.Name, e.Type, e.Size, details(e), e.Offset, status)
		total += e.Size
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%s: %s in %s, %s\n", response.TapePath, plural(len(response.Entries), "entry"), plural(response.Blocks, "block"), units.BytesSize(float64(total)))
	if len(response.Issues) > 0 {
		fmt.Fprintln(w)
		return formatIssues(w, response.Issues)
	}
	return nil
}

func formatIssues(w io.Writer, issues []IssueSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "BLOCK\tOFFSET\tKIND\tMESSAGE\n")
	for _, issue := range issues {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", issue.Block, issue.Offset, issue.Kind, issue.Message)
	}
	return tw.Flush()
}

func details(e core.EntrySummary) string {
	switch {
	case e.Autostart != "" && e.VarsOffset != nil:
		return fmt.Sprintf("LINE %s, VARS %d", e.Autostart, *e.VarsOffset)
	case e.LoadAddress != nil:
		return fmt.Sprintf("CODE %d", *e.LoadAddress)
	case e.ArrayVariable != "":
		return "DATA " + e.ArrayVariable + "()"
	default:
		return ""
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	if noun == "entry" {
		return fmt.Sprintf("%d entries", n)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
