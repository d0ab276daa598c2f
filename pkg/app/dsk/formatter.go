package dsk

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	units "github.com/docker/go-units"

	core "github.com/deploymenttheory/go-judim/internal/services"
	"github.com/deploymenttheory/go-judim/pkg/app"
)

// FormatInfo renders an image summary
func FormatInfo(w io.Writer, response *InfoResponse, format string) error {
	return app.Render(w, format, response, func(w io.Writer) error {
		p := response.Geometry
		fmt.Fprintf(w, "Image: %s\n", response.ImagePath)
		fmt.Fprintf(w, "===================\n")
		fmt.Fprintf(w, "Container:     %s (%s)\n", response.Format, units.BytesSize(float64(response.ImageSize)))
		if response.Creator != "" {
			fmt.Fprintf(w, "Creator:       %s\n", response.Creator)
		}
		fmt.Fprintf(w, "Geometry:      %d tracks x %d sides x %d sectors of %d bytes, side mode %s\n",
			p.TracksPerSide, p.Sides, p.SectorsPerTrack, p.SectorSize, p.SideMode)
		fmt.Fprintf(w, "Sector IDs:    from %d, skew %d %v\n", p.FirstSectorID, p.Skew, response.SkewTable)
		fmt.Fprintf(w, "Reserved:      %d tracks\n", p.ReservedTracks)
		fmt.Fprintf(w, "Blocks:        %d of %s, %d-bit pointers, EXM %d\n",
			response.Usage.TotalBlocks, units.BytesSize(float64(response.BlockSize)), response.PointerBits, response.ExtentMask)
		fmt.Fprintln(w)
		formatUsage(w, response.Usage)
		if response.DeletedRecovered > 0 {
			fmt.Fprintf(w, "Deleted:       %s recoverable\n", plural(response.DeletedRecovered, "file"))
		}

		if len(response.Tracks) == 0 {
			return nil
		}
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "CYL\tHEAD\tSIZE\tSECTOR IDS\n")
		fmt.Fprintf(tw, "---\t----\t----\t----------\n")
		for _, t := range response.Tracks {
			fmt.Fprintf(tw, "%d\t%d\t%d\t%s\n", t.Cylinder, t.Head, t.SectorSize, sectorIDs(t.SectorIDs))
		}
		return tw.Flush()
	})
}

// FormatList renders a directory listing
func FormatList(w io.Writer, response *ListResponse, format string) error {
	return app.Render(w, format, response, func(w io.Writer) error {
		if len(response.Files) == 0 {
			fmt.Fprintf(w, "%s: no files\n", response.ImagePath)
		} else if err := formatFiles(w, response.Files); err != nil {
			return err
		}
		fmt.Fprintln(w)
		formatUsage(w, response.Usage)
		return nil
	})
}

// FormatGet renders the result of a get
func FormatGet(w io.Writer, response *GetResponse, format string) error {
	return app.Render(w, format, response, func(w io.Writer) error {
		fmt.Fprintf(w, "%s written to %s (%s)\n", response.Name, response.Output, plural(response.Size, "byte"))
		return nil
	})
}

// FormatCopy renders the files written by a copy
func FormatCopy(w io.Writer, response *CopyResponse, format string) error {
	return app.Render(w, format, response, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "NAME\tFILE\tSIZE\n")
		fmt.Fprintf(tw, "----\t----\t----\n")
		total := 0
		for _, f := range response.Files {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", f.Name, f.Path, f.Size)
			total += f.Size
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(w, "\nCopied %s (%s)\n", plural(len(response.Files), "file"), units.BytesSize(float64(total)))
		return nil
	})
}

// FormatPut renders the files added to an image
func FormatPut(w io.Writer, response *PutResponse, format string) error {
	return app.Render(w, format, response, func(w io.Writer) error {
		if err := formatFiles(w, response.Added); err != nil {
			return err
		}
		fmt.Fprintf(w, "\nUpdated %s\n", response.Image)
		formatUsage(w, response.Usage)
		return nil
	})
}

// FormatFormat renders a newly created image
func FormatFormat(w io.Writer, response *FormatResponse, format string) error {
	return app.Render(w, format, response, func(w io.Writer) error {
		fmt.Fprintf(w, "Formatted %s (%s)\n", response.ImagePath, response.Format)
		formatUsage(w, response.Usage)
		return nil
	})
}

func formatFiles(w io.Writer, files []core.FileItem) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "USER\tNAME\tSIZE\tRECORDS\tEXTENTS\tATTRIBUTES\n")
	fmt.Fprintf(tw, "----\t----\t----\t-------\t-------\t----------\n")
	for _, f := range files {
		user := fmt.Sprintf("%d", f.User)
		if f.Deleted {
			user = "del"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n", user, f.Name, f.Size, f.Records, f.Extents, attributes(f))
	}
	return tw.Flush()
}

func formatUsage(w io.Writer, u core.UsageStats) {
	fmt.Fprintf(w, "Used:          %d of %d blocks (%d directory)\n", u.UsedBlocks, u.TotalBlocks, u.DirectoryBlocks)
	fmt.Fprintf(w, "Free:          %s\n", units.BytesSize(float64(u.FreeBytes())))
	fmt.Fprintf(w, "Directory:     %d of %d entries, %s\n", u.UsedEntries, u.DirectoryEntries, plural(u.Files, "file"))
}

func attributes(f core.FileItem) string {
	var attrs []string
	if f.ReadOnly {
		attrs = append(attrs, "R/O")
	}
	if f.System {
		attrs = append(attrs, "SYS")
	}
	if f.Archived {
		attrs = append(attrs, "ARC")
	}
	return strings.Join(attrs, ",")
}

func sectorIDs(ids []int) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = fmt.Sprintf("%02X", id)
	}
	return strings.Join(s, " ")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
