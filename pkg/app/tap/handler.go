package tap

import (
	"fmt"
	"path/filepath"

	"github.com/deploymenttheory/go-judim/internal/parsers/tape"
	core "github.com/deploymenttheory/go-judim/internal/services"
	"github.com/deploymenttheory/go-judim/pkg/app"
	"github.com/deploymenttheory/go-judim/pkg/services"
)

// HandleInfo lists the entries of a tape
func HandleInfo(ctx *app.Context, req *InfoRequest) (*InfoResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	archive, err := openArchive(ctx, req.TapePath)
	if err != nil {
		return nil, err
	}

	return &InfoResponse{
		TapePath: req.TapePath,
		Blocks:   len(archive.Blocks()),
		Entries:  archive.Info(),
		Issues:   summarizeIssues(archive.Issues()),
	}, nil
}

// HandleVerify checks every block of a tape
func HandleVerify(ctx *app.Context, req *VerifyRequest) (*VerifyResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	archive, err := openArchive(ctx, req.TapePath)
	if err != nil {
		return nil, err
	}

	issues := summarizeIssues(archive.Issues())
	ctx.Log(fmt.Sprintf("Verified %d blocks: %d issues", len(archive.Blocks()), len(issues)))
	return &VerifyResponse{
		TapePath: req.TapePath,
		Blocks:   len(archive.Blocks()),
		Entries:  archive.Len(),
		Issues:   issues,
		OK:       len(issues) == 0,
	}, nil
}

// HandleExtract writes one entry to the host
func HandleExtract(ctx *app.Context, req *ExtractRequest) (*ExtractResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tapes, err := ctx.TapeService()
	if err != nil {
		return nil, err
	}
	archive, err := openArchive(ctx, req.TapePath)
	if err != nil {
		return nil, err
	}

	opts := req.options()
	data, err := tapes.Extract(archive, req.Index, opts)
	if err != nil {
		return nil, app.WrapError(fmt.Sprintf("failed to extract entry %d", req.Index), err)
	}

	name := archive.HostFileName(req.Index, opts.Extension())
	output := req.Output
	if output == "" {
		output = name
	}
	if err := services.WriteFile(output, data); err != nil {
		return nil, app.WrapError("failed to write entry", err)
	}

	ctx.Log(fmt.Sprintf("Extracted entry %d to %s", req.Index, output))
	return &ExtractResponse{
		Index:  req.Index,
		Name:   name,
		Output: output,
		Form:   req.form(),
		Size:   len(data),
	}, nil
}

// HandleExplode writes every entry of a tape to a directory
func HandleExplode(ctx *app.Context, req *ExplodeRequest) (*ExplodeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tapes, err := ctx.TapeService()
	if err != nil {
		return nil, err
	}

	runCtx, cancel := ctx.WithTimeout(ctx.DefaultTimeout)
	defer cancel()

	ctx.Progress(app.ProgressUpdate{Message: "Exploding tape..."})
	result, err := tapes.Explode(runCtx, req.TapePath, filepath.Clean(req.Directory), services.ExtractOptions{
		Raw:       req.Raw,
		DiskForm:  req.DiskForm,
		NoAutorun: req.NoAutorun,
	})
	if err != nil {
		return nil, app.WrapError("failed to explode tape", err)
	}
	done := len(result.Files) + len(result.Skipped)
	ctx.Progress(app.ProgressUpdate{Message: "Complete", Completed: done, Total: done})

	return &ExplodeResponse{TapePath: req.TapePath, ExplodeResult: *result}, nil
}

func openArchive(ctx *app.Context, path string) (*core.TapeArchive, error) {
	tapes, err := ctx.TapeService()
	if err != nil {
		return nil, err
	}
	archive, err := tapes.Open(ctx, path)
	if err != nil {
		return nil, app.WrapError("failed to read tape", err)
	}
	return archive, nil
}

func summarizeIssues(issues []tape.Issue) []IssueSummary {
	out := make([]IssueSummary, 0, len(issues))
	for _, issue := range issues {
		kind := "length"
		if core.IsChecksumIssue(issue) {
			kind = "checksum"
		}
		out = append(out, IssueSummary{
			Block:   issue.Block,
			Offset:  issue.Offset,
			Kind:    kind,
			Message: issue.Error(),
		})
	}
	return out
}
