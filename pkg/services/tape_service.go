package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/deploymenttheory/go-judim/internal/config"
	core "github.com/deploymenttheory/go-judim/internal/services"
)

// tapeService implements the TapeService interface
type tapeService struct {
	config *config.Config
	logger zerolog.Logger
}

// NewTapeService creates a new tape service instance
func NewTapeService(cfg *config.Config, logger zerolog.Logger) TapeService {
	return &tapeService{config: cfg, logger: logger}
}

func (ts *tapeService) options(path string) core.TapeOptions {
	policy := core.ChecksumWarn
	if ts.config.Strict() {
		policy = core.ChecksumStrict
	}
	return core.TapeOptions{
		ChecksumPolicy: policy,
		Logger:         ts.logger.With().Str("tape", filepath.Base(path)).Logger(),
	}
}

// Open reads and decodes a TAP file
func (ts *tapeService) Open(ctx context.Context, path string) (*core.TapeArchive, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := readHostFile(path)
	if err != nil {
		return nil, err
	}
	archive, err := core.OpenTapeArchive(data, ts.options(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open tape %s: %w", path, err)
	}
	return archive, nil
}

// Extract renders one entry of an open archive
func (ts *tapeService) Extract(archive *core.TapeArchive, index int, opts ExtractOptions) ([]byte, error) {
	switch {
	case opts.Raw:
		return archive.ExtractRaw(index)
	case opts.DiskForm:
		return archive.DiskForm(index, opts.NoAutorun)
	default:
		return archive.Extract(index, opts.Parts, opts.NoAutorun)
	}
}

// Explode writes every entry of a TAP file into dir, named "NN-name.ext".
// Entries that cannot be rendered as requested are skipped and reported.
func (ts *tapeService) Explode(ctx context.Context, path, dir string, opts ExtractOptions) (*ExplodeResult, error) {
	archive, err := ts.Open(ctx, path)
	if err != nil {
		return nil, err
	}

	result := &ExplodeResult{RunID: uuid.NewString(), Directory: dir}
	written := make([]*WrittenFile, archive.Len())
	skipped := make([]*SkippedEntry, archive.Len())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit(ts.config))

	for i := 0; i < archive.Len(); i++ {
		index := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			data, err := ts.Extract(archive, index, opts)
			if errors.Is(err, core.ErrEntryPartMissing) {
				skipped[index] = &SkippedEntry{Index: index, Reason: err.Error()}
				return nil
			}
			if err != nil {
				return err
			}

			name := archive.HostFileName(index, opts.Extension())
			target := filepath.Join(dir, name)
			if err := WriteFile(target, data); err != nil {
				return err
			}
			written[index] = &WrittenFile{Index: index, Name: name, Path: target, Size: len(data)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range written {
		if written[i] != nil {
			result.Files = append(result.Files, *written[i])
		}
		if skipped[i] != nil {
			ts.logger.Warn().Int("index", i).Str("reason", skipped[i].Reason).Msg("entry skipped")
			result.Skipped = append(result.Skipped, *skipped[i])
		}
	}

	ts.logger.Debug().
		Str("run_id", result.RunID).
		Int("written", len(result.Files)).
		Int("skipped", len(result.Skipped)).
		Msg("tape exploded")
	return result, nil
}
