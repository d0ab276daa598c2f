package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/deploymenttheory/go-judim/internal/config"
	"github.com/deploymenttheory/go-judim/internal/disk"
	core "github.com/deploymenttheory/go-judim/internal/services"
)

// diskService implements the DiskService interface
type diskService struct {
	config *config.Config
	tapes  TapeService
	logger zerolog.Logger
}

// NewDiskService creates a new disk service instance
func NewDiskService(cfg *config.Config, tapes TapeService, logger zerolog.Logger) DiskService {
	return &diskService{config: cfg, tapes: tapes, logger: logger}
}

func (ds *diskService) imageLogger(path string) zerolog.Logger {
	return ds.logger.With().Str("image", filepath.Base(path)).Logger()
}

// Open reads a disk image with the configured geometry and container format
func (ds *diskService) Open(ctx context.Context, path string) (*core.DiskFilesystem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g, err := ds.config.DiskGeometry()
	if err != nil {
		return nil, err
	}
	data, err := readHostFile(path)
	if err != nil {
		return nil, err
	}

	image, err := disk.OpenImageAs(data, g, ds.config.DiskFormat())
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	filesystem, err := core.OpenFilesystem(image, ds.imageLogger(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read directory of %s: %w", path, err)
	}
	return filesystem, nil
}

// Get returns the contents of one file, optionally converted back to TAP
func (ds *diskService) Get(ctx context.Context, path, name string, opts GetOptions) ([]byte, error) {
	filesystem, err := ds.Open(ctx, path)
	if err != nil {
		return nil, err
	}

	find := filesystem.Find
	if opts.Deleted {
		find = filesystem.FindDeleted
	}
	f, err := find(name)
	if err != nil {
		return nil, err
	}
	data, err := filesystem.ReadFile(f)
	if err != nil {
		return nil, err
	}

	if opts.ToTap {
		return core.TapeFromDiskForm(data, opts.NoAutorun)
	}
	return data, nil
}

// Copy writes the named files into dir using their CP/M names
func (ds *diskService) Copy(ctx context.Context, path string, names []string, dir string) ([]WrittenFile, error) {
	filesystem, err := ds.Open(ctx, path)
	if err != nil {
		return nil, err
	}

	written := make([]WrittenFile, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit(ds.config))

	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := filesystem.Find(name)
			if err != nil {
				return err
			}
			data, err := filesystem.ReadFile(f)
			if err != nil {
				return err
			}

			target := filepath.Join(dir, f.Name())
			if err := WriteFile(target, data); err != nil {
				return err
			}
			written[i] = WrittenFile{Index: i, Name: f.Name(), Path: target, Size: len(data)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return written, nil
}

// Put adds host files to the image. The image is rewritten atomically while
// holding an exclusive lock on "<image>.lock". The lock file is left in place
// so every writer locks the same inode.
func (ds *diskService) Put(ctx context.Context, path string, files []HostFile) (*PutResult, error) {
	lockPath := path + ".lock"
	fileLock := flock.New(lockPath)

	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrImageLocked, lockPath)
	}
	defer fileLock.Unlock()

	filesystem, err := ds.Open(ctx, path)
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		filesystem, err = filesystem.AddFile(file.Name, file.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", file.Name, err)
		}
	}

	if err := WriteFile(path, filesystem.Image().Bytes()); err != nil {
		return nil, err
	}

	result := &PutResult{Image: path, Usage: filesystem.Usage()}
	for _, file := range files {
		f, err := filesystem.Find(file.Name)
		if err != nil {
			return nil, err
		}
		result.Added = append(result.Added, core.FileItemOf(f))
	}

	ds.logger.Info().
		Str("image", path).
		Int("files", len(files)).
		Int("free_blocks", result.Usage.FreeBlocks).
		Msg("image updated")
	return result, nil
}

// PutTape copies tape entries onto the image as header+data files named after
// the tape entry with the per-type extension
func (ds *diskService) PutTape(ctx context.Context, path, tapePath string, indices []int, noAutorun bool) (*PutResult, error) {
	archive, err := ds.tapes.Open(ctx, tapePath)
	if err != nil {
		return nil, err
	}

	files := make([]HostFile, 0, len(indices))
	for _, index := range indices {
		data, err := archive.DiskForm(index, noAutorun)
		if err != nil {
			return nil, err
		}
		name, err := archive.DiskFileName(index)
		if err != nil {
			return nil, err
		}
		files = append(files, HostFile{Name: name.String(), Data: data})
	}
	return ds.Put(ctx, path, files)
}

// Format creates a blank image with the configured geometry
func (ds *diskService) Format(ctx context.Context, path string, opts FormatOptions) (*core.DiskFilesystem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !opts.Force {
		if _, err := os.Stat(path); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrImageExists, path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	g, err := ds.config.DiskGeometry()
	if err != nil {
		return nil, err
	}

	format := opts.Format
	if format == disk.FormatDetected {
		format = ds.config.DiskFormat()
	}

	var image disk.SectorImage
	switch format {
	case disk.FormatRaw:
		image = disk.FormatRawImage(g)
	case disk.FormatEDSK, disk.FormatDetected:
		image, err = disk.FormatDSKImage(g, ds.config.Creator)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: cannot create %s images, use raw or edsk", disk.ErrInvalidImage, format)
	}

	if err := WriteFile(path, image.Bytes()); err != nil {
		return nil, err
	}
	ds.logger.Info().Str("image", path).Str("format", string(image.Format())).Int("bytes", len(image.Bytes())).Msg("image formatted")
	return core.OpenFilesystem(image, ds.imageLogger(path))
}
