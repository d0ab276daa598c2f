package dsk

import (
	"strings"

	"github.com/deploymenttheory/go-judim/internal/disk"
	"github.com/deploymenttheory/go-judim/internal/types"
	"github.com/deploymenttheory/go-judim/pkg/app"
)

func requireImage(path string) error {
	if path == "" {
		return app.NewError(app.ErrCodeInvalidInput, "image path is required", nil)
	}
	return nil
}

// Validate validates an info request
func (r *InfoRequest) Validate() error {
	return requireImage(r.ImagePath)
}

// Validate validates a listing request
func (r *ListRequest) Validate() error {
	if err := requireImage(r.ImagePath); err != nil {
		return err
	}
	if r.User < -1 || r.User > int(types.MaxUser) {
		return app.NewError(app.ErrCodeInvalidInput, "user must be between 0 and 15", nil)
	}
	return nil
}

// Validate validates a get request
func (r *GetRequest) Validate() error {
	if err := requireImage(r.ImagePath); err != nil {
		return err
	}
	if r.Name == "" {
		return app.NewError(app.ErrCodeInvalidInput, "file name is required", nil)
	}
	if r.NoAutorun && !r.ToTap {
		return app.NewError(app.ErrCodeInvalidInput, "--no-autorun only applies with --to-tap", nil)
	}
	return nil
}

// Validate validates a copy request
func (r *CopyRequest) Validate() error {
	if err := requireImage(r.ImagePath); err != nil {
		return err
	}
	if len(r.Names) == 0 {
		return app.NewError(app.ErrCodeInvalidInput, "at least one file name is required", nil)
	}
	if r.Directory == "" {
		return app.NewError(app.ErrCodeInvalidInput, "output directory is required", nil)
	}
	return nil
}

// Validate validates a put request
func (r *PutRequest) Validate() error {
	if err := requireImage(r.ImagePath); err != nil {
		return err
	}
	if r.HostPath == "" {
		return app.NewError(app.ErrCodeInvalidInput, "host file is required", nil)
	}
	return nil
}

// Validate validates a put-tap request
func (r *PutTapeRequest) Validate() error {
	if err := requireImage(r.ImagePath); err != nil {
		return err
	}
	if r.TapePath == "" {
		return app.NewError(app.ErrCodeInvalidInput, "tape path is required", nil)
	}
	if len(r.Indices) == 0 {
		return app.NewError(app.ErrCodeInvalidInput, "at least one entry index is required", nil)
	}
	seen := make(map[int]bool, len(r.Indices))
	for _, index := range r.Indices {
		if index < 0 {
			return app.NewError(app.ErrCodeInvalidInput, "entry index must not be negative", nil)
		}
		if seen[index] {
			return app.NewError(app.ErrCodeInvalidInput, "entry index listed twice", nil)
		}
		seen[index] = true
	}
	return nil
}

// Validate validates a format request
func (r *FormatRequest) Validate() error {
	if err := requireImage(r.ImagePath); err != nil {
		return err
	}
	switch disk.ImageFormat(strings.ToLower(r.Format)) {
	case disk.FormatDetected, disk.FormatRaw, disk.FormatEDSK:
		return nil
	default:
		return app.NewError(app.ErrCodeInvalidInput, "format must be raw or edsk", nil)
	}
}
