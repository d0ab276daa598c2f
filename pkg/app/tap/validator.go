package tap

import (
	"github.com/deploymenttheory/go-judim/pkg/app"
)

// Validate validates a tape info request
func (r *InfoRequest) Validate() error {
	if r.TapePath == "" {
		return app.NewError(app.ErrCodeInvalidInput, "tape path is required", nil)
	}
	return nil
}

// Validate validates a verify request
func (r *VerifyRequest) Validate() error {
	if r.TapePath == "" {
		return app.NewError(app.ErrCodeInvalidInput, "tape path is required", nil)
	}
	return nil
}

// Validate validates an extract request
func (r *ExtractRequest) Validate() error {
	if r.TapePath == "" {
		return app.NewError(app.ErrCodeInvalidInput, "tape path is required", nil)
	}
	if r.Index < 0 {
		return app.NewError(app.ErrCodeInvalidInput, "entry index must not be negative", nil)
	}

	if r.HeaderOnly && r.DataOnly {
		return app.NewError(app.ErrCodeInvalidInput, "cannot specify both header and data", nil)
	}
	if r.Raw && r.DiskForm {
		return app.NewError(app.ErrCodeInvalidInput, "cannot specify both raw and disk form", nil)
	}
	if (r.Raw || r.DiskForm) && (r.HeaderOnly || r.DataOnly) {
		return app.NewError(app.ErrCodeInvalidInput, "header and data selection only apply to TAP output", nil)
	}
	return nil
}

// Validate validates an explode request
func (r *ExplodeRequest) Validate() error {
	if r.TapePath == "" {
		return app.NewError(app.ErrCodeInvalidInput, "tape path is required", nil)
	}
	if r.Directory == "" {
		return app.NewError(app.ErrCodeInvalidInput, "output directory is required", nil)
	}
	if r.Raw && r.DiskForm {
		return app.NewError(app.ErrCodeInvalidInput, "cannot specify both raw and disk form", nil)
	}
	return nil
}
