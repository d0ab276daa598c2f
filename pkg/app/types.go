package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/deploymenttheory/go-judim/internal/disk"
	"github.com/deploymenttheory/go-judim/internal/parsers/cpm"
	"github.com/deploymenttheory/go-judim/internal/parsers/tape"
	core "github.com/deploymenttheory/go-judim/internal/services"
	"github.com/deploymenttheory/go-judim/pkg/services"
)

// ProgressUpdate represents progress information
type ProgressUpdate struct {
	Message   string
	Completed int
	Total     int
}

// Percent calculates completion percentage
func (p ProgressUpdate) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	if p.Completed >= p.Total {
		return 100
	}
	return (p.Completed * 100) / p.Total
}

// CommonError represents application-level errors
type CommonError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CommonError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CommonError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeMediaAccess  = "MEDIA_ACCESS"
	ErrCodeCorruptMedia = "CORRUPT_MEDIA"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeNoSpace      = "NO_SPACE"
	ErrCodeLocked       = "LOCKED"
	ErrCodeTimeout      = "TIMEOUT"
)

// NewError creates a new CommonError
func NewError(code, message string, cause error) *CommonError {
	return &CommonError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapError classifies a service error under a CommonError code.
// A CommonError is returned unchanged.
func WrapError(message string, err error) error {
	if err == nil {
		return nil
	}
	var ce *CommonError
	if errors.As(err, &ce) {
		return err
	}
	return NewError(ErrorCode(err), message, err)
}

// ErrorCode maps the toolkit's sentinel errors onto CommonError codes
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, tape.ErrCorruptStream),
		errors.Is(err, tape.ErrChecksumMismatch),
		errors.Is(err, tape.ErrLengthMismatch),
		errors.Is(err, tape.ErrInvalidHeader),
		errors.Is(err, cpm.ErrCorruptDirectory),
		errors.Is(err, disk.ErrInvalidImage),
		errors.Is(err, disk.ErrSectorNotFound):
		return ErrCodeCorruptMedia
	case errors.Is(err, core.ErrIndexOutOfRange),
		errors.Is(err, core.ErrEntryPartMissing),
		errors.Is(err, core.ErrFileNotFound),
		errors.Is(err, fs.ErrNotExist):
		return ErrCodeNotFound
	case errors.Is(err, core.ErrFileExists),
		errors.Is(err, services.ErrImageExists):
		return ErrCodeConflict
	case errors.Is(err, core.ErrDiskFull),
		errors.Is(err, core.ErrDirectoryFull):
		return ErrCodeNoSpace
	case errors.Is(err, services.ErrImageLocked):
		return ErrCodeLocked
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeout
	case errors.Is(err, cpm.ErrInvalidFileName),
		errors.Is(err, disk.ErrInvalidGeometry),
		errors.Is(err, disk.ErrAddressOutOfRange):
		return ErrCodeInvalidInput
	default:
		return ErrCodeMediaAccess
	}
}
