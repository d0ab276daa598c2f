package cpm

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruptDirectory is returned for malformed entries, extent gaps and allocation conflicts.
	ErrCorruptDirectory = errors.New("corrupt directory")
	// ErrInvalidFileName is returned when a name cannot be expressed as a CP/M 8.3 name.
	ErrInvalidFileName = errors.New("invalid file name")
)

// DirectoryError describes a directory inconsistency. It unwraps to ErrCorruptDirectory.
type DirectoryError struct {
	// Slot is the directory slot index, or -1 when the problem is not tied to one slot
	Slot   int
	File   string
	Reason string
}

func (e *DirectoryError) Error() string {
	switch {
	case e.File != "" && e.Slot >= 0:
		return fmt.Sprintf("%v: %s (slot %d): %s", ErrCorruptDirectory, e.File, e.Slot, e.Reason)
	case e.File != "":
		return fmt.Sprintf("%v: %s: %s", ErrCorruptDirectory, e.File, e.Reason)
	case e.Slot >= 0:
		return fmt.Sprintf("%v: slot %d: %s", ErrCorruptDirectory, e.Slot, e.Reason)
	default:
		return fmt.Sprintf("%v: %s", ErrCorruptDirectory, e.Reason)
	}
}

func (e *DirectoryError) Unwrap() error {
	return ErrCorruptDirectory
}
