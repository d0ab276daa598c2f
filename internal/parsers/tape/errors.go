package tape

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruptStream is returned when block framing is inconsistent or truncated.
	ErrCorruptStream = errors.New("corrupt tape stream")
	// ErrChecksumMismatch is reported when a stored block checksum does not match its content.
	ErrChecksumMismatch = errors.New("block checksum mismatch")
	// ErrLengthMismatch is reported when a header's data length differs from its data block.
	ErrLengthMismatch = errors.New("header data length mismatch")
	// ErrInvalidHeader is returned when a payload cannot be parsed as a tape header.
	ErrInvalidHeader = errors.New("invalid tape header")
)

// StreamError locates a framing failure within the tape byte stream.
type StreamError struct {
	Offset int
	Block  int
	Reason string
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("%v: block %d at offset %d: %s", ErrCorruptStream, e.Block, e.Offset, e.Reason)
}

func (e *StreamError) Unwrap() error {
	return ErrCorruptStream
}

// Issue is a recoverable problem found while verifying decoded blocks.
type Issue struct {
	Block    int
	Offset   int
	Err      error
	Expected uint8
	Actual   uint8
}

func (i Issue) Error() string {
	if errors.Is(i.Err, ErrChecksumMismatch) {
		return fmt.Sprintf("block %d at offset %d: %v (stored 0x%02X, computed 0x%02X)",
			i.Block, i.Offset, i.Err, i.Expected, i.Actual)
	}
	return fmt.Sprintf("block %d at offset %d: %v", i.Block, i.Offset, i.Err)
}

func (i Issue) Unwrap() error {
	return i.Err
}
