// File: internal/interfaces/tape.go
package interfaces

import "github.com/deploymenttheory/go-judim/internal/types"

// TapeHeaderReader provides typed access to a tape header
type TapeHeaderReader interface {
	// Header returns the underlying header value
	Header() types.TapeHeader

	// FileType returns the header's file type
	FileType() types.TapeFileType

	// Name returns the file name with trailing padding removed
	Name() string

	// DataLength returns the declared length of the following data block
	DataLength() uint16

	// AutostartLine returns the autostart line of a BASIC program and whether one is set
	AutostartLine() (uint16, bool)

	// VariablesOffset returns the offset of the variables area of a BASIC program
	VariablesOffset() uint16

	// LoadAddress returns the load address of a code block
	LoadAddress() uint16

	// ArrayVariable returns the variable name of an array, e.g. "a" or "b$"
	ArrayVariable() string
}
