package services

import (
	"github.com/deploymenttheory/go-judim/internal/parsers/tape"
	"github.com/deploymenttheory/go-judim/internal/types"
)

// TapeEntry is one logical file of a tape archive. The set of implementations
// is closed: PairedEntry, HeaderOnlyEntry and DataOnlyEntry.
type TapeEntry interface {
	// Index returns the position of the entry in the archive
	Index() int
	// Offset returns the stream offset of the entry's first block
	Offset() int
	// Blocks returns the decoded blocks of the entry in stream order
	Blocks() []tape.DecodedBlock

	tapeEntry()
}

// PairedEntry is a header block followed by its data block
type PairedEntry struct {
	index     int
	header    types.TapeHeader
	headerBlk tape.DecodedBlock
	dataBlk   tape.DecodedBlock
}

// HeaderOnlyEntry is a header block with no data block after it
type HeaderOnlyEntry struct {
	index     int
	header    types.TapeHeader
	headerBlk tape.DecodedBlock
}

// DataOnlyEntry is a data block with no header before it
type DataOnlyEntry struct {
	index   int
	dataBlk tape.DecodedBlock
}

func (e *PairedEntry) Index() int                  { return e.index }
func (e *PairedEntry) Offset() int                 { return e.headerBlk.Offset }
func (e *PairedEntry) Blocks() []tape.DecodedBlock { return []tape.DecodedBlock{e.headerBlk, e.dataBlk} }
func (e *PairedEntry) tapeEntry()                  {}

// Header returns the parsed header
func (e *PairedEntry) Header() types.TapeHeader { return e.header }

// Data returns the data block payload
func (e *PairedEntry) Data() []byte { return e.dataBlk.Payload }

func (e *HeaderOnlyEntry) Index() int                  { return e.index }
func (e *HeaderOnlyEntry) Offset() int                 { return e.headerBlk.Offset }
func (e *HeaderOnlyEntry) Blocks() []tape.DecodedBlock { return []tape.DecodedBlock{e.headerBlk} }
func (e *HeaderOnlyEntry) tapeEntry()                  {}

// Header returns the parsed header
func (e *HeaderOnlyEntry) Header() types.TapeHeader { return e.header }

func (e *DataOnlyEntry) Index() int                  { return e.index }
func (e *DataOnlyEntry) Offset() int                 { return e.dataBlk.Offset }
func (e *DataOnlyEntry) Blocks() []tape.DecodedBlock { return []tape.DecodedBlock{e.dataBlk} }
func (e *DataOnlyEntry) tapeEntry()                  {}

// Data returns the data block payload
func (e *DataOnlyEntry) Data() []byte { return e.dataBlk.Payload }

// EntryHeader returns the header of an entry that has one
func EntryHeader(e TapeEntry) (types.TapeHeader, bool) {
	switch v := e.(type) {
	case *PairedEntry:
		return v.header, true
	case *HeaderOnlyEntry:
		return v.header, true
	default:
		return types.TapeHeader{}, false
	}
}

// EntryData returns the data payload of an entry that has one
func EntryData(e TapeEntry) ([]byte, bool) {
	switch v := e.(type) {
	case *PairedEntry:
		return v.dataBlk.Payload, true
	case *DataOnlyEntry:
		return v.dataBlk.Payload, true
	default:
		return nil, false
	}
}

func entryDataBlock(e TapeEntry) (tape.DecodedBlock, bool) {
	switch v := e.(type) {
	case *PairedEntry:
		return v.dataBlk, true
	case *DataOnlyEntry:
		return v.dataBlk, true
	default:
		return tape.DecodedBlock{}, false
	}
}

// EntryKind names the variant of an entry
func EntryKind(e TapeEntry) string {
	switch e.(type) {
	case *PairedEntry:
		return "paired"
	case *HeaderOnlyEntry:
		return "header-only"
	case *DataOnlyEntry:
		return "data-only"
	default:
		return "unknown"
	}
}
