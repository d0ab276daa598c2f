package types

// CP/M directory structures (Junior, Spectrum +3 and Amstrad variants)
// Reference: http://www.seasip.info/Cpm/format22.html, http://www.seasip.info/Cpm/format31.html

const (
	// DirEntrySize is the size of one directory slot.
	DirEntrySize = 32

	// RecordSize is the CP/M record (allocation accounting) unit.
	RecordSize = 128

	// RecordsPerExtent is the maximum record count of one logical extent.
	RecordsPerExtent = 128

	// DeletedUser marks a deleted or never-used directory slot.
	DeletedUser uint8 = 0xE5

	// MaxUser is the highest valid user number.
	MaxUser uint8 = 15

	// FileNameLength is the width of the name field.
	FileNameLength = 8
	// FileExtLength is the width of the extension field.
	FileExtLength = 3

	// ExtentLowMask selects the low extent bits stored in EX.
	ExtentLowMask = 0x1F
	// ExtentHighShift is the weight of S2 in the full extent number.
	ExtentHighShift = 5

	// EOFMarker is the conventional end-of-text padding byte.
	EOFMarker = 0x1A
)

// Attribute bits live in the high bit of the extension characters.
const (
	// AttrReadOnly is stored in bit 7 of extension character 0.
	AttrReadOnly uint8 = 1 << iota
	// AttrSystem is stored in bit 7 of extension character 1.
	AttrSystem
	// AttrArchive is stored in bit 7 of extension character 2.
	AttrArchive
)

// BlockPointerWidth is the size of one allocation block pointer in a directory slot.
type BlockPointerWidth int

const (
	// BlockPointer8 stores 16 one-byte pointers (disks with fewer than 256 blocks).
	BlockPointer8 BlockPointerWidth = 1
	// BlockPointer16 stores 8 little-endian two-byte pointers.
	BlockPointer16 BlockPointerWidth = 2
)

// PointersPerEntry returns the number of block pointers a slot holds.
func (w BlockPointerWidth) PointersPerEntry() int {
	if w == BlockPointer8 {
		return 16
	}
	return 8
}

// DirectoryExtent is one 32-byte directory slot.
//
// Layout:
//
//	0x00: user number (0-15, 0xE5 deleted)
//	0x01-0x08: name (high bits may carry flags F1-F8)
//	0x09-0x0B: extension (high bits: read-only, system, archive)
//	0x0C: EX, low extent bits
//	0x0D: S1, last record byte count (CP/M 3)
//	0x0E: S2, high extent bits
//	0x0F: RC, record count of the last logical extent in this slot
//	0x10-0x1F: allocation block pointers
type DirectoryExtent struct {
	User        uint8
	Name        [FileNameLength]byte
	Extension   [FileExtLength]byte
	ExtentLow   uint8
	S1          uint8
	S2          uint8
	RecordCount uint8
	Blocks      []uint16

	// Slot is the index of the entry within the directory region.
	Slot int
}

// Deleted reports whether the slot is marked unused.
func (e *DirectoryExtent) Deleted() bool {
	return e.User == DeletedUser
}

// ExtentNumber returns the full logical extent number (EX + 32*S2).
func (e *DirectoryExtent) ExtentNumber() int {
	return int(e.S2)<<ExtentHighShift | int(e.ExtentLow&ExtentLowMask)
}

// Attributes returns the attribute bits stored in the extension high bits.
func (e *DirectoryExtent) Attributes() uint8 {
	var attr uint8
	if e.Extension[0]&0x80 != 0 {
		attr |= AttrReadOnly
	}
	if e.Extension[1]&0x80 != 0 {
		attr |= AttrSystem
	}
	if e.Extension[2]&0x80 != 0 {
		attr |= AttrArchive
	}
	return attr
}

// FileKey identifies a logical file: extents sharing it belong to the same file.
type FileKey struct {
	User      uint8
	Name      [FileNameLength]byte
	Extension [FileExtLength]byte
}

// Key returns the identity of the file the extent belongs to, with attribute bits stripped.
func (e *DirectoryExtent) Key() FileKey {
	k := FileKey{User: e.User, Name: e.Name}
	for i := range e.Name {
		k.Name[i] &= 0x7F
	}
	for i, c := range e.Extension {
		k.Extension[i] = c & 0x7F
	}
	return k
}
