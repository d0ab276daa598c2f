package cpm

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-judim/internal/types"
)

// CP/M 3 uses these user numbers for non-file directory entries
const (
	labelEntryUser     uint8 = 0x20
	timestampEntryUser uint8 = 0x21
)

// ParseExtent decodes one 32-byte directory slot
func ParseExtent(raw []byte, slot int, width types.BlockPointerWidth) (types.DirectoryExtent, error) {
	var e types.DirectoryExtent
	if len(raw) != types.DirEntrySize {
		return e, fmt.Errorf("directory slot %d is %d bytes, want %d", slot, len(raw), types.DirEntrySize)
	}

	e.User = raw[0]
	copy(e.Name[:], raw[1:9])
	copy(e.Extension[:], raw[9:12])
	e.ExtentLow = raw[12]
	e.S1 = raw[13]
	e.S2 = raw[14]
	e.RecordCount = raw[15]
	e.Slot = slot

	pointers := raw[16:32]
	e.Blocks = make([]uint16, width.PointersPerEntry())
	for i := range e.Blocks {
		if width == types.BlockPointer8 {
			e.Blocks[i] = uint16(pointers[i])
		} else {
			e.Blocks[i] = binary.LittleEndian.Uint16(pointers[i*2:])
		}
	}
	return e, nil
}

// ParseDirectory decodes every slot of a directory region, deleted ones included
func ParseDirectory(raw []byte, width types.BlockPointerWidth) ([]types.DirectoryExtent, error) {
	if len(raw)%types.DirEntrySize != 0 {
		return nil, fmt.Errorf("directory region of %d bytes is not a multiple of %d", len(raw), types.DirEntrySize)
	}

	extents := make([]types.DirectoryExtent, 0, len(raw)/types.DirEntrySize)
	for slot := 0; slot*types.DirEntrySize < len(raw); slot++ {
		off := slot * types.DirEntrySize
		e, err := ParseExtent(raw[off:off+types.DirEntrySize], slot, width)
		if err != nil {
			return nil, err
		}
		extents = append(extents, e)
	}
	return extents, nil
}

// EncodeExtent serializes a directory slot. Missing block pointers are written as zero.
func EncodeExtent(e types.DirectoryExtent, width types.BlockPointerWidth) ([]byte, error) {
	if len(e.Blocks) > width.PointersPerEntry() {
		return nil, fmt.Errorf("extent holds %d blocks, slot fits %d", len(e.Blocks), width.PointersPerEntry())
	}

	out := make([]byte, types.DirEntrySize)
	out[0] = e.User
	copy(out[1:9], e.Name[:])
	copy(out[9:12], e.Extension[:])
	out[12] = e.ExtentLow
	out[13] = e.S1
	out[14] = e.S2
	out[15] = e.RecordCount

	for i, b := range e.Blocks {
		if width == types.BlockPointer8 {
			if b > 0xFF {
				return nil, fmt.Errorf("block %d does not fit an 8-bit pointer", b)
			}
			out[16+i] = uint8(b)
		} else {
			binary.LittleEndian.PutUint16(out[16+i*2:], b)
		}
	}
	return out, nil
}

// Live returns the slots that describe files, skipping deleted slots and
// CP/M 3 label and timestamp entries. Malformed file entries fail the whole directory.
func Live(extents []types.DirectoryExtent) ([]types.DirectoryExtent, error) {
	live := make([]types.DirectoryExtent, 0, len(extents))
	for _, e := range extents {
		switch {
		case e.Deleted(), e.User == labelEntryUser, e.User == timestampEntryUser:
			continue
		case e.User > types.MaxUser:
			return nil, &DirectoryError{Slot: e.Slot, Reason: fmt.Sprintf("invalid user number %d", e.User)}
		case !validStoredName(e.Name[:], false) || !validStoredName(e.Extension[:], true):
			return nil, &DirectoryError{Slot: e.Slot, Reason: fmt.Sprintf("invalid name %q", e.Name[:])}
		case e.RecordCount > types.RecordsPerExtent:
			return nil, &DirectoryError{Slot: e.Slot, File: KeyString(e.Key()), Reason: fmt.Sprintf("record count %d exceeds %d", e.RecordCount, types.RecordsPerExtent)}
		}
		live = append(live, e)
	}
	return live, nil
}

// LikelyDeleted reports whether a deleted slot still looks like a recoverable file
// extent: a valid name, a plausible record count and block pointers inside the data area.
func LikelyDeleted(e types.DirectoryExtent, dirBlocks, totalBlocks int) bool {
	if !e.Deleted() {
		return false
	}
	if !validStoredName(e.Name[:], false) || !validStoredName(e.Extension[:], true) || e.RecordCount > types.RecordsPerExtent {
		return false
	}

	used := 0
	for _, b := range e.Blocks {
		if b == 0 {
			continue
		}
		if int(b) < dirBlocks || int(b) >= totalBlocks {
			return false
		}
		used++
	}
	return used > 0 || e.RecordCount == 0
}
