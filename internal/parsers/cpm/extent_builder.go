package cpm

import (
	"fmt"

	"github.com/deploymenttheory/go-judim/internal/types"
)

// BlocksNeeded returns the number of allocation blocks a file of length bytes occupies
func BlocksNeeded(length int, layout Layout) int {
	return (length + layout.BlockSize - 1) / layout.BlockSize
}

// EntriesNeeded returns the number of directory slots a file of length bytes occupies
func EntriesNeeded(length int, layout Layout) int {
	records := (length + types.RecordSize - 1) / types.RecordSize
	n := (records + layout.RecordsPerEntry() - 1) / layout.RecordsPerEntry()
	if n == 0 {
		// an empty file still needs its first extent
		n = 1
	}
	return n
}

// BuildExtents lays out directory extents for a file of length bytes stored in
// blocks. It is the inverse of GroupByFile, ResolveBlocks and FileLength.
func BuildExtents(key types.FileKey, blocks []uint16, length int, layout Layout) ([]types.DirectoryExtent, error) {
	if length < 0 {
		return nil, fmt.Errorf("negative file length %d", length)
	}
	if need := BlocksNeeded(length, layout); len(blocks) != need {
		return nil, fmt.Errorf("file of %d bytes needs %d blocks, got %d", length, need, len(blocks))
	}

	records := (length + types.RecordSize - 1) / types.RecordSize
	perEntry := layout.RecordsPerEntry()
	pointers := layout.Width.PointersPerEntry()
	entries := EntriesNeeded(length, layout)

	extents := make([]types.DirectoryExtent, entries)
	for i := range extents {
		r := records - i*perEntry
		if r > perEntry {
			r = perEntry
		}

		within, rc := 0, 0
		if r > 0 {
			within = (r - 1) / types.RecordsPerExtent
			rc = r - within*types.RecordsPerExtent
		}
		n := i*(layout.ExtentMask+1) + within

		first := i * pointers
		last := first + pointers
		if last > len(blocks) {
			last = len(blocks)
		}
		if first > last {
			first = last
		}
		list := make([]uint16, pointers)
		copy(list, blocks[first:last])

		extents[i] = types.DirectoryExtent{
			User:        key.User,
			Name:        key.Name,
			Extension:   key.Extension,
			ExtentLow:   uint8(n & types.ExtentLowMask),
			S2:          uint8(n >> types.ExtentHighShift),
			RecordCount: uint8(rc),
			Blocks:      list,
			Slot:        -1,
		}
	}

	if tail := length % types.RecordSize; tail != 0 {
		extents[len(extents)-1].S1 = uint8(tail)
	}
	return extents, nil
}
