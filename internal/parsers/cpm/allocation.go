package cpm

import (
	"fmt"

	"github.com/deploymenttheory/go-judim/internal/types"
)

// AllocationMap records which blocks of the data area are in use
type AllocationMap []bool

// CheckAllocation builds the allocation map of the live extents. The directory
// blocks are always in use. A block outside [dirBlocks, totalBlocks) or
// referenced twice is a corrupt directory.
func CheckAllocation(extents []types.DirectoryExtent, dirBlocks, totalBlocks int) (AllocationMap, error) {
	used := make(AllocationMap, totalBlocks)
	for b := 0; b < dirBlocks && b < totalBlocks; b++ {
		used[b] = true
	}

	for _, e := range extents {
		for _, b := range e.Blocks {
			if b == 0 {
				continue
			}
			if int(b) < dirBlocks || int(b) >= totalBlocks {
				return nil, &DirectoryError{Slot: e.Slot, File: KeyString(e.Key()), Reason: fmt.Sprintf("block %d outside data area [%d, %d)", b, dirBlocks, totalBlocks)}
			}
			if used[b] {
				return nil, &DirectoryError{Slot: e.Slot, File: KeyString(e.Key()), Reason: fmt.Sprintf("block %d used more than once", b)}
			}
			used[b] = true
		}
	}
	return used, nil
}

// Free returns the free block numbers in ascending order
func (m AllocationMap) Free() []uint16 {
	var free []uint16
	for b, inUse := range m {
		if !inUse {
			free = append(free, uint16(b))
		}
	}
	return free
}

// Used returns the number of blocks in use, directory included
func (m AllocationMap) Used() int {
	n := 0
	for _, inUse := range m {
		if inUse {
			n++
		}
	}
	return n
}

