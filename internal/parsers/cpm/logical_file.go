package cpm

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/deploymenttheory/go-judim/internal/types"
)

// Layout carries the filesystem parameters the extent engine depends on
type Layout struct {
	Width      types.BlockPointerWidth
	BlockSize  int
	ExtentMask int
}

// RecordsPerEntry returns how many records one directory slot maps
func (l Layout) RecordsPerEntry() int {
	return l.Width.PointersPerEntry() * l.BlockSize / types.RecordSize
}

// LogicalFile is a read-only view over the extents sharing one file key,
// ordered by extent number.
type LogicalFile struct {
	Key     types.FileKey
	Extents []types.DirectoryExtent
	// Deleted marks a best-effort view rebuilt from deleted slots
	Deleted bool

	layout Layout
}

// Name returns NAME.EXT
func (f LogicalFile) Name() string {
	return KeyString(f.Key)
}

// Attributes returns the attribute bits of the first extent
func (f LogicalFile) Attributes() uint8 {
	if len(f.Extents) == 0 {
		return 0
	}
	return f.Extents[0].Attributes()
}

// CompareKeys orders file keys by user, then name, then extension
func CompareKeys(a, b types.FileKey) int {
	if a.User != b.User {
		if a.User < b.User {
			return -1
		}
		return 1
	}
	if c := bytes.Compare(a.Name[:], b.Name[:]); c != 0 {
		return c
	}
	return bytes.Compare(a.Extension[:], b.Extension[:])
}

// GroupByFile groups live extents by file key and validates that each file's
// directory entries form a contiguous run starting at zero.
func GroupByFile(extents []types.DirectoryExtent, layout Layout) ([]LogicalFile, error) {
	groups := make(map[types.FileKey][]types.DirectoryExtent)
	for _, e := range extents {
		groups[e.Key()] = append(groups[e.Key()], e)
	}

	files := make([]LogicalFile, 0, len(groups))
	for key, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].ExtentNumber() < group[j].ExtentNumber()
		})

		for i, e := range group {
			entry := e.ExtentNumber() / (layout.ExtentMask + 1)
			switch {
			case entry < i:
				return nil, &DirectoryError{Slot: e.Slot, File: KeyString(key), Reason: fmt.Sprintf("extent %d appears twice", e.ExtentNumber())}
			case entry > i:
				return nil, &DirectoryError{Slot: e.Slot, File: KeyString(key), Reason: fmt.Sprintf("extent gap before extent %d", e.ExtentNumber())}
			}
		}

		files = append(files, LogicalFile{Key: key, Extents: group, layout: layout})
	}

	sortFiles(files)
	return files, nil
}

// GroupDeleted rebuilds best-effort views from deleted slots that still look
// like file extents. Duplicate extent numbers keep the first slot; gaps are tolerated.
func GroupDeleted(extents []types.DirectoryExtent, layout Layout, dirBlocks, totalBlocks int) []LogicalFile {
	groups := make(map[types.FileKey][]types.DirectoryExtent)
	for _, e := range extents {
		if LikelyDeleted(e, dirBlocks, totalBlocks) {
			groups[e.Key()] = append(groups[e.Key()], e)
		}
	}

	files := make([]LogicalFile, 0, len(groups))
	for key, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].ExtentNumber() < group[j].ExtentNumber()
		})

		kept := group[:0]
		for _, e := range group {
			if len(kept) > 0 && kept[len(kept)-1].ExtentNumber() == e.ExtentNumber() {
				continue
			}
			kept = append(kept, e)
		}
		files = append(files, LogicalFile{Key: key, Extents: kept, Deleted: true, layout: layout})
	}

	sortFiles(files)
	return files
}

func sortFiles(files []LogicalFile) {
	sort.Slice(files, func(i, j int) bool {
		return CompareKeys(files[i].Key, files[j].Key) < 0
	})
}

// ResolveBlocks concatenates the block lists of all extents in order.
// Trailing zero pointers are unused slots and are dropped from the final extent only.
func ResolveBlocks(f LogicalFile) []uint16 {
	var blocks []uint16
	for i, e := range f.Extents {
		list := e.Blocks
		if i == len(f.Extents)-1 {
			end := len(list)
			for end > 0 && list[end-1] == 0 {
				end--
			}
			list = list[:end]
		}
		blocks = append(blocks, list...)
	}
	return blocks
}

// Records returns the number of 128-byte records in the file
func Records(f LogicalFile) int {
	if len(f.Extents) == 0 {
		return 0
	}
	last := f.Extents[len(f.Extents)-1]
	n := last.ExtentNumber()
	entry := n / (f.layout.ExtentMask + 1)
	within := n % (f.layout.ExtentMask + 1)

	rc := int(last.RecordCount)
	if rc > types.RecordsPerExtent {
		rc = types.RecordsPerExtent
	}
	return entry*f.layout.RecordsPerEntry() + within*types.RecordsPerExtent + rc
}

// FileLength returns the byte length of the file: whole records, with the last
// record shortened by the CP/M 3 last record byte count when one is stored.
func FileLength(f LogicalFile) int {
	records := Records(f)
	length := records * types.RecordSize
	if records == 0 {
		return 0
	}

	last := f.Extents[len(f.Extents)-1]
	if last.S1 > 0 && int(last.S1) < types.RecordSize {
		length -= types.RecordSize - int(last.S1)
	}
	return length
}
