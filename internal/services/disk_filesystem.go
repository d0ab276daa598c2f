package services

import (
	"bytes"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tidwall/btree"

	"github.com/deploymenttheory/go-judim/internal/disk"
	"github.com/deploymenttheory/go-judim/internal/parsers/cpm"
	"github.com/deploymenttheory/go-judim/internal/types"
)

// DiskFilesystem is an immutable CP/M filesystem view over a sector image.
// The directory is read once at open; AddFile returns a new filesystem.
type DiskFilesystem struct {
	image    disk.SectorImage
	geometry *disk.Geometry
	layout   cpm.Layout
	logger   zerolog.Logger

	directory []byte
	extents   []types.DirectoryExtent
	files     *btree.BTreeG[cpm.LogicalFile]
	deleted   []cpm.LogicalFile
	alloc     cpm.AllocationMap
}

func fileLess(a, b cpm.LogicalFile) bool {
	return cpm.CompareKeys(a.Key, b.Key) < 0
}

// LayoutFor derives the extent engine parameters from a geometry
func LayoutFor(g *disk.Geometry) cpm.Layout {
	return cpm.Layout{
		Width:      g.PointerWidth(),
		BlockSize:  g.BlockSize(),
		ExtentMask: g.ExtentMask(),
	}
}

// OpenFilesystem reads and validates the directory of a sector image
func OpenFilesystem(image disk.SectorImage, logger zerolog.Logger) (*DiskFilesystem, error) {
	if image == nil {
		return nil, fmt.Errorf("sector image cannot be nil")
	}
	g := image.Geometry()

	fs := &DiskFilesystem{
		image:    image,
		geometry: g,
		layout:   LayoutFor(g),
		logger:   logger,
		files:    btree.NewBTreeGOptions(fileLess, btree.Options{NoLocks: true}),
	}

	dir := make([]byte, 0, g.DirectorySectors()*g.SectorSize())
	for i := 0; i < g.DirectorySectors(); i++ {
		addr, err := g.DataSector(i)
		if err != nil {
			return nil, err
		}
		sector, err := image.ReadSector(addr)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory sector %d: %w", i, err)
		}
		dir = append(dir, sector...)
	}
	fs.directory = dir

	extents, err := cpm.ParseDirectory(dir, fs.layout.Width)
	if err != nil {
		return nil, err
	}
	fs.extents = extents

	live, err := cpm.Live(extents)
	if err != nil {
		return nil, err
	}
	alloc, err := cpm.CheckAllocation(live, g.DirectoryBlocks(), g.TotalBlocks())
	if err != nil {
		return nil, err
	}
	fs.alloc = alloc

	files, err := cpm.GroupByFile(live, fs.layout)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		fs.files.Set(f)
	}
	fs.deleted = cpm.GroupDeleted(extents, fs.layout, g.DirectoryBlocks(), g.TotalBlocks())

	logger.Debug().
		Int("slots", len(extents)).
		Int("files", fs.files.Len()).
		Int("deleted", len(fs.deleted)).
		Int("used_blocks", alloc.Used()).
		Msg("directory loaded")
	return fs, nil
}

// Geometry returns the geometry of the underlying image
func (fs *DiskFilesystem) Geometry() *disk.Geometry {
	return fs.geometry
}

// Image returns the underlying sector image. It must not be written to.
func (fs *DiskFilesystem) Image() disk.SectorImage {
	return fs.image
}

// List returns directory rows for the selected files
func (fs *DiskFilesystem) List(mode ListMode) []FileItem {
	var items []FileItem
	fs.files.Scan(func(f cpm.LogicalFile) bool {
		if mode.User < 0 || int(f.Key.User) == mode.User {
			items = append(items, FileItemOf(f))
		}
		return true
	})

	if mode.Deleted {
		for _, f := range fs.deleted {
			items = append(items, FileItemOf(f))
		}
	}
	return items
}

// FileItemOf describes a file as a listing row
func FileItemOf(f cpm.LogicalFile) FileItem {
	attr := f.Attributes()
	user := int(f.Key.User)
	if f.Deleted {
		user = -1
	}
	return FileItem{
		User:     user,
		Name:     f.Name(),
		Size:     cpm.FileLength(f),
		Records:  cpm.Records(f),
		ReadOnly: attr&types.AttrReadOnly != 0,
		System:   attr&types.AttrSystem != 0,
		Archived: attr&types.AttrArchive != 0,
		Deleted:  f.Deleted,
		Extents:  len(f.Extents),
		Blocks:   cpm.ResolveBlocks(f),
	}
}

// Find looks up a live file by "[N:]NAME.EXT". Without a user prefix the
// lowest numbered user owning the name wins.
func (fs *DiskFilesystem) Find(name string) (cpm.LogicalFile, error) {
	fn, err := cpm.ParseFileName(name)
	if err != nil {
		return cpm.LogicalFile{}, err
	}

	if fn.User != cpm.AnyUser {
		if f, ok := fs.files.Get(cpm.LogicalFile{Key: fn.Key(uint8(fn.User))}); ok {
			return f, nil
		}
	}

	var found cpm.LogicalFile
	var ok bool
	fs.files.Scan(func(f cpm.LogicalFile) bool {
		if fn.Matches(f.Key) {
			found, ok = f, true
			return false
		}
		return true
	})
	if !ok {
		return cpm.LogicalFile{}, fmt.Errorf("%w: %s", ErrFileNotFound, fn)
	}
	return found, nil
}

// FindDeleted looks up a file rebuilt from deleted slots by NAME.EXT
func (fs *DiskFilesystem) FindDeleted(name string) (cpm.LogicalFile, error) {
	fn, err := cpm.ParseFileName(name)
	if err != nil {
		return cpm.LogicalFile{}, err
	}
	for _, f := range fs.deleted {
		if fn.Matches(f.Key) {
			return f, nil
		}
	}
	return cpm.LogicalFile{}, fmt.Errorf("%w: no deleted entry for %s", ErrFileNotFound, fn)
}

// Read returns the contents of a live file
func (fs *DiskFilesystem) Read(name string) ([]byte, error) {
	f, err := fs.Find(name)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(f)
}

// ReadFile walks the file's blocks through the geometry and returns exactly
// FileLength bytes. Zero block pointers inside a file read as zeros.
func (fs *DiskFilesystem) ReadFile(f cpm.LogicalFile) ([]byte, error) {
	length := cpm.FileLength(f)
	need := cpm.BlocksNeeded(length, fs.layout)
	blocks := cpm.ResolveBlocks(f)
	if len(blocks) < need {
		return nil, &cpm.DirectoryError{
			Slot:   -1,
			File:   f.Name(),
			Reason: fmt.Sprintf("%d bytes need %d blocks, extents map %d", length, need, len(blocks)),
		}
	}

	out := make([]byte, 0, need*fs.layout.BlockSize)
	for _, b := range blocks[:need] {
		data, err := fs.readBlock(b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name(), err)
		}
		out = append(out, data...)
	}
	return out[:length], nil
}

func (fs *DiskFilesystem) readBlock(block uint16) ([]byte, error) {
	if block == 0 {
		return make([]byte, fs.layout.BlockSize), nil
	}

	addrs, err := fs.geometry.BlockAddresses(int(block))
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, fs.layout.BlockSize)
	for _, addr := range addrs {
		sector, err := fs.image.ReadSector(addr)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", block, err)
		}
		out = append(out, sector...)
	}
	return out, nil
}

func (fs *DiskFilesystem) writeBlock(image disk.SectorImage, block uint16, data []byte) error {
	addrs, err := fs.geometry.BlockAddresses(int(block))
	if err != nil {
		return err
	}
	size := fs.geometry.SectorSize()
	for i, addr := range addrs {
		if err := image.WriteSector(addr, data[i*size:(i+1)*size]); err != nil {
			return fmt.Errorf("block %d: %w", block, err)
		}
	}
	return nil
}

// AddFile stores data under "[N:]NAME.EXT" (user 0 without a prefix) and
// returns the resulting filesystem over a cloned image. The receiver is unchanged.
func (fs *DiskFilesystem) AddFile(name string, data []byte) (*DiskFilesystem, error) {
	fn, err := cpm.ParseFileName(name)
	if err != nil {
		return nil, err
	}
	user := uint8(0)
	if fn.User != cpm.AnyUser {
		user = uint8(fn.User)
	}
	key := fn.Key(user)

	if _, exists := fs.files.Get(cpm.LogicalFile{Key: key}); exists {
		return nil, fmt.Errorf("%w: %d:%s", ErrFileExists, user, cpm.KeyString(key))
	}

	need := cpm.BlocksNeeded(len(data), fs.layout)
	free := fs.alloc.Free()
	if len(free) < need {
		return nil, fmt.Errorf("%w: %d bytes need %d blocks, %d free", ErrDiskFull, len(data), need, len(free))
	}
	blocks := free[:need]

	slots := fs.freeSlots()
	entries := cpm.EntriesNeeded(len(data), fs.layout)
	if len(slots) < entries {
		return nil, fmt.Errorf("%w: %d entries needed, %d free", ErrDirectoryFull, entries, len(slots))
	}

	extents, err := cpm.BuildExtents(key, blocks, len(data), fs.layout)
	if err != nil {
		return nil, err
	}

	image := fs.image.Clone()

	padded := make([]byte, need*fs.layout.BlockSize)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = types.EOFMarker
	}
	for i, b := range blocks {
		if err := fs.writeBlock(image, b, padded[i*fs.layout.BlockSize:(i+1)*fs.layout.BlockSize]); err != nil {
			return nil, err
		}
	}

	directory := bytes.Clone(fs.directory)
	for i, e := range extents {
		raw, err := cpm.EncodeExtent(e, fs.layout.Width)
		if err != nil {
			return nil, err
		}
		copy(directory[slots[i]*types.DirEntrySize:], raw)
	}
	if err := fs.writeDirectory(image, directory); err != nil {
		return nil, err
	}

	fs.logger.Debug().
		Str("file", fmt.Sprintf("%d:%s", user, cpm.KeyString(key))).
		Int("bytes", len(data)).
		Int("blocks", need).
		Int("extents", entries).
		Msg("file added")

	return OpenFilesystem(image, fs.logger)
}

// freeSlots returns the directory slots not holding live or CP/M 3 metadata entries
func (fs *DiskFilesystem) freeSlots() []int {
	var slots []int
	for _, e := range fs.extents {
		if e.Deleted() {
			slots = append(slots, e.Slot)
		}
	}
	return slots
}

func (fs *DiskFilesystem) writeDirectory(image disk.SectorImage, directory []byte) error {
	size := fs.geometry.SectorSize()
	for i := 0; i < fs.geometry.DirectorySectors(); i++ {
		addr, err := fs.geometry.DataSector(i)
		if err != nil {
			return err
		}
		if err := image.WriteSector(addr, directory[i*size:(i+1)*size]); err != nil {
			return fmt.Errorf("failed to write directory sector %d: %w", i, err)
		}
	}
	return nil
}

// Usage reports block and directory usage
func (fs *DiskFilesystem) Usage() UsageStats {
	used := fs.alloc.Used()
	return UsageStats{
		BlockSize:        fs.layout.BlockSize,
		TotalBlocks:      fs.geometry.TotalBlocks(),
		DirectoryBlocks:  fs.geometry.DirectoryBlocks(),
		UsedBlocks:       used,
		FreeBlocks:       fs.geometry.TotalBlocks() - used,
		DirectoryEntries: len(fs.extents),
		UsedEntries:      len(fs.extents) - len(fs.freeSlots()),
		Files:            fs.files.Len(),
	}
}
