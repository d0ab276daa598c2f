package disk

import (
	"errors"
	"fmt"

	"github.com/deploymenttheory/go-judim/internal/types"
)

var (
	// ErrAddressOutOfRange is returned when a logical sector or block falls outside the geometry.
	ErrAddressOutOfRange = errors.New("address out of range")
	// ErrInvalidGeometry is returned when geometry parameters are inconsistent.
	ErrInvalidGeometry = errors.New("invalid geometry")
)

// SideMode names how logical tracks are laid out over the two sides of a disk.
type SideMode string

const (
	// SideAlternate interleaves sides: track 0 is cylinder 0 head 0, track 1 is cylinder 0 head 1, ...
	SideAlternate SideMode = "alternate"
	// SideSuccessive fills side 0 first, then side 1 from cylinder 0 upwards.
	SideSuccessive SideMode = "successive"
	// SideOutAndBack fills side 0 first, then side 1 from the last cylinder downwards.
	SideOutAndBack SideMode = "out-and-back"
)

// Params describes a disk format. It is the unmarshal target of the geometry config section.
type Params struct {
	TracksPerSide   int      `mapstructure:"tracks_per_side" json:"tracks_per_side" yaml:"tracks_per_side"`
	Sides           int      `mapstructure:"sides" json:"sides" yaml:"sides"`
	SectorsPerTrack int      `mapstructure:"sectors_per_track" json:"sectors_per_track" yaml:"sectors_per_track"`
	SectorSize      int      `mapstructure:"sector_size" json:"sector_size" yaml:"sector_size"`
	FirstSectorID   int      `mapstructure:"first_sector_id" json:"first_sector_id" yaml:"first_sector_id"`
	Skew            int      `mapstructure:"skew" json:"skew" yaml:"skew"`
	SideMode        SideMode `mapstructure:"side_mode" json:"side_mode" yaml:"side_mode"`

	// CP/M filesystem parameters
	ReservedTracks  int `mapstructure:"reserved_tracks" json:"reserved_tracks" yaml:"reserved_tracks"`
	SectorsPerBlock int `mapstructure:"sectors_per_block" json:"sectors_per_block" yaml:"sectors_per_block"`
	DirectoryBlocks int `mapstructure:"directory_blocks" json:"directory_blocks" yaml:"directory_blocks"`
	// BlockPointerWidth is 1 or 2 bytes; 0 selects it from the block count.
	BlockPointerWidth int `mapstructure:"block_pointer_width" json:"block_pointer_width" yaml:"block_pointer_width"`
}

// Address is a physical sector location.
type Address struct {
	Cylinder int
	Head     int
	// Sector is the sector ID as recorded on the media (1-based unless FirstSectorID says otherwise)
	Sector int
}

func (a Address) String() string {
	return fmt.Sprintf("C%d/H%d/R%d", a.Cylinder, a.Head, a.Sector)
}

// Geometry is an immutable, validated disk format with a precomputed skew table.
type Geometry struct {
	params Params
	skew   []int
	width  types.BlockPointerWidth
}

// NewGeometry validates parameters and precomputes the skew permutation
func NewGeometry(p Params) (*Geometry, error) {
	if p.FirstSectorID == 0 && p.SectorsPerTrack > 0 {
		p.FirstSectorID = 1
	}
	if p.Skew == 0 {
		p.Skew = 1
	}
	if p.Sides == 1 && p.SideMode == "" {
		p.SideMode = SideAlternate
	}

	if err := validateParams(p); err != nil {
		return nil, err
	}

	g := &Geometry{
		params: p,
		skew:   buildSkewTable(p.SectorsPerTrack, p.Skew),
	}

	switch p.BlockPointerWidth {
	case 1:
		g.width = types.BlockPointer8
	case 2:
		g.width = types.BlockPointer16
	default:
		// CP/M uses 8-bit pointers only when every block number fits in a byte
		if g.TotalBlocks() <= 256 {
			g.width = types.BlockPointer8
		} else {
			g.width = types.BlockPointer16
		}
	}
	if g.width == types.BlockPointer8 && g.TotalBlocks() > 256 {
		return nil, fmt.Errorf("%w: %d blocks cannot be addressed with 8-bit pointers", ErrInvalidGeometry, g.TotalBlocks())
	}

	return g, nil
}

func validateParams(p Params) error {
	switch {
	case p.TracksPerSide <= 0:
		return fmt.Errorf("%w: tracks per side must be positive", ErrInvalidGeometry)
	case p.Sides != 1 && p.Sides != 2:
		return fmt.Errorf("%w: sides must be 1 or 2, got %d", ErrInvalidGeometry, p.Sides)
	case p.SectorsPerTrack <= 0 || p.SectorsPerTrack > 255:
		return fmt.Errorf("%w: sectors per track must be in 1..255, got %d", ErrInvalidGeometry, p.SectorsPerTrack)
	case p.FirstSectorID < 0 || p.FirstSectorID+p.SectorsPerTrack-1 > 255:
		return fmt.Errorf("%w: sector IDs %d..%d do not fit in a byte", ErrInvalidGeometry, p.FirstSectorID, p.FirstSectorID+p.SectorsPerTrack-1)
	case p.Skew < 1:
		return fmt.Errorf("%w: skew must be at least 1", ErrInvalidGeometry)
	case p.ReservedTracks < 0 || p.ReservedTracks >= p.TracksPerSide*p.Sides:
		return fmt.Errorf("%w: reserved tracks %d leave no data area", ErrInvalidGeometry, p.ReservedTracks)
	case p.SectorsPerBlock <= 0:
		return fmt.Errorf("%w: sectors per block must be positive", ErrInvalidGeometry)
	case p.DirectoryBlocks <= 0:
		return fmt.Errorf("%w: directory needs at least one block", ErrInvalidGeometry)
	case p.BlockPointerWidth != 0 && p.BlockPointerWidth != 1 && p.BlockPointerWidth != 2:
		return fmt.Errorf("%w: block pointer width must be 1 or 2", ErrInvalidGeometry)
	}

	if _, err := SizeCode(p.SectorSize); err != nil {
		return err
	}

	switch p.SideMode {
	case SideAlternate, SideSuccessive, SideOutAndBack:
	case "":
		return fmt.Errorf("%w: double sided geometry needs an explicit side mode", ErrInvalidGeometry)
	default:
		return fmt.Errorf("%w: unknown side mode %q", ErrInvalidGeometry, p.SideMode)
	}

	blockSize := p.SectorSize * p.SectorsPerBlock
	if blockSize%types.RecordSize != 0 {
		return fmt.Errorf("%w: block size %d is not a multiple of %d", ErrInvalidGeometry, blockSize, types.RecordSize)
	}

	dataSectors := (p.TracksPerSide*p.Sides - p.ReservedTracks) * p.SectorsPerTrack
	if p.DirectoryBlocks >= dataSectors/p.SectorsPerBlock {
		return fmt.Errorf("%w: directory of %d blocks does not fit the data area", ErrInvalidGeometry, p.DirectoryBlocks)
	}
	return nil
}

// SizeCode converts a sector size to its uPD765 N code
func SizeCode(sectorSize int) (uint8, error) {
	for n := uint8(0); n <= 6; n++ {
		if types.SizeFromN(n) == sectorSize {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: sector size %d is not 128 << N", ErrInvalidGeometry, sectorSize)
}

// buildSkewTable spreads consecutive logical sectors skew positions apart,
// moving to the next free slot on collision.
func buildSkewTable(spt, skew int) []int {
	table := make([]int, spt)
	used := make([]bool, spt)
	pos := 0
	for i := 0; i < spt; i++ {
		for used[pos] {
			pos = (pos + 1) % spt
		}
		table[i] = pos
		used[pos] = true
		pos = (pos + skew) % spt
	}
	return table
}

// Params returns a copy of the normalized parameters
func (g *Geometry) Params() Params {
	return g.params
}

// SkewTable returns a copy of the logical to physical sector permutation (0-based)
func (g *Geometry) SkewTable() []int {
	out := make([]int, len(g.skew))
	copy(out, g.skew)
	return out
}

// Tracks returns the number of logical tracks over all sides
func (g *Geometry) Tracks() int {
	return g.params.TracksPerSide * g.params.Sides
}

// TotalSectors returns the number of sectors on the disk
func (g *Geometry) TotalSectors() int {
	return g.Tracks() * g.params.SectorsPerTrack
}

// ImageSize returns the size of a raw sector dump of the disk
func (g *Geometry) ImageSize() int {
	return g.TotalSectors() * g.params.SectorSize
}

// SectorSize returns the sector size in bytes
func (g *Geometry) SectorSize() int {
	return g.params.SectorSize
}

// ToPhysical maps a logical sector index over the whole disk to its physical address
func (g *Geometry) ToPhysical(lsi int) (Address, error) {
	if lsi < 0 || lsi >= g.TotalSectors() {
		return Address{}, fmt.Errorf("%w: logical sector %d not in [0, %d)", ErrAddressOutOfRange, lsi, g.TotalSectors())
	}

	track := lsi / g.params.SectorsPerTrack
	sector := g.skew[lsi%g.params.SectorsPerTrack] + g.params.FirstSectorID

	cylinder, head := g.trackToCylinderHead(track)
	return Address{Cylinder: cylinder, Head: head, Sector: sector}, nil
}

func (g *Geometry) trackToCylinderHead(track int) (int, int) {
	tps := g.params.TracksPerSide
	if g.params.Sides == 1 {
		return track, 0
	}

	switch g.params.SideMode {
	case SideSuccessive:
		return track % tps, track / tps
	case SideOutAndBack:
		if track < tps {
			return track, 0
		}
		return 2*tps - 1 - track, 1
	default:
		return track / 2, track % 2
	}
}

// RawOffset returns the byte offset of a physical sector in a raw dump.
// Raw dumps store cylinders in order, each holding its heads in order, each
// holding sectors in ID order.
func (g *Geometry) RawOffset(addr Address) (int, error) {
	index := addr.Sector - g.params.FirstSectorID
	if addr.Cylinder < 0 || addr.Cylinder >= g.params.TracksPerSide ||
		addr.Head < 0 || addr.Head >= g.params.Sides ||
		index < 0 || index >= g.params.SectorsPerTrack {
		return 0, fmt.Errorf("%w: %s", ErrAddressOutOfRange, addr)
	}
	physical := (addr.Cylinder*g.params.Sides+addr.Head)*g.params.SectorsPerTrack + index
	return physical * g.params.SectorSize, nil
}

// BlockSize returns the allocation block size in bytes
func (g *Geometry) BlockSize() int {
	return g.params.SectorSize * g.params.SectorsPerBlock
}

// DataSectors returns the number of sectors after the reserved tracks
func (g *Geometry) DataSectors() int {
	return (g.Tracks() - g.params.ReservedTracks) * g.params.SectorsPerTrack
}

// TotalBlocks returns the number of allocation blocks in the data area
func (g *Geometry) TotalBlocks() int {
	return g.DataSectors() / g.params.SectorsPerBlock
}

// DirectoryBlocks returns the number of blocks reserved for the directory
func (g *Geometry) DirectoryBlocks() int {
	return g.params.DirectoryBlocks
}

// DirectorySectors returns the number of sectors holding directory entries
func (g *Geometry) DirectorySectors() int {
	return g.params.DirectoryBlocks * g.params.SectorsPerBlock
}

// DirectoryEntries returns the number of 32-byte directory slots
func (g *Geometry) DirectoryEntries() int {
	return g.DirectorySectors() * g.params.SectorSize / types.DirEntrySize
}

// PointerWidth returns the width of directory block pointers
func (g *Geometry) PointerWidth() types.BlockPointerWidth {
	return g.width
}

// RecordsPerEntry returns how many 128-byte records one directory slot can map
func (g *Geometry) RecordsPerEntry() int {
	return g.width.PointersPerEntry() * g.BlockSize() / types.RecordSize
}

// ExtentMask returns EXM: the number of extra logical extents one slot covers
func (g *Geometry) ExtentMask() int {
	logical := g.RecordsPerEntry() / types.RecordsPerExtent
	if logical <= 1 {
		return 0
	}
	return logical - 1
}

// DataSector converts a sector index relative to the data area into a physical address
func (g *Geometry) DataSector(index int) (Address, error) {
	if index < 0 || index >= g.DataSectors() {
		return Address{}, fmt.Errorf("%w: data sector %d not in [0, %d)", ErrAddressOutOfRange, index, g.DataSectors())
	}
	return g.ToPhysical(g.params.ReservedTracks*g.params.SectorsPerTrack + index)
}

// BlockAddresses returns the physical addresses of the sectors of an allocation block, in order
func (g *Geometry) BlockAddresses(block int) ([]Address, error) {
	if block < 0 || block >= g.TotalBlocks() {
		return nil, fmt.Errorf("%w: block %d not in [0, %d)", ErrAddressOutOfRange, block, g.TotalBlocks())
	}

	addrs := make([]Address, g.params.SectorsPerBlock)
	first := block * g.params.SectorsPerBlock
	for i := range addrs {
		addr, err := g.DataSector(first + i)
		if err != nil {
			return nil, err
		}
		addrs[i] = addr
	}
	return addrs, nil
}
