package disk

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultPreset is the geometry used when none is configured
const DefaultPreset = "junior"

// Presets holds the built-in disk formats.
// Reference: http://www.seasip.info/Cpm/amsform.html
var Presets = map[string]Params{
	// Junior: 720K, 2K blocks, two reserved tracks
	"junior": {
		TracksPerSide:   80,
		Sides:           2,
		SectorsPerTrack: 9,
		SectorSize:      512,
		FirstSectorID:   1,
		Skew:            1,
		SideMode:        SideAlternate,
		ReservedTracks:  2,
		SectorsPerBlock: 4,
		DirectoryBlocks: 4,
	},
	// Spectrum +3 / PCW single sided 180K
	"plus3": {
		TracksPerSide:   40,
		Sides:           1,
		SectorsPerTrack: 9,
		SectorSize:      512,
		FirstSectorID:   1,
		Skew:            1,
		SideMode:        SideAlternate,
		ReservedTracks:  1,
		SectorsPerBlock: 2,
		DirectoryBlocks: 2,
	},
	// Amstrad CPC data format
	"cpc-data": {
		TracksPerSide:   40,
		Sides:           1,
		SectorsPerTrack: 9,
		SectorSize:      512,
		FirstSectorID:   0xC1,
		Skew:            1,
		SideMode:        SideAlternate,
		ReservedTracks:  0,
		SectorsPerBlock: 2,
		DirectoryBlocks: 2,
	},
	// Amstrad CPC system format
	"cpc-system": {
		TracksPerSide:   40,
		Sides:           1,
		SectorsPerTrack: 9,
		SectorSize:      512,
		FirstSectorID:   0x41,
		Skew:            1,
		SideMode:        SideAlternate,
		ReservedTracks:  2,
		SectorsPerBlock: 2,
		DirectoryBlocks: 2,
	},
}

// PresetNames returns the preset names in sorted order
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupPreset returns the parameters of a named preset
func LookupPreset(name string) (Params, error) {
	p, ok := Presets[strings.ToLower(name)]
	if !ok {
		return Params{}, fmt.Errorf("%w: unknown preset %q (known: %s)", ErrInvalidGeometry, name, strings.Join(PresetNames(), ", "))
	}
	return p, nil
}

// PresetGeometry builds the geometry of a named preset
func PresetGeometry(name string) (*Geometry, error) {
	p, err := LookupPreset(name)
	if err != nil {
		return nil, err
	}
	return NewGeometry(p)
}

// ParamsOverride replaces selected preset fields. Nil fields keep the
// preset's value, so an explicit zero (for example no reserved tracks) applies.
type ParamsOverride struct {
	TracksPerSide     *int      `mapstructure:"tracks_per_side" json:"tracks_per_side,omitempty" yaml:"tracks_per_side,omitempty"`
	Sides             *int      `mapstructure:"sides" json:"sides,omitempty" yaml:"sides,omitempty"`
	SectorsPerTrack   *int      `mapstructure:"sectors_per_track" json:"sectors_per_track,omitempty" yaml:"sectors_per_track,omitempty"`
	SectorSize        *int      `mapstructure:"sector_size" json:"sector_size,omitempty" yaml:"sector_size,omitempty"`
	FirstSectorID     *int      `mapstructure:"first_sector_id" json:"first_sector_id,omitempty" yaml:"first_sector_id,omitempty"`
	Skew              *int      `mapstructure:"skew" json:"skew,omitempty" yaml:"skew,omitempty"`
	SideMode          *SideMode `mapstructure:"side_mode" json:"side_mode,omitempty" yaml:"side_mode,omitempty"`
	ReservedTracks    *int      `mapstructure:"reserved_tracks" json:"reserved_tracks,omitempty" yaml:"reserved_tracks,omitempty"`
	SectorsPerBlock   *int      `mapstructure:"sectors_per_block" json:"sectors_per_block,omitempty" yaml:"sectors_per_block,omitempty"`
	DirectoryBlocks   *int      `mapstructure:"directory_blocks" json:"directory_blocks,omitempty" yaml:"directory_blocks,omitempty"`
	BlockPointerWidth *int      `mapstructure:"block_pointer_width" json:"block_pointer_width,omitempty" yaml:"block_pointer_width,omitempty"`
}

// Merge returns p with every set field of override applied
func (p Params) Merge(override ParamsOverride) Params {
	apply := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&p.TracksPerSide, override.TracksPerSide)
	apply(&p.Sides, override.Sides)
	apply(&p.SectorsPerTrack, override.SectorsPerTrack)
	apply(&p.SectorSize, override.SectorSize)
	apply(&p.FirstSectorID, override.FirstSectorID)
	apply(&p.Skew, override.Skew)
	apply(&p.ReservedTracks, override.ReservedTracks)
	apply(&p.SectorsPerBlock, override.SectorsPerBlock)
	apply(&p.DirectoryBlocks, override.DirectoryBlocks)
	apply(&p.BlockPointerWidth, override.BlockPointerWidth)
	if override.SideMode != nil {
		p.SideMode = *override.SideMode
	}
	return p
}
