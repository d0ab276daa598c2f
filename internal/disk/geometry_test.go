package disk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/deploymenttheory/go-judim/internal/types"
)

func testParams() Params {
	return Params{
		TracksPerSide:   4,
		Sides:           2,
		SectorsPerTrack: 9,
		SectorSize:      512,
		FirstSectorID:   1,
		Skew:            1,
		SideMode:        SideAlternate,
		ReservedTracks:  1,
		SectorsPerBlock: 2,
		DirectoryBlocks: 1,
	}
}

func TestNewGeometryValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *Params)
	}{
		{"zero tracks", func(p *Params) { p.TracksPerSide = 0 }},
		{"three sides", func(p *Params) { p.Sides = 3 }},
		{"zero sectors", func(p *Params) { p.SectorsPerTrack = 0 }},
		{"odd sector size", func(p *Params) { p.SectorSize = 500 }},
		{"double sided without side mode", func(p *Params) { p.SideMode = "" }},
		{"unknown side mode", func(p *Params) { p.SideMode = "spiral" }},
		{"reserved covers disk", func(p *Params) { p.ReservedTracks = 8 }},
		{"zero block size", func(p *Params) { p.SectorsPerBlock = 0 }},
		{"directory too large", func(p *Params) { p.DirectoryBlocks = 100 }},
		{"bad pointer width", func(p *Params) { p.BlockPointerWidth = 3 }},
		{"sector ids overflow", func(p *Params) { p.FirstSectorID = 250 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			tt.modify(&p)
			_, err := NewGeometry(p)
			assert.ErrorIs(t, err, ErrInvalidGeometry)
		})
	}
}

func TestSingleSidedDefaultsSideMode(t *testing.T) {
	p := testParams()
	p.Sides = 1
	p.SideMode = ""
	g, err := NewGeometry(p)
	require.NoError(t, err)
	assert.Equal(t, SideAlternate, g.Params().SideMode)
}

func TestSkewTable(t *testing.T) {
	tests := []struct {
		name     string
		spt      int
		skew     int
		expected []int
	}{
		{"identity", 9, 1, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}},
		{"skew two", 9, 2, []int{0, 2, 4, 6, 8, 1, 3, 5, 7}},
		{"skew three with collision bump", 9, 3, []int{0, 3, 6, 1, 4, 7, 2, 5, 8}},
		{"cp/m 8 inch skew six", 26, 6, []int{0, 6, 12, 18, 24, 4, 10, 16, 22, 2, 8, 14, 20, 1, 7, 13, 19, 25, 5, 11, 17, 23, 3, 9, 15, 21}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildSkewTable(tt.spt, tt.skew))
		})
	}
}

func TestToPhysicalSideModes(t *testing.T) {
	tests := []struct {
		name     string
		mode     SideMode
		lsi      int
		expected Address
	}{
		{"alternate first", SideAlternate, 0, Address{0, 0, 1}},
		{"alternate second track", SideAlternate, 9, Address{0, 1, 1}},
		{"alternate third track", SideAlternate, 18, Address{1, 0, 1}},
		{"alternate last", SideAlternate, 71, Address{3, 1, 9}},
		{"successive second track", SideSuccessive, 9, Address{1, 0, 1}},
		{"successive side one", SideSuccessive, 36, Address{0, 1, 1}},
		{"successive last", SideSuccessive, 71, Address{3, 1, 9}},
		{"out and back side one", SideOutAndBack, 36, Address{3, 1, 1}},
		{"out and back last", SideOutAndBack, 71, Address{0, 1, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			p.SideMode = tt.mode
			g, err := NewGeometry(p)
			require.NoError(t, err)

			addr, err := g.ToPhysical(tt.lsi)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, addr)
		})
	}
}

func TestToPhysicalOutOfRange(t *testing.T) {
	g, err := NewGeometry(testParams())
	require.NoError(t, err)

	_, err = g.ToPhysical(-1)
	assert.ErrorIs(t, err, ErrAddressOutOfRange)
	_, err = g.ToPhysical(g.TotalSectors())
	assert.ErrorIs(t, err, ErrAddressOutOfRange)

	_, err = g.BlockAddresses(g.TotalBlocks())
	assert.ErrorIs(t, err, ErrAddressOutOfRange)
}

func TestGeometryDerivedValues(t *testing.T) {
	g, err := PresetGeometry("junior")
	require.NoError(t, err)

	assert.Equal(t, 160, g.Tracks())
	assert.Equal(t, 737280, g.ImageSize())
	assert.Equal(t, 2048, g.BlockSize())
	assert.Equal(t, 355, g.TotalBlocks())
	assert.Equal(t, 256, g.DirectoryEntries())
	assert.Equal(t, types.BlockPointer16, g.PointerWidth())
	assert.Equal(t, 0, g.ExtentMask())

	// the directory starts right after the reserved tracks
	addr, err := g.DataSector(0)
	require.NoError(t, err)
	assert.Equal(t, Address{Cylinder: 1, Head: 0, Sector: 1}, addr)

	plus3, err := PresetGeometry("plus3")
	require.NoError(t, err)
	assert.Equal(t, types.BlockPointer8, plus3.PointerWidth())
	assert.Equal(t, 175, plus3.TotalBlocks())
	assert.Equal(t, 64, plus3.DirectoryEntries())

	cpc, err := PresetGeometry("cpc-data")
	require.NoError(t, err)
	addr, err = cpc.ToPhysical(0)
	require.NoError(t, err)
	assert.Equal(t, 0xC1, addr.Sector)
}

func TestExtentMask(t *testing.T) {
	p := testParams()
	p.SectorsPerBlock = 8 // 4K blocks, 16-bit pointers forced
	p.BlockPointerWidth = 2
	g, err := NewGeometry(p)
	require.NoError(t, err)
	assert.Equal(t, 256, g.RecordsPerEntry())
	assert.Equal(t, 1, g.ExtentMask())
}

func TestLookupPreset(t *testing.T) {
	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			g, err := PresetGeometry(name)
			require.NoError(t, err)
			assert.Equal(t, g.Params().Sides*g.Params().TracksPerSide*g.Params().SectorsPerTrack*g.SectorSize(), g.ImageSize())
		})
	}

	_, err := LookupPreset("amiga")
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestParamsMerge(t *testing.T) {
	intPtr := func(v int) *int { return &v }
	successive := SideSuccessive

	tests := []struct {
		name     string
		base     string
		override ParamsOverride
		validate func(*testing.T, Params, Params)
	}{
		{
			name:     "empty override keeps preset",
			base:     "junior",
			override: ParamsOverride{},
			validate: func(t *testing.T, base, merged Params) {
				assert.Equal(t, base, merged)
			},
		},
		{
			name:     "layout fields",
			base:     "plus3",
			override: ParamsOverride{TracksPerSide: intPtr(80), Sides: intPtr(2), SideMode: &successive},
			validate: func(t *testing.T, base, merged Params) {
				assert.Equal(t, 80, merged.TracksPerSide)
				assert.Equal(t, 2, merged.Sides)
				assert.Equal(t, SideSuccessive, merged.SideMode)
				assert.Equal(t, base.SectorSize, merged.SectorSize)
				assert.Equal(t, base.ReservedTracks, merged.ReservedTracks)
			},
		},
		{
			name:     "explicit zero reserved tracks",
			base:     "junior",
			override: ParamsOverride{ReservedTracks: intPtr(0)},
			validate: func(t *testing.T, base, merged Params) {
				assert.Equal(t, 2, base.ReservedTracks)
				assert.Zero(t, merged.ReservedTracks)
				assert.Equal(t, base.TracksPerSide, merged.TracksPerSide)
			},
		},
		{
			name:     "explicit zero pointer width",
			base:     "plus3",
			override: ParamsOverride{BlockPointerWidth: intPtr(0), ReservedTracks: intPtr(0)},
			validate: func(t *testing.T, _, merged Params) {
				g, err := NewGeometry(merged)
				require.NoError(t, err)
				assert.Equal(t, 180, g.TotalBlocks())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := Presets[tt.base]
			tt.validate(t, base, base.Merge(tt.override))
		})
	}
}

func TestGeometryBijectionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		spt := rapid.IntRange(1, 18).Draw(t, "spt")
		p := Params{
			TracksPerSide:   rapid.IntRange(2, 12).Draw(t, "tracks"),
			Sides:           rapid.IntRange(1, 2).Draw(t, "sides"),
			SectorsPerTrack: spt,
			SectorSize:      rapid.SampledFrom([]int{128, 256, 512, 1024}).Draw(t, "size"),
			FirstSectorID:   rapid.IntRange(1, 0xC1).Draw(t, "first"),
			Skew:            rapid.IntRange(1, spt).Draw(t, "skew"),
			SideMode:        rapid.SampledFrom([]SideMode{SideAlternate, SideSuccessive, SideOutAndBack}).Draw(t, "mode"),
			SectorsPerBlock: 1,
			DirectoryBlocks: 1,
		}
		g, err := NewGeometry(p)
		if err != nil {
			t.Skip("parameters rejected")
		}

		seen := make(map[Address]int, g.TotalSectors())
		offsets := make(map[int]bool, g.TotalSectors())
		for lsi := 0; lsi < g.TotalSectors(); lsi++ {
			addr, err := g.ToPhysical(lsi)
			require.NoError(t, err)
			if prev, dup := seen[addr]; dup {
				t.Fatalf("logical sectors %d and %d both map to %s", prev, lsi, addr)
			}
			seen[addr] = lsi

			off, err := g.RawOffset(addr)
			require.NoError(t, err)
			require.False(t, offsets[off])
			offsets[off] = true
			require.Less(t, off, g.ImageSize())
		}
		assert.Len(t, seen, g.TotalSectors())
	})
}
