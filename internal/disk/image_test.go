package disk

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-judim/internal/types"
)

func testGeometry(t *testing.T) *Geometry {
	t.Helper()
	g, err := NewGeometry(testParams())
	require.NoError(t, err)
	return g
}

// createStandardDSK builds a "MV - CPC" image with sectors stored in reverse ID order
func createStandardDSK(t *testing.T, g *Geometry) []byte {
	t.Helper()
	p := g.Params()
	n, err := SizeCode(p.SectorSize)
	require.NoError(t, err)
	trackSize := types.TrackInfoSize + p.SectorsPerTrack*p.SectorSize

	var info types.DiskInfo
	copy(info.Signature[:], "MV - CPCEMU Disk-File\r\nDisk-Info\r\n")
	copy(info.Creator[:], "test")
	info.Tracks = uint8(p.TracksPerSide)
	info.Sides = uint8(p.Sides)
	info.TrackSize = uint16(trackSize)

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, &info))

	for cyl := 0; cyl < p.TracksPerSide; cyl++ {
		for head := 0; head < p.Sides; head++ {
			block := make([]byte, types.TrackInfoSize)
			copy(block, types.TrackInfoSignature)
			block[0x10] = uint8(cyl)
			block[0x11] = uint8(head)
			block[0x14] = n
			block[0x15] = uint8(p.SectorsPerTrack)

			var data []byte
			for s := 0; s < p.SectorsPerTrack; s++ {
				id := p.FirstSectorID + p.SectorsPerTrack - 1 - s
				si := block[types.TrackInfoSectorListOffset+s*types.SectorInfoSize:]
				si[0], si[1], si[2], si[3] = uint8(cyl), uint8(head), uint8(id), n
				data = append(data, bytes.Repeat([]byte{uint8(cyl*16 + head*8 + id)}, p.SectorSize)...)
			}
			buf.Write(block)
			buf.Write(data)
		}
	}
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatEDSK, DetectFormat([]byte(types.ExtendedDiskSignature)))
	assert.Equal(t, FormatDSK, DetectFormat([]byte("MV - CPCEMU Disk-File\r\n")))
	assert.Equal(t, FormatRaw, DetectFormat(make([]byte, 512)))
}

func TestRawImage(t *testing.T) {
	g := testGeometry(t)

	_, err := NewRawImage(make([]byte, g.ImageSize()-1), g)
	assert.ErrorIs(t, err, ErrInvalidImage)

	img := FormatRawImage(g)
	sector := bytes.Repeat([]byte{0x42}, g.SectorSize())
	addr := Address{Cylinder: 2, Head: 1, Sector: 3}
	require.NoError(t, img.WriteSector(addr, sector))

	got, err := img.ReadSector(addr)
	require.NoError(t, err)
	assert.Equal(t, sector, got)

	off, err := g.RawOffset(addr)
	require.NoError(t, err)
	assert.Equal(t, ((2*2+1)*9+2)*512, off)
	assert.Equal(t, sector, img.Bytes()[off:off+g.SectorSize()])

	_, err = img.ReadSector(Address{Cylinder: 9, Head: 0, Sector: 1})
	assert.ErrorIs(t, err, ErrSectorNotFound)
	assert.Error(t, img.WriteSector(addr, sector[:10]))
}

func TestFormatDSKImage(t *testing.T) {
	g := testGeometry(t)

	img, err := FormatDSKImage(g, "")
	require.NoError(t, err)
	assert.Equal(t, FormatEDSK, img.Format())
	assert.Equal(t, DefaultCreator, img.Creator())
	assert.Len(t, img.Tracks(), 8)

	reopened, err := OpenImage(img.Bytes(), g)
	require.NoError(t, err)
	assert.Equal(t, FormatEDSK, reopened.Format())

	for lsi := 0; lsi < g.TotalSectors(); lsi++ {
		addr, err := g.ToPhysical(lsi)
		require.NoError(t, err)
		data, err := reopened.ReadSector(addr)
		require.NoError(t, err)
		assert.Equal(t, bytes.Repeat([]byte{0xE5}, g.SectorSize()), data)
	}
}

func TestDSKImageWriteAndClone(t *testing.T) {
	g := testGeometry(t)
	img, err := FormatDSKImage(g, "unit")
	require.NoError(t, err)

	clone := img.Clone()
	addr := Address{Cylinder: 1, Head: 1, Sector: 5}
	sector := bytes.Repeat([]byte{0x11}, g.SectorSize())
	require.NoError(t, clone.WriteSector(addr, sector))

	got, err := clone.ReadSector(addr)
	require.NoError(t, err)
	assert.Equal(t, sector, got)

	original, err := img.ReadSector(addr)
	require.NoError(t, err)
	assert.Equal(t, byte(0xE5), original[0])

	// writes survive serialization
	reopened, err := NewDSKImage(clone.Bytes(), g)
	require.NoError(t, err)
	got, err = reopened.ReadSector(addr)
	require.NoError(t, err)
	assert.Equal(t, sector, got)

	_, err = img.ReadSector(Address{Cylinder: 1, Head: 1, Sector: 10})
	assert.ErrorIs(t, err, ErrSectorNotFound)
}

func TestStandardDSKSectorsByID(t *testing.T) {
	g := testGeometry(t)
	data := createStandardDSK(t, g)

	img, err := OpenImage(data, g)
	require.NoError(t, err)
	assert.Equal(t, FormatDSK, img.Format())

	for _, addr := range []Address{{0, 0, 1}, {0, 1, 9}, {3, 1, 4}} {
		got, err := img.ReadSector(addr)
		require.NoError(t, err)
		assert.Equal(t, uint8(addr.Cylinder*16+addr.Head*8+addr.Sector), got[0], addr.String())
	}
}

func TestDSKImageInvalid(t *testing.T) {
	g := testGeometry(t)
	valid := createStandardDSK(t, g)

	tests := []struct {
		name string
		data []byte
	}{
		{"no signature", make([]byte, 1024)},
		{"short header", []byte(types.ExtendedDiskSignature)},
		{"truncated track", valid[:len(valid)-100]},
		{"bad track signature", func() []byte {
			d := append([]byte{}, valid...)
			copy(d[types.DiskInfoSize:], "Garbage!!!!!")
			return d
		}()},
		{"geometry mismatch", func() []byte {
			d := append([]byte{}, valid...)
			d[0x31] = 1
			return d
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDSKImage(tt.data, g)
			assert.ErrorIs(t, err, ErrInvalidImage)
		})
	}
}
