package disk

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-judim/internal/types"
)

// DefaultCreator is written into the creator field of images built by FormatDSKImage
const DefaultCreator = "judim"

type sectorKey struct {
	cylinder uint8
	head     uint8
	id       uint8
}

type sectorRef struct {
	offset int
	length int
}

// TrackSummary describes one track block of a DSK container
type TrackSummary struct {
	Cylinder   int   `json:"cylinder" yaml:"cylinder"`
	Head       int   `json:"head" yaml:"head"`
	SectorSize int   `json:"sector_size" yaml:"sector_size"`
	SectorIDs  []int `json:"sector_ids" yaml:"sector_ids"`
}

// DSKImage is a standard ("MV - CPC") or extended CPC DSK container.
// The whole container is kept in memory and sectors are located by (cylinder, head, ID).
type DSKImage struct {
	data     []byte
	geometry *Geometry
	format   ImageFormat
	info     types.DiskInfo
	sectors  map[sectorKey]sectorRef
	tracks   []TrackSummary
}

// NewDSKImage parses a copy of a DSK or EDSK container
func NewDSKImage(data []byte, g *Geometry) (*DSKImage, error) {
	format := DetectFormat(data)
	if format == FormatRaw {
		return nil, fmt.Errorf("%w: missing DSK signature", ErrInvalidImage)
	}
	if len(data) < types.DiskInfoSize {
		return nil, fmt.Errorf("%w: image is %d bytes, disk info block needs %d", ErrInvalidImage, len(data), types.DiskInfoSize)
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	img := &DSKImage{
		data:     buf,
		geometry: g,
		format:   format,
		sectors:  make(map[sectorKey]sectorRef),
	}
	if err := binary.Read(bytes.NewReader(buf[:types.DiskInfoSize]), binary.LittleEndian, &img.info); err != nil {
		return nil, fmt.Errorf("%w: disk info: %v", ErrInvalidImage, err)
	}
	if err := img.index(); err != nil {
		return nil, err
	}

	if int(img.info.Sides) != g.params.Sides || int(img.info.Tracks) < g.params.TracksPerSide {
		return nil, fmt.Errorf("%w: image has %d tracks x %d sides, geometry needs %d x %d",
			ErrInvalidImage, img.info.Tracks, img.info.Sides, g.params.TracksPerSide, g.params.Sides)
	}
	return img, nil
}

func (d *DSKImage) index() error {
	if d.info.Sides == 0 || d.info.Sides > 2 {
		return fmt.Errorf("%w: %d sides", ErrInvalidImage, d.info.Sides)
	}

	count := int(d.info.Tracks) * int(d.info.Sides)
	extended := d.format == FormatEDSK
	if extended && count > types.MaxTrackSizeEntries {
		return fmt.Errorf("%w: %d tracks exceed the track size table", ErrInvalidImage, count)
	}

	offset := types.DiskInfoSize
	for i := 0; i < count; i++ {
		size := int(d.info.TrackSize)
		if extended {
			size = int(d.info.TrackSizeTable[i]) * 256
		}
		if size == 0 {
			// unformatted track
			continue
		}
		if offset+size > len(d.data) {
			return fmt.Errorf("%w: track block %d at 0x%X runs past end of image", ErrInvalidImage, i, offset)
		}
		if err := d.indexTrack(offset, size); err != nil {
			return fmt.Errorf("track block %d: %w", i, err)
		}
		offset += size
	}
	return nil
}

func (d *DSKImage) indexTrack(offset, size int) error {
	if size < types.TrackInfoSize {
		return fmt.Errorf("%w: track block of %d bytes", ErrInvalidImage, size)
	}

	var ti types.TrackInfo
	if err := binary.Read(bytes.NewReader(d.data[offset:offset+types.TrackInfoSectorListOffset]), binary.LittleEndian, &ti); err != nil {
		return fmt.Errorf("%w: track info: %v", ErrInvalidImage, err)
	}
	if !bytes.HasPrefix(ti.Signature[:], []byte(types.TrackInfoSignature[:10])) {
		return fmt.Errorf("%w: bad track signature %q", ErrInvalidImage, ti.Signature[:])
	}

	maxSectors := (types.TrackInfoSize - types.TrackInfoSectorListOffset) / types.SectorInfoSize
	if int(ti.SectorCount) > maxSectors {
		return fmt.Errorf("%w: %d sectors in one track", ErrInvalidImage, ti.SectorCount)
	}

	summary := TrackSummary{
		Cylinder:   int(ti.Track),
		Head:       int(ti.Side),
		SectorSize: types.SizeFromN(ti.SectorSizeN),
	}

	dataOffset := offset + types.TrackInfoSize
	end := offset + size
	for s := 0; s < int(ti.SectorCount); s++ {
		infoOffset := offset + types.TrackInfoSectorListOffset + s*types.SectorInfoSize
		var si types.SectorInfo
		if err := binary.Read(bytes.NewReader(d.data[infoOffset:infoOffset+types.SectorInfoSize]), binary.LittleEndian, &si); err != nil {
			return fmt.Errorf("%w: sector info: %v", ErrInvalidImage, err)
		}

		length := types.SizeFromN(ti.SectorSizeN)
		if d.format == FormatEDSK {
			length = int(si.DataLength)
			if length == 0 {
				length = types.SizeFromN(si.N)
			}
		}
		if dataOffset+length > end {
			return fmt.Errorf("%w: sector %d data runs past its track block", ErrInvalidImage, si.R)
		}

		key := sectorKey{cylinder: ti.Track, head: ti.Side, id: si.R}
		// duplicate IDs on one track are a protection scheme; the first copy wins
		if _, exists := d.sectors[key]; !exists {
			d.sectors[key] = sectorRef{offset: dataOffset, length: length}
		}
		summary.SectorIDs = append(summary.SectorIDs, int(si.R))
		dataOffset += length
	}

	d.tracks = append(d.tracks, summary)
	return nil
}

func (d *DSKImage) lookup(addr Address) (sectorRef, error) {
	if addr.Cylinder < 0 || addr.Cylinder > 0xFF || addr.Head < 0 || addr.Head > 0xFF || addr.Sector < 0 || addr.Sector > 0xFF {
		return sectorRef{}, fmt.Errorf("%w: %s", ErrSectorNotFound, addr)
	}
	ref, ok := d.sectors[sectorKey{cylinder: uint8(addr.Cylinder), head: uint8(addr.Head), id: uint8(addr.Sector)}]
	if !ok {
		return sectorRef{}, fmt.Errorf("%w: %s", ErrSectorNotFound, addr)
	}
	if ref.length < d.geometry.SectorSize() {
		return sectorRef{}, fmt.Errorf("%w: sector %s holds %d bytes, geometry needs %d", ErrInvalidImage, addr, ref.length, d.geometry.SectorSize())
	}
	return ref, nil
}

func (d *DSKImage) Format() ImageFormat {
	return d.format
}

func (d *DSKImage) Geometry() *Geometry {
	return d.geometry
}

// Creator returns the creator field with padding removed
func (d *DSKImage) Creator() string {
	return string(bytes.TrimRight(d.info.Creator[:], "\x00 "))
}

// Tracks returns a summary of every formatted track block in file order
func (d *DSKImage) Tracks() []TrackSummary {
	out := make([]TrackSummary, len(d.tracks))
	copy(out, d.tracks)
	return out
}

func (d *DSKImage) ReadSector(addr Address) ([]byte, error) {
	ref, err := d.lookup(addr)
	if err != nil {
		return nil, err
	}
	out := make([]byte, d.geometry.SectorSize())
	copy(out, d.data[ref.offset:])
	return out, nil
}

func (d *DSKImage) WriteSector(addr Address, data []byte) error {
	if len(data) != d.geometry.SectorSize() {
		return fmt.Errorf("sector write of %d bytes, sector is %d", len(data), d.geometry.SectorSize())
	}
	ref, err := d.lookup(addr)
	if err != nil {
		return err
	}
	copy(d.data[ref.offset:], data)
	return nil
}

func (d *DSKImage) Bytes() []byte {
	out := make([]byte, len(d.data))
	copy(out, d.data)
	return out
}

func (d *DSKImage) Clone() SectorImage {
	c := *d
	c.data = d.Bytes()
	// the index only holds offsets, so it can be shared
	return &c
}

// FormatDSKImage builds a blank extended DSK image for the geometry.
// Sectors are stored in ID order and filled with the CP/M empty byte.
func FormatDSKImage(g *Geometry, creator string) (*DSKImage, error) {
	if creator == "" {
		creator = DefaultCreator
	}
	n, err := SizeCode(g.SectorSize())
	if err != nil {
		return nil, err
	}

	p := g.params
	trackSize := types.TrackInfoSize + p.SectorsPerTrack*p.SectorSize
	if trackSize%256 != 0 || trackSize/256 > 0xFF {
		return nil, fmt.Errorf("%w: track of %d bytes cannot be described in an EDSK size table", ErrInvalidGeometry, trackSize)
	}
	if p.TracksPerSide*p.Sides > types.MaxTrackSizeEntries {
		return nil, fmt.Errorf("%w: %d track blocks exceed the EDSK size table", ErrInvalidGeometry, p.TracksPerSide*p.Sides)
	}
	if p.SectorsPerTrack > (types.TrackInfoSize-types.TrackInfoSectorListOffset)/types.SectorInfoSize {
		return nil, fmt.Errorf("%w: %d sectors do not fit a track info block", ErrInvalidGeometry, p.SectorsPerTrack)
	}

	var info types.DiskInfo
	copy(info.Signature[:], types.ExtendedDiskSignature)
	copy(info.Creator[:], creator)
	info.Tracks = uint8(p.TracksPerSide)
	info.Sides = uint8(p.Sides)
	for i := 0; i < p.TracksPerSide*p.Sides; i++ {
		info.TrackSizeTable[i] = uint8(trackSize / 256)
	}

	var buf bytes.Buffer
	buf.Grow(types.DiskInfoSize + trackSize*p.TracksPerSide*p.Sides)
	if err := binary.Write(&buf, binary.LittleEndian, &info); err != nil {
		return nil, err
	}

	for cyl := 0; cyl < p.TracksPerSide; cyl++ {
		for head := 0; head < p.Sides; head++ {
			block := make([]byte, types.TrackInfoSize)
			ti := types.TrackInfo{
				Track:       uint8(cyl),
				Side:        uint8(head),
				SectorSizeN: n,
				SectorCount: uint8(p.SectorsPerTrack),
				Gap3Length:  0x52,
				FillerByte:  types.DeletedUser,
			}
			copy(ti.Signature[:], types.TrackInfoSignature)

			var hdr bytes.Buffer
			if err := binary.Write(&hdr, binary.LittleEndian, &ti); err != nil {
				return nil, err
			}
			copy(block, hdr.Bytes())

			for s := 0; s < p.SectorsPerTrack; s++ {
				si := types.SectorInfo{
					C:          uint8(cyl),
					H:          uint8(head),
					R:          uint8(p.FirstSectorID + s),
					N:          n,
					DataLength: uint16(p.SectorSize),
				}
				var sb bytes.Buffer
				if err := binary.Write(&sb, binary.LittleEndian, &si); err != nil {
					return nil, err
				}
				copy(block[types.TrackInfoSectorListOffset+s*types.SectorInfoSize:], sb.Bytes())
			}

			buf.Write(block)
			buf.Write(bytes.Repeat([]byte{types.DeletedUser}, p.SectorsPerTrack*p.SectorSize))
		}
	}

	return NewDSKImage(buf.Bytes(), g)
}
