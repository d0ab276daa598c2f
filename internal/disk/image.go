package disk

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/deploymenttheory/go-judim/internal/types"
)

var (
	// ErrInvalidImage is returned when an image container cannot be parsed or does not match the geometry.
	ErrInvalidImage = errors.New("invalid disk image")
	// ErrSectorNotFound is returned when the container has no sector at an address.
	ErrSectorNotFound = errors.New("sector not found")
)

// ImageFormat names a disk image container.
type ImageFormat string

const (
	FormatRaw      ImageFormat = "raw"
	FormatDSK      ImageFormat = "dsk"
	FormatEDSK     ImageFormat = "edsk"
	FormatDetected ImageFormat = ""
)

// SectorImage provides sector level access to a disk image container.
// Writes only ever touch the in-memory copy; Bytes serializes it.
type SectorImage interface {
	// Format returns the container format
	Format() ImageFormat

	// Geometry returns the geometry the image is read with
	Geometry() *Geometry

	// ReadSector returns a copy of the sector data at addr
	ReadSector(addr Address) ([]byte, error)

	// WriteSector replaces the sector data at addr; data must be exactly one sector
	WriteSector(addr Address, data []byte) error

	// Bytes serializes the image container
	Bytes() []byte

	// Clone returns an independent copy of the image
	Clone() SectorImage
}

// OpenImage detects the container format from its signature and opens it.
// Data without a DSK signature is treated as a raw sector dump.
func OpenImage(data []byte, g *Geometry) (SectorImage, error) {
	return OpenImageAs(data, g, FormatDetected)
}

// OpenImageAs opens data as the given container format
func OpenImageAs(data []byte, g *Geometry, format ImageFormat) (SectorImage, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: no geometry", ErrInvalidGeometry)
	}

	if format == FormatDetected {
		format = DetectFormat(data)
	}

	switch format {
	case FormatRaw:
		return NewRawImage(data, g)
	case FormatDSK, FormatEDSK:
		return NewDSKImage(data, g)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidImage, format)
	}
}

// DetectFormat inspects the container signature
func DetectFormat(data []byte) ImageFormat {
	switch {
	case bytes.HasPrefix(data, []byte(types.ExtendedDiskSignature[:8])):
		return FormatEDSK
	case bytes.HasPrefix(data, []byte(types.StandardDiskSignature)):
		return FormatDSK
	default:
		return FormatRaw
	}
}

// RawImage is a headerless dump of every sector in geometry order
type RawImage struct {
	data     []byte
	geometry *Geometry
}

// NewRawImage wraps a copy of data; its size must match the geometry exactly
func NewRawImage(data []byte, g *Geometry) (*RawImage, error) {
	if len(data) != g.ImageSize() {
		return nil, fmt.Errorf("%w: raw image is %d bytes, geometry needs %d", ErrInvalidImage, len(data), g.ImageSize())
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return &RawImage{data: buf, geometry: g}, nil
}

// FormatRawImage creates a blank raw image filled with the CP/M empty byte
func FormatRawImage(g *Geometry) *RawImage {
	return &RawImage{data: bytes.Repeat([]byte{types.DeletedUser}, g.ImageSize()), geometry: g}
}

func (r *RawImage) Format() ImageFormat {
	return FormatRaw
}

func (r *RawImage) Geometry() *Geometry {
	return r.geometry
}

func (r *RawImage) ReadSector(addr Address) ([]byte, error) {
	off, err := r.geometry.RawOffset(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSectorNotFound, err)
	}
	out := make([]byte, r.geometry.SectorSize())
	copy(out, r.data[off:off+len(out)])
	return out, nil
}

func (r *RawImage) WriteSector(addr Address, data []byte) error {
	if len(data) != r.geometry.SectorSize() {
		return fmt.Errorf("sector write of %d bytes, sector is %d", len(data), r.geometry.SectorSize())
	}
	off, err := r.geometry.RawOffset(addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSectorNotFound, err)
	}
	copy(r.data[off:], data)
	return nil
}

func (r *RawImage) Bytes() []byte {
	out := make([]byte, len(r.data))
	copy(out, r.data)
	return out
}

func (r *RawImage) Clone() SectorImage {
	return &RawImage{data: r.Bytes(), geometry: r.geometry}
}
