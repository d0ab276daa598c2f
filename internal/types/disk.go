package types

// DSK container structures
// Reference: https://www.cpcwiki.eu/index.php/Format:DSK_disk_image_file_format

const (
	// DiskInfoSize is the size of the disk information block.
	DiskInfoSize = 0x100
	// TrackInfoSize is the size of a track information block.
	TrackInfoSize = 0x100
	// SectorInfoSize is the size of one sector information list entry.
	SectorInfoSize = 8
	// TrackInfoSectorListOffset is where the sector information list starts in a track block.
	TrackInfoSectorListOffset = 0x18
	// TrackSizeTableOffset is where the EDSK track size table starts in the disk info block.
	TrackSizeTableOffset = 0x34
	// MaxTrackSizeEntries is the number of track size table slots.
	MaxTrackSizeEntries = DiskInfoSize - TrackSizeTableOffset
)

const (
	// ExtendedDiskSignature prefixes EDSK images.
	ExtendedDiskSignature = "EXTENDED CPC DSK File\r\nDisk-Info\r\n"
	// StandardDiskSignature prefixes standard CPCEMU images (only the first 8 bytes are checked).
	StandardDiskSignature = "MV - CPC"
	// TrackInfoSignature prefixes every track block.
	TrackInfoSignature = "Track-Info\r\n"
)

// DiskInfo is the 256-byte disk information block.
//
//	0x00-0x21: signature
//	0x22-0x2F: creator
//	0x30: tracks (cylinders)
//	0x31: sides
//	0x32-0x33: track size (standard DSK only)
//	0x34-0xFF: track size table, high bytes (EDSK only)
type DiskInfo struct {
	Signature      [34]byte
	Creator        [14]byte
	Tracks         uint8
	Sides          uint8
	TrackSize      uint16
	TrackSizeTable [MaxTrackSizeEntries]uint8
}

// TrackInfo is the fixed part of a track information block.
type TrackInfo struct {
	Signature   [12]byte
	Unused      [4]byte
	Track       uint8
	Side        uint8
	Unused2     [2]byte
	SectorSizeN uint8
	SectorCount uint8
	Gap3Length  uint8
	FillerByte  uint8
}

// SectorInfo is one entry of the sector information list.
type SectorInfo struct {
	C          uint8  // Cylinder
	H          uint8  // Head
	R          uint8  // Sector ID
	N          uint8  // Sector size code (128 << N)
	FDCStatus1 uint8  // FDC status register 1
	FDCStatus2 uint8  // FDC status register 2
	DataLength uint16 // Stored length (EDSK only)
}

// SizeFromN converts a uPD765 sector size code to bytes.
func SizeFromN(n uint8) int {
	return 128 << n
}
