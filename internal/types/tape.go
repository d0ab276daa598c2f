// Package types holds the on-media structures of the tape and disk formats.
package types

// Tape (.tap) container structures
// A tape stream is a sequence of blocks. Each block is a little-endian u16 length
// followed by that many bytes: flag, payload, checksum.
// Reference: https://sinclair.wiki.zxnet.co.uk/wiki/TAP_format

const (
	// TapeLengthPrefixSize is the size of the u16 block length prefix.
	TapeLengthPrefixSize = 2

	// TapeBlockOverhead is the number of bytes a block length counts beyond its payload (flag + checksum).
	TapeBlockOverhead = 2

	// TapeHeaderPayloadSize is the payload size of a standard header block.
	TapeHeaderPayloadSize = 17

	// TapeNameLength is the fixed, space padded width of a tape file name.
	TapeNameLength = 10

	// TapeNoAutostart is the autostart value written to disable autorun.
	TapeNoAutostart uint16 = 0x8000

	// TapeAutostartLimit bounds valid autostart lines.
	// A program Param1 at or above it means "no autostart".
	TapeAutostartLimit uint16 = 0x4000

	// TapeMaxPayload is the largest payload a u16 length prefix can frame.
	TapeMaxPayload = 0xFFFF - TapeBlockOverhead
)

// TapeBlockFlag distinguishes header blocks from data blocks.
type TapeBlockFlag uint8

const (
	// TapeFlagHeader marks a header block.
	TapeFlagHeader TapeBlockFlag = 0x00
	// TapeFlagData marks a data block.
	TapeFlagData TapeBlockFlag = 0xFF
)

// TapeBlock is one physical block in the tape byte stream.
type TapeBlock struct {
	// Flag byte (0x00 header, 0xFF data; loaders may use other values)
	Flag TapeBlockFlag
	// Payload between the flag and the checksum
	Payload []byte
	// Checksum as stored in the stream (XOR of flag and payload when valid)
	Checksum uint8
}

// IsHeader reports whether the block carries the header flag and a standard header payload.
func (b TapeBlock) IsHeader() bool {
	return b.Flag == TapeFlagHeader && len(b.Payload) == TapeHeaderPayloadSize
}

// Len returns the value of the block's length prefix.
func (b TapeBlock) Len() int {
	return len(b.Payload) + TapeBlockOverhead
}

// TapeFileType is the type byte of a tape header.
type TapeFileType uint8

const (
	// TapeFileProgram is a BASIC program.
	TapeFileProgram TapeFileType = 0
	// TapeFileNumberArray is a numeric array.
	TapeFileNumberArray TapeFileType = 1
	// TapeFileCharArray is a character (string) array.
	TapeFileCharArray TapeFileType = 2
	// TapeFileCode is a raw memory block ("bytes").
	TapeFileCode TapeFileType = 3
)

// String returns the human readable label of the file type.
func (t TapeFileType) String() string {
	switch t {
	case TapeFileProgram:
		return "BASIC Program"
	case TapeFileNumberArray:
		return "Number Array"
	case TapeFileCharArray:
		return "String Array"
	case TapeFileCode:
		return "Code/bytes"
	default:
		return "Unknown"
	}
}

// Extension returns the 3 character disk extension the Junior loader resolves for the type.
func (t TapeFileType) Extension() string {
	switch t {
	case TapeFileProgram:
		return "prg"
	case TapeFileNumberArray:
		return "arr"
	case TapeFileCharArray:
		return "str"
	case TapeFileCode:
		return "cod"
	default:
		return "bin"
	}
}

// Valid reports whether the type is one of the four defined file types.
func (t TapeFileType) Valid() bool {
	return t <= TapeFileCode
}

// TapeHeader is the parsed 17-byte payload of a header block.
//
// Layout (little-endian):
//
//	0x00: type
//	0x01-0x0A: name (10 bytes, space padded)
//	0x0B-0x0C: data length
//	0x0D-0x0E: param1 (autostart line / load address / array name)
//	0x0F-0x10: param2 (variables offset / unused)
type TapeHeader struct {
	FileType   TapeFileType
	Name       [TapeNameLength]byte
	DataLength uint16
	Param1     uint16
	Param2     uint16
}
