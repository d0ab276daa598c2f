package tape

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-judim/internal/interfaces"
	"github.com/deploymenttheory/go-judim/internal/types"
)

// headerReader implements the TapeHeaderReader interface
type headerReader struct {
	header types.TapeHeader
}

// NewHeaderReader parses a header block payload
func NewHeaderReader(payload []byte) (interfaces.TapeHeaderReader, error) {
	h, err := ParseHeader(payload)
	if err != nil {
		return nil, err
	}
	return &headerReader{header: h}, nil
}

// HeaderReaderFor wraps an already parsed header
func HeaderReaderFor(h types.TapeHeader) interfaces.TapeHeaderReader {
	return &headerReader{header: h}
}

// ParseHeader parses the 17-byte payload of a header block
func ParseHeader(payload []byte) (types.TapeHeader, error) {
	var h types.TapeHeader
	if len(payload) != types.TapeHeaderPayloadSize {
		return h, fmt.Errorf("%w: payload is %d bytes, want %d", ErrInvalidHeader, len(payload), types.TapeHeaderPayloadSize)
	}
	if err := binary.Read(bytes.NewReader(payload), binary.LittleEndian, &h); err != nil {
		return h, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	return h, nil
}

// EncodeHeader serializes a header into a 17-byte block payload
func EncodeHeader(h types.TapeHeader) []byte {
	out := make([]byte, types.TapeHeaderPayloadSize)
	out[0] = uint8(h.FileType)
	copy(out[1:11], h.Name[:])
	binary.LittleEndian.PutUint16(out[11:13], h.DataLength)
	binary.LittleEndian.PutUint16(out[13:15], h.Param1)
	binary.LittleEndian.PutUint16(out[15:17], h.Param2)
	return out
}

// HeaderBlock wraps a header in a header-flagged block
func HeaderBlock(h types.TapeHeader) types.TapeBlock {
	payload := EncodeHeader(h)
	return types.TapeBlock{
		Flag:     types.TapeFlagHeader,
		Payload:  payload,
		Checksum: Checksum(types.TapeFlagHeader, payload),
	}
}

// DataBlock wraps raw bytes in a data-flagged block.
// The payload must not exceed types.TapeMaxPayload to be encodable.
func DataBlock(data []byte) types.TapeBlock {
	return types.TapeBlock{
		Flag:     types.TapeFlagData,
		Payload:  data,
		Checksum: Checksum(types.TapeFlagData, data),
	}
}

// NoAutorun disables autorun of a BASIC program header.
// Other file types and already disabled headers are returned unchanged.
func NoAutorun(h types.TapeHeader) types.TapeHeader {
	if h.FileType == types.TapeFileProgram {
		h.Param1 = types.TapeNoAutostart
	}
	return h
}

// NewName builds a space padded tape name, truncating to 10 characters
func NewName(name string) [types.TapeNameLength]byte {
	var n [types.TapeNameLength]byte
	for i := range n {
		n[i] = ' '
	}
	copy(n[:], name)
	return n
}

func (r *headerReader) Header() types.TapeHeader {
	return r.header
}

func (r *headerReader) FileType() types.TapeFileType {
	return r.header.FileType
}

func (r *headerReader) Name() string {
	return string(bytes.TrimRight(r.header.Name[:], " "))
}

func (r *headerReader) DataLength() uint16 {
	return r.header.DataLength
}

func (r *headerReader) AutostartLine() (uint16, bool) {
	if r.header.FileType != types.TapeFileProgram || r.header.Param1 >= types.TapeAutostartLimit {
		return 0, false
	}
	return r.header.Param1, true
}

func (r *headerReader) VariablesOffset() uint16 {
	if r.header.FileType != types.TapeFileProgram {
		return 0
	}
	return r.header.Param2
}

func (r *headerReader) LoadAddress() uint16 {
	if r.header.FileType != types.TapeFileCode {
		return 0
	}
	return r.header.Param1
}

// ArrayVariable decodes the variable name stored in the high byte of param1.
// Bits 0-4 hold the letter (1 = a), string arrays get a trailing '$'.
func (r *headerReader) ArrayVariable() string {
	switch r.header.FileType {
	case types.TapeFileNumberArray, types.TapeFileCharArray:
	default:
		return ""
	}

	letter := byte(r.header.Param1>>8) & 0x1F
	if letter == 0 || letter > 26 {
		return ""
	}
	name := string(rune('a' + letter - 1))
	if r.header.FileType == types.TapeFileCharArray {
		name += "$"
	}
	return name
}
