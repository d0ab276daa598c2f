package tape

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-judim/internal/types"
)

// Checksum computes the block checksum: XOR of the flag byte and every payload byte.
func Checksum(flag types.TapeBlockFlag, payload []byte) uint8 {
	sum := uint8(flag)
	for _, b := range payload {
		sum ^= b
	}
	return sum
}

// VerifyBlock reports whether the stored checksum matches the block content.
func VerifyBlock(b types.TapeBlock) bool {
	return Checksum(b.Flag, b.Payload) == b.Checksum
}

// DecodedBlock is a block together with the stream offset of its length prefix.
type DecodedBlock struct {
	types.TapeBlock
	Offset int
}

// Decode splits a tape byte stream into blocks.
//
// Every block consumes exactly its declared length; the stream must end on a block
// boundary. Checksums are not validated here, see Verify.
func Decode(data []byte) ([]DecodedBlock, error) {
	var blocks []DecodedBlock
	offset := 0

	for offset < len(data) {
		index := len(blocks)
		if len(data)-offset < types.TapeLengthPrefixSize {
			return nil, &StreamError{Offset: offset, Block: index, Reason: "truncated length prefix"}
		}

		length := int(binary.LittleEndian.Uint16(data[offset : offset+types.TapeLengthPrefixSize]))
		start := offset + types.TapeLengthPrefixSize

		if length < types.TapeBlockOverhead {
			return nil, &StreamError{Offset: offset, Block: index, Reason: "block length below flag and checksum size"}
		}
		if length > len(data)-start {
			return nil, &StreamError{Offset: offset, Block: index, Reason: "declared length exceeds remaining bytes"}
		}

		body := data[start : start+length]
		payload := make([]byte, length-types.TapeBlockOverhead)
		copy(payload, body[1:length-1])

		blocks = append(blocks, DecodedBlock{
			TapeBlock: types.TapeBlock{
				Flag:     types.TapeBlockFlag(body[0]),
				Payload:  payload,
				Checksum: body[length-1],
			},
			Offset: offset,
		})

		offset = start + length
	}

	return blocks, nil
}

// Encode serializes a block with its length prefix, recomputing the checksum.
// It panics when the payload exceeds types.TapeMaxPayload; callers building
// blocks from untrusted lengths must check first.
func Encode(b types.TapeBlock) []byte {
	if len(b.Payload) > types.TapeMaxPayload {
		panic(fmt.Sprintf("tape: payload of %d bytes exceeds %d", len(b.Payload), types.TapeMaxPayload))
	}
	out := make([]byte, types.TapeLengthPrefixSize+b.Len())
	binary.LittleEndian.PutUint16(out[0:2], uint16(b.Len()))
	out[2] = uint8(b.Flag)
	copy(out[3:], b.Payload)
	out[len(out)-1] = Checksum(b.Flag, b.Payload)
	return out
}

// EncodeStream serializes blocks back to back.
func EncodeStream(blocks ...types.TapeBlock) []byte {
	size := 0
	for _, b := range blocks {
		size += types.TapeLengthPrefixSize + b.Len()
	}

	out := make([]byte, 0, size)
	for _, b := range blocks {
		out = append(out, Encode(b)...)
	}
	return out
}

// Verify checks every block's checksum and reports each mismatch. It never fails hard.
func Verify(blocks []DecodedBlock) []Issue {
	var issues []Issue
	for i, b := range blocks {
		computed := Checksum(b.Flag, b.Payload)
		if computed != b.Checksum {
			issues = append(issues, Issue{
				Block:    i,
				Offset:   b.Offset,
				Err:      ErrChecksumMismatch,
				Expected: b.Checksum,
				Actual:   computed,
			})
		}
	}
	return issues
}
