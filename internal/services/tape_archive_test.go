package services

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-judim/internal/parsers/tape"
	"github.com/deploymenttheory/go-judim/internal/types"
)

var (
	loaderHeader = types.TapeHeader{FileType: types.TapeFileProgram, Name: tape.NewName("loader"), DataLength: 336, Param1: 10, Param2: 336}
	gameHeader   = types.TapeHeader{FileType: types.TapeFileCode, Name: tape.NewName("game"), DataLength: 32768, Param1: 0x8000}
)

func intPtr(v int) *int {
	return &v
}

func filled(n int, seed byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = seed + byte(i)
	}
	return out
}

// createSampleTape builds a BASIC loader followed by a 32K code block
func createSampleTape() []byte {
	return tape.EncodeStream(
		tape.HeaderBlock(loaderHeader),
		tape.DataBlock(filled(336, 1)),
		tape.HeaderBlock(gameHeader),
		tape.DataBlock(filled(32768, 7)),
	)
}

func openTape(t *testing.T, data []byte) *TapeArchive {
	t.Helper()
	a, err := OpenTapeArchive(data, TapeOptions{Logger: zerolog.Nop()})
	require.NoError(t, err)
	return a
}

func TestOpenTapeArchiveInfo(t *testing.T) {
	a := openTape(t, createSampleTape())
	require.Equal(t, 2, a.Len())
	assert.Empty(t, a.Issues())

	info := a.Info()
	require.Len(t, info, 2)

	assert.Equal(t, EntrySummary{
		Index:          0,
		Kind:           "paired",
		Offset:         0,
		Name:           "loader",
		Type:           "BASIC Program",
		Extension:      "prg",
		Size:           336,
		DeclaredLength: 336,
		Autostart:      "10",
		VarsOffset:     intPtr(336),
		ChecksumOK:     true,
		LengthOK:       true,
	}, info[0])

	assert.Equal(t, "game", info[1].Name)
	assert.Equal(t, "Code/bytes", info[1].Type)
	require.NotNil(t, info[1].LoadAddress)
	assert.Equal(t, 32768, *info[1].LoadAddress)
	assert.Nil(t, info[1].VarsOffset)
	assert.Equal(t, 32768, info[1].Size)
	assert.Equal(t, 21+340, info[1].Offset)
	assert.Empty(t, info[1].Autostart)
}

func TestGetIndexOutOfRange(t *testing.T) {
	a := openTape(t, createSampleTape())

	for _, index := range []int{-1, 2, 100} {
		_, err := a.Get(index)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	}

	// the handle stays usable after a failed lookup
	e, err := a.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 1, e.Index())
}

func TestExtract(t *testing.T) {
	stream := createSampleTape()
	a := openTape(t, stream)

	both, err := a.Extract(0, PartsBoth, false)
	require.NoError(t, err)
	assert.Equal(t, stream[:21+340], both)

	header, err := a.Extract(1, PartsHeader, false)
	require.NoError(t, err)
	assert.Equal(t, tape.Encode(tape.HeaderBlock(gameHeader)), header)

	data, err := a.Extract(1, PartsData, false)
	require.NoError(t, err)
	single := openTape(t, data)
	require.Equal(t, 1, single.Len())
	_, isData := single.Entries()[0].(*DataOnlyEntry)
	assert.True(t, isData)

	_, err = a.Extract(5, PartsBoth, false)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestExtractNoAutorun(t *testing.T) {
	a := openTape(t, createSampleTape())

	out, err := a.Extract(0, PartsBoth, true)
	require.NoError(t, err)

	reopened := openTape(t, out)
	info := reopened.Info()
	require.Len(t, info, 1)
	assert.Equal(t, "none", info[0].Autostart)
	assert.Equal(t, intPtr(336), info[0].VarsOffset)

	raw, err := reopened.ExtractRaw(0)
	require.NoError(t, err)
	assert.Equal(t, filled(336, 1), raw)

	// the source archive is untouched
	assert.Equal(t, "10", a.Info()[0].Autostart)
}

func TestInfoAutostart(t *testing.T) {
	tests := []struct {
		name   string
		param1 uint16
		want   string
	}{
		{name: "line zero", param1: 0, want: "0"},
		{name: "last valid line", param1: 0x3FFF, want: "16383"},
		{name: "at limit", param1: 0x4000, want: "none"},
		{name: "below sentinel", param1: 0x7FFF, want: "none"},
		{name: "sentinel", param1: types.TapeNoAutostart, want: "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := loaderHeader
			header.Param1 = tt.param1
			a := openTape(t, tape.EncodeStream(tape.HeaderBlock(header), tape.DataBlock(filled(336, 1))))
			assert.Equal(t, tt.want, a.Info()[0].Autostart)
		})
	}
}

func TestDegenerateEntries(t *testing.T) {
	shortHeader := types.TapeBlock{Flag: types.TapeFlagHeader, Payload: make([]byte, 18)}
	stream := tape.EncodeStream(
		tape.DataBlock([]byte{1, 2, 3}),
		tape.HeaderBlock(loaderHeader),
		tape.HeaderBlock(gameHeader),
		tape.DataBlock(filled(32768, 0)),
		shortHeader,
		tape.HeaderBlock(loaderHeader),
	)

	a := openTape(t, stream)
	entries := a.Entries()
	require.Len(t, entries, 5)

	assert.IsType(t, &DataOnlyEntry{}, entries[0])
	assert.IsType(t, &HeaderOnlyEntry{}, entries[1])
	assert.IsType(t, &PairedEntry{}, entries[2])
	assert.IsType(t, &DataOnlyEntry{}, entries[3])
	assert.IsType(t, &HeaderOnlyEntry{}, entries[4])

	for i, e := range entries {
		assert.Equal(t, i, e.Index())
	}

	_, err := a.Extract(1, PartsData, false)
	assert.ErrorIs(t, err, ErrEntryPartMissing)
	_, err = a.Extract(0, PartsHeader, false)
	assert.ErrorIs(t, err, ErrEntryPartMissing)
	_, err = a.ExtractRaw(4)
	assert.ErrorIs(t, err, ErrEntryPartMissing)
	_, err = a.DiskForm(0, false)
	assert.ErrorIs(t, err, ErrEntryPartMissing)

	// the header-flagged 18-byte block keeps its flag when re-emitted
	out, err := a.Extract(3, PartsBoth, false)
	require.NoError(t, err)
	assert.Equal(t, tape.Encode(shortHeader), out)

	info := a.Info()
	assert.Equal(t, "header-only", info[1].Kind)
	assert.Equal(t, "Headerless", info[0].Type)
}

func TestLengthMismatchIssue(t *testing.T) {
	stream := tape.EncodeStream(tape.HeaderBlock(loaderHeader), tape.DataBlock(filled(300, 0)))

	a := openTape(t, stream)
	require.Len(t, a.Issues(), 1)
	assert.True(t, errors.Is(a.Issues()[0], tape.ErrLengthMismatch))
	assert.False(t, IsChecksumIssue(a.Issues()[0]))
	assert.False(t, a.Info()[0].LengthOK)
	assert.True(t, a.Info()[0].ChecksumOK)
}

func TestChecksumPolicy(t *testing.T) {
	stream := createSampleTape()
	// flip a byte inside the BASIC program payload
	stream[21+3+10] ^= 0xFF

	warn, err := OpenTapeArchive(stream, TapeOptions{ChecksumPolicy: ChecksumWarn, Logger: zerolog.Nop()})
	require.NoError(t, err)
	require.Len(t, warn.Issues(), 1)
	assert.True(t, IsChecksumIssue(warn.Issues()[0]))
	assert.Equal(t, 1, warn.Issues()[0].Block)
	assert.False(t, warn.Info()[0].ChecksumOK)
	assert.True(t, warn.Info()[1].ChecksumOK)

	// extraction proceeds and writes a fresh checksum
	out, err := warn.Extract(0, PartsBoth, false)
	require.NoError(t, err)
	assert.Empty(t, openTape(t, out).Issues())

	_, err = OpenTapeArchive(stream, TapeOptions{ChecksumPolicy: ChecksumStrict, Logger: zerolog.Nop()})
	require.Error(t, err)
	assert.ErrorIs(t, err, tape.ErrChecksumMismatch)
}

func TestOpenCorruptStream(t *testing.T) {
	stream := createSampleTape()
	_, err := OpenTapeArchive(stream[:len(stream)-5], TapeOptions{Logger: zerolog.Nop()})
	assert.ErrorIs(t, err, tape.ErrCorruptStream)
}

func TestDiskForm(t *testing.T) {
	a := openTape(t, createSampleTape())

	form, err := a.DiskForm(0, true)
	require.NoError(t, err)
	require.Len(t, form, 17+336)

	header, err := tape.ParseHeader(form[:17])
	require.NoError(t, err)
	assert.Equal(t, types.TapeNoAutostart, header.Param1)
	assert.Equal(t, filled(336, 1), form[17:])

	// disk files are padded to whole records
	padded := append(append([]byte{}, form...), bytes.Repeat([]byte{types.EOFMarker}, 128-len(form)%128)...)
	back, err := TapeFromDiskForm(padded, false)
	require.NoError(t, err)

	reopened := openTape(t, back)
	require.Equal(t, 1, reopened.Len())
	raw, err := reopened.ExtractRaw(0)
	require.NoError(t, err)
	assert.Equal(t, filled(336, 1), raw)

	_, err = TapeFromDiskForm(form[:10], false)
	assert.ErrorIs(t, err, tape.ErrInvalidHeader)
	_, err = TapeFromDiskForm(form[:100], false)
	assert.ErrorIs(t, err, tape.ErrLengthMismatch)
}

func TestTapeFromDiskFormOversized(t *testing.T) {
	for _, length := range []uint16{0xFFFE, 0xFFFF} {
		header := types.TapeHeader{FileType: types.TapeFileCode, Name: tape.NewName("big"), DataLength: length}
		data := append(tape.EncodeHeader(header), make([]byte, int(length))...)

		var out []byte
		var err error
		assert.NotPanics(t, func() { out, err = TapeFromDiskForm(data, false) })
		assert.ErrorIs(t, err, tape.ErrLengthMismatch)
		assert.Nil(t, out)
	}

	header := types.TapeHeader{FileType: types.TapeFileCode, Name: tape.NewName("big"), DataLength: types.TapeMaxPayload}
	out, err := TapeFromDiskForm(append(tape.EncodeHeader(header), make([]byte, types.TapeMaxPayload)...), false)
	require.NoError(t, err)
	raw, err := openTape(t, out).ExtractRaw(0)
	require.NoError(t, err)
	assert.Len(t, raw, types.TapeMaxPayload)
}

func TestEntryNames(t *testing.T) {
	odd := types.TapeHeader{FileType: types.TapeFileCharArray, Name: tape.NewName("my game!"), DataLength: 1}
	stream := tape.EncodeStream(
		tape.HeaderBlock(loaderHeader),
		tape.DataBlock(filled(336, 0)),
		tape.HeaderBlock(odd),
		tape.DataBlock([]byte{0}),
		tape.DataBlock([]byte{9}),
	)
	a := openTape(t, stream)

	assert.Equal(t, "00-loader.prg", a.HostFileName(0, ""))
	assert.Equal(t, "00-loader.tap", a.HostFileName(0, "tap"))
	assert.Equal(t, "01-my_game_.str", a.HostFileName(1, ""))
	assert.Equal(t, "02-block.bin", a.HostFileName(2, ""))

	fn, err := a.DiskFileName(0)
	require.NoError(t, err)
	assert.Equal(t, "LOADER.PRG", fn.String())

	fn, err = a.DiskFileName(1)
	require.NoError(t, err)
	assert.Equal(t, "MYGAME_.STR", fn.String())

	_, err = a.DiskFileName(2)
	assert.ErrorIs(t, err, ErrEntryPartMissing)
}
