package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/deploymenttheory/go-judim/internal/parsers/cpm"
	"github.com/deploymenttheory/go-judim/internal/parsers/tape"
	"github.com/deploymenttheory/go-judim/internal/types"
)

// ChecksumPolicy decides what a checksum mismatch does when an archive is opened
type ChecksumPolicy int

const (
	// ChecksumWarn logs and keeps mismatches as issues; extraction proceeds
	ChecksumWarn ChecksumPolicy = iota
	// ChecksumStrict fails the open on the first mismatch
	ChecksumStrict
)

// TapeOptions configures OpenTapeArchive
type TapeOptions struct {
	ChecksumPolicy ChecksumPolicy
	Logger         zerolog.Logger
}

// TapeArchive is an immutable, decoded tape archive
type TapeArchive struct {
	blocks  []tape.DecodedBlock
	entries []TapeEntry
	issues  []tape.Issue
	// bad holds the offsets of blocks failing verification
	bad     map[int]bool
	logger  zerolog.Logger
}

// OpenTapeArchive decodes a TAP stream and pairs header blocks with the data
// block that immediately follows them.
func OpenTapeArchive(data []byte, opts TapeOptions) (*TapeArchive, error) {
	blocks, err := tape.Decode(data)
	if err != nil {
		return nil, err
	}

	a := &TapeArchive{
		blocks: blocks,
		bad:    make(map[int]bool),
		logger: opts.Logger,
	}

	for _, issue := range tape.Verify(blocks) {
		if opts.ChecksumPolicy == ChecksumStrict {
			return nil, issue
		}
		a.bad[issue.Offset] = true
		a.issues = append(a.issues, issue)
	}

	a.pair()

	for _, issue := range a.issues {
		a.logger.Warn().Int("block", issue.Block).Int("offset", issue.Offset).Msg(issue.Error())
	}
	a.logger.Debug().Int("blocks", len(blocks)).Int("entries", len(a.entries)).Msg("tape archive decoded")
	return a, nil
}

func (a *TapeArchive) pair() {
	for i := 0; i < len(a.blocks); i++ {
		b := a.blocks[i]
		index := len(a.entries)

		header, isHeader := a.headerAt(i)
		if !isHeader {
			a.entries = append(a.entries, &DataOnlyEntry{index: index, dataBlk: b})
			continue
		}

		if i+1 < len(a.blocks) {
			if _, nextIsHeader := a.headerAt(i + 1); !nextIsHeader {
				data := a.blocks[i+1]
				if int(header.DataLength) != len(data.Payload) {
					a.issues = append(a.issues, tape.Issue{
						Block:  i,
						Offset: b.Offset,
						Err:    fmt.Errorf("%w: header declares %d bytes, data block holds %d", tape.ErrLengthMismatch, header.DataLength, len(data.Payload)),
					})
				}
				a.entries = append(a.entries, &PairedEntry{index: index, header: header, headerBlk: b, dataBlk: data})
				i++
				continue
			}
		}
		a.entries = append(a.entries, &HeaderOnlyEntry{index: index, header: header, headerBlk: b})
	}
}

// headerAt parses block i as a header. Header-flagged blocks of the wrong size are data.
func (a *TapeArchive) headerAt(i int) (types.TapeHeader, bool) {
	b := a.blocks[i]
	if !b.IsHeader() || len(b.Payload) != types.TapeHeaderPayloadSize {
		return types.TapeHeader{}, false
	}
	h, err := tape.ParseHeader(b.Payload)
	if err != nil {
		return types.TapeHeader{}, false
	}
	return h, true
}

// Len returns the number of entries
func (a *TapeArchive) Len() int {
	return len(a.entries)
}

// Entries returns all entries in stream order
func (a *TapeArchive) Entries() []TapeEntry {
	out := make([]TapeEntry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Blocks returns the decoded blocks in stream order
func (a *TapeArchive) Blocks() []tape.DecodedBlock {
	out := make([]tape.DecodedBlock, len(a.blocks))
	copy(out, a.blocks)
	return out
}

// Issues returns the checksum and length problems found while opening
func (a *TapeArchive) Issues() []tape.Issue {
	out := make([]tape.Issue, len(a.issues))
	copy(out, a.issues)
	return out
}

// Get returns the entry at index
func (a *TapeArchive) Get(index int) (TapeEntry, error) {
	if index < 0 || index >= len(a.entries) {
		return nil, fmt.Errorf("%w: entry %d, archive has %d", ErrIndexOutOfRange, index, len(a.entries))
	}
	return a.entries[index], nil
}

// Info summarizes every entry
func (a *TapeArchive) Info() []EntrySummary {
	out := make([]EntrySummary, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, a.summarize(e))
	}
	return out
}

func (a *TapeArchive) summarize(e TapeEntry) EntrySummary {
	s := EntrySummary{
		Index:      e.Index(),
		Kind:       EntryKind(e),
		Offset:     e.Offset(),
		ChecksumOK: true,
		LengthOK:   true,
	}

	for _, b := range e.Blocks() {
		if a.bad[b.Offset] {
			s.ChecksumOK = false
		}
	}

	if data, ok := EntryData(e); ok {
		s.Size = len(data)
	}

	header, ok := EntryHeader(e)
	if !ok {
		s.Name = fmt.Sprintf("block %d", e.Index())
		s.Type = "Headerless"
		s.Extension = "bin"
		return s
	}

	reader := tape.HeaderReaderFor(header)
	s.Name = reader.Name()
	s.Type = header.FileType.String()
	s.Extension = header.FileType.Extension()
	s.DeclaredLength = int(header.DataLength)
	if _, paired := e.(*PairedEntry); paired {
		s.LengthOK = s.DeclaredLength == s.Size
	}

	switch header.FileType {
	case types.TapeFileProgram:
		s.Autostart = "none"
		if line, ok := reader.AutostartLine(); ok {
			s.Autostart = strconv.Itoa(int(line))
		}
		vars := int(reader.VariablesOffset())
		s.VarsOffset = &vars
	case types.TapeFileCode:
		address := int(reader.LoadAddress())
		s.LoadAddress = &address
	case types.TapeFileNumberArray, types.TapeFileCharArray:
		s.ArrayVariable = reader.ArrayVariable()
	}
	return s
}

// Extract returns the requested blocks of an entry as a standalone TAP stream
// with fresh length prefixes and checksums.
func (a *TapeArchive) Extract(index int, parts ExtractParts, noAutorun bool) ([]byte, error) {
	e, err := a.Get(index)
	if err != nil {
		return nil, err
	}

	var blocks []types.TapeBlock
	if parts == PartsBoth || parts == PartsHeader {
		header, ok := EntryHeader(e)
		if ok {
			if noAutorun {
				header = tape.NoAutorun(header)
			}
			blocks = append(blocks, tape.HeaderBlock(header))
		} else if parts == PartsHeader {
			return nil, fmt.Errorf("%w: entry %d has no header", ErrEntryPartMissing, index)
		}
	}
	if parts == PartsBoth || parts == PartsData {
		data, ok := entryDataBlock(e)
		if ok {
			// keep the original flag; headerless blocks are not always 0xFF
			blocks = append(blocks, types.TapeBlock{Flag: data.Flag, Payload: data.Payload})
		} else if parts == PartsData {
			return nil, fmt.Errorf("%w: entry %d has no data block", ErrEntryPartMissing, index)
		}
	}

	a.logger.Debug().Int("index", index).Str("parts", parts.String()).Int("blocks", len(blocks)).Msg("extracting tape entry")
	return tape.EncodeStream(blocks...), nil
}

// ExtractRaw returns the bare data payload of an entry
func (a *TapeArchive) ExtractRaw(index int) ([]byte, error) {
	e, err := a.Get(index)
	if err != nil {
		return nil, err
	}
	data, ok := EntryData(e)
	if !ok {
		return nil, fmt.Errorf("%w: entry %d has no data block", ErrEntryPartMissing, index)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// DiskForm returns an entry as it is stored on a Junior disk: the 17-byte
// header followed by the data.
func (a *TapeArchive) DiskForm(index int, noAutorun bool) ([]byte, error) {
	e, err := a.Get(index)
	if err != nil {
		return nil, err
	}
	paired, ok := e.(*PairedEntry)
	if !ok {
		return nil, fmt.Errorf("%w: entry %d is %s, disk form needs a header and data", ErrEntryPartMissing, index, EntryKind(e))
	}

	header := paired.header
	if noAutorun {
		header = tape.NoAutorun(header)
	}
	out := make([]byte, 0, types.TapeHeaderPayloadSize+len(paired.Data()))
	out = append(out, tape.EncodeHeader(header)...)
	return append(out, paired.Data()...), nil
}

// HostFileName returns a host-safe file name for an entry, "NN-name.ext".
// An empty extension selects the per-type extension.
func (a *TapeArchive) HostFileName(index int, extension string) string {
	name := "block"
	ext := "bin"
	if index >= 0 && index < len(a.entries) {
		if header, ok := EntryHeader(a.entries[index]); ok {
			name = sanitizeHostName(tape.HeaderReaderFor(header).Name())
			ext = header.FileType.Extension()
		}
	}
	if extension != "" {
		ext = extension
	}
	return fmt.Sprintf("%02d-%s.%s", index, name, ext)
}

func sanitizeHostName(name string) string {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "noname"
	}
	return sb.String()
}

// DiskFileName derives a CP/M name for an entry: the tape name reduced to
// valid characters and 8 places, with the per-type extension.
func (a *TapeArchive) DiskFileName(index int) (cpm.FileName, error) {
	e, err := a.Get(index)
	if err != nil {
		return cpm.FileName{}, err
	}
	header, ok := EntryHeader(e)
	if !ok {
		return cpm.FileName{}, fmt.Errorf("%w: entry %d has no header to name it", ErrEntryPartMissing, index)
	}

	var sb strings.Builder
	for _, c := range []byte(tape.HeaderReaderFor(header).Name()) {
		if sb.Len() == types.FileNameLength {
			break
		}
		switch {
		case c == ' ':
			continue
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			sb.WriteByte(c)
		default:
			sb.WriteByte('_')
		}
	}
	name := sb.String()
	if name == "" {
		name = fmt.Sprintf("FILE%02d", index)
	}
	return cpm.ParseFileName(name + "." + header.FileType.Extension())
}

// TapeFromDiskForm converts a file stored on a Junior disk (17-byte header
// followed by data, padded to whole records) back into a two-block TAP stream.
func TapeFromDiskForm(data []byte, noAutorun bool) ([]byte, error) {
	if len(data) < types.TapeHeaderPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes cannot hold a header", tape.ErrInvalidHeader, len(data))
	}
	header, err := tape.ParseHeader(data[:types.TapeHeaderPayloadSize])
	if err != nil {
		return nil, err
	}
	if !header.FileType.Valid() {
		return nil, fmt.Errorf("%w: unknown file type %d", tape.ErrInvalidHeader, header.FileType)
	}

	if int(header.DataLength) > types.TapeMaxPayload {
		return nil, fmt.Errorf("%w: header declares %d bytes, a tape block holds at most %d", tape.ErrLengthMismatch, header.DataLength, types.TapeMaxPayload)
	}
	body := data[types.TapeHeaderPayloadSize:]
	if len(body) < int(header.DataLength) {
		return nil, fmt.Errorf("%w: header declares %d bytes, file holds %d", tape.ErrLengthMismatch, header.DataLength, len(body))
	}
	if noAutorun {
		header = tape.NoAutorun(header)
	}
	return tape.EncodeStream(tape.HeaderBlock(header), tape.DataBlock(body[:header.DataLength])), nil
}

// IsChecksumIssue reports whether an issue is a checksum mismatch
func IsChecksumIssue(issue tape.Issue) bool {
	return errors.Is(issue, tape.ErrChecksumMismatch)
}
