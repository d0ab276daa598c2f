package services

import "errors"

var (
	// ErrIndexOutOfRange is returned for a tape entry index outside the archive
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrEntryPartMissing is returned when a degenerate entry lacks the requested block
	ErrEntryPartMissing = errors.New("entry has no such part")
	// ErrFileNotFound is returned when no directory entry matches a name
	ErrFileNotFound = errors.New("file not found")
	// ErrFileExists is returned when adding a file whose name is taken
	ErrFileExists = errors.New("file already exists")
	// ErrDiskFull is returned when there are not enough free blocks
	ErrDiskFull = errors.New("disk full")
	// ErrDirectoryFull is returned when there are not enough free directory slots
	ErrDirectoryFull = errors.New("directory full")
)

// ExtractParts selects the blocks of an entry to extract
type ExtractParts int

const (
	PartsBoth ExtractParts = iota
	PartsHeader
	PartsData
)

func (p ExtractParts) String() string {
	switch p {
	case PartsHeader:
		return "header"
	case PartsData:
		return "data"
	default:
		return "both"
	}
}

// EntrySummary describes one tape entry.
// VarsOffset is set for programs and LoadAddress for code blocks, zero included.
type EntrySummary struct {
	Index          int    `json:"index" yaml:"index"`
	Kind           string `json:"kind" yaml:"kind"`
	Offset         int    `json:"offset" yaml:"offset"`
	Name           string `json:"name" yaml:"name"`
	Type           string `json:"type" yaml:"type"`
	Extension      string `json:"extension" yaml:"extension"`
	Size           int    `json:"size" yaml:"size"`
	DeclaredLength int    `json:"declared_length,omitempty" yaml:"declared_length,omitempty"`
	Autostart      string `json:"autostart,omitempty" yaml:"autostart,omitempty"`
	VarsOffset     *int   `json:"vars_offset,omitempty" yaml:"vars_offset,omitempty"`
	LoadAddress    *int   `json:"load_address,omitempty" yaml:"load_address,omitempty"`
	ArrayVariable  string `json:"array_variable,omitempty" yaml:"array_variable,omitempty"`
	ChecksumOK     bool   `json:"checksum_ok" yaml:"checksum_ok"`
	LengthOK       bool   `json:"length_ok" yaml:"length_ok"`
}

// ListMode selects which directory entries List reports
type ListMode struct {
	// User limits the listing to one user when >= 0
	User int
	// Deleted includes entries rebuilt from deleted slots
	Deleted bool
}

// ListAll lists the live files of every user
func ListAll() ListMode {
	return ListMode{User: -1}
}

// ListUser lists the live files owned by one user
func ListUser(user int) ListMode {
	return ListMode{User: user}
}

// ListDeleted lists every live file plus likely-deleted ones
func ListDeleted() ListMode {
	return ListMode{User: -1, Deleted: true}
}

// FileItem is one row of a directory listing
type FileItem struct {
	User     int      `json:"user" yaml:"user"`
	Name     string   `json:"name" yaml:"name"`
	Size     int      `json:"size" yaml:"size"`
	Records  int      `json:"records" yaml:"records"`
	ReadOnly bool     `json:"read_only" yaml:"read_only"`
	System   bool     `json:"system" yaml:"system"`
	Archived bool     `json:"archived" yaml:"archived"`
	Deleted  bool     `json:"deleted" yaml:"deleted"`
	Extents  int      `json:"extents" yaml:"extents"`
	Blocks   []uint16 `json:"blocks" yaml:"blocks"`
}

// UsageStats reports block and directory usage of a filesystem
type UsageStats struct {
	BlockSize        int `json:"block_size" yaml:"block_size"`
	TotalBlocks      int `json:"total_blocks" yaml:"total_blocks"`
	DirectoryBlocks  int `json:"directory_blocks" yaml:"directory_blocks"`
	UsedBlocks       int `json:"used_blocks" yaml:"used_blocks"`
	FreeBlocks       int `json:"free_blocks" yaml:"free_blocks"`
	DirectoryEntries int `json:"directory_entries" yaml:"directory_entries"`
	UsedEntries      int `json:"used_entries" yaml:"used_entries"`
	Files            int `json:"files" yaml:"files"`
}

// FreeBytes returns the capacity of the free blocks
func (u UsageStats) FreeBytes() int {
	return u.FreeBlocks * u.BlockSize
}
