package services

import (
	"context"
	"errors"

	"github.com/deploymenttheory/go-judim/internal/disk"
	core "github.com/deploymenttheory/go-judim/internal/services"
)

var (
	// ErrImageLocked is returned when another process holds the image lock
	ErrImageLocked = errors.New("disk image is locked by another process")
	// ErrImageExists is returned when formatting over an existing file without force
	ErrImageExists = errors.New("disk image already exists")
)

// TapeService opens tape archives stored on the host and writes their entries out
type TapeService interface {
	// Open reads and decodes a TAP file
	Open(ctx context.Context, path string) (*core.TapeArchive, error)

	// Extract renders one entry of an open archive
	Extract(archive *core.TapeArchive, index int, opts ExtractOptions) ([]byte, error)

	// Explode writes every entry of a TAP file into dir
	Explode(ctx context.Context, path, dir string, opts ExtractOptions) (*ExplodeResult, error)
}

// DiskService opens CP/M disk images stored on the host and edits them
type DiskService interface {
	// Open reads a disk image with the configured geometry
	Open(ctx context.Context, path string) (*core.DiskFilesystem, error)

	// Get returns the contents of one file
	Get(ctx context.Context, path, name string, opts GetOptions) ([]byte, error)

	// Copy writes the named files into dir
	Copy(ctx context.Context, path string, names []string, dir string) ([]WrittenFile, error)

	// Put adds host files to the image under an exclusive lock
	Put(ctx context.Context, path string, files []HostFile) (*PutResult, error)

	// PutTape copies tape entries onto the image in their disk form
	PutTape(ctx context.Context, path, tapePath string, indices []int, noAutorun bool) (*PutResult, error)

	// Format creates a blank image
	Format(ctx context.Context, path string, opts FormatOptions) (*core.DiskFilesystem, error)
}

// ExtractOptions selects how a tape entry is rendered
type ExtractOptions struct {
	// Parts limits a TAP rendering to the header or data block
	Parts core.ExtractParts
	// Raw writes the bare data payload
	Raw bool
	// DiskForm writes the 17-byte header followed by the data
	DiskForm bool
	// NoAutorun disables BASIC autostart in written headers
	NoAutorun bool
}

// Extension returns the host file extension for the rendering, empty for the
// per-type extension
func (o ExtractOptions) Extension() string {
	if o.Raw || o.DiskForm {
		return ""
	}
	return "tap"
}

// WrittenFile is one file written to the host
type WrittenFile struct {
	Index int    `json:"index" yaml:"index"`
	Name  string `json:"name" yaml:"name"`
	Path  string `json:"path" yaml:"path"`
	Size  int    `json:"size" yaml:"size"`
}

// SkippedEntry is a tape entry that could not be rendered as requested
type SkippedEntry struct {
	Index  int    `json:"index" yaml:"index"`
	Reason string `json:"reason" yaml:"reason"`
}

// ExplodeResult lists the files an explode wrote
type ExplodeResult struct {
	RunID     string         `json:"run_id" yaml:"run_id"`
	Directory string         `json:"directory" yaml:"directory"`
	Files     []WrittenFile  `json:"files" yaml:"files"`
	Skipped   []SkippedEntry `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// GetOptions selects which file Get reads and how it is returned
type GetOptions struct {
	// Deleted looks the name up among likely-deleted entries
	Deleted bool
	// ToTap converts a disk-form file back into a TAP stream
	ToTap bool
	// NoAutorun disables BASIC autostart when converting to TAP
	NoAutorun bool
}

// HostFile is a file to add to an image
type HostFile struct {
	// Name is the target "[N:]NAME.EXT"
	Name string
	Data []byte
}

// PutResult describes an image after files were added
type PutResult struct {
	Image string          `json:"image" yaml:"image"`
	Added []core.FileItem `json:"added" yaml:"added"`
	Usage core.UsageStats `json:"usage" yaml:"usage"`
}

// FormatOptions configures Format
type FormatOptions struct {
	// Format is raw or edsk; empty uses the configured format, edsk when auto
	Format disk.ImageFormat
	// Force overwrites an existing file
	Force bool
}
