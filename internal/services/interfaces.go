package services

import (
	"github.com/deploymenttheory/go-judim/internal/disk"
	"github.com/deploymenttheory/go-judim/internal/parsers/cpm"
	"github.com/deploymenttheory/go-judim/internal/parsers/tape"
)

// TapeArchiveService provides read access to a decoded tape archive
type TapeArchiveService interface {
	Len() int
	Entries() []TapeEntry
	Issues() []tape.Issue
	Get(index int) (TapeEntry, error)
	Info() []EntrySummary
	Extract(index int, parts ExtractParts, noAutorun bool) ([]byte, error)
	ExtractRaw(index int) ([]byte, error)
	DiskForm(index int, noAutorun bool) ([]byte, error)
	HostFileName(index int, extension string) string
	DiskFileName(index int) (cpm.FileName, error)
}

// DiskFilesystemService provides CP/M filesystem operations on a disk image
type DiskFilesystemService interface {
	Geometry() *disk.Geometry
	Image() disk.SectorImage
	List(mode ListMode) []FileItem
	Find(name string) (cpm.LogicalFile, error)
	Read(name string) ([]byte, error)
	ReadFile(f cpm.LogicalFile) ([]byte, error)
	AddFile(name string, data []byte) (*DiskFilesystem, error)
	Usage() UsageStats
}

var (
	_ TapeArchiveService    = (*TapeArchive)(nil)
	_ DiskFilesystemService = (*DiskFilesystem)(nil)
)
