package dsk

import (
	"github.com/deploymenttheory/go-judim/internal/disk"
	core "github.com/deploymenttheory/go-judim/internal/services"
	"github.com/deploymenttheory/go-judim/pkg/services"
)

// InfoRequest represents a disk image summary request
type InfoRequest struct {
	ImagePath string
}

// InfoResponse describes the container, geometry and usage of an image
type InfoResponse struct {
	ImagePath        string              `json:"image_path" yaml:"image_path"`
	Format           string              `json:"format" yaml:"format"`
	Creator          string              `json:"creator,omitempty" yaml:"creator,omitempty"`
	Geometry         disk.Params         `json:"geometry" yaml:"geometry"`
	ImageSize        int                 `json:"image_size" yaml:"image_size"`
	BlockSize        int                 `json:"block_size" yaml:"block_size"`
	PointerBits      int                 `json:"pointer_bits" yaml:"pointer_bits"`
	ExtentMask       int                 `json:"extent_mask" yaml:"extent_mask"`
	SkewTable        []int               `json:"skew_table" yaml:"skew_table"`
	Usage            core.UsageStats     `json:"usage" yaml:"usage"`
	Tracks           []disk.TrackSummary `json:"tracks,omitempty" yaml:"tracks,omitempty"`
	DeletedRecovered int                 `json:"deleted_recoverable" yaml:"deleted_recoverable"`
}

// ListRequest represents a directory listing request
type ListRequest struct {
	ImagePath string
	// User limits the listing to one user; -1 lists every user
	User    int
	Deleted bool
}

// ListResponse is a directory listing
type ListResponse struct {
	ImagePath string          `json:"image_path" yaml:"image_path"`
	Files     []core.FileItem `json:"files" yaml:"files"`
	Usage     core.UsageStats `json:"usage" yaml:"usage"`
}

// GetRequest represents reading one file out of an image
type GetRequest struct {
	ImagePath string
	Name      string
	// Output is the host file; empty uses the CP/M name in the current directory
	Output    string
	Deleted   bool
	ToTap     bool
	NoAutorun bool
}

// GetResponse describes the written file
type GetResponse struct {
	Name   string `json:"name" yaml:"name"`
	Output string `json:"output" yaml:"output"`
	Size   int    `json:"size" yaml:"size"`
}

// CopyRequest represents copying several files out of an image
type CopyRequest struct {
	ImagePath string
	Names     []string
	Directory string
}

// CopyResponse lists the written files
type CopyResponse struct {
	ImagePath string                 `json:"image_path" yaml:"image_path"`
	Files     []services.WrittenFile `json:"files" yaml:"files"`
}

// PutRequest represents adding a host file to an image
type PutRequest struct {
	ImagePath string
	HostPath  string
	// As is the target "[N:]NAME.EXT"; empty derives it from the host name
	As string
}

// PutTapeRequest represents copying tape entries onto an image
type PutTapeRequest struct {
	ImagePath string
	TapePath  string
	Indices   []int
	NoAutorun bool
}

// PutResponse describes the image after files were added
type PutResponse struct {
	services.PutResult `yaml:",inline"`
}

// FormatRequest represents creating a blank image
type FormatRequest struct {
	ImagePath string
	// Format is raw or edsk; empty uses the configured format
	Format string
	Force  bool
}

// FormatResponse describes the new image
type FormatResponse struct {
	ImagePath string          `json:"image_path" yaml:"image_path"`
	Format    string          `json:"format" yaml:"format"`
	Usage     core.UsageStats `json:"usage" yaml:"usage"`
}
