package tap

import (
	core "github.com/deploymenttheory/go-judim/internal/services"
	"github.com/deploymenttheory/go-judim/pkg/services"
)

// InfoRequest represents a tape listing request
type InfoRequest struct {
	TapePath string
}

// InfoResponse lists the entries of a tape
type InfoResponse struct {
	TapePath string              `json:"tape_path" yaml:"tape_path"`
	Blocks   int                 `json:"blocks" yaml:"blocks"`
	Entries  []core.EntrySummary `json:"entries" yaml:"entries"`
	Issues   []IssueSummary      `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// IssueSummary describes one problem found while decoding
type IssueSummary struct {
	Block   int    `json:"block" yaml:"block"`
	Offset  int    `json:"offset" yaml:"offset"`
	Kind    string `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
}

// VerifyRequest represents a checksum verification request
type VerifyRequest struct {
	TapePath string
}

// VerifyResponse reports every checksum and length problem of a tape
type VerifyResponse struct {
	TapePath string         `json:"tape_path" yaml:"tape_path"`
	Blocks   int            `json:"blocks" yaml:"blocks"`
	Entries  int            `json:"entries" yaml:"entries"`
	Issues   []IssueSummary `json:"issues" yaml:"issues"`
	OK       bool           `json:"ok" yaml:"ok"`
}

// ExtractRequest represents a single entry extraction
type ExtractRequest struct {
	TapePath   string
	Index      int
	HeaderOnly bool
	DataOnly   bool
	Raw        bool
	DiskForm   bool
	NoAutorun  bool
	// Output is the host file; empty derives "NN-name.ext" in the current directory
	Output string
}

// ExtractResponse describes the written file
type ExtractResponse struct {
	Index  int    `json:"index" yaml:"index"`
	Name   string `json:"name" yaml:"name"`
	Output string `json:"output" yaml:"output"`
	Form   string `json:"form" yaml:"form"`
	Size   int    `json:"size" yaml:"size"`
}

// ExplodeRequest represents writing every entry of a tape to a directory
type ExplodeRequest struct {
	TapePath  string
	Directory string
	Raw       bool
	DiskForm  bool
	NoAutorun bool
}

// ExplodeResponse lists the written files
type ExplodeResponse struct {
	TapePath               string `json:"tape_path" yaml:"tape_path"`
	services.ExplodeResult `yaml:",inline"`
}

// options converts the request flags into service options
func (r *ExtractRequest) options() services.ExtractOptions {
	parts := core.PartsBoth
	switch {
	case r.HeaderOnly:
		parts = core.PartsHeader
	case r.DataOnly:
		parts = core.PartsData
	}
	return services.ExtractOptions{Parts: parts, Raw: r.Raw, DiskForm: r.DiskForm, NoAutorun: r.NoAutorun}
}

// form names the rendering for display
func (r *ExtractRequest) form() string {
	switch {
	case r.Raw:
		return "raw"
	case r.DiskForm:
		return "disk"
	default:
		return "tap/" + r.options().Parts.String()
	}
}
