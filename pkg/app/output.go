package app

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// ValidateOutputFormat rejects unknown output formats
func ValidateOutputFormat(format string) error {
	switch format {
	case OutputTable, OutputJSON, OutputYAML:
		return nil
	default:
		return NewError(ErrCodeInvalidInput, fmt.Sprintf("unsupported output format: %s", format), nil)
	}
}

// Render writes v as json or yaml, or calls table for the table format
func Render(w io.Writer, format string, v any, table func(io.Writer) error) error {
	switch format {
	case OutputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case OutputYAML:
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		encoder.SetIndent(2)
		return encoder.Encode(v)
	case OutputTable:
		return table(w)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
