// Package report renders batch summaries, manifests and progress for the CLI.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jackzampolin/stamper/internal/batch"
)

// Format defines the output format for CLI commands.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// DefaultFormat is the default output format.
const DefaultFormat = FormatYAML

// ParseFormat validates a format name. Empty selects DefaultFormat.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "":
		return DefaultFormat, nil
	case FormatYAML:
		return FormatYAML, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format: %s (want yaml or json)", s)
	}
}

// OutputTo writes data to the given writer in the specified format.
func OutputTo(w io.Writer, format Format, data any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

// Save writes data to path, choosing the format from its extension
// (.json, otherwise yaml). Parent directories are created as needed.
func Save(path string, data any) error {
	format := FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = FormatJSON
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := OutputTo(f, format, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ProgressLine renders one progress event as "[i/n] file outcome",
// followed by the error for records that did not complete.
func ProgressLine(p batch.Progress) string {
	line := fmt.Sprintf("[%d/%d] %s %s", p.Completed, p.Total, p.FileName, p.Outcome)
	if p.Outcome == batch.OutcomeDone {
		line += " -> " + p.InvoiceNum + ".pdf"
	}
	if p.Err != nil {
		line += ": " + p.Err.Error()
	}
	return line
}
