// Package export handles exporting debates to various formats.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/alienxp03/sparring/internal/core"
)

// Format represents an export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
	FormatJSON     Format = "json"
)

// Exporter defines the interface for exporting debates.
type Exporter interface {
	Export(debate *core.DebateRecord, turns []*core.Turn, clarifications []core.Clarification, w io.Writer) error
	FileExtension() string
}

// GetExporter returns an exporter for the given format.
func GetExporter(format Format) (Exporter, error) {
	switch format {
	case FormatMarkdown:
		return &MarkdownExporter{}, nil
	case FormatPDF:
		return &PDFExporter{}, nil
	case FormatJSON:
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// GenerateFilename creates a filename for the export.
func GenerateFilename(debate *core.DebateRecord, ext string) string {
	name := debate.Title
	if name == "" {
		name = debate.Idea
	}
	if len(name) > 50 {
		name = name[:50]
	}

	replacer := strings.NewReplacer(
		" ", "_",
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
	)
	name = replacer.Replace(name)

	timestamp := debate.CreatedAt.Format("20060102")
	return fmt.Sprintf("debate_%s_%s.%s", timestamp, name, ext)
}

// Helper to format the verdict winner
func formatWinner(winner core.Winner) string {
	switch winner {
	case core.WinnerAdvocate:
		return "Advocate"
	case core.WinnerSkeptic:
		return "Skeptic"
	case core.WinnerDraw:
		return "Draw"
	default:
		return "Undecided"
	}
}
