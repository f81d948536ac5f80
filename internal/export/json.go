package export

import (
	"encoding/json"
	"io"

	"github.com/alienxp03/sparring/internal/core"
)

// JSONExporter exports debates to JSON format.
type JSONExporter struct{}

// ExportData represents the full export structure.
type ExportData struct {
	Debate         *core.DebateRecord   `json:"debate"`
	Turns          []*core.Turn         `json:"turns"`
	Clarifications []core.Clarification `json:"clarifications,omitempty"`
}

// Export writes the debate as JSON.
func (e *JSONExporter) Export(debate *core.DebateRecord, turns []*core.Turn, clarifications []core.Clarification, w io.Writer) error {
	data := ExportData{
		Debate:         debate,
		Turns:          turns,
		Clarifications: clarifications,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return "json"
}
