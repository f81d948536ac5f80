// Package ingest turns founder-supplied files into supporting context
// for a debate.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/alienxp03/sparring/internal/provider"
)

const (
	// MaxFileBytes caps how much of a single file is read.
	MaxFileBytes = 64 * 1024

	// summaryExcerpt caps how much of a non-text file's content is shown
	// to the summarizer.
	summaryExcerpt = 8 * 1024
)

const summarizeSystem = `You summarize a document a startup founder attached to support their idea. Produce a short factual summary of what the document contains. Do not editorialize.`

// Ingester converts attached files into text snippets.
type Ingester struct {
	registry     *provider.Registry
	providerName string
	model        string
	maxFiles     int
}

// New creates an ingester. maxFiles caps how many attachments are
// processed per debate; the rest are ignored with a notice.
func New(registry *provider.Registry, providerName, model string, maxFiles int) *Ingester {
	if maxFiles <= 0 {
		maxFiles = 3
	}
	return &Ingester{
		registry:     registry,
		providerName: providerName,
		model:        model,
		maxFiles:     maxFiles,
	}
}

// Ingest summarizes each file and joins the results into a single
// supporting-context block. Ingestion is best-effort: an unreadable or
// unsummarizable file contributes a placeholder, never an error.
func (i *Ingester) Ingest(ctx context.Context, paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	skipped := 0
	if len(paths) > i.maxFiles {
		skipped = len(paths) - i.maxFiles
		paths = paths[:i.maxFiles]
	}

	var sections []string
	for _, path := range paths {
		sections = append(sections, fmt.Sprintf("--- %s ---\n%s", filepath.Base(path), i.summarize(ctx, path)))
	}
	if skipped > 0 {
		sections = append(sections, fmt.Sprintf("(%d additional attachments were not processed)", skipped))
	}
	return strings.Join(sections, "\n\n")
}

// summarize reads plain-text files verbatim and routes everything else
// through the summarizer persona.
func (i *Ingester) summarize(ctx context.Context, path string) string {
	data, err := readCapped(path)
	if err != nil {
		slog.Warn("failed to read attachment", "path", path, "error", err)
		return "(attachment could not be read)"
	}

	if isPlainText(path) && utf8.Valid(data) {
		return strings.TrimSpace(string(data))
	}

	if !utf8.Valid(data) {
		return fmt.Sprintf("(binary attachment, %d bytes, not summarized)", len(data))
	}

	content := string(data)
	if len(content) > summaryExcerpt {
		content = content[:summaryExcerpt]
	}

	prov, err := i.registry.Get(i.providerName)
	if err != nil {
		return "(attachment could not be summarized)"
	}
	resp, err := prov.Generate(ctx, &provider.Request{
		System: summarizeSystem,
		Prompt: fmt.Sprintf("Document %s:\n\n%s", filepath.Base(path), content),
		Model:  i.model,
	})
	if err != nil {
		slog.Warn("failed to summarize attachment", "path", path, "error", err)
		return "(attachment could not be summarized)"
	}
	return strings.TrimSpace(resp.Content)
}

func readCapped(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, MaxFileBytes))
}

func isPlainText(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown":
		return true
	}
	return false
}
