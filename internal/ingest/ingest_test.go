package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alienxp03/sparring/internal/provider"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func newTestIngester(maxFiles int) *Ingester {
	registry := provider.NewRegistry()
	registry.Register(provider.NewMockProvider())
	return New(registry, "mock", "", maxFiles)
}

func TestIngestPlainText(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.md", "We have two pilot customers.")

	out := newTestIngester(3).Ingest(context.Background(), []string{path})
	if !strings.Contains(out, "notes.md") {
		t.Errorf("expected file name in output, got %q", out)
	}
	if !strings.Contains(out, "We have two pilot customers.") {
		t.Errorf("expected verbatim text content, got %q", out)
	}
}

func TestIngestCapsFileCount(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		paths = append(paths, writeFile(t, dir, name, "content"))
	}

	out := newTestIngester(2).Ingest(context.Background(), paths)
	if strings.Contains(out, "c.txt") {
		t.Error("files past the cap must not be processed")
	}
	if !strings.Contains(out, "1 additional attachment") {
		t.Errorf("expected a skipped-files notice, got %q", out)
	}
}

func TestIngestMissingFile(t *testing.T) {
	out := newTestIngester(3).Ingest(context.Background(), []string{"/does/not/exist.txt"})
	if !strings.Contains(out, "could not be read") {
		t.Errorf("expected a placeholder for the unreadable file, got %q", out)
	}
}

func TestIngestBinaryFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deck.bin")
	if err := os.WriteFile(path, []byte{0xff, 0xfe, 0x00, 0x01}, 0o644); err != nil {
		t.Fatalf("failed to write binary file: %v", err)
	}

	out := newTestIngester(3).Ingest(context.Background(), []string{path})
	if !strings.Contains(out, "not summarized") {
		t.Errorf("expected a binary placeholder, got %q", out)
	}
}

func TestIngestNonTextGoesThroughSummarizer(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "pitch.csv", "month,revenue\njan,100")

	out := newTestIngester(3).Ingest(context.Background(), []string{path})
	// The mock provider echoes the prompt back.
	if !strings.Contains(out, "Mock response") {
		t.Errorf("expected summarizer output, got %q", out)
	}
}

func TestIngestEmpty(t *testing.T) {
	if out := newTestIngester(3).Ingest(context.Background(), nil); out != "" {
		t.Errorf("expected empty output, got %q", out)
	}
}
