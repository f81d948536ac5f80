package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alienxp03/sparring/internal/core"
)

func testDebate() (*core.DebateRecord, []*core.Turn, []core.Clarification) {
	created := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	completed := created.Add(20 * time.Minute)
	debate := &core.DebateRecord{
		ID:        "abc123",
		Title:     "Printer Rental Marketplace",
		Idea:      "A marketplace for renting out idle 3D printers",
		UserID:    "user-1",
		Rounds:    2,
		Status:    core.StatusJudged,
		CreatedAt: created,
		UpdatedAt: completed,
		CompletedAt: &completed,
		Verdict: &core.Verdict{
			Text:        "The Skeptic exposed the supply-side problem.\nWinner: Skeptic",
			Winner:      core.WinnerSkeptic,
			RoundsSeen:  2,
			RoundsTotal: 2,
			CreatedAt:   completed,
		},
	}
	turns := []*core.Turn{
		{ID: "t1", SessionID: "abc123", Role: core.RoleAdvocate, Round: 1, FinalArgument: "Idle printers are wasted capital.", CreatedAt: created.Add(time.Minute)},
		{ID: "t2", SessionID: "abc123", Role: core.RoleSkeptic, Round: 1, FinalArgument: "Shipping costs kill the unit economics.", CreatedAt: created.Add(2 * time.Minute)},
		{ID: "t3", SessionID: "abc123", Role: core.RoleAdvocate, Round: 2, FinalArgument: "Local pickup avoids shipping entirely.", CreatedAt: created.Add(3 * time.Minute)},
		{ID: "t4", SessionID: "abc123", Role: core.RoleSkeptic, Round: 2, FinalArgument: "Local density is the real constraint.", CreatedAt: created.Add(4 * time.Minute)},
	}
	clarifications := []core.Clarification{
		{Question: "Who insures the printers?", Answer: "The platform does", Source: "Skeptic"},
	}
	return debate, turns, clarifications
}

func TestGetExporter(t *testing.T) {
	for _, format := range []Format{FormatMarkdown, FormatPDF, FormatJSON} {
		if _, err := GetExporter(format); err != nil {
			t.Errorf("expected exporter for %s, got error: %v", format, err)
		}
	}
	if _, err := GetExporter("docx"); err == nil {
		t.Error("expected an error for an unsupported format")
	}
}

func TestMarkdownExport(t *testing.T) {
	debate, turns, clarifications := testDebate()

	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(debate, turns, clarifications, &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Printer Rental Marketplace",
		"### Round 1",
		"### Round 2",
		"#### Advocate",
		"#### Skeptic",
		"Idle printers are wasted capital.",
		"Who insures the printers?",
		"**Winner: Skeptic**",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown export missing %q", want)
		}
	}
}

func TestMarkdownExportTruncationNotice(t *testing.T) {
	debate, turns, _ := testDebate()
	debate.Verdict.RoundsSeen = 10
	debate.Verdict.RoundsTotal = 14

	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(debate, turns, nil, &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(buf.String(), "last 10 of 14 rounds") {
		t.Error("expected a truncation notice in the verdict section")
	}
}

func TestJSONExportRoundTrip(t *testing.T) {
	debate, turns, clarifications := testDebate()

	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(debate, turns, clarifications, &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("exported JSON does not parse: %v", err)
	}
	if data.Debate.ID != debate.ID {
		t.Errorf("expected debate ID %s, got %s", debate.ID, data.Debate.ID)
	}
	if len(data.Turns) != len(turns) {
		t.Errorf("expected %d turns, got %d", len(turns), len(data.Turns))
	}
}

func TestPDFExport(t *testing.T) {
	debate, turns, clarifications := testDebate()

	var buf bytes.Buffer
	if err := (&PDFExporter{}).Export(debate, turns, clarifications, &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("output does not look like a PDF")
	}
}

func TestGenerateFilename(t *testing.T) {
	debate, _, _ := testDebate()
	name := GenerateFilename(debate, "md")
	if name != "debate_20260314_Printer_Rental_Marketplace.md" {
		t.Errorf("unexpected filename: %s", name)
	}

	debate.Title = "a/b:c?d"
	name = GenerateFilename(debate, "pdf")
	if strings.ContainsAny(name, "/:?") {
		t.Errorf("filename contains unsafe characters: %s", name)
	}
}
