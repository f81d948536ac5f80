package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/alienxp03/sparring/internal/core"
)

// PDFExporter exports debates to PDF format.
type PDFExporter struct{}

// Export writes the debate as PDF.
func (e *PDFExporter) Export(debate *core.DebateRecord, turns []*core.Turn, clarifications []core.Clarification, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	pdf.AddPage()

	// Title
	title := debate.Title
	if title == "" {
		title = debate.Idea
	}
	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(0, 10, e.sanitizeText(title), "", "C", false)
	pdf.Ln(5)

	// Metadata section
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Debate Information")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	e.addMetadataRow(pdf, "ID:", debate.ID)
	e.addMetadataRow(pdf, "Status:", string(debate.Status))
	e.addMetadataRow(pdf, "Rounds:", fmt.Sprintf("%d", debate.Rounds))
	e.addMetadataRow(pdf, "Created:", debate.CreatedAt.Format("January 2, 2006 at 3:04 PM"))
	if debate.CompletedAt != nil {
		e.addMetadataRow(pdf, "Completed:", debate.CompletedAt.Format("January 2, 2006 at 3:04 PM"))
	}
	pdf.Ln(5)

	// The idea
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "The Idea")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 5, e.sanitizeText(debate.Idea), "", "", false)
	pdf.Ln(5)

	// Confirmed facts
	if len(clarifications) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "Confirmed Facts")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 9)
		for _, c := range clarifications {
			pdf.MultiCell(0, 5, e.sanitizeText(fmt.Sprintf("Q: %s", c.Question)), "", "", false)
			pdf.MultiCell(0, 5, e.sanitizeText(fmt.Sprintf("A: %s", c.Answer)), "", "", false)
			pdf.Ln(2)
		}
		pdf.Ln(3)
	}

	// Debate content
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Debate")
	pdf.Ln(8)

	if len(turns) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(0, 6, "No arguments recorded.")
		pdf.Ln(6)
	} else {
		for _, turn := range turns {
			if pdf.GetY() > 250 {
				pdf.AddPage()
			}

			// Role header with colored background
			if turn.Role == core.RoleAdvocate {
				pdf.SetFillColor(200, 255, 200) // Light green
			} else {
				pdf.SetFillColor(255, 220, 200) // Light orange
			}

			pdf.SetFont("Arial", "B", 10)
			header := fmt.Sprintf("Round %d - %s (%s)", turn.Round, turn.Role.DisplayName(), turn.CreatedAt.Format("3:04 PM"))
			pdf.CellFormat(0, 7, header, "", 1, "", true, 0, "")

			pdf.SetFont("Arial", "", 9)
			pdf.SetFillColor(255, 255, 255)
			pdf.MultiCell(0, 5, e.sanitizeText(turn.FinalArgument), "", "", false)
			pdf.Ln(5)
		}
	}

	// Verdict
	if debate.Verdict != nil {
		if pdf.GetY() > 230 {
			pdf.AddPage()
		}

		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "Verdict")
		pdf.Ln(8)

		switch debate.Verdict.Winner {
		case core.WinnerAdvocate:
			pdf.SetFillColor(200, 255, 200) // Light green
		case core.WinnerSkeptic:
			pdf.SetFillColor(255, 220, 200) // Light orange
		default:
			pdf.SetFillColor(230, 230, 230) // Grey
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 7, fmt.Sprintf("Winner: %s", formatWinner(debate.Verdict.Winner)), "", 1, "", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		pdf.SetFillColor(255, 255, 255)
		pdf.MultiCell(0, 5, e.sanitizeText(debate.Verdict.Text), "", "", false)
		pdf.Ln(3)
	}

	// Footer
	pdf.SetY(-15)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 10, "Exported from sparring", "", 0, "C", false, 0, "")

	return pdf.Output(w)
}

// FileExtension returns the file extension for PDF.
func (e *PDFExporter) FileExtension() string {
	return "pdf"
}

// Helper to add a metadata row
func (e *PDFExporter) addMetadataRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(30, 5, label)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 5, value)
	pdf.Ln(5)
}

// Sanitize text for PDF (remove problematic characters)
func (e *PDFExporter) sanitizeText(text string) string {
	// gofpdf uses Windows-1252 encoding by default
	replacer := strings.NewReplacer(
		"‘", "'", // Left single quote
		"’", "'", // Right single quote
		"“", "\"", // Left double quote
		"”", "\"", // Right double quote
		"–", "-", // En dash
		"—", "--", // Em dash
		"…", "...", // Ellipsis
		"•", "*", // Bullet
		" ", " ", // Non-breaking space
	)
	return replacer.Replace(text)
}
