package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/alienxp03/sparring/internal/core"
)

// MarkdownExporter exports debates to Markdown format.
type MarkdownExporter struct{}

// Export writes the debate as Markdown.
func (e *MarkdownExporter) Export(debate *core.DebateRecord, turns []*core.Turn, clarifications []core.Clarification, w io.Writer) error {
	var sb strings.Builder

	// Title
	title := debate.Title
	if title == "" {
		title = debate.Idea
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))

	// Metadata
	sb.WriteString("## Debate Information\n\n")
	sb.WriteString(fmt.Sprintf("- **ID:** `%s`\n", debate.ID))
	sb.WriteString(fmt.Sprintf("- **Status:** %s\n", debate.Status))
	sb.WriteString(fmt.Sprintf("- **Rounds:** %d\n", debate.Rounds))
	sb.WriteString(fmt.Sprintf("- **Created:** %s\n", debate.CreatedAt.Format("January 2, 2006 at 3:04 PM")))
	if debate.CompletedAt != nil {
		sb.WriteString(fmt.Sprintf("- **Completed:** %s\n", debate.CompletedAt.Format("January 2, 2006 at 3:04 PM")))
	}
	sb.WriteString("\n")

	// The idea under debate
	sb.WriteString("## The Idea\n\n")
	sb.WriteString(debate.Idea)
	sb.WriteString("\n\n")
	if debate.SupportingContext != "" {
		sb.WriteString("### Supporting Material\n\n")
		sb.WriteString(debate.SupportingContext)
		sb.WriteString("\n\n")
	}

	// Facts confirmed along the way
	if len(clarifications) > 0 {
		sb.WriteString("## Confirmed Facts\n\n")
		for _, c := range clarifications {
			sb.WriteString(fmt.Sprintf("- **Q:** %s\n", c.Question))
			sb.WriteString(fmt.Sprintf("  **A:** %s\n", c.Answer))
		}
		sb.WriteString("\n")
	}

	// Debate content
	sb.WriteString("## Debate\n\n")

	if len(turns) == 0 {
		sb.WriteString("*No arguments recorded.*\n\n")
	} else {
		lastRound := 0
		for _, turn := range turns {
			if turn.Round != lastRound {
				sb.WriteString(fmt.Sprintf("### Round %d\n\n", turn.Round))
				lastRound = turn.Round
			}
			sb.WriteString(fmt.Sprintf("#### %s\n\n", turn.Role.DisplayName()))
			sb.WriteString(fmt.Sprintf("*%s*\n\n", turn.CreatedAt.Format("3:04 PM")))
			sb.WriteString(turn.FinalArgument)
			sb.WriteString("\n\n---\n\n")
		}
	}

	// Verdict
	if debate.Verdict != nil {
		sb.WriteString("## Verdict\n\n")
		sb.WriteString(fmt.Sprintf("**Winner: %s**\n\n", formatWinner(debate.Verdict.Winner)))
		if debate.Verdict.RoundsSeen < debate.Verdict.RoundsTotal {
			sb.WriteString(fmt.Sprintf("*Based on the last %d of %d rounds.*\n\n", debate.Verdict.RoundsSeen, debate.Verdict.RoundsTotal))
		}
		sb.WriteString(debate.Verdict.Text)
		sb.WriteString("\n\n")
	}

	// Footer
	sb.WriteString("---\n\n")
	sb.WriteString("*Exported from sparring*\n")

	_, err := w.Write([]byte(sb.String()))
	return err
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return "md"
}
