package engine

import (
	"context"
	"log/slog"

	"github.com/alienxp03/sparring/internal/core"
	"github.com/alienxp03/sparring/internal/prompt"
	"github.com/alienxp03/sparring/internal/session"
)

// factCheck gates a candidate argument through the fact-checker persona.
// It returns the unresolved questions the argument raises, filtered
// against clarifications already confirmed and capped at the interrupt
// limit. The gate is best-effort: any failure means no findings.
func (e *Engine) factCheck(ctx context.Context, sess *session.Session, argument string) []core.ClarificationRequest {
	system, user, err := prompt.BuildFactCheck(sess.Idea, sess.SupportingContext, prompt.FormatClarifications(sess.Clarifications), argument)
	if err != nil {
		return nil
	}

	raw, err := e.generate(ctx, system, user, nil)
	if err != nil {
		slog.Warn("fact-check failed, accepting argument", "session_id", sess.ID, "error", err)
		return nil
	}

	var requests []core.ClarificationRequest
	for _, finding := range core.ParseFactCheckFindings(raw) {
		if e.sessions.HasClarification(sess.ID, finding.Question) {
			continue
		}
		requests = append(requests, core.ClarificationRequest{
			Question:    finding.Question,
			SourceClaim: finding.Claim,
		})
		if len(requests) == e.opts.MaxInterruptQuestions {
			break
		}
	}
	return requests
}
