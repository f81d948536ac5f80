package engine

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/alienxp03/sparring/internal/core"
	"github.com/alienxp03/sparring/internal/prompt"
	"github.com/alienxp03/sparring/internal/session"
)

// runDiscovery runs the pre-debate discovery stage: both personas and the
// idea analyzer propose clarifying questions in parallel. The stage is
// best-effort; any failure or timeout yields an empty (or partial) batch
// and the debate proceeds on the idea as given.
func (e *Engine) runDiscovery(ctx context.Context, sess *session.Session) []core.ClarificationRequest {
	ctx, cancel := context.WithTimeout(ctx, e.opts.DiscoveryTimeout)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var questions []core.ClarificationRequest

	collect := func(source string, found []string) {
		mu.Lock()
		defer mu.Unlock()
		for _, q := range found {
			questions = append(questions, core.ClarificationRequest{
				Question:    q,
				SourceClaim: source,
			})
		}
	}

	for _, role := range []core.Role{core.RoleAdvocate, core.RoleSkeptic} {
		wg.Add(1)
		go func(role core.Role) {
			defer wg.Done()
			system, user, err := prompt.BuildDiscover(role, sess.Idea, sess.SupportingContext)
			if err != nil {
				return
			}
			raw, err := e.generate(ctx, system, user, nil)
			if err != nil {
				slog.Warn("discovery persona failed", "session_id", sess.ID, "role", role.String(), "error", err)
				return
			}
			collect(role.DisplayName(), core.ParseQuestions(raw))
		}(role)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		collect("Founder Question", e.analyzeIdea(ctx, sess.ID, sess.Idea))
	}()

	wg.Wait()

	deduped := dedupeQuestions(questions)
	slog.Debug("discovery complete", "session_id", sess.ID, "questions", len(deduped))
	return deduped
}

// analyzeIdea asks whether the submitted idea is coherent enough to
// debate. A CLEAR verdict or any error yields no questions.
func (e *Engine) analyzeIdea(ctx context.Context, sessionID, idea string) []string {
	system, user, err := prompt.BuildAnalyze(idea)
	if err != nil {
		return nil
	}
	raw, err := e.generate(ctx, system, user, nil)
	if err != nil {
		slog.Warn("idea analysis failed", "session_id", sessionID, "error", err)
		return nil
	}
	if strings.Contains(strings.ToUpper(raw), "CLEAR") {
		return nil
	}
	return core.ParseQuestions(raw)
}

// dedupeQuestions drops questions that normalize to the same text,
// keeping the first occurrence.
func dedupeQuestions(questions []core.ClarificationRequest) []core.ClarificationRequest {
	seen := make(map[string]bool, len(questions))
	var out []core.ClarificationRequest
	for _, q := range questions {
		key := core.NormalizeQuestion(q.Question)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
	}
	return out
}
