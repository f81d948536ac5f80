package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alienxp03/sparring/internal/core"
	"github.com/alienxp03/sparring/internal/prompt"
)

// RequestJudgment ends the debate: an impartial judge reviews the most
// recent rounds and declares a winner. At least one completed round is
// required. Judging is terminal; no further turns are accepted.
func (e *Engine) RequestJudgment(ctx context.Context, sessionID string) (*core.Verdict, error) {
	sess, err := e.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	r, err := e.getRun(sessionID)
	if err != nil {
		return nil, err
	}
	if err := r.acquire(); err != nil {
		return nil, err
	}
	defer r.release()

	r.mu.Lock()
	if r.state == core.StateJudged {
		verdict := r.verdict
		r.mu.Unlock()
		return verdict, nil
	}
	if sess.Round < 1 {
		r.mu.Unlock()
		return nil, ErrNoRounds
	}
	previous := r.state
	r.state = core.StateJudgingInProgress
	r.mu.Unlock()

	// Only whole rounds inside the judge window are shown; an unanswered
	// advocate turn from an in-progress round is excluded.
	roundsTotal := sess.Round
	firstRound := 1
	if roundsTotal > e.opts.JudgeRoundWindow {
		firstRound = roundsTotal - e.opts.JudgeRoundWindow + 1
	}
	var shown []*core.Turn
	for _, t := range sess.History {
		if t.Round >= firstRound && t.Round <= roundsTotal {
			shown = append(shown, t)
		}
	}

	system, user, err := prompt.BuildJudge(sess.Idea, prompt.FormatHistory(shown), roundsTotal-firstRound+1, roundsTotal)
	if err != nil {
		r.restoreState(previous)
		return nil, fmt.Errorf("failed to build judge prompt: %w", err)
	}

	raw, err := e.generate(ctx, system, user, nil)
	if err != nil {
		r.restoreState(previous)
		return nil, fmt.Errorf("judgment failed: %w", err)
	}

	verdict := &core.Verdict{
		Text:        raw,
		Winner:      core.ExtractWinner(raw),
		RoundsSeen:  roundsTotal - firstRound + 1,
		RoundsTotal: roundsTotal,
		CreatedAt:   time.Now(),
	}

	r.mu.Lock()
	r.state = core.StateJudged
	r.verdict = verdict
	r.mu.Unlock()

	e.persistVerdict(sessionID, verdict)
	slog.Info("debate judged", "session_id", sessionID, "winner", verdict.Winner, "rounds", roundsTotal)
	return verdict, nil
}

func (r *run) restoreState(state core.State) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
}

func (e *Engine) persistVerdict(sessionID string, verdict *core.Verdict) {
	record, err := e.records.GetDebate(sessionID)
	if err != nil || record == nil {
		return
	}
	record.Verdict = verdict
	record.Status = core.StatusJudged
	now := time.Now()
	record.CompletedAt = &now
	if err := e.records.UpdateDebate(record); err != nil {
		slog.Error("failed to persist verdict", "session_id", sessionID, "error", err)
	}
}
