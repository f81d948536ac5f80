// Package engine orchestrates debate sessions between the Advocate and
// Skeptic personas: the turn state machine, the clarification interrupt
// protocol, and the discovery, fact-check and judge stages.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alienxp03/sparring/internal/core"
	"github.com/alienxp03/sparring/internal/policy"
	"github.com/alienxp03/sparring/internal/prompt"
	"github.com/alienxp03/sparring/internal/provider"
	"github.com/alienxp03/sparring/internal/session"
	"github.com/alienxp03/sparring/internal/storage"
)

// Options tunes the turn engine. Zero values fall back to defaults.
type Options struct {
	Provider string
	Model    string

	// HistoryWindow is how many of a role's own prior arguments are fed
	// back as anti-repetition context. Oldest entries are dropped first.
	HistoryWindow int

	// ExcerptLength caps each prior-argument excerpt, in runes.
	ExcerptLength int

	// MinArgumentLength is the degenerate-output threshold, in bytes.
	MinArgumentLength int

	// FailureBudget is how many consecutive generation failures are
	// tolerated before the session halts.
	FailureBudget int

	// DiscoveryTimeout bounds the parallel discovery stage.
	DiscoveryTimeout time.Duration

	// JudgeRoundWindow is how many of the most recent rounds the judge
	// sees. Older rounds are truncated with an explicit notice.
	JudgeRoundWindow int

	// MaxInterruptQuestions caps the questions surfaced per interrupt.
	MaxInterruptQuestions int
}

func (o *Options) applyDefaults() {
	if o.Provider == "" {
		o.Provider = "claude"
	}
	if o.HistoryWindow <= 0 {
		o.HistoryWindow = 8
	}
	if o.ExcerptLength <= 0 {
		o.ExcerptLength = 600
	}
	if o.MinArgumentLength <= 0 {
		o.MinArgumentLength = 40
	}
	if o.FailureBudget <= 0 {
		o.FailureBudget = 2
	}
	if o.DiscoveryTimeout <= 0 {
		o.DiscoveryTimeout = 30 * time.Second
	}
	if o.JudgeRoundWindow <= 0 {
		o.JudgeRoundWindow = 10
	}
	if o.MaxInterruptQuestions <= 0 {
		o.MaxInterruptQuestions = 3
	}
}

// Engine orchestrates debate sessions.
type Engine struct {
	sessions *session.Store
	registry *provider.Registry
	records  storage.Storage
	policy   policy.RoundPolicy
	opts     Options

	mu   sync.Mutex
	runs map[string]*run
}

// run is the per-session ephemeral state machine. It does not survive a
// process restart; durable data lives in the session and record stores.
type run struct {
	mu   sync.Mutex
	busy bool

	state            core.State
	pendingRole      core.Role
	pendingQuestions []core.ClarificationRequest
	failures         int
	halted           bool
	verdict          *core.Verdict
}

// New creates a new debate engine.
func New(sessions *session.Store, registry *provider.Registry, records storage.Storage, roundPolicy policy.RoundPolicy, opts Options) *Engine {
	opts.applyDefaults()
	return &Engine{
		sessions: sessions,
		registry: registry,
		records:  records,
		policy:   roundPolicy,
		opts:     opts,
		runs:     make(map[string]*run),
	}
}

// ProviderName returns the provider the engine generates with.
func (e *Engine) ProviderName() string {
	return e.opts.Provider
}

func (e *Engine) getRun(sessionID string) (*run, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.runs[sessionID]
	if !ok {
		// Session may exist in the store without a live run only if the
		// process restarted; treat as not found so the caller restarts.
		if _, err := e.sessions.Get(sessionID); err != nil {
			return nil, err
		}
		return nil, session.ErrNotFound
	}
	return r, nil
}

// acquire marks a run busy, rejecting concurrent operations on the same
// session rather than interleaving them.
func (r *run) acquire() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.busy {
		return ErrBusy
	}
	r.busy = true
	return nil
}

func (r *run) release() {
	r.mu.Lock()
	r.busy = false
	r.mu.Unlock()
}

// StartConfig holds the inputs for starting a debate.
type StartConfig struct {
	Idea              string
	SupportingContext string
	UserID            string
}

// StartResult is returned from StartSession: the new session, the engine
// state, and the discovery question batch (possibly empty).
type StartResult struct {
	SessionID string                      `json:"session_id"`
	State     core.State                  `json:"state"`
	Questions []core.ClarificationRequest `json:"questions,omitempty"`
}

// StartSession creates a session, persists its record, and runs the
// discovery stage. The session ends up in DiscoveryPending when questions
// were produced, or directly in AdvocateTurnPending otherwise.
func (e *Engine) StartSession(ctx context.Context, cfg StartConfig) (*StartResult, error) {
	if strings.TrimSpace(cfg.Idea) == "" {
		return nil, fmt.Errorf("idea is required")
	}

	sess := e.sessions.Create(cfg.Idea, cfg.SupportingContext, cfg.UserID)
	slog.Debug("starting debate session", "session_id", sess.ID, "user_id", cfg.UserID)

	record := &core.DebateRecord{
		ID:                sess.ID,
		Idea:              sess.Idea,
		SupportingContext: sess.SupportingContext,
		UserID:            sess.UserID,
		Status:            core.StatusPending,
		CreatedAt:         sess.CreatedAt,
		UpdatedAt:         sess.UpdatedAt,
	}
	if err := e.records.CreateDebate(record); err != nil {
		return nil, fmt.Errorf("failed to persist debate record: %w", err)
	}

	// Summarize idea into a title in the background.
	go e.autoTitle(sess.ID, sess.Idea)

	r := &run{state: core.StateDiscoveryPending}
	e.mu.Lock()
	e.runs[sess.ID] = r
	e.mu.Unlock()

	questions := e.runDiscovery(ctx, sess)

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(questions) == 0 {
		r.state = core.StateAdvocateTurnPending
	} else {
		r.pendingQuestions = questions
	}

	return &StartResult{
		SessionID: sess.ID,
		State:     r.state,
		Questions: questions,
	}, nil
}

// autoTitle generates a short title and updates the session and record.
func (e *Engine) autoTitle(sessionID, idea string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	system, user, err := prompt.BuildTitle(idea)
	if err != nil {
		return
	}
	raw, err := e.generate(ctx, system, user, nil)
	if err != nil {
		slog.Error("failed to auto-title idea", "session_id", sessionID, "error", err)
		return
	}

	title := strings.TrimSpace(raw)
	title = strings.Trim(title, `"'`)
	words := strings.Fields(title)
	if len(words) > 5 {
		title = strings.Join(words[:5], " ")
	}

	if err := e.sessions.SetTitle(sessionID, title); err != nil {
		return
	}
	if record, err := e.records.GetDebate(sessionID); err == nil && record != nil {
		record.Title = title
		if err := e.records.UpdateDebate(record); err != nil {
			slog.Error("failed to update debate title", "session_id", sessionID, "error", err)
		}
	}
}

// TurnResult is returned from NextTurn. Exactly one of Turn or
// Clarifications is set: a completed turn, or an interrupt batch.
type TurnResult struct {
	State          core.State                  `json:"state"`
	Round          int                         `json:"round"`
	Turn           *core.Turn                  `json:"turn,omitempty"`
	Clarifications []core.ClarificationRequest `json:"clarifications,omitempty"`
}

// NextTurn executes the pending persona turn.
func (e *Engine) NextTurn(ctx context.Context, sessionID string) (*TurnResult, error) {
	return e.nextTurn(ctx, sessionID, nil)
}

// NextTurnStream is NextTurn with incremental output forwarded to onChunk.
// Streaming is a rendering concern only; state transitions are identical.
func (e *Engine) NextTurnStream(ctx context.Context, sessionID string, onChunk func(chunk string) error) (*TurnResult, error) {
	return e.nextTurn(ctx, sessionID, onChunk)
}

func (e *Engine) nextTurn(ctx context.Context, sessionID string, onChunk func(chunk string) error) (*TurnResult, error) {
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
	if r.halted {
		r.mu.Unlock()
		return nil, ErrHalted
	}
	state := r.state
	r.mu.Unlock()

	// A session stuck at the round limit is re-checked against the policy:
	// an upgrade flips the premium flag externally and unlocks it here.
	if state == core.StateRoundLimitReached {
		if !e.policy.MayContinue(sess.UserID, sess.Round) {
			return nil, ErrRoundLimit
		}
		state = core.StateAdvocateTurnPending
		r.mu.Lock()
		r.state = state
		r.mu.Unlock()
	}

	var role core.Role
	switch state {
	case core.StateAdvocateTurnPending:
		role = core.RoleAdvocate
	case core.StateSkepticTurnPending:
		role = core.RoleSkeptic
	default:
		return nil, fmt.Errorf("%w: cannot take a turn in state %s", ErrInvalidState, state)
	}

	// The opponent's immediately preceding final argument. Empty on the
	// very first turn, which makes this an opening argument.
	opponentArg := ""
	if n := len(sess.History); n > 0 {
		opponentArg = sess.History[n-1].FinalArgument
	}

	currentRound := sess.Round + 1

	priorArgs, err := e.sessions.RoleArguments(sessionID, role)
	if err != nil {
		return nil, err
	}

	system, user, err := prompt.BuildArgue(role, prompt.ArgueData{
		Idea:              sess.Idea,
		SupportingContext: sess.SupportingContext,
		Clarifications:    prompt.FormatClarifications(sess.Clarifications),
		PriorArguments:    prompt.FormatPriorArguments(priorArgs, e.opts.HistoryWindow, e.opts.ExcerptLength),
		OpponentArgument:  opponentArg,
		Opening:           opponentArg == "",
		Round:             currentRound,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	raw, err := e.generate(ctx, system, user, onChunk)
	if err != nil {
		if provider.IsConfiguration(err) {
			// Fatal at the collaborator boundary; never retried.
			return nil, err
		}
		return nil, e.recordFailure(r, sessionID, fmt.Errorf("generation failed: %w", err))
	}

	// The persona may explicitly signal it cannot proceed; this is a
	// control-flow interrupt, never a failure.
	if questions := e.embeddedClarifications(sessionID, role, raw); len(questions) > 0 {
		r.mu.Lock()
		r.failures = 0
		r.mu.Unlock()
		return e.interrupt(r, role, questions, currentRound), nil
	}

	final := core.ExtractFinalArgument(raw)
	if len(final) < e.opts.MinArgumentLength {
		return nil, e.recordFailure(r, sessionID, fmt.Errorf("%w: %d bytes", ErrDegenerateOutput, len(final)))
	}

	r.mu.Lock()
	r.failures = 0
	r.mu.Unlock()

	// Post-turn fact-check gate. Best-effort: a gate failure means "no
	// issues found", it never blocks the debate.
	if questions := e.factCheck(ctx, sess, final); len(questions) > 0 {
		return e.interrupt(r, role, questions, currentRound), nil
	}

	turn := &core.Turn{
		ID:            core.GenerateID(),
		SessionID:     sessionID,
		Role:          role,
		Round:         currentRound,
		RawOutput:     raw,
		FinalArgument: final,
		CreatedAt:     time.Now(),
	}
	if err := e.sessions.AppendTurn(sessionID, turn); err != nil {
		return nil, err
	}
	slog.Debug("turn completed", "session_id", sessionID, "role", role.String(), "round", currentRound)

	if role == core.RoleAdvocate {
		r.mu.Lock()
		r.state = core.StateSkepticTurnPending
		r.mu.Unlock()
		return &TurnResult{State: core.StateSkepticTurnPending, Round: currentRound, Turn: turn}, nil
	}

	return e.completeRound(r, sess, turn, currentRound)
}

// completeRound runs after a skeptic turn: both roles finished the round
// without interruption, so the counter increments and the round persists.
func (e *Engine) completeRound(r *run, sess *session.Session, turn *core.Turn, round int) (*TurnResult, error) {
	if err := e.sessions.SetRound(sess.ID, round); err != nil {
		return nil, err
	}
	e.persistRound(sess.ID, round)

	next := core.StateAdvocateTurnPending
	if !e.policy.MayContinue(sess.UserID, round) {
		next = core.StateRoundLimitReached
		slog.Info("round limit reached", "session_id", sess.ID, "round", round)
	}

	r.mu.Lock()
	r.state = next
	r.mu.Unlock()

	return &TurnResult{State: next, Round: round, Turn: turn}, nil
}

// persistRound writes the just-completed round's turns and the updated
// counter to the durable record store.
func (e *Engine) persistRound(sessionID string, round int) {
	sess, err := e.sessions.Get(sessionID)
	if err != nil {
		return
	}

	for _, t := range sess.History {
		if t.Round != round {
			continue
		}
		if err := e.records.AppendArgument(t); err != nil {
			slog.Error("failed to persist argument", "session_id", sessionID, "turn_id", t.ID, "error", err)
		}
	}
	if err := e.records.SaveClarifications(sessionID, sess.Clarifications); err != nil {
		slog.Error("failed to persist clarifications", "session_id", sessionID, "error", err)
	}

	record, err := e.records.GetDebate(sessionID)
	if err != nil || record == nil {
		return
	}
	record.Rounds = round
	record.Status = core.StatusInProgress
	if err := e.records.UpdateDebate(record); err != nil {
		slog.Error("failed to persist round counter", "session_id", sessionID, "error", err)
	}
}

// interrupt suspends the pending turn, discarding the draft. The turn is
// re-attempted from scratch once answers arrive, recomputing its prompt
// inputs from the unchanged history.
func (e *Engine) interrupt(r *run, role core.Role, questions []core.ClarificationRequest, round int) *TurnResult {
	r.mu.Lock()
	r.state = core.StateAwaitingClarification
	r.pendingRole = role
	r.pendingQuestions = questions
	r.mu.Unlock()

	slog.Info("turn interrupted for clarification",
		"role", role.String(), "round", round, "questions", len(questions))

	return &TurnResult{
		State:          core.StateAwaitingClarification,
		Round:          round - 1,
		Clarifications: questions,
	}
}

// embeddedClarifications extracts the persona's own CLARIFY signals,
// dropping questions already confirmed for the session.
func (e *Engine) embeddedClarifications(sessionID string, role core.Role, raw string) []core.ClarificationRequest {
	var requests []core.ClarificationRequest
	for _, q := range core.ExtractClarifyRequests(raw) {
		if e.sessions.HasClarification(sessionID, q) {
			continue
		}
		requests = append(requests, core.ClarificationRequest{
			Question:    q,
			SourceClaim: fmt.Sprintf("%s request", role.DisplayName()),
		})
		if len(requests) == e.opts.MaxInterruptQuestions {
			break
		}
	}
	return requests
}

// recordFailure counts a consecutive failure and halts the session once
// the budget is exhausted. Failures are always surfaced, never swallowed.
func (e *Engine) recordFailure(r *run, sessionID string, cause error) error {
	r.mu.Lock()
	r.failures++
	failures := r.failures
	if failures > e.opts.FailureBudget {
		r.halted = true
	}
	halted := r.halted
	r.mu.Unlock()

	slog.Error("turn generation failed", "session_id", sessionID, "consecutive_failures", failures, "halted", halted, "error", cause)
	if halted {
		return fmt.Errorf("%w: %v", ErrHalted, cause)
	}
	return cause
}

// SubmitDiscoveryAnswers resolves the discovery batch. Every pending
// question must have a non-empty answer; the merged clarifications are
// visible to the very next generation call.
func (e *Engine) SubmitDiscoveryAnswers(sessionID string, answers map[string]string) (*StateSnapshot, error) {
	return e.resolvePending(sessionID, answers, core.StateDiscoveryPending)
}

// SkipDiscovery declines the discovery batch and proceeds with no
// clarifications. Skipping is only allowed at discovery time.
func (e *Engine) SkipDiscovery(sessionID string) (*StateSnapshot, error) {
	r, err := e.getRun(sessionID)
	if err != nil {
		return nil, err
	}
	if err := r.acquire(); err != nil {
		return nil, err
	}
	defer r.release()

	r.mu.Lock()
	if r.state != core.StateDiscoveryPending {
		state := r.state
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot skip discovery in state %s", ErrInvalidState, state)
	}
	r.pendingQuestions = nil
	r.state = core.StateAdvocateTurnPending
	r.mu.Unlock()

	return e.State(sessionID)
}

// SubmitClarificationAnswers resolves an in-round fact-check interrupt and
// resumes the suspended role's turn state. The rejected draft was already
// discarded; the turn is regenerated from scratch with the new facts.
func (e *Engine) SubmitClarificationAnswers(sessionID string, answers map[string]string) (*StateSnapshot, error) {
	return e.resolvePending(sessionID, answers, core.StateAwaitingClarification)
}

func (e *Engine) resolvePending(sessionID string, answers map[string]string, wantState core.State) (*StateSnapshot, error) {
	if _, err := e.sessions.Get(sessionID); err != nil {
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
	if r.state != wantState {
		state := r.state
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: expected %s, session is %s", ErrInvalidState, wantState, state)
	}
	pending := r.pendingQuestions
	r.mu.Unlock()

	confirmed := make([]core.Clarification, 0, len(pending))
	for _, q := range pending {
		answer := strings.TrimSpace(answers[q.Question])
		if answer == "" {
			return nil, fmt.Errorf("%w: missing answer for %q", ErrAnswersIncomplete, q.Question)
		}
		confirmed = append(confirmed, core.Clarification{
			Question: q.Question,
			Answer:   answer,
			Source:   q.SourceClaim,
		})
	}

	if _, err := e.sessions.AppendClarifications(sessionID, confirmed); err != nil {
		return nil, err
	}
	if err := e.records.SaveClarifications(sessionID, confirmed); err != nil {
		slog.Error("failed to persist clarifications", "session_id", sessionID, "error", err)
	}

	r.mu.Lock()
	r.pendingQuestions = nil
	if wantState == core.StateDiscoveryPending {
		r.state = core.StateAdvocateTurnPending
	} else if r.pendingRole == core.RoleAdvocate {
		r.state = core.StateAdvocateTurnPending
	} else {
		r.state = core.StateSkepticTurnPending
	}
	r.mu.Unlock()

	slog.Debug("clarifications confirmed", "session_id", sessionID, "count", len(confirmed))
	return e.State(sessionID)
}

// Resume clears a halted session's failure state so the caller can retry.
func (e *Engine) Resume(sessionID string) (*StateSnapshot, error) {
	r, err := e.getRun(sessionID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.halted = false
	r.failures = 0
	r.mu.Unlock()

	return e.State(sessionID)
}

// StateSnapshot is the read-only view handed to the presentation layer.
// Two calls without an intervening mutation return identical snapshots.
type StateSnapshot struct {
	SessionID        string                      `json:"session_id"`
	Title            string                      `json:"title,omitempty"`
	Idea             string                      `json:"idea"`
	State            core.State                  `json:"state"`
	Round            int                         `json:"round"`
	PendingRole      string                      `json:"pending_role,omitempty"`
	PendingQuestions []core.ClarificationRequest `json:"pending_questions,omitempty"`
	Clarifications   []core.Clarification        `json:"clarifications,omitempty"`
	Turns            []*core.Turn                `json:"turns"`
	Halted           bool                        `json:"halted"`
	Verdict          *core.Verdict               `json:"verdict,omitempty"`
}

// State returns the current snapshot for a session. The session copy is
// taken under the store lock so a snapshot read never races a turn that is
// appending history concurrently.
func (e *Engine) State(sessionID string) (*StateSnapshot, error) {
	sess, err := e.sessions.Snapshot(sessionID)
	if err != nil {
		return nil, err
	}
	r, err := e.getRun(sessionID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := &StateSnapshot{
		SessionID:        sess.ID,
		Title:            sess.Title,
		Idea:             sess.Idea,
		State:            r.state,
		Round:            sess.Round,
		PendingQuestions: append([]core.ClarificationRequest(nil), r.pendingQuestions...),
		Clarifications:   sess.Clarifications,
		Turns:            sess.History,
		Halted:           r.halted,
		Verdict:          r.verdict,
	}
	if r.state == core.StateAwaitingClarification {
		snapshot.PendingRole = r.pendingRole.String()
	}
	return snapshot, nil
}

// ResumeSaved reconstructs a previously persisted debate into a live
// session: history and round counter come from the record store.
func (e *Engine) ResumeSaved(sessionID string) (*StateSnapshot, error) {
	record, err := e.records.GetDebate(sessionID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, session.ErrNotFound
	}

	turns, err := e.records.GetArguments(sessionID)
	if err != nil {
		return nil, err
	}
	clarifications, err := e.records.GetClarifications(sessionID)
	if err != nil {
		return nil, err
	}

	sess := &session.Session{
		ID:                record.ID,
		Idea:              record.Idea,
		SupportingContext: record.SupportingContext,
		Title:             record.Title,
		UserID:            record.UserID,
		History:           turns,
		Clarifications:    clarifications,
		Round:             record.Rounds,
		CreatedAt:         record.CreatedAt,
		UpdatedAt:         time.Now(),
	}
	e.sessions.Restore(sess)

	state := core.StateAdvocateTurnPending
	if record.Verdict != nil {
		state = core.StateJudged
	} else if record.Rounds > 0 && !e.policy.MayContinue(record.UserID, record.Rounds) {
		state = core.StateRoundLimitReached
	}

	r := &run{state: state, verdict: record.Verdict}
	e.mu.Lock()
	e.runs[sessionID] = r
	e.mu.Unlock()

	slog.Info("resumed saved debate", "session_id", sessionID, "rounds", record.Rounds, "state", state)
	return e.State(sessionID)
}

// generate runs one buffered (or streamed) generation call against the
// configured provider.
func (e *Engine) generate(ctx context.Context, system, user string, onChunk func(chunk string) error) (string, error) {
	prov, err := e.registry.Get(e.opts.Provider)
	if err != nil {
		return "", fmt.Errorf("%w: %v", provider.ErrNotConfigured, err)
	}

	req := &provider.Request{System: system, Prompt: user, Model: e.opts.Model}

	var resp *provider.Response
	if onChunk != nil {
		resp, err = prov.GenerateStream(ctx, req, onChunk)
	} else {
		resp, err = prov.Generate(ctx, req)
	}
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
