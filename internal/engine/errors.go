package engine

import "errors"

var (
	// ErrBusy is returned when a request races an in-flight operation for
	// the same session. Turns are strictly sequential per session.
	ErrBusy = errors.New("session is busy with another operation")

	// ErrHalted is returned after the consecutive-failure budget is
	// exhausted. The session stays paused until Resume is called.
	ErrHalted = errors.New("session halted after repeated generation failures")

	// ErrRoundLimit is returned when the round policy denies another round.
	ErrRoundLimit = errors.New("round limit reached")

	// ErrInvalidState is returned when an operation is not valid in the
	// session's current state.
	ErrInvalidState = errors.New("operation not valid in current state")

	// ErrDegenerateOutput marks a generation that succeeded but produced
	// an empty or implausibly short final argument. Treated like a
	// transient generation failure for retry purposes.
	ErrDegenerateOutput = errors.New("generation produced a degenerate argument")

	// ErrAnswersIncomplete is returned when a clarification submission is
	// missing an answer for one or more pending questions.
	ErrAnswersIncomplete = errors.New("all pending questions must be answered")

	// ErrNoRounds is returned when judgment is requested before any
	// complete round exists.
	ErrNoRounds = errors.New("at least one complete round is required before judging")
)
