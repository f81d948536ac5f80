// Package core contains the core domain types for sparring.
package core

import (
	"fmt"
	"time"
)

// Role identifies one of the two fixed adversarial personas.
type Role int

const (
	RoleAdvocate Role = iota
	RoleSkeptic
)

// String returns the lowercase persona name.
func (r Role) String() string {
	switch r {
	case RoleAdvocate:
		return "advocate"
	case RoleSkeptic:
		return "skeptic"
	}
	return "unknown"
}

// Opponent returns the other persona.
func (r Role) Opponent() Role {
	if r == RoleAdvocate {
		return RoleSkeptic
	}
	return RoleAdvocate
}

// DisplayName returns the human-facing persona name.
func (r Role) DisplayName() string {
	switch r {
	case RoleAdvocate:
		return "Advocate"
	case RoleSkeptic:
		return "Skeptic"
	}
	return "Unknown"
}

// ParseRole converts a persona name into a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "advocate":
		return RoleAdvocate, nil
	case "skeptic":
		return RoleSkeptic, nil
	}
	return RoleAdvocate, fmt.Errorf("unknown role: %s", s)
}

// State represents the turn engine's position in the debate lifecycle.
// The state is ephemeral per process; durable data lives in the session
// and record stores.
type State string

const (
	StateIdle                  State = "idle"
	StateDiscoveryPending      State = "discovery_pending"
	StateAwaitingClarification State = "awaiting_clarification"
	StateAdvocateTurnPending   State = "advocate_turn_pending"
	StateSkepticTurnPending    State = "skeptic_turn_pending"
	StateRoundComplete         State = "round_complete"
	StateRoundLimitReached     State = "round_limit_reached"
	StateJudgingInProgress     State = "judging_in_progress"
	StateJudged                State = "judged"
)

// DebateStatus is the durable status stored with a debate record.
type DebateStatus string

const (
	StatusPending    DebateStatus = "pending"
	StatusInProgress DebateStatus = "in_progress"
	StatusJudged     DebateStatus = "judged"
)

// Turn is a single persona contribution that passed the fact-check gate.
type Turn struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	Role          Role      `json:"role"`
	Round         int       `json:"round"`
	RawOutput     string    `json:"raw_output,omitempty"`
	FinalArgument string    `json:"final_argument"`
	CreatedAt     time.Time `json:"created_at"`
}

// Clarification is a confirmed user-supplied fact. Once confirmed it is
// included in every subsequent generation call for the session.
type Clarification struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Source   string `json:"source,omitempty"`
}

// ClarificationRequest is a pending question surfaced to the user, either
// from the discovery stage or from the fact-check gate.
type ClarificationRequest struct {
	Question    string `json:"question"`
	SourceClaim string `json:"source_claim"`
}

// Winner is the judge's extracted outcome token.
type Winner string

const (
	WinnerAdvocate Winner = "advocate"
	WinnerSkeptic  Winner = "skeptic"
	WinnerDraw     Winner = "draw"
	WinnerUnknown  Winner = "unknown"
)

// Verdict is the judge stage's output.
type Verdict struct {
	Text        string    `json:"text"`
	Winner      Winner    `json:"winner"`
	RoundsSeen  int       `json:"rounds_seen"`
	RoundsTotal int       `json:"rounds_total"`
	CreatedAt   time.Time `json:"created_at"`
}

// DebateRecord is the durable representation of a debate, persisted after
// every completed round and after judging.
type DebateRecord struct {
	ID                string       `json:"id"`
	Title             string       `json:"title,omitempty"`
	Idea              string       `json:"idea"`
	SupportingContext string       `json:"supporting_context,omitempty"`
	UserID            string       `json:"user_id,omitempty"`
	Rounds            int          `json:"rounds"`
	Status            DebateStatus `json:"status"`
	Verdict           *Verdict     `json:"verdict,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
	CompletedAt       *time.Time   `json:"completed_at,omitempty"`
}

// DebateSummary is a lightweight representation for listing debates.
type DebateSummary struct {
	ID        string       `json:"id"`
	Title     string       `json:"title,omitempty"`
	Idea      string       `json:"idea"`
	Status    DebateStatus `json:"status"`
	Rounds    int          `json:"rounds"`
	Winner    Winner       `json:"winner,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// Profile holds externally-owned entitlement state for a user.
type Profile struct {
	UserID    string `json:"user_id"`
	IsPremium bool   `json:"is_premium"`
}
