// Package session provides the in-memory session repository for active
// debates. Durable history lives in the storage package; this store holds
// the working state the turn engine reads and writes.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alienxp03/sparring/internal/core"
)

// ErrNotFound is returned when an unknown session id is queried. Callers
// should surface this as "restart the debate", not crash.
var ErrNotFound = errors.New("session not found")

// Session is the mutable working state of one debate.
type Session struct {
	ID                string
	Idea              string
	SupportingContext string
	Title             string
	UserID            string
	History           []*core.Turn
	Clarifications    []core.Clarification
	Round             int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Store is an in-memory session repository. One instance per process,
// injected into the engine rather than accessed as a global.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
	}
}

// Create registers a new session and returns it.
func (s *Store) Create(idea, supportingContext, userID string) *Session {
	now := time.Now()
	sess := &Session{
		ID:                uuid.New().String(),
		Idea:              idea,
		SupportingContext: supportingContext,
		UserID:            userID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Restore registers a session reconstructed from a durable record,
// preserving its id, history and round counter.
func (s *Store) Restore(sess *Session) {
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
}

// Get returns the session for an id, or ErrNotFound.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Snapshot returns a detached copy of a session's state, safe to read
// without holding the store lock. The history and clarification slices are
// copied; turns are append-only after insertion, so sharing their pointers
// is safe.
func (s *Store) Snapshot(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	view := *sess
	view.History = append([]*core.Turn(nil), sess.History...)
	view.Clarifications = append([]core.Clarification(nil), sess.Clarifications...)
	return &view, nil
}

// AppendTurn appends a turn to a session's history. Appends for the same
// session are serialized and never reordered relative to invocation order.
func (s *Store) AppendTurn(id string, turn *core.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	sess.History = append(sess.History, turn)
	sess.UpdatedAt = time.Now()
	return nil
}

// AppendClarifications merges confirmed clarifications into a session,
// deduplicating by exact question text. Returns the number actually added.
func (s *Store) AppendClarifications(id string, clarifications []core.Clarification) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return 0, ErrNotFound
	}

	seen := make(map[string]bool, len(sess.Clarifications))
	for _, c := range sess.Clarifications {
		seen[c.Question] = true
	}

	added := 0
	for _, c := range clarifications {
		if c.Question == "" || seen[c.Question] {
			continue
		}
		seen[c.Question] = true
		sess.Clarifications = append(sess.Clarifications, c)
		added++
	}
	if added > 0 {
		sess.UpdatedAt = time.Now()
	}
	return added, nil
}

// SetRound updates a session's round counter.
func (s *Store) SetRound(id string, round int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	sess.Round = round
	sess.UpdatedAt = time.Now()
	return nil
}

// SetTitle updates a session's auto-generated title.
func (s *Store) SetTitle(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	sess.Title = title
	return nil
}

// RoleArguments returns the ordered final arguments one role has made.
func (s *Store) RoleArguments(id string, role core.Role) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	var arguments []string
	for _, t := range sess.History {
		if t.Role == role {
			arguments = append(arguments, t.FinalArgument)
		}
	}
	return arguments, nil
}

// HasClarification reports whether a question is already confirmed,
// matched by exact question text.
func (s *Store) HasClarification(id, question string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	for _, c := range sess.Clarifications {
		if c.Question == question {
			return true
		}
	}
	return false
}
