// Package storage provides durable persistence for debate records.
package storage

import (
	"github.com/alienxp03/sparring/internal/core"
)

// Storage defines the interface for debate-record and profile persistence.
// The engine writes after every completed round and after judging; it only
// reads back when resuming a previously saved session.
type Storage interface {
	// Initialize sets up the storage (creates tables, etc.)
	Initialize() error

	// Close closes the storage connection.
	Close() error

	// Debate record operations
	CreateDebate(record *core.DebateRecord) error
	GetDebate(id string) (*core.DebateRecord, error)
	UpdateDebate(record *core.DebateRecord) error
	DeleteDebate(id string) error
	ListDebates(limit, offset int) ([]*core.DebateSummary, error)

	// Argument operations (append-only)
	AppendArgument(turn *core.Turn) error
	GetArguments(debateID string) ([]*core.Turn, error)

	// Clarification operations
	SaveClarifications(debateID string, clarifications []core.Clarification) error
	GetClarifications(debateID string) ([]core.Clarification, error)

	// Profile operations
	GetProfile(userID string) (*core.Profile, error)
	UpsertProfile(profile *core.Profile) error
}
