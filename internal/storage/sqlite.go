package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/alienxp03/sparring/internal/core"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLiteStorage{
		db:   db,
		path: dbPath,
	}, nil
}

// Initialize creates the database schema.
func (s *SQLiteStorage) Initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS debates (
		id TEXT PRIMARY KEY,
		title TEXT,
		idea TEXT NOT NULL,
		supporting_context TEXT,
		user_id TEXT,
		rounds INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		verdict_json TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		completed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS arguments (
		id TEXT PRIMARY KEY,
		debate_id TEXT NOT NULL,
		role TEXT NOT NULL,
		round INTEGER NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (debate_id) REFERENCES debates(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS clarifications (
		debate_id TEXT NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		source TEXT,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (debate_id, question),
		FOREIGN KEY (debate_id) REFERENCES debates(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		is_premium INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_arguments_debate_id ON arguments(debate_id);
	CREATE INDEX IF NOT EXISTS idx_debates_status ON debates(status);
	CREATE INDEX IF NOT EXISTS idx_debates_created_at ON debates(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// CreateDebate creates a new debate record.
func (s *SQLiteStorage) CreateDebate(record *core.DebateRecord) error {
	verdictJSON, err := marshalVerdict(record.Verdict)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO debates (id, title, idea, supporting_context, user_id, rounds, status, verdict_json, created_at, updated_at, completed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		record.ID,
		record.Title,
		record.Idea,
		record.SupportingContext,
		record.UserID,
		record.Rounds,
		record.Status,
		verdictJSON,
		record.CreatedAt,
		record.UpdatedAt,
		record.CompletedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert debate: %w", err)
	}

	return nil
}

// GetDebate retrieves a debate record by ID. Returns nil when not found.
func (s *SQLiteStorage) GetDebate(id string) (*core.DebateRecord, error) {
	query := `
	SELECT id, title, idea, supporting_context, user_id, rounds, status, verdict_json, created_at, updated_at, completed_at
	FROM debates
	WHERE id = ?
	`

	var record core.DebateRecord
	var title, supportingContext, userID sql.NullString
	var verdictJSON sql.NullString
	var completedAt sql.NullTime

	err := s.db.QueryRow(query, id).Scan(
		&record.ID,
		&title,
		&record.Idea,
		&supportingContext,
		&userID,
		&record.Rounds,
		&record.Status,
		&verdictJSON,
		&record.CreatedAt,
		&record.UpdatedAt,
		&completedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get debate: %w", err)
	}

	record.Title = title.String
	record.SupportingContext = supportingContext.String
	record.UserID = userID.String

	if verdictJSON.Valid && verdictJSON.String != "" {
		var verdict core.Verdict
		if err := json.Unmarshal([]byte(verdictJSON.String), &verdict); err != nil {
			return nil, fmt.Errorf("failed to unmarshal verdict: %w", err)
		}
		record.Verdict = &verdict
	}

	if completedAt.Valid {
		record.CompletedAt = &completedAt.Time
	}

	return &record, nil
}

// UpdateDebate updates an existing debate record.
func (s *SQLiteStorage) UpdateDebate(record *core.DebateRecord) error {
	verdictJSON, err := marshalVerdict(record.Verdict)
	if err != nil {
		return err
	}

	record.UpdatedAt = time.Now()

	query := `
	UPDATE debates
	SET title = ?, idea = ?, supporting_context = ?, user_id = ?, rounds = ?, status = ?, verdict_json = ?, updated_at = ?, completed_at = ?
	WHERE id = ?
	`

	_, err = s.db.Exec(query,
		record.Title,
		record.Idea,
		record.SupportingContext,
		record.UserID,
		record.Rounds,
		record.Status,
		verdictJSON,
		record.UpdatedAt,
		record.CompletedAt,
		record.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update debate: %w", err)
	}

	return nil
}

// DeleteDebate deletes a debate record and its arguments.
func (s *SQLiteStorage) DeleteDebate(id string) error {
	_, err := s.db.Exec("DELETE FROM debates WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete debate: %w", err)
	}
	return nil
}

// ListDebates returns a list of debate summaries, newest first.
func (s *SQLiteStorage) ListDebates(limit, offset int) ([]*core.DebateSummary, error) {
	query := `
	SELECT id, title, idea, status, rounds, verdict_json, created_at
	FROM debates
	ORDER BY created_at DESC
	LIMIT ? OFFSET ?
	`

	rows, err := s.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list debates: %w", err)
	}
	defer rows.Close()

	var summaries []*core.DebateSummary
	for rows.Next() {
		var summary core.DebateSummary
		var title sql.NullString
		var verdictJSON sql.NullString

		err := rows.Scan(
			&summary.ID,
			&title,
			&summary.Idea,
			&summary.Status,
			&summary.Rounds,
			&verdictJSON,
			&summary.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan debate summary: %w", err)
		}

		summary.Title = title.String
		if verdictJSON.Valid && verdictJSON.String != "" {
			var verdict core.Verdict
			if json.Unmarshal([]byte(verdictJSON.String), &verdict) == nil {
				summary.Winner = verdict.Winner
			}
		}

		summaries = append(summaries, &summary)
	}

	return summaries, nil
}

// AppendArgument appends a confirmed turn. Arguments are append-only.
func (s *SQLiteStorage) AppendArgument(turn *core.Turn) error {
	query := `
	INSERT INTO arguments (id, debate_id, role, round, content, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		turn.ID,
		turn.SessionID,
		turn.Role.String(),
		turn.Round,
		turn.FinalArgument,
		turn.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert argument: %w", err)
	}

	return nil
}

// GetArguments returns all confirmed turns for a debate in insertion order.
func (s *SQLiteStorage) GetArguments(debateID string) ([]*core.Turn, error) {
	query := `
	SELECT id, debate_id, role, round, content, created_at
	FROM arguments
	WHERE debate_id = ?
	ORDER BY created_at ASC, rowid ASC
	`

	rows, err := s.db.Query(query, debateID)
	if err != nil {
		return nil, fmt.Errorf("failed to get arguments: %w", err)
	}
	defer rows.Close()

	var turns []*core.Turn
	for rows.Next() {
		var turn core.Turn
		var roleStr string

		err := rows.Scan(
			&turn.ID,
			&turn.SessionID,
			&roleStr,
			&turn.Round,
			&turn.FinalArgument,
			&turn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan argument: %w", err)
		}

		role, err := core.ParseRole(roleStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt argument row %s: %w", turn.ID, err)
		}
		turn.Role = role

		turns = append(turns, &turn)
	}

	return turns, nil
}

// SaveClarifications persists confirmed clarifications. Duplicate question
// text for the same debate is ignored, matching the in-memory dedup rule.
func (s *SQLiteStorage) SaveClarifications(debateID string, clarifications []core.Clarification) error {
	query := `
	INSERT OR IGNORE INTO clarifications (debate_id, question, answer, source, created_at)
	VALUES (?, ?, ?, ?, ?)
	`

	now := time.Now()
	for _, c := range clarifications {
		if _, err := s.db.Exec(query, debateID, c.Question, c.Answer, c.Source, now); err != nil {
			return fmt.Errorf("failed to insert clarification: %w", err)
		}
	}
	return nil
}

// GetClarifications returns all confirmed clarifications for a debate.
func (s *SQLiteStorage) GetClarifications(debateID string) ([]core.Clarification, error) {
	query := `
	SELECT question, answer, source
	FROM clarifications
	WHERE debate_id = ?
	ORDER BY created_at ASC, rowid ASC
	`

	rows, err := s.db.Query(query, debateID)
	if err != nil {
		return nil, fmt.Errorf("failed to get clarifications: %w", err)
	}
	defer rows.Close()

	var clarifications []core.Clarification
	for rows.Next() {
		var c core.Clarification
		var source sql.NullString
		if err := rows.Scan(&c.Question, &c.Answer, &source); err != nil {
			return nil, fmt.Errorf("failed to scan clarification: %w", err)
		}
		c.Source = source.String
		clarifications = append(clarifications, c)
	}

	return clarifications, nil
}

// GetProfile returns a user profile, or nil when unknown.
func (s *SQLiteStorage) GetProfile(userID string) (*core.Profile, error) {
	var profile core.Profile
	var premium int

	err := s.db.QueryRow("SELECT user_id, is_premium FROM profiles WHERE user_id = ?", userID).
		Scan(&profile.UserID, &premium)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	profile.IsPremium = premium != 0
	return &profile, nil
}

// UpsertProfile creates or updates a user profile. The premium flag is
// flipped by an external payment event source, never by the engine.
func (s *SQLiteStorage) UpsertProfile(profile *core.Profile) error {
	query := `
	INSERT INTO profiles (user_id, is_premium) VALUES (?, ?)
	ON CONFLICT(user_id) DO UPDATE SET is_premium = excluded.is_premium
	`
	premium := 0
	if profile.IsPremium {
		premium = 1
	}
	if _, err := s.db.Exec(query, profile.UserID, premium); err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

func marshalVerdict(verdict *core.Verdict) (*string, error) {
	if verdict == nil {
		return nil, nil
	}
	data, err := json.Marshal(verdict)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal verdict: %w", err)
	}
	str := string(data)
	return &str, nil
}

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "sparring.db"
	}
	return filepath.Join(home, ".sparring", "sparring.db")
}
