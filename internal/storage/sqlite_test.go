package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alienxp03/sparring/internal/core"
)

func setupTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "sparring-storage-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	store, err := NewSQLiteStorage(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("failed to create storage: %v", err)
	}

	if err := store.Initialize(); err != nil {
		store.Close()
		os.RemoveAll(tmpDir)
		t.Fatalf("failed to initialize storage: %v", err)
	}

	return store, func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}
}

func newTestRecord(id string) *core.DebateRecord {
	now := time.Now()
	return &core.DebateRecord{
		ID:        id,
		Idea:      "AI tutoring platform",
		UserID:    "user-1",
		Status:    core.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateAndGetDebate(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	if err := store.CreateDebate(newTestRecord("d1")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := store.GetDebate("d1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil || got.Idea != "AI tutoring platform" {
		t.Errorf("unexpected record: %+v", got)
	}

	missing, err := store.GetDebate("nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown id")
	}
}

func TestUpdateDebateWithVerdict(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	record := newTestRecord("d1")
	if err := store.CreateDebate(record); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	record.Rounds = 2
	record.Status = core.StatusJudged
	record.Verdict = &core.Verdict{
		Text:        "Winner: Advocate",
		Winner:      core.WinnerAdvocate,
		RoundsSeen:  2,
		RoundsTotal: 2,
		CreatedAt:   time.Now(),
	}
	now := time.Now()
	record.CompletedAt = &now

	if err := store.UpdateDebate(record); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := store.GetDebate("d1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Verdict == nil || got.Verdict.Winner != core.WinnerAdvocate {
		t.Errorf("verdict not persisted: %+v", got.Verdict)
	}
	if got.Rounds != 2 || got.Status != core.StatusJudged {
		t.Errorf("unexpected record state: %+v", got)
	}
}

func TestAppendAndGetArguments(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	if err := store.CreateDebate(newTestRecord("d1")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	base := time.Now()
	turns := []*core.Turn{
		{ID: "t1", SessionID: "d1", Role: core.RoleAdvocate, Round: 1, FinalArgument: "adv 1", CreatedAt: base},
		{ID: "t2", SessionID: "d1", Role: core.RoleSkeptic, Round: 1, FinalArgument: "ske 1", CreatedAt: base.Add(time.Second)},
		{ID: "t3", SessionID: "d1", Role: core.RoleAdvocate, Round: 2, FinalArgument: "adv 2", CreatedAt: base.Add(2 * time.Second)},
	}
	for _, turn := range turns {
		if err := store.AppendArgument(turn); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	got, err := store.GetArguments("d1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 arguments, got %d", len(got))
	}
	for i, turn := range got {
		if turn.ID != turns[i].ID {
			t.Errorf("argument %d out of order: got %s, want %s", i, turn.ID, turns[i].ID)
		}
	}
	if got[1].Role != core.RoleSkeptic {
		t.Errorf("role not round-tripped: %v", got[1].Role)
	}
}

func TestSaveClarificationsDedup(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	if err := store.CreateDebate(newTestRecord("d1")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	first := []core.Clarification{{Question: "How many users?", Answer: "1,200", Source: "Fact Check"}}
	if err := store.SaveClarifications("d1", first); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	// Same question again is ignored, not duplicated.
	again := []core.Clarification{{Question: "How many users?", Answer: "other", Source: "Discovery"}}
	if err := store.SaveClarifications("d1", again); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.GetClarifications("d1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 clarification, got %d", len(got))
	}
	if got[0].Answer != "1,200" {
		t.Errorf("first answer should win, got %q", got[0].Answer)
	}
}

func TestProfiles(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	got, err := store.GetProfile("unknown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("expected nil for unknown user")
	}

	if err := store.UpsertProfile(&core.Profile{UserID: "u1", IsPremium: false}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	// Premium flag flipped by the external payment event source.
	if err := store.UpsertProfile(&core.Profile{UserID: "u1", IsPremium: true}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err = store.GetProfile("u1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil || !got.IsPremium {
		t.Errorf("premium flag not persisted: %+v", got)
	}
}

func TestDeleteDebateCascades(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	if err := store.CreateDebate(newTestRecord("d1")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	store.AppendArgument(&core.Turn{ID: "t1", SessionID: "d1", Role: core.RoleAdvocate, Round: 1, FinalArgument: "x", CreatedAt: time.Now()})

	if err := store.DeleteDebate("d1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	turns, err := store.GetArguments("d1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("expected cascade delete of arguments, got %d", len(turns))
	}
}
