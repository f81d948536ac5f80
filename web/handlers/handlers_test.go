package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alienxp03/sparring/internal/core"
	"github.com/alienxp03/sparring/internal/engine"
	"github.com/alienxp03/sparring/internal/policy"
	"github.com/alienxp03/sparring/internal/provider"
	"github.com/alienxp03/sparring/internal/session"
	"github.com/alienxp03/sparring/internal/storage"
)

// setupTestHandler creates a handler backed by mock generation and a
// temporary database.
func setupTestHandler(t *testing.T) *Handler {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	if err := store.Initialize(); err != nil {
		t.Fatalf("failed to initialize storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	registry := provider.NewRegistry()
	registry.Register(provider.NewMockProvider())

	eng := engine.New(session.NewStore(), registry, store, policy.Unlimited{}, engine.Options{Provider: "mock"})
	return New(eng, registry, store)
}

func createTestDebate(t *testing.T, h *Handler) *engine.StartResult {
	t.Helper()

	body := `{"idea": "A marketplace for renting out idle 3D printers", "user_id": "user-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/debates", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var result engine.StartResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return &result
}

func TestCreateDebate(t *testing.T) {
	h := setupTestHandler(t)
	result := createTestDebate(t, h)

	if result.SessionID == "" {
		t.Error("expected a session ID")
	}
	if result.State != core.StateAdvocateTurnPending {
		t.Errorf("expected advocate turn pending, got %s", result.State)
	}
}

func TestCreateDebateMissingIdea(t *testing.T) {
	h := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/debates", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestGetDebateState(t *testing.T) {
	h := setupTestHandler(t)
	result := createTestDebate(t, h)

	req := httptest.NewRequest(http.MethodGet, "/api/debates/"+result.SessionID, nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snapshot engine.StateSnapshot
	if err := json.NewDecoder(rec.Body).Decode(&snapshot); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	if snapshot.SessionID != result.SessionID {
		t.Errorf("expected session %s, got %s", result.SessionID, snapshot.SessionID)
	}
}

func TestGetDebateNotFound(t *testing.T) {
	h := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/debates/nope", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestNextTurnEndpoint(t *testing.T) {
	h := setupTestHandler(t)
	result := createTestDebate(t, h)

	req := httptest.NewRequest(http.MethodPost, "/api/debates/"+result.SessionID+"/turn", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var turn engine.TurnResult
	if err := json.NewDecoder(rec.Body).Decode(&turn); err != nil {
		t.Fatalf("failed to decode turn: %v", err)
	}
	if turn.Turn == nil || turn.Turn.Role != core.RoleAdvocate {
		t.Errorf("expected an advocate turn, got %+v", turn)
	}
	if turn.State != core.StateSkepticTurnPending {
		t.Errorf("expected skeptic turn pending, got %s", turn.State)
	}
}

func TestJudgeWithoutRounds(t *testing.T) {
	h := setupTestHandler(t)
	result := createTestDebate(t, h)

	req := httptest.NewRequest(http.MethodPost, "/api/debates/"+result.SessionID+"/judge", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestListDebates(t *testing.T) {
	h := setupTestHandler(t)
	createTestDebate(t, h)

	req := httptest.NewRequest(http.MethodGet, "/api/debates", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Debates []*core.DebateSummary `json:"debates"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(body.Debates) != 1 {
		t.Errorf("expected 1 debate, got %d", len(body.Debates))
	}
}

func TestDeleteDebate(t *testing.T) {
	h := setupTestHandler(t)
	result := createTestDebate(t, h)

	req := httptest.NewRequest(http.MethodDelete, "/api/debates/"+result.SessionID, nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/debates/"+result.SessionID, nil)
	rec = httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on double delete, got %d", rec.Code)
	}
}

func TestExportDebate(t *testing.T) {
	h := setupTestHandler(t)
	result := createTestDebate(t, h)

	req := httptest.NewRequest(http.MethodGet, "/api/debates/"+result.SessionID+"/export/markdown", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "attachment") {
		t.Error("expected an attachment disposition")
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("## Debate")) {
		t.Error("expected markdown content")
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	h := setupTestHandler(t)
	result := createTestDebate(t, h)

	req := httptest.NewRequest(http.MethodGet, "/api/debates/"+result.SessionID+"/export/docx", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestProvidersEndpoint(t *testing.T) {
	h := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/providers", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "mock") {
		t.Errorf("expected mock provider in response, got %s", rec.Body.String())
	}
}
