// Package handlers provides HTTP handlers for the web API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alienxp03/sparring/internal/engine"
	"github.com/alienxp03/sparring/internal/export"
	"github.com/alienxp03/sparring/internal/provider"
	"github.com/alienxp03/sparring/internal/session"
	"github.com/alienxp03/sparring/internal/storage"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	engine   *engine.Engine
	registry *provider.Registry
	storage  storage.Storage
}

// New creates a new Handler.
func New(eng *engine.Engine, registry *provider.Registry, store storage.Storage) *Handler {
	return &Handler{
		engine:   eng,
		registry: registry,
		storage:  store,
	}
}

// Router builds the HTTP router.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/providers", h.handleProviders)

		r.Route("/debates", func(r chi.Router) {
			r.Get("/", h.handleListDebates)
			r.Post("/", h.handleCreateDebate)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.handleGetDebate)
				r.Delete("/", h.handleDeleteDebate)
				r.Post("/turn", h.handleNextTurn)
				r.Post("/discovery", h.handleDiscoveryAnswers)
				r.Post("/discovery/skip", h.handleSkipDiscovery)
				r.Post("/clarifications", h.handleClarificationAnswers)
				r.Post("/judge", h.handleJudge)
				r.Post("/resume", h.handleResume)
				r.Post("/restore", h.handleRestore)
				r.Get("/stream", h.handleDebateStream)
				r.Get("/export/{format}", h.handleExportDebate)
			})
		})
	})

	return r
}

type createDebateRequest struct {
	Idea              string `json:"idea"`
	SupportingContext string `json:"supporting_context,omitempty"`
	UserID            string `json:"user_id,omitempty"`
}

func (h *Handler) handleCreateDebate(w http.ResponseWriter, r *http.Request) {
	var req createDebateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Idea == "" {
		h.writeError(w, http.StatusBadRequest, "idea is required")
		return
	}

	result, err := h.engine.StartSession(r.Context(), engine.StartConfig{
		Idea:              req.Idea,
		SupportingContext: req.SupportingContext,
		UserID:            req.UserID,
	})
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleGetDebate(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.engine.State(chi.URLParam(r, "id"))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handleListDebates(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	debates, err := h.storage.ListDebates(limit, offset)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"debates": debates})
}

func (h *Handler) handleDeleteDebate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	record, err := h.storage.GetDebate(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if record == nil {
		h.writeError(w, http.StatusNotFound, "debate not found")
		return
	}
	if err := h.storage.DeleteDebate(id); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleNextTurn(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.NextTurn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

type answersRequest struct {
	Answers map[string]string `json:"answers"`
}

func (h *Handler) handleDiscoveryAnswers(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	snapshot, err := h.engine.SubmitDiscoveryAnswers(chi.URLParam(r, "id"), req.Answers)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handleSkipDiscovery(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.engine.SkipDiscovery(chi.URLParam(r, "id"))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handleClarificationAnswers(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	snapshot, err := h.engine.SubmitClarificationAnswers(chi.URLParam(r, "id"), req.Answers)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handleJudge(w http.ResponseWriter, r *http.Request) {
	verdict, err := h.engine.RequestJudgment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, verdict)
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.engine.Resume(chi.URLParam(r, "id"))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, snapshot)
}

// handleRestore rebuilds a live session from the persisted record.
func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.engine.ResumeSaved(chi.URLParam(r, "id"))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handleExportDebate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format := export.Format(chi.URLParam(r, "format"))

	exporter, err := export.GetExporter(format)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.storage.GetDebate(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if record == nil {
		h.writeError(w, http.StatusNotFound, "debate not found")
		return
	}
	turns, err := h.storage.GetArguments(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	clarifications, err := h.storage.GetClarifications(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	filename := export.GenerateFilename(record, exporter.FileExtension())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	switch format {
	case export.FormatPDF:
		w.Header().Set("Content-Type", "application/pdf")
	case export.FormatJSON:
		w.Header().Set("Content-Type", "application/json")
	default:
		w.Header().Set("Content-Type", "text/markdown")
	}

	if err := exporter.Export(record, turns, clarifications, w); err != nil {
		slog.Error("export failed", "id", id, "format", format, "error", err)
	}
}

func (h *Handler) handleProviders(w http.ResponseWriter, r *http.Request) {
	type providerInfo struct {
		Name      string `json:"name"`
		Available bool   `json:"available"`
	}
	var providers []providerInfo
	for _, p := range h.registry.List() {
		providers = append(providers, providerInfo{Name: p.Name(), Available: p.Available()})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"providers": providers})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeEngineError maps engine errors onto HTTP status codes.
func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "debate not found")
	case errors.Is(err, engine.ErrBusy):
		h.writeError(w, http.StatusConflict, "debate is busy")
	case errors.Is(err, engine.ErrInvalidState):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrRoundLimit):
		h.writeError(w, http.StatusPaymentRequired, "free round limit reached")
	case errors.Is(err, engine.ErrAnswersIncomplete):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrNoRounds):
		h.writeError(w, http.StatusBadRequest, "no completed rounds to judge")
	case errors.Is(err, engine.ErrHalted):
		h.writeError(w, http.StatusConflict, "debate is halted; resume to retry")
	case provider.IsConfiguration(err):
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}
