package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/alienxp03/sparring/internal/core"
)

// StreamEvent represents a server-sent event.
type StreamEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// handleDebateStream streams debate updates using Server-Sent Events.
func (h *Handler) handleDebateStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	slog.Debug("new debate stream connection", "id", id, "remote_addr", r.RemoteAddr)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	snapshot, err := h.engine.State(id)
	if err != nil {
		h.sendSSEError(w, flusher, "debate not found")
		return
	}

	// Send existing turns immediately
	for _, turn := range snapshot.Turns {
		h.sendSSEEvent(w, flusher, "turn_complete", turn)
	}
	h.sendSSEEvent(w, flusher, "state", snapshot)

	if snapshot.State == core.StateJudged {
		h.sendSSEEvent(w, flusher, "debate_complete", snapshot)
		return
	}

	// Poll for updates (a pub/sub system would replace this at scale)
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
	defer cancel()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	lastTurnCount := len(snapshot.Turns)
	lastState := snapshot.State

	for {
		select {
		case <-ctx.Done():
			slog.Debug("stream context done", "id", id)
			return
		case <-ticker.C:
			updated, err := h.engine.State(id)
			if err != nil {
				slog.Error("stream failed to read state", "id", id, "error", err)
				continue
			}

			if len(updated.Turns) > lastTurnCount {
				for i := lastTurnCount; i < len(updated.Turns); i++ {
					h.sendSSEEvent(w, flusher, "turn_complete", updated.Turns[i])
				}
				lastTurnCount = len(updated.Turns)
			}

			if updated.State != lastState {
				h.sendSSEEvent(w, flusher, "state", updated)
				lastState = updated.State
			}

			if updated.State == core.StateJudged {
				h.sendSSEEvent(w, flusher, "debate_complete", updated)
				return
			}
		}
	}
}

// sendSSEEvent sends a server-sent event.
func (h *Handler) sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		slog.Error("failed to marshal SSE data", "error", err)
		return
	}

	if _, err := fmt.Fprintf(w, "event: %s\n", eventType); err != nil {
		return
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", jsonData); err != nil {
		return
	}
	flusher.Flush()
}

// sendSSEError sends an error event.
func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, message string) {
	h.sendSSEEvent(w, flusher, "error", map[string]string{"message": message})
}
