package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fieldwise/bridge/pkg/facade"
	"github.com/fieldwise/bridge/pkg/logger"
	"github.com/fieldwise/bridge/pkg/upstream"
)

type chatRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"threadId,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleChat is the non-streaming facade: one JSON document per turn.
// Anything that failed inside the turn fails the whole request.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := s.aggregator.Chat(r.Context(), upstream.ChatRequest{
		Message:  req.Message,
		ThreadID: req.ThreadID,
	})
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleChatStream is the streaming facade: events are relayed onto the
// wire as they arrive. The request context cancels the upstream read
// when the consumer disconnects.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	stream, err := s.upstream.Stream(r.Context(), upstream.ChatRequest{
		Message:  req.Message,
		ThreadID: req.ThreadID,
	})
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	defer stream.Body.Close()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := facade.Encode(r.Context(), stream.Body, w); err != nil {
		// Headers are gone; all we can do is stop and log.
		logger.Warn("server: relay ended early: %v", err)
	}
}

func (s *Server) handleThreads(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		threads, err := s.upstream.ListThreads(r.Context())
		if err != nil {
			writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, threads)
	case http.MethodPost:
		var req upstream.CreateThreadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		thread, err := s.upstream.CreateThread(r.Context(), req)
		if err != nil {
			writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusCreated, thread)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	}
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req upstream.UndoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := s.upstream.UndoLastAction(r.Context(), req)
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDemoStage(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		threadID := r.URL.Query().Get("threadId")
		writeJSON(w, http.StatusOK, map[string]any{
			"threadId": threadID,
			"stage":    s.stages.Stage(threadID),
		})
	case http.MethodPost:
		var req struct {
			ThreadID string `json:"threadId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"threadId": req.ThreadID,
			"stage":    s.stages.Advance(req.ThreadID),
		})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	}
}

func (s *Server) handleDemoReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	s.stages.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// statusFor mirrors the upstream status code where one is available and
// falls back to 500 for everything else. Application error events from
// the agent surface as 502: the failure is the backend's, not ours.
func statusFor(err error) int {
	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	var agentErr *facade.AgentError
	if errors.As(err, &agentErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("server: failed to encode response: %v", err)
	}
}
