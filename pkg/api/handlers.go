package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/fikri/chatstore/pkg/store"
)

// handleHealth reports liveness by exercising the store with a real count
// round trip. A storage failure downgrades the response to "degraded" and
// 503 instead of propagating.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.GetSessionCount(r.Context())
	connected := err == nil

	if err != nil {
		s.logger.Error().Err(err).Msg("Health check failed to reach session store")
		count = 0
	} else {
		s.metrics.SessionsStored.Set(float64(count))
	}

	status := "healthy"
	code := http.StatusOK
	if !connected {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	s.writeJSON(w, code, healthResponse{
		Success:   connected,
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(s.startTime).Seconds(),
		Database: databaseStatus{
			Connected:    connected,
			SessionCount: count,
		},
		Environment: s.options.Environment,
	})
}

// handleSave validates the request shape, generates an identifier when the
// caller supplied none, and upserts the session.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Bad request", "Failed to read request body")
		return
	}

	if err := validateSaveBody(s.saveSchema, body); err != nil {
		s.metrics.SessionSavesTotal.WithLabelValues("rejected").Inc()
		s.writeError(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	var req saveRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.metrics.SessionSavesTotal.WithLabelValues("rejected").Inc()
		s.writeError(w, http.StatusBadRequest, "Bad request", "Invalid JSON body")
		return
	}

	now := time.Now()

	timestamp := now
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			s.metrics.SessionSavesTotal.WithLabelValues("rejected").Inc()
			s.writeError(w, http.StatusBadRequest, "Validation failed", "timestamp must be an RFC 3339 instant")
			return
		}
		timestamp = parsed
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = ulid.Make().String()
	}

	messages := req.Messages
	for i := range messages {
		if messages[i].Timestamp.IsZero() {
			messages[i].Timestamp = now
		}
	}

	sess := &store.Session{
		SessionID: sessionID,
		Messages:  messages,
		Timestamp: timestamp,
		Metadata:  req.Metadata,
	}

	if err := s.store.SaveSession(r.Context(), sess); err != nil {
		s.metrics.SessionSavesTotal.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).Str("sessionId", sessionID).Msg("Failed to save session")
		s.writeError(w, http.StatusInternalServerError, "Internal server error", "Failed to save session")
		return
	}

	s.metrics.SessionSavesTotal.WithLabelValues("success").Inc()
	s.updateStoredGauge(r)

	s.writeJSON(w, http.StatusCreated, saveResponse{
		Success:   true,
		SessionID: sessionID,
		Message:   "Session saved",
	})
}

// handleGet returns a single session by identifier
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")

	sess, err := s.store.GetSession(r.Context(), sessionID)
	if errors.Is(err, store.ErrNotFound) {
		s.metrics.SessionFetchesTotal.WithLabelValues("get", "not_found").Inc()
		s.writeError(w, http.StatusNotFound, "Not found", "Session "+sessionID+" not found")
		return
	}
	if err != nil {
		s.metrics.SessionFetchesTotal.WithLabelValues("get", "error").Inc()
		s.logger.Error().Err(err).Str("sessionId", sessionID).Msg("Failed to load session")
		s.writeError(w, http.StatusInternalServerError, "Internal server error", "Failed to load session")
		return
	}

	s.metrics.SessionFetchesTotal.WithLabelValues("get", "success").Inc()
	s.writeJSON(w, http.StatusOK, getResponse{
		Success: true,
		Data:    sess,
	})
}

// handleList returns all sessions, most recent activity first
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.GetAllSessions(r.Context())
	if err != nil {
		s.metrics.SessionFetchesTotal.WithLabelValues("list", "error").Inc()
		s.logger.Error().Err(err).Msg("Failed to list sessions")
		s.writeError(w, http.StatusInternalServerError, "Internal server error", "Failed to list sessions")
		return
	}

	s.metrics.SessionFetchesTotal.WithLabelValues("list", "success").Inc()
	s.writeJSON(w, http.StatusOK, listResponse{
		Success: true,
		Count:   len(sessions),
		Data:    sessions,
	})
}

// handleDelete removes a session by identifier
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")

	deleted, err := s.store.DeleteSession(r.Context(), sessionID)
	if err != nil {
		s.metrics.SessionDeletesTotal.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).Str("sessionId", sessionID).Msg("Failed to delete session")
		s.writeError(w, http.StatusInternalServerError, "Internal server error", "Failed to delete session")
		return
	}

	if !deleted {
		s.metrics.SessionDeletesTotal.WithLabelValues("not_found").Inc()
		s.writeError(w, http.StatusNotFound, "Not found", "Session "+sessionID+" not found")
		return
	}

	s.metrics.SessionDeletesTotal.WithLabelValues("success").Inc()
	s.updateStoredGauge(r)

	s.writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "Session deleted",
	})
}

// updateStoredGauge refreshes the stored-sessions gauge, best effort
func (s *Server) updateStoredGauge(r *http.Request) {
	if count, err := s.store.GetSessionCount(r.Context()); err == nil {
		s.metrics.SessionsStored.Set(float64(count))
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, errLabel, message string) {
	s.writeJSON(w, status, errorResponse{
		Success: false,
		Error:   errLabel,
		Message: message,
	})
}
