package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"sweepDeskApp/internal/domain/model"
	"sweepDeskApp/internal/domain/repository"
	"sweepDeskApp/internal/domain/useCases"
)

// Server is the dashboard API: validation reads, session control actions,
// recovery status and sweep triggering. CORS and security headers are the
// deployment proxy's concern, not handled here.
type Server struct {
	validation  useCases.Validation
	recovery    useCases.RecoveryService
	sessions    repository.SessionControl
	audit       repository.SweepAudit
	broadcaster useCases.Broadcaster
	mux         *http.ServeMux
	server      *http.Server
}

// NewServer creates a new HTTP server with configured routes
func NewServer(
	addr string,
	validation useCases.Validation,
	recovery useCases.RecoveryService,
	sessions repository.SessionControl,
	audit repository.SweepAudit,
	broadcaster useCases.Broadcaster,
) *Server {
	mux := http.NewServeMux()

	server := &Server{
		validation:  validation,
		recovery:    recovery,
		sessions:    sessions,
		audit:       audit,
		broadcaster: broadcaster,
		mux:         mux,
		server: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	server.registerRoutes()

	return server
}

// registerRoutes configures all HTTP routes
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /sessions/{id}/validation", s.handleValidation)
	s.mux.HandleFunc("GET /sessions/{id}/recovery-status", s.handleRecoveryStatus)
	s.mux.HandleFunc("POST /sessions/{id}/sweep", s.handleSweep)
	s.mux.HandleFunc("GET /sessions/{id}/sweep-attempts", s.handleSweepAttempts)
	s.mux.HandleFunc("POST /sessions/{id}/pause", s.handleControl(model.OpPause))
	s.mux.HandleFunc("POST /sessions/{id}/resume", s.handleControl(model.OpResume))
	s.mux.HandleFunc("POST /sessions/{id}/stop", s.handleControl(model.OpStop))

	if s.broadcaster != nil {
		s.mux.HandleFunc("/ws", s.broadcaster.Handler())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleValidation serves the current validation set for a session,
// registering the session from the control API when it is not yet tracked.
func (s *Server) handleValidation(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	if v, tracked := s.validation.Current(id); tracked {
		writeJSON(w, http.StatusOK, v)
		return
	}

	session, err := s.sessions.GetSession(r.Context(), id)
	if err != nil {
		writeCollaboratorError(w, err)
		return
	}
	v := s.validation.RegisterSession(*session)
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleRecoveryStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	status, err := s.recovery.GetStatus(r.Context(), id)
	if err != nil {
		writeCollaboratorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleSweep triggers a recovery sweep. Per-wallet failures still return
// 200 with detail; only a whole-call failure maps to an error status.
func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	// Reject unknown sessions before attempting the sweep
	if _, err := s.recovery.GetStatus(r.Context(), id); err != nil {
		writeCollaboratorError(w, err)
		return
	}

	// A failed sweep is still a well-formed result: success=false with
	// either per-wallet detail or a top-level error message.
	writeJSON(w, http.StatusOK, s.recovery.Sweep(r.Context(), id))
}

// handleSweepAttempts serves the durable audit trail of sweep attempts for
// ops inspection and reconciliation.
func (s *Server) handleSweepAttempts(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	if s.audit == nil {
		writeCollaboratorError(w, fmt.Errorf("sweep audit store not configured: %w", model.ErrUnavailable))
		return
	}

	attempts, err := s.audit.AttemptsForSession(r.Context(), id)
	if err != nil {
		writeCollaboratorError(w, err)
		return
	}
	if attempts == nil {
		attempts = []*model.SweepAttempt{}
	}
	writeJSON(w, http.StatusOK, attempts)
}

// handleControl guards a pause/resume/stop action with the validator and
// forwards it to the authoritative session-control API. The local check is
// UX defense in depth; the control API re-validates at execution.
func (s *Server) handleControl(op model.Operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := sessionID(w, r)
		if !ok {
			return
		}

		session, err := s.sessions.GetSession(r.Context(), id)
		if err != nil {
			writeCollaboratorError(w, err)
			return
		}

		v := s.validation.RegisterSession(*session)
		result := resultFor(v, op)
		if !result.CanProceed {
			writeJSON(w, http.StatusConflict, map[string]interface{}{
				"error":  result.Error,
				"advice": model.Describe(result.Error),
			})
			return
		}

		switch op {
		case model.OpPause:
			err = s.sessions.Pause(r.Context(), id)
		case model.OpResume:
			err = s.sessions.Resume(r.Context(), id)
		case model.OpStop:
			err = s.sessions.Stop(r.Context(), id)
		}
		if err != nil {
			writeCollaboratorError(w, err)
			return
		}

		// Re-derive and push the post-action validation
		fresh, err := s.sessions.GetSession(r.Context(), id)
		if err == nil {
			updated := s.validation.RegisterSession(*fresh)
			if s.broadcaster != nil {
				s.broadcaster.BroadcastValidation(&updated)
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "validation": updated})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func resultFor(v model.SessionValidation, op model.Operation) model.ValidationResult {
	switch op {
	case model.OpPause:
		return v.Pause
	case model.OpResume:
		return v.Resume
	default:
		return v.Stop
	}
}

// sessionID extracts and sanity-checks the path id; it writes a 400 and
// returns false for malformed input.
func sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if id == "" || len(id) > 64 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed session id"})
		return "", false
	}
	return id, true
}

// writeCollaboratorError maps taxonomy errors from external collaborators
// onto HTTP status codes.
func writeCollaboratorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, model.ErrUnauthorized):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, model.ErrPreconditionFailed):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, model.ErrMalformedInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// Handler exposes the configured routes, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
