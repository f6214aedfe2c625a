package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/certlearn/stepwise/internal/config"
	"github.com/certlearn/stepwise/internal/exercise"
	"github.com/certlearn/stepwise/internal/progress"
	"github.com/certlearn/stepwise/internal/session"
)

// Server is the stepwise daemon HTTP server
type Server struct {
	cfg    *config.Config
	server *http.Server
	router *http.ServeMux

	registry *exercise.Registry
	sessions *session.Service
}

// ServerConfig holds the assembled services for a new server
type ServerConfig struct {
	Config   *config.Config
	Registry *exercise.Registry
	Sessions *session.Service
}

// NewServer creates a new daemon server
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		cfg:      cfg.Config,
		router:   http.NewServeMux(),
		registry: cfg.Registry,
		sessions: cfg.Sessions,
	}

	s.setupRoutes()

	handler := recoveryMiddleware(correlationIDMiddleware(loggingMiddleware(s.router)))
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health
	s.router.HandleFunc("GET /v1/health", s.handleHealth)

	// Exercises
	s.router.HandleFunc("GET /v1/exercises", s.handleListExercises)
	s.router.HandleFunc("GET /v1/exercises/{id}", s.handleGetExercise)

	// Sessions
	s.router.HandleFunc("POST /v1/sessions", s.handleCreateSession)
	s.router.HandleFunc("GET /v1/sessions/{id}", s.handleGetSession)
	s.router.HandleFunc("DELETE /v1/sessions/{id}", s.handleAbandonSession)
	s.router.HandleFunc("POST /v1/sessions/{id}/start", s.handleStartSession)
	s.router.HandleFunc("POST /v1/sessions/{id}/button", s.handleSubmitButton)
	s.router.HandleFunc("POST /v1/sessions/{id}/text", s.handleSubmitText)
	s.router.HandleFunc("POST /v1/sessions/{id}/restart", s.handleRestartSession)

	// Progress
	s.router.HandleFunc("GET /v1/progress/{learner}/{exercise}", s.handleBestScore)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	slog.Info("starting stepwise daemon",
		"addr", s.server.Addr,
		"exercises", s.registry.Count(),
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server and drains pending
// progress reports.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down daemon...")
	s.sessions.Wait()
	return s.server.Shutdown(ctx)
}

// Handler returns the middleware-wrapped handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Handler implementations

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	exercises := s.registry.List()

	result := make([]map[string]interface{}, 0, len(exercises))
	for _, ex := range exercises {
		result = append(result, map[string]interface{}{
			"id":    ex.ID,
			"title": ex.Title,
			"steps": len(ex.Steps),
		})
	}

	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"exercises": result,
	})
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	ex, err := s.registry.Get(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusNotFound, "exercise not found", nil)
		return
	}

	s.jsonResponse(w, http.StatusOK, ex)
}

// Session handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExerciseID string `json:"exercise_id"`
		LearnerID  string `json:"learner_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.ExerciseID == "" || req.LearnerID == "" {
		s.jsonError(w, http.StatusBadRequest, "exercise_id and learner_id are required", nil)
		return
	}

	sess, err := s.sessions.Create(r.Context(), req.ExerciseID, req.LearnerID)
	if err != nil {
		if errors.Is(err, exercise.ErrNotFound) {
			s.jsonError(w, http.StatusNotFound, "exercise not found", nil)
			return
		}
		s.jsonError(w, http.StatusBadRequest, "failed to create session", err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusNotFound, "session not found", nil)
		return
	}

	s.jsonResponse(w, http.StatusOK, sess)
}

func (s *Server) handleAbandonSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Abandon(r.Context(), r.PathValue("id")); err != nil {
		s.jsonError(w, http.StatusNotFound, "session not found", nil)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"abandoned": true,
	})
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Start(r.Context(), r.PathValue("id"))
	if err != nil {
		s.sessionError(w, err, "failed to start session")
		return
	}

	s.jsonResponse(w, http.StatusOK, sess)
}

func (s *Server) handleRestartSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Restart(r.Context(), r.PathValue("id"))
	if err != nil {
		s.sessionError(w, err, "failed to restart session")
		return
	}

	s.jsonResponse(w, http.StatusOK, sess)
}

func (s *Server) handleSubmitButton(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StepIndex int    `json:"step_index"`
		ActionID  string `json:"action_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := s.sessions.SubmitButton(r.Context(), r.PathValue("id"), req.StepIndex, req.ActionID)
	if err != nil {
		s.sessionError(w, err, "failed to submit answer")
		return
	}

	s.jsonResponse(w, http.StatusOK, result)
}

func (s *Server) handleSubmitText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StepIndex int    `json:"step_index"`
		ActionID  string `json:"action_id"`
		Value     string `json:"value"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := s.sessions.SubmitText(r.Context(), r.PathValue("id"), req.StepIndex, req.ActionID, req.Value)
	if err != nil {
		s.sessionError(w, err, "failed to submit answer")
		return
	}

	s.jsonResponse(w, http.StatusOK, result)
}

// Progress handlers

func (s *Server) handleBestScore(w http.ResponseWriter, r *http.Request) {
	best, err := s.sessions.BestScore(r.Context(), r.PathValue("learner"), r.PathValue("exercise"))
	if err != nil {
		if errors.Is(err, progress.ErrNotFound) {
			s.jsonError(w, http.StatusNotFound, "no recorded progress", nil)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "failed to load progress", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, best)
}

// sessionError maps session package errors to HTTP status codes
func (s *Server) sessionError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		s.jsonError(w, http.StatusNotFound, "session not found", nil)
	case errors.Is(err, session.ErrActionNotFound):
		s.jsonError(w, http.StatusNotFound, "action not found", nil)
	case errors.Is(err, session.ErrAlreadyStarted):
		s.jsonError(w, http.StatusConflict, "session already started", nil)
	case errors.Is(err, session.ErrNotActive),
		errors.Is(err, session.ErrNotStarted),
		errors.Is(err, session.ErrStepMismatch),
		errors.Is(err, session.ErrActionMismatch):
		s.jsonError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		s.jsonError(w, http.StatusInternalServerError, message, err)
	}
}

// Helper methods

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	s.jsonResponse(w, status, response)
}
