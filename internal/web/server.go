// Package web exposes the hook endpoint that turns registry mutation
// events into generate-and-sync runs.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/schemacat/schemacat/internal/extract"
	"github.com/schemacat/schemacat/internal/registry"
	"github.com/schemacat/schemacat/internal/syncer"
)

// Runner executes a generate-and-sync cycle for a scope. The app
// satisfies this; tests substitute a stub.
type Runner interface {
	RunScope(ctx context.Context, scope extract.Scope) (*syncer.Report, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, scope extract.Scope) (*syncer.Report, error)

// RunScope implements Runner.
func (f RunnerFunc) RunScope(ctx context.Context, scope extract.Scope) (*syncer.Report, error) {
	return f(ctx, scope)
}

// Server handles registry change hooks.
type Server struct {
	runner Runner
	logger *zap.Logger
	router chi.Router
}

// NewServer creates the hook server.
func NewServer(runner Runner, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{runner: runner, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Post("/hooks/type-changed", s.handleTypeChanged)
	s.router = r

	return s
}

// Handler returns the HTTP handler, for mounting or testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks serving hooks until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("hook server listening", zap.String("addr", addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// typeChangedEvent is the payload the registry posts on type mutation.
type typeChangedEvent struct {
	Type   string `json:"type,omitempty"`
	Module string `json:"module,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleTypeChanged resolves the event into a scope and runs a
// generate-and-sync cycle. An event naming neither type nor module
// regenerates everything.
func (s *Server) handleTypeChanged(w http.ResponseWriter, r *http.Request) {
	var event typeChangedEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		s.renderError(w, http.StatusBadRequest, "invalid event payload")
		return
	}

	scope := extract.All()
	switch {
	case event.Type != "":
		scope = extract.SingleType(event.Type)
	case event.Module != "":
		scope = extract.Module(event.Module)
	}

	s.logger.Info("registry change hook received",
		zap.String("scope", scope.String()))

	report, err := s.runner.RunScope(r.Context(), scope)
	if err != nil {
		s.logger.Error("hook-triggered run failed",
			zap.String("scope", scope.String()),
			zap.Error(err))
		status := http.StatusBadGateway
		if registry.IsNotFound(err) {
			status = http.StatusNotFound
		}
		s.renderError(w, status, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(report)
}

func (s *Server) renderError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
