// Package api serves read-only diagnostics over HTTP while a session runs.
// It observes snapshots published between trials and never drives or
// mutates the experiment state machine.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gostair/app"
)

// SnapshotSource yields the latest between-trials diagnostics view
type SnapshotSource interface {
	Snapshot() *app.Snapshot
}

// Server exposes session diagnostics
type Server struct {
	router *chi.Mux
	source SnapshotSource
	poller *InputPoller
}

// NewServer builds the diagnostics router. poller may be nil when input
// observation is disabled.
func NewServer(source SnapshotSource, poller *InputPoller) *Server {
	s := &Server{
		router: chi.NewRouter(),
		source: source,
		poller: poller,
	}
	s.router.Use(middleware.Recoverer)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/session", s.handleSession)
	s.router.Get("/staircase", s.handleStaircase)
	s.router.Get("/inputs", s.handleInputs)
	return s
}

// Handler returns the http handler for mounting
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Snapshot()
	if snap == nil {
		http.Error(w, "no session", http.StatusNotFound)
		return
	}
	writeJSON(w, snap)
}

func (s *Server) handleStaircase(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Snapshot()
	if snap == nil || snap.Staircase == nil {
		http.Error(w, "staircase not initialized", http.StatusNotFound)
		return
	}
	writeJSON(w, snap.Staircase)
}

func (s *Server) handleInputs(w http.ResponseWriter, r *http.Request) {
	if s.poller == nil {
		http.Error(w, "input observation disabled", http.StatusNotFound)
		return
	}
	writeJSON(w, s.poller.Levels())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
