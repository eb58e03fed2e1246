package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gostair/adapters/db"
	"gostair/domain/core"
)

// StoreServer serves recorded sessions from the trial store, read-only
type StoreServer struct {
	router *chi.Mux
	store  *db.Store
}

func NewStoreServer(store *db.Store) *StoreServer {
	s := &StoreServer{
		router: chi.NewRouter(),
		store:  store,
	}
	s.router.Use(middleware.Recoverer)
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})
	s.router.Get("/sessions/{id}/trials", s.handleTrials)
	s.router.Get("/sessions/{id}/summary", s.handleSummary)
	return s
}

// Handler returns the http handler for mounting
func (s *StoreServer) Handler() http.Handler {
	return s.router
}

func (s *StoreServer) handleTrials(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseSessionID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	records, err := s.store.ListTrials(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(records) == 0 {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, records)
}

func (s *StoreServer) handleSummary(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseSessionID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	summaries, err := s.store.ListSummaries(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(summaries) == 0 {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, summaries)
}
