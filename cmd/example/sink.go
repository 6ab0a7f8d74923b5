package main

import (
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/nicktill/tinytrack/pkg/config"
	"github.com/nicktill/tinytrack/pkg/httpx"
	"github.com/nicktill/tinytrack/pkg/sdk/events"
)

// sink logs every batch it receives. It is a debugging aid, not an
// ingestion service: nothing is stored.
type sink struct {
	mu       sync.Mutex
	batches  int
	events   int
	sessions map[string]bool
}

func newSink() *sink {
	return &sink{sessions: make(map[string]bool)}
}

func (s *sink) router(path string) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc(path, s.handleCollect).Methods(http.MethodPost)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	return r
}

func (s *sink) handleCollect(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, config.MaxBeaconBytes+1))
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if len(body) > config.MaxBeaconBytes {
		httpx.RespondError(w, http.StatusRequestEntityTooLarge, "beacon too large")
		return
	}

	batch, err := events.DecodeBatch(body)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid JSON format")
		return
	}

	s.mu.Lock()
	s.batches++
	s.events += len(batch)
	for _, e := range batch {
		s.sessions[e.SessionID] = true
	}
	s.mu.Unlock()

	log.Printf("📥 Batch of %d events", len(batch))
	for _, e := range batch {
		log.Printf("   %-8s %-14s session=%s", e.Type, e.Page, shortID(e.SessionID))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *sink) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches
}

func (s *sink) eventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events
}

func (s *sink) sessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
