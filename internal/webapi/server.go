// Package webapi exposes a minimal HTTP API for triggering ingestion runs
// and polling their outcome.
//
// Routes:
//
//	POST /api/ingest → starts a run in the background, returns 202 + run id
//	GET  /api/runs   → run status by ?id=, as JSON
//
// Run state lives in memory only; the registry is bounded and evicts the
// oldest finished runs first.
package webapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/adraguidev/dashboardproject-sub001/internal/ingest"
)

// Config controls server startup.
type Config struct {
	Addr string

	// MaxRuns bounds the in-memory run registry. Zero means the default.
	MaxRuns int
}

const defaultMaxRuns = 64

// RunFunc executes one ingestion run to completion. Normally this is an
// ingest.Runner's Run method.
type RunFunc func(ctx context.Context, files []ingest.FileSpec) []ingest.FileResult

// Server accepts ingest requests over HTTP and tracks run outcomes.
type Server struct {
	cfg Config
	mux *http.ServeMux
	run RunFunc

	mu    sync.Mutex
	seq   int
	runs  map[string]*runRecord
	order []string
}

type runRecord struct {
	ID       string       `json:"id"`
	Status   string       `json:"status"` // "running" or "done"
	Started  time.Time    `json:"started"`
	Finished *time.Time   `json:"finished,omitempty"`
	Files    []fileStatus `json:"files"`
}

type fileStatus struct {
	Locator     string `json:"locator"`
	Table       string `json:"table"`
	State       string `json:"state"`
	Rows        int64  `json:"rows"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Error       string `json:"error,omitempty"`
}

// NewServer constructs a Server that executes runs via run.
func NewServer(cfg Config, run RunFunc) *Server {
	if cfg.MaxRuns <= 0 {
		cfg.MaxRuns = defaultMaxRuns
	}
	s := &Server{
		cfg:  cfg,
		mux:  http.NewServeMux(),
		run:  run,
		runs: map[string]*runRecord{},
	}
	s.routes()
	return s
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return http.ListenAndServe(s.cfg.Addr, s.mux)
}

// Handler exposes the route mux, mainly for tests.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) routes() {
	s.mux.HandleFunc("/api/ingest", s.handleIngest)
	s.mux.HandleFunc("/api/runs", s.handleRuns)
}

// handleIngest validates the request, registers a run and kicks it off in
// the background. The response carries only the run id; poll /api/runs for
// the outcome.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Files []ingest.FileSpec `json:"files"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Files) == 0 {
		http.Error(w, "no files in request", http.StatusBadRequest)
		return
	}
	for i, f := range req.Files {
		if f.Locator == "" || f.Table == "" {
			http.Error(w, fmt.Sprintf("files[%d]: locator and table are required", i), http.StatusBadRequest)
			return
		}
	}

	rec := s.register(req.Files)
	go s.execute(rec.ID, req.Files)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"run_id": rec.ID})
}

// handleRuns returns the record for ?id= as JSON.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	// Snapshot under the lock: execute mutates rec.Files in place, so the
	// copy handed to the encoder must not share the backing array.
	s.mu.Lock()
	rec, ok := s.runs[id]
	var out runRecord
	if ok {
		out = *rec
		out.Files = append([]fileStatus(nil), rec.Files...)
	}
	s.mu.Unlock()

	if !ok {
		http.Error(w, "unknown run id", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

// register allocates a run id and stores the initial record, evicting the
// oldest runs beyond the registry bound.
func (s *Server) register(files []ingest.FileSpec) *runRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	rec := &runRecord{
		ID:      fmt.Sprintf("run-%d-%d", time.Now().Unix(), s.seq),
		Status:  "running",
		Started: time.Now().UTC(),
		Files:   make([]fileStatus, len(files)),
	}
	for i, f := range files {
		rec.Files[i] = fileStatus{Locator: f.Locator, Table: f.Table, State: string(ingest.StatePending)}
	}
	s.runs[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	for len(s.order) > s.cfg.MaxRuns {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
	return rec
}

// execute runs the ingestion and records the terminal state. It is detached
// from the request context: an accepted run finishes even when the caller
// disconnects.
func (s *Server) execute(id string, files []ingest.FileSpec) {
	results := s.run(context.Background(), files)

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.runs[id]
	if !ok {
		// Evicted while running; nothing left to record.
		log.Printf("webapi: run %s finished after eviction", id)
		return
	}
	now := time.Now().UTC()
	rec.Status = "done"
	rec.Finished = &now
	for i, res := range results {
		if i >= len(rec.Files) {
			break
		}
		rec.Files[i].State = string(res.State)
		rec.Files[i].Rows = res.Rows
		if res.Fingerprint != 0 {
			rec.Files[i].Fingerprint = fmt.Sprintf("%016x", res.Fingerprint)
		}
		if res.Err != nil {
			rec.Files[i].Error = res.Err.Error()
		}
	}
}
