package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/mux"

	"github.com/veridoc/veridoc/internal/graph"
	"github.com/veridoc/veridoc/internal/highlight"
	"github.com/veridoc/veridoc/internal/model"
	"github.com/veridoc/veridoc/internal/pipeline"
	"github.com/veridoc/veridoc/internal/store"
)

// runState is the outcome of the most recent analysis run for one mode.
// A new run replaces it wholesale.
type runState struct {
	DocumentID int64           `json:"document_id,omitempty"`
	Batch      highlight.Batch `json:"batch"`
	Segments   []model.Segment `json:"segments"`
}

// Server exposes the document store and analysis pipeline over HTTP.
// Annotation state lives in memory: the current batch per mode and a single
// selection, guarded by one mutex since handler work outside the pipeline
// runs are cheap.
type Server struct {
	cfg    *model.Config
	store  store.Store
	graph  graph.Store
	pipe   *pipeline.Pipeline
	logger *log.Logger
	router *mux.Router

	mu        sync.Mutex
	factcheck *runState
	logical   *runState
	lastMode  model.Mode
	selection highlight.Selection
}

// New creates a server and wires up its routes
func New(cfg *model.Config, docStore store.Store, graphStore graph.Store, pipe *pipeline.Pipeline) *Server {
	s := &Server{
		cfg:    cfg,
		store:  docStore,
		graph:  graphStore,
		pipe:   pipe,
		logger: log.New(os.Stderr, "veridoc: ", log.LstdFlags),
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleHealth).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/documents", s.handleCreateDocument).Methods("POST")
	api.HandleFunc("/documents", s.handleListDocuments).Methods("GET")
	api.HandleFunc("/documents/{id:[0-9]+}", s.handleGetDocument).Methods("GET")
	api.HandleFunc("/analyze/factcheck", s.handleAnalyzeFactCheck).Methods("POST")
	api.HandleFunc("/analyze/logical", s.handleAnalyzeLogical).Methods("POST")
	api.HandleFunc("/segments", s.handleGetSegments).Methods("GET")
	api.HandleFunc("/contradictions/{id}", s.handleGetContradictions).Methods("GET")
	api.HandleFunc("/selection", s.handleSelect).Methods("POST")
	api.HandleFunc("/selection", s.handleGetSelection).Methods("GET")
	api.HandleFunc("/selection", s.handleDismissSelection).Methods("DELETE")

	s.router = r
	return s
}

// Handler returns the server's HTTP handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// setRun installs a fresh analysis result for its mode. Replacing a batch
// invalidates whatever was selected.
func (s *Server) setRun(mode model.Mode, state *runState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch mode {
	case model.ModeFactCheck:
		s.factcheck = state
	case model.ModeLogical:
		s.logical = state
	}
	s.lastMode = mode
	s.selection.Reset(state.Batch.ID)
}

// currentRun returns the stored run for a mode, or nil if that mode has not
// been analyzed yet. An empty mode means the most recently run one.
func (s *Server) currentRun(mode model.Mode) (*runState, model.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mode == "" {
		mode = s.lastMode
	}
	switch mode {
	case model.ModeFactCheck:
		return s.factcheck, mode
	case model.ModeLogical:
		return s.logical, mode
	}
	return nil, mode
}
