package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/veridoc/veridoc/internal/model"
	"github.com/veridoc/veridoc/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "veridoc",
	})
}

type createDocumentRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if strings.TrimSpace(req.Title) == "" {
		respondWithError(w, http.StatusBadRequest, "title is required")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respondWithError(w, http.StatusBadRequest, "content is required")
		return
	}

	doc, err := s.store.Create(r.Context(), req.Title, req.Description, req.Content)
	if err != nil {
		s.logger.Printf("create document: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to store document")
		return
	}

	respondWithJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid document id")
		return
	}

	doc, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Document not found")
			return
		}
		s.logger.Printf("get document %d: %v", id, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to load document")
		return
	}

	respondWithJSON(w, http.StatusOK, doc)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Printf("list documents: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}
	if docs == nil {
		docs = []model.Document{}
	}
	respondWithJSON(w, http.StatusOK, docs)
}

type analyzeFactCheckRequest struct {
	DocumentID int64  `json:"document_id,omitempty"`
	Content    string `json:"content,omitempty"`
	URL        string `json:"url,omitempty"`
}

func (s *Server) handleAnalyzeFactCheck(w http.ResponseWriter, r *http.Request) {
	var req analyzeFactCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	var content string
	switch {
	case req.DocumentID != 0:
		doc, err := s.store.Get(r.Context(), req.DocumentID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondWithError(w, http.StatusNotFound, "Document not found")
				return
			}
			s.logger.Printf("get document %d: %v", req.DocumentID, err)
			respondWithError(w, http.StatusInternalServerError, "Failed to load document")
			return
		}
		content = doc.Content
	case req.Content != "":
		content = req.Content
	case req.URL != "":
		doc, err := s.pipe.FetchDocument(r.Context(), req.URL)
		if err != nil {
			s.logger.Printf("fetch %s: %v", req.URL, err)
			respondWithError(w, http.StatusBadGateway, "Failed to fetch URL")
			return
		}
		content = doc.Content
	default:
		respondWithError(w, http.StatusBadRequest, "document_id, content or url is required")
		return
	}

	result, err := s.pipe.AnalyzeFactCheck(r.Context(), content)
	if err != nil {
		s.logger.Printf("factcheck analysis: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Analysis failed")
		return
	}

	state := &runState{
		DocumentID: req.DocumentID,
		Batch:      result.Batch,
		Segments:   result.Segments,
	}
	s.setRun(model.ModeFactCheck, state)

	respondWithJSON(w, http.StatusOK, state)
}

type analyzeLogicalRequest struct {
	DocumentIDs []int64 `json:"document_ids"`
}

func (s *Server) handleAnalyzeLogical(w http.ResponseWriter, r *http.Request) {
	var req analyzeLogicalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if len(req.DocumentIDs) < 2 {
		respondWithError(w, http.StatusBadRequest, "at least 2 document_ids are required")
		return
	}

	docs := make([]model.Document, 0, len(req.DocumentIDs))
	for _, id := range req.DocumentIDs {
		doc, err := s.store.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondWithError(w, http.StatusNotFound, "Document not found")
				return
			}
			s.logger.Printf("get document %d: %v", id, err)
			respondWithError(w, http.StatusInternalServerError, "Failed to load document")
			return
		}
		docs = append(docs, *doc)
	}

	result, err := s.pipe.AnalyzeLogical(r.Context(), docs[0], docs[1:])
	if err != nil {
		s.logger.Printf("logical analysis: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Analysis failed")
		return
	}

	state := &runState{
		DocumentID: req.DocumentIDs[0],
		Batch:      result.Batch,
		Segments:   result.Segments,
	}
	s.setRun(model.ModeLogical, state)

	respondWithJSON(w, http.StatusOK, map[string]any{
		"batch":         state.Batch,
		"segments":      state.Segments,
		"discrepancies": result.Discrepancies,
	})
}

func (s *Server) handleGetSegments(w http.ResponseWriter, r *http.Request) {
	mode := model.Mode(r.URL.Query().Get("mode"))
	if mode != "" && mode != model.ModeFactCheck && mode != model.ModeLogical {
		respondWithError(w, http.StatusBadRequest, "mode must be factcheck or logical")
		return
	}

	state, resolved := s.currentRun(mode)
	if state == nil {
		respondWithError(w, http.StatusNotFound, "No analysis has been run for this mode")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"mode":     resolved,
		"batch_id": state.Batch.ID,
		"segments": state.Segments,
	})
}

// handleGetContradictions looks up the propositions directly linked to one
// proposition in the knowledge graph, independent of any render batch.
func (s *Server) handleGetContradictions(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	contradictions, err := s.graph.Contradictions(r.Context(), id)
	if err != nil {
		s.logger.Printf("graph lookup %s: %v", id, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to query the graph")
		return
	}
	if contradictions == nil {
		contradictions = []model.Contradiction{}
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"proposition_id": id,
		"contradictions": contradictions,
	})
}

type selectRequest struct {
	AnnotationID string     `json:"annotation_id"`
	Mode         model.Mode `json:"mode,omitempty"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.AnnotationID == "" {
		respondWithError(w, http.StatusBadRequest, "annotation_id is required")
		return
	}

	state, _ := s.currentRun(req.Mode)
	if state == nil {
		respondWithError(w, http.StatusNotFound, "No analysis has been run for this mode")
		return
	}

	s.mu.Lock()
	ok := s.selection.Select(state.Batch, req.AnnotationID)
	current := s.selection.Current()
	s.mu.Unlock()

	if !ok {
		respondWithError(w, http.StatusNotFound, "Annotation not found in current batch")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"batch_id": state.Batch.ID,
		"selected": current,
	})
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	current := s.selection.Current()
	batchID := s.selection.BatchID()
	s.mu.Unlock()

	respondWithJSON(w, http.StatusOK, map[string]any{
		"batch_id": batchID,
		"selected": current,
	})
}

func (s *Server) handleDismissSelection(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.selection.Dismiss()
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
