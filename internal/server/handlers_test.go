package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/veridoc/veridoc/internal/graph"
	"github.com/veridoc/veridoc/internal/llm"
	"github.com/veridoc/veridoc/internal/model"
	"github.com/veridoc/veridoc/internal/pipeline"
	"github.com/veridoc/veridoc/internal/store"
)

// scriptedProvider returns canned responses keyed by prompt substring
type scriptedProvider struct {
	responses map[string]string
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	for key, text := range p.responses {
		if strings.Contains(req.Prompt, key) {
			return &llm.CompletionResponse{Text: text}, nil
		}
	}
	return nil, fmt.Errorf("no scripted response for prompt: %.60s", req.Prompt)
}

func (p *scriptedProvider) IsAvailable(_ context.Context) bool { return true }

func newTestServer(provider llm.Provider) *Server {
	cfg := model.DefaultConfig()
	cfg.Search.Enabled = false
	cfg.Cache.Enabled = false
	graphStore := graph.NewMemoryStore()
	pipe := pipeline.New(cfg, provider, graphStore)
	return New(cfg, store.NewMemoryStore(), graphStore, pipe)
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(nil)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload["status"] != "ok" {
		t.Errorf("Unexpected status payload: %v", payload)
	}
}

func TestCreateDocument_Validation(t *testing.T) {
	s := newTestServer(nil)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/documents", map[string]string{
		"description": "no title", "content": "text",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Missing title: expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, s.Handler(), http.MethodPost, "/api/documents", map[string]string{
		"title": "no content",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Missing content: expected 400, got %d", rec.Code)
	}
}

func TestDocumentLifecycle(t *testing.T) {
	s := newTestServer(nil)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/documents", map[string]string{
		"title": "Report", "description": "quarterly", "content": "Sales grew 10%.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var doc model.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.ID == 0 {
		t.Fatal("Expected assigned document ID")
	}

	rec = doJSON(t, s.Handler(), http.MethodGet, fmt.Sprintf("/api/documents/%d", doc.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Get: expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/documents/9999", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Get missing: expected 404, got %d", rec.Code)
	}

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/documents", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("List: expected 200, got %d", rec.Code)
	}
	var docs []model.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &docs); err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Errorf("Expected 1 document, got %d", len(docs))
	}
}

func TestAnalyzeFactCheckAndSelection(t *testing.T) {
	provider := &scriptedProvider{responses: map[string]string{
		"Extract every checkable factual claim": `[{"id": "c1", "claimText": "Paris is the capital of Germany.", "searchQuery": "capital of Germany"}]`,
		"Paris is the capital of Germany.\n\nEvidence": `{"verdict": "contradicted", "suggestion": "Wrong country.", "correction": "Paris is the capital of France."}`,
	}}
	s := newTestServer(provider)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/analyze/factcheck", map[string]string{
		"content": "Paris is the capital of Germany. It is a large city.",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Analyze: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var state runState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatal(err)
	}
	if len(state.Batch.Annotations) != 1 {
		t.Fatalf("Expected 1 annotation, got %d", len(state.Batch.Annotations))
	}
	if len(state.Segments) != 2 {
		t.Errorf("Expected 2 segments, got %d", len(state.Segments))
	}

	// Select the annotation
	rec = doJSON(t, s.Handler(), http.MethodPost, "/api/selection", map[string]string{
		"annotation_id": "c1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Select: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/selection", nil)
	var sel struct {
		Selected *model.Annotation `json:"selected"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sel); err != nil {
		t.Fatal(err)
	}
	if sel.Selected == nil || sel.Selected.ID != "c1" {
		t.Fatalf("Expected c1 selected, got %+v", sel.Selected)
	}

	// Unknown annotation is rejected
	rec = doJSON(t, s.Handler(), http.MethodPost, "/api/selection", map[string]string{
		"annotation_id": "nope",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("Select unknown: expected 404, got %d", rec.Code)
	}

	// Dismiss clears it
	rec = doJSON(t, s.Handler(), http.MethodDelete, "/api/selection", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Dismiss: expected 204, got %d", rec.Code)
	}
	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/selection", nil)
	sel.Selected = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &sel); err != nil {
		t.Fatal(err)
	}
	if sel.Selected != nil {
		t.Error("Expected empty selection after dismiss")
	}
}

func TestReanalyzeClearsSelection(t *testing.T) {
	provider := &scriptedProvider{responses: map[string]string{
		"Extract every checkable factual claim": `[{"id": "c1", "claimText": "Water boils at 50C.", "searchQuery": "boiling point"}]`,
		"Water boils at 50C.\n\nEvidence":       `{"verdict": "contradicted", "suggestion": "Water boils at 100C at sea level."}`,
	}}
	s := newTestServer(provider)

	doc := map[string]string{"content": "Water boils at 50C."}
	if rec := doJSON(t, s.Handler(), http.MethodPost, "/api/analyze/factcheck", doc); rec.Code != http.StatusOK {
		t.Fatalf("First analyze failed: %d", rec.Code)
	}
	if rec := doJSON(t, s.Handler(), http.MethodPost, "/api/selection", map[string]string{"annotation_id": "c1"}); rec.Code != http.StatusOK {
		t.Fatalf("Select failed: %d", rec.Code)
	}

	// A new run replaces the batch and must drop the selection
	if rec := doJSON(t, s.Handler(), http.MethodPost, "/api/analyze/factcheck", doc); rec.Code != http.StatusOK {
		t.Fatalf("Second analyze failed: %d", rec.Code)
	}
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/selection", nil)
	var sel struct {
		Selected *model.Annotation `json:"selected"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sel); err != nil {
		t.Fatal(err)
	}
	if sel.Selected != nil {
		t.Error("Selection should not survive a batch replacement")
	}
}

func TestGetSegments(t *testing.T) {
	provider := &scriptedProvider{responses: map[string]string{
		"Extract every checkable factual claim": `[]`,
	}}
	s := newTestServer(provider)

	// Nothing analyzed yet
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/segments?mode=factcheck", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 before any run, got %d", rec.Code)
	}

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/segments?mode=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad mode, got %d", rec.Code)
	}

	if rec := doJSON(t, s.Handler(), http.MethodPost, "/api/analyze/factcheck", map[string]string{"content": "Plain text."}); rec.Code != http.StatusOK {
		t.Fatalf("Analyze failed: %d", rec.Code)
	}

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/segments?mode=factcheck", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var payload struct {
		Mode     model.Mode      `json:"mode"`
		Segments []model.Segment `json:"segments"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Mode != model.ModeFactCheck {
		t.Errorf("Mode = %q, want factcheck", payload.Mode)
	}
	if len(payload.Segments) != 1 || payload.Segments[0].IsHighlight() {
		t.Errorf("Expected a single plain segment, got %+v", payload.Segments)
	}

	// The logical mode has not been run
	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/segments?mode=logical", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for un-run mode, got %d", rec.Code)
	}
}

func TestAnalyzeLogical_RequiresTwoDocuments(t *testing.T) {
	s := newTestServer(nil)
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/analyze/logical", map[string]any{
		"document_ids": []int64{1},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestAnalyzeFactCheck_MissingInput(t *testing.T) {
	s := newTestServer(nil)
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/analyze/factcheck", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestAnalyzeFactCheck_NoProvider(t *testing.T) {
	s := newTestServer(nil)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/analyze/factcheck", map[string]string{
		"content": "The croissant originated in Austria.",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 without a provider, got %d: %s", rec.Code, rec.Body.String())
	}

	var state runState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatal(err)
	}
	if len(state.Batch.Annotations) != 0 {
		t.Errorf("Expected no annotations without a provider, got %d", len(state.Batch.Annotations))
	}
}

func TestGetContradictions(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Search.Enabled = false
	cfg.Cache.Enabled = false
	graphStore := graph.NewMemoryStore()
	s := New(cfg, store.NewMemoryStore(), graphStore, pipeline.New(cfg, nil, graphStore))

	ctx := context.Background()
	for _, p := range []model.Proposition{
		{ID: "d1-p1", Text: "The bridge opened in 1990.", DocTitle: "Report A"},
		{ID: "d2-p1", Text: "The bridge opened in 1985.", DocTitle: "Report B"},
	} {
		if err := graphStore.UpsertProposition(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	if err := graphStore.LinkContradiction(ctx, "d1-p1", "d2-p1", "conflicting opening years"); err != nil {
		t.Fatal(err)
	}

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/contradictions/d1-p1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		PropositionID  string                `json:"proposition_id"`
		Contradictions []model.Contradiction `json:"contradictions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if len(payload.Contradictions) != 1 || payload.Contradictions[0].PropositionID != "d2-p1" {
		t.Errorf("Unexpected contradictions: %+v", payload.Contradictions)
	}

	// Unknown propositions yield an empty list, not an error.
	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/contradictions/nope", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for unknown proposition, got %d", rec.Code)
	}
	var empty struct {
		Contradictions []model.Contradiction `json:"contradictions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &empty); err != nil {
		t.Fatal(err)
	}
	if len(empty.Contradictions) != 0 {
		t.Errorf("Expected no contradictions, got %+v", empty.Contradictions)
	}
}
