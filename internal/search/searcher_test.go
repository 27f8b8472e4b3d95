package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/veridoc/veridoc/internal/cache"
	"github.com/veridoc/veridoc/internal/model"
)

const resultsPage = `
<html><body>
<div class="result">
  <a class="result__a" href="/l/?uddg=https%3A%2F%2Fexample.org%2Fcapital">Capital of Germany</a>
  <div class="result__snippet">Berlin is the capital of Germany.</div>
</div>
<div class="result">
  <a class="result__a" href="https://example.org/plain">Plain link</a>
  <div class="result__snippet">Another snippet.</div>
</div>
<div class="result">
  <a class="result__a" href="https://example.org/three">Three</a>
  <div class="result__snippet">Third snippet.</div>
</div>
</body></html>`

func newTestSearcher(serverURL string, resultCache cache.Cache) *Searcher {
	return NewSearcher(
		model.SearchConfig{
			Endpoint:      serverURL + "/html/?q=%s",
			MaxResults:    2,
			PerDomainRate: 100,
			Burst:         10,
		},
		model.HTTPConfig{
			Timeout:      5 * time.Second,
			UserAgent:    "veridoc-test",
			MaxBodyBytes: 1 << 20,
		},
		resultCache,
	)
}

func TestSearcher_ParsesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("q"); got != "capital of Germany" {
			t.Errorf("Unexpected query: %q", got)
		}
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer server.Close()

	s := newTestSearcher(server.URL, nil)

	items, err := s.Search(context.Background(), "capital of Germany")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("Expected maxResults=2 items, got %d", len(items))
	}
	if items[0].SourceURL != "https://example.org/capital" {
		t.Errorf("Redirect link not unwrapped: %s", items[0].SourceURL)
	}
	if items[0].Snippet != "Berlin is the capital of Germany." {
		t.Errorf("Unexpected snippet: %q", items[0].Snippet)
	}
	if items[1].SourceURL != "https://example.org/plain" {
		t.Errorf("Unexpected second URL: %s", items[1].SourceURL)
	}
}

func TestSearcher_EmptyQuery(t *testing.T) {
	s := newTestSearcher("http://localhost:1", nil)

	items, err := s.Search(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Empty query should not error, got %v", err)
	}
	if items != nil {
		t.Errorf("Expected no items, got %v", items)
	}
}

func TestSearcher_CachesResults(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		hits++
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer server.Close()

	s := newTestSearcher(server.URL, cache.NewMemoryCache(time.Minute, time.Minute))

	for i := 0; i < 3; i++ {
		items, err := s.Search(context.Background(), "repeat query")
		if err != nil {
			t.Fatalf("Search %d failed: %v", i, err)
		}
		if len(items) == 0 {
			t.Fatalf("Search %d returned no items", i)
		}
	}

	if hits != 1 {
		t.Errorf("Expected 1 upstream hit with caching, got %d", hits)
	}
}

func TestSearcher_SearchAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer server.Close()

	s := newTestSearcher(server.URL, nil)

	claims := []model.Claim{
		{ID: "c1", SearchQuery: "query one"},
		{ID: "c2", SearchQuery: "query two"},
		{ID: "c3", SearchQuery: ""}, // no query, no evidence
	}

	evidence := s.SearchAll(context.Background(), claims, 2)

	if len(evidence["c1"]) == 0 || len(evidence["c2"]) == 0 {
		t.Errorf("Expected evidence for c1 and c2, got %v", evidence)
	}
	if _, ok := evidence["c3"]; ok {
		t.Error("Claim without query should produce no evidence entry")
	}
}
