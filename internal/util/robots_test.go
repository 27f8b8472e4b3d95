package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRobotsChecker_DisallowedPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "User-agent: *\nDisallow: /private/\n")
	}))
	defer server.Close()

	checker := NewRobotsChecker("veridoc-test", 5*time.Second)
	ctx := context.Background()

	allowed, _, err := checker.CanFetch(ctx, server.URL+"/private/report")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if allowed {
		t.Error("path under Disallow must not be fetchable")
	}

	allowed, _, err = checker.CanFetch(ctx, server.URL+"/public/report")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if !allowed {
		t.Error("path outside Disallow must be fetchable")
	}
}

func TestRobotsChecker_CrawlDelay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nCrawl-delay: 2\n")
	}))
	defer server.Close()

	checker := NewRobotsChecker("veridoc-test", 5*time.Second)
	_, delay, err := checker.CanFetch(context.Background(), server.URL+"/anything")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if delay != 2*time.Second {
		t.Errorf("crawl delay = %v, want 2s", delay)
	}
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	checker := NewRobotsChecker("veridoc-test", 5*time.Second)
	allowed, _, err := checker.CanFetch(context.Background(), server.URL+"/page")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if !allowed {
		t.Error("missing robots.txt must allow fetching")
	}
}

func TestRobotsChecker_CachesPerHost(t *testing.T) {
	var fetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		fmt.Fprint(w, "User-agent: *\nDisallow:\n")
	}))
	defer server.Close()

	checker := NewRobotsChecker("veridoc-test", 5*time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, _, err := checker.CanFetch(ctx, server.URL+fmt.Sprintf("/page-%d", i)); err != nil {
			t.Fatalf("CanFetch failed: %v", err)
		}
	}
	if got := fetches.Load(); got != 1 {
		t.Errorf("robots.txt fetched %d times, want 1", got)
	}

	checker.Clear()
	if _, _, err := checker.CanFetch(ctx, server.URL+"/page"); err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if got := fetches.Load(); got != 2 {
		t.Errorf("robots.txt fetched %d times after Clear, want 2", got)
	}
}

func TestHostExcluded(t *testing.T) {
	tests := []struct {
		host    string
		noProxy string
		want    bool
	}{
		{"example.com", "", false},
		{"example.com", "example.com", true},
		{"sub.example.com", "example.com", true},
		{"sub.example.com", ".example.com", true},
		{"notexample.com", "example.com", false},
		{"example.com", "other.org, example.com", true},
	}

	for _, tt := range tests {
		if got := hostExcluded(tt.host, tt.noProxy); got != tt.want {
			t.Errorf("hostExcluded(%q, %q) = %v, want %v", tt.host, tt.noProxy, got, tt.want)
		}
	}
}
