package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/veridoc/veridoc/internal/cache"
	"github.com/veridoc/veridoc/internal/model"
	"github.com/veridoc/veridoc/internal/util"
	"github.com/veridoc/veridoc/internal/worker"
)

// Searcher finds web evidence for claim search queries. It fetches an
// HTML search frontend, so it honors robots.txt and rate-limits per domain
// like any other crawler.
type Searcher struct {
	httpClient *http.Client
	endpoint   string // %s is replaced by the escaped query
	maxResults int
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
	cache      cache.Cache // nil disables caching
}

// NewSearcher creates a searcher. resultCache may be nil.
func NewSearcher(cfg model.SearchConfig, httpCfg model.HTTPConfig, resultCache cache.Cache) *Searcher {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	return &Searcher{
		httpClient: util.NewHTTPClient(httpCfg),
		endpoint:   cfg.Endpoint,
		maxResults: maxResults,
		userAgent:  httpCfg.UserAgent,
		maxBytes:   httpCfg.MaxBodyBytes,
		robots:     util.NewRobotsChecker(httpCfg.UserAgent, httpCfg.Timeout),
		limiter:    worker.NewLimiter(cfg.PerDomainRate, cfg.Burst),
		cache:      resultCache,
	}
}

// Search runs one evidence query and returns up to maxResults items.
// Results are cached by query hash.
func (s *Searcher) Search(ctx context.Context, query string) ([]model.EvidenceItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	key := cache.Key("search:" + query)
	if s.cache != nil {
		if data, found := s.cache.Get(key); found {
			var items []model.EvidenceItem
			if err := json.Unmarshal(data, &items); err == nil {
				return items, nil
			}
		}
	}

	searchURL := fmt.Sprintf(s.endpoint, url.QueryEscape(query))

	allowed, crawlDelay, err := s.robots.CanFetch(ctx, searchURL)
	if err == nil && !allowed {
		return nil, fmt.Errorf("search endpoint disallows fetching: %s", searchURL)
	}

	if err := s.limiter.WaitWithDelay(ctx, searchURL, crawlDelay); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	items, err := s.fetchResults(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && len(items) > 0 {
		if data, err := json.Marshal(items); err == nil {
			_ = s.cache.Set(key, data, 0)
		}
	}

	return items, nil
}

func (s *Searcher) fetchResults(ctx context.Context, searchURL string) ([]model.EvidenceItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected search status: %d", resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, s.maxBytes)
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}

	var items []model.EvidenceItem
	doc.Find(".result").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		href, ok := sel.Find("a.result__a").Attr("href")
		if !ok {
			return true
		}
		snippet := strings.TrimSpace(sel.Find(".result__snippet").Text())
		if snippet == "" {
			snippet = strings.TrimSpace(sel.Find("a.result__a").Text())
		}
		if snippet == "" {
			return true
		}
		items = append(items, model.EvidenceItem{
			Snippet:   snippet,
			SourceURL: resolveResultURL(href),
		})
		return len(items) < s.maxResults
	})

	return items, nil
}

// resolveResultURL unwraps search-frontend redirect links. DuckDuckGo's HTML
// frontend wraps target URLs in /l/?uddg=<escaped target>.
func resolveResultURL(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		if unescaped, err := url.QueryUnescape(target); err == nil {
			return unescaped
		}
		return target
	}
	if parsed.Scheme == "" {
		// Relative redirect link with no uddg param; keep the raw href
		return href
	}
	return href
}

// SearchAll runs queries for a set of claims with bounded concurrency,
// returning evidence keyed by claim ID. Individual query failures are
// recorded but do not abort the batch.
func (s *Searcher) SearchAll(ctx context.Context, claims []model.Claim, workers int) map[string][]model.EvidenceItem {
	if workers <= 0 {
		workers = 4
	}

	type result struct {
		id    string
		items []model.EvidenceItem
	}

	sem := make(chan struct{}, workers)
	results := make(chan result, len(claims))

	for _, c := range claims {
		go func(c model.Claim) {
			select {
			case <-ctx.Done():
				results <- result{id: c.ID}
				return
			case sem <- struct{}{}:
			}
			defer func() { <-sem }()

			items, err := s.Search(ctx, c.SearchQuery)
			if err != nil {
				results <- result{id: c.ID}
				return
			}
			results <- result{id: c.ID, items: items}
		}(c)
	}

	evidence := make(map[string][]model.EvidenceItem, len(claims))
	for range claims {
		select {
		case r := <-results:
			if len(r.items) > 0 {
				evidence[r.id] = r.items
			}
		case <-time.After(5 * time.Minute):
			return evidence
		}
	}

	return evidence
}
