package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/veridoc/veridoc/internal/cache"
	"github.com/veridoc/veridoc/internal/extract"
	"github.com/veridoc/veridoc/internal/graph"
	"github.com/veridoc/veridoc/internal/highlight"
	"github.com/veridoc/veridoc/internal/llm"
	"github.com/veridoc/veridoc/internal/logic"
	"github.com/veridoc/veridoc/internal/model"
	"github.com/veridoc/veridoc/internal/search"
	"github.com/veridoc/veridoc/internal/verify"
)

// Pipeline orchestrates the two analysis flows: fact-checking a single
// document against web evidence, and logical cross-document analysis.
type Pipeline struct {
	fetcher   *Fetcher
	extractor *extract.ClaimExtractor
	searcher  *search.Searcher // nil when web search is disabled
	verifier  *verify.Verifier
	analyzer  *logic.Analyzer
	config    *model.Config
	runSeq    atomic.Uint64
}

// New builds a pipeline from configuration. The LLM provider and graph store
// are injected so the server and CLI can share construction and cleanup.
func New(cfg *model.Config, provider llm.Provider, graphStore graph.Store) *Pipeline {
	var searcher *search.Searcher
	if cfg.Search.Enabled {
		var resultCache cache.Cache
		if cfg.Cache.Enabled {
			resultCache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		}
		searcher = search.NewSearcher(cfg.Search, cfg.HTTP, resultCache)
	}

	return &Pipeline{
		fetcher:   NewFetcher(cfg.HTTP),
		extractor: extract.NewClaimExtractor(provider),
		searcher:  searcher,
		verifier:  verify.NewVerifier(provider),
		analyzer:  logic.NewAnalyzer(provider, graphStore),
		config:    cfg,
	}
}

// FactCheckResult is one fact-check run over a single document.
type FactCheckResult struct {
	Batch    highlight.Batch `json:"batch"`
	Segments []model.Segment `json:"segments"`
	Claims   []model.Claim   `json:"claims"`
}

// LogicalResult is one logical analysis run. Segments cover the main
// document only; the batch carries every discrepancy found across the set.
type LogicalResult struct {
	Batch         highlight.Batch     `json:"batch"`
	Segments      []model.Segment     `json:"segments"`
	Discrepancies []model.Discrepancy `json:"discrepancies"`
}

// AnalyzeFactCheck runs extract, search, verify and highlight over one
// document. Each run produces a fresh batch that replaces any prior
// fact-check batch wholesale; partial updates are never emitted.
func (p *Pipeline) AnalyzeFactCheck(ctx context.Context, docText string) (*FactCheckResult, error) {
	claims, err := p.extractor.Extract(ctx, docText)
	if err != nil {
		return nil, fmt.Errorf("extract claims: %w", err)
	}

	evidence := map[string][]model.EvidenceItem{}
	if p.searcher != nil && len(claims) > 0 {
		evidence = p.searcher.SearchAll(ctx, claims, p.config.Concurrency.SearchWorkers)
	}

	verifications, err := p.verifier.Verify(ctx, claims, evidence)
	if err != nil {
		return nil, fmt.Errorf("verify claims: %w", err)
	}

	batch := highlight.Batch{
		ID:          fmt.Sprintf("factcheck-%d", p.runSeq.Add(1)),
		Mode:        model.ModeFactCheck,
		Annotations: annotationsFromVerifications(claims, verifications),
	}

	return &FactCheckResult{
		Batch:    batch,
		Segments: highlight.Highlight(docText, batch),
		Claims:   claims,
	}, nil
}

// AnalyzeLogical runs the cross-document analyzer over the main document and
// its supporting set, then highlights the main document. Requires at least
// one supporting document.
func (p *Pipeline) AnalyzeLogical(ctx context.Context, main model.Document, supporting []model.Document) (*LogicalResult, error) {
	docs := make([]model.Document, 0, len(supporting)+1)
	docs = append(docs, main)
	docs = append(docs, supporting...)

	discrepancies, err := p.analyzer.Analyze(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("logical analysis: %w", err)
	}

	batch := highlight.Batch{
		ID:          fmt.Sprintf("logical-%d", p.runSeq.Add(1)),
		Mode:        model.ModeLogical,
		Annotations: logic.Annotations(discrepancies),
	}

	return &LogicalResult{
		Batch:         batch,
		Segments:      highlight.Highlight(main.Content, batch),
		Discrepancies: discrepancies,
	}, nil
}

// FetchDocument fetches a URL and returns it as a document with visible text
// extracted, ready for either analysis flow.
func (p *Pipeline) FetchDocument(ctx context.Context, rawURL string) (*model.Document, error) {
	fetched, err := p.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}

	text, err := extract.TextFromHTML(fetched.HTML)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	return &model.Document{
		Title:       fetched.Subject,
		Description: fetched.FinalURL,
		Content:     text,
	}, nil
}

// annotationsFromVerifications joins verification results back to their
// claims by ID, preserving result order. Verifications without a matching
// claim are dropped.
func annotationsFromVerifications(claims []model.Claim, verifications []model.Verification) []model.Annotation {
	byID := make(map[string]model.Claim, len(claims))
	for _, c := range claims {
		byID[c.ID] = c
	}

	annotations := make([]model.Annotation, 0, len(verifications))
	for _, v := range verifications {
		claim, ok := byID[v.ID]
		if !ok {
			continue
		}
		annotations = append(annotations, model.Annotation{
			ID:               v.ID,
			Snippet:          claim.Text,
			Verdict:          v.Verdict,
			Suggestion:       v.Suggestion,
			Correction:       v.Correction,
			CorrectionSource: v.CorrectionSource,
			Evidence:         v.Evidence,
		})
	}
	return annotations
}
