package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/veridoc/veridoc/internal/llm"
	"github.com/veridoc/veridoc/internal/model"
)

const extractSystemPrompt = `You extract checkable factual claims from documents. ` +
	`Respond only with JSON, no prose.`

// ClaimExtractor extracts factual claims from document text. With an LLM
// provider configured it asks the model for claims; without one it falls
// back to keyword heuristics.
type ClaimExtractor struct {
	provider llm.Provider
	keywords []string
}

// NewClaimExtractor creates a claim extractor. provider may be nil.
func NewClaimExtractor(provider llm.Provider) *ClaimExtractor {
	return &ClaimExtractor{
		provider: provider,
		keywords: []string{
			"originated", "origin", "first", "introduced", "invented",
			"according to", "is defined as", "is legally", "under the law",
			"established", "founded", "created", "discovered", "developed",
			"grew", "increased", "decreased", "capital of", "largest", "smallest",
		},
	}
}

// llmClaim is the wire shape the model is asked to produce. The start/end
// offsets are carried through but never trusted for highlight placement:
// model-reported offsets are unreliable, so verbatim substring re-location
// downstream is the source of truth.
type llmClaim struct {
	ID          string `json:"id"`
	ClaimText   string `json:"claimText"`
	StartChar   int    `json:"startChar"`
	EndChar     int    `json:"endChar"`
	SearchQuery string `json:"searchQuery"`
}

// Extract extracts claims from plain document text
func (e *ClaimExtractor) Extract(ctx context.Context, docText string) ([]model.Claim, error) {
	if e.provider == nil {
		return e.extractHeuristic(docText), nil
	}
	return e.extractLLM(ctx, docText)
}

func (e *ClaimExtractor) extractLLM(ctx context.Context, docText string) ([]model.Claim, error) {
	prompt := fmt.Sprintf(`Extract every checkable factual claim from the document below.

Rules:
1. claimText MUST be copied verbatim from the document, character for character.
2. Give each claim a short unique id ("c1", "c2", ...).
3. startChar/endChar are your best guess at the claim's character offsets.
4. searchQuery is a short web search query that would surface evidence for the claim.
5. Skip opinions, questions, and instructions; only factual assertions.

Respond with a JSON array:
[{"id": "c1", "claimText": "...", "startChar": 0, "endChar": 0, "searchQuery": "..."}]

Document:
%s`, docText)

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		System:      extractSystemPrompt,
		Prompt:      prompt,
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("claim extraction: %w", err)
	}

	var raw []llmClaim
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Text)), &raw); err != nil {
		return nil, fmt.Errorf("parse claim extraction response: %w", err)
	}

	claims := make([]model.Claim, 0, len(raw))
	for i, c := range raw {
		if strings.TrimSpace(c.ClaimText) == "" {
			continue
		}
		id := c.ID
		if id == "" {
			id = fmt.Sprintf("c%d", i+1)
		}
		query := c.SearchQuery
		if query == "" {
			query = c.ClaimText
		}
		claims = append(claims, model.Claim{
			ID:          id,
			Text:        c.ClaimText,
			StartChar:   c.StartChar,
			EndChar:     c.EndChar,
			SearchQuery: query,
		})
	}

	return dedupeClaims(claims), nil
}

// extractHeuristic extracts claims by keyword matching over sentences
func (e *ClaimExtractor) extractHeuristic(docText string) []model.Claim {
	sentences := Sentences(docText)

	var claims []model.Claim
	for _, sentence := range sentences {
		lower := strings.ToLower(sentence)
		for _, keyword := range e.keywords {
			if strings.Contains(lower, keyword) {
				claims = append(claims, model.Claim{
					ID:          fmt.Sprintf("c%d", len(claims)+1),
					Text:        sentence,
					SearchQuery: sentence,
					Heuristic:   "keyword:" + keyword,
				})
				break // Only match once per sentence
			}
		}
	}

	return dedupeClaims(claims)
}

// stripCodeFence removes a surrounding markdown code fence, which chat models
// add around JSON output despite instructions not to
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// dedupeClaims removes duplicate claims
func dedupeClaims(claims []model.Claim) []model.Claim {
	seen := make(map[string]bool)
	var unique []model.Claim

	for _, claim := range claims {
		key := strings.ToLower(strings.TrimSpace(claim.Text))
		if !seen[key] {
			seen[key] = true
			unique = append(unique, claim)
		}
	}

	return unique
}
