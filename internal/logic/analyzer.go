// Package logic detects logical contradictions between documents.
package logic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/veridoc/veridoc/internal/extract"
	"github.com/veridoc/veridoc/internal/graph"
	"github.com/veridoc/veridoc/internal/llm"
	"github.com/veridoc/veridoc/internal/model"
)

const logicSystemPrompt = `You detect logical contradictions between statements ` +
	`from different documents. Respond only with JSON.`

// Analyzer runs cross-document discrepancy analysis: propositions are lifted
// from each document, compared pairwise for contradictions, and optionally
// persisted to the knowledge graph so chained contradictions surface through
// graph traversal.
type Analyzer struct {
	provider llm.Provider
	store    graph.Store // nil disables graph-based contradictions
}

// NewAnalyzer creates an analyzer. store may be nil.
func NewAnalyzer(provider llm.Provider, store graph.Store) *Analyzer {
	return &Analyzer{provider: provider, store: store}
}

type llmProposition struct {
	Text      string `json:"text"`
	ChunkText string `json:"chunkText"`
}

type llmPair struct {
	A      string `json:"a"`
	B      string `json:"b"`
	Reason string `json:"reason"`
}

// Analyze lifts propositions from the documents and returns a discrepancy
// record for every proposition involved in at least one contradiction.
// Every discrepancy carries the flat "contradiction" tag; the inputs carry
// no severity signal and none is invented.
func (a *Analyzer) Analyze(ctx context.Context, docs []model.Document) ([]model.Discrepancy, error) {
	if len(docs) < 2 {
		return nil, fmt.Errorf("logical analysis requires at least 2 documents, got %d", len(docs))
	}

	var propositions []model.Proposition
	for i, doc := range docs {
		props, err := a.extractPropositions(ctx, doc, i+1)
		if err != nil {
			return nil, err
		}
		propositions = append(propositions, props...)
	}
	if len(propositions) == 0 {
		return nil, nil
	}

	pairs, err := a.findContradictions(ctx, propositions)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]model.Proposition, len(propositions))
	for _, p := range propositions {
		byID[p.ID] = p
	}

	pairwise := make(map[string][]model.Contradiction)
	for _, pair := range pairs {
		pa, okA := byID[pair.A]
		pb, okB := byID[pair.B]
		if !okA || !okB {
			continue
		}
		pairwise[pa.ID] = append(pairwise[pa.ID], model.Contradiction{
			PropositionID: pb.ID, Text: pb.Text, DocTitle: pb.DocTitle, Reason: pair.Reason,
		})
		pairwise[pb.ID] = append(pairwise[pb.ID], model.Contradiction{
			PropositionID: pa.ID, Text: pa.Text, DocTitle: pa.DocTitle, Reason: pair.Reason,
		})
	}

	graphText, err := a.graphContradictions(ctx, propositions, pairs, pairwise)
	if err != nil {
		return nil, err
	}

	var discrepancies []model.Discrepancy
	for _, p := range propositions {
		pw := pairwise[p.ID]
		gt := graphText[p.ID]
		if len(pw) == 0 && len(gt) == 0 {
			continue
		}
		discrepancies = append(discrepancies, model.Discrepancy{
			Proposition: p,
			Pairwise:    pw,
			GraphText:   gt,
		})
	}

	return discrepancies, nil
}

// extractPropositions lifts checkable statements from one document
func (a *Analyzer) extractPropositions(ctx context.Context, doc model.Document, docIndex int) ([]model.Proposition, error) {
	if a.provider == nil {
		return a.extractHeuristic(doc, docIndex), nil
	}

	prompt := fmt.Sprintf(`List the factual propositions asserted by the document below.

Rules:
1. chunkText MUST be copied verbatim from the document, character for character.
2. text is a concise restatement of the proposition.
3. Skip opinions and questions.

Respond with a JSON array:
[{"text": "...", "chunkText": "..."}]

Document titled %q:
%s`, doc.Title, doc.Content)

	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		System:      logicSystemPrompt,
		Prompt:      prompt,
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("extract propositions from %q: %w", doc.Title, err)
	}

	var raw []llmProposition
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Text)), &raw); err != nil {
		return nil, fmt.Errorf("parse propositions from %q: %w", doc.Title, err)
	}

	props := make([]model.Proposition, 0, len(raw))
	for i, r := range raw {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		props = append(props, model.Proposition{
			ID:        fmt.Sprintf("d%d-p%d", docIndex, i+1),
			Text:      r.Text,
			DocTitle:  doc.Title,
			ChunkText: r.ChunkText,
		})
	}
	return props, nil
}

// extractHeuristic falls back to sentence splitting when no LLM is configured
func (a *Analyzer) extractHeuristic(doc model.Document, docIndex int) []model.Proposition {
	sentences := extract.Sentences(doc.Content)
	props := make([]model.Proposition, 0, len(sentences))
	for i, s := range sentences {
		props = append(props, model.Proposition{
			ID:        fmt.Sprintf("d%d-p%d", docIndex, i+1),
			Text:      s,
			DocTitle:  doc.Title,
			ChunkText: s,
		})
	}
	return props
}

// findContradictions asks the model for contradictory pairs across documents
// in a single call
func (a *Analyzer) findContradictions(ctx context.Context, propositions []model.Proposition) ([]llmPair, error) {
	if a.provider == nil {
		// Without a model there is no pairwise judgment; graph links from
		// earlier runs can still surface contradictions.
		return nil, nil
	}

	var b strings.Builder
	for _, p := range propositions {
		fmt.Fprintf(&b, "- [%s] (%s) %s\n", p.ID, p.DocTitle, p.Text)
	}

	prompt := fmt.Sprintf(`Below are propositions lifted from several documents,
each tagged with an id and its source document.

Find every pair of propositions from DIFFERENT documents that logically
contradict each other. Do not report pairs from the same document.

Respond with a JSON array (empty if none):
[{"a": "id", "b": "id", "reason": "one sentence"}]

Propositions:
%s`, b.String())

	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		System:      logicSystemPrompt,
		Prompt:      prompt,
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("pairwise contradiction check: %w", err)
	}

	var pairs []llmPair
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Text)), &pairs); err != nil {
		return nil, fmt.Errorf("parse contradiction pairs: %w", err)
	}
	return pairs, nil
}

// graphContradictions persists propositions and links to the knowledge graph,
// then walks CONTRADICTS chains to surface indirect conflicts that pairwise
// comparison alone would not connect
func (a *Analyzer) graphContradictions(ctx context.Context, propositions []model.Proposition, pairs []llmPair, pairwise map[string][]model.Contradiction) (map[string][]model.Contradiction, error) {
	out := make(map[string][]model.Contradiction)
	if a.store == nil {
		return out, nil
	}

	for _, p := range propositions {
		if err := a.store.UpsertProposition(ctx, p); err != nil {
			return nil, err
		}
	}
	for _, pair := range pairs {
		if err := a.store.LinkContradiction(ctx, pair.A, pair.B, pair.Reason); err != nil {
			return nil, err
		}
	}

	for _, p := range propositions {
		direct := make(map[string]bool, len(pairwise[p.ID]))
		for _, c := range pairwise[p.ID] {
			direct[c.PropositionID] = true
		}

		reached, err := a.store.Walk(ctx, p.ID, graph.RelContradicts, 3)
		if err != nil {
			return nil, err
		}
		for _, node := range reached {
			if node.ID == p.ID || direct[node.ID] {
				continue
			}
			out[p.ID] = append(out[p.ID], model.Contradiction{
				PropositionID: node.ID,
				Text:          node.Text,
				DocTitle:      node.DocTitle,
				Reason:        "reached through a chain of contradictions",
			})
		}
	}

	return out, nil
}

// Annotations converts discrepancies into the annotation batch shape used by
// the highlighter. Placement uses the source chunk when recorded, else the
// proposition text.
func Annotations(discrepancies []model.Discrepancy) []model.Annotation {
	annotations := make([]model.Annotation, 0, len(discrepancies))
	for i := range discrepancies {
		d := discrepancies[i]
		p := d.Proposition
		annotations = append(annotations, model.Annotation{
			ID:          p.ID,
			Snippet:     d.PlacementSnippet(),
			Verdict:     model.VerdictContradiction,
			Proposition: &p,
			Pairwise:    d.Pairwise,
			GraphText:   d.GraphText,
		})
	}
	return annotations
}

// stripCodeFence removes a surrounding markdown code fence
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
