// Package verify judges extracted claims against gathered evidence.
package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/veridoc/veridoc/internal/llm"
	"github.com/veridoc/veridoc/internal/model"
)

const verifySystemPrompt = `You are a careful fact checker. You judge claims ` +
	`strictly against the evidence given to you. Respond only with JSON.`

// Verifier asks the LLM to judge each claim against its evidence. Results
// join back to claims purely by ID. Claims the model judges supported are
// omitted: only contradicted and uncertain claims get highlighted.
type Verifier struct {
	provider llm.Provider
}

// NewVerifier creates a verifier
func NewVerifier(provider llm.Provider) *Verifier {
	return &Verifier{provider: provider}
}

// llmVerdict is the wire shape the model is asked to produce per claim
type llmVerdict struct {
	Verdict          string `json:"verdict"`
	Suggestion       string `json:"suggestion,omitempty"`
	Correction       string `json:"correction,omitempty"`
	CorrectionSource string `json:"correctionSource,omitempty"`
}

// Verify judges all claims. A failed or unparseable judgment drops that one
// claim; the rest of the batch is unaffected. Without a provider no claim
// can be judged, so none get flagged and the document renders plain. That
// keeps runs with heuristic-only extraction working end to end.
func (v *Verifier) Verify(ctx context.Context, claims []model.Claim, evidence map[string][]model.EvidenceItem) ([]model.Verification, error) {
	if v.provider == nil {
		return nil, nil
	}

	var verifications []model.Verification
	for _, claim := range claims {
		items := evidence[claim.ID]

		verdict, err := v.judge(ctx, claim, items)
		if err != nil {
			continue
		}
		if verdict == nil {
			// Supported claim, nothing to highlight.
			continue
		}
		verdict.Evidence = items
		verifications = append(verifications, *verdict)
	}

	return verifications, nil
}

func (v *Verifier) judge(ctx context.Context, claim model.Claim, evidence []model.EvidenceItem) (*model.Verification, error) {
	prompt := fmt.Sprintf(`Judge the claim below against the evidence snippets.

Verdicts:
- "supported": the evidence agrees with the claim
- "contradicted": the evidence disagrees with the claim
- "uncertain": the evidence is missing, mixed, or inconclusive

If contradicted, include a one-sentence "suggestion" explaining the problem, a
"correction" with the corrected statement, and "correctionSource" naming the
evidence URL the correction comes from. No evidence at all means "uncertain".

Respond with a JSON object:
{"verdict": "supported|contradicted|uncertain", "suggestion": "...", "correction": "...", "correctionSource": "..."}

Claim:
%s

Evidence:
%s`, claim.Text, formatEvidence(evidence))

	resp, err := v.provider.Complete(ctx, llm.CompletionRequest{
		System:      verifySystemPrompt,
		Prompt:      prompt,
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("judge claim %s: %w", claim.ID, err)
	}

	var raw llmVerdict
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Text)), &raw); err != nil {
		return nil, fmt.Errorf("parse verdict for claim %s: %w", claim.ID, err)
	}

	switch strings.ToLower(strings.TrimSpace(raw.Verdict)) {
	case "contradicted":
		return &model.Verification{
			ID:               claim.ID,
			Verdict:          model.VerdictContradicted,
			Suggestion:       raw.Suggestion,
			Correction:       raw.Correction,
			CorrectionSource: raw.CorrectionSource,
		}, nil
	case "uncertain":
		return &model.Verification{
			ID:         claim.ID,
			Verdict:    model.VerdictUncertain,
			Suggestion: raw.Suggestion,
		}, nil
	case "supported":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown verdict %q for claim %s", raw.Verdict, claim.ID)
	}
}

func formatEvidence(evidence []model.EvidenceItem) string {
	if len(evidence) == 0 {
		return "(no evidence found)"
	}
	var b strings.Builder
	for i, e := range evidence {
		fmt.Fprintf(&b, "%d. %s\n   Source: %s\n", i+1, e.Snippet, e.SourceURL)
	}
	return b.String()
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
