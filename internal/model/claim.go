package model

// Claim represents a factual assertion extracted from a document
type Claim struct {
	ID          string `json:"id"`
	Text        string `json:"text"`                   // The claim text itself, verbatim from the document
	StartChar   int    `json:"start_char,omitempty"`   // Offset reported by the extractor (informational only)
	EndChar     int    `json:"end_char,omitempty"`     // Offset reported by the extractor (informational only)
	SearchQuery string `json:"search_query,omitempty"` // Suggested web search query for evidence
	Heuristic   string `json:"heuristic,omitempty"`    // Which fallback rule matched (e.g., "keyword:originated")
}

// Verification is the fact-verification outcome for one claim, joined back
// to the claim purely by ID. Claims judged as supported produce no
// verification record and therefore no highlight.
type Verification struct {
	ID               string         `json:"id"`
	Verdict          Verdict        `json:"verdict"`
	Suggestion       string         `json:"suggestion,omitempty"`
	Correction       string         `json:"correction,omitempty"`
	CorrectionSource string         `json:"correction_source,omitempty"`
	Evidence         []EvidenceItem `json:"evidence,omitempty"`
}
