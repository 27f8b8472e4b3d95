package model

// Proposition is a statement lifted from one document for cross-document
// logical analysis. ChunkText, when present, is the verbatim document excerpt
// the proposition was derived from and is preferred for highlight placement.
type Proposition struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	DocTitle  string `json:"doc_title"`
	ChunkText string `json:"chunk_text,omitempty"`
}

// Contradiction links a proposition to a conflicting statement elsewhere
type Contradiction struct {
	PropositionID string `json:"proposition_id"`
	Text          string `json:"text"`
	DocTitle      string `json:"doc_title,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// Discrepancy is the logical-analysis result for one proposition: the
// contradictions found by pairwise comparison and by graph traversal.
type Discrepancy struct {
	Proposition Proposition     `json:"proposition"`
	Pairwise    []Contradiction `json:"pairwise_contradictions"`
	GraphText   []Contradiction `json:"graph_text_contradictions"`
}

// PlacementSnippet returns the text used to locate this discrepancy in the
// document: the source chunk if recorded, otherwise the proposition text.
func (d Discrepancy) PlacementSnippet() string {
	if d.Proposition.ChunkText != "" {
		return d.Proposition.ChunkText
	}
	return d.Proposition.Text
}
