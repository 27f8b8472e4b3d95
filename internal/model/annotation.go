package model

// Verdict is the judgment attached to an annotation, used for highlight styling
type Verdict string

const (
	VerdictContradicted  Verdict = "contradicted"  // Fact-check: evidence contradicts the claim
	VerdictUncertain     Verdict = "uncertain"     // Fact-check: evidence is inconclusive
	VerdictContradiction Verdict = "contradiction" // Logical: proposition conflicts with another document
)

// Mode selects which annotation source is rendered. The two sources are kept
// as independent batches and are never merged into one segment sequence.
type Mode string

const (
	ModeFactCheck Mode = "factcheck"
	ModeLogical   Mode = "logical"
)

// Annotation is a claim or proposition projected onto document text.
// Snippet is expected to occur verbatim in the document; everything else is
// opaque payload carried through to the rendering layer unchanged.
type Annotation struct {
	ID               string          `json:"id"`
	Snippet          string          `json:"snippet"`
	Verdict          Verdict         `json:"verdict"`
	Suggestion       string          `json:"suggestion,omitempty"`
	Correction       string          `json:"correction,omitempty"`
	CorrectionSource string          `json:"correction_source,omitempty"`
	Evidence         []EvidenceItem  `json:"evidence,omitempty"`
	Proposition      *Proposition    `json:"proposition,omitempty"` // Set for logical-discrepancy annotations
	Pairwise         []Contradiction `json:"pairwise_contradictions,omitempty"`
	GraphText        []Contradiction `json:"graph_text_contradictions,omitempty"`
}

// EvidenceItem is a single piece of supporting or contradicting evidence
type EvidenceItem struct {
	Snippet   string `json:"snippet"`
	SourceURL string `json:"source_url"`
}

// Range is a half-open interval [Start, End) over the document's byte
// indices, assigned to exactly one annotation once placed.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the length of the range
func (r Range) Len() int {
	return r.End - r.Start
}

// Overlaps reports whether two ranges share at least one index
func (r Range) Overlaps(other Range) bool {
	return max(r.Start, other.Start) < min(r.End, other.End)
}

// Segment is one contiguous piece of the rendered document. A nil Annotation
// means plain text; otherwise the segment is a highlight carrying the
// annotation and the verdict used for styling.
type Segment struct {
	Text       string      `json:"text"`
	Range      Range       `json:"range"`
	Annotation *Annotation `json:"annotation,omitempty"`
	Verdict    Verdict     `json:"verdict,omitempty"`
}

// IsHighlight reports whether the segment carries an annotation
func (s Segment) IsHighlight() bool {
	return s.Annotation != nil
}
