package highlight

import (
	"github.com/veridoc/veridoc/internal/model"
)

// Batch is one analysis run's worth of annotations for a single mode.
// Fact-check and logical batches are maintained independently and rendered
// one at a time; switching modes reruns the pipeline against the other batch.
type Batch struct {
	ID          string             `json:"id"`
	Mode        model.Mode         `json:"mode"`
	Annotations []model.Annotation `json:"annotations"`
}

// Highlight runs the full allocate-then-build pipeline for one batch.
// Annotations are processed in batch order, so output depends on input
// ordering; this is a documented property of the placement policy, not an
// accident. Annotations whose snippet cannot be placed are skipped and their
// text renders as plain.
func Highlight(doc string, batch Batch) []model.Segment {
	alloc := NewAllocator()
	placements := make([]Placement, 0, len(batch.Annotations))

	for i := range batch.Annotations {
		ann := &batch.Annotations[i]
		r, err := alloc.Allocate(doc, ann.Snippet)
		if err != nil {
			continue
		}
		placements = append(placements, Placement{
			Range:      r,
			Annotation: ann,
			Verdict:    ann.Verdict,
		})
	}

	return Build(doc, placements)
}
