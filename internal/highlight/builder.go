package highlight

import (
	"sort"

	"github.com/veridoc/veridoc/internal/model"
)

// Placement pairs an allocated range with its source annotation
type Placement struct {
	Range      model.Range
	Annotation *model.Annotation
	Verdict    model.Verdict
}

// Build turns allocated placements into the ordered segment sequence covering
// all of doc. Placements may arrive in any order; they are sorted by range
// start (stable, so ties keep input order). The returned segments are
// contiguous, non-overlapping, and concatenate to exactly doc. An empty doc
// yields no segments; a doc with no placements yields one plain segment.
func Build(doc string, placements []Placement) []model.Segment {
	sorted := make([]Placement, len(placements))
	copy(sorted, placements)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Range.Start < sorted[j].Range.Start
	})

	var segments []model.Segment
	cursor := 0

	for _, p := range sorted {
		if p.Range.Start > cursor {
			segments = append(segments, model.Segment{
				Text:  doc[cursor:p.Range.Start],
				Range: model.Range{Start: cursor, End: p.Range.Start},
			})
		}
		segments = append(segments, model.Segment{
			Text:       doc[p.Range.Start:p.Range.End],
			Range:      p.Range,
			Annotation: p.Annotation,
			Verdict:    p.Verdict,
		})
		cursor = p.Range.End
	}

	if cursor < len(doc) {
		segments = append(segments, model.Segment{
			Text:  doc[cursor:],
			Range: model.Range{Start: cursor, End: len(doc)},
		})
	}

	return segments
}
