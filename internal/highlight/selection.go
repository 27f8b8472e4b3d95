package highlight

import (
	"github.com/veridoc/veridoc/internal/model"
)

// Selection is the click-to-inspect state: either nothing is selected or
// exactly one annotation from the live batch is. It is a flat two-state
// machine, not a stack. Selection never survives a batch change, since the
// underlying annotation may no longer exist in the new batch.
type Selection struct {
	batchID  string
	selected *model.Annotation
}

// Select activates the annotation with the given ID from batch. Selecting
// from a batch other than the one currently tracked implicitly moves tracking
// to the new batch first, so a selection can never point into a stale batch.
// Returns false if no annotation with that ID exists in the batch.
func (s *Selection) Select(batch Batch, annotationID string) bool {
	if batch.ID != s.batchID {
		s.Reset(batch.ID)
	}
	for i := range batch.Annotations {
		if batch.Annotations[i].ID == annotationID {
			s.selected = &batch.Annotations[i]
			return true
		}
	}
	return false
}

// Dismiss clears the selection without changing the tracked batch
func (s *Selection) Dismiss() {
	s.selected = nil
}

// Reset clears the selection and moves tracking to a new batch. Called on
// every mode switch and every new analysis run.
func (s *Selection) Reset(batchID string) {
	s.batchID = batchID
	s.selected = nil
}

// Current returns the selected annotation, or nil when nothing is selected
func (s *Selection) Current() *model.Annotation {
	return s.selected
}

// BatchID returns the ID of the batch the selection is tracking
func (s *Selection) BatchID() string {
	return s.batchID
}
