package highlight

import (
	"errors"
	"strings"

	"github.com/veridoc/veridoc/internal/model"
)

// ErrNotFound is returned when a snippet cannot be placed: either it does not
// occur in the document, or every occurrence overlaps an already-allocated
// range. Placement failure is non-fatal; the caller drops the highlight and
// the text renders as plain.
var ErrNotFound = errors.New("snippet not found in document")

// Allocator places snippets into non-overlapping document ranges for one
// annotation batch. Ranges are recomputed from scratch for every batch;
// the allocator holds no state beyond the current batch's placements.
type Allocator struct {
	allocated []model.Range
}

// NewAllocator creates an allocator with no placed ranges
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Allocate finds the first occurrence of needle in doc that does not overlap
// any previously allocated range, claims it, and returns the half-open range
// [start, start+len(needle)). Matching is exact substring comparison,
// case-sensitive. Claim text can recur verbatim in a document, so scanning
// continues past claimed occurrences: each recurrence gets at most one
// highlight and no two annotations ever share a span.
func (a *Allocator) Allocate(doc, needle string) (model.Range, error) {
	if needle == "" {
		return model.Range{}, ErrNotFound
	}

	for from := 0; from+len(needle) <= len(doc); {
		i := strings.Index(doc[from:], needle)
		if i < 0 {
			break
		}

		candidate := model.Range{Start: from + i, End: from + i + len(needle)}
		if !a.overlapsAllocated(candidate) {
			a.allocated = append(a.allocated, candidate)
			return candidate, nil
		}

		// Occurrence is taken; resume the scan one byte past its start so
		// overlapping occurrences of the needle are still considered.
		from = candidate.Start + 1
	}

	return model.Range{}, ErrNotFound
}

// Allocated returns the ranges placed so far, in allocation order
func (a *Allocator) Allocated() []model.Range {
	return a.allocated
}

func (a *Allocator) overlapsAllocated(candidate model.Range) bool {
	for _, r := range a.allocated {
		if r.Overlaps(candidate) {
			return true
		}
	}
	return false
}
