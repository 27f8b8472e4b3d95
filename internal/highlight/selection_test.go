package highlight

import (
	"testing"

	"github.com/veridoc/veridoc/internal/model"
)

func testBatch(id string) Batch {
	return Batch{
		ID:   id,
		Mode: model.ModeFactCheck,
		Annotations: []model.Annotation{
			{ID: "a1", Snippet: "first", Verdict: model.VerdictUncertain},
			{ID: "a2", Snippet: "second", Verdict: model.VerdictContradicted},
		},
	}
}

func TestSelection_SelectAndDismiss(t *testing.T) {
	var sel Selection
	batch := testBatch("b1")

	if !sel.Select(batch, "a2") {
		t.Fatal("Select should succeed for existing annotation")
	}
	if got := sel.Current(); got == nil || got.ID != "a2" {
		t.Errorf("Expected a2 selected, got %+v", got)
	}

	sel.Dismiss()
	if sel.Current() != nil {
		t.Error("Dismiss should clear the selection")
	}
}

func TestSelection_UnknownAnnotation(t *testing.T) {
	var sel Selection

	if sel.Select(testBatch("b1"), "nope") {
		t.Error("Select should fail for unknown annotation ID")
	}
	if sel.Current() != nil {
		t.Error("Failed select must not leave a selection behind")
	}
}

func TestSelection_ClearedOnBatchChange(t *testing.T) {
	var sel Selection

	if !sel.Select(testBatch("b1"), "a1") {
		t.Fatal("Select failed")
	}

	// New analysis run replaces the batch wholesale.
	sel.Reset("b2")
	if sel.Current() != nil {
		t.Error("Selection must not survive a batch change")
	}
	if sel.BatchID() != "b2" {
		t.Errorf("Expected tracking batch b2, got %s", sel.BatchID())
	}
}

func TestSelection_SelectAcrossBatchesResetsFirst(t *testing.T) {
	var sel Selection

	if !sel.Select(testBatch("b1"), "a1") {
		t.Fatal("Select failed")
	}
	// Selecting from a different batch moves tracking; a failed lookup in the
	// new batch leaves nothing selected rather than the stale annotation.
	if sel.Select(testBatch("b2"), "nope") {
		t.Fatal("Select should fail")
	}
	if sel.Current() != nil {
		t.Error("Stale selection leaked across batches")
	}
	if sel.BatchID() != "b2" {
		t.Errorf("Expected tracking batch b2, got %s", sel.BatchID())
	}
}
