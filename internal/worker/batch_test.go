package worker

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

// MockChecker implements Checker interface
type MockChecker struct {
	ShouldError bool
}

func (m *MockChecker) CheckSource(ctx context.Context, source string) (*CheckOutcome, error) {
	time.Sleep(10 * time.Millisecond) // Simulate work
	if m.ShouldError {
		return nil, errors.New("check error")
	}
	return &CheckOutcome{
		Title:  "Test Document",
		Claims: 2,
	}, nil
}

func TestBatchProcessor_ProcessSources(t *testing.T) {
	checker := &MockChecker{}
	processor := NewBatchProcessor(checker, 2)

	sources := []string{"a.txt", "b.html", "http://example.com"}
	ctx := context.Background()

	results := processor.ProcessSources(ctx, sources)

	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}

	successCount := 0
	for _, res := range results {
		if res.Error == nil {
			successCount++
			if res.Outcome == nil {
				t.Error("expected outcome for successful check")
			}
		} else {
			t.Errorf("unexpected error for %s: %v", res.Source, res.Error)
		}
	}

	if successCount != 3 {
		t.Errorf("expected 3 successes, got %d", successCount)
	}
}

// blockingChecker parks until the context given to CheckSource is done,
// proving the caller's context reaches in-flight checks.
type blockingChecker struct{}

func (b *blockingChecker) CheckSource(ctx context.Context, source string) (*CheckOutcome, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestBatchProcessor_ProcessSources_Timeout(t *testing.T) {
	processor := NewBatchProcessor(&blockingChecker{}, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan []*CheckResult, 1)
	go func() { done <- processor.ProcessSources(ctx, []string{"a.txt", "b.txt"}) }()

	select {
	case results := <-done:
		for _, res := range results {
			if !errors.Is(res.Error, context.DeadlineExceeded) {
				t.Errorf("error for %s = %v, want context.DeadlineExceeded", res.Source, res.Error)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ProcessSources did not return after the context deadline")
	}
}

func TestBatchProcessor_ProcessSources_Error(t *testing.T) {
	checker := &MockChecker{ShouldError: true}
	processor := NewBatchProcessor(checker, 2)

	results := processor.ProcessSources(context.Background(), []string{"a.txt"})

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	if results[0].Error == nil {
		t.Error("expected error, got nil")
	}
	if results[0].Outcome != nil {
		t.Error("expected nil outcome on error")
	}
}

func TestBatchProcessor_ProcessSources_Empty(t *testing.T) {
	checker := &MockChecker{}
	processor := NewBatchProcessor(checker, 2)

	results := processor.ProcessSources(context.Background(), []string{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestReadSourcesFromFile(t *testing.T) {
	content := `report.txt
# comment
notes.html

http://example.com/page   `

	tmpfile, err := os.CreateTemp("", "sources")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = os.Remove(tmpfile.Name())
	}()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	sources, err := ReadSourcesFromFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ReadSourcesFromFile failed: %v", err)
	}

	expected := []string{"report.txt", "notes.html", "http://example.com/page"}
	if len(sources) != len(expected) {
		t.Fatalf("expected %d sources, got %d", len(expected), len(sources))
	}

	for i, source := range sources {
		if source != expected[i] {
			t.Errorf("expected source %s at index %d, got %s", expected[i], i, source)
		}
	}
}

func TestReadSourcesFromFile_NonExistent(t *testing.T) {
	_, err := ReadSourcesFromFile("non_existent_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestCheckResult_GetError(t *testing.T) {
	r1 := &CheckResult{Source: "a.txt", Error: nil}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("check failed")
	r2 := &CheckResult{Source: "a.txt", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	content := "report.txt\nnotes.html\n# comment\n\nhttp://example.com\n"

	tmpfile, err := os.CreateTemp("", "batch_sources")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	checker := &MockChecker{}
	processor := NewBatchProcessor(checker, 2)

	results, err := processor.ProcessFile(context.Background(), tmpfile.Name())
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}

	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	checker := &MockChecker{}
	processor := NewBatchProcessor(checker, 2)

	_, err := processor.ProcessFile(context.Background(), "no_such_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestBatchProcessor_ProcessFile_Empty(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "empty_sources")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	checker := &MockChecker{}
	processor := NewBatchProcessor(checker, 2)

	results, err := processor.ProcessFile(context.Background(), tmpfile.Name())
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected 0 results for empty file, got %d", len(results))
	}
}

func TestReadSourcesFromFile_Deduplication(t *testing.T) {
	content := `report.txt
report.txt`

	tmpfile, err := os.CreateTemp("", "sources_dedup")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = os.Remove(tmpfile.Name())
	}()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	sources, err := ReadSourcesFromFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ReadSourcesFromFile failed: %v", err)
	}

	if len(sources) != 1 {
		t.Errorf("expected 1 source after deduplication, got %d", len(sources))
	}
}
