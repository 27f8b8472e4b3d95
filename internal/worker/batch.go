package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/veridoc/veridoc/internal/model"
)

// Checker fact-checks a single source (a file path or URL)
type Checker interface {
	CheckSource(ctx context.Context, source string) (*CheckOutcome, error)
}

// CheckOutcome is the per-source result of a fact-check run
type CheckOutcome struct {
	Title    string
	Claims   int
	Flagged  int
	Segments []model.Segment
}

// CheckJob represents one source fact-check job
type CheckJob struct {
	Source  string
	Checker Checker
}

// Execute executes the check job
func (j *CheckJob) Execute(ctx context.Context) Result {
	outcome, err := j.Checker.CheckSource(ctx, j.Source)
	if err != nil {
		return &CheckResult{
			Source: j.Source,
			Error:  err,
		}
	}
	return &CheckResult{
		Source:  j.Source,
		Outcome: outcome,
	}
}

// CheckResult represents the result of a check job
type CheckResult struct {
	Source  string
	Outcome *CheckOutcome
	Error   error
}

// GetError returns the error from the check result
func (r *CheckResult) GetError() error {
	return r.Error
}

// BatchProcessor fact-checks multiple sources concurrently
type BatchProcessor struct {
	checker     Checker
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(checker Checker, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
	}
}

// ProcessSources fact-checks multiple sources concurrently
func (b *BatchProcessor) ProcessSources(ctx context.Context, sources []string) []*CheckResult {
	if len(sources) == 0 {
		return []*CheckResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, source := range sources {
		job := &CheckJob{
			Source:  source,
			Checker: b.checker,
		}
		pool.Submit(job)
	}

	results := pool.Wait()

	checkResults := make([]*CheckResult, len(results))
	for i, result := range results {
		checkResults[i] = result.(*CheckResult)
	}

	return checkResults
}

// ProcessFile reads sources from a file and fact-checks them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*CheckResult, error) {
	sources, err := ReadSourcesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}

	return b.ProcessSources(ctx, sources), nil
}

// ReadSourcesFromFile reads sources from a file (one per line)
func ReadSourcesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var sources []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			sources = append(sources, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return sources, nil
}
