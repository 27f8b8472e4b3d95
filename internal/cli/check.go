package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/veridoc/veridoc/internal/extract"
	"github.com/veridoc/veridoc/internal/llm"
	"github.com/veridoc/veridoc/internal/model"
	"github.com/veridoc/veridoc/internal/pipeline"
	"github.com/veridoc/veridoc/internal/worker"
)

var (
	checkConcurrency int
	checkTimeout     time.Duration
	checkFromFile    string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <file-or-url>...",
	Short: "Fact-check documents from the command line",
	Long: `Check runs the fact-checking pipeline over local files or URLs:
- Extract checkable claims from each document
- Gather web evidence for every claim
- Judge each claim against its evidence
- Print the questionable claims with suggestions and sources

Sources are processed in parallel with a configurable worker count.

Example:
  veridoc check report.txt
  veridoc check report.txt notes.html https://example.com/article
  veridoc check --from-file sources.txt --concurrency 8
  veridoc check report.txt --llm --llm-provider anthropic`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().IntVar(&checkConcurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 10*time.Minute, "total timeout for the run")
	checkCmd.Flags().StringVar(&checkFromFile, "from-file", "", "read sources from a file (one per line)")
	checkCmd.Flags().BoolVar(&noSearch, "no-search", false, "disable web evidence search")
	checkCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the search result cache")

	// LLM flags
	checkCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM analysis")
	checkCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	checkCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

// sourceChecker adapts the pipeline to the batch worker interface
type sourceChecker struct {
	pipe *pipeline.Pipeline
}

func (c *sourceChecker) CheckSource(ctx context.Context, source string) (*worker.CheckOutcome, error) {
	doc, err := loadSource(ctx, c.pipe, source)
	if err != nil {
		return nil, err
	}

	result, err := c.pipe.AnalyzeFactCheck(ctx, doc.Content)
	if err != nil {
		return nil, err
	}

	return &worker.CheckOutcome{
		Title:    doc.Title,
		Claims:   len(result.Claims),
		Flagged:  len(result.Batch.Annotations),
		Segments: result.Segments,
	}, nil
}

// loadSource turns a file path or URL into a plain-text document
func loadSource(ctx context.Context, pipe *pipeline.Pipeline, source string) (*model.Document, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return pipe.FetchDocument(ctx, source)
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	text, err := extract.TextFromUpload(source, data)
	if err != nil {
		return nil, fmt.Errorf("extract text from %s: %w", source, err)
	}
	return &model.Document{
		Title:   filepath.Base(source),
		Content: text,
	}, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	sources := args
	if checkFromFile != "" {
		fromFile, err := worker.ReadSourcesFromFile(checkFromFile)
		if err != nil {
			return err
		}
		sources = append(sources, fromFile...)
	}
	if len(sources) == 0 {
		return fmt.Errorf("no sources given; pass files or URLs, or use --from-file")
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	cfg := model.DefaultConfig()
	cfg.Search.Enabled = !noSearch
	cfg.Cache.Enabled = !noCache
	cfg.Output.Verbose = verbose

	if llmEnabled {
		if err := configureLLM(cfg, llmProvider, llmModel); err != nil {
			return err
		}
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return fmt.Errorf("initialize LLM provider: %w", err)
	}
	if provider != nil && !provider.IsAvailable(ctx) {
		fmt.Fprintf(os.Stderr, "Warning: LLM provider %s is not reachable, checks may fail\n", provider.Name())
	}

	pipe := pipeline.New(cfg, provider, nil)
	processor := worker.NewBatchProcessor(&sourceChecker{pipe: pipe}, checkConcurrency)

	if verbose {
		fmt.Fprintf(os.Stderr, "Checking %d sources with %d workers\n\n", len(sources), checkConcurrency)
	}

	results := processor.ProcessSources(ctx, sources)

	failureCount := 0
	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Source, result.Error)
			continue
		}
		printOutcome(result.Source, result.Outcome)
	}

	if failureCount > 0 {
		return fmt.Errorf("%d of %d sources failed", failureCount, len(results))
	}
	return nil
}

// printOutcome writes one source's flagged claims to stdout
func printOutcome(source string, outcome *worker.CheckOutcome) {
	fmt.Printf("%s (%s): %d claims, %d flagged\n", source, outcome.Title, outcome.Claims, outcome.Flagged)

	for _, seg := range outcome.Segments {
		if !seg.IsHighlight() {
			continue
		}
		ann := seg.Annotation
		fmt.Printf("  [%s] %q\n", ann.Verdict, seg.Text)
		if ann.Suggestion != "" {
			fmt.Printf("      %s\n", ann.Suggestion)
		}
		if ann.Correction != "" {
			fmt.Printf("      Correction: %s\n", ann.Correction)
		}
		if ann.CorrectionSource != "" {
			fmt.Printf("      Source: %s\n", ann.CorrectionSource)
		}
	}
}
