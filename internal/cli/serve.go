package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/veridoc/veridoc/internal/graph"
	"github.com/veridoc/veridoc/internal/llm"
	"github.com/veridoc/veridoc/internal/model"
	"github.com/veridoc/veridoc/internal/pipeline"
	"github.com/veridoc/veridoc/internal/server"
	"github.com/veridoc/veridoc/internal/store"
)

var (
	serveAddr        string
	servePostgresDSN string
	serveGraph       bool
	serveGraphURI    string
	llmEnabled       bool
	llmProvider      string
	llmModel         string
	noSearch         bool
	noCache          bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Veridoc HTTP API server",
	Long: `Serve starts the HTTP API for storing documents and running analyses:
- Store and list documents
- Fact-check a document against web evidence
- Compare documents for logical contradictions
- Inspect highlighted spans and select annotations

Example:
  veridoc serve
  veridoc serve --addr :9090 --llm --llm-provider openai
  veridoc serve --postgres-dsn postgres://localhost/veridoc --graph`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringVar(&servePostgresDSN, "postgres-dsn", "", "Postgres DSN for the document store (in-memory when empty)")
	serveCmd.Flags().BoolVar(&serveGraph, "graph", false, "persist contradictions to Neo4j (in-memory graph when off)")
	serveCmd.Flags().StringVar(&serveGraphURI, "graph-uri", "bolt://localhost:7687", "Neo4j bolt URI")
	serveCmd.Flags().BoolVar(&noSearch, "no-search", false, "disable web evidence search")
	serveCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the search result cache")

	// LLM flags
	serveCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM analysis")
	serveCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	serveCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := model.DefaultConfig()
	cfg.Server.Addr = serveAddr
	cfg.Store.PostgresDSN = servePostgresDSN
	cfg.Graph.Enabled = serveGraph
	cfg.Graph.URI = serveGraphURI
	cfg.Graph.Password = os.Getenv("NEO4J_PASSWORD")
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
		fmt.Fprintf(os.Stderr, "Warning: LLM provider %s is not reachable, analysis requests may fail\n", provider.Name())
	}

	docStore, err := buildDocumentStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer docStore.Close()

	graphStore, err := buildGraphStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = graphStore.Close(context.Background()) }()

	pipe := pipeline.New(cfg, provider, graphStore)
	srv := server.New(cfg, docStore, graphStore, pipe)

	if verbose {
		fmt.Fprintf(os.Stderr, "Serving on %s\n", cfg.Server.Addr)
		if provider != nil {
			fmt.Fprintf(os.Stderr, "LLM: %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
		}
	}

	return srv.Run(ctx)
}

func buildDocumentStore(ctx context.Context, cfg *model.Config) (store.Store, error) {
	if cfg.Store.PostgresDSN == "" {
		return store.NewMemoryStore(), nil
	}
	pg, err := store.NewPostgresStore(ctx, cfg.Store.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect to Postgres: %w", err)
	}
	return pg, nil
}

func buildGraphStore(ctx context.Context, cfg *model.Config) (graph.Store, error) {
	if !cfg.Graph.Enabled {
		return graph.NewMemoryStore(), nil
	}
	neo, err := graph.NewNeo4jStore(ctx, cfg.Graph)
	if err != nil {
		return nil, fmt.Errorf("connect to Neo4j: %w", err)
	}
	return neo, nil
}
