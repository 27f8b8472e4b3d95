package model

import "time"

// Config holds the complete Veridoc configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	HTTP        HTTPConfig        `yaml:"http"`
	LLM         LLMConfig         `yaml:"llm"`
	Search      SearchConfig      `yaml:"search"`
	Cache       CacheConfig       `yaml:"cache"`
	Store       StoreConfig       `yaml:"store"`
	Graph       GraphConfig       `yaml:"graph"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Output      OutputConfig      `yaml:"output"`
}

// ServerConfig configures the HTTP API server
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// HTTPConfig configures outbound HTTP requests (evidence fetching)
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy"`
	InsecureTLS  bool          `yaml:"insecure_tls"`
}

// LLMConfig configures the language-model provider
type LLMConfig struct {
	Provider  string `yaml:"provider"` // openai, anthropic, ollama, "" (disabled)
	Model     string `yaml:"model"`
	APIKey    string `yaml:"-"` // Never written to config files
	BaseURL   string `yaml:"base_url"`
	Timeout   int    `yaml:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens"`
}

// SearchConfig configures web evidence search
type SearchConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Endpoint      string  `yaml:"endpoint"` // Search frontend URL, %s replaced by the query
	MaxResults    int     `yaml:"max_results"`
	PerDomainRate float64 `yaml:"per_domain_rate"` // requests per second per domain
	Burst         int     `yaml:"burst"`
}

// CacheConfig configures the layered search-result cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl"`
}

// StoreConfig configures the document store. An empty DSN selects the
// in-memory store.
type StoreConfig struct {
	PostgresDSN string `yaml:"postgres_dsn"`
}

// GraphConfig configures the Neo4j knowledge graph connection
type GraphConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URI      string `yaml:"uri"`
	User     string `yaml:"user"`
	Password string `yaml:"-"`
}

// ConcurrencyConfig bounds concurrent work
type ConcurrencyConfig struct {
	SearchWorkers int `yaml:"search_workers"`
}

// OutputConfig controls CLI output
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		HTTP: HTTPConfig{
			Timeout:      20 * time.Second,
			UserAgent:    "Veridoc/0.1 (+https://github.com/veridoc/veridoc)",
			MaxBodyBytes: 2_000_000,
		},
		LLM: LLMConfig{
			Provider:  "",
			Timeout:   60,
			MaxTokens: 2000,
		},
		Search: SearchConfig{
			Enabled:       true,
			Endpoint:      "https://html.duckduckgo.com/html/?q=%s",
			MaxResults:    5,
			PerDomainRate: 1,
			Burst:         2,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       defaultCacheDir(),
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Graph: GraphConfig{
			URI:  "bolt://localhost:7687",
			User: "neo4j",
		},
		Concurrency: ConcurrencyConfig{
			SearchWorkers: 4,
		},
	}
}
