package model

import "time"

// Config is the full configuration surface for the enrichment engine.
type Config struct {
	Enrichment  EnrichmentConfig  `yaml:"enrichment" mapstructure:"enrichment"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Providers   ProvidersConfig   `yaml:"providers" mapstructure:"providers"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
}

// EnrichmentConfig controls the link follower and the per-subject budget.
type EnrichmentConfig struct {
	Enabled             bool               `yaml:"enabled" mapstructure:"enabled"`
	MaxLinksPerActor    int                `yaml:"max_links_per_actor" mapstructure:"max_links_per_actor"`
	MaxCostPerActor     float64            `yaml:"max_cost_per_actor" mapstructure:"max_cost_per_actor"`
	StopConfidence      float64            `yaml:"stop_confidence" mapstructure:"stop_confidence"`
	AILinkSelection     bool               `yaml:"ai_link_selection" mapstructure:"ai_link_selection"`
	AIContentExtraction bool               `yaml:"ai_content_extraction" mapstructure:"ai_content_extraction"`
	BlockedDomains      []string           `yaml:"blocked_domains" mapstructure:"blocked_domains"`
	AllowedDomains      []string           `yaml:"allowed_domains" mapstructure:"allowed_domains"`
	BrowserFetch        BrowserFetchConfig `yaml:"browser_fetch" mapstructure:"browser_fetch"`
}

// BrowserFetchConfig controls headless-browser retrieval.
type BrowserFetchConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	FallbackOnBlock bool          `yaml:"fallback_on_block" mapstructure:"fallback_on_block"`
	NavTimeout      time.Duration `yaml:"nav_timeout" mapstructure:"nav_timeout"`
}

// HTTPConfig controls the shared HTTP client used by direct fetches.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// LLMConfig configures the chat-completion provider.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, ollama, "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ProvidersConfig carries credentials and pacing for source adapters.
type ProvidersConfig struct {
	BlockCooldown     time.Duration `yaml:"block_cooldown" mapstructure:"block_cooldown"`
	TMDBAPIKey        string        `yaml:"tmdb_api_key" mapstructure:"tmdb_api_key"`
	NewspapersAPIKey  string        `yaml:"newspapers_api_key" mapstructure:"newspapers_api_key"`
	GenealogyAPIKey   string        `yaml:"genealogy_api_key" mapstructure:"genealogy_api_key"`
	NewsbankAPIKey    string        `yaml:"newsbank_api_key" mapstructure:"newsbank_api_key"`
	PaywallUser       string        `yaml:"paywall_user" mapstructure:"paywall_user"`
	PaywallPassword   string        `yaml:"paywall_password" mapstructure:"paywall_password"`
	SessionTTL        time.Duration `yaml:"session_ttl" mapstructure:"session_ttl"`
}

// ConcurrencyConfig bounds parallel work.
type ConcurrencyConfig struct {
	TierWorkers  int `yaml:"tier_workers" mapstructure:"tier_workers"`
	FetchWorkers int `yaml:"fetch_workers" mapstructure:"fetch_workers"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Enrichment: EnrichmentConfig{
			Enabled:             true,
			MaxLinksPerActor:    5,
			MaxCostPerActor:     0.25,
			StopConfidence:      0.75,
			AILinkSelection:     false,
			AIContentExtraction: false,
			BlockedDomains:      nil, // engine falls back to the built-in blocklist
			BrowserFetch: BrowserFetchConfig{
				Enabled:         true,
				FallbackOnBlock: true,
				NavTimeout:      25 * time.Second,
			},
		},
		HTTP: HTTPConfig{
			Timeout:      15 * time.Second,
			UserAgent:    "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			MaxBodyBytes: 2 * 1024 * 1024,
		},
		LLM: LLMConfig{
			Provider:  "",
			Model:     "gpt-4o-mini",
			Timeout:   30,
			MaxTokens: 1200,
		},
		Providers: ProvidersConfig{
			BlockCooldown: 6 * time.Hour,
			SessionTTL:    12 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			TierWorkers:  4,
			FetchWorkers: 4,
		},
	}
}
