package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/deadonfilm/deadonfilm/internal/enrich"
	"github.com/deadonfilm/deadonfilm/internal/model"
)

var (
	personID       string
	tmdbID         int
	birthYear      int
	deathYear      int
	outJSON        string
	timeout        time.Duration
	maxLinks       int
	maxCost        float64
	stopConfidence float64
	noBrowser      bool
	llmEnabled     bool
	llmProvider    string
	llmModel       string
)

// enrichCmd represents the enrich command
var enrichCmd = &cobra.Command{
	Use:   "enrich <name>",
	Short: "Enrich one deceased actor with circumstances-of-death data",
	Long: `Enrich runs the full tiered source walk for a single actor:
- Free scrapers first (encyclopedias, obituary indexes, open web search)
- Paid newspaper/genealogy archives if the budget allows
- AI-assisted lookups last, and only under the remaining budget

The merged result, the verification verdict, and the full source audit
trail are printed as JSON.

Example:
  deadonfilm enrich "Peter Lorre" --death-year 1964
  deadonfilm enrich "Carole Lombard" --person-id nm0002071 --json out.json
  deadonfilm enrich "John Candy" --llm --llm-provider openai --max-cost 0.50`,
	Args: cobra.ExactArgs(1),
	RunE: runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	// Subject flags
	enrichCmd.Flags().StringVar(&personID, "person-id", "", "IMDb-style person id (nm0000123)")
	enrichCmd.Flags().IntVar(&tmdbID, "tmdb-id", 0, "movie-database person id")
	enrichCmd.Flags().IntVar(&birthYear, "birth-year", 0, "birth year, if known")
	enrichCmd.Flags().IntVar(&deathYear, "death-year", 0, "death year, if known")

	// Output flags
	enrichCmd.Flags().StringVar(&outJSON, "json", "", "write the result to this path instead of stdout")

	// Engine flags
	enrichCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall enrichment timeout")
	enrichCmd.Flags().IntVar(&maxLinks, "max-links", 0, "max followed links per actor (0: config default)")
	enrichCmd.Flags().Float64Var(&maxCost, "max-cost", -1, "per-actor spending cap in dollars (-1: config default)")
	enrichCmd.Flags().Float64Var(&stopConfidence, "stop-confidence", 0, "stop tier escalation at this confidence (0: config default)")
	enrichCmd.Flags().BoolVar(&noBrowser, "no-browser", false, "disable headless-browser fallback")

	// LLM flags
	enrichCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable AI link selection, extraction, and AI-tier sources")
	enrichCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	enrichCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runEnrich(cmd *cobra.Command, args []string) error {
	name := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg := loadConfig()
	applyEngineFlags(cfg)
	if err := applyLLMFlags(cfg); err != nil {
		return err
	}

	log := newLogger()

	engine, err := enrich.New(cfg, nil, nil, log)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	subject := &model.Subject{
		PersonID:  personID,
		TMDBID:    tmdbID,
		Name:      name,
		BirthYear: birthYear,
		DeathYear: deathYear,
	}

	result, err := engine.Enrich(ctx, subject)
	if err != nil {
		return fmt.Errorf("enrich failed: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	if outJSON != "" {
		if err := os.WriteFile(outJSON, data, 0644); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", outJSON)
		}
		return nil
	}

	fmt.Println(string(data))
	return nil
}

// applyEngineFlags overlays explicit engine flags on the loaded config.
func applyEngineFlags(cfg *model.Config) {
	if maxLinks > 0 {
		cfg.Enrichment.MaxLinksPerActor = maxLinks
	}
	if maxCost >= 0 {
		cfg.Enrichment.MaxCostPerActor = maxCost
	}
	if stopConfidence > 0 {
		cfg.Enrichment.StopConfidence = stopConfidence
	}
	if noBrowser {
		cfg.Enrichment.BrowserFetch.Enabled = false
	}
}

// applyLLMFlags wires the chat-completion provider from flags and
// environment.
func applyLLMFlags(cfg *model.Config) error {
	if !llmEnabled {
		cfg.LLM.Provider = ""
		return nil
	}

	cfg.LLM.Provider = llmProvider
	cfg.LLM.Model = llmModel
	cfg.Enrichment.AILinkSelection = true
	cfg.Enrichment.AIContentExtraction = true

	// Get API key from environment
	switch llmProvider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		baseURL := os.Getenv("OLLAMA_BASE_URL")
		if baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}

	return nil
}
