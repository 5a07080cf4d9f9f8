package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/deadonfilm/deadonfilm/internal/enrich"
	"github.com/deadonfilm/deadonfilm/internal/model"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Enrich multiple actors from a file in parallel",
	Long: `Batch enriches multiple subjects concurrently:
- Read subjects from the input file (one JSON object per line)
- Enrich subjects in parallel with a configurable worker count
- Each enrichment runs the full tiered source walk under its own budget
- Write one result file per subject to the output directory

Example:
  deadonfilm batch subjects.jsonl
  deadonfilm batch subjects.jsonl --concurrency 8 --output-dir ./results
  deadonfilm batch subjects.jsonl --llm --max-cost 0.10`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent subjects")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./deadonfilm-results", "output directory for result files")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")

	// Engine flags shared with enrich
	batchCmd.Flags().IntVar(&maxLinks, "max-links", 0, "max followed links per actor (0: config default)")
	batchCmd.Flags().Float64Var(&maxCost, "max-cost", -1, "per-actor spending cap in dollars (-1: config default)")
	batchCmd.Flags().Float64Var(&stopConfidence, "stop-confidence", 0, "stop tier escalation at this confidence (0: config default)")
	batchCmd.Flags().BoolVar(&noBrowser, "no-browser", false, "disable headless-browser fallback")

	// LLM flags
	batchCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable AI link selection, extraction, and AI-tier sources")
	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg := loadConfig()
	applyEngineFlags(cfg)
	if err := applyLLMFlags(cfg); err != nil {
		return err
	}
	cfg.Concurrency.TierWorkers = concurrency

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	log := newLogger()

	engine, err := enrich.New(cfg, nil, nil, log)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	writer := &dirWriter{dir: outputDir}
	processor := enrich.NewBatchProcessor(engine, writer, concurrency, log)

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	enriched, empty, failed := 0, 0, 0
	totalCost := 0.0
	for _, r := range results {
		switch {
		case r.Error != nil:
			failed++
		case r.Enrichment.Result == nil:
			empty++
			totalCost += r.Enrichment.TotalCost
		default:
			enriched++
			totalCost += r.Enrichment.TotalCost
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Subjects:  %d\n", len(results))
	fmt.Fprintf(os.Stderr, "  Enriched:  %d\n", enriched)
	fmt.Fprintf(os.Stderr, "  Empty:     %d\n", empty)
	fmt.Fprintf(os.Stderr, "  Failed:    %d\n", failed)
	fmt.Fprintf(os.Stderr, "  Spent:     $%.4f\n", totalCost)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// dirWriter persists each subject's merged result and audit trail as
// one JSON file. It stands in for the storage layer a deployment would
// wire here.
type dirWriter struct {
	dir string
}

type resultFile struct {
	SubjectID string                  `json:"subject_id"`
	Merged    *model.ExtractionResult `json:"merged,omitempty"`
	Sources   []model.SourceEntry     `json:"sources"`
}

func (w *dirWriter) Write(_ context.Context, subjectID string, merged *model.ExtractionResult, sources []model.SourceEntry) error {
	if subjectID == "" {
		subjectID = "unknown"
	}
	data, err := json.MarshalIndent(resultFile{SubjectID: subjectID, Merged: merged, Sources: sources}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	path := filepath.Join(w.dir, subjectID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

func (w *dirWriter) InvalidateCache(context.Context, string) error {
	// File output has no read cache to drop.
	return nil
}
