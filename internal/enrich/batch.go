package enrich

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/deadonfilm/deadonfilm/internal/model"
	"github.com/deadonfilm/deadonfilm/internal/worker"
)

// Enricher is the single-subject entry point the batch layer drives.
type Enricher interface {
	Enrich(ctx context.Context, subject *model.Subject) (*Enrichment, error)
}

// SubjectJob enriches one subject on the batch pool.
type SubjectJob struct {
	ctx      context.Context
	subject  *model.Subject
	enricher Enricher
}

// SubjectResult pairs a subject with its enrichment outcome.
type SubjectResult struct {
	Subject    *model.Subject
	Enrichment *Enrichment
	Error      error
}

// GetError returns the error from the enrichment, if any.
func (r *SubjectResult) GetError() error {
	return r.Error
}

// Execute runs the enrichment for the job's subject.
func (j *SubjectJob) Execute(_ context.Context) worker.Result {
	enr, err := j.enricher.Enrich(j.ctx, j.subject)
	return &SubjectResult{
		Subject:    j.subject,
		Enrichment: enr,
		Error:      err,
	}
}

// BatchProcessor enriches multiple subjects concurrently and hands each
// completed result to the persistence collaborator.
type BatchProcessor struct {
	enricher    Enricher
	writer      ResultWriter // nil: results are returned but not persisted
	concurrency int
	log         zerolog.Logger
}

// NewBatchProcessor creates a new batch processor.
func NewBatchProcessor(enricher Enricher, writer ResultWriter, concurrency int, log zerolog.Logger) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = 2
	}
	return &BatchProcessor{
		enricher:    enricher,
		writer:      writer,
		concurrency: concurrency,
		log:         log,
	}
}

// ProcessSubjects enriches subjects concurrently, preserving no
// particular order. Persistence failures are logged, not fatal: the
// enrichment already happened and the result still goes back to the
// caller.
func (b *BatchProcessor) ProcessSubjects(ctx context.Context, subjects []*model.Subject) []*SubjectResult {
	if len(subjects) == 0 {
		return []*SubjectResult{}
	}

	pool := worker.NewPool(b.concurrency)
	pool.Start()

	for _, subject := range subjects {
		pool.Submit(&SubjectJob{ctx: ctx, subject: subject, enricher: b.enricher})
	}

	results := pool.Wait()

	out := make([]*SubjectResult, 0, len(results))
	for _, result := range results {
		sr, ok := result.(*SubjectResult)
		if !ok {
			continue
		}
		out = append(out, sr)
		b.persist(ctx, sr)
	}

	return out
}

// ProcessFile reads subjects from a JSON-lines file and enriches them.
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*SubjectResult, error) {
	subjects, err := ReadSubjectsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read subjects: %w", err)
	}

	return b.ProcessSubjects(ctx, subjects), nil
}

func (b *BatchProcessor) persist(ctx context.Context, sr *SubjectResult) {
	if b.writer == nil || sr.Error != nil || sr.Enrichment == nil {
		return
	}
	id := sr.Subject.PersonID
	if err := b.writer.Write(ctx, id, sr.Enrichment.Result, sr.Enrichment.Sources); err != nil {
		b.log.Error().Err(err).Str("subject", id).Msg("persist enrichment")
		return
	}
	if err := b.writer.InvalidateCache(ctx, id); err != nil {
		b.log.Warn().Err(err).Str("subject", id).Msg("invalidate cache")
	}
}

// ReadSubjectsFromFile reads subjects from a file: one JSON object per
// line, blank lines and #-comments skipped, duplicate person ids
// dropped.
func ReadSubjectsFromFile(filePath string) ([]*model.Subject, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var subjects []*model.Subject
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var subject model.Subject
		if err := json.Unmarshal([]byte(text), &subject); err != nil {
			return nil, fmt.Errorf("parse subject at line %d: %w", line, err)
		}
		if subject.PersonID != "" && seen[subject.PersonID] {
			continue
		}
		seen[subject.PersonID] = true
		subjects = append(subjects, &subject)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return subjects, nil
}
