package enrich

import (
	"context"

	"github.com/deadonfilm/deadonfilm/internal/model"
)

// ResultWriter is the persistence collaborator. The engine never talks
// to storage directly; the batch runner hands merged results to whatever
// implementation the caller wired in.
type ResultWriter interface {
	// Write persists the merged result and the full source audit trail
	// for one subject.
	Write(ctx context.Context, subjectID string, merged *model.ExtractionResult, sources []model.SourceEntry) error

	// InvalidateCache drops any read caches holding the subject's old
	// record.
	InvalidateCache(ctx context.Context, subjectID string) error
}
