package enrich

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/deadonfilm/deadonfilm/internal/model"
)

type stubEnricher struct {
	mu   sync.Mutex
	seen []string
	fail map[string]bool
}

func (s *stubEnricher) Enrich(_ context.Context, subject *model.Subject) (*Enrichment, error) {
	s.mu.Lock()
	s.seen = append(s.seen, subject.PersonID)
	s.mu.Unlock()

	if s.fail[subject.PersonID] {
		return nil, errors.New("enrichment failed")
	}
	return &Enrichment{
		Result:     &model.ExtractionResult{Circumstances: "died of natural causes at home"},
		Sources:    []model.SourceEntry{{Name: "wikipedia"}},
		Confidence: 0.5,
	}, nil
}

type recordingWriter struct {
	mu          sync.Mutex
	written     []string
	invalidated []string
	writeErr    error
}

func (w *recordingWriter) Write(_ context.Context, subjectID string, merged *model.ExtractionResult, sources []model.SourceEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.writeErr != nil {
		return w.writeErr
	}
	w.written = append(w.written, subjectID)
	return nil
}

func (w *recordingWriter) InvalidateCache(_ context.Context, subjectID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.invalidated = append(w.invalidated, subjectID)
	return nil
}

func TestProcessSubjectsPersistsResults(t *testing.T) {
	enricher := &stubEnricher{}
	writer := &recordingWriter{}
	bp := NewBatchProcessor(enricher, writer, 2, zerolog.Nop())

	subjects := []*model.Subject{
		{PersonID: "nm0000001", Name: "First Actor", DeathYear: 1990},
		{PersonID: "nm0000002", Name: "Second Actor", DeathYear: 1991},
	}

	results := bp.ProcessSubjects(context.Background(), subjects)

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Error != nil {
			t.Errorf("Expected no error for %s, got %v", r.Subject.PersonID, r.Error)
		}
	}

	if len(writer.written) != 2 {
		t.Errorf("Expected 2 writes, got %d", len(writer.written))
	}
	if len(writer.invalidated) != 2 {
		t.Errorf("Expected 2 cache invalidations, got %d", len(writer.invalidated))
	}
}

func TestProcessSubjectsSkipsPersistenceOnFailure(t *testing.T) {
	enricher := &stubEnricher{fail: map[string]bool{"nm0000002": true}}
	writer := &recordingWriter{}
	bp := NewBatchProcessor(enricher, writer, 1, zerolog.Nop())

	subjects := []*model.Subject{
		{PersonID: "nm0000001", Name: "First Actor"},
		{PersonID: "nm0000002", Name: "Second Actor"},
	}

	results := bp.ProcessSubjects(context.Background(), subjects)

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("Expected 1 failed result, got %d", failed)
	}

	if len(writer.written) != 1 {
		t.Errorf("Expected 1 write, got %d", len(writer.written))
	}
	if writer.written[0] != "nm0000001" {
		t.Errorf("Expected write for nm0000001, got %s", writer.written[0])
	}
}

func TestProcessSubjectsPersistFailureNotFatal(t *testing.T) {
	enricher := &stubEnricher{}
	writer := &recordingWriter{writeErr: errors.New("db unavailable")}
	bp := NewBatchProcessor(enricher, writer, 1, zerolog.Nop())

	results := bp.ProcessSubjects(context.Background(), []*model.Subject{
		{PersonID: "nm0000001", Name: "First Actor"},
	})

	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].Error != nil {
		t.Errorf("Expected persistence failure to stay out of the result, got %v", results[0].Error)
	}
	if len(writer.invalidated) != 0 {
		t.Errorf("Expected no invalidation after failed write, got %d", len(writer.invalidated))
	}
}

func TestProcessSubjectsEmptyInput(t *testing.T) {
	bp := NewBatchProcessor(&stubEnricher{}, nil, 2, zerolog.Nop())

	results := bp.ProcessSubjects(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("Expected no results, got %d", len(results))
	}
}

func TestReadSubjectsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subjects.jsonl")
	content := `# deceased actors pending enrichment
{"person_id":"nm0000001","name":"First Actor","death_year":1990}

{"person_id":"nm0000002","name":"Second Actor","death_year":1991}
{"person_id":"nm0000001","name":"First Actor Again","death_year":1990}
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	subjects, err := ReadSubjectsFromFile(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(subjects) != 2 {
		t.Fatalf("Expected 2 subjects after dedupe, got %d", len(subjects))
	}
	if subjects[0].PersonID != "nm0000001" || subjects[1].PersonID != "nm0000002" {
		t.Errorf("Expected nm0000001 then nm0000002, got %s and %s",
			subjects[0].PersonID, subjects[1].PersonID)
	}
	if subjects[0].Name != "First Actor" {
		t.Errorf("Expected first occurrence to win, got %q", subjects[0].Name)
	}
}

func TestReadSubjectsFromFileBadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subjects.jsonl")
	content := `{"person_id":"nm0000001","name":"First Actor"}
{not json}
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	_, err := ReadSubjectsFromFile(path)
	if err == nil {
		t.Fatal("Expected error for malformed line")
	}
	if got := err.Error(); !strings.Contains(got, "line 2") {
		t.Errorf("Expected error to name line 2, got %q", got)
	}
}

func TestReadSubjectsFromFileMissing(t *testing.T) {
	_, err := ReadSubjectsFromFile(filepath.Join(t.TempDir(), "nope.jsonl"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
}
