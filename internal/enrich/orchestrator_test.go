package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/deadonfilm/deadonfilm/internal/cache"
	"github.com/deadonfilm/deadonfilm/internal/model"
	"github.com/deadonfilm/deadonfilm/internal/source"
	"github.com/deadonfilm/deadonfilm/internal/verify"
)

// fakeAdapter returns a canned outcome and counts invocations.
type fakeAdapter struct {
	name     string
	costTier source.CostTier
	tier     model.ReliabilityTier
	cost     float64
	outcome  source.Outcome
	calls    int
}

func (f *fakeAdapter) Name() string                           { return f.name }
func (f *fakeAdapter) Provider() model.ProviderType           { return model.ProviderEncyclopedia }
func (f *fakeAdapter) CostTier() source.CostTier              { return f.costTier }
func (f *fakeAdapter) Free() bool                             { return f.costTier == source.CostTierFree }
func (f *fakeAdapter) EstimatedCost() float64                 { return f.cost }
func (f *fakeAdapter) ReliabilityTier() model.ReliabilityTier { return f.tier }
func (f *fakeAdapter) Available() bool                        { return true }

func (f *fakeAdapter) Lookup(ctx context.Context, subject *model.Subject) source.Outcome {
	f.calls++
	return f.outcome
}

func okOutcome(name string, tier model.ReliabilityTier, confidence, cost float64) source.Outcome {
	return source.Outcome{
		Entry: model.SourceEntry{
			Name:       name,
			Tier:       tier,
			Confidence: confidence,
			Cost:       cost,
			Succeeded:  true,
		},
		Result: &model.ExtractionResult{
			Circumstances: "He died at home, source " + name + ".",
			Confidence:    confidence,
			Cost:          cost,
		},
		Status: source.StatusOK,
	}
}

func failedOutcome(name string) source.Outcome {
	return source.Outcome{
		Entry:  model.SourceEntry{Name: name, Error: "no death information found"},
		Status: source.StatusFailed,
	}
}

func blockedOutcome(name string) source.Outcome {
	blocked := &source.BlockedError{Provider: name, URL: "https://example.org", StatusCode: 403}
	return source.Outcome{
		Entry:   model.SourceEntry{Name: name, Error: blocked.Error()},
		Status:  source.StatusBlocked,
		Blocked: blocked,
	}
}

func testConfig() model.EnrichmentConfig {
	return model.EnrichmentConfig{
		Enabled:          true,
		MaxLinksPerActor: 5,
		MaxCostPerActor:  0.25,
		StopConfidence:   0.75,
	}
}

func newTestOrchestrator(cfg model.EnrichmentConfig, adapters ...source.Adapter) (*Orchestrator, *BlockRecorder) {
	store := cache.NewMemoryCache(time.Minute, time.Minute)
	blocked := NewBlockRecorder(store, time.Minute)
	registry := source.NewStaticRegistry(adapters...)
	return NewOrchestrator(registry, blocked, nil, cfg, 2, zerolog.Nop()), blocked
}

func subject() *model.Subject {
	return &model.Subject{PersonID: "nm0000001", Name: "Peter Lorre", DeathYear: 1964}
}

func TestOrchestrator_ZeroBudgetNeverLeavesFreeTier(t *testing.T) {
	free := &fakeAdapter{name: "free", costTier: source.CostTierFree, tier: model.TierPrimary,
		outcome: okOutcome("free", model.TierPrimary, 0.8, 0)}
	paid := &fakeAdapter{name: "paid", costTier: source.CostTierPaid, tier: model.TierPrimary,
		outcome: okOutcome("paid", model.TierPrimary, 0.9, 0.02)}
	ai := &fakeAdapter{name: "ai", costTier: source.CostTierAI, tier: model.TierTertiary,
		outcome: okOutcome("ai", model.TierTertiary, 0.9, 0.05)}

	cfg := testConfig()
	cfg.MaxCostPerActor = 0

	orch, _ := newTestOrchestrator(cfg, free, paid, ai)
	enr, err := orch.Enrich(context.Background(), subject())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if free.calls != 1 {
		t.Errorf("Expected the free adapter to run, got %d calls", free.calls)
	}
	if paid.calls != 0 || ai.calls != 0 {
		t.Errorf("Expected paid/AI tiers never invoked at zero budget, got paid=%d ai=%d", paid.calls, ai.calls)
	}
	if enr.Confidence != 0.8 {
		t.Errorf("Expected the free result kept, got confidence %v", enr.Confidence)
	}
}

func TestOrchestrator_StopConfidenceSkipsLaterTiers(t *testing.T) {
	free := &fakeAdapter{name: "free", costTier: source.CostTierFree, tier: model.TierPrimary,
		outcome: okOutcome("free", model.TierPrimary, 0.8, 0)}
	paid := &fakeAdapter{name: "paid", costTier: source.CostTierPaid, tier: model.TierPrimary,
		outcome: okOutcome("paid", model.TierPrimary, 0.9, 0.02)}

	cfg := testConfig() // stop at 0.75, budget 0.25

	orch, _ := newTestOrchestrator(cfg, free, paid)
	enr, err := orch.Enrich(context.Background(), subject())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if paid.calls != 0 {
		t.Errorf("Expected paid tier skipped once confidence reached 0.8, got %d calls", paid.calls)
	}
	if enr.Confidence != 0.8 {
		t.Errorf("Expected confidence 0.8, got %v", enr.Confidence)
	}
}

func TestOrchestrator_EscalatesWhenConfidenceLow(t *testing.T) {
	free := &fakeAdapter{name: "free", costTier: source.CostTierFree, tier: model.TierPrimary,
		outcome: okOutcome("free", model.TierPrimary, 0.3, 0)}
	paid := &fakeAdapter{name: "paid", costTier: source.CostTierPaid, tier: model.TierPrimary,
		outcome: okOutcome("paid", model.TierPrimary, 0.85, 0.02)}

	orch, _ := newTestOrchestrator(testConfig(), free, paid)
	enr, err := orch.Enrich(context.Background(), subject())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if paid.calls != 1 {
		t.Errorf("Expected the paid tier to run, got %d calls", paid.calls)
	}
	if enr.Confidence != 0.85 {
		t.Errorf("Expected the paid result to win, got %v", enr.Confidence)
	}
	if enr.TotalCost != 0.02 {
		t.Errorf("Expected total cost 0.02, got %v", enr.TotalCost)
	}
}

func TestOrchestrator_EqualConfidenceBetterTierWins(t *testing.T) {
	tertiary := &fakeAdapter{name: "websearch", costTier: source.CostTierFree, tier: model.TierTertiary,
		outcome: okOutcome("websearch", model.TierTertiary, 0.5, 0)}
	primary := &fakeAdapter{name: "encyclopedia", costTier: source.CostTierFree, tier: model.TierPrimary,
		outcome: okOutcome("encyclopedia", model.TierPrimary, 0.5, 0)}

	// Registration order puts the tertiary source first; the tie must
	// still go to the more reliable tier.
	orch, _ := newTestOrchestrator(testConfig(), tertiary, primary)
	enr, err := orch.Enrich(context.Background(), subject())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if enr.Result == nil || enr.Result.Circumstances != "He died at home, source encyclopedia." {
		t.Errorf("Expected the primary-tier result to win the tie, got %+v", enr.Result)
	}
}

func TestOrchestrator_BlockedProviderRecordedWithoutAborting(t *testing.T) {
	blocked := &fakeAdapter{name: "walled", costTier: source.CostTierFree, tier: model.TierPrimary,
		outcome: blockedOutcome("walled")}
	healthy := &fakeAdapter{name: "healthy", costTier: source.CostTierFree, tier: model.TierSecondary,
		outcome: okOutcome("healthy", model.TierSecondary, 0.6, 0)}

	orch, recorder := newTestOrchestrator(testConfig(), blocked, healthy)
	enr, err := orch.Enrich(context.Background(), subject())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if healthy.calls != 1 {
		t.Errorf("Expected the healthy adapter to still run, got %d calls", healthy.calls)
	}
	if !recorder.IsBlocked("walled") {
		t.Error("Expected the block recorded for the cooldown window")
	}
	if len(enr.Sources) != 2 {
		t.Errorf("Expected both lookups in the audit trail, got %d", len(enr.Sources))
	}
	if enr.Confidence != 0.6 {
		t.Errorf("Expected the healthy result kept, got %v", enr.Confidence)
	}
}

func TestOrchestrator_BlockedProviderSkippedOnLaterRuns(t *testing.T) {
	walled := &fakeAdapter{name: "walled", costTier: source.CostTierFree, tier: model.TierPrimary,
		outcome: blockedOutcome("walled")}

	orch, _ := newTestOrchestrator(testConfig(), walled)

	if _, err := orch.Enrich(context.Background(), subject()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := orch.Enrich(context.Background(), subject()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if walled.calls != 1 {
		t.Errorf("Expected the blocked provider skipped on the second run, got %d calls", walled.calls)
	}
}

func TestOrchestrator_FailedLookupsRetainedInAudit(t *testing.T) {
	failing := &fakeAdapter{name: "failing", costTier: source.CostTierFree, tier: model.TierPrimary,
		outcome: failedOutcome("failing")}
	healthy := &fakeAdapter{name: "healthy", costTier: source.CostTierFree, tier: model.TierSecondary,
		outcome: okOutcome("healthy", model.TierSecondary, 0.4, 0)}

	orch, _ := newTestOrchestrator(testConfig(), failing, healthy)
	enr, err := orch.Enrich(context.Background(), subject())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(enr.Sources) != 2 {
		t.Fatalf("Expected 2 audit entries, got %d", len(enr.Sources))
	}

	foundFailure := false
	for _, s := range enr.Sources {
		if s.Name == "failing" && !s.Succeeded && s.Confidence == 0 {
			foundFailure = true
		}
	}
	if !foundFailure {
		t.Errorf("Expected the failed lookup retained with confidence 0, got %+v", enr.Sources)
	}
}

func TestOrchestrator_DisabledReturnsEmpty(t *testing.T) {
	free := &fakeAdapter{name: "free", costTier: source.CostTierFree, tier: model.TierPrimary,
		outcome: okOutcome("free", model.TierPrimary, 0.8, 0)}

	cfg := testConfig()
	cfg.Enabled = false

	orch, _ := newTestOrchestrator(cfg, free)
	enr, err := orch.Enrich(context.Background(), subject())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if free.calls != 0 {
		t.Errorf("Expected no lookups when disabled, got %d", free.calls)
	}
	if enr.Result != nil || len(enr.Sources) != 0 {
		t.Errorf("Expected an empty enrichment, got %+v", enr)
	}
}

func TestOrchestrator_RejectsNamelessSubject(t *testing.T) {
	orch, _ := newTestOrchestrator(testConfig())

	if _, err := orch.Enrich(context.Background(), &model.Subject{}); err == nil {
		t.Error("Expected an error for a subject with no name")
	}
}

func TestOrchestrator_VerdictFromDateAgreement(t *testing.T) {
	agree := &fakeAdapter{name: "agree", costTier: source.CostTierFree, tier: model.TierPrimary,
		outcome: func() source.Outcome {
			o := okOutcome("agree", model.TierPrimary, 0.8, 0)
			o.Result.DateOfDeath = "1964-03-23"
			return o
		}()}

	orch, _ := newTestOrchestrator(testConfig(), agree)
	enr, err := orch.Enrich(context.Background(), subject())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if enr.Verdict != model.VerdictVerified {
		t.Errorf("Expected verified verdict for an agreeing date, got %v", enr.Verdict)
	}
	if !enr.Corroborated {
		t.Error("Expected corroboration when the stored record agrees")
	}

	conflict := &fakeAdapter{name: "conflict", costTier: source.CostTierFree, tier: model.TierPrimary,
		outcome: func() source.Outcome {
			o := okOutcome("conflict", model.TierPrimary, 0.8, 0)
			o.Result.DateOfDeath = "1971-06-01"
			return o
		}()}

	orch, _ = newTestOrchestrator(testConfig(), conflict)
	enr, err = orch.Enrich(context.Background(), subject())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if enr.Verdict != model.VerdictConflicting {
		t.Errorf("Expected conflicting verdict for a disagreeing date, got %v", enr.Verdict)
	}
}

// externalVerdicts stands in for real knowledge-graph and dataset
// clients wired through UseVerdictSource.
type externalVerdicts struct {
	graph   verify.GraphVerdict
	dataset verify.DatasetCheck
}

func (v externalVerdicts) Graph(*model.Subject, *model.ExtractionResult) verify.GraphVerdict {
	return v.graph
}

func (v externalVerdicts) Dataset(*model.Subject, *model.ExtractionResult) verify.DatasetCheck {
	return v.dataset
}

func TestOrchestrator_InjectedVerdictSource(t *testing.T) {
	ok := &fakeAdapter{name: "ok", costTier: source.CostTierFree, tier: model.TierPrimary,
		outcome: okOutcome("ok", model.TierPrimary, 0.8, 0)}

	// The graph has nothing, but the bulk dataset confirms the year:
	// only an independent secondary signal can produce this verdict.
	orch, _ := newTestOrchestrator(testConfig(), ok)
	orch.UseVerdictSource(externalVerdicts{
		graph:   verify.GraphUnverified,
		dataset: verify.DatasetCheck{Found: true, HasDeathYear: true, YearMatches: true},
	})

	enr, err := orch.Enrich(context.Background(), subject())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if enr.Verdict != model.VerdictSecondaryVerified {
		t.Errorf("Expected secondary-verified from the dataset signal, got %v", enr.Verdict)
	}

	// Dataset knows the person but records them alive.
	orch, _ = newTestOrchestrator(testConfig(), ok)
	orch.UseVerdictSource(externalVerdicts{
		graph:   verify.GraphUnverified,
		dataset: verify.DatasetCheck{Found: true},
	})

	enr, err = orch.Enrich(context.Background(), subject())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if enr.Verdict != model.VerdictSuspicious {
		t.Errorf("Expected suspicious when the dataset records the person alive, got %v", enr.Verdict)
	}
}
