package enrich

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/deadonfilm/deadonfilm/internal/model"
	"github.com/deadonfilm/deadonfilm/internal/source"
	"github.com/deadonfilm/deadonfilm/internal/verify"
	"github.com/deadonfilm/deadonfilm/internal/worker"
)

// tierOrder is the fixed cost escalation. Cheaper tiers always run
// first so the budget and stop-early checks can short-circuit the
// expensive ones.
var tierOrder = []source.CostTier{source.CostTierFree, source.CostTierPaid, source.CostTierAI}

// Enrichment is what one run produces: the winning merged result, the
// complete audit trail, and the money it took to get there.
type Enrichment struct {
	Result       *model.ExtractionResult `json:"result,omitempty"`
	Sources      []model.SourceEntry     `json:"sources"`
	TotalCost    float64                 `json:"total_cost"`
	Confidence   float64                 `json:"confidence"`
	Verdict      model.Verdict           `json:"verdict"`
	Corroborated bool                    `json:"corroborated"`
	Elapsed      time.Duration           `json:"elapsed"`
}

// VerdictSource supplies the two independent death-record cross-checks
// fused into the final verdict: a knowledge-graph style primary signal
// and a bulk person-dataset secondary. The default derives both from
// the subject's stored record; callers with real graph or dataset
// clients plug them in via UseVerdictSource.
type VerdictSource interface {
	Graph(subject *model.Subject, best *model.ExtractionResult) verify.GraphVerdict
	Dataset(subject *model.Subject, best *model.ExtractionResult) verify.DatasetCheck
}

// Orchestrator walks the registry tier by tier and merges adapter
// outcomes by confidence.
type Orchestrator struct {
	registry *source.Registry
	blocked  *BlockRecorder
	observer Observer
	verdicts VerdictSource
	cfg      model.EnrichmentConfig
	workers  int
	log      zerolog.Logger
}

func NewOrchestrator(registry *source.Registry, blocked *BlockRecorder, observer Observer, cfg model.EnrichmentConfig, workers int, log zerolog.Logger) *Orchestrator {
	if observer == nil {
		observer = nopObserver{}
	}
	if workers <= 0 {
		workers = 4
	}
	return &Orchestrator{
		registry: registry,
		blocked:  blocked,
		observer: observer,
		verdicts: recordVerdicts{},
		cfg:      cfg,
		workers:  workers,
		log:      log,
	}
}

// UseVerdictSource replaces the default record-derived cross-checks.
func (o *Orchestrator) UseVerdictSource(v VerdictSource) {
	if v != nil {
		o.verdicts = v
	}
}

// lookupJob runs one adapter lookup on the tier pool. It carries the
// run context because the pool's own context only governs shutdown.
type lookupJob struct {
	ctx     context.Context
	index   int
	adapter source.Adapter
	subject *model.Subject
}

type lookupResult struct {
	index   int
	adapter source.Adapter
	outcome source.Outcome
}

func (r *lookupResult) GetError() error {
	if r.outcome.Status == source.StatusOK {
		return nil
	}
	return errors.New(r.outcome.Entry.Error)
}

func (j *lookupJob) Execute(_ context.Context) worker.Result {
	return &lookupResult{
		index:   j.index,
		adapter: j.adapter,
		outcome: j.adapter.Lookup(j.ctx, j.subject),
	}
}

// Enrich runs the full tier walk for one subject. It always returns an
// Enrichment, however empty; the only errors are fatal misconfiguration.
func (o *Orchestrator) Enrich(ctx context.Context, subject *model.Subject) (*Enrichment, error) {
	if subject == nil || subject.Name == "" {
		return nil, errors.New("enrich: subject must have a name")
	}
	if !o.cfg.Enabled {
		return &Enrichment{Verdict: model.VerdictUnverified}, nil
	}

	start := time.Now()
	enr := &Enrichment{}
	var best *model.ExtractionResult
	var bestTier model.ReliabilityTier

	for i, tier := range tierOrder {
		if i > 0 {
			if enr.TotalCost >= o.cfg.MaxCostPerActor {
				o.emit(Event{Kind: EventBudgetSpent, Subject: subject.PersonID, Tier: tier, Cost: enr.TotalCost})
				break
			}
			if best != nil && o.cfg.StopConfidence > 0 && best.Confidence >= o.cfg.StopConfidence {
				o.emit(Event{Kind: EventStopEarly, Subject: subject.PersonID, Tier: tier, Confidence: best.Confidence})
				break
			}
		}

		adapters := o.runnable(tier)
		if len(adapters) == 0 {
			continue
		}
		o.emit(Event{Kind: EventTierStart, Subject: subject.PersonID, Tier: tier})

		tierCost := 0.0
		for _, res := range o.runTier(ctx, adapters, subject) {
			out := res.outcome
			enr.Sources = append(enr.Sources, out.Entry)
			tierCost += out.Entry.Cost

			switch out.Status {
			case source.StatusBlocked:
				if o.blocked != nil {
					o.blocked.Record(out.Blocked)
				}
				o.log.Warn().Str("source", out.Entry.Name).Str("subject", subject.Name).
					Int("status", out.Blocked.StatusCode).Msg("provider blocked access")
				o.emit(Event{Kind: EventSourceBlock, Subject: subject.PersonID, Tier: tier, Source: out.Entry.Name, Err: out.Entry.Error})

			case source.StatusOK:
				if better(out, best, bestTier) {
					best = out.Result
					bestTier = res.adapter.ReliabilityTier()
				}
				o.emit(Event{Kind: EventSourceDone, Subject: subject.PersonID, Tier: tier, Source: out.Entry.Name, Confidence: out.Entry.Confidence, Cost: out.Entry.Cost})

			default:
				o.log.Debug().Str("source", out.Entry.Name).Str("subject", subject.Name).
					Str("error", out.Entry.Error).Msg("lookup failed")
				o.emit(Event{Kind: EventSourceDone, Subject: subject.PersonID, Tier: tier, Source: out.Entry.Name, Err: out.Entry.Error})
			}
		}

		enr.TotalCost += tierCost
		o.emit(Event{Kind: EventTierDone, Subject: subject.PersonID, Tier: tier, Cost: tierCost})
	}

	enr.Result = best
	if best != nil {
		enr.Confidence = best.Confidence
	}
	enr.Verdict, enr.Corroborated = o.verdict(subject, best)
	enr.Elapsed = time.Since(start)

	o.emit(Event{Kind: EventSubjectDone, Subject: subject.PersonID, Confidence: enr.Confidence, Cost: enr.TotalCost, At: time.Now()})
	o.log.Info().Str("subject", subject.Name).
		Float64("confidence", enr.Confidence).
		Float64("cost", enr.TotalCost).
		Int("sources", len(enr.Sources)).
		Str("verdict", string(enr.Verdict)).
		Dur("elapsed", enr.Elapsed).
		Msg("enrichment complete")

	return enr, nil
}

func (o *Orchestrator) emit(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	o.observer.Observe(ev)
}

// runnable filters a tier down to adapters that are configured and not
// sitting out a block cooldown.
func (o *Orchestrator) runnable(tier source.CostTier) []source.Adapter {
	var out []source.Adapter
	for _, a := range o.registry.Tier(tier) {
		if !a.Available() {
			continue
		}
		if o.blocked != nil && o.blocked.IsBlocked(a.Name()) {
			o.log.Debug().Str("source", a.Name()).Msg("skipping blocked provider")
			continue
		}
		out = append(out, a)
	}
	return out
}

// runTier fans the tier's lookups out on a worker pool and returns the
// outcomes in submission order, so merging is deterministic.
func (o *Orchestrator) runTier(ctx context.Context, adapters []source.Adapter, subject *model.Subject) []*lookupResult {
	pool := worker.NewPool(o.workers)
	pool.Start()
	for i, a := range adapters {
		pool.Submit(&lookupJob{ctx: ctx, index: i, adapter: a, subject: subject})
	}

	raw := pool.Wait()
	results := make([]*lookupResult, 0, len(raw))
	for _, r := range raw {
		if lr, ok := r.(*lookupResult); ok {
			results = append(results, lr)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].index < results[j].index })
	return results
}

// better decides whether a successful outcome displaces the current
// winner: strictly higher confidence, or the same confidence from a
// more reliable tier.
func better(out source.Outcome, best *model.ExtractionResult, bestTier model.ReliabilityTier) bool {
	if best == nil {
		return true
	}
	if out.Entry.Confidence > best.Confidence {
		return true
	}
	return out.Entry.Confidence == best.Confidence && out.Entry.Tier < bestTier
}

// verdict fuses the configured cross-check signals for the winning
// result.
func (o *Orchestrator) verdict(subject *model.Subject, best *model.ExtractionResult) (model.Verdict, bool) {
	return verify.Combine(o.verdicts.Graph(subject, best), o.verdicts.Dataset(subject, best))
}

// recordVerdicts derives both cross-checks from the subject's stored
// record, the fallback when no external graph or dataset client is
// wired in.
type recordVerdicts struct{}

func (recordVerdicts) Graph(subject *model.Subject, best *model.ExtractionResult) verify.GraphVerdict {
	if best == nil || len(best.DateOfDeath) < 4 || subject.DeathYear <= 0 {
		return verify.GraphUnverified
	}
	if best.DateOfDeath[:4] == strconv.Itoa(subject.DeathYear) {
		return verify.GraphVerified
	}
	return verify.GraphConflicting
}

func (recordVerdicts) Dataset(subject *model.Subject, best *model.ExtractionResult) verify.DatasetCheck {
	check := verify.DatasetCheck{
		Found:        subject.PersonID != "",
		HasDeathYear: subject.DeathYear > 0,
	}
	if best != nil && len(best.DateOfDeath) >= 4 && subject.DeathYear > 0 {
		check.YearMatches = best.DateOfDeath[:4] == strconv.Itoa(subject.DeathYear)
	}
	return check
}
