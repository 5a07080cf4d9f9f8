// Package source defines the uniform source-adapter contract and the
// concrete adapters for every data provider the enrichment engine
// consults. Adapters are stateless strategy instances constructed once
// and driven by the orchestrator; they share nothing but their own rate
// gate.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/deadonfilm/deadonfilm/internal/fetch"
	"github.com/deadonfilm/deadonfilm/internal/model"
)

// CostTier orders adapters by how expensive they are to run. The
// orchestrator drives tiers in this order and re-checks the budget
// between them.
type CostTier int

const (
	CostTierFree CostTier = iota // scrapers and free APIs
	CostTierPaid                 // paid archival APIs
	CostTierAI                   // AI-assisted web search
)

func (t CostTier) String() string {
	switch t {
	case CostTierFree:
		return "free"
	case CostTierPaid:
		return "paid"
	case CostTierAI:
		return "ai"
	default:
		return "unknown"
	}
}

// Status tags an adapter lookup outcome. The tagged variant replaces a
// throw-one-error-type convention with exhaustive, compiler-checked
// propagation.
type Status int

const (
	StatusOK Status = iota
	StatusBlocked
	StatusFailed
)

// BlockedError reports that a provider refused access. It carries enough
// detail for the caller to record provider-level blocking; it is the one
// failure that crosses the adapter boundary intact.
type BlockedError struct {
	Provider   string
	URL        string
	StatusCode int
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("access blocked by %s (status %d) at %s", e.Provider, e.StatusCode, e.URL)
}

// Outcome is the result of one adapter lookup. Entry is always populated
// for audit; Result is non-nil only for StatusOK.
type Outcome struct {
	Entry   model.SourceEntry
	Result  *model.ExtractionResult
	Status  Status
	Blocked *BlockedError // set iff Status == StatusBlocked
}

// Adapter is the uniform contract every provider implements.
type Adapter interface {
	Name() string
	Provider() model.ProviderType
	CostTier() CostTier
	Free() bool
	EstimatedCost() float64
	ReliabilityTier() model.ReliabilityTier
	Available() bool
	Lookup(ctx context.Context, subject *model.Subject) Outcome
}

// performFunc is the provider-specific lookup. It returns the extracted
// facts (nil or empty means not found), the source URL consulted, and an
// error for any failure.
type performFunc func(ctx context.Context, subject *model.Subject) (*model.ExtractionResult, string, error)

// adapter wraps a performFunc with the shared lookup discipline: a
// personal capacity-1 rate gate, a bounded timeout, the error taxonomy,
// and confidence scoring with a per-provider cap.
type adapter struct {
	name           string
	provider       model.ProviderType
	costTier       CostTier
	cost           float64 // estimated per-query cost, charged per attempt
	tier           model.ReliabilityTier
	baseConfidence float64
	confidenceCap  float64
	gate           *rate.Limiter
	timeout        time.Duration
	available      func() bool
	perform        performFunc
}

// newAdapter builds an adapter with a capacity-1 leaky-bucket gate: one
// call per minDelay, remembered as "earliest next call time".
func newAdapter(name string, provider model.ProviderType, costTier CostTier, cost float64, tier model.ReliabilityTier, baseConfidence, confidenceCap float64, minDelay, timeout time.Duration, available func() bool, perform performFunc) *adapter {
	return &adapter{
		name:           name,
		provider:       provider,
		costTier:       costTier,
		cost:           cost,
		tier:           tier,
		baseConfidence: baseConfidence,
		confidenceCap:  confidenceCap,
		gate:           rate.NewLimiter(rate.Every(minDelay), 1),
		timeout:        timeout,
		available:      available,
		perform:        perform,
	}
}

func (a *adapter) Name() string                          { return a.name }
func (a *adapter) Provider() model.ProviderType          { return a.provider }
func (a *adapter) CostTier() CostTier                    { return a.costTier }
func (a *adapter) Free() bool                            { return a.costTier == CostTierFree }
func (a *adapter) EstimatedCost() float64                { return a.cost }
func (a *adapter) ReliabilityTier() model.ReliabilityTier { return a.tier }

func (a *adapter) Available() bool {
	if a.available == nil {
		return true
	}
	return a.available()
}

// Lookup runs the provider lookup under the shared discipline. Blocked
// outcomes carry the typed error; every other failure is downgraded to a
// failed SourceEntry with confidence 0. Lookup never panics or returns a
// Go error.
func (a *adapter) Lookup(ctx context.Context, subject *model.Subject) Outcome {
	start := time.Now()
	entry := model.SourceEntry{
		Name:      a.name,
		Provider:  a.provider,
		Tier:      a.tier,
		Timestamp: start.UTC(),
	}

	if err := a.gate.Wait(ctx); err != nil {
		entry.Latency = time.Since(start)
		entry.Error = fmt.Sprintf("rate gate: %v", err)
		return Outcome{Entry: entry, Status: StatusFailed}
	}

	lctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	res, srcURL, err := a.perform(lctx, subject)

	entry.Latency = time.Since(start)
	entry.URL = srcURL
	// A paid call that was attempted costs money whether or not it
	// succeeded. Measured spend supersedes the static estimate; the two
	// are never summed.
	entry.Cost = a.cost
	if res != nil && res.Cost > 0 {
		entry.Cost = res.Cost
	}

	if err != nil {
		if blocked := asBlocked(a.name, err); blocked != nil {
			entry.Error = blocked.Error()
			if entry.URL == "" {
				entry.URL = blocked.URL
			}
			return Outcome{Entry: entry, Status: StatusBlocked, Blocked: blocked}
		}
		entry.Error = fmt.Sprintf("lookup failed: %v", err)
		return Outcome{Entry: entry, Status: StatusFailed}
	}

	if res.Empty() {
		entry.Error = "no death information found"
		return Outcome{Entry: entry, Status: StatusFailed}
	}

	entry.Succeeded = true
	entry.Confidence = scoreConfidence(a.baseConfidence, res, a.confidenceCap)
	res.Confidence = entry.Confidence
	res.Cost = entry.Cost

	return Outcome{Entry: entry, Result: res, Status: StatusOK}
}

// asBlocked normalizes block signals: either an explicit BlockedError
// from the provider code or a fetch-layer BlockError from a scrape.
func asBlocked(providerName string, err error) *BlockedError {
	var blocked *BlockedError
	if errors.As(err, &blocked) {
		if blocked.Provider == "" {
			blocked.Provider = providerName
		}
		return blocked
	}

	var fetchBlocked *fetch.BlockError
	if errors.As(err, &fetchBlocked) {
		return &BlockedError{
			Provider:   providerName,
			URL:        fetchBlocked.URL,
			StatusCode: fetchBlocked.StatusCode,
		}
	}

	return nil
}
