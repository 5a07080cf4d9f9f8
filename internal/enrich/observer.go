// Package enrich drives the multi-source enrichment of one subject: a
// three-tier walk over the adapter registry, confidence-based merging,
// budget enforcement, and the audit trail of every source consulted.
package enrich

import (
	"time"

	"github.com/deadonfilm/deadonfilm/internal/source"
)

// EventKind tags a progress event.
type EventKind string

const (
	EventTierStart    EventKind = "tier_start"
	EventTierDone     EventKind = "tier_done"
	EventSourceDone   EventKind = "source_done"
	EventSourceBlock  EventKind = "source_blocked"
	EventStopEarly    EventKind = "stop_early"
	EventBudgetSpent  EventKind = "budget_spent"
	EventSubjectDone  EventKind = "subject_done"
)

// Event is one progress notification from an enrichment run.
type Event struct {
	Kind       EventKind
	Subject    string
	Tier       source.CostTier
	Source     string
	Confidence float64
	Cost       float64
	Err        string
	At         time.Time
}

// Observer receives progress events. Implementations must be fast or
// internally buffered; the orchestrator drops events rather than wait.
type Observer interface {
	Observe(Event)
}

// ChannelObserver adapts a channel to the Observer interface with a
// non-blocking send, so a slow or absent consumer can never stall the
// pipeline.
type ChannelObserver struct {
	C chan Event
}

// NewChannelObserver returns an observer buffering up to size events.
func NewChannelObserver(size int) *ChannelObserver {
	if size <= 0 {
		size = 64
	}
	return &ChannelObserver{C: make(chan Event, size)}
}

func (o *ChannelObserver) Observe(ev Event) {
	select {
	case o.C <- ev:
	default:
	}
}

// nopObserver is used when the caller wires no observer.
type nopObserver struct{}

func (nopObserver) Observe(Event) {}
