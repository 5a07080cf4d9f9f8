package enrich

import (
	"encoding/json"
	"time"

	"github.com/deadonfilm/deadonfilm/internal/cache"
	"github.com/deadonfilm/deadonfilm/internal/source"
)

type blockRecord struct {
	Provider   string    `json:"provider"`
	URL        string    `json:"url"`
	StatusCode int       `json:"status_code"`
	BlockedAt  time.Time `json:"blocked_at"`
}

// BlockRecorder remembers which providers refused access so later runs
// skip them for a cooldown window instead of hammering a gate that just
// slammed shut.
type BlockRecorder struct {
	store    cache.Cache
	cooldown time.Duration
}

func NewBlockRecorder(store cache.Cache, cooldown time.Duration) *BlockRecorder {
	if cooldown <= 0 {
		cooldown = 6 * time.Hour
	}
	return &BlockRecorder{store: store, cooldown: cooldown}
}

// Record stores a block against the provider for the cooldown window.
func (b *BlockRecorder) Record(blocked *source.BlockedError) {
	rec := blockRecord{
		Provider:   blocked.Provider,
		URL:        blocked.URL,
		StatusCode: blocked.StatusCode,
		BlockedAt:  time.Now().UTC(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	_ = b.store.Set(cache.BlockKey(blocked.Provider), data, b.cooldown)
}

// IsBlocked reports whether the provider is inside a cooldown window.
func (b *BlockRecorder) IsBlocked(provider string) bool {
	_, found := b.store.Get(cache.BlockKey(provider))
	return found
}

// Clear lifts a provider's cooldown early.
func (b *BlockRecorder) Clear(provider string) {
	_ = b.store.Delete(cache.BlockKey(provider))
}
