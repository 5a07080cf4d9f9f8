package source

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/deadonfilm/deadonfilm/internal/fetch"
	"github.com/deadonfilm/deadonfilm/internal/llm"
	"github.com/deadonfilm/deadonfilm/internal/model"
)

// Deps carries the shared collaborators adapters are built from.
type Deps struct {
	Direct   *fetch.Direct
	Pages    *fetch.Manager
	Follower LinkFollower
	LLM      llm.Provider // nil when AI is disabled
	Config   *model.Config
	Log      zerolog.Logger
}

// Registry holds every constructed adapter, grouped by cost tier for the
// orchestrator's tier walk.
type Registry struct {
	adapters []Adapter
}

// NewRegistry builds the full adapter set. Adapters behind missing
// credentials still get constructed; Available gates them at run time.
func NewRegistry(deps Deps) *Registry {
	cfg := deps.Config
	llmModel := cfg.LLM.Model

	adapters := []Adapter{
		// Free tier.
		newWikipediaAdapter(deps.Direct),
		newBritannicaAdapter(deps.Pages),
		newFindAGraveAdapter(deps.Direct, deps.Pages),
		newLegacyAdapter(deps.Direct, deps.Pages),
		newTributesAdapter(deps.Direct, deps.Pages),
		newDuckDuckGoAdapter(deps.Direct, deps.Follower),
		newGoogleNewsAdapter(deps.Direct, deps.Follower),
		newBingNewsAdapter(deps.Direct, deps.Follower),
		newChroniclingAdapter(deps.Direct),
		newWaybackAdapter(deps.Direct, deps.Pages),
		newScreenCreditsAdapter(deps.Direct, func() string { return cfg.Providers.TMDBAPIKey }),

		// Paid tier.
		newNewspapersAdapter(deps.Direct, func() string { return cfg.Providers.NewspapersAPIKey }),
		newGenealogyBankAdapter(deps.Direct, func() string { return cfg.Providers.GenealogyAPIKey }),
		newNewsBankAdapter(deps.Direct, func() string { return cfg.Providers.NewsbankAPIKey }),

		// AI tier.
		newAIWebSearchAdapter(deps.LLM, llmModel, deps.Follower),
		newAIKnowledgeAdapter(deps.LLM, llmModel),
	}

	return &Registry{adapters: adapters}
}

// NewStaticRegistry wraps a fixed adapter set. Embedders with their own
// providers use it instead of the full construction above.
func NewStaticRegistry(adapters ...Adapter) *Registry {
	return &Registry{adapters: adapters}
}

// All returns every adapter in registration order.
func (r *Registry) All() []Adapter {
	return r.adapters
}

// Tier returns the adapters of one cost tier, most reliable first.
// Within a reliability tier registration order breaks the tie, so the
// walk is deterministic.
func (r *Registry) Tier(tier CostTier) []Adapter {
	var out []Adapter
	for _, a := range r.adapters {
		if a.CostTier() == tier {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReliabilityTier() < out[j].ReliabilityTier()
	})
	return out
}
