package enrich

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/deadonfilm/deadonfilm/internal/cache"
	"github.com/deadonfilm/deadonfilm/internal/fetch"
	"github.com/deadonfilm/deadonfilm/internal/follow"
	"github.com/deadonfilm/deadonfilm/internal/llm"
	"github.com/deadonfilm/deadonfilm/internal/model"
	"github.com/deadonfilm/deadonfilm/internal/source"
	"github.com/deadonfilm/deadonfilm/internal/util"
)

// Engine owns the fully-wired enrichment stack: fetchers, caches, the
// link follower, the adapter registry, and the orchestrator driving it.
type Engine struct {
	*Orchestrator

	Pages   *fetch.Manager
	Blocked *BlockRecorder
	Store   cache.Cache
}

// New assembles an Engine from configuration. An error here is fatal
// misconfiguration (an LLM provider that cannot be built); anything
// transient is the orchestrator's problem at run time.
func New(cfg *model.Config, store cache.Cache, observer Observer, log zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if store == nil {
		store = cache.NewMemoryCache(cfg.Providers.BlockCooldown, cfg.Providers.BlockCooldown)
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("build llm provider: %w", err)
	}

	robots := util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout)
	direct := fetch.NewDirect(cfg.HTTP, robots)
	archive := fetch.NewArchive(direct)

	var browser fetch.Browser
	var rodBrowser *fetch.RodBrowser
	if cfg.Enrichment.BrowserFetch.Enabled {
		rodBrowser = fetch.NewRodBrowser(cfg.Enrichment.BrowserFetch.NavTimeout, cfg.HTTP.UserAgent)
		browser = rodBrowser
	}

	pages := fetch.NewManager(direct, browser, archive, store, cfg.Enrichment.BrowserFetch, log)

	// The integrated paywalled outlet gets an authenticated session when
	// credentials are configured. Login runs through the headless
	// browser, so without it the outlet stays on the archive path.
	if p := cfg.Providers; rodBrowser != nil && p.PaywallUser != "" && p.PaywallPassword != "" {
		session := fetch.NewSessionManager(store, direct, rodBrowser,
			"newspapers.com", "https://www.newspapers.com/signin/",
			p.PaywallUser, p.PaywallPassword, p.SessionTTL, log)
		pages.RegisterSession(session)
	}

	selector := follow.NewSelector(provider, cfg.Enrichment.AILinkSelection, log)
	extractor := follow.NewExtractor(provider, cfg.Enrichment.AIContentExtraction, log)
	follower := follow.NewFollower(selector, pages, extractor, cfg.Enrichment, cfg.Concurrency.FetchWorkers, log)

	registry := source.NewRegistry(source.Deps{
		Direct:   direct,
		Pages:    pages,
		Follower: follower,
		LLM:      provider,
		Config:   cfg,
		Log:      log,
	})

	blocked := NewBlockRecorder(store, cfg.Providers.BlockCooldown)
	orch := NewOrchestrator(registry, blocked, observer, cfg.Enrichment, cfg.Concurrency.TierWorkers, log)

	return &Engine{
		Orchestrator: orch,
		Pages:        pages,
		Blocked:      blocked,
		Store:        store,
	}, nil
}
