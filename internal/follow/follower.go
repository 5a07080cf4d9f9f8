package follow

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/deadonfilm/deadonfilm/internal/model"
)

// PageFetcher retrieves one page through the escalating strategy chain.
type PageFetcher interface {
	Page(ctx context.Context, rawURL string) model.FetchedPage
}

// Follower composes the select → fetch → extract pipeline.
type Follower struct {
	selector  *Selector
	fetcher   PageFetcher
	extractor *Extractor
	cfg       model.EnrichmentConfig
	workers   int
	log       zerolog.Logger
}

// NewFollower creates the link follower.
func NewFollower(selector *Selector, fetcher PageFetcher, extractor *Extractor, cfg model.EnrichmentConfig, workers int, log zerolog.Logger) *Follower {
	if workers <= 0 {
		workers = 4
	}
	return &Follower{
		selector:  selector,
		fetcher:   fetcher,
		extractor: extractor,
		cfg:       cfg,
		workers:   workers,
		log:       log,
	}
}

// Follow runs the full pipeline for one subject's search results. It
// returns an empty result when disabled or given nothing, and aborts
// after selection if selection cost alone already reached the cap, so an
// expensive search never cascades into paid extraction.
func (f *Follower) Follow(ctx context.Context, subject *model.Subject, results []model.SearchResult) *model.ExtractionResult {
	if !f.cfg.Enabled || len(results) == 0 {
		return &model.ExtractionResult{}
	}

	sel := f.selector.Select(ctx, subject.Name, results, f.cfg.MaxLinksPerActor, f.cfg.BlockedDomains, f.cfg.AllowedDomains)
	if len(sel.URLs) == 0 {
		return &model.ExtractionResult{Cost: sel.Cost}
	}

	if sel.Cost > 0 && sel.Cost >= f.cfg.MaxCostPerActor {
		f.log.Warn().Float64("selection_cost", sel.Cost).Float64("cap", f.cfg.MaxCostPerActor).
			Msg("selection cost reached the per-subject cap, skipping fetch")
		return &model.ExtractionResult{Cost: sel.Cost}
	}

	pages := f.fetchAll(ctx, sel.URLs)

	res := f.extractor.Extract(ctx, subject, pages, f.cfg.MaxCostPerActor-sel.Cost)
	res.Cost += sel.Cost
	return res
}

// fetchAll retrieves the selected URLs concurrently, preserving order.
func (f *Follower) fetchAll(ctx context.Context, urls []string) []model.FetchedPage {
	pages := make([]model.FetchedPage, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)

	for i, u := range urls {
		g.Go(func() error {
			pages[i] = f.fetcher.Page(gctx, u)
			return nil
		})
	}

	// Workers never return errors; failed fetches surface as error pages.
	_ = g.Wait()

	return pages
}
