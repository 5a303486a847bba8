// Package pipeline orchestrates the listing → detail extraction run:
// acquire a rendering backend, fetch and extract the listing, fan out the
// detail fetches through the cache coordinator, assemble the final records,
// release the backend.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gatefeed/gatefeed/internal/cache"
	"github.com/gatefeed/gatefeed/internal/extract"
	"github.com/gatefeed/gatefeed/internal/logger"
	"github.com/gatefeed/gatefeed/internal/render"
)

// Error types surfaced to callers. Everything else degrades in place.
var (
	// ErrNoBackend indicates neither a browser session nor a remote
	// rendering service is configured.
	ErrNoBackend = errors.New("no fetch backend configured")
	// ErrListingFetch indicates the listing markup could not be obtained
	// by any configured path.
	ErrListingFetch = errors.New("listing fetch failed")
)

// state labels the pipeline's progress for logging.
type state string

const (
	stateSessionAcquiring state = "session_acquiring"
	stateListingFetching  state = "listing_fetching"
	stateExtracting       state = "extracting"
	stateDetailFetching   state = "detail_fetching"
	stateAssembling       state = "assembling"
	stateSessionReleasing state = "session_releasing"
	stateDone             state = "done"
	stateFailed           state = "failed"
)

// Backend produces a renderer for one pipeline run. Browser-backed
// implementations open a session here and release it when the returned
// renderer is closed.
type Backend func(ctx context.Context) (render.Renderer, error)

// Config holds pipeline tuning.
type Config struct {
	Concurrency    int           // concurrent detail fetches; default 4
	ListingTimeout time.Duration // listing render deadline; default 60s
	DetailTimeout  time.Duration // per-detail render deadline; default 60s
}

// DefaultConfig returns sensible pipeline defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:    4,
		ListingTimeout: 60 * time.Second,
		DetailTimeout:  60 * time.Second,
	}
}

// Pipeline runs the two-stage extraction for one site profile.
type Pipeline struct {
	backend Backend
	profile extract.Profile
	coord   *cache.Coordinator
	cfg     Config
}

// New creates a pipeline. backend may be nil when nothing is configured;
// Run then fails with ErrNoBackend before any network activity.
func New(backend Backend, profile extract.Profile, coord *cache.Coordinator, cfg Config) *Pipeline {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	if cfg.ListingTimeout <= 0 {
		cfg.ListingTimeout = DefaultConfig().ListingTimeout
	}
	if cfg.DetailTimeout <= 0 {
		cfg.DetailTimeout = DefaultConfig().DetailTimeout
	}
	return &Pipeline{
		backend: backend,
		profile: profile,
		coord:   coord,
		cfg:     cfg,
	}
}

// Run fetches the listing at listingURL and returns the enriched records in
// listing document order. Per-record detail failures degrade that record to
// its listing-derived fields; only a missing backend or a failed listing
// fetch fail the run.
func (p *Pipeline) Run(ctx context.Context, listingURL string) ([]extract.Article, error) {
	log := logger.With("site", p.profile.Name, "url", listingURL)

	log.Debug("pipeline state", "state", stateSessionAcquiring)
	if p.backend == nil {
		log.Debug("pipeline state", "state", stateFailed)
		return nil, ErrNoBackend
	}
	renderer, err := p.backend(ctx)
	if err != nil {
		log.Debug("pipeline state", "state", stateFailed)
		return nil, fmt.Errorf("%w: %v", ErrNoBackend, err)
	}
	defer func() {
		log.Debug("pipeline state", "state", stateSessionReleasing)
		if err := renderer.Close(); err != nil {
			log.Warn("backend release failed", "error", err)
		}
	}()

	log.Debug("pipeline state", "state", stateListingFetching, "renderer", renderer.Type())
	markup, err := renderer.Render(ctx, render.Target{
		URL:           listingURL,
		ReadySelector: p.profile.ReadySelector,
	}, p.cfg.ListingTimeout)
	if err != nil || markup == "" {
		log.Debug("pipeline state", "state", stateFailed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrListingFetch, err)
		}
		return nil, fmt.Errorf("%w: empty markup", ErrListingFetch)
	}

	log.Debug("pipeline state", "state", stateExtracting, "markup_size", len(markup))
	listed := extract.Listing(markup, p.profile)
	if len(listed) == 0 {
		// A matched-but-empty listing is a valid empty feed, not a failure.
		log.Info("listing yielded no records")
		log.Debug("pipeline state", "state", stateDone)
		return []extract.Article{}, nil
	}

	log.Debug("pipeline state", "state", stateDetailFetching, "records", len(listed))
	final := make([]extract.Article, len(listed))
	sem := make(chan struct{}, p.cfg.Concurrency)
	var wg sync.WaitGroup

	for i, article := range listed {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, a extract.Article) {
			defer wg.Done()
			defer func() { <-sem }()
			final[i] = p.enrich(ctx, renderer, a)
		}(i, article)
	}
	wg.Wait()

	log.Debug("pipeline state", "state", stateAssembling)
	log.Info("pipeline complete", "records", len(final))
	log.Debug("pipeline state", "state", stateDone)
	return final, nil
}

// enrich resolves one record through the cache coordinator. The computed
// value is the finalized record: a detail fetch that fails or times out
// produces (and caches) the listing-derived record, so repeated requests do
// not retry the detail fetch until the cache entry expires.
func (p *Pipeline) enrich(ctx context.Context, renderer render.Renderer, a extract.Article) extract.Article {
	data, err := p.coord.GetOrFetch(ctx, a.Link, func(ctx context.Context) ([]byte, error) {
		markup, err := renderer.Render(ctx, render.Target{
			URL:           a.Link,
			ReadySelector: p.profile.DetailReadySelector,
		}, p.cfg.DetailTimeout)
		if err != nil {
			logger.Warn("detail fetch failed, degrading record", "link", a.Link, "error", err)
			markup = ""
		}

		merged := a
		if markup != "" {
			merged = a.Merge(extract.Detail(markup, p.profile))
		}
		return json.Marshal(merged)
	})
	if err != nil {
		logger.Warn("detail coordination failed, degrading record", "link", a.Link, "error", err)
		return a
	}

	var merged extract.Article
	if err := json.Unmarshal(data, &merged); err != nil {
		logger.Warn("cached record unreadable, degrading record", "link", a.Link, "error", err)
		return a
	}
	return merged
}
