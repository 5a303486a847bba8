// Package browser manages headless browser sessions used to render pages
// that sit behind client-side verification challenges.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/gatefeed/gatefeed/internal/logger"
)

// Error types for distinguishing failure reasons.
// Check with errors.Is(err, browser.ErrSessionClosed).
var (
	// ErrSessionUnavailable indicates the browser could not be launched.
	ErrSessionUnavailable = errors.New("browser session unavailable")
	// ErrSessionClosed indicates a navigation was attempted on a closed session.
	ErrSessionClosed = errors.New("browser session closed")
	// ErrNavigationTimeout indicates the page did not load within the deadline.
	ErrNavigationTimeout = errors.New("navigation timeout")
)

// Config holds browser launch configuration.
type Config struct {
	ExecPath  string   // Chrome binary path ("" = chromedp default lookup)
	Headless  bool     // run without a visible window
	ExtraArgs []string // extra launch flags, "name" or "name=value"
	UserAgent string

	PoolSize        int           // navigable surfaces (tabs); default 1
	ViewportW       int           // viewport override; 0 = default
	ViewportH       int
	NavTimeout      time.Duration // per-navigation deadline; default 60s
	ChallengeBudget time.Duration // challenge gate budget; default 30s
	Lease           time.Duration // auto-close grace period; default 120s
}

// DefaultConfig returns sensible session defaults.
func DefaultConfig() Config {
	return Config{
		Headless:        true,
		PoolSize:        1,
		NavTimeout:      60 * time.Second,
		ChallengeBudget: 30 * time.Second,
		Lease:           120 * time.Second,
	}
}

// Session is one live browser with a bounded pool of navigable surfaces.
// A surface models exactly one tab: navigations against it are never
// interleaved. Concurrent NavigateAndRender calls block until a surface is
// free, so a pool of one degenerates to FIFO serialization.
type Session struct {
	cfg      Config
	gate     Gate
	surfaces    chan *surface
	cancels     []context.CancelFunc // surface cancels, first surface last
	cancelAlloc context.CancelFunc

	lease *time.Timer
	done  chan struct{}

	mu        sync.Mutex
	closed    bool
	createdAt time.Time
	expiry    time.Time
}

// surface is a single tab context. Access is serialized by the pool channel.
type surface struct {
	ctx context.Context
}

// Open launches a browser and prepares the surface pool. A lease timer is
// armed that force-closes the session after cfg.Lease even if the caller
// never calls Close; an explicit Close cancels the lease.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.PoolSize < 1 {
		cfg.PoolSize = 1
	}
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = DefaultConfig().NavTimeout
	}
	if cfg.ChallengeBudget <= 0 {
		cfg.ChallengeBudget = DefaultConfig().ChallengeBudget
	}
	if cfg.Lease <= 0 {
		cfg.Lease = DefaultConfig().Lease
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if cfg.ViewportW > 0 && cfg.ViewportH > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.ViewportW, cfg.ViewportH))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	for _, arg := range cfg.ExtraArgs {
		if name, value, found := strings.Cut(arg, "="); found {
			opts = append(opts, chromedp.Flag(name, value))
		} else {
			opts = append(opts, chromedp.Flag(arg, true))
		}
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)

	s := &Session{
		cfg:       cfg,
		gate:      Gate{Interval: time.Second, Budget: cfg.ChallengeBudget},
		surfaces:  make(chan *surface, cfg.PoolSize),
		done:      make(chan struct{}),
		createdAt: time.Now(),
		expiry:    time.Now().Add(cfg.Lease),
	}

	// First surface owns the browser process; the rest are tabs of it.
	first, cancelFirst := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			logger.Debug("chromedp", "msg", fmt.Sprintf(format, args...))
		}),
	)
	if err := chromedp.Run(first); err != nil {
		cancelFirst()
		cancelAlloc()
		return nil, fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}
	s.surfaces <- &surface{ctx: first}
	s.cancels = append(s.cancels, cancelFirst)

	for i := 1; i < cfg.PoolSize; i++ {
		tab, cancelTab := chromedp.NewContext(first)
		s.surfaces <- &surface{ctx: tab}
		s.cancels = append(s.cancels, cancelTab)
	}
	s.cancelAlloc = cancelAlloc

	s.lease = time.AfterFunc(cfg.Lease, func() {
		logger.Warn("session lease expired, forcing close", "lease", cfg.Lease)
		_ = s.Close()
	})

	logger.Debug("browser session opened",
		"headless", cfg.Headless,
		"pool_size", cfg.PoolSize,
		"lease", cfg.Lease)

	return s, nil
}

// CreatedAt reports when the session was opened.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Expiry reports when the lease will force-close the session.
func (s *Session) Expiry() time.Time { return s.expiry }

// NavigateAndRender loads a page on a free surface, waits out any challenge
// via the gate, and returns the rendered markup. The navigation itself runs
// under a hard deadline; the gate timing out is not an error and whatever
// markup is present is returned best-effort.
func (s *Session) NavigateAndRender(ctx context.Context, url, readySelector string) (string, error) {
	if s.isClosed() {
		return "", ErrSessionClosed
	}

	var sf *surface
	select {
	case sf = <-s.surfaces:
	case <-s.done:
		return "", ErrSessionClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() {
		select {
		case s.surfaces <- sf:
		case <-s.done:
		}
	}()

	// Close may have raced the acquire.
	if s.isClosed() {
		return "", ErrSessionClosed
	}

	navCtx, cancel := context.WithTimeout(sf.ctx, s.cfg.NavTimeout)
	defer cancel()

	logger.Debug("navigating", "url", url, "timeout", s.cfg.NavTimeout)
	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s", ErrNavigationTimeout, url)
		}
		if s.isClosed() {
			return "", ErrSessionClosed
		}
		return "", fmt.Errorf("navigation failed: %w", err)
	}

	if ready := s.gate.Await(navCtx, surfaceEvaluator{sf}, readySelector); !ready {
		logger.Warn("ready signal not seen, returning current markup",
			"url", url, "selector", readySelector)
	}

	var html string
	if err := chromedp.Run(navCtx, chromedp.OuterHTML("html", &html)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s", ErrNavigationTimeout, url)
		}
		if s.isClosed() {
			return "", ErrSessionClosed
		}
		return "", fmt.Errorf("content capture failed: %w", err)
	}

	logger.Debug("navigation complete", "url", url, "html_size", len(html))
	return html, nil
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases the browser and cancels the lease. Safe to call multiple
// times; calls after the first are no-ops.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if s.lease != nil {
		s.lease.Stop()
	}
	close(s.done)

	// Extra tabs first, then the surface owning the browser process,
	// then the allocator.
	for i := len(s.cancels) - 1; i >= 0; i-- {
		s.cancels[i]()
	}
	if s.cancelAlloc != nil {
		s.cancelAlloc()
	}

	logger.Debug("browser session closed", "age", time.Since(s.createdAt).Round(time.Millisecond))
	return nil
}

// surfaceEvaluator runs selector probes against one tab.
type surfaceEvaluator struct {
	sf *surface
}

func (e surfaceEvaluator) EvalSelector(ctx context.Context, selector string) (bool, error) {
	probe := fmt.Sprintf("document.querySelector(%q) !== null", selector)
	var found bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(probe, &found)); err != nil {
		return false, err
	}
	return found, nil
}
