// Package render abstracts "load a URL past its challenge, return the
// rendered markup" over interchangeable backends: a local browser session or
// a remote rendering service.
package render

import (
	"context"
	"time"
)

// Target identifies what to render and which DOM signal proves the page is
// past any challenge and content-bearing.
type Target struct {
	URL           string
	ReadySelector string
}

// Renderer abstracts rendering strategies. Implementations return the page
// markup, or an empty string when nothing usable could be obtained; callers
// decide whether that is fatal.
type Renderer interface {
	// Render loads the target and returns the rendered markup.
	Render(ctx context.Context, target Target, timeout time.Duration) (string, error)

	// Close releases any resources (browser instances, etc.).
	Close() error

	// Type returns a string identifying the renderer ("browser", "remote").
	Type() string
}
