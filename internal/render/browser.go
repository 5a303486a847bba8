package render

import (
	"context"
	"time"

	"github.com/gatefeed/gatefeed/internal/browser"
)

// BrowserRenderer renders targets through a local browser session.
type BrowserRenderer struct {
	session *browser.Session
}

// NewBrowserRenderer wraps an open session. The renderer takes ownership:
// Close closes the session.
func NewBrowserRenderer(session *browser.Session) *BrowserRenderer {
	return &BrowserRenderer{session: session}
}

// Render navigates a pooled surface to the target and returns the markup.
func (r *BrowserRenderer) Render(ctx context.Context, target Target, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return r.session.NavigateAndRender(ctx, target.URL, target.ReadySelector)
}

// Close releases the underlying session.
func (r *BrowserRenderer) Close() error {
	return r.session.Close()
}

// Type returns the renderer type.
func (r *BrowserRenderer) Type() string {
	return "browser"
}
