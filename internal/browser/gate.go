package browser

import (
	"context"
	"time"
)

// Evaluator checks whether a selector currently resolves against a live
// document. Implementations are expected to be cheap to call repeatedly.
type Evaluator interface {
	EvalSelector(ctx context.Context, selector string) (bool, error)
}

// Gate waits for a content-readiness signal on a loaded page. Pages behind an
// automated-traffic challenge swap the real content in only after the
// challenge resolves, so the gate polls rather than waiting on a load event.
type Gate struct {
	Interval time.Duration // poll interval
	Budget   time.Duration // total time to wait before giving up
}

// DefaultGate returns the standard gate timing.
func DefaultGate() Gate {
	return Gate{
		Interval: 1 * time.Second,
		Budget:   30 * time.Second,
	}
}

// Await polls until selector resolves or the budget elapses. It returns
// whether the ready signal was seen; a timeout is not an error, the caller
// decides whether the markup present at that point is still usable.
// Evaluation errors (page navigating mid-poll, context races inside the
// browser) count as a non-match and polling continues.
func (g Gate) Await(ctx context.Context, ev Evaluator, selector string) bool {
	if selector == "" {
		return true
	}

	interval := g.Interval
	if interval <= 0 {
		interval = time.Second
	}

	deadline := time.Now().Add(g.Budget)

	for {
		found, err := ev.EvalSelector(ctx, selector)
		if err == nil && found {
			return true
		}

		if time.Now().After(deadline) {
			return false
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(interval):
		}
	}
}
