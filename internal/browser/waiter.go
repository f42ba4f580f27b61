package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
)

// Condition selects which element check a candidate uses.
type Condition int

const (
	// Present matches when the element exists in the DOM.
	Present Condition = iota
	// Visible matches when the element exists and occupies layout space.
	Visible
)

// Candidate is one selector the waiter polls for. Role names what the
// element means to the flow ("login_button", "compose_title") and is
// used in logs and timeout errors.
type Candidate struct {
	Selector  string
	Role      string
	Condition Condition
}

// Waiter polls the page for expected elements at a fixed cadence.
type Waiter struct {
	page   Page
	poll   time.Duration
	logger arbor.ILogger
}

// NewWaiter returns a waiter polling at the given interval.
func NewWaiter(page Page, poll time.Duration, logger arbor.ILogger) *Waiter {
	if poll <= 0 {
		poll = 250 * time.Millisecond
	}
	return &Waiter{page: page, poll: poll, logger: logger}
}

// WaitFor blocks until the candidate matches or the timeout elapses.
func (w *Waiter) WaitFor(ctx context.Context, timeout time.Duration, c Candidate) error {
	_, err := w.WaitForAny(ctx, timeout, c)
	return err
}

// WaitForAny blocks until one of the candidates matches, returning the
// index of the match. Candidates are checked in argument order on every
// tick, so an earlier candidate wins when several match at once. On
// timeout it returns a WaitTimeout step error naming every role it was
// waiting for.
func (w *Waiter) WaitForAny(ctx context.Context, timeout time.Duration, candidates ...Candidate) (int, error) {
	if len(candidates) == 0 {
		return -1, fmt.Errorf("wait: no candidates")
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		for i, c := range candidates {
			ok, err := w.check(ctx, c)
			if err != nil {
				if ctx.Err() != nil {
					return -1, ctx.Err()
				}
				// Probe errors during page transitions are expected;
				// keep polling until the deadline.
				w.logger.Trace().Str("role", c.Role).Err(err).Msg("Element probe failed")
				continue
			}
			if ok {
				w.logger.Debug().Str("role", c.Role).Str("selector", c.Selector).Msg("Element appeared")
				return i, nil
			}
		}

		if time.Now().After(deadline) {
			roles := make([]string, 0, len(candidates))
			for _, c := range candidates {
				roles = append(roles, c.Role)
			}
			return -1, NewStepError(KindWaitTimeout, candidates[0].Role,
				fmt.Errorf("timed out after %s waiting for %v", timeout, roles))
		}

		select {
		case <-ctx.Done():
			return -1, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *Waiter) check(ctx context.Context, c Candidate) (bool, error) {
	if c.Condition == Visible {
		return w.page.IsVisible(ctx, c.Selector)
	}
	return w.page.IsPresent(ctx, c.Selector)
}
