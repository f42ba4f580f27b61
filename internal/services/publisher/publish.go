// -----------------------------------------------------------------------
// Publish Flow - content creation and two-stage confirmation
// Never retried: a re-submit after partial completion risks a duplicate
// post, so any step failure is terminal for the request.
// -----------------------------------------------------------------------

package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nuntio/internal/browser"
)

// PublishFlow drives one site's editor from navigation through
// confirmation and canonical URL read-back.
type PublishFlow struct {
	page   browser.Page
	waiter *browser.Waiter
	cfg    browser.Config
	logger arbor.ILogger
}

// NewPublishFlow builds a flow bound to one page.
func NewPublishFlow(page browser.Page, cfg browser.Config, logger arbor.ILogger) *PublishFlow {
	return &PublishFlow{
		page:   page,
		waiter: browser.NewWaiter(page, cfg.PollInterval, logger),
		cfg:    cfg,
		logger: logger,
	}
}

// Run publishes title/body through the profile's editor. It returns the
// canonical URL when the profile reads one back, otherwise empty on
// success. Each step failure is typed by step name.
func (f *PublishFlow) Run(ctx context.Context, profile ComposeProfile, title, body string) (string, error) {
	f.logger.Info().Str("site", profile.Name).Str("title", title).Msg("Starting publish")

	if err := f.page.Navigate(ctx, profile.URL); err != nil {
		return "", f.fail(ctx, profile, err)
	}

	if profile.OpenButton != nil {
		if err := f.clickStep(ctx, *profile.OpenButton, browser.KindPublishButtonTimeout, profile); err != nil {
			return "", err
		}
	}

	if profile.TitleField != nil {
		if err := f.waiter.WaitFor(ctx, f.cfg.DefaultWait, *profile.TitleField); err != nil {
			return "", f.stepTimeout(ctx, profile, browser.KindTitleFieldTimeout, *profile.TitleField, err)
		}
		if err := f.page.Type(ctx, profile.TitleField.Selector, title); err != nil {
			return "", f.fail(ctx, profile, fmt.Errorf("title entry: %w", err))
		}
	}

	if err := f.waiter.WaitFor(ctx, f.cfg.DefaultWait, profile.BodyField); err != nil {
		return "", f.stepTimeout(ctx, profile, browser.KindBodyFieldTimeout, profile.BodyField, err)
	}
	if profile.BodyRequiresClick {
		if err := f.page.Click(ctx, profile.BodyField.Selector); err != nil {
			return "", f.fail(ctx, profile, fmt.Errorf("body focus: %w", err))
		}
	}
	if err := f.page.Type(ctx, profile.BodyField.Selector, body); err != nil {
		return "", f.fail(ctx, profile, fmt.Errorf("body entry: %w", err))
	}

	if profile.DismissModal != nil {
		f.dismissModal(ctx, *profile.DismissModal)
	}

	if profile.PublishButton != nil {
		if err := f.clickStep(ctx, *profile.PublishButton, browser.KindPublishButtonTimeout, profile); err != nil {
			return "", err
		}
	}
	if err := f.clickStep(ctx, profile.ConfirmButton, browser.KindPostButtonTimeout, profile); err != nil {
		return "", err
	}

	// No completion landmark exists after the final confirmation on
	// either site; the fixed settle delay is a known flakiness fallback.
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(f.cfg.SettleDelay):
	}

	if !profile.ReadBackURL {
		f.logger.Info().Str("site", profile.Name).Msg("Publish confirmed")
		return "", nil
	}

	url, err := f.page.CurrentURL(ctx)
	if err != nil {
		return "", f.fail(ctx, profile, fmt.Errorf("canonical url read: %w", err))
	}

	f.logger.Info().Str("site", profile.Name).Str("url", url).Msg("Publish confirmed")
	return url, nil
}

// clickStep waits for a confirmation control and clicks it, typing the
// timeout with the step's failure kind.
func (f *PublishFlow) clickStep(ctx context.Context, c browser.Candidate, kind string, profile ComposeProfile) error {
	if err := f.waiter.WaitFor(ctx, f.cfg.DefaultWait, c); err != nil {
		return f.stepTimeout(ctx, profile, kind, c, err)
	}
	if err := f.page.Click(ctx, c.Selector); err != nil {
		return f.fail(ctx, profile, fmt.Errorf("click %s: %w", c.Role, err))
	}
	return nil
}

// dismissModal closes an interstitial when it renders within the modal
// wait. Absence is the common case and not an error.
func (f *PublishFlow) dismissModal(ctx context.Context, c browser.Candidate) {
	if err := f.waiter.WaitFor(ctx, f.cfg.ModalWait, c); err != nil {
		return
	}
	if err := f.page.Click(ctx, c.Selector); err != nil {
		f.logger.Warn().Str("role", c.Role).Err(err).Msg("Modal dismissal failed, continuing")
		return
	}
	f.logger.Debug().Str("role", c.Role).Msg("Interstitial modal dismissed")
}

func (f *PublishFlow) stepTimeout(ctx context.Context, profile ComposeProfile, kind string, c browser.Candidate, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return f.fail(ctx, profile, browser.NewStepError(kind, c.Role, err))
}

func (f *PublishFlow) fail(ctx context.Context, profile ComposeProfile, err error) error {
	if ctx.Err() != nil {
		return err
	}
	if browser.SnapshotOf(err) != nil {
		return err
	}

	snap := browser.CaptureSnapshot(ctx, f.page, profile.Diagnostics, f.cfg.ScreenshotDir, stepName(err), f.logger)
	var stepErr *browser.StepError
	if errors.As(err, &stepErr) {
		return stepErr.WithSnapshot(snap)
	}
	return browser.NewStepError(browser.KindPublishFailed, "publish", err).WithSnapshot(snap)
}
