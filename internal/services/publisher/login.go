// -----------------------------------------------------------------------
// Login Flow - parameterized multi-step authentication
// START -> CREDENTIAL_ENTRY -> VERIFICATION? -> SUBMIT -> CONFIRMED/FAILED
// -----------------------------------------------------------------------

package publisher

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nuntio/internal/browser"
)

// CodeFetcher retrieves a one-time login code from an external mailbox.
type CodeFetcher interface {
	FetchCode(ctx context.Context) (string, error)
}

// LoginFlow authenticates one browser session against a profile. Stale
// cookies are cleared first so session state never leaks between runs.
type LoginFlow struct {
	page   browser.Page
	waiter *browser.Waiter
	cfg    browser.Config
	codes  CodeFetcher
	logger arbor.ILogger
}

// NewLoginFlow builds a flow bound to one page. codes may be nil when the
// profile has no mailbox-sourced verification.
func NewLoginFlow(page browser.Page, cfg browser.Config, codes CodeFetcher, logger arbor.ILogger) *LoginFlow {
	return &LoginFlow{
		page:   page,
		waiter: browser.NewWaiter(page, cfg.PollInterval, logger),
		cfg:    cfg,
		codes:  codes,
		logger: logger,
	}
}

// Run drives the full authentication sequence. Failures carry a
// diagnostic snapshot; an explicit credential rejection is fatal so the
// retry layer fails fast instead of retrying into a lockout.
func (f *LoginFlow) Run(ctx context.Context, profile LoginProfile, creds Credentials) error {
	f.logger.Info().Str("site", profile.Name).Msg("Starting login")

	if err := f.page.ClearCookies(ctx); err != nil {
		f.logger.Warn().Err(err).Msg("Cookie clear failed, continuing with fresh session")
	}
	if err := f.page.Navigate(ctx, profile.URL); err != nil {
		return f.fail(ctx, profile, err)
	}

	// CREDENTIAL_ENTRY: identifier first. Character-at-a-time entry keeps
	// the input cadence human-shaped.
	if err := f.waiter.WaitFor(ctx, f.cfg.DefaultWait, profile.IdentifierField); err != nil {
		return f.fieldNotFound(ctx, profile, profile.IdentifierField, err)
	}
	if err := f.page.TypeSlow(ctx, profile.IdentifierField.Selector, creds.Identifier); err != nil {
		return f.fail(ctx, profile, fmt.Errorf("identifier entry: %w", err))
	}
	if profile.IdentifierSubmit != nil {
		if err := f.submit(ctx, *profile.IdentifierSubmit, profile.IdentifierField.Selector); err != nil {
			return f.fail(ctx, profile, fmt.Errorf("identifier submit: %w", err))
		}
	}

	// VERIFICATION?: short detection window; absence is normal.
	if profile.Verification != nil {
		if err := f.maybeVerify(ctx, profile, creds); err != nil {
			return err
		}
	}

	if err := f.waiter.WaitFor(ctx, f.cfg.DefaultWait, profile.PasswordField); err != nil {
		return f.fieldNotFound(ctx, profile, profile.PasswordField, err)
	}
	if err := f.page.TypeSlow(ctx, profile.PasswordField.Selector, creds.Secret); err != nil {
		return f.fail(ctx, profile, fmt.Errorf("password entry: %w", err))
	}
	if err := f.submit(ctx, profile.PasswordSubmit, profile.PasswordField.Selector); err != nil {
		return f.fail(ctx, profile, fmt.Errorf("password submit: %w", err))
	}

	return f.confirm(ctx, profile)
}

// maybeVerify handles the optional interstitial screen. Timeout on
// detection means the screen was not interposed.
func (f *LoginFlow) maybeVerify(ctx context.Context, profile LoginProfile, creds Credentials) error {
	v := profile.Verification
	if err := f.waiter.WaitFor(ctx, f.cfg.ModalWait, v.Field); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logger.Debug().Str("site", profile.Name).Msg("No verification screen interposed")
		return nil
	}

	value := creds.Secondary
	if v.Source == MailboxSource {
		if f.codes == nil {
			return f.fail(ctx, profile, browser.NewStepError(browser.KindCodeUnavailable,
				v.Field.Role, fmt.Errorf("verification code required but no mailbox configured")).Fatal())
		}
		code, err := f.codes.FetchCode(ctx)
		if err != nil {
			return f.fail(ctx, profile, err)
		}
		value = code
	}

	f.logger.Info().Str("site", profile.Name).Msg("Verification screen interposed, responding")
	if err := f.page.TypeSlow(ctx, v.Field.Selector, value); err != nil {
		return f.fail(ctx, profile, fmt.Errorf("verification entry: %w", err))
	}
	if err := f.page.PressEnter(ctx, v.Field.Selector); err != nil {
		return f.fail(ctx, profile, fmt.Errorf("verification submit: %w", err))
	}
	return nil
}

// confirm resolves the ambiguous post-submit state: the page lands on one
// of several logged-in landmarks, an explicit error landmark, or nothing.
func (f *LoginFlow) confirm(ctx context.Context, profile LoginProfile) error {
	candidates := append([]browser.Candidate{}, profile.SuccessLandmarks...)
	candidates = append(candidates, profile.FailureLandmarks...)

	idx, err := f.waiter.WaitForAny(ctx, f.cfg.DefaultWait, candidates...)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return f.fail(ctx, profile, browser.NewStepError(browser.KindLoginFailed,
			"login_confirmation", fmt.Errorf("no logged-in landmark appeared: %w", err)))
	}

	if idx >= len(profile.SuccessLandmarks) {
		landmark := candidates[idx]
		return f.fail(ctx, profile, browser.NewStepError(browser.KindInvalidCredentials,
			landmark.Role, fmt.Errorf("site rejected the credentials")).Fatal())
	}

	f.logger.Info().
		Str("site", profile.Name).
		Str("landmark", candidates[idx].Role).
		Msg("Login confirmed")
	return nil
}

func (f *LoginFlow) submit(ctx context.Context, s Submit, fieldSelector string) error {
	if s.Selector != "" {
		return f.page.Click(ctx, s.Selector)
	}
	return f.page.PressEnter(ctx, fieldSelector)
}

// fieldNotFound converts a wait timeout on a required field into the
// field-specific failure kind.
func (f *LoginFlow) fieldNotFound(ctx context.Context, profile LoginProfile, field browser.Candidate, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return f.fail(ctx, profile, browser.NewStepError(browser.KindFieldNotFound, field.Role, err))
}

// fail attaches a diagnostic snapshot when the error does not already
// carry one.
func (f *LoginFlow) fail(ctx context.Context, profile LoginProfile, err error) error {
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
	return browser.NewStepError(browser.KindLoginFailed, "login", err).WithSnapshot(snap)
}

func stepName(err error) string {
	var stepErr *browser.StepError
	if errors.As(err, &stepErr) && stepErr.Step != "" {
		return stepErr.Step
	}
	return "flow"
}
