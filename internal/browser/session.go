// -----------------------------------------------------------------------
// Browser Session - owns one headless Chrome process per publish attempt
// Sessions are never reused across publish requests and are released on
// every exit path, including host-driven cancellation.
// -----------------------------------------------------------------------

package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/ternarybob/arbor"
)

// Config controls session startup and per-operation timeouts.
type Config struct {
	Headless          bool
	NoSandbox         bool
	DisableGPU        bool
	WindowWidth       int
	WindowHeight      int
	UserAgent         string
	Locale            string
	NavigationTimeout time.Duration
	DefaultWait       time.Duration
	ModalWait         time.Duration
	PollInterval      time.Duration
	TypingDelay       time.Duration
	SettleDelay       time.Duration
	ScreenshotDir     string
}

// DefaultConfig returns session defaults matching the production profile.
func DefaultConfig() Config {
	return Config{
		Headless:          true,
		NoSandbox:         true,
		DisableGPU:        true,
		WindowWidth:       1920,
		WindowHeight:      1080,
		UserAgent:         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		Locale:            "ja-JP",
		NavigationTimeout: 30 * time.Second,
		DefaultWait:       20 * time.Second,
		ModalWait:         5 * time.Second,
		PollInterval:      250 * time.Millisecond,
		TypingDelay:       80 * time.Millisecond,
		SettleDelay:       3 * time.Second,
		ScreenshotDir:     "./logs/screenshots",
	}
}

// Session wraps a chromedp allocator and browser context. The session
// derives from the caller-supplied runtime context, so host-level signal
// handling cancels any in-flight wait and tears the browser down; the
// library itself installs no signal handlers.
type Session struct {
	cfg         Config
	logger      arbor.ILogger
	ctx         context.Context
	browserStop context.CancelFunc
	allocStop   context.CancelFunc
	closeOnce   sync.Once
}

// NewSession starts a Chrome process and verifies it responds. Returns a
// SessionSetupError-kinded failure when the browser cannot start (missing
// binary, resource exhaustion).
func NewSession(parent context.Context, cfg Config, logger arbor.ILogger) (*Session, error) {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("no-sandbox", cfg.NoSandbox),
		chromedp.Flag("disable-gpu", cfg.DisableGPU),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-features", "NetworkService,NetworkServiceInProcess"),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("lang", cfg.Locale),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
		chromedp.UserAgent(cfg.UserAgent),
	)

	allocCtx, allocStop := chromedp.NewExecAllocator(parent, opts...)
	browserCtx, browserStop := chromedp.NewContext(allocCtx)

	s := &Session{
		cfg:         cfg,
		logger:      logger,
		ctx:         browserCtx,
		browserStop: browserStop,
		allocStop:   allocStop,
	}

	// Startup test plus stealth script registration. A failure here means
	// the Chrome process never became usable.
	startCtx, cancel := context.WithTimeout(browserCtx, cfg.NavigationTimeout)
	defer cancel()

	err := chromedp.Run(startCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := cdppage.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
		chromedp.Navigate("about:blank"),
	)
	if err != nil {
		s.Close()
		return nil, NewStepError(KindSessionSetup, "session_start", err).Fatal()
	}

	logger.Debug().
		Bool("headless", cfg.Headless).
		Str("locale", cfg.Locale).
		Msg("Browser session started")

	return s, nil
}

// Close terminates the browser process. Idempotent and safe after partial
// failure; it never returns an error.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.browserStop != nil {
			s.browserStop()
		}
		if s.allocStop != nil {
			s.allocStop()
		}
		if s.logger != nil {
			s.logger.Debug().Msg("Browser session released")
		}
	})
}

// Navigate loads url and waits for document readiness within the
// navigation timeout.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tctx, cancel := context.WithTimeout(s.ctx, s.cfg.NavigationTimeout)
	defer cancel()

	err := chromedp.Run(tctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return NewStepError(KindNavigationTimeout, "navigate", fmt.Errorf("navigate %s: %w", url, err))
	}

	s.logger.Debug().Str("url", url).Msg("Navigation complete")
	return nil
}

// ClearCookies removes all browser cookies.
func (s *Session) ClearCookies(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tctx, cancel := context.WithTimeout(s.ctx, s.cfg.DefaultWait)
	defer cancel()

	return chromedp.Run(tctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.ClearBrowserCookies().Do(ctx)
	}))
}

// Click clicks the first visible element matching selector.
func (s *Session) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tctx, cancel := context.WithTimeout(s.ctx, s.cfg.DefaultWait)
	defer cancel()

	return chromedp.Run(tctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

// Type sends text to the element matching selector in one burst.
func (s *Session) Type(ctx context.Context, selector, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tctx, cancel := context.WithTimeout(s.ctx, s.cfg.DefaultWait)
	defer cancel()

	return chromedp.Run(tctx, chromedp.SendKeys(selector, text, chromedp.ByQuery))
}

// TypeSlow sends text one character at a time with the configured delay.
func (s *Session) TypeSlow(ctx context.Context, selector, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Bound covers the whole string at the per-character cadence.
	budget := s.cfg.DefaultWait + time.Duration(len(text))*s.cfg.TypingDelay
	tctx, cancel := context.WithTimeout(s.ctx, budget)
	defer cancel()

	return chromedp.Run(tctx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, r := range text {
			if err := chromedp.SendKeys(selector, string(r), chromedp.ByQuery).Do(ctx); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.cfg.TypingDelay):
			}
		}
		return nil
	}))
}

// PressEnter sends the Enter key to the element matching selector.
func (s *Session) PressEnter(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tctx, cancel := context.WithTimeout(s.ctx, s.cfg.DefaultWait)
	defer cancel()

	return chromedp.Run(tctx, chromedp.SendKeys(selector, kb.Enter, chromedp.ByQuery))
}

// IsPresent reports whether an element matching selector exists in the DOM.
func (s *Session) IsPresent(ctx context.Context, selector string) (bool, error) {
	return s.evaluateBool(ctx, fmt.Sprintf("document.querySelector(%q) !== null", selector))
}

// IsVisible reports whether an element matching selector exists and
// occupies layout space.
func (s *Session) IsVisible(ctx context.Context, selector string) (bool, error) {
	expr := fmt.Sprintf(
		"(() => { const el = document.querySelector(%q); return !!(el && (el.offsetWidth || el.offsetHeight || el.getClientRects().length)); })()",
		selector,
	)
	return s.evaluateBool(ctx, expr)
}

// CurrentURL returns the address of the active page.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tctx, cancel := context.WithTimeout(s.ctx, s.cfg.DefaultWait)
	defer cancel()

	var url string
	if err := chromedp.Run(tctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// Title returns the active page title.
func (s *Session) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tctx, cancel := context.WithTimeout(s.ctx, s.cfg.DefaultWait)
	defer cancel()

	var title string
	if err := chromedp.Run(tctx, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

// Screenshot captures the viewport as PNG bytes.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tctx, cancel := context.WithTimeout(s.ctx, s.cfg.DefaultWait)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(tctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *Session) evaluateBool(ctx context.Context, expr string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	// Probes are cheap; keep the bound short so waiter ticks stay honest.
	tctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	var result bool
	if err := chromedp.Run(tctx, chromedp.Evaluate(expr, &result)); err != nil {
		return false, err
	}
	return result, nil
}
