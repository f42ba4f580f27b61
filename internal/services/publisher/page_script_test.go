package publisher

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nuntio/internal/browser"
	"github.com/ternarybob/nuntio/internal/common"
)

// scriptedPage simulates a site: element presence changes in response to
// navigation, clicks and key presses via registered hooks.
type scriptedPage struct {
	mu      sync.Mutex
	present map[string]bool
	visible map[string]bool
	typed   map[string]string
	clicks  []string
	url     string
	title   string
	png     []byte

	onNavigate map[string]func(p *scriptedPage)
	onClick    map[string]func(p *scriptedPage)
	onEnter    map[string]func(p *scriptedPage)
}

func newScriptedPage() *scriptedPage {
	return &scriptedPage{
		present:    make(map[string]bool),
		visible:    make(map[string]bool),
		typed:      make(map[string]string),
		png:        []byte{0x89, 'P', 'N', 'G'},
		onNavigate: make(map[string]func(p *scriptedPage)),
		onClick:    make(map[string]func(p *scriptedPage)),
		onEnter:    make(map[string]func(p *scriptedPage)),
	}
}

func (p *scriptedPage) show(selectors ...string) {
	for _, sel := range selectors {
		p.present[sel] = true
		p.visible[sel] = true
	}
}

func (p *scriptedPage) hide(selectors ...string) {
	for _, sel := range selectors {
		delete(p.present, sel)
		delete(p.visible, sel)
	}
}

func (p *scriptedPage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
	if hook, ok := p.onNavigate[url]; ok {
		hook(p)
	}
	return nil
}

func (p *scriptedPage) ClearCookies(ctx context.Context) error { return nil }

func (p *scriptedPage) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clicks = append(p.clicks, selector)
	if hook, ok := p.onClick[selector]; ok {
		hook(p)
	}
	return nil
}

func (p *scriptedPage) Type(ctx context.Context, selector, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.typed[selector] += text
	return nil
}

func (p *scriptedPage) TypeSlow(ctx context.Context, selector, text string) error {
	return p.Type(ctx, selector, text)
}

func (p *scriptedPage) PressEnter(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if hook, ok := p.onEnter[selector]; ok {
		hook(p)
	}
	return nil
}

func (p *scriptedPage) IsPresent(ctx context.Context, selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.present[selector], nil
}

func (p *scriptedPage) IsVisible(ctx context.Context, selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible[selector], nil
}

func (p *scriptedPage) CurrentURL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *scriptedPage) Title(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title, nil
}

func (p *scriptedPage) Screenshot(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.png, nil
}

// scriptBlogLogin wires a successful note-style authentication: fields
// appear on the login page, the home header appears after submit.
func scriptBlogLogin(p *scriptedPage, loginURL string) {
	p.onNavigate[loginURL] = func(p *scriptedPage) {
		p.show("#email", "#password", `button[type="submit"]`)
	}
	p.onClick[`button[type="submit"]`] = func(p *scriptedPage) {
		p.hide("#email", "#password")
		p.show(`div[class*="note-header"]`)
	}
}

// scriptBlogCompose wires the editor: fields on the compose page, the
// confirm button after the first-stage publish click, and the canonical
// URL after confirmation.
func scriptBlogCompose(p *scriptedPage, composeURL, canonicalURL string) {
	p.onNavigate[composeURL] = func(p *scriptedPage) {
		p.show(`textarea[placeholder*="タイトル"]`, `div.ProseMirror[contenteditable="true"]`, `button[data-type="primary"]`)
	}
	p.onClick[`button[data-type="primary"]`] = func(p *scriptedPage) {
		p.show(`button[data-testid="publish-button"]`)
	}
	p.onClick[`button[data-testid="publish-button"]`] = func(p *scriptedPage) {
		p.url = canonicalURL
	}
}

// fastBrowserConfig returns session settings with test-sized waits.
func fastBrowserConfig(screenshotDir string) browser.Config {
	return browser.Config{
		NavigationTimeout: time.Second,
		DefaultWait:       300 * time.Millisecond,
		ModalWait:         40 * time.Millisecond,
		PollInterval:      5 * time.Millisecond,
		TypingDelay:       0,
		SettleDelay:       10 * time.Millisecond,
		ScreenshotDir:     screenshotDir,
	}
}

func fastConfig(screenshotDir string) *common.Config {
	cfg := common.NewDefaultConfig()
	cfg.Blog.Email = "writer@example.com"
	cfg.Blog.Password = "blog-secret-1"
	cfg.Social.Identifier = "writer@example.com"
	cfg.Social.Username = "writer"
	cfg.Social.Password = "social-secret-1"
	cfg.Browser.NavigationTimeout = time.Second
	cfg.Browser.DefaultWait = 300 * time.Millisecond
	cfg.Browser.ModalWait = 40 * time.Millisecond
	cfg.Browser.PollInterval = 5 * time.Millisecond
	cfg.Browser.TypingDelay = 0
	cfg.Browser.SettleDelay = 10 * time.Millisecond
	cfg.Browser.ScreenshotDir = screenshotDir
	cfg.Retry.InitialBackoff = time.Millisecond
	cfg.Retry.MaxBackoff = 10 * time.Millisecond
	return cfg
}

func testLogger() arbor.ILogger {
	return arbor.NewLogger()
}
