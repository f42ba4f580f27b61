package browser

import (
	"context"
	"sync"

	"github.com/ternarybob/arbor"
)

// fakePage is an in-memory Page for exercising waits, snapshots and
// flows without a browser.
type fakePage struct {
	mu       sync.Mutex
	present  map[string]bool
	visible  map[string]bool
	url      string
	title    string
	png      []byte
	probeErr error

	clicks []string
	typed  map[string]string
}

func newFakePage() *fakePage {
	return &fakePage{
		present: make(map[string]bool),
		visible: make(map[string]bool),
		typed:   make(map[string]string),
	}
}

func (f *fakePage) setPresent(selector string, present bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.present[selector] = present
}

func (f *fakePage) setVisible(selector string, visible bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible[selector] = visible
	if visible {
		f.present[selector] = true
	}
}

func (f *fakePage) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.url = url
	return nil
}

func (f *fakePage) ClearCookies(ctx context.Context) error { return nil }

func (f *fakePage) Click(ctx context.Context, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicks = append(f.clicks, selector)
	return nil
}

func (f *fakePage) Type(ctx context.Context, selector, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typed[selector] += text
	return nil
}

func (f *fakePage) TypeSlow(ctx context.Context, selector, text string) error {
	return f.Type(ctx, selector, text)
}

func (f *fakePage) PressEnter(ctx context.Context, selector string) error { return nil }

func (f *fakePage) IsPresent(ctx context.Context, selector string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.probeErr != nil {
		return false, f.probeErr
	}
	return f.present[selector], nil
}

func (f *fakePage) IsVisible(ctx context.Context, selector string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.probeErr != nil {
		return false, f.probeErr
	}
	return f.visible[selector], nil
}

func (f *fakePage) CurrentURL(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url, nil
}

func (f *fakePage) Title(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.title, nil
}

func (f *fakePage) Screenshot(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.png, nil
}

func testLogger() arbor.ILogger {
	return arbor.NewLogger()
}
