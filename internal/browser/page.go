package browser

import "context"

// Page is the primitive surface a flow drives. Session implements it
// against a live Chrome process; tests substitute fakes. All operations
// block up to their configured timeout and honor context cancellation.
type Page interface {
	// Navigate loads url and waits for page readiness within the
	// configured navigation timeout.
	Navigate(ctx context.Context, url string) error

	// ClearCookies removes all browser cookies so no session state leaks
	// between automation runs.
	ClearCookies(ctx context.Context) error

	// Click clicks the first element matching selector.
	Click(ctx context.Context, selector string) error

	// Type sends text to the element matching selector in one burst.
	Type(ctx context.Context, selector, text string) error

	// TypeSlow sends text character by character with an inter-character
	// delay. Used for credential fields where paste-like input trips
	// automation fingerprinting.
	TypeSlow(ctx context.Context, selector, text string) error

	// PressEnter sends the Enter key to the element matching selector.
	PressEnter(ctx context.Context, selector string) error

	// IsPresent reports whether an element matching selector exists.
	IsPresent(ctx context.Context, selector string) (bool, error)

	// IsVisible reports whether an element matching selector exists and
	// occupies layout space.
	IsVisible(ctx context.Context, selector string) (bool, error)

	// CurrentURL returns the address of the active page.
	CurrentURL(ctx context.Context) (string, error)

	// Title returns the active page title.
	Title(ctx context.Context) (string, error)

	// Screenshot captures the viewport as PNG bytes.
	Screenshot(ctx context.Context) ([]byte, error)
}
