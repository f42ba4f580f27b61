package interfaces

import "context"

// WriterService generates article text from a source title and content
// using a generative-text provider (Gemini or Claude).
type WriterService interface {
	// WriteArticle returns a rewritten article for the given source
	// material. The returned text is plain markdown-ish prose ready for
	// publishing.
	WriteArticle(ctx context.Context, title, content string) (string, error)
}
