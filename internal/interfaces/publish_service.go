package interfaces

import (
	"context"

	"github.com/ternarybob/nuntio/pkg/models"
)

// PublishService posts content to the external platforms by driving a
// browser through their web UIs. Both operations are synchronous and
// blocking: worst case is login timeout + publish timeout + the retry
// backoff ceiling. Callers on latency-sensitive paths must run them on a
// dedicated goroutine.
//
// Results are always a well-formed PublishResult; automation errors never
// escape as panics or untyped errors.
type PublishService interface {
	// PublishToBlog creates a blog post and returns its canonical URL.
	PublishToBlog(ctx context.Context, req models.PublishRequest) models.PublishResult

	// PublishToSocial posts a short update linking to url. The social
	// platform exposes no canonical URL readback, so success carries no URL.
	PublishToSocial(ctx context.Context, title, url string) models.PublishResult
}
