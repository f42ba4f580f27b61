package interfaces

import (
	"context"

	"github.com/ternarybob/nuntio/pkg/models"
)

// FeedService retrieves news articles from configured RSS/Atom feeds.
// Individual feed failures are logged and skipped; FetchAll only returns an
// error when no feed could be read at all.
type FeedService interface {
	// FetchAll fetches every configured feed and returns the collected
	// articles, newest first.
	FetchAll(ctx context.Context) ([]models.Article, error)
}
