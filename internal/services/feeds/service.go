// -----------------------------------------------------------------------
// Feeds Service - RSS/Atom ingestion
// -----------------------------------------------------------------------

package feeds

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nuntio/internal/common"
	"github.com/ternarybob/nuntio/pkg/models"
)

// Service fetches configured feeds and normalizes items into articles.
// gofeed handles RSS and Atom transparently; item HTML is converted to
// markdown so downstream generation works on clean text.
type Service struct {
	config    common.FeedsConfig
	parser    *gofeed.Parser
	converter *md.Converter
	logger    arbor.ILogger
}

// NewService creates the feeds service.
func NewService(config common.FeedsConfig, logger arbor.ILogger) *Service {
	return &Service{
		config:    config,
		parser:    gofeed.NewParser(),
		converter: md.NewConverter("", true, nil),
		logger:    logger,
	}
}

// FetchAll reads every configured feed and returns collected articles,
// newest first, capped at MaxItems. A feed that fails to parse is logged
// and skipped; only a total failure returns an error.
func (s *Service) FetchAll(ctx context.Context) ([]models.Article, error) {
	if len(s.config.URLs) == 0 {
		return nil, fmt.Errorf("no feeds configured")
	}

	var articles []models.Article
	failures := 0

	for _, url := range s.config.URLs {
		items, err := s.fetchOne(ctx, url)
		if err != nil {
			failures++
			s.logger.Warn().Str("feed", url).Err(err).Msg("Feed fetch failed")
			continue
		}
		articles = append(articles, items...)
	}

	if failures == len(s.config.URLs) {
		return nil, fmt.Errorf("all %d feeds failed", failures)
	}

	sort.Slice(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	if s.config.MaxItems > 0 && len(articles) > s.config.MaxItems {
		articles = articles[:s.config.MaxItems]
	}

	s.logger.Info().
		Int("feeds", len(s.config.URLs)).
		Int("articles", len(articles)).
		Msg("Feeds fetched")
	return articles, nil
}

func (s *Service) fetchOne(ctx context.Context, url string) ([]models.Article, error) {
	fetchCtx := ctx
	if s.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.config.RequestTimeout)
		defer cancel()
	}

	feed, err := s.parser.ParseURLWithContext(url, fetchCtx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	articles := make([]models.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		articles = append(articles, s.toArticle(item, feed.Title))
	}
	return articles, nil
}

// toArticle maps one feed item onto the article model. Content prefers the
// full body over the summary and is converted from HTML to markdown.
func (s *Service) toArticle(item *gofeed.Item, feedTitle string) models.Article {
	title := item.Title
	if title == "" {
		title = "(no title)"
	}

	content := item.Content
	if content == "" {
		content = item.Description
	}
	if markdown, err := s.converter.ConvertString(content); err == nil {
		content = markdown
	} else {
		s.logger.Debug().Str("item", item.Link).Err(err).Msg("Markdown conversion failed, keeping raw content")
	}

	publishedAt := time.Now()
	if item.PublishedParsed != nil {
		publishedAt = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		publishedAt = *item.UpdatedParsed
	}

	return models.Article{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(title),
		Content:     strings.TrimSpace(content),
		SourceURL:   item.Link,
		Publisher:   feedTitle,
		PublishedAt: publishedAt,
		FetchedAt:   time.Now(),
	}
}
