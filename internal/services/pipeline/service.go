// -------------------------------------------------------------------------
// Pipeline service - fetches feeds, rewrites the newest unpublished story
// and publishes it to the blog and the social platform.
// -------------------------------------------------------------------------

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/nuntio/internal/interfaces"
	"github.com/ternarybob/nuntio/pkg/models"
)

// ErrRunInProgress is returned when a run is requested while another run is
// still executing. Publishing drives a real browser; overlapping runs would
// race on the same accounts.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// Result summarizes one pipeline run.
type Result struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Fetched    int       `json:"fetched"`
	Skipped    int       `json:"skipped"`
	Title      string    `json:"title,omitempty"`
	BlogURL    string    `json:"blog_url,omitempty"`
	SocialSent bool      `json:"social_sent"`
	NoNewItems bool      `json:"no_new_items"`
}

// Service wires the feed, writer and publish services into a single
// end-to-end run.
type Service struct {
	feeds     interfaces.FeedService
	writer    interfaces.WriterService
	publisher interfaces.PublishService
	history   interfaces.HistoryStorage
	logger    arbor.ILogger

	mu      sync.Mutex
	running bool
}

// NewService creates a pipeline service.
func NewService(feeds interfaces.FeedService, writer interfaces.WriterService, publisher interfaces.PublishService, history interfaces.HistoryStorage, logger arbor.ILogger) *Service {
	return &Service{
		feeds:     feeds,
		writer:    writer,
		publisher: publisher,
		history:   history,
		logger:    logger,
	}
}

// Run executes one full pipeline pass: fetch all feeds, pick the newest
// article that has not been published to the blog yet, rewrite it and
// publish to both platforms. Only one run may execute at a time.
func (s *Service) Run(ctx context.Context) (result Result, err error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return Result{}, ErrRunInProgress
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	result = Result{StartedAt: time.Now()}
	defer func() { result.FinishedAt = time.Now() }()

	s.logger.Info().Msg("Pipeline run started")

	articles, err := s.feeds.FetchAll(ctx)
	if err != nil {
		return result, fmt.Errorf("fetching feeds: %w", err)
	}
	result.Fetched = len(articles)

	article, skipped, err := s.pickUnpublished(ctx, articles)
	result.Skipped = skipped
	if err != nil {
		return result, err
	}
	if article == nil {
		s.logger.Info().
			Int("fetched", result.Fetched).
			Msg("Pipeline run finished: no new articles to publish")
		result.NoNewItems = true
		return result, nil
	}
	result.Title = article.Title

	s.logger.Info().
		Str("title", article.Title).
		Str("source_url", article.SourceURL).
		Msg("Rewriting article")

	body, err := s.writer.WriteArticle(ctx, article.Title, article.Content)
	if err != nil {
		return result, fmt.Errorf("writing article: %w", err)
	}

	blog := s.publisher.PublishToBlog(ctx, models.PublishRequest{
		Title:     article.Title,
		Body:      body,
		SourceURL: article.SourceURL,
	})
	if !blog.OK() {
		return result, fmt.Errorf("blog publish failed: %s at step %s", blog.Failure.Kind, blog.Failure.Step)
	}
	result.BlogURL = blog.URL

	s.logger.Info().
		Str("url", blog.URL).
		Msg("Blog post published")

	social := s.publisher.PublishToSocial(ctx, article.Title, blog.URL)
	if !social.OK() {
		// The blog post is already live at this point; report the partial
		// outcome rather than pretending the whole run failed.
		return result, fmt.Errorf("social publish failed after blog succeeded: %s at step %s", social.Failure.Kind, social.Failure.Step)
	}
	result.SocialSent = true

	s.logger.Info().
		Str("title", article.Title).
		Str("blog_url", blog.URL).
		Msg("Pipeline run finished")

	return result, nil
}

// IsRunning reports whether a run is currently executing.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// pickUnpublished returns the newest article without a successful blog
// publish, along with the number of already-published articles skipped.
func (s *Service) pickUnpublished(ctx context.Context, articles []models.Article) (*models.Article, int, error) {
	skipped := 0
	for i := range articles {
		a := articles[i]
		done, err := s.history.HasPublished(ctx, a.SourceURL, models.TargetBlog)
		if err != nil {
			return nil, skipped, fmt.Errorf("checking publish history: %w", err)
		}
		if done {
			skipped++
			continue
		}
		return &a, skipped, nil
	}
	return nil, skipped, nil
}
