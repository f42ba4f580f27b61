// -----------------------------------------------------------------------
// Writer Service - article generation via a generative-text provider
// -----------------------------------------------------------------------

package writer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/nuntio/internal/common"
)

const systemPrompt = "You are a news editor. Rewrite the provided source material " +
	"as an original, well-structured article in the same language as the source. " +
	"Keep the facts, drop the boilerplate, and do not add information that is not " +
	"in the source. Return only the article text."

// Service implements interfaces.WriterService on top of a provider, with
// request pacing for free-tier quotas and bounded retry on rate limits.
type Service struct {
	provider Provider
	limiter  *rate.Limiter
	backoff  func(attempt int, apiDelay time.Duration) time.Duration
	logger   arbor.ILogger
}

// NewService selects the provider named by configuration.
func NewService(cfg *common.Config, logger arbor.ILogger) (*Service, error) {
	var provider Provider
	var err error

	switch cfg.Writer.Provider {
	case "gemini":
		provider, err = NewGeminiProvider(cfg.Gemini, logger)
	case "claude":
		provider, err = NewClaudeProvider(cfg.Claude, logger)
	default:
		return nil, fmt.Errorf("unknown writer provider %q", cfg.Writer.Provider)
	}
	if err != nil {
		return nil, err
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.Writer.Provider == "gemini" && cfg.Gemini.RateLimit != "" {
		interval, err := time.ParseDuration(cfg.Gemini.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("invalid gemini rate limit %q: %w", cfg.Gemini.RateLimit, err)
		}
		if interval > 0 {
			limiter = rate.NewLimiter(rate.Every(interval), 1)
		}
	}

	logger.Info().Str("provider", provider.Name()).Msg("Writer service initialized")
	return &Service{provider: provider, limiter: limiter, backoff: rateLimitBackoff, logger: logger}, nil
}

// newServiceWithProvider is the test seam.
func newServiceWithProvider(provider Provider, limiter *rate.Limiter, logger arbor.ILogger) *Service {
	return &Service{provider: provider, limiter: limiter, backoff: rateLimitBackoff, logger: logger}
}

// WriteArticle generates article text from source material. Rate-limit
// errors are retried with the API-suggested delay when one is present.
func (s *Service) WriteArticle(ctx context.Context, title, content string) (string, error) {
	if strings.TrimSpace(title) == "" && strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("no source material")
	}

	prompt := buildPrompt(title, content)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", err
		}

		text, err := s.provider.Generate(ctx, systemPrompt, prompt)
		if err == nil {
			s.logger.Info().
				Str("provider", s.provider.Name()).
				Int("chars", len(text)).
				Msg("Article generated")
			return strings.TrimSpace(text), nil
		}
		lastErr = err

		if !isRateLimitError(err) || attempt == maxRetries {
			break
		}

		wait := s.backoff(attempt, extractRetryDelay(err))
		s.logger.Warn().
			Str("provider", s.provider.Name()).
			Int("attempt", attempt+1).
			Str("backoff", wait.String()).
			Msg("Provider rate limited, backing off")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}

	return "", fmt.Errorf("write article: %w", lastErr)
}

func buildPrompt(title, content string) string {
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "Title: %s\n\n", title)
	}
	b.WriteString("Source:\n")
	b.WriteString(content)
	return b.String()
}
