// -----------------------------------------------------------------------
// Publisher Service - blog and social publishing entry points
// One browser session per publish attempt, released on every exit path.
// Login is retried with backoff; publish steps never are.
// -----------------------------------------------------------------------

package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nuntio/internal/browser"
	"github.com/ternarybob/nuntio/internal/common"
	"github.com/ternarybob/nuntio/internal/interfaces"
	"github.com/ternarybob/nuntio/pkg/models"
)

// pageFactory acquires a fresh page and its release function. Tests
// substitute an in-memory implementation.
type pageFactory func(ctx context.Context) (browser.Page, func(), error)

// Service implements interfaces.PublishService against the configured
// blog and social profiles.
type Service struct {
	config   *common.Config
	browser  browser.Config
	reporter *browser.Reporter
	codes    CodeFetcher
	history  interfaces.HistoryStorage
	retry    browser.RetryPolicy
	newPage  pageFactory
	logger   arbor.ILogger
}

// NewService creates the publisher. codes may be nil when no mailbox is
// configured; history may be nil to skip outcome recording.
func NewService(config *common.Config, reporter *browser.Reporter, codes CodeFetcher, history interfaces.HistoryStorage, logger arbor.ILogger) *Service {
	browserCfg := sessionConfig(config)
	return &Service{
		config:   config,
		browser:  browserCfg,
		reporter: reporter,
		codes:    codes,
		history:  history,
		retry: browser.RetryPolicy{
			MaxAttempts:       config.Retry.MaxAttempts,
			InitialBackoff:    config.Retry.InitialBackoff,
			MaxBackoff:        config.Retry.MaxBackoff,
			BackoffMultiplier: config.Retry.BackoffMultiplier,
		},
		newPage: func(ctx context.Context) (browser.Page, func(), error) {
			sess, err := browser.NewSession(ctx, browserCfg, logger)
			if err != nil {
				return nil, nil, err
			}
			return sess, sess.Close, nil
		},
		logger: logger,
	}
}

// sessionConfig maps application configuration onto session settings.
func sessionConfig(cfg *common.Config) browser.Config {
	return browser.Config{
		Headless:          cfg.Browser.Headless,
		NoSandbox:         cfg.Browser.NoSandbox,
		DisableGPU:        cfg.Browser.DisableGPU,
		WindowWidth:       cfg.Browser.WindowWidth,
		WindowHeight:      cfg.Browser.WindowHeight,
		UserAgent:         cfg.Browser.UserAgent,
		Locale:            cfg.Browser.Locale,
		NavigationTimeout: cfg.Browser.NavigationTimeout,
		DefaultWait:       cfg.Browser.DefaultWait,
		ModalWait:         cfg.Browser.ModalWait,
		PollInterval:      cfg.Browser.PollInterval,
		TypingDelay:       cfg.Browser.TypingDelay,
		SettleDelay:       cfg.Browser.SettleDelay,
		ScreenshotDir:     cfg.Browser.ScreenshotDir,
	}
}

// PublishToBlog logs into the blogging platform and publishes the
// article, returning the canonical URL on success.
func (s *Service) PublishToBlog(ctx context.Context, req models.PublishRequest) models.PublishResult {
	creds := Credentials{
		Identifier: s.config.Blog.Email,
		Secret:     s.config.Blog.Password,
	}
	result := s.run(ctx, models.TargetBlog,
		blogLoginProfile(s.config.Blog), blogComposeProfile(s.config.Blog),
		creds, req.Title, req.Body)
	s.record(ctx, models.TargetBlog, req.Title, req.SourceURL, result)
	return result
}

// PublishToSocial posts a title plus article link to the social network.
// The post body carries both; there is no canonical URL to read back.
func (s *Service) PublishToSocial(ctx context.Context, title, url string) models.PublishResult {
	creds := Credentials{
		Identifier: s.config.Social.Identifier,
		Secondary:  s.config.Social.Username,
		Secret:     s.config.Social.Password,
	}
	body := fmt.Sprintf("%s\n\n%s", title, url)
	result := s.run(ctx, models.TargetSocial,
		socialLoginProfile(s.config.Social), socialComposeProfile(s.config.Social),
		creds, "", body)
	s.record(ctx, models.TargetSocial, title, url, result)
	return result
}

// run executes one login-then-publish attempt. Each login attempt gets
// its own session so a failed attempt never leaks page state into the
// next; the session that confirmed login is reused for publishing and
// released unconditionally.
func (s *Service) run(ctx context.Context, target string, login LoginProfile, compose ComposeProfile, creds Credentials, title, body string) models.PublishResult {
	var page browser.Page
	var release func()

	err := s.retry.Do(ctx, s.logger,
		func(ctx context.Context, attempt int) error {
			p, rel, err := s.newPage(ctx)
			if err != nil {
				return err
			}
			flow := NewLoginFlow(p, s.browser, s.codes, s.logger)
			if err := flow.Run(ctx, login, creds); err != nil {
				rel()
				return err
			}
			page = p
			release = rel
			return nil
		},
		func(attempt int, err error) {
			s.report(ctx, target, err)
		})
	if err != nil {
		return models.Failed(failureReportFrom(err))
	}
	defer release()

	flow := NewPublishFlow(page, s.browser, s.logger)
	url, err := flow.Run(ctx, compose, title, body)
	if err != nil {
		s.report(ctx, target, err)
		return models.Failed(failureReportFrom(err))
	}

	return models.Success(url)
}

func (s *Service) report(ctx context.Context, target string, err error) {
	if s.reporter == nil {
		return
	}
	// Reporting must outlive a cancelled publish context.
	reportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	s.reporter.Report(reportCtx, target, failureReportFrom(err))
}

func (s *Service) record(ctx context.Context, target, title, sourceURL string, result models.PublishResult) {
	if s.history == nil {
		return
	}

	record := &models.PublishRecord{
		Target:    target,
		Title:     title,
		SourceURL: sourceURL,
		Succeeded: result.OK(),
		CreatedAt: time.Now(),
	}
	if result.OK() {
		record.URL = result.URL
	} else {
		record.FailureKind = result.Failure.Kind
	}

	if err := s.history.SaveRecord(ctx, record); err != nil {
		s.logger.Warn().Str("target", target).Err(err).Msg("History record not saved")
	}
}

// failureReportFrom flattens a typed automation error into the report
// shape handed to notifications and API callers.
func failureReportFrom(err error) models.FailureReport {
	report := models.FailureReport{
		Kind:       browser.KindOf(err),
		Message:    err.Error(),
		OccurredAt: time.Now(),
	}
	if report.Kind == "" {
		report.Kind = "InternalError"
	}

	var stepErr *browser.StepError
	if errors.As(err, &stepErr) {
		report.Step = stepErr.Step
	}

	if snap := browser.SnapshotOf(err); snap != nil {
		report.CurrentURL = snap.CurrentURL
		report.PageTitle = snap.PageTitle
		report.Landmarks = snap.Landmarks
		report.ScreenshotPath = snap.ScreenshotPath
		if !snap.Timestamp.IsZero() {
			report.OccurredAt = snap.Timestamp
		}
	}
	return report
}
