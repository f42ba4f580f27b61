package publisher

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nuntio/internal/browser"
	"github.com/ternarybob/nuntio/internal/common"
	"github.com/ternarybob/nuntio/internal/interfaces"
)

// MailboxCodeFetcher pulls one-time login codes from the operator
// mailbox. Messages are read and marked seen, never deleted, so a
// concurrent reader observing the same mailbox stays consistent.
type MailboxCodeFetcher struct {
	mailbox interfaces.MailboxService
	cfg     common.OTPConfig
	pattern *regexp.Regexp
	logger  arbor.ILogger
}

// NewMailboxCodeFetcher compiles the extraction pattern up front so a
// bad configuration fails at startup, not mid-login.
func NewMailboxCodeFetcher(mailbox interfaces.MailboxService, cfg common.OTPConfig, logger arbor.ILogger) (*MailboxCodeFetcher, error) {
	pattern, err := regexp.Compile(cfg.Pattern)
	if err != nil {
		return nil, fmt.Errorf("otp pattern: %w", err)
	}
	return &MailboxCodeFetcher{
		mailbox: mailbox,
		cfg:     cfg,
		pattern: pattern,
		logger:  logger,
	}, nil
}

// FetchCode polls the mailbox for the newest matching message and
// extracts the code. Extraction is best-effort against free-form mail
// bodies; exhausting the poll budget yields CodeUnavailable.
func (f *MailboxCodeFetcher) FetchCode(ctx context.Context) (string, error) {
	for poll := 1; poll <= f.cfg.MaxPolls; poll++ {
		code, err := f.tryOnce(ctx)
		if err != nil {
			f.logger.Warn().Int("poll", poll).Err(err).Msg("Mailbox poll failed")
		} else if code != "" {
			f.logger.Info().Int("poll", poll).Msg("Verification code retrieved")
			return code, nil
		}

		if poll == f.cfg.MaxPolls {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(f.cfg.PollInterval):
		}
	}

	return "", browser.NewStepError(browser.KindCodeUnavailable, "code_fetch",
		fmt.Errorf("no matching code mail after %d polls", f.cfg.MaxPolls)).Fatal()
}

func (f *MailboxCodeFetcher) tryOnce(ctx context.Context) (string, error) {
	messages, err := f.mailbox.SearchMessages(ctx, f.cfg.Sender, f.cfg.SubjectFilter, 5)
	if err != nil {
		return "", err
	}
	if len(messages) == 0 {
		return "", nil
	}

	// Newest first.
	newest := messages[0]
	for _, msg := range messages[1:] {
		if msg.Date.After(newest.Date) {
			newest = msg
		}
	}

	match := f.pattern.FindStringSubmatch(newest.Body)
	if match == nil {
		return "", nil
	}
	code := match[0]
	if len(match) > 1 {
		code = match[1]
	}

	if err := f.mailbox.MarkSeen(ctx, newest.ID); err != nil {
		f.logger.Warn().Int64("message_id", int64(newest.ID)).Err(err).Msg("Mark seen failed")
	}
	return code, nil
}
