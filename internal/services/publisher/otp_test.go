package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/nuntio/internal/browser"
	"github.com/ternarybob/nuntio/internal/common"
	"github.com/ternarybob/nuntio/internal/interfaces"
)

type fakeMailbox struct {
	mu       sync.Mutex
	messages []interfaces.MailMessage
	seen     []uint32
	searches int
}

func (f *fakeMailbox) SearchMessages(ctx context.Context, from, subject string, limit int) ([]interfaces.MailMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	return f.messages, nil
}

func (f *fakeMailbox) MarkSeen(ctx context.Context, id uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, id)
	return nil
}

func otpConfig() common.OTPConfig {
	return common.OTPConfig{
		Sender:        "verify@x.com",
		SubjectFilter: "confirmation code",
		Pattern:       `\b([0-9a-zA-Z]{6,8})\b`,
		MaxPolls:      3,
		PollInterval:  5 * time.Millisecond,
	}
}

func TestMailboxCodeFetcher_ExtractsCodeFromNewestMessage(t *testing.T) {
	mailbox := &fakeMailbox{messages: []interfaces.MailMessage{
		{ID: 1, Body: "Your confirmation code is abc123 for login", Date: time.Now().Add(-time.Hour)},
		{ID: 2, Body: "Your confirmation code is xyz789 for login", Date: time.Now()},
	}}

	fetcher, err := NewMailboxCodeFetcher(mailbox, otpConfig(), testLogger())
	require.NoError(t, err)

	code, err := fetcher.FetchCode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "xyz789", code)
	assert.Equal(t, []uint32{2}, mailbox.seen)
}

func TestMailboxCodeFetcher_EmptyMailboxIsCodeUnavailable(t *testing.T) {
	mailbox := &fakeMailbox{}

	fetcher, err := NewMailboxCodeFetcher(mailbox, otpConfig(), testLogger())
	require.NoError(t, err)

	_, err = fetcher.FetchCode(context.Background())
	require.Error(t, err)
	assert.Equal(t, browser.KindCodeUnavailable, browser.KindOf(err))
	assert.False(t, browser.IsRetryable(err))
	assert.Equal(t, 3, mailbox.searches)
}

func TestMailboxCodeFetcher_CodeArrivesOnLaterPoll(t *testing.T) {
	mailbox := &fakeMailbox{}

	fetcher, err := NewMailboxCodeFetcher(mailbox, otpConfig(), testLogger())
	require.NoError(t, err)

	go func() {
		time.Sleep(8 * time.Millisecond)
		mailbox.mu.Lock()
		mailbox.messages = []interfaces.MailMessage{
			{ID: 7, Body: "code: qwe456", Date: time.Now()},
		}
		mailbox.mu.Unlock()
	}()

	code, err := fetcher.FetchCode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "qwe456", code)
}

func TestNewMailboxCodeFetcher_RejectsBadPattern(t *testing.T) {
	cfg := otpConfig()
	cfg.Pattern = `([`

	_, err := NewMailboxCodeFetcher(&fakeMailbox{}, cfg, testLogger())
	assert.Error(t, err)
}
