// -----------------------------------------------------------------------
// Mailbox Service - IMAP retrieval of one-time login codes
// Messages are read and marked seen, never deleted, so re-reads stay
// idempotent for any other consumer of the same mailbox.
// -----------------------------------------------------------------------

package mailbox

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nuntio/internal/common"
	"github.com/ternarybob/nuntio/internal/interfaces"
)

// Service implements interfaces.MailboxService over IMAP. Each call opens
// a short-lived connection; login sessions are cheap relative to the
// polling cadence and a persistent connection would need keepalive
// handling.
type Service struct {
	config common.IMAPConfig
	logger arbor.ILogger
}

// NewService creates the mailbox service.
func NewService(config common.IMAPConfig, logger arbor.ILogger) *Service {
	return &Service{config: config, logger: logger}
}

// IsConfigured reports whether the minimum connection settings are set.
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Username != "" && s.config.Password != ""
}

// SearchMessages returns unseen messages matching the sender and subject
// filters, newest first, capped at limit.
func (s *Service) SearchMessages(ctx context.Context, from, subject string, limit int) ([]interfaces.MailMessage, error) {
	if !s.IsConfigured() {
		return nil, fmt.Errorf("mailbox not configured")
	}

	c, err := s.connect()
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	mbox, err := c.Select(s.mailboxName(), false)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", s.mailboxName(), err)
	}
	if mbox.Messages == 0 {
		return nil, nil
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}

	seqNums, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("search unseen: %w", err)
	}
	if len(seqNums) == 0 {
		return nil, nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(seqNums...)

	section := &imap.BodySectionName{}
	messages := make(chan *imap.Message, len(seqNums))

	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqSet, []imap.FetchItem{imap.FetchEnvelope, imap.FetchFlags, section.FetchItem()}, messages)
	}()

	var results []interfaces.MailMessage
	for msg := range messages {
		if msg == nil || msg.Envelope == nil {
			continue
		}

		sender := ""
		if len(msg.Envelope.From) > 0 {
			sender = msg.Envelope.From[0].Address()
		}
		if from != "" && !strings.EqualFold(sender, from) {
			continue
		}
		if subject != "" && !strings.Contains(strings.ToLower(msg.Envelope.Subject), strings.ToLower(subject)) {
			continue
		}

		body, err := parseTextBody(msg, section)
		if err != nil {
			s.logger.Warn().Err(err).Int64("seq", int64(msg.SeqNum)).Msg("Failed to parse message body")
			continue
		}

		results = append(results, interfaces.MailMessage{
			ID:      msg.SeqNum,
			From:    sender,
			Subject: msg.Envelope.Subject,
			Body:    body,
			Date:    msg.Envelope.Date,
		})
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Date.After(results[j].Date) })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	s.logger.Debug().Int("count", len(results)).Msg("Matching unseen messages")
	return results, nil
}

// MarkSeen flags a message as read without deleting it.
func (s *Service) MarkSeen(ctx context.Context, id uint32) error {
	if !s.IsConfigured() {
		return fmt.Errorf("mailbox not configured")
	}

	c, err := s.connect()
	if err != nil {
		return err
	}
	defer c.Logout()

	if _, err := c.Select(s.mailboxName(), false); err != nil {
		return fmt.Errorf("select %s: %w", s.mailboxName(), err)
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(id)

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.SeenFlag}
	if err := c.Store(seqSet, item, flags, nil); err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}

	s.logger.Debug().Int64("message_id", int64(id)).Msg("Message marked seen")
	return nil
}

func (s *Service) connect() (*client.Client, error) {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	var c *client.Client
	var err error
	if s.config.UseTLS {
		c, err = client.DialTLS(addr, nil)
	} else {
		c, err = client.Dial(addr)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}

	if err := c.Login(s.config.Username, s.config.Password); err != nil {
		c.Logout()
		return nil, fmt.Errorf("imap login: %w", err)
	}
	return c, nil
}

func (s *Service) mailboxName() string {
	if s.config.Mailbox != "" {
		return s.config.Mailbox
	}
	return "INBOX"
}

// parseTextBody extracts the first text/plain part of a message.
func parseTextBody(msg *imap.Message, section *imap.BodySectionName) (string, error) {
	r := msg.GetBody(section)
	if r == nil {
		return "", fmt.Errorf("no body section")
	}

	mr, err := mail.CreateReader(r)
	if err != nil {
		return "", fmt.Errorf("create mail reader: %w", err)
	}

	var body string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read part: %w", err)
		}

		if h, ok := p.Header.(*mail.InlineHeader); ok {
			contentType, _, _ := h.ContentType()
			if strings.HasPrefix(contentType, "text/plain") {
				b, err := io.ReadAll(p.Body)
				if err != nil {
					return "", fmt.Errorf("read body: %w", err)
				}
				body = string(b)
			}
		}
	}

	return strings.TrimSpace(body), nil
}
