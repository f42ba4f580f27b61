package interfaces

import (
	"context"
	"time"
)

// MailMessage is a fetched mailbox message.
type MailMessage struct {
	ID      uint32
	From    string
	Subject string
	Body    string
	Date    time.Time
}

// MailboxService reads messages from a designated operator mailbox. It is
// used by login flows to retrieve one-time verification codes. The mailbox
// is a shared external resource and must be treated as read-and-mark:
// messages are marked seen, never deleted, so re-reads stay idempotent.
type MailboxService interface {
	// SearchMessages returns up to limit unseen messages matching the
	// sender and subject filters, newest first. Empty filters match
	// everything.
	SearchMessages(ctx context.Context, from, subject string, limit int) ([]MailMessage, error)

	// MarkSeen flags a message as read so later polls skip it.
	MarkSeen(ctx context.Context, id uint32) error
}
