package interfaces

import "context"

// Attachment is a file attached to an outbound notification.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// NotificationService delivers operator alerts. The pipeline runs
// unattended, so failure diagnostics are shipped by email rather than
// surfaced interactively. Implementations must be treated as best-effort
// by callers: a transport failure is logged and swallowed, never allowed
// to mask the automation failure being reported.
type NotificationService interface {
	// Notify sends an alert to the configured operator address.
	Notify(ctx context.Context, subject, htmlBody, textBody string, attachments []Attachment) error
}
