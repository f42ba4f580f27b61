// -----------------------------------------------------------------------
// Mailer Service - SMTP notification transport for failure reports
// -----------------------------------------------------------------------

package mailer

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nuntio/internal/common"
	"github.com/ternarybob/nuntio/internal/interfaces"
)

// Service implements interfaces.NotificationService over SMTP. All
// notifications go to the configured operator address.
type Service struct {
	config   common.SMTPConfig
	operator string
	logger   arbor.ILogger
}

// NewService creates the mailer.
func NewService(config common.SMTPConfig, operator string, logger arbor.ILogger) *Service {
	return &Service{config: config, operator: operator, logger: logger}
}

// IsConfigured reports whether the transport has the minimum settings to
// send.
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Username != "" && s.config.Password != "" &&
		s.config.From != "" && s.operator != ""
}

// Notify sends one operator alert with optional HTML body and
// attachments.
func (s *Service) Notify(ctx context.Context, subject, htmlBody, textBody string, attachments []interfaces.Attachment) error {
	if !s.IsConfigured() {
		return fmt.Errorf("notification transport not configured")
	}

	msg := buildMessage(s.config.From, s.config.FromName, s.operator, subject, htmlBody, textBody, attachments)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)

	var err error
	if s.config.UseTLS {
		err = s.sendWithTLS(addr, auth, msg)
	} else {
		err = smtp.SendMail(addr, auth, s.config.From, []string{s.operator}, []byte(msg))
	}
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("to", s.operator).
		Str("subject", subject).
		Int("attachments", len(attachments)).
		Msg("Notification sent")
	return nil
}

// buildMessage assembles the full MIME message. Body and attachments are
// base64 encoded with RFC 2045 line wrapping so long HTML lines survive
// every mail server.
func buildMessage(from, fromName, to, subject, htmlBody, textBody string, attachments []interfaces.Attachment) string {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", fromName, from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")

	altBoundary := generateBoundary()
	writeAlternative := func(w *strings.Builder) {
		if textBody != "" {
			w.WriteString(fmt.Sprintf("--%s\r\n", altBoundary))
			w.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
			w.WriteString("Content-Transfer-Encoding: base64\r\n")
			w.WriteString("\r\n")
			w.WriteString(encodeBase64WithLineBreaks(textBody))
			w.WriteString("\r\n")
		}
		if htmlBody != "" {
			w.WriteString(fmt.Sprintf("--%s\r\n", altBoundary))
			w.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
			w.WriteString("Content-Transfer-Encoding: base64\r\n")
			w.WriteString("\r\n")
			w.WriteString(encodeBase64WithLineBreaks(htmlBody))
			w.WriteString("\r\n")
		}
		w.WriteString(fmt.Sprintf("--%s--\r\n", altBoundary))
	}

	if len(attachments) == 0 {
		msg.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", altBoundary))
		msg.WriteString("\r\n")
		writeAlternative(&msg)
		return msg.String()
	}

	mixedBoundary := generateBoundary()
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=\"%s\"\r\n", mixedBoundary))
	msg.WriteString("\r\n")

	msg.WriteString(fmt.Sprintf("--%s\r\n", mixedBoundary))
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", altBoundary))
	msg.WriteString("\r\n")
	writeAlternative(&msg)

	for _, att := range attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		msg.WriteString(fmt.Sprintf("--%s\r\n", mixedBoundary))
		msg.WriteString(fmt.Sprintf("Content-Type: %s; name=\"%s\"\r\n", contentType, att.Filename))
		msg.WriteString("Content-Transfer-Encoding: base64\r\n")
		msg.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=\"%s\"\r\n", att.Filename))
		msg.WriteString("\r\n")
		msg.WriteString(encodeBase64WithLineBreaks(string(att.Content)))
		msg.WriteString("\r\n")
	}

	msg.WriteString(fmt.Sprintf("--%s--\r\n", mixedBoundary))
	return msg.String()
}

// sendWithTLS connects over direct TLS, falling back to STARTTLS when the
// server does not accept implicit TLS on the configured port.
func (s *Service) sendWithTLS(addr string, auth smtp.Auth, msg string) error {
	host := strings.Split(addr, ":")[0]

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return s.sendWithSTARTTLS(addr, auth, msg)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	defer client.Close()

	return s.transmit(client, auth, msg)
}

func (s *Service) sendWithSTARTTLS(addr string, auth smtp.Auth, msg string) error {
	host := strings.Split(addr, ":")[0]

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("connect smtp server: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return fmt.Errorf("start tls: %w", err)
	}

	return s.transmit(client, auth, msg)
}

func (s *Service) transmit(client *smtp.Client, auth smtp.Auth, msg string) error {
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(s.config.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(s.operator); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("start data: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data writer: %w", err)
	}

	return client.Quit()
}

// generateBoundary creates a unique MIME boundary using crypto/rand so it
// cannot collide with message content.
func generateBoundary() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "nuntio_boundary_fallback"
	}
	return fmt.Sprintf("nuntio_%x", b)
}

// encodeBase64WithLineBreaks wraps base64 output at 76 characters per
// RFC 2045.
func encodeBase64WithLineBreaks(content string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(content))

	var result strings.Builder
	const lineLen = 76
	for i := 0; i < len(encoded); i += lineLen {
		end := i + lineLen
		if end > len(encoded) {
			end = len(encoded)
		}
		result.WriteString(encoded[i:end])
		if end < len(encoded) {
			result.WriteString("\r\n")
		}
	}
	return result.String()
}
