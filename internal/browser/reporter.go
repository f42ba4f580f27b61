// -----------------------------------------------------------------------
// Failure Reporter - turns step failures into operator notifications
// Reporting is best-effort: a notification transport error is logged and
// swallowed so it never masks the publish failure itself.
// -----------------------------------------------------------------------

package browser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"

	"github.com/ternarybob/nuntio/internal/interfaces"
	"github.com/ternarybob/nuntio/pkg/models"
)

const redactedPlaceholder = "[REDACTED]"

// Reporter notifies the operator about publish failures. Every secret
// value it is constructed with is scrubbed from messages, snapshots and
// log excerpts before anything leaves the process.
type Reporter struct {
	notifier     interfaces.NotificationService
	secrets      []string
	logPath      string
	excerptBytes int
	attachShots  bool
	logger       arbor.ILogger
}

// NewReporter builds a reporter. secrets holds the raw credential values
// to redact; empty entries are ignored.
func NewReporter(notifier interfaces.NotificationService, secrets []string, logPath string, excerptBytes int, attachShots bool, logger arbor.ILogger) *Reporter {
	clean := make([]string, 0, len(secrets))
	for _, s := range secrets {
		if s != "" {
			clean = append(clean, s)
		}
	}
	// Longest first so overlapping values cannot leave fragments behind.
	sort.Slice(clean, func(i, j int) bool { return len(clean[i]) > len(clean[j]) })

	if excerptBytes <= 0 {
		excerptBytes = 16 * 1024
	}

	return &Reporter{
		notifier:     notifier,
		secrets:      clean,
		logPath:      logPath,
		excerptBytes: excerptBytes,
		attachShots:  attachShots,
		logger:       logger,
	}
}

// Report sends one failure notification. Errors from the notification
// transport are logged and not returned.
func (r *Reporter) Report(ctx context.Context, target string, report models.FailureReport) {
	subject := fmt.Sprintf("Publish failure: %s (%s)", target, report.Kind)
	markdown := r.redact(r.buildMarkdown(target, report))

	var html bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &html); err != nil {
		r.logger.Warn().Err(err).Msg("Report markdown rendering failed, sending plain text only")
		html.Reset()
	}

	var attachments []interfaces.Attachment
	if r.attachShots && report.ScreenshotPath != "" {
		if att, err := screenshotAttachment(report.ScreenshotPath); err != nil {
			r.logger.Warn().Str("path", report.ScreenshotPath).Err(err).Msg("Screenshot attachment skipped")
		} else {
			attachments = append(attachments, att)
		}
	}

	if err := r.notifier.Notify(ctx, subject, html.String(), markdown, attachments); err != nil {
		r.logger.Error().Str("target", target).Err(err).Msg("Failure notification could not be delivered")
		return
	}

	r.logger.Info().
		Str("target", target).
		Str("kind", report.Kind).
		Str("step", report.Step).
		Msg("Failure notification sent")
}

func (r *Reporter) buildMarkdown(target string, report models.FailureReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Publish failure: %s\n\n", target)
	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Kind | %s |\n", report.Kind)
	fmt.Fprintf(&b, "| Step | %s |\n", report.Step)
	fmt.Fprintf(&b, "| Time | %s |\n", report.OccurredAt.Format("2006-01-02 15:04:05 MST"))
	if report.CurrentURL != "" {
		fmt.Fprintf(&b, "| URL | %s |\n", report.CurrentURL)
	}
	if report.PageTitle != "" {
		fmt.Fprintf(&b, "| Page title | %s |\n", report.PageTitle)
	}
	b.WriteString("\n")

	if report.Message != "" {
		fmt.Fprintf(&b, "## Error\n\n```\n%s\n```\n\n", report.Message)
	}

	if len(report.Landmarks) > 0 {
		b.WriteString("## Page landmarks\n\n")
		names := make([]string, 0, len(report.Landmarks))
		for name := range report.Landmarks {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			state := "absent"
			if report.Landmarks[name] {
				state = "present"
			}
			fmt.Fprintf(&b, "- %s: %s\n", name, state)
		}
		b.WriteString("\n")
	}

	if excerpt := r.logExcerpt(); excerpt != "" {
		fmt.Fprintf(&b, "## Log excerpt\n\n```\n%s\n```\n", excerpt)
	}

	return b.String()
}

// logExcerpt returns the tail of the log file, capped at excerptBytes.
func (r *Reporter) logExcerpt() string {
	if r.logPath == "" {
		return ""
	}

	f, err := os.Open(r.logPath)
	if err != nil {
		return ""
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return ""
	}

	offset := info.Size() - int64(r.excerptBytes)
	if offset < 0 {
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return ""
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (r *Reporter) redact(text string) string {
	for _, secret := range r.secrets {
		text = strings.ReplaceAll(text, secret, redactedPlaceholder)
	}
	return text
}

func screenshotAttachment(path string) (interfaces.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return interfaces.Attachment{}, err
	}
	name := path
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		name = path[idx+1:]
	}
	return interfaces.Attachment{
		Filename:    name,
		ContentType: "image/png",
		Content:     data,
	}, nil
}
