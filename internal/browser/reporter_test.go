package browser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/nuntio/internal/interfaces"
	"github.com/ternarybob/nuntio/pkg/models"
)

type fakeNotifier struct {
	subjects    []string
	htmlBodies  []string
	textBodies  []string
	attachments [][]interfaces.Attachment
	err         error
}

func (f *fakeNotifier) Notify(ctx context.Context, subject, htmlBody, textBody string, attachments []interfaces.Attachment) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.htmlBodies = append(f.htmlBodies, htmlBody)
	f.textBodies = append(f.textBodies, textBody)
	f.attachments = append(f.attachments, attachments)
	return nil
}

func sampleReport() models.FailureReport {
	return models.FailureReport{
		Kind:       KindWaitTimeout,
		Step:       "login_button",
		Message:    "timed out after 20s waiting for [login_button]",
		CurrentURL: "https://note.com/login",
		PageTitle:  "note - login",
		Landmarks:  map[string]bool{"login_form": true, "home_header": false},
		OccurredAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestReporter_SendsSubjectWithTargetAndKind(t *testing.T) {
	notifier := &fakeNotifier{}
	r := NewReporter(notifier, nil, "", 0, false, testLogger())

	r.Report(context.Background(), "blog", sampleReport())

	require.Len(t, notifier.subjects, 1)
	assert.Contains(t, notifier.subjects[0], "blog")
	assert.Contains(t, notifier.subjects[0], KindWaitTimeout)
}

func TestReporter_BodyCarriesSnapshotDiagnostics(t *testing.T) {
	notifier := &fakeNotifier{}
	r := NewReporter(notifier, nil, "", 0, false, testLogger())

	r.Report(context.Background(), "blog", sampleReport())

	require.Len(t, notifier.textBodies, 1)
	body := notifier.textBodies[0]
	assert.Contains(t, body, "https://note.com/login")
	assert.Contains(t, body, "login_form: present")
	assert.Contains(t, body, "home_header: absent")
	assert.NotEmpty(t, notifier.htmlBodies[0])
}

func TestReporter_RedactsEverySecretValue(t *testing.T) {
	notifier := &fakeNotifier{}
	r := NewReporter(notifier, []string{"hunter2", "hunter2-extended", ""}, "", 0, false, testLogger())

	report := sampleReport()
	report.Message = "typed hunter2-extended into #password, fallback hunter2"
	r.Report(context.Background(), "social", report)

	require.Len(t, notifier.textBodies, 1)
	assert.NotContains(t, notifier.textBodies[0], "hunter2")
	assert.NotContains(t, notifier.htmlBodies[0], "hunter2")
	assert.Contains(t, notifier.textBodies[0], redactedPlaceholder)
}

func TestReporter_IncludesLogExcerptTail(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nuntio.log")
	require.NoError(t, os.WriteFile(logPath, []byte("old line\nsecret=hunter2\nlast line\n"), 0o644))

	notifier := &fakeNotifier{}
	r := NewReporter(notifier, []string{"hunter2"}, logPath, 16, false, testLogger())

	r.Report(context.Background(), "blog", sampleReport())

	require.Len(t, notifier.textBodies, 1)
	body := notifier.textBodies[0]
	assert.Contains(t, body, "last line")
	assert.NotContains(t, body, "old line") // beyond the excerpt cap
	assert.NotContains(t, body, "hunter2")
}

func TestReporter_AttachesScreenshotWhenEnabled(t *testing.T) {
	shotPath := filepath.Join(t.TempDir(), "20260314_093000_login_button.png")
	require.NoError(t, os.WriteFile(shotPath, []byte{0x89, 'P', 'N', 'G'}, 0o644))

	notifier := &fakeNotifier{}
	r := NewReporter(notifier, nil, "", 0, true, testLogger())

	report := sampleReport()
	report.ScreenshotPath = shotPath
	r.Report(context.Background(), "blog", report)

	require.Len(t, notifier.attachments, 1)
	require.Len(t, notifier.attachments[0], 1)
	att := notifier.attachments[0][0]
	assert.Equal(t, "20260314_093000_login_button.png", att.Filename)
	assert.Equal(t, "image/png", att.ContentType)
	assert.NotEmpty(t, att.Content)
}

func TestReporter_TransportErrorsAreSwallowed(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("smtp connect refused")}
	r := NewReporter(notifier, nil, "", 0, false, testLogger())

	assert.NotPanics(t, func() {
		r.Report(context.Background(), "blog", sampleReport())
	})
}
