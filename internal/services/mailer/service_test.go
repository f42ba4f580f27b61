package mailer

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/nuntio/internal/common"
	"github.com/ternarybob/nuntio/internal/interfaces"
)

func TestBuildMessage_PlainAndHTMLParts(t *testing.T) {
	msg := buildMessage("nuntio@example.com", "Nuntio", "ops@example.com",
		"Publish failure: blog (WaitTimeout)", "<h1>failure</h1>", "failure", nil)

	assert.Contains(t, msg, "From: Nuntio <nuntio@example.com>")
	assert.Contains(t, msg, "To: ops@example.com")
	assert.Contains(t, msg, "Subject: Publish failure: blog (WaitTimeout)")
	assert.Contains(t, msg, "multipart/alternative")
	assert.Contains(t, msg, "Content-Type: text/plain")
	assert.Contains(t, msg, "Content-Type: text/html")

	// Bodies travel base64 encoded, not raw.
	assert.NotContains(t, msg, "<h1>failure</h1>")
	assert.Contains(t, msg, base64.StdEncoding.EncodeToString([]byte("<h1>failure</h1>")))
}

func TestBuildMessage_AttachmentsUseMixedMultipart(t *testing.T) {
	attachments := []interfaces.Attachment{
		{Filename: "failure.png", ContentType: "image/png", Content: []byte{0x89, 'P', 'N', 'G'}},
		{Filename: "raw.bin", Content: []byte{0x00}},
	}

	msg := buildMessage("nuntio@example.com", "Nuntio", "ops@example.com",
		"subject", "<p>body</p>", "body", attachments)

	assert.Contains(t, msg, "multipart/mixed")
	assert.Contains(t, msg, "multipart/alternative")
	assert.Contains(t, msg, `Content-Disposition: attachment; filename="failure.png"`)
	assert.Contains(t, msg, "Content-Type: image/png")
	// Missing content type falls back to octet-stream.
	assert.Contains(t, msg, "Content-Type: application/octet-stream")
}

func TestBuildMessage_LongBodiesWrapAt76(t *testing.T) {
	body := strings.Repeat("x", 4000)
	msg := buildMessage("nuntio@example.com", "Nuntio", "ops@example.com",
		"subject", body, "", nil)

	// The encoded body must be broken into RFC 2045 lines, never shipped
	// as one run, and no line may cross the SMTP hard limit.
	encoded := base64.StdEncoding.EncodeToString([]byte(body))
	assert.NotContains(t, msg, encoded)
	for _, line := range strings.Split(msg, "\r\n") {
		assert.LessOrEqual(t, len(line), 998, "line exceeds SMTP hard limit: %q", line)
		if !strings.ContainsAny(line, ": ") && line != "" {
			assert.LessOrEqual(t, len(line), 76, "encoded line not wrapped: %q", line)
		}
	}
}

func TestGenerateBoundary_Unique(t *testing.T) {
	a := generateBoundary()
	b := generateBoundary()
	require.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "nuntio_"))
}

func TestNotify_UnconfiguredTransportFails(t *testing.T) {
	svc := NewService(common.SMTPConfig{}, "", nil)
	assert.False(t, svc.IsConfigured())
}
