package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"
)

// Snapshot records page state at the moment a step failed. Every field
// is best-effort; a probe failure leaves its field zero rather than
// masking the original error.
type Snapshot struct {
	Timestamp      time.Time
	CurrentURL     string
	PageTitle      string
	Landmarks      map[string]bool
	ScreenshotPath string
}

// CaptureSnapshot gathers diagnostics from the page. When screenshotDir
// is non-empty the viewport is written there as a timestamped PNG and
// the path recorded.
func CaptureSnapshot(ctx context.Context, page Page, landmarks []Landmark, screenshotDir, step string, logger arbor.ILogger) *Snapshot {
	snap := &Snapshot{
		Timestamp: time.Now(),
		Landmarks: ProbeLandmarks(ctx, page, landmarks),
	}

	if url, err := page.CurrentURL(ctx); err == nil {
		snap.CurrentURL = url
	}
	if title, err := page.Title(ctx); err == nil {
		snap.PageTitle = title
	}

	if screenshotDir != "" {
		if path, err := writeScreenshot(ctx, page, screenshotDir, step, snap.Timestamp); err != nil {
			logger.Warn().Err(err).Msg("Screenshot capture failed")
		} else {
			snap.ScreenshotPath = path
		}
	}

	return snap
}

func writeScreenshot(ctx context.Context, page Page, dir, step string, ts time.Time) (string, error) {
	buf, err := page.Screenshot(ctx)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s_%s.png", ts.Format("20060102_150405"), step)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
