package models

import "time"

// PublishRequest carries the content handed to a publishing flow. It is
// validated at the API boundary and immutable once a flow starts.
type PublishRequest struct {
	Title     string `json:"title" validate:"required,max=200"`
	Body      string `json:"body" validate:"required,max=100000"`
	SourceURL string `json:"source_url,omitempty" validate:"omitempty,url"`
}

// FailureReport describes a terminal publishing failure. It carries the
// typed failure kind plus the diagnostic context captured from the browser
// at the moment of failure. Screenshot paths and landmark details are for
// the operator notification channel only and are never returned to HTTP
// callers.
type FailureReport struct {
	Kind           string          `json:"kind"`
	Step           string          `json:"step,omitempty"`
	Message        string          `json:"message,omitempty"`
	CurrentURL     string          `json:"current_url,omitempty"`
	PageTitle      string          `json:"page_title,omitempty"`
	Landmarks      map[string]bool `json:"landmarks,omitempty"`
	ScreenshotPath string          `json:"screenshot_path,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// PublishResult is the outcome of a single publish attempt. Exactly one of
// URL or Failure is meaningful: either the platform accepted the full post
// and a canonical URL was observed, or the attempt failed and nothing
// further is assumed about server-side state.
type PublishResult struct {
	URL     string         `json:"url,omitempty"`
	Failure *FailureReport `json:"failure,omitempty"`
}

// OK reports whether the publish attempt succeeded.
func (r PublishResult) OK() bool {
	return r.Failure == nil
}

// Success builds a successful result carrying the canonical URL.
func Success(url string) PublishResult {
	return PublishResult{URL: url}
}

// Failed builds a failure result.
func Failed(report FailureReport) PublishResult {
	return PublishResult{Failure: &report}
}
