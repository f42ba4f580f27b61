package models

import "time"

// Publish targets recorded in history.
const (
	TargetBlog   = "blog"
	TargetSocial = "social"
)

// PublishRecord is the stored outcome of one publish attempt. History is
// best-effort: storage failures never fail a publish.
type PublishRecord struct {
	ID          string    `json:"id" badgerhold:"key"`
	Target      string    `json:"target"`
	Title       string    `json:"title"`
	URL         string    `json:"url,omitempty"`
	SourceURL   string    `json:"source_url,omitempty"`
	Succeeded   bool      `json:"succeeded"`
	FailureKind string    `json:"failure_kind,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
