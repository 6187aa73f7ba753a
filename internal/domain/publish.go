package domain

import (
	"errors"
	"time"
)

// ErrMissingConfig marks a required secret or endpoint that was not provided.
var ErrMissingConfig = errors.New("missing configuration")

// Platform names a publishing target.
type Platform string

const (
	PlatformTelegram Platform = "telegram"
	PlatformDevTo    Platform = "devto"
	PlatformMedium   Platform = "medium"
)

// ParsePlatform validates a platform name.
func ParsePlatform(value string) (Platform, bool) {
	switch p := Platform(value); p {
	case PlatformTelegram, PlatformDevTo, PlatformMedium:
		return p, true
	default:
		return "", false
	}
}

// PublishStatus is the state of one publish attempt.
type PublishStatus string

const (
	PublishSent   PublishStatus = "sent"
	PublishQueued PublishStatus = "queued"
	PublishFailed PublishStatus = "failed"
)

// Post is the platform-neutral payload handed to every publisher.
type Post struct {
	ArticleID string
	RepoID    string
	Title     string
	Summary   string
	Markdown  string
	Tags      []string
	ImageURL  string
	VectorURL string
}

// Receipt is what a platform returns after accepting a post.
type Receipt struct {
	URL string
	ID  string
}

// PublishOutcome records one attempt for one (article, platform) pair. Rows are append-only.
type PublishOutcome struct {
	ID        string
	ArticleID string
	Platform  Platform
	PostURL   *string
	PostID    *string
	Status    PublishStatus
	Error     string
	CreatedAt time.Time
}
