package ports

import (
	"context"
	"time"

	"TrendingPress/internal/domain"
)

// TrendingSource pulls a ranked candidate list for a language filter and period.
type TrendingSource interface {
	FetchTrending(ctx context.Context, languageFilter, period string) ([]domain.TrendingItem, error)
}

// RepoEnricher fetches authoritative metadata for one repository.
type RepoEnricher interface {
	EnrichRepo(ctx context.Context, repoID string) (domain.RepoMeta, error)
}

// RepoRepository stores repository metadata and daily picks.
type RepoRepository interface {
	UpsertRepo(ctx context.Context, meta domain.RepoMeta) error
	SavePick(ctx context.Context, pick domain.Pick) error
}

// ArticleRepository tracks article lifecycle and content.
type ArticleRepository interface {
	EnsureDraft(ctx context.Context, articleID, repoID string) error
	ListDrafts(ctx context.Context, limit uint64) ([]domain.Draft, error)
	SaveGenerated(ctx context.Context, articleID string, content domain.ComposedArticle) error
	ListPublishable(ctx context.Context, limit uint64) ([]domain.Article, error)
	MarkReady(ctx context.Context, articleID string, assets []string) error
	SetStatus(ctx context.Context, articleID string, status domain.ArticleStatus) error
}

// PublishRepository appends publish outcomes.
type PublishRepository interface {
	RecordOutcome(ctx context.Context, outcome domain.PublishOutcome) error
}

// ChatClient sends one JSON-mode chat completion and returns the raw message content.
type ChatClient interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// CardRenderer turns article data into vector markup.
type CardRenderer interface {
	RenderSVG(ctx context.Context, card domain.Card) (string, error)
}

// Rasterizer converts vector markup into PNG bytes at the requested width.
type Rasterizer interface {
	Rasterize(ctx context.Context, svg string, width int) ([]byte, error)
}

// BlobStore saves bytes and returns their public URL.
type BlobStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

// Publisher pushes a post to one external platform.
type Publisher interface {
	Platform() domain.Platform
	Publish(ctx context.Context, post domain.Post) (domain.Receipt, error)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
