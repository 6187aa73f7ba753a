package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"TrendingPress/internal/domain"
	"TrendingPress/internal/metrics"
	"TrendingPress/internal/ports"
	"TrendingPress/internal/publish"
)

// PublishStageDeps wires the collaborators of the render and publish stage.
type PublishStageDeps struct {
	Articles   ports.ArticleRepository
	Outcomes   ports.PublishRepository
	Renderer   ports.CardRenderer
	Rasterizer ports.Rasterizer
	Blobs      ports.BlobStore
	Publishers *publish.Registry
	Logger     *slog.Logger
}

// PublishConfig tunes the render and publish stage.
type PublishConfig struct {
	Limit    uint64
	Width    int
	Location *time.Location
}

// PublishStage renders cards for finished articles and fans each one out to every configured platform.
type PublishStage struct {
	articles   ports.ArticleRepository
	outcomes   ports.PublishRepository
	renderer   ports.CardRenderer
	rasterizer ports.Rasterizer
	blobs      ports.BlobStore
	publishers *publish.Registry
	cfg        PublishConfig
	logger     *slog.Logger
	now        func() time.Time
}

// NewPublishStage constructs the stage.
func NewPublishStage(deps PublishStageDeps, cfg PublishConfig) *PublishStage {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	publishers := deps.Publishers
	if publishers == nil {
		publishers = publish.NewRegistry()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PublishStage{
		articles:   deps.Articles,
		outcomes:   deps.Outcomes,
		renderer:   deps.Renderer,
		rasterizer: deps.Rasterizer,
		blobs:      deps.Blobs,
		publishers: publishers,
		cfg:        cfg,
		logger:     logger.With("stage", stagePublish),
		now:        time.Now,
	}
}

// Run handles up to Limit generated or ready articles. Failures are isolated per article and per platform.
func (s *PublishStage) Run(ctx context.Context) (Report, error) {
	started := s.now()
	defer func() {
		metrics.StageDuration.WithLabelValues(stagePublish).Observe(s.now().Sub(started).Seconds())
	}()

	articles, err := s.articles.ListPublishable(ctx, s.cfg.Limit)
	if err != nil {
		return Report{}, fmt.Errorf("list publishable: %w", err)
	}

	var report Report
	for i, article := range articles {
		if ctx.Err() != nil {
			report.Skipped += len(articles) - i
			return report, ctx.Err()
		}
		err := s.PublishArticle(ctx, article)
		if errors.Is(err, errNoPlatforms) {
			s.logger.Warn("card ready but no platform configured", "article", article.ID)
			report.Skipped++
			continue
		}
		if err != nil {
			s.logger.Error("article not published", "article", article.ID, "error", err)
			metrics.RecordError(stagePublish)
			report.Errors++
			continue
		}
		metrics.RecordProcessed(stagePublish)
		report.Processed++
	}

	s.logger.Info("publish stage finished", "processed", report.Processed, "errors", report.Errors)
	return report, nil
}

var errNoPlatforms = errors.New("no publishing platform configured")

// PublishArticle renders the card if needed, attempts every platform once and marks the article published.
// A render failure marks the article failed and nothing is sent.
func (s *PublishStage) PublishArticle(ctx context.Context, article domain.Article) error {
	assets := article.Assets
	if article.Status != domain.StatusReady || len(assets) < 2 {
		rendered, err := s.renderAssets(ctx, article)
		if err != nil {
			if serr := s.articles.SetStatus(ctx, article.ID, domain.StatusFailed); serr != nil {
				s.logger.Error("mark article failed", "article", article.ID, "error", serr)
			}
			return fmt.Errorf("render card: %w", err)
		}
		if err := s.articles.MarkReady(ctx, article.ID, rendered); err != nil {
			return fmt.Errorf("mark ready: %w", err)
		}
		assets = rendered
	}

	if s.publishers.Len() == 0 {
		return errNoPlatforms
	}

	post := buildPost(article, assets)
	for _, publisher := range s.publishers.All() {
		s.attempt(ctx, publisher, post)
	}

	if err := s.articles.SetStatus(ctx, article.ID, domain.StatusPublished); err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	return nil
}

// attempt publishes to one platform and records the outcome. Errors never escape.
func (s *PublishStage) attempt(ctx context.Context, publisher ports.Publisher, post domain.Post) {
	platform := publisher.Platform()
	outcome := domain.PublishOutcome{
		ArticleID: post.ArticleID,
		Platform:  platform,
		CreatedAt: s.now().UTC(),
	}

	receipt, err := publisher.Publish(ctx, post)
	if err != nil {
		outcome.Status = domain.PublishFailed
		outcome.Error = err.Error()
		s.logger.Error("platform publish failed", "article", post.ArticleID, "platform", platform, "error", err)
	} else {
		outcome.Status = domain.PublishSent
		outcome.PostURL = optional(receipt.URL)
		outcome.PostID = optional(receipt.ID)
		s.logger.Info("platform publish sent", "article", post.ArticleID, "platform", platform, "url", receipt.URL)
	}
	metrics.RecordPublish(string(platform), string(outcome.Status))

	if err := s.outcomes.RecordOutcome(ctx, outcome); err != nil {
		s.logger.Error("record publish outcome failed", "article", post.ArticleID, "platform", platform, "error", err)
	}
}

func (s *PublishStage) renderAssets(ctx context.Context, article domain.Article) ([]string, error) {
	date := s.now().In(s.cfg.Location).Format(dateLayout)

	title := article.Content.Title()
	if title == "" {
		title = article.RepoID
	}
	svg, err := s.renderer.RenderSVG(ctx, domain.Card{
		Title:       title,
		Repo:        article.RepoID,
		Description: article.Content.Summary(),
		Stars:       article.StarsTotal,
		Tags:        article.Content.Tags,
		Date:        date,
	})
	if err != nil {
		return nil, err
	}

	base := CardPath(date, article.RepoID)
	svgURL, err := s.blobs.Put(ctx, base+".svg", []byte(svg), "image/svg+xml")
	if err != nil {
		return nil, fmt.Errorf("store svg: %w", err)
	}

	png, err := s.rasterizer.Rasterize(ctx, svg, s.cfg.Width)
	if err != nil {
		return nil, err
	}
	pngURL, err := s.blobs.Put(ctx, base+".png", png, "image/png")
	if err != nil {
		return nil, fmt.Errorf("store png: %w", err)
	}

	return []string{svgURL, pngURL}, nil
}

// CardPath is the blob key prefix of an article card, without extension.
func CardPath(date, repoID string) string {
	return "cards/" + date + "/" + strings.Replace(repoID, "/", "-", 1)
}

func buildPost(article domain.Article, assets []string) domain.Post {
	post := domain.Post{
		ArticleID: article.ID,
		RepoID:    article.RepoID,
		Title:     article.Content.Title(),
		Summary:   article.Content.Summary(),
		Markdown:  article.Content.Body(),
		Tags:      article.Content.Tags,
	}
	if post.Title == "" {
		post.Title = article.RepoID
	}
	if len(assets) > 0 {
		post.VectorURL = assets[0]
	}
	if len(assets) > 1 {
		post.ImageURL = assets[1]
	}
	return post
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
