package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"TrendingPress/internal/compose"
	"TrendingPress/internal/metrics"
	"TrendingPress/internal/ports"
)

// GenerateStage composes content for draft articles.
type GenerateStage struct {
	articles ports.ArticleRepository
	composer *compose.Composer
	limit    uint64
	logger   *slog.Logger
}

// NewGenerateStage constructs the stage; limit bounds how many drafts one run handles.
func NewGenerateStage(articles ports.ArticleRepository, composer *compose.Composer, limit uint64, logger *slog.Logger) *GenerateStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerateStage{
		articles: articles,
		composer: composer,
		limit:    limit,
		logger:   logger.With("stage", stageGenerate),
	}
}

// Run composes up to limit drafts and moves each to generated.
func (s *GenerateStage) Run(ctx context.Context) (Report, error) {
	started := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues(stageGenerate).Observe(time.Since(started).Seconds())
	}()

	drafts, err := s.articles.ListDrafts(ctx, s.limit)
	if err != nil {
		return Report{}, fmt.Errorf("list drafts: %w", err)
	}

	var report Report
	for _, draft := range drafts {
		if ctx.Err() != nil {
			report.Skipped += len(drafts) - report.Processed - report.Errors
			return report, ctx.Err()
		}

		article, source := s.composer.Compose(ctx, compose.Input{
			ID:          draft.RepoID,
			StarsTotal:  draft.StarsTotal,
			Topics:      draft.Topics,
			Description: draft.Description,
		})
		metrics.ComposeSource.WithLabelValues(string(source)).Inc()

		if err := s.articles.SaveGenerated(ctx, draft.ArticleID, article); err != nil {
			s.logger.Error("save generated article failed", "article", draft.ArticleID, "error", err)
			metrics.RecordError(stageGenerate)
			report.Errors++
			continue
		}

		s.logger.Debug("article generated", "article", draft.ArticleID, "source", source)
		metrics.RecordProcessed(stageGenerate)
		report.Processed++
	}

	s.logger.Info("generate stage finished", "processed", report.Processed, "errors", report.Errors)
	return report, nil
}
