package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"TrendingPress/internal/domain"
	"TrendingPress/internal/metrics"
	"TrendingPress/internal/ports"
	"TrendingPress/internal/retry"
	"TrendingPress/internal/scoring"
)

const (
	stageFetch    = "fetch"
	stageGenerate = "generate"
	stagePublish  = "publish"

	dateLayout = "2006-01-02"
)

// Report summarizes one stage run.
type Report struct {
	Processed int
	Errors    int
	Skipped   int
}

func (r *Report) add(other Report) {
	r.Processed += other.Processed
	r.Errors += other.Errors
	r.Skipped += other.Skipped
}

// FetchConfig tunes the fetch stage.
type FetchConfig struct {
	Languages   []string
	Period      string
	EnrichDelay time.Duration
	Concurrency int
	Budget      time.Duration
	Retry       retry.Policy
}

// FetchStageDeps wires the collaborators of the fetch stage.
type FetchStageDeps struct {
	Source   ports.TrendingSource
	Enricher ports.RepoEnricher
	Repos    ports.RepoRepository
	Articles ports.ArticleRepository
	Logger   *slog.Logger
}

// FetchStage turns trending listings into scored picks and draft articles.
type FetchStage struct {
	source   ports.TrendingSource
	enricher ports.RepoEnricher
	repos    ports.RepoRepository
	articles ports.ArticleRepository
	cfg      FetchConfig
	logger   *slog.Logger
	now      func() time.Time
}

// NewFetchStage constructs the stage.
func NewFetchStage(deps FetchStageDeps, cfg FetchConfig) *FetchStage {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchStage{
		source:   deps.Source,
		enricher: deps.Enricher,
		repos:    deps.Repos,
		articles: deps.Articles,
		cfg:      cfg,
		logger:   logger.With("stage", stageFetch),
		now:      time.Now,
	}
}

// Run processes every configured language for day. Per-language and per-candidate failures are
// counted and logged; only context cancellation is returned as an error.
func (s *FetchStage) Run(ctx context.Context, day time.Time) (Report, error) {
	started := s.now()
	defer func() {
		metrics.StageDuration.WithLabelValues(stageFetch).Observe(s.now().Sub(started).Seconds())
	}()

	var deadline time.Time
	if s.cfg.Budget > 0 {
		deadline = started.Add(s.cfg.Budget)
	}
	date := day.Format(dateLayout)

	limit := rate.Inf
	if s.cfg.EnrichDelay > 0 {
		limit = rate.Every(s.cfg.EnrichDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	var (
		mu     sync.Mutex
		report Report
		seen   = map[string]struct{}{}
	)
	count := func(r Report) {
		mu.Lock()
		report.add(r)
		mu.Unlock()
	}

	for _, lang := range s.cfg.Languages {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if s.exhausted(deadline) {
			s.logger.Warn("run budget exhausted, skipping language", "language", lang)
			break
		}

		items, err := retry.Do(ctx, s.policy("fetch trending "+lang), func(ctx context.Context) ([]domain.TrendingItem, error) {
			return s.source.FetchTrending(ctx, lang, s.cfg.Period)
		})
		if err != nil {
			s.logger.Error("fetch trending failed", "language", lang, "error", err)
			metrics.RecordError(stageFetch)
			count(Report{Errors: 1})
			continue
		}
		if len(items) == 0 {
			s.logger.Warn("trending listing returned no repositories", "language", lang)
			continue
		}

		var g errgroup.Group
		g.SetLimit(s.cfg.Concurrency)
		for _, item := range items {
			if _, dup := seen[item.RepoID]; dup {
				continue
			}
			seen[item.RepoID] = struct{}{}

			if s.exhausted(deadline) || ctx.Err() != nil {
				count(Report{Skipped: 1})
				continue
			}
			g.Go(func() error {
				if err := s.processCandidate(ctx, limiter, item, date); err != nil {
					s.logger.Error("candidate failed", "repo", item.RepoID, "language", lang, "error", err)
					metrics.RecordError(stageFetch)
					count(Report{Errors: 1})
					return nil
				}
				metrics.RecordProcessed(stageFetch)
				count(Report{Processed: 1})
				return nil
			})
		}
		_ = g.Wait()
	}

	s.logger.Info("fetch stage finished",
		"processed", report.Processed,
		"errors", report.Errors,
		"skipped", report.Skipped,
		"elapsed", s.now().Sub(started).Round(time.Millisecond))

	return report, ctx.Err()
}

func (s *FetchStage) processCandidate(ctx context.Context, limiter *rate.Limiter, item domain.TrendingItem, date string) error {
	if err := limiter.Wait(ctx); err != nil {
		return err
	}

	meta, err := retry.Do(ctx, s.policy("enrich "+item.RepoID), func(ctx context.Context) (domain.RepoMeta, error) {
		return s.enricher.EnrichRepo(ctx, item.RepoID)
	})
	if err != nil {
		return err
	}
	// Natural keys use the listing identifier, not the casing reported by the API.
	meta.ID = item.RepoID

	if err := s.repos.UpsertRepo(ctx, meta); err != nil {
		return err
	}

	result := scoring.Score(meta, item.RankPosition)
	if err := s.repos.SavePick(ctx, domain.Pick{
		ID:     domain.PickID(item.RepoID, date),
		RepoID: item.RepoID,
		Score:  result.Score,
		Reason: result.Reason,
		Date:   date,
	}); err != nil {
		return err
	}

	return s.articles.EnsureDraft(ctx, domain.ArticleID(item.RepoID, date), item.RepoID)
}

func (s *FetchStage) policy(op string) retry.Policy {
	p := s.cfg.Retry
	if p.Logger == nil {
		p.Logger = s.logger.With("op", op)
	}
	return p
}

func (s *FetchStage) exhausted(deadline time.Time) bool {
	return !deadline.IsZero() && !s.now().Before(deadline)
}
