package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"TrendingPress/internal/compose"
	"TrendingPress/internal/config"
	"TrendingPress/internal/domain"
	"TrendingPress/internal/infrastructure/blob"
	"TrendingPress/internal/infrastructure/devto"
	"TrendingPress/internal/infrastructure/github"
	"TrendingPress/internal/infrastructure/llm"
	"TrendingPress/internal/infrastructure/medium"
	"TrendingPress/internal/infrastructure/render"
	"TrendingPress/internal/infrastructure/scheduler"
	"TrendingPress/internal/infrastructure/storage"
	"TrendingPress/internal/infrastructure/telegram"
	"TrendingPress/internal/logging"
	"TrendingPress/internal/ports"
	"TrendingPress/internal/publish"
	"TrendingPress/internal/retry"
	"TrendingPress/internal/usecase"
	"TrendingPress/internal/webhook"
)

// ErrStageUnavailable is returned when a command needs a stage whose collaborators could not be built.
var ErrStageUnavailable = errors.New("stage unavailable")

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	repo       *storage.PostgresRepository
	fetch      *usecase.FetchStage
	generate   *usecase.GenerateStage
	publish    *usecase.PublishStage
	pipeline   *usecase.Pipeline
	rasterizer *render.ResvgRasterizer
	publishers *publish.Registry
}

// New connects to Postgres and builds every stage whose collaborators are configured.
// Unconfigured publishers are skipped; a missing blob store disables the publish stage.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	pool, err := storage.Connect(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
	if err != nil {
		return nil, err
	}
	repo := storage.NewPostgresRepository(pool)

	a := &Application{cfg: cfg, logger: baseLogger, pool: pool, repo: repo}

	httpClient := &http.Client{Timeout: 30 * time.Second}

	a.fetch = usecase.NewFetchStage(usecase.FetchStageDeps{
		Source:   github.NewTrendingScanner(httpClient, cfg.GitHub.TrendingURL),
		Enricher: github.NewEnricher(httpClient, cfg.GitHub.APIURL, cfg.GitHub.Token, cfg.GitHub.UserAgent),
		Repos:    repo,
		Articles: repo,
		Logger:   baseLogger.With("component", "fetch"),
	}, usecase.FetchConfig{
		Languages:   cfg.GitHub.Languages,
		Period:      cfg.GitHub.Period,
		EnrichDelay: cfg.GitHub.EnrichDelay,
		Concurrency: cfg.GitHub.Concurrency,
		Budget:      cfg.Scheduler.RunBudget,
		Retry: retry.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			Retryable:   github.IsRetryable,
		},
	})

	a.generate = usecase.NewGenerateStage(repo, buildComposer(cfg.ChatGPT, baseLogger), cfg.Batches.Generate,
		baseLogger.With("component", "generate"))

	a.publishers = a.buildPublishers(httpClient)
	a.publish, err = a.buildPublishStage(ctx, httpClient)
	if err != nil {
		baseLogger.Warn("publish stage disabled", "error", err)
	}

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Fetch:        a.fetch,
		Generate:     a.generate,
		Publish:      a.publish,
		StageTimeout: cfg.Scheduler.StageTimeout,
		Logger:       baseLogger.With("component", "pipeline"),
	})
	return a, nil
}

func buildComposer(cfg config.ChatGPTConfig, logger *slog.Logger) *compose.Composer {
	var chat ports.ChatClient
	client, err := llm.NewChatGPTClient(cfg, &http.Client{Timeout: cfg.Timeout})
	switch {
	case err == nil:
		chat = client
	case errors.Is(err, domain.ErrMissingConfig):
		logger.Info("chat client not configured, using template composition")
	default:
		logger.Warn("chat client unavailable", "error", err)
	}
	return compose.NewComposer(chat, logger.With("component", "composer")).WithSystemPrompt(cfg.SystemPrompt)
}

func (a *Application) buildPublishStage(ctx context.Context, httpClient *http.Client) (*usecase.PublishStage, error) {
	store, err := blob.New(ctx, a.cfg.Blob)
	if err != nil {
		return nil, err
	}

	fonts, err := buildFontLoader(a.cfg.Card, httpClient)
	if err != nil {
		return nil, err
	}
	a.rasterizer = render.NewResvgRasterizer(a.cfg.Card.ResvgPath, fonts)

	return usecase.NewPublishStage(usecase.PublishStageDeps{
		Articles:   a.repo,
		Outcomes:   a.repo,
		Renderer:   render.NewCardRenderer(fonts, a.cfg.Card.SourceName),
		Rasterizer: a.rasterizer,
		Blobs:      store,
		Publishers: a.publishers,
		Logger:     a.logger.With("component", "publish"),
	}, usecase.PublishConfig{
		Limit:    a.cfg.Batches.Publish,
		Width:    a.cfg.Card.Width,
		Location: a.cfg.Scheduler.Location(),
	}), nil
}

// buildFontLoader prefers a local font file and falls back to fetching FontURL on first render.
func buildFontLoader(cfg config.CardConfig, httpClient *http.Client) (*render.FontLoader, error) {
	if cfg.FontFile == "" {
		return render.NewFontLoader(cfg.FontURL, httpClient), nil
	}
	data, err := os.ReadFile(cfg.FontFile)
	if err != nil {
		return nil, fmt.Errorf("card font: %w", err)
	}
	fonts, err := render.NewStaticFontLoader(data)
	if err != nil {
		return nil, fmt.Errorf("card font %s: %w", cfg.FontFile, err)
	}
	return fonts, nil
}

func (a *Application) buildPublishers(httpClient *http.Client) *publish.Registry {
	registry := publish.NewRegistry()
	add := func(name string, p ports.Publisher, err error) {
		switch {
		case err == nil:
			registry.Register(p)
		case errors.Is(err, domain.ErrMissingConfig):
			a.logger.Info("platform not configured", "platform", name)
		default:
			a.logger.Warn("platform unavailable", "platform", name, "error", err)
		}
	}

	tg, err := telegram.NewPublisher(a.cfg.Publishers.Telegram, httpClient)
	add(string(domain.PlatformTelegram), tg, err)
	dt, err := devto.NewPublisher(a.cfg.Publishers.DevTo, httpClient)
	add(string(domain.PlatformDevTo), dt, err)
	md, err := medium.NewPublisher(a.cfg.Publishers.Medium, httpClient)
	add(string(domain.PlatformMedium), md, err)

	a.logger.Info("publishers configured", "platforms", registry.Platforms())
	return registry
}

// Fetch runs the fetch stage for the current day in the scheduler timezone.
func (a *Application) Fetch(ctx context.Context) (usecase.Report, error) {
	return a.fetch.Run(ctx, a.today())
}

// Generate runs the generate stage once.
func (a *Application) Generate(ctx context.Context) (usecase.Report, error) {
	return a.generate.Run(ctx)
}

// Publish runs the render and publish stage once.
func (a *Application) Publish(ctx context.Context) (usecase.Report, error) {
	if a.publish == nil {
		return usecase.Report{}, fmt.Errorf("publish: %w", ErrStageUnavailable)
	}
	return a.publish.Run(ctx)
}

// Run performs one full pipeline execution for today.
func (a *Application) Run(ctx context.Context) error {
	return a.pipeline.ProcessDay(ctx, a.today())
}

// Serve starts the interval scheduler and the webhook server and blocks until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval, a.cfg.Scheduler.Location(), true)
	sched := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := sched.Stop(stopCtx); err != nil {
			a.logger.Warn("scheduler stop", "error", err)
		}
	}()

	handler := webhook.NewHandler(a.cfg.Webhook.Secret, a.cfg.Webhook.MaxSkew, a.repo, a.logger.With("component", "webhook"))
	handler.WithPlatforms(a.publishers)
	return webhook.Serve(ctx, webhook.NewServer(handler), a.cfg.Webhook.Addr, a.logger)
}

// Close releases the database pool and rasterizer temp files.
func (a *Application) Close() {
	if a.rasterizer != nil {
		if err := a.rasterizer.Close(); err != nil {
			a.logger.Warn("rasterizer cleanup", "error", err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func (a *Application) today() time.Time {
	return time.Now().In(a.cfg.Scheduler.Location())
}
