package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"TrendingPress/internal/app"
	"TrendingPress/internal/config"
	"TrendingPress/internal/logging"
	"TrendingPress/internal/usecase"
)

type stageFunc func(*app.Application, context.Context) (usecase.Report, error)

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "trendingpress",
		Short:         "Turn GitHub trending repositories into published articles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (default $TRENDINGPRESS_CONFIG)")

	withApp := func(fn func(ctx context.Context, a *app.Application, logger *slog.Logger) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if cfgFile != "" {
				cfg = config.LoadFrom(cfgFile)
			}
			logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

			a, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			return fn(cmd.Context(), a, logger)
		}
	}

	stage := func(name, short string, run stageFunc) *cobra.Command {
		return &cobra.Command{
			Use:   name,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: withApp(func(ctx context.Context, a *app.Application, logger *slog.Logger) error {
				report, err := run(a, ctx)
				logger.Info("stage finished", "stage", name,
					"processed", report.Processed, "errors", report.Errors, "skipped", report.Skipped)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				return nil
			}),
		}
	}

	root.AddCommand(
		stage("fetch", "Extract trending repositories, enrich, score and create drafts", (*app.Application).Fetch),
		stage("generate", "Compose content for draft articles", (*app.Application).Generate),
		stage("publish", "Render cards and publish ready articles to every configured platform", (*app.Application).Publish),
		&cobra.Command{
			Use:   "run",
			Short: "Run fetch, generate and publish once",
			Args:  cobra.NoArgs,
			RunE: withApp(func(ctx context.Context, a *app.Application, _ *slog.Logger) error {
				return a.Run(ctx)
			}),
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Run the pipeline on an interval and serve the webhook, health and metrics endpoints",
			Args:  cobra.NoArgs,
			RunE: withApp(func(ctx context.Context, a *app.Application, _ *slog.Logger) error {
				return a.Serve(ctx)
			}),
		},
	)
	return root
}
