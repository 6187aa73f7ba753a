package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// PipelineDeps wires the three stages into one daily run.
type PipelineDeps struct {
	Fetch    *FetchStage
	Generate *GenerateStage
	Publish  *PublishStage
	// StageTimeout bounds each stage on its own. Zero means no per-stage deadline.
	StageTimeout time.Duration
	Logger       *slog.Logger
}

// Pipeline runs fetch, generate and publish in order.
type Pipeline struct {
	fetch        *FetchStage
	generate     *GenerateStage
	publish      *PublishStage
	stageTimeout time.Duration
	logger       *slog.Logger
}

// NewPipeline constructs the orchestration component. Nil stages are skipped.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		fetch:        deps.Fetch,
		generate:     deps.Generate,
		publish:      deps.Publish,
		stageTimeout: deps.StageTimeout,
		logger:       logger,
	}
}

// ProcessDay runs every stage once for day. A failing or timed-out stage does not stop the later ones;
// only cancellation of ctx itself does.
func (p *Pipeline) ProcessDay(ctx context.Context, day time.Time) error {
	var errs []error

	stages := []struct {
		name string
		run  func(context.Context) (Report, error)
	}{
		{stageFetch, p.fetchRun(day)},
		{stageGenerate, p.generateRun()},
		{stagePublish, p.publishRun()},
	}

	for _, st := range stages {
		if st.run == nil {
			continue
		}
		if ctx.Err() != nil {
			return errors.Join(append(errs, ctx.Err())...)
		}
		if err := p.runStage(ctx, st.name, st.run); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", st.name, err))
		}
	}

	return errors.Join(errs...)
}

func (p *Pipeline) runStage(ctx context.Context, name string, run func(context.Context) (Report, error)) error {
	if p.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.stageTimeout)
		defer cancel()
	}
	report, err := run(ctx)
	p.log(name, report, err)
	return err
}

func (p *Pipeline) fetchRun(day time.Time) func(context.Context) (Report, error) {
	if p.fetch == nil {
		return nil
	}
	return func(ctx context.Context) (Report, error) { return p.fetch.Run(ctx, day) }
}

func (p *Pipeline) generateRun() func(context.Context) (Report, error) {
	if p.generate == nil {
		return nil
	}
	return p.generate.Run
}

func (p *Pipeline) publishRun() func(context.Context) (Report, error) {
	if p.publish == nil {
		return nil
	}
	return p.publish.Run
}

func (p *Pipeline) log(stage string, report Report, err error) {
	attrs := []any{"stage", stage, "processed", report.Processed, "errors", report.Errors, "skipped", report.Skipped}
	if err != nil {
		p.logger.Error("stage failed", append(attrs, "error", err)...)
		return
	}
	p.logger.Info("stage completed", attrs...)
}
