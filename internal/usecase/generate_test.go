package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendingPress/internal/compose"
	"TrendingPress/internal/domain"
	"TrendingPress/internal/logging"
)

func seedDrafts(store *memStore) {
	ctx := context.Background()
	_ = store.UpsertRepo(ctx, domain.RepoMeta{
		ID:          "microsoft/typescript",
		TotalStars:  95000,
		Topics:      []string{"typescript", "javascript", "language"},
		Description: "TypeScript is a superset of JavaScript",
	})
	_ = store.UpsertRepo(ctx, domain.RepoMeta{ID: "vercel/next.js", TotalStars: 120000})
	_ = store.EnsureDraft(ctx, "microsoft-typescript-2026-10-19", "microsoft/typescript")
	_ = store.EnsureDraft(ctx, "vercel-next.js-2026-10-19", "vercel/next.js")
}

func TestGenerateStageComposesDrafts(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	seedDrafts(store)

	stage := NewGenerateStage(store, compose.NewComposer(nil, logging.Discard()), 30, logging.Discard())
	report, err := stage.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Processed: 2}, report)

	ts := store.articles["microsoft-typescript-2026-10-19"]
	assert.Equal(t, domain.StatusGenerated, ts.Status)
	assert.Contains(t, ts.Content.TitleEN, "Microsoft Typescript")
	assert.Contains(t, ts.Content.TitleEN, "TypeScript is a superset of JavaScript")
	assert.Equal(t, []string{"typescript", "javascript", "language"}, ts.Content.Tags)

	next := store.articles["vercel-next.js-2026-10-19"]
	assert.Contains(t, next.Content.TitleEN, "Vercel Next.js")
}

func TestGenerateStageHonorsLimit(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	seedDrafts(store)

	report, err := NewGenerateStage(store, compose.NewComposer(nil, nil), 1, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, domain.StatusDraft, store.status("vercel-next.js-2026-10-19"))
}

func TestGenerateStageCountsSaveErrors(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	seedDrafts(store)
	store.saveErr = errors.New("db down")

	report, err := NewGenerateStage(store, compose.NewComposer(nil, nil), 30, logging.Discard()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Errors: 2}, report)
	assert.Equal(t, domain.StatusDraft, store.status("microsoft-typescript-2026-10-19"))
}
