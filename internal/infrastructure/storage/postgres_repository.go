package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"TrendingPress/internal/domain"
	"TrendingPress/internal/ports"
)

// DB is the subset of pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository persists repositories, picks, articles and publish outcomes.
type PostgresRepository struct {
	db DB
	sb sq.StatementBuilderType
}

var (
	_ ports.RepoRepository    = (*PostgresRepository)(nil)
	_ ports.ArticleRepository = (*PostgresRepository)(nil)
	_ ports.PublishRepository = (*PostgresRepository)(nil)
)

// NewPostgresRepository wires a pool (or any DB implementation).
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Connect opens a pgx pool and verifies connectivity.
func Connect(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// UpsertRepo inserts or refreshes repository metadata.
func (r *PostgresRepository) UpsertRepo(ctx context.Context, meta domain.RepoMeta) error {
	query := r.sb.Insert("repos").
		Columns("id", "primary_language", "total_stars", "topics", "description", "homepage", "license_id", "owner_kind").
		Values(
			meta.ID,
			nullable(meta.PrimaryLanguage),
			meta.TotalStars,
			nonNil(meta.Topics),
			nullable(meta.Description),
			nullable(meta.Homepage),
			nullable(meta.LicenseID),
			nullable(string(meta.OwnerKind)),
		).
		Suffix(`ON CONFLICT (id) DO UPDATE
              SET primary_language = EXCLUDED.primary_language,
                  total_stars = EXCLUDED.total_stars,
                  topics = EXCLUDED.topics,
                  description = EXCLUDED.description,
                  homepage = EXCLUDED.homepage,
                  license_id = EXCLUDED.license_id,
                  owner_kind = EXCLUDED.owner_kind,
                  updated_at = NOW()`)

	return r.exec(ctx, "upsert repo", query)
}

// SavePick inserts a daily pick unless one already exists for the key.
func (r *PostgresRepository) SavePick(ctx context.Context, pick domain.Pick) error {
	query := r.sb.Insert("picks").
		Columns("id", "repo_id", "score", "reason", "date").
		Values(pick.ID, pick.RepoID, pick.Score, pick.Reason, pick.Date).
		Suffix("ON CONFLICT (id) DO NOTHING")

	return r.exec(ctx, "save pick", query)
}

// EnsureDraft creates the draft article row unless it already exists.
func (r *PostgresRepository) EnsureDraft(ctx context.Context, articleID, repoID string) error {
	query := r.sb.Insert("articles").
		Columns("id", "repo_id", "status").
		Values(articleID, repoID, string(domain.StatusDraft)).
		Suffix("ON CONFLICT (id) DO NOTHING")

	return r.exec(ctx, "ensure draft", query)
}

// ListDrafts returns draft articles joined with their repository facts, oldest first.
func (r *PostgresRepository) ListDrafts(ctx context.Context, limit uint64) ([]domain.Draft, error) {
	query, args, err := r.sb.Select(
		"a.id", "a.repo_id", "r.total_stars", "COALESCE(r.topics, '{}')", "COALESCE(r.description, '')",
	).
		From("articles a").
		Join("repos r ON r.id = a.repo_id").
		Where(sq.Eq{"a.status": string(domain.StatusDraft)}).
		OrderBy("a.created_at").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list drafts: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query drafts: %w", err)
	}
	defer rows.Close()

	drafts := make([]domain.Draft, 0)
	for rows.Next() {
		var d domain.Draft
		if err := rows.Scan(&d.ArticleID, &d.RepoID, &d.StarsTotal, &d.Topics, &d.Description); err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		drafts = append(drafts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return drafts, nil
}

// SaveGenerated stores composed content and moves the article to generated.
func (r *PostgresRepository) SaveGenerated(ctx context.Context, articleID string, content domain.ComposedArticle) error {
	query := r.sb.Update("articles").
		Set("title_en", content.TitleEN).
		Set("title_cn", content.TitleCN).
		Set("summary_en", content.SummaryEN).
		Set("summary_cn", content.SummaryCN).
		Set("body_md_en", content.BodyMDEN).
		Set("body_md_cn", content.BodyMDCN).
		Set("tags", nonNil(content.Tags)).
		Set("status", string(domain.StatusGenerated)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": articleID})

	return r.exec(ctx, "save generated", query)
}

// ListPublishable returns generated or ready articles, oldest update first.
func (r *PostgresRepository) ListPublishable(ctx context.Context, limit uint64) ([]domain.Article, error) {
	query, args, err := r.sb.Select(
		"a.id", "a.repo_id", "a.status",
		"COALESCE(a.title_en, '')", "COALESCE(a.title_cn, '')",
		"COALESCE(a.summary_en, '')", "COALESCE(a.summary_cn, '')",
		"COALESCE(a.body_md_en, '')", "COALESCE(a.body_md_cn, '')",
		"COALESCE(a.tags, '{}')", "COALESCE(a.assets, '{}')",
		"r.total_stars", "a.updated_at",
	).
		From("articles a").
		Join("repos r ON r.id = a.repo_id").
		Where(sq.Eq{"a.status": []string{string(domain.StatusGenerated), string(domain.StatusReady)}}).
		OrderBy("a.updated_at").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list publishable: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query publishable: %w", err)
	}
	defer rows.Close()

	articles := make([]domain.Article, 0)
	for rows.Next() {
		var (
			a      domain.Article
			status string
		)
		if err := rows.Scan(
			&a.ID, &a.RepoID, &status,
			&a.Content.TitleEN, &a.Content.TitleCN,
			&a.Content.SummaryEN, &a.Content.SummaryCN,
			&a.Content.BodyMDEN, &a.Content.BodyMDCN,
			&a.Content.Tags, &a.Assets,
			&a.StarsTotal, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		a.Status = domain.ArticleStatus(status)
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return articles, nil
}

// MarkReady records rendered asset URLs and moves the article to ready.
func (r *PostgresRepository) MarkReady(ctx context.Context, articleID string, assets []string) error {
	query := r.sb.Update("articles").
		Set("assets", nonNil(assets)).
		Set("status", string(domain.StatusReady)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": articleID})

	return r.exec(ctx, "mark ready", query)
}

// SetStatus moves an article to the given lifecycle state.
func (r *PostgresRepository) SetStatus(ctx context.Context, articleID string, status domain.ArticleStatus) error {
	query := r.sb.Update("articles").
		Set("status", string(status)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": articleID})

	return r.exec(ctx, "set status", query)
}

// RecordOutcome appends one publish attempt. Rows are never updated.
func (r *PostgresRepository) RecordOutcome(ctx context.Context, outcome domain.PublishOutcome) error {
	if outcome.ID == "" {
		outcome.ID = uuid.NewString()
	}
	if outcome.CreatedAt.IsZero() {
		outcome.CreatedAt = time.Now().UTC()
	}

	query := r.sb.Insert("publishes").
		Columns("id", "article_id", "platform", "post_url", "post_id", "status", "error", "created_at").
		Values(
			outcome.ID,
			outcome.ArticleID,
			string(outcome.Platform),
			outcome.PostURL,
			outcome.PostID,
			string(outcome.Status),
			nullable(outcome.Error),
			outcome.CreatedAt,
		)

	return r.exec(ctx, "record outcome", query)
}

func (r *PostgresRepository) exec(ctx context.Context, op string, builder sq.Sqlizer) error {
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build %s: %w", op, err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
