package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"TrendingPress/internal/domain"
)

type fakeSource struct {
	mu    sync.Mutex
	items map[string][]domain.TrendingItem
	errs  map[string]error
	calls map[string]int
}

func (f *fakeSource) FetchTrending(_ context.Context, lang, _ string) ([]domain.TrendingItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[lang]++
	if err := f.errs[lang]; err != nil {
		return nil, err
	}
	return f.items[lang], nil
}

type fakeEnricher struct {
	mu        sync.Mutex
	metas     map[string]domain.RepoMeta
	transient map[string]int
	permanent map[string]error
	calls     map[string]int
}

var errTransient = errors.New("connection reset")

func (f *fakeEnricher) EnrichRepo(_ context.Context, repoID string) (domain.RepoMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[repoID]++
	if err := f.permanent[repoID]; err != nil {
		return domain.RepoMeta{}, err
	}
	if f.transient[repoID] > 0 {
		f.transient[repoID]--
		return domain.RepoMeta{}, errTransient
	}
	meta, ok := f.metas[repoID]
	if !ok {
		meta = domain.RepoMeta{ID: repoID, TotalStars: 10, Topics: []string{}}
	}
	return meta, nil
}

type memStore struct {
	mu       sync.Mutex
	repos    map[string]domain.RepoMeta
	picks    map[string]domain.Pick
	articles map[string]*domain.Article
	order    []string
	outcomes []domain.PublishOutcome
	saveErr  error
}

func newMemStore() *memStore {
	return &memStore{
		repos:    map[string]domain.RepoMeta{},
		picks:    map[string]domain.Pick{},
		articles: map[string]*domain.Article{},
	}
}

func (m *memStore) UpsertRepo(_ context.Context, meta domain.RepoMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repos[meta.ID] = meta
	return nil
}

func (m *memStore) SavePick(_ context.Context, pick domain.Pick) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.picks[pick.ID]; !ok {
		m.picks[pick.ID] = pick
	}
	return nil
}

func (m *memStore) EnsureDraft(_ context.Context, articleID, repoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.articles[articleID]; !ok {
		m.articles[articleID] = &domain.Article{ID: articleID, RepoID: repoID, Status: domain.StatusDraft}
		m.order = append(m.order, articleID)
	}
	return nil
}

func (m *memStore) ListDrafts(_ context.Context, limit uint64) ([]domain.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Draft
	for _, id := range m.order {
		a := m.articles[id]
		if a.Status != domain.StatusDraft || uint64(len(out)) >= limit {
			continue
		}
		repo := m.repos[a.RepoID]
		out = append(out, domain.Draft{
			ArticleID:   a.ID,
			RepoID:      a.RepoID,
			StarsTotal:  repo.TotalStars,
			Topics:      repo.Topics,
			Description: repo.Description,
		})
	}
	return out, nil
}

func (m *memStore) SaveGenerated(_ context.Context, articleID string, content domain.ComposedArticle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	a := m.articles[articleID]
	a.Content = content
	a.Status = domain.StatusGenerated
	return nil
}

func (m *memStore) ListPublishable(_ context.Context, limit uint64) ([]domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Article
	for _, id := range m.order {
		a := m.articles[id]
		if (a.Status != domain.StatusGenerated && a.Status != domain.StatusReady) || uint64(len(out)) >= limit {
			continue
		}
		cp := *a
		cp.StarsTotal = m.repos[a.RepoID].TotalStars
		out = append(out, cp)
	}
	return out, nil
}

func (m *memStore) MarkReady(_ context.Context, articleID string, assets []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.articles[articleID]
	a.Assets = assets
	a.Status = domain.StatusReady
	return nil
}

func (m *memStore) SetStatus(_ context.Context, articleID string, status domain.ArticleStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.articles[articleID].Status = status
	return nil
}

func (m *memStore) RecordOutcome(_ context.Context, outcome domain.PublishOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
	return nil
}

func (m *memStore) status(articleID string) domain.ArticleStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.articles[articleID].Status
}

func (m *memStore) addArticle(a domain.Article) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := a
	m.articles[a.ID] = &cp
	m.order = append(m.order, a.ID)
}

type fakeRenderer struct {
	err   error
	cards []domain.Card
}

func (f *fakeRenderer) RenderSVG(_ context.Context, card domain.Card) (string, error) {
	f.cards = append(f.cards, card)
	if f.err != nil {
		return "", f.err
	}
	return "<svg>" + card.Repo + "</svg>", nil
}

type fakeRasterizer struct {
	widths []int
}

func (f *fakeRasterizer) Rasterize(_ context.Context, svg string, width int) ([]byte, error) {
	f.widths = append(f.widths, width)
	return []byte("png:" + svg), nil
}

type fakeBlobs struct {
	keys []string
}

func (f *fakeBlobs) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	f.keys = append(f.keys, key)
	return "https://cdn.example/" + key, nil
}

type fakePublisher struct {
	platform domain.Platform
	err      error
	posts    []domain.Post
}

func (f *fakePublisher) Platform() domain.Platform { return f.platform }

func (f *fakePublisher) Publish(_ context.Context, post domain.Post) (domain.Receipt, error) {
	f.posts = append(f.posts, post)
	if f.err != nil {
		return domain.Receipt{}, f.err
	}
	return domain.Receipt{URL: "https://" + string(f.platform) + "/1", ID: "1"}, nil
}

type fakeDriver struct {
	started bool
	stopped bool
	job     func(time.Time)
}

func (d *fakeDriver) Start(_ context.Context, job func(time.Time)) error {
	d.started = true
	d.job = job
	return nil
}

func (d *fakeDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

// stepClock advances by step on every call.
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}
