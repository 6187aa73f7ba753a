package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"TrendingPress/internal/domain"
	"TrendingPress/internal/ports"
)

const (
	// AllLanguages is the filter sentinel that omits the language path segment.
	AllLanguages = "all"
	// MaxTrending caps one extraction run.
	MaxTrending = 50

	defaultPeriod   = "daily"
	repoAnchorQuery = `a.Link[data-view-component="true"]`
)

var repoPath = regexp.MustCompile(`^/([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+)$`)

// TrendingScanner reads the trending listing page and extracts ranked repository references.
type TrendingScanner struct {
	client  *http.Client
	baseURL string
}

var _ ports.TrendingSource = (*TrendingScanner)(nil)

// NewTrendingScanner wires an HTTP client; baseURL defaults to https://github.com.
func NewTrendingScanner(client *http.Client, baseURL string) *TrendingScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if baseURL == "" {
		baseURL = "https://github.com"
	}
	return &TrendingScanner{client: client, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// FetchTrending returns up to 50 unique repositories in document order.
func (s *TrendingScanner) FetchTrending(ctx context.Context, languageFilter, period string) ([]domain.TrendingItem, error) {
	pageURL, err := buildTrendingURL(s.baseURL, languageFilter, period)
	if err != nil {
		return nil, err
	}

	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	filter := languageFilter
	if filter == AllLanguages {
		filter = ""
	}
	return extractTrending(doc, filter), nil
}

func (s *TrendingScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request trending page: %w", err)
	}
	defer resp.Body.Close()

	if !successful(resp.StatusCode) {
		return nil, &StatusError{Op: "trending", StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse trending page: %w", err)
	}
	return doc, nil
}

func extractTrending(doc *goquery.Document, filter string) []domain.TrendingItem {
	items := make([]domain.TrendingItem, 0, MaxTrending)
	seen := map[string]struct{}{}

	doc.Find(repoAnchorQuery).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok {
			return true
		}
		id, ok := parseRepoPath(href)
		if !ok {
			return true
		}
		if _, dup := seen[id]; dup {
			return true
		}
		seen[id] = struct{}{}
		items = append(items, domain.TrendingItem{
			RepoID:         id,
			LanguageFilter: filter,
			RankPosition:   len(items) + 1,
		})
		return len(items) < MaxTrending
	})

	return items
}

func parseRepoPath(href string) (string, bool) {
	m := repoPath.FindStringSubmatch(strings.TrimSpace(href))
	if m == nil {
		return "", false
	}
	return m[1] + "/" + m[2], true
}

func buildTrendingURL(base, languageFilter, period string) (string, error) {
	switch period {
	case "":
		period = defaultPeriod
	case "daily", "weekly", "monthly":
	default:
		return "", fmt.Errorf("unsupported trending period %q", period)
	}

	parsed, err := url.Parse(base + "/trending")
	if err != nil {
		return "", fmt.Errorf("invalid trending url %s: %w", base, err)
	}
	if languageFilter != "" && languageFilter != AllLanguages {
		parsed = parsed.JoinPath(languageFilter)
	}

	query := parsed.Query()
	query.Set("since", period)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
