package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func anchor(href string) string {
	return fmt.Sprintf(`<h2 class="h3 lh-condensed"><a data-view-component="true" class="Link" href="%s">x</a></h2>`, href)
}

func TestBuildTrendingURL(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		lang, period string
		wantPath     string
		wantSince    string
	}{
		"all omits segment": {lang: "all", period: "weekly", wantPath: "/trending", wantSince: "weekly"},
		"empty period":      {lang: "rust", period: "", wantPath: "/trending/rust", wantSince: "daily"},
		"escaped language":  {lang: "c#", period: "monthly", wantPath: "/trending/c%23", wantSince: "monthly"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			raw, err := buildTrendingURL("https://github.com", tc.lang, tc.period)
			require.NoError(t, err)

			parsed, err := url.Parse(raw)
			require.NoError(t, err)
			assert.Equal(t, "github.com", parsed.Host)
			assert.Equal(t, tc.wantPath, parsed.EscapedPath())
			assert.Equal(t, tc.wantSince, parsed.Query().Get("since"))
		})
	}

	_, err := buildTrendingURL("https://github.com", "go", "hourly")
	require.Error(t, err)
}

func TestExtractTrendingDeduplicatesAndCaps(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString(anchor("/login"))
	b.WriteString(anchor("/owner0/repo0"))
	b.WriteString(anchor("/owner0/repo0"))
	b.WriteString(`<a href="/owner99/ignored">plain link</a>`)
	for i := 1; i < 70; i++ {
		b.WriteString(anchor(fmt.Sprintf("/owner%d/repo%d", i, i)))
		b.WriteString(anchor(fmt.Sprintf("/owner%d/repo%d", i, i)))
	}
	b.WriteString("</body></html>")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(b.String()))
	require.NoError(t, err)

	items := extractTrending(doc, "go")
	require.Len(t, items, MaxTrending)
	assert.Equal(t, "owner0/repo0", items[0].RepoID)
	assert.Equal(t, "owner49/repo49", items[49].RepoID)

	seen := map[string]bool{}
	for i, item := range items {
		assert.Equal(t, i+1, item.RankPosition)
		assert.Equal(t, "go", item.LanguageFilter)
		assert.False(t, seen[item.RepoID], "duplicate %s", item.RepoID)
		seen[item.RepoID] = true
	}
}

func TestFetchTrending(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trending", r.URL.Path)
		assert.Equal(t, "daily", r.URL.Query().Get("since"))
		assert.Equal(t, "Mozilla/5.0", r.Header.Get("User-Agent"))
		fmt.Fprint(w, "<html>"+anchor("/vercel/next.js")+anchor("/microsoft/typescript")+anchor("/vercel/next.js")+"</html>")
	}))
	defer server.Close()

	items, err := NewTrendingScanner(server.Client(), server.URL).FetchTrending(context.Background(), AllLanguages, "")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "vercel/next.js", items[0].RepoID)
	assert.Equal(t, "microsoft/typescript", items[1].RepoID)
	assert.Empty(t, items[0].LanguageFilter)
}

func TestFetchTrendingStatusError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, anchor("/a/b"))
	}))
	defer server.Close()

	items, err := NewTrendingScanner(server.Client(), server.URL).FetchTrending(context.Background(), "go", "daily")
	require.Error(t, err)
	assert.Nil(t, items)
	assert.Contains(t, err.Error(), "503")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.True(t, IsRetryable(err))
}

func TestFetchTrendingAcceptsAny2xx(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNonAuthoritativeInfo)
		fmt.Fprint(w, "<html>"+anchor("/a/b")+"</html>")
	}))
	defer server.Close()

	items, err := NewTrendingScanner(server.Client(), server.URL).FetchTrending(context.Background(), "go", "daily")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a/b", items[0].RepoID)
}

func TestFetchTrendingEmptyPage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html><body>markup changed</body></html>")
	}))
	defer server.Close()

	items, err := NewTrendingScanner(server.Client(), server.URL).FetchTrending(context.Background(), "go", "daily")
	require.NoError(t, err)
	assert.Empty(t, items)
}
