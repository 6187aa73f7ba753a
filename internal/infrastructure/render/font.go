package render

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/image/font/sfnt"
)

const maxFontBytes = 8 << 20

// Font is a parsed TrueType or OpenType face.
type Font struct {
	Data   []byte
	Family string
}

// FontLoader fetches one font on first use and keeps it for the lifetime of the loader.
// Failed fetches are not cached, so a later call retries.
type FontLoader struct {
	url    string
	client *http.Client

	mu   sync.Mutex
	font *Font
}

// NewFontLoader prepares a lazy loader for url.
func NewFontLoader(url string, client *http.Client) *FontLoader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &FontLoader{url: url, client: client}
}

// NewStaticFontLoader wraps already available font bytes.
func NewStaticFontLoader(data []byte) (*FontLoader, error) {
	font, err := parseFont(data)
	if err != nil {
		return nil, err
	}
	return &FontLoader{font: font}, nil
}

// Load returns the cached font, fetching it on the first call.
func (l *FontLoader) Load(ctx context.Context) (*Font, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.font != nil {
		return l.font, nil
	}
	if l.url == "" {
		return nil, fmt.Errorf("font: no source configured")
	}

	data, err := l.fetch(ctx)
	if err != nil {
		return nil, err
	}
	font, err := parseFont(data)
	if err != nil {
		return nil, err
	}

	l.font = font
	return font, nil
}

func (l *FontLoader) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("font: build request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("font: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("font: fetch returned %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFontBytes))
	if err != nil {
		return nil, fmt.Errorf("font: read: %w", err)
	}
	return data, nil
}

func parseFont(data []byte) (*Font, error) {
	parsed, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("font: parse: %w", err)
	}

	var buf sfnt.Buffer
	family, err := parsed.Name(&buf, sfnt.NameIDFamily)
	if err != nil || family == "" {
		family = "Inter"
	}
	return &Font{Data: data, Family: family}, nil
}
