package devto

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"TrendingPress/internal/config"
	"TrendingPress/internal/domain"
	"TrendingPress/internal/ports"
)

const maxDescription = 160

// DefaultTags are sent when a post carries none.
var DefaultTags = []string{"github", "trending"}

// Publisher creates long-form articles on dev.to.
type Publisher struct {
	apiKey string
	apiURL string
	client *http.Client
}

var _ ports.Publisher = (*Publisher)(nil)

// NewPublisher validates the API key.
func NewPublisher(cfg config.DevToConfig, client *http.Client) (*Publisher, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("devto: api key required: %w", domain.ErrMissingConfig)
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = "https://dev.to/api"
	}
	return &Publisher{apiKey: cfg.APIKey, apiURL: strings.TrimSuffix(apiURL, "/"), client: client}, nil
}

// Platform identifies the publisher.
func (p *Publisher) Platform() domain.Platform {
	return domain.PlatformDevTo
}

type articleRequest struct {
	Article article `json:"article"`
}

type article struct {
	Title        string   `json:"title"`
	BodyMarkdown string   `json:"body_markdown"`
	Published    bool     `json:"published"`
	Tags         []string `json:"tags"`
	Description  string   `json:"description,omitempty"`
	CoverImage   string   `json:"cover_image,omitempty"`
}

type articleResponse struct {
	ID    int64  `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Publish posts the article as published.
func (p *Publisher) Publish(ctx context.Context, post domain.Post) (domain.Receipt, error) {
	if p.apiKey == "" {
		return domain.Receipt{}, fmt.Errorf("devto: api key required: %w", domain.ErrMissingConfig)
	}

	body, err := json.Marshal(buildRequest(post))
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("devto: marshal article: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+"/articles", bytes.NewReader(body))
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("devto: new request: %w", err)
	}
	req.Header.Set("api-key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("devto: do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("devto: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Receipt{}, fmt.Errorf("devto error %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded articleResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return domain.Receipt{}, fmt.Errorf("devto: decode response: %w", err)
	}
	if decoded.URL == "" {
		return domain.Receipt{}, fmt.Errorf("devto: response without url: %s", strings.TrimSpace(string(raw)))
	}

	return domain.Receipt{URL: decoded.URL, ID: strconv.FormatInt(decoded.ID, 10)}, nil
}

// buildRequest shapes a post into the articles payload.
func buildRequest(post domain.Post) articleRequest {
	tags := post.Tags
	if len(tags) == 0 {
		tags = DefaultTags
	}

	markdown := post.Markdown
	if post.ImageURL != "" {
		markdown = fmt.Sprintf("![cover](%s)\n\n%s", post.ImageURL, markdown)
	}

	return articleRequest{Article: article{
		Title:        post.Title,
		BodyMarkdown: markdown,
		Published:    true,
		Tags:         tags,
		Description:  truncate(post.Summary, maxDescription),
		CoverImage:   post.ImageURL,
	}}
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
