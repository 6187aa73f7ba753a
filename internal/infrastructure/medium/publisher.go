package medium

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"TrendingPress/internal/config"
	"TrendingPress/internal/domain"
	"TrendingPress/internal/ports"
)

// DefaultTags are sent when a post carries none.
var DefaultTags = []string{"github", "trending"}

// Publisher creates public posts on Medium for the token owner.
type Publisher struct {
	token  string
	apiURL string
	client *http.Client
	policy *bluemonday.Policy
}

var _ ports.Publisher = (*Publisher)(nil)

// NewPublisher validates the integration token.
func NewPublisher(cfg config.MediumConfig, client *http.Client) (*Publisher, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("medium: integration token required: %w", domain.ErrMissingConfig)
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = "https://api.medium.com/v1"
	}
	return &Publisher{
		token:  cfg.Token,
		apiURL: strings.TrimSuffix(apiURL, "/"),
		client: client,
		policy: bluemonday.UGCPolicy(),
	}, nil
}

// Platform identifies the publisher.
func (p *Publisher) Platform() domain.Platform {
	return domain.PlatformMedium
}

type meResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

type postRequest struct {
	Title           string   `json:"title"`
	ContentFormat   string   `json:"contentFormat"`
	Content         string   `json:"content"`
	Tags            []string `json:"tags"`
	PublishStatus   string   `json:"publishStatus"`
	NotifyFollowers bool     `json:"notifyFollowers"`
}

type postResponse struct {
	Data struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	} `json:"data"`
}

// Publish resolves the user id and then creates the post under it.
func (p *Publisher) Publish(ctx context.Context, post domain.Post) (domain.Receipt, error) {
	if p.token == "" {
		return domain.Receipt{}, fmt.Errorf("medium: integration token required: %w", domain.ErrMissingConfig)
	}

	var me meResponse
	if err := p.call(ctx, http.MethodGet, "/me", nil, &me); err != nil {
		return domain.Receipt{}, fmt.Errorf("medium me: %w", err)
	}
	if me.Data.ID == "" {
		return domain.Receipt{}, fmt.Errorf("medium me: response without user id")
	}

	tags := post.Tags
	if len(tags) == 0 {
		tags = DefaultTags
	}
	payload := postRequest{
		Title:           post.Title,
		ContentFormat:   "html",
		Content:         p.Content(post),
		Tags:            tags,
		PublishStatus:   "public",
		NotifyFollowers: false,
	}

	var created postResponse
	if err := p.call(ctx, http.MethodPost, "/users/"+url.PathEscape(me.Data.ID)+"/posts", payload, &created); err != nil {
		return domain.Receipt{}, fmt.Errorf("medium post: %w", err)
	}

	return domain.Receipt{URL: created.Data.URL, ID: created.Data.ID}, nil
}

// Content renders the sanitized HTML body: cover image followed by the summary.
func (p *Publisher) Content(post domain.Post) string {
	var b strings.Builder
	if post.ImageURL != "" {
		b.WriteString(`<p><img src="` + html.EscapeString(post.ImageURL) + `"/></p>`)
	}
	b.WriteString("<p>" + html.EscapeString(post.Summary) + "</p>")
	return p.policy.Sanitize(b.String())
}

func (p *Publisher) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.apiURL+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
