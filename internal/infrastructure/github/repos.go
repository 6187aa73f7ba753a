package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"TrendingPress/internal/domain"
	"TrendingPress/internal/ports"
)

// StatusError reports a non-success upstream response.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: upstream returned status %d", e.Op, e.StatusCode)
}

func successful(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}

// IsRetryable classifies errors for the retry combinator. Missing or gone repositories are permanent.
func IsRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusNotFound, http.StatusGone, http.StatusUnavailableForLegalReasons, http.StatusUnprocessableEntity:
			return false
		}
	}
	return !errors.Is(err, context.Canceled)
}

// Enricher fetches repository metadata from the REST API.
type Enricher struct {
	client    *http.Client
	apiURL    string
	token     string
	userAgent string
}

var _ ports.RepoEnricher = (*Enricher)(nil)

// NewEnricher builds an enricher. An empty token means unauthenticated calls.
func NewEnricher(client *http.Client, apiURL, token, userAgent string) *Enricher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if apiURL == "" {
		apiURL = "https://api.github.com"
	}
	if userAgent == "" {
		userAgent = "trendingpress"
	}
	return &Enricher{
		client:    client,
		apiURL:    strings.TrimSuffix(apiURL, "/"),
		token:     token,
		userAgent: userAgent,
	}
}

type repoResponse struct {
	FullName        string   `json:"full_name"`
	Language        *string  `json:"language"`
	StargazersCount int      `json:"stargazers_count"`
	Topics          []string `json:"topics"`
	Description     *string  `json:"description"`
	Homepage        *string  `json:"homepage"`
	License         *struct {
		SPDXID string `json:"spdx_id"`
	} `json:"license"`
	Owner *struct {
		Type string `json:"type"`
	} `json:"owner"`
}

// EnrichRepo issues a single metadata request. It does not retry.
func (e *Enricher) EnrichRepo(ctx context.Context, repoID string) (domain.RepoMeta, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.apiURL+"/repos/"+repoID, nil)
	if err != nil {
		return domain.RepoMeta{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return domain.RepoMeta{}, fmt.Errorf("enrich %s: %w", repoID, err)
	}
	defer resp.Body.Close()

	if !successful(resp.StatusCode) {
		return domain.RepoMeta{}, &StatusError{Op: "enrich " + repoID, StatusCode: resp.StatusCode}
	}

	var decoded repoResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.RepoMeta{}, fmt.Errorf("decode repo %s: %w", repoID, err)
	}

	return decoded.toMeta(repoID), nil
}

func (r repoResponse) toMeta(requested string) domain.RepoMeta {
	meta := domain.RepoMeta{
		ID:              r.FullName,
		PrimaryLanguage: deref(r.Language),
		TotalStars:      max(r.StargazersCount, 0),
		Topics:          lowerTopics(r.Topics),
		Description:     deref(r.Description),
		Homepage:        deref(r.Homepage),
	}
	if meta.ID == "" {
		meta.ID = requested
	}
	if r.License != nil && r.License.SPDXID != "NOASSERTION" {
		meta.LicenseID = r.License.SPDXID
	}
	if r.Owner != nil {
		switch domain.OwnerKind(r.Owner.Type) {
		case domain.OwnerUser, domain.OwnerOrganization:
			meta.OwnerKind = domain.OwnerKind(r.Owner.Type)
		}
	}
	return meta
}

func lowerTopics(topics []string) []string {
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
