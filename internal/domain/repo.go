package domain

import "strings"

// OwnerKind tells whether a repository belongs to a user or an organization account.
type OwnerKind string

const (
	OwnerUser         OwnerKind = "User"
	OwnerOrganization OwnerKind = "Organization"
)

// TrendingItem is a ranked repository candidate before enrichment.
type TrendingItem struct {
	RepoID         string
	LanguageFilter string // empty when the listing was not filtered
	RankPosition   int
}

// RepoMeta is the authoritative metadata of one repository.
// Optional upstream fields are empty strings when absent.
type RepoMeta struct {
	ID              string
	PrimaryLanguage string
	TotalStars      int
	Topics          []string
	Description     string
	Homepage        string
	LicenseID       string
	OwnerKind       OwnerKind
}

// Owner returns the owner segment of the repository identifier.
func (m RepoMeta) Owner() string {
	owner, _, _ := strings.Cut(m.ID, "/")
	return owner
}

// ScoreResult is a desirability score with an order-stable trace of its terms.
type ScoreResult struct {
	Score  float64
	Reason string
}

// Pick is a persisted (repo, date, score) selection.
type Pick struct {
	ID     string
	RepoID string
	Score  float64
	Reason string
	Date   string
}

// PickID builds the natural key of a pick.
func PickID(repoID, date string) string {
	return repoID + "@" + date
}

// ArticleID builds the natural key of the daily article for a repository.
func ArticleID(repoID, date string) string {
	return strings.ReplaceAll(repoID, "/", "-") + "-" + date
}
