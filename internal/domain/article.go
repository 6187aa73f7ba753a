package domain

import "time"

// ArticleStatus enumerates article lifecycle milestones.
type ArticleStatus string

const (
	StatusDraft     ArticleStatus = "draft"
	StatusGenerated ArticleStatus = "generated"
	StatusReady     ArticleStatus = "ready"
	StatusPublished ArticleStatus = "published"
	StatusFailed    ArticleStatus = "failed"
)

const (
	MaxTitleENLength = 90
	MaxTitleCNLength = 30
	MaxTags          = 6
)

// ComposedArticle is the bilingual content produced for one repository.
type ComposedArticle struct {
	TitleEN   string   `json:"title_en"`
	TitleCN   string   `json:"title_cn"`
	SummaryEN string   `json:"summary_en"`
	SummaryCN string   `json:"summary_cn"`
	BodyMDEN  string   `json:"body_md_en"`
	BodyMDCN  string   `json:"body_md_cn"`
	Tags      []string `json:"tags"`
}

// Title prefers the English title and falls back to Chinese.
func (a ComposedArticle) Title() string {
	if a.TitleEN != "" {
		return a.TitleEN
	}
	return a.TitleCN
}

// Summary prefers the English summary and falls back to Chinese.
func (a ComposedArticle) Summary() string {
	if a.SummaryEN != "" {
		return a.SummaryEN
	}
	return a.SummaryCN
}

// Body prefers the English markdown body and falls back to Chinese.
func (a ComposedArticle) Body() string {
	if a.BodyMDEN != "" {
		return a.BodyMDEN
	}
	return a.BodyMDCN
}

// Draft is an article awaiting composition, joined with its repository data.
type Draft struct {
	ArticleID   string
	RepoID      string
	StarsTotal  int
	Topics      []string
	Description string
}

// Article is a persisted article together with the repository stats the card needs.
type Article struct {
	ID         string
	RepoID     string
	Status     ArticleStatus
	Content    ComposedArticle
	StarsTotal int
	Assets     []string
	UpdatedAt  time.Time
}
