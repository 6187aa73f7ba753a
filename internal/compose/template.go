package compose

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"TrendingPress/internal/domain"
)

const (
	defaultTaglineEN = "Trending on GitHub"
	defaultTaglineCN = "GitHub 热门"
	defaultWhyEN     = "A notable trending repository"
	defaultWhyCN     = "一个值得关注的热门仓库"
)

// Template builds the deterministic article for in. It never touches the network.
func Template(in Input) domain.ComposedArticle {
	name := DisplayName(in.ID)
	tags := normalizeTags(in.Topics)

	topicsEN := strings.Join(tags, ", ")
	if topicsEN == "" {
		topicsEN = "n/a"
	}
	topicsCN := strings.Join(tags, "、")
	if topicsCN == "" {
		topicsCN = "无"
	}

	summaryEN := fmt.Sprintf("Why it matters: %s\nHighlights: stars %d, topics %s",
		orDefault(in.Description, defaultWhyEN), in.StarsTotal, topicsEN)
	summaryCN := fmt.Sprintf("为什么值得关注：%s\n亮点：Stars %d，话题 %s",
		orDefault(in.Description, defaultWhyCN), in.StarsTotal, topicsCN)

	return domain.ComposedArticle{
		TitleEN:   truncate(name+": "+orDefault(in.Description, defaultTaglineEN), domain.MaxTitleENLength),
		TitleCN:   truncate(name+"："+orDefault(in.Description, defaultTaglineCN), domain.MaxTitleCNLength),
		SummaryEN: summaryEN,
		SummaryCN: summaryCN,
		BodyMDEN:  fmt.Sprintf("# %s\n\n%s\n\n- Repo: %s", name, summaryEN, repoURL(in.ID)),
		BodyMDCN:  fmt.Sprintf("# %s\n\n%s\n\n- 仓库： %s", name, summaryCN, repoURL(in.ID)),
		Tags:      tags,
	}
}

// DisplayName turns "vercel/next.js" into "Vercel Next.js".
// Path and word separators become spaces and each word is capitalized.
func DisplayName(repoID string) string {
	words := strings.FieldsFunc(repoID, func(r rune) bool {
		return r == '/' || r == '-' || r == '_' || unicode.IsSpace(r)
	})
	if len(words) == 0 {
		return repoID
	}
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// normalize applies the length and tag caps shared by both composition paths.
func normalize(a domain.ComposedArticle) domain.ComposedArticle {
	a.TitleEN = truncate(strings.TrimSpace(a.TitleEN), domain.MaxTitleENLength)
	a.TitleCN = truncate(strings.TrimSpace(a.TitleCN), domain.MaxTitleCNLength)
	a.Tags = normalizeTags(a.Tags)
	return a
}

func normalizeTags(topics []string) []string {
	tags := make([]string, 0, min(len(topics), domain.MaxTags))
	for _, t := range topics {
		if len(tags) == domain.MaxTags {
			break
		}
		tags = append(tags, strings.ToLower(t))
	}
	return tags
}

// truncate caps s at limit UTF-16 code units, the unit title limits are measured in.
// A surrogate pair is never split.
func truncate(s string, limit int) string {
	units := 0
	for i, r := range s {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if units+n > limit {
			return s[:i]
		}
		units += n
	}
	return s
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func repoURL(repoID string) string {
	return "https://github.com/" + repoID
}
