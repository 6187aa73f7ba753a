// Package scoring ranks enriched repositories with an additive, explainable model.
package scoring

import (
	"math"
	"strconv"
	"strings"

	"TrendingPress/internal/domain"
)

// positionCeiling is the rank at which the position term reaches zero.
const positionCeiling = 60

type topicTier struct {
	bonus  int
	topics map[string]struct{}
}

// Tiers stack; matches inside one tier count once.
var topicTiers = []topicTier{
	tier(15, "ai", "artificial-intelligence", "machine-learning", "ml", "llm", "large-language-model",
		"chatgpt", "openai", "agent", "gpt", "deep-learning", "neural-network", "tensorflow", "pytorch"),
	tier(8, "rust", "go", "typescript", "zig", "kotlin", "swift"),
	tier(6, "web", "frontend", "react", "nextjs", "vue", "svelte", "web-framework", "full-stack", "backend"),
	tier(5, "devops", "docker", "kubernetes", "ci-cd", "automation", "cli", "developer-tools", "productivity"),
	tier(4, "database", "nosql", "redis", "postgresql", "mongodb", "storage", "distributed-systems"),
	tier(3, "blockchain", "cryptocurrency", "bitcoin", "ethereum", "web3", "defi", "nft"),
}

var languageBonus = map[string]int{
	"rust": 3, "go": 3, "zig": 3,
	"typescript": 2, "javascript": 2,
	"python": 1, "java": 1, "kotlin": 1, "swift": 1, "c++": 1, "c#": 1,
}

func tier(bonus int, topics ...string) topicTier {
	set := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		set[t] = struct{}{}
	}
	return topicTier{bonus: bonus, topics: set}
}

// Score converts metadata and a rank position into a score with its reason trace.
// It performs no I/O and is deterministic.
func Score(meta domain.RepoMeta, rankPosition int) domain.ScoreResult {
	position := PositionTerm(rankPosition)
	popularity := PopularityTerm(meta.TotalStars)
	topics := TopicTerm(meta.Topics)
	lang := LanguageTerm(meta.PrimaryLanguage)
	owner := OwnerTerm(meta.OwnerKind)

	parts := []string{
		"pos:" + strconv.Itoa(rankPosition) + "(" + oneDecimal(position) + ")",
		"stars:" + strconv.Itoa(meta.TotalStars) + "(" + oneDecimal(popularity) + ")",
		"topics:" + signed(topics),
	}
	if lang > 0 {
		parts = append(parts, "lang:+"+strconv.Itoa(lang))
	}
	if owner != 0 {
		parts = append(parts, "owner:"+signed(owner))
	}

	return domain.ScoreResult{
		Score:  position + popularity + float64(topics+lang+owner),
		Reason: strings.Join(parts, ", "),
	}
}

// PositionTerm is max(0, 60 - rank).
func PositionTerm(rankPosition int) float64 {
	return float64(max(0, positionCeiling-rankPosition))
}

// PopularityTerm is log10(max(1, stars)) * 10.
func PopularityTerm(stars int) float64 {
	return math.Log10(float64(max(1, stars))) * 10
}

// TopicTerm sums the bonus of every tier matched by at least one topic.
func TopicTerm(topics []string) int {
	normalized := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		normalized[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}

	bonus := 0
	for _, tier := range topicTiers {
		for t := range normalized {
			if _, ok := tier.topics[t]; ok {
				bonus += tier.bonus
				break
			}
		}
	}
	return bonus
}

// LanguageTerm rewards popular primary languages, case-insensitively.
func LanguageTerm(language string) int {
	return languageBonus[strings.ToLower(strings.TrimSpace(language))]
}

// OwnerTerm rewards organization-owned repositories.
func OwnerTerm(kind domain.OwnerKind) int {
	if strings.EqualFold(string(kind), string(domain.OwnerOrganization)) {
		return 2
	}
	return 0
}

func oneDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func signed(v int) string {
	if v > 0 {
		return "+" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}
