// Package compose produces bilingual articles, via a language model when one is configured
// and otherwise from a deterministic template.
package compose

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"TrendingPress/internal/domain"
	"TrendingPress/internal/ports"
)

// SystemPrompt establishes the writer persona for the generative path.
const SystemPrompt = "You are a bilingual technical writer."

// Source tells which path produced an article.
type Source string

const (
	SourceGenerated Source = "generated"
	SourceTemplate  Source = "template"
)

var errEmptyContent = errors.New("generated article has no title")

// Input carries the repository facts an article is written from.
type Input struct {
	ID          string
	StarsTotal  int
	Topics      []string
	Description string
}

// Generation is the outcome of one generative call: Article is set when Err is nil.
type Generation struct {
	Article domain.ComposedArticle
	Err     error
}

// OK reports whether the generation succeeded.
func (g Generation) OK() bool {
	return g.Err == nil
}

// Select picks the generated article when it is usable and the template otherwise.
func Select(g Generation, in Input) (domain.ComposedArticle, Source) {
	if g.OK() {
		return normalize(g.Article), SourceGenerated
	}
	return Template(in), SourceTemplate
}

// Composer writes articles. A nil chat client means template-only.
type Composer struct {
	chat   ports.ChatClient
	logger *slog.Logger
	system string
}

// NewComposer wires an optional chat client.
func NewComposer(chat ports.ChatClient, logger *slog.Logger) *Composer {
	return &Composer{chat: chat, logger: logger, system: SystemPrompt}
}

// WithSystemPrompt overrides the persona sent with every generative call.
func (c *Composer) WithSystemPrompt(prompt string) *Composer {
	if prompt = strings.TrimSpace(prompt); prompt != "" {
		c.system = prompt
	}
	return c
}

// Compose never fails: generative errors fall back to the template.
func (c *Composer) Compose(ctx context.Context, in Input) (domain.ComposedArticle, Source) {
	if c.chat == nil {
		return Template(in), SourceTemplate
	}

	gen := c.Generate(ctx, in)
	if !gen.OK() && c.logger != nil {
		c.logger.Warn("generation failed, using template", "repo", in.ID, "error", gen.Err)
	}
	return Select(gen, in)
}

// Generate performs the generative call and parses its content.
func (c *Composer) Generate(ctx context.Context, in Input) Generation {
	if c.chat == nil {
		return Generation{Err: fmt.Errorf("chat client: %w", domain.ErrMissingConfig)}
	}

	content, err := c.chat.CompleteJSON(ctx, c.system, UserPrompt(in))
	if err != nil {
		return Generation{Err: fmt.Errorf("chat completion: %w", err)}
	}
	return ParseGeneration(content)
}

// ParseGeneration decodes model output into an article.
func ParseGeneration(content string) Generation {
	var article domain.ComposedArticle
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &article); err != nil {
		return Generation{Err: fmt.Errorf("decode article json: %w", err)}
	}
	if strings.TrimSpace(article.TitleEN) == "" && strings.TrimSpace(article.TitleCN) == "" {
		return Generation{Err: errEmptyContent}
	}
	return Generation{Article: article}
}

// UserPrompt embeds the repository facts and the required JSON shape.
func UserPrompt(in Input) string {
	return fmt.Sprintf("Repository: %s\nStars: %d\nTopics: %s\nDesc: %s\n"+
		"Return JSON with: title_en,title_cn,summary_en,summary_cn,body_md_en,body_md_cn,tags[]",
		in.ID, in.StarsTotal, strings.Join(in.Topics, ", "), in.Description)
}
