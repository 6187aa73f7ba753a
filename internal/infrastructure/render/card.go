package render

import (
	"context"
	"fmt"
	"html"
	"strings"
	"text/template"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"TrendingPress/internal/domain"
	"TrendingPress/internal/ports"
)

const (
	CardWidth  = 1200
	CardHeight = 630
	// MaxTagChips bounds the tag row.
	MaxTagChips = 6

	padding      = 48
	contentWidth = CardWidth - 2*padding
	footerText   = "Source: GitHub • Attribution to repo authors"
)

var cardTemplate = template.Must(template.New("card").Funcs(template.FuncMap{
	"esc": html.EscapeString,
}).Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}">
<rect width="{{.Width}}" height="{{.Height}}" fill="#0B1220"/>
<g font-family="{{esc .Family}}, sans-serif" fill="#E6EDF3">
<text x="48" y="{{.HeaderY}}" font-size="32" fill-opacity="0.8">{{esc .Header}}</text>
<text x="1152" y="{{.HeaderY}}" font-size="28" fill-opacity="0.7" text-anchor="end">{{esc .RepoLabel}}</text>
{{- range .Title}}
<text x="48" y="{{.Y}}" font-size="56" font-weight="700">{{esc .Text}}</text>
{{- end}}
{{- range .Desc}}
<text x="48" y="{{.Y}}" font-size="30" fill="#B6C2CF">{{esc .Text}}</text>
{{- end}}
{{- range .Pills}}
<rect x="{{.X}}" y="{{.Y}}" width="{{.W}}" height="{{.H}}" rx="14" fill="{{.Fill}}"/>
<text x="{{.TextX}}" y="{{.TextY}}" font-size="26" fill="{{.Color}}">{{esc .Label}}<tspan dx="8" font-weight="700">{{esc .Value}}</tspan></text>
{{- end}}
{{- range .Tags}}
<rect x="{{.X}}" y="{{.Y}}" width="{{.W}}" height="{{.H}}" rx="12" fill="#0E1626" stroke="#1B2A44" stroke-width="1"/>
<text x="{{.TextX}}" y="{{.TextY}}" font-size="22" fill="#9DB1C9">{{esc .Value}}</text>
{{- end}}
<text x="48" y="{{.FooterY}}" font-size="22" fill-opacity="0.7">{{esc .Footer}}</text>
</g>
</svg>
`))

type textLine struct {
	Y    int
	Text string
}

type box struct {
	X, Y, W, H   int
	TextX, TextY int
	Fill, Color  string
	Label, Value string
}

type cardView struct {
	Width, Height int
	Family        string
	HeaderY       int
	Header        string
	RepoLabel     string
	Title         []textLine
	Desc          []textLine
	Pills         []box
	Tags          []box
	FooterY       int
	Footer        string
}

// CardRenderer lays out the 1200x630 summary card as SVG.
type CardRenderer struct {
	fonts  *FontLoader
	source string
	stars  *message.Printer
}

var _ ports.CardRenderer = (*CardRenderer)(nil)

// NewCardRenderer binds the shared font loader. source labels the header, e.g. "GitHub Trending".
func NewCardRenderer(fonts *FontLoader, source string) *CardRenderer {
	if source == "" {
		source = "GitHub Trending"
	}
	return &CardRenderer{
		fonts:  fonts,
		source: source,
		stars:  message.NewPrinter(language.English),
	}
}

// RenderSVG produces the card markup. The font is loaded once to resolve its family name.
func (r *CardRenderer) RenderSVG(ctx context.Context, card domain.Card) (string, error) {
	font, err := r.fonts.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("render card: %w", err)
	}

	view := r.layout(card, font.Family)

	var b strings.Builder
	if err := cardTemplate.Execute(&b, view); err != nil {
		return "", fmt.Errorf("render card: %w", err)
	}
	return b.String(), nil
}

func (r *CardRenderer) layout(card domain.Card, family string) cardView {
	view := cardView{
		Width:     CardWidth,
		Height:    CardHeight,
		Family:    family,
		HeaderY:   padding + 32,
		Header:    r.source,
		RepoLabel: "github.com/" + card.Repo,
		FooterY:   CardHeight - padding,
		Footer:    footerText,
	}

	if card.Date != "" {
		view.Header += " • " + card.Date
	}

	y := view.HeaderY + 28
	for _, line := range wrap(card.Title, 56, contentWidth, 2) {
		y += 67
		view.Title = append(view.Title, textLine{Y: y - 11, Text: line})
	}

	if desc := strings.TrimSpace(card.Description); desc != "" {
		y += 18
		for _, line := range wrap(desc, 30, contentWidth, 2) {
			y += 42
			view.Desc = append(view.Desc, textLine{Y: y - 12, Text: line})
		}
	}

	y += 28
	x := padding
	view.Pills = append(view.Pills, pill(&x, y, "#10243E", "#E6EDF3", "⭐ Stars:", r.stars.Sprintf("%d", card.Stars)))
	if card.WeeklyDelta != nil {
		delta := *card.WeeklyDelta
		fill, color, sign := "#143D2E", "#39D353", "+"
		if delta < 0 {
			fill, color, sign = "#4A1D1A", "#FF7B72", ""
		}
		view.Pills = append(view.Pills, pill(&x, y, fill, color, "7d Δ:", sign+r.stars.Sprintf("%d", delta)))
	}
	y += 52

	y += 22
	x = padding
	for i, tag := range nonEmpty(card.Tags) {
		if i == MaxTagChips {
			break
		}
		w := int(textWidth(tag, 22)) + 28
		if x+w > CardWidth-padding && x > padding {
			x = padding
			y += 52
		}
		if y+40 > view.FooterY-30 {
			break
		}
		view.Tags = append(view.Tags, box{
			X: x, Y: y, W: w, H: 40,
			TextX: x + 14, TextY: y + 28,
			Value: tag,
		})
		x += w + 12
	}

	return view
}

func pill(x *int, y int, fill, color, label, value string) box {
	w := int(textWidth(label, 26)+textWidth(value, 26)) + 8 + 32
	b := box{
		X: *x, Y: y, W: w, H: 52,
		TextX: *x + 16, TextY: y + 35,
		Fill: fill, Color: color,
		Label: label, Value: value,
	}
	*x += w + 18
	return b
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// textWidth approximates rendered width: wide glyphs take a full em, others a little over half.
func textWidth(s string, size float64) float64 {
	var w float64
	for _, r := range s {
		w += runeWidth(r, size)
	}
	return w
}

func runeWidth(r rune, size float64) float64 {
	switch {
	case unicode.Is(unicode.Han, r), unicode.Is(unicode.Hiragana, r), unicode.Is(unicode.Katakana, r),
		unicode.Is(unicode.Hangul, r), r >= 0xFF00 && r <= 0xFFEF, r >= 0x1F300:
		return size
	case r == ' ':
		return size * 0.28
	default:
		return size * 0.56
	}
}

// wrap breaks text into at most maxLines lines of width limit, preferring spaces,
// and ellipsizes the last line when text remains.
func wrap(text string, size, limit float64, maxLines int) []string {
	runes := []rune(strings.Join(strings.Fields(text), " "))
	var lines []string
	for len(runes) > 0 {
		if len(lines) == maxLines-1 {
			lines = append(lines, ellipsize(runes, size, limit))
			break
		}
		cut := fit(runes, size, limit)
		if cut < len(runes) {
			if sp := lastSpace(runes[:cut+1]); sp > 0 {
				cut = sp
			}
		}
		lines = append(lines, strings.TrimSpace(string(runes[:cut])))
		runes = []rune(strings.TrimLeft(string(runes[cut:]), " "))
	}
	return lines
}

func fit(runes []rune, size, limit float64) int {
	var w float64
	for i, r := range runes {
		w += runeWidth(r, size)
		if w > limit {
			return max(i, 1)
		}
	}
	return len(runes)
}

func ellipsize(runes []rune, size, limit float64) string {
	if textWidth(string(runes), size) <= limit {
		return string(runes)
	}
	cut := fit(runes, size, limit-runeWidth('…', size))
	return strings.TrimSpace(string(runes[:cut])) + "…"
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}
