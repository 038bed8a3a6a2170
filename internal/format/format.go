package format

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"herald/internal/types"
)

type Style string

const (
	StyleHTML     Style = "html"
	StyleMarkdown Style = "markdown"
)

func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case "", StyleHTML:
		return StyleHTML, nil
	case StyleMarkdown, "md":
		return StyleMarkdown, nil
	default:
		return "", types.NewValidationError("style", fmt.Sprintf("unknown style %q", s))
	}
}

// Formatter renders article titles as link labels. It is stateless and
// safe for concurrent use.
type Formatter struct {
	style  Style
	policy *bluemonday.Policy
}

func New(style Style) *Formatter {
	if style == "" {
		style = StyleHTML
	}

	return &Formatter{
		style:  style,
		policy: bluemonday.UGCPolicy(),
	}
}

func (f *Formatter) Format(articles []types.Article) []types.DisplayArticle {
	out := make([]types.DisplayArticle, 0, len(articles))
	for _, a := range articles {
		out = append(out, types.DisplayArticle{
			Source:      a.Source,
			PublishedAt: a.PublishedAt,
			Title:       f.Label(a.Title, a.Link),
			Link:        a.Link,
			Body:        a.Body,
		})
	}
	return out
}

func (f *Formatter) Label(title, link string) string {
	switch f.style {
	case StyleMarkdown:
		return markdownLink(title, link)
	default:
		return f.htmlLink(title, link)
	}
}

// htmlLink builds an anchor and runs it through the UGC policy, which drops
// unsafe schemes and adds rel="nofollow".
func (f *Formatter) htmlLink(title, link string) string {
	anchor := fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(link), html.EscapeString(title))
	return f.policy.Sanitize(anchor)
}

var markdownEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)
var markdownURLEscaper = strings.NewReplacer(`(`, `%28`, `)`, `%29`, ` `, `%20`)

func markdownLink(title, link string) string {
	return fmt.Sprintf("[%s](%s)", markdownEscaper.Replace(title), markdownURLEscaper.Replace(link))
}
