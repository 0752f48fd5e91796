package feed

import (
	"strings"
	"unicode/utf8"

	"github.com/lysyi3m/news-hub/app/news"
)

const (
	SummaryMaxLength  = 280
	summaryEllipsis   = "…"
	frenchPrefix      = "[FR] "
	frenchLanguageTag = "fr"
)

// Summarizer builds a short plain-text summary from article text.
type Summarizer struct{}

func NewSummarizer() *Summarizer {
	return &Summarizer{}
}

func (s *Summarizer) Run(body string, hints []string, lang string) string {
	text := news.SanitizeText(body)

	for _, hint := range hints {
		if hint = news.SanitizeText(hint); hint != "" {
			text = strings.TrimSpace(text + " " + hint)
		}
	}

	summary := shorten(text, SummaryMaxLength)

	if summary != "" && lang == frenchLanguageTag {
		return frenchPrefix + summary
	}
	return summary
}

// shorten fits text into width runes by dropping whole words from the end
// and appending an ellipsis when anything was removed.
func shorten(text string, width int) string {
	if utf8.RuneCountInString(text) <= width {
		return text
	}

	limit := width - utf8.RuneCountInString(summaryEllipsis)
	var b strings.Builder

	for _, word := range strings.Fields(text) {
		sep := 0
		if b.Len() > 0 {
			sep = 1
		}
		if utf8.RuneCountInString(b.String())+sep+utf8.RuneCountInString(word) > limit {
			break
		}
		if sep == 1 {
			b.WriteByte(' ')
		}
		b.WriteString(word)
	}

	if b.Len() == 0 {
		return summaryEllipsis
	}

	return b.String() + summaryEllipsis
}
