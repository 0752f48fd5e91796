package fragment

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/lysyi3m/news-hub/app/news"
)

const newsGridTemplate = `<div class="cmn-news-grid layout-{{.Layout}}">
{{- range .Items}}
	<article class="cmn-news-item">
		{{- if .ImageURL}}
		<figure class="cmn-news-item__image">
			<img src="{{.ImageURL}}" alt="{{.Title}}">
		</figure>
		{{- end}}
		<header>
			<h3>{{.Title}}</h3>
			<p class="cmn-news-item__meta">{{.Source}} · {{.PublishedAt.DisplayDate}}</p>
		</header>
		<p class="cmn-news-item__summary">{{.Summary}}</p>
		{{- if .CanonicalURL}}
		<p><a href="{{.CanonicalURL}}" class="cmn-news-item__link" target="_blank" rel="noopener">Read more</a></p>
		{{- end}}
	</article>
{{- end}}
</div>
`

// Renderer produces news-grid markup with every value escaped for its context.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() *Renderer {
	return &Renderer{
		tmpl: template.Must(template.New("news-grid").Parse(newsGridTemplate)),
	}
}

func (r *Renderer) Run(layout string, items []news.Item) (string, error) {
	var buf bytes.Buffer

	data := struct {
		Layout string
		Items  []news.Item
	}{
		Layout: layout,
		Items:  items,
	}

	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render news grid: %w", err)
	}

	return buf.String(), nil
}
