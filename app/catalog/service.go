package catalog

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/lysyi3m/news-hub/app/news"
)

const (
	DefaultCount  = 6
	DefaultLayout = "grid"
)

// ItemRepository is the content store the catalog reads from.
type ItemRepository interface {
	FindItems(ctx context.Context, filter news.Filter) ([]news.Item, error)
}

// Params are the filter and display parameters of a catalog query.
// Topics and MinScore are accepted but not applied to the result set.
type Params struct {
	Region   string
	Topics   []string
	Count    int
	Language string
	MinScore *float64
	Layout   string
}

type Meta struct {
	Count  int    `json:"count"`
	Layout string `json:"layout"`
}

type Response struct {
	Items []news.Item `json:"items"`
	Meta  Meta        `json:"meta"`
}

// ParseParams reads catalog parameters from a query string. Both repeated
// topics= and topics[]= forms are accepted.
func ParseParams(values url.Values) Params {
	p := Params{
		Region:   news.SanitizeText(values.Get("region")),
		Language: news.SanitizeText(values.Get("language")),
		Layout:   news.SanitizeText(values.Get("layout")),
		Count:    DefaultCount,
	}

	if count, err := strconv.Atoi(strings.TrimSpace(values.Get("count"))); err == nil && count > 0 {
		p.Count = count
	}

	if raw := strings.TrimSpace(values.Get("min_score")); raw != "" {
		if score, err := strconv.ParseFloat(raw, 64); err == nil {
			p.MinScore = &score
		}
	}

	for _, key := range []string{"topics", "topics[]"} {
		for _, topic := range values[key] {
			if topic = news.SanitizeText(topic); topic != "" {
				p.Topics = append(p.Topics, topic)
			}
		}
	}

	return p
}

type Service struct {
	repo ItemRepository
}

func NewService(repo ItemRepository) *Service {
	return &Service{repo: repo}
}

// Query resolves a bounded list of items in store order. Store failures
// yield an empty response rather than an error.
func (s *Service) Query(ctx context.Context, p Params) Response {
	layout := p.Layout
	if layout == "" {
		layout = DefaultLayout
	}

	count := p.Count
	if count <= 0 {
		count = DefaultCount
	}

	filter := news.Filter{
		Region:   p.Region,
		Language: p.Language,
		Limit:    count,
	}

	found, err := s.repo.FindItems(ctx, filter)
	if err != nil {
		slog.Error("Catalog query failed", "region", p.Region, "language", p.Language, "error", err)
		return Response{Items: []news.Item{}, Meta: Meta{Count: 0, Layout: layout}}
	}

	items := make([]news.Item, 0, len(found))
	for _, item := range found {
		if item.ID == "" || item.Title == "" {
			continue
		}
		if item.Topics == nil {
			item.Topics = []string{}
		}
		items = append(items, item)
		if len(items) == count {
			break
		}
	}

	return Response{
		Items: items,
		Meta:  Meta{Count: len(items), Layout: layout},
	}
}
