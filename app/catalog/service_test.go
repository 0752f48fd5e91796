package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/lysyi3m/news-hub/app/news"
)

type fixtureRepository struct {
	items   []news.Item
	filters []news.Filter
}

func (r *fixtureRepository) FindItems(ctx context.Context, filter news.Filter) ([]news.Item, error) {
	r.filters = append(r.filters, filter)

	result := make([]news.Item, 0)
	for _, item := range r.items {
		if filter.Region != "" && item.Region != filter.Region {
			continue
		}
		if filter.Language != "" && item.Language != filter.Language {
			continue
		}
		result = append(result, item)
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}
	return result, nil
}

type failingRepository struct{}

func (failingRepository) FindItems(ctx context.Context, filter news.Filter) ([]news.Item, error) {
	return nil, errors.New("database is locked")
}

func newFixture() *fixtureRepository {
	repo := &fixtureRepository{}
	for i := 1; i <= 5; i++ {
		repo.items = append(repo.items, news.Item{
			ID:       news.ItemID(fmt.Sprintf("c%d", i)),
			Title:    fmt.Sprintf("Canada %d", i),
			Region:   "canada",
			Language: "en",
		})
	}
	for i := 1; i <= 2; i++ {
		repo.items = append(repo.items, news.Item{
			ID:       news.ItemID(fmt.Sprintf("o%d", i)),
			Title:    fmt.Sprintf("Other %d", i),
			Region:   "other",
			Language: "fr",
		})
	}
	return repo
}

func TestParseParams(t *testing.T) {
	values, _ := url.ParseQuery("region=%20canada%20&count=3&language=en&min_score=0.7&layout=list&topics=arts&topics[]=music&topics[]=%3Cb%3Efilm%3C%2Fb%3E")

	p := ParseParams(values)

	if p.Region != "canada" {
		t.Errorf("Expected region 'canada', got '%s'", p.Region)
	}
	if p.Count != 3 {
		t.Errorf("Expected count 3, got %d", p.Count)
	}
	if p.Language != "en" {
		t.Errorf("Expected language 'en', got '%s'", p.Language)
	}
	if p.Layout != "list" {
		t.Errorf("Expected layout 'list', got '%s'", p.Layout)
	}
	if p.MinScore == nil || *p.MinScore != 0.7 {
		t.Errorf("Expected min score 0.7, got %v", p.MinScore)
	}

	expectedTopics := []string{"arts", "music", "film"}
	if strings.Join(p.Topics, ",") != strings.Join(expectedTopics, ",") {
		t.Errorf("Expected topics %v, got %v", expectedTopics, p.Topics)
	}
}

func TestParseParamsCountDefaults(t *testing.T) {
	for _, raw := range []string{"", "abc", "0", "-2", "1.5"} {
		t.Run(raw, func(t *testing.T) {
			p := ParseParams(url.Values{"count": {raw}})
			if p.Count != DefaultCount {
				t.Errorf("Expected count %d for '%s', got %d", DefaultCount, raw, p.Count)
			}
		})
	}

	p := ParseParams(url.Values{"min_score": {"high"}})
	if p.MinScore != nil {
		t.Errorf("Expected invalid min score to be ignored, got %v", *p.MinScore)
	}
}

func TestQueryRegionBound(t *testing.T) {
	repo := newFixture()
	service := NewService(repo)

	values, _ := url.ParseQuery("region=canada&count=3")
	resp := service.Query(context.Background(), ParseParams(values))

	if len(resp.Items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(resp.Items))
	}

	for _, item := range resp.Items {
		if item.Region != "canada" {
			t.Errorf("Expected only canada items, got region '%s'", item.Region)
		}
	}

	if resp.Meta.Count != len(resp.Items) {
		t.Errorf("Expected meta count %d, got %d", len(resp.Items), resp.Meta.Count)
	}

	if resp.Meta.Layout != "grid" {
		t.Errorf("Expected default layout 'grid', got '%s'", resp.Meta.Layout)
	}

	if resp.Items[0].ID != "c1" || resp.Items[2].ID != "c3" {
		t.Errorf("Expected store order to be preserved, got %s..%s", resp.Items[0].ID, resp.Items[2].ID)
	}
}

func TestQueryFewerThanRequested(t *testing.T) {
	service := NewService(newFixture())

	resp := service.Query(context.Background(), Params{Region: "other", Count: 10, Layout: "list"})

	if len(resp.Items) != 2 {
		t.Errorf("Expected 2 items, got %d", len(resp.Items))
	}
	if resp.Meta.Count != 2 {
		t.Errorf("Expected meta count 2, got %d", resp.Meta.Count)
	}
	if resp.Meta.Layout != "list" {
		t.Errorf("Expected layout 'list', got '%s'", resp.Meta.Layout)
	}
}

func TestQueryLanguageFilter(t *testing.T) {
	repo := newFixture()
	service := NewService(repo)

	resp := service.Query(context.Background(), Params{Language: "fr"})

	if len(resp.Items) != 2 {
		t.Errorf("Expected 2 french items, got %d", len(resp.Items))
	}

	filter := repo.filters[0]
	if filter.Limit != DefaultCount {
		t.Errorf("Expected limit %d, got %d", DefaultCount, filter.Limit)
	}
}

func TestQueryIgnoresTopicsAndMinScore(t *testing.T) {
	repo := newFixture()
	service := NewService(repo)

	score := 0.9
	resp := service.Query(context.Background(), Params{Region: "canada", Topics: []string{"none"}, MinScore: &score, Count: 5})

	if len(resp.Items) != 5 {
		t.Errorf("Expected topics and min score to pass through, got %d items", len(resp.Items))
	}

	filter := repo.filters[0]
	if filter.MinScore != nil || len(filter.Topics) != 0 {
		t.Errorf("Expected no topic or score constraint in filter, got %+v", filter)
	}
}

func TestQueryDropsIncompleteItems(t *testing.T) {
	repo := &fixtureRepository{items: []news.Item{
		{ID: "", Title: "No id"},
		{ID: "1", Title: ""},
		{ID: "2", Title: "Complete"},
	}}

	resp := NewService(repo).Query(context.Background(), Params{})

	if len(resp.Items) != 1 || resp.Items[0].ID != "2" {
		t.Errorf("Expected only the complete item, got %+v", resp.Items)
	}
	if resp.Meta.Count != 1 {
		t.Errorf("Expected meta count 1, got %d", resp.Meta.Count)
	}
}

func TestQueryStoreFailure(t *testing.T) {
	resp := NewService(failingRepository{}).Query(context.Background(), Params{Layout: "list"})

	if resp.Items == nil || len(resp.Items) != 0 {
		t.Errorf("Expected empty items slice, got %v", resp.Items)
	}
	if resp.Meta.Count != 0 {
		t.Errorf("Expected meta count 0, got %d", resp.Meta.Count)
	}
	if resp.Meta.Layout != "list" {
		t.Errorf("Expected layout 'list', got '%s'", resp.Meta.Layout)
	}

	body, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal response: %v", err)
	}

	expected := `{"items":[],"meta":{"count":0,"layout":"list"}}`
	if string(body) != expected {
		t.Errorf("Expected %s, got %s", expected, body)
	}
}

func TestResponseOmitsAbsentFields(t *testing.T) {
	resp := NewService(&fixtureRepository{items: []news.Item{{ID: "1", Title: "Bare"}}}).Query(context.Background(), Params{})

	body, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal response: %v", err)
	}

	if strings.Contains(string(body), "null") {
		t.Errorf("Expected no null values, got %s", body)
	}
}
