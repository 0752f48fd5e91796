package feed

import (
	"testing"
)

func TestFilterer_NoFilters(t *testing.T) {
	filterer := NewFilterer()

	items := []Item{
		{Title: "Test Item 1", Description: "Test description"},
		{Title: "Test Item 2", Description: "Another description"},
	}

	result := filterer.Run(items, &Config{Filters: []ConfigFilter{}})

	if len(result) != 2 {
		t.Errorf("Expected 2 items, got %d", len(result))
	}

	for i, item := range result {
		if item.IsFiltered {
			t.Errorf("Item %d should not be filtered when no filters are configured", i)
		}
		if item.FilterReason != "" {
			t.Errorf("Item %d should have empty filter reason, got: %s", i, item.FilterReason)
		}
	}
}

func TestFilterer_TitleInclude(t *testing.T) {
	filterer := NewFilterer()

	items := []Item{
		{Title: "New Exhibit Opens at the Museum"},
		{Title: "Gallery Update"},
		{Title: "Hockey Scores"},
	}

	feedConfig := &Config{
		Filters: []ConfigFilter{
			{Field: "title", Includes: []string{"exhibit", "gallery"}},
		},
	}

	result := filterer.Run(items, feedConfig)

	if result[0].IsFiltered {
		t.Errorf("First item should not be filtered, contains 'exhibit'")
	}
	if result[1].IsFiltered {
		t.Errorf("Second item should not be filtered, contains 'gallery'")
	}
	if !result[2].IsFiltered {
		t.Errorf("Third item should be filtered, doesn't contain included terms")
	}
	if result[2].FilterReason == "" {
		t.Errorf("Third item should have filter reason")
	}
}

func TestFilterer_ExcludeWinsOverInclude(t *testing.T) {
	filterer := NewFilterer()

	items := []Item{
		{Title: "Exhibit review", Description: "A sponsored post"},
		{Title: "Exhibit review", Description: "Independent coverage"},
	}

	feedConfig := &Config{
		Filters: []ConfigFilter{
			{Field: "summary", Excludes: []string{"SPONSORED"}},
			{Field: "title", Includes: []string{"exhibit"}},
		},
	}

	result := filterer.Run(items, feedConfig)

	if !result[0].IsFiltered {
		t.Errorf("First item should be filtered by summary exclude")
	}
	if result[1].IsFiltered {
		t.Errorf("Second item should not be filtered, got reason: %s", result[1].FilterReason)
	}
}

func TestFilterer_BodyFallsBackToDescription(t *testing.T) {
	filterer := NewFilterer()

	items := []Item{
		{Title: "A", Content: "<p>Full text about sculpture</p>"},
		{Title: "B", Description: "Short teaser about sculpture"},
		{Title: "C", Description: "Short teaser about painting"},
	}

	feedConfig := &Config{
		Filters: []ConfigFilter{
			{Field: "body", Includes: []string{"sculpture"}},
		},
	}

	result := filterer.Run(items, feedConfig)

	if result[0].IsFiltered || result[1].IsFiltered {
		t.Errorf("Expected items mentioning sculpture to pass")
	}
	if !result[2].IsFiltered {
		t.Errorf("Expected item without sculpture to be filtered")
	}
}

func TestFilterer_TopicsIncludeFeedAndItemCategories(t *testing.T) {
	filterer := NewFilterer()

	items := []Item{
		{Title: "A", Categories: []string{"Opera"}},
		{Title: "B", Categories: []string{"Sports"}},
	}

	feedConfig := &Config{
		Topics: []string{"museums"},
		Filters: []ConfigFilter{
			{Field: "topics", Excludes: []string{"sports"}},
			{Field: "topics", Includes: []string{"museums"}},
		},
	}

	result := filterer.Run(items, feedConfig)

	if result[0].IsFiltered {
		t.Errorf("Expected item to pass through feed topic include, got reason: %s", result[0].FilterReason)
	}
	if !result[1].IsFiltered {
		t.Errorf("Expected sports item to be excluded")
	}
}

func TestFilterer_LinkFilter(t *testing.T) {
	filterer := NewFilterer()

	items := []Item{
		{Title: "A", Link: "https://example.com/arts/1"},
		{Title: "B", Link: "https://example.com/ads/2"},
	}

	feedConfig := &Config{
		Filters: []ConfigFilter{
			{Field: "link", Excludes: []string{"/ads/"}},
		},
	}

	result := filterer.Run(items, feedConfig)

	if result[0].IsFiltered {
		t.Errorf("Expected arts link to pass")
	}
	if !result[1].IsFiltered {
		t.Errorf("Expected ads link to be filtered")
	}
}
