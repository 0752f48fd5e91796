package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/news-hub/app/catalog"
	"github.com/lysyi3m/news-hub/app/database"
	"github.com/lysyi3m/news-hub/app/feed"
	"github.com/lysyi3m/news-hub/app/fragment"
	"github.com/lysyi3m/news-hub/app/news"
	"github.com/lysyi3m/news-hub/app/settings"
	"github.com/lysyi3m/news-hub/app/tasks"
)

const testAPIKey = "secret"

var _ tasks.TaskSchedulerInterface = (*stubScheduler)(nil)

type stubScheduler struct {
	ingestCalls int
	err         error
}

func (s *stubScheduler) Start() {}
func (s *stubScheduler) Stop()  {}

func (s *stubScheduler) EnqueueTask(task tasks.TaskInterface) error {
	return nil
}

func (s *stubScheduler) EnqueueIngestAll() (int, error) {
	s.ingestCalls++
	if s.err != nil {
		return 0, s.err
	}
	return 4, nil
}

type stubFetcher struct {
	calls int
	items []news.Item
}

func (f *stubFetcher) Fetch(ctx context.Context, baseURL string, params fragment.Params) []news.Item {
	f.calls++
	return f.items
}

type testEnv struct {
	router    *gin.Engine
	db        *database.DB
	articles  *database.SQLArticleRepository
	fetcher   *stubFetcher
	scheduler *stubScheduler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	feedRepo := database.NewFeedRepository(db)
	articleRepo := database.NewArticleRepository(db)
	settingsService := settings.NewService(database.NewSettingsRepository(db))

	store := fragment.NewMemoryStore()
	fetcher := &stubFetcher{items: []news.Item{{ID: "1", Title: "Grid item"}}}
	fragments := fragment.NewCache(store, fetcher, fragment.NewRenderer(), settingsService)

	scheduler := &stubScheduler{}

	handler := NewHandler(feed.NewConfigCache(t.TempDir()), feedRepo, articleRepo,
		catalog.NewService(articleRepo), fragments, settingsService, scheduler, store, 0.6)

	gin.SetMode(gin.TestMode)

	return &testEnv{
		router:    NewServer(handler, testAPIKey),
		db:        db,
		articles:  articleRepo,
		fetcher:   fetcher,
		scheduler: scheduler,
	}
}

func (e *testEnv) seed(t *testing.T) {
	t.Helper()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	insert := func(id, region, language string, score float64, topics []string, offset int) {
		_, err := e.articles.InsertArticle(context.Background(), database.Article{
			ExternalID:   id,
			FeedName:     "museums",
			Title:        "Title " + id,
			Summary:      "Summary " + id,
			Source:       "Museum Daily",
			PublishedAt:  base.Add(time.Duration(offset) * time.Hour),
			Region:       region,
			Topics:       topics,
			Score:        score,
			Language:     language,
			CanonicalURL: "https://example.com/" + id,
		})
		if err != nil {
			t.Fatalf("Failed to insert article: %v", err)
		}
	}

	for i := 1; i <= 5; i++ {
		insert(fmt.Sprintf("canada-%d", i), "canada", "en", 0.8, []string{"Art"}, i)
	}
	insert("other-1", "other", "fr", 0.9, []string{"Music"}, 10)
	insert("other-2", "other", "en", 0.4, []string{"Music"}, 11)
}

func (e *testEnv) do(method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type newsResponse struct {
	Items []news.Item `json:"items"`
	Meta  struct {
		Count  int    `json:"count"`
		Layout string `json:"layout"`
	} `json:"meta"`
}

func TestGetNewsRegionAndCount(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	w := env.do(http.MethodGet, "/cm/v1/news?region=canada&count=3", nil, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp newsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(resp.Items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(resp.Items))
	}
	for _, item := range resp.Items {
		if item.Region != "canada" {
			t.Errorf("Expected only canada items, got '%s'", item.Region)
		}
	}
	if resp.Meta.Count != 3 {
		t.Errorf("Expected meta count 3, got %d", resp.Meta.Count)
	}
	if resp.Meta.Layout != "grid" {
		t.Errorf("Expected layout 'grid', got '%s'", resp.Meta.Layout)
	}
	if resp.Items[0].Title != "Title canada-5" {
		t.Errorf("Expected newest item first, got '%s'", resp.Items[0].Title)
	}
}

func TestGetNewsStoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.db.Close()

	w := env.do(http.MethodGet, "/cm/v1/news?layout=list", nil, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 on store failure, got %d", w.Code)
	}

	expected := `{"items":[],"meta":{"count":0,"layout":"list"}}`
	if strings.TrimSpace(w.Body.String()) != expected {
		t.Errorf("Expected %s, got %s", expected, w.Body.String())
	}
}

func TestGetNewsGrid(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/blocks/news-grid?region=canada&count=2", nil, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Errorf("Expected text/html, got '%s'", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), "<h3>Grid item</h3>") {
		t.Errorf("Expected rendered item, got %s", w.Body.String())
	}

	env.do(http.MethodGet, "/blocks/news-grid?region=Canada&count=2", nil, nil)
	if env.fetcher.calls != 1 {
		t.Errorf("Expected second request to be served from cache, got %d fetches", env.fetcher.calls)
	}
}

func TestGetArticles(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	tests := []struct {
		name     string
		query    string
		expected int
	}{
		{"default min score", "", 6},
		{"region", "?region=canada", 5},
		{"language", "?language=fr", 1},
		{"topics case-insensitive", "?topics=music", 1},
		{"topics array form", "?topics[]=ART&topics[]=none", 5},
		{"explicit min score", "?min_score=0.3&region=other", 2},
		{"count", "?count=2", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodGet, "/articles"+tt.query, nil, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var resp newsResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}

			if len(resp.Items) != tt.expected {
				t.Errorf("Expected %d items, got %d", tt.expected, len(resp.Items))
			}
			if resp.Meta.Count != len(resp.Items) {
				t.Errorf("Expected meta count %d, got %d", len(resp.Items), resp.Meta.Count)
			}
		})
	}
}

func TestGetArticlesValidation(t *testing.T) {
	env := newTestEnv(t)

	for _, query := range []string{"?count=0", "?count=51", "?count=abc", "?min_score=2", "?min_score=x"} {
		w := env.do(http.MethodGet, "/articles"+query, nil, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400 for %s, got %d", query, w.Code)
		}
	}
}

func TestAPIAuthentication(t *testing.T) {
	env := newTestEnv(t)

	if w := env.do(http.MethodGet, "/api/settings", nil, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without key, got %d", w.Code)
	}

	if w := env.do(http.MethodGet, "/api/settings", nil, map[string]string{"X-API-Key": "wrong"}); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with wrong key, got %d", w.Code)
	}

	if w := env.do(http.MethodGet, "/api/settings", nil, map[string]string{"Authorization": "Bearer " + testAPIKey}); w.Code != http.StatusOK {
		t.Errorf("Expected 200 with bearer key, got %d", w.Code)
	}
}

func TestAPISettings(t *testing.T) {
	env := newTestEnv(t)
	headers := map[string]string{"X-API-Key": testAPIKey, "Content-Type": "application/json"}

	body := []byte(`{"ingestion_url":"https://ingest.example.com","regions":"<p>Canada</p><script>x</script>"}`)
	w := env.do(http.MethodPut, "/api/settings", body, headers)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var saved settings.Settings
	if err := json.Unmarshal(w.Body.Bytes(), &saved); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if saved.IngestionURL != "https://ingest.example.com" {
		t.Errorf("Expected saved URL, got '%s'", saved.IngestionURL)
	}
	if strings.Contains(saved.Regions, "<script") {
		t.Errorf("Expected sanitized regions, got '%s'", saved.Regions)
	}

	w = env.do(http.MethodPut, "/api/settings", []byte(`{"ingestion_url":"ftp://nope"}`), headers)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid URL, got %d", w.Code)
	}

	w = env.do(http.MethodPut, "/api/settings", []byte(`not json`), headers)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid body, got %d", w.Code)
	}

	w = env.do(http.MethodGet, "/api/settings", nil, headers)
	var current settings.Settings
	if err := json.Unmarshal(w.Body.Bytes(), &current); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if current.IngestionURL != "https://ingest.example.com" {
		t.Errorf("Expected invalid update to leave URL unchanged, got '%s'", current.IngestionURL)
	}
}

func TestAPIIngest(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/ingest", nil, map[string]string{"X-API-Key": testAPIKey})
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", w.Code)
	}
	if env.scheduler.ingestCalls != 1 {
		t.Errorf("Expected 1 ingest call, got %d", env.scheduler.ingestCalls)
	}

	env.scheduler.err = fmt.Errorf("task queue is full")
	w = env.do(http.MethodPost, "/api/ingest", nil, map[string]string{"X-API-Key": testAPIKey})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	w := env.do(http.MethodGet, "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var health map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if health["articles"] != float64(7) {
		t.Errorf("Expected 7 articles, got %v", health["articles"])
	}

	cache, ok := health["cache"].(map[string]interface{})
	if !ok || cache["type"] != "memory" {
		t.Errorf("Expected memory cache health, got %v", health["cache"])
	}
}

func TestOptionsPreflight(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodOptions, "/cm/v1/news", nil, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS header")
	}
}
