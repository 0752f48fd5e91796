package api

import (
	"context"

	"github.com/lysyi3m/news-hub/app/catalog"
	"github.com/lysyi3m/news-hub/app/database"
	"github.com/lysyi3m/news-hub/app/feed"
	"github.com/lysyi3m/news-hub/app/fragment"
	"github.com/lysyi3m/news-hub/app/settings"
	"github.com/lysyi3m/news-hub/app/tasks"
)

// HealthReporter is implemented by fragment stores that can describe their state.
type HealthReporter interface {
	Health(ctx context.Context) map[string]interface{}
}

type FragmentRenderer interface {
	Render(ctx context.Context, params fragment.Params) string
}

var _ FragmentRenderer = (*fragment.Cache)(nil)

type Handler struct {
	configCache *feed.ConfigCache
	feedRepo    database.FeedRepository
	articleRepo database.ArticleRepository
	catalog     *catalog.Service
	fragments   FragmentRenderer
	settings    *settings.Service
	scheduler   tasks.TaskSchedulerInterface
	cacheHealth HealthReporter
	minScore    float64
}

const (
	articlesDefaultCount = 10
	articlesMaxCount     = 50
)

type articlesMeta struct {
	Count int `json:"count"`
}
