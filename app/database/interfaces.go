package database

import (
	"context"
	"time"

	"github.com/lysyi3m/news-hub/app/news"
)

type FeedRepository interface {
	GetFeed(ctx context.Context, feedName string) (*Feed, error)
	GetFeedCount(ctx context.Context) (int, error)

	UpsertFeed(ctx context.Context, feedName, feedURL string) error
	UpdateFeedMetadata(ctx context.Context, feedName, title, link, language string, nextFetch time.Time) error
}

type ArticleRepository interface {
	FindItems(ctx context.Context, filter news.Filter) ([]news.Item, error)
	GetArticleCount(ctx context.Context) (int, error)

	CheckDuplicate(ctx context.Context, externalID string) (bool, error)
	InsertArticle(ctx context.Context, article Article) (bool, error)

	GetArticlesForExtraction(ctx context.Context, feedName string, limit int) ([]ArticleForExtraction, error)
	UpdateExtractionStatus(ctx context.Context, articleID int64, status string, errorMsg string) error
	UpdateExtractedContent(ctx context.Context, articleID int64, body, summary string) error
}

type SettingsRepository interface {
	GetSettings(ctx context.Context) (map[string]string, error)
	SaveSettings(ctx context.Context, values map[string]string) error
}

var (
	_ FeedRepository     = (*SQLFeedRepository)(nil)
	_ ArticleRepository  = (*SQLArticleRepository)(nil)
	_ SettingsRepository = (*SQLSettingsRepository)(nil)
)
