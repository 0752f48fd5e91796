package tasks

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lysyi3m/news-hub/app/database"
	"github.com/lysyi3m/news-hub/app/feed"
)

type IngestFeedTask struct {
	Task
	FeedConfig  *feed.Config
	httpClient  *http.Client
	parser      *feed.Parser
	filterer    *feed.Filterer
	summarizer  *feed.Summarizer
	scorer      *feed.Scorer
	feedRepo    database.FeedRepository
	articleRepo database.ArticleRepository
	userAgent   string
	minScore    float64
}

func NewIngestFeedTask(feedName string, feedConfig *feed.Config, deps Dependencies) *IngestFeedTask {
	return &IngestFeedTask{
		Task:        NewTask(TaskTypeIngestFeed, feedName),
		FeedConfig:  feedConfig,
		httpClient:  deps.HTTPClient,
		parser:      deps.Parser,
		filterer:    deps.Filterer,
		summarizer:  deps.Summarizer,
		scorer:      deps.Scorer,
		feedRepo:    deps.FeedRepo,
		articleRepo: deps.ArticleRepo,
		userAgent:   deps.UserAgent,
		minScore:    deps.MinScore,
	}
}

func (t *IngestFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.FeedConfig.Settings.Enabled {
		slog.Debug("Feed disabled, skipping", "feed", t.FeedName)
		return nil
	}

	data, err := fetchDocument(ctx, t.httpClient, t.FeedConfig.URL, t.userAgent, t.FeedConfig.GetTimeout(), false)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	metadata, items, err := t.parser.Run(data)
	if err != nil {
		return fmt.Errorf("failed to parse feed: %w", err)
	}

	if err := t.storeFeedMetadata(ctx, metadata); err != nil {
		return fmt.Errorf("failed to store feed metadata: %w", err)
	}

	if maxItems := t.FeedConfig.Settings.MaxItems; maxItems > 0 && len(items) > maxItems {
		items = items[:maxItems]
	}

	duplicateCount := 0
	filteredCount := 0
	lowScoreCount := 0
	newCount := 0

	seen := make(map[string]bool, len(items))
	var candidates []feed.Item
	for _, item := range items {
		if seen[item.ExternalID] {
			duplicateCount++
			continue
		}
		seen[item.ExternalID] = true

		isDuplicate, err := t.articleRepo.CheckDuplicate(ctx, item.ExternalID)
		if err != nil {
			return fmt.Errorf("failed to check for duplicates: %w", err)
		}

		if isDuplicate {
			duplicateCount++
			continue
		}
		candidates = append(candidates, item)
	}

	source := cmp.Or(metadata.Title, t.FeedName)

	for _, item := range t.filterer.Run(candidates, t.FeedConfig) {
		if item.IsFiltered {
			slog.Debug("Item filtered", "feed", t.FeedName, "title", item.Title, "reason", item.FilterReason)
			filteredCount++
			continue
		}

		article := t.buildArticle(item, source)

		if article.Score < t.minScore {
			slog.Debug("Item below relevance threshold", "feed", t.FeedName, "title", item.Title, "score", article.Score)
			lowScoreCount++
			continue
		}

		inserted, err := t.articleRepo.InsertArticle(ctx, article)
		if err != nil {
			return fmt.Errorf("failed to store article: %w", err)
		}

		if inserted {
			newCount++
		} else {
			duplicateCount++
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"feed", t.FeedName,
		"duration", t.GetDuration(),
		"total", len(items),
		"duplicates", duplicateCount,
		"filtered", filteredCount,
		"low_score", lowScoreCount,
		"new", newCount)

	return nil
}

func (t *IngestFeedTask) buildArticle(item feed.Item, source string) database.Article {
	var hints []string
	if t.FeedConfig.SummaryHint != "" {
		hints = []string{t.FeedConfig.SummaryHint}
	}

	summary := t.summarizer.Run(cmp.Or(item.Description, item.Content), hints, t.FeedConfig.Language)

	publishedAt := item.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now().UTC()
	}

	status := database.ExtractionSkipped
	if t.FeedConfig.Settings.ExtractContent && item.Link != "" {
		status = database.ExtractionPending
	}

	return database.Article{
		ExternalID:              item.ExternalID,
		FeedName:                t.FeedName,
		Title:                   item.Title,
		Body:                    item.Body(),
		Summary:                 summary,
		Source:                  source,
		PublishedAt:             publishedAt,
		Region:                  t.FeedConfig.Region,
		Topics:                  t.FeedConfig.Topics,
		ImageURL:                item.ImageURL,
		Score:                   t.scorer.Run(item.Title, summary, t.FeedConfig.Topics),
		Language:                t.FeedConfig.Language,
		CanonicalURL:            item.Link,
		ContentExtractionStatus: status,
	}
}

func (t *IngestFeedTask) storeFeedMetadata(ctx context.Context, metadata *feed.Metadata) error {
	nextFetch := time.Now().UTC().Add(t.FeedConfig.GetRefreshInterval())

	language, err := feed.NormalizeLanguage(metadata.Language)
	if err != nil {
		language = t.FeedConfig.Language
	}

	err = t.feedRepo.UpdateFeedMetadata(ctx, t.FeedName, metadata.Title, metadata.Link, language, nextFetch)
	if err != nil {
		return fmt.Errorf("failed to update feed metadata and next fetch time: %w", err)
	}

	return nil
}
