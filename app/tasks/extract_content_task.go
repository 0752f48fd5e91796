package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lysyi3m/news-hub/app/database"
	"github.com/lysyi3m/news-hub/app/feed"
)

type ExtractContentTask struct {
	Task
	FeedConfig       *feed.Config
	httpClient       *http.Client
	contentExtractor *feed.ContentExtractor
	summarizer       *feed.Summarizer
	articleRepo      database.ArticleRepository
	userAgent        string
}

func NewExtractContentTask(feedName string, feedConfig *feed.Config, deps Dependencies) *ExtractContentTask {
	return &ExtractContentTask{
		Task:             NewTask(TaskTypeExtractContent, feedName),
		FeedConfig:       feedConfig,
		httpClient:       deps.HTTPClient,
		contentExtractor: deps.ContentExtractor,
		summarizer:       deps.Summarizer,
		articleRepo:      deps.ArticleRepo,
		userAgent:        deps.UserAgent,
	}
}

func (t *ExtractContentTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.FeedConfig.Settings.ExtractContent {
		slog.Debug("Content extraction disabled for feed", "feed", t.FeedName)
		return nil
	}

	articles, err := t.articleRepo.GetArticlesForExtraction(ctx, t.FeedName, t.FeedConfig.Settings.MaxItems)
	if err != nil {
		return fmt.Errorf("failed to get articles for content extraction: %w", err)
	}

	if len(articles) == 0 {
		slog.Debug("No articles need content extraction", "feed", t.FeedName)
		return nil
	}

	successCount := 0
	errorCount := 0

	for _, article := range articles {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := t.extractContentForArticle(ctx, article); err != nil {
			slog.Error("Failed to extract content for article", "article_id", article.ID, "url", article.CanonicalURL, "error", err)
			errorCount++

			if err := t.articleRepo.UpdateExtractionStatus(ctx, article.ID, database.ExtractionFailed, err.Error()); err != nil {
				slog.Error("Failed to update content extraction status", "article_id", article.ID, "error", err)
			}
			continue
		}

		successCount++
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"feed", t.FeedName,
		"duration", t.GetDuration(),
		"success", successCount,
		"errors", errorCount)

	return nil
}

func (t *ExtractContentTask) extractContentForArticle(ctx context.Context, article database.ArticleForExtraction) error {
	data, err := fetchDocument(ctx, t.httpClient, article.CanonicalURL, t.userAgent, t.FeedConfig.GetTimeout(), true)
	if err != nil {
		return fmt.Errorf("failed to fetch article content: %w", err)
	}

	text, err := t.contentExtractor.Run(data, article.CanonicalURL)
	if err != nil {
		return fmt.Errorf("failed to extract content: %w", err)
	}

	var hints []string
	if t.FeedConfig.SummaryHint != "" {
		hints = []string{t.FeedConfig.SummaryHint}
	}

	summary := t.summarizer.Run(text, hints, article.Language)

	if err := t.articleRepo.UpdateExtractedContent(ctx, article.ID, text, summary); err != nil {
		return fmt.Errorf("failed to update extracted content: %w", err)
	}

	slog.Debug("Content extracted successfully", "article_id", article.ID, "url", article.CanonicalURL, "content_length", len(text))
	return nil
}
