package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
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

func NewHandler(configCache *feed.ConfigCache, feedRepo database.FeedRepository,
	articleRepo database.ArticleRepository, catalogService *catalog.Service,
	fragments FragmentRenderer, settingsService *settings.Service,
	scheduler tasks.TaskSchedulerInterface, cacheHealth HealthReporter, minScore float64) *Handler {
	return &Handler{
		configCache: configCache,
		feedRepo:    feedRepo,
		articleRepo: articleRepo,
		catalog:     catalogService,
		fragments:   fragments,
		settings:    settingsService,
		scheduler:   scheduler,
		cacheHealth: cacheHealth,
		minScore:    minScore,
	}
}

// GetNews always answers 200; store failures surface as an empty list.
func (h *Handler) GetNews(c *gin.Context) {
	params := catalog.ParseParams(c.Request.URL.Query())
	c.JSON(http.StatusOK, h.catalog.Query(c.Request.Context(), params))
}

func (h *Handler) GetNewsGrid(c *gin.Context) {
	params := fragment.ParseParams(c.Request.URL.Query())
	html := h.fragments.Render(c.Request.Context(), params)

	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (h *Handler) GetArticles(c *gin.Context) {
	query := c.Request.URL.Query()

	count := articlesDefaultCount
	if raw := strings.TrimSpace(query.Get("count")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > articlesMaxCount {
			c.JSON(http.StatusBadRequest, gin.H{"error": "count must be an integer between 1 and 50"})
			return
		}
		count = n
	}

	minScore := h.minScore
	if raw := strings.TrimSpace(query.Get("min_score")); raw != "" {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil || score < 0 || score > 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_score must be a number between 0 and 1"})
			return
		}
		minScore = score
	}

	var topics []string
	for _, key := range []string{"topics", "topics[]"} {
		for _, topic := range query[key] {
			if topic = news.SanitizeText(topic); topic != "" {
				topics = append(topics, topic)
			}
		}
	}

	filter := news.Filter{
		Region:   news.SanitizeText(query.Get("region")),
		Language: news.SanitizeText(query.Get("language")),
		Topics:   topics,
		MinScore: &minScore,
		Limit:    count,
	}

	items, err := h.articleRepo.FindItems(c.Request.Context(), filter)
	if err != nil {
		slog.Error("Database error", "operation", "find_articles", "region", filter.Region, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"meta":  articlesMeta{Count: len(items)},
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	ctx := c.Request.Context()

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if feedCount, err := h.feedRepo.GetFeedCount(ctx); err == nil {
		health["feeds"] = feedCount
	}

	if articleCount, err := h.articleRepo.GetArticleCount(ctx); err == nil {
		health["articles"] = articleCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	if h.cacheHealth != nil {
		health["cache"] = h.cacheHealth.Health(ctx)
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIIngest(c *gin.Context) {
	enqueued, err := h.scheduler.EnqueueIngestAll()
	if err != nil {
		slog.Error("Error enqueueing ingestion tasks", "enqueued", enqueued, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":    "Failed to enqueue ingestion tasks",
			"details":  err.Error(),
			"enqueued": enqueued,
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success":  true,
		"message":  "Ingestion tasks enqueued",
		"enqueued": enqueued,
	})
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	ctx := c.Request.Context()
	configs := h.configCache.GetEnabledConfigs()

	feeds := make([]map[string]interface{}, 0, len(configs))

	for _, feedConfig := range configs {
		feedInfo := map[string]interface{}{
			"name":             feedConfig.Name,
			"url":              feedConfig.URL,
			"region":           feedConfig.Region,
			"language":         feedConfig.Language,
			"topics":           feedConfig.Topics,
			"max_items":        feedConfig.Settings.MaxItems,
			"refresh_interval": feedConfig.GetRefreshInterval().String(),
			"extract_content":  feedConfig.Settings.ExtractContent,
			"filters":          len(feedConfig.Filters),
		}

		if feedRow, err := h.feedRepo.GetFeed(ctx, feedConfig.Name); err == nil && feedRow != nil {
			feedInfo["title"] = feedRow.Title
			feedInfo["last_fetched_at"] = feedRow.LastFetchedAt
			feedInfo["next_fetch_at"] = feedRow.NextFetchAt
		}

		feeds = append(feeds, feedInfo)
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds": feeds,
		"total": len(feeds),
	})
}

func (h *Handler) APIGetSettings(c *gin.Context) {
	current, err := h.settings.Get(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "get_settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, current)
}

func (h *Handler) APIUpdateSettings(c *gin.Context) {
	var input settings.Settings
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	saved, err := h.settings.Save(c.Request.Context(), input)
	if errors.Is(err, settings.ErrInvalidURL) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid ingestion URL",
			"details": err.Error(),
		})
		return
	}
	if err != nil {
		slog.Error("Database error", "operation", "save_settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, saved)
}
