package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lysyi3m/news-hub/app/news"
)

type SQLArticleRepository struct {
	db *DB
}

func NewArticleRepository(db *DB) *SQLArticleRepository {
	return &SQLArticleRepository{db: db}
}

// FindItems returns articles matching the filter, newest first.
func (r *SQLArticleRepository) FindItems(ctx context.Context, filter news.Filter) ([]news.Item, error) {
	var (
		conditions []string
		args       []any
	)

	if filter.Region != "" {
		conditions = append(conditions, "region = ?")
		args = append(args, filter.Region)
	}
	if filter.Language != "" {
		conditions = append(conditions, "language = ?")
		args = append(args, filter.Language)
	}
	if filter.MinScore != nil {
		conditions = append(conditions, "score >= ?")
		args = append(args, *filter.MinScore)
	}

	query := `
		SELECT id, title, summary, source, published_at, image_url, region,
		       topics, score, language, canonical_url, ai_generated_image
		FROM articles`
	if len(conditions) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conditions, " AND ")
	}
	query += "\n\t\tORDER BY published_at DESC, id DESC"

	// Topics live in a JSON column and are matched after the scan, so the
	// limit can only be pushed down when no topic filter is present.
	if filter.Limit > 0 && len(filter.Topics) == 0 {
		query += "\n\t\tLIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find articles: %w", err)
	}
	defer rows.Close()

	items := make([]news.Item, 0)
	for rows.Next() {
		var (
			id               int64
			item             news.Item
			publishedAt      int64
			topicsJSON       string
			aiGeneratedImage int
		)

		err := rows.Scan(
			&id, &item.Title, &item.Summary, &item.Source, &publishedAt, &item.ImageURL, &item.Region,
			&topicsJSON, &item.Score, &item.Language, &item.CanonicalURL, &aiGeneratedImage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}

		item.ID = news.ItemID(fmt.Sprintf("%d", id))
		item.PublishedAt = news.NewTimestamp(time.Unix(publishedAt, 0))
		item.Topics = decodeTopics(id, topicsJSON)
		item.AIGeneratedImage = aiGeneratedImage != 0

		if len(filter.Topics) > 0 && !matchesTopics(item.Topics, filter.Topics) {
			continue
		}

		items = append(items, item)
		if filter.Limit > 0 && len(items) >= filter.Limit {
			break
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return items, nil
}

func (r *SQLArticleRepository) GetArticleCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return count, nil
}

func (r *SQLArticleRepository) CheckDuplicate(ctx context.Context, externalID string) (bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM articles WHERE external_id = ? LIMIT 1`, externalID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate: %w", err)
	}
	return true, nil
}

// InsertArticle stores a new article. Articles whose external ID is already
// known are left untouched and reported as not inserted.
func (r *SQLArticleRepository) InsertArticle(ctx context.Context, article Article) (bool, error) {
	topics := article.Topics
	if topics == nil {
		topics = []string{}
	}
	topicsJSON, err := json.Marshal(topics)
	if err != nil {
		return false, fmt.Errorf("failed to encode topics: %w", err)
	}

	status := article.ContentExtractionStatus
	if status == "" {
		status = ExtractionPending
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO articles (
			external_id, feed_name, title, body, summary, source, published_at,
			region, topics, image_url, score, language, canonical_url,
			ai_generated_image, content_extraction_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (external_id) DO NOTHING
	`, article.ExternalID, article.FeedName, article.Title, article.Body, article.Summary,
		article.Source, article.PublishedAt.UTC().Unix(), article.Region, string(topicsJSON),
		article.ImageURL, article.Score, article.Language, article.CanonicalURL,
		boolToInt(article.AIGeneratedImage), status)
	if err != nil {
		return false, fmt.Errorf("failed to insert article: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}

func (r *SQLArticleRepository) GetArticlesForExtraction(ctx context.Context, feedName string, limit int) ([]ArticleForExtraction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, canonical_url, language
		FROM articles
		WHERE feed_name = ?
		  AND content_extraction_status = ?
		  AND canonical_url != ''
		ORDER BY published_at DESC, id DESC
		LIMIT ?
	`, feedName, ExtractionPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get articles for extraction: %w", err)
	}
	defer rows.Close()

	var articles []ArticleForExtraction
	for rows.Next() {
		var article ArticleForExtraction
		if err := rows.Scan(&article.ID, &article.CanonicalURL, &article.Language); err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

func (r *SQLArticleRepository) UpdateExtractionStatus(ctx context.Context, articleID int64, status string, errorMsg string) error {
	now := time.Now().UTC().Unix()

	_, err := r.db.ExecContext(ctx, `
		UPDATE articles
		SET content_extraction_status = ?, content_extraction_error = ?, content_extracted_at = ?, updated_at = ?
		WHERE id = ?
	`, status, errorMsg, now, now, articleID)
	if err != nil {
		return fmt.Errorf("failed to update extraction status: %w", err)
	}

	return nil
}

func (r *SQLArticleRepository) UpdateExtractedContent(ctx context.Context, articleID int64, body, summary string) error {
	now := time.Now().UTC().Unix()

	_, err := r.db.ExecContext(ctx, `
		UPDATE articles
		SET body = ?, summary = ?, content_extraction_status = ?, content_extraction_error = '',
		    content_extracted_at = ?, updated_at = ?
		WHERE id = ?
	`, body, summary, ExtractionSuccess, now, now, articleID)
	if err != nil {
		return fmt.Errorf("failed to update extracted content: %w", err)
	}

	return nil
}

func decodeTopics(articleID int64, raw string) []string {
	topics := []string{}
	if raw == "" {
		return topics
	}
	if err := json.Unmarshal([]byte(raw), &topics); err != nil {
		slog.Warn("Invalid topics column", "article_id", articleID, "error", err)
		return []string{}
	}
	if topics == nil {
		return []string{}
	}
	return topics
}

func matchesTopics(itemTopics, wanted []string) bool {
	for _, topic := range itemTopics {
		for _, w := range wanted {
			if strings.EqualFold(topic, w) {
				return true
			}
		}
	}
	return false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
