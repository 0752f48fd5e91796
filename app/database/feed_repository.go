package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type SQLFeedRepository struct {
	db *DB
}

func NewFeedRepository(db *DB) *SQLFeedRepository {
	return &SQLFeedRepository{db: db}
}

func (r *SQLFeedRepository) UpsertFeed(ctx context.Context, feedName, feedURL string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO feeds (name, feed_url)
		VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET
			feed_url = excluded.feed_url,
			updated_at = CAST(strftime('%s', 'now') AS INTEGER)
	`, feedName, feedURL)
	if err != nil {
		return fmt.Errorf("failed to upsert feed: %w", err)
	}

	return nil
}

func (r *SQLFeedRepository) UpdateFeedMetadata(ctx context.Context, feedName, title, link, language string, nextFetch time.Time) error {
	now := time.Now().UTC().Unix()

	result, err := r.db.ExecContext(ctx, `
		UPDATE feeds
		SET title = ?, link = ?, language = ?, last_fetched_at = ?, next_fetch_at = ?, updated_at = ?
		WHERE name = ?
	`, title, link, language, now, nextFetch.UTC().Unix(), now, feedName)
	if err != nil {
		return fmt.Errorf("failed to update feed metadata: %w", err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("feed '%s' not found", feedName)
	}

	return nil
}

func (r *SQLFeedRepository) GetFeed(ctx context.Context, feedName string) (*Feed, error) {
	var (
		feed          Feed
		lastFetchedAt sql.NullInt64
		nextFetchAt   sql.NullInt64
		createdAt     int64
		updatedAt     int64
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT name, feed_url, title, link, language, last_fetched_at, next_fetch_at, created_at, updated_at
		FROM feeds
		WHERE name = ?
	`, feedName).Scan(
		&feed.Name, &feed.FeedURL, &feed.Title, &feed.Link, &feed.Language,
		&lastFetchedAt, &nextFetchAt, &createdAt, &updatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}

	feed.LastFetchedAt = fromNullUnix(lastFetchedAt)
	feed.NextFetchAt = fromNullUnix(nextFetchAt)
	feed.CreatedAt = time.Unix(createdAt, 0).UTC()
	feed.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return &feed, nil
}

func (r *SQLFeedRepository) GetFeedCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM feeds").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

func fromNullUnix(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}
