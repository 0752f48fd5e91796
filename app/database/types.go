package database

import (
	"time"
)

type Feed struct {
	Name          string // Feed source identifier derived from filename
	FeedURL       string // RSS/Atom feed URL from the source file
	Title         string
	Link          string
	Language      string
	LastFetchedAt *time.Time
	NextFetchAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Article struct {
	ID                      int64
	ExternalID              string // sha256 of guid, link or title
	FeedName                string
	Title                   string
	Body                    string
	Summary                 string
	Source                  string
	PublishedAt             time.Time
	Region                  string
	Topics                  []string
	ImageURL                string
	Score                   float64
	Language                string
	CanonicalURL            string
	AIGeneratedImage        bool
	ContentExtractionStatus string // pending, success, failed, skipped
	ContentExtractedAt      *time.Time
	ContentExtractionError  string
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

type ArticleForExtraction struct {
	ID           int64
	CanonicalURL string
	Language     string
}

const (
	ExtractionPending = "pending"
	ExtractionSuccess = "success"
	ExtractionFailed  = "failed"
	ExtractionSkipped = "skipped"
)
