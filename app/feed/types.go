package feed

import (
	"time"
)

// Feed processing types

type Metadata struct {
	Title    string
	Link     string
	Language string
}

type Item struct {
	GUID        string
	Title       string
	Link        string
	Description string
	Content     string
	PublishedAt time.Time
	Categories  []string
	ImageURL    string

	ExternalID   string
	IsFiltered   bool
	FilterReason string
}

// Body is the richest text the source carried for the item.
func (i Item) Body() string {
	if i.Content != "" {
		return i.Content
	}
	return i.Description
}

// Configuration types

type Config struct {
	Name        string         // Derived from filename (without .yml extension)
	URL         string         `yaml:"url"`
	Region      string         `yaml:"region"`
	Topics      []string       `yaml:"topics"`
	Language    string         `yaml:"language"`
	SummaryHint string         `yaml:"summary_hint"`
	Settings    ConfigSettings `yaml:"settings"`
	Filters     []ConfigFilter `yaml:"filters"`
}

type ConfigSettings struct {
	Enabled         bool `yaml:"enabled"`
	RefreshInterval int  `yaml:"refresh_interval"` // seconds
	MaxItems        int  `yaml:"max_items"`
	Timeout         int  `yaml:"timeout"`         // seconds
	ExtractContent  bool `yaml:"extract_content"` // enable content extraction
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

func (c *Config) GetRefreshInterval() time.Duration {
	return time.Duration(c.Settings.RefreshInterval) * time.Second
}

func (c *Config) GetTimeout() time.Duration {
	return time.Duration(c.Settings.Timeout) * time.Second
}
