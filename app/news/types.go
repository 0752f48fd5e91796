package news

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Item is the read-only projection of a news article shared by the catalog
// endpoint, the ingestion feed and the fragment renderer.
type Item struct {
	ID               ItemID    `json:"id"`
	Title            string    `json:"title"`
	Summary          string    `json:"summary"`
	Source           string    `json:"source"`
	PublishedAt      Timestamp `json:"published_at,omitzero"`
	ImageURL         string    `json:"image_url,omitempty"`
	Region           string    `json:"region"`
	Topics           []string  `json:"topics"`
	Score            float64   `json:"score"`
	Language         string    `json:"language"`
	CanonicalURL     string    `json:"canonical_url,omitempty"`
	AIGeneratedImage bool      `json:"ai_generated_image"`
}

// Filter selects items from the content store.
// Zero values mean "no constraint", except Limit where zero means no limit.
type Filter struct {
	Region   string
	Language string
	Topics   []string
	MinScore *float64
	Limit    int
}

// ItemID is an opaque identifier. It decodes from JSON strings and numbers
// and always encodes as a string.
type ItemID string

func (id *ItemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ItemID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ItemID(n.String())
	return nil
}

// Timestamp wraps time.Time with lenient decoding: RFC3339, naive ISO-8601
// and date-only values are accepted, anything unparseable becomes the zero time.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		ts.Time = time.Time{}
		return nil
	}

	s = strings.TrimSpace(s)
	if s == "" {
		ts.Time = time.Time{}
		return nil
	}

	parsed, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		ts.Time = time.Time{}
		return nil
	}
	ts.Time = parsed.UTC()
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.UTC().Format(time.RFC3339))
}

// DisplayDate formats the timestamp as YYYY-MM-DD in UTC, or "" when unset.
func (ts Timestamp) DisplayDate() string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format("2006-01-02")
}
