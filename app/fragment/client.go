package fragment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lysyi3m/news-hub/app/news"
)

const maxResponseSize = 4 << 20

// Fetcher loads the items of a fragment from the ingestion feed.
type Fetcher interface {
	Fetch(ctx context.Context, baseURL string, params Params) []news.Item
}

// FeedClient calls GET <baseURL>/articles. Every failure yields an empty list.
type FeedClient struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
}

func NewFeedClient(httpClient *http.Client, userAgent string, timeout time.Duration) *FeedClient {
	return &FeedClient{
		httpClient: httpClient,
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

func (c *FeedClient) Fetch(ctx context.Context, baseURL string, params Params) []news.Item {
	if strings.TrimSpace(baseURL) == "" {
		slog.Debug("Ingestion URL not configured, rendering empty fragment")
		return []news.Item{}
	}

	items, err := c.fetch(ctx, baseURL, params)
	if err != nil {
		slog.Warn("Ingestion feed request failed", "url", baseURL, "region", params.Region, "error", err)
		return []news.Item{}
	}

	return items
}

func (c *FeedClient) fetch(ctx context.Context, baseURL string, params Params) ([]news.Item, error) {
	endpoint, err := articlesURL(baseURL, params)
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch articles: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var payload struct {
		Items []news.Item `json:"items"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	if payload.Items == nil {
		return []news.Item{}, nil
	}

	return payload.Items, nil
}

func articlesURL(baseURL string, params Params) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", fmt.Errorf("invalid ingestion URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid ingestion URL scheme '%s'", u.Scheme)
	}

	u.Path = strings.TrimRight(u.Path, "/") + "/articles"

	query := u.Query()
	query.Set("region", params.Region)
	query.Set("count", strconv.Itoa(params.Count))
	query.Set("layout", params.Layout)
	u.RawQuery = query.Encode()

	return u.String(), nil
}
