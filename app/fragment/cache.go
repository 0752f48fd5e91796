package fragment

import (
	"context"
	"log/slog"
	"time"
)

const DefaultTTL = time.Hour

// URLSource resolves the ingestion feed base URL. An empty result means
// no feed is configured.
type URLSource interface {
	IngestionURL(ctx context.Context) string
}

// Cache is a read-through cache of rendered news-grid fragments keyed by
// (region, layout, count).
type Cache struct {
	store    Store
	fetcher  Fetcher
	renderer *Renderer
	settings URLSource
	ttl      time.Duration
}

func NewCache(store Store, fetcher Fetcher, renderer *Renderer, settings URLSource) *Cache {
	return &Cache{
		store:    store,
		fetcher:  fetcher,
		renderer: renderer,
		settings: settings,
		ttl:      DefaultTTL,
	}
}

// Render returns the cached fragment for params, rendering and storing a
// fresh one on a miss. Failures degrade to an empty grid.
func (c *Cache) Render(ctx context.Context, params Params) string {
	params = params.Normalize()
	key := Key(params)

	fragment, found, err := c.store.Get(ctx, key)
	if err != nil {
		slog.Warn("Fragment cache read failed", "key", key, "error", err)
	} else if found {
		slog.Debug("Fragment cache hit", "key", key)
		return fragment
	}

	items := c.fetcher.Fetch(ctx, c.settings.IngestionURL(ctx), params)

	fragment, err = c.renderer.Run(params.Layout, items)
	if err != nil {
		slog.Error("Fragment rendering failed", "key", key, "error", err)
		return ""
	}

	if err := c.store.Set(ctx, key, fragment, c.ttl); err != nil {
		slog.Warn("Fragment cache write failed", "key", key, "error", err)
	}

	slog.Debug("Fragment rendered", "key", key, "items", len(items))

	return fragment
}
