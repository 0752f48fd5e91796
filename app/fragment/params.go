package fragment

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/lysyi3m/news-hub/app/news"
)

const (
	DefaultRegion = "canada"
	DefaultLayout = "grid"
	DefaultCount  = 6
)

// Params is the display configuration of one news-grid fragment.
type Params struct {
	Region string
	Layout string
	Count  int
}

// ParseParams reads display parameters from a query string.
func ParseParams(values url.Values) Params {
	count, err := strconv.Atoi(strings.TrimSpace(values.Get("count")))
	if err != nil {
		count = 0
	}

	return Params{
		Region: values.Get("region"),
		Layout: values.Get("layout"),
		Count:  count,
	}.Normalize()
}

// Normalize sanitizes and lower-cases region and layout, applies defaults
// and turns count into a positive number.
func (p Params) Normalize() Params {
	region := news.SanitizeKey(p.Region)
	if region == "" {
		region = DefaultRegion
	}

	layout := news.SanitizeKey(p.Layout)
	if layout == "" {
		layout = DefaultLayout
	}

	count := p.Count
	if count < 0 {
		count = -count
	}
	if count == 0 {
		count = DefaultCount
	}

	return Params{Region: region, Layout: layout, Count: count}
}

// Key derives the cache slot of a parameter tuple. Region and layout are
// query-escaped so the separator cannot appear inside a component.
func Key(p Params) string {
	p = p.Normalize()
	return fmt.Sprintf("fragment:news-grid:%s:%s:%d", url.QueryEscape(p.Region), url.QueryEscape(p.Layout), p.Count)
}
