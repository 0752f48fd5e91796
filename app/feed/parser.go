package feed

import (
	"bytes"
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const defaultTitle = "Untitled"

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *Parser) Run(data []byte) (*Metadata, []Item, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Title:    feed.Title,
		Link:     feed.Link,
		Language: feed.Language,
	}

	items := make([]Item, 0, len(feed.Items))
	for _, item := range feed.Items {
		items = append(items, p.normalizeItem(item))
	}

	return metadata, items, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Item {
	normalized := Item{
		GUID:        strings.TrimSpace(item.GUID),
		Title:       strings.TrimSpace(item.Title),
		Link:        strings.TrimSpace(item.Link),
		Description: item.Description,
		Content:     item.Content,
		Categories:  item.Categories,
	}

	normalized.ExternalID = ExternalID(normalized.GUID, normalized.Link, normalized.Title)

	if normalized.Title == "" {
		normalized.Title = defaultTitle
	}

	if item.PublishedParsed != nil {
		normalized.PublishedAt = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		normalized.PublishedAt = item.UpdatedParsed.UTC()
	}

	normalized.ImageURL = p.extractImage(item)

	return normalized
}

// ExternalID is the stable identity of a source entry: the sha256 of the
// first non-empty of guid, link and title.
func ExternalID(guid, link, title string) string {
	base := cmp.Or(guid, link, title)
	hash := sha256.Sum256([]byte(base))
	return hex.EncodeToString(hash[:])
}

func (p *Parser) extractImage(item *gofeed.Item) string {
	for _, enclosure := range item.Enclosures {
		if enclosure != nil && isImageURL(enclosure.URL) {
			return enclosure.URL
		}
	}

	if item.Image != nil && isImageURL(item.Image.URL) {
		return item.Image.URL
	}

	for _, link := range item.Links {
		if isImageURL(link) {
			return link
		}
	}

	return firstImageInHTML(cmp.Or(item.Content, item.Description))
}

func firstImageInHTML(content string) string {
	if !strings.Contains(content, "<img") {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return ""
	}

	var src string
	doc.Find("img[src]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		candidate, _ := s.Attr("src")
		if isImageURL(candidate) {
			src = candidate
			return false
		}
		return true
	})

	return src
}

func isImageURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	return imageExtensions[strings.ToLower(path.Ext(u.Path))]
}
