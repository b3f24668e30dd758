package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// RawItem is one feed entry as delivered by the RSS mirror, before any
// normalization.
type RawItem struct {
	GUID        string
	Title       string
	Description string
	Link        string
	Published   string
	PublishedAt *time.Time
	Creator     string
	Images      []string
}

// Client fetches per-author RSS feeds from a Nitter-style mirror. One feed
// per source handle, at <base_url>/<handle-without-@>/rss.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	parser *gofeed.Parser
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		parser:  gofeed.NewParser(),
	}
}

// Fetch pulls the feed for one source handle and keeps only the items
// authored by that handle (the mirror includes retweeted creators too).
func (c *Client) Fetch(ctx context.Context, handle string) ([]RawItem, error) {
	name := strings.TrimPrefix(handle, "@")
	if name == "" {
		return nil, fmt.Errorf("feed: empty source handle")
	}
	url := c.BaseURL + "/" + name + "/rss"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed: fetch %s: %w", handle, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed: fetch %s: unexpected status %d", handle, resp.StatusCode)
	}

	parsed, err := c.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("feed: parse %s: %w", handle, err)
	}

	items := make([]RawItem, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		creator := itemCreator(it)
		if creator != "" && creator != handle {
			continue
		}
		items = append(items, RawItem{
			GUID:        it.GUID,
			Title:       it.Title,
			Description: it.Description,
			Link:        it.Link,
			Published:   it.Published,
			PublishedAt: it.PublishedParsed,
			Creator:     creator,
			Images:      imageURLs(it.Description),
		})
	}
	return items, nil
}

func itemCreator(it *gofeed.Item) string {
	if it == nil {
		return ""
	}
	if it.DublinCoreExt != nil && len(it.DublinCoreExt.Creator) > 0 {
		return it.DublinCoreExt.Creator[0]
	}
	if len(it.Authors) > 0 && it.Authors[0] != nil {
		return it.Authors[0].Name
	}
	return ""
}
