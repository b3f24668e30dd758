package feed

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Candidate is a normalized feed item ready for the idempotency gate. It is
// transient: once admitted or skipped it is discarded.
type Candidate struct {
	TweetID     string
	PublishedAt time.Time
	Author      string
	URL         string
	Body        string
	Images      []string
}

var (
	ErrMissingID    = errors.New("feed: item has no stable identifier")
	ErrBadTimestamp = errors.New("feed: unparseable publication date")
)

var (
	cdataRe = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`)
	tagRe   = regexp.MustCompile(`<[^>]+>`)
	spaceRe = regexp.MustCompile(`\s+`)
	imgRe   = regexp.MustCompile(`<img[^>]+src="([^"]+)"`)
)

// CleanText strips CDATA wrappers, markup and control characters and
// collapses runs of whitespace.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = cdataRe.ReplaceAllString(s, "$1")
	s = tagRe.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, s)
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// RewriteHost replaces mirror-local hostnames with the public one so stored
// links work outside the scraping host.
func RewriteHost(s string) string {
	s = strings.ReplaceAll(s, "localhost:8080", "x.com")
	return strings.ReplaceAll(s, "localhost", "x.com")
}

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrBadTimestamp
}

// Normalize turns a raw feed item into an ingestion candidate, or rejects it.
// Rejections are per-record: the caller logs and moves on.
func Normalize(item RawItem, source string) (Candidate, error) {
	id := strings.TrimSpace(item.GUID)
	if id == "" {
		return Candidate{}, ErrMissingID
	}

	var published time.Time
	if item.PublishedAt != nil {
		published = item.PublishedAt.UTC()
	} else {
		var err error
		published, err = parseDate(item.Published)
		if err != nil {
			return Candidate{}, err
		}
	}

	author := item.Creator
	if author == "" {
		author = source
	}

	return Candidate{
		TweetID:     id,
		PublishedAt: published,
		Author:      author,
		URL:         RewriteHost(item.Link),
		Body:        RewriteHost(CleanText(item.Title)),
		Images:      item.Images,
	}, nil
}

// ShouldSkip applies the per-source editorial filters: retweets, bare links
// and update threads carry no new event, and GeoConfirmed items are only
// trusted once the team has confirmed them.
func ShouldSkip(item RawItem, source string) bool {
	body := CleanText(item.Title)
	if strings.HasPrefix(body, "RT") ||
		strings.HasPrefix(body, "x.com") ||
		strings.HasPrefix(body, "Update") {
		return true
	}
	if source == "@GeoConfirmed" {
		desc := CleanText(item.Description)
		if !strings.HasPrefix(desc, "GeoConfirmed ") {
			return true
		}
	}
	return false
}

func imageURLs(description string) []string {
	matches := imgRe.FindAllStringSubmatch(description, -1)
	if len(matches) == 0 {
		return nil
	}
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		urls = append(urls, RewriteHost(m[1]))
	}
	return urls
}
