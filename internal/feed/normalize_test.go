package feed

import (
	"testing"
	"time"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<![CDATA[Strike reported <b>near</b> Kharkiv]]>", "Strike reported near Kharkiv"},
		{"<p>Missile   launch\n\nobserved</p>", "Missile launch observed"},
		{"plain text", "plain text"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanText(tt.in); got != tt.want {
			t.Fatalf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRewriteHost(t *testing.T) {
	in := "http://localhost:8080/GeoConfirmed/status/1"
	want := "http://x.com/GeoConfirmed/status/1"
	if got := RewriteHost(in); got != want {
		t.Fatalf("RewriteHost = %q, want %q", got, want)
	}
}

func TestNormalizeRejectsMissingID(t *testing.T) {
	_, err := Normalize(RawItem{Title: "something", Published: "Mon, 02 Jan 2006 15:04:05 -0700"}, "@src")
	if err != ErrMissingID {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
}

func TestNormalizeRejectsBadDate(t *testing.T) {
	_, err := Normalize(RawItem{GUID: "g1", Title: "x", Published: "not a date"}, "@src")
	if err != ErrBadTimestamp {
		t.Fatalf("expected ErrBadTimestamp, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	published := time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC)
	cand, err := Normalize(RawItem{
		GUID:        "http://x.com/sentdefender/status/99",
		Title:       "<p>Airstrike reported  near border town X</p>",
		Link:        "http://localhost:8080/sentdefender/status/99",
		PublishedAt: &published,
		Creator:     "@sentdefender",
	}, "@sentdefender")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cand.TweetID != "http://x.com/sentdefender/status/99" {
		t.Fatalf("unexpected id %q", cand.TweetID)
	}
	if cand.Body != "Airstrike reported near border town X" {
		t.Fatalf("unexpected body %q", cand.Body)
	}
	if cand.URL != "http://x.com/sentdefender/status/99" {
		t.Fatalf("link not rewritten: %q", cand.URL)
	}
	if !cand.PublishedAt.Equal(published) {
		t.Fatalf("unexpected published %v", cand.PublishedAt)
	}
	if cand.Author != "@sentdefender" {
		t.Fatalf("unexpected author %q", cand.Author)
	}
}

func TestNormalizeParsesRFC1123ZDate(t *testing.T) {
	cand, err := Normalize(RawItem{
		GUID:      "g2",
		Title:     "body",
		Published: "Fri, 06 Feb 2026 14:23:45 +0000",
	}, "@src")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := time.Date(2026, 2, 6, 14, 23, 45, 0, time.UTC)
	if !cand.PublishedAt.Equal(want) {
		t.Fatalf("got %v, want %v", cand.PublishedAt, want)
	}
}

func TestShouldSkip(t *testing.T) {
	tests := []struct {
		name   string
		item   RawItem
		source string
		want   bool
	}{
		{"retweet", RawItem{Title: "RT @someone: news"}, "@src", true},
		{"bare link", RawItem{Title: "x.com/abc/status/1"}, "@src", true},
		{"update thread", RawItem{Title: "Update: still ongoing"}, "@src", true},
		{"normal", RawItem{Title: "Strike reported near Odesa"}, "@src", false},
		{
			"geoconfirmed unconfirmed",
			RawItem{Title: "Strike footage", Description: "Unverified claim of a strike"},
			"@GeoConfirmed",
			true,
		},
		{
			"geoconfirmed confirmed",
			RawItem{Title: "Strike footage", Description: "GeoConfirmed UA: strike at 48.5, 35.0"},
			"@GeoConfirmed",
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldSkip(tt.item, tt.source); got != tt.want {
				t.Fatalf("ShouldSkip = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestImageURLs(t *testing.T) {
	desc := `<p>text</p><img src="http://localhost:8080/pic/1.jpg" /><img src="http://localhost:8080/pic/2.jpg" />`
	urls := imageURLs(desc)
	if len(urls) != 2 {
		t.Fatalf("expected 2 urls, got %d", len(urls))
	}
	if urls[0] != "http://x.com/pic/1.jpg" {
		t.Fatalf("unexpected url %q", urls[0])
	}
}
