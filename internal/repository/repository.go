package repository

import (
	"context"
	"time"

	"conflictwatch/internal/models"
)

// InsertOutcome reports what an idempotent insert actually did. Concurrent
// attempts to insert the same tweet_id settle at the storage layer: exactly
// one caller observes Inserted, every other caller observes AlreadyExists.
type InsertOutcome int

const (
	Inserted InsertOutcome = iota
	AlreadyExists
)

// ListGeoTweetsParams filters the geolocated tweet listing. Since is the lower
// bound of the time window; Query is an optional case-insensitive substring
// match against body and author; Authors is an optional allow-list.
type ListGeoTweetsParams struct {
	Since   time.Time
	Query   string
	Authors []string
}

// GeoTweet is a geolocated tweet row with coordinates unpacked from the
// geometry column.
type GeoTweet struct {
	ID            uint64    `gorm:"column:id"`
	TweetID       string    `gorm:"column:tweet_id"`
	URL           string    `gorm:"column:url"`
	Author        string    `gorm:"column:author"`
	DatePublished time.Time `gorm:"column:date_published"`
	Body          string    `gorm:"column:body"`
	Accuracy      *string   `gorm:"column:accuracy"`
	Importance    *int      `gorm:"column:importance"`
	Typology      *string   `gorm:"column:typology"`
	Lon           float64   `gorm:"column:lon"`
	Lat           float64   `gorm:"column:lat"`
}

// ImportantTweet is a high-importance tweet; coordinates are nil when the
// tweet has no geometry.
type ImportantTweet struct {
	ID            uint64    `gorm:"column:id"`
	TweetID       string    `gorm:"column:tweet_id"`
	Body          string    `gorm:"column:body"`
	Author        string    `gorm:"column:author"`
	DatePublished time.Time `gorm:"column:date_published"`
	URL           string    `gorm:"column:url"`
	Lon           *float64  `gorm:"column:lon"`
	Lat           *float64  `gorm:"column:lat"`
}

// TweetSample is a non-geolocated tweet picked for manual review.
type TweetSample struct {
	ID            uint64    `gorm:"column:id"`
	TweetID       string    `gorm:"column:tweet_id"`
	Body          string    `gorm:"column:body"`
	Author        string    `gorm:"column:author"`
	DatePublished time.Time `gorm:"column:date_published"`
	URL           string    `gorm:"column:url"`
}

// DisputedAreaRow carries a reference polygon with its geometry already
// rendered to GeoJSON by the database.
type DisputedAreaRow struct {
	ID       uint64 `gorm:"column:id"`
	Name     string `gorm:"column:name"`
	Geometry string `gorm:"column:geometry"`
}

type TweetRepository interface {
	// Ingestion side.
	InsertTweet(ctx context.Context, item *models.Tweet) (InsertOutcome, error)
	InsertTweetImages(ctx context.Context, items []models.TweetImage) error
	TweetExists(ctx context.Context, tweetID string) (bool, error)
	BumpExtractionFailure(ctx context.Context, tweetID, lastError string) (int, error)
	GetExtractionFailureAttempts(ctx context.Context, tweetID string) (int, error)
	ClearExtractionFailure(ctx context.Context, tweetID string) error

	// Query side.
	ListGeolocatedTweets(ctx context.Context, params ListGeoTweetsParams) ([]GeoTweet, error)
	ListAuthors(ctx context.Context, since time.Time) ([]string, error)
	ListImportantTweets(ctx context.Context, since time.Time, minImportance int) ([]ImportantTweet, error)
	ListRandomUnlocatedTweets(ctx context.Context, since time.Time, limit int) ([]TweetSample, error)
	LastTweetDate(ctx context.Context) (*time.Time, error)
	ListDisputedAreas(ctx context.Context) ([]DisputedAreaRow, error)
}
