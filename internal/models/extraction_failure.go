package models

import "time"

// ExtractionFailure counts consecutive failed extraction runs for a tweet that
// is not yet stored. A failed tweet stays retryable on future poll cycles
// until the configured cap is reached; the row is what makes the counter
// visible to operators.
type ExtractionFailure struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	TweetID   string    `gorm:"column:tweet_id;type:text;uniqueIndex;not null"`
	Attempts  int       `gorm:"not null;default:0"`
	LastError string    `gorm:"type:text"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (ExtractionFailure) TableName() string {
	return "extraction_failures"
}
