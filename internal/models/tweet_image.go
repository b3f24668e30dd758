package models

// TweetImage is a media URL attached to a tweet. One tweet may carry several.
type TweetImage struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	TweetID  string `gorm:"column:tweet_id;type:text;not null;index"`
	ImageURL string `gorm:"type:text;not null"`
}

func (TweetImage) TableName() string {
	return "tweet_images"
}
