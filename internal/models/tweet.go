package models

import (
	"time"

	"gorm.io/datatypes"
)

// Typology is the closed event classification produced by extraction.
const (
	TypologyMil   = "MIL"
	TypologyOther = "OTHER"
)

// Accuracy is the geolocation confidence tier. It describes trust in the
// derived point, not in the classification.
const (
	AccuracyHigh   = "High"
	AccuracyMedium = "Medium"
	AccuracyLow    = "Low"
)

// Geolocation method. Accuracy is derived from the method: explicit yields
// High, inferred yields Medium, unknown yields no geometry and no accuracy.
const (
	MethodExplicit = "explicit"
	MethodInferred = "inferred"
	MethodUnknown  = "unknown"
)

// Tweet is one ingested OSINT post. Rows are append-only: the tweet_id unique
// index makes re-ingestion a no-op, and the pipeline never updates a row after
// insert. Geom is a PostGIS point written via ST_GeomFromText and read back
// through ST_X/ST_Y scans; it is nil exactly when the tweet could not be
// geolocated.
type Tweet struct {
	ID            uint64         `gorm:"primaryKey;autoIncrement"`
	TweetID       string         `gorm:"column:tweet_id;type:text;uniqueIndex;not null"`
	DatePublished time.Time      `gorm:"type:timestamptz;not null;index"`
	URL           string         `gorm:"type:text;not null"`
	Author        string         `gorm:"type:text;not null;index"`
	Body          string         `gorm:"type:text;not null"`
	Typology      *string        `gorm:"type:varchar(10)"`
	Importance    *int           `gorm:"type:smallint"`
	Accuracy      *string        `gorm:"type:varchar(10)"`
	Method        *string        `gorm:"type:varchar(10)"`
	Geom          *string        `gorm:"type:geometry(Point,4326)"`
	Extraction    datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt     time.Time      `gorm:"type:timestamptz;autoCreateTime"`
}

func (Tweet) TableName() string {
	return "tweets"
}
