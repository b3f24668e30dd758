package db

import (
	"conflictwatch/internal/models"
)

// AutoMigrate creates the schema. PostGIS must exist before gorm sees the
// geometry columns, and the GIST index is created by hand because gorm has no
// notion of spatial indexes.
func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	if err := db.Gorm.Exec("CREATE EXTENSION IF NOT EXISTS postgis").Error; err != nil {
		return err
	}

	if err := db.Gorm.AutoMigrate(
		&models.Tweet{},
		&models.TweetImage{},
		&models.DisputedArea{},
		&models.ExtractionFailure{},
	); err != nil {
		return err
	}

	return db.Gorm.Exec(
		"CREATE INDEX IF NOT EXISTS idx_tweets_geom ON tweets USING GIST (geom)",
	).Error
}
