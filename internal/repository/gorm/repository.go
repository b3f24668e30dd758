package gormrepository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"gorm.io/gorm"

	"conflictwatch/internal/models"
	"conflictwatch/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// InsertTweet writes one tweet. The tweet_id unique constraint plus
// ON CONFLICT DO NOTHING make this the sole dedup mechanism: a prior
// TweetExists check is only an optimization and may race, this insert may not.
// item.Geom, when set, holds WKT ("POINT (lon lat)") and is converted by
// PostGIS inside the statement.
func (s *Store) InsertTweet(ctx context.Context, item *models.Tweet) (repository.InsertOutcome, error) {
	if s == nil || s.db == nil || item == nil {
		return repository.AlreadyExists, nil
	}
	res := s.db.WithContext(ctx).Exec(`
		INSERT INTO tweets
			(tweet_id, date_published, url, author, body, typology, importance, accuracy, method, geom, extraction, created_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?,
			 CASE WHEN ?::text IS NOT NULL THEN ST_GeomFromText(?, 4326) ELSE NULL END,
			 ?, NOW())
		ON CONFLICT (tweet_id) DO NOTHING`,
		item.TweetID, item.DatePublished, item.URL, item.Author, item.Body,
		item.Typology, item.Importance, item.Accuracy, item.Method,
		item.Geom, item.Geom, item.Extraction,
	)
	if res.Error != nil {
		return repository.AlreadyExists, res.Error
	}
	if res.RowsAffected == 0 {
		return repository.AlreadyExists, nil
	}
	return repository.Inserted, nil
}

func (s *Store) InsertTweetImages(ctx context.Context, items []models.TweetImage) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&items).Error
}

func (s *Store) TweetExists(ctx context.Context, tweetID string) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Tweet{}).
		Where("tweet_id = ?", tweetID).
		Count(&count).Error
	return count > 0, err
}

// BumpExtractionFailure increments the per-tweet failure counter and returns
// the new count.
func (s *Store) BumpExtractionFailure(ctx context.Context, tweetID, lastError string) (int, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var attempts int
	err := s.db.WithContext(ctx).Raw(`
		INSERT INTO extraction_failures (tweet_id, attempts, last_error, updated_at)
		VALUES (?, 1, ?, NOW())
		ON CONFLICT (tweet_id) DO UPDATE
			SET attempts = extraction_failures.attempts + 1,
			    last_error = EXCLUDED.last_error,
			    updated_at = NOW()
		RETURNING attempts`,
		tweetID, lastError,
	).Scan(&attempts).Error
	return attempts, err
}

func (s *Store) GetExtractionFailureAttempts(ctx context.Context, tweetID string) (int, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var item models.ExtractionFailure
	err := s.db.WithContext(ctx).
		Where("tweet_id = ?", tweetID).
		Limit(1).
		Find(&item).Error
	if err != nil {
		return 0, err
	}
	return item.Attempts, nil
}

func (s *Store) ClearExtractionFailure(ctx context.Context, tweetID string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("tweet_id = ?", tweetID).
		Delete(&models.ExtractionFailure{}).Error
}

func (s *Store) ListGeolocatedTweets(ctx context.Context, params repository.ListGeoTweetsParams) ([]repository.GeoTweet, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Table("tweets").
		Select(`
			id, tweet_id, url, author, date_published, body,
			accuracy, importance, typology,
			ST_X(geom) AS lon, ST_Y(geom) AS lat
		`).
		Where("geom IS NOT NULL").
		Where("date_published >= ?", params.Since)
	if q := strings.TrimSpace(params.Query); q != "" {
		pattern := "%" + q + "%"
		query = query.Where("(body ILIKE ? OR author ILIKE ?)", pattern, pattern)
	}
	if len(params.Authors) > 0 {
		query = query.Where("author IN ?", params.Authors)
	}
	var rows []repository.GeoTweet
	if err := query.Order("date_published DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) ListAuthors(ctx context.Context, since time.Time) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var authors []string
	err := s.db.WithContext(ctx).
		Model(&models.Tweet{}).
		Distinct("author").
		Where("date_published >= ?", since).
		Order("author").
		Pluck("author", &authors).Error
	if err != nil {
		return nil, err
	}
	return authors, nil
}

func (s *Store) ListImportantTweets(ctx context.Context, since time.Time, minImportance int) ([]repository.ImportantTweet, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var rows []repository.ImportantTweet
	err := s.db.WithContext(ctx).
		Table("tweets").
		Select(`
			id, tweet_id, body, author, date_published, url,
			ST_X(geom) AS lon, ST_Y(geom) AS lat
		`).
		Where("importance >= ?", minImportance).
		Where("date_published >= ?", since).
		Order("date_published DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListRandomUnlocatedTweets samples tweets without geometry whose body falls
// in the informative-but-concise band used by the frontend.
func (s *Store) ListRandomUnlocatedTweets(ctx context.Context, since time.Time, limit int) ([]repository.TweetSample, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}
	var rows []repository.TweetSample
	err := s.db.WithContext(ctx).
		Table("tweets").
		Select("id, tweet_id, body, author, date_published, url").
		Where("geom IS NULL").
		Where("date_published >= ?", since).
		Where("LENGTH(body) BETWEEN 50 AND 200").
		Order("RANDOM()").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) LastTweetDate(ctx context.Context) (*time.Time, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var last sql.NullTime
	err := s.db.WithContext(ctx).
		Model(&models.Tweet{}).
		Select("MAX(date_published)").
		Scan(&last).Error
	if err != nil {
		return nil, err
	}
	if !last.Valid {
		return nil, nil
	}
	t := last.Time.UTC()
	return &t, nil
}

func (s *Store) ListDisputedAreas(ctx context.Context) ([]repository.DisputedAreaRow, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var rows []repository.DisputedAreaRow
	err := s.db.WithContext(ctx).
		Table("disputed_areas").
		Select("id, name, ST_AsGeoJSON(geom) AS geometry").
		Order("id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
