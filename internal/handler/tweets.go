package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"conflictwatch/internal/export"
	"conflictwatch/internal/repository"
)

const (
	defaultTweetWindowHours  = 24
	defaultAuthorWindowHours = 720
	randomSampleSize         = 5
	importanceThreshold      = 4
)

// TweetHandler serves the read-only query surface over the tweet corpus. It
// runs concurrently with ingestion and never touches ingestion state.
type TweetHandler struct {
	Repo   repository.TweetRepository
	Logger *zap.Logger
}

func (h *TweetHandler) Register(r *gin.Engine) {
	group := r.Group("/api/twitter_conflicts")
	group.GET("/tweets.geojson", h.tweetsGeoJSON)
	group.GET("/authors", h.authors)
	group.GET("/important_tweets", h.importantTweets)
	group.GET("/random_tweets", h.randomTweets)
	group.GET("/last_tweet_date", h.lastTweetDate)
}

func (h *TweetHandler) tweetsGeoJSON(c *gin.Context) {
	hours, ok := hoursWindow(c, defaultTweetWindowHours)
	if !ok {
		return
	}
	rows, err := h.Repo.ListGeolocatedTweets(c.Request.Context(), repository.ListGeoTweetsParams{
		Since:   time.Now().UTC().Add(-time.Duration(hours) * time.Hour),
		Query:   c.Query("q"),
		Authors: csvParam(c, "authors"),
	})
	if err != nil {
		h.fail(c, "list geolocated tweets", err)
		return
	}
	c.JSON(http.StatusOK, export.TweetCollection(rows))
}

func (h *TweetHandler) authors(c *gin.Context) {
	hours, ok := hoursWindow(c, defaultAuthorWindowHours)
	if !ok {
		return
	}
	authors, err := h.Repo.ListAuthors(c.Request.Context(),
		time.Now().UTC().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		h.fail(c, "list authors", err)
		return
	}
	if authors == nil {
		authors = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"authors": authors})
}

func (h *TweetHandler) importantTweets(c *gin.Context) {
	hours, ok := hoursWindow(c, defaultTweetWindowHours)
	if !ok {
		return
	}
	rows, err := h.Repo.ListImportantTweets(c.Request.Context(),
		time.Now().UTC().Add(-time.Duration(hours)*time.Hour),
		importanceThreshold)
	if err != nil {
		h.fail(c, "list important tweets", err)
		return
	}
	tweets := make([]gin.H, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		tweets = append(tweets, gin.H{
			"id":             row.ID,
			"tweet_id":       row.TweetID,
			"body":           row.Body,
			"author":         row.Author,
			"date_published": row.DatePublished.Format(time.RFC3339),
			"url":            row.URL,
			"long":           row.Lon,
			"lat":            row.Lat,
		})
	}
	c.JSON(http.StatusOK, gin.H{"tweets": tweets})
}

func (h *TweetHandler) randomTweets(c *gin.Context) {
	hours, ok := hoursWindow(c, defaultTweetWindowHours)
	if !ok {
		return
	}
	rows, err := h.Repo.ListRandomUnlocatedTweets(c.Request.Context(),
		time.Now().UTC().Add(-time.Duration(hours)*time.Hour),
		randomSampleSize)
	if err != nil {
		h.fail(c, "sample unlocated tweets", err)
		return
	}
	tweets := make([]gin.H, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		tweets = append(tweets, gin.H{
			"id":             row.ID,
			"tweet_id":       row.TweetID,
			"body":           row.Body,
			"author":         row.Author,
			"date_published": row.DatePublished.Format(time.RFC3339),
			"url":            row.URL,
		})
	}
	c.JSON(http.StatusOK, gin.H{"tweets": tweets})
}

func (h *TweetHandler) lastTweetDate(c *gin.Context) {
	last, err := h.Repo.LastTweetDate(c.Request.Context())
	if err != nil {
		h.fail(c, "last tweet date", err)
		return
	}
	if last == nil {
		c.JSON(http.StatusOK, gin.H{"last_date": nil, "last_hour": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"last_date": last.UTC().Format("2006-01-02"),
		"last_hour": last.UTC().Format("15:04:05"),
	})
}

func (h *TweetHandler) fail(c *gin.Context, op string, err error) {
	if h.Logger != nil {
		h.Logger.Warn("query failed", zap.String("op", op), zap.Error(err))
	}
	Error(c, http.StatusInternalServerError, op+" failed")
}
