package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"conflictwatch/internal/config"
	"conflictwatch/internal/extract"
	"conflictwatch/internal/feed"
	"conflictwatch/internal/geo"
	"conflictwatch/internal/metrics"
	"conflictwatch/internal/models"
	"conflictwatch/internal/repository"
)

// FeedClient delivers raw records for one source handle.
type FeedClient interface {
	Fetch(ctx context.Context, handle string) ([]feed.RawItem, error)
}

// Extractor turns free text into a validated extraction or fails after its
// retry budget.
type Extractor interface {
	Extract(ctx context.Context, text string) (*extract.Extraction, error)
}

// Service is the ingestion pipeline: fetch, normalize, gate, extract, resolve,
// store. One poll cycle processes each configured source; sources run on a
// small bounded pool while records within a source stay sequential, because
// the extraction collaborator is the bottleneck, not I/O.
type Service struct {
	Feeds   FeedClient
	Extract Extractor
	Repo    repository.TweetRepository
	Logger  *zap.Logger
	Config  config.IngestConfig
	Sources []string
}

// RunCycle executes one poll over all sources. Source failures are isolated:
// an unreachable feed only skips that source for the cycle.
func (s *Service) RunCycle(ctx context.Context) error {
	if s == nil || s.Repo == nil || s.Feeds == nil || s.Extract == nil {
		return errors.New("ingest: service not wired")
	}

	size := s.Config.Concurrency
	if size <= 0 {
		size = 1
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for _, source := range s.Sources {
		source := source
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			s.pollSource(ctx, source)
		}); err != nil {
			wg.Done()
			s.logWarn("pool submit failed", zap.String("source", source), zap.Error(err))
		}
	}
	wg.Wait()

	metrics.PollCycles.Inc()
	return ctx.Err()
}

func (s *Service) pollSource(ctx context.Context, source string) {
	items, err := s.Feeds.Fetch(ctx, source)
	if err != nil {
		metrics.SourceErrors.WithLabelValues(source).Inc()
		s.logWarn("feed fetch failed", zap.String("source", source), zap.Error(err))
		return
	}

	processed := 0
	for i := range items {
		if ctx.Err() != nil {
			return
		}
		if s.Config.MaxPerSource > 0 && processed >= s.Config.MaxPerSource {
			return
		}
		if s.processItem(ctx, source, items[i]) {
			processed++
		}
	}
}

// processItem runs one record through the pipeline. The return value reports
// whether an extraction call was spent on it, which is what MaxPerSource
// budgets.
func (s *Service) processItem(ctx context.Context, source string, item feed.RawItem) bool {
	if feed.ShouldSkip(item, source) {
		metrics.RecordsSkipped.WithLabelValues("filtered").Inc()
		return false
	}

	cand, err := feed.Normalize(item, source)
	if err != nil {
		metrics.RecordsSkipped.WithLabelValues("rejected").Inc()
		s.logWarn("record rejected",
			zap.String("source", source),
			zap.String("guid", item.GUID),
			zap.Error(err),
		)
		return false
	}

	// Idempotency gate. This lookup is advisory; the insert's unique
	// constraint is what actually prevents duplicates under concurrent
	// cycles.
	exists, err := s.Repo.TweetExists(ctx, cand.TweetID)
	if err != nil {
		s.logWarn("existence check failed", zap.String("tweet_id", cand.TweetID), zap.Error(err))
		return false
	}
	if exists {
		metrics.RecordsSkipped.WithLabelValues("duplicate").Inc()
		return false
	}

	if s.Config.FailureCap > 0 {
		attempts, err := s.Repo.GetExtractionFailureAttempts(ctx, cand.TweetID)
		if err != nil {
			s.logWarn("failure counter lookup failed", zap.String("tweet_id", cand.TweetID), zap.Error(err))
		} else if attempts >= s.Config.FailureCap {
			metrics.RecordsSkipped.WithLabelValues("failure_cap").Inc()
			return false
		}
	}

	extraction, err := s.Extract.Extract(ctx, cand.Body)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		metrics.ExtractionFailures.Inc()
		attempts, bumpErr := s.Repo.BumpExtractionFailure(ctx, cand.TweetID, err.Error())
		if bumpErr != nil {
			s.logWarn("failure counter update failed", zap.String("tweet_id", cand.TweetID), zap.Error(bumpErr))
		}
		s.logWarn("extraction failed",
			zap.String("tweet_id", cand.TweetID),
			zap.Int("failure_count", attempts),
			zap.Error(err),
		)
		return true
	}

	if len(extraction.Events) == 0 {
		s.storeNonEvent(ctx, cand)
		return true
	}

	// The first event carries the tweet's analytics, as in the upstream
	// corpus; multi-event tweets are rare and the extras add noise.
	ev := extraction.Events[0]
	res := geo.Resolve(ev)

	var payload datatypes.JSON
	if raw, err := json.Marshal(ev); err == nil {
		payload = datatypes.JSON(raw)
	}

	tweet := &models.Tweet{
		TweetID:       cand.TweetID,
		DatePublished: cand.PublishedAt,
		URL:           cand.URL,
		Author:        cand.Author,
		Body:          cand.Body,
		Typology:      strPtr(ev.Typology),
		Importance:    ev.Importance,
		Accuracy:      res.Accuracy,
		Method:        strPtr(res.Method),
		Geom:          res.WKT,
		Extraction:    payload,
	}
	s.store(ctx, tweet, cand.Images)
	return true
}

// storeNonEvent keeps tweets the model judged non-events, without analytic
// fields, when they are long enough to be worth reading. Short ones are
// dropped.
func (s *Service) storeNonEvent(ctx context.Context, cand feed.Candidate) {
	minLen := s.Config.MinBodyLength
	if minLen <= 0 {
		minLen = 50
	}
	if !s.Config.StoreNonEvents || len(cand.Body) <= minLen {
		metrics.RecordsSkipped.WithLabelValues("non_event").Inc()
		_ = s.Repo.ClearExtractionFailure(ctx, cand.TweetID)
		return
	}
	tweet := &models.Tweet{
		TweetID:       cand.TweetID,
		DatePublished: cand.PublishedAt,
		URL:           cand.URL,
		Author:        cand.Author,
		Body:          cand.Body,
	}
	s.store(ctx, tweet, cand.Images)
}

func (s *Service) store(ctx context.Context, tweet *models.Tweet, images []string) {
	outcome, err := s.Repo.InsertTweet(ctx, tweet)
	if err != nil {
		s.logWarn("tweet insert failed", zap.String("tweet_id", tweet.TweetID), zap.Error(err))
		return
	}
	if outcome == repository.AlreadyExists {
		// Another cycle won the race. Expected, not an error.
		metrics.RecordsSkipped.WithLabelValues("duplicate").Inc()
		return
	}

	accuracy := "none"
	if tweet.Accuracy != nil {
		accuracy = *tweet.Accuracy
	}
	metrics.RecordsStored.WithLabelValues(accuracy).Inc()

	if err := s.Repo.ClearExtractionFailure(ctx, tweet.TweetID); err != nil {
		s.logWarn("failure counter clear failed", zap.String("tweet_id", tweet.TweetID), zap.Error(err))
	}

	if len(images) > 0 {
		rows := make([]models.TweetImage, 0, len(images))
		for _, url := range images {
			rows = append(rows, models.TweetImage{TweetID: tweet.TweetID, ImageURL: url})
		}
		if err := s.Repo.InsertTweetImages(ctx, rows); err != nil {
			s.logWarn("image insert failed", zap.String("tweet_id", tweet.TweetID), zap.Error(err))
		}
	}

	if s.Logger != nil {
		s.Logger.Info("tweet stored",
			zap.String("tweet_id", tweet.TweetID),
			zap.String("author", tweet.Author),
			zap.String("accuracy", accuracy),
		)
	}
}

func (s *Service) logWarn(msg string, fields ...zap.Field) {
	if s.Logger != nil {
		s.Logger.Warn(msg, fields...)
	}
}

func strPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
