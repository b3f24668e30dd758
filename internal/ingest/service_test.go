package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"conflictwatch/internal/config"
	"conflictwatch/internal/extract"
	"conflictwatch/internal/feed"
	"conflictwatch/internal/models"
	"conflictwatch/internal/repository"
)

// stubRepo is an in-memory TweetRepository. Insert honors the uniqueness
// contract: first writer wins, later writers observe AlreadyExists.
type stubRepo struct {
	mu       sync.Mutex
	tweets   map[string]models.Tweet
	images   map[string][]string
	failures map[string]int
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		tweets:   map[string]models.Tweet{},
		images:   map[string][]string{},
		failures: map[string]int{},
	}
}

func (r *stubRepo) InsertTweet(ctx context.Context, item *models.Tweet) (repository.InsertOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tweets[item.TweetID]; ok {
		return repository.AlreadyExists, nil
	}
	r.tweets[item.TweetID] = *item
	return repository.Inserted, nil
}

func (r *stubRepo) InsertTweetImages(ctx context.Context, items []models.TweetImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range items {
		r.images[it.TweetID] = append(r.images[it.TweetID], it.ImageURL)
	}
	return nil
}

func (r *stubRepo) TweetExists(ctx context.Context, tweetID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tweets[tweetID]
	return ok, nil
}

func (r *stubRepo) BumpExtractionFailure(ctx context.Context, tweetID, lastError string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[tweetID]++
	return r.failures[tweetID], nil
}

func (r *stubRepo) GetExtractionFailureAttempts(ctx context.Context, tweetID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failures[tweetID], nil
}

func (r *stubRepo) ClearExtractionFailure(ctx context.Context, tweetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.failures, tweetID)
	return nil
}

func (r *stubRepo) ListGeolocatedTweets(ctx context.Context, params repository.ListGeoTweetsParams) ([]repository.GeoTweet, error) {
	return nil, nil
}
func (r *stubRepo) ListAuthors(ctx context.Context, since time.Time) ([]string, error) {
	return nil, nil
}
func (r *stubRepo) ListImportantTweets(ctx context.Context, since time.Time, minImportance int) ([]repository.ImportantTweet, error) {
	return nil, nil
}
func (r *stubRepo) ListRandomUnlocatedTweets(ctx context.Context, since time.Time, limit int) ([]repository.TweetSample, error) {
	return nil, nil
}
func (r *stubRepo) LastTweetDate(ctx context.Context) (*time.Time, error) { return nil, nil }
func (r *stubRepo) ListDisputedAreas(ctx context.Context) ([]repository.DisputedAreaRow, error) {
	return nil, nil
}

type stubFeed struct {
	items map[string][]feed.RawItem
}

func (f *stubFeed) Fetch(ctx context.Context, handle string) ([]feed.RawItem, error) {
	return f.items[handle], nil
}

type stubExtractor struct {
	mu     sync.Mutex
	result *extract.Extraction
	err    error
	calls  int
}

func (e *stubExtractor) Extract(ctx context.Context, text string) (*extract.Extraction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

func (e *stubExtractor) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func ptr[T any](v T) *T { return &v }

func rawItem(id, body string) feed.RawItem {
	published := time.Now().UTC().Add(-time.Hour)
	return feed.RawItem{
		GUID:        id,
		Title:       body,
		Link:        "http://x.com/src/status/" + id,
		PublishedAt: &published,
		Creator:     "@src",
	}
}

func milEvent() *extract.Extraction {
	return &extract.Extraction{Events: []extract.Event{{
		Summary:      "airstrike near border town X",
		Typology:     extract.TypologyMil,
		Importance:   ptr(4),
		MainLocation: ptr("border town X"),
		LocationType: extract.LocationInferred,
		Latitude:     ptr(48.5),
		Longitude:    ptr(35.2),
		Confidence:   extract.ConfidenceMedium,
	}}}
}

func newService(repo *stubRepo, feeds *stubFeed, ex *stubExtractor) *Service {
	return &Service{
		Feeds:   feeds,
		Extract: ex,
		Repo:    repo,
		Config: config.IngestConfig{
			Concurrency:    1,
			FailureCap:     3,
			MinBodyLength:  50,
			StoreNonEvents: true,
		},
		Sources: []string{"@src"},
	}
}

func TestPipelineStoresGeolocatedEvent(t *testing.T) {
	repo := newStubRepo()
	feeds := &stubFeed{items: map[string][]feed.RawItem{
		"@src": {rawItem("t1", "Airstrike reported near border town X")},
	}}
	ex := &stubExtractor{result: milEvent()}
	svc := newService(repo, feeds, ex)

	if err := svc.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	tweet, ok := repo.tweets["t1"]
	if !ok {
		t.Fatalf("tweet t1 not stored")
	}
	if tweet.Typology == nil || *tweet.Typology != models.TypologyMil {
		t.Fatalf("typology = %v", tweet.Typology)
	}
	if tweet.Importance == nil || *tweet.Importance != 4 {
		t.Fatalf("importance = %v", tweet.Importance)
	}
	if tweet.Accuracy == nil || *tweet.Accuracy != models.AccuracyMedium {
		t.Fatalf("accuracy = %v", tweet.Accuracy)
	}
	if tweet.Method == nil || *tweet.Method != models.MethodInferred {
		t.Fatalf("method = %v", tweet.Method)
	}
	if tweet.Geom == nil || !strings.HasPrefix(*tweet.Geom, "POINT (") {
		t.Fatalf("geom = %v", tweet.Geom)
	}
}

func TestPipelineIdempotentAcrossCycles(t *testing.T) {
	repo := newStubRepo()
	feeds := &stubFeed{items: map[string][]feed.RawItem{
		"@src": {rawItem("t1", "Airstrike reported near border town X")},
	}}
	ex := &stubExtractor{result: milEvent()}
	svc := newService(repo, feeds, ex)

	for i := 0; i < 2; i++ {
		if err := svc.RunCycle(context.Background()); err != nil {
			t.Fatalf("RunCycle %d: %v", i, err)
		}
	}

	if len(repo.tweets) != 1 {
		t.Fatalf("expected exactly 1 stored tweet, got %d", len(repo.tweets))
	}
	if ex.callCount() != 1 {
		t.Fatalf("second cycle must not re-extract a stored tweet, calls = %d", ex.callCount())
	}
}

func TestPipelineExtractionFailureNotStored(t *testing.T) {
	repo := newStubRepo()
	feeds := &stubFeed{items: map[string][]feed.RawItem{
		"@src": {rawItem("t1", "Airstrike reported near border town X")},
	}}
	ex := &stubExtractor{err: extract.ErrMalformedOutput}
	svc := newService(repo, feeds, ex)

	if err := svc.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if len(repo.tweets) != 0 {
		t.Fatalf("failed extraction must not be persisted")
	}
	if repo.failures["t1"] != 1 {
		t.Fatalf("failure counter = %d, want 1", repo.failures["t1"])
	}
}

func TestPipelineFailureCapStopsRetries(t *testing.T) {
	repo := newStubRepo()
	feeds := &stubFeed{items: map[string][]feed.RawItem{
		"@src": {rawItem("t1", "Airstrike reported near border town X")},
	}}
	ex := &stubExtractor{err: extract.ErrMalformedOutput}
	svc := newService(repo, feeds, ex)

	for i := 0; i < 5; i++ {
		if err := svc.RunCycle(context.Background()); err != nil {
			t.Fatalf("RunCycle %d: %v", i, err)
		}
	}

	// Cap is 3: cycles 1-3 call the extractor, later cycles skip.
	if ex.callCount() != 3 {
		t.Fatalf("extractor calls = %d, want 3", ex.callCount())
	}
	if repo.failures["t1"] != 3 {
		t.Fatalf("failure counter = %d, want 3", repo.failures["t1"])
	}
}

func TestPipelineNonEventStoredWithoutAnalytics(t *testing.T) {
	longBody := "A lengthy situational report about logistics with no locatable event inside it"
	repo := newStubRepo()
	feeds := &stubFeed{items: map[string][]feed.RawItem{
		"@src": {rawItem("t2", longBody)},
	}}
	ex := &stubExtractor{result: &extract.Extraction{}}
	svc := newService(repo, feeds, ex)

	if err := svc.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	tweet, ok := repo.tweets["t2"]
	if !ok {
		t.Fatalf("long non-event tweet should be stored")
	}
	if tweet.Typology != nil || tweet.Importance != nil || tweet.Accuracy != nil || tweet.Geom != nil {
		t.Fatalf("non-event tweet must carry no analytic fields: %+v", tweet)
	}
}

func TestPipelineShortNonEventDropped(t *testing.T) {
	repo := newStubRepo()
	feeds := &stubFeed{items: map[string][]feed.RawItem{
		"@src": {rawItem("t3", "short note")},
	}}
	ex := &stubExtractor{result: &extract.Extraction{}}
	svc := newService(repo, feeds, ex)

	if err := svc.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(repo.tweets) != 0 {
		t.Fatalf("short non-event tweet must be dropped")
	}
}

func TestPipelineUnknownLocationStoredWithoutGeometry(t *testing.T) {
	repo := newStubRepo()
	feeds := &stubFeed{items: map[string][]feed.RawItem{
		"@src": {rawItem("t4", "Something exploded somewhere according to unverified chatter")},
	}}
	ex := &stubExtractor{result: &extract.Extraction{Events: []extract.Event{{
		Summary:      "explosion, location unknown",
		Typology:     extract.TypologyOther,
		Importance:   ptr(2),
		LocationType: extract.LocationUnknown,
		Confidence:   extract.ConfidenceLow,
	}}}}
	svc := newService(repo, feeds, ex)

	if err := svc.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	tweet, ok := repo.tweets["t4"]
	if !ok {
		t.Fatalf("tweet not stored")
	}
	if tweet.Geom != nil || tweet.Accuracy != nil {
		t.Fatalf("unknown location must store no geometry and no accuracy")
	}
	if tweet.Method == nil || *tweet.Method != models.MethodUnknown {
		t.Fatalf("method = %v", tweet.Method)
	}
}

func TestPipelineFiltersEditorialNoise(t *testing.T) {
	repo := newStubRepo()
	feeds := &stubFeed{items: map[string][]feed.RawItem{
		"@src": {
			rawItem("t5", "RT @other: forwarded news"),
			rawItem("t6", "Update: thread continues"),
		},
	}}
	ex := &stubExtractor{result: milEvent()}
	svc := newService(repo, feeds, ex)

	if err := svc.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if ex.callCount() != 0 {
		t.Fatalf("filtered records must not reach the extractor")
	}
	if len(repo.tweets) != 0 {
		t.Fatalf("filtered records must not be stored")
	}
}

func TestPipelineClearsFailureCounterOnSuccess(t *testing.T) {
	repo := newStubRepo()
	repo.failures["t1"] = 2
	feeds := &stubFeed{items: map[string][]feed.RawItem{
		"@src": {rawItem("t1", "Airstrike reported near border town X")},
	}}
	ex := &stubExtractor{result: milEvent()}
	svc := newService(repo, feeds, ex)

	if err := svc.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if _, ok := repo.failures["t1"]; ok {
		t.Fatalf("failure counter should be cleared after a successful store")
	}
}

func TestRunCycleIsolatesSourceFailure(t *testing.T) {
	repo := newStubRepo()
	feeds := &failingFeed{
		good: map[string][]feed.RawItem{
			"@ok": {rawItem("t7", "Airstrike reported near border town X")},
		},
		bad: "@down",
	}
	ex := &stubExtractor{result: milEvent()}
	svc := newService(repo, feeds, ex)
	svc.Sources = []string{"@down", "@ok"}

	if err := svc.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if _, ok := repo.tweets["t7"]; !ok {
		t.Fatalf("healthy source must be processed despite a failing one")
	}
}

type failingFeed struct {
	good map[string][]feed.RawItem
	bad  string
}

func (f *failingFeed) Fetch(ctx context.Context, handle string) ([]feed.RawItem, error) {
	if handle == f.bad {
		return nil, errors.New("connection refused")
	}
	return f.good[handle], nil
}
