// Package pipeline drives one ingestion run: feed enumeration, tiered
// extraction, normalization, annotation and idempotent persistence, with
// failures isolated at feed and entry granularity.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"newsloom/ingestor/internal/feeds"
	"newsloom/ingestor/internal/models"
	"newsloom/ingestor/internal/storage"
)

// Run statuses reported to collaborators. A run result is always a value,
// never a propagated error, except for the fatal cases.
const (
	StatusSuccess = "success"
	StatusInfo    = "info"
	StatusError   = "error"
)

// Result is the aggregate outcome of one ingestion run.
type Result struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	Processed      int    `json:"processed_count"`
	FeedsAttempted int    `json:"feeds_attempted"`
}

// Enumerator yields the recent entries of one feed.
type Enumerator interface {
	Enumerate(ctx context.Context, feedURL string) ([]feeds.RawEntry, error)
}

// Extractor resolves an entry to article text; fullPage reports whether the
// text came from full-page extraction.
type Extractor interface {
	Extract(ctx context.Context, entry feeds.RawEntry) (text string, fullPage bool)
}

// Normalizer sanitizes extracted text into clean prose.
type Normalizer interface {
	Clean(raw string) string
}

// Annotator provides the three independently-failing inference capabilities.
type Annotator interface {
	Ready(ctx context.Context) error
	Summarize(ctx context.Context, text string, fullArticle bool) string
	Sentiment(ctx context.Context, title string) (string, float64)
	Entities(ctx context.Context, text string) (persons, organizations, locations []string)
}

// Pipeline wires the stages together. Feeds may be processed by a bounded
// worker pool; entries within a feed are strictly sequential, and each
// article commits in its own transaction, so failure isolation semantics
// hold at any worker count.
type Pipeline struct {
	feedStore  storage.FeedStore
	enumerator Enumerator
	extractor  Extractor
	normalizer Normalizer
	annotator  Annotator
	writer     storage.ArticleWriter

	// WorkerCount bounds concurrent feed processing; values below 1 are
	// treated as 1 (strictly sequential).
	WorkerCount int

	processed atomic.Int64
}

// Deps carries the pipeline's collaborators.
type Deps struct {
	FeedStore  storage.FeedStore
	Enumerator Enumerator
	Extractor  Extractor
	Normalizer Normalizer
	Annotator  Annotator
	Writer     storage.ArticleWriter
}

// New constructs the orchestrator.
func New(deps Deps, workerCount int) *Pipeline {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pipeline{
		feedStore:   deps.FeedStore,
		enumerator:  deps.Enumerator,
		extractor:   deps.Extractor,
		normalizer:  deps.Normalizer,
		annotator:   deps.Annotator,
		writer:      deps.Writer,
		WorkerCount: workerCount,
	}
}

// Run executes one ingestion pass over all configured feeds and returns the
// aggregate result. Only annotation-model readiness and feed-configuration
// read failures are fatal; everything narrower is absorbed with logging.
func (p *Pipeline) Run(ctx context.Context) Result {
	p.processed.Store(0)

	if err := p.annotator.Ready(ctx); err != nil {
		log.Error().Err(err).Msg("Annotation models unavailable, aborting run")
		return Result{
			Status:  StatusError,
			Message: fmt.Sprintf("annotation models unavailable: %v", err),
		}
	}

	feedConfigs, err := p.feedStore.ListActiveFeeds(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load feed configuration")
		return Result{
			Status:  StatusError,
			Message: fmt.Sprintf("failed to load feed configuration: %v", err),
		}
	}

	if len(feedConfigs) == 0 {
		return Result{Status: StatusInfo, Message: "no active feeds configured"}
	}

	log.Info().Int("feeds", len(feedConfigs)).Int("workers", p.WorkerCount).Msg("Starting ingestion run")

	feedQueue := make(chan models.Feed)
	var wg sync.WaitGroup
	for i := 0; i < p.WorkerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for feed := range feedQueue {
				p.processFeed(ctx, feed)
			}
		}()
	}

queueLoop:
	for _, feed := range feedConfigs {
		select {
		case feedQueue <- feed:
		case <-ctx.Done():
			log.Info().Err(ctx.Err()).Msg("Context cancelled during feed queuing")
			break queueLoop
		}
	}
	close(feedQueue)
	wg.Wait()

	processed := int(p.processed.Load())
	result := Result{
		Processed:      processed,
		FeedsAttempted: len(feedConfigs),
	}
	if processed == 0 {
		result.Status = StatusInfo
		result.Message = "run completed, no articles processed"
	} else {
		result.Status = StatusSuccess
		result.Message = fmt.Sprintf("fetched and processed %d articles across %d feeds", processed, len(feedConfigs))
	}

	log.Info().
		Int("processed", processed).
		Int("feeds_attempted", len(feedConfigs)).
		Str("status", result.Status).
		Msg("Ingestion run finished")
	return result
}

// processFeed handles one feed; enumeration failures are feed-scoped and
// never abort the run.
func (p *Pipeline) processFeed(ctx context.Context, feed models.Feed) {
	logger := log.With().Int64("feed_id", feed.ID).Str("url", feed.URL).Logger()
	logger.Info().Msg("Processing feed")

	entries, err := p.enumerator.Enumerate(ctx, feed.URL)
	if err != nil {
		logger.Warn().Err(err).Msg("Feed fetch failed, skipping feed")
		if markErr := p.feedStore.MarkFeedFailure(ctx, feed.ID, err); markErr != nil {
			logger.Error().Err(markErr).Msg("Failed to record feed failure")
		}
		return
	}

	if markErr := p.feedStore.MarkFeedSuccess(ctx, feed.ID); markErr != nil {
		logger.Error().Err(markErr).Msg("Failed to record feed success")
	}

	if len(entries) == 0 {
		logger.Info().Msg("Feed yielded no recent entries")
		return
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			logger.Info().Err(ctx.Err()).Msg("Context cancelled mid-feed")
			return
		default:
		}

		if err := p.processEntry(ctx, feed, entry); err != nil {
			logger.Warn().Err(err).Str("link", entry.Link).Msg("Entry skipped")
			continue
		}
		p.processed.Add(1)
	}

	logger.Info().Int("entries", len(entries)).Msg("Feed processed")
}

// processEntry runs one entry through extraction, normalization, annotation
// and persistence. Annotation failures degrade to sentinel values inside
// the annotator; only persistence failures surface here, and the caller
// absorbs them at entry granularity.
func (p *Pipeline) processEntry(ctx context.Context, feed models.Feed, entry feeds.RawEntry) error {
	raw, fullPage := p.extractor.Extract(ctx, entry)
	description := p.normalizer.Clean(raw)

	summary := p.annotator.Summarize(ctx, description, fullPage)
	sentimentLabel, sentimentScore := p.annotator.Sentiment(ctx, entry.Title)
	persons, organizations, locations := p.annotator.Entities(ctx, description)

	article := models.NewArticle()
	article.Title = entry.Title
	article.Description = description
	article.Summary = summary
	article.SentimentLabel = sentimentLabel
	article.SentimentScore = sentimentScore
	article.CategoryID = feed.CategoryID
	article.CategoryTitle = feed.CategoryTitle
	article.PublishedAt = entry.PublishedAt
	article.Source = feeds.SourceFromURL(feed.URL)
	article.Link = entry.Link
	article.ImageURL = entry.ImageURL
	article.Persons = models.EntityList(persons)
	article.Organizations = models.EntityList(organizations)
	article.Locations = models.EntityList(locations)

	if err := p.writer.Upsert(ctx, article); err != nil {
		return fmt.Errorf("persist article: %w", err)
	}

	log.Debug().Str("link", entry.Link).Str("sentiment", sentimentLabel).Msg("Article stored")
	return nil
}
