// Package storage persists annotated articles and feed bookkeeping.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"newsloom/ingestor/internal/database"
	"newsloom/ingestor/internal/models"
)

const maxFeedFailures = 10

// ArticleWriter is the pipeline's persistence contract.
type ArticleWriter interface {
	Upsert(ctx context.Context, article *models.Article) error
}

// FeedStore serves feed configuration and records per-feed fetch health.
type FeedStore interface {
	ListActiveFeeds(ctx context.Context) ([]models.Feed, error)
	MarkFeedSuccess(ctx context.Context, feedID int64) error
	MarkFeedFailure(ctx context.Context, feedID int64, fetchErr error) error
}

// Repository implements ArticleWriter and FeedStore over SQLite.
type Repository struct {
	db *database.DB
}

var _ ArticleWriter = (*Repository)(nil)
var _ FeedStore = (*Repository)(nil)

// NewRepository wires a repository over an open database connection.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Upsert inserts the article or, when its link is already stored, updates
// the fields that legitimately change between observations of the same link
// (description, summary, sentiment, entities, image). First-seen identity
// (title, publish time, category, source) is preserved. Each call commits
// its own transaction so one failed write never rolls back earlier articles
// in the run.
func (r *Repository) Upsert(ctx context.Context, article *models.Article) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO articles (
			title, description, summary, sentiment_label, sentiment_score,
			category_id, category_title, published_at, source, link, image_url,
			persons, organizations, locations, read_time, popularity,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(link) DO UPDATE SET
			description = excluded.description,
			summary = excluded.summary,
			sentiment_label = excluded.sentiment_label,
			sentiment_score = excluded.sentiment_score,
			persons = excluded.persons,
			organizations = excluded.organizations,
			locations = excluded.locations,
			image_url = excluded.image_url,
			updated_at = excluded.updated_at`,
		article.Title, article.Description, article.Summary,
		article.SentimentLabel, article.SentimentScore,
		article.CategoryID, article.CategoryTitle,
		article.PublishedAt.UTC(), article.Source, article.Link, article.ImageURL,
		article.Persons, article.Organizations, article.Locations,
		article.ReadTime, article.Popularity,
		article.CreatedAt.UTC(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert article %s: %w", article.Link, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit article %s: %w", article.Link, err)
	}
	return nil
}

// CountByLink reports how many rows exist for a link. Used to verify the
// link unique constraint holds.
func (r *Repository) CountByLink(ctx context.Context, link string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM articles WHERE link = ?", link)
	if err != nil {
		return 0, fmt.Errorf("count by link: %w", err)
	}
	return count, nil
}

// GetByLink fetches one stored article by its canonical link.
func (r *Repository) GetByLink(ctx context.Context, link string) (*models.Article, error) {
	var article models.Article
	err := r.db.GetContext(ctx, &article, "SELECT * FROM articles WHERE link = ?", link)
	if err != nil {
		return nil, fmt.Errorf("get article by link: %w", err)
	}
	return &article, nil
}

// ListActiveFeeds returns the configured feeds in stable insertion order.
func (r *Repository) ListActiveFeeds(ctx context.Context) ([]models.Feed, error) {
	var feeds []models.Feed
	err := r.db.SelectContext(ctx, &feeds,
		"SELECT * FROM feeds WHERE status = 'active' AND deleted_at IS NULL ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("list active feeds: %w", err)
	}
	return feeds, nil
}

// InsertFeed inserts a new feed configuration row.
func (r *Repository) InsertFeed(ctx context.Context, feed *models.Feed) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO feeds (url, category_id, category_title, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		feed.URL, feed.CategoryID, feed.CategoryTitle, feed.Status,
		feed.CreatedAt.UTC(), feed.UpdatedAt.UTC(),
	)
	return err
}

// MarkFeedSuccess resets the failure counters after a successful fetch.
func (r *Repository) MarkFeedSuccess(ctx context.Context, feedID int64) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		UPDATE feeds
		SET status = 'active', failures_count = 0, last_error = NULL,
		    last_retrieved_at = ?, updated_at = ?
		WHERE id = ?`, now, now, feedID)
	return err
}

// MarkFeedFailure records a fetch failure; a feed that keeps failing is
// taken out of rotation.
func (r *Repository) MarkFeedFailure(ctx context.Context, feedID int64, fetchErr error) error {
	now := time.Now().UTC()
	lastErr := sql.NullString{}
	if fetchErr != nil {
		lastErr = sql.NullString{String: fetchErr.Error(), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE feeds
		SET failures_count = failures_count + 1,
		    last_error = ?,
		    status = CASE WHEN failures_count + 1 > ? THEN 'failed' ELSE status END,
		    last_retrieved_at = ?, updated_at = ?
		WHERE id = ?`, lastErr, maxFeedFailures, now, now, feedID)
	return err
}
