package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"newsloom/ingestor/internal/database"
	"newsloom/ingestor/internal/models"
)

// ArticleReader defines read-side access for the API server.
type ArticleReader interface {
	FetchArticles(ctx context.Context, limit int, since *time.Time, cursorTimestamp *time.Time, cursorID *int64) ([]models.Article, error)
}

type sqlxReader struct {
	db *database.DB
}

// NewReader creates a read-side repository instance.
func NewReader(db *database.DB) ArticleReader {
	return &sqlxReader{db: db}
}

// FetchArticles retrieves articles based on time or cursor.
func (r *sqlxReader) FetchArticles(ctx context.Context, limit int, since *time.Time, cursorTimestamp *time.Time, cursorID *int64) ([]models.Article, error) {
	var articles []models.Article
	var query string
	var args []any

	// Consistent ordering is required for cursor pagination to work.
	const baseQuery = `SELECT * FROM articles `
	const orderBy = ` ORDER BY created_at ASC, id ASC LIMIT ?`

	switch {
	case cursorTimestamp != nil && cursorID != nil:
		query = baseQuery + `WHERE (created_at > ?) OR (created_at = ? AND id > ?)` + orderBy
		args = append(args, cursorTimestamp.UTC(), cursorTimestamp.UTC(), *cursorID, limit)
	case since != nil:
		query = baseQuery + `WHERE created_at > ?` + orderBy
		args = append(args, since.UTC(), limit)
	default:
		return nil, fmt.Errorf("either 'since' or cursor parameters must be provided")
	}

	err := r.db.SelectContext(ctx, &articles, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.Article{}, nil
		}
		return nil, fmt.Errorf("database query failed: %w", err)
	}

	return articles, nil
}
