package server

import (
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"newsloom/ingestor/internal/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(database.NewConfig(filepath.Join(t.TempDir(), "test.db")))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestExportFeedsHandler(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	inserts := []struct {
		url, categoryID, categoryTitle, status string
	}{
		{"https://example.com/tech.rss", "tech", "Technology", "active"},
		{"https://example.com/world.rss", "world", "World News", "failed"},
	}
	for _, f := range inserts {
		_, err := db.Exec(
			"INSERT INTO feeds (url, category_id, category_title, status) VALUES (?, ?, ?, ?)",
			f.url, f.categoryID, f.categoryTitle, f.status)
		if err != nil {
			t.Fatalf("insert feed: %v", err)
		}
	}
	// Soft-deleted feeds stay out of the export.
	_, err := db.Exec(
		"INSERT INTO feeds (url, category_id, category_title, deleted_at) VALUES ('https://example.com/gone.rss', 'tech', 'Technology', CURRENT_TIMESTAMP)")
	if err != nil {
		t.Fatalf("insert deleted feed: %v", err)
	}

	rec := httptest.NewRecorder()
	exportFeedsHandler(db)(rec, httptest.NewRequest(http.MethodGet, "/v1/feeds", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %q, want text/csv", ct)
	}

	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse exported CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d CSV rows, want header plus 2 feeds", len(records))
	}

	wantHeader := []string{"url", "category_id", "category_title", "status"}
	for i, col := range wantHeader {
		if records[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, records[0][i], col)
		}
	}
	if records[1][0] != "https://example.com/tech.rss" || records[1][3] != "active" {
		t.Errorf("unexpected first row: %v", records[1])
	}
	if records[2][0] != "https://example.com/world.rss" || records[2][3] != "failed" {
		t.Errorf("unexpected second row: %v", records[2])
	}
}
