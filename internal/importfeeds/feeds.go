// Package importfeeds loads feed configuration from a CSV file into the
// feeds table.
package importfeeds

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"newsloom/ingestor/internal/models"
	"newsloom/ingestor/internal/storage"
)

// Importer handles the feed import process
type Importer struct {
	repo *storage.Repository
}

// NewImporter creates a new feed importer
func NewImporter(repo *storage.Repository) *Importer {
	return &Importer{repo: repo}
}

// ImportFeeds imports feed configurations from a CSV file with columns
// url, category_id, category_title and optional status.
func (i *Importer) ImportFeeds(ctx context.Context, csvPath string) error {
	log.Info().Str("csv", csvPath).Msg("Starting feed import")

	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	if err := i.parseAndImportFeeds(ctx, f); err != nil {
		return fmt.Errorf("failed to import feeds: %w", err)
	}

	log.Info().Msg("Import completed successfully")
	return nil
}

func (i *Importer) parseAndImportFeeds(ctx context.Context, csvData io.Reader) error {
	reader := csv.NewReader(csvData)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return err
	}

	log.Debug().Strs("header", header).Msg("CSV header read")

	for _, required := range []string{"url", "category_id", "category_title"} {
		if findColumnIndex(header, required) < 0 {
			return fmt.Errorf("required column '%s' not found in CSV header", required)
		}
	}

	urlIdx := findColumnIndex(header, "url")
	categoryIDIdx := findColumnIndex(header, "category_id")
	categoryTitleIdx := findColumnIndex(header, "category_title")
	statusIdx := findColumnIndex(header, "status")

	lineCount := 1 // Header was already read
	successCount := 0
	var importErrors []string

	for {
		lineCount++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn().Err(err).Int("line", lineCount).Msg("Error reading CSV line")
			importErrors = append(importErrors, fmt.Sprintf("line %d: %v", lineCount, err))
			continue
		}

		if len(record) == 0 || (len(record) == 1 && record[0] == "") {
			continue
		}

		feed := models.NewFeed()
		feed.URL = safeGetValue(record, urlIdx)
		feed.CategoryID = safeGetValue(record, categoryIDIdx)
		feed.CategoryTitle = safeGetValue(record, categoryTitleIdx)
		if status := safeGetValue(record, statusIdx); status != "" {
			feed.Status = status
		}

		if feed.URL == "" {
			log.Warn().Int("line", lineCount).Msg("Skipping row with empty URL")
			importErrors = append(importErrors, fmt.Sprintf("line %d: empty URL", lineCount))
			continue
		}

		logger := log.With().
			Int("line", lineCount).
			Str("url", feed.URL).
			Str("category", feed.CategoryTitle).
			Logger()

		if err := i.repo.InsertFeed(ctx, feed); err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				logger.Warn().Msg("Duplicate URL")
				importErrors = append(importErrors, fmt.Sprintf("line %d: duplicate URL: %s", lineCount, feed.URL))
			} else {
				logger.Error().Err(err).Msg("Failed to insert feed")
				importErrors = append(importErrors, fmt.Sprintf("line %d: %v", lineCount, err))
			}
			continue
		}

		successCount++
		logger.Debug().Msg("Feed inserted successfully")
	}

	log.Info().
		Int("total", lineCount-1).
		Int("success", successCount).
		Int("errors", len(importErrors)).
		Msg("Import summary")

	fmt.Printf("Imported %d feeds successfully\n", successCount)
	if len(importErrors) > 0 {
		fmt.Printf("Encountered %d errors:\n", len(importErrors))
		for _, e := range importErrors {
			fmt.Printf("  - %s\n", e)
		}
	}

	return nil
}

func findColumnIndex(header []string, columnName string) int {
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), columnName) {
			return i
		}
	}
	return -1
}

// safeGetValue returns the trimmed value at index or "" when out of bounds.
func safeGetValue(record []string, index int) string {
	if index >= 0 && index < len(record) {
		return strings.TrimSpace(record[index])
	}
	return ""
}
