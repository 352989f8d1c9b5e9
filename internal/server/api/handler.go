package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"newsloom/ingestor/internal/models"
	"newsloom/ingestor/internal/pipeline"
	"newsloom/ingestor/internal/server/pagination"
	"newsloom/ingestor/internal/storage"
)

const defaultLimit = 100
const maxLimit = 1000

// Response structure for the articles listing endpoint
type Response struct {
	Items      []models.Article `json:"items"`
	NextCursor *string          `json:"next_cursor,omitempty"`
}

// ArticlesHandler serves the read-side article listing.
type ArticlesHandler struct {
	reader storage.ArticleReader
}

// NewArticlesHandler creates a new handler instance.
func NewArticlesHandler(reader storage.ArticleReader) *ArticlesHandler {
	return &ArticlesHandler{reader: reader}
}

// GetArticles handles requests to list stored articles with keyset pagination.
func (h *ArticlesHandler) GetArticles(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	ctx := r.Context()
	query := r.URL.Query()
	limitStr := query.Get("limit")
	sinceStr := query.Get("since")
	cursorStr := query.Get("cursor")

	limit := defaultLimit
	if limitStr != "" {
		parsedLimit, err := strconv.Atoi(limitStr)
		if err != nil || parsedLimit <= 0 || parsedLimit > maxLimit {
			log.Warn().Err(err).Str("limit", limitStr).Msg("Invalid 'limit' parameter value")
			http.Error(w, fmt.Sprintf("Invalid 'limit' parameter: must be between 1 and %d", maxLimit), http.StatusBadRequest)
			return
		}
		limit = parsedLimit
	}

	var since *time.Time
	var cursorTimestamp *time.Time
	var cursorID *int64

	if cursorStr != "" {
		ts, id, err := pagination.DecodeCursor(cursorStr)
		if err != nil {
			log.Warn().Err(err).Str("cursor", cursorStr).Msg("Invalid 'cursor' parameter")
			http.Error(w, "Invalid 'cursor' parameter", http.StatusBadRequest)
			return
		}
		cursorTimestamp = &ts
		cursorID = &id
	} else if sinceStr != "" {
		parsedSince, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			log.Warn().Err(err).Str("since", sinceStr).Msg("Invalid 'since' parameter format")
			http.Error(w, "Invalid 'since' parameter: use RFC3339 format (e.g., 2025-03-28T15:00:00Z)", http.StatusBadRequest)
			return
		}
		utcSince := parsedSince.UTC()
		since = &utcSince
	} else {
		http.Error(w, "Missing required parameter: 'since' or 'cursor'", http.StatusBadRequest)
		return
	}

	items, err := h.reader.FetchArticles(ctx, limit+1, since, cursorTimestamp, cursorID) // Fetch one extra
	if err != nil {
		log.Error().Err(err).Str("cursor", cursorStr).Msg("Error fetching articles from repository")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var nextCursorStr *string
	actualItems := items
	if len(items) > limit {
		actualItems = items[:limit]
		lastItem := actualItems[len(actualItems)-1]
		cursor := pagination.EncodeCursor(lastItem.CreatedAt.UTC(), lastItem.ID)
		nextCursorStr = &cursor
	}

	writeJSON(w, log, http.StatusOK, Response{Items: actualItems, NextCursor: nextCursorStr})
}

// IngestRunner triggers one ingestion pass. Implemented by pipeline.Pipeline.
type IngestRunner interface {
	Run(ctx context.Context) pipeline.Result
}

// IngestHandler exposes the pipeline trigger. A mutex keeps runs from
// overlapping: a trigger while a run is in flight is rejected rather than
// queued.
type IngestHandler struct {
	runner  IngestRunner
	mu      sync.Mutex
	running bool
}

// NewIngestHandler creates the trigger handler.
func NewIngestHandler(runner IngestRunner) *IngestHandler {
	return &IngestHandler{runner: runner}
}

// FetchNews runs one ingestion pass and returns its aggregate result.
func (h *IngestHandler) FetchNews(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		log.Warn().Msg("Ingestion trigger rejected, run already in flight")
		http.Error(w, "Ingestion run already in progress", http.StatusConflict)
		return
	}
	h.running = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.running = false
		h.mu.Unlock()
	}()

	log.Info().Msg("Ingestion run triggered via API")
	result := h.runner.Run(r.Context())

	status := http.StatusOK
	if result.Status == pipeline.StatusError {
		status = http.StatusInternalServerError
	}
	writeJSON(w, log, status, result)
}

func writeJSON(w http.ResponseWriter, log *zerolog.Logger, status int, v any) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("Error marshaling JSON response")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(jsonBytes); err != nil {
		log.Error().Err(err).Msg("Error writing JSON response body to client")
	}
}
