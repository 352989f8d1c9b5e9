package feeds

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"

	"newsloom/ingestor/internal/config"
)

// Enumerator fetches and parses configured feeds, filters entries by
// recency and emits at most MaxEntries of the most recent per feed.
type Enumerator struct {
	parser *gofeed.Parser

	// Window is the recency window; entries published earlier than
	// now-Window are discarded.
	Window time.Duration
	// MaxEntries caps how many entries one feed contributes per run.
	MaxEntries int
	// DropUndated skips entries with unparsable publish timestamps
	// instead of stamping them with the ingestion time.
	DropUndated bool

	now func() time.Time
}

// NewEnumerator builds an enumerator with the given pipeline settings.
func NewEnumerator(cfg config.PipelineConfig, client *http.Client) *Enumerator {
	parser := gofeed.NewParser()
	parser.UserAgent = config.FeedUserAgent
	if client != nil {
		parser.Client = client
	}

	return &Enumerator{
		parser:      parser,
		Window:      cfg.RecencyWindow(),
		MaxEntries:  cfg.MaxEntriesPerFeed,
		DropUndated: cfg.DropUndated,
		now:         time.Now,
	}
}

// Enumerate fetches one feed and returns its recent entries, most recent
// first, capped at MaxEntries. Fetch and parse failures are returned to the
// caller, which isolates them at feed granularity.
func (e *Enumerator) Enumerate(ctx context.Context, feedURL string) ([]RawEntry, error) {
	feed, err := e.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", feedURL, err)
	}

	now := e.now()
	cutoff := now.Add(-e.Window)

	entries := make([]RawEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil || item.Link == "" {
			continue
		}

		published, ok := publishedTime(item)
		if !ok {
			if e.DropUndated {
				log.Debug().Str("link", item.Link).Msg("Dropping entry with unparsable timestamp")
				continue
			}
			// Stamped as "now" so the entry survives the recency filter.
			published = now
		}

		if published.Before(cutoff) {
			continue
		}

		entry := newRawEntry(item)
		entry.PublishedAt = published
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PublishedAt.After(entries[j].PublishedAt)
	})

	if e.MaxEntries > 0 && len(entries) > e.MaxEntries {
		entries = entries[:e.MaxEntries]
	}

	return entries, nil
}

func publishedTime(item *gofeed.Item) (time.Time, bool) {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed, true
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed, true
	}
	return time.Time{}, false
}
