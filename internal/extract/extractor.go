// Package extract produces the best-available article text for a feed entry
// using a tiered fallback strategy, from cheapest (feed-embedded text) to
// most expensive (full-page scraping).
package extract

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"newsloom/ingestor/internal/config"
	"newsloom/ingestor/internal/feeds"
)

// SentinelNoDescription is returned when every tier comes up empty. The
// entry still proceeds through the pipeline with degraded annotations.
const SentinelNoDescription = "no description available"

// minReadableWords is the floor below which readability-style extraction is
// considered to have failed and the raw paragraph scan takes over.
const minReadableWords = 40

var contentClassExpr = regexp.MustCompile(`(?i)(article|content|story|entry|post)[-_]?(body|text|main)?`)

// Extractor resolves a RawEntry to article text. Each network fetch failure
// degrades to the next tier rather than aborting the item.
type Extractor struct {
	client *http.Client

	// MinWords is the threshold below which feed-embedded text is
	// considered insufficient and page scraping is attempted.
	MinWords int
}

// NewExtractor builds an extractor; a nil client gets a 15s-timeout default.
func NewExtractor(client *http.Client, minWords int) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if minWords <= 0 {
		minWords = config.DefaultMinExtractWords
	}
	return &Extractor{client: client, MinWords: minWords}
}

// candidateField pairs a field name with its accessor so the probe order
// over the many optional feed fields stays fixed and explicit.
type candidateField struct {
	name string
	get  func(feeds.RawEntry) string
}

var entryFields = []candidateField{
	{"description", func(e feeds.RawEntry) string { return e.Description }},
	{"summary", func(e feeds.RawEntry) string { return e.Summary }},
	{"content", func(e feeds.RawEntry) string { return e.Content }},
	{"content:encoded", func(e feeds.RawEntry) string { return e.ContentEncoded }},
	{"media:description", func(e feeds.RawEntry) string { return e.MediaDescription }},
	{"media:text", func(e feeds.RawEntry) string { return e.MediaText }},
	{"media:content", func(e feeds.RawEntry) string { return e.MediaContentDesc }},
}

// Extract applies the tiers in strict priority order and returns the first
// sufficiently long result. When no tier produces enough words, the longest
// non-empty candidate wins; when nothing at all is found, the sentinel.
// fullPage reports whether the returned text came from full-page extraction,
// which downstream summarization uses to decide on its widened retry.
func (x *Extractor) Extract(ctx context.Context, entry feeds.RawEntry) (text string, fullPage bool) {
	best := ""
	bestFromPage := false

	// Tier 1: feed-embedded text fields, first non-empty wins.
	for _, field := range entryFields {
		if text := strings.TrimSpace(field.get(entry)); text != "" {
			best = text
			if wordCount(text) >= x.MinWords {
				return text, false
			}
			break
		}
	}

	// Tiers 2-3 need the article page; any fetch or parse failure keeps
	// whatever tier 1 produced.
	if entry.Link != "" {
		if doc, err := x.fetchPage(ctx, entry.Link); err != nil {
			log.Debug().Err(err).Str("link", entry.Link).Msg("Article page fetch failed, degrading")
		} else {
			if meta := metaDescription(doc); meta != "" {
				if wordCount(meta) > wordCount(best) {
					best, bestFromPage = meta, false
				}
				if wordCount(meta) >= x.MinWords {
					return meta, false
				}
			}

			if body := readableText(doc); body != "" {
				if wordCount(body) > wordCount(best) {
					best, bestFromPage = body, true
				}
				if wordCount(body) >= x.MinWords {
					return body, true
				}
			}
		}
	}

	if best != "" {
		return best, bestFromPage
	}

	// Tier 4: media-attached caption/title text.
	if caption := strings.TrimSpace(entry.MediaTitle); caption != "" {
		return caption, false
	}

	return SentinelNoDescription, false
}

func (x *Extractor) fetchPage(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", config.PageUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := x.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}

// metaDescription reads the page's description meta tag, preferring the
// plain name over the Open Graph variant.
func metaDescription(doc *goquery.Document) string {
	for _, selector := range []string{
		`meta[name="description"]`,
		`meta[property="og:description"]`,
	} {
		if content, ok := doc.Find(selector).First().Attr("content"); ok {
			if text := strings.TrimSpace(content); text != "" {
				return text
			}
		}
	}
	return ""
}

// readableText performs readability-style extraction: article paragraphs
// first, then all paragraphs, then content-flagged containers matched by
// class-name heuristics.
func readableText(doc *goquery.Document) string {
	if text := paragraphText(doc.Find("article p")); wordCount(text) >= minReadableWords {
		return text
	}

	if text := paragraphText(doc.Find("p")); wordCount(text) >= minReadableWords {
		return text
	}

	var parts []string
	doc.Find("div, section").Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		if class == "" || !contentClassExpr.MatchString(class) {
			return
		}
		// Skip containers whose content is already covered by a matched parent.
		if sel.Children().Is("div, section") {
			return
		}
		if text := strings.TrimSpace(sel.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}

func paragraphText(sel *goquery.Selection) string {
	var parts []string
	sel.Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}
