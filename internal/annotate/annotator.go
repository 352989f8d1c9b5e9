package annotate

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

// SentinelNeutralLabel is the sentiment label recorded when classification
// fails; the paired score is 0.0.
const SentinelNeutralLabel = "neutral"

const (
	// minSummarizeWords is the input size below which the text is
	// returned as its own summary.
	minSummarizeWords = 5

	// summaryQualityFloorWords triggers the single widened retry when a
	// full article was available.
	summaryQualityFloorWords = 150

	// fallbackChars bounds the hard-truncation fallback used when the
	// model call fails outright.
	fallbackChars = 200

	// maxInputTokens is the summarization model's input budget; longer
	// inputs are truncated before the call to avoid a model error.
	maxInputTokens = 1024
)

// Length bounds for the two summarization attempts. Attempt parameters are
// fixed: at most two calls, never a general retry loop.
const (
	firstMaxCap   = 200
	firstMaxFloor = 60
	firstMinCap   = 100
	firstMinFloor = 20

	widenedMaxCap = 400
	widenedMin    = 150
)

// Annotator drives the three inference capabilities with the fallback
// policies that keep a broken model from ever aborting an article.
type Annotator struct {
	inference Inference
}

// New wires an annotator over the given inference transport.
func New(inference Inference) *Annotator {
	return &Annotator{inference: inference}
}

// Ready reports whether the models are loaded and usable. Callers treat an
// error as fatal for the whole run.
func (a *Annotator) Ready(ctx context.Context) error {
	return a.inference.Health(ctx)
}

// Summarize produces a summary of text with adaptive length bounds.
// fullArticle reports whether text came from a full article page rather
// than a short feed snippet; only then is the widened retry worthwhile.
// On any model failure the input is hard-truncated instead.
func (a *Annotator) Summarize(ctx context.Context, text string, fullArticle bool) string {
	words := len(strings.Fields(text))
	if words < minSummarizeWords {
		return text
	}

	input := truncateTokens(text, maxInputTokens)

	maxLen := clamp(words/2, firstMaxFloor, firstMaxCap)
	minLen := clamp(words/4, firstMinFloor, firstMinCap)

	summary, err := a.inference.Summarize(ctx, input, maxLen, minLen)
	if err != nil {
		log.Warn().Err(err).Msg("Summarization failed, falling back to truncation")
		return hardTruncate(text, fallbackChars)
	}

	if fullArticle && len(strings.Fields(summary)) < summaryQualityFloorWords {
		widenedMax := clamp(words, widenedMin+1, widenedMaxCap)
		widened, retryErr := a.inference.Summarize(ctx, input, widenedMax, widenedMin)
		if retryErr != nil {
			log.Warn().Err(retryErr).Msg("Widened summarization retry failed, keeping first result")
			return summary
		}
		return widened
	}

	return summary
}

// Sentiment classifies the title; on failure it returns the neutral
// sentinel with score 0.0 rather than propagating the error.
func (a *Annotator) Sentiment(ctx context.Context, title string) (string, float64) {
	label, score, err := a.inference.Sentiment(ctx, title)
	if err != nil {
		log.Warn().Err(err).Msg("Sentiment classification failed, using neutral sentinel")
		return SentinelNeutralLabel, 0.0
	}
	return label, score
}

// Entities extracts named entities grouped by type in order of appearance.
// Spans of types other than person/organization/location are discarded. On
// failure all three lists are empty, never nil.
func (a *Annotator) Entities(ctx context.Context, text string) (persons, organizations, locations []string) {
	persons = []string{}
	organizations = []string{}
	locations = []string{}

	spans, err := a.inference.Entities(ctx, text)
	if err != nil {
		log.Warn().Err(err).Msg("Entity extraction failed, using empty lists")
		return persons, organizations, locations
	}

	for _, span := range spans {
		switch strings.ToUpper(span.Group) {
		case "PER", "PERSON":
			persons = append(persons, span.Text)
		case "ORG", "ORGANIZATION":
			organizations = append(organizations, span.Text)
		case "LOC", "LOCATION":
			locations = append(locations, span.Text)
		}
	}
	return persons, organizations, locations
}

// truncateTokens bounds the model input: encode to tokens, cut at the
// budget, decode back to text.
func truncateTokens(text string, budget int) string {
	tokens := strings.Fields(text)
	if len(tokens) <= budget {
		return text
	}
	return strings.Join(tokens[:budget], " ")
}

func hardTruncate(text string, chars int) string {
	runes := []rune(text)
	if len(runes) <= chars {
		return text
	}
	return string(runes[:chars]) + "..."
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
