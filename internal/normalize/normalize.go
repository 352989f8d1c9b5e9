// Package normalize turns raw markup or feed text into clean prose suitable
// for annotation.
package normalize

import (
	"regexp"
	"strings"
)

// SentinelTooShort replaces normalized text whose token count falls below
// the minimum. Downstream stages treat it as degraded content, not an error.
const SentinelTooShort = "content too short"

const defaultMinWords = 3

var (
	tagExpr        = regexp.MustCompile(`<[^>]*>`)
	disallowedExpr = regexp.MustCompile(`[^\w\s.,!?\-;:()'"@#&]`)
	spaceExpr      = regexp.MustCompile(`\s+`)
)

// Normalizer sanitizes extracted text. The zero value uses the default
// minimum word count.
type Normalizer struct {
	// MinWords is the token count below which the result is replaced by
	// SentinelTooShort.
	MinWords int
}

// Clean strips markup tags, removes characters outside the allow-list,
// collapses whitespace runs and trims the edges. If the result has fewer
// than MinWords tokens it returns SentinelTooShort instead.
func (n Normalizer) Clean(raw string) string {
	min := n.MinWords
	if min <= 0 {
		min = defaultMinWords
	}

	text := tagExpr.ReplaceAllString(raw, " ")
	text = disallowedExpr.ReplaceAllString(text, "")
	text = spaceExpr.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	if len(strings.Fields(text)) < min {
		return SentinelTooShort
	}
	return text
}
