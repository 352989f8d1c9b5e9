package feeds

import (
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

// RawEntry is one syndication item as parsed from a feed, flattened into the
// fixed set of optional text fields the extractor probes in priority order.
// It exists only for the duration of a single pipeline pass.
type RawEntry struct {
	Title       string
	Link        string
	PublishedAt time.Time

	// Candidate body fields, any subset may be empty.
	Description      string
	Summary          string
	Content          string
	ContentEncoded   string
	MediaDescription string
	MediaText        string
	MediaContentDesc string

	// Media-attached caption/title text, the extractor's last resort
	// before the sentinel.
	MediaTitle string

	ImageURL string
}

// newRawEntry flattens a gofeed item, pulling the media and content
// extension fields the extractor's tiers probe.
func newRawEntry(item *gofeed.Item) RawEntry {
	e := RawEntry{
		Title:       strings.TrimSpace(item.Title),
		Link:        strings.TrimSpace(item.Link),
		Description: item.Description,
		Content:     item.Content,
		Summary:     item.Custom["summary"],
	}

	e.ContentEncoded = extensionValue(item.Extensions, "content", "encoded")
	e.MediaDescription = extensionValue(item.Extensions, "media", "description")
	e.MediaText = extensionValue(item.Extensions, "media", "text")
	e.MediaTitle = extensionValue(item.Extensions, "media", "title")

	if media, ok := item.Extensions["media"]; ok {
		for _, content := range media["content"] {
			if e.MediaContentDesc == "" {
				e.MediaContentDesc = childValue(content, "description")
			}
			if e.MediaContentDesc == "" {
				e.MediaContentDesc = childValue(content, "title")
			}
			if e.ImageURL == "" {
				e.ImageURL = content.Attrs["url"]
			}
		}
		if e.ImageURL == "" {
			for _, thumb := range media["thumbnail"] {
				e.ImageURL = thumb.Attrs["url"]
				break
			}
		}
	}

	if e.ImageURL == "" && item.Image != nil {
		e.ImageURL = item.Image.URL
	}

	return e
}

func extensionValue(extensions ext.Extensions, namespace, name string) string {
	ns, ok := extensions[namespace]
	if !ok {
		return ""
	}
	for _, entry := range ns[name] {
		if v := strings.TrimSpace(entry.Value); v != "" {
			return v
		}
	}
	return ""
}

func childValue(parent ext.Extension, name string) string {
	for _, child := range parent.Children[name] {
		if v := strings.TrimSpace(child.Value); v != "" {
			return v
		}
	}
	return ""
}

// SourceFromURL derives the human-facing source name from a feed or article
// URL: the hostname without a leading "www.".
func SourceFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
