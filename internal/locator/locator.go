// package locator classifies user input as a direct video URL or a search phrase
package locator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tunedrop/tunedrop/internal/shared"
)

// Kind discriminates the two MediaLocator variants.
type Kind int

const (
	KindDirectURL Kind = iota
	KindSearchQuery
)

// MediaLocator is the classified form of one user input. For KindDirectURL
// the URL is canonical: playlist, timestamp and tracking parameters are
// stripped and the link reduced to a single watch URL.
type MediaLocator struct {
	Kind    Kind
	URL     string // canonical watch URL, set for KindDirectURL
	VideoID string // set for KindDirectURL
	Query   string // set for KindSearchQuery
}

var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/watch\?(?:.*&)?v=([\w-]{11})`),
	regexp.MustCompile(`^https?://(?:www\.)?youtu\.be/([\w-]{11})`),
	regexp.MustCompile(`^https?://(?:www\.)?m\.youtube\.com/watch\?(?:.*&)?v=([\w-]{11})`),
	regexp.MustCompile(`^https?://(?:www\.)?music\.youtube\.com/watch\?(?:.*&)?v=([\w-]{11})`),
	regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/embed/([\w-]{11})`),
	regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/v/([\w-]{11})`),
	regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/shorts/([\w-]{11})`),
}

// Classify decides whether text is a direct video URL or a search phrase.
//
// Pure function, no side effects. Empty or whitespace-only input fails with
// [shared.ErrEmptyQuery]; anything that is not a recognized video URL is
// treated as a search query verbatim.
func Classify(text string) (MediaLocator, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return MediaLocator{}, fmt.Errorf("%w: empty input", shared.ErrEmptyQuery)
	}

	if id := ExtractVideoID(trimmed); id != "" {
		return MediaLocator{
			Kind:    KindDirectURL,
			URL:     WatchURL(id),
			VideoID: id,
		}, nil
	}

	return MediaLocator{Kind: KindSearchQuery, Query: trimmed}, nil
}

// ExtractVideoID returns the 11-character video id from any recognized URL
// shape, or "" when the text is not a video URL.
func ExtractVideoID(text string) string {
	for _, pattern := range urlPatterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			return match[1]
		}
	}
	return ""
}

// WatchURL builds the canonical single-video watch URL for a video id.
func WatchURL(videoID string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
}

// IsVideoID reports whether s looks like a bare 11-character video id.
func IsVideoID(s string) bool {
	if len(s) != 11 {
		return false
	}
	for _, r := range s {
		if !(r == '-' || r == '_' ||
			(r >= '0' && r <= '9') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= 'a' && r <= 'z')) {
			return false
		}
	}
	return true
}
