package locator

import (
	"errors"
	"testing"

	"github.com/tunedrop/tunedrop/internal/shared"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind Kind
		wantID   string
		wantURL  string
	}{
		{
			name:     "plain watch URL",
			input:    "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			wantKind: KindDirectURL,
			wantID:   "dQw4w9WgXcQ",
			wantURL:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name:     "short link with playlist parameter",
			input:    "https://youtu.be/abc123def45?list=PLxyz&index=3",
			wantKind: KindDirectURL,
			wantID:   "abc123def45",
			wantURL:  "https://www.youtube.com/watch?v=abc123def45",
		},
		{
			name:     "watch URL with playlist and timestamp",
			input:    "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLfoo&t=42s",
			wantKind: KindDirectURL,
			wantID:   "dQw4w9WgXcQ",
			wantURL:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name:     "mobile URL",
			input:    "https://m.youtube.com/watch?v=dQw4w9WgXcQ",
			wantKind: KindDirectURL,
			wantID:   "dQw4w9WgXcQ",
		},
		{
			name:     "music URL",
			input:    "https://music.youtube.com/watch?v=dQw4w9WgXcQ",
			wantKind: KindDirectURL,
			wantID:   "dQw4w9WgXcQ",
		},
		{
			name:     "embed URL",
			input:    "https://www.youtube.com/embed/dQw4w9WgXcQ",
			wantKind: KindDirectURL,
			wantID:   "dQw4w9WgXcQ",
		},
		{
			name:     "shorts URL",
			input:    "https://www.youtube.com/shorts/dQw4w9WgXcQ",
			wantKind: KindDirectURL,
			wantID:   "dQw4w9WgXcQ",
		},
		{
			name:     "search phrase",
			input:    "never gonna give you up",
			wantKind: KindSearchQuery,
		},
		{
			name:     "non-video URL treated as search",
			input:    "https://example.com/watch?v=dQw4w9WgXcQ",
			wantKind: KindSearchQuery,
		},
		{
			name:     "playlist-only URL treated as search",
			input:    "https://www.youtube.com/playlist?list=PLxyz",
			wantKind: KindSearchQuery,
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "  https://youtu.be/dQw4w9WgXcQ  ",
			wantKind: KindDirectURL,
			wantID:   "dQw4w9WgXcQ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := Classify(tt.input)
			if err != nil {
				t.Fatalf("Classify(%q) returned error: %v", tt.input, err)
			}
			if loc.Kind != tt.wantKind {
				t.Errorf("Classify(%q) kind = %v, want %v", tt.input, loc.Kind, tt.wantKind)
			}
			if tt.wantID != "" && loc.VideoID != tt.wantID {
				t.Errorf("Classify(%q) video id = %q, want %q", tt.input, loc.VideoID, tt.wantID)
			}
			if tt.wantURL != "" && loc.URL != tt.wantURL {
				t.Errorf("Classify(%q) url = %q, want %q", tt.input, loc.URL, tt.wantURL)
			}
			if tt.wantKind == KindSearchQuery && loc.Query == "" {
				t.Errorf("Classify(%q) produced empty query", tt.input)
			}
		})
	}
}

func TestClassifyEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t"} {
		if _, err := Classify(input); !errors.Is(err, shared.ErrEmptyQuery) {
			t.Errorf("Classify(%q) error = %v, want ErrEmptyQuery", input, err)
		}
	}
}

func TestIsVideoID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"dQw4w9WgXcQ", true},
		{"abc-123_def", true},
		{"short", false},
		{"dQw4w9WgXcQtoolong", false},
		{"has space!!!", false},
	}

	for _, tt := range tests {
		if got := IsVideoID(tt.id); got != tt.want {
			t.Errorf("IsVideoID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
