package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/tunedrop/tunedrop/internal/locator"
	"github.com/tunedrop/tunedrop/internal/models"
	"github.com/tunedrop/tunedrop/internal/shared"
)

type fakeStrategy struct {
	name       string
	searchResp []models.CandidateItem
	searchErr  error
	lookupResp *models.CandidateItem
	lookupErr  error
	calls      int
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Search(ctx context.Context, query string, limit int) ([]models.CandidateItem, error) {
	f.calls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResp, nil
}

func (f *fakeStrategy) Lookup(ctx context.Context, videoID string) (*models.CandidateItem, error) {
	f.calls++
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.lookupResp, nil
}

func item(id, title string) models.CandidateItem {
	return models.CandidateItem{VideoID: id, Title: title, DurationSec: 180}
}

func newResolver(strategies ...Strategy) *Resolver {
	return New(strategies, time.Second, 24, shared.NewLogger(io.Discard))
}

func searchLocator(q string) locator.MediaLocator {
	return locator.MediaLocator{Kind: locator.KindSearchQuery, Query: q}
}

func TestResolverFallbackOrder(t *testing.T) {
	a := &fakeStrategy{name: "a", searchErr: errors.New("consent wall")}
	b := &fakeStrategy{name: "b", searchErr: errors.New("geo block")}
	c := &fakeStrategy{name: "c", searchResp: []models.CandidateItem{item("ccccccccccc", "from c")}}

	items, err := newResolver(a, b, c).Resolve(context.Background(), searchLocator("some song"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(items) != 1 || items[0].Title != "from c" {
		t.Fatalf("expected c's result, got %+v", items)
	}
	if a.calls != 1 || b.calls != 1 || c.calls != 1 {
		t.Errorf("expected each strategy tried once, got a=%d b=%d c=%d", a.calls, b.calls, c.calls)
	}
}

func TestResolverFirstSuccessShortCircuits(t *testing.T) {
	a := &fakeStrategy{name: "a", searchResp: []models.CandidateItem{item("aaaaaaaaaaa", "from a")}}
	b := &fakeStrategy{name: "b", searchResp: []models.CandidateItem{item("bbbbbbbbbbb", "from b")}}

	items, err := newResolver(a, b).Resolve(context.Background(), searchLocator("x"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if items[0].Title != "from a" {
		t.Errorf("expected a's result, got %+v", items[0])
	}
	if b.calls != 0 {
		t.Errorf("strategy b should not have been tried, calls=%d", b.calls)
	}
}

func TestResolverAllExhaustedCollapsesError(t *testing.T) {
	a := &fakeStrategy{name: "a", searchErr: errors.New("auth wall: sign in to confirm")}
	b := &fakeStrategy{name: "b", searchErr: errors.New("HTTP 403")}

	_, err := newResolver(a, b).Resolve(context.Background(), searchLocator("x"))
	if !errors.Is(err, shared.ErrSourceUnavailable) {
		t.Fatalf("error = %v, want ErrSourceUnavailable", err)
	}
	// Individual strategy errors must not leak through the aggregate.
	for _, internal := range []string{"auth wall", "403"} {
		if errContains(err, internal) {
			t.Errorf("aggregated error leaks strategy detail %q: %v", internal, err)
		}
	}
}

func TestResolverEmptyResultFallsThrough(t *testing.T) {
	a := &fakeStrategy{name: "a", searchResp: nil}
	b := &fakeStrategy{name: "b", searchResp: []models.CandidateItem{item("bbbbbbbbbbb", "from b")}}

	items, err := newResolver(a, b).Resolve(context.Background(), searchLocator("x"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if items[0].Title != "from b" {
		t.Errorf("expected fallback to b, got %+v", items[0])
	}
}

func TestResolverFiltersPlaceholders(t *testing.T) {
	a := &fakeStrategy{name: "a", searchResp: []models.CandidateItem{
		item("aaaaaaaaaaa", "keep me"),
		item("bbbbbbbbbbb", "[Deleted video]"),
		item("ccccccccccc", "[Private video]"),
		item("short", "bad id"),
		item("aaaaaaaaaaa", "duplicate id"),
		item("ddddddddddd", "also keep"),
	}}

	items, err := newResolver(a).Resolve(context.Background(), searchLocator("x"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 usable items, got %d: %+v", len(items), items)
	}
	if items[0].Title != "keep me" || items[1].Title != "also keep" {
		t.Errorf("unexpected order or filtering: %+v", items)
	}
	for _, it := range items {
		if it.SourceURL == "" || it.ThumbnailURL == "" {
			t.Errorf("expected source and thumbnail URLs to be filled in: %+v", it)
		}
	}
}

func TestResolverCapsResults(t *testing.T) {
	var many []models.CandidateItem
	for i := 0; i < 40; i++ {
		many = append(many, item(fmt.Sprintf("vid%08d", i), fmt.Sprintf("song %d", i)))
	}
	a := &fakeStrategy{name: "a", searchResp: many}

	items, err := newResolver(a).Resolve(context.Background(), searchLocator("x"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(items) != 24 {
		t.Errorf("expected cap of 24 results, got %d", len(items))
	}
}

func TestResolverDirectLookup(t *testing.T) {
	want := item("dQw4w9WgXcQ", "direct hit")
	a := &fakeStrategy{name: "a", lookupErr: errors.New("blocked")}
	b := &fakeStrategy{name: "b", lookupResp: &want}

	loc := locator.MediaLocator{Kind: locator.KindDirectURL, VideoID: "dQw4w9WgXcQ"}
	items, err := newResolver(a, b).Resolve(context.Background(), loc)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(items) != 1 || items[0].Title != "direct hit" {
		t.Errorf("unexpected lookup result: %+v", items)
	}
}

func TestFromConfig(t *testing.T) {
	tests := []struct {
		name      string
		src       shared.Source
		wantNames []string
		wantErr   bool
	}{
		{
			name:      "full chain",
			src:       shared.Source{Strategies: []string{"ytsearch", "ytmusic", "ytdlp:web", "ytdlp:android"}},
			wantNames: []string{"ytsearch", "ytmusic", "ytdlp:web", "ytdlp:android"},
		},
		{
			name:    "unknown strategy",
			src:     shared.Source{Strategies: []string{"ytsearch", "bittorrent"}},
			wantErr: true,
		},
		{
			name:    "ytdlp without client",
			src:     shared.Source{Strategies: []string{"ytdlp:"}},
			wantErr: true,
		},
		{
			name:    "empty chain",
			src:     shared.Source{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategies, err := FromConfig(tt.src)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidConfig) {
					t.Fatalf("error = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FromConfig returned error: %v", err)
			}
			for i, want := range tt.wantNames {
				if got := strategies[i].Name(); got != want {
					t.Errorf("strategy[%d] = %q, want %q", i, got, want)
				}
			}
		})
	}
}

func TestParseClockDuration(t *testing.T) {
	tests := []struct {
		clock string
		want  int
	}{
		{"3:45", 225},
		{"1:02:03", 3723},
		{"0:59", 59},
		{"", 0},
		{"junk", 0},
	}

	for _, tt := range tests {
		if got := parseClockDuration(tt.clock); got != tt.want {
			t.Errorf("parseClockDuration(%q) = %d, want %d", tt.clock, got, tt.want)
		}
	}
}

func errContains(err error, substr string) bool {
	return err != nil && strings.Contains(err.Error(), substr)
}
