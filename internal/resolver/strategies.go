package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lrstanley/go-ytdlp"
	"github.com/ppalone/ytsearch"
	"github.com/raitonoberu/ytmusic"
	"github.com/tunedrop/tunedrop/internal/locator"
	"github.com/tunedrop/tunedrop/internal/models"
	"github.com/tunedrop/tunedrop/internal/shared"
)

// FromConfig builds the strategy chain from its configured names. Unknown
// names are rejected so a typo in the config fails loudly at startup.
func FromConfig(src shared.Source) ([]Strategy, error) {
	strategies := make([]Strategy, 0, len(src.Strategies))

	for _, name := range src.Strategies {
		switch {
		case name == "ytsearch":
			strategies = append(strategies, &SearchAPIStrategy{})
		case name == "ytmusic":
			strategies = append(strategies, &MusicAPIStrategy{})
		case strings.HasPrefix(name, "ytdlp:"):
			client := strings.TrimPrefix(name, "ytdlp:")
			if client == "" {
				return nil, fmt.Errorf("%w: strategy %q is missing a player client", shared.ErrInvalidConfig, name)
			}
			strategies = append(strategies, &YtdlpStrategy{PlayerClient: client, CookiesPath: src.CookiesPath})
		default:
			return nil, fmt.Errorf("%w: unknown strategy %q", shared.ErrInvalidConfig, name)
		}
	}

	if len(strategies) == 0 {
		return nil, fmt.Errorf("%w: no extraction strategies configured", shared.ErrInvalidConfig)
	}

	return strategies, nil
}

// SearchAPIStrategy resolves through the public search endpoint without a
// subprocess. Fast, but the first to be blocked behind consent walls.
type SearchAPIStrategy struct{}

func (s *SearchAPIStrategy) Name() string { return "ytsearch" }

func (s *SearchAPIStrategy) Search(ctx context.Context, query string, limit int) ([]models.CandidateItem, error) {
	c := ytsearch.NewClient(nil)
	res, err := c.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ytsearch query failed: %w", err)
	}

	items := make([]models.CandidateItem, 0, len(res.Results))
	for _, r := range res.Results {
		items = append(items, models.CandidateItem{
			VideoID:     r.VideoID,
			Title:       r.Title,
			Uploader:    r.Channel,
			DurationSec: parseClockDuration(r.Duration),
			SourceURL:   locator.WatchURL(r.VideoID),
		})
		if len(items) == limit {
			break
		}
	}

	return items, nil
}

// Lookup searches for the bare id and picks the exact match. The search
// endpoint ranks an id query's own video first in practice.
func (s *SearchAPIStrategy) Lookup(ctx context.Context, videoID string) (*models.CandidateItem, error) {
	items, err := s.Search(ctx, videoID, 10)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if item.VideoID == videoID {
			return &item, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", shared.ErrNoResults, videoID)
}

// MusicAPIStrategy resolves through the music endpoint. Results skew toward
// official tracks, which is what a song query usually wants.
type MusicAPIStrategy struct{}

func (m *MusicAPIStrategy) Name() string { return "ytmusic" }

func (m *MusicAPIStrategy) Search(ctx context.Context, query string, limit int) ([]models.CandidateItem, error) {
	search := ytmusic.TrackSearch(query)
	result, err := search.Next()
	if err != nil {
		return nil, fmt.Errorf("ytmusic query failed: %w", err)
	}

	items := make([]models.CandidateItem, 0, len(result.Tracks))
	for _, track := range result.Tracks {
		if track.VideoID == "" {
			continue
		}

		item := models.CandidateItem{
			VideoID:     track.VideoID,
			Title:       track.Title,
			DurationSec: track.Duration,
			SourceURL:   locator.WatchURL(track.VideoID),
		}
		if len(track.Artists) > 0 {
			item.Uploader = track.Artists[0].Name
		}
		if len(track.Thumbnails) > 0 {
			item.ThumbnailURL = track.Thumbnails[len(track.Thumbnails)-1].URL
		}

		items = append(items, item)
		if len(items) == limit {
			break
		}
	}

	return items, nil
}

// Lookup is not offered by the music endpoint; the resolver falls through to
// the next strategy.
func (m *MusicAPIStrategy) Lookup(ctx context.Context, videoID string) (*models.CandidateItem, error) {
	return nil, fmt.Errorf("%w: ytmusic cannot look up a video id", shared.ErrNotImplemented)
}

// YtdlpStrategy resolves through a yt-dlp subprocess pinned to a single
// player client persona. Heavier than the API strategies but the most
// resilient to access walls, especially when a cookie jar is configured.
type YtdlpStrategy struct {
	PlayerClient string
	CookiesPath  string
}

func (y *YtdlpStrategy) Name() string { return "ytdlp:" + y.PlayerClient }

// probeInfo is the subset of yt-dlp's JSON output the resolver needs.
type probeInfo struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Uploader  string     `json:"uploader"`
	Duration  float64    `json:"duration"`
	Thumbnail string     `json:"thumbnail"`
	Entries   []probeInfo `json:"entries"`
}

func (y *YtdlpStrategy) command() *ytdlp.Command {
	cmd := ytdlp.New().
		Quiet().
		NoWarnings().
		NoPlaylist().
		SkipDownload().
		DumpSingleJSON().
		ExtractorArgs("youtube:player_client=" + y.PlayerClient)

	if y.CookiesPath != "" {
		cmd = cmd.Cookies(y.CookiesPath)
	}

	return cmd
}

func (y *YtdlpStrategy) Lookup(ctx context.Context, videoID string) (*models.CandidateItem, error) {
	result, err := y.command().Run(ctx, locator.WatchURL(videoID))
	if err != nil {
		return nil, fmt.Errorf("yt-dlp probe failed: %w", err)
	}

	var info probeInfo
	if err := json.Unmarshal([]byte(result.Stdout), &info); err != nil {
		return nil, fmt.Errorf("yt-dlp probe returned malformed JSON: %w", err)
	}
	if info.ID != videoID {
		return nil, fmt.Errorf("yt-dlp probe resolved a different video: %s", info.ID)
	}

	item := infoToItem(info)
	return &item, nil
}

func (y *YtdlpStrategy) Search(ctx context.Context, query string, limit int) ([]models.CandidateItem, error) {
	result, err := y.command().FlatPlaylist().Run(ctx, fmt.Sprintf("ytsearch%d:%s", limit, query))
	if err != nil {
		return nil, fmt.Errorf("yt-dlp search failed: %w", err)
	}

	var listing probeInfo
	if err := json.Unmarshal([]byte(result.Stdout), &listing); err != nil {
		return nil, fmt.Errorf("yt-dlp search returned malformed JSON: %w", err)
	}

	items := make([]models.CandidateItem, 0, len(listing.Entries))
	for _, entry := range listing.Entries {
		items = append(items, infoToItem(entry))
	}

	return items, nil
}

func infoToItem(info probeInfo) models.CandidateItem {
	return models.CandidateItem{
		VideoID:      info.ID,
		Title:        info.Title,
		Uploader:     info.Uploader,
		DurationSec:  int(info.Duration),
		ThumbnailURL: info.Thumbnail,
		SourceURL:    locator.WatchURL(info.ID),
	}
}

// parseClockDuration converts "H:MM:SS" / "M:SS" strings to seconds.
// Malformed input yields 0, which downstream treats as unknown duration.
func parseClockDuration(clock string) int {
	if clock == "" {
		return 0
	}

	total := 0
	for _, part := range strings.Split(clock, ":") {
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(part), "%d", &n); err != nil {
			return 0
		}
		total = total*60 + n
	}

	return total
}
