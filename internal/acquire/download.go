package acquire

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lrstanley/go-ytdlp"
)

// YtdlpDownloader fetches source media through yt-dlp, selecting the best
// available audio-only format.
type YtdlpDownloader struct {
	// CookiesPath points at a Netscape cookie jar for age or region gated
	// media. Empty disables cookie auth.
	CookiesPath string

	logger *log.Logger
}

// NewYtdlpDownloader creates a downloader; cookiesPath may be empty.
func NewYtdlpDownloader(cookiesPath string, logger *log.Logger) *YtdlpDownloader {
	return &YtdlpDownloader{CookiesPath: cookiesPath, logger: logger}
}

// Download fetches sourceURL into dir as source.<ext>, reporting transfer
// percents through progress at most every 500ms.
func (d *YtdlpDownloader) Download(ctx context.Context, sourceURL, dir string, progress func(percent int)) (DownloadResult, error) {
	dl := ytdlp.New().
		Quiet().
		NoWarnings().
		NoPlaylist().
		ForceOverwrites().
		RestrictFilenames().
		Format("bestaudio/best").
		Output(filepath.Join(dir, "source.%(ext)s"))

	if d.CookiesPath != "" {
		dl = dl.Cookies(d.CookiesPath)
	}

	dl.ProgressFunc(500*time.Millisecond, func(update ytdlp.ProgressUpdate) {
		if progress == nil || update.TotalBytes <= 0 {
			return
		}
		progress(int(float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100))
	})

	result, err := dl.Run(ctx, sourceURL)
	if err != nil {
		return DownloadResult{}, err
	}

	info, err := result.GetExtractedInfo()
	if err != nil || len(info) == 0 {
		return DownloadResult{}, fmt.Errorf("no media info for %s: %v", sourceURL, err)
	}

	out := DownloadResult{}
	if info[0].Filename != nil {
		out.Path = *info[0].Filename
	}
	if info[0].Title != nil {
		out.Title = *info[0].Title
	}
	if info[0].Uploader != nil {
		out.Uploader = *info[0].Uploader
	}
	if info[0].Duration != nil {
		out.DurationSec = int(*info[0].Duration)
	}

	if out.Path == "" {
		// Older extractors omit the filename field; fall back to the
		// output template we passed.
		matches, globErr := filepath.Glob(filepath.Join(dir, "source.*"))
		if globErr != nil || len(matches) == 0 {
			return DownloadResult{}, fmt.Errorf("downloaded file not found in %s", dir)
		}
		out.Path = matches[0]
	}

	d.logger.Debug("download finished", "url", sourceURL, "path", out.Path)

	return out, nil
}
