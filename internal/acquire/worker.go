// package acquire performs the fetch-and-transcode pipeline for one resolved
// media item.
//
// Each acquisition owns a private workspace directory under the configured
// temp root. The workspace is removed on every exit path: success hands an
// [Artifact] to the caller, who discards it after delivery; any failure
// removes it before the error is returned. No retries happen here; a failed
// acquisition is reported to the caller as-is.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/tunedrop/tunedrop/internal/formatter"
	"github.com/tunedrop/tunedrop/internal/models"
	"github.com/tunedrop/tunedrop/internal/shared"
)

// bytesPerSecondAt192k approximates the output size of a second of audio at
// the fixed 192kbps profile, used for the pre-transfer size estimate.
const bytesPerSecondAt192k = 24000

// DownloadResult describes the media file fetched into the workspace.
type DownloadResult struct {
	Path        string
	Title       string
	Uploader    string
	DurationSec int
}

// Downloader fetches the source media for a watch URL into dir, reporting
// whole percents through progress as the transfer advances.
type Downloader interface {
	Download(ctx context.Context, sourceURL, dir string, progress func(percent int)) (DownloadResult, error)
}

// Metadata is embedded into the final artifact.
type Metadata struct {
	Title     string
	Performer string
}

// Transcoder converts media between formats. Implementations treat each call
// as atomic: there is no incremental progress for transcoding.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath, outputPath, bitrate string) error
	ConvertImage(ctx context.Context, inputPath, outputPath string) error
	Embed(ctx context.Context, audioPath, coverPath, outputPath string, meta Metadata) error
}

// Artifact is the finished audio file plus its delivery metadata. It remains
// valid until Discard is called.
type Artifact struct {
	Path        string
	ThumbPath   string
	Title       string
	Performer   string
	DurationSec int
	SizeBytes   int64

	workspace string
}

// Discard removes the artifact's workspace. Safe to call more than once.
func (a *Artifact) Discard() {
	if a.workspace != "" {
		os.RemoveAll(a.workspace)
		a.workspace = ""
	}
}

// Worker runs acquisitions. A single Worker serves all concurrent requests;
// it holds no per-request state, so invocations never contend.
type Worker struct {
	downloader Downloader
	transcoder Transcoder
	fetchImage func(url string) ([]byte, error)
	cfg        shared.Audio
	logger     *log.Logger
}

// NewWorker creates a Worker using the given collaborators.
func NewWorker(downloader Downloader, transcoder Transcoder, cfg shared.Audio, logger *log.Logger) *Worker {
	return &Worker{
		downloader: downloader,
		transcoder: transcoder,
		fetchImage: formatter.DownloadImage,
		cfg:        cfg,
		logger:     logger,
	}
}

// Acquire runs the full pipeline for item: size estimate, transfer,
// transcode, thumbnail normalization, metadata embedding and the final size
// check. progress receives whole percents in [0,99]; completion is signaled
// by returning, never by a 100 value.
func (w *Worker) Acquire(ctx context.Context, item models.CandidateItem, progress func(percent int)) (*Artifact, error) {
	workspace := filepath.Join(w.cfg.TempDir, uuid.New().String())
	if err := os.MkdirAll(workspace, 0755); err != nil {
		return nil, fmt.Errorf("%w: creating workspace: %v", shared.ErrFilesystem, err)
	}

	delivered := false
	defer func() {
		if !delivered {
			os.RemoveAll(workspace)
		}
	}()

	logger := w.logger.With("video", item.VideoID, "workspace", filepath.Base(workspace))

	// A track that cannot possibly fit is rejected before any bytes move.
	maxBytes := w.cfg.MaxFileSizeBytes()
	if item.DurationSec > 0 && int64(item.DurationSec)*bytesPerSecondAt192k > maxBytes {
		return nil, fmt.Errorf("%w: estimated %s for %d seconds",
			shared.ErrOversizeArtifact,
			formatter.FormatFileSize(int64(item.DurationSec)*bytesPerSecondAt192k),
			item.DurationSec)
	}

	result, err := w.download(ctx, item, workspace, progress)
	if err != nil {
		return nil, err
	}

	// Search strategies return full metadata; bare URL probes may not, in
	// which case the downloader's extracted info fills the gaps.
	title, performer, durationSec := item.Title, item.Uploader, item.DurationSec
	if !item.Complete() {
		if title == "" {
			title = result.Title
		}
		if durationSec == 0 {
			durationSec = result.DurationSec
		}
	}
	if performer == "" {
		performer = result.Uploader
	}

	transcoded := filepath.Join(workspace, "audio."+w.cfg.Format)
	if err := w.transcode(ctx, result.Path, transcoded); err != nil {
		return nil, err
	}

	// Thumbnail work is best effort: a missing cover never fails delivery.
	coverPath := w.normalizeThumbnail(ctx, item.ThumbnailURL, workspace, logger)

	final := filepath.Join(workspace, "final."+w.cfg.Format)
	meta := Metadata{Title: title, Performer: performer}
	if err := w.transcoder.Embed(ctx, transcoded, coverPath, final, meta); err != nil {
		return nil, fmt.Errorf("%w: embedding metadata: %v", shared.ErrTranscode, err)
	}

	info, err := os.Stat(final)
	if err != nil {
		return nil, fmt.Errorf("%w: inspecting artifact: %v", shared.ErrFilesystem, err)
	}
	if info.Size() > maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds the %s ceiling",
			shared.ErrOversizeArtifact,
			formatter.FormatFileSize(info.Size()),
			formatter.FormatFileSize(maxBytes))
	}

	logger.Info("acquisition complete", "size", formatter.FormatFileSize(info.Size()), "title", title)

	delivered = true
	return &Artifact{
		Path:        final,
		ThumbPath:   coverPath,
		Title:       title,
		Performer:   performer,
		DurationSec: durationSec,
		SizeBytes:   info.Size(),
		workspace:   workspace,
	}, nil
}

func (w *Worker) download(ctx context.Context, item models.CandidateItem, workspace string, progress func(int)) (DownloadResult, error) {
	transferCtx, cancel := context.WithTimeout(ctx, w.cfg.TransferTimeout())
	defer cancel()

	capped := func(percent int) {
		if progress == nil {
			return
		}
		if percent > 99 {
			percent = 99
		}
		if percent >= 0 {
			progress(percent)
		}
	}

	result, err := w.downloader.Download(transferCtx, item.SourceURL, workspace, capped)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || transferCtx.Err() == context.DeadlineExceeded {
			return DownloadResult{}, fmt.Errorf("%w: after %s", shared.ErrTransferTimeout, w.cfg.TransferTimeout())
		}
		return DownloadResult{}, fmt.Errorf("%w: %v", shared.ErrSourceUnavailable, err)
	}

	return result, nil
}

func (w *Worker) transcode(ctx context.Context, inputPath, outputPath string) error {
	transcodeCtx, cancel := context.WithTimeout(ctx, w.cfg.TranscodeTimeout())
	defer cancel()

	if err := w.transcoder.Transcode(transcodeCtx, inputPath, outputPath, w.cfg.Bitrate); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || transcodeCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: after %s", shared.ErrTranscodeTimeout, w.cfg.TranscodeTimeout())
		}
		return fmt.Errorf("%w: %v", shared.ErrTranscode, err)
	}

	return nil
}

// normalizeThumbnail fetches the source thumbnail and converts it to JPEG,
// the only format the delivery transport embeds natively. Returns "" when no
// usable cover could be produced.
func (w *Worker) normalizeThumbnail(ctx context.Context, url, workspace string, logger *log.Logger) string {
	if url == "" {
		return ""
	}

	data, err := w.fetchImage(url)
	if err != nil {
		logger.Warn("thumbnail fetch failed", "err", err)
		return ""
	}

	raw := filepath.Join(workspace, "thumb_raw")
	if err := os.WriteFile(raw, data, 0644); err != nil {
		logger.Warn("thumbnail write failed", "err", err)
		return ""
	}

	cover := filepath.Join(workspace, "cover.jpg")
	if err := w.transcoder.ConvertImage(ctx, raw, cover); err != nil {
		logger.Warn("thumbnail conversion failed", "err", err)
		return ""
	}

	return cover
}

// SweepOrphans removes workspace directories older than maxAge from root.
// Run at startup to reclaim space left behind by a crashed process.
func SweepOrphans(root string, maxAge time.Duration, logger *log.Logger) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(root, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			logger.Warn("orphan sweep failed", "path", path, "err", err)
			continue
		}
		logger.Info("removed orphaned workspace", "path", path)
	}
}
