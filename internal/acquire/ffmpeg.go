package acquire

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

// FFmpeg shells out to the ffmpeg binary for audio transcoding, image
// conversion and metadata embedding.
type FFmpeg struct {
	Bin    string
	logger *log.Logger
}

// NewFFmpeg creates a transcoder using the ffmpeg binary on PATH.
func NewFFmpeg(logger *log.Logger) *FFmpeg {
	return &FFmpeg{Bin: "ffmpeg", logger: logger}
}

// Transcode converts inputPath to an MP3 at the given bitrate, dropping any
// video streams.
func (f *FFmpeg) Transcode(ctx context.Context, inputPath, outputPath, bitrate string) error {
	return f.run(ctx, BuildTranscodeArgs(inputPath, outputPath, bitrate))
}

// ConvertImage re-encodes inputPath into the format implied by outputPath's
// extension.
func (f *FFmpeg) ConvertImage(ctx context.Context, inputPath, outputPath string) error {
	return f.run(ctx, BuildConvertArgs(inputPath, outputPath))
}

// Embed writes outputPath as a copy of audioPath with ID3 title and artist
// tags, attaching coverPath as front cover art when it is non-empty. The
// audio stream is copied, not re-encoded.
func (f *FFmpeg) Embed(ctx context.Context, audioPath, coverPath, outputPath string, meta Metadata) error {
	return f.run(ctx, BuildEmbedArgs(audioPath, coverPath, outputPath, meta))
}

func (f *FFmpeg) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, f.Bin, args...)

	var stderr strings.Builder
	cmd.Stderr = &stderr

	f.logger.Debug("running ffmpeg", "args", strings.Join(args, " "))

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// ffmpeg reports the actual failure near the end of stderr.
		return fmt.Errorf("ffmpeg: %v: %s", err, tail(stderr.String(), 300))
	}

	return nil
}

// BuildTranscodeArgs assembles the argument list for an audio-only MP3
// transcode.
func BuildTranscodeArgs(inputPath, outputPath, bitrate string) []string {
	return []string{
		"-y",
		"-i", inputPath,
		"-vn",
		"-c:a", "libmp3lame",
		"-b:a", bitrate,
		outputPath,
	}
}

// BuildConvertArgs assembles the argument list for a plain image conversion.
func BuildConvertArgs(inputPath, outputPath string) []string {
	return []string{"-y", "-i", inputPath, outputPath}
}

// BuildEmbedArgs assembles the argument list for tagging audioPath and
// attaching coverPath as cover art. An empty coverPath tags without art.
func BuildEmbedArgs(audioPath, coverPath, outputPath string, meta Metadata) []string {
	args := []string{"-y", "-i", audioPath}

	if coverPath != "" {
		args = append(args, "-i", coverPath)
	}

	args = append(args, "-map", "0:a")
	if coverPath != "" {
		args = append(args, "-map", "1:0")
	}

	args = append(args, "-c", "copy", "-id3v2_version", "3")

	if meta.Title != "" {
		args = append(args, "-metadata", "title="+meta.Title)
	}
	if meta.Performer != "" {
		args = append(args, "-metadata", "artist="+meta.Performer)
	}

	if coverPath != "" {
		args = append(args, "-disposition:v:0", "attached_pic")
	}

	return append(args, outputPath)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
