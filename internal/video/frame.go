// Package video extracts representative frames from video files with ffmpeg.
package video

import (
	"bytes"
	"fmt"
	"log/slog"
	"os/exec"
)

// scaleExpr caps the larger dimension at 768px while preserving aspect ratio.
const scaleExpr = "scale='if(gt(iw,ih),768,-1)':'if(gt(iw,ih),-1,768)'"

// FFmpegExtractor shells out to ffmpeg to grab a single frame.
type FFmpegExtractor struct {
	// Path overrides ffmpeg resolution; empty means look up "ffmpeg" in PATH.
	Path string
}

// ExtractFrame returns JPEG bytes of a frame near the start of the video.
// It seeks 1s in to skip black lead-in frames, retrying from 0.1s for clips
// shorter than a second.
func (e *FFmpegExtractor) ExtractFrame(path string) ([]byte, error) {
	ffmpeg := e.Path
	if ffmpeg == "" {
		found, err := exec.LookPath("ffmpeg")
		if err != nil {
			return nil, fmt.Errorf("ffmpeg not found: %w", err)
		}
		ffmpeg = found
	}

	out, err := runExtract(ffmpeg, path, "1")
	if err == nil && len(out) > 0 {
		return out, nil
	}
	slog.Debug("Frame extraction at 1s failed, retrying near start", "path", path, "err", err)

	out, retryErr := runExtract(ffmpeg, path, "0.1")
	if retryErr != nil {
		return nil, fmt.Errorf("frame extraction failed: %w", retryErr)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame for %s", path)
	}
	return out, nil
}

func runExtract(ffmpeg, path, seek string) ([]byte, error) {
	args := []string{
		"-ss", seek,
		"-i", path,
		"-vframes", "1",
		"-vf", scaleExpr,
		"-f", "image2pipe",
		"-c:v", "mjpeg",
		"-q:v", "15",
		"-",
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(ffmpeg, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %v, stderr: %s", err, stderr.String())
	}
	return stdout.Bytes(), nil
}
