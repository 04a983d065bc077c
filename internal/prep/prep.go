// Package prep turns media files into small base64 JPEG payloads suitable
// for inline vision requests.
package prep

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"os"
	"time"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"stockgen/internal/scan"
)

const (
	// maxDimension is the largest side sent to the vision model; bigger
	// inputs cost tokens without improving analysis.
	maxDimension = 768

	// jpegQuality targets payloads under ~50KB at maxDimension.
	jpegQuality = 60

	smallFileLimit   = 60 * 1024
	passthroughLimit = 150 * 1024

	cacheCapacity = 500

	readAttempts = 5
	readBackoff  = 500 * time.Millisecond
)

// Payload is a base64-encoded image plus its MIME type.
type Payload struct {
	Base64 string
	MIME   string
}

// DataURL renders the payload as an inline data URL.
func (p Payload) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", p.MIME, p.Base64)
}

// FrameExtractor produces a representative JPEG frame for a video file.
type FrameExtractor interface {
	ExtractFrame(path string) ([]byte, error)
}

// Preparer loads, downsizes, and encodes media files, caching results by
// path in a bounded LRU shared across the process.
type Preparer struct {
	cache  *payloadCache
	frames FrameExtractor
	sleep  func(time.Duration)
}

// New returns a Preparer that delegates video files to frames.
func New(frames FrameExtractor) *Preparer {
	return &Preparer{
		cache:  newPayloadCache(cacheCapacity),
		frames: frames,
		sleep:  time.Sleep,
	}
}

// Prepare returns the encoded payload for path. Results are cached; a cache
// hit returns the prior payload without touching the file again.
func (p *Preparer) Prepare(path string) (Payload, error) {
	if cached, ok := p.cache.get(path); ok {
		slog.Debug("Payload cache hit", "path", path)
		return cached, nil
	}

	var buf []byte
	var err error
	if scan.IsVideo(path) {
		if p.frames == nil {
			return Payload{}, fmt.Errorf("no frame extractor configured for video %s", path)
		}
		buf, err = p.frames.ExtractFrame(path)
		if err != nil {
			return Payload{}, fmt.Errorf("failed to extract frame from %s: %w", path, err)
		}
	} else {
		buf, err = p.readFileRetry(path)
		if err != nil {
			return Payload{}, err
		}
	}

	payload, err := encode(buf)
	if err != nil {
		return Payload{}, fmt.Errorf("failed to prepare %s: %w", path, err)
	}

	p.cache.set(path, payload)
	return payload, nil
}

// readFileRetry tolerates transient locks (sync clients, antivirus) by
// retrying short reads with a fixed backoff.
func (p *Preparer) readFileRetry(path string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= readAttempts; attempt++ {
		buf, err := os.ReadFile(path)
		if err == nil {
			return buf, nil
		}
		lastErr = err
		if attempt < readAttempts {
			p.sleep(readBackoff)
		}
	}
	return nil, fmt.Errorf("failed to read %s after %d attempts: %w", path, readAttempts, lastErr)
}

// encode converts raw image bytes to a bounded base64 JPEG payload,
// skipping the decode/re-encode cycle when the input already qualifies.
func encode(buf []byte) (Payload, error) {
	// Small JPEGs pass through untouched.
	if len(buf) < smallFileLimit && isJPEG(buf) {
		return Payload{Base64: base64.StdEncoding.EncodeToString(buf), MIME: "image/jpeg"}, nil
	}

	// Header-only dimension check: a JPEG already within bounds and of
	// modest size needs no pixel work.
	if isJPEG(buf) && len(buf) < passthroughLimit {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(buf)); err == nil &&
			cfg.Width <= maxDimension && cfg.Height <= maxDimension {
			return Payload{Base64: base64.StdEncoding.EncodeToString(buf), MIME: "image/jpeg"}, nil
		}
	}

	img, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return Payload{}, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxDimension || h > maxDimension {
		if w >= h {
			img = imaging.Resize(img, maxDimension, 0, imaging.Linear)
		} else {
			img = imaging.Resize(img, 0, maxDimension, imaging.Linear)
		}
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Payload{}, fmt.Errorf("failed to encode jpeg: %w", err)
	}

	return Payload{Base64: base64.StdEncoding.EncodeToString(out.Bytes()), MIME: "image/jpeg"}, nil
}

func isJPEG(buf []byte) bool {
	return len(buf) > 2 && buf[0] == 0xFF && buf[1] == 0xD8
}
