// Package metawrite embeds generated metadata into media files using
// external tools: exiftool for images, an ffmpeg stream copy for video
// containers exiftool cannot write.
package metawrite

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"stockgen/internal/scan"
)

// Fields is the metadata written onto a file.
type Fields struct {
	Title       string
	Description string
	Keywords    []string
	Category    string
}

// specialInstructions is stored as JSON in IPTC:SpecialInstructions so CSV
// exports can recover the category split later.
type specialInstructions struct {
	Categories   string `json:"categories"`
	Editorial    string `json:"editorial"`
	Mature       string `json:"mature"`
	Illustration string `json:"illustration"`
}

// Writer shells out to exiftool and ffmpeg. Tool paths default to PATH
// lookup; run is swappable for tests.
type Writer struct {
	ExiftoolPath string
	FFmpegPath   string

	run func(name string, args ...string) error
}

func New() *Writer {
	return &Writer{
		ExiftoolPath: "exiftool",
		FFmpegPath:   "ffmpeg",
		run:          runCommand,
	}
}

func runCommand(name string, args ...string) error {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Embed writes the fields into the file's metadata container in place.
func (w *Writer) Embed(path string, f Fields) error {
	if scan.IsVideo(path) {
		return w.embedVideo(path, f)
	}
	return w.embedImage(path, f)
}

func (w *Writer) embedImage(path string, f Fields) error {
	extras, err := json.Marshal(specialInstructions{
		Categories:   f.Category,
		Editorial:    "No",
		Mature:       "No",
		Illustration: "No",
	})
	if err != nil {
		return fmt.Errorf("failed to encode special instructions: %w", err)
	}

	keywords := strings.Join(f.Keywords, ";")
	args := []string{
		"-overwrite_original",
		"-m",
		"-sep", ";",
		"-charset", "filename=utf8",
		"-Title=" + f.Title,
		"-Comment=" + f.Description,
		"-UserComment=" + f.Description,
		"-XPComment=" + f.Description,
		"-SpecialInstructions=" + string(extras),
		"-Keywords=" + keywords,
		"-Subject=" + keywords,
		path,
	}
	if err := w.run(w.ExiftoolPath, args...); err != nil {
		return fmt.Errorf("failed to embed metadata into %s: %w", path, err)
	}
	return nil
}

// embedVideo rewrites container-level tags without re-encoding, writing to a
// temp file next to the original and swapping it into place.
func (w *Writer) embedVideo(path string, f Fields) error {
	dir := filepath.Dir(path)
	temp := filepath.Join(dir, fmt.Sprintf("temp_%d_%s", time.Now().UnixMilli(), filepath.Base(path)))

	args := []string{
		"-i", path,
		"-c", "copy",
		"-metadata", "title=" + f.Title,
		"-metadata", "description=" + f.Description,
		"-metadata", "subtitle=" + f.Description,
		"-metadata", "comment=" + f.Description,
		"-metadata", "synopsis=" + f.Description,
		"-metadata", "keywords=" + strings.Join(f.Keywords, ";"),
		"-y",
		temp,
	}
	if err := w.run(w.FFmpegPath, args...); err != nil {
		os.Remove(temp)
		return fmt.Errorf("failed to embed metadata into %s: %w", path, err)
	}

	if err := os.Rename(temp, path); err != nil {
		if copyErr := copyFile(temp, path); copyErr != nil {
			os.Remove(temp)
			return fmt.Errorf("failed to replace %s: %w", path, copyErr)
		}
		os.Remove(temp)
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
