// Package scan finds the media files a batch run should process.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"stockgen/internal/naturalsort"
)

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

var videoExts = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".avi":  true,
	".webm": true,
}

// IsVideo reports whether the path has a supported video extension.
func IsVideo(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}

// Supported reports whether the path has a supported media extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return imageExts[ext] || videoExts[ext]
}

// isHiddenName filters dotfiles and OS/system clutter.
func isHiddenName(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~") {
		return true
	}
	switch name {
	case "Thumbs.db", "desktop.ini", "$RECYCLE.BIN", "System Volume Information", "__MACOSX", "node_modules":
		return true
	}
	for _, suffix := range []string{".tmp", ".bak", ".log", ".dat", ".ini"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// Folder lists the supported media files directly inside root, sorted
// naturally. A missing root returns an empty list rather than an error so
// callers can treat it like an empty batch.
func Folder(root string) ([]string, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder %s: %w", root, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || isHiddenName(entry.Name()) {
			continue
		}
		path := filepath.Join(root, entry.Name())
		if Supported(path) {
			files = append(files, path)
		}
	}

	naturalsort.Sort(files)
	return files, nil
}
