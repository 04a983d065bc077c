// Package reject relocates files that failed the quality gate into a
// rejected subfolder, naming them after the failed checks so a folder
// listing doubles as a rejection report.
package reject

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stockgen/internal/metawrite"
	"stockgen/internal/models"
)

const (
	copyAttempts = 5
	copyBackoff  = 500 * time.Millisecond
	maxReasonLen = 50
)

// Embedder writes metadata onto a relocated file.
type Embedder interface {
	Embed(path string, f metawrite.Fields) error
}

// Router moves rejected files under <OutputFolder>/rejected.
type Router struct {
	OutputFolder string

	embed Embedder
	sleep func(time.Duration)
}

func New(outputFolder string, embedder Embedder) *Router {
	return &Router{OutputFolder: outputFolder, embed: embedder, sleep: time.Sleep}
}

// Route moves the file into the rejected folder under a name derived from
// its failed checks. When gen is non-nil the already-generated metadata is
// embedded onto the relocated file; embed failures are logged, not returned,
// since the move itself succeeded.
func (r *Router) Route(path string, failedChecks []string, reason string, gen *models.Generated) error {
	if r.OutputFolder == "" {
		return nil
	}
	dir := filepath.Join(r.OutputFolder, "rejected")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create rejected folder: %w", err)
	}

	name := destName(failedChecks, reason)
	ext := strings.TrimPrefix(filepath.Ext(path), ".")

	dest := filepath.Join(dir, name+"."+ext)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			break
		}
		dest = filepath.Join(dir, fmt.Sprintf("%s (%d).%s", name, counter, ext))
	}

	if err := r.move(path, dest); err != nil {
		return err
	}

	if gen != nil && r.embed != nil {
		err := r.embed.Embed(dest, metawrite.Fields{
			Title:       gen.Title,
			Description: gen.Description,
			Keywords:    gen.Keywords,
			Category:    gen.Category,
		})
		if err != nil {
			slog.Warn("Unable to embed metadata on rejected file", "path", dest, "err", err)
		}
	}
	return nil
}

// move renames, falling back to copy plus retried delete when rename fails
// (cross-device moves, transient locks).
func (r *Router) move(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	var copied bool
	for i := 0; i < copyAttempts; i++ {
		data, err := os.ReadFile(src)
		if err == nil {
			if err := os.WriteFile(dest, data, 0644); err == nil {
				copied = true
				break
			}
		}
		r.sleep(copyBackoff)
	}
	if !copied {
		return fmt.Errorf("failed to copy %s to rejected folder", src)
	}

	for i := 0; i < copyAttempts; i++ {
		if err := os.Remove(src); err == nil || os.IsNotExist(err) {
			break
		}
		r.sleep(copyBackoff)
	}
	return nil
}

// destName maps the failed checks to canonical tags joined by underscores,
// falling back to a sanitized slice of the reason text.
func destName(failedChecks []string, reason string) string {
	var tags []string
	for _, c := range failedChecks {
		if t := TagFor(c); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		if t := TagFor(reason); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) > 0 {
		return strings.Join(tags, "_")
	}

	source := reason
	if source == "" && len(failedChecks) > 0 {
		source = failedChecks[0]
	}
	if s := sanitizeReason(source); s != "" {
		return s
	}
	return "Rejected"
}

func sanitizeReason(s string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return ' '
		}
	}, s)
	trimmed := strings.Join(strings.Fields(safe), " ")
	if len(trimmed) > maxReasonLen {
		trimmed = strings.TrimSpace(trimmed[:maxReasonLen])
	}
	return trimmed
}

// TagFor maps a failed-check string (free text or the short codes used in
// selection prompts) to its canonical tag, or "" when nothing matches.
func TagFor(check string) string {
	f := strings.ToLower(check)

	switch {
	case strings.Contains(f, "trademarked logo"), strings.Contains(f, "brand logo"):
		return "Brand_Logo"
	case strings.Contains(f, "watermark"), strings.Contains(f, "copyright stamp"):
		return "Watermark"

	case strings.Contains(f, "blur"), strings.Contains(f, "out of focus"):
		return "Blurry"
	case strings.Contains(f, "pixelated"), strings.Contains(f, "low resolution"), strings.Contains(f, "low quality"):
		return "Low_Quality"
	case strings.Contains(f, "artifact"), strings.Contains(f, "distortion"):
		return "Artifacts"

	case strings.Contains(f, "gibberish"):
		return "Text_Gibberish"
	case strings.Contains(f, "non-english"):
		return "Text_Non_English"
	case strings.Contains(f, "irrelevant"):
		return "Text_Irrelevant"
	case strings.Contains(f, "relevant-text"):
		return "Text_Relevant"
	case strings.Contains(f, "text"), strings.Contains(f, "words"), strings.Contains(f, "letters"), strings.Contains(f, "overlay"):
		return "Text_Overlay"
	}

	if strings.Contains(f, "human") {
		return "Human_" + presenceVariant(f, "Presence")
	}
	if strings.Contains(f, "animal") {
		return "Animal_" + presenceVariant(f, "Presence")
	}

	switch {
	case strings.Contains(f, "full_body_perfect"):
		return "Full_Body_Perfect"
	case strings.Contains(f, "no_head"):
		return "No_Head"
	case strings.Contains(f, "partial_perfect"):
		return "Partial_Perfect"
	case strings.Contains(f, "partial_defect"):
		return "Partial_Defect"
	case strings.Contains(f, "back_view"):
		return "Back_View"
	case strings.Contains(f, "unclear_hybrid"):
		return "Distorted"
	case strings.Contains(f, "face_only"):
		return "Face_Only"
	case strings.Contains(f, "nudity_nsfw"):
		return "NSFW"

	case strings.Contains(f, "deformed"):
		return "Deformed_Object"
	case strings.Contains(f, "unrecognizable"):
		return "Unrecognizable"
	case strings.Contains(f, "famous"):
		return "Famous_Trademark"

	case strings.Contains(f, "json parse error"), strings.Contains(f, "unrecognized response"):
		return "AI_Response_Error"
	}
	return ""
}

func presenceVariant(f, fallback string) string {
	switch {
	case strings.Contains(f, "full body"), strings.Contains(f, "full_body"):
		return "Full_Body"
	case strings.Contains(f, "no head"), strings.Contains(f, "no_head"):
		return "No_Head"
	case strings.Contains(f, "partial_perfect"), strings.Contains(f, "partial body (perfect"):
		return "Partial_Perfect"
	case strings.Contains(f, "partial_defect"), strings.Contains(f, "partial body (defect"):
		return "Partial_Defect"
	case strings.Contains(f, "back view"), strings.Contains(f, "back_view"):
		return "Back_View"
	case strings.Contains(f, "unclear"), strings.Contains(f, "distorted"), strings.Contains(f, "alien"):
		return "Distorted"
	case strings.Contains(f, "face only"), strings.Contains(f, "face_only"):
		return "Face_Only"
	case strings.Contains(f, "nudity"), strings.Contains(f, "nsfw"), strings.Contains(f, "sexual"), strings.Contains(f, "genitals"):
		return "NSFW"
	}
	return fallback
}
