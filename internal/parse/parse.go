// Package parse turns raw AI response text into structured results,
// tolerating markdown fences and stray prose around the JSON.
package parse

import (
	"encoding/json"
	"strings"

	"stockgen/internal/models"
)

// GeneratedFields are the raw metadata fields from a primary generation
// response, before validation or keyword normalization.
type GeneratedFields struct {
	Title       string
	Description string
	Keywords    []string
	Category    string
}

// stripFences removes markdown code-fence wrapping the models like to add.
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// stringOrList accepts a JSON string, a delimited string, or an array of
// strings, normalizing to a slice.
type stringOrList []string

func (s *stringOrList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	var out []string
	for _, part := range strings.FieldsFunc(single, func(r rune) bool { return r == ',' || r == ';' }) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	*s = out
	return nil
}

// Generated parses a primary generation response. The second return is
// false when the text is not usable JSON; callers treat that as a
// generation failure, not a crash.
func Generated(text string) (GeneratedFields, bool) {
	clean := stripFences(text)

	var raw struct {
		Title       string       `json:"title"`
		Description string       `json:"description"`
		Keywords    stringOrList `json:"keywords"`
		Category    stringOrList `json:"category"`
	}
	if err := json.Unmarshal([]byte(clean), &raw); err != nil {
		return GeneratedFields{}, false
	}

	return GeneratedFields{
		Title:       raw.Title,
		Description: raw.Description,
		Keywords:    raw.Keywords,
		Category:    strings.Join(raw.Category, ","),
	}, true
}

// Selection parses a quality-gate response. Anything uninterpretable is a
// rejection ("Unrecognized Response"): an unreadable verdict must never be
// treated as acceptance.
func Selection(text string) models.SelectionVerdict {
	clean := stripFences(text)

	var verdict models.SelectionVerdict
	if err := json.Unmarshal([]byte(clean), &verdict); err == nil {
		return withDefaultStatus(verdict)
	}

	// Salvage a {...} span buried in surrounding prose.
	if start := strings.Index(clean, "{"); start != -1 {
		if end := strings.LastIndex(clean, "}"); end > start {
			if err := json.Unmarshal([]byte(clean[start:end+1]), &verdict); err == nil {
				return withDefaultStatus(verdict)
			}
		}
	}

	return models.SelectionVerdict{Status: "rejected", Reason: "Unrecognized Response"}
}

// withDefaultStatus fails closed: a parsed verdict without an explicit
// status counts as rejected.
func withDefaultStatus(v models.SelectionVerdict) models.SelectionVerdict {
	if v.Status == "" {
		v.Status = "rejected"
	}
	return v
}
