package batch

import (
	"strings"

	"stockgen/internal/config"
	"stockgen/internal/models"
)

// Marker appended to a record whose fields fall outside the configured
// bounds. The record is still returned, never dropped.
const validationFailedCheck = "Length/Count Validation Failed"

// Valid reports whether the generated fields sit inside the configured
// bounds. Upper bounds carry slack (+2 words, +15 chars, +3 keywords) to
// tolerate model overshoot; lower bounds are strict.
func Valid(g *models.Generated, cfg config.Settings) bool {
	words := len(strings.Fields(g.Title))
	chars := len([]rune(g.Description))
	kw := len(g.Keywords)

	return words >= cfg.TitleMinWords && words <= cfg.TitleMaxWords+2 &&
		chars >= cfg.DescriptionMinChars && chars <= cfg.DescriptionMaxChars+15 &&
		kw >= cfg.KeywordsMinCount && kw <= cfg.KeywordsMaxCount+3
}

// NormalizeKeywords lower-cases each keyword, drops banned words, splits
// non-alphanumeric runs into separate tokens, de-duplicates preserving order,
// and truncates to max. The result contains only lower-case alphanumeric
// tokens, so applying it twice is a no-op.
func NormalizeKeywords(keywords, banned []string, max int) []string {
	bannedSet := make(map[string]struct{}, len(banned))
	for _, w := range banned {
		bannedSet[strings.ToLower(w)] = struct{}{}
	}

	seen := make(map[string]struct{})
	var out []string
	for _, kw := range keywords {
		lower := strings.ToLower(strings.TrimSpace(kw))
		if _, ok := bannedSet[lower]; ok {
			continue
		}
		clean := strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				return r
			}
			return ' '
		}, lower)
		for _, token := range strings.Fields(clean) {
			if _, ok := bannedSet[token]; ok {
				continue
			}
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			out = append(out, token)
		}
	}

	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}
