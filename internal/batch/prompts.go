package batch

import (
	"fmt"
	"strings"

	"stockgen/internal/config"
)

// Shutterstock category vocabulary offered to the model. Two entries are
// always requested so downstream CSV exports never carry a single category.
const categoryList = "Abstract, Animals/Wildlife, Arts, Backgrounds/Textures, Beauty/Fashion, " +
	"Buildings/Landmarks, Business/Finance, Celebrities, Education, Food and Drink, " +
	"Healthcare/Medical, Holidays, Industrial, Interiors, Miscellaneous, Nature, Objects, " +
	"Parks/Outdoor, People, Religion, Science, Signs/Symbols, Sports/Recreation, Technology, " +
	"Transportation, Vintage"

// primaryPrompt builds the metadata generation prompt from the configured
// bounds and banned-word list.
func primaryPrompt(cfg config.Settings) string {
	var b strings.Builder
	b.WriteString("Generate metadata for stock media.\nRules:\n")
	fmt.Fprintf(&b, "- Title: %d to %d words.\n", cfg.TitleMinWords, cfg.TitleMaxWords)
	fmt.Fprintf(&b, "- Description: %d to %d characters.\n", cfg.DescriptionMinChars, cfg.DescriptionMaxChars)
	fmt.Fprintf(&b, "- Keywords: %d to %d tags. Single words only, comma separated.\n", cfg.KeywordsMinCount, cfg.KeywordsMaxCount)
	b.WriteString("- Banned characters: `~@#$%^&*()_+=-/\\][{}|';\":?/><` (Only . and , allowed).\n")
	b.WriteString("- Output Format: JSON with keys 'title', 'description', 'keywords', 'category'.\n")
	b.WriteString("- Category: Choose EXACTLY TWO relevant categories from this list, separated by a comma.\n")
	b.WriteString("  You MUST provide TWO categories. If only one is perfectly relevant, choose the second most relevant one.\n")
	b.WriteString("  NEVER provide just one category.\n")
	fmt.Fprintf(&b, "  List: [%s]\n", categoryList)
	b.WriteString("  Example: \"Nature,Transportation\"\n")

	if banned := strings.TrimSpace(cfg.BannedWords); banned != "" {
		fmt.Fprintf(&b, "\n- Additional Banned Words: %s\n", banned)
	}

	b.WriteString("\nAnalyze the attached image and generate the metadata.\n")
	return b.String()
}

// selectionPrompt assembles the quality-gate prompt from the enabled checks.
// Each filter list contributes one rule naming its sub-variants.
func selectionPrompt(sel config.Selection) string {
	var checks []string

	if len(sel.TextFilters) > 0 {
		checks = append(checks, fmt.Sprintf("Reject if text type is: %s", strings.Join(sel.TextFilters, ", ")))
	}
	if sel.CheckBrandLogo {
		checks = append(checks, "Reject ONLY if specific trademarked logo is visible (ignore clock hands, generic shapes, zippers)")
	}
	if sel.CheckWatermark {
		checks = append(checks, "Reject ONLY if digital watermark/copyright stamp visible (ignore natural text)")
	}
	if len(sel.HumanFilters) > 0 {
		checks = append(checks, fmt.Sprintf("Reject if human matches: %s", strings.Join(sel.HumanFilters, ", ")))
	}
	if len(sel.AnimalFilters) > 0 {
		checks = append(checks, fmt.Sprintf("Reject if animal matches: %s", strings.Join(sel.AnimalFilters, ", ")))
	}
	if sel.CheckDeformed {
		checks = append(checks, "Reject if primary subject is anatomically incorrect or physically impossible (bad hands, extra limbs, melting objects). Ignore artistic abstraction.")
	}
	if sel.CheckUnrecognizable {
		checks = append(checks, "Reject if the main subject is indistinguishable or too abstract to identify. Ignore abstract art styles.")
	}
	if sel.CheckTrademark {
		checks = append(checks, "Reject if famous trademark/IP is clearly visible (e.g., Disney, Marvel, Ferrari, Apple logo, Coca-Cola). Ignore generic objects, cars without badges, or common architectural elements.")
	}

	var b strings.Builder
	b.WriteString("You are an AI Image Quality Inspector. Analyze this image for stock compliance.\n")
	b.WriteString("Enabled Checks:\n")
	for _, c := range checks {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	b.WriteString("If ANY check fails, REJECT the image.\n")
	b.WriteString(`Output JSON: { "status": "accepted" | "rejected", "reason": "...", "failed_checks": [...] }`)
	return b.String()
}
