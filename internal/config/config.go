// Package config loads the stockgen settings file and applies environment
// overrides for credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Connection modes for reaching the AI provider.
const (
	ModeDirect = "direct"
	ModeRelay  = "relay"
)

// Selection gate orderings.
const (
	SelectionBefore = "before"
	SelectionAfter  = "after"
)

// Selection configures the quality gate. The check fields assemble the
// inspection prompt; filter lists name the sub-variants to reject.
type Selection struct {
	Enabled bool   `yaml:"enabled"`
	Order   string `yaml:"order"` // "before" or "after" primary generation

	TextFilters   []string `yaml:"text_filters"`   // gibberish, non-english, irrelevant-text, relevant-text
	HumanFilters  []string `yaml:"human_filters"`  // full_body_perfect, no_head, partial_perfect, ...
	AnimalFilters []string `yaml:"animal_filters"` // same vocabulary as human filters

	CheckBrandLogo      bool `yaml:"check_brand_logo"`
	CheckWatermark      bool `yaml:"check_watermark"`
	CheckDeformed       bool `yaml:"check_deformed"`
	CheckUnrecognizable bool `yaml:"check_unrecognizable"`
	CheckTrademark      bool `yaml:"check_trademark"`
}

// Settings is the full configuration for a batch run. It is read once per
// run and treated as immutable afterwards.
type Settings struct {
	Model          string `yaml:"model"`
	Provider       string `yaml:"provider"`        // "OpenAI" or "Gemini", used for direct routing hints
	ConnectionMode string `yaml:"connection_mode"` // "direct" or "relay"
	ServerURL      string `yaml:"server_url"`      // relay endpoint base URL
	APIKey         string `yaml:"api_key"`         // direct mode provider key
	AuthToken      string `yaml:"auth_token"`      // relay mode bearer token

	Retries    int `yaml:"retries"`
	MaxThreads int `yaml:"max_threads"`

	TitleMinWords       int    `yaml:"title_min_words"`
	TitleMaxWords       int    `yaml:"title_max_words"`
	DescriptionMinChars int    `yaml:"description_min_chars"`
	DescriptionMaxChars int    `yaml:"description_max_chars"`
	KeywordsMinCount    int    `yaml:"keywords_min_count"`
	KeywordsMaxCount    int    `yaml:"keywords_max_count"`
	BannedWords         string `yaml:"banned_words"` // comma separated

	InputFolder  string `yaml:"input_folder"`
	OutputFolder string `yaml:"output_folder"`
	AutoEmbed    bool   `yaml:"auto_embed"`

	Selection Selection `yaml:"selection"`
}

// Defaults returns the settings used when no file is present. The bounds
// match common stock-marketplace submission limits.
func Defaults() Settings {
	return Settings{
		Model:               "gemini-2.5-flash",
		Provider:            "Gemini",
		ConnectionMode:      ModeDirect,
		Retries:             1,
		MaxThreads:          4,
		TitleMinWords:       5,
		TitleMaxWords:       13,
		DescriptionMinChars: 80,
		DescriptionMaxChars: 200,
		KeywordsMinCount:    35,
		KeywordsMaxCount:    49,
		AutoEmbed:           true,
		Selection: Selection{
			Order: SelectionBefore,
		},
	}
}

// DefaultPath returns the default settings file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "stockgen.yaml"
	}
	return filepath.Join(dir, "stockgen", "settings.yaml")
}

// Load reads settings from path, falling back to defaults when the file does
// not exist, then applies environment overrides for credentials.
func Load(path string) (Settings, error) {
	s := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("failed to parse settings file %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// First run, defaults apply.
	default:
		return Settings{}, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" && strings.EqualFold(s.Provider, "openai") {
		s.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && strings.EqualFold(s.Provider, "gemini") {
		s.APIKey = v
	}
	if v := os.Getenv("STOCKGEN_TOKEN"); v != "" {
		s.AuthToken = v
	}

	return s, nil
}

// Save writes settings to path, creating parent directories as needed.
func Save(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}

// Validate checks the settings a batch run depends on.
func (s Settings) Validate() error {
	switch s.ConnectionMode {
	case ModeDirect:
		if strings.TrimSpace(s.APIKey) == "" {
			return fmt.Errorf("direct mode requires an API key")
		}
	case ModeRelay:
		if strings.TrimSpace(s.ServerURL) == "" {
			return fmt.Errorf("relay mode requires a server URL")
		}
		if strings.TrimSpace(s.AuthToken) == "" {
			return fmt.Errorf("relay mode requires an auth token")
		}
	default:
		return fmt.Errorf("unknown connection mode: %q", s.ConnectionMode)
	}

	if s.Model == "" {
		return fmt.Errorf("model is required")
	}
	if s.Retries < 0 {
		return fmt.Errorf("retries must not be negative")
	}
	if sel := s.Selection; sel.Enabled {
		if sel.Order != SelectionBefore && sel.Order != SelectionAfter {
			return fmt.Errorf("selection order must be %q or %q, got %q", SelectionBefore, SelectionAfter, sel.Order)
		}
	}
	return nil
}

// Threads returns the admission gate size, never below 1.
func (s Settings) Threads() int {
	if s.MaxThreads < 1 {
		return 1
	}
	return s.MaxThreads
}

// BannedWordList splits the configured banned words into lower-cased,
// trimmed entries.
func (s Settings) BannedWordList() []string {
	var out []string
	for _, w := range strings.Split(s.BannedWords, ",") {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
