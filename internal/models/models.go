package models

import "encoding/json"

// TokenUsage holds token counts reported by a provider. Providers name these
// fields differently (OpenAI usage objects, Gemini usageMetadata), so
// unmarshalling accepts the known aliases and leaves missing fields at zero.
type TokenUsage struct {
	PromptTokens     uint32 `json:"prompt_tokens"`
	CompletionTokens uint32 `json:"completion_tokens"`
	TotalTokens      uint32 `json:"total_tokens"`
}

// UnmarshalJSON accepts the OpenAI field names as well as the Gemini
// usageMetadata aliases (promptTokenCount, candidatesTokenCount,
// completionTokenCount, totalTokenCount).
func (u *TokenUsage) UnmarshalJSON(data []byte) error {
	var raw map[string]json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	pick := func(keys ...string) uint32 {
		for _, k := range keys {
			if v, ok := raw[k]; ok {
				if n, err := v.Int64(); err == nil && n >= 0 {
					return uint32(n)
				}
			}
		}
		return 0
	}

	u.PromptTokens = pick("prompt_tokens", "promptTokenCount")
	u.CompletionTokens = pick("completion_tokens", "candidatesTokenCount", "completionTokenCount")
	u.TotalTokens = pick("total_tokens", "totalTokenCount")
	if u.TotalTokens == 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	return nil
}

// Add accumulates another usage sample into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// SelectionVerdict is the outcome of a quality-gate call.
type SelectionVerdict struct {
	Status       string   `json:"status"` // "accepted" or "rejected"
	FailedChecks []string `json:"failed_checks"`
	Reason       string   `json:"reason"`
}

// Accepted reports whether the gate let the file through.
func (v SelectionVerdict) Accepted() bool {
	return v.Status == "accepted"
}

// Generated is the per-file result of a batch run. Every input file that
// exists on disk yields exactly one Generated record; failures are encoded
// with Source == "error" and the last error text in Description.
type Generated struct {
	File     string `json:"file"`
	FilePath string `json:"file_path"`

	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	Category    string   `json:"category"`

	// Source is the model that produced the metadata, or "error".
	Source       string   `json:"source"`
	Provider     string   `json:"gen_provider,omitempty"`
	FailedChecks []string `json:"failed_checks,omitempty"`

	InputTokens  uint32  `json:"input_tokens"`
	OutputTokens uint32  `json:"output_tokens"`
	Cost         float64 `json:"cost"`

	VisionUsage TokenUsage `json:"vision_usage"`
	TextUsage   TokenUsage `json:"text_usage"`
	VisionCost  float64    `json:"vision_cost"`
	TextCost    float64    `json:"text_cost"`
	VisionModel string     `json:"vision_model,omitempty"`
	TextModel   string     `json:"text_model,omitempty"`
}

// IsError reports whether the record represents a failed file rather than
// generated metadata.
func (g *Generated) IsError() bool {
	return g.Source == "error"
}
