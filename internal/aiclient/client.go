// Package aiclient sends vision/text requests to an AI provider, either
// directly against a chat-completions endpoint or through a relay server.
package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"stockgen/internal/config"
	"stockgen/internal/models"
	"stockgen/internal/prep"
)

const (
	openAIEndpoint = "https://api.openai.com/v1/chat/completions"
	geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions"
	relayPath      = "/ai/generate"

	systemInstruction = "You are a helpful assistant. Output JSON."

	callTimeout = 120 * time.Second
	retryDelay  = 2 * time.Second
)

// Result is one successful provider response.
type Result struct {
	Text     string
	Usage    models.TokenUsage
	Provider string
	Cost     float64
}

// Client issues provider calls with retry and model fallback. Endpoints are
// fields so tests can point the client at a local server.
type Client struct {
	cfg  config.Settings
	http *http.Client

	OpenAIEndpoint string
	GeminiEndpoint string

	sleep func(time.Duration)
}

// New returns a Client for the given settings.
func New(cfg config.Settings) *Client {
	return &Client{
		cfg:            cfg,
		http:           &http.Client{Timeout: callTimeout},
		OpenAIEndpoint: openAIEndpoint,
		GeminiEndpoint: geminiEndpoint,
		sleep:          time.Sleep,
	}
}

// FallbackModel maps a model name to the smaller model used from the second
// attempt onward. Unknown families fall back to the cheap Gemini model.
func FallbackModel(model string) string {
	m := strings.ToLower(model)
	switch {
	case strings.Contains(m, "gpt"), strings.Contains(m, "openai"),
		strings.Contains(m, "o1"), strings.Contains(m, "o3"):
		return "gpt-4o-mini"
	case strings.Contains(m, "gemini-3"):
		return "gemini-2.5-flash-lite"
	case strings.Contains(m, "gemini-2.5"), strings.Contains(m, "gemini-1.5"):
		return "gemini-2.0-flash-lite-preview-02-05"
	default:
		return "gemini-2.0-flash-lite-preview-02-05"
	}
}

// Call sends one prompt (optionally with an image payload) and returns the
// raw response text plus usage telemetry. It makes retries+1 attempts; from
// the second attempt onward the fallback model replaces the requested one.
func (c *Client) Call(ctx context.Context, model, prompt string, payload *prep.Payload) (Result, error) {
	messages := buildMessages(prompt, payload)

	attempts := c.cfg.Retries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		current := model
		if attempt > 0 {
			current = FallbackModel(model)
			slog.Info("Retrying with fallback model", "model", current, "attempt", attempt+1)
		}

		var res Result
		var err error
		if c.cfg.ConnectionMode == config.ModeDirect {
			res, err = c.callDirect(ctx, current, messages)
		} else {
			res, err = c.callRelay(ctx, current, messages, prompt, payload)
		}
		if err == nil {
			return res, nil
		}

		lastErr = err
		if attempt < attempts-1 {
			c.sleep(retryDelay)
		}
	}

	return Result{}, fmt.Errorf("all %d attempts failed: %w", attempts, lastErr)
}

// buildMessages assembles the chat message list: a fixed system instruction
// and a user turn carrying the prompt and, if present, the inline image.
func buildMessages(prompt string, payload *prep.Payload) []map[string]any {
	if payload == nil {
		return []map[string]any{
			{"role": "system", "content": systemInstruction},
			{"role": "user", "content": prompt},
		}
	}
	return []map[string]any{
		{"role": "system", "content": systemInstruction},
		{
			"role": "user",
			"content": []map[string]any{
				{"type": "text", "text": prompt},
				{
					"type": "image_url",
					"image_url": map[string]any{
						"url":    payload.DataURL(),
						"detail": "low",
					},
				},
			},
		},
	}
}

// isGeminiTarget routes direct calls: Gemini model names, a Gemini provider
// setting, or a Google-shaped API key all select the Gemini-compatible
// endpoint.
func (c *Client) isGeminiTarget(model string) bool {
	return strings.Contains(strings.ToLower(model), "gemini") ||
		strings.Contains(strings.ToLower(c.cfg.Provider), "gemini") ||
		strings.HasPrefix(strings.TrimSpace(c.cfg.APIKey), "AIza")
}

func (c *Client) callDirect(ctx context.Context, model string, messages []map[string]any) (Result, error) {
	endpoint := c.OpenAIEndpoint
	if c.isGeminiTarget(model) {
		endpoint = c.GeminiEndpoint
	}

	body, err := json.Marshal(map[string]any{
		"model":       model,
		"messages":    messages,
		"temperature": 0.2,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(c.cfg.APIKey))

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return Result{}, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(errBody))
	}

	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage *models.TokenUsage `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Result{}, fmt.Errorf("failed to decode provider response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return Result{}, fmt.Errorf("no choices in provider response")
	}

	res := Result{Text: decoded.Choices[0].Message.Content, Provider: "direct"}
	if decoded.Usage != nil {
		res.Usage = *decoded.Usage
	}
	return res, nil
}

// relayResponse tolerates the key variations relay deployments use for
// usage, cost, and provider labelling.
type relayResponse struct {
	Result        string             `json:"result"`
	InputTokens   *uint32            `json:"input_tokens"`
	OutputTokens  *uint32            `json:"output_tokens"`
	Usage         *models.TokenUsage `json:"usage"`
	UsageMetadata *models.TokenUsage `json:"usageMetadata"`
	TokenUsage    *models.TokenUsage `json:"token_usage"`
	Cost          *float64           `json:"cost"`
	Metadata      struct {
		Provider string   `json:"provider"`
		Cost     *float64 `json:"cost"`
	} `json:"metadata"`
}

func (r *relayResponse) usage() models.TokenUsage {
	if r.InputTokens != nil && r.OutputTokens != nil {
		return models.TokenUsage{
			PromptTokens:     *r.InputTokens,
			CompletionTokens: *r.OutputTokens,
			TotalTokens:      *r.InputTokens + *r.OutputTokens,
		}
	}
	for _, u := range []*models.TokenUsage{r.Usage, r.UsageMetadata, r.TokenUsage} {
		if u != nil {
			return *u
		}
	}
	return models.TokenUsage{}
}

func (r *relayResponse) cost() float64 {
	if r.Cost != nil {
		return *r.Cost
	}
	if r.Metadata.Cost != nil {
		return *r.Metadata.Cost
	}
	return 0
}

func (c *Client) callRelay(ctx context.Context, model string, messages []map[string]any, prompt string, payload *prep.Payload) (Result, error) {
	body := map[string]any{
		"model":    model,
		"messages": messages,
		"prompt":   prompt,
	}
	if payload != nil {
		body["image"] = payload.Base64
		body["mimeType"] = payload.MIME
	}

	data, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal relay body: %w", err)
	}

	url := strings.TrimSuffix(c.cfg.ServerURL, "/") + relayPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(data))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.AuthToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return Result{}, fmt.Errorf("relay returned status %d: %s", resp.StatusCode, string(errBody))
	}

	var decoded relayResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Result{}, fmt.Errorf("failed to decode relay response: %w", err)
	}
	if decoded.Result == "" {
		return Result{}, fmt.Errorf("relay response has no result")
	}

	return Result{
		Text:     decoded.Result,
		Usage:    decoded.usage(),
		Provider: decoded.Metadata.Provider,
		Cost:     decoded.cost(),
	}, nil
}
