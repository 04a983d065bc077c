// Package gemini verifies Gemini credentials through the official SDK before
// a batch run spends money on a misconfigured key.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Verify sends a minimal generation request with the given key and model.
// A nil return means the key is valid and the model is reachable.
func Verify(ctx context.Context, apiKey, model string) error {
	if strings.TrimSpace(apiKey) == "" {
		return fmt.Errorf("no API key configured")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	m := client.GenerativeModel(model)
	resp, err := m.GenerateContent(ctx, genai.Text("Reply with the single word: ok"))
	if err != nil {
		return fmt.Errorf("failed to reach model %s: %w", model, err)
	}
	if len(resp.Candidates) == 0 {
		return fmt.Errorf("no candidates returned from Gemini")
	}
	return nil
}
