package aiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stockgen/internal/config"
	"stockgen/internal/prep"
)

func newTestClient(cfg config.Settings, url string) *Client {
	c := New(cfg)
	c.OpenAIEndpoint = url
	c.GeminiEndpoint = url
	c.sleep = func(time.Duration) {}
	return c
}

func directSettings(model string) config.Settings {
	s := config.Defaults()
	s.ConnectionMode = config.ModeDirect
	s.Model = model
	s.Provider = "OpenAI"
	s.APIKey = "sk-test"
	return s
}

func TestFallbackModel(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"gpt-4o", "gpt-4o-mini"},
		{"o3-mini", "gpt-4o-mini"},
		{"gemini-3-pro", "gemini-2.5-flash-lite"},
		{"gemini-2.5-flash", "gemini-2.0-flash-lite-preview-02-05"},
		{"gemini-1.5-pro", "gemini-2.0-flash-lite-preview-02-05"},
		{"mystery-model", "gemini-2.0-flash-lite-preview-02-05"},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			if got := FallbackModel(tt.model); got != tt.want {
				t.Errorf("FallbackModel(%q) = %q, want %q", tt.model, got, tt.want)
			}
		})
	}
}

func TestCallRetriesWithFallbackModel(t *testing.T) {
	var attempts int
	var seenModels []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		var req struct {
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		seenModels = append(seenModels, req.Model)

		if attempts <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"}}],"usage":{"prompt_tokens":10,"completion_tokens":5}}`)
	}))
	defer srv.Close()

	cfg := directSettings("gpt-4o")
	cfg.Retries = 2
	c := newTestClient(cfg, srv.URL)

	res, err := c.Call(context.Background(), "gpt-4o", "prompt", nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	wantModels := []string{"gpt-4o", "gpt-4o-mini", "gpt-4o-mini"}
	for i, m := range wantModels {
		if seenModels[i] != m {
			t.Errorf("attempt %d model = %q, want %q", i+1, seenModels[i], m)
		}
	}
	if res.Text != "ok" {
		t.Errorf("Text = %q", res.Text)
	}
	if res.Usage.PromptTokens != 10 || res.Usage.CompletionTokens != 5 {
		t.Errorf("Usage = %+v", res.Usage)
	}
}

func TestCallExhaustsRetries(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := directSettings("gpt-4o")
	cfg.Retries = 1
	c := newTestClient(cfg, srv.URL)

	if _, err := c.Call(context.Background(), "gpt-4o", "prompt", nil); err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestCallDirectSendsInlineImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string          `json:"role"`
				Content json.RawMessage `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad body: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		var parts []struct {
			Type     string `json:"type"`
			ImageURL struct {
				URL    string `json:"url"`
				Detail string `json:"detail"`
			} `json:"image_url"`
		}
		if err := json.Unmarshal(req.Messages[1].Content, &parts); err != nil {
			t.Errorf("user content not a part list: %v", err)
		}
		if len(parts) != 2 || parts[1].ImageURL.URL != "data:image/jpeg;base64,Zm9v" {
			t.Errorf("unexpected parts: %+v", parts)
		}
		if parts[1].ImageURL.Detail != "low" {
			t.Errorf("detail = %q, want low", parts[1].ImageURL.Detail)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	defer srv.Close()

	c := newTestClient(directSettings("gpt-4o"), srv.URL)
	payload := &prep.Payload{Base64: "Zm9v", MIME: "image/jpeg"}
	if _, err := c.Call(context.Background(), "gpt-4o", "describe", payload); err != nil {
		t.Fatalf("Call: %v", err)
	}
}

func TestCallRelayUsageVariants(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantIn     uint32
		wantOut    uint32
		wantCost   float64
		wantSource string
	}{
		{
			name:    "top level tokens",
			body:    `{"result":"ok","input_tokens":7,"output_tokens":3,"cost":0.5}`,
			wantIn:  7,
			wantOut: 3, wantCost: 0.5,
		},
		{
			name:    "nested usage object",
			body:    `{"result":"ok","usage":{"prompt_tokens":4,"completion_tokens":2}}`,
			wantIn:  4,
			wantOut: 2,
		},
		{
			name:       "gemini usageMetadata with metadata cost",
			body:       `{"result":"ok","usageMetadata":{"promptTokenCount":9,"candidatesTokenCount":1},"metadata":{"provider":"gemini","cost":0.25}}`,
			wantIn:     9,
			wantOut:    1,
			wantCost:   0.25,
			wantSource: "gemini",
		},
		{
			name: "missing usage defaults to zero",
			body: `{"result":"ok"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer tok" {
					t.Errorf("Authorization = %q", got)
				}
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			cfg := config.Defaults()
			cfg.ConnectionMode = config.ModeRelay
			cfg.ServerURL = srv.URL
			cfg.AuthToken = "tok"
			c := New(cfg)
			c.sleep = func(time.Duration) {}

			res, err := c.Call(context.Background(), "gemini-2.5-flash", "p", nil)
			if err != nil {
				t.Fatalf("Call: %v", err)
			}
			if res.Usage.PromptTokens != tt.wantIn || res.Usage.CompletionTokens != tt.wantOut {
				t.Errorf("usage = %+v, want in=%d out=%d", res.Usage, tt.wantIn, tt.wantOut)
			}
			if res.Cost != tt.wantCost {
				t.Errorf("cost = %v, want %v", res.Cost, tt.wantCost)
			}
			if res.Provider != tt.wantSource {
				t.Errorf("provider = %q, want %q", res.Provider, tt.wantSource)
			}
		})
	}
}
