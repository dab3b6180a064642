package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Herald/internal/config"
	"Herald/internal/domain"
	"Herald/internal/ports"
)

func TestCompleteSendsPromptAndReadsChoice(t *testing.T) {
	t.Parallel()

	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  Hello neighbours  "}}]}`))
	}))
	defer server.Close()

	client := NewChatGPTClient(config.LLMConfig{Endpoint: server.URL, Model: "m", APIKey: "key", Timeout: time.Second})

	text, err := client.Complete(context.Background(), ports.CompletionRequest{Prompt: "hi", MaxTokens: 200, Temperature: 0.7})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if text != "Hello neighbours" {
		t.Fatalf("unexpected text %q", text)
	}
	if got.Model != "m" || got.MaxTokens != 200 || len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.Temperature == nil || *got.Temperature != 0.7 {
		t.Fatalf("unexpected temperature %v", got.Temperature)
	}
}

func TestCompleteUnconfigured(t *testing.T) {
	t.Parallel()

	client := NewChatGPTClient(config.LLMConfig{Endpoint: "http://unused", Model: "m"})
	_, err := client.Complete(context.Background(), ports.CompletionRequest{Prompt: "hi"})
	if !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestCompleteRejectsBadResponses(t *testing.T) {
	t.Parallel()

	bodies := map[string]struct {
		status int
		body   string
	}{
		"server error": {http.StatusInternalServerError, `{"error":"boom"}`},
		"malformed":    {http.StatusOK, `{"choices":`},
		"no choices":   {http.StatusOK, `{"choices":[]}`},
		"empty":        {http.StatusOK, `{"choices":[{"message":{"content":"   "}}]}`},
	}

	for name, tc := range bodies {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewChatGPTClient(config.LLMConfig{Endpoint: server.URL, Model: "m", APIKey: "key"})
			if _, err := client.Complete(context.Background(), ports.CompletionRequest{Prompt: "hi"}); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
