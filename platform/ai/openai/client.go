// Package openai provides a minimal client for OpenAI-compatible
// chat-completion APIs. This is part of the platform layer and contains no
// business logic; callers own gating, parsing, and fallback behavior.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config for the chat-completions client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client calls the chat-completions endpoint. It performs no retries;
// transport failures surface to the caller, which converts them to skip
// reasons rather than propagating.
type Client struct {
	config Config
	http   *http.Client
}

// NewClient creates a chat-completions client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.config.Model
}

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResult carries the raw assistant text plus audit identifiers.
type CompletionResult struct {
	Text       string
	Model      string
	ResponseID string
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends a single-shot chat completion and returns the assistant text.
func (c *Client) Complete(ctx context.Context, messages []Message) (CompletionResult, error) {
	payload := chatRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: 0,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("marshal chat payload: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return CompletionResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("chat request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("read chat response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return CompletionResult{}, fmt.Errorf("chat API returned %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return CompletionResult{}, fmt.Errorf("decode chat response: %w", err)
	}
	if parsed.Error != nil {
		return CompletionResult{}, fmt.Errorf("chat API error: %s", parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return CompletionResult{}, fmt.Errorf("chat response has no choices")
	}

	model := parsed.Model
	if model == "" {
		model = c.config.Model
	}

	return CompletionResult{
		Text:       parsed.Choices[0].Message.Content,
		Model:      model,
		ResponseID: parsed.ID,
	}, nil
}
