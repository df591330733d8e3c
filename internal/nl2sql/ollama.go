package nl2sql

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

type OllamaConfig struct {
	BaseURL string
	Timeout time.Duration
}

// OllamaClient invokes an Ollama-compatible generation backend synchronously.
type OllamaClient struct {
	baseURL string
	client  *http.Client
}

func NewOllamaClient(cfg OllamaConfig) (*OllamaClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OllamaClient{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (c *OllamaClient) Generate(ctx context.Context, model, prompt string) (Output, error) {
	start := time.Now()
	out := Output{Model: model}

	payload, err := json.Marshal(map[string]any{
		"model":  model,
		"prompt": prompt,
		"stream": false,
	})
	if err != nil {
		out.Latency = time.Since(start)
		return out, fmt.Errorf("marshal generate payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		out.Latency = time.Since(start)
		return out, fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		out.Latency = time.Since(start)
		return out, fmt.Errorf("request generation: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	out.Latency = time.Since(start)
	if err != nil {
		return out, fmt.Errorf("read generate response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return out, fmt.Errorf("generation failed status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return out, fmt.Errorf("decode generate response: %w", err)
	}
	out.Text = strings.TrimSpace(parsed.Response)
	return out, nil
}
