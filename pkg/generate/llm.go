// Package generate builds parlay prompts and drives the external text
// generator through a bounded retry loop.
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// TextGenerator is the generation contract consumed by the Loop. The only
// guarantee is human-readable text; everything downstream defends against
// structural deviation.
type TextGenerator interface {
	Generate(ctx context.Context, prompt, modelID string) (string, error)
}

// OpenRouterConfig configures the OpenRouter client.
type OpenRouterConfig struct {
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
	Backoff     time.Duration
}

// DefaultOpenRouterConfig returns sensible defaults for the hosted API.
func DefaultOpenRouterConfig(apiKey string) OpenRouterConfig {
	return OpenRouterConfig{
		APIKey:      apiKey,
		BaseURL:     "https://openrouter.ai/api/v1",
		MaxTokens:   4096,
		Temperature: 0.7,
		Timeout:     120 * time.Second,
		MaxRetries:  2,
		Backoff:     2 * time.Second,
	}
}

// OpenRouterClient is an OpenAI-compatible chat-completions client
// implementing TextGenerator.
type OpenRouterClient struct {
	config  OpenRouterConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewOpenRouterClient creates a new client.
func NewOpenRouterClient(config OpenRouterConfig) *OpenRouterClient {
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   15 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		ResponseHeaderTimeout: 120 * time.Second, // LLM APIs can be slow to first byte
	}

	return &OpenRouterClient{
		config: config,
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(1), 2),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generate sends one chat completion. Transport-level failures are retried
// a bounded number of times; a count mismatch in the returned text is not a
// transport failure and is handled by the Loop, not here.
func (c *OpenRouterClient) Generate(ctx context.Context, prompt, modelID string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	var lastErr error
	attempts := c.config.MaxRetries + 1
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.config.Backoff * time.Duration(i)):
			}
		}

		text, err := c.call(ctx, prompt, modelID)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("text generator failed after %d attempts: %w", attempts, lastErr)
}

func (c *OpenRouterClient) call(ctx context.Context, prompt, modelID string) (string, error) {
	reqBody := map[string]any{
		"model":       modelID,
		"messages":    []chatMessage{{Role: "user", Content: prompt}},
		"max_tokens":  c.config.MaxTokens,
		"temperature": c.config.Temperature,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("api error %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return parsed.Choices[0].Message.Content, nil
}
