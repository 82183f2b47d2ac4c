package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"goyo-backend/config"
)

const (
	maxRetries     = 3
	initialBackoff = time.Second
)

// ErrGenerationFailed is returned when the completion API cannot be
// reached or keeps failing after retries.
var ErrGenerationFailed = errors.New("text generation failed")

// ErrNoAPIKey is returned when the client is constructed without a key.
var ErrNoAPIKey = errors.New("GROQ_API_KEY not set")

// Client calls Groq's OpenAI-compatible chat completions API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient overrides the HTTP client, mainly for tests
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the completions endpoint base URL
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// NewClient creates a Groq completions client from configuration
func NewClient(cfg *config.Config, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:  cfg.GroqAPIKey,
		model:   cfg.GroqModel,
		baseURL: cfg.GroqBaseURL,
		httpClient: &http.Client{
			Timeout: cfg.GroqTimeout,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available reports whether the client has credentials to make calls
func (c *Client) Available() bool {
	return c.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends a single user prompt and returns the completion text.
func (c *Client) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return c.chat(ctx, []chatMessage{{Role: "user", Content: prompt}}, maxTokens)
}

// GenerateWithSystem sends a system instruction alongside the user prompt.
func (c *Client) GenerateWithSystem(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	return c.chat(ctx, []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: prompt},
	}, maxTokens)
}

func (c *Client) chat(ctx context.Context, messages []chatMessage, maxTokens int) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	reqBody := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/chat/completions"

	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt == maxRetries-1 {
				return "", fmt.Errorf("failed to send request after %d attempts: %w", maxRetries, err)
			}
			continue
		}

		if resp.StatusCode == http.StatusOK {
			var apiResp chatResponse
			if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
				resp.Body.Close()
				if attempt == maxRetries-1 {
					return "", fmt.Errorf("failed to decode response: %w", err)
				}
				continue
			}
			resp.Body.Close()

			if len(apiResp.Choices) == 0 {
				return "", fmt.Errorf("%w: empty response", ErrGenerationFailed)
			}

			return apiResp.Choices[0].Message.Content, nil
		}

		resp.Body.Close()

		// Don't retry on 400 or 401 errors
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return "", fmt.Errorf("API error: %d", resp.StatusCode)
		}

		c.logger.Warn("completion request failed, retrying",
			zap.Int("status", resp.StatusCode),
			zap.Int("attempt", attempt+1))

		if attempt == maxRetries-1 {
			return "", fmt.Errorf("API error after %d attempts: %d", maxRetries, resp.StatusCode)
		}
	}

	return "", ErrGenerationFailed
}
