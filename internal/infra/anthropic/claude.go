package anthropic

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

	"home-voice/internal/domain"
	"home-voice/internal/infra"
	"home-voice/internal/infra/zeroshot"
)

const (
	defaultBaseURL = "https://api.anthropic.com/v1"
	defaultModel   = "claude-sonnet-4-20250514"
)

const answerPrompt = `You are a home voice assistant. Answer the user's question in one short spoken sentence. Do not use markdown, lists or emojis.`

type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Retry      infra.RetryConfig
}

// ClaudeClient serves both as the zero-shot label scorer and as the
// question answerer.
type ClaudeClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
	retry      infra.RetryConfig
	breaker    *infra.Breaker
	logger     *slog.Logger
}

func NewClaudeClient(cfg Config, logger *slog.Logger) *ClaudeClient {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = infra.DefaultRetryConfig()
	}
	return &ClaudeClient{
		apiKey:     cfg.APIKey,
		httpClient: cfg.HTTPClient,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		retry:      cfg.Retry,
		breaker:    infra.NewBreaker("claude", logger),
		logger:     logger,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type response struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *ClaudeClient) Score(ctx context.Context, text string, labels []string) ([]domain.Score, error) {
	reply, err := c.complete(ctx, zeroshot.SystemPrompt(labels), text, 512)
	if err != nil {
		return nil, err
	}
	return zeroshot.ParseScores(reply, labels)
}

func (c *ClaudeClient) Answer(ctx context.Context, question string) (string, error) {
	return c.complete(ctx, answerPrompt, question, 128)
}

func (c *ClaudeClient) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	reqBody := request{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    system,
		Messages: []message{
			{Role: "user", Content: user},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	var result response
	err = c.breaker.Do(func() error {
		return infra.WithRetry(ctx, c.retry, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(bodyBytes))
			if err != nil {
				return infra.Permanent(fmt.Errorf("creating request: %w", err))
			}

			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("x-api-key", c.apiKey)
			req.Header.Set("anthropic-version", "2023-06-01")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("sending request: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				respBody, _ := io.ReadAll(resp.Body)
				return &infra.StatusError{Service: "claude", Code: resp.StatusCode, Body: string(respBody)}
			}

			if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
				return infra.Permanent(fmt.Errorf("decoding response: %w", err))
			}
			return nil
		})
	})
	if err != nil {
		return "", err
	}

	if len(result.Content) == 0 {
		return "", fmt.Errorf("empty response from claude")
	}

	text := strings.TrimSpace(result.Content[0].Text)
	c.logger.Debug("claude reply", "model", c.model, "chars", len(text))
	return text, nil
}
