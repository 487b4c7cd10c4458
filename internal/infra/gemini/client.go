package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"home-voice/internal/domain"
	"home-voice/internal/infra"
	"home-voice/internal/infra/zeroshot"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.0-flash"
)

const answerPrompt = `You are a home voice assistant. Answer the user's question in one short spoken sentence. Do not use markdown, lists or emojis.`

type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Retry      infra.RetryConfig
}

type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
	retry      infra.RetryConfig
	breaker    *infra.Breaker
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
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
	return &Client{
		apiKey:     cfg.APIKey,
		httpClient: cfg.HTTPClient,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		retry:      cfg.Retry,
		breaker:    infra.NewBreaker("gemini", logger),
		logger:     logger,
	}
}

type content struct {
	Parts []part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

type part struct {
	Text string `json:"text"`
}

type request struct {
	Contents         []content        `json:"contents"`
	SystemInstruct   *content         `json:"systemInstruction,omitempty"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	Temperature      float64 `json:"temperature"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

type response struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

func (c *Client) Score(ctx context.Context, text string, labels []string) ([]domain.Score, error) {
	reply, err := c.generate(ctx, zeroshot.SystemPrompt(labels), text, generationConfig{
		MaxOutputTokens:  512,
		Temperature:      0,
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, err
	}
	return zeroshot.ParseScores(reply, labels)
}

func (c *Client) Answer(ctx context.Context, question string) (string, error) {
	return c.generate(ctx, answerPrompt, question, generationConfig{
		MaxOutputTokens: 128,
		Temperature:     0.4,
	})
}

func (c *Client) generate(ctx context.Context, system, user string, gen generationConfig) (string, error) {
	reqBody := request{
		SystemInstruct: &content{
			Parts: []part{{Text: system}},
		},
		Contents: []content{
			{
				Role:  "user",
				Parts: []part{{Text: user}},
			},
		},
		GenerationConfig: gen,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(c.apiKey))

	var result response
	err = c.breaker.Do(func() error {
		return infra.WithRetry(ctx, c.retry, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
			if err != nil {
				return infra.Permanent(fmt.Errorf("creating request: %w", err))
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("sending request: %w", err)
			}
			defer resp.Body.Close()

			respBody, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("reading response: %w", err)
			}

			if resp.StatusCode != http.StatusOK {
				return &infra.StatusError{Service: "gemini", Code: resp.StatusCode, Body: string(respBody)}
			}

			if err = json.Unmarshal(respBody, &result); err != nil {
				return infra.Permanent(fmt.Errorf("decoding response: %w", err))
			}
			return nil
		})
	})
	if err != nil {
		return "", err
	}

	if result.Error != nil {
		return "", fmt.Errorf("gemini error: %s", result.Error.Message)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	text := strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text)
	c.logger.Debug("gemini reply", "model", c.model, "chars", len(text))
	return text, nil
}
