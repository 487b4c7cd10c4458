package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"home-voice/internal/infra"
	"home-voice/internal/infra/audio"
	"home-voice/internal/processing"
)

const (
	defaultBaseURL            = "https://api.openai.com/v1"
	defaultTranscriptionModel = "whisper-1"
	defaultChatModel          = "gpt-4o-mini"
)

type Config struct {
	APIKey             string
	BaseURL            string
	ChatModel          string
	TranscriptionModel string
	Language           string
	HTTPClient         *http.Client
	Retry              infra.RetryConfig
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	if c.ChatModel == "" {
		c.ChatModel = defaultChatModel
	}
	if c.TranscriptionModel == "" {
		c.TranscriptionModel = defaultTranscriptionModel
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry = infra.DefaultRetryConfig()
	}
	return c
}

// TranscriptionClient sends 16 kHz utterances to the hosted Whisper
// endpoint as WAV uploads.
type TranscriptionClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
	language   string
	retry      infra.RetryConfig
	breaker    *infra.Breaker
	logger     *slog.Logger
}

func NewTranscriptionClient(cfg Config, logger *slog.Logger) *TranscriptionClient {
	cfg = cfg.withDefaults()
	return &TranscriptionClient{
		apiKey:     cfg.APIKey,
		httpClient: cfg.HTTPClient,
		baseURL:    cfg.BaseURL,
		model:      cfg.TranscriptionModel,
		language:   cfg.Language,
		retry:      cfg.Retry,
		breaker:    infra.NewBreaker("whisper", logger),
		logger:     logger,
	}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

func (c *TranscriptionClient) Transcribe(ctx context.Context, samples []float32) (string, error) {
	wavData, err := audio.EncodeWAV(samples, processing.WorkingSampleRate)
	if err != nil {
		return "", fmt.Errorf("encoding utterance: %w", err)
	}

	var result transcriptionResponse
	err = c.breaker.Do(func() error {
		return infra.WithRetry(ctx, c.retry, func() error {
			body := &bytes.Buffer{}
			writer := multipart.NewWriter(body)

			part, err := writer.CreateFormFile("file", "audio.wav")
			if err != nil {
				return infra.Permanent(fmt.Errorf("creating form file: %w", err))
			}
			if _, err = part.Write(wavData); err != nil {
				return infra.Permanent(fmt.Errorf("writing audio: %w", err))
			}
			if err = writer.WriteField("model", c.model); err != nil {
				return infra.Permanent(fmt.Errorf("writing model field: %w", err))
			}
			if c.language != "" {
				if err = writer.WriteField("language", c.language); err != nil {
					return infra.Permanent(fmt.Errorf("writing language field: %w", err))
				}
			}
			if err = writer.Close(); err != nil {
				return infra.Permanent(fmt.Errorf("closing writer: %w", err))
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", body)
			if err != nil {
				return infra.Permanent(fmt.Errorf("creating request: %w", err))
			}
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
			req.Header.Set("Content-Type", writer.FormDataContentType())

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("sending request: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				respBody, _ := io.ReadAll(resp.Body)
				return &infra.StatusError{Service: "whisper", Code: resp.StatusCode, Body: string(respBody)}
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

	return strings.TrimSpace(result.Text), nil
}
