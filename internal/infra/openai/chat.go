package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	oai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"home-voice/internal/domain"
	"home-voice/internal/infra"
	"home-voice/internal/infra/zeroshot"
)

const answerPrompt = `You are a home voice assistant. Answer the user's question in one short spoken sentence. Do not use markdown, lists or emojis.`

// ChatClient scores classifier labels and answers questions through the
// chat completions API.
type ChatClient struct {
	client  oai.Client
	model   string
	retry   infra.RetryConfig
	breaker *infra.Breaker
	logger  *slog.Logger
}

func NewChatClient(cfg Config, logger *slog.Logger) *ChatClient {
	cfg = cfg.withDefaults()
	client := oai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(cfg.HTTPClient),
		option.WithBaseURL(cfg.BaseURL+"/"),
		option.WithMaxRetries(0),
	)
	return &ChatClient{
		client:  client,
		model:   cfg.ChatModel,
		retry:   cfg.Retry,
		breaker: infra.NewBreaker("openai-chat", logger),
		logger:  logger,
	}
}

func (c *ChatClient) Score(ctx context.Context, text string, labels []string) ([]domain.Score, error) {
	reply, err := c.complete(ctx, zeroshot.SystemPrompt(labels), text)
	if err != nil {
		return nil, err
	}
	return zeroshot.ParseScores(reply, labels)
}

func (c *ChatClient) Answer(ctx context.Context, question string) (string, error) {
	return c.complete(ctx, answerPrompt, question)
}

func (c *ChatClient) complete(ctx context.Context, system, user string) (string, error) {
	var content string
	err := c.breaker.Do(func() error {
		return infra.WithRetry(ctx, c.retry, func() error {
			resp, err := c.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
				Messages: []oai.ChatCompletionMessageParamUnion{
					oai.SystemMessage(system),
					oai.UserMessage(user),
				},
				Model: oai.ChatModel(c.model),
			})
			if err != nil {
				var apiErr *oai.Error
				if errors.As(err, &apiErr) {
					return &infra.StatusError{Service: "openai", Code: apiErr.StatusCode, Body: apiErr.Error()}
				}
				return fmt.Errorf("chat completion: %w", err)
			}
			if len(resp.Choices) == 0 {
				return infra.Permanent(fmt.Errorf("empty response from openai"))
			}
			content = resp.Choices[0].Message.Content
			return nil
		})
	})
	if err != nil {
		return "", err
	}

	content = strings.TrimSpace(content)
	c.logger.Debug("chat reply", "model", c.model, "chars", len(content))
	return content, nil
}
