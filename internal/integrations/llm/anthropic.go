package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

type Anthropic struct {
	client anthropic.Client
	model  string
	logger *zap.Logger
}

// NewAnthropic builds the Anthropic completer. SDK retries are disabled so a
// single Complete call is a single request.
func NewAnthropic(apiKey, baseURL, model string, httpClient *http.Client, logger *zap.Logger) *Anthropic {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Anthropic{
		client: anthropic.NewClient(opts...),
		model:  model,
		logger: logger,
	}
}

func (a *Anthropic) Provider() string { return "anthropic" }
func (a *Anthropic) Model() string    { return a.model }

func (a *Anthropic) Complete(ctx context.Context, systemPrompt, userPrompt string) (Completion, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		a.logger.Warn("llm anthropic error", zap.Error(err))
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return Completion{}, &APIError{Provider: "Anthropic", StatusCode: apiErr.StatusCode, Message: apiErr.Error()}
		}
		return Completion{}, fmt.Errorf("Anthropic API error: %w", err)
	}
	usage := Usage{
		InputTokens:  message.Usage.InputTokens,
		OutputTokens: message.Usage.OutputTokens,
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			a.logger.Debug("llm anthropic response",
				zap.String("model", a.model),
				zap.Int("size", len(block.Text)),
				zap.Int64("tokens_in", usage.InputTokens),
				zap.Int64("tokens_out", usage.OutputTokens))
			return Completion{Text: block.Text, Usage: usage}, nil
		}
	}
	return Completion{Usage: usage}, fmt.Errorf("Anthropic response: %w", ErrEmptyResponse)
}
