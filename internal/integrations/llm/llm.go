package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"insightdash/internal/config"

	"go.uber.org/zap"
)

const (
	defaultOpenAIModel    = "gpt-4"
	defaultAnthropicModel = "claude-sonnet-4-5-20250929"
	defaultGeminiModel    = "gemini-2.5-flash"
)

var (
	ErrEmptyResponse     = errors.New("no text content in response")
	ErrMalformedResponse = errors.New("malformed response")
)

// Completer issues one chat completion: a system instruction plus a single
// user message, returning the first text the model produced.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (Completion, error)
	Provider() string
	Model() string
}

type Completion struct {
	Text  string
	Usage Usage
}

type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

func (u Usage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

// APIError is a non-success answer from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s API error: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// New builds the completer for cfg.LLMProvider.
func New(cfg config.Config, httpClient *http.Client, logger *zap.Logger) (Completer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("llm")

	switch cfg.LLMProvider {
	case config.ProviderOpenAI, "":
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, modelOrDefault(cfg.LLMModel, defaultOpenAIModel), httpClient, logger), nil
	case config.ProviderAnthropic:
		return NewAnthropic(cfg.AnthropicAPIKey, "", modelOrDefault(cfg.LLMModel, defaultAnthropicModel), httpClient, logger), nil
	case config.ProviderGemini:
		return NewGemini(context.Background(), cfg.GeminiAPIKey, "", modelOrDefault(cfg.LLMModel, defaultGeminiModel), httpClient, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}

func modelOrDefault(model, fallback string) string {
	if model == "" {
		return fallback
	}
	return model
}
