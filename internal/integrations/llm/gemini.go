package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type Gemini struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

func NewGemini(ctx context.Context, apiKey, baseURL, model string, httpClient *http.Client, logger *zap.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gemini{client: client, model: model, logger: logger}, nil
}

func (g *Gemini) Provider() string { return "gemini" }
func (g *Gemini) Model() string    { return g.model }

func (g *Gemini) Complete(ctx context.Context, systemPrompt, userPrompt string) (Completion, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(userPrompt),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		},
	)
	if err != nil {
		g.logger.Warn("llm gemini error", zap.Error(err))
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return Completion{}, &APIError{Provider: "Gemini", StatusCode: apiErr.Code, Message: apiErr.Message}
		}
		return Completion{}, fmt.Errorf("Gemini API error: %w", err)
	}

	usage := Usage{}
	if resp.UsageMetadata != nil {
		usage.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	if len(resp.Candidates) == 0 {
		return Completion{Usage: usage}, fmt.Errorf("Gemini response: %w", ErrEmptyResponse)
	}

	text := resp.Text()
	g.logger.Debug("llm gemini response",
		zap.String("model", g.model),
		zap.Int("size", len(text)),
		zap.Int64("tokens_in", usage.InputTokens),
		zap.Int64("tokens_out", usage.OutputTokens))
	return Completion{Text: text, Usage: usage}, nil
}
