package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type OpenAI struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

func NewOpenAI(apiKey, baseURL, model string, client *http.Client, logger *zap.Logger) *OpenAI {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAI{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  client,
		logger:  logger,
	}
}

func (o *OpenAI) Provider() string { return "openai" }
func (o *OpenAI) Model() string    { return o.model }

func (o *OpenAI) Complete(ctx context.Context, systemPrompt, userPrompt string) (Completion, error) {
	reqBody := openAIRequest{
		Model: o.model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return Completion{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return Completion{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		o.logger.Warn("llm openai error", zap.Error(err))
		return Completion{}, fmt.Errorf("OpenAI API error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Completion{}, fmt.Errorf("reading response: %w", err)
	}

	var openAIResp openAIResponse
	decodeErr := json.Unmarshal(respBody, &openAIResp)

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(respBody))
		if decodeErr == nil && openAIResp.Error != nil && openAIResp.Error.Message != "" {
			msg = openAIResp.Error.Message
		}
		o.logger.Warn("llm openai api error", zap.Int("status", resp.StatusCode), zap.String("message", msg))
		return Completion{}, &APIError{Provider: "OpenAI", StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return Completion{}, fmt.Errorf("parsing OpenAI response: %w: %v", ErrMalformedResponse, decodeErr)
	}
	if openAIResp.Error != nil {
		return Completion{}, &APIError{Provider: "OpenAI", StatusCode: resp.StatusCode, Message: openAIResp.Error.Message}
	}
	if len(openAIResp.Choices) == 0 {
		return Completion{}, fmt.Errorf("no choices in OpenAI response: %w", ErrEmptyResponse)
	}

	usage := Usage{}
	if openAIResp.Usage != nil {
		usage.InputTokens = openAIResp.Usage.PromptTokens
		usage.OutputTokens = openAIResp.Usage.CompletionTokens
	}

	text := openAIResp.Choices[0].Message.Content
	o.logger.Debug("llm openai response",
		zap.String("model", o.model),
		zap.Int("size", len(text)),
		zap.Int64("tokens_in", usage.InputTokens),
		zap.Int64("tokens_out", usage.OutputTokens))
	return Completion{Text: text, Usage: usage}, nil
}
