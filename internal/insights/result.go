package insights

import (
	"context"
	"errors"
	"net"

	"insightdash/internal/integrations/llm"
)

// FailurePrefix starts every failure message shown to a user.
const FailurePrefix = "An error occurred while generating insights: "

type Category string

const (
	CategoryNetwork           Category = "network"
	CategoryAuth              Category = "auth"
	CategoryRateLimit         Category = "rate_limit"
	CategoryMalformedResponse Category = "malformed_response"
	CategoryProvider          Category = "provider"
	CategoryEmptyResponse     Category = "empty_response"
	CategoryCanceled          Category = "canceled"
	CategoryInternal          Category = "internal"
)

type Failure struct {
	Category Category `json:"category"`
	Detail   string   `json:"detail"`
}

// Result is the outcome of one narrative generation. Exactly one of Text
// (on success) or Failure is meaningful.
type Result struct {
	RunID    string
	Title    string
	Text     string
	Failure  *Failure
	Provider string
	Model    string
	Usage    llm.Usage
}

func (r Result) OK() bool { return r.Failure == nil }

// Display is what a surface shows: the model's text untouched, or the
// failure message.
func (r Result) Display() string {
	if r.Failure != nil {
		return FailurePrefix + r.Failure.Detail
	}
	return r.Text
}

// Outcome is "ok" or the failure category, as stored in run history.
func (r Result) Outcome() string {
	if r.Failure != nil {
		return string(r.Failure.Category)
	}
	return "ok"
}

// Classify maps a provider error to a failure category.
func Classify(err error) Category {
	if err == nil {
		return ""
	}

	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 401 || apiErr.StatusCode == 403:
			return CategoryAuth
		case apiErr.StatusCode == 429:
			return CategoryRateLimit
		default:
			return CategoryProvider
		}
	}

	switch {
	case errors.Is(err, context.Canceled):
		return CategoryCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return CategoryNetwork
	case errors.Is(err, llm.ErrMalformedResponse):
		return CategoryMalformedResponse
	case errors.Is(err, llm.ErrEmptyResponse):
		return CategoryEmptyResponse
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return CategoryNetwork
	}
	return CategoryProvider
}
