package httpx

import (
	"net/http"
	"time"
)

const DefaultExternalTimeout = 90 * time.Second

const userAgent = "insightdash/1.0"

// NewExternalClient returns the client used for outbound provider calls.
// A non-positive timeout falls back to DefaultExternalTimeout.
func NewExternalClient(timeoutSeconds int) *http.Client {
	return &http.Client{
		Timeout:   Timeout(timeoutSeconds),
		Transport: &userAgentTransport{base: http.DefaultTransport},
	}
}

func Timeout(timeoutSeconds int) time.Duration {
	if timeoutSeconds > 0 {
		return time.Duration(timeoutSeconds) * time.Second
	}
	return DefaultExternalTimeout
}

type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", userAgent)
	return t.base.RoundTrip(clone)
}
