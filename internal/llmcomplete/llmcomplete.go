// llmcomplete is a barebones package to abstract single-turn LLM completions across providers (OpenAI-compatible endpoints and Ollama). It purposefully does NOT
// take advantage of each provider's special features. There are no tools, no streaming, and no multi-turn conversations: a system prompt and a user message go in,
// text comes out.
//
// Behavior that is shared across providers (retries, token budgets) is layered on as wrappers around a Completer.
package llmcomplete

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Completer produces one assistant reply for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Request is a single-turn completion request.
type Request struct {
	System string
	User   string

	// JSON asks the provider to constrain output to a JSON object, where supported.
	JSON bool

	// ID correlates logs for this request. Optional.
	ID string
}

// Response is the assistant's reply.
type Response struct {
	Text string

	RequestID  string // provider's id, if any (ex: "chatcmpl-BXYJ0U9PpC3uDzeoP2ZN1nBthfnpu")
	Model      string // model that actually answered (ex: "gpt-4.1-mini-2025-04-14")
	StopReason string // pass-through of the provider's finish reason (ex: "stop")

	Usage
}

// Usage captures token counts for a reply.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	RateLimits
}

// RateLimits are a provider's reported limits at the time of the reply. Zero values mean unknown.
type RateLimits struct {
	TokensLimit       int
	RequestsLimit     int
	TokensRemaining   int
	RequestsRemaining int
	TokensResetsAt    time.Time
	RequestsResetsAt  time.Time
}

// LogPairs returns an even number of elements, string and value, for use in slog's logging.
func (u Usage) LogPairs() []any {
	return []any{
		"tokens", u.TotalTokens,
		"in", u.InputTokens,
		"out", u.OutputTokens,
		"token_limits", fmt.Sprintf("%d/%d", u.RateLimits.TokensRemaining, u.RateLimits.TokensLimit),
		"request_limits", fmt.Sprintf("%d/%d", u.RateLimits.RequestsRemaining, u.RateLimits.RequestsLimit),
	}
}

// ResponseError is returned when the provider rejects or fails a request.
type ResponseError struct {
	Provider   string
	StatusCode int // HTTP status code, if any
	Message    string
	RateLimits
	Err error // error from the client library
}

func (e *ResponseError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ResponseError) Unwrap() error { return e.Err }

// ErrRetryable marks an error as retryable by the caller.
var ErrRetryable = errors.New("llmcomplete: retryable")

// ErrEmptyResponse is returned when a provider answers with no text.
var ErrEmptyResponse = errors.New("llmcomplete: empty response")

func makeRetryable(err error) error { return fmt.Errorf("%w: %w", ErrRetryable, err) }
func isRetryable(err error) bool    { return errors.Is(err, ErrRetryable) }

// isRetryableStatus reports whether an HTTP status is worth retrying: rate limits and server errors.
func isRetryableStatus(code int) bool {
	return code == 429 || (code >= 500 && code <= 599)
}

func validateRequest(req Request) error {
	if req.User == "" {
		return errors.New("llmcomplete: request has no user message")
	}
	return nil
}
