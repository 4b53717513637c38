package llmcomplete

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/codalotl/codepal/internal/health"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// OpenAIOptions configures an OpenAI-compatible completer.
type OpenAIOptions struct {
	APIKey  string
	BaseURL string // empty uses the SDK default (api.openai.com)
	Model   string

	// HTTPClient overrides the transport. Optional.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// OpenAI completes via the chat completions API of OpenAI or any compatible endpoint.
type OpenAI struct {
	client openai.Client
	model  string
	health.Ctx
}

var _ Completer = (*OpenAI)(nil)

// NewOpenAI returns an OpenAI completer. The SDK's own retries are disabled; wrap with WithRetry instead.
func NewOpenAI(opts OpenAIOptions) (*OpenAI, error) {
	if opts.APIKey == "" {
		return nil, errors.New("llmcomplete: no OpenAI API key")
	}
	if opts.Model == "" {
		return nil, errors.New("llmcomplete: no model")
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &OpenAI{
		client: openai.NewClient(reqOpts...),
		model:  opts.Model,
		Ctx:    health.NewCtx(logger),
	}, nil
}

func (c *OpenAI) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.User))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	}
	if req.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	c.Log("openai.request", "id", req.ID, "model", c.model, "bytes", len(req.System)+len(req.User), "json", req.JSON)

	var httpResp *http.Response
	resp, err := c.client.Chat.Completions.New(ctx, params, option.WithResponseInto(&httpResp))
	if err != nil {
		return nil, c.classifyError(err, httpResp)
	}
	if resp == nil {
		return nil, fmt.Errorf("chat completion response is nil")
	}
	if len(resp.Choices) != 1 {
		return nil, fmt.Errorf("unexpected choices length: %d", len(resp.Choices))
	}

	choice := resp.Choices[0]
	text := choice.Message.Content
	if text == "" {
		text = choice.Message.Refusal
	}
	if text == "" {
		return nil, ErrEmptyResponse
	}

	out := &Response{
		Text:       text,
		RequestID:  resp.ID,
		Model:      resp.Model,
		StopReason: choice.FinishReason,
		Usage: Usage{
			TotalTokens:  int(resp.Usage.TotalTokens),
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}
	if httpResp != nil {
		setRateLimitsFromHeaders(&out.RateLimits, httpResp.Header)
	}
	c.Log("openai.response", append([]any{"id", req.ID, "model", out.Model, "stop", out.StopReason}, out.Usage.LogPairs()...)...)
	return out, nil
}

// classifyError converts a client error into a *ResponseError, marking rate limits, server errors, and network errors as retryable.
func (c *OpenAI) classifyError(err error, httpResp *http.Response) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	responseErr := &ResponseError{Provider: "openai", Err: err, Message: err.Error()}
	if httpResp != nil {
		setRateLimitsFromHeaders(&responseErr.RateLimits, httpResp.Header)
		responseErr.StatusCode = httpResp.StatusCode
	}

	var apiErr *openai.Error
	var netErr net.Error
	switch {
	case errors.As(err, &apiErr):
		responseErr.StatusCode = apiErr.StatusCode
		if apiErr.Message != "" {
			responseErr.Message = apiErr.Message
		}
		if isRetryableStatus(apiErr.StatusCode) {
			return makeRetryable(responseErr)
		}
	case errors.As(err, &netErr):
		return makeRetryable(responseErr)
	}
	return responseErr
}

func setRateLimitsFromHeaders(rateLimits *RateLimits, headers http.Header) {
	if rateLimits == nil || headers == nil {
		return
	}

	rateLimits.TokensLimit = parseRateLimitInt(headers.Get("x-ratelimit-limit-tokens"))
	rateLimits.RequestsLimit = parseRateLimitInt(headers.Get("x-ratelimit-limit-requests"))
	rateLimits.TokensRemaining = parseRateLimitInt(headers.Get("x-ratelimit-remaining-tokens"))
	rateLimits.RequestsRemaining = parseRateLimitInt(headers.Get("x-ratelimit-remaining-requests"))
	rateLimits.TokensResetsAt = parseRateLimitReset(headers.Get("x-ratelimit-reset-tokens"))
	rateLimits.RequestsResetsAt = parseRateLimitReset(headers.Get("x-ratelimit-reset-requests"))
}

func parseRateLimitInt(val string) int {
	if val == "" {
		return 0
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return n
}

// parseRateLimitReset parses a reset header like "6m0s" or "120ms". Missing or invalid values yield the zero time.
func parseRateLimitReset(val string) time.Time {
	if val == "" {
		return time.Time{}
	}
	if d, err := time.ParseDuration(val); err == nil {
		return time.Now().Add(d)
	}
	return time.Time{}
}
