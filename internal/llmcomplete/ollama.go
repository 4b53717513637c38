package llmcomplete

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/codalotl/codepal/internal/health"

	ollama "github.com/ollama/ollama/api"
)

// OllamaOptions configures an Ollama completer.
type OllamaOptions struct {
	// BaseURL is the Ollama server (ex: "http://localhost:11434"). Empty uses OLLAMA_HOST or the default local server.
	BaseURL string
	Model   string

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Ollama completes via a local or remote Ollama server's chat API.
type Ollama struct {
	client *ollama.Client
	model  string
	health.Ctx
}

var _ Completer = (*Ollama)(nil)

// NewOllama returns an Ollama completer.
func NewOllama(opts OllamaOptions) (*Ollama, error) {
	if opts.Model == "" {
		return nil, errors.New("llmcomplete: no model")
	}
	// The model name for ollama is without an "ollama:" prefix.
	model := strings.TrimPrefix(opts.Model, "ollama:")

	var client *ollama.Client
	if opts.BaseURL == "" {
		c, err := ollama.ClientFromEnvironment()
		if err != nil {
			return nil, err
		}
		client = c
	} else {
		u, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, err
		}
		httpClient := opts.HTTPClient
		if httpClient == nil {
			httpClient = http.DefaultClient
		}
		client = ollama.NewClient(u, httpClient)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Ollama{client: client, model: model, Ctx: health.NewCtx(logger)}, nil
}

func (c *Ollama) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	messages := make([]ollama.Message, 0, 2)
	if req.System != "" {
		messages = append(messages, ollama.Message{Role: "system", Content: req.System})
	}
	messages = append(messages, ollama.Message{Role: "user", Content: req.User})

	stream := false
	chatReq := &ollama.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   &stream,
		Options:  map[string]any{"temperature": 0},
	}
	if req.JSON {
		chatReq.Format = json.RawMessage(`"json"`)
	}

	c.Log("ollama.request", "id", req.ID, "model", c.model, "bytes", len(req.System)+len(req.User), "json", req.JSON)

	var text strings.Builder
	var last ollama.ChatResponse
	err := c.client.Chat(ctx, chatReq, func(res ollama.ChatResponse) error {
		text.WriteString(res.Message.Content)
		last = res
		return nil
	})
	if err != nil {
		return nil, classifyOllamaError(err)
	}
	if text.Len() == 0 {
		return nil, ErrEmptyResponse
	}

	out := &Response{
		Text:       text.String(),
		Model:      last.Model,
		StopReason: last.DoneReason,
		Usage: Usage{
			InputTokens:  last.PromptEvalCount,
			OutputTokens: last.EvalCount,
			TotalTokens:  last.PromptEvalCount + last.EvalCount,
		},
	}
	c.Log("ollama.response", append([]any{"id", req.ID, "model", out.Model, "stop", out.StopReason}, out.Usage.LogPairs()...)...)
	return out, nil
}

func classifyOllamaError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	responseErr := &ResponseError{Provider: "ollama", Err: err, Message: err.Error()}

	var statusErr ollama.StatusError
	var netErr net.Error
	switch {
	case errors.As(err, &statusErr):
		responseErr.StatusCode = statusErr.StatusCode
		if statusErr.ErrorMessage != "" {
			responseErr.Message = statusErr.ErrorMessage
		}
		if isRetryableStatus(statusErr.StatusCode) {
			return makeRetryable(responseErr)
		}
	case errors.As(err, &netErr):
		return makeRetryable(responseErr)
	}
	return responseErr
}
