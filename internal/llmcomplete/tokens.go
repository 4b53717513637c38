package llmcomplete

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
)

// CountTokens returns the token count of text. All supported models are counted with o200k_base; for other tokenizers (ex: local Ollama models) this is an estimate.
func CountTokens(text string) int {
	codecOnce.Do(func() {
		enc, err := tokenizer.Get(tokenizer.O200kBase)
		if err != nil {
			panic(fmt.Errorf("invalid encoder: %v", tokenizer.O200kBase))
		}
		codec = enc
	})

	count, err := codec.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return count
}

// ErrTokenBudget is returned (wrapped in a *TokenBudgetError) when a request's input exceeds the configured budget.
var ErrTokenBudget = errors.New("llmcomplete: input exceeds token budget")

// TokenBudgetError reports how far over budget a request was.
type TokenBudgetError struct {
	Tokens int
	Max    int
}

func (e *TokenBudgetError) Error() string {
	return fmt.Sprintf("llmcomplete: input is %d tokens; the limit is %d", e.Tokens, e.Max)
}

func (e *TokenBudgetError) Unwrap() error { return ErrTokenBudget }

type budgeted struct {
	next Completer
	max  int
}

// WithTokenBudget wraps c so that requests whose system plus user text exceeds maxInputTokens are rejected before being sent. maxInputTokens <= 0 returns c
// unchanged.
func WithTokenBudget(c Completer, maxInputTokens int) Completer {
	if maxInputTokens <= 0 {
		return c
	}
	return &budgeted{next: c, max: maxInputTokens}
}

func (b *budgeted) Complete(ctx context.Context, req Request) (*Response, error) {
	if n := CountTokens(req.System) + CountTokens(req.User); n > b.max {
		return nil, &TokenBudgetError{Tokens: n, Max: b.max}
	}
	return b.next.Complete(ctx, req)
}
