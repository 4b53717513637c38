package llmcomplete

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Mock is a Completer that replies with the value for any key contained in the user message. Keys are matched case-insensitively, longest key first, so
// that a more specific key wins over a shorter one it contains.
type Mock struct {
	Responses map[string]string

	// Err, if set, is returned from every call.
	Err error

	mu       sync.Mutex
	requests []Request
}

var _ Completer = (*Mock)(nil)

// NewMock returns a mock completer.
func NewMock(responses map[string]string) *Mock {
	return &Mock{Responses: responses}
}

func (m *Mock) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(m.Responses))
	for k := range m.Responses {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	lower := strings.ToLower(req.User)
	for _, k := range keys {
		if strings.Contains(lower, strings.ToLower(k)) {
			text := m.Responses[k]
			in := CountTokens(req.System) + CountTokens(req.User)
			out := CountTokens(text)
			return &Response{
				Text:       text,
				Model:      "mock",
				StopReason: "stop",
				Usage:      Usage{InputTokens: in, OutputTokens: out, TotalTokens: in + out},
			}, nil
		}
	}
	return nil, fmt.Errorf("no mock response for %q", req.User)
}

// Requests returns the requests received so far.
func (m *Mock) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}
