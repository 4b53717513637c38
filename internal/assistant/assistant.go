// Package assistant runs codepal's operations: it builds a prompt from host state, asks the model, validates the reply, and turns the result into host effects
// (diagnostics, panels, edits).
//
// Every model reply is untrusted. Replies that fail validation surface as modelresp errors and have no effect on the host.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/codalotl/codepal/internal/health"
	"github.com/codalotl/codepal/internal/host"
	"github.com/codalotl/codepal/internal/linealign"
	"github.com/codalotl/codepal/internal/llmcomplete"
	"github.com/codalotl/codepal/internal/prompt"
	"github.com/codalotl/codepal/internal/workspace"

	"github.com/google/uuid"
)

// DiagnosticSource is the Source of every diagnostic codepal publishes.
const DiagnosticSource = "codepal"

// Options configures an Assistant.
type Options struct {
	// Root is the project root. File paths shown to the model are relative to it when possible.
	Root string

	// ModulePath is the Go module path of the project, if any. It is sent as context.
	ModulePath string

	// RequestsPerMinute paces ReviewWorkspace. <= 0 means no pacing.
	RequestsPerMinute float64

	// Walk limits ReviewWorkspace.
	Walk workspace.Options

	Logger *slog.Logger
}

// Assistant connects a Host to a model.
type Assistant struct {
	host  host.Host
	model llmcomplete.Completer
	opts  Options
	health.Ctx
}

// New returns an Assistant.
func New(h host.Host, model llmcomplete.Completer, opts Options) *Assistant {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Assistant{host: h, model: model, opts: opts, Ctx: health.NewCtx(logger)}
}

var ErrEmptyInstruction = errors.New("assistant: empty instruction")

// complete sends one request and returns the reply text. Each call gets its own correlation id.
func (a *Assistant) complete(ctx context.Context, kind prompt.Kind, in prompt.Input) (string, error) {
	id := uuid.New().String()
	a.Log("assistant.request", "id", id, "kind", kind, "path", in.Path, "first_line", in.FirstLine)

	resp, err := a.model.Complete(ctx, llmcomplete.Request{
		System: prompt.System(kind),
		User:   prompt.User(in),
		JSON:   true,
		ID:     id,
	})
	if err != nil {
		return "", a.LogWrappedErr("assistant.complete", err, "id", id, "kind", kind)
	}
	a.Log("assistant.response", append([]any{"id", id, "kind", kind, "model", resp.Model}, resp.Usage.LogPairs()...)...)
	return resp.Text, nil
}

// submission is the part of a document sent to the model.
type submission struct {
	code      string
	rng       host.Range // range of code in the document
	firstLine int        // 0-based document line of the first submitted line
	selected  bool
}

// submit returns the selected lines of doc, or the whole document. Selections are widened to whole lines; a selection ending at character 0 of a later line does
// not include that line.
func submit(doc host.Document) submission {
	lines := linealign.SplitLines(doc.Text)
	if len(lines) == 0 {
		return submission{}
	}
	last := len(lines) - 1
	if doc.Selection == nil {
		return submission{
			code: doc.Text,
			rng:  host.Range{End: host.Position{Line: last, Character: len(lines[last])}},
		}
	}

	start, end := doc.Selection.Start.Line, doc.Selection.End.Line
	if end > start && doc.Selection.End.Character == 0 {
		end--
	}
	start = clamp(start, 0, last)
	end = clamp(end, start, last)
	return submission{
		code: strings.Join(lines[start:end+1], "\n"),
		rng: host.Range{
			Start: host.Position{Line: start},
			End:   host.Position{Line: end, Character: len(lines[end])},
		},
		firstLine: start,
		selected:  true,
	}
}

func (s submission) input(a *Assistant, doc host.Document) prompt.Input {
	in := prompt.Input{
		Path:       a.displayPath(doc.URI),
		Language:   doc.LanguageID,
		ModulePath: a.opts.ModulePath,
		Code:       s.code,
	}
	if s.selected {
		in.FirstLine = s.firstLine + 1
	}
	return in
}

func (a *Assistant) displayPath(uri string) string {
	p := host.PathFromURI(uri)
	if a.opts.Root != "" && filepath.IsAbs(p) {
		if rel, err := filepath.Rel(a.opts.Root, p); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return p
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func shortID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String()[:8])
}
