package assistant

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/codalotl/codepal/internal/host"
	"github.com/codalotl/codepal/internal/linealign"
	"github.com/codalotl/codepal/internal/modelresp"
	"github.com/codalotl/codepal/internal/prompt"
	"github.com/codalotl/codepal/internal/report"
	"github.com/codalotl/codepal/internal/workspace"

	"golang.org/x/time/rate"
)

// ReviewDocument reviews the active document (or its selection) and publishes the issues as diagnostics for its URI. A review with no issues clears the URI's
// diagnostics.
func (a *Assistant) ReviewDocument(ctx context.Context) ([]host.Diagnostic, error) {
	doc, err := a.host.ActiveDocument(ctx)
	if err != nil {
		return nil, err
	}
	diags, _, err := a.reviewDoc(ctx, doc)
	if err != nil {
		return nil, err
	}
	if err := a.host.ShowDiagnostics(ctx, doc.URI, diags); err != nil {
		return nil, a.LogWrappedErr("assistant.show_diagnostics", err, "uri", doc.URI)
	}
	return diags, nil
}

func (a *Assistant) reviewDoc(ctx context.Context, doc host.Document) ([]host.Diagnostic, string, error) {
	sub := submit(doc)
	if sub.code == "" {
		return nil, "", nil
	}
	reply, err := a.complete(ctx, prompt.KindReview, sub.input(a, doc))
	if err != nil {
		return nil, "", err
	}
	rev, err := modelresp.ParseReview(reply)
	if err != nil {
		return nil, "", a.LogWrappedErr("assistant.review.parse", err, "uri", doc.URI)
	}
	return IssuesToDiagnostics(rev.Issues, doc.Text, sub.firstLine), rev.Summary, nil
}

// IssuesToDiagnostics maps issues, whose lines are 1-based and relative to a snippet starting at document line firstLine (0-based), onto text. Lines past the end
// of text are clamped to the last line. A diagnostic spans from the issue's column (or the line start) to the end of its end line.
func IssuesToDiagnostics(issues []modelresp.Issue, text string, firstLine int) []host.Diagnostic {
	lines := linealign.SplitLines(text)
	if len(lines) == 0 {
		lines = []string{""}
	}
	last := len(lines) - 1

	diags := make([]host.Diagnostic, 0, len(issues))
	for _, is := range issues {
		start := clamp(firstLine+is.Line-1, 0, last)
		end := start
		if is.EndLine > 0 {
			end = clamp(firstLine+is.EndLine-1, start, last)
		}
		col := 0
		if is.Column > 0 {
			col = clamp(is.Column-1, 0, len(lines[start]))
		}

		msg := is.Message
		if is.Suggestion != "" {
			msg += "\nSuggestion: " + is.Suggestion
		}
		diags = append(diags, host.Diagnostic{
			Range: host.Range{
				Start: host.Position{Line: start, Character: col},
				End:   host.Position{Line: end, Character: len(lines[end])},
			},
			Severity: hostSeverity(is.Severity),
			Message:  msg,
			Source:   DiagnosticSource,
			Code:     is.Rule,
		})
	}
	return diags
}

func hostSeverity(s modelresp.Severity) host.Severity {
	switch s {
	case modelresp.SeverityError:
		return host.SeverityError
	case modelresp.SeverityInfo:
		return host.SeverityInformation
	case modelresp.SeverityHint:
		return host.SeverityHint
	default:
		return host.SeverityWarning
	}
}

// FileResult is one file's outcome in a workspace review.
type FileResult struct {
	Path        string // absolute
	Rel         string // relative to the workspace root
	Summary     string // model's summary, if given
	Diagnostics []host.Diagnostic
	Err         error // non-nil if the file could not be reviewed
}

// WorkspaceSummary is the outcome of ReviewWorkspace.
type WorkspaceSummary struct {
	Root      string
	Files     []FileResult
	Truncated bool // the tree had more files than the walk limit
	Panel     host.Panel
}

// Issues returns the total number of diagnostics.
func (s WorkspaceSummary) Issues() int {
	n := 0
	for _, f := range s.Files {
		n += len(f.Diagnostics)
	}
	return n
}

// Failed returns the files that could not be reviewed.
func (s WorkspaceSummary) Failed() []FileResult {
	var out []FileResult
	for _, f := range s.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// ReviewWorkspace reviews every reviewable file under root, one at a time, paced by Options.RequestsPerMinute. Diagnostics are published per file as each review
// completes. A file that fails (unreadable, model error, invalid reply) is recorded in the summary and the walk continues. If ctx is done, the files reviewed so
// far are returned with ctx's error. On completion a summary panel is rendered.
func (a *Assistant) ReviewWorkspace(ctx context.Context, root string) (WorkspaceSummary, error) {
	summary := WorkspaceSummary{Root: root}

	files, err := workspace.Walk(root, a.opts.Walk)
	if errors.Is(err, workspace.ErrTooManyFiles) {
		summary.Truncated = true
		a.Log("assistant.workspace.truncated", "root", root, "files", len(files))
	} else if err != nil {
		return summary, a.LogWrappedErr("assistant.workspace.walk", err, "root", root)
	}

	limit := rate.Inf
	if a.opts.RequestsPerMinute > 0 {
		limit = rate.Limit(a.opts.RequestsPerMinute / 60)
	}
	limiter := rate.NewLimiter(limit, 1)

	for _, f := range files {
		if err := limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return summary, ctxErr
			}
			return summary, err
		}

		res := FileResult{Path: f.Path, Rel: f.Rel}
		res.Diagnostics, res.Summary, res.Err = a.reviewFile(ctx, f)
		if res.Err != nil && ctx.Err() != nil {
			return summary, ctx.Err()
		}
		if res.Err != nil {
			a.Log("assistant.workspace.file_failed", "path", f.Rel, "err", res.Err.Error())
		}
		summary.Files = append(summary.Files, res)
	}

	entries := make([]report.FileEntry, len(summary.Files))
	for i, f := range summary.Files {
		entries[i] = report.FileEntry{Path: f.Rel, Diagnostics: f.Diagnostics, Err: f.Err}
	}
	title := fmt.Sprintf("Review of %s", root)
	panel, err := report.SummaryPanel("workspace-review", title, entries)
	if err != nil {
		return summary, err
	}
	if err := a.host.RenderPanel(ctx, panel); err != nil {
		return summary, a.LogWrappedErr("assistant.render_panel", err, "id", panel.ID)
	}
	summary.Panel = panel
	return summary, nil
}

func (a *Assistant) reviewFile(ctx context.Context, f workspace.File) ([]host.Diagnostic, string, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, "", err
	}
	doc := host.Document{URI: host.URIFromPath(f.Path), LanguageID: f.Language, Text: string(b)}
	diags, summary, err := a.reviewDoc(ctx, doc)
	if err != nil {
		return nil, "", err
	}
	if err := a.host.ShowDiagnostics(ctx, doc.URI, diags); err != nil {
		return nil, "", err
	}
	return diags, summary, nil
}
