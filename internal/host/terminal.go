package host

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/codalotl/codepal/internal/health"
	"github.com/codalotl/codepal/internal/termtext"
	"github.com/codalotl/codepal/internal/workspace"
)

// TerminalOptions configures a Terminal host.
type TerminalOptions struct {
	Path      string // file that ActiveDocument returns
	Selection *Range // optional selection within Path
	PanelDir  string // where RenderPanel writes HTML files; defaults to os.TempDir()/codepal-panels
	Out       io.Writer
	Color     bool // ANSI colors for diagnostics
	Width     int  // columns for diagnostics; <= 0 means no truncation
	Logger    *slog.Logger
}

// Terminal is a Host backed by the filesystem and a text stream. Diagnostics are printed in compiler style, panels are written as HTML files, and edits are
// written back to disk.
type Terminal struct {
	mu   sync.Mutex
	opts TerminalOptions
	health.Ctx

	// PanelPaths maps panel ID to the file it was written to.
	PanelPaths map[string]string
}

var _ Host = (*Terminal)(nil)

// NewTerminal returns a Terminal host.
func NewTerminal(opts TerminalOptions) *Terminal {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.PanelDir == "" {
		opts.PanelDir = filepath.Join(os.TempDir(), "codepal-panels")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Terminal{opts: opts, Ctx: health.NewCtx(logger), PanelPaths: map[string]string{}}
}

// SetActive changes the file (and selection) returned by ActiveDocument.
func (t *Terminal) SetActive(path string, selection *Range) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.opts.Path = path
	t.opts.Selection = selection
}

func (t *Terminal) ActiveDocument(ctx context.Context) (Document, error) {
	t.mu.Lock()
	path, sel := t.opts.Path, t.opts.Selection
	t.mu.Unlock()

	if path == "" {
		return Document{}, ErrNoActiveDocument
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Document{}, t.LogWrappedErr("terminal.read", err, "path", path)
	}
	doc := Document{
		URI:        URIFromPath(path),
		LanguageID: workspace.LanguageForPath(path),
		Text:       string(b),
	}
	if sel != nil {
		s := *sel
		doc.Selection = &s
	}
	return doc, nil
}

// ANSI colors per severity.
const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
	ansiGray   = "\x1b[90m"
)

func severityColor(s Severity) string {
	switch s {
	case SeverityError:
		return ansiRed
	case SeverityWarning:
		return ansiYellow
	case SeverityInformation:
		return ansiBlue
	default:
		return ansiGray
	}
}

// ShowDiagnostics prints one line per diagnostic: "path:line:col: severity: message", with 1-based line and column. Empty diags prints "path: no issues".
func (t *Terminal) ShowDiagnostics(ctx context.Context, uri string, diags []Diagnostic) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	path := displayPath(PathFromURI(uri))
	if len(diags) == 0 {
		_, err := fmt.Fprintf(t.opts.Out, "%s: no issues\n", path)
		return err
	}

	for _, d := range diags {
		loc := fmt.Sprintf("%s:%d:%d:", path, d.Range.Start.Line+1, d.Range.Start.Character+1)
		sev := d.Severity.String() + ":"
		msg := strings.Join(strings.Fields(d.Message), " ")
		if d.Code != "" {
			msg += " [" + d.Code + "]"
		}
		if t.opts.Width > 0 {
			avail := t.opts.Width - termtext.Width(loc) - termtext.Width(sev) - 2
			msg = termtext.Truncate(msg, max(avail, 10))
		}
		if t.opts.Color {
			loc = ansiBold + loc + ansiReset
			sev = severityColor(d.Severity) + sev + ansiReset
		}
		if _, err := fmt.Fprintf(t.opts.Out, "%s %s %s\n", loc, sev, msg); err != nil {
			return err
		}
	}
	return nil
}

// RenderPanel writes p.HTML to <PanelDir>/<ID>.html and prints the path.
func (t *Terminal) RenderPanel(ctx context.Context, p Panel) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := os.MkdirAll(t.opts.PanelDir, 0o755); err != nil {
		return t.LogWrappedErr("terminal.panel_dir", err, "dir", t.opts.PanelDir)
	}
	name := sanitizeFileName(p.ID)
	if name == "" {
		name = "panel"
	}
	path := filepath.Join(t.opts.PanelDir, name+".html")
	if err := writeFileAtomic(path, []byte(p.HTML), 0o644); err != nil {
		return t.LogWrappedErr("terminal.panel_write", err, "path", path)
	}
	t.PanelPaths[p.ID] = path
	t.Log("panel.rendered", "id", p.ID, "path", path)
	_, err := fmt.Fprintf(t.opts.Out, "%s: %s\n", p.Title, path)
	return err
}

// ApplyEdit applies edits to the file at uri and writes it back atomically, keeping its permissions.
func (t *Terminal) ApplyEdit(ctx context.Context, uri string, edits []TextEdit) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	path := PathFromURI(uri)
	info, err := os.Stat(path)
	if err != nil {
		return t.LogWrappedErr("terminal.apply_stat", err, "path", path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return t.LogWrappedErr("terminal.apply_read", err, "path", path)
	}
	text, err := ApplyEdits(string(b), edits)
	if err != nil {
		return t.LogWrappedErr("terminal.apply_edits", err, "path", path, "edits", len(edits))
	}
	if err := writeFileAtomic(path, []byte(text), info.Mode().Perm()); err != nil {
		return t.LogWrappedErr("terminal.apply_write", err, "path", path)
	}
	t.Log("edit.applied", "path", path, "edits", len(edits))
	return nil
}

// writeFileAtomic writes data to a temp file in path's directory and renames it over path.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp) // no-op after a successful rename

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp, perm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// displayPath returns path relative to the working directory when it is inside it.
func displayPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func sanitizeFileName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}
