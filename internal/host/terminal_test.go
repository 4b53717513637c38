package host

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminal_ActiveDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n"), 0o644))

	sel := LineRange(0, 1)
	term := NewTerminal(TerminalOptions{Path: path, Selection: &sel, Out: &bytes.Buffer{}})

	doc, err := term.ActiveDocument(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "package main\n", doc.Text)
	assert.Equal(t, "go", doc.LanguageID)
	assert.Equal(t, path, PathFromURI(doc.URI))
	require.NotNil(t, doc.Selection)
	assert.Equal(t, sel, *doc.Selection)

	_, err = NewTerminal(TerminalOptions{Out: &bytes.Buffer{}}).ActiveDocument(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveDocument)
}

func TestTerminal_ShowDiagnostics(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")

	var out bytes.Buffer
	term := NewTerminal(TerminalOptions{Out: &out})
	err := term.ShowDiagnostics(context.Background(), URIFromPath(path), []Diagnostic{
		{Range: Range{Start: Position{Line: 2, Character: 4}}, Severity: SeverityError, Message: "nil\n  dereference", Code: "nil"},
		{Range: Range{Start: Position{Line: 0}}, Severity: SeverityHint, Message: "rename"},
	})
	require.NoError(t, err)
	want := path + ":3:5: error: nil dereference [nil]\n" + path + ":1:1: hint: rename\n"
	assert.Equal(t, want, out.String())

	out.Reset()
	require.NoError(t, term.ShowDiagnostics(context.Background(), URIFromPath(path), nil))
	assert.Equal(t, path+": no issues\n", out.String())
}

func TestTerminal_ShowDiagnostics_Truncates(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(TerminalOptions{Out: &out, Width: 40})
	long := "this message is far too long to fit on a forty column terminal line"
	require.NoError(t, term.ShowDiagnostics(context.Background(), "x.go", []Diagnostic{{Severity: SeverityWarning, Message: long}}))
	assert.Contains(t, out.String(), "…")
	assert.NotContains(t, out.String(), "terminal line")
}

func TestTerminal_ApplyEdit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\nc\n"), 0o600))

	term := NewTerminal(TerminalOptions{Out: &bytes.Buffer{}})
	err := term.ApplyEdit(context.Background(), URIFromPath(path), []TextEdit{{Range: LineRange(1, 2), NewText: "B\nB2\n"}})
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nB\nB2\nc\n", string(b))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestTerminal_RenderPanel(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	term := NewTerminal(TerminalOptions{Out: &out, PanelDir: dir})

	require.NoError(t, term.RenderPanel(context.Background(), Panel{ID: "review/1", Title: "Review", HTML: "<p>hi</p>"}))
	path := term.PanelPaths["review/1"]
	assert.Equal(t, filepath.Join(dir, "review_1.html"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", string(b))
	assert.Equal(t, "Review: "+path+"\n", out.String())
}

func TestURIRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "with space.go")
	assert.Equal(t, path, PathFromURI(URIFromPath(path)))
	assert.Equal(t, "plain/path.go", PathFromURI("plain/path.go"))
}
