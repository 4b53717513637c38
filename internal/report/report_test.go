package report

import (
	"errors"
	"testing"

	"github.com/codalotl/codepal/internal/host"
	"github.com/codalotl/codepal/internal/linealign"
	"github.com/codalotl/codepal/internal/modelresp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdown(t *testing.T) {
	got, err := Markdown("# Title\n\nSome `code` and a | table |\n\n<script>alert(1)</script>\n\n[x](javascript:alert(1))")
	require.NoError(t, err)
	s := string(got)
	assert.Contains(t, s, "<h1>Title</h1>")
	assert.Contains(t, s, "<code>code</code>")
	assert.NotContains(t, s, "<script>")
	assert.NotContains(t, s, "javascript:")
}

func TestMarkdown_GFM(t *testing.T) {
	got, err := Markdown("| a | b |\n|---|---|\n| 1 | 2 |\n\n~~old~~")
	require.NoError(t, err)
	assert.Contains(t, string(got), "<table>")
	assert.Contains(t, string(got), "<del>old</del>")
}

func TestReportPanel(t *testing.T) {
	p, err := ReportPanel("report-1", "main.go", modelresp.Report{Title: "Risks <&>", Markdown: "- one\n- two"})
	require.NoError(t, err)
	assert.Equal(t, "report-1", p.ID)
	assert.Equal(t, "Risks <&>", p.Title)
	assert.Contains(t, p.HTML, "<!DOCTYPE html>")
	assert.Contains(t, p.HTML, "<title>Risks &lt;&amp;&gt;</title>")
	assert.Contains(t, p.HTML, `<p class="meta">main.go</p>`)
	assert.Contains(t, p.HTML, "<li>one</li>")
}

func TestDiffPanel(t *testing.T) {
	res := linealign.Align("a\nb <x>\nc", "a\nB <x>\nc")
	p, err := DiffPanel("edit-1", "Proposed edit", "file:///x.go", res, "Capitalize **b**.")
	require.NoError(t, err)
	assert.Contains(t, p.HTML, "<strong>b</strong>")
	assert.Contains(t, p.HTML, `<table class="diff">`)
	assert.Contains(t, p.HTML, "&lt;x&gt;")
	assert.NotContains(t, p.HTML, "No changes.")

	p, err = DiffPanel("edit-2", "Proposed edit", "", linealign.Align("a", "a"), "")
	require.NoError(t, err)
	assert.Contains(t, p.HTML, "No changes.")
	assert.NotContains(t, p.HTML, `class="meta"`)
}

func TestSummaryPanel(t *testing.T) {
	entries := []FileEntry{
		{Path: "a.go", Diagnostics: []host.Diagnostic{
			{Range: host.LineRange(4, 5), Severity: host.SeverityError, Message: "nil deref <here>", Code: "nil-check"},
		}},
		{Path: "b.go"},
		{Path: "c.go", Err: errors.New("model returned no JSON")},
	}
	p, err := SummaryPanel("workspace", "Workspace review", entries)
	require.NoError(t, err)
	assert.Contains(t, p.HTML, "3 files reviewed, 1 issues")
	assert.Contains(t, p.HTML, `<span class="failed">1 failed</span>`)
	assert.Contains(t, p.HTML, `<td>5</td><td class="sev-error">error</td>`)
	assert.Contains(t, p.HTML, "nil deref &lt;here&gt;")
	assert.Contains(t, p.HTML, "No issues.")
	assert.Contains(t, p.HTML, "model returned no JSON")
}
