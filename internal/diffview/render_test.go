package diffview

import (
	"strings"
	"testing"

	"github.com/codalotl/codepal/internal/linealign"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderUnified(t *testing.T) {
	tests := []struct {
		name        string
		old, new    string
		contextSize int
		want        string
	}{
		{
			name: "partial overlap", old: "a\nb\nc\nd", new: "a\nX\nY\nd", contextSize: 3,
			want: "--- a.go\n+++ a.go\n@@ -1,4 +1,4 @@\n a\n-b\n-c\n+X\n+Y\n d",
		},
		{
			name: "single line no context", old: "1\n2\n3\n4\n5", new: "1\n2\nX\n4\n5", contextSize: 0,
			want: "--- a.go\n+++ a.go\n@@ -3 +3 @@\n-3\n+X",
		},
		{
			name: "insertion no context", old: "a\nc", new: "a\nb\nc", contextSize: 0,
			want: "--- a.go\n+++ a.go\n@@ -1,0 +2 @@\n+b",
		},
		{
			name: "context trimmed", old: "1\n2\n3\n4\n5\n6\n7", new: "1\n2\n3\nX\n5\n6\n7", contextSize: 1,
			want: "--- a.go\n+++ a.go\n@@ -3,3 +3,3 @@\n 3\n-4\n+X\n 5",
		},
		{
			name: "no changes", old: "a", new: "a", contextSize: 3,
			want: "--- a.go\n+++ a.go",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderUnified(linealign.Align(tt.old, tt.new), "a.go", "a.go", tt.contextSize)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderPretty_Insertion(t *testing.T) {
	res := linealign.Align("a\nc", "a\nb\nc")
	got := RenderPretty(res, "f.go", 1)
	exp := "\x1b[1;36mf.go:\x1b[0m\n\x1b[30m a\x1b[0m\n\x1b[30m\x1b[48;5;194m+b\x1b[0m\n\x1b[30m c\x1b[0m"
	assert.Equal(t, exp, got)
}

func TestRenderPretty_NoHeaderNoChanges(t *testing.T) {
	res := linealign.Align("x\ny\nz", "x\ny\nz")
	got := RenderPretty(res, "", 2)
	assert.Equal(t, "\x1b[30m x\x1b[0m\n\x1b[30m y\x1b[0m", got)
}

func TestRenderPretty_HighlightsPairedLines(t *testing.T) {
	res := linealign.Align("return x + 1", "return x + 2")
	got := RenderPretty(res, "", -1)
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], pinkSpan)
	assert.Contains(t, lines[1], greenSpan)
}

func TestLines_Spans(t *testing.T) {
	res := linealign.Align("keep\nfoo(a, b)\nend", "keep\nfoo(a, c)\nbar()\nend")
	lines := Lines(res)
	require.Len(t, lines, 5)

	assert.Nil(t, lines[0].Spans)

	removed := lines[1]
	require.Equal(t, linealign.Removed, removed.Kind)
	require.NotNil(t, removed.Spans)
	assert.Equal(t, removed.Content, joinSpans(removed.Spans))
	assert.True(t, hasOp(removed.Spans, OpDelete))
	assert.False(t, hasOp(removed.Spans, OpInsert))

	added := lines[2]
	require.Equal(t, linealign.Added, added.Kind)
	assert.Equal(t, added.Content, joinSpans(added.Spans))
	assert.True(t, hasOp(added.Spans, OpInsert))

	// Unpaired added line.
	assert.Equal(t, "bar()", lines[3].Content)
	assert.Nil(t, lines[3].Spans)
}

func TestRenderHTML(t *testing.T) {
	res := linealign.Align("a\n<b>", "a\n<c>")
	html, err := RenderHTML(res)
	require.NoError(t, err)

	s := string(html)
	assert.Contains(t, s, `<tr class="ctx"><td class="num">1</td><td class="num">1</td>`)
	assert.Contains(t, s, `<tr class="del">`)
	assert.Contains(t, s, `<tr class="ins">`)
	assert.Contains(t, s, "&lt;")
	assert.NotContains(t, s, "<b>")
}

func joinSpans(spans []Span) string {
	var b strings.Builder
	for _, sp := range spans {
		b.WriteString(sp.Text)
	}
	return b.String()
}

func hasOp(spans []Span, op Op) bool {
	for _, sp := range spans {
		if sp.Op == op {
			return true
		}
	}
	return false
}
