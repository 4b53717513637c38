package diffview

import (
	"fmt"
	"strings"

	"github.com/codalotl/codepal/internal/linealign"
)

// ANSI codes for RenderPretty.
const (
	reset     = "\x1b[0m"
	blackFG   = "\x1b[30m"
	pinkLine  = "\x1b[48;5;224m"
	pinkSpan  = "\x1b[48;5;217m"
	greenLine = "\x1b[48;5;194m"
	greenSpan = "\x1b[48;5;114m"
	cyanBold  = "\x1b[1;36m"
)

// RenderPretty returns a colorized rendering of res for terminals, without hunk headers. Lines are prefixed with " ", "-", or "+", and intra-line edits of paired
// lines are highlighted with a darker background.
//
// If filename is non-empty, a cyan "<filename>:" header is emitted first. contextSize limits the unchanged lines shown before and after the changed block; a
// negative contextSize shows every line. If res has no changes, all lines are shown as context (subject to contextSize from the start of the text).
func RenderPretty(res linealign.Result, filename string, contextSize int) string {
	var out []string
	if filename != "" {
		out = append(out, cyanBold+filename+":"+reset)
	}

	b := splitBlock(res)
	pre, post := contextWindow(b, contextSize)

	for _, r := range pre {
		out = append(out, blackFG+" "+r.Content+reset)
	}
	for _, ln := range b.removed {
		out = append(out, blackFG+pinkLine+"-"+renderSpans(ln, pinkLine, pinkSpan, OpDelete)+reset)
	}
	for _, ln := range b.added {
		out = append(out, blackFG+greenLine+"+"+renderSpans(ln, greenLine, greenSpan, OpInsert)+reset)
	}
	for _, r := range post {
		out = append(out, blackFG+" "+r.Content+reset)
	}
	return strings.Join(out, "\n")
}

// renderSpans renders ln's content, emphasizing spans with op using spanBg and returning to lineBg afterward.
func renderSpans(ln Line, lineBg, spanBg string, op Op) string {
	if ln.Spans == nil {
		return ln.Content
	}
	var b strings.Builder
	for _, sp := range ln.Spans {
		if sp.Op != op {
			b.WriteString(sp.Text)
			continue
		}
		b.WriteString(reset + blackFG + spanBg)
		b.WriteString(sp.Text)
		b.WriteString(reset + blackFG + lineBg)
	}
	return b.String()
}

// contextWindow returns the unchanged lines to show before and after the changed block.
func contextWindow(b block, contextSize int) (pre, post []linealign.Record) {
	pre, post = b.prefix, b.suffix
	if contextSize < 0 {
		return pre, post
	}
	if len(b.removed) == 0 && len(b.added) == 0 {
		// No change: show the head of the text.
		if len(pre) > contextSize {
			pre = pre[:contextSize]
		}
		return pre, nil
	}
	if len(pre) > contextSize {
		pre = pre[len(pre)-contextSize:]
	}
	if len(post) > contextSize {
		post = post[:contextSize]
	}
	return pre, post
}

// RenderUnified returns a unified diff of res with "---"/"+++" headers and at most one "@@" hunk. Lines are joined with "\n" and the result has no trailing
// newline. If res has no changes, only the headers are returned.
func RenderUnified(res linealign.Result, fromFilename, toFilename string, contextSize int) string {
	out := []string{"--- " + fromFilename, "+++ " + toFilename}
	if !res.HasChanges() {
		return strings.Join(out, "\n")
	}
	if contextSize < 0 {
		contextSize = len(res)
	}

	b := splitBlock(res)
	pre, post := contextWindow(b, contextSize)

	// 1-based start lines. A side with zero lines in the hunk uses the line before the hunk, per unified diff convention.
	start := len(b.prefix) - len(pre) + 1
	oldCount := len(pre) + len(b.removed) + len(post)
	newCount := len(pre) + len(b.added) + len(post)
	oldStart, newStart := start, start
	if oldCount == 0 {
		oldStart--
	}
	if newCount == 0 {
		newStart--
	}

	out = append(out, fmt.Sprintf("@@ -%s +%s @@", hunkRange(oldStart, oldCount), hunkRange(newStart, newCount)))
	for _, r := range pre {
		out = append(out, " "+r.Content)
	}
	for _, ln := range b.removed {
		out = append(out, "-"+ln.Content)
	}
	for _, ln := range b.added {
		out = append(out, "+"+ln.Content)
	}
	for _, r := range post {
		out = append(out, " "+r.Content)
	}
	return strings.Join(out, "\n")
}

func hunkRange(start, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}
