package diffview

import (
	"github.com/codalotl/codepal/internal/linealign"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Op is the operation of a Span.
type Op int

const (
	OpEqual Op = iota
	OpInsert
	OpDelete
)

// Span is a piece of a single line. Spans never contain '\n'.
type Span struct {
	Op   Op
	Text string
}

// Line is a record from a Result with optional intra-line spans. Spans is nil for unchanged lines and for removed/added lines with no partner.
type Line struct {
	linealign.Record
	Spans []Span
}

// block holds the three regions of a Result.
type block struct {
	prefix  []linealign.Record
	removed []Line
	added   []Line
	suffix  []linealign.Record
}

func splitBlock(res linealign.Result) block {
	var b block
	i := 0
	for i < len(res) && res[i].Kind == linealign.Unchanged {
		b.prefix = append(b.prefix, res[i])
		i++
	}
	for i < len(res) && res[i].Kind == linealign.Removed {
		b.removed = append(b.removed, Line{Record: res[i]})
		i++
	}
	for i < len(res) && res[i].Kind == linealign.Added {
		b.added = append(b.added, Line{Record: res[i]})
		i++
	}
	b.suffix = append(b.suffix, res[i:]...)

	// A Result of only Unchanged records lands entirely in prefix.
	dmp := diffmatchpatch.New()
	n := min(len(b.removed), len(b.added))
	for k := 0; k < n; k++ {
		oldSpans, newSpans := lineSpans(dmp, b.removed[k].Content, b.added[k].Content)
		b.removed[k].Spans = oldSpans
		b.added[k].Spans = newSpans
	}
	return b
}

// lineSpans diffs oldLine against newLine and returns the spans visible on each side: equal+delete for the old side, equal+insert for the new side.
func lineSpans(dmp *diffmatchpatch.DiffMatchPatch, oldLine, newLine string) (oldSpans, newSpans []Span) {
	diffs := dmp.DiffMain(oldLine, newLine, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			oldSpans = appendSpan(oldSpans, Span{Op: OpEqual, Text: d.Text})
			newSpans = appendSpan(newSpans, Span{Op: OpEqual, Text: d.Text})
		case diffmatchpatch.DiffDelete:
			oldSpans = appendSpan(oldSpans, Span{Op: OpDelete, Text: d.Text})
		case diffmatchpatch.DiffInsert:
			newSpans = appendSpan(newSpans, Span{Op: OpInsert, Text: d.Text})
		}
	}
	return oldSpans, newSpans
}

// appendSpan appends sp, coalescing it with the last span when the ops match.
func appendSpan(spans []Span, sp Span) []Span {
	if n := len(spans); n > 0 && spans[n-1].Op == sp.Op {
		spans[n-1].Text += sp.Text
		return spans
	}
	return append(spans, sp)
}

// Lines returns every record of res as a Line, with spans filled in for paired removed/added lines.
func Lines(res linealign.Result) []Line {
	b := splitBlock(res)
	out := make([]Line, 0, len(res))
	for _, r := range b.prefix {
		out = append(out, Line{Record: r})
	}
	out = append(out, b.removed...)
	out = append(out, b.added...)
	for _, r := range b.suffix {
		out = append(out, Line{Record: r})
	}
	return out
}
