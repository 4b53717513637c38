// Package termtext measures and fits text to monospace terminal columns.
package termtext

import (
	"io"
	"os"

	"github.com/clipperhouse/uax29/v2/graphemes"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// DefaultWidth is used when the output is not a terminal.
const DefaultWidth = 100

func condition() *runewidth.Condition {
	cond := runewidth.NewCondition()
	cond.EastAsianWidth = false
	cond.StrictEmojiNeutral = true
	return cond
}

// Width returns the display width of s in columns.
func Width(s string) int {
	return condition().StringWidth(s)
}

// Truncate shortens s to at most width columns, ending in "…" when anything was cut. It never splits a grapheme cluster. A width < 1 returns "".
func Truncate(s string, width int) string {
	if width < 1 {
		return ""
	}
	cond := condition()
	if cond.StringWidth(s) <= width {
		return s
	}

	const ellipsis = "…"
	budget := width - cond.StringWidth(ellipsis)
	used := 0
	end := 0
	iter := graphemes.FromString(s)
	for iter.Next() {
		w := cond.StringWidth(iter.Value())
		if used+w > budget {
			break
		}
		used += w
		end = iter.End()
	}
	return s[:end] + ellipsis
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the column count of w, or DefaultWidth if w is not a terminal or its size is unknown.
func TerminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return DefaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return DefaultWidth
	}
	return width
}
