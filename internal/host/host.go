// Package host is the port between codepal and whatever displays its results: an editor bridge, the terminal, or a test.
//
// The core only talks to a Host. It never reads editor state or draws anything itself.
package host

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Position is a zero-based line and character offset. Character counts bytes within the line.
type Position struct {
	Line      int
	Character int
}

// Range is a half-open span [Start, End).
type Range struct {
	Start Position
	End   Position
}

// LineRange returns a range covering whole lines [startLine, endLine). The end is expressed as the start of endLine.
func LineRange(startLine, endLine int) Range {
	return Range{Start: Position{Line: startLine}, End: Position{Line: endLine}}
}

// Document is a snapshot of an open document.
type Document struct {
	URI        string
	LanguageID string
	Text       string
	Selection  *Range // nil when nothing is selected
}

// Severity of a Diagnostic, using LSP numbering.
type Severity int

const (
	SeverityError       Severity = 1
	SeverityWarning     Severity = 2
	SeverityInformation Severity = 3
	SeverityHint        Severity = 4
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Diagnostic is a squiggly-underline message on a range.
type Diagnostic struct {
	Range    Range
	Severity Severity
	Message  string
	Source   string
	Code     string
}

// TextEdit replaces Range with NewText.
type TextEdit struct {
	Range   Range
	NewText string
}

// Panel is a read-only HTML view.
type Panel struct {
	ID    string
	Title string
	HTML  string
}

// Host is the capability set codepal needs from its environment.
type Host interface {
	// ActiveDocument returns the document the user is working on. It returns ErrNoActiveDocument if there is none.
	ActiveDocument(ctx context.Context) (Document, error)

	// ShowDiagnostics replaces all diagnostics for uri. An empty diags clears them.
	ShowDiagnostics(ctx context.Context, uri string, diags []Diagnostic) error

	// RenderPanel shows p, replacing any panel with the same ID.
	RenderPanel(ctx context.Context, p Panel) error

	// ApplyEdit applies edits to the document at uri. Edits must not overlap; ranges refer to the document before any edit is applied.
	ApplyEdit(ctx context.Context, uri string, edits []TextEdit) error
}

var (
	ErrNoActiveDocument = errors.New("host: no active document")
	ErrOverlappingEdits = errors.New("host: overlapping edits")
	ErrRangeOutOfBounds = errors.New("host: range out of bounds")
)

// Offset converts p to a byte offset in text. Lines are separated by '\n'. A position one line past the last line (character 0) maps to len(text); a character
// beyond the end of a line is clamped to the line end.
func Offset(text string, p Position) (int, error) {
	if p.Line < 0 || p.Character < 0 {
		return 0, fmt.Errorf("%w: %d:%d", ErrRangeOutOfBounds, p.Line, p.Character)
	}
	off := 0
	for line := 0; line < p.Line; line++ {
		nl := strings.IndexByte(text[off:], '\n')
		if nl < 0 {
			if line == p.Line-1 && p.Character == 0 {
				return len(text), nil
			}
			return 0, fmt.Errorf("%w: line %d", ErrRangeOutOfBounds, p.Line)
		}
		off += nl + 1
	}
	lineEnd := len(text)
	if nl := strings.IndexByte(text[off:], '\n'); nl >= 0 {
		lineEnd = off + nl
	}
	return min(off+p.Character, lineEnd), nil
}

// ApplyEdits returns text with edits applied. Edits are applied from the end of the text backward so earlier ranges stay valid.
func ApplyEdits(text string, edits []TextEdit) (string, error) {
	type span struct {
		start, end int
		newText    string
	}
	spans := make([]span, 0, len(edits))
	for _, e := range edits {
		start, err := Offset(text, e.Range.Start)
		if err != nil {
			return "", err
		}
		end, err := Offset(text, e.Range.End)
		if err != nil {
			return "", err
		}
		if end < start {
			return "", fmt.Errorf("%w: end before start", ErrRangeOutOfBounds)
		}
		spans = append(spans, span{start: start, end: end, newText: e.NewText})
	}

	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	for i := 1; i < len(spans); i++ {
		if spans[i].start < spans[i-1].end {
			return "", ErrOverlappingEdits
		}
	}

	for i := len(spans) - 1; i >= 0; i-- {
		s := spans[i]
		text = text[:s.start] + s.newText + text[s.end:]
	}
	return text, nil
}
