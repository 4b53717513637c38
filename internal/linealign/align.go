package linealign

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a line in a Result.
type Kind int

const (
	Unchanged Kind = iota
	Removed
	Added
)

// String returns "unchanged", "removed", or "added".
func (k Kind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case Removed:
		return "removed"
	case Added:
		return "added"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Marker returns the unified-diff prefix for k: ' ', '-', or '+'.
func (k Kind) Marker() byte {
	switch k {
	case Removed:
		return '-'
	case Added:
		return '+'
	default:
		return ' '
	}
}

// Record is one line (without its '\n') and its classification.
type Record struct {
	Content string
	Kind    Kind
}

// Result is the ordered output of Align.
type Result []Record

// ErrInvalidArgument is wrapped by AlignValues when an input is not a string.
var ErrInvalidArgument = errors.New("linealign: invalid argument")

// SplitLines splits s on '\n', keeping empty elements. The empty string has no lines.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// Align classifies the lines of original and proposed. It never fails, and does not retain or modify its inputs.
func Align(original, proposed string) Result {
	oldLines := SplitLines(original)
	newLines := SplitLines(proposed)

	prefixLen := 0
	for prefixLen < len(oldLines) && prefixLen < len(newLines) && oldLines[prefixLen] == newLines[prefixLen] {
		prefixLen++
	}

	// The suffix may only use lines the prefix did not claim on either side.
	maxSuffix := min(len(oldLines), len(newLines)) - prefixLen
	suffixLen := 0
	for suffixLen < maxSuffix && oldLines[len(oldLines)-1-suffixLen] == newLines[len(newLines)-1-suffixLen] {
		suffixLen++
	}

	oldEnd := len(oldLines) - suffixLen
	newEnd := len(newLines) - suffixLen

	res := make(Result, 0, oldEnd+(newEnd-prefixLen)+suffixLen)
	for _, ln := range oldLines[:prefixLen] {
		res = append(res, Record{Content: ln, Kind: Unchanged})
	}
	for _, ln := range oldLines[prefixLen:oldEnd] {
		res = append(res, Record{Content: ln, Kind: Removed})
	}
	for _, ln := range newLines[prefixLen:newEnd] {
		res = append(res, Record{Content: ln, Kind: Added})
	}
	for _, ln := range oldLines[oldEnd:] {
		res = append(res, Record{Content: ln, Kind: Unchanged})
	}

	if len(res) == 0 {
		for _, ln := range oldLines {
			res = append(res, Record{Content: ln, Kind: Unchanged})
		}
	}
	return res
}

// AlignValues is Align for callers holding untyped values (ex: fields decoded from model JSON). Both values must be strings; anything else, including nil, returns
// an error wrapping ErrInvalidArgument. No coercion is attempted.
func AlignValues(original, proposed any) (Result, error) {
	o, ok := original.(string)
	if !ok {
		return nil, fmt.Errorf("%w: original must be a string, got %T", ErrInvalidArgument, original)
	}
	p, ok := proposed.(string)
	if !ok {
		return nil, fmt.Errorf("%w: proposed must be a string, got %T", ErrInvalidArgument, proposed)
	}
	return Align(o, p), nil
}
