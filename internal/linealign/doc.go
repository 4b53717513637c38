// Package linealign classifies the lines of an original and a proposed text as unchanged, removed, or added, for rendering as a single-block diff.
//
// The alignment is a common-prefix/common-suffix trim, not an LCS diff: lines shared at the start and the end are Unchanged, and everything between the first and
// the last difference becomes one Removed block followed by one Added block. Output order is always prefix, removed, added, suffix. This keeps the result
// deterministic and easy to turn into a single replacement edit.
//
// Lines: text is split on '\n' and empty trailing elements are kept, so "a\nb\n" is three lines, the last one empty. The empty string is zero lines.
//
//	res := linealign.Align("a\nb\nc\nd", "a\nX\nY\nd")
//	// =a -b -c +X +Y =d
//
// Invariants:
//   - Removed and Unchanged contents, in order, rebuild the original's lines.
//   - Added and Unchanged contents, in order, rebuild the proposed text's lines.
//   - Identical non-empty inputs produce only Unchanged records.
package linealign
