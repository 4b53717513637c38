// Package diffview renders a linealign.Result for people: colorized terminal output, a plain unified diff, and an HTML fragment for panels.
//
// A Result has at most one changed block (removed lines followed by added lines), so every rendering has at most one hunk. Within the block, the i'th removed
// line is paired with the i'th added line and the pair is diffed character-wise to highlight intra-line edits.
package diffview
