package linealign

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u(s string) Record { return Record{Content: s, Kind: Unchanged} }
func r(s string) Record { return Record{Content: s, Kind: Removed} }
func a(s string) Record { return Record{Content: s, Kind: Added} }

func TestAlign(t *testing.T) {
	tests := []struct {
		name     string
		original string
		proposed string
		want     Result
	}{
		{
			name:     "partial overlap",
			original: "a\nb\nc\nd",
			proposed: "a\nX\nY\nd",
			want:     Result{u("a"), r("b"), r("c"), a("X"), a("Y"), u("d")},
		},
		{
			name:     "no shared lines",
			original: "x",
			proposed: "y",
			want:     Result{r("x"), a("y")},
		},
		{
			name:     "empty to nonempty",
			original: "",
			proposed: "line1\nline2",
			want:     Result{a("line1"), a("line2")},
		},
		{
			name:     "nonempty to empty",
			original: "a\nb\nc",
			proposed: "",
			want:     Result{r("a"), r("b"), r("c")},
		},
		{
			name:     "both empty",
			original: "",
			proposed: "",
			want:     Result{},
		},
		{
			name:     "identical",
			original: "a\nb",
			proposed: "a\nb",
			want:     Result{u("a"), u("b")},
		},
		{
			name:     "trailing newline is a line",
			original: "a\nb",
			proposed: "a\nb\n",
			want:     Result{u("a"), u("b"), a("")},
		},
		{
			name:     "pure insertion in middle",
			original: "a\nc",
			proposed: "a\nb\nc",
			want:     Result{u("a"), a("b"), u("c")},
		},
		{
			name:     "pure deletion in middle",
			original: "a\nb\nc",
			proposed: "a\nc",
			want:     Result{u("a"), r("b"), u("c")},
		},
		{
			// Without the suffix bound, "a" would be claimed by both the prefix and the suffix.
			name:     "suffix does not reuse prefix",
			original: "a",
			proposed: "a\na",
			want:     Result{u("a"), a("a")},
		},
		{
			name:     "repeated lines shorter proposed",
			original: "x\nx\nx",
			proposed: "x\nx",
			want:     Result{u("x"), u("x"), r("x")},
		},
		{
			name:     "scattered changes collapse into one block",
			original: "a\nb\nc\nd\ne",
			proposed: "a\nB\nc\nD\ne",
			want:     Result{u("a"), r("b"), r("c"), r("d"), a("B"), a("c"), a("D"), u("e")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Align(tt.original, tt.proposed)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAlign_Identity(t *testing.T) {
	inputs := []string{"a", "a\n", "\n\n", "func f() {\n\treturn\n}\n", strings.Repeat("same\n", 500)}
	for _, s := range inputs {
		res := Align(s, s)
		require.NotEmpty(t, res)
		assert.Equal(t, SplitLines(s), res.OldLines())
		for _, rec := range res {
			assert.Equal(t, Unchanged, rec.Kind)
		}
	}
}

func TestAlign_Coverage(t *testing.T) {
	pairs := [][2]string{
		{"a\nb\nc\nd", "a\nX\nY\nd"},
		{"", "x\ny"},
		{"x\ny", ""},
		{"a\nb\na", "a\na"},
		{"1\n2\n3\n", "0\n1\n2\n3\n"},
		{"same\nsame\nsame", "same"},
		{"\n", ""},
		{"p\nq\nr\ns", "p\nz\nq\nr\ns\nt"},
	}
	for _, p := range pairs {
		res := Align(p[0], p[1])
		assert.Equal(t, SplitLines(p[0]), res.OldLines(), "old side of %q -> %q", p[0], p[1])
		assert.Equal(t, SplitLines(p[1]), res.NewLines(), "new side of %q -> %q", p[0], p[1])
	}
}

func TestAlign_OrderIsNeverInterleaved(t *testing.T) {
	res := Align("a\nb\nc\nd\ne\nf", "a\n1\nc\n2\ne\nf")
	phase := 0 // 0 prefix, 1 removed, 2 added, 3 suffix
	for _, rec := range res {
		switch rec.Kind {
		case Removed:
			require.LessOrEqual(t, phase, 1)
			phase = 1
		case Added:
			require.LessOrEqual(t, phase, 2)
			phase = 2
		case Unchanged:
			if phase > 0 {
				phase = 3
			}
		}
	}
}

func TestAlignValues(t *testing.T) {
	res, err := AlignValues("a", "b")
	require.NoError(t, err)
	assert.Equal(t, Result{r("a"), a("b")}, res)

	_, err = AlignValues(nil, "b")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = AlignValues("a", 42)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "int")
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, SplitLines(""))
	assert.Equal(t, []string{"a", "b"}, SplitLines("a\nb"))
	assert.Equal(t, []string{"a", "b", ""}, SplitLines("a\nb\n"))
	assert.Equal(t, []string{"", ""}, SplitLines("\n"))
}

func TestResultHelpers(t *testing.T) {
	res := Align("a\nb\nc\nd", "a\nX\nY\nZ\nd")
	assert.Equal(t, Stats{Unchanged: 2, Removed: 2, Added: 3}, res.Stats())
	assert.True(t, res.HasChanges())

	start, end, newEnd, ok := res.ChangedRange()
	require.True(t, ok)
	assert.Equal(t, 1, start)
	assert.Equal(t, 3, end)
	assert.Equal(t, 4, newEnd)

	_, _, _, ok = Align("a", "a").ChangedRange()
	assert.False(t, ok)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "removed", Removed.String())
	assert.Equal(t, byte('+'), Added.Marker())
	assert.Equal(t, byte(' '), Unchanged.Marker())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}
