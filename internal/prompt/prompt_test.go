package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystem(t *testing.T) {
	for _, kind := range []Kind{KindReview, KindEdit, KindReport} {
		t.Run(string(kind), func(t *testing.T) {
			p := System(kind)
			assert.Contains(t, p, "You are codepal")
			assert.Contains(t, p, "# Task: "+string(kind))
			assert.NotContains(t, p, "{{")
		})
	}
	assert.Contains(t, System(KindReview), `"issues"`)
	assert.Contains(t, System(KindEdit), `"code"`)
	assert.Contains(t, System(KindReport), `"markdown"`)
	assert.Panics(t, func() { System("translate") })
}

func TestNumberLines(t *testing.T) {
	assert.Equal(t, "", NumberLines(""))
	assert.Equal(t, "1 | a", NumberLines("a"))
	assert.Equal(t, "1 | a\n2 | ", NumberLines("a\n"))

	code := "1\n2\n3\n4\n5\n6\n7\n8\n9\n10"
	got := NumberLines(code)
	assert.Contains(t, got, " 9 | 9\n10 | 10")
	assert.Contains(t, got, " 1 | 1\n")
}

func TestUser(t *testing.T) {
	got := User(Input{
		Path:       "internal/x/x.go",
		Language:   "go",
		ModulePath: "example.com/m",
		Code:       "func f() {}\nfunc g() {}",
	})
	assert.Equal(t, "File: internal/x/x.go\nLanguage: go\nGo module: example.com/m\n\nCode:\n1 | func f() {}\n2 | func g() {}\n", got)

	got = User(Input{
		Path:        "a.py",
		Code:        "x = 1\ny = 2",
		FirstLine:   40,
		Instruction: "  rename x to count  ",
	})
	assert.Contains(t, got, "Language: plaintext\n")
	assert.Contains(t, got, "Selection: lines 40-41 of the file")
	assert.Contains(t, got, "Instruction:\nrename x to count\n")
	assert.NotContains(t, got, "Go module")
}
