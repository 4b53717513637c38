package modelresp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    string
		wantErr error
	}{
		{name: "bare", reply: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced", reply: "Here you go:\n```json\n{\"a\": 1}\n```\nThanks", want: `{"a": 1}`},
		{name: "fenced no lang", reply: "```\n{\"a\": 2}\n```", want: `{"a": 2}`},
		{name: "prose around", reply: `Sure! {"a": {"b": 3}} hope that helps`, want: `{"a": {"b": 3}}`},
		{name: "empty", reply: "   ", wantErr: ErrNoJSON},
		{name: "no object", reply: "I could not find any issues.", wantErr: ErrNoJSON},
		{name: "array only", reply: `[1,2]`, wantErr: ErrNoJSON},
		{name: "malformed", reply: `{"issues": [}`, wantErr: ErrMalformedJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.reply)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseReview(t *testing.T) {
	reply := "```json\n" + `{
  "summary": "Two problems.",
  "issues": [
    {"line": 3, "severity": "error", "message": "nil dereference", "suggestion": "check err first", "rule": "nil"},
    {"line": 7, "endLine": 5, "column": 2, "severity": "nitpick", "message": "rename x"}
  ]
}` + "\n```"

	rv, err := ParseReview(reply)
	require.NoError(t, err)
	assert.Equal(t, "Two problems.", rv.Summary)
	require.Len(t, rv.Issues, 2)

	assert.Equal(t, Issue{Line: 3, Severity: SeverityError, Message: "nil dereference", Suggestion: "check err first", Rule: "nil"}, rv.Issues[0])

	second := rv.Issues[1]
	assert.Equal(t, 7, second.Line)
	assert.Equal(t, 7, second.EndLine, "endLine before line is clamped")
	assert.Equal(t, 2, second.Column)
	assert.Equal(t, SeverityWarning, second.Severity)
}

func TestParseReview_EmptyIssues(t *testing.T) {
	rv, err := ParseReview(`{"issues": []}`)
	require.NoError(t, err)
	assert.Empty(t, rv.Issues)
}

func TestParseReview_SchemaErrors(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		path  string
	}{
		{name: "missing issues", reply: `{"summary": "x"}`, path: "issues"},
		{name: "issues not array", reply: `{"issues": {}}`, path: "issues"},
		{name: "issue not object", reply: `{"issues": [3]}`, path: "issues.0"},
		{name: "missing line", reply: `{"issues": [{"message": "m"}]}`, path: "issues.0.line"},
		{name: "string line", reply: `{"issues": [{"line": "3", "message": "m"}]}`, path: "issues.0.line"},
		{name: "fractional line", reply: `{"issues": [{"line": 1.5, "message": "m"}]}`, path: "issues.0.line"},
		{name: "zero line", reply: `{"issues": [{"line": 0, "message": "m"}]}`, path: "issues.0.line"},
		{name: "missing message", reply: `{"issues": [{"line": 1}]}`, path: "issues.0.message"},
		{name: "blank message", reply: `{"issues": [{"line": 1, "message": "  "}]}`, path: "issues.0.message"},
		{name: "bad summary", reply: `{"summary": 4, "issues": []}`, path: "summary"},
		{name: "second issue", reply: `{"issues": [{"line": 1, "message": "ok"}, {"line": 2, "message": "m", "severity": 5}]}`, path: "issues.1.severity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseReview(tt.reply)
			require.ErrorIs(t, err, ErrSchema)
			var se *SchemaError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.path, se.Path)
		})
	}
}

func TestParseSeverity(t *testing.T) {
	assert.Equal(t, SeverityError, ParseSeverity("ERROR"))
	assert.Equal(t, SeverityInfo, ParseSeverity("info"))
	assert.Equal(t, SeverityHint, ParseSeverity(" style "))
	assert.Equal(t, SeverityWarning, ParseSeverity(""))
	assert.Equal(t, SeverityWarning, ParseSeverity("whatever"))
}

func TestParseEdit(t *testing.T) {
	e, err := ParseEdit(`{"code": "func f() {}\n", "explanation": "simplified"}`)
	require.NoError(t, err)
	assert.Equal(t, "func f() {}\n", e.Code)
	assert.Equal(t, "simplified", e.Explanation)

	e, err = ParseEdit(`{"code": null}`)
	require.NoError(t, err)
	assert.Nil(t, e.Code)

	e, err = ParseEdit(`{"code": ["a", "b"]}`)
	require.NoError(t, err)
	assert.IsType(t, []any{}, e.Code)

	_, err = ParseEdit(`{"explanation": "no code"}`)
	assert.ErrorIs(t, err, ErrSchema)

	_, err = ParseEdit(`not json`)
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestParseReport(t *testing.T) {
	r, err := ParseReport(`{"markdown": "# Hi"}`)
	require.NoError(t, err)
	assert.Equal(t, "Report", r.Title)
	assert.Equal(t, "# Hi", r.Markdown)

	_, err = ParseReport(`{"title": "t"}`)
	assert.ErrorIs(t, err, ErrSchema)
}
