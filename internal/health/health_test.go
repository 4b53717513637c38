package health

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAttrs(t *testing.T) {
	tests := []struct {
		name  string
		attrs []any
		want  string
	}{
		{name: "empty", attrs: nil, want: ""},
		{name: "pair", attrs: []any{"key", "value"}, want: "key=value"},
		{name: "multiple", attrs: []any{"a", "x", "b", 2, "c", true}, want: "a=x b=2 c=true"},
		{name: "slog attr", attrs: []any{slog.String("k", "v"), slog.Int("n", 3)}, want: "k=v n=3"},
		{name: "quoted", attrs: []any{"msg", "two words"}, want: `msg="two words"`},
		{name: "dangling key", attrs: []any{"lonely"}, want: "!BADKEY=lonely"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b strings.Builder
			writeAttrs(&b, tt.attrs)
			assert.Equal(t, tt.want, b.String())
		})
	}
}

func TestErr_Error(t *testing.T) {
	assert.Equal(t, "boom", NewErr("boom").Error())
	assert.Equal(t, "boom[uri=a.go]", NewErr("boom", "uri", "a.go").Error())

	inner := errors.New("disk full")
	err := Wrap("write panel", inner, "id", 7)
	assert.Equal(t, "write panel[id=7] via disk full", err.Error())
	assert.ErrorIs(t, err, inner)

	assert.Contains(t, Wrap("x", nil).Error(), "nil error")
}

func TestLogErr(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	inner := errors.New("timeout")
	err := LogWrappedErr(logger, "review.send", inner, "model", "m1")
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "msg=review.send")
	assert.Contains(t, out, "model=m1")
	assert.Contains(t, out, "via=timeout")
}

func TestLogErr_NilLoggerOrErr(t *testing.T) {
	assert.NoError(t, LogErr(nil, nil))
	err := errors.New("x")
	assert.Equal(t, err, LogErr(nil, err))
}

func TestHumanErr(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	cause := errors.New("401")
	err := WrapHuman("Your API key was rejected.", "provider.auth", cause, "provider", "openai")
	assert.Equal(t, "Your API key was rejected.", err.Error())
	assert.ErrorIs(t, err, cause)

	LogErr(logger, err)
	assert.Contains(t, buf.String(), "msg=provider.auth")
	assert.Contains(t, buf.String(), "provider=openai")
}
