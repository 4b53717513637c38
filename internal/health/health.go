// Package health creates errors that carry slog-style attributes, and logs them in one step.
//
// The intended pattern is to log an error at the point where it is created or wrapped, and return it:
//
//	return health.LogWrappedErr(logger, "review.send", err, "uri", doc.URI)
//
// Attributes are rendered into Error() as key=value pairs, so the error string is useful even when the logger is nil.
package health

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Err is an error with a message, optional attributes, and an optional wrapped error.
type Err struct {
	Message string
	wrapped error
	attrs   []any
}

// Error renders msg, then [attrs], then " via " and the wrapped error.
func (e *Err) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.attrs) > 0 {
		b.WriteString("[")
		writeAttrs(&b, e.attrs)
		b.WriteString("]")
	}
	if e.wrapped != nil {
		b.WriteString(" via ")
		b.WriteString(e.wrapped.Error())
	}
	return b.String()
}

func (e *Err) Unwrap() error {
	return e.wrapped
}

// NewErr returns a new, unlogged error. args follow slog conventions (alternating key/value, or slog.Attr).
func NewErr(msg string, args ...any) error {
	return &Err{Message: msg, attrs: args}
}

// Wrap returns an error wrapping wrapped. A nil wrapped error is replaced with a placeholder so the mistake is visible.
func Wrap(msg string, wrapped error, args ...any) error {
	if wrapped == nil {
		wrapped = fmt.Errorf("health.Wrap called with nil error")
	}
	return &Err{Message: msg, wrapped: wrapped, attrs: args}
}

// LogNewErr creates an error with NewErr, logs it, and returns it.
func LogNewErr(logger *slog.Logger, msg string, args ...any) error {
	return LogErr(logger, NewErr(msg, args...))
}

// LogWrappedErr creates an error with Wrap, logs it, and returns it.
func LogWrappedErr(logger *slog.Logger, msg string, wrapped error, args ...any) error {
	return LogErr(logger, Wrap(msg, wrapped, args...))
}

// LogErr logs err at error level (if logger and err are non-nil) and returns err unchanged.
//
// For *Err and *HumanErr, the outermost message is the log message; the error's attrs come first, then a "via" attr for the wrapped error, then args.
func LogErr(logger *slog.Logger, err error, args ...any) error {
	if logger == nil || err == nil {
		return err
	}

	var h *Err
	switch e := err.(type) {
	case *HumanErr:
		h = &e.Err
	case *Err:
		h = e
	default:
		logger.Error(err.Error(), args...)
		return err
	}

	all := make([]any, 0, len(h.attrs)+len(args)+1)
	all = append(all, h.attrs...)
	if h.wrapped != nil {
		all = append(all, slog.String("via", h.wrapped.Error()))
	}
	all = append(all, args...)
	logger.Error(h.Message, all...)
	return err
}

// writeAttrs writes args as space-separated key=value pairs, the same way slog.TextHandler would. A dangling key is written as !BADKEY=key.
func writeAttrs(b *strings.Builder, args []any) {
	first := true
	emit := func(a slog.Attr) {
		if !first {
			b.WriteByte(' ')
		}
		first = false
		b.WriteString(a.Key)
		b.WriteByte('=')
		b.WriteString(quoteIfNeeded(a.Value.Resolve().String()))
	}

	for i := 0; i < len(args); i++ {
		switch v := args[i].(type) {
		case slog.Attr:
			emit(v)
		case string:
			if i+1 >= len(args) {
				emit(slog.String("!BADKEY", v))
				continue
			}
			emit(slog.Any(v, args[i+1]))
			i++
		default:
			emit(slog.Any("!BADKEY", v))
		}
	}
}

func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
