// Package modelresp validates free-form model replies into typed results.
//
// Models are asked for a single JSON object but may wrap it in prose or a ```json fence, omit fields, or use the wrong types. Parsing is a separate step from
// the request so callers get either a typed value or one of these errors:
//   - ErrNoJSON: nothing that looks like a JSON object.
//   - ErrMalformedJSON: a candidate object that does not parse.
//   - *SchemaError (wraps ErrSchema): valid JSON with missing or mistyped fields.
package modelresp

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	ErrNoJSON        = errors.New("modelresp: reply contains no JSON object")
	ErrMalformedJSON = errors.New("modelresp: reply contains malformed JSON")
	ErrSchema        = errors.New("modelresp: reply does not match the expected schema")
)

// SchemaError describes the first field that failed validation.
type SchemaError struct {
	Path   string // gjson path of the field, ex: "issues.2.line"
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("modelresp: %s: %s", e.Path, e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return ErrSchema
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json|JSON)?[ \t]*\n(.*?)```")

// ExtractJSON returns the JSON object in reply. It prefers a fenced code block, then the whole reply, then the outermost {...} substring.
func ExtractJSON(reply string) (string, error) {
	trimmed := strings.TrimSpace(reply)
	if trimmed == "" {
		return "", ErrNoJSON
	}

	var candidates []string
	for _, m := range fencedJSON.FindAllStringSubmatch(trimmed, -1) {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	candidates = append(candidates, trimmed)
	if start, end := strings.Index(trimmed, "{"), strings.LastIndex(trimmed, "}"); start >= 0 && end > start {
		candidates = append(candidates, trimmed[start:end+1])
	}

	sawObject := false
	for _, c := range candidates {
		if !strings.HasPrefix(c, "{") {
			continue
		}
		sawObject = true
		if gjson.Valid(c) {
			return c, nil
		}
	}
	if sawObject {
		return "", ErrMalformedJSON
	}
	return "", ErrNoJSON
}

// parseObject extracts and returns the root object of reply.
func parseObject(reply string) (gjson.Result, error) {
	raw, err := ExtractJSON(reply)
	if err != nil {
		return gjson.Result{}, err
	}
	root := gjson.Parse(raw)
	if !root.IsObject() {
		return gjson.Result{}, &SchemaError{Path: "@this", Reason: "expected an object"}
	}
	return root, nil
}

// requireString returns the string at path, which must be present and a JSON string.
func requireString(obj gjson.Result, path, fullPath string) (string, error) {
	v := obj.Get(path)
	if !v.Exists() {
		return "", &SchemaError{Path: fullPath, Reason: "missing"}
	}
	if v.Type != gjson.String {
		return "", &SchemaError{Path: fullPath, Reason: "expected a string, got " + typeName(v)}
	}
	return v.String(), nil
}

// optionalString returns the string at path, or "" if absent or null.
func optionalString(obj gjson.Result, path, fullPath string) (string, error) {
	v := obj.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return "", nil
	}
	if v.Type != gjson.String {
		return "", &SchemaError{Path: fullPath, Reason: "expected a string, got " + typeName(v)}
	}
	return v.String(), nil
}

// optionalInt returns the integer at path, or 0 if absent or null. Numbers with a fractional part are rejected.
func optionalInt(obj gjson.Result, path, fullPath string) (int, error) {
	v := obj.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return 0, nil
	}
	if v.Type != gjson.Number || v.Num != float64(int64(v.Num)) {
		return 0, &SchemaError{Path: fullPath, Reason: "expected an integer, got " + typeName(v)}
	}
	return int(v.Int()), nil
}

func typeName(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return "null"
	case gjson.False, gjson.True:
		return "boolean"
	case gjson.Number:
		if v.Num != float64(int64(v.Num)) {
			return "non-integer number"
		}
		return "number"
	case gjson.String:
		return "string"
	case gjson.JSON:
		if v.IsArray() {
			return "array"
		}
		return "object"
	default:
		return "unknown"
	}
}
