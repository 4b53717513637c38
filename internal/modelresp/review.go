package modelresp

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Severity of a review issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeverityHint    Severity = "hint"
)

// ParseSeverity normalizes s. Unknown or empty values become SeverityWarning.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error", "critical", "high":
		return SeverityError
	case "info", "information", "low":
		return SeverityInfo
	case "hint", "suggestion", "style":
		return SeverityHint
	default:
		return SeverityWarning
	}
}

// Issue is one finding. Line and EndLine are 1-based and relative to the code that was sent. EndLine and Column are 0 when not given.
type Issue struct {
	Line       int
	EndLine    int
	Column     int
	Severity   Severity
	Message    string
	Suggestion string
	Rule       string
}

// Review is a parsed review reply.
type Review struct {
	Summary string
	Issues  []Issue
}

// ParseReview validates reply as:
//
//	{"summary": "...", "issues": [{"line": 3, "endLine": 4, "column": 1, "severity": "warning", "message": "...", "suggestion": "...", "rule": "..."}]}
//
// "issues" is required (it may be empty). Each issue needs an integer "line" >= 1 and a non-empty "message".
func ParseReview(reply string) (Review, error) {
	root, err := parseObject(reply)
	if err != nil {
		return Review{}, err
	}

	var rv Review
	if rv.Summary, err = optionalString(root, "summary", "summary"); err != nil {
		return Review{}, err
	}

	issues := root.Get("issues")
	if !issues.Exists() {
		return Review{}, &SchemaError{Path: "issues", Reason: "missing"}
	}
	if !issues.IsArray() {
		return Review{}, &SchemaError{Path: "issues", Reason: "expected an array, got " + typeName(issues)}
	}

	for i, item := range issues.Array() {
		base := fmt.Sprintf("issues.%d", i)
		if !item.IsObject() {
			return Review{}, &SchemaError{Path: base, Reason: "expected an object, got " + typeName(item)}
		}
		iss, err := parseIssue(item, base)
		if err != nil {
			return Review{}, err
		}
		rv.Issues = append(rv.Issues, iss)
	}
	return rv, nil
}

func parseIssue(item gjson.Result, base string) (Issue, error) {
	var iss Issue
	var err error

	if !item.Get("line").Exists() {
		return Issue{}, &SchemaError{Path: base + ".line", Reason: "missing"}
	}
	if iss.Line, err = optionalInt(item, "line", base+".line"); err != nil {
		return Issue{}, err
	}
	if iss.Line < 1 {
		return Issue{}, &SchemaError{Path: base + ".line", Reason: fmt.Sprintf("must be >= 1, got %d", iss.Line)}
	}
	if iss.EndLine, err = optionalInt(item, "endLine", base+".endLine"); err != nil {
		return Issue{}, err
	}
	if iss.EndLine != 0 && iss.EndLine < iss.Line {
		iss.EndLine = iss.Line
	}
	if iss.Column, err = optionalInt(item, "column", base+".column"); err != nil {
		return Issue{}, err
	}
	if iss.Message, err = requireString(item, "message", base+".message"); err != nil {
		return Issue{}, err
	}
	if strings.TrimSpace(iss.Message) == "" {
		return Issue{}, &SchemaError{Path: base + ".message", Reason: "empty"}
	}
	sev, err := optionalString(item, "severity", base+".severity")
	if err != nil {
		return Issue{}, err
	}
	iss.Severity = ParseSeverity(sev)
	if iss.Suggestion, err = optionalString(item, "suggestion", base+".suggestion"); err != nil {
		return Issue{}, err
	}
	if iss.Rule, err = optionalString(item, "rule", base+".rule"); err != nil {
		return Issue{}, err
	}
	return iss, nil
}
