package modelresp

import "github.com/tidwall/gjson"

// Edit is a parsed edit reply.
type Edit struct {
	// Code is the raw "code" value. It is a string when the reply is well-formed; any other JSON type is passed through (as decoded by gjson) so the aligner can
	// reject it as an invalid argument.
	Code        any
	Explanation string
}

// ParseEdit validates reply as {"code": "...", "explanation": "..."}. "code" must be present. Its type is checked later, by linealign.AlignValues.
func ParseEdit(reply string) (Edit, error) {
	root, err := parseObject(reply)
	if err != nil {
		return Edit{}, err
	}
	code := root.Get("code")
	if !code.Exists() {
		return Edit{}, &SchemaError{Path: "code", Reason: "missing"}
	}

	var e Edit
	if code.Type == gjson.String {
		e.Code = code.String()
	} else {
		e.Code = code.Value()
	}
	if e.Explanation, err = optionalString(root, "explanation", "explanation"); err != nil {
		return Edit{}, err
	}
	return e, nil
}

// Report is a parsed report reply.
type Report struct {
	Title    string
	Markdown string
}

// ParseReport validates reply as {"title": "...", "markdown": "..."}. "markdown" is required; "title" defaults to "Report".
func ParseReport(reply string) (Report, error) {
	root, err := parseObject(reply)
	if err != nil {
		return Report{}, err
	}
	var r Report
	if r.Markdown, err = requireString(root, "markdown", "markdown"); err != nil {
		return Report{}, err
	}
	if r.Title, err = optionalString(root, "title", "title"); err != nil {
		return Report{}, err
	}
	if r.Title == "" {
		r.Title = "Report"
	}
	return r, nil
}
