// Package prompt renders the system prompts and user messages sent to the model.
package prompt

import (
	"bytes"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/codalotl/codepal/internal/linealign"
)

// AgentName is the name the model is told it has.
const AgentName = "codepal"

var (
	//go:embed fragments/header.md
	headerFragment string

	//go:embed fragments/review.md
	reviewFragment string

	//go:embed fragments/edit.md
	editFragment string

	//go:embed fragments/report.md
	reportFragment string

	//go:embed fragments/user.md
	userFragment string
)

var userTemplate = template.Must(template.New("user").Option("missingkey=zero").Parse(userFragment))

// Kind selects a task.
type Kind string

const (
	KindReview Kind = "review"
	KindEdit   Kind = "edit"
	KindReport Kind = "report"
)

// System returns the system prompt for kind. It panics on an unknown kind.
func System(kind Kind) string {
	var task string
	switch kind {
	case KindReview:
		task = reviewFragment
	case KindEdit:
		task = editFragment
	case KindReport:
		task = reportFragment
	default:
		panic("unhandled prompt kind: " + string(kind))
	}

	data := map[string]any{"AgentName": AgentName}
	sections := []string{headerFragment, task}
	rendered := make([]string, 0, len(sections))
	for _, fragment := range sections {
		rendered = append(rendered, renderFragment(strings.TrimSpace(fragment), data))
	}
	return strings.Join(rendered, "\n\n")
}

// Input is the context for a user message.
type Input struct {
	Path       string // file path as shown to the model
	Language   string // language id (ex: "go")
	ModulePath string // Go module path, if known

	// Code is the submitted text. If FirstLine > 0, Code is a selection starting at that 1-based file line.
	Code      string
	FirstLine int

	Instruction string // edit instruction; empty for review and report
}

// User renders the user message for in.
func User(in Input) string {
	lang := in.Language
	if lang == "" {
		lang = "plaintext"
	}
	n := len(linealign.SplitLines(in.Code))
	data := map[string]any{
		"Path":        in.Path,
		"Language":    lang,
		"ModulePath":  in.ModulePath,
		"Selected":    in.FirstLine > 0,
		"FirstLine":   in.FirstLine,
		"LastLine":    in.FirstLine + max(n, 1) - 1,
		"Instruction": strings.TrimSpace(in.Instruction),
		"Numbered":    NumberLines(in.Code),
	}
	var buf bytes.Buffer
	if err := userTemplate.Execute(&buf, data); err != nil {
		// Only reachable if the embedded template is broken.
		panic(err)
	}
	return buf.String()
}

// NumberLines prefixes each line of code with its 1-based number, right-aligned: " 9 | x", "10 | y". Empty code yields "".
func NumberLines(code string) string {
	lines := linealign.SplitLines(code)
	if len(lines) == 0 {
		return ""
	}
	width := len(strconv.Itoa(len(lines)))
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%*d | %s", width, i+1, line)
	}
	return b.String()
}

func renderFragment(fragment string, data any) string {
	tmpl, err := template.New("fragment").Option("missingkey=zero").Parse(fragment)
	if err != nil {
		return fragment
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fragment
	}
	return buf.String()
}
