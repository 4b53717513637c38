// Package report turns model output and review results into read-only HTML panels.
//
// Markdown from the model is untrusted: raw HTML in it is dropped and dangerous link targets are removed. Everything else is escaped by html/template.
package report

import (
	"bytes"
	"embed"
	"html/template"
	"strings"

	"github.com/codalotl/codepal/internal/diffview"
	"github.com/codalotl/codepal/internal/host"
	"github.com/codalotl/codepal/internal/linealign"
	"github.com/codalotl/codepal/internal/modelresp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// md never renders raw HTML: goldmark omits it unless html.WithUnsafe is set.
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown converts untrusted markdown to HTML.
func Markdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Page renders a complete HTML document around body.
func Page(title, meta string, body template.HTML) (string, error) {
	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, "page.html", map[string]any{
		"Title": title,
		"Meta":  meta,
		"Body":  body,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ReportPanel renders a model report.
func ReportPanel(id, source string, r modelresp.Report) (host.Panel, error) {
	body, err := Markdown(r.Markdown)
	if err != nil {
		return host.Panel{}, err
	}
	page, err := Page(r.Title, source, body)
	if err != nil {
		return host.Panel{}, err
	}
	return host.Panel{ID: id, Title: r.Title, HTML: page}, nil
}

// DiffPanel renders a proposed edit: the explanation (as markdown) above the aligned diff.
func DiffPanel(id, title, source string, res linealign.Result, explanation string) (host.Panel, error) {
	var body strings.Builder
	if strings.TrimSpace(explanation) != "" {
		exp, err := Markdown(explanation)
		if err != nil {
			return host.Panel{}, err
		}
		body.WriteString(string(exp))
	}
	if !res.HasChanges() {
		body.WriteString("<p>No changes.</p>\n")
	}
	table, err := diffview.RenderHTML(res)
	if err != nil {
		return host.Panel{}, err
	}
	body.WriteString(string(table))

	page, err := Page(title, source, template.HTML(body.String()))
	if err != nil {
		return host.Panel{}, err
	}
	return host.Panel{ID: id, Title: title, HTML: page}, nil
}

// FileEntry is one file's outcome in a workspace review.
type FileEntry struct {
	Path        string
	Diagnostics []host.Diagnostic
	Err         error // set if the file could not be reviewed
}

type summaryRow struct {
	Line     int
	Severity string
	Message  string
	Code     string
}

type summaryEntry struct {
	Path        string
	Err         string
	Diagnostics []summaryRow
}

// SummaryPanel renders the results of a workspace review.
func SummaryPanel(id, title string, entries []FileEntry) (host.Panel, error) {
	data := struct {
		Files, Issues, Failed int
		Entries               []summaryEntry
	}{Files: len(entries)}

	for _, e := range entries {
		se := summaryEntry{Path: e.Path}
		if e.Err != nil {
			data.Failed++
			se.Err = e.Err.Error()
		}
		for _, d := range e.Diagnostics {
			data.Issues++
			se.Diagnostics = append(se.Diagnostics, summaryRow{
				Line:     d.Range.Start.Line + 1,
				Severity: d.Severity.String(),
				Message:  d.Message,
				Code:     d.Code,
			})
		}
		data.Entries = append(data.Entries, se)
	}

	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, "summary.html", data); err != nil {
		return host.Panel{}, err
	}
	page, err := Page(title, "", template.HTML(body.String()))
	if err != nil {
		return host.Panel{}, err
	}
	return host.Panel{ID: id, Title: title, HTML: page}, nil
}
