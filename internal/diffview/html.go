package diffview

import (
	"bytes"
	"html/template"
	"strconv"

	"github.com/codalotl/codepal/internal/linealign"
)

var htmlTmpl = template.Must(template.New("diff").Parse(`<table class="diff">
{{- range .}}
<tr class="{{.Class}}"><td class="num">{{.OldNum}}</td><td class="num">{{.NewNum}}</td><td class="marker">{{.Marker}}</td><td class="code">
{{- range .Spans}}{{if .Emphasis}}<span class="{{.Class}}">{{.Text}}</span>{{else}}{{.Text}}{{end}}{{end -}}
</td></tr>
{{- end}}
</table>`))

type htmlSpan struct {
	Text     string
	Emphasis bool
	Class    string
}

type htmlRow struct {
	Class  string
	OldNum string
	NewNum string
	Marker string
	Spans  []htmlSpan
}

// RenderHTML returns an HTML table fragment for res, one row per record, with old/new line numbers and intra-line emphasis (<span class="del"> and
// <span class="ins">). All content is escaped. Styling is left to the embedding page.
func RenderHTML(res linealign.Result) (template.HTML, error) {
	var rows []htmlRow
	oldNum, newNum := 0, 0
	for _, ln := range Lines(res) {
		row := htmlRow{Marker: string(ln.Kind.Marker())}
		switch ln.Kind {
		case linealign.Unchanged:
			oldNum++
			newNum++
			row.Class = "ctx"
			row.OldNum, row.NewNum = strconv.Itoa(oldNum), strconv.Itoa(newNum)
		case linealign.Removed:
			oldNum++
			row.Class = "del"
			row.OldNum = strconv.Itoa(oldNum)
		case linealign.Added:
			newNum++
			row.Class = "ins"
			row.NewNum = strconv.Itoa(newNum)
		}
		if ln.Spans == nil {
			row.Spans = []htmlSpan{{Text: ln.Content}}
		} else {
			for _, sp := range ln.Spans {
				hs := htmlSpan{Text: sp.Text}
				switch sp.Op {
				case OpDelete:
					hs.Emphasis, hs.Class = true, "del"
				case OpInsert:
					hs.Emphasis, hs.Class = true, "ins"
				}
				row.Spans = append(row.Spans, hs)
			}
		}
		rows = append(rows, row)
	}

	var buf bytes.Buffer
	if err := htmlTmpl.Execute(&buf, rows); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

