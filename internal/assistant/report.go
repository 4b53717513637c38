package assistant

import (
	"context"

	"github.com/codalotl/codepal/internal/host"
	"github.com/codalotl/codepal/internal/modelresp"
	"github.com/codalotl/codepal/internal/prompt"
	"github.com/codalotl/codepal/internal/report"
)

// Report asks the model for a markdown report on the active document (or its selection) and renders it as a read-only panel.
func (a *Assistant) Report(ctx context.Context) (host.Panel, error) {
	doc, err := a.host.ActiveDocument(ctx)
	if err != nil {
		return host.Panel{}, err
	}
	in := submit(doc).input(a, doc)
	reply, err := a.complete(ctx, prompt.KindReport, in)
	if err != nil {
		return host.Panel{}, err
	}
	r, err := modelresp.ParseReport(reply)
	if err != nil {
		return host.Panel{}, a.LogWrappedErr("assistant.report.parse", err, "uri", doc.URI)
	}
	panel, err := report.ReportPanel(shortID("report"), in.Path, r)
	if err != nil {
		return host.Panel{}, err
	}
	if err := a.host.RenderPanel(ctx, panel); err != nil {
		return host.Panel{}, a.LogWrappedErr("assistant.render_panel", err, "id", panel.ID)
	}
	return panel, nil
}
