package assistant

import (
	"context"
	"errors"
	"strings"

	"github.com/codalotl/codepal/internal/host"
	"github.com/codalotl/codepal/internal/linealign"
	"github.com/codalotl/codepal/internal/modelresp"
	"github.com/codalotl/codepal/internal/prompt"
	"github.com/codalotl/codepal/internal/report"
)

// Proposal is a model-proposed replacement for part of a document. Nothing is changed until it is passed to Apply.
type Proposal struct {
	ID          string
	URI         string
	Range       host.Range // submitted range in the document at proposal time
	Original    string     // submitted text
	Proposed    string     // replacement text
	Explanation string
	Alignment   linealign.Result
	Panel       host.Panel
}

// ErrStaleProposal is returned by Apply if the document no longer contains the proposal's original text at its range.
var ErrStaleProposal = errors.New("assistant: document changed since the proposal was made")

// ProposeEdit asks the model to carry out instruction on the active document's selection (or the whole document), aligns the original against the reply, and renders
// the diff as a panel. The document is not modified.
func (a *Assistant) ProposeEdit(ctx context.Context, instruction string) (Proposal, error) {
	if strings.TrimSpace(instruction) == "" {
		return Proposal{}, ErrEmptyInstruction
	}
	doc, err := a.host.ActiveDocument(ctx)
	if err != nil {
		return Proposal{}, err
	}

	sub := submit(doc)
	in := sub.input(a, doc)
	in.Instruction = instruction
	reply, err := a.complete(ctx, prompt.KindEdit, in)
	if err != nil {
		return Proposal{}, err
	}
	edit, err := modelresp.ParseEdit(reply)
	if err != nil {
		return Proposal{}, a.LogWrappedErr("assistant.edit.parse", err, "uri", doc.URI)
	}
	res, err := linealign.AlignValues(sub.code, edit.Code)
	if err != nil {
		return Proposal{}, a.LogWrappedErr("assistant.edit.align", err, "uri", doc.URI)
	}

	p := Proposal{
		ID:          shortID("edit"),
		URI:         doc.URI,
		Range:       sub.rng,
		Original:    sub.code,
		Proposed:    edit.Code.(string),
		Explanation: edit.Explanation,
		Alignment:   res,
	}
	p.Panel, err = report.DiffPanel(p.ID, "Proposed edit: "+in.Path, in.Path, res, edit.Explanation)
	if err != nil {
		return Proposal{}, err
	}
	if err := a.host.RenderPanel(ctx, p.Panel); err != nil {
		return Proposal{}, a.LogWrappedErr("assistant.render_panel", err, "id", p.Panel.ID)
	}
	a.Log("assistant.edit.proposed", "id", p.ID, "uri", p.URI, "removed", res.Stats().Removed, "added", res.Stats().Added)
	return p, nil
}

// Apply replaces the proposal's range with its proposed text in a single edit. A proposal without changes is a no-op. If the proposal's document is active and
// its range no longer holds the original text, Apply returns ErrStaleProposal.
func (a *Assistant) Apply(ctx context.Context, p Proposal) error {
	if !p.Alignment.HasChanges() {
		return nil
	}
	if doc, err := a.host.ActiveDocument(ctx); err == nil && doc.URI == p.URI {
		current, err := textAt(doc.Text, p.Range)
		if err != nil || current != p.Original {
			return ErrStaleProposal
		}
	}
	edit := host.TextEdit{Range: p.Range, NewText: p.Proposed}
	if err := a.host.ApplyEdit(ctx, p.URI, []host.TextEdit{edit}); err != nil {
		return a.LogWrappedErr("assistant.apply", err, "id", p.ID, "uri", p.URI)
	}
	a.Log("assistant.edit.applied", "id", p.ID, "uri", p.URI)
	return nil
}

func textAt(text string, r host.Range) (string, error) {
	start, err := host.Offset(text, r.Start)
	if err != nil {
		return "", err
	}
	end, err := host.Offset(text, r.End)
	if err != nil {
		return "", err
	}
	if end < start {
		return "", host.ErrRangeOutOfBounds
	}
	return text[start:end], nil
}
