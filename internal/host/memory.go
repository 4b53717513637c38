package host

import (
	"context"
	"sync"
)

// Memory is an in-memory Host. It is safe for concurrent use.
type Memory struct {
	mu          sync.Mutex
	docs        map[string]*Document
	active      string
	diagnostics map[string][]Diagnostic
	panels      map[string]Panel
	panelOrder  []string
}

var _ Host = (*Memory)(nil)

// NewMemory returns a Memory host holding docs. The first document is active.
func NewMemory(docs ...Document) *Memory {
	m := &Memory{
		docs:        map[string]*Document{},
		diagnostics: map[string][]Diagnostic{},
		panels:      map[string]Panel{},
	}
	for i := range docs {
		d := docs[i]
		m.docs[d.URI] = &d
		if i == 0 {
			m.active = d.URI
		}
	}
	return m
}

// Open adds or replaces doc and makes it active.
func (m *Memory) Open(doc Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.URI] = &doc
	m.active = doc.URI
}

func (m *Memory) ActiveDocument(ctx context.Context) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[m.active]
	if !ok {
		return Document{}, ErrNoActiveDocument
	}
	return *d, nil
}

func (m *Memory) ShowDiagnostics(ctx context.Context, uri string, diags []Diagnostic) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(diags) == 0 {
		delete(m.diagnostics, uri)
		return nil
	}
	m.diagnostics[uri] = append([]Diagnostic(nil), diags...)
	return nil
}

func (m *Memory) RenderPanel(ctx context.Context, p Panel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.panels[p.ID]; !ok {
		m.panelOrder = append(m.panelOrder, p.ID)
	}
	m.panels[p.ID] = p
	return nil
}

func (m *Memory) ApplyEdit(ctx context.Context, uri string, edits []TextEdit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[uri]
	if !ok {
		return ErrNoActiveDocument
	}
	text, err := ApplyEdits(d.Text, edits)
	if err != nil {
		return err
	}
	d.Text = text
	return nil
}

// Text returns the current text of uri.
func (m *Memory) Text(uri string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.docs[uri]; ok {
		return d.Text
	}
	return ""
}

// Diagnostics returns the diagnostics currently shown for uri.
func (m *Memory) Diagnostics(uri string) []Diagnostic {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Diagnostic(nil), m.diagnostics[uri]...)
}

// Panels returns rendered panels in first-render order.
func (m *Memory) Panels() []Panel {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Panel, 0, len(m.panelOrder))
	for _, id := range m.panelOrder {
		out = append(out, m.panels[id])
	}
	return out
}
