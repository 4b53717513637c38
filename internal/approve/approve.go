// Package approve asks the user to accept or reject a proposed edit in a full-screen terminal view of its diff.
package approve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Decision is the user's answer.
type Decision int

const (
	Pending Decision = iota
	Apply
	Reject
)

func (d Decision) String() string {
	switch d {
	case Apply:
		return "apply"
	case Reject:
		return "reject"
	default:
		return "pending"
	}
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	statsStyle  = lipgloss.NewStyle().Faint(true)
	headerStyle = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(lipgloss.Color("8"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
	keyStyle    = lipgloss.NewStyle().Bold(true)
)

// Model is the Bubble Tea model for the approval screen.
type Model struct {
	title    string
	stats    string
	body     string
	viewport viewport.Model
	ready    bool
	decision Decision
}

// NewModel returns a model showing body (a rendered diff) under title. stats is a short summary shown next to the title (ex: "-2 +3").
func NewModel(title, stats, body string) Model {
	return Model{title: title, stats: stats, body: body}
}

// Decision returns the user's decision so far.
func (m Model) Decision() Decision { return m.decision }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h := max(msg.Height-lipgloss.Height(m.header())-lipgloss.Height(m.footer()), 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, h)
			m.viewport.SetContent(m.body)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = h
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "y", "a":
			m.decision = Apply
			return m, tea.Quit
		case "n", "r", "q", "esc", "ctrl+c":
			m.decision = Reject
			return m, tea.Quit
		}
	}

	if !m.ready {
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "initializing"
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.header(), m.viewport.View(), m.footer())
}

func (m Model) header() string {
	s := titleStyle.Render(m.title)
	if m.stats != "" {
		s += "  " + statsStyle.Render(m.stats)
	}
	return headerStyle.Render(s)
}

func (m Model) footer() string {
	keys := []string{
		keyStyle.Render("y") + " apply",
		keyStyle.Render("n") + " reject",
		keyStyle.Render("↑/↓ pgup/pgdn") + " scroll",
		keyStyle.Render("q") + " quit",
	}
	help := strings.Join(keys, " • ")
	if m.ready {
		help += fmt.Sprintf("  %3.f%%", m.viewport.ScrollPercent()*100)
	}
	return helpStyle.Render(help)
}

// Run shows the approval screen on out, reading keys from in, and blocks until the user decides or ctx is done. A canceled ctx counts as a rejection.
func Run(ctx context.Context, title, stats, body string, in io.Reader, out io.Writer) (Decision, error) {
	p := tea.NewProgram(NewModel(title, stats, body),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return Reject, ctx.Err()
		}
		return Reject, err
	}
	m, ok := final.(Model)
	if !ok || m.decision == Pending {
		return Reject, nil
	}
	return m.decision, nil
}
