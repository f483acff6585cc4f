// Package dashboard provides the quota overview tab.
package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/helpdevoir/hdq/internal/app"
	"github.com/helpdevoir/hdq/internal/ui/components"
)

type shimmerTickMsg time.Time

func shimmerTickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*40, func(t time.Time) tea.Msg {
		return shimmerTickMsg(t)
	})
}

// keyMap defines the key bindings specific to the dashboard tab.
type keyMap struct {
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Refresh    key.Binding
}

// defaultKeyMap returns the default key bindings for the dashboard tab.
func defaultKeyMap() keyMap {
	return keyMap{
		ScrollUp: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "scroll down"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
	}
}

// Model represents the dashboard tab state.
type Model struct {
	state          *app.State
	spinner        components.LoadingSpinner
	keys           keyMap
	viewport       viewport.Model
	promptBar      components.QuotaBar
	tokenBar       components.QuotaBar
	cooldownBar    components.TimeBar
	width          int
	height         int
	animationFrame int
}

// New creates a new dashboard model.
func New(state *app.State) *Model {
	return &Model{
		state:       state,
		spinner:     components.NewSpinner("Loading quota..."),
		promptBar:   components.NewQuotaBar("Prompts"),
		tokenBar:    components.NewQuotaBar("Tokens"),
		cooldownBar: components.NewTimeBar("Cooldown"),
		keys:        defaultKeyMap(),
		viewport:    viewport.New(0, 0),
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Init(), shimmerTickCmd())
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case shimmerTickMsg:
		m.animationFrame++
		if m.state.IsInitialLoading() {
			cmds = append(cmds, shimmerTickCmd())
		}

	case app.QuotaLoadedMsg:
		cmds = append(cmds, m.syncBars(msg.View))

	case components.AnimationTickMsg, progress.FrameMsg:
		cmds = append(cmds, m.updateBars(msg))

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyMsg(msg))
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// syncBars points the bars at the remaining budget of a fresh view.
func (m *Model) syncBars(view app.QuotaView) tea.Cmd {
	snap := view.Snapshot
	return tea.Batch(
		m.promptBar.SetPercent(snap.PromptsPercent()),
		m.tokenBar.SetPercent(snap.TokensPercent()),
	)
}

func (m *Model) updateBars(msg tea.Msg) tea.Cmd {
	var promptCmd, tokenCmd tea.Cmd
	m.promptBar, promptCmd = m.promptBar.Update(msg)
	m.tokenBar, tokenCmd = m.tokenBar.Update(msg)
	return tea.Batch(promptCmd, tokenCmd)
}

// handleKeyMsg scrolls the content. The viewport's own key map covers j/k.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return cmd
}

// SetSize sets the available size for the dashboard.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.ScrollUp,
		m.keys.ScrollDown,
		m.keys.Refresh,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ScrollUp, m.keys.ScrollDown},
		{m.keys.Refresh},
	}
}
