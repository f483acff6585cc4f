// Package usage provides the usage tab: per-model consumption and cost.
package usage

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/helpdevoir/hdq/internal/app"
	"github.com/helpdevoir/hdq/internal/models"
	"github.com/helpdevoir/hdq/internal/services"
)

// windows are the selectable aggregation spans in days.
var windows = []int{1, 7, 30}

// keyMap defines the key bindings specific to the usage tab.
type keyMap struct {
	Day          key.Binding
	Week         key.Binding
	Month        key.Binding
	ToggleRange  key.Binding
	ClearHistory key.Binding
	Refresh      key.Binding
	Up           key.Binding
	Down         key.Binding
}

// defaultKeyMap returns the default key bindings for the usage tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Day: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "today"),
		),
		Week: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "7 days"),
		),
		Month: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "30 days"),
		),
		ToggleRange: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle time range"),
		),
		ClearHistory: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear history"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// report is one load of the usage log.
type report struct {
	stats  models.UsageStats
	daily  []float64
	hourly []float64
	models map[string]models.ModelConfig
}

type usageLoadedMsg struct {
	report report
}

type usageErrorMsg struct {
	err string
}

// Model represents the usage tab state.
type Model struct {
	state    *app.State
	services *services.Manager
	commands *app.Commands
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model

	windowIdx   int
	data        *report
	loading     bool
	confirming  bool
	lastRefresh time.Time
	errorMsg    string
}

// New creates a new usage model.
func New(state *app.State, svc *services.Manager) *Model {
	return &Model{
		state:     state,
		services:  svc,
		commands:  app.NewCommands(svc),
		keys:      defaultKeyMap(),
		viewport:  viewport.New(0, 0),
		windowIdx: 1,
	}
}

// Days returns the selected aggregation window.
func (m *Model) Days() int {
	return windows[m.windowIdx]
}

// Init initializes the usage tab.
func (m *Model) Init() tea.Cmd {
	m.loading = true
	return m.loadUsageCmd()
}

func (m *Model) loadUsageCmd() tea.Cmd {
	mgr := m.services
	days := m.Days()
	return func() tea.Msg {
		if mgr == nil {
			return usageErrorMsg{err: "Services not initialized"}
		}

		catalog := make(map[string]models.ModelConfig)
		for _, mc := range mgr.Recorder().Models() {
			catalog[mc.ID] = mc
		}

		return usageLoadedMsg{report: report{
			stats:  mgr.UsageStats(days),
			daily:  mgr.DailyTokens(days),
			hourly: mgr.HourlyTokens(days),
			models: catalog,
		}}
	}
}

func (m *Model) reload() tea.Cmd {
	if m.loading {
		return nil
	}
	m.loading = true
	return m.loadUsageCmd()
}

// Update handles messages for the usage tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case usageLoadedMsg:
		m.data = &msg.report
		m.loading = false
		m.lastRefresh = time.Now()
		m.errorMsg = ""

	case usageErrorMsg:
		m.loading = false
		m.errorMsg = msg.err
		cmds = append(cmds, func() tea.Msg {
			return app.AddNotificationMsg{
				Key:      "usage-error",
				Type:     app.NotificationError,
				Message:  fmt.Sprintf("Usage error: %s", msg.err),
				Duration: app.LongNotificationDuration,
			}
		})

	case app.UsageChangedMsg, app.RefreshMsg:
		cmds = append(cmds, m.reload())

	case app.TabSwitchMsg:
		if msg.Tab == app.TabUsage {
			cmds = append(cmds, m.reload())
		}

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (app.Tab, tea.Cmd) {
	if m.confirming {
		m.confirming = false
		if key.Matches(msg, m.keys.ClearHistory) {
			return m, tea.Batch(
				m.commands.ClearHistory(),
				m.commands.NotifySuccess("Usage history cleared"),
			)
		}
		return m, nil
	}

	var cmds []tea.Cmd
	switch {
	case key.Matches(msg, m.keys.Day):
		cmds = append(cmds, m.selectWindow(0))
	case key.Matches(msg, m.keys.Week):
		cmds = append(cmds, m.selectWindow(1))
	case key.Matches(msg, m.keys.Month):
		cmds = append(cmds, m.selectWindow(2))
	case key.Matches(msg, m.keys.ToggleRange):
		cmds = append(cmds, m.selectWindow((m.windowIdx+1)%len(windows)))

	case key.Matches(msg, m.keys.ClearHistory):
		m.confirming = true

	case key.Matches(msg, m.keys.Refresh):
		cmds = append(cmds, m.reload())

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) selectWindow(idx int) tea.Cmd {
	m.windowIdx = idx
	m.loading = true
	return m.loadUsageCmd()
}

// SetSize sets the available size for the usage tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.ToggleRange,
		m.keys.ClearHistory,
		m.keys.Refresh,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Day, m.keys.Week, m.keys.Month, m.keys.ToggleRange},
		{m.keys.ClearHistory, m.keys.Refresh},
		{m.keys.Up, m.keys.Down},
	}
}
