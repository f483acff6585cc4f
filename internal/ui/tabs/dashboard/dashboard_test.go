package dashboard

import (
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/helpdevoir/hdq/internal/app"
	"github.com/helpdevoir/hdq/internal/models"
)

func loadedState(view app.QuotaView) *app.State {
	state := app.NewState()
	state.SetLoading("initial", false)
	state.SetQuota(view)
	return state
}

func freemiumView() app.QuotaView {
	return app.QuotaView{
		Snapshot: models.QuotaSnapshot{
			State:     models.LedgerState{PromptsUsed: 3, TokensUsed: 450},
			Limits:    models.QuotaLimits{MaxPrompts: 10, MaxTokens: 1000, CooldownHours: 24},
			Remaining: models.RemainingQuota{Prompts: 7, Tokens: 550},
			Tier: models.TierInfo{
				Tier:         models.TierFreemium,
				DisplayName:  "Freemium",
				MonthlyPrice: decimal.Zero,
			},
		},
		Projection: models.UsageProjection{
			Status:         models.ProjectionWarning,
			Confidence:     "medium",
			VsAverage:      "above average",
			TokensPerHour:  120,
			PromptsPerHour: 0.8,
			HoursLeft:      4.5,
		},
		CurrentModel: models.ModelConfig{ID: "gpt-4o", Name: "GPT-4o", Provider: models.ProviderOpenAI},
		Selectable:   []string{"gpt-4o"},
		RecentTokens: []float64{0, 100, 300, 0, 50, 450, 200},
	}
}

func TestNew(t *testing.T) {
	m := New(app.NewState())
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.promptBar.Label() != "Prompts" || m.tokenBar.Label() != "Tokens" {
		t.Error("Bars should be labelled")
	}
}

func TestModel_Init(t *testing.T) {
	m := New(app.NewState())
	if m.Init() == nil {
		t.Error("Init returned nil")
	}
}

func TestModel_Update(t *testing.T) {
	m := New(app.NewState())

	updated, _ := m.Update(nil)
	if updated == nil {
		t.Error("Update returned nil model")
	}
}

func TestModel_ViewLoading(t *testing.T) {
	m := New(app.NewState())
	m.SetSize(80, 24)

	view := m.View()
	if !strings.Contains(view, "Loading quota") {
		t.Error("Initial view should show the loading spinner")
	}
}

func TestModel_ViewNoData(t *testing.T) {
	state := app.NewState()
	state.SetLoading("initial", false)
	m := New(state)
	m.SetSize(80, 24)

	if view := m.View(); !strings.Contains(view, "No quota data") {
		t.Errorf("View should explain missing data, got %q", view)
	}
}

func TestModel_View(t *testing.T) {
	m := New(loadedState(freemiumView()))
	m.SetSize(100, 60)

	view := m.View()
	for _, want := range []string{"Freemium", "Free", "GPT-4o", "7/10", "550/1000", "WARNING", "Upgrade"} {
		if !strings.Contains(view, want) {
			t.Errorf("View should contain %q", want)
		}
	}
	if strings.Contains(view, "Time left") {
		t.Error("Cooldown should only show when exceeded")
	}
}

func TestModel_ViewExceeded(t *testing.T) {
	view := freemiumView()
	next := time.Now().Add(2 * time.Hour)
	view.Snapshot.State = models.LedgerState{
		PromptsUsed:     10,
		TokensUsed:      1000,
		IsQuotaExceeded: true,
		NextResetTime:   &next,
	}
	view.Snapshot.Remaining = models.RemainingQuota{}
	view.Snapshot.TimeUntilReset = 2*time.Hour + 5*time.Minute
	view.Selectable = nil

	m := New(loadedState(view))
	m.SetSize(100, 60)

	out := m.View()
	for _, want := range []string{"Cooldown", "Time left: 2h 5m", "0/10", "over budget"} {
		if !strings.Contains(out, want) {
			t.Errorf("Exceeded view should contain %q", want)
		}
	}
}

func TestModel_ViewPaidPlan(t *testing.T) {
	view := freemiumView()
	view.Snapshot.Tier = models.TierInfo{
		Tier:         models.TierFamily,
		DisplayName:  "Family",
		MonthlyPrice: decimal.RequireFromString("9.99"),
	}

	m := New(loadedState(view))
	m.SetSize(100, 60)

	out := m.View()
	if !strings.Contains(out, "9.99") {
		t.Error("Paid plan should show its price")
	}
	if strings.Contains(out, "Upgrade") {
		t.Error("Paid plan should not show the upsell")
	}
}

func TestModel_QuotaLoadedStartsAnimation(t *testing.T) {
	m := New(loadedState(freemiumView()))

	_, cmd := m.Update(app.QuotaLoadedMsg{View: freemiumView()})
	if cmd == nil {
		t.Error("QuotaLoadedMsg should start the bar animation")
	}
}

func TestModel_SetSize(t *testing.T) {
	m := New(app.NewState())
	m.SetSize(100, 50)
	if m.viewport.Width != 100 || m.viewport.Height != 50 {
		t.Errorf("viewport = %dx%d, want 100x50", m.viewport.Width, m.viewport.Height)
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState())
	if len(m.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(m.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}

func TestModel_KeyBindings(t *testing.T) {
	m := New(loadedState(freemiumView()))
	m.SetSize(80, 10)
	m.View()

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
}

func TestFormatHours(t *testing.T) {
	tests := []struct {
		hours float64
		want  string
	}{
		{0, "---"},
		{math.Inf(1), "---"},
		{1.5, "1h 30m"},
		{26, "1d 02h"},
	}

	for _, tt := range tests {
		if got := formatHours(tt.hours); got != tt.want {
			t.Errorf("formatHours(%v) = %q, want %q", tt.hours, got, tt.want)
		}
	}
}
