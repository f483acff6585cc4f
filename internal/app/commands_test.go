package app

import (
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/helpdevoir/hdq/internal/config"
	"github.com/helpdevoir/hdq/internal/models"
	"github.com/helpdevoir/hdq/internal/services"
)

func newTestManager(t *testing.T) *services.Manager {
	t.Helper()
	tmpDir := t.TempDir()
	cfg := &config.Config{
		DatabasePath:         filepath.Join(tmpDir, "quota.db"),
		ProfilePath:          filepath.Join(tmpDir, "profile.json"),
		StorageDir:           filepath.Join(tmpDir, "state"),
		StorageBackend:       config.BackendMemory,
		RequestTokenEstimate: 150,
		ResetCheckInterval:   time.Hour,
	}
	mgr, err := services.NewManager(cfg, services.WithDesktopNotifier(nil))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() {
		_ = mgr.Close()
	})
	return mgr
}

func TestTickCmds(t *testing.T) {
	if tickCmd(time.Millisecond) == nil {
		t.Error("tickCmd returned nil")
	}
	if defaultTickCmd() == nil {
		t.Error("defaultTickCmd returned nil")
	}
}

func TestCommands_Notifications(t *testing.T) {
	cmds := NewCommands(nil)

	tests := []struct {
		name string
		fn   func(string) tea.Cmd
		want NotificationType
	}{
		{"Success", cmds.NotifySuccess, NotificationSuccess},
		{"Error", notifyErrorCmd, NotificationError},
		{"Warning", notifyWarningCmd, NotificationWarning},
		{"Info", cmds.NotifyInfo, NotificationInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := tt.fn("msg")
			msg := cmd()

			addMsg, ok := msg.(AddNotificationMsg)
			if !ok {
				t.Fatalf("Expected AddNotificationMsg, got %T", msg)
			}
			if addMsg.Type != tt.want {
				t.Errorf("Type = %v, want %v", addMsg.Type, tt.want)
			}
			if addMsg.Message != "msg" {
				t.Errorf("Message = %q, want msg", addMsg.Message)
			}
			if addMsg.Key != "" {
				t.Errorf("Key = %q, want empty", addMsg.Key)
			}
		})
	}
}

func TestClearNotificationCmd(t *testing.T) {
	msg := clearNotificationCmd("toast-1", time.Millisecond)()
	remove, ok := msg.(RemoveNotificationMsg)
	if !ok {
		t.Fatalf("Expected RemoveNotificationMsg, got %T", msg)
	}
	if remove.ID != "toast-1" {
		t.Errorf("ID = %q, want toast-1", remove.ID)
	}
}

func TestCommands_NilManager(t *testing.T) {
	cmds := NewCommands(nil)

	for name, cmd := range map[string]tea.Cmd{
		"Ask":          cmds.Ask(),
		"CycleModel":   cmds.CycleModel(),
		"ClearHistory": cmds.ClearHistory(),
		"CyclePlan":    cmds.CyclePlan(),
	} {
		if cmd != nil {
			t.Errorf("%s should be nil without a manager", name)
		}
	}
}

func TestLoadQuotaCmd(t *testing.T) {
	mgr := newTestManager(t)

	msg := loadQuotaCmd(mgr)()
	loaded, ok := msg.(QuotaLoadedMsg)
	if !ok {
		t.Fatalf("Expected QuotaLoadedMsg, got %T", msg)
	}

	view := loaded.View
	if view.Snapshot.Tier.Tier != models.TierFreemium {
		t.Errorf("Tier = %v, want freemium", view.Snapshot.Tier.Tier)
	}
	if view.Snapshot.Remaining.Prompts != view.Snapshot.Limits.MaxPrompts {
		t.Errorf("Remaining prompts = %d, want %d", view.Snapshot.Remaining.Prompts, view.Snapshot.Limits.MaxPrompts)
	}
	if view.CurrentModel.ID == "" {
		t.Error("CurrentModel should be set")
	}
	if !view.IsSelectable(view.CurrentModel.ID) {
		t.Errorf("Current model %q should be selectable on a fresh ledger", view.CurrentModel.ID)
	}
	if len(view.RecentTokens) != RecentDays {
		t.Errorf("RecentTokens length = %d, want %d", len(view.RecentTokens), RecentDays)
	}
}

func TestCommands_Ask(t *testing.T) {
	mgr := newTestManager(t)

	msg := NewCommands(mgr).Ask()()
	result, ok := msg.(AskResultMsg)
	if !ok {
		t.Fatalf("Expected AskResultMsg, got %T", msg)
	}
	if !result.Result.Granted {
		t.Fatal("First request should be granted")
	}
	if result.Result.Record == nil {
		t.Error("Granted request should carry a usage record")
	}

	snap := mgr.Snapshot()
	if snap.State.PromptsUsed != 1 {
		t.Errorf("PromptsUsed = %d, want 1", snap.State.PromptsUsed)
	}
}

func TestCommands_ClearHistory(t *testing.T) {
	mgr := newTestManager(t)
	mgr.Ask()

	msg := NewCommands(mgr).ClearHistory()()
	if _, ok := msg.(UsageChangedMsg); !ok {
		t.Fatalf("Expected UsageChangedMsg, got %T", msg)
	}
	if stats := mgr.UsageStats(30); stats.TotalTokens != 0 {
		t.Errorf("TotalTokens = %d after clear, want 0", stats.TotalTokens)
	}
}

func TestCommands_CyclePlan(t *testing.T) {
	mgr := newTestManager(t)

	msg := NewCommands(mgr).CyclePlan()()
	result, ok := msg.(PlanChangeResultMsg)
	if !ok {
		t.Fatalf("Expected PlanChangeResultMsg, got %T", msg)
	}
	if result.Error != nil {
		t.Fatalf("CyclePlan error: %v", result.Error)
	}
	if result.Plan != string(models.TierEssential) {
		t.Errorf("Plan = %q, want essential", result.Plan)
	}
	if got := mgr.Profile().Tier(); got != models.TierEssential {
		t.Errorf("Profile tier = %v, want essential", got)
	}
}

func TestNextTier(t *testing.T) {
	tests := []struct {
		current models.SubscriptionTier
		want    models.SubscriptionTier
	}{
		{models.TierFreemium, models.TierEssential},
		{models.TierEssential, models.TierFamily},
		{models.TierFamily, models.TierPremium},
		{models.TierPremium, models.TierFreemium},
	}

	for _, tt := range tests {
		if got := nextTier(tt.current); got != tt.want {
			t.Errorf("nextTier(%v) = %v, want %v", tt.current, got, tt.want)
		}
	}
}

func TestFormatAskResult(t *testing.T) {
	got := formatAskResult(services.AskResult{Model: "gpt-4o", Tokens: 150, Granted: true})
	if got != "gpt-4o answered (150 tokens)" {
		t.Errorf("formatAskResult = %q", got)
	}
}
