package app

import (
	"testing"
	"time"

	"github.com/helpdevoir/hdq/internal/models"
)

func TestNewState(t *testing.T) {
	s := NewState()
	if s == nil {
		t.Fatal("NewState returned nil")
	}
	if s.GetQuota() != nil {
		t.Error("Quota should be nil before the first load")
	}
	if s.Loading.Initial != true {
		t.Error("Initial loading should be true")
	}
}

func TestState_SetLoading(t *testing.T) {
	s := NewState()

	s.SetLoading("usage", true)
	if !s.Loading.Usage {
		t.Error("Usage loading should be true")
	}
	if !s.AnyLoading() {
		t.Error("AnyLoading should be true")
	}

	s.SetLoading("usage", false)
	// Initial is still true
	if !s.AnyLoading() {
		t.Error("AnyLoading should be true (Initial is true)")
	}

	s.SetLoading("initial", false)
	if s.AnyLoading() {
		t.Error("AnyLoading should be false")
	}
	if s.IsInitialLoading() {
		t.Error("IsInitialLoading should be false")
	}

	s.SetLoading("quota", true)
	if !s.AnyLoading() || s.IsInitialLoading() {
		t.Error("Only quota should be loading")
	}
}

func TestState_Quota(t *testing.T) {
	s := NewState()

	view := QuotaView{
		Snapshot: models.QuotaSnapshot{
			Limits:    models.QuotaLimits{MaxPrompts: 10, MaxTokens: 1000, CooldownHours: 24},
			Remaining: models.RemainingQuota{Prompts: 7, Tokens: 550},
		},
		CurrentModel: models.ModelConfig{ID: "gpt-4o", Name: "GPT-4o"},
		Selectable:   []string{"gpt-4o", "claude-3-haiku"},
		RecentTokens: []float64{1, 2, 3},
	}
	s.SetQuota(view)

	got := s.GetQuota()
	if got == nil {
		t.Fatal("GetQuota returned nil")
	}
	if got.Snapshot.Remaining.Prompts != 7 {
		t.Errorf("Remaining prompts = %d, want 7", got.Snapshot.Remaining.Prompts)
	}
	if !got.IsSelectable("claude-3-haiku") {
		t.Error("claude-3-haiku should be selectable")
	}
	if got.IsSelectable("mistral-large") {
		t.Error("mistral-large should not be selectable")
	}

	// Mutating the copy must not leak into the state.
	got.Selectable[0] = "changed"
	got.RecentTokens[0] = 99
	again := s.GetQuota()
	if again.Selectable[0] != "gpt-4o" {
		t.Errorf("Selectable leaked mutation: %v", again.Selectable)
	}
	if again.RecentTokens[0] != 1 {
		t.Errorf("RecentTokens leaked mutation: %v", again.RecentTokens)
	}

	if s.LastUpdated.IsZero() {
		t.Error("LastUpdated should be set")
	}
}

func TestState_Modal(t *testing.T) {
	s := NewState()
	if s.GetModal().Visible {
		t.Error("Modal should start hidden")
	}

	s.SetModal(ModalState{Visible: true, TimeLeft: "2h 5m", Freemium: true})
	modal := s.GetModal()
	if !modal.Visible || !modal.Freemium || modal.TimeLeft != "2h 5m" {
		t.Errorf("GetModal = %+v", modal)
	}
}

func TestState_Notifications(t *testing.T) {
	s := NewState()

	id := s.UpsertNotification("", NotificationInfo, "test", time.Minute)
	if id == "" {
		t.Error("UpsertNotification returned empty ID")
	}

	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Errorf("GetNotifications len = %d, want 1", len(notifs))
	}
	if notifs[0].Message != "test" {
		t.Errorf("Notification message = %s, want test", notifs[0].Message)
	}

	s.RemoveNotification(id)
	if len(s.GetNotifications()) != 0 {
		t.Error("Notification should be removed")
	}
}

func TestState_UpsertNotification(t *testing.T) {
	s := NewState()

	first := s.UpsertNotification("quota-warning", NotificationWarning, "3 prompts left", time.Minute)
	second := s.UpsertNotification("quota-warning", NotificationWarning, "2 prompts left", time.Minute)
	s.UpsertNotification("", NotificationInfo, "one-off", time.Minute)
	s.UpsertNotification("", NotificationInfo, "one-off", time.Minute)

	if first == second {
		t.Error("Replacement should get a new ID")
	}

	notifs := s.GetNotifications()
	if len(notifs) != 3 {
		t.Fatalf("Expected 3 notifications, got %d", len(notifs))
	}

	keyed := 0
	for _, n := range notifs {
		if n.Key == "quota-warning" {
			keyed++
			if n.Message != "2 prompts left" {
				t.Errorf("Keyed message = %q, want the latest", n.Message)
			}
		}
	}
	if keyed != 1 {
		t.Errorf("Keyed notifications = %d, want 1", keyed)
	}

	// A stale expiry timer for the replaced toast is a no-op.
	s.RemoveNotification(first)
	if len(s.GetNotifications()) != 3 {
		t.Error("Removing the replaced ID should not drop anything")
	}
}

func TestState_NotificationCap(t *testing.T) {
	s := NewState()
	for range maxNotifications + 5 {
		s.UpsertNotification("", NotificationInfo, "x", time.Minute)
	}
	if got := len(s.GetNotifications()); got != maxNotifications {
		t.Errorf("Notifications = %d, want %d", got, maxNotifications)
	}
}

func TestState_ClearExpiredNotifications(t *testing.T) {
	s := NewState()

	// Expired
	s.notifications = append(s.notifications, Notification{
		ID:        "expired",
		CreatedAt: time.Now().Add(-2 * time.Minute),
		Duration:  time.Minute,
	})

	// Active
	s.notifications = append(s.notifications, Notification{
		ID:        "active",
		CreatedAt: time.Now(),
		Duration:  time.Minute,
	})

	s.ClearExpiredNotifications()

	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifs))
	}
	if notifs[0].ID != "active" {
		t.Errorf("Expected active notification, got %s", notifs[0].ID)
	}
}

func TestState_LoadingNotification(t *testing.T) {
	s := NewState()

	s.SetLoadingNotification("loading...")
	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Errorf("Expected 1 notification, got %d", len(notifs))
	}
	if notifs[0].ID != LoadingNotificationID {
		t.Errorf("Expected ID %s, got %s", LoadingNotificationID, notifs[0].ID)
	}

	// Update message
	s.SetLoadingNotification("still loading...")
	notifs = s.GetNotifications()
	if len(notifs) != 1 {
		t.Errorf("Expected 1 notification after update")
	}
	if notifs[0].Message != "still loading..." {
		t.Errorf("Expected message still loading..., got %s", notifs[0].Message)
	}

	s.ClearLoadingNotification()
	if len(s.GetNotifications()) != 0 {
		t.Error("Loading notification should be cleared")
	}
}

func TestNotificationType_String(t *testing.T) {
	tests := []struct {
		t    NotificationType
		want string
	}{
		{NotificationSuccess, "success"},
		{NotificationError, "error"},
		{NotificationWarning, "warning"},
		{NotificationInfo, "info"},
		{NotificationType(999), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
