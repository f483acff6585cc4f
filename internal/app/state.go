// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/helpdevoir/hdq/internal/models"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"

	maxNotifications = 10
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	ID        string
	Key       string // de-duplication key, empty for one-off toasts
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// LoadingState tracks loading states for different resources.
type LoadingState struct {
	Initial bool
	Quota   bool
	Usage   bool
}

// QuotaView is everything the dashboard shows about the current quota.
type QuotaView struct {
	Snapshot     models.QuotaSnapshot
	Projection   models.UsageProjection
	Profile      models.Profile
	CurrentModel models.ModelConfig
	Selectable   []string
	RecentTokens []float64
}

// IsSelectable reports whether a model fits the remaining token budget.
func (v *QuotaView) IsSelectable(modelID string) bool {
	return slices.Contains(v.Selectable, modelID)
}

// ModalState mirrors the guard's exceeded modal for rendering.
type ModalState struct {
	TimeLeft string
	Visible  bool
	Freemium bool
}

// State is shared between the root model and the tabs.
type State struct {
	mu sync.RWMutex

	Quota *QuotaView
	Modal ModalState

	Loading LoadingState

	LastUpdated time.Time

	notifications []Notification
}

// NewState creates an empty state in the initial loading phase.
func NewState() *State {
	return &State{
		notifications: make([]Notification, 0),
		Loading: LoadingState{
			Initial: true,
		},
	}
}

// SetLoading sets the loading state for a specific resource.
func (s *State) SetLoading(resource string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch resource {
	case "initial":
		s.Loading.Initial = loading
	case "quota":
		s.Loading.Quota = loading
	case "usage":
		s.Loading.Usage = loading
	}
}

// AnyLoading returns true if any resource is currently loading.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.Loading.Initial || s.Loading.Quota || s.Loading.Usage
}

// IsInitialLoading returns true if initial data is still loading.
func (s *State) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial
}

// SetQuota stores a fresh quota view.
func (s *State) SetQuota(view QuotaView) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Quota = &view
	s.LastUpdated = time.Now()
}

// GetQuota returns a copy of the quota view, or nil before the first load.
func (s *State) GetQuota() *QuotaView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Quota == nil {
		return nil
	}
	v := *s.Quota
	v.Selectable = slices.Clone(s.Quota.Selectable)
	v.RecentTokens = slices.Clone(s.Quota.RecentTokens)
	return &v
}

// SetModal updates the modal mirror.
func (s *State) SetModal(modal ModalState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Modal = modal
}

// GetModal returns the modal mirror.
func (s *State) GetModal() ModalState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Modal
}

// UpsertNotification adds a notification. When key is set, an existing
// notification with the same key is replaced so repeated notices never
// stack. The replacement gets a new ID so pending expiry timers of the
// old one become no-ops.
func (s *State) UpsertNotification(key string, notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key != "" {
		s.notifications = slices.DeleteFunc(s.notifications, func(n Notification) bool {
			return n.Key == key
		})
	}

	notification := Notification{
		ID:        uuid.NewString(),
		Key:       key,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	}

	s.notifications = append(s.notifications, notification)

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return notification.ID
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}

	return active
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.RemoveNotification(LoadingNotificationID)
}

