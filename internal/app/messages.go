package app

import (
	"time"

	"github.com/helpdevoir/hdq/internal/services"
)

// TickMsg is sent periodically to refresh the time-left display.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource string
}

// QuotaLoadedMsg carries a fresh quota view.
type QuotaLoadedMsg struct {
	View QuotaView
}

// AskResultMsg carries the outcome of a simulated request.
type AskResultMsg struct {
	Result services.AskResult
}

// ModelCycledMsg carries the outcome of a model switch.
type ModelCycledMsg struct {
	Model string
	Error error
}

// UsageChangedMsg tells tabs that the usage log changed.
type UsageChangedMsg struct{}

// PlanChangeResultMsg carries the outcome of a plan switch.
type PlanChangeResultMsg struct {
	Plan  string
	Error error
}

// RefreshMsg requests a refresh of data.
type RefreshMsg struct {
	Resource string // "all", "quota", "usage"
}

// AddNotificationMsg requests adding a new notification. A non-empty Key
// replaces any notification already shown under that key.
type AddNotificationMsg struct {
	Key      string
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
