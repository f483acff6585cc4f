package app

import (
	"fmt"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/helpdevoir/hdq/internal/models"
	"github.com/helpdevoir/hdq/internal/services"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second

	// RecentDays is the span of the dashboard sparkline.
	RecentDays = 7
)

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// BuildQuotaView collects the dashboard data from the manager.
func BuildQuotaView(mgr *services.Manager) QuotaView {
	view := QuotaView{
		Snapshot:     mgr.Snapshot(),
		Projection:   mgr.Projection(),
		Profile:      mgr.Profile().Profile(),
		RecentTokens: mgr.DailyTokens(RecentDays),
	}

	current := mgr.Recorder().CurrentModel()
	if mc, err := mgr.Recorder().ModelConfig(current); err == nil {
		view.CurrentModel = mc
	} else {
		view.CurrentModel = models.ModelConfig{ID: current, Name: current}
	}

	for _, mc := range mgr.SelectableModels() {
		view.Selectable = append(view.Selectable, mc.ID)
	}

	return view
}

// loadQuotaCmd returns a command that loads the quota view.
func loadQuotaCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		return QuotaLoadedMsg{View: BuildQuotaView(mgr)}
	}
}

// askCmd runs one simulated request through the guard.
func askCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		return AskResultMsg{Result: mgr.Ask()}
	}
}

// cycleModelCmd switches to the next model that fits the budget.
func cycleModelCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		model, err := mgr.CycleModel()
		return ModelCycledMsg{Model: model, Error: err}
	}
}

// clearHistoryCmd empties the usage log.
func clearHistoryCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		mgr.ClearUsageHistory()
		return UsageChangedMsg{}
	}
}

// cyclePlanCmd moves the profile to the next subscription plan.
func cyclePlanCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		next := nextTier(mgr.Profile().Tier())
		err := mgr.SetPlan(next)
		return PlanChangeResultMsg{Plan: next.String(), Error: err}
	}
}

func nextTier(current models.SubscriptionTier) models.SubscriptionTier {
	idx := slices.Index(models.AllTiers, current)
	return models.AllTiers[(idx+1)%len(models.AllTiers)]
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch, _ := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

func notifyCmd(notifType NotificationType, message string, duration time.Duration) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     notifType,
			Message:  message,
			Duration: duration,
		}
	}
}

// notifySuccessCmd returns a command that adds a success notification.
func notifySuccessCmd(message string) tea.Cmd {
	return notifyCmd(NotificationSuccess, message, DefaultNotificationDuration)
}

// notifyErrorCmd returns a command that adds an error notification.
func notifyErrorCmd(message string) tea.Cmd {
	return notifyCmd(NotificationError, message, LongNotificationDuration)
}

// notifyWarningCmd returns a command that adds a warning notification.
func notifyWarningCmd(message string) tea.Cmd {
	return notifyCmd(NotificationWarning, message, DefaultNotificationDuration)
}

// notifyInfoCmd returns a command that adds an info notification.
func notifyInfoCmd(message string) tea.Cmd {
	return notifyCmd(NotificationInfo, message, QuickNotificationDuration)
}

// Commands provides a public interface to the command functions.
type Commands struct {
	manager *services.Manager
}

// NewCommands creates a new Commands instance.
func NewCommands(mgr *services.Manager) *Commands {
	return &Commands{manager: mgr}
}

// Ask returns a command that runs one simulated request.
func (c *Commands) Ask() tea.Cmd {
	if c.manager == nil {
		return nil
	}
	return askCmd(c.manager)
}

// CycleModel returns a command that switches the current model.
func (c *Commands) CycleModel() tea.Cmd {
	if c.manager == nil {
		return nil
	}
	return cycleModelCmd(c.manager)
}

// ClearHistory returns a command that empties the usage log.
func (c *Commands) ClearHistory() tea.Cmd {
	if c.manager == nil {
		return nil
	}
	return clearHistoryCmd(c.manager)
}

// CyclePlan returns a command that switches to the next plan.
func (c *Commands) CyclePlan() tea.Cmd {
	if c.manager == nil {
		return nil
	}
	return cyclePlanCmd(c.manager)
}

// NotifySuccess returns a command that adds a success notification.
func (c *Commands) NotifySuccess(message string) tea.Cmd {
	return notifySuccessCmd(message)
}

// NotifyInfo returns a command that adds an info notification.
func (c *Commands) NotifyInfo(message string) tea.Cmd {
	return notifyInfoCmd(message)
}

func formatAskResult(r services.AskResult) string {
	return fmt.Sprintf("%s answered (%d tokens)", r.Model, r.Tokens)
}
