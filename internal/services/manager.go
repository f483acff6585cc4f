// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/helpdevoir/hdq/internal/config"
	"github.com/helpdevoir/hdq/internal/db"
	"github.com/helpdevoir/hdq/internal/logger"
	"github.com/helpdevoir/hdq/internal/models"
	"github.com/helpdevoir/hdq/internal/services/guard"
	"github.com/helpdevoir/hdq/internal/services/profile"
	"github.com/helpdevoir/hdq/internal/services/projection"
	"github.com/helpdevoir/hdq/internal/services/quota"
	"github.com/helpdevoir/hdq/internal/services/usage"
	"github.com/helpdevoir/hdq/internal/storage"
)

// ErrNoSelectableModel is returned when no model fits the remaining tokens.
var ErrNoSelectableModel = errors.New("no model fits the remaining token budget")

type (
	// QuotaChangedEvent is emitted when the ledger counters change.
	QuotaChangedEvent struct {
		Snapshot models.QuotaSnapshot
	}

	// QuotaExceededEvent is emitted when the ledger enters the exceeded state.
	QuotaExceededEvent struct {
		Snapshot models.QuotaSnapshot
	}

	// QuotaResetEvent is emitted when counters are reset.
	QuotaResetEvent struct {
		Snapshot models.QuotaSnapshot
	}

	// UsageRecordedEvent is emitted after a completed request is logged.
	UsageRecordedEvent struct {
		Record models.UsageRecord
	}

	// UsageClearedEvent is emitted when the usage history is cleared.
	UsageClearedEvent struct{}

	// PlanChangedEvent is emitted when the subscription plan changes.
	PlanChangedEvent struct {
		Profile models.Profile
	}

	// NoticeEvent carries a guard notice to the UI.
	NoticeEvent struct {
		Notice guard.Notice
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (QuotaChangedEvent) isServiceEvent()  {}
func (QuotaExceededEvent) isServiceEvent() {}
func (QuotaResetEvent) isServiceEvent()    {}
func (UsageRecordedEvent) isServiceEvent() {}
func (UsageClearedEvent) isServiceEvent()  {}
func (PlanChangedEvent) isServiceEvent()   {}
func (NoticeEvent) isServiceEvent()        {}
func (ErrorEvent) isServiceEvent()         {}

// AskResult describes the outcome of a simulated AI request.
type AskResult struct {
	Record  *models.UsageRecord
	Model   string
	Tokens  int
	Granted bool
}

// Manager orchestrates services and event routing.
type Manager struct {
	mu            sync.RWMutex
	cfg           *config.Config
	store         storage.Store
	profile       *profile.Service
	ledger        *quota.Ledger
	guard         *guard.Guard
	recorder      *usage.Recorder
	projection    *projection.Service
	now           func() time.Time
	desktopNotify func(title, body string) error
	eventChan     chan ServiceEvent
	stopChan      chan struct{}
	subscribers   []chan<- ServiceEvent
	wg            sync.WaitGroup
	closeOnce     sync.Once
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the clock shared by the ledger and recorder.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithDesktopNotifier replaces the desktop notification sender. A nil
// function disables desktop notifications.
func WithDesktopNotifier(fn func(title, body string) error) Option {
	return func(m *Manager) { m.desktopNotify = fn }
}

// NewManager creates a new service manager.
func NewManager(cfg *config.Config, opts ...Option) (*Manager, error) {
	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:        cfg,
		now:        time.Now,
		eventChan:  make(chan ServiceEvent, 100),
		stopChan:   make(chan struct{}),
		projection: projection.New(projection.DefaultWindow),
		desktopNotify: func(title, body string) error {
			return beeep.Notify(title, body, "")
		},
	}
	for _, opt := range opts {
		opt(m)
	}

	m.profile, err = profile.New(cfg.ProfilePath)
	if err != nil {
		return nil, err
	}

	if err := m.openStore(); err != nil {
		_ = m.profile.Close()
		return nil, err
	}

	tiers := quota.DefaultTiers()
	catalog.ApplyTiers(tiers)
	m.ledger = quota.NewLedger(m.store, m.profile, quota.WithTiers(tiers), quota.WithClock(m.clock))

	modelCatalog := usage.DefaultCatalog()
	if err := catalog.ApplyModels(modelCatalog); err != nil {
		_ = m.Close()
		return nil, err
	}
	m.recorder = usage.NewRecorder(m.store, modelCatalog, usage.WithClock(m.clock))

	m.guard = guard.New(m.ledger, m.profile, m)

	m.wg.Add(2)
	go m.routeEvents()
	go m.watchResets(cfg.ResetCheckInterval)

	return m, nil
}

// openStore opens the configured storage backend.
func (m *Manager) openStore() error {
	switch m.cfg.StorageBackend {
	case config.BackendSQLite, "":
		database, err := db.New(m.cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		m.store = database

	case config.BackendFile:
		fs, err := storage.NewFileStore(m.cfg.StorageDir)
		if err != nil {
			return fmt.Errorf("failed to initialize file store: %w", err)
		}
		m.store = fs

	case config.BackendRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		rs, err := storage.DialRedis(ctx, m.cfg.RedisAddr, m.cfg.RedisPassword, m.cfg.RedisDB,
			storage.WithKeyPrefix(m.cfg.RedisKeyPrefix))
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		m.store = rs

	case config.BackendMemory:
		m.store = storage.NewMemoryStore()

	default:
		return fmt.Errorf("unknown storage backend: %s", m.cfg.StorageBackend)
	}

	return nil
}

func (m *Manager) clock() time.Time {
	return m.now()
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	defer m.wg.Done()

	for {
		select {
		case event := <-m.ledger.Events():
			m.handleLedgerEvent(event)

		case event := <-m.recorder.Events():
			m.handleUsageEvent(event)

		case event := <-m.profile.Events():
			m.handleProfileEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleLedgerEvent(event quota.Event) {
	switch event.Type {
	case quota.EventUsageRecorded:
		m.broadcast(QuotaChangedEvent{Snapshot: m.ledger.Snapshot()})

	case quota.EventQuotaExceeded:
		snap := m.ledger.Snapshot()
		m.broadcast(QuotaExceededEvent{Snapshot: snap})
		m.notifyDesktop("AI quota reached",
			fmt.Sprintf("Next reset in %s", quota.FormatTimeLeft(snap.TimeUntilReset)))

	case quota.EventQuotaReset:
		m.broadcast(QuotaResetEvent{Snapshot: m.ledger.Snapshot()})

	case quota.EventStorageError:
		m.broadcast(ErrorEvent{Service: "quota", Error: event.Error})
	}
}

func (m *Manager) handleUsageEvent(event usage.Event) {
	switch event.Type {
	case usage.EventUsageRecorded:
		m.broadcast(UsageRecordedEvent{Record: event.Record})
	case usage.EventHistoryCleared:
		m.broadcast(UsageClearedEvent{})
	case usage.EventStorageError:
		m.broadcast(ErrorEvent{Service: "usage", Error: event.Error})
	}
}

func (m *Manager) handleProfileEvent(event profile.Event) {
	switch event.Type {
	case profile.EventPlanChanged:
		m.broadcast(PlanChangedEvent{Profile: event.Profile})
		m.broadcast(QuotaChangedEvent{Snapshot: m.ledger.Snapshot()})
	case profile.EventError:
		m.broadcast(ErrorEvent{Service: "profile", Error: event.Error})
	}
}

// watchResets applies elapsed cooldowns so a reset is noticed even while the
// user is idle.
func (m *Manager) watchResets(interval time.Duration) {
	defer m.wg.Done()

	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CheckReset()
		case <-m.stopChan:
			return
		}
	}
}

// CheckReset applies an elapsed cooldown and sends a desktop notification
// when the quota comes back.
func (m *Manager) CheckReset() bool {
	if !m.ledger.CheckReset() {
		return false
	}
	logger.Info("quota reset after cooldown", "tier", m.ledger.Tier())
	m.notifyDesktop("AI quota restored", "Your assistant is available again.")
	return true
}

func (m *Manager) notifyDesktop(title, body string) {
	if m.desktopNotify == nil {
		return
	}
	if err := m.desktopNotify(title, body); err != nil {
		logger.Debug("desktop notification failed", "error", err)
	}
}

// Notify implements guard.Notifier by forwarding notices to subscribers.
func (m *Manager) Notify(n guard.Notice) {
	m.broadcast(NoticeEvent{Notice: n})
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	select {
	case m.eventChan <- event:
	default:
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Ask runs one simulated AI request with the current model: the guard
// reserves quota and, when granted, the usage is recorded.
func (m *Manager) Ask() AskResult {
	model := m.recorder.CurrentModel()
	tokens := m.requestTokens(model)

	result := AskResult{Model: model, Tokens: tokens}
	if !m.guard.CheckQuota(tokens) {
		return result
	}

	record := m.recorder.RecordUsage(model, tokens)
	result.Granted = true
	result.Record = &record
	return result
}

// requestTokens is the token estimate of one request on a model.
func (m *Manager) requestTokens(modelID string) int {
	return min(m.cfg.RequestTokenEstimate, m.recorder.TokenLimit(modelID))
}

// SelectableModels returns the models whose request estimate fits the
// remaining token budget.
func (m *Manager) SelectableModels() []models.ModelConfig {
	remaining := m.ledger.RemainingQuota()

	var out []models.ModelConfig
	for _, mc := range m.recorder.Models() {
		if remaining.Tokens >= m.requestTokens(mc.ID) {
			out = append(out, mc)
		}
	}
	return out
}

// CycleModel selects the next selectable model after the current one.
func (m *Manager) CycleModel() (string, error) {
	selectable := m.SelectableModels()
	if len(selectable) == 0 {
		return m.recorder.CurrentModel(), ErrNoSelectableModel
	}

	current := m.recorder.CurrentModel()
	next := selectable[0].ID
	all := m.recorder.Models()
	for i, mc := range all {
		if mc.ID != current {
			continue
		}
		for j := 1; j <= len(all); j++ {
			candidate := all[(i+j)%len(all)].ID
			if containsModel(selectable, candidate) {
				next = candidate
				break
			}
		}
		break
	}

	if err := m.recorder.SetCurrentModel(next); err != nil {
		return current, err
	}
	return next, nil
}

func containsModel(list []models.ModelConfig, id string) bool {
	for _, mc := range list {
		if mc.ID == id {
			return true
		}
	}
	return false
}

// Snapshot returns the current quota view.
func (m *Manager) Snapshot() models.QuotaSnapshot {
	return m.ledger.Snapshot()
}

// UsageStats returns usage aggregated over the given number of days.
func (m *Manager) UsageStats(days int) models.UsageStats {
	return m.recorder.UsageStats(days)
}

// DailyTokens returns per-day token totals for the chart.
func (m *Manager) DailyTokens(days int) []float64 {
	return m.recorder.DailyTokens(days)
}

// HourlyTokens returns tokens by hour of day for the heatmap.
func (m *Manager) HourlyTokens(days int) []float64 {
	return m.recorder.HourlyTokens(days)
}

// Projection forecasts depletion of the remaining budget.
func (m *Manager) Projection() models.UsageProjection {
	return m.projection.Project(m.ledger.RemainingQuota(), m.recorder.History(), m.now())
}

// ClearUsageHistory empties the usage log. The SQLite file is compacted afterwards.
func (m *Manager) ClearUsageHistory() {
	m.recorder.ClearUsageHistory()

	if database, ok := m.store.(*db.DB); ok {
		if err := database.Vacuum(); err != nil {
			logger.Warn("database vacuum failed", "error", err)
		}
	}
}

// SetPlan changes the subscription plan.
func (m *Manager) SetPlan(tier models.SubscriptionTier) error {
	return m.profile.SetPlan(tier)
}

// Tiers returns the plan table.
func (m *Manager) Tiers() []models.TierInfo {
	return m.ledger.Tiers()
}

// Config returns the configuration the manager was built with.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// StorageLocation describes where state is persisted.
func (m *Manager) StorageLocation() string {
	switch st := m.store.(type) {
	case *db.DB:
		return st.Path()
	case *storage.FileStore:
		return st.Dir()
	case *storage.RedisStore:
		return fmt.Sprintf("redis://%s/%d (prefix %q)", m.cfg.RedisAddr, m.cfg.RedisDB, m.cfg.RedisKeyPrefix)
	default:
		return "in-memory"
	}
}

// Guard returns the quota guard.
func (m *Manager) Guard() *guard.Guard {
	return m.guard
}

// Ledger returns the quota ledger.
func (m *Manager) Ledger() *quota.Ledger {
	return m.ledger
}

// Recorder returns the usage recorder.
func (m *Manager) Recorder() *usage.Recorder {
	return m.recorder
}

// Profile returns the profile service.
func (m *Manager) Profile() *profile.Service {
	return m.profile
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	var errs []error

	m.closeOnce.Do(func() {
		close(m.stopChan)
		m.wg.Wait()

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		if m.profile != nil {
			if err := m.profile.Close(); err != nil {
				errs = append(errs, err)
			}
		}

		if m.store != nil {
			if err := m.store.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})

	return errors.Join(errs...)
}
