// Package usage records realized token usage per model and derives cost
// statistics from it.
package usage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/helpdevoir/hdq/internal/logger"
	"github.com/helpdevoir/hdq/internal/models"
	"github.com/helpdevoir/hdq/internal/storage"
)

const (
	// DefaultStorageKey is the key the usage history is persisted under.
	DefaultStorageKey = "ai-model-usage"
	// SchemaVersion is the version tag of the persisted history.
	SchemaVersion = 1
	// DefaultWindowDays is the stats window used when none is given.
	DefaultWindowDays = 30
	// DefaultModel is the model selected at startup.
	DefaultModel = "claude-3-sonnet"

	storeTimeout = 2 * time.Second
)

var (
	// ErrUnknownModel is returned when a model id is not in the catalog.
	ErrUnknownModel = errors.New("unknown model")
	// ErrUnsupportedModel is returned when selecting a model the catalog does not list.
	ErrUnsupportedModel = errors.New("unsupported model")
	// ErrInvalidTokenLimit is returned for a non-positive token ceiling.
	ErrInvalidTokenLimit = errors.New("token limit must be positive")
)

// EventType defines the type of recorder event.
type EventType int

const (
	EventUsageRecorded EventType = iota
	EventHistoryCleared
	EventStorageError
)

// Event represents a recorder event.
type Event struct {
	Error  error
	Record models.UsageRecord
	Type   EventType
}

// Recorder is the append-only usage log.
type Recorder struct {
	store     storage.Store
	catalog   *Catalog
	now       func() time.Time
	eventChan chan Event
	key       string
	current   string
	history   []models.UsageRecord
	mu        sync.RWMutex
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock sets the clock used for timestamps and windows.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// WithStorageKey sets the key the history is persisted under.
func WithStorageKey(key string) Option {
	return func(r *Recorder) { r.key = key }
}

// NewRecorder creates a recorder and loads the persisted history. A nil
// catalog uses DefaultCatalog.
func NewRecorder(store storage.Store, catalog *Catalog, opts ...Option) *Recorder {
	if catalog == nil {
		catalog = DefaultCatalog()
	}

	r := &Recorder{
		store:     store,
		catalog:   catalog,
		now:       time.Now,
		key:       DefaultStorageKey,
		current:   DefaultModel,
		eventChan: make(chan Event, 100),
	}
	for _, opt := range opts {
		opt(r)
	}

	if _, ok := catalog.Lookup(r.current); !ok {
		if all := catalog.Models(); len(all) > 0 {
			r.current = all[0].ID
		}
	}

	r.load()
	return r
}

// Events returns the event channel.
func (r *Recorder) Events() <-chan Event {
	return r.eventChan
}

// Catalog returns the model catalog.
func (r *Recorder) Catalog() *Catalog {
	return r.catalog
}

// RecordUsage appends a record for a completed call and persists the log.
// Unknown models are priced at the default rate.
func (r *Recorder) RecordUsage(modelID string, tokens int) models.UsageRecord {
	tokens = max(tokens, 0)

	record := models.UsageRecord{
		ID:        uuid.NewString(),
		ModelID:   modelID,
		Tokens:    tokens,
		Timestamp: r.now(),
		Cost:      r.catalog.Cost(modelID, tokens),
	}

	r.mu.Lock()
	r.history = append(r.history, record)
	r.saveLocked()
	r.mu.Unlock()

	r.sendEvent(Event{Type: EventUsageRecorded, Record: record})
	return record
}

// UsageStats aggregates records no older than windowDays. A non-positive
// window means DefaultWindowDays.
func (r *Recorder) UsageStats(windowDays int) models.UsageStats {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	cutoff := r.now().Add(-time.Duration(windowDays) * 24 * time.Hour)

	stats := models.UsageStats{
		UsageByModel: make(map[string]models.ModelUsage),
		TotalCost:    decimal.Zero,
		WindowDays:   windowDays,
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.history {
		if rec.Timestamp.Before(cutoff) {
			continue
		}
		stats.TotalTokens += rec.Tokens
		stats.TotalCost = stats.TotalCost.Add(rec.Cost)

		m := stats.UsageByModel[rec.ModelID]
		m.Tokens += rec.Tokens
		m.Cost = m.Cost.Add(rec.Cost)
		stats.UsageByModel[rec.ModelID] = m
	}

	return stats
}

// DailyTokens returns token totals for the last days calendar days, oldest
// first. The last bucket is today.
func (r *Recorder) DailyTokens(days int) []float64 {
	if days <= 0 {
		return nil
	}

	now := r.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := today.AddDate(0, 0, -(days - 1))
	buckets := make([]float64, days)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.history {
		ts := rec.Timestamp.In(now.Location())
		if ts.Before(start) {
			continue
		}
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, now.Location())
		idx := int(day.Sub(start).Hours() / 24)
		if idx >= 0 && idx < days {
			buckets[idx] += float64(rec.Tokens)
		}
	}

	return buckets
}

// HourlyTokens sums tokens by hour of day over the last windowDays.
// Index 0 is midnight in the clock's location.
func (r *Recorder) HourlyTokens(windowDays int) []float64 {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	now := r.now()
	cutoff := now.Add(-time.Duration(windowDays) * 24 * time.Hour)
	buckets := make([]float64, 24)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.history {
		if rec.Timestamp.Before(cutoff) {
			continue
		}
		buckets[rec.Timestamp.In(now.Location()).Hour()] += float64(rec.Tokens)
	}

	return buckets
}

// History returns a copy of all records, oldest first.
func (r *Recorder) History() []models.UsageRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.UsageRecord, len(r.history))
	copy(out, r.history)
	return out
}

// ClearUsageHistory empties the log and persists the empty state.
func (r *Recorder) ClearUsageHistory() {
	r.mu.Lock()
	r.history = nil
	r.saveLocked()
	r.mu.Unlock()

	r.sendEvent(Event{Type: EventHistoryCleared})
}

// TokenLimit returns the per-request token ceiling of a model.
func (r *Recorder) TokenLimit(modelID string) int {
	return r.catalog.TokenLimit(modelID)
}

// SetMaxTokensPerRequest sets the ceiling used for models without one.
func (r *Recorder) SetMaxTokensPerRequest(n int) error {
	return r.catalog.SetMaxTokensPerRequest(n)
}

// SetCurrentModel selects the active model.
func (r *Recorder) SetCurrentModel(modelID string) error {
	if _, ok := r.catalog.Lookup(modelID); !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedModel, modelID)
	}
	r.mu.Lock()
	r.current = modelID
	r.mu.Unlock()
	return nil
}

// CurrentModel returns the active model id.
func (r *Recorder) CurrentModel() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// ModelConfig returns the configuration of a model.
func (r *Recorder) ModelConfig(modelID string) (models.ModelConfig, error) {
	m, ok := r.catalog.Lookup(modelID)
	if !ok {
		return models.ModelConfig{}, fmt.Errorf("%w: %s", ErrUnknownModel, modelID)
	}
	return m, nil
}

// Models returns the catalog models sorted by id.
func (r *Recorder) Models() []models.ModelConfig {
	return r.catalog.Models()
}

func (r *Recorder) load() {
	if r.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	env, err := r.store.Load(ctx, r.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Warn("failed to load usage history", "key", r.key, "error", err)
			r.sendEvent(Event{Type: EventStorageError, Error: err})
		}
		return
	}

	var history []models.UsageRecord
	if err := env.Decode(SchemaVersion, &history); err != nil {
		logger.Warn("discarding unreadable usage history", "key", r.key, "error", err)
		r.sendEvent(Event{Type: EventStorageError, Error: err})
		return
	}

	r.history = history
}

func (r *Recorder) saveLocked() {
	if r.store == nil {
		return
	}

	history := r.history
	if history == nil {
		history = []models.UsageRecord{}
	}

	env, err := storage.Encode(SchemaVersion, history)
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		err = r.store.Save(ctx, r.key, env)
		cancel()
	}

	if err != nil {
		logger.Error("failed to save usage history", "key", r.key, "error", err)
		r.sendEvent(Event{Type: EventStorageError, Error: err})
	}
}

// sendEvent sends an event to the event channel non-blocking.
func (r *Recorder) sendEvent(event Event) {
	select {
	case r.eventChan <- event:
	default:
		select {
		case <-r.eventChan:
		default:
		}
		select {
		case r.eventChan <- event:
		default:
		}
	}
}
