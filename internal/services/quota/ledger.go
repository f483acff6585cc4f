// Package quota implements the AI quota ledger: a durable count of prompts and
// tokens against the budget of the parent's subscription tier, with a cooldown
// reset once the budget is exhausted.
package quota

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/helpdevoir/hdq/internal/logger"
	"github.com/helpdevoir/hdq/internal/models"
	"github.com/helpdevoir/hdq/internal/storage"
)

const (
	// DefaultStorageKey is the key the ledger state is persisted under.
	DefaultStorageKey = "ai-quota-storage"
	// SchemaVersion is the version tag of the persisted ledger state.
	SchemaVersion = 1

	storeTimeout = 2 * time.Second
)

// TierSource resolves the current subscription tier. It is consulted on every
// ledger operation so plan changes apply on the next call.
type TierSource interface {
	Tier() models.SubscriptionTier
}

// TierFunc adapts a function to TierSource.
type TierFunc func() models.SubscriptionTier

// Tier calls f.
func (f TierFunc) Tier() models.SubscriptionTier { return f() }

// EventType defines the type of ledger event.
type EventType int

const (
	// EventUsageRecorded indicates a granted request was credited.
	EventUsageRecorded EventType = iota
	// EventQuotaExceeded indicates the ledger entered the exceeded state.
	EventQuotaExceeded
	// EventQuotaReset indicates counters were reset, explicitly or after cooldown.
	EventQuotaReset
	// EventStorageError indicates a load or save failed and was swallowed.
	EventStorageError
)

// Event represents a ledger event.
type Event struct {
	Error error
	State models.LedgerState
	Type  EventType
}

// Ledger is the authoritative quota counter for the local account.
type Ledger struct {
	store     storage.Store
	tiers     TierSource
	tierInfo  map[models.SubscriptionTier]models.TierInfo
	now       func() time.Time
	eventChan chan Event
	key       string
	state     models.LedgerState
	mu        sync.Mutex
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the clock used for reset arithmetic.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithTiers replaces plan metadata for the given tiers.
func WithTiers(tiers map[models.SubscriptionTier]models.TierInfo) Option {
	return func(l *Ledger) {
		for t, info := range tiers {
			info.Tier = t
			l.tierInfo[t] = info
		}
	}
}

// WithLimits replaces the limits of the given tiers.
func WithLimits(limits map[models.SubscriptionTier]models.QuotaLimits) Option {
	return func(l *Ledger) {
		for t, lim := range limits {
			info := l.tierInfo[t]
			info.Tier = t
			info.Limits = lim
			l.tierInfo[t] = info
		}
	}
}

// WithStorageKey sets the key the state is persisted under.
func WithStorageKey(key string) Option {
	return func(l *Ledger) { l.key = key }
}

// NewLedger creates a ledger and reads its persisted state once. A nil
// tiers source always resolves to freemium.
func NewLedger(store storage.Store, tiers TierSource, opts ...Option) *Ledger {
	l := &Ledger{
		store:     store,
		tiers:     tiers,
		tierInfo:  DefaultTiers(),
		now:       time.Now,
		key:       DefaultStorageKey,
		eventChan: make(chan Event, 100),
	}
	for _, opt := range opts {
		opt(l)
	}

	l.load()
	return l
}

// Events returns the event channel.
func (l *Ledger) Events() <-chan Event {
	return l.eventChan
}

// IncrementUsage tries to credit one prompt and the given tokens. It returns
// false when the quota is already exceeded or when this request would breach
// either limit; a breaching request is not credited and starts the cooldown.
func (l *Ledger) IncrementUsage(tokens int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.maybeResetLocked(now)

	if l.state.IsQuotaExceeded {
		return false
	}

	tokens = max(tokens, 0)
	limits := l.tierLocked().Limits

	if l.state.PromptsUsed+1 > limits.MaxPrompts || l.state.TokensUsed+tokens > limits.MaxTokens {
		next := now.Add(limits.Cooldown())
		l.state.IsQuotaExceeded = true
		l.state.NextResetTime = &next
		l.saveLocked()
		l.sendEvent(Event{Type: EventQuotaExceeded, State: l.state.Clone()})
		return false
	}

	l.state.PromptsUsed++
	l.state.TokensUsed += tokens
	l.saveLocked()
	l.sendEvent(Event{Type: EventUsageRecorded, State: l.state.Clone()})
	return true
}

// ResetQuota zeroes the counters and clears the exceeded state.
func (l *Ledger) ResetQuota() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetLocked(l.now())
}

// CheckReset applies an elapsed cooldown and reports whether a reset happened.
func (l *Ledger) CheckReset() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.maybeResetLocked(l.now())
}

// RemainingQuota returns what is left for the current tier, never negative.
func (l *Ledger) RemainingQuota() models.RemainingQuota {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maybeResetLocked(l.now())
	return l.remainingLocked()
}

// TimeUntilReset returns how long until the cooldown ends, or 0 when no reset is pending.
func (l *Ledger) TimeUntilReset() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.maybeResetLocked(now)
	return l.timeUntilResetLocked(now)
}

// IsQuotaExceeded reports whether requests are currently blocked.
func (l *Ledger) IsQuotaExceeded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maybeResetLocked(l.now())
	return l.state.IsQuotaExceeded
}

// State returns a copy of the ledger state.
func (l *Ledger) State() models.LedgerState {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maybeResetLocked(l.now())
	return l.state.Clone()
}

// Tier returns the currently resolved tier.
func (l *Ledger) Tier() models.SubscriptionTier {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tierLocked().Tier
}

// Limits returns the limits of the currently resolved tier.
func (l *Ledger) Limits() models.QuotaLimits {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tierLocked().Limits
}

// Tiers returns a copy of the plan table, ordered from lowest to highest.
func (l *Ledger) Tiers() []models.TierInfo {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.TierInfo, 0, len(models.AllTiers))
	for _, t := range models.AllTiers {
		if info, ok := l.tierInfo[t]; ok {
			out = append(out, info)
		}
	}
	return out
}

// Snapshot returns a consistent view of state, limits and countdown.
func (l *Ledger) Snapshot() models.QuotaSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.maybeResetLocked(now)

	return models.QuotaSnapshot{
		State:          l.state.Clone(),
		Limits:         l.tierLocked().Limits,
		Remaining:      l.remainingLocked(),
		Tier:           l.tierLocked(),
		TimeUntilReset: l.timeUntilResetLocked(now),
	}
}

// Reconcile corrects the token count once the real cost of a request is
// known. It is a no-op while the quota is exceeded and never changes the
// exceeded state; the result is clamped to [0, MaxTokens].
func (l *Ledger) Reconcile(estimated, actual int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.maybeResetLocked(l.now())
	if l.state.IsQuotaExceeded {
		return
	}

	limits := l.tierLocked().Limits
	adjusted := min(max(l.state.TokensUsed+actual-estimated, 0), limits.MaxTokens)
	if adjusted == l.state.TokensUsed {
		return
	}

	l.state.TokensUsed = adjusted
	l.saveLocked()
}

func (l *Ledger) tierLocked() models.TierInfo {
	tier := models.TierFreemium
	if l.tiers != nil {
		tier = models.ParseTier(string(l.tiers.Tier()))
	}
	if info, ok := l.tierInfo[tier]; ok {
		return info
	}
	return l.tierInfo[models.TierFreemium]
}

func (l *Ledger) remainingLocked() models.RemainingQuota {
	limits := l.tierLocked().Limits
	return models.RemainingQuota{
		Prompts: max(0, limits.MaxPrompts-l.state.PromptsUsed),
		Tokens:  max(0, limits.MaxTokens-l.state.TokensUsed),
	}
}

func (l *Ledger) timeUntilResetLocked(now time.Time) time.Duration {
	if l.state.NextResetTime == nil {
		return 0
	}
	return TimeUntil(*l.state.NextResetTime, now)
}

// maybeResetLocked resets the ledger once the cooldown has elapsed.
func (l *Ledger) maybeResetLocked(now time.Time) bool {
	if !l.state.IsQuotaExceeded || l.state.NextResetTime == nil {
		return false
	}
	if now.Before(*l.state.NextResetTime) {
		return false
	}
	l.resetLocked(now)
	return true
}

func (l *Ledger) resetLocked(now time.Time) {
	l.state = models.LedgerState{LastResetTime: now}
	l.saveLocked()
	l.sendEvent(Event{Type: EventQuotaReset, State: l.state.Clone()})
}

// load reads the persisted state. Any failure falls back to a zeroed ledger
// so a storage problem never locks the user out.
func (l *Ledger) load() {
	fresh := models.LedgerState{LastResetTime: l.now()}

	if l.store == nil {
		l.state = fresh
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	env, err := l.store.Load(ctx, l.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Warn("failed to load quota state, starting fresh", "key", l.key, "error", err)
			l.sendEvent(Event{Type: EventStorageError, Error: err})
		}
		l.state = fresh
		return
	}

	var state models.LedgerState
	if err := env.Decode(SchemaVersion, &state); err != nil {
		logger.Warn("discarding unreadable quota state", "key", l.key, "error", err)
		l.sendEvent(Event{Type: EventStorageError, Error: err})
		l.state = fresh
		return
	}

	l.state = normalize(state)
}

// normalize repairs states that violate the exceeded/next-reset pairing.
func normalize(s models.LedgerState) models.LedgerState {
	s.PromptsUsed = max(s.PromptsUsed, 0)
	s.TokensUsed = max(s.TokensUsed, 0)
	if s.IsQuotaExceeded != (s.NextResetTime != nil) {
		s.IsQuotaExceeded = false
		s.NextResetTime = nil
	}
	return s
}

func (l *Ledger) saveLocked() {
	if l.store == nil {
		return
	}

	env, err := storage.Encode(SchemaVersion, l.state)
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		err = l.store.Save(ctx, l.key, env)
		cancel()
	}

	if err != nil {
		logger.Error("failed to save quota state", "key", l.key, "error", err)
		l.sendEvent(Event{Type: EventStorageError, Error: err})
	}
}

// sendEvent sends an event to the event channel non-blocking.
func (l *Ledger) sendEvent(event Event) {
	select {
	case l.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-l.eventChan:
		default:
		}
		select {
		case l.eventChan <- event:
		default:
		}
	}
}
