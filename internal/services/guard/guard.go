// Package guard gates AI requests on the quota ledger and raises the
// notices and modal shown when the budget runs low or out.
package guard

import (
	"fmt"
	"sync"
	"time"

	"github.com/helpdevoir/hdq/internal/models"
	"github.com/helpdevoir/hdq/internal/services/quota"
)

const (
	// WarnPromptsThreshold is the remaining prompt count at or below which a warning is raised.
	WarnPromptsThreshold = 2
	// WarnTokensThreshold is the remaining token count at or below which a warning is raised.
	WarnTokensThreshold = 200

	// NoticeQuotaExceeded is the dedupe key of the blocking notice.
	NoticeQuotaExceeded = "quota-exceeded"
	// NoticeQuotaWarning is the dedupe key of the low-quota warning.
	NoticeQuotaWarning = "quota-warning"

	exceededNoticeDuration = 4 * time.Second
)

// Ledger is the part of the quota ledger the guard depends on.
type Ledger interface {
	IncrementUsage(tokens int) bool
	IsQuotaExceeded() bool
	RemainingQuota() models.RemainingQuota
	TimeUntilReset() time.Duration
}

// TierSource resolves the current subscription tier.
type TierSource interface {
	Tier() models.SubscriptionTier
}

// NoticeLevel is the severity of a notice.
type NoticeLevel int

const (
	NoticeWarning NoticeLevel = iota
	NoticeError
)

// Notice is a transient message. Notices sharing a Key replace each other.
// A zero Duration leaves the display time to the notifier.
type Notice struct {
	Key      string
	Message  string
	Duration time.Duration
	Level    NoticeLevel
}

// Notifier displays notices.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify calls f.
func (f NotifierFunc) Notify(n Notice) { f(n) }

// Level summarizes how close the account is to its limits.
type Level string

const (
	LevelOK       Level = "ok"
	LevelWarning  Level = "warning"
	LevelExceeded Level = "exceeded"
)

// Guard is the pre-flight check in front of every AI request.
type Guard struct {
	ledger    Ledger
	tiers     TierSource
	notifier  Notifier
	showModal bool
	mu        sync.RWMutex
}

// New creates a guard. A nil tiers source is treated as freemium and a nil
// notifier drops notices.
func New(ledger Ledger, tiers TierSource, notifier Notifier) *Guard {
	return &Guard{
		ledger:   ledger,
		tiers:    tiers,
		notifier: notifier,
	}
}

// CheckQuota reserves one prompt and estimatedTokens on the ledger and
// reports whether the request may proceed.
func (g *Guard) CheckQuota(estimatedTokens int) bool {
	if g.ledger.IsQuotaExceeded() {
		g.setModal(true)
		return false
	}

	if !g.ledger.IncrementUsage(estimatedTokens) {
		g.setModal(true)
		g.notify(Notice{
			Key:      NoticeQuotaExceeded,
			Level:    NoticeError,
			Message:  "Usage limit reached",
			Duration: exceededNoticeDuration,
		})
		return false
	}

	remaining := g.ledger.RemainingQuota()
	if isLow(remaining) {
		g.notify(Notice{
			Key:     NoticeQuotaWarning,
			Level:   NoticeWarning,
			Message: fmt.Sprintf("Only %d prompts and %d tokens left", remaining.Prompts, remaining.Tokens),
		})
	}

	return true
}

// ShowModal reports whether the quota-exceeded modal should be displayed.
func (g *Guard) ShowModal() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.showModal
}

// CloseModal hides the modal. The ledger is left untouched.
func (g *Guard) CloseModal() {
	g.setModal(false)
}

// TimeUntilReset returns the remaining cooldown.
func (g *Guard) TimeUntilReset() time.Duration {
	return g.ledger.TimeUntilReset()
}

// TimeLeft returns the remaining cooldown formatted as "Xh Ym".
func (g *Guard) TimeLeft() string {
	return quota.FormatTimeLeft(g.ledger.TimeUntilReset())
}

// IsFreemium reports whether the current plan is the free one.
func (g *Guard) IsFreemium() bool {
	if g.tiers == nil {
		return true
	}
	return models.ParseTier(string(g.tiers.Tier())) == models.TierFreemium
}

// RemainingQuota returns what is left of the budget.
func (g *Guard) RemainingQuota() models.RemainingQuota {
	return g.ledger.RemainingQuota()
}

// Level returns the current warning level.
func (g *Guard) Level() Level {
	if g.ledger.IsQuotaExceeded() {
		return LevelExceeded
	}
	if isLow(g.ledger.RemainingQuota()) {
		return LevelWarning
	}
	return LevelOK
}

func isLow(r models.RemainingQuota) bool {
	return r.Prompts <= WarnPromptsThreshold || r.Tokens <= WarnTokensThreshold
}

func (g *Guard) setModal(show bool) {
	g.mu.Lock()
	g.showModal = show
	g.mu.Unlock()
}

func (g *Guard) notify(n Notice) {
	if g.notifier != nil {
		g.notifier.Notify(n)
	}
}
