// Package projection forecasts quota depletion from recent usage.
package projection

import (
	"math"
	"sync"
	"time"

	"github.com/helpdevoir/hdq/internal/models"
)

const (
	// DefaultWindow is the look-back used for the current consumption rate.
	DefaultWindow = 6 * time.Hour

	lowConfThreshold = 6
	medConfThreshold = 24

	criticalHours = 1.0
	warningHours  = 6.0
)

type Service struct {
	mu     sync.RWMutex
	window time.Duration
	last   *models.UsageProjection
}

// New creates a projection service. A non-positive window uses DefaultWindow.
func New(window time.Duration) *Service {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Service{window: window}
}

// Window returns the look-back used for the current rate.
func (s *Service) Window() time.Duration {
	return s.window
}

// Project estimates how long the remaining budget lasts given the usage
// history. The result is cached and available from Last.
func (s *Service) Project(remaining models.RemainingQuota, history []models.UsageRecord, now time.Time) models.UsageProjection {
	cutoff := now.Add(-s.window)

	var windowTokens, windowPrompts int
	var totalTokens int
	var first time.Time

	for _, rec := range history {
		totalTokens += rec.Tokens
		if first.IsZero() || rec.Timestamp.Before(first) {
			first = rec.Timestamp
		}
		if rec.Timestamp.Before(cutoff) || rec.Timestamp.After(now) {
			continue
		}
		windowTokens += rec.Tokens
		windowPrompts++
	}

	hours := s.window.Hours()
	proj := models.UsageProjection{
		TokensPerHour:  float64(windowTokens) / hours,
		PromptsPerHour: float64(windowPrompts) / hours,
		DataPoints:     windowPrompts,
		HoursLeft:      math.Inf(1),
		Status:         models.ProjectionUnknown,
		Confidence:     confidence(windowPrompts),
	}

	if !first.IsZero() {
		span := math.Max(now.Sub(first).Hours(), 1)
		proj.AvgTokensRate = float64(totalTokens) / span
	}
	proj.VsAverage = formatHistoricalComparison(proj.TokensPerHour, proj.AvgTokensRate)

	if remaining.Prompts <= 0 || remaining.Tokens <= 0 {
		proj.HoursLeft = 0
		proj.DepleteAt = now
		proj.Status = models.ProjectionCritical
		s.store(proj)
		return proj
	}

	if proj.TokensPerHour > 0 {
		proj.HoursLeft = float64(remaining.Tokens) / proj.TokensPerHour
	}
	if proj.PromptsPerHour > 0 {
		proj.HoursLeft = math.Min(proj.HoursLeft, float64(remaining.Prompts)/proj.PromptsPerHour)
	}

	if !math.IsInf(proj.HoursLeft, 1) {
		proj.DepleteAt = now.Add(time.Duration(proj.HoursLeft * float64(time.Hour)))
		switch {
		case proj.HoursLeft < criticalHours:
			proj.Status = models.ProjectionCritical
		case proj.HoursLeft < warningHours:
			proj.Status = models.ProjectionWarning
		default:
			proj.Status = models.ProjectionSafe
		}
	}

	s.store(proj)
	return proj
}

// Last returns the most recent projection, or nil before the first call.
func (s *Service) Last() *models.UsageProjection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil
	}
	p := *s.last
	return &p
}

func (s *Service) store(p models.UsageProjection) {
	s.mu.Lock()
	s.last = &p
	s.mu.Unlock()
}

func confidence(dataPoints int) string {
	switch {
	case dataPoints < lowConfThreshold:
		return "low"
	case dataPoints < medConfThreshold:
		return "medium"
	default:
		return "high"
	}
}

func formatHistoricalComparison(current, allTimeAvg float64) string {
	if allTimeAvg <= 0 {
		return "Building history..."
	}
	diff := ((current - allTimeAvg) / allTimeAvg) * 100
	if math.Abs(diff) < 15 {
		return "Typical for you"
	} else if diff > 0 {
		return "Above your average"
	}
	return "Below your average"
}
