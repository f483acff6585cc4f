package models

import "time"

// ProjectionStatus indicates urgency level for quota depletion.
type ProjectionStatus string

const (
	ProjectionSafe     ProjectionStatus = "SAFE"
	ProjectionWarning  ProjectionStatus = "WARNING"
	ProjectionCritical ProjectionStatus = "CRITICAL"
	ProjectionUnknown  ProjectionStatus = "UNKNOWN"
)

// UsageProjection estimates when the remaining budget runs out at the
// recent consumption rate.
type UsageProjection struct {
	DepleteAt      time.Time        // Predicted depletion time, zero when idle
	Status         ProjectionStatus // SAFE, WARNING, CRITICAL, UNKNOWN
	Confidence     string           // "low", "medium", "high"
	VsAverage      string           // Comparison text vs all-time average
	TokensPerHour  float64          // Token rate over the window
	PromptsPerHour float64          // Prompt rate over the window
	AvgTokensRate  float64          // Token rate over the whole history
	HoursLeft      float64          // Hours until depletion, +Inf when idle
	DataPoints     int              // Records inside the window
}
