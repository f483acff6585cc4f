package projection

import (
	"math"
	"testing"
	"time"

	"github.com/helpdevoir/hdq/internal/models"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func records(count, tokens int, every time.Duration) []models.UsageRecord {
	out := make([]models.UsageRecord, count)
	for i := range count {
		out[i] = models.UsageRecord{
			ModelID:   "claude-3-sonnet",
			Tokens:    tokens,
			Timestamp: now.Add(-time.Duration(i) * every),
		}
	}
	return out
}

func TestNew_DefaultWindow(t *testing.T) {
	if got := New(0).Window(); got != DefaultWindow {
		t.Errorf("expected %v, got %v", DefaultWindow, got)
	}
	if New(0).Last() != nil {
		t.Error("expected no cached projection")
	}
}

func TestProject_NoData(t *testing.T) {
	svc := New(6 * time.Hour)

	proj := svc.Project(models.RemainingQuota{Prompts: 10, Tokens: 1000}, nil, now)

	if proj.Status != models.ProjectionUnknown {
		t.Errorf("expected UNKNOWN, got %s", proj.Status)
	}
	if !math.IsInf(proj.HoursLeft, 1) {
		t.Errorf("expected infinite hours left, got %v", proj.HoursLeft)
	}
	if proj.Confidence != "low" {
		t.Errorf("expected low confidence, got %s", proj.Confidence)
	}
	if proj.VsAverage != "Building history..." {
		t.Errorf("unexpected comparison %q", proj.VsAverage)
	}
}

func TestProject_Warning(t *testing.T) {
	svc := New(6 * time.Hour)

	// One 100-token prompt per hour over the window.
	proj := svc.Project(models.RemainingQuota{Prompts: 40, Tokens: 300}, records(6, 100, time.Hour), now)

	if proj.TokensPerHour != 100 {
		t.Errorf("expected 100 tokens/h, got %v", proj.TokensPerHour)
	}
	if proj.HoursLeft != 3 {
		t.Errorf("expected 3 hours left, got %v", proj.HoursLeft)
	}
	if !proj.DepleteAt.Equal(now.Add(3 * time.Hour)) {
		t.Errorf("unexpected depletion time %v", proj.DepleteAt)
	}
	if proj.Status != models.ProjectionWarning {
		t.Errorf("expected WARNING, got %s", proj.Status)
	}
	if proj.Confidence != "medium" {
		t.Errorf("expected medium confidence, got %s", proj.Confidence)
	}
}

func TestProject_PromptsBound(t *testing.T) {
	svc := New(6 * time.Hour)

	proj := svc.Project(models.RemainingQuota{Prompts: 1, Tokens: 50000}, records(12, 10, 30*time.Minute), now)

	if proj.HoursLeft != 0.5 {
		t.Errorf("expected prompts to bind at 0.5h, got %v", proj.HoursLeft)
	}
	if proj.Status != models.ProjectionCritical {
		t.Errorf("expected CRITICAL, got %s", proj.Status)
	}
}

func TestProject_Safe(t *testing.T) {
	svc := New(6 * time.Hour)

	proj := svc.Project(models.RemainingQuota{Prompts: 400, Tokens: 40000}, records(30, 50, 10*time.Minute), now)

	if proj.Status != models.ProjectionSafe {
		t.Errorf("expected SAFE, got %s", proj.Status)
	}
	if proj.Confidence != "high" {
		t.Errorf("expected high confidence, got %s", proj.Confidence)
	}
}

func TestProject_Exhausted(t *testing.T) {
	svc := New(time.Hour)

	proj := svc.Project(models.RemainingQuota{Prompts: 0, Tokens: 800}, nil, now)

	if proj.Status != models.ProjectionCritical || proj.HoursLeft != 0 {
		t.Errorf("expected critical with no time left, got %+v", proj)
	}
	if last := svc.Last(); last == nil || last.Status != models.ProjectionCritical {
		t.Error("expected cached projection")
	}
}

func TestProject_IgnoresOldRecords(t *testing.T) {
	svc := New(time.Hour)

	history := []models.UsageRecord{
		{Tokens: 500, Timestamp: now.Add(-48 * time.Hour)},
		{Tokens: 100, Timestamp: now.Add(-30 * time.Minute)},
	}
	proj := svc.Project(models.RemainingQuota{Prompts: 5, Tokens: 500}, history, now)

	if proj.DataPoints != 1 || proj.TokensPerHour != 100 {
		t.Errorf("expected only the recent record, got %+v", proj)
	}
	if proj.AvgTokensRate != 600.0/48 {
		t.Errorf("expected all-time rate 12.5, got %v", proj.AvgTokensRate)
	}
	if proj.VsAverage != "Above your average" {
		t.Errorf("unexpected comparison %q", proj.VsAverage)
	}
}

func TestFormatHistoricalComparison(t *testing.T) {
	tests := []struct {
		current, avg float64
		want         string
	}{
		{10, 0, "Building history..."},
		{10, 10, "Typical for you"},
		{20, 10, "Above your average"},
		{5, 10, "Below your average"},
	}

	for _, tt := range tests {
		if got := formatHistoricalComparison(tt.current, tt.avg); got != tt.want {
			t.Errorf("formatHistoricalComparison(%v, %v) = %q, want %q", tt.current, tt.avg, got, tt.want)
		}
	}
}
