// Package components provides reusable UI components.
package components

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/helpdevoir/hdq/internal/logger"
	"github.com/helpdevoir/hdq/internal/ui/styles"
)

const (
	lowColor  = "#ff6b6b"
	highColor = "#51cf66"

	timeStartColor = "#ffd93d"
	timeEndColor   = "#6c5ce7"
)

var lastBarID int64

func nextBarID() int {
	return int(atomic.AddInt64(&lastBarID, 1))
}

// AnimationTickMsg advances the easing of the quota bar with the same ID.
type AnimationTickMsg struct {
	Time time.Time
	ID   int
}

func animationTick(id int) tea.Cmd {
	return tea.Tick(time.Millisecond*50, func(t time.Time) tea.Msg {
		return AnimationTickMsg{Time: t, ID: id}
	})
}

// QuotaBar renders a remaining-quota bar with a label and a used/limit counter.
type QuotaBar struct {
	progress       progress.Model
	label          string
	id             int
	percent        float64
	isAnimating    bool
	targetPercent  float64
	currentPercent float64
}

// NewQuotaBar creates a new quota bar with gradient colors.
func NewQuotaBar(label string) QuotaBar {
	p := progress.New(
		progress.WithScaledGradient(lowColor, highColor),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)

	return QuotaBar{
		progress: p,
		label:    label,
		id:       nextBarID(),
	}
}

// Init initializes the progress bar model.
func (q QuotaBar) Init() tea.Cmd {
	return nil
}

// Update eases the displayed percentage toward the target.
func (q QuotaBar) Update(msg tea.Msg) (QuotaBar, tea.Cmd) {
	var cmds []tea.Cmd

	if tick, ok := msg.(AnimationTickMsg); ok && tick.ID == q.id && q.isAnimating {
		diff := q.targetPercent - q.currentPercent
		switch {
		case diff > 0:
			q.currentPercent += max(diff/10, 0.5)
			q.currentPercent = min(q.currentPercent, q.targetPercent)
			cmds = append(cmds, animationTick(q.id))
		case diff < 0:
			q.currentPercent -= max(-diff/10, 0.5)
			q.currentPercent = max(q.currentPercent, q.targetPercent)
			cmds = append(cmds, animationTick(q.id))
		default:
			q.isAnimating = false
		}
	}

	model, cmd := q.progress.Update(msg)
	q.progress = model.(progress.Model)
	cmds = append(cmds, cmd)

	return q, tea.Batch(cmds...)
}

// SetPercent sets the target percentage and starts the easing animation.
func (q *QuotaBar) SetPercent(percent float64) tea.Cmd {
	q.percent = percent
	q.targetPercent = percent

	if !q.isAnimating {
		q.isAnimating = true
		return tea.Batch(
			q.progress.SetPercent(percent/100),
			animationTick(q.id),
		)
	}

	return q.progress.SetPercent(percent / 100)
}

// Percent returns the animated percentage currently displayed.
func (q QuotaBar) Percent() float64 {
	if q.isAnimating {
		return q.currentPercent
	}
	return q.percent
}

// Label returns the bar label.
func (q QuotaBar) Label() string {
	return q.label
}

// View renders the bar for used out of limit. The bar shows what remains.
func (q QuotaBar) View(used, limit int, exceeded bool, width int) string {
	remaining := max(limit-used, 0)
	percent := 0.0
	if limit > 0 {
		percent = float64(remaining) / float64(limit) * 100
	}
	if q.isAnimating {
		percent = q.currentPercent
	}

	counter := fmt.Sprintf("%d/%d", remaining, limit)
	counterWidth := max(len(counter), 11)

	barWidth := max(width-15-counterWidth-2, 10)
	q.progress.Width = barWidth

	bar := q.progress.ViewAs(percent / 100)
	if exceeded {
		bar = lipgloss.NewStyle().Foreground(styles.Error).Render(strings.Repeat("░", barWidth))
	}

	counterStr := styles.GetQuotaStyle(percent, exceeded).
		Width(counterWidth).
		Align(lipgloss.Right).
		Render(counter)

	labelStr := styles.ProgressLabelStyle.Width(15).Render(q.label)

	return lipgloss.JoinHorizontal(
		lipgloss.Center,
		labelStr,
		bar,
		" ",
		counterStr,
	)
}

// TimeBar renders the cooldown progress of an exceeded ledger.
type TimeBar struct {
	label string
}

// NewTimeBar creates a new time bar for visualizing time until reset.
func NewTimeBar(label string) TimeBar {
	return TimeBar{label: label}
}

// View renders the bar. It fills up as the cooldown elapses.
func (t TimeBar) View(remaining, cooldown time.Duration, timeLeft string, width int) string {
	percent := 1.0
	if cooldown > 0 {
		percent = 1.0 - float64(remaining)/float64(cooldown)
		percent = min(max(percent, 0), 1)
	}

	const timeWidth = 11
	barWidth := max(width-15-timeWidth-2, 10)

	labelStr := styles.ProgressLabelStyle.Width(15).Render(t.label)
	timeStr := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Width(timeWidth).
		Align(lipgloss.Right).
		Render(timeLeft)

	return lipgloss.JoinHorizontal(lipgloss.Center,
		labelStr,
		RenderTimeBarChars(percent, barWidth),
		" ",
		timeStr,
	)
}

// RenderTimeBarChars renders just the bar characters for a time bar.
func RenderTimeBarChars(percent float64, width int) string {
	return renderBlocks(percent*100, width, timeStartColor, timeEndColor)
}

func renderBlocks(percent float64, width int, from, to string) string {
	if width < 1 {
		return ""
	}

	filled := min(max(int(float64(width)*percent/100), 0), width)

	var b strings.Builder
	empty := lipgloss.NewStyle().Foreground(styles.Subtle)
	for i := range width {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(interpolateColor(from, to, t)))
			b.WriteString(style.Render("█"))
		} else {
			b.WriteString(empty.Render("░"))
		}
	}

	return b.String()
}

// RenderLoadingBar renders a shimmering placeholder bar while data loads.
func RenderLoadingBar(width, frame int, accent lipgloss.Color) string {
	barWidth := max(width-15-13, 10)

	const cycle = 120
	t := float64(frame%cycle) / float64(cycle)
	p := t * 2
	if t >= 0.5 {
		p = (1 - t) * 2
	}
	eased := p * p * (3 - 2*p)
	shimmerPos := int(eased * float64(barWidth))

	var b strings.Builder
	for i := range barWidth {
		dist := shimmerPos - i
		if dist < 0 {
			dist = -dist
		}

		switch {
		case dist < 3:
			b.WriteString(lipgloss.NewStyle().Foreground(accent).Render("▓"))
		case dist < 5:
			b.WriteString(lipgloss.NewStyle().Foreground(styles.TextSecondary).Render("▒"))
		default:
			b.WriteString(lipgloss.NewStyle().Foreground(styles.BgLight).Render("░"))
		}
	}

	dots := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	dot := lipgloss.NewStyle().
		Width(11).
		Align(lipgloss.Right).
		Foreground(accent).
		Render(dots[(frame/2)%len(dots)])

	return lipgloss.JoinHorizontal(lipgloss.Left, strings.Repeat(" ", 15), b.String(), " ", dot)
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
