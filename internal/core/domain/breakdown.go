package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const onTrackSlack = 0.9

type Breakdown struct {
	DailyTarget     float64 `json:"dailyTarget"`
	WeeklyTarget    float64 `json:"weeklyTarget"`
	MonthlyTarget   float64 `json:"monthlyTarget"`
	PercentComplete float64 `json:"percentComplete"`
	OnTrack         bool    `json:"onTrack"`
	DaysRemaining   int     `json:"daysRemaining"`
	Remaining       float64 `json:"remaining"`
}

// GoalProgress is a goal with its pace computed at read time.
type GoalProgress struct {
	Goal
	Breakdown
}

func NewGoalProgress(g Goal, now time.Time) GoalProgress {
	return GoalProgress{Goal: g, Breakdown: CalculateBreakdown(&g, now)}
}

// DaysBetween is the absolute distance between two instants in whole days,
// rounded up.
func DaysBetween(a, b time.Time) int {
	d := b.Sub(a)
	if d < 0 {
		d = -d
	}
	day := 24 * time.Hour
	return int((d + day - 1) / day)
}

// CalculateBreakdown derives pace figures for a goal. Pace targets round up to
// one decimal so they never understate the remaining work. A goal without a
// deadline or target yields a neutral, on-track result.
func CalculateBreakdown(g *Goal, now time.Time) Breakdown {
	if g == nil || g.Deadline == "" || g.Target == 0 {
		return Breakdown{OnTrack: true}
	}
	deadline, err := parseDeadline(g.Deadline)
	if err != nil {
		return Breakdown{OnTrack: true}
	}

	daysRemaining := max(1, DaysBetween(now, deadline))
	remaining := math.Max(0, g.Target-g.Current)

	daily := decimal.NewFromFloat(remaining).Div(decimal.NewFromInt(int64(daysRemaining)))
	weekly := daily.Mul(decimal.NewFromInt(7))
	monthly := daily.Mul(decimal.NewFromInt(30))

	pct := 0.0
	if g.Target > 0 {
		pct = decimal.NewFromFloat(g.Current / g.Target * 100).Round(1).InexactFloat64()
	}

	created := g.CreatedAt
	if created.IsZero() {
		created = now
	}
	onTrack := true
	if totalDays := DaysBetween(created, deadline); totalDays > 0 {
		elapsed := totalDays - daysRemaining
		expected := float64(elapsed) / float64(totalDays) * g.Target
		onTrack = g.Current >= expected*onTrackSlack
	}

	return Breakdown{
		DailyTarget:     daily.RoundCeil(1).InexactFloat64(),
		WeeklyTarget:    weekly.RoundCeil(1).InexactFloat64(),
		MonthlyTarget:   monthly.RoundCeil(1).InexactFloat64(),
		PercentComplete: math.Max(0, math.Min(100, pct)),
		OnTrack:         onTrack,
		DaysRemaining:   daysRemaining,
		Remaining:       remaining,
	}
}

func parseDeadline(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
