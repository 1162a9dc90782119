package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Export renders the backup document with two-space indentation.
func (p *ProgressState) Export() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

type progressImport struct {
	Settings            *Settings                  `json:"settings"`
	Tasks               map[string]TaskRecord      `json:"tasks"`
	DailyHabits         map[string]map[string]bool `json:"dailyHabits"`
	WeeklyContent       map[string]map[string]bool `json:"weeklyContent"`
	KPIs                map[string]KPISeries       `json:"kpis"`
	Points              *Points                    `json:"points"`
	Streak              *Streak                    `json:"streak"`
	EarnedBadges        []string                   `json:"earnedBadges"`
	CompletedChallenges []string                   `json:"completedChallenges"`
	Notes               map[string]string          `json:"notes"`
}

// ImportProgress builds a fresh state from an export document. Every absent
// field falls back to its default. A document that fails to parse yields
// false and no state, so callers never apply a partial import.
func ImportProgress(data []byte, now time.Time) (*ProgressState, bool) {
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return nil, false
	}

	var in progressImport
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, false
	}

	out := NewProgressState(now)
	if in.Settings != nil {
		out.Settings = *in.Settings
	}
	if in.Tasks != nil {
		out.Tasks = in.Tasks
	}
	if in.DailyHabits != nil {
		out.DailyHabits = in.DailyHabits
	}
	if in.WeeklyContent != nil {
		out.WeeklyContent = in.WeeklyContent
	}
	if in.KPIs != nil {
		out.KPIs = in.KPIs
	}
	if in.Points != nil {
		out.Points = *in.Points
		if len(out.Points.History) > MaxPointHistory {
			out.Points.History = out.Points.History[:MaxPointHistory]
		}
	}
	if in.Streak != nil {
		out.Streak = *in.Streak
		if out.Streak.Longest < out.Streak.Current {
			out.Streak.Longest = out.Streak.Current
		}
	}
	if in.EarnedBadges != nil {
		out.EarnedBadges = in.EarnedBadges
	}
	if in.CompletedChallenges != nil {
		out.CompletedChallenges = in.CompletedChallenges
	}
	if in.Notes != nil {
		out.Notes = in.Notes
	}

	out.Normalize()
	return out, true
}
