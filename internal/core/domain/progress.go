package domain

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"
)

var (
	ErrKPIMonthOutOfRange = errors.New("kpi month index out of range (must be 0-5)")
	ErrUnknownKPIMetric   = errors.New("unknown kpi metric")
	ErrInvalidTheme       = errors.New("invalid theme (must be dark, light, or mixed)")
	ErrInvalidStartDate   = errors.New("invalid start date (must be YYYY-MM-DD)")
	ErrInvalidWeekNumber  = errors.New("invalid week number (must be 1-24)")
)

const (
	DateLayout      = "2006-01-02"
	MaxPointHistory = 100
	BadgeReward     = 100
)

// KPI metric ids present in every progress partition.
var KPIMetricIDs = []string{"mrr", "clients", "calls", "posts", "caseStudies", "closeRate"}

var streakBonuses = map[int]int{
	7:  50,
	14: 100,
	30: 200,
}

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
	ThemeMixed Theme = "mixed"
)

var themeCycle = []Theme{ThemeDark, ThemeLight, ThemeMixed}

func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

func WeekKey(week int) string {
	return fmt.Sprintf("week_%d", week)
}

type Settings struct {
	StartDate            string `json:"startDate"`
	Theme                Theme  `json:"theme"`
	SoundEnabled         bool   `json:"soundEnabled"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
}

type TaskRecord struct {
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt"`
}

type PointEntry struct {
	Amount int       `json:"amount"`
	Reason string    `json:"reason"`
	Date   time.Time `json:"date"`
}

// Points is a credit-only ledger: debits from un-toggling lower Total but are
// never written to History.
type Points struct {
	Total     int          `json:"total"`
	Today     int          `json:"today"`
	TodayDate string       `json:"todayDate,omitempty"`
	History   []PointEntry `json:"history"`
}

type Streak struct {
	Current        int     `json:"current"`
	Longest        int     `json:"longest"`
	LastActiveDate *string `json:"lastActiveDate"`
}

type ProgressState struct {
	Settings            Settings                   `json:"settings"`
	Tasks               map[string]TaskRecord      `json:"tasks"`
	DailyHabits         map[string]map[string]bool `json:"dailyHabits"`
	WeeklyContent       map[string]map[string]bool `json:"weeklyContent"`
	KPIs                map[string]KPISeries       `json:"kpis"`
	Points              Points                     `json:"points"`
	Streak              Streak                     `json:"streak"`
	EarnedBadges        []string                   `json:"earnedBadges"`
	CompletedChallenges []string                   `json:"completedChallenges"`
	Notes               map[string]string          `json:"notes"`
}

func DefaultSettings(now time.Time) Settings {
	return Settings{
		StartDate:            DateKey(now),
		Theme:                ThemeDark,
		SoundEnabled:         true,
		NotificationsEnabled: true,
	}
}

func NewProgressState(now time.Time) *ProgressState {
	p := &ProgressState{Settings: DefaultSettings(now)}
	p.Normalize()
	return p
}

// Normalize fills nil collections left behind by decoding so that every
// mutation can write without nil checks.
func (p *ProgressState) Normalize() {
	if p.Tasks == nil {
		p.Tasks = make(map[string]TaskRecord)
	}
	if p.DailyHabits == nil {
		p.DailyHabits = make(map[string]map[string]bool)
	}
	if p.WeeklyContent == nil {
		p.WeeklyContent = make(map[string]map[string]bool)
	}
	if p.KPIs == nil {
		p.KPIs = make(map[string]KPISeries)
	}
	for _, id := range KPIMetricIDs {
		if p.KPIs[id] == nil {
			p.KPIs[id] = NewKPISeries()
		}
	}
	if p.Points.History == nil {
		p.Points.History = []PointEntry{}
	}
	if p.EarnedBadges == nil {
		p.EarnedBadges = []string{}
	}
	if p.CompletedChallenges == nil {
		p.CompletedChallenges = []string{}
	}
	if p.Notes == nil {
		p.Notes = make(map[string]string)
	}
	if p.Settings.Theme == "" {
		p.Settings.Theme = ThemeDark
	}
}

// ToggleTask flips a task and returns its new completion state. Unknown task
// ids are accepted.
func (p *ProgressState) ToggleTask(cat *Catalog, taskID string, points int, now time.Time) bool {
	if !p.Tasks[taskID].Completed {
		at := now.UTC()
		p.Tasks[taskID] = TaskRecord{Completed: true, CompletedAt: &at}
		p.AddPoints(points, "Completed task: "+taskID, now)
		p.UpdateStreak(now)
		p.CheckBadges(cat, now)
		return true
	}

	p.Tasks[taskID] = TaskRecord{Completed: false}
	p.Points.Total -= points
	return false
}

func (p *ProgressState) ToggleDailyHabit(habitID string, points int, now time.Time) bool {
	today := DateKey(now)
	day := p.DailyHabits[today]
	if day == nil {
		day = make(map[string]bool)
		p.DailyHabits[today] = day
	}

	if !day[habitID] {
		day[habitID] = true
		p.AddPoints(points, "Habit: "+habitID, now)
		p.UpdateStreak(now)
		return true
	}

	day[habitID] = false
	p.Points.Total -= points
	return false
}

func (p *ProgressState) ToggleWeeklyContent(contentID string, week, points int, now time.Time) bool {
	key := WeekKey(week)
	content := p.WeeklyContent[key]
	if content == nil {
		content = make(map[string]bool)
		p.WeeklyContent[key] = content
	}

	if !content[contentID] {
		content[contentID] = true
		p.AddPoints(points, "Content: "+contentID, now)
		return true
	}

	content[contentID] = false
	p.Points.Total -= points
	return false
}

func (p *ProgressState) AddPoints(amount int, reason string, now time.Time) {
	today := DateKey(now)
	if p.Points.TodayDate != today {
		p.Points.Today = 0
		p.Points.TodayDate = today
	}

	p.Points.Total += amount
	p.Points.Today += amount

	history := make([]PointEntry, 0, min(len(p.Points.History)+1, MaxPointHistory))
	history = append(history, PointEntry{Amount: amount, Reason: reason, Date: now.UTC()})
	history = append(history, p.Points.History...)
	if len(history) > MaxPointHistory {
		history = history[:MaxPointHistory]
	}
	p.Points.History = history
}

// UpdateStreak advances the daily streak and returns any bonus awarded.
// Repeated calls on the same calendar day are no-ops.
func (p *ProgressState) UpdateStreak(now time.Time) int {
	today := DateKey(now)

	if p.Streak.LastActiveDate == nil || *p.Streak.LastActiveDate == "" {
		p.Streak = Streak{Current: 1, Longest: max(p.Streak.Longest, 1), LastActiveDate: &today}
		return 0
	}

	last := *p.Streak.LastActiveDate
	if last == today {
		return 0
	}

	lastDay, err := time.Parse(DateLayout, last)
	if err != nil {
		p.Streak = Streak{Current: 1, Longest: max(p.Streak.Longest, 1), LastActiveDate: &today}
		return 0
	}
	todayDay, _ := time.Parse(DateLayout, today)
	gap := int(todayDay.Sub(lastDay).Hours() / 24)

	switch {
	case gap == 1:
		p.Streak.Current++
		p.Streak.Longest = max(p.Streak.Longest, p.Streak.Current)
		p.Streak.LastActiveDate = &today

		if bonus, ok := streakBonuses[p.Streak.Current]; ok {
			p.AddPoints(bonus, fmt.Sprintf("%d-day streak bonus!", p.Streak.Current), now)
			return bonus
		}
	case gap > 1:
		p.Streak.Current = 1
		p.Streak.Longest = max(p.Streak.Longest, 1)
		p.Streak.LastActiveDate = &today
	}

	return 0
}

// CheckBadges awards every badge whose condition now holds and returns the
// newly earned ones.
func (p *ProgressState) CheckBadges(cat *Catalog, now time.Time) []Badge {
	var earned []Badge

	for _, badge := range cat.Badges {
		if slices.Contains(p.EarnedBadges, badge.ID) {
			continue
		}
		if !p.conditionMet(cat, badge.Condition) {
			continue
		}

		p.EarnedBadges = append(p.EarnedBadges, badge.ID)
		p.AddPoints(BadgeReward, "Badge earned: "+badge.Name, now)
		earned = append(earned, badge)
	}

	return earned
}

func (p *ProgressState) conditionMet(cat *Catalog, cond BadgeCondition) bool {
	switch cond {
	case ConditionWeek1Complete:
		return p.WeekProgress(cat, 1) == 100
	case ConditionPhase1Complete:
		return p.PhaseProgress(cat, 1) == 100
	case ConditionPhase3Complete:
		return p.PhaseProgress(cat, 3) == 100
	case ConditionPosts10:
		return p.KPIs["posts"].Sum() >= 10
	case ConditionPosts50:
		return p.KPIs["posts"].Sum() >= 50
	case ConditionFirstClient:
		return p.KPIs["clients"].Any(func(v float64) bool { return v > 0 })
	case ConditionClients10:
		return p.KPIs["clients"].Any(func(v float64) bool { return v >= 10 })
	case ConditionStreak7:
		return p.streakReached(7)
	case ConditionStreak14:
		return p.streakReached(14)
	case ConditionStreak30:
		return p.streakReached(30)
	case ConditionMRR5k:
		return p.KPIs["mrr"].Any(func(v float64) bool { return v >= 5000 })
	case ConditionMRR10k:
		return p.KPIs["mrr"].Any(func(v float64) bool { return v >= 10000 })
	}
	return false
}

func (p *ProgressState) streakReached(days int) bool {
	return p.Streak.Current >= days || p.Streak.Longest >= days
}

func (p *ProgressState) UpdateKPI(metricID string, month int, value float64) error {
	series, ok := p.KPIs[metricID]
	if !ok {
		return ErrUnknownKPIMetric
	}
	return series.Set(month, value)
}

func (p *ProgressState) AddNote(taskID, note string) {
	p.Notes[taskID] = note
}

// CompleteChallenge returns false when the challenge was already completed.
func (p *ProgressState) CompleteChallenge(challengeID string, points int, now time.Time) bool {
	if slices.Contains(p.CompletedChallenges, challengeID) {
		return false
	}
	p.CompletedChallenges = append(p.CompletedChallenges, challengeID)
	p.AddPoints(points, "Challenge: "+challengeID, now)
	return true
}

func (p *ProgressState) SetStartDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return ErrInvalidStartDate
	}
	p.Settings.StartDate = date
	return nil
}

func (p *ProgressState) ToggleSound() bool {
	p.Settings.SoundEnabled = !p.Settings.SoundEnabled
	return p.Settings.SoundEnabled
}

func (p *ProgressState) ToggleNotifications() bool {
	p.Settings.NotificationsEnabled = !p.Settings.NotificationsEnabled
	return p.Settings.NotificationsEnabled
}

func (p *ProgressState) SetTheme(theme Theme) error {
	if !slices.Contains(themeCycle, theme) {
		return ErrInvalidTheme
	}
	p.Settings.Theme = theme
	return nil
}

func (p *ProgressState) CycleTheme() Theme {
	i := slices.Index(themeCycle, p.Settings.Theme)
	p.Settings.Theme = themeCycle[(i+1)%len(themeCycle)]
	return p.Settings.Theme
}

// Reset wipes completion, points, streak, badges, challenges and notes.
// Settings and KPI series survive.
func (p *ProgressState) Reset() {
	p.Tasks = nil
	p.DailyHabits = nil
	p.WeeklyContent = nil
	p.Points = Points{}
	p.Streak = Streak{}
	p.EarnedBadges = nil
	p.CompletedChallenges = nil
	p.Notes = nil
	p.Normalize()
}

func (p *ProgressState) CurrentWeek(now time.Time) int {
	start, err := time.Parse(DateLayout, p.Settings.StartDate)
	if err != nil {
		return 1
	}
	days := math.Floor(now.Sub(start).Hours() / 24)
	week := int(math.Floor(days/7)) + 1
	return max(1, min(TotalWeeks, week))
}

func (p *ProgressState) CurrentPhase(now time.Time) int {
	return (p.CurrentWeek(now) + weeksPerPhase - 1) / weeksPerPhase
}

// CurrentMonth is the one-based plan month, equal to the current phase.
func (p *ProgressState) CurrentMonth(now time.Time) int {
	return p.CurrentPhase(now)
}

func (p *ProgressState) WeekProgress(cat *Catalog, week int) int {
	w, ok := cat.Week(week)
	if !ok {
		return 0
	}
	done := 0
	for _, t := range w.Tasks {
		if p.Tasks[t.ID].Completed {
			done++
		}
	}
	return percent(done, len(w.Tasks))
}

func (p *ProgressState) PhaseProgress(cat *Catalog, phase int) int {
	return p.progressOf(cat.TasksForPhase(phase))
}

func (p *ProgressState) OverallProgress(cat *Catalog) int {
	return p.progressOf(cat.AllTasks())
}

func (p *ProgressState) progressOf(tasks []WeekTask) int {
	done := 0
	for _, t := range tasks {
		if p.Tasks[t.ID].Completed {
			done++
		}
	}
	return percent(done, len(tasks))
}

type HabitProgress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

func (p *ProgressState) TodayHabitsProgress(cat *Catalog, now time.Time) HabitProgress {
	completed := 0
	for _, done := range p.DailyHabits[DateKey(now)] {
		if done {
			completed++
		}
	}
	return HabitProgress{Completed: completed, Total: len(cat.DailyHabits)}
}

type LevelStatus struct {
	Level
	NextLevel *Level `json:"nextLevel"`
}

func (p *ProgressState) CurrentLevel(cat *Catalog) LevelStatus {
	level, next := cat.LevelFor(p.Points.Total)
	return LevelStatus{Level: level, NextLevel: next}
}

// CompletedTasksCount counts every completed record, including ids the catalog
// does not know.
func (p *ProgressState) CompletedTasksCount() int {
	n := 0
	for _, rec := range p.Tasks {
		if rec.Completed {
			n++
		}
	}
	return n
}

func percent(done, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}
