package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidGoalType     = errors.New("invalid goal type")
	ErrInvalidQuarter      = errors.New("invalid quarter (must be Q1-Q4)")
	ErrGoalNotFound        = errors.New("goal not found")
	ErrInvalidGoalTarget   = errors.New("goal target cannot be negative")
	ErrInvalidGoalDeadline = errors.New("invalid goal deadline (must be YYYY-MM-DD)")
)

type GoalType string

const (
	GoalYearly    GoalType = "yearly"
	GoalQuarterly GoalType = "quarterly"
	GoalNinetyDay GoalType = "ninetyDay"
	GoalThirtyDay GoalType = "thirtyDay"
	GoalCustom    GoalType = "custom"
)

type Quarter string

const (
	Q1 Quarter = "Q1"
	Q2 Quarter = "Q2"
	Q3 Quarter = "Q3"
	Q4 Quarter = "Q4"
)

var Quarters = []Quarter{Q1, Q2, Q3, Q4}

type GoalUnit struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

var GoalUnits = []GoalUnit{
	{Value: "videos", Label: "Videos", Icon: "🎬"},
	{Value: "posts", Label: "Posts", Icon: "📝"},
	{Value: "clients", Label: "Clients", Icon: "👥"},
	{Value: "dollars", Label: "Dollars ($)", Icon: "💰"},
	{Value: "calls", Label: "Calls", Icon: "📞"},
	{Value: "leads", Label: "Leads", Icon: "🎯"},
	{Value: "hours", Label: "Hours", Icon: "⏱️"},
	{Value: "tasks", Label: "Tasks", Icon: "✅"},
	{Value: "custom", Label: "Custom", Icon: "✨"},
}

// Goal never stores its breakdown; see CalculateBreakdown.
type Goal struct {
	ID              string    `json:"id"`
	Type            GoalType  `json:"type"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Target          float64   `json:"target"`
	Current         float64   `json:"current"`
	Unit            string    `json:"unit,omitempty"`
	Deadline        string    `json:"deadline"`
	MilestoneReward string    `json:"milestoneReward,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	Quarter         Quarter   `json:"quarter,omitempty"`
}

func (g Goal) validate() error {
	if g.Target < 0 {
		return ErrInvalidGoalTarget
	}
	if g.Deadline != "" {
		if _, err := parseDeadline(g.Deadline); err != nil {
			return ErrInvalidGoalDeadline
		}
	}
	return nil
}

// GoalPatch carries the fields of a partial custom goal update.
type GoalPatch struct {
	Title           *string  `json:"title"`
	Description     *string  `json:"description"`
	Target          *float64 `json:"target"`
	Current         *float64 `json:"current"`
	Unit            *string  `json:"unit"`
	Deadline        *string  `json:"deadline"`
	MilestoneReward *string  `json:"milestoneReward"`
}

func (p GoalPatch) apply(g Goal) Goal {
	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	if p.Target != nil {
		g.Target = *p.Target
	}
	if p.Current != nil {
		g.Current = *p.Current
	}
	if p.Unit != nil {
		g.Unit = *p.Unit
	}
	if p.Deadline != nil {
		g.Deadline = *p.Deadline
	}
	if p.MilestoneReward != nil {
		g.MilestoneReward = *p.MilestoneReward
	}
	return g
}

type QuarterlyGoals struct {
	Q1 *Goal `json:"Q1"`
	Q2 *Goal `json:"Q2"`
	Q3 *Goal `json:"Q3"`
	Q4 *Goal `json:"Q4"`
}

type GoalSlots struct {
	Yearly    *Goal          `json:"yearly"`
	Quarterly QuarterlyGoals `json:"quarterly"`
	NinetyDay *Goal          `json:"ninetyDay"`
	ThirtyDay *Goal          `json:"thirtyDay"`
}

type GoalState struct {
	Goals              GoalSlots `json:"goals"`
	CustomGoals        []Goal    `json:"customGoals"`
	OnboardingComplete bool      `json:"onboardingComplete"`
	OnboardingStep     int       `json:"onboardingStep"`
}

func NewGoalState() *GoalState {
	return &GoalState{CustomGoals: []Goal{}}
}

func (s *GoalState) Normalize() {
	if s.CustomGoals == nil {
		s.CustomGoals = []Goal{}
	}
}

func (s *GoalState) slot(t GoalType, q Quarter) (**Goal, error) {
	switch t {
	case GoalYearly:
		return &s.Goals.Yearly, nil
	case GoalNinetyDay:
		return &s.Goals.NinetyDay, nil
	case GoalThirtyDay:
		return &s.Goals.ThirtyDay, nil
	case GoalQuarterly:
		switch q {
		case Q1:
			return &s.Goals.Quarterly.Q1, nil
		case Q2:
			return &s.Goals.Quarterly.Q2, nil
		case Q3:
			return &s.Goals.Quarterly.Q3, nil
		case Q4:
			return &s.Goals.Quarterly.Q4, nil
		}
		return nil, ErrInvalidQuarter
	}
	return nil, ErrInvalidGoalType
}

// SetGoal upserts the goal at its slot, stamping id and creation time when
// they are missing.
func (s *GoalState) SetGoal(t GoalType, q Quarter, g Goal, now time.Time) (*Goal, error) {
	slot, err := s.slot(t, q)
	if err != nil {
		return nil, err
	}
	if err := g.validate(); err != nil {
		return nil, err
	}

	if g.ID == "" {
		g.ID = "goal_" + uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now.UTC()
	}
	g.Type = t
	g.Quarter = ""

	*slot = &g
	out := g
	return &out, nil
}

func (s *GoalState) Goal(t GoalType, q Quarter) (*Goal, error) {
	slot, err := s.slot(t, q)
	if err != nil {
		return nil, err
	}
	if *slot == nil {
		return nil, ErrGoalNotFound
	}
	out := **slot
	return &out, nil
}

// UpdateProgress sets current without checking it against target.
func (s *GoalState) UpdateProgress(t GoalType, q Quarter, current float64) (*Goal, error) {
	slot, err := s.slot(t, q)
	if err != nil {
		return nil, err
	}
	if *slot == nil {
		return nil, ErrGoalNotFound
	}
	(*slot).Current = current
	out := **slot
	return &out, nil
}

func (s *GoalState) IncrementProgress(t GoalType, q Quarter) (*Goal, error) {
	g, err := s.Goal(t, q)
	if err != nil {
		return nil, err
	}
	return s.UpdateProgress(t, q, g.Current+1)
}

func (s *GoalState) DeleteGoal(t GoalType, q Quarter) error {
	slot, err := s.slot(t, q)
	if err != nil {
		return err
	}
	*slot = nil
	return nil
}

// PrimaryGoal picks yearly, then ninety-day, then thirty-day, then Q1.
func (s *GoalState) PrimaryGoal() *Goal {
	for _, g := range []*Goal{s.Goals.Yearly, s.Goals.NinetyDay, s.Goals.ThirtyDay, s.Goals.Quarterly.Q1} {
		if g != nil {
			out := *g
			return &out
		}
	}
	return nil
}

// AllGoals flattens the slots in display order; quarterly goals carry their quarter.
func (s *GoalState) AllGoals() []Goal {
	out := make([]Goal, 0, 7)
	if s.Goals.Yearly != nil {
		out = append(out, *s.Goals.Yearly)
	}
	for _, q := range Quarters {
		slot, _ := s.slot(GoalQuarterly, q)
		if *slot != nil {
			g := **slot
			g.Quarter = q
			out = append(out, g)
		}
	}
	if s.Goals.NinetyDay != nil {
		out = append(out, *s.Goals.NinetyDay)
	}
	if s.Goals.ThirtyDay != nil {
		out = append(out, *s.Goals.ThirtyDay)
	}
	return out
}

func (s *GoalState) AddCustomGoal(g Goal, now time.Time) (Goal, error) {
	if err := g.validate(); err != nil {
		return Goal{}, err
	}
	g.ID = "custom_" + uuid.NewString()
	g.Type = GoalCustom
	g.CreatedAt = now.UTC()
	g.Quarter = ""
	s.CustomGoals = append(s.CustomGoals, g)
	return g, nil
}

func (s *GoalState) UpdateCustomGoal(id string, patch GoalPatch) (Goal, error) {
	for i, g := range s.CustomGoals {
		if g.ID != id {
			continue
		}
		updated := patch.apply(g)
		if err := updated.validate(); err != nil {
			return Goal{}, err
		}
		s.CustomGoals[i] = updated
		return updated, nil
	}
	return Goal{}, ErrGoalNotFound
}

func (s *GoalState) DeleteCustomGoal(id string) bool {
	for i, g := range s.CustomGoals {
		if g.ID == id {
			s.CustomGoals = append(s.CustomGoals[:i], s.CustomGoals[i+1:]...)
			return true
		}
	}
	return false
}

func (s *GoalState) SetOnboardingStep(step int) {
	s.OnboardingStep = step
}

// CompleteOnboarding also serves the skip path; both end onboarding at step 0.
func (s *GoalState) CompleteOnboarding() {
	s.OnboardingComplete = true
	s.OnboardingStep = 0
}

func (s *GoalState) Reset() {
	*s = *NewGoalState()
}

func (s *GoalState) Export() ([]byte, error) {
	return json.MarshalIndent(struct {
		Goals       GoalSlots `json:"goals"`
		CustomGoals []Goal    `json:"customGoals"`
	}{s.Goals, s.CustomGoals}, "", "  ")
}

// ApplyAdminGoals installs the preset yearly and thirty-day goals and marks
// onboarding complete.
func (s *GoalState) ApplyAdminGoals(now time.Time) {
	now = now.UTC()
	s.Goals.Yearly = &Goal{
		ID:              "admin_yearly_1",
		Type:            GoalYearly,
		Title:           "500 Videos to Freedom",
		Description:     "Upload 500 videos, then leave Pakistan for Bangkok",
		Target:          500,
		Current:         5,
		Unit:            "videos",
		Deadline:        "2026-12-31",
		MilestoneReward: "Leave Pakistan → Bangkok!",
		CreatedAt:       now,
	}
	s.Goals.ThirtyDay = &Goal{
		ID:              "admin_30day_1",
		Type:            GoalThirtyDay,
		Title:           "100 Videos Sprint",
		Description:     "30-day video challenge - upload 100 videos",
		Target:          100,
		Current:         5,
		Unit:            "videos",
		Deadline:        DateKey(now.AddDate(0, 0, 30)),
		MilestoneReward: "First milestone completed!",
		CreatedAt:       now,
	}
	s.OnboardingComplete = true
}
