package services

import (
	"context"
	"errors"
	"time"

	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/domain"
)

type GoalService struct {
	repo       domain.GoalRepository
	adminEmail string
	now        func() time.Time
	locks      partitionLocks
}

func NewGoalService(repo domain.GoalRepository, adminEmail string) *GoalService {
	return &GoalService{
		repo:       repo,
		adminEmail: domain.NormalizeEmail(adminEmail),
		now:        time.Now,
	}
}

func (s *GoalService) WithClock(now func() time.Time) *GoalService {
	s.now = now
	return s
}

func (s *GoalService) load(ctx context.Context, key string) (*domain.GoalState, error) {
	state, err := s.repo.Load(ctx, key)
	if errors.Is(err, domain.ErrPartitionNotFound) {
		return domain.NewGoalState(), nil
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (s *GoalService) mutate(ctx context.Context, key string, fn func(g *domain.GoalState, now time.Time) error) (*domain.GoalState, error) {
	unlock := s.locks.lock(key)
	defer unlock()

	state, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := fn(state, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, key, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *GoalService) progress(g *domain.Goal) *domain.GoalProgress {
	if g == nil {
		return nil
	}
	gp := domain.NewGoalProgress(*g, s.now())
	return &gp
}

func (s *GoalService) Seed(ctx context.Context, key string) error {
	unlock := s.locks.lock(key)
	defer unlock()

	_, err := s.repo.Load(ctx, key)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrPartitionNotFound) {
		return err
	}
	return s.repo.Save(ctx, key, domain.NewGoalState())
}

func (s *GoalService) Delete(ctx context.Context, key string) error {
	unlock := s.locks.lock(key)
	defer unlock()
	return s.repo.Delete(ctx, key)
}

type GoalsOverview struct {
	Goals              []domain.GoalProgress `json:"goals"`
	CustomGoals        []domain.GoalProgress `json:"customGoals"`
	PrimaryGoal        *domain.GoalProgress  `json:"primaryGoal"`
	OnboardingComplete bool                  `json:"onboardingComplete"`
	OnboardingStep     int                   `json:"onboardingStep"`
	Units              []domain.GoalUnit     `json:"units"`
}

func (s *GoalService) Overview(ctx context.Context, key string) (*GoalsOverview, error) {
	g, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	return &GoalsOverview{
		Goals:              s.withBreakdown(g.AllGoals()),
		CustomGoals:        s.withBreakdown(g.CustomGoals),
		PrimaryGoal:        s.progress(g.PrimaryGoal()),
		OnboardingComplete: g.OnboardingComplete,
		OnboardingStep:     g.OnboardingStep,
		Units:              domain.GoalUnits,
	}, nil
}

func (s *GoalService) withBreakdown(goals []domain.Goal) []domain.GoalProgress {
	now := s.now()
	out := make([]domain.GoalProgress, 0, len(goals))
	for _, g := range goals {
		out = append(out, domain.NewGoalProgress(g, now))
	}
	return out
}

// GoalInput carries the user-editable fields of a slot goal.
type GoalInput struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Target          float64 `json:"target"`
	Current         float64 `json:"current"`
	Unit            string  `json:"unit"`
	Deadline        string  `json:"deadline"`
	MilestoneReward string  `json:"milestoneReward"`
}

func (in GoalInput) goal() domain.Goal {
	return domain.Goal{
		ID:              in.ID,
		Title:           in.Title,
		Description:     in.Description,
		Target:          in.Target,
		Current:         in.Current,
		Unit:            in.Unit,
		Deadline:        in.Deadline,
		MilestoneReward: in.MilestoneReward,
	}
}

// SetGoal keeps the creation time of the goal it replaces when the id matches.
func (s *GoalService) SetGoal(ctx context.Context, key string, t domain.GoalType, q domain.Quarter, input GoalInput) (*domain.GoalProgress, error) {
	var saved *domain.Goal
	_, err := s.mutate(ctx, key, func(g *domain.GoalState, now time.Time) error {
		goal := input.goal()
		if prev, err := g.Goal(t, q); err == nil && prev.ID == goal.ID {
			goal.CreatedAt = prev.CreatedAt
		}
		var err error
		saved, err = g.SetGoal(t, q, goal, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.progress(saved), nil
}

func (s *GoalService) Goal(ctx context.Context, key string, t domain.GoalType, q domain.Quarter) (*domain.GoalProgress, error) {
	g, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	goal, err := g.Goal(t, q)
	if err != nil {
		return nil, err
	}
	return s.progress(goal), nil
}

func (s *GoalService) UpdateProgress(ctx context.Context, key string, t domain.GoalType, q domain.Quarter, current float64) (*domain.GoalProgress, error) {
	var updated *domain.Goal
	_, err := s.mutate(ctx, key, func(g *domain.GoalState, now time.Time) error {
		var err error
		updated, err = g.UpdateProgress(t, q, current)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.progress(updated), nil
}

func (s *GoalService) IncrementProgress(ctx context.Context, key string, t domain.GoalType, q domain.Quarter) (*domain.GoalProgress, error) {
	var updated *domain.Goal
	_, err := s.mutate(ctx, key, func(g *domain.GoalState, now time.Time) error {
		var err error
		updated, err = g.IncrementProgress(t, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.progress(updated), nil
}

func (s *GoalService) DeleteGoal(ctx context.Context, key string, t domain.GoalType, q domain.Quarter) error {
	_, err := s.mutate(ctx, key, func(g *domain.GoalState, now time.Time) error {
		return g.DeleteGoal(t, q)
	})
	return err
}

// PrimaryGoal returns nil without error when no slot is filled.
func (s *GoalService) PrimaryGoal(ctx context.Context, key string) (*domain.GoalProgress, error) {
	g, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.progress(g.PrimaryGoal()), nil
}

func (s *GoalService) AllGoals(ctx context.Context, key string) ([]domain.GoalProgress, error) {
	g, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.withBreakdown(g.AllGoals()), nil
}

func (s *GoalService) CustomGoals(ctx context.Context, key string) ([]domain.GoalProgress, error) {
	g, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.withBreakdown(g.CustomGoals), nil
}

func (s *GoalService) AddCustomGoal(ctx context.Context, key string, input GoalInput) (*domain.GoalProgress, error) {
	var added domain.Goal
	_, err := s.mutate(ctx, key, func(g *domain.GoalState, now time.Time) error {
		var err error
		added, err = g.AddCustomGoal(input.goal(), now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.progress(&added), nil
}

func (s *GoalService) UpdateCustomGoal(ctx context.Context, key, id string, patch domain.GoalPatch) (*domain.GoalProgress, error) {
	var updated domain.Goal
	_, err := s.mutate(ctx, key, func(g *domain.GoalState, now time.Time) error {
		var err error
		updated, err = g.UpdateCustomGoal(id, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.progress(&updated), nil
}

func (s *GoalService) DeleteCustomGoal(ctx context.Context, key, id string) error {
	_, err := s.mutate(ctx, key, func(g *domain.GoalState, now time.Time) error {
		if !g.DeleteCustomGoal(id) {
			return domain.ErrGoalNotFound
		}
		return nil
	})
	return err
}

type OnboardingStatus struct {
	Complete bool `json:"onboardingComplete"`
	Step     int  `json:"onboardingStep"`
}

func (s *GoalService) onboarding(ctx context.Context, key string, fn func(g *domain.GoalState)) (*OnboardingStatus, error) {
	g, err := s.mutate(ctx, key, func(g *domain.GoalState, now time.Time) error {
		fn(g)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &OnboardingStatus{Complete: g.OnboardingComplete, Step: g.OnboardingStep}, nil
}

func (s *GoalService) SetOnboardingStep(ctx context.Context, key string, step int) (*OnboardingStatus, error) {
	return s.onboarding(ctx, key, func(g *domain.GoalState) { g.SetOnboardingStep(step) })
}

func (s *GoalService) CompleteOnboarding(ctx context.Context, key string) (*OnboardingStatus, error) {
	return s.onboarding(ctx, key, (*domain.GoalState).CompleteOnboarding)
}

// SkipOnboarding ends onboarding exactly like completing it.
func (s *GoalService) SkipOnboarding(ctx context.Context, key string) (*OnboardingStatus, error) {
	return s.CompleteOnboarding(ctx, key)
}

func (s *GoalService) Reset(ctx context.Context, key string) error {
	_, err := s.mutate(ctx, key, func(g *domain.GoalState, now time.Time) error {
		g.Reset()
		return nil
	})
	return err
}

func (s *GoalService) Export(ctx context.Context, key string) ([]byte, error) {
	g, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	return g.Export()
}

// InitializeAdminGoals installs the preset goals when email is the configured
// admin address and reports whether it did.
func (s *GoalService) InitializeAdminGoals(ctx context.Context, key, email string) (bool, error) {
	if s.adminEmail == "" || domain.NormalizeEmail(email) != s.adminEmail {
		return false, nil
	}
	_, err := s.mutate(ctx, key, func(g *domain.GoalState, now time.Time) error {
		g.ApplyAdminGoals(now)
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
