package services

import (
	"context"
	"math"
	"time"

	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/domain"
)

type ProgressReader interface {
	State(ctx context.Context, key string) (*domain.ProgressState, error)
	Catalog() *domain.Catalog
}

type PrimaryGoalReader interface {
	PrimaryGoal(ctx context.Context, key string) (*domain.GoalProgress, error)
}

type DashboardService struct {
	progress ProgressReader
	goals    PrimaryGoalReader
	now      func() time.Time
}

func NewDashboardService(progress ProgressReader, goals PrimaryGoalReader) *DashboardService {
	return &DashboardService{
		progress: progress,
		goals:    goals,
		now:      time.Now,
	}
}

func (s *DashboardService) WithClock(now func() time.Time) *DashboardService {
	s.now = now
	return s
}

func (s *DashboardService) GetDashboard(ctx context.Context, progressKey, goalsKey string) (*domain.DashboardStats, error) {
	p, err := s.progress.State(ctx, progressKey)
	if err != nil {
		return nil, err
	}
	primary, err := s.goals.PrimaryGoal(ctx, goalsKey)
	if err != nil {
		return nil, err
	}

	cat := s.progress.Catalog()
	now := s.now()
	today := domain.DateKey(now)
	week := p.CurrentWeek(now)
	phaseID := p.CurrentPhase(now)
	month := p.CurrentMonth(now)

	stats := &domain.DashboardStats{
		Date:            today,
		CurrentWeek:     week,
		CurrentMonth:    month,
		WeekProgress:    p.WeekProgress(cat, week),
		PhaseProgress:   p.PhaseProgress(cat, phaseID),
		OverallProgress: p.OverallProgress(cat),
		CompletedTasks:  p.CompletedTasksCount(),
		TotalTasks:      cat.TotalTasks(),
		TodayHabits:     p.TodayHabitsProgress(cat, now),
		Level:           p.CurrentLevel(cat),
		Points:          p.Points.Total,
		Streak:          p.Streak,
		EarnedBadges:    len(p.EarnedBadges),
		TotalBadges:     len(cat.Badges),
		KPIs:            make([]domain.KPIStat, 0, len(cat.KPIMetrics)),
		PhaseWeeks:      []domain.WeekStat{},
		PrimaryGoal:     primary,
	}

	if p.Points.TodayDate == today {
		stats.PointsToday = p.Points.Today
	}

	if phase, ok := cat.Phase(phaseID); ok {
		stats.CurrentPhase = phase
		for _, w := range phase.Weeks {
			stats.PhaseWeeks = append(stats.PhaseWeeks, domain.WeekStat{Week: w, Progress: p.WeekProgress(cat, w)})
		}
	}

	// KPI series are zero-based, plan months one-based.
	idx := month - 1
	for _, m := range cat.KPIMetrics {
		value := p.KPIs[m.ID].Get(idx)
		target := m.Target(idx)
		stats.KPIs = append(stats.KPIs, domain.KPIStat{
			MetricID: m.ID,
			Name:     m.Name,
			Unit:     m.Unit,
			Value:    value,
			Target:   target,
			Rate:     completionRate(value, target),
		})
	}

	if q, ok := cat.QuoteFor(now.YearDay()); ok {
		stats.Quote = &q
	}

	return stats, nil
}

func completionRate(value, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return math.Min(100, math.Round(value/target*100))
}
