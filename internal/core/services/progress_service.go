package services

import (
	"context"
	"errors"
	"time"

	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/domain"
)

var (
	ErrUnknownItem   = errors.New("unknown item: points must be provided")
	ErrInvalidPoints = errors.New("points must be positive")
	ErrInvalidImport = errors.New("import data could not be parsed")
	ErrPhaseNotFound = errors.New("phase not found")
)

// ProgressObserver is notified of credits and badges after a mutation is saved.
type ProgressObserver interface {
	PointsAwardedFor(source string, amount int)
	BadgeEarned(badgeID string)
}

type ProgressService struct {
	repo     domain.ProgressRepository
	catalog  *domain.Catalog
	observer ProgressObserver
	now      func() time.Time
	locks    partitionLocks
}

func NewProgressService(repo domain.ProgressRepository, catalog *domain.Catalog, observer ProgressObserver) *ProgressService {
	return &ProgressService{
		repo:     repo,
		catalog:  catalog,
		observer: observer,
		now:      time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (s *ProgressService) WithClock(now func() time.Time) *ProgressService {
	s.now = now
	return s
}

func (s *ProgressService) Catalog() *domain.Catalog {
	return s.catalog
}

func (s *ProgressService) load(ctx context.Context, key string) (*domain.ProgressState, error) {
	state, err := s.repo.Load(ctx, key)
	if errors.Is(err, domain.ErrPartitionNotFound) {
		return domain.NewProgressState(s.now()), nil
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

// mutate runs fn against the partition's state and writes the result back.
// Nothing is saved when fn fails.
func (s *ProgressService) mutate(ctx context.Context, key, source string, fn func(p *domain.ProgressState, now time.Time) error) (*domain.ProgressState, error) {
	unlock := s.locks.lock(key)
	defer unlock()

	state, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}

	totalBefore := state.Points.Total
	badgesBefore := len(state.EarnedBadges)

	if err := fn(state, s.now()); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, key, state); err != nil {
		return nil, err
	}

	if s.observer != nil {
		s.observer.PointsAwardedFor(source, state.Points.Total-totalBefore)
		if badgesBefore < len(state.EarnedBadges) {
			for _, id := range state.EarnedBadges[badgesBefore:] {
				s.observer.BadgeEarned(id)
			}
		}
	}

	return state, nil
}

func (s *ProgressService) State(ctx context.Context, key string) (*domain.ProgressState, error) {
	return s.load(ctx, key)
}

// Seed writes a fresh state unless the partition already exists.
func (s *ProgressService) Seed(ctx context.Context, key string) error {
	unlock := s.locks.lock(key)
	defer unlock()

	_, err := s.repo.Load(ctx, key)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrPartitionNotFound) {
		return err
	}
	return s.repo.Save(ctx, key, domain.NewProgressState(s.now()))
}

// Delete drops the partition. Deleting a missing partition is not an error.
func (s *ProgressService) Delete(ctx context.Context, key string) error {
	unlock := s.locks.lock(key)
	defer unlock()
	return s.repo.Delete(ctx, key)
}

type ProgressOverview struct {
	Date            string               `json:"date"`
	CurrentWeek     int                  `json:"currentWeek"`
	CurrentPhase    int                  `json:"currentPhase"`
	CurrentMonth    int                  `json:"currentMonth"`
	WeekProgress    int                  `json:"weekProgress"`
	PhaseProgress   int                  `json:"phaseProgress"`
	OverallProgress int                  `json:"overallProgress"`
	CompletedTasks  int                  `json:"completedTasks"`
	TotalTasks      int                  `json:"totalTasks"`
	TodayHabits     domain.HabitProgress `json:"todayHabits"`
	Level           domain.LevelStatus   `json:"level"`
	Points          domain.Points        `json:"points"`
	Streak          domain.Streak        `json:"streak"`
}

func (s *ProgressService) Overview(ctx context.Context, key string) (*ProgressOverview, error) {
	p, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}

	now := s.now()
	week := p.CurrentWeek(now)
	phase := p.CurrentPhase(now)

	return &ProgressOverview{
		Date:            domain.DateKey(now),
		CurrentWeek:     week,
		CurrentPhase:    phase,
		CurrentMonth:    p.CurrentMonth(now),
		WeekProgress:    p.WeekProgress(s.catalog, week),
		PhaseProgress:   p.PhaseProgress(s.catalog, phase),
		OverallProgress: p.OverallProgress(s.catalog),
		CompletedTasks:  p.CompletedTasksCount(),
		TotalTasks:      s.catalog.TotalTasks(),
		TodayHabits:     p.TodayHabitsProgress(s.catalog, now),
		Level:           p.CurrentLevel(s.catalog),
		Points:          p.Points,
		Streak:          p.Streak,
	}, nil
}

type TaskView struct {
	domain.WeekTask
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Note        string     `json:"note,omitempty"`
}

type WeekView struct {
	domain.Week
	Progress int        `json:"progress"`
	Tasks    []TaskView `json:"tasks"`
}

type PhaseView struct {
	domain.Phase
	Progress int `json:"progress"`
}

func (s *ProgressService) taskViews(p *domain.ProgressState, tasks []domain.WeekTask) []TaskView {
	out := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		rec := p.Tasks[t.ID]
		out = append(out, TaskView{WeekTask: t, Completed: rec.Completed, CompletedAt: rec.CompletedAt, Note: p.Notes[t.ID]})
	}
	return out
}

func (s *ProgressService) Week(ctx context.Context, key string, number int) (*WeekView, error) {
	w, ok := s.catalog.Week(number)
	if !ok {
		return nil, domain.ErrInvalidWeekNumber
	}
	p, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}

	tasks := make([]domain.WeekTask, 0, len(w.Tasks))
	for _, t := range w.Tasks {
		tasks = append(tasks, domain.WeekTask{Task: t, Week: w.Number})
	}
	return &WeekView{Week: w, Progress: p.WeekProgress(s.catalog, number), Tasks: s.taskViews(p, tasks)}, nil
}

func (s *ProgressService) Phase(ctx context.Context, key string, id int) (*PhaseView, error) {
	ph, ok := s.catalog.Phase(id)
	if !ok {
		return nil, ErrPhaseNotFound
	}
	p, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	return &PhaseView{Phase: ph, Progress: p.PhaseProgress(s.catalog, id)}, nil
}

func (s *ProgressService) TasksByCategory(ctx context.Context, key, category string) ([]TaskView, error) {
	p, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.taskViews(p, s.catalog.TasksByCategory(category)), nil
}

type ToggleResult struct {
	Completed bool           `json:"completed"`
	Points    domain.Points  `json:"points"`
	Streak    domain.Streak  `json:"streak"`
	NewBadges []domain.Badge `json:"newBadges"`
}

func resolvePoints(given *int, known bool, catalogPoints int) (int, error) {
	if given != nil {
		if *given <= 0 {
			return 0, ErrInvalidPoints
		}
		return *given, nil
	}
	if !known {
		return 0, ErrUnknownItem
	}
	return catalogPoints, nil
}

func (s *ProgressService) badgesSince(p *domain.ProgressState, before int) []domain.Badge {
	out := []domain.Badge{}
	if before >= len(p.EarnedBadges) {
		return out
	}
	for _, id := range p.EarnedBadges[before:] {
		for _, b := range s.catalog.Badges {
			if b.ID == id {
				out = append(out, b)
			}
		}
	}
	return out
}

// ToggleTask uses the catalog's points when points is nil. Unknown task ids
// are accepted when points are supplied.
func (s *ProgressService) ToggleTask(ctx context.Context, key, taskID string, points *int) (*ToggleResult, error) {
	task, known := s.catalog.Task(taskID)
	pts, err := resolvePoints(points, known, task.Points)
	if err != nil {
		return nil, err
	}

	var res ToggleResult
	p, err := s.mutate(ctx, key, "task", func(p *domain.ProgressState, now time.Time) error {
		before := len(p.EarnedBadges)
		res.Completed = p.ToggleTask(s.catalog, taskID, pts, now)
		res.NewBadges = s.badgesSince(p, before)
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.Points, res.Streak = p.Points, p.Streak
	return &res, nil
}

func (s *ProgressService) ToggleDailyHabit(ctx context.Context, key, habitID string, points *int) (*ToggleResult, error) {
	habit, known := s.catalog.DailyHabit(habitID)
	pts, err := resolvePoints(points, known, habit.Points)
	if err != nil {
		return nil, err
	}

	var res ToggleResult
	p, err := s.mutate(ctx, key, "habit", func(p *domain.ProgressState, now time.Time) error {
		res.Completed = p.ToggleDailyHabit(habitID, pts, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.Points, res.Streak, res.NewBadges = p.Points, p.Streak, []domain.Badge{}
	return &res, nil
}

func (s *ProgressService) ToggleWeeklyContent(ctx context.Context, key, contentID string, week int, points *int) (*ToggleResult, error) {
	if week < 1 || week > domain.TotalWeeks {
		return nil, domain.ErrInvalidWeekNumber
	}
	item, known := s.catalog.WeeklyContentItem(contentID)
	pts, err := resolvePoints(points, known, item.Points)
	if err != nil {
		return nil, err
	}

	var res ToggleResult
	p, err := s.mutate(ctx, key, "content", func(p *domain.ProgressState, now time.Time) error {
		res.Completed = p.ToggleWeeklyContent(contentID, week, pts, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.Points, res.Streak, res.NewBadges = p.Points, p.Streak, []domain.Badge{}
	return &res, nil
}

func (s *ProgressService) AddPoints(ctx context.Context, key string, amount int, reason string) (*domain.Points, error) {
	if amount <= 0 {
		return nil, ErrInvalidPoints
	}
	p, err := s.mutate(ctx, key, "manual", func(p *domain.ProgressState, now time.Time) error {
		p.AddPoints(amount, reason, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p.Points, nil
}

type StreakResult struct {
	Streak domain.Streak `json:"streak"`
	Bonus  int           `json:"bonus"`
}

func (s *ProgressService) UpdateStreak(ctx context.Context, key string) (*StreakResult, error) {
	var bonus int
	p, err := s.mutate(ctx, key, "streak", func(p *domain.ProgressState, now time.Time) error {
		bonus = p.UpdateStreak(now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &StreakResult{Streak: p.Streak, Bonus: bonus}, nil
}

func (s *ProgressService) CheckBadges(ctx context.Context, key string) ([]domain.Badge, error) {
	earned := []domain.Badge{}
	_, err := s.mutate(ctx, key, "badge", func(p *domain.ProgressState, now time.Time) error {
		earned = append(earned, p.CheckBadges(s.catalog, now)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return earned, nil
}

// UpdateKPI stores raw coerced to a number; anything unparsable stores 0.
func (s *ProgressService) UpdateKPI(ctx context.Context, key, metricID string, month int, raw any) (domain.KPISeries, error) {
	value := domain.ParseKPIValue(raw)

	p, err := s.mutate(ctx, key, "kpi", func(p *domain.ProgressState, now time.Time) error {
		return p.UpdateKPI(metricID, month, value)
	})
	if err != nil {
		return nil, err
	}
	return p.KPIs[metricID], nil
}

func (s *ProgressService) AddNote(ctx context.Context, key, taskID, note string) error {
	_, err := s.mutate(ctx, key, "note", func(p *domain.ProgressState, now time.Time) error {
		p.AddNote(taskID, note)
		return nil
	})
	return err
}

type ChallengeResult struct {
	Completed bool          `json:"completed"`
	Points    domain.Points `json:"points"`
}

// CompleteChallenge reports Completed=false when the challenge was already done.
func (s *ProgressService) CompleteChallenge(ctx context.Context, key, challengeID string, points *int) (*ChallengeResult, error) {
	ch, known := s.catalog.Challenge(challengeID)
	pts, err := resolvePoints(points, known, ch.Points)
	if err != nil {
		return nil, err
	}

	var done bool
	p, err := s.mutate(ctx, key, "challenge", func(p *domain.ProgressState, now time.Time) error {
		done = p.CompleteChallenge(challengeID, pts, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ChallengeResult{Completed: done, Points: p.Points}, nil
}

func (s *ProgressService) updateSettings(ctx context.Context, key string, fn func(p *domain.ProgressState) error) (*domain.Settings, error) {
	p, err := s.mutate(ctx, key, "settings", func(p *domain.ProgressState, now time.Time) error {
		return fn(p)
	})
	if err != nil {
		return nil, err
	}
	return &p.Settings, nil
}

func (s *ProgressService) SetStartDate(ctx context.Context, key, date string) (*domain.Settings, error) {
	return s.updateSettings(ctx, key, func(p *domain.ProgressState) error {
		return p.SetStartDate(date)
	})
}

func (s *ProgressService) ToggleSound(ctx context.Context, key string) (*domain.Settings, error) {
	return s.updateSettings(ctx, key, func(p *domain.ProgressState) error {
		p.ToggleSound()
		return nil
	})
}

func (s *ProgressService) ToggleNotifications(ctx context.Context, key string) (*domain.Settings, error) {
	return s.updateSettings(ctx, key, func(p *domain.ProgressState) error {
		p.ToggleNotifications()
		return nil
	})
}

func (s *ProgressService) SetTheme(ctx context.Context, key string, theme domain.Theme) (*domain.Settings, error) {
	return s.updateSettings(ctx, key, func(p *domain.ProgressState) error {
		return p.SetTheme(theme)
	})
}

func (s *ProgressService) CycleTheme(ctx context.Context, key string) (*domain.Settings, error) {
	return s.updateSettings(ctx, key, func(p *domain.ProgressState) error {
		p.CycleTheme()
		return nil
	})
}

func (s *ProgressService) Reset(ctx context.Context, key string) (*domain.ProgressState, error) {
	return s.mutate(ctx, key, "reset", func(p *domain.ProgressState, now time.Time) error {
		p.Reset()
		return nil
	})
}

func (s *ProgressService) Export(ctx context.Context, key string) ([]byte, error) {
	p, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	return p.Export()
}

// Import replaces the partition with the parsed document. Malformed input
// returns ErrInvalidImport and leaves the stored state untouched.
func (s *ProgressService) Import(ctx context.Context, key string, data []byte) (*domain.ProgressState, error) {
	imported, ok := domain.ImportProgress(data, s.now())
	if !ok {
		return nil, ErrInvalidImport
	}

	unlock := s.locks.lock(key)
	defer unlock()

	if err := s.repo.Save(ctx, key, imported); err != nil {
		return nil, err
	}
	return imported, nil
}
