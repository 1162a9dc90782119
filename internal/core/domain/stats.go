package domain

type KPIStat struct {
	MetricID string  `json:"metricId"`
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Value    float64 `json:"value"`
	Target   float64 `json:"target"`
	Rate     float64 `json:"completionRate"`
}

type WeekStat struct {
	Week     int `json:"week"`
	Progress int `json:"progress"`
}

type DashboardStats struct {
	Date            string        `json:"date"`
	CurrentWeek     int           `json:"currentWeek"`
	CurrentPhase    Phase         `json:"currentPhase"`
	CurrentMonth    int           `json:"currentMonth"`
	WeekProgress    int           `json:"weekProgress"`
	PhaseProgress   int           `json:"phaseProgress"`
	OverallProgress int           `json:"overallProgress"`
	CompletedTasks  int           `json:"completedTasks"`
	TotalTasks      int           `json:"totalTasks"`
	TodayHabits     HabitProgress `json:"todayHabits"`
	Level           LevelStatus   `json:"level"`
	Points          int           `json:"points"`
	PointsToday     int           `json:"pointsToday"`
	Streak          Streak        `json:"streak"`
	EarnedBadges    int           `json:"earnedBadges"`
	TotalBadges     int           `json:"totalBadges"`
	KPIs            []KPIStat     `json:"kpis"`
	PhaseWeeks      []WeekStat    `json:"phaseWeeks"`
	PrimaryGoal     *GoalProgress `json:"primaryGoal"`
	Quote           *Quote        `json:"quote,omitempty"`
}
