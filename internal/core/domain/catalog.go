package domain

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var ErrInvalidCatalog = errors.New("invalid catalog")

const (
	TotalWeeks    = 24
	TotalPhases   = 6
	KPIMonths     = 6
	weeksPerPhase = 4
)

type TaskCategory string

const (
	CategoryStrategy   TaskCategory = "strategy"
	CategoryMarketing  TaskCategory = "marketing"
	CategorySales      TaskCategory = "sales"
	CategoryContent    TaskCategory = "content"
	CategoryOperations TaskCategory = "operations"
	CategoryDelivery   TaskCategory = "delivery"
)

type TaskPriority string

const (
	PriorityCritical TaskPriority = "critical"
	PriorityHigh     TaskPriority = "high"
	PriorityMedium   TaskPriority = "medium"
	PriorityLow      TaskPriority = "low"
)

type BadgeCondition string

const (
	ConditionWeek1Complete      BadgeCondition = "week1Complete"
	ConditionPhase1Complete     BadgeCondition = "phase1Complete"
	ConditionPhase3Complete     BadgeCondition = "phase3Complete"
	ConditionPosts10            BadgeCondition = "posts10"
	ConditionPosts50            BadgeCondition = "posts50"
	ConditionFirstClient        BadgeCondition = "firstClient"
	ConditionClients10          BadgeCondition = "clients10"
	ConditionStreak7            BadgeCondition = "streak7"
	ConditionStreak14           BadgeCondition = "streak14"
	ConditionStreak30           BadgeCondition = "streak30"
	ConditionMRR5k              BadgeCondition = "mrr5k"
	ConditionMRR10k             BadgeCondition = "mrr10k"
	ConditionPerfectWeek        BadgeCondition = "perfectWeek"
	ConditionEarlyBird          BadgeCondition = "earlyBird"
	ConditionAutomationComplete BadgeCondition = "automationComplete"
)

type Meta struct {
	AgencyName  string  `json:"agencyName" yaml:"agencyName"`
	Owner       string  `json:"owner" yaml:"owner"`
	Website     string  `json:"website" yaml:"website"`
	GoalMRR     float64 `json:"goalMRR" yaml:"goalMRR"`
	TotalWeeks  int     `json:"totalWeeks" yaml:"totalWeeks"`
	TotalPhases int     `json:"totalPhases" yaml:"totalPhases"`
}

type Phase struct {
	ID        int      `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	ShortName string   `json:"shortName" yaml:"shortName"`
	Theme     string   `json:"theme" yaml:"theme"`
	Month     int      `json:"month" yaml:"month"`
	Weeks     []int    `json:"weeks" yaml:"weeks"`
	MainGoal  string   `json:"mainGoal" yaml:"mainGoal"`
	TargetMRR float64  `json:"targetMRR" yaml:"targetMRR"`
	Color     string   `json:"color" yaml:"color"`
	Icon      string   `json:"icon" yaml:"icon"`
	KPIs      []string `json:"kpis" yaml:"kpis"`
}

type Task struct {
	ID          string       `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description" yaml:"description"`
	Points      int          `json:"points" yaml:"points"`
	Category    TaskCategory `json:"category" yaml:"category"`
	Priority    TaskPriority `json:"priority" yaml:"priority"`
}

// WeekTask is a task annotated with the week it belongs to.
type WeekTask struct {
	Task
	Week int `json:"week"`
}

type Week struct {
	Number      int    `json:"number" yaml:"number"`
	Title       string `json:"title" yaml:"title"`
	Phase       int    `json:"phase" yaml:"phase"`
	Description string `json:"description" yaml:"description"`
	Tasks       []Task `json:"tasks" yaml:"tasks"`
}

type DailyHabit struct {
	ID          string       `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description" yaml:"description"`
	Points      int          `json:"points" yaml:"points"`
	Category    TaskCategory `json:"category" yaml:"category"`
	Icon        string       `json:"icon" yaml:"icon"`
}

type WeeklyContent struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Points      int    `json:"points" yaml:"points"`
	Day         string `json:"day" yaml:"day"`
	Icon        string `json:"icon" yaml:"icon"`
}

type Challenge struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Points      int    `json:"points" yaml:"points"`
	Icon        string `json:"icon" yaml:"icon"`
}

type Challenges struct {
	Daily  []Challenge `json:"daily" yaml:"daily"`
	Weekly []Challenge `json:"weekly" yaml:"weekly"`
}

type Badge struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Icon        string         `json:"icon" yaml:"icon"`
	Description string         `json:"description" yaml:"description"`
	Condition   BadgeCondition `json:"condition" yaml:"condition"`
	Rarity      string         `json:"rarity" yaml:"rarity"`
}

// Level is a points band. MaxPoints == 0 marks the open-ended top level.
type Level struct {
	Level     int    `json:"level" yaml:"level"`
	Name      string `json:"name" yaml:"name"`
	MinPoints int    `json:"minPoints" yaml:"minPoints"`
	MaxPoints int    `json:"maxPoints,omitempty" yaml:"maxPoints"`
	Icon      string `json:"icon" yaml:"icon"`
	Color     string `json:"color" yaml:"color"`
}

func (l Level) Unbounded() bool {
	return l.MaxPoints == 0
}

type KPIMetric struct {
	ID      string    `json:"id" yaml:"id"`
	Name    string    `json:"name" yaml:"name"`
	Unit    string    `json:"unit" yaml:"unit"`
	Targets []float64 `json:"targets" yaml:"targets"`
	Icon    string    `json:"icon" yaml:"icon"`
}

// Target returns the target for a zero-based month index, or 0 when out of range.
func (m KPIMetric) Target(month int) float64 {
	if month < 0 || month >= len(m.Targets) {
		return 0
	}
	return m.Targets[month]
}

type Quote struct {
	Text   string `json:"text" yaml:"text"`
	Author string `json:"author" yaml:"author"`
}

type Catalog struct {
	Meta          Meta            `json:"meta" yaml:"meta"`
	Phases        []Phase         `json:"phases" yaml:"phases"`
	Weeks         []Week          `json:"weeks" yaml:"weeks"`
	DailyHabits   []DailyHabit    `json:"dailyHabits" yaml:"dailyHabits"`
	WeeklyContent []WeeklyContent `json:"weeklyContent" yaml:"weeklyContent"`
	Challenges    Challenges      `json:"challenges" yaml:"challenges"`
	Badges        []Badge         `json:"badges" yaml:"badges"`
	Levels        []Level         `json:"levels" yaml:"levels"`
	KPIMetrics    []KPIMetric     `json:"kpiMetrics" yaml:"kpiMetrics"`
	Quotes        []Quote         `json:"quotes" yaml:"quotes"`

	tasks map[string]WeekTask
}

// LoadCatalog parses and validates a YAML growth plan.
func LoadCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) index() error {
	if len(c.Weeks) != TotalWeeks {
		return fmt.Errorf("%w: expected %d weeks, got %d", ErrInvalidCatalog, TotalWeeks, len(c.Weeks))
	}
	if len(c.Phases) != TotalPhases {
		return fmt.Errorf("%w: expected %d phases, got %d", ErrInvalidCatalog, TotalPhases, len(c.Phases))
	}

	c.tasks = make(map[string]WeekTask)
	for i, w := range c.Weeks {
		if w.Number != i+1 {
			return fmt.Errorf("%w: week at position %d has number %d", ErrInvalidCatalog, i+1, w.Number)
		}
		if w.Phase < 1 || w.Phase > TotalPhases {
			return fmt.Errorf("%w: week %d has phase %d", ErrInvalidCatalog, w.Number, w.Phase)
		}
		for _, t := range w.Tasks {
			if t.Points <= 0 {
				return fmt.Errorf("%w: task %s has non-positive points", ErrInvalidCatalog, t.ID)
			}
			if _, dup := c.tasks[t.ID]; dup {
				return fmt.Errorf("%w: duplicate task id %s", ErrInvalidCatalog, t.ID)
			}
			c.tasks[t.ID] = WeekTask{Task: t, Week: w.Number}
		}
	}

	for _, h := range c.DailyHabits {
		if h.Points <= 0 {
			return fmt.Errorf("%w: habit %s has non-positive points", ErrInvalidCatalog, h.ID)
		}
	}

	for _, m := range c.KPIMetrics {
		if len(m.Targets) != KPIMonths {
			return fmt.Errorf("%w: kpi %s needs %d monthly targets", ErrInvalidCatalog, m.ID, KPIMonths)
		}
	}

	if len(c.Levels) == 0 {
		return fmt.Errorf("%w: no levels", ErrInvalidCatalog)
	}
	for i := 1; i < len(c.Levels); i++ {
		if c.Levels[i].MinPoints <= c.Levels[i-1].MinPoints {
			return fmt.Errorf("%w: levels must ascend by minPoints", ErrInvalidCatalog)
		}
	}

	return nil
}

func (c *Catalog) Week(number int) (Week, bool) {
	if number < 1 || number > len(c.Weeks) {
		return Week{}, false
	}
	return c.Weeks[number-1], true
}

func (c *Catalog) Phase(id int) (Phase, bool) {
	for _, p := range c.Phases {
		if p.ID == id {
			return p, true
		}
	}
	return Phase{}, false
}

func (c *Catalog) Task(id string) (WeekTask, bool) {
	t, ok := c.tasks[id]
	return t, ok
}

func (c *Catalog) AllTasks() []WeekTask {
	out := make([]WeekTask, 0, len(c.tasks))
	for _, w := range c.Weeks {
		for _, t := range w.Tasks {
			out = append(out, WeekTask{Task: t, Week: w.Number})
		}
	}
	return out
}

func (c *Catalog) TasksForPhase(phase int) []WeekTask {
	var out []WeekTask
	for _, w := range c.Weeks {
		if w.Phase != phase {
			continue
		}
		for _, t := range w.Tasks {
			out = append(out, WeekTask{Task: t, Week: w.Number})
		}
	}
	return out
}

// TasksByCategory returns every task when category is "all".
func (c *Catalog) TasksByCategory(category string) []WeekTask {
	all := c.AllTasks()
	if category == "all" {
		return all
	}
	out := make([]WeekTask, 0)
	for _, t := range all {
		if string(t.Category) == category {
			out = append(out, t)
		}
	}
	return out
}

func (c *Catalog) TotalTasks() int {
	return len(c.tasks)
}

func (c *Catalog) DailyHabit(id string) (DailyHabit, bool) {
	for _, h := range c.DailyHabits {
		if h.ID == id {
			return h, true
		}
	}
	return DailyHabit{}, false
}

func (c *Catalog) WeeklyContentItem(id string) (WeeklyContent, bool) {
	for _, wc := range c.WeeklyContent {
		if wc.ID == id {
			return wc, true
		}
	}
	return WeeklyContent{}, false
}

// Challenge looks up daily challenges first. Daily and weekly ids may overlap
// with weekly content ids but never with each other.
func (c *Catalog) Challenge(id string) (Challenge, bool) {
	for _, ch := range c.Challenges.Daily {
		if ch.ID == id {
			return ch, true
		}
	}
	for _, ch := range c.Challenges.Weekly {
		if ch.ID == id {
			return ch, true
		}
	}
	return Challenge{}, false
}

func (c *Catalog) KPIMetric(id string) (KPIMetric, bool) {
	for _, m := range c.KPIMetrics {
		if m.ID == id {
			return m, true
		}
	}
	return KPIMetric{}, false
}

// LevelFor returns the highest level reached with the given points and the next
// level, if any. Totals below every threshold fall back to the first level.
func (c *Catalog) LevelFor(points int) (Level, *Level) {
	for i := len(c.Levels) - 1; i >= 0; i-- {
		if points >= c.Levels[i].MinPoints {
			return c.Levels[i], c.nextLevel(i)
		}
	}
	return c.Levels[0], c.nextLevel(0)
}

func (c *Catalog) nextLevel(i int) *Level {
	if i+1 >= len(c.Levels) {
		return nil
	}
	next := c.Levels[i+1]
	return &next
}

// QuoteFor picks a quote deterministically from the day of the year.
func (c *Catalog) QuoteFor(dayOfYear int) (Quote, bool) {
	if len(c.Quotes) == 0 {
		return Quote{}, false
	}
	if dayOfYear < 0 {
		dayOfYear = -dayOfYear
	}
	return c.Quotes[dayOfYear%len(c.Quotes)], true
}
