package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-growth-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-growth-engine/internal/catalog"
	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/services"
)

func TestDashboardService_GetDashboard(t *testing.T) {
	ctx := context.Background()
	now := serviceNow
	clock := func() time.Time { return now }

	progress := services.NewProgressService(
		repository.NewProgressRepository(repository.NewInMemoryDocumentStore()),
		catalog.Default(), nil,
	).WithClock(clock)
	goals := services.NewGoalService(
		repository.NewGoalRepository(repository.NewInMemoryDocumentStore()), adminEmail,
	).WithClock(clock)
	svc := services.NewDashboardService(progress, goals).WithClock(clock)

	_, err := progress.ToggleTask(ctx, progressKey, "w1t1", nil)
	require.NoError(t, err)
	_, err = progress.UpdateKPI(ctx, progressKey, "posts", 0, 4)
	require.NoError(t, err)
	_, err = goals.SetGoal(ctx, goalsKey, domain.GoalYearly, "", services.GoalInput{Title: "year", Target: 500})
	require.NoError(t, err)

	t.Run("Success: Aggregates progress and goals", func(t *testing.T) {
		stats, err := svc.GetDashboard(ctx, progressKey, goalsKey)
		require.NoError(t, err)

		assert.Equal(t, "2026-03-10", stats.Date)
		assert.Equal(t, 1, stats.CurrentWeek)
		assert.Equal(t, 1, stats.CurrentPhase.ID)
		assert.Equal(t, 25, stats.WeekProgress)
		assert.Equal(t, 50, stats.Points)
		assert.Equal(t, 50, stats.PointsToday)
		assert.Equal(t, 1, stats.CompletedTasks)
		assert.Equal(t, len(catalog.Default().Badges), stats.TotalBadges)
		assert.Len(t, stats.PhaseWeeks, 4)
		assert.Equal(t, domain.WeekStat{Week: 1, Progress: 25}, stats.PhaseWeeks[0])

		require.NotNil(t, stats.PrimaryGoal)
		assert.Equal(t, "year", stats.PrimaryGoal.Title)

		quotes := catalog.Default().Quotes
		require.NotNil(t, stats.Quote)
		assert.Equal(t, quotes[serviceNow.YearDay()%len(quotes)], *stats.Quote)

		var posts domain.KPIStat
		for _, k := range stats.KPIs {
			if k.MetricID == "posts" {
				posts = k
			}
		}
		assert.Equal(t, 4.0, posts.Value)
		assert.Equal(t, 5.0, posts.Target)
		assert.Equal(t, 80.0, posts.Rate)
	})

	t.Run("Success: Points today resets on a new day", func(t *testing.T) {
		now = serviceNow.AddDate(0, 0, 1)
		defer func() { now = serviceNow }()

		stats, err := svc.GetDashboard(ctx, progressKey, goalsKey)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.PointsToday)
		assert.Equal(t, 50, stats.Points)
	})

	t.Run("Error: Progress failure propagates", func(t *testing.T) {
		repo := new(MockProgressRepo)
		broken := services.NewProgressService(repo, catalog.Default(), nil)
		dbErr := errors.New("timeout")
		repo.On("Load", mock.Anything, progressKey).Return(nil, dbErr)

		_, err := services.NewDashboardService(broken, goals).GetDashboard(ctx, progressKey, goalsKey)
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestCompletionRateCaps(t *testing.T) {
	ctx := context.Background()
	progress := services.NewProgressService(
		repository.NewProgressRepository(repository.NewInMemoryDocumentStore()),
		catalog.Default(), nil,
	).WithClock(func() time.Time { return serviceNow })
	goals := newGoalService()
	svc := services.NewDashboardService(progress, goals).WithClock(func() time.Time { return serviceNow })

	_, err := progress.UpdateKPI(ctx, progressKey, "posts", 0, 50)
	require.NoError(t, err)

	stats, err := svc.GetDashboard(ctx, progressKey, goalsKey)
	require.NoError(t, err)
	assert.Nil(t, stats.PrimaryGoal)

	for _, k := range stats.KPIs {
		switch k.MetricID {
		case "posts":
			assert.Equal(t, 100.0, k.Rate)
		case "mrr":
			assert.Equal(t, 0.0, k.Rate, "zero target yields zero rate")
		}
	}
}
