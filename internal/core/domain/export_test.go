package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-growth-engine/internal/catalog"
	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/domain"
)

func TestProgressState_ExportImport(t *testing.T) {
	now := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	cat := catalog.Default()

	t.Run("Success: export then import restores state", func(t *testing.T) {
		p := domain.NewProgressState(now)
		p.ToggleTask(cat, "w1t1", 50, now)
		p.ToggleDailyHabit("daily3", 5, now)
		require.NoError(t, p.UpdateKPI("calls", 1, 12))
		p.AddNote("w1t1", "done early")
		require.NoError(t, p.SetTheme(domain.ThemeMixed))

		data, err := p.Export()
		require.NoError(t, err)
		assert.Contains(t, string(data), "\n  \"settings\"")

		restored, ok := domain.ImportProgress(data, now.AddDate(0, 1, 0))
		require.True(t, ok)
		assert.Equal(t, p, restored)
	})

	t.Run("Success: missing sections take defaults", func(t *testing.T) {
		restored, ok := domain.ImportProgress([]byte(`{"tasks":{"w2t1":{"completed":true,"completedAt":null}},"kpis":{"mrr":[100,0,0,0,0,0]}}`), now)
		require.True(t, ok)

		assert.True(t, restored.Tasks["w2t1"].Completed)
		assert.Equal(t, domain.DefaultSettings(now), restored.Settings)
		assert.Equal(t, 100.0, restored.KPIs["mrr"].Get(0))
		assert.Len(t, restored.KPIs, len(domain.KPIMetricIDs))
		assert.NotNil(t, restored.Notes)
		assert.Empty(t, restored.EarnedBadges)
	})

	t.Run("Error: malformed input is rejected whole", func(t *testing.T) {
		inputs := []string{
			``,
			`[]`,
			`"text"`,
			`{"tasks": {`,
			`{"points": "lots"}`,
			`{"kpis": {"mrr": {"9": 1}}}`,
		}
		for _, in := range inputs {
			restored, ok := domain.ImportProgress([]byte(in), now)
			assert.False(t, ok, in)
			assert.Nil(t, restored, in)
		}
	})

	t.Run("Success: imported history and streak are clamped", func(t *testing.T) {
		p := domain.NewProgressState(now)
		for i := 0; i < domain.MaxPointHistory+50; i++ {
			p.Points.History = append(p.Points.History, domain.PointEntry{Amount: i, Reason: "legacy", Date: now})
		}
		p.Streak = domain.Streak{Current: 9, Longest: 3}

		data, err := p.Export()
		require.NoError(t, err)

		restored, ok := domain.ImportProgress(data, now)
		require.True(t, ok)

		require.Len(t, restored.Points.History, domain.MaxPointHistory)
		assert.Equal(t, 0, restored.Points.History[0].Amount)
		assert.Equal(t, 9, restored.Streak.Current)
		assert.Equal(t, 9, restored.Streak.Longest)
	})
}
