package http_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardHandler_Get(t *testing.T) {
	srv := setupServer(t, nil)
	token := srv.register(t, "dash@example.com")

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/v1/progress/tasks/w1t1/toggle", token, "").Code)
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPut, "/api/v1/progress/kpis/posts", token, `{"month": 0, "value": 5}`).Code)

	w := srv.do(t, http.MethodGet, "/api/v1/dashboard", token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stats struct {
		CurrentWeek    int `json:"currentWeek"`
		Points         int `json:"points"`
		PointsToday    int `json:"pointsToday"`
		CompletedTasks int `json:"completedTasks"`
		KPIs           []struct {
			MetricID string  `json:"metricId"`
			Value    float64 `json:"value"`
			Rate     float64 `json:"completionRate"`
		} `json:"kpis"`
		PhaseWeeks  []map[string]int `json:"phaseWeeks"`
		PrimaryGoal any              `json:"primaryGoal"`
		Quote       *struct {
			Author string `json:"author"`
		} `json:"quote"`
	}
	decodeData(t, w, &stats)

	assert.Equal(t, 1, stats.CurrentWeek)
	assert.Equal(t, 50, stats.Points)
	assert.Equal(t, 50, stats.PointsToday)
	assert.Equal(t, 1, stats.CompletedTasks)
	assert.NotEmpty(t, stats.PhaseWeeks)
	assert.Nil(t, stats.PrimaryGoal)
	require.NotNil(t, stats.Quote)

	for _, k := range stats.KPIs {
		if k.MetricID == "posts" {
			assert.Equal(t, 5.0, k.Value)
			assert.Equal(t, 100.0, k.Rate)
		}
	}
}
