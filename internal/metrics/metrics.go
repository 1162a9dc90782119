package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kanso_growth"

type Metrics struct {
	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	PointsAwarded   *prometheus.CounterVec
	BadgesEarned    *prometheus.CounterVec
	SnapshotsSaved  prometheus.Counter
	SnapshotsFailed prometheus.Counter
	SnapshotsDrop   prometheus.Counter
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		RequestCounter: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		PointsAwarded: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "points_awarded_total",
				Help:      "Points credited to users",
			},
			[]string{"source"},
		),
		BadgesEarned: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "badges_earned_total",
				Help:      "Badges earned by users",
			},
			[]string{"badge"},
		),
		SnapshotsSaved: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_saved_total",
			Help:      "Partition snapshots written",
		}),
		SnapshotsFailed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_failed_total",
			Help:      "Partition snapshots that could not be written",
		}),
		SnapshotsDrop: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_dropped_total",
			Help:      "Snapshot jobs dropped because the queue was full",
		}),
	}
}

func (m *Metrics) PointsAwardedFor(source string, amount int) {
	if amount > 0 {
		m.PointsAwarded.WithLabelValues(source).Add(float64(amount))
	}
}

func (m *Metrics) BadgeEarned(badgeID string) {
	m.BadgesEarned.WithLabelValues(badgeID).Inc()
}

func (m *Metrics) SnapshotSaved()   { m.SnapshotsSaved.Inc() }
func (m *Metrics) SnapshotFailed()  { m.SnapshotsFailed.Inc() }
func (m *Metrics) SnapshotDropped() { m.SnapshotsDrop.Inc() }
