package dispatcher

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	executionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "redemptiond_execution_duration_seconds",
		Help:    "Time spent executing a redemption's reward handler.",
		Buckets: prometheus.DefBuckets,
	}, []string{"status", "reward_kind"})

	executionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "redemptiond_executions_total",
		Help: "Redemptions processed, by outcome status and reward kind.",
	}, []string{"status", "reward_kind"})
)

func observeOutcome(status, rewardKind string, elapsed time.Duration) {
	executionDuration.WithLabelValues(status, rewardKind).Observe(elapsed.Seconds())
	executionTotal.WithLabelValues(status, rewardKind).Inc()
}
