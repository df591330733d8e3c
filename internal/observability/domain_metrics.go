package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	attemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querypilot_attempts_total",
			Help: "Total number of generate-execute attempts by outcome.",
		},
		[]string{"outcome"},
	)
	sessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querypilot_sessions_total",
			Help: "Total number of question sessions by terminal state.",
		},
		[]string{"state"},
	)
	repairsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "querypilot_repairs_total",
			Help: "Total number of retried attempts driven by database error feedback.",
		},
	)
	generationLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "querypilot_generation_latency_seconds",
			Help:    "Wall-clock latency of generation backend invocations.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"model"},
	)
	tierTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querypilot_question_tier_total",
			Help: "Total number of questions by classified complexity tier.",
		},
		[]string{"tier"},
	)
)

func init() {
	prometheus.MustRegister(attemptsTotal, sessionsTotal, repairsTotal, generationLatencySeconds, tierTotal)
}

func ObserveAttempt(outcome string) {
	attemptsTotal.WithLabelValues(outcome).Inc()
}

func ObserveSession(state string) {
	sessionsTotal.WithLabelValues(state).Inc()
}

func IncrementRepairs() {
	repairsTotal.Inc()
}

func ObserveGenerationLatency(model string, elapsed time.Duration) {
	generationLatencySeconds.WithLabelValues(model).Observe(elapsed.Seconds())
}

func ObserveTier(tier string) {
	tierTotal.WithLabelValues(tier).Inc()
}
