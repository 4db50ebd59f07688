package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Gate decisions, used as the "decision" label.
const (
	DecisionAccepted  = "accepted"
	DecisionRejected  = "rejected"
	DecisionModerated = "moderated"
)

// Recommendation Prometheus metrics.
var (
	RecommendDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "librarian",
			Name:      "recommend_decisions_total",
			Help:      "Recommendation outcomes by gate decision",
		},
		[]string{"decision"},
	)

	RecommendScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "librarian",
			Name:      "recommend_match_score",
			Help:      "Score of the nearest catalog match, before gating",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	ImageFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "librarian",
			Name:      "recommend_image_failures_total",
			Help:      "Cover illustrations that failed and were omitted",
		},
	)
)

var recommendOnce sync.Once

// RegisterRecommendMetrics registers recommendation metrics. Safe to call more than once.
func RegisterRecommendMetrics() {
	recommendOnce.Do(func() {
		prometheus.MustRegister(RecommendDecisionsTotal, RecommendScore, ImageFailuresTotal)
	})
}
