package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Upstream operations, used as the "operation" label.
const (
	OpEmbedding     = "embedding"
	OpModeration    = "moderation"
	OpChat          = "chat"
	OpImage         = "image"
	OpSpeech        = "speech"
	OpTranscription = "transcription"
)

// Model API Prometheus metrics.
var (
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "librarian",
			Name:      "upstream_requests_total",
			Help:      "Total number of model API requests",
		},
		[]string{"operation", "model", "status"},
	)

	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "librarian",
			Name:      "upstream_request_duration_seconds",
			Help:      "Model API request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation", "model"},
	)

	UpstreamTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "librarian",
			Name:      "upstream_tokens_total",
			Help:      "Total model API tokens consumed",
		},
		[]string{"operation", "model", "type"},
	)

	UpstreamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "librarian",
			Name:      "upstream_errors_total",
			Help:      "Total model API errors",
		},
		[]string{"operation", "model", "error_type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "librarian",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var upstreamOnce sync.Once

// RegisterUpstreamMetrics registers model API metrics. Safe to call more than once.
func RegisterUpstreamMetrics() {
	upstreamOnce.Do(func() {
		prometheus.MustRegister(
			UpstreamRequestsTotal,
			UpstreamRequestDuration,
			UpstreamTokensTotal,
			UpstreamErrorsTotal,
			EmbeddingCacheTotal,
		)
	})
}

// ObserveUpstream records the outcome of one model API call.
// errType is empty on success.
func ObserveUpstream(operation, model string, d time.Duration, errType string) {
	if errType != "" {
		UpstreamRequestsTotal.WithLabelValues(operation, model, "error").Inc()
		UpstreamErrorsTotal.WithLabelValues(operation, model, errType).Inc()
		return
	}
	UpstreamRequestsTotal.WithLabelValues(operation, model, "success").Inc()
	UpstreamRequestDuration.WithLabelValues(operation, model).Observe(d.Seconds())
}

// AddTokens records consumed prompt and total tokens. Zero usage is skipped.
func AddTokens(operation, model string, prompt, total int) {
	if total <= 0 {
		return
	}
	UpstreamTokensTotal.WithLabelValues(operation, model, "prompt").Add(float64(prompt))
	UpstreamTokensTotal.WithLabelValues(operation, model, "total").Add(float64(total))
}
