package metrics

import "github.com/prometheus/client_golang/prometheus"

// Tag field Prometheus metrics.
var (
	TagSuggestResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "taginput",
			Name:      "suggest_results",
			Help:      "Number of suggestions returned per suggest request",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 1000},
		},
		[]string{"field", "mode"}, // mode: static / relation / scalar
	)

	TagsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taginput",
			Name:      "tags_created_total",
			Help:      "Tag records created on demand while saving",
		},
		[]string{"field"},
	)

	TagFieldSavesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taginput",
			Name:      "saves_total",
			Help:      "Tag field saves by storage mode and outcome",
		},
		[]string{"field", "mode", "status"},
	)
)

var tagFieldMetricsRegistered bool

// RegisterTagFieldMetrics registers the tag field metrics. Must be called once from main.
func RegisterTagFieldMetrics() {
	if tagFieldMetricsRegistered {
		return
	}
	prometheus.MustRegister(TagSuggestResults)
	prometheus.MustRegister(TagsCreatedTotal)
	prometheus.MustRegister(TagFieldSavesTotal)
	tagFieldMetricsRegistered = true
}
