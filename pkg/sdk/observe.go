package taginput

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels of an observed call.
const (
	outcomeOK            = "ok"
	outcomeMisconfigured = "misconfigured"
	outcomeNotFound      = "not_found"
	outcomeError         = "error"
)

// outcome buckets err so that a misconfigured field can be told apart from
// a failing record store.
func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ErrMisconfigured):
		return outcomeMisconfigured
	case errors.Is(err, ErrRecordNotFound):
		return outcomeNotFound
	default:
		return outcomeError
	}
}

// fieldMetrics counts suggest, load and submit calls per tag field.
type fieldMetrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newFieldMetrics(reg prometheus.Registerer) (*fieldMetrics, error) {
	m := &fieldMetrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taginput",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "SDK calls by operation, tag field and outcome.",
		}, []string{"operation", "field", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "taginput",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK call latency by operation.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
	}
	if err := registerShared(reg, &m.calls); err != nil {
		return nil, err
	}
	if err := registerShared(reg, &m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// registerShared registers c, or swaps in the collector a previous Client
// registered under the same name.
func registerShared[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("taginput: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("taginput: metric registered as %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// observer logs and counts calls. A nil observer, or one without a logger
// or registry, drops what it lacks.
type observer struct {
	logger  *slog.Logger
	metrics *fieldMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newFieldMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// observe records one call. fieldName is empty for client-level calls.
func (o *observer) observe(op, fieldName string, start time.Time, err error) {
	if o == nil {
		return
	}
	elapsed := time.Since(start)
	status := outcome(err)

	if o.metrics != nil {
		o.metrics.calls.WithLabelValues(op, fieldName, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(elapsed.Seconds())
	}
	if o.logger == nil {
		return
	}

	attrs := []any{"op", op, "duration", elapsed}
	if fieldName != "" {
		attrs = append(attrs, "field", fieldName)
	}
	switch status {
	case outcomeOK:
		o.logger.Debug("taginput call", attrs...)
	case outcomeMisconfigured:
		o.logger.Error("taginput field misconfigured", append(attrs, "error", err)...)
	default:
		o.logger.Warn("taginput call failed", append(attrs, "status", status, "error", err)...)
	}
}
