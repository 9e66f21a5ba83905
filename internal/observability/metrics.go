package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"shipyard/pkg/domain"
)

// Metrics receives operation outcomes and load diagnostics.
type Metrics interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
	Diagnostic(diag domain.Diagnostic)
}

// Nop discards all metrics.
type Nop struct{}

func (Nop) Observe(context.Context, string, bool, time.Duration) {}
func (Nop) Diagnostic(domain.Diagnostic) {}

// OrNop returns m, or Nop when m is nil.
func OrNop(m Metrics) Metrics {
	if m == nil {
		return Nop{}
	}
	return m
}

// Recorder publishes operation and diagnostic counters to Prometheus.
type Recorder struct {
	operations  *prometheus.CounterVec
	durations   *prometheus.HistogramVec
	diagnostics *prometheus.CounterVec
}

var _ Metrics = (*Recorder)(nil)

// NewRecorder registers the shipyard collectors with reg. A nil registerer
// uses the default Prometheus registry.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shipyard_operations_total",
			Help: "Design engine operations by outcome.",
		}, []string{"operation", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shipyard_operation_duration_seconds",
			Help:    "Design engine operation latency.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"operation"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shipyard_load_diagnostics_total",
			Help: "Diagnostics emitted while loading designs.",
		}, []string{"severity", "code"}),
	}
	for _, c := range []prometheus.Collector{r.operations, r.durations, r.diagnostics} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe records one operation outcome.
func (r *Recorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.operations.WithLabelValues(operation, status).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

// Diagnostic counts one load diagnostic.
func (r *Recorder) Diagnostic(diag domain.Diagnostic) {
	r.diagnostics.WithLabelValues(string(diag.Severity), diag.Code).Inc()
}
