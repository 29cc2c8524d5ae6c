package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for permitflow. Every method is safe
// on a nil receiver so components can run without metrics in tests.
type Metrics struct {
	PermitsCreated     prometheus.Counter
	SyncWriteFailures  *prometheus.CounterVec
	StatusTransitions  *prometheus.CounterVec
	NotificationsSent  *prometheus.CounterVec
	DispatchFailures   *prometheus.CounterVec
	ReadLagRetries     prometheus.Counter
	OperationLatency   *prometheus.HistogramVec
	CascadeDeleteFails *prometheus.CounterVec
}

// New creates and registers all metrics on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PermitsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "permitflow_permits_created_total",
			Help: "Total number of permit applications created",
		}),

		SyncWriteFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "permitflow_subtype_write_failures_total",
			Help: "Subtype child writes that failed, by category",
		}, []string{"category"}), // category: "applicant", "taxpayer", "lessor", ...

		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "permitflow_status_transitions_total",
			Help: "Permit status changes by target status",
		}, []string{"status"}),

		NotificationsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "permitflow_notifications_sent_total",
			Help: "Notifications delivered by type",
		}, []string{"type"}),

		DispatchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "permitflow_dispatch_failures_total",
			Help: "Notification dispatch jobs that did not deliver, by reason",
		}, []string{"reason"}),

		ReadLagRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "permitflow_dispatch_read_lag_retries_total",
			Help: "Dispatcher reads that did not yet reflect the expected status",
		}),

		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "permitflow_operation_duration_seconds",
			Help:    "Duration of permit repository and status operations",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),

		CascadeDeleteFails: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "permitflow_cascade_delete_failures_total",
			Help: "Cascade deletion steps that failed, by table",
		}, []string{"table"}),
	}
}

func (m *Metrics) IncrementPermitsCreated() {
	if m != nil {
		m.PermitsCreated.Inc()
	}
}

func (m *Metrics) IncrementSyncWriteFailure(category string) {
	if m != nil {
		m.SyncWriteFailures.WithLabelValues(category).Inc()
	}
}

func (m *Metrics) IncrementStatusTransition(status string) {
	if m != nil {
		m.StatusTransitions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncrementNotificationSent(kind string) {
	if m != nil {
		m.NotificationsSent.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) IncrementDispatchFailure(reason string) {
	if m != nil {
		m.DispatchFailures.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncrementReadLagRetry() {
	if m != nil {
		m.ReadLagRetries.Inc()
	}
}

func (m *Metrics) IncrementCascadeFailure(table string) {
	if m != nil {
		m.CascadeDeleteFails.WithLabelValues(table).Inc()
	}
}

// ObserveOperation records how long a named operation took since start.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	if m != nil {
		m.OperationLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
