// Package metrics provides Prometheus instrumentation for the dispatch queue.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for queue components.
type Registry struct {
	// Submission / completion counters
	TasksSubmitted *prometheus.CounterVec
	TasksCompleted *prometheus.CounterVec

	// Occupancy gauges, sampled on every instrumented operation
	QueueRunning *prometheus.GaugeVec
	QueuePending *prometheus.GaugeVec

	// Task latency from admission to completion
	TaskDuration *prometheus.HistogramVec

	// Lifecycle hook firings
	SaturatedEvents *prometheus.CounterVec
	EmptyEvents     *prometheus.CounterVec
	DrainEvents     *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by instrumented queues.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		TasksSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "asyncqueue",
				Subsystem: "dispatch",
				Name:      "tasks_submitted_total",
				Help:      "Total number of tasks pushed onto the queue",
			},
			[]string{"queue_name"},
		),

		TasksCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "asyncqueue",
				Subsystem: "dispatch",
				Name:      "tasks_completed_total",
				Help:      "Total number of tasks whose completion continuation ran",
			},
			[]string{"queue_name"},
		),

		QueueRunning: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "asyncqueue",
				Subsystem: "dispatch",
				Name:      "running",
				Help:      "Number of tasks currently in flight",
			},
			[]string{"queue_name"},
		),

		QueuePending: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "asyncqueue",
				Subsystem: "dispatch",
				Name:      "pending",
				Help:      "Number of tasks waiting for admission",
			},
			[]string{"queue_name"},
		),

		TaskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "asyncqueue",
				Subsystem: "dispatch",
				Name:      "task_duration_seconds",
				Help:      "Time from task admission to completion",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"queue_name"},
		),

		SaturatedEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "asyncqueue",
				Subsystem: "dispatch",
				Name:      "saturated_total",
				Help:      "Number of times a submission filled the queue to its concurrency limit",
			},
			[]string{"queue_name"},
		),

		EmptyEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "asyncqueue",
				Subsystem: "dispatch",
				Name:      "empty_total",
				Help:      "Number of times a dispatch emptied the pending buffer",
			},
			[]string{"queue_name"},
		),

		DrainEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "asyncqueue",
				Subsystem: "dispatch",
				Name:      "drain_total",
				Help:      "Number of times the queue became fully idle",
			},
			[]string{"queue_name"},
		),
	}
}
