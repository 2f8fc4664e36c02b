/*
Package metrics provides Prometheus instrumentation for the dispatch queue.

The Registry bundles every metric the library emits, labeled by queue name:
submission and completion counters, occupancy gauges, a task duration
histogram and one counter per lifecycle hook.

Metrics are opt-in. The plain queue carries no instrumentation; wrap it via
dispatch.NewWithMetrics or dispatch.NewWithConfigAndMetrics to collect:

	registry := prometheus.NewRegistry()
	q, err := dispatch.NewWithConfigAndMetrics(
		dispatch.Config[string]{Worker: worker, Concurrency: 4},
		"orders",
		metrics.Config{Enabled: true, Registry: registry},
	)

	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

Pass a dedicated prometheus.Registry per instrumented queue to avoid
duplicate registration; with a nil Registry the shared DefaultRegistry on
prometheus.DefaultRegisterer is used.

Exported series (namespace "asyncqueue", subsystem "dispatch"):

	asyncqueue_dispatch_tasks_submitted_total{queue_name}
	asyncqueue_dispatch_tasks_completed_total{queue_name}
	asyncqueue_dispatch_running{queue_name}
	asyncqueue_dispatch_pending{queue_name}
	asyncqueue_dispatch_task_duration_seconds{queue_name}
	asyncqueue_dispatch_saturated_total{queue_name}
	asyncqueue_dispatch_empty_total{queue_name}
	asyncqueue_dispatch_drain_total{queue_name}
*/
package metrics
