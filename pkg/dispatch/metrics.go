package dispatch

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	aqerrors "github.com/hbasrc/Async-Queue/pkg/common/errors"
	"github.com/hbasrc/Async-Queue/pkg/common/validation"
	"github.com/hbasrc/Async-Queue/pkg/metrics"
)

// MetricsQueue wraps a Queue with Prometheus metrics collection. Lifecycle
// hooks are instrumented by chaining recording hooks in front of the
// user-supplied ones at construction time; submissions are instrumented by
// wrapping the per-task callback.
type MetricsQueue[T any] struct {
	queue    Queue[T]
	name     string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates a queue with metrics enabled on its own registry.
func NewWithMetrics[T any](worker Worker[T], name string) (Queue[T], error) {
	// Use a separate registry for each metrics-enabled queue to avoid conflicts
	registry := prometheus.NewRegistry()
	config := metrics.Config{
		Enabled:  true,
		Registry: registry,
	}

	return NewWithConfigAndMetrics(Config[T]{Worker: worker}, name, config)
}

// NewWithConfigAndMetrics creates a queue with custom config and metrics.
// When metrics are disabled it returns a plain queue with no wrapper.
func NewWithConfigAndMetrics[T any](config Config[T], name string, metricsConfig metrics.Config) (Queue[T], error) {
	if !metricsConfig.Enabled {
		return NewWithConfig(config)
	}

	if err := validation.ValidateNotEmpty(moduleName, "name", name); err != nil {
		return nil, err
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	mq := &MetricsQueue[T]{
		name:     name,
		registry: registry,
		enabled:  true,
	}

	// Chain event counters in front of the user hooks. The chained hooks
	// hand the wrapper, not the inner queue, to the user hook.
	userSaturated := config.OnSaturated
	userEmpty := config.OnEmpty
	userDrain := config.OnDrain
	config.OnSaturated = func(Queue[T]) {
		if mq.enabled {
			mq.registry.SaturatedEvents.WithLabelValues(mq.name).Inc()
			mq.updateGauges()
		}
		if userSaturated != nil {
			userSaturated(mq)
		}
	}
	config.OnEmpty = func(Queue[T]) {
		if mq.enabled {
			mq.registry.EmptyEvents.WithLabelValues(mq.name).Inc()
			mq.updateGauges()
		}
		if userEmpty != nil {
			userEmpty(mq)
		}
	}
	config.OnDrain = func(Queue[T]) {
		if mq.enabled {
			mq.registry.DrainEvents.WithLabelValues(mq.name).Inc()
			mq.updateGauges()
		}
		if userDrain != nil {
			userDrain(mq)
		}
	}

	q, err := NewWithConfig(config)
	if err != nil {
		return nil, err
	}
	mq.queue = q

	mq.updateGauges()

	return mq, nil
}

// updateGauges samples the occupancy gauges from the wrapped queue.
func (mq *MetricsQueue[T]) updateGauges() {
	if !mq.enabled {
		return
	}

	mq.registry.QueueRunning.WithLabelValues(mq.name).Set(float64(mq.queue.Running()))
	mq.registry.QueuePending.WithLabelValues(mq.name).Set(float64(mq.queue.Len()))
}

// Push enqueues a task without a completion callback.
func (mq *MetricsQueue[T]) Push(task T) {
	mq.push(task, nil)
}

// PushWithCallback enqueues a task with a completion callback.
func (mq *MetricsQueue[T]) PushWithCallback(task T, callback Callback) error {
	if callback == nil {
		return fmt.Errorf("%s: %w: callback cannot be nil", moduleName, aqerrors.ErrInvalidCallback)
	}
	return mq.push(task, callback)
}

func (mq *MetricsQueue[T]) push(task T, callback Callback) error {
	if !mq.enabled {
		if callback != nil {
			return mq.queue.PushWithCallback(task, callback)
		}
		mq.queue.Push(task)
		return nil
	}

	mq.registry.TasksSubmitted.WithLabelValues(mq.name).Inc()

	// Wrap the callback to time the task and count its completion. The
	// duration covers queue wait plus execution, measured from submission.
	start := time.Now()
	wrapped := func(results ...any) {
		if mq.enabled {
			mq.registry.TaskDuration.WithLabelValues(mq.name).Observe(time.Since(start).Seconds())
			mq.registry.TasksCompleted.WithLabelValues(mq.name).Inc()
		}
		if callback != nil {
			callback(results...)
		}
		if mq.enabled {
			mq.updateGauges()
		}
	}

	err := mq.queue.PushWithCallback(task, wrapped)
	mq.updateGauges()
	return err
}

// Running returns the number of admitted, not-yet-completed tasks.
func (mq *MetricsQueue[T]) Running() int {
	running := mq.queue.Running()
	if mq.enabled {
		mq.registry.QueueRunning.WithLabelValues(mq.name).Set(float64(running))
	}
	return running
}

// Len returns the number of pending, not-yet-admitted tasks.
func (mq *MetricsQueue[T]) Len() int {
	pending := mq.queue.Len()
	if mq.enabled {
		mq.registry.QueuePending.WithLabelValues(mq.name).Set(float64(pending))
	}
	return pending
}

// Idle reports whether the queue has no pending and no running tasks.
func (mq *MetricsQueue[T]) Idle() bool {
	return mq.queue.Idle()
}

// Submitted returns the cumulative number of pushed tasks.
func (mq *MetricsQueue[T]) Submitted() int64 {
	return mq.queue.Submitted()
}

// Completed returns the cumulative number of completed tasks.
func (mq *MetricsQueue[T]) Completed() int64 {
	return mq.queue.Completed()
}

// Worker returns the current worker routine.
func (mq *MetricsQueue[T]) Worker() Worker[T] {
	return mq.queue.Worker()
}

// SetWorker replaces the worker routine.
func (mq *MetricsQueue[T]) SetWorker(w Worker[T]) error {
	return mq.queue.SetWorker(w)
}

// Concurrency returns the admission limit, or Unbounded.
func (mq *MetricsQueue[T]) Concurrency() int {
	return mq.queue.Concurrency()
}

// SetConcurrency replaces the admission limit.
func (mq *MetricsQueue[T]) SetConcurrency(n int) error {
	return mq.queue.SetConcurrency(n)
}

// OnSaturated returns the saturation hook.
func (mq *MetricsQueue[T]) OnSaturated() Hook[T] {
	return mq.queue.OnSaturated()
}

// SetOnSaturated replaces the saturation hook; nil clears it.
func (mq *MetricsQueue[T]) SetOnSaturated(h Hook[T]) error {
	return mq.queue.SetOnSaturated(h)
}

// OnEmpty returns the empty hook.
func (mq *MetricsQueue[T]) OnEmpty() Hook[T] {
	return mq.queue.OnEmpty()
}

// SetOnEmpty replaces the empty hook; nil clears it.
func (mq *MetricsQueue[T]) SetOnEmpty(h Hook[T]) error {
	return mq.queue.SetOnEmpty(h)
}

// OnDrain returns the drain hook.
func (mq *MetricsQueue[T]) OnDrain() Hook[T] {
	return mq.queue.OnDrain()
}

// SetOnDrain replaces the drain hook; nil clears it.
func (mq *MetricsQueue[T]) SetOnDrain(h Hook[T]) error {
	return mq.queue.SetOnDrain(h)
}

// EnableMetrics enables metrics collection.
func (mq *MetricsQueue[T]) EnableMetrics(config metrics.Config) error {
	mq.enabled = config.Enabled

	if config.Registry != nil {
		mq.registry = metrics.NewRegistry(config.Registry)
	}

	if mq.enabled {
		mq.updateGauges()
	}

	return nil
}

// DisableMetrics disables metrics collection.
func (mq *MetricsQueue[T]) DisableMetrics() {
	mq.enabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (mq *MetricsQueue[T]) MetricsEnabled() bool {
	return mq.enabled
}
