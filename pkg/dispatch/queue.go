package dispatch

import (
	"sync"

	aqerrors "github.com/hbasrc/Async-Queue/pkg/common/errors"
	"github.com/hbasrc/Async-Queue/pkg/common/validation"
)

// moduleName identifies this component in error messages.
const moduleName = "dispatch"

// DefaultConcurrency is the admission limit used when none is configured.
const DefaultConcurrency = 1

// Unbounded disables the admission gate: every pushed task is handed to the
// worker immediately, regardless of how many are already in flight.
const Unbounded = -1

// Done is the completion continuation handed to the worker for each task.
// The worker must invoke it exactly once when the task finishes; whatever
// results it passes are forwarded verbatim to the per-task callback, if one
// was supplied. Invoking it a second time for the same task panics.
type Done func(results ...any)

// Callback is an optional per-task completion callback supplied to
// PushWithCallback. It receives whatever results the worker passed to its
// completion continuation; the queue does not interpret them.
type Callback func(results ...any)

// Worker processes a single task and signals completion via done. It may
// invoke done before returning (synchronous) or hand it to other goroutines
// and invoke it later (asynchronous); the queue assumes neither.
type Worker[T any] func(task T, done Done)

// Hook observes a queue lifecycle transition. It receives the queue so it can
// inspect Running/Len, but it must not mutate structural configuration: the
// queue has tasks in flight at that point and the setters will refuse.
type Hook[T any] func(q Queue[T])

// Queue dispatches submitted tasks to a single worker routine, keeping at
// most Concurrency tasks in flight and holding the rest in FIFO order.
type Queue[T any] interface {
	// Push enqueues a task. If the admission gate is open, the task is
	// handed to the worker before Push returns; with a synchronous worker
	// the whole completion chain unwinds first.
	Push(task T)

	// PushWithCallback enqueues a task with a completion callback that
	// receives the worker's results. A nil callback is rejected with
	// ErrInvalidCallback and the task is not enqueued.
	PushWithCallback(task T, callback Callback) error

	// Running returns the number of admitted, not-yet-completed tasks.
	Running() int

	// Len returns the number of pending, not-yet-admitted tasks.
	Len() int

	// Idle reports whether the queue has no pending and no running tasks.
	Idle() bool

	// Submitted returns the cumulative number of pushed tasks.
	Submitted() int64

	// Completed returns the cumulative number of completed tasks.
	Completed() int64

	// Worker returns the current worker routine.
	Worker() Worker[T]

	// SetWorker replaces the worker. The worker is mandatory: a nil value
	// fails with ErrConfiguration. Fails with ErrBusy while tasks are in
	// flight.
	SetWorker(w Worker[T]) error

	// Concurrency returns the admission limit, or Unbounded.
	Concurrency() int

	// SetConcurrency replaces the admission limit. Zero coerces to
	// DefaultConcurrency; Unbounded disables the gate; other negative
	// values fail with ErrInvalidConfiguration. Fails with ErrBusy while
	// tasks are in flight.
	SetConcurrency(n int) error

	// OnSaturated returns the saturation hook, which fires when a
	// submission brings the running count up to the concurrency limit.
	OnSaturated() Hook[T]

	// SetOnSaturated replaces the saturation hook; nil clears it.
	// Fails with ErrBusy while tasks are in flight.
	SetOnSaturated(h Hook[T]) error

	// OnEmpty returns the empty hook, which fires when a dispatch removes
	// the last pending task.
	OnEmpty() Hook[T]

	// SetOnEmpty replaces the empty hook; nil clears it.
	// Fails with ErrBusy while tasks are in flight.
	SetOnEmpty(h Hook[T]) error

	// OnDrain returns the drain hook, which fires when a completion
	// leaves the queue with no pending and no running tasks.
	OnDrain() Hook[T]

	// SetOnDrain replaces the drain hook; nil clears it.
	// Fails with ErrBusy while tasks are in flight.
	SetOnDrain(h Hook[T]) error
}

// Config holds configuration options for creating a queue.
type Config[T any] struct {
	// Worker processes tasks. Mandatory.
	Worker Worker[T]

	// Concurrency is the admission limit. The zero value means
	// unspecified and defaults to DefaultConcurrency; Unbounded disables
	// the gate entirely.
	Concurrency int

	// OnSaturated, OnEmpty and OnDrain are optional lifecycle hooks.
	// See the Queue accessors for when each fires.
	OnSaturated Hook[T]
	OnEmpty     Hook[T]
	OnDrain     Hook[T]
}

// queue implements the Queue interface. All state is guarded by a single
// mutex; the worker and hooks are always invoked with the mutex released.
type queue[T any] struct {
	mu          sync.Mutex
	worker      Worker[T]
	concurrency int
	onSaturated Hook[T]
	onEmpty     Hook[T]
	onDrain     Hook[T]

	pending   buffer[T]
	running   int
	submitted int64
	completed int64

	// Trampoline state: a single dispatch loop drains queued attempts so
	// that synchronous completion chains iterate instead of recursing.
	// Each queued attempt carries its own trigger, settled at enqueue
	// time, so a completion-triggered admission can never borrow a
	// submission's claim on the saturation hook.
	dispatching bool
	triggers    []bool
}

// New creates a queue with the given worker and the default concurrency of 1.
func New[T any](worker Worker[T]) (Queue[T], error) {
	return NewWithConfig(Config[T]{Worker: worker})
}

// NewWithConfig creates a queue with the specified configuration.
func NewWithConfig[T any](config Config[T]) (Queue[T], error) {
	if config.Worker == nil {
		return nil, aqerrors.NewConfigError(moduleName, "worker", "is mandatory")
	}

	concurrency := config.Concurrency
	if concurrency == 0 {
		concurrency = DefaultConcurrency
	}
	if err := validation.ValidateConcurrency(moduleName, "concurrency", concurrency, Unbounded); err != nil {
		return nil, err
	}

	return &queue[T]{
		worker:      config.Worker,
		concurrency: concurrency,
		onSaturated: config.OnSaturated,
		onEmpty:     config.OnEmpty,
		onDrain:     config.OnDrain,
	}, nil
}
