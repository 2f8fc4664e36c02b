package dispatch

import (
	"fmt"
	"sync/atomic"

	aqerrors "github.com/hbasrc/Async-Queue/pkg/common/errors"
	"github.com/hbasrc/Async-Queue/pkg/common/validation"
)

// Push enqueues a task without a completion callback.
func (q *queue[T]) Push(task T) {
	q.enqueue(task, nil)
}

// PushWithCallback enqueues a task whose completion callback receives the
// worker's results. The callback must not be nil; a rejected push leaves the
// pending buffer untouched.
func (q *queue[T]) PushWithCallback(task T, callback Callback) error {
	if callback == nil {
		return fmt.Errorf("%s: %w: callback cannot be nil", moduleName, aqerrors.ErrInvalidCallback)
	}
	q.enqueue(task, callback)
	return nil
}

func (q *queue[T]) enqueue(task T, callback Callback) {
	q.mu.Lock()
	q.pending.push(entry[T]{task: task, callback: callback})
	q.submitted++
	q.mu.Unlock()

	q.dispatch(true)
}

// dispatch queues one dispatch attempt and, if no dispatch loop is already
// draining attempts, becomes that loop. Completions re-enter here; the
// dispatching flag turns their would-be recursion into another loop
// iteration, so arbitrarily long synchronous completion chains run in
// constant stack space.
//
// A submission that finds the gate already closed can only be served
// later, by a completion-triggered attempt, so it gives up its claim on
// the saturation hook here rather than when the attempt finally runs.
func (q *queue[T]) dispatch(fromSubmission bool) {
	q.mu.Lock()
	submission := fromSubmission && (q.concurrency == Unbounded || q.running < q.concurrency)
	q.triggers = append(q.triggers, submission)
	if q.dispatching {
		q.mu.Unlock()
		return
	}
	q.dispatching = true
	for len(q.triggers) > 0 {
		next := q.triggers[0]
		copy(q.triggers, q.triggers[1:])
		q.triggers = q.triggers[:len(q.triggers)-1]
		q.attempt(next)
	}
	q.dispatching = false
	q.mu.Unlock()
}

// attempt performs a single dispatch attempt: gate check, head pop, hook
// firing and worker invocation. submission reports whether this attempt
// was queued by a submission that found the gate open and may therefore
// fire the saturation hook. Called with the mutex held; releases it
// around the hook and worker calls and reacquires it before returning.
// Structural fields captured here cannot change concurrently because the
// running count is already elevated, which locks out every setter.
func (q *queue[T]) attempt(submission bool) {
	if q.concurrency != Unbounded && q.running >= q.concurrency {
		return
	}
	e, ok := q.pending.pop()
	if !ok {
		return
	}
	q.running++

	saturated := submission && q.concurrency != Unbounded && q.running == q.concurrency
	empty := q.pending.len() == 0
	worker := q.worker
	onSaturated := q.onSaturated
	onEmpty := q.onEmpty
	q.mu.Unlock()

	if saturated && onSaturated != nil {
		onSaturated(q)
	}
	if empty && onEmpty != nil {
		onEmpty(q)
	}
	worker(e.task, q.completion(e.callback))

	q.mu.Lock()
}

// completion builds the continuation handed to the worker for one task.
func (q *queue[T]) completion(callback Callback) Done {
	var done atomic.Bool
	return func(results ...any) {
		if !done.CompareAndSwap(false, true) {
			panic("dispatch: completion invoked more than once for the same task")
		}

		if callback != nil {
			callback(results...)
		}

		q.mu.Lock()
		q.running--
		q.completed++
		drained := q.pending.len() == 0 && q.running == 0
		onDrain := q.onDrain
		q.mu.Unlock()

		if drained && onDrain != nil {
			onDrain(q)
		}

		q.dispatch(false)
	}
}

// Running returns the number of admitted, not-yet-completed tasks.
func (q *queue[T]) Running() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// Len returns the number of pending, not-yet-admitted tasks.
func (q *queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.len()
}

// Idle reports whether the queue has no pending and no running tasks.
func (q *queue[T]) Idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.len() == 0 && q.running == 0
}

// Submitted returns the cumulative number of pushed tasks.
func (q *queue[T]) Submitted() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.submitted
}

// Completed returns the cumulative number of completed tasks.
func (q *queue[T]) Completed() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.completed
}

// Worker returns the current worker routine.
func (q *queue[T]) Worker() Worker[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.worker
}

// SetWorker replaces the worker routine. The worker can never be cleared.
func (q *queue[T]) SetWorker(w Worker[T]) error {
	if w == nil {
		return aqerrors.NewConfigError(moduleName, "worker", "cannot be cleared")
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running > 0 {
		return aqerrors.NewBusyError(moduleName, "worker", q.running)
	}
	q.worker = w
	return nil
}

// Concurrency returns the admission limit, or Unbounded.
func (q *queue[T]) Concurrency() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.concurrency
}

// SetConcurrency replaces the admission limit. Zero coerces to
// DefaultConcurrency, matching the constructor's treatment of an
// unspecified value.
func (q *queue[T]) SetConcurrency(n int) error {
	if n == 0 {
		n = DefaultConcurrency
	}
	if err := validation.ValidateConcurrency(moduleName, "concurrency", n, Unbounded); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running > 0 {
		return aqerrors.NewBusyError(moduleName, "concurrency", q.running)
	}
	q.concurrency = n
	return nil
}

// OnSaturated returns the saturation hook.
func (q *queue[T]) OnSaturated() Hook[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.onSaturated
}

// SetOnSaturated replaces the saturation hook; nil clears it.
func (q *queue[T]) SetOnSaturated(h Hook[T]) error {
	return q.setHook("onSaturated", &q.onSaturated, h)
}

// OnEmpty returns the empty hook.
func (q *queue[T]) OnEmpty() Hook[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.onEmpty
}

// SetOnEmpty replaces the empty hook; nil clears it.
func (q *queue[T]) SetOnEmpty(h Hook[T]) error {
	return q.setHook("onEmpty", &q.onEmpty, h)
}

// OnDrain returns the drain hook.
func (q *queue[T]) OnDrain() Hook[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.onDrain
}

// SetOnDrain replaces the drain hook; nil clears it.
func (q *queue[T]) SetOnDrain(h Hook[T]) error {
	return q.setHook("onDrain", &q.onDrain, h)
}

// setHook applies the shared guard logic for the three hook setters. Hooks
// are optional, so nil is a valid value and clears the hook.
func (q *queue[T]) setHook(field string, dst *Hook[T], h Hook[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running > 0 {
		return aqerrors.NewBusyError(moduleName, field, q.running)
	}
	*dst = h
	return nil
}
