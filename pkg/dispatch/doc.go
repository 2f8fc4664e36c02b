/*
Package dispatch provides a bounded-concurrency FIFO task dispatch queue.

Callers push tasks onto the queue; a single worker routine processes them
with at most Concurrency tasks in flight at once. Tasks beyond the limit
wait in strict FIFO order until a running task completes. Lifecycle hooks
notify observers when the queue fills to its limit, when the pending buffer
drains, and when all in-flight work finishes.

Basic usage:

	q, err := dispatch.New(func(task string, done dispatch.Done) {
		process(task)
		done()
	})
	if err != nil {
		log.Fatal(err)
	}

	q.Push("job-1")
	q.Push("job-2")

The worker receives each task together with a completion continuation. It
may invoke the continuation before returning (a synchronous worker) or hand
it to another goroutine and invoke it later (an asynchronous worker); the
queue assumes neither. Whatever results the worker passes to the
continuation are forwarded verbatim to the per-task callback:

	q, _ := dispatch.New(func(task string, done dispatch.Done) {
		done(strings.ToLower(task), strings.ToUpper(task))
	})

	q.PushWithCallback("Mixed", func(results ...any) {
		fmt.Println(results[0], results[1]) // "mixed MIXED"
	})

Admission and ordering:

Tasks begin execution in exact push order, gated only by the concurrency
limit. A task pushed while the gate is open is handed to the worker before
Push returns; with a synchronous worker the entire completion chain,
including any further pending tasks it unlocks, unwinds before Push
returns. Completion order carries no guarantee beyond admission order: an
asynchronous worker may finish a later task first.

Each completion attempts to admit the next pending task. A worker that
completes synchronously would make that re-dispatch recursive; the queue
runs attempts through an iterative trampoline instead, so draining
thousands of synchronously-completing tasks uses constant stack space.

Concurrency limit:

The limit defaults to 1, giving strict one-at-a-time processing. Any
positive value allows that many tasks in flight; the Unbounded sentinel
disables the gate entirely so every push is admitted immediately:

	q, _ := dispatch.NewWithConfig(dispatch.Config[string]{
		Worker:      worker,
		Concurrency: dispatch.Unbounded,
	})

The pending buffer itself is never bounded: backlog is accepted by design
and backpressure is the caller's responsibility, typically by watching
Len().

Lifecycle hooks:

	q, _ := dispatch.NewWithConfig(dispatch.Config[string]{
		Worker:      worker,
		Concurrency: 4,
		OnSaturated: func(q dispatch.Queue[string]) { log.Print("at capacity") },
		OnEmpty:     func(q dispatch.Queue[string]) { log.Print("buffer empty") },
		OnDrain:     func(q dispatch.Queue[string]) { log.Print("fully idle") },
	})

OnSaturated fires when a submission brings the running count up to the
limit, at most once per submission and never from a completion-triggered
dispatch. OnEmpty fires whenever a dispatch removes the last pending task,
on either trigger. OnDrain fires when a completion leaves the queue with
nothing pending and nothing running. Within one dispatch, OnSaturated fires
before OnEmpty; both can fire on the same dispatch when a single push is
admitted into the last free slot.

Structural configuration:

Worker, Concurrency and the three hooks each expose a getter and a guarded
setter. Setters fail with ErrBusy while any task is in flight, so hooks and
workers cannot reconfigure the queue out from under the dispatch loop. The
worker is mandatory and can never be cleared; hooks are optional and a nil
value clears them.

Error handling:

Configuration and usage errors are returned synchronously from the
offending call and never retried or swallowed. The queue does not observe
errors raised by the worker or by hooks: a worker that fails must still
invoke its completion continuation, or the running count stays elevated
forever. Panics thrown past the queue's call frames leave the bookkeeping
undefined; recover inside the worker if tasks may panic.

Thread safety:

All queue operations are safe for concurrent use. State transitions are
serialized behind a single mutex; the worker, callbacks and hooks are
always invoked with the mutex released.

Instrumentation:

NewWithMetrics and NewWithConfigAndMetrics wrap a queue with Prometheus
metrics: submission/completion counters, occupancy gauges, task duration
histogram and per-hook event counters. See pkg/metrics for the registry.
*/
package dispatch
