/*
Package asyncqueue provides a bounded-concurrency FIFO task dispatch queue.

Core (pkg/dispatch):
  - dispatch: submit tasks, process them through a single worker routine with
    at most N tasks in flight, observe saturated/empty/drain transitions

Supporting packages:
  - pkg/common/errors: error kinds shared across the library
  - pkg/common/validation: shared configuration validation helpers
  - pkg/metrics: Prometheus instrumentation

Example usage:

	import "github.com/hbasrc/Async-Queue/pkg/dispatch"

	q, _ := dispatch.New(func(task string, done dispatch.Done) {
		process(task)
		done()
	})

	q.Push("job-1")
*/
package asyncqueue
