package dispatch_test

import (
	"fmt"
	"strings"

	"github.com/hbasrc/Async-Queue/pkg/dispatch"
)

// Example demonstrates basic usage of the dispatch queue.
func Example() {
	q, err := dispatch.New(func(task string, done dispatch.Done) {
		fmt.Println("processing", task)
		done()
	})
	if err != nil {
		panic(err)
	}

	q.Push("first")
	q.Push("second")

	// Output:
	// processing first
	// processing second
}

// Example_callbacks shows worker results flowing into a per-task callback.
func Example_callbacks() {
	q, _ := dispatch.New(func(task string, done dispatch.Done) {
		done(strings.ToLower(task), strings.ToUpper(task))
	})

	err := q.PushWithCallback("MiXeD", func(results ...any) {
		fmt.Println(results[0], results[1])
	})
	if err != nil {
		panic(err)
	}

	// Output:
	// mixed MIXED
}

// Example_hooks observes the queue's lifecycle transitions.
func Example_hooks() {
	q, _ := dispatch.NewWithConfig(dispatch.Config[string]{
		Worker: func(task string, done dispatch.Done) {
			fmt.Println("working on", task)
			done()
		},
		OnSaturated: func(q dispatch.Queue[string]) { fmt.Println("saturated") },
		OnEmpty:     func(q dispatch.Queue[string]) { fmt.Println("buffer empty") },
		OnDrain:     func(q dispatch.Queue[string]) { fmt.Println("drained") },
	})

	q.Push("job")

	// Output:
	// saturated
	// buffer empty
	// working on job
	// drained
}

// Example_backlog shows FIFO processing of a backlog with concurrency 1.
func Example_backlog() {
	q, _ := dispatch.New(func(task int, done dispatch.Done) {
		fmt.Println("task", task)
		done()
	})

	for i := 1; i <= 3; i++ {
		q.Push(i)
	}

	fmt.Println("idle:", q.Idle())

	// Output:
	// task 1
	// task 2
	// task 3
	// idle: true
}
