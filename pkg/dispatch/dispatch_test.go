package dispatch

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hbasrc/Async-Queue/internal/testutil"
	aqerrors "github.com/hbasrc/Async-Queue/pkg/common/errors"
)

// recordingWorker returns a synchronous worker that records each task and
// completes with the lowercase and uppercase forms of the task.
func recordingWorker(rec *testutil.Recorder) Worker[string] {
	return func(task string, done Done) {
		rec.Record(task)
		done(strings.ToLower(task), strings.ToUpper(task))
	}
}

// heldWorker returns a worker that records each task and parks its completion
// continuation on the channel, so the test decides when each task finishes.
func heldWorker(rec *testutil.Recorder, dones chan Done) Worker[string] {
	return func(task string, done Done) {
		rec.Record(task)
		dones <- done
	}
}

func TestSynchronousPushDrainsBeforeReturn(t *testing.T) {
	rec := testutil.NewRecorder()
	q, err := New(recordingWorker(rec))
	testutil.AssertNoError(t, err)

	q.Push("a")

	testutil.AssertEqual(t, q.Running(), 0)
	testutil.AssertEqual(t, q.Len(), 0)
	testutil.AssertEqual(t, rec.Events()[0], "a")
	testutil.AssertEqual(t, rec.Len(), 1)
}

func TestSynchronousPushOrder(t *testing.T) {
	rec := testutil.NewRecorder()
	q, err := New(recordingWorker(rec))
	testutil.AssertNoError(t, err)

	q.Push("b")
	q.Push("c")
	q.Push("d")

	events := rec.Events()
	testutil.AssertEqual(t, len(events), 3)
	testutil.AssertEqual(t, events[0], "b")
	testutil.AssertEqual(t, events[1], "c")
	testutil.AssertEqual(t, events[2], "d")

	testutil.AssertEqual(t, q.Submitted(), int64(3))
	testutil.AssertEqual(t, q.Completed(), int64(3))
}

func TestCallbackReceivesWorkerResults(t *testing.T) {
	rec := testutil.NewRecorder()
	q, err := New(recordingWorker(rec))
	testutil.AssertNoError(t, err)

	var got []any
	err = q.PushWithCallback("E", func(results ...any) {
		got = append(got, results...)
	})
	testutil.AssertNoError(t, err)

	// The worker is synchronous, so the callback ran before Push returned.
	testutil.AssertEqual(t, len(got), 2)
	testutil.AssertEqual(t, got[0].(string), "e")
	testutil.AssertEqual(t, got[1].(string), "E")
}

func TestNilCallbackRejected(t *testing.T) {
	rec := testutil.NewRecorder()
	q, err := New(recordingWorker(rec))
	testutil.AssertNoError(t, err)

	err = q.PushWithCallback("x", nil)
	testutil.AssertErrorIs(t, err, aqerrors.ErrInvalidCallback)
	testutil.AssertEqual(t, aqerrors.IsInvalidCallback(err), true)

	// The rejected task must not reach the buffer or the worker.
	testutil.AssertEqual(t, q.Len(), 0)
	testutil.AssertEqual(t, q.Submitted(), int64(0))
	testutil.AssertEqual(t, rec.Len(), 0)
}

func TestFIFOAdmissionWithHeldCompletions(t *testing.T) {
	rec := testutil.NewRecorder()
	dones := make(chan Done, 3)
	q, err := New(heldWorker(rec, dones))
	testutil.AssertNoError(t, err)

	q.Push("a")
	q.Push("b")
	q.Push("c")

	// Concurrency 1: only the head task is admitted.
	testutil.AssertEqual(t, q.Running(), 1)
	testutil.AssertEqual(t, q.Len(), 2)
	testutil.AssertEqual(t, rec.Len(), 1)

	// Each completion admits exactly the next pending task, in push order.
	(<-dones)()
	testutil.AssertEqual(t, rec.Len(), 2)
	(<-dones)()
	testutil.AssertEqual(t, rec.Len(), 3)
	(<-dones)()

	events := rec.Events()
	testutil.AssertEqual(t, events[0], "a")
	testutil.AssertEqual(t, events[1], "b")
	testutil.AssertEqual(t, events[2], "c")

	testutil.AssertEqual(t, q.Idle(), true)
}

func TestConcurrencyLimitTwo(t *testing.T) {
	rec := testutil.NewRecorder()
	hooks := testutil.NewRecorder()
	dones := make(chan Done, 3)
	q, err := NewWithConfig(Config[string]{
		Worker:      heldWorker(rec, dones),
		Concurrency: 2,
		OnSaturated: func(Queue[string]) { hooks.Record("saturated") },
	})
	testutil.AssertNoError(t, err)

	q.Push("t1")
	q.Push("t2")
	q.Push("t3")

	// Tasks 1 and 2 begin immediately; task 3 waits.
	testutil.AssertEqual(t, q.Running(), 2)
	testutil.AssertEqual(t, q.Len(), 1)
	testutil.AssertEqual(t, hooks.Count("saturated"), 1)

	// A completion admits task 3; the queue is full again, but the
	// dispatch was completion-triggered so the hook stays quiet.
	(<-dones)()
	testutil.AssertEqual(t, q.Running(), 2)
	testutil.AssertEqual(t, q.Len(), 0)
	testutil.AssertEqual(t, hooks.Count("saturated"), 1)

	(<-dones)()
	(<-dones)()
	testutil.AssertEqual(t, q.Idle(), true)
	testutil.AssertEqual(t, rec.Len(), 3)
}

func TestSaturatedFiresOncePerFillingSubmission(t *testing.T) {
	hooks := testutil.NewRecorder()
	dones := make(chan Done, 4)
	q, err := NewWithConfig(Config[string]{
		Worker:      heldWorker(testutil.NewRecorder(), dones),
		Concurrency: 1,
		OnSaturated: func(Queue[string]) { hooks.Record("saturated") },
	})
	testutil.AssertNoError(t, err)

	q.Push("t1") // fills the queue: fires
	testutil.AssertEqual(t, hooks.Count("saturated"), 1)

	q.Push("t2") // gate denies: no admission, no hook
	testutil.AssertEqual(t, hooks.Count("saturated"), 1)

	(<-dones)() // admits t2 at the limit, but completion-triggered: no hook
	testutil.AssertEqual(t, hooks.Count("saturated"), 1)

	(<-dones)()

	q.Push("t3") // fills the queue again: fires
	testutil.AssertEqual(t, hooks.Count("saturated"), 2)
	(<-dones)()
}

func TestSaturatedSilentOnDeferredAdmission(t *testing.T) {
	hooks := testutil.NewRecorder()
	rec := testutil.NewRecorder()
	dones := make(chan Done, 4)

	var q Queue[string]
	worker := func(task string, done Done) {
		rec.Record(task)
		if task != "t1" {
			dones <- done
			return
		}
		// Re-entrant sequence inside the dispatch loop: the push of t3
		// finds the gate closed, the completion reopens it, and the
		// push of t4 finds it open again. t3 is then admitted by the
		// deferred completion-triggered attempt, which must stay
		// silent, and t4's submission attempt finds the gate closed
		// once more by the time it runs.
		q.Push("t3")
		done()
		q.Push("t4")
	}

	var err error
	q, err = NewWithConfig(Config[string]{
		Worker:      worker,
		Concurrency: 2,
		OnSaturated: func(Queue[string]) { hooks.Record("saturated") },
	})
	testutil.AssertNoError(t, err)

	q.Push("parked") // occupies one slot
	q.Push("t1")     // fills the queue: the only saturation

	testutil.AssertEqual(t, hooks.Count("saturated"), 1)
	testutil.AssertEqual(t, q.Running(), 2) // parked and t3
	testutil.AssertEqual(t, q.Len(), 1)     // t4

	(<-dones)() // parked completes; t4 is admitted, completion-triggered
	(<-dones)() // t3
	(<-dones)() // t4

	testutil.AssertEqual(t, hooks.Count("saturated"), 1)
	testutil.AssertEqual(t, q.Idle(), true)

	events := rec.Events()
	want := []string{"parked", "t1", "t3", "t4"}
	testutil.AssertEqual(t, len(events), len(want))
	for i := range want {
		testutil.AssertEqual(t, events[i], want[i])
	}
}

func TestEmptyFiresOnBothTriggers(t *testing.T) {
	hooks := testutil.NewRecorder()
	dones := make(chan Done, 2)
	q, err := NewWithConfig(Config[string]{
		Worker:  heldWorker(testutil.NewRecorder(), dones),
		OnEmpty: func(Queue[string]) { hooks.Record("empty") },
	})
	testutil.AssertNoError(t, err)

	q.Push("t1") // admission empties the buffer: fires (submission-triggered)
	testutil.AssertEqual(t, hooks.Count("empty"), 1)

	q.Push("t2") // not admitted, buffer stays occupied
	testutil.AssertEqual(t, hooks.Count("empty"), 1)

	(<-dones)() // completion admits t2 and empties the buffer: fires
	testutil.AssertEqual(t, hooks.Count("empty"), 2)

	(<-dones)()
}

func TestDrainFiresOnlyWhenFullyIdle(t *testing.T) {
	hooks := testutil.NewRecorder()
	dones := make(chan Done, 2)
	q, err := NewWithConfig(Config[string]{
		Worker:      heldWorker(testutil.NewRecorder(), dones),
		Concurrency: 2,
		OnDrain:     func(Queue[string]) { hooks.Record("drain") },
	})
	testutil.AssertNoError(t, err)

	q.Push("t1")
	q.Push("t2")

	// The buffer has been empty since both tasks were admitted, but work
	// is still in flight: no drain.
	testutil.AssertEqual(t, q.Len(), 0)
	(<-dones)()
	testutil.AssertEqual(t, hooks.Count("drain"), 0)

	(<-dones)()
	testutil.AssertEqual(t, hooks.Count("drain"), 1)
}

func TestHookOrderWithinOneDispatch(t *testing.T) {
	rec := testutil.NewRecorder()
	q, err := NewWithConfig(Config[string]{
		Worker: func(task string, done Done) {
			rec.Record("worker:" + task)
			done()
		},
		OnSaturated: func(Queue[string]) { rec.Record("saturated") },
		OnEmpty:     func(Queue[string]) { rec.Record("empty") },
		OnDrain:     func(Queue[string]) { rec.Record("drain") },
	})
	testutil.AssertNoError(t, err)

	// A single push into an idle concurrency-1 queue saturates it and
	// empties the buffer on the same dispatch: saturated fires first,
	// then empty, then the worker runs and its completion drains.
	q.Push("a")

	events := rec.Events()
	want := []string{"saturated", "empty", "worker:a", "drain"}
	testutil.AssertEqual(t, len(events), len(want))
	for i := range want {
		testutil.AssertEqual(t, events[i], want[i])
	}
}

func TestUnboundedAdmitsEverything(t *testing.T) {
	hooks := testutil.NewRecorder()
	dones := make(chan Done, 10)
	q, err := NewWithConfig(Config[string]{
		Worker:      heldWorker(testutil.NewRecorder(), dones),
		Concurrency: Unbounded,
		OnSaturated: func(Queue[string]) { hooks.Record("saturated") },
		OnDrain:     func(Queue[string]) { hooks.Record("drain") },
	})
	testutil.AssertNoError(t, err)

	for i := 0; i < 10; i++ {
		q.Push("t")
	}

	// No gate: every push is admitted immediately and saturation is
	// unreachable.
	testutil.AssertEqual(t, q.Running(), 10)
	testutil.AssertEqual(t, q.Len(), 0)
	testutil.AssertEqual(t, hooks.Count("saturated"), 0)

	for i := 0; i < 10; i++ {
		(<-dones)()
	}
	testutil.AssertEqual(t, hooks.Count("drain"), 1)
	testutil.AssertEqual(t, q.Idle(), true)
}

func TestDeepSynchronousCompletionChain(t *testing.T) {
	const backlog = 10000

	hold := true
	var first Done
	q, err := New(func(task int, done Done) {
		if hold {
			hold = false
			first = done
			return
		}
		done()
	})
	testutil.AssertNoError(t, err)

	q.Push(0) // admitted; the worker parks its continuation
	for i := 1; i <= backlog; i++ {
		q.Push(i)
	}
	testutil.AssertEqual(t, q.Running(), 1)
	testutil.AssertEqual(t, q.Len(), backlog)

	// Completing the first task unwinds the entire backlog through the
	// trampoline: every remaining task completes synchronously before
	// this call returns, without growing the call stack.
	first()

	testutil.AssertEqual(t, q.Running(), 0)
	testutil.AssertEqual(t, q.Len(), 0)
	testutil.AssertEqual(t, q.Completed(), int64(backlog+1))
}

func TestPushFromEmptyHookIsServed(t *testing.T) {
	rec := testutil.NewRecorder()
	pushed := false
	q, err := New(recordingWorker(rec))
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, q.SetOnEmpty(func(q Queue[string]) {
		if !pushed {
			pushed = true
			q.Push("from-hook")
		}
	}))

	q.Push("a")

	events := rec.Events()
	testutil.AssertEqual(t, len(events), 2)
	testutil.AssertEqual(t, events[0], "a")
	testutil.AssertEqual(t, events[1], "from-hook")
	testutil.AssertEqual(t, q.Idle(), true)
}

func TestCompletionInvokedTwicePanics(t *testing.T) {
	dones := make(chan Done, 1)
	q, err := New(heldWorker(testutil.NewRecorder(), dones))
	testutil.AssertNoError(t, err)

	q.Push("a")
	done := <-dones
	done()

	defer func() {
		if recover() == nil {
			t.Fatal("second completion should panic")
		}
	}()
	done()
}

func TestConcurrentPushers(t *testing.T) {
	const (
		limit   = 4
		pushers = 4
		perG    = 50
		total   = pushers * perG
	)

	var inFlight, overLimit int32
	q, err := NewWithConfig(Config[int]{
		Concurrency: limit,
		Worker: func(task int, done Done) {
			if n := atomic.AddInt32(&inFlight, 1); n > limit {
				atomic.AddInt32(&overLimit, 1)
			}
			go func() {
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				done()
			}()
		},
	})
	testutil.AssertNoError(t, err)

	var wg sync.WaitGroup
	wg.Add(total)
	cb := func(results ...any) { wg.Done() }

	var pg sync.WaitGroup
	for p := 0; p < pushers; p++ {
		pg.Add(1)
		go func(p int) {
			defer pg.Done()
			for i := 0; i < perG; i++ {
				if err := q.PushWithCallback(p*perG+i, cb); err != nil {
					t.Errorf("push failed: %v", err)
				}
			}
		}(p)
	}
	pg.Wait()
	wg.Wait()

	// Callbacks run before the completion bookkeeping, so give the last
	// completion a moment to settle.
	deadline := time.Now().Add(testutil.TestTimeout)
	for !q.Idle() || q.Completed() != int64(total) {
		if time.Now().After(deadline) {
			t.Fatalf("queue did not settle: running=%d pending=%d completed=%d",
				q.Running(), q.Len(), q.Completed())
		}
		time.Sleep(time.Millisecond)
	}

	testutil.AssertEqual(t, atomic.LoadInt32(&overLimit), int32(0))
}
