package classification

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// LoopState is the lifecycle state of an AsyncLoop.
type LoopState int

const (
	StateIdle LoopState = iota
	StateSubmitted
	StateRunning
	StateCompletionReceived
	StateDone
	StateFailed
)

var loopStateNames = [...]string{"idle", "submitted", "running", "completion_received", "done", "failed"}

func (s LoopState) String() string {
	if s < 0 || int(s) >= len(loopStateNames) {
		return fmt.Sprintf("LoopState(%d)", int(s))
	}
	return loopStateNames[s]
}

// AsyncLoop repeats one inference request a fixed number of times. The first
// submission comes from Run; every later one is issued from the request's
// completion callback, so at most one submission is ever in flight.
type AsyncLoop struct {
	req        Request
	iterations int

	mu          sync.Mutex
	cond        *sync.Cond
	state       LoopState
	completed   int
	inFlight    bool
	submittedAt time.Time
	err         error

	metrics *loopMetrics
}

// NewAsyncLoop registers the loop as req's completion callback. Iteration
// counts below one are treated as one.
func NewAsyncLoop(req Request, iterations int) *AsyncLoop {
	if iterations < 1 {
		iterations = 1
	}
	l := &AsyncLoop{
		req:        req,
		iterations: iterations,
		metrics:    &loopMetrics{},
	}
	l.metrics.Iterations = iterations
	l.cond = sync.NewCond(&l.mu)
	req.SetCompletionCallback(l.handleCompletion)
	return l
}

// Run submits the request and blocks until the configured number of
// completions has been observed, a completion reports an error, or ctx ends.
// Completions arriving after Run returned are ignored.
func (l *AsyncLoop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.state != StateIdle {
		l.mu.Unlock()
		return ErrLoopStarted
	}
	l.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.fail(ctx.Err())
	})
	defer stop()

	log.Printf("[INFO] Start inference (%d asynchronous executions)", l.iterations)
	l.submit()

	l.mu.Lock()
	defer l.mu.Unlock()
	for !l.terminal() {
		l.cond.Wait()
	}
	return l.err
}

// Completed returns the number of completions counted so far.
func (l *AsyncLoop) Completed() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.completed
}

func (l *AsyncLoop) State() LoopState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *AsyncLoop) Metrics() LoopMetrics {
	m := l.metrics.snapshot()
	m.State = l.State().String()
	return m
}

func (l *AsyncLoop) submit() {
	l.mu.Lock()
	if l.terminal() {
		l.mu.Unlock()
		return
	}
	l.state = StateSubmitted
	l.inFlight = true
	l.submittedAt = time.Now()
	l.mu.Unlock()
	l.metrics.recordSubmission()

	// StartAsync may complete synchronously and re-enter handleCompletion.
	err := l.req.StartAsync()

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.inFlight = false
		l.fail(fmt.Errorf("start async request: %w", err))
		return
	}
	if l.state == StateSubmitted {
		l.state = StateRunning
	}
}

func (l *AsyncLoop) handleCompletion(runErr error) {
	l.mu.Lock()
	if l.terminal() {
		l.mu.Unlock()
		return
	}
	if !l.inFlight {
		l.fail(ErrUnexpectedCompletion)
		l.mu.Unlock()
		return
	}

	l.inFlight = false
	l.state = StateCompletionReceived
	l.completed++
	n := l.completed
	l.metrics.recordCompletion(time.Since(l.submittedAt))

	if runErr != nil {
		l.fail(fmt.Errorf("async request %d: %w", n, runErr))
		l.mu.Unlock()
		return
	}
	log.Printf("[INFO] Completed %d async request execution", n)

	if n >= l.iterations {
		l.state = StateDone
		l.cond.Broadcast()
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	l.submit()
}

// fail moves the loop to StateFailed. Callers hold l.mu.
func (l *AsyncLoop) fail(err error) {
	if l.terminal() {
		return
	}
	l.state = StateFailed
	l.err = err
	l.metrics.recordFailure()
	l.cond.Broadcast()
}

func (l *AsyncLoop) terminal() bool {
	return l.state == StateDone || l.state == StateFailed
}
