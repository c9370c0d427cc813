package classification

import (
	"fmt"
	"sync"
	"time"
)

// SimulatedBackend stands in for a real runtime. Scores are derived from the
// input bytes so results are deterministic for a given batch.
type SimulatedBackend struct {
	spec         InputSpec
	resultsCount int
	latency      time.Duration

	mu       sync.Mutex
	requests []*SimulatedRequest
}

func NewSimulatedBackend(spec InputSpec, resultsCount int, latency time.Duration) *SimulatedBackend {
	return &SimulatedBackend{spec: spec, resultsCount: resultsCount, latency: latency}
}

func (b *SimulatedBackend) Name() string { return "simulation" }
func (b *SimulatedBackend) InputSpec() InputSpec { return b.spec }

// Close closes every request created by b, waiting for runs in progress.
func (b *SimulatedBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.requests {
		r.Close()
	}
	b.requests = nil
	return nil
}

func (b *SimulatedBackend) CreateRequest(spec InputSpec, batch int) (Request, error) {
	if batch < 1 {
		return nil, ErrNoValidInput
	}
	if b.spec.Batch > 0 && b.spec.Batch != batch {
		return nil, configErrorf("model has a fixed batch of %d, got %d images", b.spec.Batch, batch)
	}
	if b.resultsCount < 1 {
		return nil, configErrorf("simulated model has no outputs")
	}
	req := &SimulatedRequest{
		input:        make([]byte, batch*spec.Channels*spec.Height*spec.Width),
		output:       make([]float32, batch*b.resultsCount),
		batch:        batch,
		resultsCount: b.resultsCount,
		latency:      b.latency,
	}
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()
	return req, nil
}

// SimulatedRequest runs each submission on its own goroutine.
type SimulatedRequest struct {
	input        []byte
	output       []float32
	batch        int
	resultsCount int
	latency      time.Duration

	mu       sync.Mutex
	callback func(error)
	running  bool
	closed   bool
	starts   int
	runs     sync.WaitGroup
}

func (r *SimulatedRequest) SetCompletionCallback(cb func(error)) {
	r.mu.Lock()
	r.callback = cb
	r.mu.Unlock()
}

func (r *SimulatedRequest) Input() any { return r.input }
func (r *SimulatedRequest) Output() any { return r.output }

// Starts returns how many times StartAsync succeeded.
func (r *SimulatedRequest) Starts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts
}

func (r *SimulatedRequest) StartAsync() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRequestClosed
	}
	if r.running {
		r.mu.Unlock()
		return ErrRequestBusy
	}
	r.running = true
	r.runs.Add(1)
	r.starts++
	cb := r.callback
	r.mu.Unlock()

	go func() {
		if r.latency > 0 {
			time.Sleep(r.latency)
		}
		err := r.infer()

		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
		r.runs.Done()
		if cb != nil {
			cb(err)
		}
	}()
	return nil
}

// Running reports whether a submission is still executing.
func (r *SimulatedRequest) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Close rejects further submissions and waits for a run in progress.
func (r *SimulatedRequest) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.runs.Wait()
}

// infer scores each image by the share of its bytes falling in each bucket
// of value % resultsCount.
func (r *SimulatedRequest) infer() error {
	perImage := len(r.input) / r.batch
	if perImage == 0 {
		return fmt.Errorf("simulated request has an empty input")
	}
	for b := 0; b < r.batch; b++ {
		row := r.output[b*r.resultsCount : (b+1)*r.resultsCount]
		clear(row)
		for _, v := range r.input[b*perImage : (b+1)*perImage] {
			row[int(v)%r.resultsCount]++
		}
		for i := range row {
			row[i] /= float32(perImage)
		}
	}
	return nil
}
