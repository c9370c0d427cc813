package classification

import (
	"sync"
	"time"
)

// LoopMetrics is a snapshot of an AsyncLoop's counters.
type LoopMetrics struct {
	Iterations   int           `json:"iterations"`
	Submissions  int64         `json:"submissions"`
	Completions  int64         `json:"completions"`
	Failures     int64         `json:"failures"`
	State        string        `json:"state"`
	MinLatency   time.Duration `json:"min_latency_ns"`
	MaxLatency   time.Duration `json:"max_latency_ns"`
	TotalLatency time.Duration `json:"total_latency_ns"`
}

// AverageLatency returns the mean submit-to-completion time.
func (m LoopMetrics) AverageLatency() time.Duration {
	if m.Completions == 0 {
		return 0
	}
	return m.TotalLatency / time.Duration(m.Completions)
}

type loopMetrics struct {
	mu sync.RWMutex
	LoopMetrics
}

func (m *loopMetrics) recordSubmission() {
	m.mu.Lock()
	m.Submissions++
	m.mu.Unlock()
}

func (m *loopMetrics) recordCompletion(latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Completions++
	m.TotalLatency += latency
	if m.MinLatency == 0 || latency < m.MinLatency {
		m.MinLatency = latency
	}
	if latency > m.MaxLatency {
		m.MaxLatency = latency
	}
}

func (m *loopMetrics) recordFailure() {
	m.mu.Lock()
	m.Failures++
	m.mu.Unlock()
}

func (m *loopMetrics) snapshot() LoopMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LoopMetrics
}
