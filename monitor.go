package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/Tutortoise/classification-async/classification"
	"github.com/Tutortoise/classification-async/models"

	"github.com/gorilla/mux"
)

// Monitor exposes the progress of a run over HTTP.
type Monitor struct {
	mu      sync.RWMutex
	device  string
	batch   int
	loop    *classification.AsyncLoop
	results []models.Classification
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (m *Monitor) setLoop(loop *classification.AsyncLoop, device string, batch int) {
	m.mu.Lock()
	m.loop, m.device, m.batch = loop, device, batch
	m.mu.Unlock()
}

func (m *Monitor) setResults(results []models.Classification) {
	m.mu.Lock()
	m.results = results
	m.mu.Unlock()
}

func (m *Monitor) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/metrics", m.handleMetrics).Methods("GET")
	r.HandleFunc("/results", m.handleResults).Methods("GET")
	return r
}

func (m *Monitor) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	m.mu.RLock()
	loop, device, batch := m.loop, m.device, m.batch
	m.mu.RUnlock()

	if loop == nil {
		sendErrorResponse(w, "not_started", "inference has not started", http.StatusServiceUnavailable)
		return
	}
	metrics := loop.Metrics()
	response := map[string]interface{}{
		"device":             device,
		"batch_size":         batch,
		"state":              metrics.State,
		"iterations":         metrics.Iterations,
		"submissions":        metrics.Submissions,
		"completions":        metrics.Completions,
		"failures":           metrics.Failures,
		"min_latency_ms":     durationMs(metrics.MinLatency),
		"max_latency_ms":     durationMs(metrics.MaxLatency),
		"average_latency_ms": durationMs(metrics.AverageLatency()),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (m *Monitor) handleResults(w http.ResponseWriter, _ *http.Request) {
	m.mu.RLock()
	results := m.results
	m.mu.RUnlock()

	if results == nil {
		sendErrorResponse(w, "not_ready", "results are not available yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func sendErrorResponse(w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// startMonitor serves m on addr until the returned stop function is called.
func startMonitor(addr string, m *Monitor) func() {
	srv := &http.Server{
		Handler:      m.routes(),
		Addr:         addr,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
	go func() {
		log.Printf("[INFO] Serving metrics on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[WARN] metrics server: %v", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}
