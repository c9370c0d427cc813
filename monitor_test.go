package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Tutortoise/classification-async/classification"
	"github.com/Tutortoise/classification-async/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_Routes(t *testing.T) {
	m := &Monitor{}
	router := m.routes()

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	assert.Equal(t, http.StatusServiceUnavailable, get("/metrics").Code)
	assert.Equal(t, http.StatusNotFound, get("/results").Code)

	spec := classification.InputSpec{Channels: 3, Height: 2, Width: 2}
	req, err := classification.NewSimulatedBackend(spec, 4, 0).CreateRequest(spec, 1)
	require.NoError(t, err)
	loop := classification.NewAsyncLoop(req, 3)
	m.setLoop(loop, "SIMULATION", 1)
	require.NoError(t, loop.Run(context.Background()))

	rec := get("/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	var metrics map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metrics))
	assert.Equal(t, "done", metrics["state"])
	assert.Equal(t, "SIMULATION", metrics["device"])
	assert.EqualValues(t, 3, metrics["completions"])
	assert.EqualValues(t, 3, metrics["submissions"])

	m.setResults([]models.Classification{{Image: "a.png", Predictions: []models.Prediction{{ClassID: 1, Probability: 0.5}}}})
	rec = get("/results")
	require.Equal(t, http.StatusOK, rec.Code)
	var results []models.Classification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	assert.Equal(t, "a.png", results[0].Image)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
