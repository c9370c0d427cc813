package classification

import (
	"bytes"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopN_OrderAndTies(t *testing.T) {
	scores := []float32{0.1, 0.5, 0.3, 0.5, 0.0, 0.3}

	assert.Equal(t, []int{1, 3, 2, 5, 0, 4}, TopN(scores, 6))
	assert.Equal(t, []int{1, 3, 2}, TopN(scores, 3))
	assert.Equal(t, []int{1, 3, 2, 5, 0, 4}, TopN(scores, 10))
}

func TestTopN_Idempotent(t *testing.T) {
	scores := []float32{3, 1, 4, 1, 5, 9, 2, 6, 5, 3}
	before := append([]float32(nil), scores...)

	first := TopN(scores, 5)
	second := TopN(scores, 5)
	assert.Equal(t, first, second)
	assert.Equal(t, before, scores, "input must not be reordered")
	assert.Equal(t, []int{5, 7, 4, 8, 2}, first)
}

func TestClampTopN(t *testing.T) {
	tests := []struct {
		n, results, want int
	}{
		{0, 5, 5},
		{1, 5, 1},
		{5, 5, 5},
		{6, 5, 5},
		{-3, 5, 5},
		{10, 1000, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampTopN(tt.n, tt.results), "ClampTopN(%d, %d)", tt.n, tt.results)
	}
}

func TestClampTopN_LogsWarning(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	assert.Equal(t, 5, ClampTopN(0, 5))
	assert.Contains(t, buf.String(), "[WARN] -ntop 0 is not available")
	assert.Contains(t, buf.String(), "will be used maximal value: 5")

	buf.Reset()
	assert.Equal(t, 3, ClampTopN(3, 5))
	assert.Empty(t, buf.String(), "in-range values are not reported")
}

func TestClassify(t *testing.T) {
	scores := []float32{
		0.1, 0.7, 0.2,
		0.6, 0.1, 0.3,
	}
	labels := []string{"cat", "dog"}
	results := Classify(scores, 2, 2, labels, []string{"a.bmp", "b.bmp"})

	assert.Len(t, results, 2)
	assert.Equal(t, "a.bmp", results[0].Image)
	assert.Equal(t, 1, results[0].Predictions[0].ClassID)
	assert.Equal(t, "dog", results[0].Predictions[0].Label)
	assert.Equal(t, 2, results[0].Predictions[1].ClassID)
	assert.Empty(t, results[0].Predictions[1].Label, "labels shorter than results leave the label empty")

	assert.Equal(t, "b.bmp", results[1].Image)
	assert.Equal(t, []int{0, 2}, []int{results[1].Predictions[0].ClassID, results[1].Predictions[1].ClassID})
	assert.InDelta(t, 0.6, results[1].Predictions[0].Probability, 1e-6)

	assert.Nil(t, Classify(scores, 0, 2, nil, nil))
}
