package classification

import (
	"log"
	"sort"

	"github.com/Tutortoise/classification-async/models"
)

// ClampTopN returns n when 1 <= n <= resultsCount and resultsCount otherwise,
// logging a warning in the latter case.
func ClampTopN(n, resultsCount int) int {
	if n >= 1 && n <= resultsCount {
		return n
	}
	log.Printf("[WARN] -ntop %d is not available for this network (-ntop should be less than %d and more than 0), "+
		"will be used maximal value: %d", n, resultsCount+1, resultsCount)
	return resultsCount
}

// TopN returns the indices of the n highest scores, highest first. Equal
// scores keep ascending index order.
func TopN(scores []float32, n int) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	if n < len(idx) {
		idx = idx[:n]
	}
	return idx
}

// Classify splits scores into batch rows and picks the top n of each row.
// names[i] names image i; labels, when long enough, name the class ids.
func Classify(scores []float32, batch, n int, labels, names []string) []models.Classification {
	if batch < 1 {
		return nil
	}
	resultsCount := len(scores) / batch
	results := make([]models.Classification, batch)
	for b := 0; b < batch; b++ {
		row := scores[b*resultsCount : (b+1)*resultsCount]
		c := models.Classification{Predictions: make([]models.Prediction, 0, n)}
		if b < len(names) {
			c.Image = names[b]
		}
		for _, id := range TopN(row, n) {
			p := models.Prediction{ClassID: id, Probability: row[id]}
			if id < len(labels) {
				p.Label = labels[id]
			}
			c.Predictions = append(c.Predictions, p)
		}
		results[b] = c
	}
	return results
}
