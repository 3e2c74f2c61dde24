package veritas

import (
	"github.com/narumiruna/go-iforest/pkg/iforest"
)

// ForestAnomalyScorer scores metric rows with an isolation forest. A fresh
// forest is fit per call: the matrix is tiny (one row per provider) and the
// rows double as both training and scoring sets, which is the standard
// unsupervised usage for outlier-in-batch detection.
type ForestAnomalyScorer struct{}

func NewForestAnomalyScorer() ForestAnomalyScorer {
	return ForestAnomalyScorer{}
}

func (ForestAnomalyScorer) Scores(rows [][]float64) []float64 {
	if len(rows) == 0 {
		return nil
	}
	forest := iforest.New()
	forest.Fit(rows)
	return forest.Score(rows)
}
