package veritas

import "testing"

func TestForestAnomalyScorer(t *testing.T) {
	rows := [][]float64{
		{100.0, 5000.0, 1.2},
		{101.0, 5100.0, 1.1},
		{250.0, 90000.0, 9.5},
	}

	scores := NewForestAnomalyScorer().Scores(rows)
	if len(scores) != len(rows) {
		t.Fatalf("expected %d scores, got %d", len(rows), len(scores))
	}
	for i, s := range scores {
		if s < 0 || s > 1 {
			t.Fatalf("score %d out of range: %f", i, s)
		}
	}
}

func TestForestAnomalyScorerEmpty(t *testing.T) {
	if scores := NewForestAnomalyScorer().Scores(nil); scores != nil {
		t.Fatalf("expected nil scores for empty input, got %v", scores)
	}
}
