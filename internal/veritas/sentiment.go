package veritas

import "strings"

var (
	bullishTerms = []string{"bull", "breakout", "surge", "rally", "adoption", "outflow", "growth", "buy", "uptrend", "recover", "ath", "pump"}
	bearishTerms = []string{"bear", "dump", "sell", "crash", "hack", "lawsuit", "ban", "inflow", "decline", "downtrend", "liquidation", "scam", "collapse"}
)

// LexiconClassifier is the default text classifier: a keyword lexicon over
// the joined texts. Cheap, deterministic, and good enough to catch a numeric
// score that flatly contradicts its own source material.
type LexiconClassifier struct{}

func (LexiconClassifier) ClassifyTexts(texts []string) (float64, float64) {
	text := strings.ToLower(strings.TrimSpace(strings.Join(texts, " ")))
	if text == "" {
		return 0, 0
	}

	bullCount := countMatches(text, bullishTerms)
	bearCount := countMatches(text, bearishTerms)
	if bullCount+bearCount == 0 {
		return 0, 0.1
	}

	raw := float64(bullCount-bearCount) / float64(bullCount+bearCount+1)
	score := clamp(raw, -1, 1)
	confidence := clamp(0.35+0.1*float64(absInt(bullCount-bearCount)), 0.25, 0.70)
	return score, confidence
}

func countMatches(text string, terms []string) int {
	n := 0
	for _, term := range terms {
		n += strings.Count(text, term)
	}
	return n
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
