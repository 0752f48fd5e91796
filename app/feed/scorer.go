package feed

import "math"

const (
	titleWeight    = 0.4
	summaryWeight  = 0.3
	topicWeight    = 0.05
	maxTopicBonus  = 0.3
	maxScore       = 1.0
	scorePrecision = 1e6
)

// Scorer assigns a relevance score between 0 and 1.
type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

func (s *Scorer) Run(title, summary string, topics []string) float64 {
	score := 0.0
	if title != "" {
		score += titleWeight
	}
	if summary != "" {
		score += summaryWeight
	}

	score += math.Min(float64(len(topics))*topicWeight, maxTopicBonus)

	// Drop float noise from summing 0.05 steps.
	score = math.Round(score*scorePrecision) / scorePrecision

	return math.Min(score, maxScore)
}
