package services

import "alphabet-predictions/models"

const (
	OutcomePoints   = 3
	ExactScoreBonus = 2
)

// ScorePrediction awards points against a final score: OutcomePoints for the
// right outcome plus ExactScoreBonus when both predicted scores are exact.
func ScorePrediction(p models.Prediction, homeScore, awayScore int) int {
	points := 0
	if p.PredictedOutcome == models.DeriveOutcome(homeScore, awayScore) {
		points += OutcomePoints
	}
	if p.HasScore() && *p.PredictedHomeScore == homeScore && *p.PredictedAwayScore == awayScore {
		points += ExactScoreBonus
	}
	return points
}
