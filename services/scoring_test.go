package services

import (
	"testing"

	"alphabet-predictions/models"
)

func TestScorePrediction(t *testing.T) {
	cases := []struct {
		name       string
		prediction models.Prediction
		home, away int
		want       int
	}{
		{"exact score", models.Prediction{PredictedOutcome: models.OutcomeHomeWin, PredictedHomeScore: intPtr(2), PredictedAwayScore: intPtr(1)}, 2, 1, 5},
		{"right outcome wrong score", models.Prediction{PredictedOutcome: models.OutcomeHomeWin, PredictedHomeScore: intPtr(3), PredictedAwayScore: intPtr(0)}, 2, 1, 3},
		{"right outcome no score", models.Prediction{PredictedOutcome: models.OutcomeHomeWin}, 2, 1, 3},
		{"wrong outcome", models.Prediction{PredictedOutcome: models.OutcomeDraw}, 2, 1, 0},
		{"goalless draw", models.Prediction{PredictedOutcome: models.OutcomeDraw, PredictedHomeScore: intPtr(0), PredictedAwayScore: intPtr(0)}, 0, 0, 5},
		{"score draw wrong score", models.Prediction{PredictedOutcome: models.OutcomeDraw, PredictedHomeScore: intPtr(1), PredictedAwayScore: intPtr(1)}, 2, 2, 3},
		{"away win exact", models.Prediction{PredictedOutcome: models.OutcomeAwayWin, PredictedHomeScore: intPtr(0), PredictedAwayScore: intPtr(3)}, 0, 3, 5},
		{"only home score set", models.Prediction{PredictedOutcome: models.OutcomeHomeWin, PredictedHomeScore: intPtr(2)}, 2, 1, 3},
		// Outcome and score disagree: the bonus is still paid on an exact score.
		{"exact score wrong outcome", models.Prediction{PredictedOutcome: models.OutcomeDraw, PredictedHomeScore: intPtr(2), PredictedAwayScore: intPtr(1)}, 2, 1, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ScorePrediction(tc.prediction, tc.home, tc.away); got != tc.want {
				t.Fatalf("expected %d points, got %d", tc.want, got)
			}
		})
	}
}

func TestScorePredictionRange(t *testing.T) {
	outcomes := []models.Outcome{models.OutcomeHomeWin, models.OutcomeAwayWin, models.OutcomeDraw}
	for _, o := range outcomes {
		for ph := 0; ph <= 4; ph++ {
			for pa := 0; pa <= 4; pa++ {
				for h := 0; h <= 4; h++ {
					for a := 0; a <= 4; a++ {
						p := models.Prediction{PredictedOutcome: o, PredictedHomeScore: intPtr(ph), PredictedAwayScore: intPtr(pa)}
						switch got := ScorePrediction(p, h, a); got {
						case 0, 2, 3, 5:
						default:
							t.Fatalf("unexpected score %d for %s %d-%d on %d-%d", got, o, ph, pa, h, a)
						}
					}
				}
			}
		}
	}
}
