// services/settlement.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"alphabet-predictions/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettlementService struct {
	DB    *gorm.DB
	Cache LeaderboardCache
}

func NewSettlementService(db *gorm.DB, cache LeaderboardCache) *SettlementService {
	return &SettlementService{DB: db, Cache: cache}
}

type SettlementResult struct {
	RunID         string         `json:"run_id,omitempty"`
	MatchID       uint           `json:"match_id"`
	Outcome       models.Outcome `json:"outcome,omitempty"`
	Eligible      int            `json:"eligible"`
	Evaluated     int            `json:"evaluated"`
	Skipped       int            `json:"skipped"`
	PointsAwarded int            `json:"points_awarded"`
	Settled       bool           `json:"settled"`
}

type settledPrediction struct {
	PredictionID uint `json:"prediction_id"`
	UserID       uint `json:"user_id"`
	Points       int  `json:"points"`
	Claimed      bool `json:"claimed"`
}

// SettleMatch scores every unevaluated prediction of a finished match and
// credits the owners. Each prediction is claimed with a conditional update, so
// a prediction is credited at most once however many runs overlap. Matches
// that are not finished are left alone and reported with Settled=false.
func (s *SettlementService) SettleMatch(ctx context.Context, matchID uint, trigger models.SettlementTrigger) (*SettlementResult, error) {
	result := &SettlementResult{MatchID: matchID}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var match models.Match
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&match, matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMatchNotFound
			}
			return fmt.Errorf("lock match: %w", err)
		}

		home, away, ok := match.FinalScore()
		if !ok {
			return nil
		}
		result.Settled = true
		result.Outcome = models.DeriveOutcome(home, away)

		// Users are credited in id order so overlapping settlements of
		// different matches take their row locks in the same order.
		var pending []models.Prediction
		if err := tx.Where("match_id = ? AND is_evaluated = ?", matchID, false).
			Order("user_id ASC, id ASC").
			Find(&pending).Error; err != nil {
			return fmt.Errorf("load predictions: %w", err)
		}
		result.Eligible = len(pending)

		details := make([]settledPrediction, 0, len(pending))
		for _, p := range pending {
			points := ScorePrediction(p, home, away)
			claim := tx.Model(&models.Prediction{}).
				Where("id = ? AND is_evaluated = ?", p.ID, false).
				Updates(map[string]interface{}{
					"points_earned": points,
					"is_evaluated":  true,
				})
			if claim.Error != nil {
				return fmt.Errorf("claim prediction %d: %w", p.ID, claim.Error)
			}
			if claim.RowsAffected != 1 {
				result.Skipped++
				details = append(details, settledPrediction{PredictionID: p.ID, UserID: p.UserID})
				continue
			}

			if points > 0 {
				if err := tx.Model(&models.User{}).
					Where("id = ?", p.UserID).
					Update("total_points", gorm.Expr("total_points + ?", points)).Error; err != nil {
					return fmt.Errorf("credit user %d: %w", p.UserID, err)
				}
			}
			result.Evaluated++
			result.PointsAwarded += points
			details = append(details, settledPrediction{PredictionID: p.ID, UserID: p.UserID, Points: points, Claimed: true})
		}

		raw, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("encode settlement details: %w", err)
		}
		run := models.SettlementRun{
			ID:            uuid.NewString(),
			MatchID:       matchID,
			Trigger:       trigger,
			Outcome:       result.Outcome,
			Eligible:      result.Eligible,
			Evaluated:     result.Evaluated,
			Skipped:       result.Skipped,
			PointsAwarded: result.PointsAwarded,
			Details:       datatypes.JSON(raw),
		}
		if err := tx.Create(&run).Error; err != nil {
			return fmt.Errorf("record settlement run: %w", err)
		}
		result.RunID = run.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Evaluated > 0 {
		log.Printf("✅ [SETTLE] Match %d (%s): evaluated %d, skipped %d, awarded %d points",
			matchID, trigger, result.Evaluated, result.Skipped, result.PointsAwarded)
		if s.Cache != nil {
			if err := s.Cache.Invalidate(ctx); err != nil {
				log.Printf("⚠️ [SETTLE] Failed to invalidate leaderboard cache: %v", err)
			}
		}
	}
	return result, nil
}

// PendingMatchIDs lists finished matches that still have unevaluated predictions.
func (s *SettlementService) PendingMatchIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := s.DB.WithContext(ctx).
		Model(&models.Match{}).
		Distinct("matches.id").
		Joins("JOIN predictions ON predictions.match_id = matches.id").
		Where("matches.status = ? AND predictions.is_evaluated = ?", models.MatchStatusFinished, false).
		Where("matches.home_score IS NOT NULL AND matches.away_score IS NOT NULL").
		Order("matches.id ASC").
		Pluck("matches.id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("find pending matches: %w", err)
	}
	return ids, nil
}
