package models

import (
	"time"

	"gorm.io/datatypes"
)

// Prediction is a user's call on one match. Only the settlement procedure
// flips IsEvaluated, and it never flips it back.
type Prediction struct {
	ID                 uint    `gorm:"primaryKey" json:"id"`
	UserID             uint    `gorm:"not null;index;uniqueIndex:idx_predictions_user_match" json:"user_id"`
	MatchID            uint    `gorm:"not null;index;uniqueIndex:idx_predictions_user_match" json:"match_id"`
	PredictedOutcome   Outcome `gorm:"size:16;not null" json:"predicted_outcome"`
	PredictedHomeScore *int    `json:"predicted_home_score"`
	PredictedAwayScore *int    `json:"predicted_away_score"`
	PointsEarned       int     `gorm:"not null;default:0" json:"points_earned"`
	IsEvaluated        bool    `gorm:"not null;default:false;index" json:"is_evaluated"`

	Timestamps
}

// HasScore reports whether both score fields were predicted.
func (p Prediction) HasScore() bool {
	return p.PredictedHomeScore != nil && p.PredictedAwayScore != nil
}

// SettlementTrigger names what started a settlement run.
type SettlementTrigger string

const (
	SettlementTriggerResult  SettlementTrigger = "admin_result"
	SettlementTriggerSweeper SettlementTrigger = "sweeper"
)

// SettlementRun is an audit row written by every settlement of a finished match.
type SettlementRun struct {
	ID            string            `gorm:"primaryKey;size:36" json:"id"`
	MatchID       uint              `gorm:"index;not null" json:"match_id"`
	Trigger       SettlementTrigger `gorm:"size:32;not null" json:"trigger"`
	Outcome       Outcome           `gorm:"size:16;not null" json:"outcome"`
	Eligible      int               `gorm:"not null" json:"eligible"`
	Evaluated     int               `gorm:"not null" json:"evaluated"`
	Skipped       int               `gorm:"not null" json:"skipped"`
	PointsAwarded int               `gorm:"not null" json:"points_awarded"`
	Details       datatypes.JSON    `json:"details"`
	CreatedAt     time.Time         `json:"created_at" gorm:"autoCreateTime"`
}
