// services/prediction_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"alphabet-predictions/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PredictionService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewPredictionService(db *gorm.DB) *PredictionService {
	return &PredictionService{DB: db, Now: time.Now}
}

func (s *PredictionService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

type PredictionInput struct {
	MatchID            uint           `json:"matchId" validate:"required"`
	PredictedOutcome   models.Outcome `json:"predictedOutcome" validate:"required,oneof=home_win away_win draw"`
	PredictedHomeScore *int           `json:"predictedHomeScore" validate:"omitempty,min=0,max=99"`
	PredictedAwayScore *int           `json:"predictedAwayScore" validate:"omitempty,min=0,max=99"`
}

func (in PredictionInput) check() error {
	if err := validateInput(in); err != nil {
		return err
	}
	if (in.PredictedHomeScore == nil) != (in.PredictedAwayScore == nil) {
		return validationError("Provide both predicted scores or neither")
	}
	if in.PredictedHomeScore != nil &&
		models.DeriveOutcome(*in.PredictedHomeScore, *in.PredictedAwayScore) != in.PredictedOutcome {
		return validationError("Predicted score does not match predicted outcome")
	}
	return nil
}

// Upsert places or replaces the caller's prediction on a match while the match
// is still open. A prediction that has already been evaluated is never
// overwritten.
func (s *PredictionService) Upsert(ctx context.Context, userID uint, in PredictionInput) (*models.Prediction, error) {
	if err := in.check(); err != nil {
		return nil, err
	}

	var saved models.Prediction
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The share lock holds off a result or settlement on this match until
		// the prediction is written.
		var match models.Match
		if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).First(&match, in.MatchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMatchNotFound
			}
			return fmt.Errorf("load match: %w", err)
		}
		if !s.now().Before(match.PredictionDeadline) {
			return ErrDeadlinePassed
		}
		if !match.Status.AcceptsPredictions() {
			return ErrMatchNotOpen
		}

		prediction := models.Prediction{
			UserID:             userID,
			MatchID:            in.MatchID,
			PredictedOutcome:   in.PredictedOutcome,
			PredictedHomeScore: in.PredictedHomeScore,
			PredictedAwayScore: in.PredictedAwayScore,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "match_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"predicted_outcome",
				"predicted_home_score",
				"predicted_away_score",
				"updated_at",
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Eq{Column: clause.Column{Table: "predictions", Name: "is_evaluated"}, Value: false},
			}},
		}).Create(&prediction).Error; err != nil {
			return fmt.Errorf("upsert prediction: %w", err)
		}

		if err := tx.Where("user_id = ? AND match_id = ?", userID, in.MatchID).First(&saved).Error; err != nil {
			return fmt.Errorf("reload prediction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// PredictionView is a prediction joined with the fixture it is about.
type PredictionView struct {
	ID                 uint               `json:"id"`
	UserID             uint               `json:"user_id"`
	MatchID            uint               `json:"match_id"`
	PredictedOutcome   models.Outcome     `json:"predicted_outcome"`
	PredictedHomeScore *int               `json:"predicted_home_score"`
	PredictedAwayScore *int               `json:"predicted_away_score"`
	PointsEarned       int                `json:"points_earned"`
	IsEvaluated        bool               `json:"is_evaluated"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
	RoundID            uint               `json:"round_id"`
	MatchDate          time.Time          `json:"match_date"`
	Status             models.MatchStatus `json:"status"`
	HomeScore          *int               `json:"home_score"`
	AwayScore          *int               `json:"away_score"`
	HomeTeamName       string             `json:"home_team_name"`
	HomeTeamShortName  string             `json:"home_team_short"`
	AwayTeamName       string             `json:"away_team_name"`
	AwayTeamShortName  string             `json:"away_team_short"`
}

// ListForUser returns a user's predictions. Callers may read their own
// predictions; admins may read anyone's.
func (s *PredictionService) ListForUser(ctx context.Context, caller models.PublicUser, userID uint, roundID *uint) ([]PredictionView, error) {
	if !caller.IsAdmin && caller.ID != userID {
		return nil, ErrAccessDenied
	}

	db := s.DB.WithContext(ctx)
	var count int64
	if err := db.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if count == 0 {
		return nil, ErrUserNotFound
	}

	query := db.Table("predictions AS p").
		Select(`p.id, p.user_id, p.match_id, p.predicted_outcome, p.predicted_home_score,
			p.predicted_away_score, p.points_earned, p.is_evaluated, p.created_at, p.updated_at,
			m.round_id, m.match_date, m.status, m.home_score, m.away_score,
			home_team.name AS home_team_name, home_team.short_name AS home_team_short_name,
			away_team.name AS away_team_name, away_team.short_name AS away_team_short_name`).
		Joins("JOIN matches m ON m.id = p.match_id").
		Joins("JOIN teams home_team ON home_team.id = m.home_team_id").
		Joins("JOIN teams away_team ON away_team.id = m.away_team_id").
		Where("p.user_id = ?", userID)
	if roundID != nil {
		query = query.Where("m.round_id = ?", *roundID)
	}

	views := []PredictionView{}
	if err := query.Order("m.match_date ASC, p.id ASC").Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	return views, nil
}

// --- Handlers ---

func (s *PredictionService) CreateOrUpdatePrediction(c *fiber.Ctx) error {
	user, err := requireCurrentUser(c)
	if err != nil {
		return err
	}
	var req PredictionInput
	if err := c.BodyParser(&req); err != nil {
		return validationError("Invalid request body")
	}
	prediction, err := s.Upsert(c.UserContext(), user.ID, req)
	if err != nil {
		return err
	}
	return c.JSON(prediction)
}

func (s *PredictionService) GetUserPredictions(c *fiber.Ctx) error {
	user, err := requireCurrentUser(c)
	if err != nil {
		return err
	}
	targetID, err := strconv.ParseUint(c.Params("userId"), 10, 64)
	if err != nil || targetID == 0 {
		return validationError("Invalid user ID")
	}
	roundID, err := optionalID(c.Query("roundId"))
	if err != nil {
		return validationError("Invalid round ID")
	}

	views, err := s.ListForUser(c.UserContext(), user, uint(targetID), roundID)
	if err != nil {
		return err
	}
	return c.JSON(views)
}

func optionalID(raw string) (*uint, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, errors.New("invalid id")
	}
	v := uint(id)
	return &v, nil
}
