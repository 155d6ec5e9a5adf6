// services/reconcile.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"alphabet-predictions/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PointsDrift struct {
	UserID   uint `json:"user_id"`
	Recorded int  `json:"recorded"`
	Expected int  `json:"expected"`
}

type ReconcileService struct {
	DB    *gorm.DB
	Cache LeaderboardCache
}

func NewReconcileService(db *gorm.DB, cache LeaderboardCache) *ReconcileService {
	return &ReconcileService{DB: db, Cache: cache}
}

type pointsTotal struct {
	UserID   uint
	Recorded int
	Expected int
}

// ReconcilePoints resets total_points to the sum of evaluated points_earned
// for every user whose running total has drifted.
func (s *ReconcileService) ReconcilePoints(ctx context.Context) ([]PointsDrift, error) {
	db := s.DB.WithContext(ctx)

	var totals []pointsTotal
	if err := db.Table("users AS u").
		Select("u.id AS user_id, u.total_points AS recorded, COALESCE(SUM(p.points_earned), 0) AS expected").
		Joins("LEFT JOIN predictions p ON p.user_id = u.id AND p.is_evaluated = ?", true).
		Group("u.id, u.total_points").
		Having("u.total_points <> COALESCE(SUM(p.points_earned), 0)").
		Scan(&totals).Error; err != nil {
		return nil, fmt.Errorf("compute point totals: %w", err)
	}

	fixed := make([]PointsDrift, 0, len(totals))
	for _, t := range totals {
		drift, err := s.reconcileUser(ctx, t.UserID)
		if err != nil {
			return fixed, err
		}
		if drift != nil {
			fixed = append(fixed, *drift)
		}
	}

	if len(fixed) > 0 {
		log.Printf("⚠️ [RECONCILE] Corrected total_points for %d users", len(fixed))
		if s.Cache != nil {
			if err := s.Cache.Invalidate(ctx); err != nil {
				log.Printf("⚠️ [RECONCILE] Failed to invalidate leaderboard cache: %v", err)
			}
		}
	}
	return fixed, nil
}

// reconcileUser recomputes one user's total under a row lock so it cannot
// interleave with a settlement crediting the same user.
func (s *ReconcileService) reconcileUser(ctx context.Context, userID uint) (*PointsDrift, error) {
	var drift *PointsDrift
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("lock user %d: %w", userID, err)
		}

		var expected int
		if err := tx.Model(&models.Prediction{}).
			Select("COALESCE(SUM(points_earned), 0)").
			Where("user_id = ? AND is_evaluated = ?", userID, true).
			Scan(&expected).Error; err != nil {
			return fmt.Errorf("sum points for user %d: %w", userID, err)
		}
		if expected == user.TotalPoints {
			return nil
		}

		recorded := user.TotalPoints
		if err := tx.Model(&user).Update("total_points", expected).Error; err != nil {
			return fmt.Errorf("reset points for user %d: %w", userID, err)
		}
		drift = &PointsDrift{UserID: userID, Recorded: recorded, Expected: expected}
		return nil
	})
	return drift, err
}

func (s *ReconcileService) ReconcileHandler(c *fiber.Ctx) error {
	fixed, err := s.ReconcilePoints(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "corrected": fixed})
}
