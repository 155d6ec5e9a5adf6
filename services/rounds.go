package services

import (
	"context"
	"fmt"
	"time"

	"alphabet-predictions/models"

	"gorm.io/gorm"
)

// ActivateRounds marks the rounds whose window contains now as active and
// every other round as inactive. It returns the number of rounds changed.
func ActivateRounds(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	var changed int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		on := tx.Model(&models.Round{}).
			Where("is_active = ? AND start_date <= ? AND end_date > ?", false, now, now).
			Update("is_active", true)
		if on.Error != nil {
			return fmt.Errorf("activate rounds: %w", on.Error)
		}
		off := tx.Model(&models.Round{}).
			Where("is_active = ? AND (start_date > ? OR end_date <= ?)", true, now, now).
			Update("is_active", false)
		if off.Error != nil {
			return fmt.Errorf("deactivate rounds: %w", off.Error)
		}
		changed = on.RowsAffected + off.RowsAffected
		return nil
	})
	return changed, err
}
