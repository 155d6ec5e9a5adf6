package models

import "time"

// Round groups the matches of one matchday.
type Round struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RoundNumber int       `gorm:"uniqueIndex;not null" json:"round_number"`
	Name        string    `gorm:"size:128;not null" json:"name"`
	StartDate   time.Time `gorm:"not null" json:"start_date"`
	EndDate     time.Time `gorm:"not null" json:"end_date"`
	IsActive    bool      `gorm:"not null;default:false" json:"is_active"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}
