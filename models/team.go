package models

import "time"

type Team struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:128;uniqueIndex;not null" json:"name"`
	ShortName string    `gorm:"size:8;not null" json:"short_name"`
	LogoURL   *string   `json:"logo_url"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
