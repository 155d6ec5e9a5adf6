package models

import "time"

// User is an AlphaBet account. TotalPoints is the running sum of the
// points_earned of the user's evaluated predictions.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	IsAdmin      bool   `gorm:"not null;default:false;index" json:"is_admin"`
	TotalPoints  int    `gorm:"not null;default:0;index" json:"total_points"`

	Timestamps
}

// PublicUser is the projection of a User that is safe to hand to clients.
type PublicUser struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	IsAdmin     bool   `json:"is_admin"`
	TotalPoints int    `json:"total_points"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		IsAdmin:     u.IsAdmin,
		TotalPoints: u.TotalPoints,
	}
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
