package models

import "time"

// LeagueStanding is one row of the precomputed league table.
type LeagueStanding struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	TeamID         uint      `gorm:"uniqueIndex;not null" json:"team_id"`
	Position       int       `gorm:"index;not null" json:"position"`
	MatchesPlayed  int       `gorm:"not null;default:0" json:"matches_played"`
	Wins           int       `gorm:"not null;default:0" json:"wins"`
	Draws          int       `gorm:"not null;default:0" json:"draws"`
	Losses         int       `gorm:"not null;default:0" json:"losses"`
	GoalsFor       int       `gorm:"not null;default:0" json:"goals_for"`
	GoalsAgainst   int       `gorm:"not null;default:0" json:"goals_against"`
	GoalDifference int       `gorm:"not null;default:0" json:"goal_difference"`
	Points         int       `gorm:"not null;default:0" json:"points"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
