package models

import "time"

// MatchStatus is the lifecycle state of a fixture.
type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusLive      MatchStatus = "live"
	MatchStatusFinished  MatchStatus = "finished"
	MatchStatusPostponed MatchStatus = "postponed"
)

// matchTransitions lists the states reachable from each state. A live match
// may be updated in place while its score changes; finished is terminal.
var matchTransitions = map[MatchStatus][]MatchStatus{
	MatchStatusScheduled: {MatchStatusLive, MatchStatusFinished, MatchStatusPostponed},
	MatchStatusLive:      {MatchStatusLive, MatchStatusFinished, MatchStatusPostponed},
	MatchStatusPostponed: {MatchStatusScheduled, MatchStatusLive, MatchStatusFinished},
	MatchStatusFinished:  {},
}

func (s MatchStatus) Valid() bool {
	_, ok := matchTransitions[s]
	return ok
}

func (s MatchStatus) CanTransitionTo(next MatchStatus) bool {
	for _, candidate := range matchTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// AcceptsPredictions reports whether predictions may still be placed or changed.
func (s MatchStatus) AcceptsPredictions() bool {
	return s == MatchStatusScheduled
}

// CarriesScore reports whether a match in this state has a home/away score.
func (s MatchStatus) CarriesScore() bool {
	return s == MatchStatusLive || s == MatchStatusFinished
}

// Outcome is the result of a match from the home side's point of view.
type Outcome string

const (
	OutcomeHomeWin Outcome = "home_win"
	OutcomeAwayWin Outcome = "away_win"
	OutcomeDraw    Outcome = "draw"
)

func (o Outcome) Valid() bool {
	switch o {
	case OutcomeHomeWin, OutcomeAwayWin, OutcomeDraw:
		return true
	}
	return false
}

// DeriveOutcome maps a final score to its outcome.
func DeriveOutcome(homeScore, awayScore int) Outcome {
	switch {
	case homeScore > awayScore:
		return OutcomeHomeWin
	case awayScore > homeScore:
		return OutcomeAwayWin
	default:
		return OutcomeDraw
	}
}

// Match is a scheduled fixture between two teams inside a round.
type Match struct {
	ID                 uint        `gorm:"primaryKey" json:"id"`
	RoundID            uint        `gorm:"index;not null" json:"round_id"`
	HomeTeamID         uint        `gorm:"index;not null" json:"home_team_id"`
	AwayTeamID         uint        `gorm:"index;not null" json:"away_team_id"`
	MatchDate          time.Time   `gorm:"index;not null" json:"match_date"`
	PredictionDeadline time.Time   `gorm:"not null" json:"prediction_deadline"`
	Status             MatchStatus `gorm:"size:16;not null;default:'scheduled';index" json:"status"`
	HomeScore          *int        `json:"home_score"`
	AwayScore          *int        `json:"away_score"`

	Timestamps
}

// FinalScore returns the recorded score when the match is finished.
func (m Match) FinalScore() (home, away int, ok bool) {
	if m.Status != MatchStatusFinished || m.HomeScore == nil || m.AwayScore == nil {
		return 0, 0, false
	}
	return *m.HomeScore, *m.AwayScore, true
}
