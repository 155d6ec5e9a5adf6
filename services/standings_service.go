// services/standings_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"alphabet-predictions/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StandingsService struct {
	DB *gorm.DB
}

func NewStandingsService(db *gorm.DB) *StandingsService {
	return &StandingsService{DB: db}
}

type StandingView struct {
	ID             uint      `json:"id"`
	TeamID         uint      `json:"team_id"`
	TeamName       string    `json:"team_name"`
	ShortName      string    `json:"short_name"`
	LogoURL        *string   `json:"logo_url"`
	Position       int       `json:"position"`
	MatchesPlayed  int       `json:"matches_played"`
	Wins           int       `json:"wins"`
	Draws          int       `json:"draws"`
	Losses         int       `json:"losses"`
	GoalsFor       int       `json:"goals_for"`
	GoalsAgainst   int       `json:"goals_against"`
	GoalDifference int       `json:"goal_difference"`
	Points         int       `json:"points"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (s *StandingsService) Standings(ctx context.Context) ([]StandingView, error) {
	views := []StandingView{}
	err := s.DB.WithContext(ctx).Table("league_standings AS ls").
		Select(`ls.id, ls.team_id, t.name AS team_name, t.short_name, t.logo_url, ls.position,
			ls.matches_played, ls.wins, ls.draws, ls.losses, ls.goals_for, ls.goals_against,
			ls.goal_difference, ls.points, ls.updated_at`).
		Joins("JOIN teams t ON t.id = ls.team_id").
		Order("ls.position ASC").
		Scan(&views).Error
	if err != nil {
		return nil, fmt.Errorf("load standings: %w", err)
	}
	return views, nil
}

func (s *StandingsService) GetStandings(c *fiber.Ctx) error {
	views, err := s.Standings(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(views)
}

// BuildTable computes the league table from finished matches: three points
// for a win, one for a draw, ordered by points, goal difference, goals scored
// and team name. Every team gets a row, including teams without games.
func BuildTable(teams []models.Team, matches []models.Match) []models.LeagueStanding {
	rows := make(map[uint]*models.LeagueStanding, len(teams))
	names := make(map[uint]string, len(teams))
	for _, t := range teams {
		rows[t.ID] = &models.LeagueStanding{TeamID: t.ID}
		names[t.ID] = t.Name
	}

	for _, m := range matches {
		homeGoals, awayGoals, ok := m.FinalScore()
		if !ok {
			continue
		}
		home, away := rows[m.HomeTeamID], rows[m.AwayTeamID]
		if home == nil || away == nil {
			continue
		}

		home.MatchesPlayed++
		away.MatchesPlayed++
		home.GoalsFor += homeGoals
		home.GoalsAgainst += awayGoals
		away.GoalsFor += awayGoals
		away.GoalsAgainst += homeGoals

		switch models.DeriveOutcome(homeGoals, awayGoals) {
		case models.OutcomeHomeWin:
			home.Wins++
			away.Losses++
			home.Points += 3
		case models.OutcomeAwayWin:
			away.Wins++
			home.Losses++
			away.Points += 3
		default:
			home.Draws++
			away.Draws++
			home.Points++
			away.Points++
		}
	}

	table := make([]models.LeagueStanding, 0, len(rows))
	for _, r := range rows {
		r.GoalDifference = r.GoalsFor - r.GoalsAgainst
		table = append(table, *r)
	}

	sort.Slice(table, func(i, j int) bool {
		a, b := table[i], table[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference != b.GoalDifference {
			return a.GoalDifference > b.GoalDifference
		}
		if a.GoalsFor != b.GoalsFor {
			return a.GoalsFor > b.GoalsFor
		}
		return names[a.TeamID] < names[b.TeamID]
	})
	for i := range table {
		table[i].Position = i + 1
	}
	return table
}

// RecomputeStandings rebuilds league_standings from the finished matches.
func (s *StandingsService) RecomputeStandings(ctx context.Context) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var teams []models.Team
		if err := tx.Find(&teams).Error; err != nil {
			return fmt.Errorf("load teams: %w", err)
		}
		if len(teams) == 0 {
			return nil
		}

		var matches []models.Match
		if err := tx.Where("status = ?", models.MatchStatusFinished).Find(&matches).Error; err != nil {
			return fmt.Errorf("load finished matches: %w", err)
		}

		table := BuildTable(teams, matches)
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "team_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"position", "matches_played", "wins", "draws", "losses",
				"goals_for", "goals_against", "goal_difference", "points", "updated_at",
			}),
		}).Create(&table).Error; err != nil {
			return fmt.Errorf("upsert standings: %w", err)
		}
		log.Printf("✅ [STANDINGS] Recomputed table for %d teams from %d matches", len(table), len(matches))
		return nil
	})
}
