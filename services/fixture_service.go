// services/fixture_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"alphabet-predictions/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ObjectStorage stores public files and returns their URL.
type ObjectStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

type FixtureService struct {
	DB         *gorm.DB
	Settlement *SettlementService
	Storage    ObjectStorage
}

func NewFixtureService(db *gorm.DB, settlement *SettlementService, storage ObjectStorage) *FixtureService {
	return &FixtureService{DB: db, Settlement: settlement, Storage: storage}
}

// --- Reads ---

func (s *FixtureService) ListTeams(ctx context.Context) ([]models.Team, error) {
	teams := []models.Team{}
	if err := s.DB.WithContext(ctx).Order("name ASC").Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}

func (s *FixtureService) ListRounds(ctx context.Context) ([]models.Round, error) {
	rounds := []models.Round{}
	if err := s.DB.WithContext(ctx).Order("round_number ASC").Find(&rounds).Error; err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	return rounds, nil
}

// MatchView is a match joined with its round and team names.
type MatchView struct {
	ID                 uint               `json:"id"`
	RoundID            uint               `json:"round_id"`
	RoundNumber        int                `json:"round_number"`
	RoundName          string             `json:"round_name"`
	HomeTeamID         uint               `json:"home_team_id"`
	HomeTeamName       string             `json:"home_team_name"`
	HomeTeamShortName  string             `json:"home_team_short"`
	HomeTeamLogoURL    *string            `json:"home_team_logo_url"`
	AwayTeamID         uint               `json:"away_team_id"`
	AwayTeamName       string             `json:"away_team_name"`
	AwayTeamShortName  string             `json:"away_team_short"`
	AwayTeamLogoURL    *string            `json:"away_team_logo_url"`
	MatchDate          time.Time          `json:"match_date"`
	PredictionDeadline time.Time          `json:"prediction_deadline"`
	Status             models.MatchStatus `json:"status"`
	HomeScore          *int               `json:"home_score"`
	AwayScore          *int               `json:"away_score"`
}

func (s *FixtureService) ListMatches(ctx context.Context, roundID *uint) ([]MatchView, error) {
	query := s.DB.WithContext(ctx).Table("matches AS m").
		Select(`m.id, m.round_id, r.round_number, r.name AS round_name,
			m.home_team_id, home_team.name AS home_team_name, home_team.short_name AS home_team_short_name,
			home_team.logo_url AS home_team_logo_url,
			m.away_team_id, away_team.name AS away_team_name, away_team.short_name AS away_team_short_name,
			away_team.logo_url AS away_team_logo_url,
			m.match_date, m.prediction_deadline, m.status, m.home_score, m.away_score`).
		Joins("JOIN rounds r ON r.id = m.round_id").
		Joins("JOIN teams home_team ON home_team.id = m.home_team_id").
		Joins("JOIN teams away_team ON away_team.id = m.away_team_id")
	if roundID != nil {
		query = query.Where("m.round_id = ?", *roundID)
	}

	views := []MatchView{}
	if err := query.Order("m.match_date ASC, m.id ASC").Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return views, nil
}

// --- Admin writes ---

type RoundInput struct {
	RoundNumber int       `json:"roundNumber" validate:"required,min=1"`
	Name        string    `json:"name" validate:"required,max=128"`
	StartDate   time.Time `json:"startDate" validate:"required"`
	EndDate     time.Time `json:"endDate" validate:"required"`
}

func (s *FixtureService) CreateRound(ctx context.Context, in RoundInput) (*models.Round, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if !in.EndDate.After(in.StartDate) {
		return nil, validationError("End date must be after start date")
	}

	db := s.DB.WithContext(ctx)
	var existing int64
	if err := db.Model(&models.Round{}).Where("round_number = ?", in.RoundNumber).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("check round number: %w", err)
	}
	if existing > 0 {
		return nil, validationError("Round number already exists")
	}

	round := models.Round{
		RoundNumber: in.RoundNumber,
		Name:        in.Name,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
	}
	if err := db.Create(&round).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, validationError("Round number already exists")
		}
		return nil, fmt.Errorf("create round: %w", err)
	}
	log.Printf("✅ [FIXTURES] Created round %d (%s)", round.RoundNumber, round.Name)
	return &round, nil
}

type MatchInput struct {
	RoundID            uint       `json:"roundId" validate:"required"`
	HomeTeamID         uint       `json:"homeTeamId" validate:"required"`
	AwayTeamID         uint       `json:"awayTeamId" validate:"required"`
	MatchDate          time.Time  `json:"matchDate" validate:"required"`
	PredictionDeadline *time.Time `json:"predictionDeadline"`
}

// CreateMatch schedules a fixture. The prediction deadline defaults to kickoff.
func (s *FixtureService) CreateMatch(ctx context.Context, in MatchInput) (*models.Match, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.HomeTeamID == in.AwayTeamID {
		return nil, validationError("Home and away teams must be different")
	}
	deadline := in.MatchDate
	if in.PredictionDeadline != nil {
		deadline = *in.PredictionDeadline
	}
	if deadline.After(in.MatchDate) {
		return nil, validationError("Prediction deadline must not be after kickoff")
	}

	db := s.DB.WithContext(ctx)
	if err := db.Select("id").First(&models.Round{}, in.RoundID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("load round: %w", err)
	}
	var teams int64
	if err := db.Model(&models.Team{}).Where("id IN ?", []uint{in.HomeTeamID, in.AwayTeamID}).Count(&teams).Error; err != nil {
		return nil, fmt.Errorf("load teams: %w", err)
	}
	if teams != 2 {
		return nil, ErrTeamNotFound
	}

	match := models.Match{
		RoundID:            in.RoundID,
		HomeTeamID:         in.HomeTeamID,
		AwayTeamID:         in.AwayTeamID,
		MatchDate:          in.MatchDate,
		PredictionDeadline: deadline,
		Status:             models.MatchStatusScheduled,
	}
	if err := db.Create(&match).Error; err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}
	log.Printf("✅ [FIXTURES] Scheduled match %d (%d vs %d)", match.ID, match.HomeTeamID, match.AwayTeamID)
	return &match, nil
}

type TeamInput struct {
	Name      string `json:"name" validate:"required,max=128"`
	ShortName string `json:"shortName" validate:"required,max=8"`
}

var shortNameCaser = cases.Upper(language.Und)

func (s *FixtureService) CreateTeam(ctx context.Context, in TeamInput) (*models.Team, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.ShortName = shortNameCaser.String(strings.TrimSpace(in.ShortName))
	if err := validateInput(in); err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	var existing int64
	if err := db.Model(&models.Team{}).Where("name = ?", in.Name).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("check team name: %w", err)
	}
	if existing > 0 {
		return nil, validationError("Team already exists")
	}

	team := models.Team{Name: in.Name, ShortName: in.ShortName}
	if err := db.Create(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, validationError("Team already exists")
		}
		return nil, fmt.Errorf("create team: %w", err)
	}
	return &team, nil
}

const maxLogoSize = 2 * 1024 * 1024

var logoExtensions = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// UploadTeamLogo stores a logo image and points the team at it.
func (s *FixtureService) UploadTeamLogo(ctx context.Context, teamID uint, contentType string, size int64, body io.Reader) (*models.Team, error) {
	if s.Storage == nil {
		return nil, ErrStorageUnavailable
	}
	ext, ok := logoExtensions[contentType]
	if !ok {
		return nil, validationError("Logo must be a PNG, JPEG, WebP or SVG image")
	}
	if size <= 0 || size > maxLogoSize {
		return nil, validationError("Logo must be at most 2MB")
	}

	db := s.DB.WithContext(ctx)
	var team models.Team
	if err := db.First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("load team: %w", err)
	}

	key := fmt.Sprintf("teams/%s-%s%s", slug.Make(team.Name), uuid.NewString()[:8], ext)
	url, err := s.Storage.Upload(ctx, key, contentType, io.LimitReader(body, maxLogoSize))
	if err != nil {
		return nil, fmt.Errorf("upload logo: %w", err)
	}
	if err := db.Model(&team).Update("logo_url", url).Error; err != nil {
		return nil, fmt.Errorf("save logo url: %w", err)
	}
	team.LogoURL = &url
	log.Printf("✅ [FIXTURES] Uploaded logo for %s: %s", team.Name, url)
	return &team, nil
}

type ResultInput struct {
	HomeScore *int               `json:"homeScore" validate:"omitempty,min=0"`
	AwayScore *int               `json:"awayScore" validate:"omitempty,min=0"`
	Status    models.MatchStatus `json:"status" validate:"omitempty,oneof=scheduled live finished postponed"`
}

type ResultOutcome struct {
	Match         models.Match
	Settlement    *SettlementResult
	SettlementErr error
}

// RecordResult moves a match to a new status and score. When the match ends
// up finished the settlement procedure runs after the update commits; a
// failed settlement leaves the result in place for the sweeper to retry.
func (s *FixtureService) RecordResult(ctx context.Context, matchID uint, in ResultInput) (*ResultOutcome, error) {
	if in.Status == "" {
		in.Status = models.MatchStatusFinished
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Status.CarriesScore() {
		if in.HomeScore == nil || in.AwayScore == nil {
			return nil, validationError("Home and away scores are required")
		}
	} else {
		in.HomeScore, in.AwayScore = nil, nil
	}

	var match models.Match
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&match, matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMatchNotFound
			}
			return fmt.Errorf("lock match: %w", err)
		}

		if match.Status == models.MatchStatusFinished {
			home, away, _ := match.FinalScore()
			if in.Status == models.MatchStatusFinished && home == *in.HomeScore && away == *in.AwayScore {
				return nil
			}
			return ErrResultConflict
		}
		if !match.Status.CanTransitionTo(in.Status) {
			return validationError(fmt.Sprintf("Cannot change match status from %s to %s", match.Status, in.Status))
		}

		match.Status = in.Status
		match.HomeScore = in.HomeScore
		match.AwayScore = in.AwayScore
		if err := tx.Model(&match).Select("Status", "HomeScore", "AwayScore").Updates(&match).Error; err != nil {
			return fmt.Errorf("update match: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	outcome := &ResultOutcome{Match: match}
	if match.Status == models.MatchStatusFinished && s.Settlement != nil {
		outcome.Settlement, outcome.SettlementErr = s.Settlement.SettleMatch(ctx, match.ID, models.SettlementTriggerResult)
		if outcome.SettlementErr != nil {
			log.Printf("❌ [FIXTURES] Settlement of match %d failed, sweeper will retry: %v", match.ID, outcome.SettlementErr)
		}
	}
	return outcome, nil
}

// --- Handlers ---

func (s *FixtureService) GetTeams(c *fiber.Ctx) error {
	teams, err := s.ListTeams(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(teams)
}

func (s *FixtureService) GetRounds(c *fiber.Ctx) error {
	rounds, err := s.ListRounds(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(rounds)
}

func (s *FixtureService) GetMatches(c *fiber.Ctx) error {
	roundID, err := optionalID(c.Query("roundId"))
	if err != nil {
		return validationError("Invalid round ID")
	}
	matches, err := s.ListMatches(c.UserContext(), roundID)
	if err != nil {
		return err
	}
	return c.JSON(matches)
}

func (s *FixtureService) CreateRoundHandler(c *fiber.Ctx) error {
	var req RoundInput
	if err := c.BodyParser(&req); err != nil {
		return validationError("Invalid request body")
	}
	round, err := s.CreateRound(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(round)
}

func (s *FixtureService) CreateMatchHandler(c *fiber.Ctx) error {
	var req MatchInput
	if err := c.BodyParser(&req); err != nil {
		return validationError("Invalid request body")
	}
	match, err := s.CreateMatch(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(match)
}

func (s *FixtureService) CreateTeamHandler(c *fiber.Ctx) error {
	var req TeamInput
	if err := c.BodyParser(&req); err != nil {
		return validationError("Invalid request body")
	}
	team, err := s.CreateTeam(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(team)
}

func (s *FixtureService) UploadTeamLogoHandler(c *fiber.Ctx) error {
	teamID, err := pathID(c, "id")
	if err != nil {
		return validationError("Invalid team ID")
	}
	file, err := c.FormFile("logo")
	if err != nil {
		return validationError("Logo file is required")
	}
	f, err := file.Open()
	if err != nil {
		return fmt.Errorf("open logo upload: %w", err)
	}
	defer f.Close()

	team, err := s.UploadTeamLogo(c.UserContext(), teamID, file.Header.Get("Content-Type"), file.Size, f)
	if err != nil {
		return err
	}
	return c.JSON(team)
}

func (s *FixtureService) UpdateMatchResult(c *fiber.Ctx) error {
	matchID, err := pathID(c, "id")
	if err != nil {
		return validationError("Invalid match ID")
	}
	var req ResultInput
	if err := c.BodyParser(&req); err != nil {
		return validationError("Invalid request body")
	}

	outcome, err := s.RecordResult(c.UserContext(), matchID, req)
	if err != nil {
		return err
	}
	resp := fiber.Map{
		"success":    true,
		"match":      outcome.Match,
		"settlement": outcome.Settlement,
	}
	if outcome.SettlementErr != nil {
		resp["settlement_error"] = "Settlement failed and will be retried"
	}
	return c.JSON(resp)
}

func pathID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
