package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"alphabet-predictions/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var kickoff = time.Date(2025, 8, 16, 15, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fixture struct {
	Round models.Round
	Home  models.Team
	Away  models.Team
	Match models.Match
}

// seedFixture creates a round with one scheduled match between two teams.
// Predictions close at kickoff.
func seedFixture(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	f := fixture{
		Round: models.Round{RoundNumber: 1, Name: "Matchday 1", StartDate: kickoff.Add(-48 * time.Hour), EndDate: kickoff.Add(48 * time.Hour)},
		Home:  models.Team{Name: "Alpha FC", ShortName: "ALP"},
		Away:  models.Team{Name: "Beta United", ShortName: "BET"},
	}
	mustCreate(t, db, &f.Round)
	mustCreate(t, db, &f.Home)
	mustCreate(t, db, &f.Away)
	f.Match = models.Match{
		RoundID:            f.Round.ID,
		HomeTeamID:         f.Home.ID,
		AwayTeamID:         f.Away.ID,
		MatchDate:          kickoff,
		PredictionDeadline: kickoff,
		Status:             models.MatchStatusScheduled,
	}
	mustCreate(t, db, &f.Match)
	return f
}

func seedUser(t *testing.T, db *gorm.DB, username string, admin bool) models.User {
	t.Helper()
	u := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "not-a-real-hash",
		IsAdmin:      admin,
	}
	mustCreate(t, db, &u)
	return u
}

func mustCreate(t *testing.T, db *gorm.DB, value interface{}) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("create %T: %v", value, err)
	}
}

func intPtr(v int) *int { return &v }

func finishMatch(t *testing.T, db *gorm.DB, matchID uint, home, away int) {
	t.Helper()
	if err := db.Model(&models.Match{}).Where("id = ?", matchID).Updates(map[string]interface{}{
		"status":     models.MatchStatusFinished,
		"home_score": home,
		"away_score": away,
	}).Error; err != nil {
		t.Fatalf("finish match: %v", err)
	}
}

func placePrediction(t *testing.T, db *gorm.DB, userID, matchID uint, outcome models.Outcome, home, away *int) models.Prediction {
	t.Helper()
	p := models.Prediction{
		UserID:             userID,
		MatchID:            matchID,
		PredictedOutcome:   outcome,
		PredictedHomeScore: home,
		PredictedAwayScore: away,
	}
	mustCreate(t, db, &p)
	return p
}

func loadUser(t *testing.T, db *gorm.DB, id uint) models.User {
	t.Helper()
	var u models.User
	if err := db.First(&u, id).Error; err != nil {
		t.Fatalf("load user %d: %v", id, err)
	}
	return u
}

func loadPrediction(t *testing.T, db *gorm.DB, id uint) models.Prediction {
	t.Helper()
	var p models.Prediction
	if err := db.First(&p, id).Error; err != nil {
		t.Fatalf("load prediction %d: %v", id, err)
	}
	return p
}

func expectAPIError(t *testing.T, err error, status int) *APIError {
	t.Helper()
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError with status %d, got %v", status, err)
	}
	if apiErr.Status != status {
		t.Fatalf("expected status %d, got %d (%s)", status, apiErr.Status, apiErr.Message)
	}
	return apiErr
}

// memoryCache is a LeaderboardCache kept in process memory.
type memoryCache struct {
	mu          sync.Mutex
	entries     []LeaderboardEntry
	stored      bool
	invalidated int
}

func (m *memoryCache) Get(ctx context.Context) ([]LeaderboardEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries, m.stored, nil
}

func (m *memoryCache) Set(ctx context.Context, entries []LeaderboardEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries, m.stored = entries, true
	return nil
}

func (m *memoryCache) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries, m.stored = nil, false
	m.invalidated++
	return nil
}
