package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"alphabet-predictions/models"
	"alphabet-predictions/utils"

	"gorm.io/gorm"
)

func newAuthService(db *gorm.DB) *AuthService {
	return NewAuthService(db, utils.NewTokenManager("test-secret", 7*24*time.Hour))
}

func TestCreateAccountAndLogin(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)
	ctx := context.Background()

	resp, err := svc.CreateAccount(ctx, RegisterInput{Username: "alice", Email: "Alice@Example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.Token == "" || resp.User.Username != "alice" || resp.User.Email != "alice@example.com" {
		t.Fatalf("unexpected register response: %+v", resp)
	}
	if resp.User.IsAdmin || resp.User.TotalPoints != 0 {
		t.Fatalf("expected a plain account, got %+v", resp.User)
	}

	stored := loadUser(t, db, resp.User.ID)
	if stored.PasswordHash == "secret1" || !utils.CheckPassword(stored.PasswordHash, "secret1") {
		t.Fatalf("expected a bcrypt hash to be stored")
	}

	login, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.User.ID != resp.User.ID {
		t.Fatalf("expected user %d, got %d", resp.User.ID, login.User.ID)
	}

	user, err := svc.Authenticate(ctx, "Bearer "+login.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.ID != resp.User.ID {
		t.Fatalf("expected token for user %d, got %d", resp.User.ID, user.ID)
	}
}

func TestCreateAccountRejectsDuplicates(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)
	ctx := context.Background()
	if _, err := svc.CreateAccount(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, in := range []RegisterInput{
		{Username: "alice", Email: "other@example.com", Password: "secret1"},
		{Username: "other", Email: "alice@example.com", Password: "secret1"},
	} {
		if _, err := svc.CreateAccount(ctx, in); !errors.Is(err, ErrDuplicateAccount) {
			t.Fatalf("%+v: expected ErrDuplicateAccount, got %v", in, err)
		}
	}
}

func TestCreateAccountValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	cases := map[string]RegisterInput{
		"short password": {Username: "alice", Email: "alice@example.com", Password: "12345"},
		"bad email":      {Username: "alice", Email: "not-an-email", Password: "secret1"},
		"no username":    {Email: "alice@example.com", Password: "secret1"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateAccount(context.Background(), in)
			expectAPIError(t, err, http.StatusBadRequest)
		})
	}
}

func TestLoginFailures(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)
	ctx := context.Background()
	if _, err := svc.CreateAccount(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong-password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "secret1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
	_, err := svc.Login(ctx, LoginInput{Email: "alice@example.com"})
	expectAPIError(t, err, http.StatusBadRequest)
}

func TestAuthenticateFailures(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)
	ctx := context.Background()
	alice := seedUser(t, db, "alice", false)

	for _, header := range []string{"", "Bearer ", "Token abc", "abc"} {
		if _, err := svc.Authenticate(ctx, header); !errors.Is(err, ErrTokenMissing) {
			t.Fatalf("%q: expected ErrTokenMissing, got %v", header, err)
		}
	}
	if _, err := svc.Authenticate(ctx, "Bearer not.a.token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}

	other := utils.NewTokenManager("other-secret", time.Hour)
	forged, _ := other.Issue(alice.ID)
	if _, err := svc.Authenticate(ctx, "Bearer "+forged); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("forged token: expected ErrTokenInvalid, got %v", err)
	}

	issuedAt := time.Now().Add(-8 * 24 * time.Hour)
	svc.Tokens.Now = func() time.Time { return issuedAt }
	stale, err := svc.Tokens.Issue(alice.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	svc.Tokens.Now = time.Now
	if _, err := svc.Authenticate(ctx, "Bearer "+stale); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	ghost, _ := svc.Tokens.Issue(alice.ID + 100)
	if _, err := svc.Authenticate(ctx, "Bearer "+ghost); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("unknown user: expected ErrTokenInvalid, got %v", err)
	}
}

func TestEnsureAdmin(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)
	ctx := context.Background()

	if err := svc.EnsureAdmin(ctx, "admin", "admin@example.com", "admin-pass"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if err := svc.EnsureAdmin(ctx, "admin", "admin@example.com", "admin-pass"); err != nil {
		t.Fatalf("ensure admin twice: %v", err)
	}
	var admins []models.User
	db.Where("is_admin = ?", true).Find(&admins)
	if len(admins) != 1 || admins[0].Username != "admin" {
		t.Fatalf("expected a single admin account, got %+v", admins)
	}
	if _, err := svc.Login(ctx, LoginInput{Email: "admin@example.com", Password: "admin-pass"}); err != nil {
		t.Fatalf("admin login: %v", err)
	}

	bob := seedUser(t, db, "bob", false)
	if err := svc.EnsureAdmin(ctx, "ignored", bob.Email, "whatever"); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if !loadUser(t, db, bob.ID).IsAdmin {
		t.Fatalf("expected bob to be promoted to admin")
	}
}

func TestAccountChangesInvalidateLeaderboard(t *testing.T) {
	db := newTestDB(t)
	cache := &memoryCache{}
	svc := newAuthService(db)
	svc.Cache = cache
	board := NewLeaderboardService(db, cache)
	ctx := context.Background()

	bob := seedUser(t, db, "bob", false)
	entries, err := board.Leaderboard(ctx)
	if err != nil || len(entries) != 1 || entries[0].ID != bob.ID {
		t.Fatalf("expected bob alone on the board, got %+v (%v)", entries, err)
	}

	if _, err := svc.CreateAccount(ctx, RegisterInput{Username: "carol", Email: "carol@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if entries, err = board.Leaderboard(ctx); err != nil || len(entries) != 2 {
		t.Fatalf("expected the new account on the board, got %+v (%v)", entries, err)
	}

	if err := svc.EnsureAdmin(ctx, "ignored", bob.Email, "whatever"); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if entries, err = board.Leaderboard(ctx); err != nil || len(entries) != 1 || entries[0].Username != "carol" {
		t.Fatalf("expected the promoted admin off the board, got %+v (%v)", entries, err)
	}
	if cache.invalidated != 2 {
		t.Fatalf("expected two invalidations, got %d", cache.invalidated)
	}
}
