// services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"alphabet-predictions/models"
	"alphabet-predictions/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuthService struct {
	DB     *gorm.DB
	Tokens *utils.TokenManager
	// Cache, when set, is dropped whenever the set of ranked accounts changes.
	Cache LeaderboardCache
}

func NewAuthService(db *gorm.DB, tokens *utils.TokenManager) *AuthService {
	return &AuthService{DB: db, Tokens: tokens}
}

type RegisterInput struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateAccount registers a new non-admin user and issues a token for it.
func (s *AuthService) CreateAccount(ctx context.Context, in RegisterInput) (*AuthResponse, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	var existing int64
	if err := db.Model(&models.User{}).
		Where("email = ? OR username = ?", in.Email, in.Username).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("check existing account: %w", err)
	}
	if existing > 0 {
		return nil, ErrDuplicateAccount
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateAccount
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.Printf("✅ [AUTH] Registered user %d (%s)", user.ID, user.Username)
	s.invalidateLeaderboard(ctx)
	return s.respond(user)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResponse, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, validationError("Email and password are required")
	}

	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !utils.CheckPassword(user.PasswordHash, in.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.respond(user)
}

func (s *AuthService) respond(user models.User) (*AuthResponse, error) {
	token, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: user.Public()}, nil
}

// Authenticate resolves an Authorization header to the account it names.
// The account is re-read on every call so deleted users lose access at once.
func (s *AuthService) Authenticate(ctx context.Context, header string) (models.PublicUser, error) {
	raw, ok := strings.CutPrefix(strings.TrimSpace(header), "Bearer ")
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return models.PublicUser{}, ErrTokenMissing
	}

	claims, err := s.Tokens.Parse(raw)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return models.PublicUser{}, ErrTokenExpired
		}
		return models.PublicUser{}, ErrTokenInvalid
	}

	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.PublicUser{}, ErrTokenInvalid
		}
		return models.PublicUser{}, fmt.Errorf("load token user: %w", err)
	}
	return user.Public(), nil
}

// EnsureAdmin creates the configured admin account, or promotes the account
// that already owns the email.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return errors.New("admin email and password are required")
	}

	db := s.DB.WithContext(ctx)
	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		if user.IsAdmin {
			return nil
		}
		if err := db.Model(&user).Update("is_admin", true).Error; err != nil {
			return fmt.Errorf("promote admin: %w", err)
		}
		log.Printf("✅ [AUTH] Promoted %s to admin", user.Username)
		s.invalidateLeaderboard(ctx)
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("load admin: %w", err)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	user = models.User{
		Username:     strings.TrimSpace(username),
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      true,
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Printf("✅ [AUTH] Created admin account %s", user.Username)
	return nil
}

func (s *AuthService) invalidateLeaderboard(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx); err != nil {
		log.Printf("⚠️ [AUTH] Failed to invalidate leaderboard cache: %v", err)
	}
}

// --- Handlers ---

func (s *AuthService) Register(c *fiber.Ctx) error {
	var req RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return validationError("Invalid request body")
	}
	resp, err := s.CreateAccount(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (s *AuthService) LoginHandler(c *fiber.Ctx) error {
	var req LoginInput
	if err := c.BodyParser(&req); err != nil {
		return validationError("Invalid request body")
	}
	resp, err := s.Login(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (s *AuthService) Me(c *fiber.Ctx) error {
	user, err := requireCurrentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user})
}
