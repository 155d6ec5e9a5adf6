package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Port           string
	DatabaseURL    string
	AllowedOrigins string

	JWTSecret    string
	JWTSecretARN string
	AWSRegion    string
	TokenTTL     time.Duration

	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int

	RedisAddr           string
	RedisPassword       string
	LeaderboardCacheTTL time.Duration

	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2Bucket          string
	CDNBaseURL        string

	StandingsInterval       time.Duration
	RoundActivationInterval time.Duration
	ReconcileInterval       time.Duration
	SweepInterval           time.Duration

	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// DefaultJWTSecret is only meant for local development.
const DefaultJWTSecret = "your-secret-key-change-in-production"

func Default() Config {
	return Config{
		Port:                     "3001",
		AllowedOrigins:           "http://localhost:3000",
		JWTSecret:                DefaultJWTSecret,
		AWSRegion:                "us-east-1",
		TokenTTL:                 7 * 24 * time.Hour,
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		LeaderboardCacheTTL:      30 * time.Second,
		StandingsInterval:        5 * time.Minute,
		RoundActivationInterval:  time.Minute,
		ReconcileInterval:        time.Hour,
		SweepInterval:            time.Minute,
		AdminUsername:            "admin",
	}
}

func Load() Config {
	cfg := Default()
	setString(&cfg.Port, "PORT")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.AllowedOrigins, "ALLOWED_ORIGINS")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.JWTSecretARN, "JWT_SECRET_ARN")
	setString(&cfg.AWSRegion, "AWS_REGION")
	setDuration(&cfg.TokenTTL, "TOKEN_TTL")
	setPositiveInt(&cfg.DBMaxOpenConns, "DB_MAX_OPEN_CONNS")
	setPositiveInt(&cfg.DBMaxIdleConns, "DB_MAX_IDLE_CONNS")
	setPositiveInt(&cfg.DBConnMaxLifetimeSeconds, "DB_CONN_MAX_LIFETIME_SECONDS")
	setString(&cfg.RedisAddr, "REDIS_ADDR")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")
	setDuration(&cfg.LeaderboardCacheTTL, "LEADERBOARD_CACHE_TTL")
	setString(&cfg.R2AccountID, "CLOUDFLARE_ACCOUNT_ID")
	setString(&cfg.R2AccessKeyID, "R2_ACCESS_KEY_ID")
	setString(&cfg.R2AccessKeySecret, "R2_ACCESS_KEY_SECRET")
	setString(&cfg.R2Bucket, "R2_BUCKET_NAME")
	setString(&cfg.CDNBaseURL, "CDN_BASE_URL")
	setDuration(&cfg.StandingsInterval, "STANDINGS_INTERVAL")
	setDuration(&cfg.RoundActivationInterval, "ROUND_ACTIVATION_INTERVAL")
	setDuration(&cfg.ReconcileInterval, "RECONCILE_INTERVAL")
	setDuration(&cfg.SweepInterval, "SWEEP_INTERVAL")
	setString(&cfg.AdminUsername, "ADMIN_USERNAME")
	setString(&cfg.AdminEmail, "ADMIN_EMAIL")
	setString(&cfg.AdminPassword, "ADMIN_PASSWORD")
	return cfg
}

// R2Enabled reports whether object storage credentials are configured.
func (c Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2AccessKeySecret != "" && c.R2Bucket != ""
}

func setString(dst *string, key string) {
	if raw := os.Getenv(key); raw != "" {
		*dst = raw
	}
}

func setPositiveInt(dst *int, key string) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		log.Printf("⚠️  ignoring %s=%q: expected a positive integer", key, raw)
		return
	}
	*dst = value
}

func setDuration(dst *time.Duration, key string) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		log.Printf("⚠️  ignoring %s=%q: expected a positive duration", key, raw)
		return
	}
	*dst = value
}
