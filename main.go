package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alphabet-predictions/config"
	"alphabet-predictions/handlers"
	"alphabet-predictions/models"
	"alphabet-predictions/services"
	"alphabet-predictions/utils"
	"alphabet-predictions/workers"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("⚠️  Failed to read .env: %v", err)
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.JWTSecretARN != "" {
		secret, err := utils.LoadSecretString(ctx, cfg.AWSRegion, cfg.JWTSecretARN)
		if err != nil {
			log.Fatal("failed to load JWT secret:", err)
		}
		cfg.JWTSecret = secret
	}
	if cfg.JWTSecret == config.DefaultJWTSecret {
		log.Println("⚠️  JWT_SECRET not set, using the development default")
	}

	db, err := models.Open(cfg.DatabaseURL, models.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetimeSeconds) * time.Second,
	})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}
	if err := models.Migrate(db); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	var cache services.LeaderboardCache
	if cfg.RedisAddr != "" {
		client, err := utils.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatal("failed to connect to redis:", err)
		}
		defer client.Close()
		cache = services.NewRedisLeaderboardCache(client, cfg.LeaderboardCacheTTL)
		log.Printf("✅ Leaderboard cache enabled (%s, ttl %s)", cfg.RedisAddr, cfg.LeaderboardCacheTTL)
	}

	var storage services.ObjectStorage
	if cfg.R2Enabled() {
		r2, err := utils.NewR2Storage(ctx, cfg.R2AccountID, cfg.R2AccessKeyID, cfg.R2AccessKeySecret, cfg.R2Bucket, cfg.CDNBaseURL)
		if err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		storage = r2
		log.Printf("✅ R2 logo storage enabled (bucket %s)", cfg.R2Bucket)
	}

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	authService := services.NewAuthService(db, tokens)
	authService.Cache = cache
	settlementService := services.NewSettlementService(db, cache)
	standingsService := services.NewStandingsService(db)
	reconcileService := services.NewReconcileService(db, cache)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := authService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatal("failed to seed admin account:", err)
		}
	}

	sched, err := services.StartScheduler(ctx, db, standingsService, reconcileService, services.SchedulerConfig{
		StandingsInterval:       cfg.StandingsInterval,
		RoundActivationInterval: cfg.RoundActivationInterval,
		ReconcileInterval:       cfg.ReconcileInterval,
	})
	if err != nil {
		log.Fatal("failed to start scheduler:", err)
	}

	go workers.RunSettlementSweeper(ctx, settlementService, cfg.SweepInterval)

	app := handlers.NewApp(handlers.Services{
		Auth:        authService,
		Fixtures:    services.NewFixtureService(db, settlementService, storage),
		Predictions: services.NewPredictionService(db),
		Leaderboard: services.NewLeaderboardService(db, cache),
		Standings:   standingsService,
		Reconcile:   reconcileService,
	}, handlers.AppConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		AccessLog:      true,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
			stop()
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", cfg.Port)
	log.Printf("✅ Settlement sweeper running (every %s)", cfg.SweepInterval)
	log.Printf("✅ CORS configured for origins: %s", cfg.AllowedOrigins)

	<-ctx.Done()
	log.Println("Shutting down server...")

	if err := sched.Shutdown(); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
