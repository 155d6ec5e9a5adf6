package handlers

import (
	"strings"

	"alphabet-predictions/middleware"
	"alphabet-predictions/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// Services bundles everything the routes dispatch to.
type Services struct {
	Auth        *services.AuthService
	Fixtures    *services.FixtureService
	Predictions *services.PredictionService
	Leaderboard *services.LeaderboardService
	Standings   *services.StandingsService
	Reconcile   *services.ReconcileService
}

type AppConfig struct {
	AllowedOrigins string
	AccessLog      bool
}

// NewApp builds the fiber app with middleware and every route mounted.
func NewApp(svc Services, cfg AppConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "AlphaBet API",
		ErrorHandler: services.ErrorHandler,
		BodyLimit:    4 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	if cfg.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.AllowedOrigins),
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		MaxAge:       86400,
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	authRequired := middleware.RequireAuth(svc.Auth)
	SetupAuthRoutes(api, svc.Auth, authRequired)
	SetupFixtureRoutes(api, svc.Fixtures, svc.Standings, svc.Leaderboard)
	SetupPredictionRoutes(api, svc.Predictions, authRequired)
	SetupAdminRoutes(api, svc.Fixtures, svc.Reconcile, authRequired)

	return app
}

func normalizeOrigins(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "http://localhost:3000"
	}
	origins := strings.Split(raw, ",")
	for i, origin := range origins {
		origins[i] = strings.TrimSpace(origin)
	}
	return strings.Join(origins, ",")
}
