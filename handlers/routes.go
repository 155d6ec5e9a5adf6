package handlers

import (
	"alphabet-predictions/middleware"
	"alphabet-predictions/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(api fiber.Router, auth *services.AuthService, authRequired fiber.Handler) {
	api.Post("/auth/register", auth.Register)
	api.Post("/auth/login", auth.LoginHandler)
	api.Get("/auth/me", authRequired, auth.Me)
}

// 🔓 Public reads
func SetupFixtureRoutes(api fiber.Router, fixtures *services.FixtureService, standings *services.StandingsService, leaderboard *services.LeaderboardService) {
	api.Get("/teams", fixtures.GetTeams)
	api.Get("/rounds", fixtures.GetRounds)
	api.Get("/matches", fixtures.GetMatches)
	api.Get("/standings", standings.GetStandings)
	api.Get("/leaderboard", leaderboard.GetLeaderboard)
}

// 🔐 Authenticated routes
func SetupPredictionRoutes(api fiber.Router, predictions *services.PredictionService, authRequired fiber.Handler) {
	api.Post("/predictions", authRequired, predictions.CreateOrUpdatePrediction)
	api.Get("/predictions/user/:userId", authRequired, predictions.GetUserPredictions)
}

// 🔐 Admin only
func SetupAdminRoutes(api fiber.Router, fixtures *services.FixtureService, reconcile *services.ReconcileService, authRequired fiber.Handler) {
	admin := api.Group("/admin", authRequired, middleware.RequireAdmin())

	admin.Post("/rounds", fixtures.CreateRoundHandler)
	admin.Post("/teams", fixtures.CreateTeamHandler)
	admin.Post("/teams/:id/logo", fixtures.UploadTeamLogoHandler)
	admin.Post("/matches", fixtures.CreateMatchHandler)
	admin.Put("/matches/:id/result", fixtures.UpdateMatchResult)
	admin.Post("/reconcile", reconcile.ReconcileHandler)
}
