package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Dosada05/tournament-predictor/handlers"
	"github.com/Dosada05/tournament-predictor/middleware"
)

// Handlers - все обработчики, которые монтируются в роутер.
type Handlers struct {
	Predictor  *handlers.PredictorHandler
	Tournament *handlers.TournamentHandler
	Match      *handlers.MatchHandler
	Prediction *handlers.PredictionHandler
	Dashboard  *handlers.DashboardHandler
	Lifecycle  *handlers.LifecycleHandler
	WebSocket  *handlers.WebSocketHandler
	Health     *handlers.HealthHandler
}

type Options struct {
	FrontendURL  string
	JWTSecretKey string
	// RequestTimeout ограничивает обработку API-запросов, websocket не затрагивает
	RequestTimeout time.Duration
}

func SetupRoutes(r chi.Router, h Handlers, opts Options) {
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chiMiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{opts.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Get("/health", h.Health.HealthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/ws", func(r chi.Router) {
		r.Get("/dashboard", h.WebSocket.ServeDashboard)
		r.Get("/tournaments/{tournamentID}", h.WebSocket.ServeTournament)
	})

	requireAdmin := middleware.RequireAdmin(opts.JWTSecretKey)
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(timeout))

		r.Route("/predictors", func(r chi.Router) {
			r.Get("/", h.Predictor.ListHandler)
			r.Get("/stats", h.Predictor.ListWithStatsHandler)
			r.Get("/{predictorID}", h.Predictor.GetByIDHandler)
			r.Get("/{predictorID}/stats", h.Predictor.StatsHandler)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Post("/", h.Predictor.CreateHandler)
				r.Put("/{predictorID}", h.Predictor.UpdateHandler)
				r.Delete("/{predictorID}", h.Predictor.DeleteHandler)
			})
		})

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", h.Tournament.ListHandler)
			r.Get("/active", h.Tournament.ListActiveHandler)
			r.Get("/{tournamentID}", h.Tournament.GetByIDHandler)
			r.Get("/{tournamentID}/stats", h.Tournament.StatsHandler)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Post("/", h.Tournament.CreateHandler)
				r.Put("/{tournamentID}", h.Tournament.UpdateHandler)
				r.Delete("/{tournamentID}", h.Tournament.DeleteHandler)
			})
		})

		r.Route("/matches", func(r chi.Router) {
			r.Get("/", h.Match.ListHandler)
			r.Get("/upcoming", h.Match.ListUpcomingHandler)
			r.Get("/completed", h.Match.ListCompletedHandler)
			r.Get("/tournament/{tournamentID}", h.Match.ListByTournamentHandler)
			r.Get("/{matchID}", h.Match.GetByIDHandler)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Post("/", h.Match.CreateHandler)
				r.Put("/{matchID}", h.Match.UpdateHandler)
				r.Put("/{matchID}/winner", h.Match.SetWinnerHandler)
				r.Put("/{matchID}/correction", h.Match.CorrectResultHandler)
				r.Delete("/{matchID}", h.Match.DeleteHandler)
			})
		})

		// Прогнозы вносят сами участники, поэтому создание и изменение открыты
		r.Route("/predictions", func(r chi.Router) {
			r.Get("/", h.Prediction.ListHandler)
			r.Get("/stats", h.Prediction.StatsHandler)
			r.Get("/match/{matchID}", h.Prediction.ListByMatchHandler)
			r.Get("/predictor/{predictorID}", h.Prediction.ListByPredictorHandler)
			r.Get("/{predictionID}", h.Prediction.GetByIDHandler)
			r.Post("/", h.Prediction.CreateHandler)
			r.Put("/{predictionID}", h.Prediction.UpdateHandler)

			r.With(requireAdmin).Delete("/{predictionID}", h.Prediction.DeleteHandler)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/stats", h.Dashboard.StatsHandler)
			r.Get("/leaderboard", h.Dashboard.LeaderboardHandler)
			r.Get("/tournament-comparison", h.Dashboard.TournamentComparisonHandler)
			r.Get("/trends", h.Dashboard.TrendsHandler)
			r.Get("/predictor-performance/{predictorID}", h.Dashboard.PredictorPerformanceHandler)
			r.Get("/export", h.Dashboard.ExportHandler)
		})

		r.With(requireAdmin).Post("/lifecycle/{sweep}", h.Lifecycle.RunHandler)
	})
}
