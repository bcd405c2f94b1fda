package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Dosada05/tournament-predictor/config"
	"github.com/Dosada05/tournament-predictor/db"
	"github.com/Dosada05/tournament-predictor/handlers"
	"github.com/Dosada05/tournament-predictor/live"
	"github.com/Dosada05/tournament-predictor/repositories"
	"github.com/Dosada05/tournament-predictor/routes"
	"github.com/Dosada05/tournament-predictor/scheduler"
	"github.com/Dosada05/tournament-predictor/services"
	"github.com/Dosada05/tournament-predictor/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.MustLoad()
	setupLogger(cfg)
	log.Info().
		Int("port", cfg.ServerPort).
		Str("env", cfg.AppEnv).
		Str("store", cfg.StoreDriver).
		Str("timezone", cfg.Timezone).
		Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Хранилище
	store, dbConn, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	if dbConn != nil {
		defer func() {
			if err := dbConn.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close database connection")
			} else {
				log.Info().Msg("database connection closed")
			}
		}()
	}

	// Архив экспортов в Cloudflare R2
	var uploader storage.FileUploader
	if cfg.ArchiveEnabled() {
		archive, err := storage.NewR2Archive(ctx, storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Cloudflare R2 uploader")
		}
		uploader = archive
		log.Info().Str("bucket", cfg.R2BucketName).Msg("Cloudflare R2 uploader initialized")
	} else {
		log.Info().Msg("R2 settings are incomplete, export archive disabled")
	}

	// WebSocket Hub
	hub := live.NewHub()
	go hub.Run(ctx)
	log.Info().Msg("live hub started")

	// Сервисы
	opts := services.Options{Location: cfg.Location(), Events: hub}
	predictorService := services.NewPredictorService(store)
	tournamentService := services.NewTournamentService(store, opts)
	matchService := services.NewMatchService(store, opts)
	predictionService := services.NewPredictionService(store, opts)
	dashboardService := services.NewDashboardService(store, opts)
	exportService := services.NewExportService(store, uploader, opts)
	lifecycleService := services.NewLifecycleService(store, services.LifecycleWindows{
		Upcoming:          cfg.UpcomingWindow,
		MissingGrace:      cfg.MissingGrace,
		PlaceholderMaxAge: cfg.PlaceholderMaxAge,
	}, opts)
	log.Info().Msg("services initialized")

	// Планировщик фоновых проходов
	var sched *scheduler.Scheduler
	if cfg.EnableScheduler {
		sched = scheduler.NewScheduler(cfg, lifecycleService)
		if err := sched.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to start scheduler")
		}
	} else {
		log.Info().Msg("scheduler disabled")
	}

	// HTTP
	var pinger handlers.Pinger
	if dbConn != nil {
		pinger = dbConn
	}
	router := chi.NewRouter()
	routes.SetupRoutes(router, routes.Handlers{
		Predictor:  handlers.NewPredictorHandler(predictorService, dashboardService),
		Tournament: handlers.NewTournamentHandler(tournamentService),
		Match:      handlers.NewMatchHandler(matchService),
		Prediction: handlers.NewPredictionHandler(predictionService, dashboardService),
		Dashboard:  handlers.NewDashboardHandler(dashboardService, exportService),
		Lifecycle:  handlers.NewLifecycleHandler(lifecycleService),
		WebSocket:  handlers.NewWebSocketHandler(hub, tournamentService, originFor(cfg)),
		Health:     handlers.NewHealthHandler(pinger),
	}, routes.Options{
		FrontendURL:  cfg.FrontendURL,
		JWTSecretKey: cfg.JWTSecretKey,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     stdlog.New(zerologWriter{}, "", 0),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("address", server.Addr).Msg("starting server")
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	log.Info().Dur("timeout", shutdownTimeout).Msg("shutting down server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		if closeErr := server.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to force close server")
		}
	} else {
		log.Info().Msg("server shutdown complete")
	}
	log.Info().Msg("application exited")
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown LOG_LEVEL, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// openStore возвращает *sql.DB только для Postgres, в памяти он nil.
func openStore(ctx context.Context, cfg *config.Config) (*repositories.Store, *sql.DB, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn().Msg("using in-memory store, data is lost on restart")
		return repositories.NewMemoryStore(), nil, nil
	}

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Migrate(ctx, dbConn); err != nil {
		dbConn.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info().Msg("database connection established")
	return repositories.NewPostgresStore(dbConn), dbConn, nil
}

// originFor - в разработке websocket принимает любой Origin.
func originFor(cfg *config.Config) string {
	if cfg.IsDevelopment() {
		return ""
	}
	return cfg.FrontendURL
}

// zerologWriter направляет ошибки net/http в zerolog.
type zerologWriter struct{}

func (zerologWriter) Write(p []byte) (int, error) {
	msg := string(p)
	if n := len(msg); n > 0 && msg[n-1] == '\n' {
		msg = msg[:n-1]
	}
	log.Error().Str("component", "http").Msg(msg)
	return len(p), nil
}
