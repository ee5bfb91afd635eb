package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"knouxart/internal/api"
	"knouxart/internal/auth"
	"knouxart/internal/cache"
	"knouxart/internal/config"
	"knouxart/internal/media"
	"knouxart/internal/server"
	"knouxart/internal/session"
	"knouxart/internal/storage"
)

const purgeInterval = time.Hour

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger := setupLogger(cfg.Logging)

	logger.Info().
		Str("version", api.Version).
		Msg("starting knouxart server")

	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer store.Close()

	providers := auth.ProvidersFromConfig(cfg.Auth)
	for _, p := range providers {
		logger.Info().Str("provider", p.Name).Msg("oauth sign-in enabled")
	}
	authService := auth.NewService(store, cfg.Auth.SessionTTL, logger, providers...)

	metadataExtractor := media.NewMetadataExtractor(logger)
	thumbnailGenerator := media.NewThumbnailGenerator(cfg.Media.ThumbnailDir, logger)

	if metadataExtractor.IsAvailable() {
		logger.Info().Msg("ffprobe available - metadata extraction enabled")
	} else {
		logger.Warn().Msg("ffprobe not found - imported media use default durations")
	}
	if thumbnailGenerator.IsAvailable() {
		logger.Info().Msg("ffmpeg available - thumbnail generation enabled")
	} else {
		logger.Warn().Msg("ffmpeg not found - video thumbnails disabled")
	}

	mediaService, err := media.NewService(
		store,
		cfg.Media.UploadDir,
		cfg.Media.MaxUploadSize,
		thumbnailGenerator,
		metadataExtractor,
		cache.NewLRUCache(cfg.Media.CacheCapacity, cfg.Media.CacheMaxSize),
		logger,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize media service")
	}

	if n, err := mediaService.CleanupMissingAssets(); err != nil {
		logger.Error().Err(err).Msg("asset cleanup failed")
	} else if n > 0 {
		logger.Info().Int("removed", n).Msg("removed assets with missing files")
	}

	sessions, err := session.NewManager(store, cfg.Editor.MaxSessions, cfg.Editor.FrameRate, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize session manager")
	}

	handler := api.NewHandler(store, authService, mediaService, sessions, cfg.Auth, logger)
	srv := server.New(cfg, logger, handler, authService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go purgeSessions(ctx, authService, logger)

	// drained closes once in-flight requests have finished.
	drained := make(chan struct{})
	go func() {
		defer close(drained)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info().Msg("received shutdown signal")
		cancel()

		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
		}
	}()

	if err := srv.Start(); err != nil {
		logger.Error().Err(err).Msg("server error")
	} else {
		// ListenAndServe returns as soon as Shutdown begins.
		<-drained
	}

	// Open editing sessions are written back to their projects before the
	// store closes.
	sessions.Shutdown()

	logger.Info().Msg("server stopped")
}

// purgeSessions drops expired sign-in sessions at startup and then hourly.
func purgeSessions(ctx context.Context, authService *auth.Service, logger zerolog.Logger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		if n, err := authService.PurgeExpired(); err != nil {
			logger.Error().Err(err).Msg("failed to purge expired sessions")
		} else if n > 0 {
			logger.Info().Int64("sessions", n).Msg("expired sessions purged")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().
			Timestamp().
			Logger()
	}

	return zerolog.New(os.Stdout).
		With().
		Timestamp().
		Logger()
}
