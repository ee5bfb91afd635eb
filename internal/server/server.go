package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"knouxart/internal/api"
	"knouxart/internal/auth"
	"knouxart/internal/config"
)

type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	httpServer *http.Server
	router     *chi.Mux
	handler    *api.Handler
	auth       *auth.Service
}

func New(cfg *config.Config, logger zerolog.Logger, handler *api.Handler, authService *auth.Service) *Server {
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		handler: handler,
		auth:    authService,
	}

	s.handler.SetAllowedOrigin(cfg.Server.AllowedOrigin)

	s.router = chi.NewRouter()
	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(CORSMiddleware(s.cfg.Server.AllowedOrigin))
	s.router.Use(LoggingMiddleware(s.logger))
}

func (s *Server) setupRoutes() {
	h := s.handler

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/logout", h.Logout)
		r.Get("/auth/oauth/{provider}", h.OAuthStart)
		r.Get("/auth/oauth/{provider}/callback", h.OAuthCallback)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(s.auth, s.cfg.Auth.CookieName, s.logger))

			r.Get("/auth/me", h.Me)
			r.Get("/settings", h.GetSettings)
			r.Put("/settings", h.UpdateSettings)

			r.Get("/projects", h.ListProjects)
			r.Post("/projects", h.CreateProject)
			r.Put("/projects", h.UpdateProject)
			r.Delete("/projects", h.DeleteProject)
			r.Get("/projects/{id}", h.GetProject)
			r.Post("/projects/{id}/share", h.ShareProject)
			r.Post("/projects/{id}/session", h.OpenSession)

			r.Post("/media", h.UploadMedia)
			r.Get("/media", h.ListMedia)
			r.Get("/media/{id}", h.GetMedia)
			r.Get("/media/{id}/stream", h.StreamMedia)
			r.Get("/media/{id}/thumbnail", h.GetThumbnail)
			r.Delete("/media/{id}", h.DeleteMedia)

			r.Route("/sessions/{sid}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Post("/save", h.SaveSession)
				r.Delete("/", h.CloseSession)
				r.Get("/stream", h.StreamSession)

				// Timeline
				r.Post("/clips", h.AddClip)
				r.Post("/text", h.AddText)
				r.Put("/clips/{clipId}/trim", h.TrimClip)
				r.Post("/clips/{clipId}/split", h.SplitClip)
				r.Put("/clips/{clipId}/speed", h.SetClipSpeed)
				r.Put("/clips/{clipId}/move", h.MoveClip)
				r.Post("/clips/{clipId}/effects", h.AddEffect)
				r.Delete("/clips/{clipId}", h.DeleteClip)
				r.Put("/selection", h.SelectClip)
				r.Put("/zoom", h.SetTimelineZoom)
				r.Post("/seek", h.Seek)
				r.Post("/play", h.Play)
				r.Post("/pause", h.Pause)
				r.Post("/toggle", h.TogglePlay)
				r.Put("/volume", h.SetVolume)
				r.Post("/mute", h.ToggleMute)
				r.Put("/rate", h.SetPlaybackRate)
				r.Post("/tracks/{index}/mute", h.ToggleTrackMute)
				r.Post("/tracks/{index}/lock", h.ToggleTrackLock)
				r.Get("/export/presets", h.ExportPresets)
				r.Post("/export", h.Export)

				// Photo
				r.Route("/photo", func(r chi.Router) {
					r.Put("/adjustments", h.ApplyAdjustments)
					r.Put("/filter", h.ApplyFilter)
					r.Put("/tool", h.SetTool)
					r.Put("/brush", h.SetBrush)
					r.Put("/zoom", h.SetPhotoZoom)
					r.Put("/size", h.Resize)
					r.Post("/layers", h.AddLayer)
					r.Put("/layers/active", h.SelectLayer)
					r.Post("/rotate", h.Rotate)
					r.Post("/flip", h.Flip)
					r.Post("/undo", h.Undo)
					r.Post("/redo", h.Redo)
				})
			})
		})
	})
}

// Router exposes the routed handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.httpServer.Addr).
		Msg("starting server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}
