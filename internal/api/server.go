// Package api provides the HTTP API server and handlers for the Signboard application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/signboardapp/signboard-server/internal/config"
	"github.com/signboardapp/signboard-server/internal/ratelimit"
	"github.com/signboardapp/signboard-server/internal/service"
	"github.com/signboardapp/signboard-server/internal/store"
	"github.com/signboardapp/signboard-server/internal/store/accesslog"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store        *store.Store
	accessLog    *accesslog.Store
	services     *service.Services
	router       *chi.Mux
	api          huma.API
	logger       *slog.Logger
	loginLimiter *ratelimit.KeyedRateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st *store.Store, accessLog *accesslog.Store, services *service.Services, cfg *config.Config, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	humaConfig := huma.DefaultConfig(cfg.Server.Name+" API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	loginRPS := float64(cfg.Auth.LoginRatePerMinute) / 60
	s := &Server{
		store:        st,
		accessLog:    accessLog,
		services:     services,
		router:       router,
		api:          api,
		logger:       logger,
		loginLimiter: ratelimit.New(loginRPS, cfg.Auth.LoginRatePerMinute),
	}

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerProfileRoutes()
	s.registerDeviceRoutes()
	s.registerDeviceAccessRoutes()
	s.registerTagRoutes()
	s.registerContentRoutes()
	s.registerScheduleRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases resources owned by the server itself.
func (s *Server) Close() {
	s.loginLimiter.Stop()
}
