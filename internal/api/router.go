package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/unrolled/secure"

	_ "github.com/oguzhanozgokce/account-service/docs"
	"github.com/oguzhanozgokce/account-service/internal/api/handler"
	"github.com/oguzhanozgokce/account-service/internal/api/middleware"
	"github.com/oguzhanozgokce/account-service/internal/core/domain"
	"github.com/oguzhanozgokce/account-service/internal/core/ports"
)

const (
	// bodyLimit leaves room for the multipart envelope around a 20MB image.
	bodyLimit        = "21M"
	defaultRateLimit = 30
)

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	AuthService ports.AuthService
	UserService ports.UserService
	Tokens      middleware.TokenChecker
	Users       middleware.UserFinder

	PublicPaths []string
	BaseURL     string
	// UploadDir is served under /uploads when non-empty.
	UploadDir string
	// RateLimitPerMinute caps requests per client IP on /api/auth.
	RateLimitPerMinute int
	Production         bool

	Readiness map[string]handler.Pinger
	Log       zerolog.Logger
	// Metrics receives the HTTP collectors and backs /metrics.
	// Defaults to the global Prometheus registry.
	Metrics *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(cfg.Log))
	e.Use(echo.WrapMiddleware(secureHeaders(cfg.Production)))
	e.Use(echomiddleware.BodyLimit(bodyLimit))
	e.Use(metricsMiddleware(cfg.Metrics))
	e.Use(middleware.Auth(middleware.AuthConfig{
		Tokens:      cfg.Tokens,
		Users:       cfg.Users,
		PublicPaths: cfg.PublicPaths,
		Log:         cfg.Log,
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.BaseURL)
	userHandler := handler.NewUserHandler(cfg.UserService, cfg.BaseURL)

	// --- Auth routes ---
	auth := e.Group("/api/auth", echo.WrapMiddleware(rateLimiter(cfg.RateLimitPerMinute)))
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// --- User routes ---
	users := e.Group("/api/users", middleware.RequireAuth())
	users.GET("/profile", userHandler.Profile)
	users.POST("/profile/image", userHandler.UploadProfileImage)
	users.GET("", userHandler.List, middleware.RequireRole(domain.RoleAdmin))
	users.GET("/:id", userHandler.Get)
	users.DELETE("/:id", userHandler.Delete)
	users.PUT("/:id/role", userHandler.UpdateRole, middleware.RequireRole(domain.RoleAdmin))

	if cfg.UploadDir != "" {
		e.Static("/uploads", cfg.UploadDir)
	}

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(cfg.Readiness)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability & docs ---
	e.GET("/metrics", metricsHandler(cfg.Metrics))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func metricsMiddleware(reg *prometheus.Registry) echo.MiddlewareFunc {
	if reg == nil {
		return echoprometheus.NewMiddleware("account")
	}
	return echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "account",
		Registerer: reg,
	})
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

func secureHeaders(production bool) func(http.Handler) http.Handler {
	return secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !production,
	}).Handler
}

func rateLimiter(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		perMinute = defaultRateLimit
	}
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(handler.Response{Message: "Too many requests"})
		}),
	)
}
