package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/unrolled/secure"

	"github.com/akhbar-news/backoffice/internal/api/handler"
	"github.com/akhbar-news/backoffice/internal/api/middleware"
	"github.com/akhbar-news/backoffice/internal/core/domain"
	"github.com/akhbar-news/backoffice/internal/core/ports"

	_ "github.com/akhbar-news/backoffice/docs"
)

// Dependencies are the already-built services the router mounts.
type Dependencies struct {
	Log         zerolog.Logger
	Gate        *middleware.Gate
	AuthService ports.AuthService
	UserService ports.UserService
	// Events is optional; without it /api/access-events is not mounted.
	Events     ports.AccessEventReader
	Cookie     handler.CookieConfig
	Checks     []handler.DependencyCheck
	Production bool
	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(securityHeaders(deps.Production))
	reg, gatherer := deps.Registerer, deps.Gatherer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "backoffice",
		Registerer: reg,
	}))

	gate := deps.Gate

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.AuthService, deps.Cookie)
	permHandler := handler.NewPermissionHandler()
	userHandler := handler.NewUserHandler(deps.UserService)

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, gate.RequireAuthenticated())
	e.GET("/auth/me", authHandler.Me, gate.RequireAuthenticated())

	api := e.Group("/api")

	// --- Registry introspection ---
	api.GET("/permissions", permHandler.List, gate.RequireAuthenticated())
	api.GET("/permissions/me", permHandler.Mine, gate.RequireAuthenticated())
	api.GET("/roles", permHandler.Roles, gate.RequireAuthenticated())

	// --- User administration ---
	users := api.Group("/users")
	users.GET("", userHandler.List, gate.RequirePermissions(domain.PermUsersView))
	users.GET("/:id", userHandler.Get, gate.RequirePermissions(domain.PermUsersView))
	users.POST("", userHandler.Create, gate.RequirePermissions(domain.PermUsersCreate))
	users.PATCH("/:id/role", userHandler.ChangeRole,
		gate.RequirePermissions(domain.PermUsersEdit),
		gate.RequireRoles(domain.RoleSuperAdmin, domain.RoleAdmin),
	)
	users.PATCH("/:id/status", userHandler.ChangeStatus, gate.RequirePermissions(domain.PermUsersEdit))
	users.DELETE("/:id", userHandler.Delete, gate.RequirePermissions(domain.PermUsersDelete))

	// --- Audit trail ---
	if deps.Events != nil {
		eventHandler := handler.NewAccessEventHandler(deps.Events)
		api.GET("/access-events", eventHandler.Recent, gate.RequirePermissions(domain.PermSystemLogs))
	}

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Checks...)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
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

func securityHeaders(production bool) echo.MiddlewareFunc {
	s := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        production,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !production,
	})
	return echo.WrapMiddleware(s.Handler)
}
