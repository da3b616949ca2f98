package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quid-pro-quote/internal/adapters/http/dto"
	"github.com/jsamuelsen/quid-pro-quote/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quid-pro-quote/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quid-pro-quote/internal/platform/config"
	"github.com/jsamuelsen/quid-pro-quote/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default timeout for API requests.
const DefaultRequestTimeout = 30 * time.Second

// DefaultEditorRole is required on mutating routes when auth is enabled
// and no role is configured.
const DefaultEditorRole = "editor"

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// Logger is the structured logger for request logging.
	Logger *slog.Logger

	// AuthConfig selects how claims are read and whether writes are guarded.
	AuthConfig *config.AuthConfig

	// AppConfig names the service in spans.
	AppConfig *config.AppConfig

	// HealthHandler handles the /-/ endpoints.
	HealthHandler *handlers.HealthHandler

	// LibraryHandler handles the collection and quote endpoints.
	LibraryHandler *handlers.LibraryHandler

	// Timeout is the deadline of API requests. Imports are exempt.
	Timeout time.Duration
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery - catch panics first
//  2. Request ID - generate/extract request ID
//  3. Correlation ID - handle distributed tracing correlation
//  4. OpenTelemetry - tracing and metrics
//  5. Logging - request logging (skips /-/ endpoints)
//  6. Timeout - request deadline on /api/v1
//
// Route groups:
//   - /-/ (internal): Health endpoints, no auth required
//   - /api/v1/ (public API): library endpoints, writes guarded when auth is enabled
//
// Unknown paths and methods answer with the JSON error envelope.
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	serviceName := "qpq"
	if cfg.AppConfig != nil && cfg.AppConfig.Name != "" {
		serviceName = cfg.AppConfig.Name
	}

	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.TracingMiddleware(serviceName),
		telemetry.Middleware(),
		middleware.Logging(cfg.Logger),
	)

	engine.HandleMethodNotAllowed = true
	engine.NoRoute(dto.NoRoute)
	engine.NoMethod(dto.NoMethod)

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.Register(engine)
	}

	apiV1 := engine.Group("/api/v1")
	apiV1.Use(middleware.Timeout(cfg.Timeout, apiV1.BasePath()+handlers.ImportPath))

	if cfg.LibraryHandler != nil {
		cfg.LibraryHandler.RegisterRoutes(apiV1, writeGuard(cfg.AuthConfig)...)
	}
}

// writeGuard returns the middleware in front of mutating routes: an
// authenticated subject holding the editor role, or nothing when auth is
// disabled.
func writeGuard(cfg *config.AuthConfig) []gin.HandlerFunc {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	role := cfg.EditorRole
	if role == "" {
		role = DefaultEditorRole
	}

	return []gin.HandlerFunc{
		middleware.RequireAuth(cfg),
		middleware.RequireRole(cfg, role),
	}
}

// NewDefaultRouterConfig creates a RouterConfig with sensible defaults.
func NewDefaultRouterConfig(
	logger *slog.Logger,
	appCfg *config.AppConfig,
	authCfg *config.AuthConfig,
	healthHandler *handlers.HealthHandler,
	libraryHandler *handlers.LibraryHandler,
) RouterConfig {
	return RouterConfig{
		Logger:         logger,
		AuthConfig:     authCfg,
		AppConfig:      appCfg,
		HealthHandler:  healthHandler,
		LibraryHandler: libraryHandler,
		Timeout:        DefaultRequestTimeout,
	}
}
