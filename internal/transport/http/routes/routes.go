package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/SOS-Tag/sos-tag-api/internal/core/port"
	"github.com/SOS-Tag/sos-tag-api/internal/infra/config"
	"github.com/SOS-Tag/sos-tag-api/internal/infra/redis"
	"github.com/SOS-Tag/sos-tag-api/internal/transport/http/handlers"
	"github.com/SOS-Tag/sos-tag-api/internal/transport/http/middleware"
	"github.com/SOS-Tag/sos-tag-api/internal/usecase"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth          *usecase.AuthService
	Registration  *usecase.RegistrationService
	PasswordReset *usecase.PasswordResetService
	Users         *usecase.UserService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Services    ServiceSet
	OAuth       port.GoogleOAuth
	Pool        *pgxpool.Pool
	Redis       *redis.Client
}

// Register configures the Gin engine with routes and middleware. The
// protection matrix is static: the auth endpoints are public, /users/me reads
// the bearer when present, profile updates require authentication, and the
// administrative user operations additionally require the admin role.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.App.AllowedOrigins))

	if metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{}); err == nil {
		r.Use(metrics.Handler())
	} else {
		deps.Logger.Warn("HTTP metrics disabled", zap.Error(err))
	}

	healthHandler := handlers.NewHealthHandler(deps.Pool, deps.Redis)
	healthHandler.RegisterRoutes(r)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	tokenHandler := handlers.NewTokenHandler(deps.Services.Auth, deps.Config)
	tokenHandler.RegisterRoutes(r)

	oauthHandler := handlers.NewOAuthHandler(deps.OAuth, deps.Config)
	oauthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")

		authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Config)
		authHandler.RegisterRoutes(authGroup, loginRateLimit(deps)...)

		registrationHandler := handlers.NewRegistrationHandler(deps.Services.Registration)
		registrationHandler.RegisterRoutes(authGroup, registerRateLimit(deps)...)

		passwordHandler := handlers.NewPasswordHandler(deps.Services.PasswordReset)
		passwordHandler.RegisterRoutes(authGroup, passwordResetRateLimit(deps)...)

		userGroup := api.Group("/users")
		userHandler := handlers.NewUserHandler(deps.Services.Users, deps.Services.Auth)
		userHandler.RegisterRoutes(userGroup)
	}

	return r
}

func loginRateLimit(deps Dependencies) []gin.HandlerFunc {
	return rateLimitRule(deps, "login", deps.Config.RateLimit.LoginMaxAttempts)
}

func registerRateLimit(deps Dependencies) []gin.HandlerFunc {
	return rateLimitRule(deps, "register", deps.Config.RateLimit.RegisterMaxAttempts)
}

func passwordResetRateLimit(deps Dependencies) []gin.HandlerFunc {
	return rateLimitRule(deps, "password_reset", deps.Config.RateLimit.PasswordResetMaxAttempts)
}

func rateLimitRule(deps Dependencies, name string, limit int) []gin.HandlerFunc {
	if deps.RateLimiter == nil || limit <= 0 {
		return nil
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     deps.Config.RateLimit.WindowDuration,
		Identifier: middleware.ClientIPIdentifier(),
	})}
}
