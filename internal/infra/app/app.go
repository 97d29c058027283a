package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/SOS-Tag/sos-tag-api/internal/core/port"
	"github.com/SOS-Tag/sos-tag-api/internal/infra/config"
	"github.com/SOS-Tag/sos-tag-api/internal/infra/database"
	kafkainfra "github.com/SOS-Tag/sos-tag-api/internal/infra/kafka"
	"github.com/SOS-Tag/sos-tag-api/internal/infra/logger"
	"github.com/SOS-Tag/sos-tag-api/internal/infra/mailer"
	"github.com/SOS-Tag/sos-tag-api/internal/infra/oauth"
	redisinfra "github.com/SOS-Tag/sos-tag-api/internal/infra/redis"
	"github.com/SOS-Tag/sos-tag-api/internal/infra/security"
	postgresrepo "github.com/SOS-Tag/sos-tag-api/internal/repository/postgres"
	redisrepo "github.com/SOS-Tag/sos-tag-api/internal/repository/redis"
	"github.com/SOS-Tag/sos-tag-api/internal/transport/http/middleware"
	"github.com/SOS-Tag/sos-tag-api/internal/transport/http/routes"
	"github.com/SOS-Tag/sos-tag-api/internal/usecase"
)

// Application bundles the wired service graph and its long-lived resources.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
}

// New builds the full application from configuration: infrastructure
// clients first, then repositories, services and the HTTP engine.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	issuer, err := security.NewTokenIssuer(cfg.JWT)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init token issuer: %w", err)
	}

	smtpMailer, err := mailer.NewSMTPMailer(cfg.Mail, log)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init mailer: %w", err)
	}

	googleClient := oauth.NewGoogleClient(cfg.OAuth)

	var eventPublisher port.EventPublisher
	var producer *kafkainfra.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
			producer = nil
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	if metered, err := kafkainfra.NewMeteredPublisher(eventPublisher, nil); err == nil {
		eventPublisher = metered
	} else {
		log.Warn("lifecycle event metrics disabled", zap.Error(err))
	}

	accounts := postgresrepo.NewAccountRepository(pool)
	tokenStore := redisrepo.NewEphemeralTokenStore(redisClient.Client(), cfg.Redis.EphemeralKeyPrefix, cfg.Redis.EphemeralTokenTTL)

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitStore(redisClient.Client(), cfg.Redis.RateLimitPrefix, rateLimitWindow*2)
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	authService := usecase.NewAuthService(accounts, issuer, googleClient, eventPublisher, log)
	registrationService := usecase.NewRegistrationService(cfg, accounts, tokenStore, smtpMailer, eventPublisher, log)
	passwordResetService := usecase.NewPasswordResetService(cfg, accounts, tokenStore, smtpMailer, eventPublisher, log)
	userService := usecase.NewUserService(accounts, log)

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		OAuth:       googleClient,
		Pool:        pool,
		Redis:       redisClient,
		Services: routes.ServiceSet{
			Auth:          authService,
			Registration:  registrationService,
			PasswordReset: passwordResetService,
			Users:         userService,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully
// and releases the infrastructure clients.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting SOS-Tag API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
