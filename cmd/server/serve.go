package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"account_service/internal/config"
	"account_service/internal/middleware"
	"account_service/internal/notify"
	"account_service/internal/repository"
	"account_service/internal/service"
	"account_service/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// --- Database Connection ---
	dbPool, err := config.ConnectDB(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}
	defer dbPool.Close()

	if err := config.Migrate(cfg.DatabaseURL, false, log); err != nil {
		return oops.Code("MIGRATION_FAILED").Wrap(err)
	}

	// --- Initialize Utilities ---
	hasher := utils.NewBcryptHasher(cfg.HashCost)
	jwtUtil := utils.NewJWTUtil(cfg.JWTSecret, cfg.JWTExpire)

	var notifier notify.Notifier = notify.NewLogNotifier(log)
	if cfg.SMTP.Host != "" {
		notifier = notify.NewSMTPNotifier(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
	}

	// --- Initialize Repositories and Services ---
	userRepo := repository.NewUserRepository(dbPool, hasher)
	authService := service.NewAuthService(userRepo, hasher, jwtUtil, notifier, log)

	var limiter *middleware.RateLimiter
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return oops.Code("CONFIG_INVALID").With("key", "REDIS_URL").Wrap(err)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		limiter = middleware.NewRateLimiter(client, cfg.RateLimitMax, cfg.RateLimitWindow)
	} else {
		log.Warn("REDIS_URL not set, request throttling disabled")
	}

	router := newRouter(routerDeps{
		cfg:         cfg,
		log:         log,
		db:          dbPool,
		authService: authService,
		limiter:     limiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("env", cfg.Env).Infof("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return oops.Code("SERVER_FAILED").Wrap(err)
	}
	log.Info("Server exiting")
	return nil
}
