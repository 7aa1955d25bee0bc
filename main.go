package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	auth "github.com/phillip/donation-portal-go/auth"
	config "github.com/phillip/donation-portal-go/config"
	controllers "github.com/phillip/donation-portal-go/controllers"
	events "github.com/phillip/donation-portal-go/events"
	jobs "github.com/phillip/donation-portal-go/jobs"
	middleware "github.com/phillip/donation-portal-go/middleware"
	routes "github.com/phillip/donation-portal-go/routes"
	services "github.com/phillip/donation-portal-go/services"
	store "github.com/phillip/donation-portal-go/store"
	utils "github.com/phillip/donation-portal-go/utils"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	if err := run(logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// run owns every connection so its deferred closes execute on any exit path.
func run(logger *slog.Logger) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	ctx := context.Background()

	mongoClient, err := config.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("connect to mongo: %w", err)
	}
	defer mongoClient.Disconnect(context.Background())
	logger.Info("mongo connection established", "db", cfg.DBName)

	db := store.New(mongoClient, cfg.DBName)
	if err := db.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	seedAdmin(ctx, db, cfg, logger)

	// --- OTP storage: redis when configured, otherwise refuse OTP sends ---
	var otp controllers.OTPService = disabledOTP{}
	if cfg.RedisURL != "" {
		rdb, err := config.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer rdb.Close()
		otp = newOTPService(rdb, logger)
		logger.Info("redis connection established")
	} else {
		logger.Warn("REDIS_URL not set, otp login disabled")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		producer, err := events.NewProducer(cfg.RabbitMQURL, cfg.EventsExchange, logger)
		if err != nil {
			return fmt.Errorf("connect to rabbitmq: %w", err)
		}
		defer producer.Close()
		publisher = producer
		logger.Info("rabbitmq producer ready", "exchange", cfg.EventsExchange)
	} else {
		logger.Warn("RABBITMQ_URL not set, domain events are dropped")
	}

	var media controllers.MediaStore
	if cfg.CloudinaryCloudName != "" {
		uploader, err := utils.NewUploader(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			return fmt.Errorf("configure cloudinary: %w", err)
		}
		media = uploader
	} else {
		logger.Warn("cloudinary not configured, media uploads disabled")
	}

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL())
	mailer := utils.NewMailer(cfg.ZeptoAPIURL, cfg.ZeptoAPIKey, cfg.EmailFrom, logger)

	env := &controllers.Env{
		Statuses:      db,
		Categories:    db,
		Receipts:      db,
		Subscriptions: db,
		Boxes:         db,
		Campaigns:     db,
		Institutes:    db,
		Users:         db,
		Catalog:       services.NewCatalogCache(db),
		OTP:           otp,
		Issuer:        issuer,
		Media:         media,
		Events:        publisher,
		Logger:        logger,
	}

	scheduler := jobs.NewScheduler(jobs.NewJobs(db, publisher, mailer, logger), logger, cfg.ReminderSchedule)
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer func() { <-scheduler.Stop().Done() }()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "If-None-Match", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"ETag", "Last-Modified", "Retry-After", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	routes.SetupRoutes(r, env, issuer)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return serve(srv, sigCh, logger)
}

// serve runs srv until a signal arrives or the listener fails. After a signal it shuts
// the server down gracefully and returns nil.
func serve(srv *http.Server, sigCh <-chan os.Signal, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-sigCh:
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}

func newOTPService(rdb *redis.Client, logger *slog.Logger) *services.OTPService {
	codes := services.NewRedisCodeStore(rdb, "donations")
	limiter := services.NewRedisRateLimiter(rdb, "donations")
	return services.NewOTPService(codes, limiter, services.LogSender{Logger: logger}, logger, services.DefaultOTPConfig())
}

func seedAdmin(ctx context.Context, db *store.Store, cfg *config.Config, logger *slog.Logger) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return
	}
	if err := auth.ValidatePassword(cfg.AdminPassword); err != nil {
		logger.Error("admin password rejected", "error", err)
		return
	}
	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		logger.Error("failed to hash admin password", "error", err)
		return
	}
	created, err := db.EnsureAdmin(ctx, cfg.AdminEmail, hash)
	if err != nil {
		logger.Error("failed to seed admin", "error", err)
		return
	}
	if created {
		logger.Info("admin account created", "email", cfg.AdminEmail)
	}
}

type disabledOTP struct{}

var errOTPDisabled = errors.New("otp login is not configured")

func (disabledOTP) Send(context.Context, string) error           { return errOTPDisabled }
func (disabledOTP) Verify(context.Context, string, string) error { return errOTPDisabled }
