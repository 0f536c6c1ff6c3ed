package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/umtracker/platform/pkg/circuits"
	"github.com/umtracker/platform/pkg/common/config"
	"github.com/umtracker/platform/pkg/common/database"
	"github.com/umtracker/platform/pkg/common/kafka"
	"github.com/umtracker/platform/pkg/common/logger"
	"github.com/umtracker/platform/pkg/gateway/auth"
	"github.com/umtracker/platform/pkg/gateway/middleware"
	"github.com/umtracker/platform/pkg/gateway/routes"
	"github.com/umtracker/platform/pkg/identity"
	"github.com/umtracker/platform/pkg/importer"
	"github.com/umtracker/platform/pkg/migrations"
	"github.com/umtracker/platform/pkg/reports"
)

func main() {
	logger.Init()
	cfg := config.Load()
	logger.Configure(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.OpenPostgres(ctx, cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}
	defer database.ClosePostgres(db)

	if err := migrations.Run(db); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate tables")
	}

	tokens, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	if err != nil {
		logger.Log.WithError(err).Fatal("JWT_SECRET must be configured")
	}

	var redisClient *redis.Client
	if cfg.CacheEnabled || cfg.RateLimitStore == "redis" {
		redisClient, err = database.NewRedis(cfg)
		if err != nil {
			logger.Log.WithError(err).Warn("redis unavailable, cache and rate limit fall back to local state")
			_ = redisClient.Close()
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var circuitStore circuits.Store = circuits.NewRepository(db)
	if cfg.CacheEnabled && redisClient != nil {
		circuitStore = circuits.NewCachedStore(circuitStore, circuits.NewRedisKVStore(redisClient), cfg.CacheTTL)
		logger.Log.WithField("ttl", cfg.CacheTTL.String()).Info("circuit cache enabled")
	}

	reportRepo := reports.NewRepository(db)

	opts := importer.Options{
		MaxConcurrentRuns: cfg.ImportMaxConcurrency,
		FinishAttempts:    cfg.ImportFinishAttempts,
	}
	if cfg.ImportEventsTopic != "" {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.ImportEventsTopic)
		defer producer.Close()
		opts.Events = producer
	}
	imports := importer.NewOrchestrator(circuitStore, reportRepo, opts)

	router := routes.NewRouter(routes.RouterConfig{
		Tokens:    tokens,
		Auth:      routes.NewAuthHandler(identity.NewService(identity.NewRepository(db)), tokens),
		Circuits:  routes.NewCircuitsHandler(circuitStore, imports),
		Reports:   routes.NewReportsHandler(reports.NewNotifications(reportRepo, reportRepo)),
		Ready:     func(ctx context.Context) error { return database.Ping(ctx, db) },
		StaticDir: staticDir(cfg.StaticDir),
	})

	rateLimit, err := middleware.RateLimit(cfg.RateLimit, rateLimitStore(cfg, redisClient))
	if err != nil {
		logger.Log.WithError(err).Fatal("invalid RATE_LIMIT")
	}

	// Wrapped outside the router so 404s and CORS preflights pass through too.
	var handler http.Handler = router
	handler = middleware.BodyLimit(cfg.MaxRequestBody)(handler)
	handler = middleware.Timeout(cfg.RequestTimeout)(handler)
	handler = rateLimit(handler)
	handler = middleware.CORS(cfg.CORSOrigins)(handler)
	handler = middleware.Logging(handler)
	handler = middleware.Recovery(handler)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Circuit service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down circuit service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	// Import runs still draining are abandoned; their reports stay "In progress".
	logger.Log.Info("Circuit service stopped")
}

func rateLimitStore(cfg *config.Config, client *redis.Client) limiter.Store {
	if cfg.RateLimitStore == "redis" && client != nil {
		store, err := middleware.NewRedisStore(client)
		if err == nil {
			return store
		}
		logger.Log.WithError(err).Warn("failed to create redis rate limit store, falling back to memory")
	}
	return middleware.NewMemoryStore()
}

// staticDir disables static serving when the directory is absent.
func staticDir(dir string) string {
	if dir == "" {
		return ""
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		logger.Log.WithField("dir", dir).Warn("static directory not found, UI disabled")
		return ""
	}
	return dir
}
