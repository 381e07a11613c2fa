package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slotly/api/routes"
	"slotly/internal/events"
	"slotly/internal/shared/config"
	"slotly/internal/shared/database"
	"slotly/internal/slots"
	"slotly/pkg/logger"
	"slotly/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	appLogger := logger.GetDefault()

	// Smart environment loading
	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	// Load config
	cfg := config.Load()

	// Set Gin mode (debug/release)
	gin.SetMode(cfg.GinMode)

	// Initialize DB connections for the configured snapshot backend
	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("failed to connect", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Snapshot store
	store, err := buildSnapshotStore(cfg, db)
	if err != nil {
		appLogger.Error("failed to initialize snapshot store", slog.Any("error", err))
		os.Exit(1)
	}
	if store == nil {
		appLogger.Info("No snapshot backend configured, running memory-only")
	}

	// Slot event producer (optional)
	var publisher slots.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producerConfig := events.DefaultKafkaProducerConfig()
		producerConfig.Brokers = cfg.Kafka.Brokers
		producerConfig.Topic = cfg.Kafka.Topic

		producer, err := events.NewKafkaSlotEventProducer(producerConfig)
		if err != nil {
			appLogger.Error("Failed to initialize slot event producer", slog.Any("error", err))
			appLogger.Info("Continuing without event publishing")
		} else {
			publisher = producer
			defer producer.Close()
		}
	} else {
		appLogger.Info("No Kafka brokers configured, slot events disabled")
	}

	// Admission engine
	seeds := make([]slots.ProductSeed, 0, len(cfg.Slots.Products))
	for _, p := range cfg.Slots.Products {
		seed := slots.ProductSeed{
			Name:           p.Name,
			RegularMax:     p.RegularMax,
			ExtraMax:       p.ExtraMax,
			ExtraBasePrice: p.ExtraBasePrice,
		}
		if seed.RegularMax == 0 {
			seed.RegularMax = cfg.Slots.DefaultRegularMax
		}
		if seed.ExtraMax == 0 {
			seed.ExtraMax = cfg.Slots.DefaultExtraMax
		}
		if seed.ExtraBasePrice == 0 {
			seed.ExtraBasePrice = cfg.Slots.ExtraBasePrice
		}
		seeds = append(seeds, seed)
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 10*time.Second)
	service, err := slots.NewService(startupCtx, slots.Options{
		Store:          store,
		Publisher:      publisher,
		Products:       seeds,
		ReservationTTL: cfg.Slots.ReservationTTL,
	})
	startupCancel()
	if err != nil {
		appLogger.Error("Failed to initialize admission service", slog.Any("error", err))
		os.Exit(1)
	}

	// Expiry reaper
	reaperCtx, reaperCancel := context.WithCancel(context.Background())
	defer reaperCancel()

	reaper := slots.NewReaper(service, &slots.ReaperConfig{
		SweepInterval: cfg.Slots.SweepInterval,
	})
	reaper.Start(reaperCtx)
	defer reaper.Stop()

	// Initialize Rate Limiter
	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiterConfig := &ratelimit.Config{
			Enabled:         cfg.RateLimit.Enabled,
			WindowDuration:  cfg.RateLimit.WindowDuration,
			DefaultRequests: cfg.RateLimit.DefaultRequests,
			PublicRequests:  cfg.RateLimit.PublicRequests,
			ReserveRequests: cfg.RateLimit.ReserveRequests,
			AdminRequests:   cfg.RateLimit.AdminRequests,
			HealthRequests:  cfg.RateLimit.HealthRequests,
		}

		rateLimiter = ratelimit.NewRateLimiter(db.GetRedisClient(), rateLimiterConfig)
		appLogger.Info("Rate limiter initialized",
			slog.Bool("enabled", cfg.RateLimit.Enabled),
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("default_requests", cfg.RateLimit.DefaultRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	// Setup router with rate limiter
	router := setupRouter(cfg, db, service, rateLimiter)

	// HTTP server
	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		appLogger.Info("🚀 Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("version", cfg.APIVersion),
			slog.String("snapshot_backend", cfg.Snapshot.Backend),
			slog.Bool("rate_limiting", cfg.RateLimit.Enabled),
			slog.Bool("slot_events", publisher != nil),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	appLogger.Info("Server exited gracefully")
}

// buildSnapshotStore selects the persistence backend. A memory backend
// returns nil so the engine runs without persistence.
func buildSnapshotStore(cfg *config.Config, db *database.DB) (slots.SnapshotStore, error) {
	switch cfg.Snapshot.Backend {
	case "redis":
		return slots.NewRedisSnapshotStore(db.GetRedisClient(), cfg.Snapshot.Key), nil
	case "postgres":
		return slots.NewPostgresSnapshotStore(db.GetPostgreSQL(), cfg.Snapshot.Key)
	case "memory", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Snapshot.Backend)
	}
}

func setupRouter(cfg *config.Config, db *database.DB, service slots.Service, rateLimiter *ratelimit.RateLimiter) *gin.Engine {
	engine := gin.New()
	appLogger := logger.GetDefault()

	// Built-in middleware: logs requests + recovers from panics
	engine.Use(RequestLoggerMiddleware(appLogger), gin.Recovery())

	// CORS configuration
	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true // allow every origin dynamically
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-RateLimit-*"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Global rate limiting middleware (applied to all routes)
	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter))
		appLogger.Info("Rate limiting middleware applied to all routes")
	}

	// Initialize and setup routes
	appRouter := routes.NewRouter(cfg, db, service)
	appRouter.SetupRoutes(engine)

	return engine
}

func RequestLoggerMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		l.LogHTTPRequest(c, duration)
	}
}
