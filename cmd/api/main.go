// main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Marga-Ghale/ora-authz/internal/api/handlers"
	"github.com/Marga-Ghale/ora-authz/internal/api/middleware"
	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/Marga-Ghale/ora-authz/internal/config"
	"github.com/Marga-Ghale/ora-authz/internal/cron"
	"github.com/Marga-Ghale/ora-authz/internal/db"
	"github.com/Marga-Ghale/ora-authz/internal/logger"
	"github.com/Marga-Ghale/ora-authz/internal/repository"
	"github.com/Marga-Ghale/ora-authz/internal/seed"
	"github.com/Marga-Ghale/ora-authz/internal/service"
	"github.com/Marga-Ghale/ora-authz/internal/socket"
	"github.com/Marga-Ghale/ora-authz/internal/tools"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// ============================================
	// Load environment variables
	// ============================================
	envErr := godotenv.Load()

	// ============================================
	// Load configuration and logger
	// ============================================
	cfg := config.Load()

	zlog, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	if envErr != nil {
		zlog.Info("no .env file found, using environment variables")
	}

	if err := cfg.Validate(); err != nil {
		zlog.Fatal("invalid configuration", zap.Error(err))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// ============================================
	// Run Database Migrations FIRST
	// ============================================
	if err := db.RunMigrations(cfg.DatabaseURL, zlog); err != nil {
		zlog.Fatal("migration failed", zap.Error(err))
	}

	// ============================================
	// Initialize PostgreSQL (pgxpool + sqlx)
	// ============================================
	ctx := context.Background()

	pg, err := db.NewPostgresDB(ctx, cfg.DatabaseURL, zlog)
	if err != nil {
		zlog.Fatal("failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pg.Close()

	// ============================================
	// Initialize Repositories
	// ============================================
	repos := repository.NewRepositories(pg.Pool, pg.SQL)

	// ============================================
	// Initialize Redis (optional)
	// ============================================
	var limiter middleware.Limiter
	var redisDB *db.RedisDB
	if cfg.RedisURL != "" {
		redisDB, err = db.NewRedisDB(cfg.RedisURL, zlog)
		if err != nil {
			zlog.Warn("Redis unavailable, assistant rate limit disabled", zap.Error(err))
		} else {
			defer redisDB.Close()
			limiter = redisDB
		}
	}

	// ============================================
	// Seed Data (for development)
	// ============================================
	if cfg.SeedData && !cfg.IsProduction() {
		if err := seed.SeedData(ctx, repos, zlog); err != nil {
			zlog.Error("seeding failed", zap.Error(err))
		}
	}

	// ============================================
	// Authorization engine, services, tool gateway
	// ============================================
	engine := authz.NewEngine(repos.Containment, zlog)

	// ============================================
	// Initialize WebSocket Hub (live activity feed)
	// ============================================
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	hub := socket.NewHub(engine, zlog)
	go hub.Run(hubCtx)

	services := service.NewServices(&service.ServiceDeps{
		Repos:     repos,
		Engine:    engine,
		Log:       zlog,
		Publisher: hub,
	})

	gateway, err := tools.NewGateway(engine, zlog, tools.Catalog(tools.Deps{
		Services: services,
		Repos:    repos,
	})...)
	if err != nil {
		zlog.Fatal("failed to build tool gateway", zap.Error(err))
	}

	h := handlers.NewHandlers(services, gateway)

	// ============================================
	// Initialize Cron Scheduler
	// ============================================
	scheduler := cron.NewScheduler(repos.WorkspaceRepo, cfg.MembershipAuditSchedule, zlog)
	if err := scheduler.Start(); err != nil {
		zlog.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer scheduler.Stop()

	// ============================================
	// Create Gin Router
	// ============================================
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(zlog))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		dbStatus := "connected"
		if err := pg.Ping(c.Request.Context()); err != nil {
			dbStatus = "unreachable"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"timestamp":  time.Now(),
			"database":   dbStatus,
			"cache":      getCacheStatus(redisDB),
			"tools":      len(gateway.Tools()),
			"ws_clients": hub.ConnectedClients(),
		})
	})

	// ============================================
	// Protected routes (require identity token)
	// ============================================
	verifier := middleware.NewIdentityVerifier(cfg.IdentityJWTSecret, cfg.IdentityIssuer)

	// WebSocket route authenticates itself from ?token=
	wsHandler := socket.NewHandler(hub, func(ctx context.Context, token string) (string, error) {
		return middleware.Authenticate(ctx, verifier, services.User, token)
	}, cfg.CORSOrigins)
	r.GET("/api/ws", wsHandler.HandleWebSocket)

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(verifier, services.User, zlog))
	handlers.RegisterRoutes(api, h, middleware.AssistantRateLimit(limiter, cfg.AssistantRateLimit, zlog))

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		zlog.Info("server starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}

	zlog.Info("server exited")
}

func getCacheStatus(redisDB *db.RedisDB) string {
	if redisDB != nil {
		return "connected"
	}
	return "disabled"
}
