package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"insurance-prediction-service/internal/adapters/primary/http/handlers"
	"insurance-prediction-service/internal/adapters/primary/http/middleware"
	"insurance-prediction-service/internal/adapters/secondary/postgres"
	"insurance-prediction-service/internal/adapters/secondary/prometheus"
	"insurance-prediction-service/internal/config"
	ports "insurance-prediction-service/internal/core/ports/output"
	"insurance-prediction-service/internal/core/services"
)

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	metrics := prometheus.NewMetrics(true)
	registry := loadRegistry(ctx, cfg, metrics)

	// Prediction log (Optional - based on config)
	var logRepo ports.PredictionLogRepository
	if cfg.PredictionLog.Enabled {
		pool, err := newPool(ctx, cfg.Database)
		if err != nil {
			log.Warnf("prediction log init failed (continuing without prediction log): %v", err)
		} else {
			defer pool.Close()
			logRepo = postgres.NewPredictionLogRepository(pool)
			log.Info("prediction log enabled")
		}
	} else {
		log.Info("prediction log disabled")
	}

	svc := services.NewPredictionService(registry, logRepo, cfg.Models.DefaultVersion).
		WithLogTimeout(cfg.PredictionLog.Timeout)

	router := newRouter(cfg, svc, metrics)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-quit:
	}
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

func newPool(ctx context.Context, db config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(db.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	poolCfg.MaxConns = int32(db.MaxOpenConns)
	poolCfg.MinConns = int32(db.MaxIdleConns)
	poolCfg.MaxConnLifetime = db.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info("database connection established")
	return pool, nil
}

func newRouter(cfg *config.Config, svc *services.PredictionService, metrics *prometheus.Metrics) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logging(), gin.Recovery())
	router.Use(cors.New(corsConfig(cfg.CORS)))

	h := handlers.New(svc, metrics).WithMaxBodyBytes(cfg.Server.MaxBodyBytes)
	h.RegisterRoutes(router)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	return router
}

func corsConfig(c config.CORSConfig) cors.Config {
	cc := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(c.AllowedOrigins) == 0 || (len(c.AllowedOrigins) == 1 && c.AllowedOrigins[0] == "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = c.AllowedOrigins
	}
	return cc
}
