package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"conflictwatch/internal/config"
	cronrunner "conflictwatch/internal/cron"
	"conflictwatch/internal/db"
	"conflictwatch/internal/extract"
	"conflictwatch/internal/feed"
	"conflictwatch/internal/handler"
	"conflictwatch/internal/ingest"
	"conflictwatch/internal/logger"
	gormrepository "conflictwatch/internal/repository/gorm"
)

func main() {
	cfgPath := os.Getenv("CW_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("CW_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	feedClient := feed.NewClient(cfg.Feed.BaseURL, cfg.Feed.Timeout)
	extractor, err := extract.New(cfg.LLM, logger)
	if err != nil {
		logger.Fatal("extractor init failed", zap.Error(err))
	}

	pipeline := &ingest.Service{
		Feeds:   feedClient,
		Extract: extractor,
		Repo:    store,
		Logger:  logger,
		Config:  cfg.Ingest,
		Sources: cfg.Feed.Sources,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	tweetHandler := &handler.TweetHandler{Repo: store, Logger: logger}
	tweetHandler.Register(engine)
	disputedHandler := &handler.DisputedAreaHandler{Repo: store, Logger: logger}
	disputedHandler.Register(engine)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled && cfg.Ingest.Enabled {
		_, err := cronRunner.Add(cfg.Cron.Poll, func(ctx context.Context) {
			start := time.Now()
			if err := pipeline.RunCycle(ctx); err != nil {
				logger.Warn("poll cycle aborted", zap.Error(err))
				return
			}
			logger.Info("poll cycle done", zap.Duration("took", time.Since(start)))
		})
		if err != nil {
			logger.Warn("cron register poll failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	if cfg.Ingest.Enabled && cfg.Ingest.RunOnStart {
		go func() {
			logger.Info("running initial poll cycle")
			if err := pipeline.RunCycle(ctx); err != nil {
				logger.Warn("initial poll cycle aborted", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
