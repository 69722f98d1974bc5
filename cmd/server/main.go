package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/KonstantinKlepikov/cold-war-boardgame-sub000/internal/auth"
	"github.com/KonstantinKlepikov/cold-war-boardgame-sub000/internal/catalog"
	"github.com/KonstantinKlepikov/cold-war-boardgame-sub000/internal/config"
	"github.com/KonstantinKlepikov/cold-war-boardgame-sub000/internal/history"
	"github.com/KonstantinKlepikov/cold-war-boardgame-sub000/internal/repository"
	"github.com/KonstantinKlepikov/cold-war-boardgame-sub000/internal/server"
	"github.com/KonstantinKlepikov/cold-war-boardgame-sub000/internal/service"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting cold war server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	cat, err := catalog.Load()
	if err != nil {
		logger.Fatal("failed to load card catalog", zap.Error(err))
	}
	logger.Info("card catalog loaded",
		zap.Int("agents", len(cat.AgentIDs())),
		zap.Int("groups", len(cat.GroupIDs())),
		zap.Int("objectives", len(cat.ObjectiveIDs())),
	)

	db, err := repository.NewDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	var recorder *history.Recorder
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable; action history disabled", zap.Error(err))
	} else {
		defer rdb.Close()
		recorder = history.NewRecorder(rdb, cfg.Redis.HistoryLimit)
		logger.Info("action history enabled",
			zap.String("address", cfg.Redis.Address),
			zap.Int64("limit", cfg.Redis.HistoryLimit),
		)
	}

	authMgr, err := auth.NewManager(cfg.Auth)
	if err != nil {
		logger.Fatal("failed to initialize auth", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db)
	gameRepo := repository.NewGameRepository(db)

	svc := service.NewGameService(cat, gameRepo, recorder, logger)
	hub := server.NewHub(logger)
	api := server.NewServer(svc, userRepo, authMgr, recorder, hub, logger)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting HTTP server", zap.String("address", cfg.Server.Address))
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(serveErr))
			cancel()
		}
	}()

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}

	logger.Info("shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	logger.Info("cold war server stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
