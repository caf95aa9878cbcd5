package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dkostiuk/clipferry/internal/api"
	"github.com/dkostiuk/clipferry/internal/api/handler"
	"github.com/dkostiuk/clipferry/internal/config"
	"github.com/dkostiuk/clipferry/internal/dispatch"
	"github.com/dkostiuk/clipferry/internal/execx"
	"github.com/dkostiuk/clipferry/internal/extract"
	"github.com/dkostiuk/clipferry/internal/gatekeep"
	"github.com/dkostiuk/clipferry/internal/pipeline"
	"github.com/dkostiuk/clipferry/internal/probe"
	"github.com/dkostiuk/clipferry/internal/responses"
	"github.com/dkostiuk/clipferry/internal/telegram"
	"github.com/dkostiuk/clipferry/pkg/ffmpeg"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("clipferry %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Bot.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("starting clipferry",
		"version", Version,
		"build_time", BuildTime,
		"language", cfg.Bot.Language,
	)

	if cfg.Media.TempPath != "" {
		if err := os.MkdirAll(cfg.Media.TempPath, 0755); err != nil {
			logger.Error("failed to create temp directory", "error", err)
			os.Exit(1)
		}
	}

	msgs, err := responses.Load(cfg.Bot.Language)
	if err != nil {
		logger.Error("failed to load response strings", "error", err)
		os.Exit(1)
	}

	// Pipeline dependencies, all sharing one subprocess runner.
	runner := execx.DefaultRunner{}
	transcoder := ffmpeg.NewProcessor(runner, logger, 10*time.Minute)
	if !transcoder.IsAvailable() {
		logger.Warn("ffmpeg not found on PATH, oversized videos will be dropped uncompressed")
	}
	remote := probe.NewRemote(runner, logger)
	extractor := extract.NewOrchestrator(runner, logger, cfg.Media.ExtractTimeout, cfg.Instagram)
	gate := gatekeep.New(transcoder, transcoder, cfg.Media, logger)
	dispatcher := dispatch.New(
		dispatch.FixedPacer{Delay: cfg.Media.ThrottleDelay},
		msgs,
		cfg.Media.ThrottleThreshold,
		logger,
	)
	pipe := pipeline.New(remote, extractor, gate, dispatcher, msgs, cfg.Media, logger)

	bot, err := telegram.New(cfg, pipe, msgs, logger)
	if err != nil {
		logger.Error("failed to start bot", "error", err)
		os.Exit(1)
	}

	healthHandler := handler.NewHealthHandler(pipe.Stats(), transcoder, cfg.Media.TempPath)
	router := api.NewRouter(healthHandler, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := bot.Run(ctx); err != nil && err != context.Canceled {
			logger.Error("bot stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
