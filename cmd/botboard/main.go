// Package main contains the entrypoint for the BotBoard service.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/botboard/internal/api"
	"github.com/edgard/botboard/internal/bot"
	"github.com/edgard/botboard/internal/config"
	"github.com/edgard/botboard/internal/database"
	"github.com/edgard/botboard/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires config, logger, database, bot service, and the HTTP admin API
// together, then blocks until shutdown. It returns the process exit code.
func run(ctx context.Context) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to open database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	svc := bot.New(log, cfg, store, nil)

	// The bot only starts when a token is stored; a fresh install runs the
	// dashboard alone until one is configured.
	if err := svc.StartFromSettings(ctx); err != nil {
		if errors.Is(err, bot.ErrNoToken) {
			log.Info("No bot token stored, bot idle until started via the API")
		} else {
			log.Warn("Failed to start bot from stored settings", "error", err)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(log, cfg, store, svc)
	server := &http.Server{
		Addr:              cfg.HTTP.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("HTTP server listening", "addr", cfg.HTTP.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := svc.Stop(); err != nil {
			log.Warn("Failed to stop bot cleanly", "error", err)
		}
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Service stopped due to error", "error", err)
		return 1
	}

	log.Info("Service stopped gracefully")
	return 0
}
