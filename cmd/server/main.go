package main

import (
	"chessrush/internal/app"
	"chessrush/internal/config"
	"chessrush/internal/logging"
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// @title ChessRush Opening Trainer API
// @version 1.0
// @description Opening puzzles built from master-game statistics with an engine fallback
// @host localhost:8080
// @BasePath /v1
func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogPretty)
	ctx := context.Background()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start")
	}

	// Start server
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Bool("engine", a.Engine != nil).
			Strs("endpoints", []string{
				"GET  /v1/opening",
				"GET  /v1/puzzle",
				"POST /v1/puzzle/submit",
				"POST /v1/sessions",
				"GET  /v1/me/attempts",
				"GET  /v1/leaderboard",
				"GET  /v1/positions",
				"WS   /v1/ws",
			}).
			Msg("server starting")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe")
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	a.Close(shutdownCtx)

	log.Info().Msg("server exited")
}
