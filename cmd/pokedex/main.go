package main

// Environment (see internal/config):
//   PORT / POKEDEX_PORT    listen port (default: 8081)
//   POKEDEX_SERVICE_BASE   base URL of the remote pokedex/game service
//   POKEDEX_ENDPOINT       roster/detail endpoint (default: pokedex.php)
//   GAME_ENDPOINT          battle endpoint (default: game.php)
//   REPORT_ERRORS          show failed requests on the page
//   GUARD_MOVES            ignore moves while a turn is in flight

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pefman/pokedex-duel/internal/api"
	"github.com/pefman/pokedex-duel/internal/config"
	"github.com/pefman/pokedex-duel/internal/logging"
	"github.com/pefman/pokedex-duel/internal/session"
	"github.com/pefman/pokedex-duel/internal/sprites"
	"github.com/pefman/pokedex-duel/internal/stats"
	"github.com/pefman/pokedex-duel/internal/web"
)

// Build metadata injected via -ldflags at build time
var (
	buildVersion = "dev"
	buildTime    = ""
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "pokedex:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	client := api.NewClient(api.Config{
		BaseURL:         cfg.ServiceBase,
		PokedexEndpoint: cfg.PokedexEndpoint,
		GameEndpoint:    cfg.GameEndpoint,
		Timeout:         cfg.ServiceTimeout,
	}, log)

	srv := web.NewServer(client, sprites.NewCache(client, cfg.SpriteCacheTTL, log), stats.NewBook(), web.Options{
		Version:   buildVersion,
		BuildTime: buildTime,
		Session: session.Options{
			ReportErrors: cfg.ReportErrors,
			GuardMoves:   cfg.GuardMoves,
		},
		IdleTimeout: cfg.SessionIdle,
		Logger:      log,
	})
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go srv.Sweep(ctx, time.Minute)

	hs := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()
	log.Info("pokedex duel listening",
		zap.String("addr", hs.Addr),
		zap.String("service", cfg.ServiceBase),
		zap.String("version", buildVersion))

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return hs.Shutdown(shutdownCtx)
}
