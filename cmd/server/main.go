package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/Vibe/internal/adapters/http"
	"github.com/dkeye/Vibe/internal/adapters/platform"
	"github.com/dkeye/Vibe/internal/app"
	"github.com/dkeye/Vibe/internal/app/orch"
	"github.com/dkeye/Vibe/internal/app/session"
	"github.com/dkeye/Vibe/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	clock := clockwork.NewRealClock()
	stack := platform.OpenStack(platform.Options{
		PrefsPath:       cfg.PrefsPath,
		HotplugPaths:    cfg.HotplugPaths,
		HotplugDebounce: cfg.HotplugDebounce,
		HotplugPoll:     cfg.HotplugPoll,
		Clock:           clock,
	})
	defer func() {
		if err := stack.Close(); err != nil {
			log.Error().Err(err).Msg("platform close")
		}
	}()

	sessionCfg := session.Config{
		NotificationTTL:      cfg.NotificationTTL,
		LoopbackTestDuration: cfg.LoopbackTestDuration,
		MeterInterval:        cfg.MeterInterval,
		MeterWindow:          cfg.MeterWindow,
	}
	o := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Policy:   app.SimplePolicy{MaxMisses: app.DefaultMaxMisses},
		NewSession: func() *session.Manager {
			return session.New(session.Deps{
				Provider: stack.Provider,
				Prefs:    stack.Preferences(),
				Watcher:  stack.Watcher(),
				Loopback: stack.Provider,
				Clock:    clock,
			}, sessionCfg)
		},
	}

	r := router.SetupRouter(ctx, cfg, o, clock)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return stack.Run(gctx) })
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("Vibe device service started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		o.Shutdown()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server error")
	}
	log.Info().Msg("Server exited gracefully")
}
