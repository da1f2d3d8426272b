package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/friendpin/friendpin-backend/config"
	"github.com/friendpin/friendpin-backend/internal/auth"
	authmw "github.com/friendpin/friendpin-backend/internal/auth/middleware"
	"github.com/friendpin/friendpin-backend/internal/bootstrap"
	"github.com/friendpin/friendpin-backend/internal/logger"
	"github.com/friendpin/friendpin-backend/internal/users/reconcile"
	"github.com/friendpin/friendpin-backend/internal/users/service"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("friendpin-backend", "info")
		bootLog.Error().Err(err).Msg("failed to load configuration")
		return err
	}

	log := logger.New(cfg.App.ServiceName, cfg.App.LogLevel)
	bootstrap.SetGinMode(cfg.App.Environment)

	log.Info().
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Str("store_backend", cfg.Store.Backend).
		Bool("auth_enabled", cfg.Auth.Enabled).
		Bool("visit_atomic_writes", cfg.Visit.AtomicWrites).
		Bool("visit_clear_previous", cfg.Visit.ClearPrevious).
		Msg("service starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var fb *auth.App
	if bootstrap.NeedsFirebase(cfg) {
		fb, err = auth.InitializeFirebase(ctx, &cfg.Firebase)
		if err != nil {
			log.Error().Err(err).Msg("firebase unavailable")
			return err
		}
	}

	store, err := bootstrap.OpenStore(ctx, cfg, fb, log)
	if err != nil {
		return err
	}
	defer store.Close()

	var verifier authmw.TokenVerifier
	if cfg.Auth.Enabled {
		authClient, err := fb.Auth(ctx)
		if err != nil {
			log.Error().Err(err).Msg("firebase auth unavailable")
			return err
		}
		verifier = authClient
	}

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: cfg.App.ServiceName,
		Version:     cfg.App.Version,
		Backend:     cfg.Store.Backend,
		Store:       store,
		Logger:      log,
		Visit: service.VisitOptions{
			AtomicWrites:  cfg.Visit.AtomicWrites,
			ClearPrevious: cfg.Visit.ClearPrevious,
		},
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		RateLimitRPS:   cfg.HTTP.RateLimitRPS,
		RateLimitBurst: cfg.HTTP.RateLimitBurst,
		Verifier:       verifier,
	})

	scheduler := reconcile.NewScheduler(reconcile.New(store), log)
	if err := scheduler.Start(cfg.Reconcile.Schedule); err != nil {
		log.Error().Err(err).Str("schedule", cfg.Reconcile.Schedule).Msg("invalid reconcile schedule")
		return err
	}
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server forced to shutdown")
			return err
		}
		log.Info().Msg("server exited")
		return nil
	case err := <-errCh:
		log.Error().Err(err).Msg("http server failed")
		return err
	}
}
