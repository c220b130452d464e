package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sociallift/pagereply/internal/ai"
	"github.com/sociallift/pagereply/internal/auth"
	"github.com/sociallift/pagereply/internal/config"
	"github.com/sociallift/pagereply/internal/facebook"
	"github.com/sociallift/pagereply/internal/pipeline"
	"github.com/sociallift/pagereply/internal/server"
	"github.com/sociallift/pagereply/internal/storage"
	"github.com/sociallift/pagereply/internal/storage/inmemory"
	"github.com/sociallift/pagereply/internal/storage/postgres"
)

// Run is the application entry point: load configuration, wire the store,
// the pipeline and the HTTP server, and serve until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	var store storage.Storage
	if cfg.Database.DSN != "" {
		store, err = postgres.New(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		logger.Info("using postgres storage")
	} else {
		store = inmemory.New()
		logger.Warn("DATABASE_URL not set, using in-memory storage")
	}

	llm := ai.New(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
	poster := facebook.NewClient(cfg.Meta.GraphBaseURL, cfg.Meta.GraphVersion)
	verifier := auth.NewVerifier(cfg.Clerk.FrontendAPI, cfg.Clerk.AllowedOrigin)
	broker := server.NewReviewBroker()

	dispatcher := pipeline.NewDispatcher(store, llm, poster, logger)
	scheduler := pipeline.NewScheduler(dispatcher, store, cfg.Dispatch.Workers, cfg.Dispatch.QueueSize, cfg.Dispatch.SweepInterval, logger)
	moderator := pipeline.NewModerator(store, llm, logger)
	pl := pipeline.New(store, moderator, scheduler, broker, logger)

	scheduler.Start(ctx)

	srv := server.New(store, pl, scheduler, verifier, broker, cfg.Meta.VerifyToken, logger)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", slog.String("error", err.Error()))
	}

	// Workers stop via ctx cancellation; wait for in-flight dispatches.
	done := make(chan struct{})
	go func() {
		scheduler.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(cfg.Server.ShutdownTimeout):
		logger.Warn("dispatch workers did not stop in time")
	}

	return nil
}
