package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/prgrms-be-devcourse/NBE4-5-2-Team03/internal/api"
	"github.com/prgrms-be-devcourse/NBE4-5-2-Team03/internal/store"
	"github.com/prgrms-be-devcourse/NBE4-5-2-Team03/pkg/auth"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var inMemory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), ctx, inMemory)
		},
	}
	cmd.Flags().BoolVar(&inMemory, "memory", false, "Keep reviews in memory instead of PostgreSQL")
	return cmd
}

func runServe(parent context.Context, cmdCtx *commandContext, inMemory bool) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	logger := cmdCtx.logger()

	if cfg.JWT.UsingDefault {
		logger.Warn("JWT_SECRET_KEY not set, using the development key")
	}
	tokenManager, err := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TokenDuration, cfg.JWT.AllowShort)
	if err != nil {
		return fmt.Errorf("init token manager: %w", err)
	}

	var reviewStorage store.ReviewStore
	if inMemory {
		reviewStorage = store.NewMemoryReviewStore(logger)
		logger.Info("In-memory ReviewStore initialized")
	} else {
		if cfg.Database.UsingDefault {
			logger.Warn("REVIEW_SERVICE_DATABASE_URL not set, using default connection string")
		}
		logger.Info("Connecting to review database", slog.String("dbURL", cfg.Database.SafeDatabaseURL()))

		connectCtx, cancel := context.WithTimeout(parent, 10*time.Second)
		db, err := store.Connect(connectCtx, cfg.Database.URL)
		cancel()
		if err != nil {
			logger.Error("Failed to connect to review database", slog.String("error", err.Error()))
			return err
		}
		defer func() {
			logger.Info("Closing review database connection")
			if err := db.Close(); err != nil {
				logger.Error("Failed to close review database", slog.String("error", err.Error()))
			}
		}()

		if err := store.Migrate(parent, db.DB); err != nil {
			return err
		}
		pg, err := store.NewPostgresReviewStore(db, logger)
		if err != nil {
			return err
		}
		reviewStorage = pg
		logger.Info("PostgreSQL ReviewStore initialized")
	}

	handler := api.NewReviewHandler(reviewStorage, logger, validator.New(), tokenManager, api.PageSettings{
		DefaultSize: cfg.Server.PageSize,
		MaxSize:     cfg.Server.MaxPageSize,
	})

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Server.HTTPPort,
		Handler:      api.NewReviewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Review Service HTTP server starting", slog.String("port", cfg.Server.HTTPPort))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			logger.Error("Review Service HTTP ListenAndServe failed", slog.String("error", err.Error()))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Review Service shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Review Service HTTP server shutdown failed", slog.String("error", err.Error()))
		return err
	}
	logger.Info("Review Service stopped")
	return nil
}
