package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/spf13/cobra"

	"github.com/prgrms-be-devcourse/NBE4-5-2-Team03/internal/config"
	"github.com/prgrms-be-devcourse/NBE4-5-2-Team03/internal/reviewapi"
	"github.com/prgrms-be-devcourse/NBE4-5-2-Team03/internal/session"
)

type commandContext struct {
	logOutput io.Writer

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = config.Load()
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() *slog.Logger {
	level := slog.LevelInfo
	if c.config != nil {
		level = c.config.Log.Level
	}
	return slog.New(slog.NewTextHandler(c.logOutput, &slog.HandlerOptions{Level: level}))
}

func (c *commandContext) apiClient() *reviewapi.Client {
	cfg := c.config
	return reviewapi.New(cfg.Client.BaseURL, &http.Client{Timeout: cfg.Client.Timeout}, c.logger())
}

func (c *commandContext) withSession(ctx context.Context, fn func(*session.SQLiteStore) error) error {
	store, err := session.OpenSQLite(ctx, c.config.Client.SessionPath, c.logger())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "reviewclient",
		Short:         "Read and write movie and series reviews",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx.logOutput = cmd.ErrOrStderr()
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newSessionCommand(ctx))
	rootCmd.AddCommand(newReviewsCommand(ctx))

	return rootCmd
}
