package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/prgrms-be-devcourse/NBE4-5-2-Team03/internal/store"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.logger()
			logger.Info("Migrating review database", slog.String("dbURL", cfg.Database.SafeDatabaseURL()))

			db, err := store.Connect(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := store.Migrate(cmd.Context(), db.DB); err != nil {
				return err
			}
			version, err := store.MigrationVersion(cmd.Context(), db.DB)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		},
	}
}
