package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/phrazzld/phrasify/internal/platform/postgres"
	"github.com/spf13/cobra"
)

var migrateCommands = []string{
	postgres.MigrateUp,
	postgres.MigrateDown,
	postgres.MigrateReset,
	postgres.MigrateStatus,
	postgres.MigrateVersion,
}

func newMigrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate <" + strings.Join(migrateCommands, "|") + ">",
		Short:     "Manage the postgres queue schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: migrateCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load(cmd)
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return errors.New("database.url is required for migrations")
			}

			ctx := cmd.Context()
			db, err := postgres.Open(ctx, cfg.Database.URL)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := postgres.Migrate(ctx, db, args[0], log); err != nil {
				return fmt.Errorf("migrate %s: %w", args[0], err)
			}
			return nil
		},
	}
}
