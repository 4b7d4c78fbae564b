package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/phrazzld/phrasify/internal/config"
	"github.com/phrazzld/phrasify/internal/platform/filestore"
	"github.com/phrazzld/phrasify/internal/platform/postgres"
	"github.com/spf13/cobra"
)

func newCacheCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the card queues",
	}
	cmd.AddCommand(newCacheClearCmd(root), newCacheShowCmd(root), newCacheImportCmd(root))
	return cmd
}

func newCacheClearCmd(root *rootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete queued cards",
		Long:  "clear deletes every queue, or only the queues of one cache name (see --name).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			app, err := newApplication(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer app.cleanup(context.WithoutCancel(ctx))

			if name == "current" {
				name = app.defaults().PathFriendly()
			}
			removed, err := app.store.Clear(ctx, name)
			if err != nil {
				return fmt.Errorf("clearing cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d queue(s).\n", removed)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", `cache name to clear; "current" selects the configured generator`)
	return cmd
}

func newCacheShowCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show queue statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			app, err := newApplication(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer app.cleanup(context.WithoutCancel(ctx))

			stats, err := app.store.Stats(ctx)
			if err != nil {
				return fmt.Errorf("reading cache stats: %w", err)
			}
			data, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newCacheImportCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Copy queues from a file cache directory into postgres",
		Long:  "import reads every queue file in dir and writes it to the postgres queue table in one transaction.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load(cmd)
			if err != nil {
				return err
			}
			if cfg.Cache.Backend != config.BackendPostgres {
				return errors.New("cache import requires cache.backend=postgres")
			}

			ctx := cmd.Context()
			queues, err := filestore.New(args[0], log).Queues(ctx)
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			db, err := postgres.Open(ctx, cfg.Database.URL)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			n, err := postgres.Import(ctx, db, queues, log)
			if err != nil {
				return fmt.Errorf("importing queues: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d queue(s).\n", n)
			return nil
		},
	}
}
