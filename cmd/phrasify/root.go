package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/phrasify/internal/config"
	"github.com/phrazzld/phrasify/internal/platform/logger"
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "phrasify",
		Short:        "Replenishing cache of LLM generated translation cards",
		Long:         "phrasify keeps per-card queues of generated translation cards topped up in the background and serves them instantly.",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default ./phrasify.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override server.log_level (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(opts),
		newNextCmd(opts),
		newRenderCmd(opts),
		newCacheCmd(opts),
		newMigrateCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// load reads the configuration and installs a JSON logger on stderr, so
// command output on stdout stays machine readable.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: o.configFile})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if o.logLevel != "" {
		cfg.Server.LogLevel = o.logLevel
	}

	log := logger.New(cmd.ErrOrStderr(), cfg.Server.LogLevel)
	slog.SetDefault(log)
	return cfg, log, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print phrasify version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "phrasify version %s\n", version)
		},
	}
}
