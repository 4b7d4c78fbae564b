package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/phrazzld/phrasify/internal/domain"
	"github.com/spf13/cobra"
)

// nextOptions override the configured generator for one invocation.
type nextOptions struct {
	count  int
	model  string
	prompt string
}

func newNextCmd(root *rootOptions) *cobra.Command {
	opts := &nextOptions{}

	cmd := &cobra.Command{
		Use:   "next <source> <target>",
		Short: "Print the next generated card for a seed card",
		Long: "next pops cards from the seed's queue, printing one JSON object per line. " +
			"When no card can be generated the seed itself is printed.",
		Args: cobra.ExactArgs(2),
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

			genCfg := app.defaults()
			if opts.model != "" {
				genCfg.LLM = opts.model
			}
			if opts.prompt != "" {
				genCfg.PromptName = opts.prompt
			}
			if err := genCfg.Validate(); err != nil {
				return err
			}

			rep, err := app.buildReplenisher(ctx, genCfg)
			if err != nil {
				return err
			}

			seed := domain.NewTranslationCard(args[0], args[1])
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			for i := 0; i < opts.count; i++ {
				card, err := rep.Next(ctx, seed)
				if err != nil {
					log.Warn("falling back to the seed card", slog.String("error", err.Error()))
					card = seed
				}
				if err := enc.Encode(card); err != nil {
					return fmt.Errorf("failed to write card: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&opts.count, "count", "n", 1, "number of cards to print")
	cmd.Flags().StringVar(&opts.model, "model", "", "override llm.model_name")
	cmd.Flags().StringVar(&opts.prompt, "prompt", "", "override llm.prompt_name")
	return cmd
}
