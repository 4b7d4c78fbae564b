package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/phrazzld/phrasify/internal/filter"
	"github.com/spf13/cobra"
)

type renderOptions struct {
	notePath     string
	template     string
	templatePath string
}

func newRenderCmd(root *rootOptions) *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a card template for a note",
		Long: "render fills {{Field}} and {{filter:Field}} references from a JSON note. " +
			"References using a phrasify filter are replaced with generated text.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := opts.loadTemplate()
			if err != nil {
				return err
			}
			note, err := readNote(opts.notePath)
			if err != nil {
				return err
			}

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

			factories, err := app.newFactoryCache()
			if err != nil {
				return err
			}

			f := filter.New(factories, app.defaults(), log)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), f.RenderTemplate(ctx, tmpl, filter.NewRender(note)))
			return err
		},
	}
	cmd.Flags().StringVar(&opts.notePath, "note", "", "JSON object mapping field names to text (required)")
	cmd.Flags().StringVarP(&opts.template, "template", "t", "", "template text")
	cmd.Flags().StringVar(&opts.templatePath, "template-file", "", "file holding the template text")
	_ = cmd.MarkFlagRequired("note")
	cmd.MarkFlagsMutuallyExclusive("template", "template-file")
	cmd.MarkFlagsOneRequired("template", "template-file")
	return cmd
}

func (o *renderOptions) loadTemplate() (string, error) {
	if o.templatePath == "" {
		return o.template, nil
	}
	data, err := os.ReadFile(o.templatePath)
	if err != nil {
		return "", fmt.Errorf("failed to read template: %w", err)
	}
	return string(data), nil
}

func readNote(path string) (filter.Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read note: %w", err)
	}
	var note filter.Note
	if err := json.Unmarshal(data, &note); err != nil {
		return nil, fmt.Errorf("failed to parse note %s: %w", path, err)
	}
	if len(note) == 0 {
		return nil, errors.New("note has no fields")
	}
	return note, nil
}
