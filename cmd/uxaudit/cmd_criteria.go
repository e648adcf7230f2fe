package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func (a *app) criteriaCmd() *cobra.Command {
	var criteriaFile string

	cmd := &cobra.Command{
		Use:   "criteria",
		Short: "Print the evaluation criteria for every category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("criteria") {
				a.cfg.CriteriaFile = criteriaFile
			}
			return a.executeCriteria(cmd.Context(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&criteriaFile, "criteria", "", "Criteria YAML file (embedded defaults when unset)")
	return cmd
}

func (a *app) executeCriteria(ctx context.Context, out io.Writer) error {
	registry, err := loadRegistry(ctx, a.cfg.CriteriaFile)
	if err != nil {
		return err
	}

	for i, c := range registry.All() {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, titleStyle.Render(string(c.Category)))
		for _, item := range c.Checklist {
			fmt.Fprintf(out, "  %s %s\n", okStyle.Render("✓"), item)
		}
		for _, item := range c.AntiPatterns {
			fmt.Fprintf(out, "  %s %s\n", errorStyle.Render("✗"), item)
		}
	}
	return nil
}
