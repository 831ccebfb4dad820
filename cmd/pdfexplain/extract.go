package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/pdf-explainer/internal/pdf"
)

func extractCmd(g *globalFlags) *cobra.Command {
	var extractor string
	var maxChars int

	cmd := &cobra.Command{
		Use:   "extract <pdf>",
		Short: "Print the normalized text layer of a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("extractor") {
				cfg.PDF.Extractor = extractor
			}

			pages, err := pdf.Inspect(args[0])
			if err != nil {
				return err
			}
			ex, err := pdf.New(cfg.PDF.Extractor)
			if err != nil {
				return err
			}
			text, err := ex.Extract(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "%d pages, %d characters (%s)\n", pages, len([]rune(text)), ex.Name())
			fmt.Fprintln(cmd.OutOrStdout(), pdf.Truncate(text, maxChars))
			return nil
		},
	}
	cmd.Flags().StringVar(&extractor, "extractor", pdf.ExtractorRSC, "text extractor: rsc|ledongthuc")
	cmd.Flags().IntVar(&maxChars, "max-chars", 0, "truncate output to N characters (0 = no limit)")
	return cmd
}
