package main

import (
	"encoding/json"
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/thywilljoshua/pdf-explainer/internal/di"
	"github.com/thywilljoshua/pdf-explainer/internal/pipeline"
)

func processCmd(g *globalFlags) *cobra.Command {
	var prompt string
	var id string

	cmd := &cobra.Command{
		Use:   "process <pdf>",
		Short: "Run the full pipeline on one PDF and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			injector := di.NewContainer(cfg)
			defer injector.Shutdown()

			svc, err := do.Invoke[*pipeline.Service](injector)
			if err != nil {
				return err
			}
			res, err := svc.Process(cmd.Context(), pipeline.Request{
				PDFPath: args[0],
				Prompt:  prompt,
				FileID:  id,
			})
			if err != nil {
				return err
			}

			out := struct {
				*pipeline.Result
				AudioPath string `json:"audio_path"`
				VideoPath string `json:"video_path"`
			}{res, res.AudioPath, res.VideoPath}
			b, _ := json.MarshalIndent(out, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "instruction for the explanation (default from config)")
	cmd.Flags().StringVar(&id, "id", "", "output file id (default: random UUID)")
	return cmd
}
