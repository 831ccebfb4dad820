package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/thywilljoshua/pdf-explainer/internal/di"
	"github.com/thywilljoshua/pdf-explainer/internal/media"
	"github.com/thywilljoshua/pdf-explainer/internal/slideshow"
)

func composeCmd(g *globalFlags) *cobra.Command {
	var id string
	var maxSlides int
	var slideCap float64
	var duration float64
	var outDir string

	cmd := &cobra.Command{
		Use:   "compose <text-file> <audio-file>",
		Short: "Render narration text and an audio track into a slideshow MP4",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-slides") {
				cfg.Video.MaxSlides = maxSlides
			}
			if cmd.Flags().Changed("slide-cap") {
				cfg.Video.SlideCap = slideCap
			}
			if outDir != "" {
				cfg.Storage.VideoDir = outDir
			}

			narration, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read narration: %w", err)
			}
			if id == "" {
				id = strings.TrimSuffix(filepath.Base(args[1]), filepath.Ext(args[1]))
			}

			injector := di.NewContainer(cfg)
			defer injector.Shutdown()

			if duration <= 0 {
				prober := do.MustInvoke[*media.Prober](injector)
				if duration, err = prober.Duration(cmd.Context(), args[1]); err != nil {
					return err
				}
			}
			composer, err := do.Invoke[*slideshow.Composer](injector)
			if err != nil {
				return err
			}

			out, err := composer.Compose(cmd.Context(), string(narration),
				slideshow.AudioTrack{Path: args[1], Duration: duration}, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "output id; the video is written as <id>.mp4 (default: audio file name)")
	cmd.Flags().IntVar(&maxSlides, "max-slides", 10, "target number of slides")
	cmd.Flags().Float64Var(&slideCap, "slide-cap", 10, "maximum seconds per slide")
	cmd.Flags().Float64Var(&duration, "duration", 0, "audio duration in seconds (default: probe the file)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default from config)")
	return cmd
}
