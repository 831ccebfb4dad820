package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/pdf-explainer/internal/config"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configFile string
	envFile    string
	logLevel   string
}

func main() {
	var g globalFlags

	root := &cobra.Command{
		Use:           "pdfexplain",
		Short:         "Explain a PDF as text, narrated audio and a slideshow video",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configFile, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "dotenv file loaded into the environment")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: trace|debug|info|warn|error")

	root.AddCommand(serveCmd(&g))
	root.AddCommand(processCmd(&g))
	root.AddCommand(composeCmd(&g))
	root.AddCommand(extractCmd(&g))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// load reads configuration and applies the global flag overrides.
func (g *globalFlags) load() (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{File: g.configFile, EnvFile: g.envFile})
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	return cfg, nil
}
