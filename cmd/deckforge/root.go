package main

import (
	"github.com/spf13/cobra"

	"github.com/gnemet/DeckForge/internal/config"
	"github.com/gnemet/DeckForge/internal/logging"
)

var (
	configPath string
	logLevel   string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "deckforge",
	Short: "Generate PowerPoint decks from a topic",
	Long: `deckforge writes .pptx presentations with generated slide titles,
bullet points and one stock photo per slide.

Commands:
  deckforge generate   Build one deck from the command line
  deckforge serve      Run the web form
  deckforge watch      Build decks for JSON requests dropped into the inbox
  deckforge inspect    Print the slides of a .pptx file`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfigFrom(configPath)
		if err != nil {
			return err
		}
		level := cfg.Application.LogLevel
		if cmd.Flags().Changed("log") {
			level = logLevel
		}
		logging.Init(level, cfg.Application.LogFormat)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level: debug, info, warn, error")
}
