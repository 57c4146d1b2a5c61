package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gnemet/DeckForge/internal/observer"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Build a deck for every JSON request dropped into the inbox",
	Long: `watch processes files like {"topic": "Coral reefs", "slides": 3} placed in
application.storage.inbox and moves each one, with a .result file, to
application.storage.done.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		return observer.NewObserver(cfg, a.builder, nil).Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
