package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gnemet/DeckForge/internal/form"
	"github.com/gnemet/DeckForge/internal/i18n"
	"github.com/gnemet/DeckForge/internal/observer"
)

var (
	servePort  int
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the presentation form",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (defaults to application.port)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Also process the inbox in the background")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := i18n.Init(); err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	var status form.StatusReporter
	if serveWatch {
		obs := observer.NewObserver(cfg, a.builder, nil)
		status = obs
		go func() {
			if err := obs.Start(ctx); err != nil {
				slog.Error("observer stopped", "error", err)
			}
		}()
	}

	server, err := form.NewServer(a.builder, a.builder.Options().OutputDir, status)
	if err != nil {
		return err
	}

	port := cfg.Application.Port
	if servePort != 0 {
		port = servePort
	}
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Application.Host, port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("DeckForge form listening", "url", fmt.Sprintf("http://%s", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
