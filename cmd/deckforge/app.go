package main

import (
	"context"
	"log/slog"

	"github.com/gnemet/DeckForge/internal/ai"
	"github.com/gnemet/DeckForge/internal/config"
	"github.com/gnemet/DeckForge/internal/database"
	"github.com/gnemet/DeckForge/internal/deck"
	"github.com/gnemet/DeckForge/internal/images"
)

// app holds the wired collaborators shared by the commands.
type app struct {
	builder *deck.Builder
	store   *database.Store
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	text, err := ai.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Images.Key == "" {
		slog.Warn("UNSPLASH_API_KEY not set, slides will have no pictures")
	}
	b := deck.NewBuilder(text, images.NewClient(cfg.Images), deck.OptionsFromConfig(cfg))

	a := &app{builder: b}
	if cfg.Database.Enabled() {
		db, err := database.NewConnection(cfg.Database.GetConnectStr())
		if err != nil {
			// history is optional
			slog.Warn("database unavailable, run history disabled", "error", err)
			return a, nil
		}
		if err := database.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		a.store = database.NewStore(db)
		b.WithRecorder(a.store)
		text.WithUsageRecorder(a.store)
	}
	slog.Info("DeckForge ready", "provider", text.Provider(), "model", text.Model(), "output_dir", b.Options().OutputDir)
	return a, nil
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
}
