package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gnemet/DeckForge/internal/ai"
	"github.com/gnemet/DeckForge/internal/deck"
)

type DeckRecord struct {
	ID         int             `json:"id"`
	Topic      string          `json:"topic"`
	FilePath   string          `json:"file_path"`
	SlideCount int             `json:"slide_count"`
	Pictures   int             `json:"pictures"`
	Slides     json.RawMessage `json:"slides"`
	CreatedAt  time.Time       `json:"created_at"`
}

type AIUsage struct {
	ID               int       `json:"id"`
	Provider         string    `json:"provider"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewDeckRecord flattens a build result into a row.
func NewDeckRecord(res deck.Result) (*DeckRecord, error) {
	slides, err := json.Marshal(res.Slides)
	if err != nil {
		return nil, fmt.Errorf("failed to encode slides: %w", err)
	}
	return &DeckRecord{
		Topic:      res.Topic,
		FilePath:   res.Path,
		SlideCount: len(res.Slides),
		Pictures:   res.Pictures,
		Slides:     slides,
	}, nil
}

func SaveDeck(ctx context.Context, db *sql.DB, d *DeckRecord) (int, error) {
	query := `
		INSERT INTO decks (topic, file_path, slide_count, pictures, slides)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var id int
	err := db.QueryRowContext(ctx, query, d.Topic, d.FilePath, d.SlideCount, d.Pictures, []byte(d.Slides)).Scan(&id)
	return id, err
}

func GetRecentDecks(ctx context.Context, db *sql.DB, limit int) ([]DeckRecord, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, topic, file_path, slide_count, pictures, slides, created_at FROM decks ORDER BY created_at DESC LIMIT $1", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decks []DeckRecord
	for rows.Next() {
		var d DeckRecord
		var slides []byte
		if err := rows.Scan(&d.ID, &d.Topic, &d.FilePath, &d.SlideCount, &d.Pictures, &slides, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Slides = slides
		decks = append(decks, d)
	}
	return decks, rows.Err()
}

func LogAIUsage(ctx context.Context, db *sql.DB, u *AIUsage) error {
	query := `
		INSERT INTO ai_usage (provider, model, prompt_tokens, completion_tokens, total_tokens)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := db.ExecContext(ctx, query, u.Provider, u.Model, u.PromptTokens, u.CompletionTokens, u.TotalTokens)
	return err
}

func GetTotalTokens(ctx context.Context, db *sql.DB) (int, error) {
	var total int
	err := db.QueryRowContext(ctx, "SELECT COALESCE(SUM(total_tokens), 0) FROM ai_usage").Scan(&total)
	return total, err
}

// Store adapts the repository functions to the builder's Recorder and the
// AI client's UsageRecorder.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) RecordDeck(ctx context.Context, res deck.Result) error {
	rec, err := NewDeckRecord(res)
	if err != nil {
		return err
	}
	_, err = SaveDeck(ctx, s.db, rec)
	return err
}

func (s *Store) RecordUsage(ctx context.Context, u ai.Usage) error {
	return LogAIUsage(ctx, s.db, &AIUsage{
		Provider:         u.Provider,
		Model:            u.Model,
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	})
}

func (s *Store) Close() error { return s.db.Close() }
