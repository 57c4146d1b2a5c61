package deck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/gnemet/DeckForge/internal/ai"
	"github.com/gnemet/DeckForge/internal/config"
	"github.com/gnemet/DeckForge/internal/images"
	"github.com/gnemet/DeckForge/internal/pptx"
)

var (
	// ErrInvalidSlideCount is returned when the requested slide count is not positive.
	ErrInvalidSlideCount = errors.New("slide count must be a positive integer")
	// ErrGeneration tags every failure of the text-generation service.
	ErrGeneration = errors.New("text generation failed")
)

// TextGenerator produces free-form text for a prompt.
type TextGenerator interface {
	Complete(ctx context.Context, p ai.Prompt) (string, error)
}

// ImageSource finds and downloads one photo for a query.
type ImageSource interface {
	Search(ctx context.Context, query string) (images.Reference, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// Recorder persists a finished deck.
type Recorder interface {
	RecordDeck(ctx context.Context, r Result) error
}

// GenerationRequest is the input of one slide's text generation.
type GenerationRequest struct {
	Topic      string
	SlideIndex int
	History    []string
}

// SlideContent is the generated text of one slide after truncation.
type SlideContent struct {
	Title   string   `json:"title"`
	Bullets []string `json:"bullets"`
}

// Result describes a saved deck.
type Result struct {
	Path     string         `json:"path"`
	Topic    string         `json:"topic"`
	Slides   []SlideContent `json:"slides"`
	Pictures int            `json:"pictures"`
}

// Options are the tunable limits of the builder.
type Options struct {
	MaxBullets          int
	MaxWordsPerBullet   int
	MaxTitleChars       int
	MaxImagesPerSlide   int
	HistoryWindow       int
	IncludeTitleInQuery bool
	OutputDir           string
}

func DefaultOptions() Options {
	return Options{
		MaxBullets:        4,
		MaxWordsPerBullet: 20,
		MaxTitleChars:     70,
		MaxImagesPerSlide: 1,
		HistoryWindow:     3,
		OutputDir:         ".",
	}
}

// OptionsFromConfig reads the deck limits and the output directory, keeping defaults for unset values.
func OptionsFromConfig(cfg *config.Config) Options {
	o := DefaultOptions()
	d := cfg.Deck
	if d.MaxBullets > 0 {
		o.MaxBullets = d.MaxBullets
	}
	if d.MaxWordsPerBullet > 0 {
		o.MaxWordsPerBullet = d.MaxWordsPerBullet
	}
	if d.MaxTitleChars > 0 {
		o.MaxTitleChars = d.MaxTitleChars
	}
	if d.MaxImagesPerSlide >= 0 {
		o.MaxImagesPerSlide = d.MaxImagesPerSlide
	}
	if d.HistoryWindow > 0 {
		o.HistoryWindow = d.HistoryWindow
	}
	o.IncludeTitleInQuery = d.IncludeTitleInQuery
	if cfg.Application.OutputDir != "" {
		o.OutputDir = cfg.Application.OutputDir
	}
	return o
}

// Builder turns a topic into a saved presentation. It keeps no state between
// builds, so one Builder may serve several callers.
type Builder struct {
	text     TextGenerator
	images   ImageSource
	opts     Options
	recorder Recorder
	logger   *slog.Logger
	newID    func() string
}

func NewBuilder(text TextGenerator, imgs ImageSource, opts Options) *Builder {
	return &Builder{
		text:   text,
		images: imgs,
		opts:   opts,
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
}

func (b *Builder) WithRecorder(r Recorder) *Builder {
	b.recorder = r
	return b
}

func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	if l != nil {
		b.logger = l
	}
	return b
}

func (b *Builder) Options() Options { return b.opts }

// Build generates slideCount slides on topic and returns the path of the saved file.
func (b *Builder) Build(ctx context.Context, topic string, slideCount int) (string, error) {
	res, err := b.BuildDeck(ctx, topic, slideCount)
	if err != nil {
		return "", err
	}
	return res.Path, nil
}

// BuildDeck is Build returning the generated content as well.
func (b *Builder) BuildDeck(ctx context.Context, topic string, slideCount int) (Result, error) {
	if slideCount < 1 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidSlideCount, slideCount)
	}
	topic = strings.TrimSpace(topic)

	pres := pptx.New()
	pres.Title = topic
	res := Result{Topic: topic}

	var history, titles []string
	for i := 0; i < slideCount; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		req := GenerationRequest{Topic: topic, SlideIndex: i, History: history}

		title := b.slideTitle(ctx, req, titles)
		titles = append(titles, title)

		bullets := b.slideBullets(ctx, req, title)
		content := SlideContent{Title: title, Bullets: bullets}

		pictures := b.slideImages(ctx, topic, title)
		res.Pictures += b.layoutSlide(pres, content, pictures)

		res.Slides = append(res.Slides, content)
		history = append(history, title+"\n"+strings.Join(bullets, " "))
		b.logger.Info("slide generated", "slide", i+1, "of", slideCount, "title", title, "bullets", len(bullets), "pictures", len(pictures))
	}

	dir := b.opts.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Result{}, fmt.Errorf("failed to create output dir: %w", err)
	}
	res.Path = filepath.Join(dir, FileName(topic, b.newID))
	if err := pres.Save(res.Path); err != nil {
		return Result{}, err
	}
	b.logger.Info("presentation saved", "path", res.Path, "slides", len(res.Slides))

	if b.recorder != nil {
		if err := b.recorder.RecordDeck(ctx, res); err != nil {
			b.logger.Warn("failed to record deck", "path", res.Path, "error", err)
		}
	}
	return res, nil
}

func (b *Builder) slideTitle(ctx context.Context, req GenerationRequest, used []string) string {
	fallback := uniqueTitle(fallbackTitle(req.Topic, req.SlideIndex+1), used)

	raw, err := b.complete(ctx, titlePrompt(req, used, b.opts.HistoryWindow))
	if err != nil {
		b.logger.Warn("title generation failed, using fallback", "slide", req.SlideIndex+1, "error", err)
		return fallback
	}

	title := clipTitle(cleanTitle(raw), b.opts.MaxTitleChars)
	if title == "" || containsFold(used, title) {
		b.logger.Warn("duplicate or empty title, using fallback", "slide", req.SlideIndex+1, "title", title)
		return fallback
	}
	return title
}

func (b *Builder) slideBullets(ctx context.Context, req GenerationRequest, title string) []string {
	fallback := []string{fallbackBullet(title)}

	raw, err := b.complete(ctx, bulletPrompt(req, title, b.opts))
	if err != nil {
		b.logger.Warn("bullet generation failed, using fallback", "slide", req.SlideIndex+1, "error", err)
		return fallback
	}
	bullets := parseBullets(raw, b.opts.MaxBullets, b.opts.MaxWordsPerBullet)
	if len(bullets) == 0 {
		b.logger.Warn("response had no bullet lines, using fallback", "slide", req.SlideIndex+1)
		return fallback
	}
	return bullets
}

// complete tags every failure, including an empty answer, with ErrGeneration.
func (b *Builder) complete(ctx context.Context, p ai.Prompt) (string, error) {
	if b.text == nil {
		return "", fmt.Errorf("%w: no text generator", ErrGeneration)
	}
	out, err := b.text.Complete(ctx, p)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%w: empty response", ErrGeneration)
	}
	return out, nil
}

// slideImages returns the downloaded bytes of up to MaxImagesPerSlide photos.
// Every failure only means fewer pictures.
func (b *Builder) slideImages(ctx context.Context, topic, title string) [][]byte {
	if b.images == nil || b.opts.MaxImagesPerSlide <= 0 {
		return nil
	}
	query := topic
	if b.opts.IncludeTitleInQuery {
		query = strings.TrimSpace(title + " " + topic)
	}

	var out [][]byte
	for n := 0; n < b.opts.MaxImagesPerSlide; n++ {
		ref, err := b.images.Search(ctx, query)
		if err != nil {
			b.logger.Info("no image for slide", "query", query, "error", err)
			continue
		}
		data, err := b.images.Download(ctx, ref.URL)
		if err != nil {
			b.logger.Info("image download failed", "url", ref.URL, "error", err)
			continue
		}
		out = append(out, data)
	}
	return out
}

func fallbackTitle(topic string, slideNumber int) string {
	return strings.TrimSpace(fmt.Sprintf("%s Aspect %d", topic, slideNumber))
}

// uniqueTitle appends " (2)", " (3)", ... until title is not in used.
func uniqueTitle(title string, used []string) string {
	candidate := title
	for n := 2; containsFold(used, candidate); n++ {
		candidate = fmt.Sprintf("%s (%d)", title, n)
	}
	return candidate
}

func fallbackBullet(title string) string {
	return fmt.Sprintf("Details on '%s' will be discussed.", title)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
