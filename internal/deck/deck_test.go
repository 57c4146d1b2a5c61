package deck

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gnemet/DeckForge/internal/ai"
	"github.com/gnemet/DeckForge/internal/images"
	"github.com/gnemet/DeckForge/internal/pptx"
)

// fakeText answers title prompts with titles() and bullet prompts with bullets().
type fakeText struct {
	titles  func(call int) (string, error)
	bullets func(call int) (string, error)
	prompts []ai.Prompt
	nTitle  int
	nBullet int
}

func (f *fakeText) Complete(_ context.Context, p ai.Prompt) (string, error) {
	f.prompts = append(f.prompts, p)
	last := p.Messages[len(p.Messages)-1].Content
	if strings.Contains(last, "bullet points") {
		f.nBullet++
		return f.bullets(f.nBullet)
	}
	f.nTitle++
	return f.titles(f.nTitle)
}

func numberedTitles(call int) (string, error) {
	return fmt.Sprintf("Slide %d: Chapter %d", call, call), nil
}

func threeBullets(int) (string, error) {
	return "Here you go:\n- first point\n- second point\n- third point\nHope this helps", nil
}

type fakeImages struct {
	searchErr error
	data      []byte
	searches  []string
}

func (f *fakeImages) Search(_ context.Context, query string) (images.Reference, error) {
	f.searches = append(f.searches, query)
	if f.searchErr != nil {
		return images.Reference{}, f.searchErr
	}
	return images.Reference{URL: "https://img.example/" + query}, nil
}

func (f *fakeImages) Download(context.Context, string) ([]byte, error) {
	return f.data, nil
}

type recorder struct{ got []Result }

func (r *recorder) RecordDeck(_ context.Context, res Result) error {
	r.got = append(r.got, res)
	return nil
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newTestBuilder(t *testing.T, text TextGenerator, imgs ImageSource) *Builder {
	t.Helper()
	opts := DefaultOptions()
	opts.OutputDir = t.TempDir()
	b := NewBuilder(text, imgs, opts).WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	b.newID = func() string { return "00000000-0000-4000-8000-000000000000" }
	return b
}

func readDeck(t *testing.T, path string) map[int]pptx.SlideData {
	t.Helper()
	slides, err := pptx.ExtractSlideContent(path)
	if err != nil {
		t.Fatalf("extract %s: %v", path, err)
	}
	return slides
}

func TestBuildProducesRequestedSlideCount(t *testing.T) {
	for n := 1; n <= 5; n++ {
		t.Run(fmt.Sprintf("%d slides", n), func(t *testing.T) {
			text := &fakeText{titles: numberedTitles, bullets: threeBullets}
			imgs := &fakeImages{data: testPNG(t, 300, 200)}
			b := newTestBuilder(t, text, imgs)

			path, err := b.Build(context.Background(), "Deep Sea", n)
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if filepath.Base(path) != "DeepSea.pptx" {
				t.Fatalf("unexpected file name %s", path)
			}

			slides := readDeck(t, path)
			if len(slides) != n {
				t.Fatalf("expected %d slides, got %d", n, len(slides))
			}
			for i := 1; i <= n; i++ {
				s := slides[i]
				if want := fmt.Sprintf("Chapter %d", i); s.Title != want {
					t.Fatalf("slide %d title %q, want %q", i, s.Title, want)
				}
				if got := s.Bullets(); len(got) != 3 || got[0] != "first point" {
					t.Fatalf("slide %d bullets %#v", i, got)
				}
				if len(s.Pictures) != 1 {
					t.Fatalf("slide %d expected one picture, got %d", i, len(s.Pictures))
				}
			}
		})
	}
}

func TestBuildEnforcesBulletLimits(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("word ", 35))
	var sb strings.Builder
	for i := 0; i < 9; i++ {
		sb.WriteString("- " + long + "\n")
	}
	text := &fakeText{
		titles:  numberedTitles,
		bullets: func(int) (string, error) { return sb.String(), nil },
	}
	b := newTestBuilder(t, text, &fakeImages{searchErr: images.ErrNoResults})

	res, err := b.BuildDeck(context.Background(), "Limits", 3)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, s := range readDeck(t, res.Path) {
		bullets := s.Bullets()
		if len(bullets) > b.opts.MaxBullets {
			t.Fatalf("slide %d has %d bullets, max %d", s.SlideNumber, len(bullets), b.opts.MaxBullets)
		}
		for _, bullet := range bullets {
			if n := len(strings.Fields(bullet)); n > b.opts.MaxWordsPerBullet {
				t.Fatalf("bullet has %d words, max %d", n, b.opts.MaxWordsPerBullet)
			}
		}
	}
}

func TestBuildReducesFontForManyParagraphs(t *testing.T) {
	var sb strings.Builder
	for i := 1; i <= 7; i++ {
		fmt.Fprintf(&sb, "- point %d\n", i)
	}
	text := &fakeText{
		titles:  numberedTitles,
		bullets: func(int) (string, error) { return sb.String(), nil },
	}
	b := newTestBuilder(t, text, nil)
	b.opts.MaxBullets = 8

	path, err := b.Build(context.Background(), "Fonts", 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	body := readDeck(t, path)[1].Body[0]
	if len(body.Paragraphs) != 7 {
		t.Fatalf("expected 7 paragraphs, got %d", len(body.Paragraphs))
	}
	for _, p := range body.Paragraphs {
		if p.Size != reducedFontSize {
			t.Fatalf("expected %vpt, got %vpt", reducedFontSize, p.Size)
		}
	}
}

func TestBuildWithFailingGeneratorUsesFallbacks(t *testing.T) {
	boom := errors.New("service unavailable")
	text := &fakeText{
		titles:  func(int) (string, error) { return "", boom },
		bullets: func(int) (string, error) { return "", boom },
	}
	b := newTestBuilder(t, text, &fakeImages{searchErr: images.ErrNoResults})

	path, err := b.Build(context.Background(), "Volcanoes", 4)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	slides := readDeck(t, path)
	if len(slides) != 4 {
		t.Fatalf("expected 4 slides, got %d", len(slides))
	}
	for i := 1; i <= 4; i++ {
		want := fmt.Sprintf("Volcanoes Aspect %d", i)
		if slides[i].Title != want {
			t.Fatalf("slide %d title %q, want %q", i, slides[i].Title, want)
		}
		bullets := slides[i].Bullets()
		if len(bullets) != 1 || !strings.Contains(bullets[0], want) {
			t.Fatalf("slide %d fallback bullet %#v", i, bullets)
		}
	}
}

func TestBuildWithoutImageResults(t *testing.T) {
	text := &fakeText{titles: numberedTitles, bullets: threeBullets}
	imgs := &fakeImages{searchErr: fmt.Errorf("%w for query", images.ErrNoResults)}
	b := newTestBuilder(t, text, imgs)

	res, err := b.BuildDeck(context.Background(), "Empty Gallery", 3)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.Pictures != 0 {
		t.Fatalf("expected no pictures, got %d", res.Pictures)
	}
	slides := readDeck(t, res.Path)
	if len(slides) != 3 {
		t.Fatalf("expected 3 slides, got %d", len(slides))
	}
	for _, s := range slides {
		if len(s.Pictures) != 0 {
			t.Fatalf("slide %d has a picture", s.SlideNumber)
		}
	}
	if len(imgs.searches) != 3 {
		t.Fatalf("expected one search per slide, got %d", len(imgs.searches))
	}
}

func TestBuildReplacesDuplicateTitles(t *testing.T) {
	text := &fakeText{
		titles:  func(int) (string, error) { return "The Same Title", nil },
		bullets: threeBullets,
	}
	b := newTestBuilder(t, text, nil)

	res, err := b.BuildDeck(context.Background(), "Echo", 2)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.Slides[0].Title != "The Same Title" {
		t.Fatalf("first title %q", res.Slides[0].Title)
	}
	if res.Slides[1].Title == res.Slides[0].Title {
		t.Fatalf("duplicate title kept")
	}
	if res.Slides[1].Title != "Echo Aspect 2" {
		t.Fatalf("expected fallback title, got %q", res.Slides[1].Title)
	}
}

func TestBuildFallbackTitleStaysUnique(t *testing.T) {
	text := &fakeText{
		titles:  func(int) (string, error) { return "Echo Aspect 2", nil },
		bullets: threeBullets,
	}
	b := newTestBuilder(t, text, nil)

	res, err := b.BuildDeck(context.Background(), "Echo", 3)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := []string{"Echo Aspect 2", "Echo Aspect 2 (2)", "Echo Aspect 3"}
	for i, s := range res.Slides {
		if s.Title != want[i] {
			t.Fatalf("slide %d title %q, want %q", i+1, s.Title, want[i])
		}
	}
}

func TestBuildFailedTitleAfterMatchingTitle(t *testing.T) {
	text := &fakeText{
		titles: func(call int) (string, error) {
			if call == 1 {
				return "Echo Aspect 2", nil
			}
			return "", errors.New("timeout")
		},
		bullets: threeBullets,
	}
	b := newTestBuilder(t, text, nil)

	res, err := b.BuildDeck(context.Background(), "Echo", 2)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.Slides[1].Title == res.Slides[0].Title {
		t.Fatalf("duplicate title %q", res.Slides[1].Title)
	}
}

func TestBuildRejectsInvalidSlideCount(t *testing.T) {
	b := newTestBuilder(t, &fakeText{}, nil)
	for _, n := range []int{0, -3} {
		if _, err := b.Build(context.Background(), "x", n); !errors.Is(err, ErrInvalidSlideCount) {
			t.Fatalf("count %d: expected ErrInvalidSlideCount, got %v", n, err)
		}
	}
}

func TestBuildPunctuationTopicGetsGeneratedName(t *testing.T) {
	text := &fakeText{titles: numberedTitles, bullets: threeBullets}
	b := newTestBuilder(t, text, nil)

	path, err := b.Build(context.Background(), "?!...", 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if filepath.Base(path) != "00000000-0000-4000-8000-000000000000.pptx" {
		t.Fatalf("unexpected file name %s", path)
	}
}

func TestBuildPromptsCarryHistory(t *testing.T) {
	text := &fakeText{titles: numberedTitles, bullets: threeBullets}
	b := newTestBuilder(t, text, nil)

	if _, err := b.Build(context.Background(), "Rivers", 5); err != nil {
		t.Fatalf("build: %v", err)
	}

	// Prompts alternate title, bullets per slide; the fifth title prompt is index 8.
	p := text.prompts[8]
	user := p.Messages[len(p.Messages)-1].Content
	for _, want := range []string{"Chapter 2", "Chapter 3", "Chapter 4", "without numbering"} {
		if !strings.Contains(user, want) {
			t.Fatalf("title prompt missing %q: %s", want, user)
		}
	}
	if strings.Contains(user, "Chapter 1") {
		t.Fatalf("title prompt should only list the last %d titles: %s", b.opts.HistoryWindow, user)
	}
	// Three prior slides replayed as user/assistant pairs plus the request.
	if len(p.Messages) != 7 {
		t.Fatalf("expected 7 messages, got %d", len(p.Messages))
	}
	if p.Messages[1].Role != ai.RoleAssistant || !strings.HasPrefix(p.Messages[1].Content, "Chapter 2\n") {
		t.Fatalf("unexpected history message %#v", p.Messages[1])
	}

	bullets := text.prompts[1].Messages[0].Content
	if !strings.Contains(bullets, "4 bullet points") || !strings.Contains(bullets, "20 words") || !strings.Contains(bullets, "'Chapter 1'") {
		t.Fatalf("unexpected bullet prompt: %s", bullets)
	}
}

func TestBuildImageQueryAndRecorder(t *testing.T) {
	text := &fakeText{titles: numberedTitles, bullets: threeBullets}
	imgs := &fakeImages{data: testPNG(t, 100, 400)}
	rec := &recorder{}
	b := newTestBuilder(t, text, imgs).WithRecorder(rec)
	b.opts.IncludeTitleInQuery = true

	res, err := b.BuildDeck(context.Background(), "Glaciers", 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(imgs.searches) != 1 || imgs.searches[0] != "Chapter 1 Glaciers" {
		t.Fatalf("unexpected searches %#v", imgs.searches)
	}
	if len(rec.got) != 1 || rec.got[0].Path != res.Path || len(rec.got[0].Slides) != 1 {
		t.Fatalf("unexpected recorded decks %#v", rec.got)
	}

	// A tall picture is clamped to the region height.
	pic := readDeck(t, res.Path)[1].Pictures[0]
	region := imageRegion(pptx.DefaultSlideWidth, pptx.DefaultSlideHeight)
	if pic.H != region.H || pic.W >= region.W || pic.X != region.X {
		t.Fatalf("picture %v not fitted into %v", pic, region)
	}
}
