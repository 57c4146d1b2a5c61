package pptx

import (
	"archive/zip"
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"path/filepath"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestSaveAndExtractSlideContent(t *testing.T) {
	pres := New()
	pres.Title = "Oceans & Seas"

	s1 := pres.AddSlide("Tides <and> currents")
	tb := s1.AddTextBox(Rect{X: Inches(0.5), Y: Inches(1.5), W: Inches(5), H: Inches(4.5)}, true)
	tb.AddParagraph("Moon pulls water", 18)
	tb.AddParagraph("Two highs a day", 18)
	pic, err := s1.AddPicture(pngBytes(t, 40, 20), Rect{X: Inches(6), Y: Inches(1.5), W: Inches(3.5), H: Inches(1.75)})
	if err != nil {
		t.Fatalf("add picture: %v", err)
	}
	if pic.Format != "png" {
		t.Fatalf("unexpected format %q", pic.Format)
	}

	s2 := pres.AddSlide("Empty slide")
	s2.AddTextBox(Rect{W: Inches(1), H: Inches(1)}, true)

	path := filepath.Join(t.TempDir(), "deck.pptx")
	if err := pres.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	slides, err := ExtractSlideContent(path)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(slides) != 2 {
		t.Fatalf("expected 2 slides, got %d", len(slides))
	}

	first := slides[1]
	if first.Title != "Tides <and> currents" {
		t.Fatalf("unexpected title %q", first.Title)
	}
	bullets := first.Bullets()
	if len(bullets) != 2 || bullets[0] != "Moon pulls water" || bullets[1] != "Two highs a day" {
		t.Fatalf("unexpected bullets %#v", bullets)
	}
	if size := first.Body[0].Paragraphs[0].Size; size != 18 {
		t.Fatalf("expected 18pt, got %v", size)
	}
	if first.Body[0].Box.X != Inches(0.5) || first.Body[0].Box.W != Inches(5) {
		t.Fatalf("unexpected text box %v", first.Body[0].Box)
	}
	if len(first.Pictures) != 1 || first.Pictures[0].X != Inches(6) {
		t.Fatalf("unexpected pictures %#v", first.Pictures)
	}

	second := slides[2]
	if second.Title != "Empty slide" || len(second.Bullets()) != 0 || len(second.Pictures) != 0 {
		t.Fatalf("unexpected second slide %#v", second)
	}
}

func TestWriteProducesPackageParts(t *testing.T) {
	pres := New()
	s := pres.AddSlide("One")
	if _, err := s.AddPicture(pngBytes(t, 2, 2), Rect{W: 10, H: 10}); err != nil {
		t.Fatalf("add picture: %v", err)
	}

	var buf bytes.Buffer
	if err := pres.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}

	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"ppt/presentation.xml",
		"ppt/slideMasters/slideMaster1.xml",
		"ppt/slideLayouts/slideLayout1.xml",
		"ppt/theme/theme1.xml",
		"ppt/slides/slide1.xml",
		"ppt/slides/_rels/slide1.xml.rels",
		"ppt/media/image1.png",
	} {
		if !names[want] {
			t.Errorf("missing part %s", want)
		}
	}
	if zr.File[0].Name != "[Content_Types].xml" {
		t.Errorf("content types should be the first part, got %s", zr.File[0].Name)
	}
}

func TestAddPictureRejectsUnknownData(t *testing.T) {
	s := New().AddSlide("x")
	if _, err := s.AddPicture([]byte("not an image"), Rect{}); !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("expected ErrUnsupportedImage, got %v", err)
	}
	if len(s.Pictures) != 0 {
		t.Fatalf("picture should not be added")
	}
}

func TestFitPicture(t *testing.T) {
	region := Rect{X: 100, Y: 200, W: 4000, H: 3000}

	// Landscape: width-bound.
	got := FitPicture(400, 200, region)
	if got != (Rect{X: 100, Y: 200, W: 4000, H: 2000}) {
		t.Fatalf("landscape fit = %v", got)
	}

	// Portrait: height clamped, width scaled down.
	got = FitPicture(100, 300, region)
	if got != (Rect{X: 100, Y: 200, W: 1000, H: 3000}) {
		t.Fatalf("portrait fit = %v", got)
	}

	if got := FitPicture(0, 10, region); got != region {
		t.Fatalf("unknown size should fill region, got %v", got)
	}
}

func TestEstimateTextHeight(t *testing.T) {
	// width 100pt, margin 0, 10pt font -> 20 chars per line.
	text := "aaaaaaaaaaaaaaaaaaaaaaaaa\nshort"
	got := EstimateTextHeight(text, 10, 100, 0)
	want := 3 * 10 * 1.2
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("EstimateTextHeight() = %v, want %v", got, want)
	}

	// Margins wider than the box still count one char per line.
	if got := EstimateTextHeight("abc", 10, 10, 50); math.Abs(got-36) > 1e-9 {
		t.Fatalf("narrow box estimate = %v", got)
	}
	if got := EstimateTextHeight("abc", 0, 100, 0); got != 0 {
		t.Fatalf("zero font size should estimate 0, got %v", got)
	}
}

func TestUnits(t *testing.T) {
	if Inches(1) != EMUPerInch || Pt(18) != 18*EMUPerPoint {
		t.Fatalf("unexpected unit conversion")
	}
	if DefaultSlideHeight != Inches(7.5) {
		t.Fatalf("unexpected slide height")
	}
}
