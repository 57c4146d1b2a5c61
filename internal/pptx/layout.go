package pptx

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strings"
	"unicode/utf8"
)

// EMU per unit (OOXML drawing coordinates).
const (
	EMUPerInch  = 914400
	EMUPerPoint = 12700
)

// Default 4:3 slide size.
const (
	DefaultSlideWidth  = 10 * EMUPerInch
	DefaultSlideHeight = 7.5 * EMUPerInch
)

// ErrUnsupportedImage is returned for image data that is not JPEG, PNG or GIF.
var ErrUnsupportedImage = errors.New("unsupported image format")

func Inches(v float64) int64 { return int64(math.Round(v * EMUPerInch)) }

func Pt(v float64) int64 { return int64(math.Round(v * EMUPerPoint)) }

// Rect is a bounding box in EMU.
type Rect struct {
	X, Y, W, H int64
}

func (r Rect) String() string {
	return fmt.Sprintf("(%.2fin,%.2fin %.2fx%.2fin)",
		float64(r.X)/EMUPerInch, float64(r.Y)/EMUPerInch, float64(r.W)/EMUPerInch, float64(r.H)/EMUPerInch)
}

// FitPicture scales an image of natural size natW x natH to the region width,
// then clamps the height (and proportionally the width) so it never leaves the region.
// The result is anchored at the region's top-left corner.
func FitPicture(natW, natH int, region Rect) Rect {
	if natW <= 0 || natH <= 0 {
		return region
	}
	w := region.W
	h := int64(math.Round(float64(w) * float64(natH) / float64(natW)))
	if h > region.H {
		h = region.H
		w = int64(math.Round(float64(h) * float64(natW) / float64(natH)))
	}
	return Rect{X: region.X, Y: region.Y, W: w, H: h}
}

// ImageSize decodes only the header of the image and returns its pixel size and format.
func ImageSize(data []byte) (width, height int, format string, err error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	return cfg.Width, cfg.Height, format, nil
}

// EstimateTextHeight returns a rough vertical size, in points, for text set at
// fontSize points inside a box of the given width (all values in points). Average character width is
// taken as half the font size and line height as 1.2 times the font size.
// It does not use real font metrics.
func EstimateTextHeight(text string, fontSize, width, margin float64) float64 {
	avgCharWidth := fontSize / 2
	if avgCharWidth <= 0 {
		return 0
	}
	maxChars := int((width - 2*margin) / avgCharWidth)
	if maxChars < 1 {
		maxChars = 1
	}

	lines := 0
	for _, paragraph := range strings.Split(text, "\n") {
		n := utf8.RuneCountInString(paragraph)
		lines += (n + maxChars - 1) / maxChars
	}
	return float64(lines) * fontSize * 1.2
}
