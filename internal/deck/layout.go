package deck

import (
	"github.com/gnemet/DeckForge/internal/pptx"
)

const (
	defaultFontSize   = 18.0
	reducedFontSize   = 16.0
	overflowThreshold = 6 // paragraphs
	textInset         = 7.2
)

var (
	textLeft   = pptx.Inches(0.5)
	textTop    = pptx.Inches(1.5)
	textWidth  = pptx.Inches(5)
	textHeight = pptx.Inches(4.5)
	imageGap   = pptx.Inches(0.5)
)

// imageRegion is the area right of the text box, down to one inch above the slide bottom.
func imageRegion(slideW, slideH int64) pptx.Rect {
	x := textLeft + textWidth + imageGap
	return pptx.Rect{
		X: x,
		Y: textTop,
		W: slideW - x - pptx.Inches(0.5),
		H: slideH - textTop - pptx.Inches(1),
	}
}

// layoutSlide appends one slide and returns how many pictures were placed.
func (b *Builder) layoutSlide(pres *pptx.Presentation, content SlideContent, pictures [][]byte) int {
	slide := pres.AddSlide(content.Title)

	box := pptx.Rect{X: textLeft, Y: textTop, W: textWidth, H: textHeight}
	tb := slide.AddTextBox(box, true)
	for _, bullet := range content.Bullets {
		tb.AddParagraph(bullet, defaultFontSize)
	}

	// Heuristic only: shrink everything once the paragraph count gets large.
	fontSize := defaultFontSize
	if len(tb.Paragraphs) > overflowThreshold {
		fontSize = reducedFontSize
		tb.SetFontSize(fontSize)
	}

	widthPt := float64(box.W) / pptx.EMUPerPoint
	heightPt := float64(box.H) / pptx.EMUPerPoint
	if est := pptx.EstimateTextHeight(tb.Text(), fontSize, widthPt, textInset); est > heightPt {
		b.logger.Debug("text may overflow", "title", content.Title, "estimated_pt", est, "box_pt", heightPt)
	}

	if len(pictures) == 0 {
		return 0
	}

	region := imageRegion(pres.Width, pres.Height)
	slotH := region.H / int64(len(pictures))
	placed := 0
	for i, data := range pictures {
		slot := pptx.Rect{X: region.X, Y: region.Y + int64(i)*slotH, W: region.W, H: slotH}
		natW, natH, _, err := pptx.ImageSize(data)
		if err != nil {
			b.logger.Info("skipping undecodable image", "title", content.Title, "error", err)
			continue
		}
		if _, err := slide.AddPicture(data, pptx.FitPicture(natW, natH, slot)); err != nil {
			b.logger.Info("skipping image", "title", content.Title, "error", err)
			continue
		}
		placed++
	}
	return placed
}
