package pptx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

// SlideData holds extracted text and shape information for a slide.
type SlideData struct {
	SlideNumber int     `json:"slide_number"`
	Title       string  `json:"title"`
	Body        []Shape `json:"body,omitempty"`
	Pictures    []Rect  `json:"pictures,omitempty"`
	Text        string  `json:"text"`
}

// Shape is one non-title text shape.
type Shape struct {
	Type       string          `json:"type"` // title | body | other
	Box        Rect            `json:"box"`
	Paragraphs []TextParagraph `json:"paragraphs"`
}

type TextParagraph struct {
	Text string  `json:"text"`
	Size float64 `json:"size,omitempty"` // pt
}

// Bullets returns the paragraph texts of all body shapes.
func (d SlideData) Bullets() []string {
	var out []string
	for _, sh := range d.Body {
		for _, p := range sh.Paragraphs {
			out = append(out, p.Text)
		}
	}
	return out
}

// ExtractSlideContent extracts titles, text boxes and pictures from all slides in a PPTX.
func ExtractSlideContent(pptxPath string) (map[int]SlideData, error) {
	r, err := zip.OpenReader(pptxPath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	result := make(map[int]SlideData)

	for _, f := range r.File {
		// Proper check for slide files: starts with ppt/slides/slide and ends with .xml
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			// Extract index from filename, e.g., ppt/slides/slide1.xml -> 1
			baseName := filepath.Base(f.Name)
			numStr := strings.TrimSuffix(strings.TrimPrefix(baseName, "slide"), ".xml")
			slideNum, err := strconv.Atoi(numStr)
			if err != nil {
				continue
			}

			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", f.Name, err)
			}
			data, err := parseSlideXML(rc, slideNum)
			rc.Close()
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", f.Name, err)
			}
			result[slideNum] = *data
		}
	}

	return result, nil
}

func parseSlideXML(r io.Reader, index int) (*SlideData, error) {
	dec := xml.NewDecoder(r)

	slide := &SlideData{SlideNumber: index}
	var textBuilder strings.Builder

	var currentShape *Shape
	var currentPara *TextParagraph
	var placeholderType string
	var inPicture bool
	var box Rect

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch el := tok.(type) {

		case xml.StartElement:
			switch el.Name.Local {

			case "ph": // placeholder (title/body)
				for _, a := range el.Attr {
					if a.Name.Local == "type" {
						placeholderType = a.Value
					}
				}

			case "sp": // shape
				currentShape = &Shape{}
				box = Rect{}

			case "pic":
				inPicture = true
				box = Rect{}

			case "off":
				for _, a := range el.Attr {
					v, _ := strconv.ParseInt(a.Value, 10, 64)
					switch a.Name.Local {
					case "x":
						box.X = v
					case "y":
						box.Y = v
					}
				}

			case "ext":
				for _, a := range el.Attr {
					v, _ := strconv.ParseInt(a.Value, 10, 64)
					switch a.Name.Local {
					case "cx":
						box.W = v
					case "cy":
						box.H = v
					}
				}

			case "p": // paragraph
				if currentShape != nil {
					currentPara = &TextParagraph{}
				}

			case "rPr": // run formatting
				if currentPara != nil {
					for _, a := range el.Attr {
						if a.Name.Local == "sz" {
							if sz, err := strconv.Atoi(a.Value); err == nil {
								currentPara.Size = float64(sz) / 100 // 1/100 pt
							}
						}
					}
				}

			case "t": // actual text
				if currentPara != nil {
					var text string
					if err := dec.DecodeElement(&text, &el); err == nil {
						currentPara.Text += text
					}
				}
			}

		case xml.EndElement:
			switch el.Name.Local {

			case "p":
				if currentShape != nil && currentPara != nil && currentPara.Text != "" {
					currentShape.Paragraphs = append(currentShape.Paragraphs, *currentPara)
					textBuilder.WriteString(currentPara.Text)
					textBuilder.WriteString("\n")
				}
				currentPara = nil

			case "sp":
				if currentShape != nil {
					currentShape.Type = normalizePlaceholder(placeholderType)
					currentShape.Box = box
					if currentShape.Type == "title" {
						var parts []string
						for _, p := range currentShape.Paragraphs {
							parts = append(parts, p.Text)
						}
						slide.Title = strings.Join(parts, " ")
					} else {
						slide.Body = append(slide.Body, *currentShape)
					}
				}
				currentShape = nil
				placeholderType = ""

			case "pic":
				if inPicture {
					slide.Pictures = append(slide.Pictures, box)
				}
				inPicture = false
			}
		}
	}

	slide.Text = strings.TrimSpace(textBuilder.String())
	return slide, nil
}

func normalizePlaceholder(ph string) string {
	switch ph {
	case "title", "ctrTitle":
		return "title"
	case "body":
		return "body"
	default:
		return "other"
	}
}
