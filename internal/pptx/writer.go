package pptx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Presentation is an in-memory deck. Slides are append-only and the whole
// package is serialized once by Save or Write.
type Presentation struct {
	Width  int64
	Height int64
	Title  string
	slides []*Slide
}

// Slide uses the "Title Only" layout: a title placeholder plus free shapes.
type Slide struct {
	Title     string
	TextBoxes []*TextBox
	Pictures  []*Picture
}

// Paragraph is one line of body text. FontSize is in points; zero keeps the default.
type Paragraph struct {
	Text     string
	Level    int
	FontSize float64
}

type TextBox struct {
	Box        Rect
	WordWrap   bool
	Paragraphs []*Paragraph
}

type Picture struct {
	Box    Rect
	Data   []byte
	Format string // jpeg, png, gif
}

func New() *Presentation {
	return &Presentation{Width: DefaultSlideWidth, Height: DefaultSlideHeight}
}

func (p *Presentation) AddSlide(title string) *Slide {
	s := &Slide{Title: title}
	p.slides = append(p.slides, s)
	return s
}

func (p *Presentation) Slides() []*Slide { return p.slides }

func (s *Slide) AddTextBox(box Rect, wordWrap bool) *TextBox {
	tb := &TextBox{Box: box, WordWrap: wordWrap}
	s.TextBoxes = append(s.TextBoxes, tb)
	return tb
}

func (tb *TextBox) AddParagraph(text string, fontSize float64) *Paragraph {
	para := &Paragraph{Text: text, FontSize: fontSize}
	tb.Paragraphs = append(tb.Paragraphs, para)
	return para
}

// SetFontSize applies one size to every paragraph of the box.
func (tb *TextBox) SetFontSize(size float64) {
	for _, para := range tb.Paragraphs {
		para.FontSize = size
	}
}

// Text joins the paragraphs with newlines.
func (tb *TextBox) Text() string {
	lines := make([]string, 0, len(tb.Paragraphs))
	for _, para := range tb.Paragraphs {
		lines = append(lines, para.Text)
	}
	return strings.Join(lines, "\n")
}

// AddPicture embeds image bytes inside box. Only JPEG, PNG and GIF are accepted.
func (s *Slide) AddPicture(data []byte, box Rect) (*Picture, error) {
	_, _, format, err := ImageSize(data)
	if err != nil {
		return nil, err
	}
	switch format {
	case "jpeg", "png", "gif":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, format)
	}
	pic := &Picture{Box: box, Data: data, Format: format}
	s.Pictures = append(s.Pictures, pic)
	return pic, nil
}

// Save writes the package to path.
func (p *Presentation) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := p.Write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// Write serializes the package as a zip stream.
func (p *Presentation) Write(w io.Writer) error {
	zw := zip.NewWriter(w)

	type part struct {
		name string
		body string
	}
	parts := []part{
		{"[Content_Types].xml", p.contentTypesXML()},
		{"_rels/.rels", rootRelsXML},
		{"docProps/core.xml", p.corePropsXML()},
		{"docProps/app.xml", p.appPropsXML()},
		{"ppt/presentation.xml", p.presentationXML()},
		{"ppt/_rels/presentation.xml.rels", p.presentationRelsXML()},
		{"ppt/slideMasters/slideMaster1.xml", slideMasterXML},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", slideMasterRelsXML},
		{"ppt/slideLayouts/slideLayout1.xml", slideLayoutXML},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", slideLayoutRelsXML},
		{"ppt/theme/theme1.xml", themeXML},
	}

	type mediaPart struct {
		name string
		data []byte
	}
	var media []mediaPart
	for i, s := range p.slides {
		num := i + 1
		var names []string
		for _, pic := range s.Pictures {
			name := fmt.Sprintf("image%d.%s", len(media)+1, pic.Format)
			names = append(names, name)
			media = append(media, mediaPart{name: name, data: pic.Data})
		}
		parts = append(parts,
			part{fmt.Sprintf("ppt/slides/slide%d.xml", num), s.xml()},
			part{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", num), slideRelsXML(names)},
		)
	}

	for _, pt := range parts {
		fw, err := zw.Create(pt.name)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(fw, pt.body); err != nil {
			return fmt.Errorf("write %s: %w", pt.name, err)
		}
	}
	for _, m := range media {
		fw, err := zw.Create("ppt/media/" + m.name)
		if err != nil {
			return err
		}
		if _, err := fw.Write(m.data); err != nil {
			return fmt.Errorf("write %s: %w", m.name, err)
		}
	}
	return zw.Close()
}

func (p *Presentation) contentTypesXML() string {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	sb.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	sb.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	sb.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	sb.WriteString(`<Default Extension="jpeg" ContentType="image/jpeg"/>`)
	sb.WriteString(`<Default Extension="png" ContentType="image/png"/>`)
	sb.WriteString(`<Default Extension="gif" ContentType="image/gif"/>`)
	override := func(name, ct string) {
		fmt.Fprintf(&sb, `<Override PartName="%s" ContentType="%s"/>`, name, ct)
	}
	override("/ppt/presentation.xml", ctPresentation)
	override("/ppt/slideMasters/slideMaster1.xml", ctSlideMaster)
	override("/ppt/slideLayouts/slideLayout1.xml", ctSlideLayout)
	override("/ppt/theme/theme1.xml", ctTheme)
	for i := range p.slides {
		override(fmt.Sprintf("/ppt/slides/slide%d.xml", i+1), ctSlide)
	}
	override("/docProps/core.xml", ctCoreProps)
	override("/docProps/app.xml", ctExtProps)
	sb.WriteString(`</Types>`)
	return sb.String()
}

func (p *Presentation) corePropsXML() string {
	now := time.Now().UTC().Format(time.RFC3339)
	return xmlHeader + `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
		`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" ` +
		`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<dc:title>` + escape(p.Title) + `</dc:title><dc:creator>DeckForge</dc:creator>` +
		`<dcterms:created xsi:type="dcterms:W3CDTF">` + now + `</dcterms:created>` +
		`<dcterms:modified xsi:type="dcterms:W3CDTF">` + now + `</dcterms:modified>` +
		`</cp:coreProperties>`
}

func (p *Presentation) appPropsXML() string {
	return xmlHeader + `<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">` +
		`<Application>DeckForge</Application><Slides>` + strconv.Itoa(len(p.slides)) + `</Slides></Properties>`
}

// Relationship ids: rId1 master, rId2 theme, rId3.. slides.
func (p *Presentation) presentationXML() string {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	fmt.Fprintf(&sb, `<p:presentation xmlns:a="%s" xmlns:r="%s" xmlns:p="%s" saveSubsetFonts="1">`, nsA, nsR, nsP)
	sb.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)
	if len(p.slides) > 0 {
		sb.WriteString(`<p:sldIdLst>`)
		for i := range p.slides {
			fmt.Fprintf(&sb, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+3)
		}
		sb.WriteString(`</p:sldIdLst>`)
	}
	fmt.Fprintf(&sb, `<p:sldSz cx="%d" cy="%d"/>`, p.Width, p.Height)
	sb.WriteString(`<p:notesSz cx="6858000" cy="9144000"/>`)
	sb.WriteString(`</p:presentation>`)
	return sb.String()
}

func (p *Presentation) presentationRelsXML() string {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	fmt.Fprintf(&sb, `<Relationships xmlns="%s">`, nsRel)
	fmt.Fprintf(&sb, `<Relationship Id="rId1" Type="%s" Target="slideMasters/slideMaster1.xml"/>`, relSlideMaster)
	fmt.Fprintf(&sb, `<Relationship Id="rId2" Type="%s" Target="theme/theme1.xml"/>`, relTheme)
	for i := range p.slides {
		fmt.Fprintf(&sb, `<Relationship Id="rId%d" Type="%s" Target="slides/slide%d.xml"/>`, i+3, relSlide, i+1)
	}
	sb.WriteString(`</Relationships>`)
	return sb.String()
}

// Relationship ids: rId1 layout, rId2.. pictures in order.
func slideRelsXML(media []string) string {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	fmt.Fprintf(&sb, `<Relationships xmlns="%s">`, nsRel)
	fmt.Fprintf(&sb, `<Relationship Id="rId1" Type="%s" Target="../slideLayouts/slideLayout1.xml"/>`, relSlideLayout)
	for i, name := range media {
		fmt.Fprintf(&sb, `<Relationship Id="rId%d" Type="%s" Target="../media/%s"/>`, i+2, relImage, name)
	}
	sb.WriteString(`</Relationships>`)
	return sb.String()
}

func (s *Slide) xml() string {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	fmt.Fprintf(&sb, `<p:sld xmlns:a="%s" xmlns:r="%s" xmlns:p="%s">`, nsA, nsR, nsP)
	sb.WriteString(`<p:cSld><p:spTree>`)
	sb.WriteString(groupShapeProps)

	id := 2
	sb.WriteString(`<p:sp><p:nvSpPr>`)
	fmt.Fprintf(&sb, `<p:cNvPr id="%d" name="Title %d"/>`, id, id-1)
	sb.WriteString(`<p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr>`)
	sb.WriteString(`<p:spPr/><p:txBody><a:bodyPr/><a:lstStyle/><a:p>`)
	if s.Title != "" {
		sb.WriteString(`<a:r><a:rPr lang="en-US" dirty="0"/><a:t>` + escape(s.Title) + `</a:t></a:r>`)
	} else {
		sb.WriteString(`<a:endParaRPr lang="en-US"/>`)
	}
	sb.WriteString(`</a:p></p:txBody></p:sp>`)

	for _, tb := range s.TextBoxes {
		id++
		sb.WriteString(`<p:sp><p:nvSpPr>`)
		fmt.Fprintf(&sb, `<p:cNvPr id="%d" name="TextBox %d"/>`, id, id-1)
		sb.WriteString(`<p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr><p:spPr>`)
		sb.WriteString(xfrm(tb.Box))
		sb.WriteString(`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/></p:spPr><p:txBody>`)
		if tb.WordWrap {
			sb.WriteString(`<a:bodyPr wrap="square" rtlCol="0"><a:noAutofit/></a:bodyPr>`)
		} else {
			sb.WriteString(`<a:bodyPr wrap="none" rtlCol="0"><a:noAutofit/></a:bodyPr>`)
		}
		sb.WriteString(`<a:lstStyle/>`)
		if len(tb.Paragraphs) == 0 {
			sb.WriteString(`<a:p><a:endParaRPr lang="en-US"/></a:p>`)
		}
		for _, para := range tb.Paragraphs {
			sb.WriteString(`<a:p>`)
			if para.Level > 0 {
				fmt.Fprintf(&sb, `<a:pPr lvl="%d"/>`, para.Level)
			}
			sb.WriteString(`<a:r><a:rPr lang="en-US"`)
			if para.FontSize > 0 {
				fmt.Fprintf(&sb, ` sz="%d"`, int(para.FontSize*100))
			}
			sb.WriteString(` dirty="0"/><a:t>` + escape(para.Text) + `</a:t></a:r></a:p>`)
		}
		sb.WriteString(`</p:txBody></p:sp>`)
	}

	for i, pic := range s.Pictures {
		id++
		sb.WriteString(`<p:pic><p:nvPicPr>`)
		fmt.Fprintf(&sb, `<p:cNvPr id="%d" name="Picture %d"/>`, id, id-1)
		sb.WriteString(`<p:cNvPicPr><a:picLocks noChangeAspect="1"/></p:cNvPicPr><p:nvPr/></p:nvPicPr>`)
		fmt.Fprintf(&sb, `<p:blipFill><a:blip r:embed="rId%d"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`, i+2)
		sb.WriteString(`<p:spPr>` + xfrm(pic.Box) + `<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`)
	}

	sb.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return sb.String()
}

func xfrm(r Rect) string {
	return fmt.Sprintf(`<a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`, r.X, r.Y, r.W, r.H)
}

func escape(s string) string {
	var sb strings.Builder
	xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
