package form

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/russross/blackfriday/v2"

	"github.com/gnemet/DeckForge/internal/deck"
	"github.com/gnemet/DeckForge/internal/i18n"
)

//go:embed templates/*.html
var templateFS embed.FS

// SlideChoices are the values offered by the slide-count selector.
var SlideChoices = []int{1, 2, 3, 4, 5}

// Builder is the part of the deck builder the form drives.
type Builder interface {
	BuildDeck(ctx context.Context, topic string, slideCount int) (deck.Result, error)
}

// StatusReporter tells whether background work is in progress.
type StatusReporter interface {
	IsProcessing() bool
}

type Server struct {
	builder   Builder
	outputDir string
	status    StatusReporter
	tmpl      *template.Template
	logger    *slog.Logger
}

func NewServer(b Builder, outputDir string, status StatusReporter) (*Server, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"T": i18n.T,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	if outputDir == "" {
		outputDir = "."
	}
	return &Server{
		builder:   b,
		outputDir: outputDir,
		status:    status,
		tmpl:      tmpl,
		logger:    slog.Default(),
	}, nil
}

func (s *Server) WithLogger(l *slog.Logger) *Server {
	if l != nil {
		s.logger = l
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/generate", s.handleGenerate)
	mux.HandleFunc("/download", s.handleDownload)
	mux.HandleFunc("/status", s.handleStatus)
	return mux
}

type pageData struct {
	Lang     string
	Langs    []string
	Topic    string
	Slides   int
	Choices  []int
	Success  bool
	Message  string
	Summary  template.HTML
	Download string
}

func (s *Server) newPage(r *http.Request) pageData {
	return pageData{
		Lang:    i18n.GetLang(r),
		Langs:   i18n.GetAvailableLangs(),
		Slides:  SlideChoices[0],
		Choices: SlideChoices,
	}
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.Error("Error executing template", "error", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.render(w, http.StatusOK, s.newPage(r))
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	page := s.newPage(r)
	page.Topic = r.PostFormValue("topic")

	slides, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("slides")))
	if err != nil {
		page.Message = i18n.T(page.Lang, "invalid_slide_count")
		s.render(w, http.StatusBadRequest, page)
		return
	}
	page.Slides = slides

	res, err := s.builder.BuildDeck(r.Context(), page.Topic, slides)
	switch {
	case errors.Is(err, deck.ErrInvalidSlideCount):
		page.Message = i18n.T(page.Lang, "invalid_slide_count")
		s.render(w, http.StatusBadRequest, page)
		return
	case err != nil:
		s.logger.Error("presentation generation failed", "topic", page.Topic, "error", err)
		page.Message = fmt.Sprintf("%s: %v", i18n.T(page.Lang, "generation_failed"), err)
		s.render(w, http.StatusInternalServerError, page)
		return
	}

	page.Success = true
	page.Message = i18n.T(page.Lang, "success_message")
	page.Summary = template.HTML(blackfriday.Run([]byte(Summary(res))))
	page.Download = filepath.Base(res.Path)
	s.render(w, http.StatusOK, page)
}

// Summary renders a finished deck as Markdown.
func Summary(res deck.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### %s\n\n", escapeMarkdown(res.Topic))
	for i, sl := range res.Slides {
		fmt.Fprintf(&sb, "%d. **%s**\n", i+1, escapeMarkdown(sl.Title))
		for _, b := range sl.Bullets {
			fmt.Fprintf(&sb, "    - %s\n", escapeMarkdown(b))
		}
	}
	fmt.Fprintf(&sb, "\n`%s` (%d pictures)\n", filepath.Base(res.Path), res.Pictures)
	return sb.String()
}

var markdownEscaper = strings.NewReplacer(
	"\\", "\\\\", "*", "\\*", "_", "\\_", "`", "\\`", "[", "\\[", "]", "\\]", "<", "&lt;", ">", "&gt;",
)

// escapeMarkdown neutralises inline markup and raw HTML in generated text.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(r.URL.Query().Get("file"))
	if name == "." || name == string(filepath.Separator) || !strings.EqualFold(filepath.Ext(name), ".pptx") {
		http.Error(w, "Invalid file", http.StatusBadRequest)
		return
	}
	path := filepath.Join(s.outputDir, name)
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.presentationml.presentation")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	processing := s.status != nil && s.status.IsProcessing()
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	fmt.Fprintf(w, `{"processing":%t}`, processing)
}
