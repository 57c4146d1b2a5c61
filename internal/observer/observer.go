package observer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gnemet/DeckForge/internal/config"
)

// Builder is the part of the deck builder the observer drives.
type Builder interface {
	Build(ctx context.Context, topic string, slideCount int) (string, error)
}

// Request is the content of one inbox file.
type Request struct {
	Topic  string `json:"topic"`
	Slides int    `json:"slides"`
}

// Outcome is written next to the moved request in the done directory.
type Outcome struct {
	Request
	Path        string    `json:"path,omitempty"`
	Error       string    `json:"error,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

var errEmptyTopic = errors.New("request has no topic")

type Observer struct {
	inbox       string
	done        string
	builder     Builder
	settle      time.Duration
	activeTasks int
	mu          sync.Mutex
	LogChan     chan string
}

func NewObserver(cfg *config.Config, b Builder, logChan chan string) *Observer {
	return &Observer{
		inbox:   cfg.Application.Storage.Inbox,
		done:    cfg.Application.Storage.Done,
		builder: b,
		settle:  2 * time.Second,
		LogChan: logChan,
	}
}

func (o *Observer) log(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	slog.Info(msg, "component", "observer")
	if o.LogChan != nil {
		select {
		case o.LogChan <- msg:
		default:
			// drop when nobody is listening
		}
	}
}

func (o *Observer) incrementTask() {
	o.mu.Lock()
	o.activeTasks++
	o.mu.Unlock()
}

func (o *Observer) decrementTask() {
	o.mu.Lock()
	o.activeTasks--
	o.mu.Unlock()
}

// Start watches the inbox until ctx is cancelled. Files already present are
// processed first.
func (o *Observer) Start(ctx context.Context) error {
	if o.inbox == "" {
		return fmt.Errorf("inbox directory not configured")
	}
	if err := os.MkdirAll(o.inbox, 0755); err != nil {
		return fmt.Errorf("failed to create inbox directory: %w", err)
	}
	if o.done != "" {
		if err := os.MkdirAll(o.done, 0755); err != nil {
			return fmt.Errorf("failed to create done directory: %w", err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(o.inbox); err != nil {
		return err
	}

	o.log("Inbox observer started, watching: %s", o.inbox)

	o.scanDirectory(ctx, o.inbox)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) && isRequestFile(event.Name) {
				o.log("Detected request: %s", event.Name)

				// let the writer finish
				select {
				case <-time.After(o.settle):
				case <-ctx.Done():
					return nil
				}
				o.processFile(ctx, event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			o.log("Watcher error: %v", err)

		case <-ctx.Done():
			return nil
		}
	}
}

func isRequestFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".json")
}

func (o *Observer) scanDirectory(ctx context.Context, dir string) {
	files, err := os.ReadDir(dir)
	if err != nil {
		o.log("Failed to scan directory: %v", err)
		return
	}

	for _, f := range files {
		if !f.IsDir() && isRequestFile(f.Name()) {
			o.processFile(ctx, filepath.Join(dir, f.Name()))
		}
	}
}

// ReadRequest parses and validates one request file.
func ReadRequest(path string) (Request, error) {
	var req Request
	data, err := os.ReadFile(path)
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("invalid request JSON: %w", err)
	}
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return req, errEmptyTopic
	}
	return req, nil
}

func (o *Observer) processFile(ctx context.Context, path string) {
	// a Write event may arrive for a file an earlier event already moved
	if _, err := os.Stat(path); err != nil {
		return
	}

	o.incrementTask()
	defer o.decrementTask()

	filename := filepath.Base(path)
	o.log("Processing request: %s", filename)

	outcome := Outcome{ProcessedAt: time.Now()}
	req, err := ReadRequest(path)
	outcome.Request = req
	if err != nil {
		o.log("Skipping %s: %v", filename, err)
		outcome.Error = err.Error()
	} else {
		deckPath, err := o.builder.Build(ctx, req.Topic, req.Slides)
		if err != nil {
			o.log("Failed to build deck for %s: %v", filename, err)
			outcome.Error = err.Error()
		} else {
			o.log("Successfully generated %s from %s", deckPath, filename)
			outcome.Path = deckPath
		}
	}

	o.finalizeFile(path, filename, outcome)
}

// finalizeFile moves the request into the done directory and writes its outcome beside it.
func (o *Observer) finalizeFile(path, filename string, outcome Outcome) {
	if o.done == "" {
		if err := os.Remove(path); err != nil {
			o.log("Failed to remove %s: %v", filename, err)
		}
		return
	}

	newPath := filepath.Join(o.done, filename)
	if err := os.Rename(path, newPath); err != nil {
		o.log("Failed to move %s to done folder: %v", filename, err)
		return
	}
	o.log("Moved %s to %s", filename, newPath)

	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return
	}
	resultPath := strings.TrimSuffix(newPath, filepath.Ext(newPath)) + ".result"
	if err := os.WriteFile(resultPath, data, 0644); err != nil {
		o.log("Failed to write outcome for %s: %v", filename, err)
	}
}

func (o *Observer) IsProcessing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.activeTasks > 0
}
