package observer

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gnemet/DeckForge/internal/config"
)

type fakeBuilder struct {
	calls []Request
	err   error
}

func (f *fakeBuilder) Build(_ context.Context, topic string, n int) (string, error) {
	f.calls = append(f.calls, Request{Topic: topic, Slides: n})
	if f.err != nil {
		return "", f.err
	}
	return "/out/" + topic + ".pptx", nil
}

func newTestObserver(t *testing.T, b Builder) (*Observer, string, string) {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{}
	cfg.Application.Storage.Inbox = filepath.Join(root, "inbox")
	cfg.Application.Storage.Done = filepath.Join(root, "done")
	for _, dir := range []string{cfg.Application.Storage.Inbox, cfg.Application.Storage.Done} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}
	o := NewObserver(cfg, b, nil)
	o.settle = 10 * time.Millisecond
	return o, cfg.Application.Storage.Inbox, cfg.Application.Storage.Done
}

func writeRequest(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readOutcome(t *testing.T, path string) Outcome {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read outcome: %v", err)
	}
	var out Outcome
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	return out
}

func TestProcessFileBuildsAndMoves(t *testing.T) {
	b := &fakeBuilder{}
	o, inbox, done := newTestObserver(t, b)
	path := writeRequest(t, inbox, "ocean.json", `{"topic": "  Ocean ", "slides": 3}`)

	o.processFile(context.Background(), path)

	if len(b.calls) != 1 || b.calls[0] != (Request{Topic: "Ocean", Slides: 3}) {
		t.Fatalf("unexpected builds %#v", b.calls)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("request still in inbox")
	}
	if _, err := os.Stat(filepath.Join(done, "ocean.json")); err != nil {
		t.Fatalf("request not moved: %v", err)
	}
	out := readOutcome(t, filepath.Join(done, "ocean.result"))
	if out.Path != "/out/Ocean.pptx" || out.Error != "" {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if o.IsProcessing() {
		t.Fatal("observer still reports work in progress")
	}
}

func TestProcessFileInvalidRequest(t *testing.T) {
	b := &fakeBuilder{}
	o, inbox, done := newTestObserver(t, b)
	path := writeRequest(t, inbox, "broken.json", `{"topic": `)

	o.processFile(context.Background(), path)

	if len(b.calls) != 0 {
		t.Fatalf("builder called for invalid request")
	}
	out := readOutcome(t, filepath.Join(done, "broken.result"))
	if out.Error == "" {
		t.Fatal("expected an error in the outcome")
	}
}

func TestProcessFileBuildError(t *testing.T) {
	b := &fakeBuilder{err: errors.New("slide count must be a positive integer")}
	o, inbox, done := newTestObserver(t, b)
	path := writeRequest(t, inbox, "zero.json", `{"topic": "Zero", "slides": 0}`)

	o.processFile(context.Background(), path)

	out := readOutcome(t, filepath.Join(done, "zero.result"))
	if out.Topic != "Zero" || out.Error != b.err.Error() {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestReadRequestRequiresTopic(t *testing.T) {
	path := writeRequest(t, t.TempDir(), "blank.json", `{"topic": "   ", "slides": 2}`)
	if _, err := ReadRequest(path); !errors.Is(err, errEmptyTopic) {
		t.Fatalf("expected errEmptyTopic, got %v", err)
	}
}

func TestStartProcessesExistingFiles(t *testing.T) {
	b := &fakeBuilder{}
	o, inbox, done := newTestObserver(t, b)
	writeRequest(t, inbox, "early.json", `{"topic": "Early", "slides": 1}`)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- o.Start(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(filepath.Join(done, "early.result")); err == nil {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("existing request was not processed")
		}
		time.Sleep(20 * time.Millisecond)
	}
	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("Start: %v", err)
	}
}
