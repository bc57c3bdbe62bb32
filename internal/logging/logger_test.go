package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/waabox/imgdeck/internal/domain"
)

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Console: &buf})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	l.Info("hello", "n", 1)
	l.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "hello") || !strings.Contains(out, "n=1") {
		t.Errorf("expected info line, got %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug must be filtered at info level, got %q", out)
	}
}

func TestNew_VerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Console: &buf, Level: "error", Verbose: true})
	if err != nil {
		t.Fatal(err)
	}
	l.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("expected debug output, got %q", buf.String())
	}
}

func TestNew_BadLevel(t *testing.T) {
	if _, err := New(Options{Level: "chatty"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNew_QuietWithFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "imgdeck.log")
	l, err := New(Options{Console: &buf, File: path, Quiet: true})
	if err != nil {
		t.Fatal(err)
	}
	l.Warn("to file only")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	if buf.Len() != 0 {
		t.Errorf("quiet logger wrote to console: %q", buf.String())
	}
	b, _ := os.ReadFile(path)
	if !bytes.Contains(b, []byte("to file only")) {
		t.Errorf("log file content: %s", string(b))
	}
}

func TestReporter_Lines(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Console: &buf, Verbose: true})
	if err != nil {
		t.Fatal(err)
	}
	jobs := []domain.Job{
		{ID: "job-0001", SourcePath: "a.png"},
		{ID: "job-0002", SourcePath: "b.png"},
		{ID: "job-0003", SourcePath: "c.png"},
	}
	r := NewReporter(l.Logger, jobs)

	r.OnStart(domain.ProgressEvent{JobID: "job-0001", Index: 0, Status: domain.StatusRunning})
	r.OnProgress(domain.ProgressEvent{
		JobID: "job-0001", Index: 0, Status: domain.StatusSuccess,
		Outcome:  &domain.Outcome{JobID: "job-0001", Status: domain.StatusSuccess, OutputPath: "out/a.jpg"},
		Counters: domain.Counters{Total: 3, Completed: 1},
	})
	r.OnProgress(domain.ProgressEvent{
		JobID: "job-0002", Index: 1, Status: domain.StatusFailed,
		Outcome:  &domain.Outcome{JobID: "job-0002", Status: domain.StatusFailed, ErrorKind: domain.SourceRead, Err: errors.New("gone")},
		Counters: domain.Counters{Total: 3, Completed: 2},
	})
	r.OnProgress(domain.ProgressEvent{JobID: "job-0003", Index: 2, Status: domain.StatusCancelled, Counters: domain.Counters{Total: 3, Completed: 3}})

	out := buf.String()
	for _, want := range []string{"started", "[1/3] done", "out/a.jpg", "[2/3] failed", "source_read", "gone", "[3/3] cancelled", "c.png"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Console: &buf})
	if err != nil {
		t.Fatal(err)
	}
	res := domain.BatchResult{
		BatchID: "b1",
		Outcomes: []domain.Outcome{
			{JobID: "job-0001", Status: domain.StatusSuccess},
			{JobID: "job-0002", Status: domain.StatusFailed, ErrorKind: domain.SinkWrite, Err: errors.New("disk full")},
		},
	}
	Summary(l.Logger, res, 1500*time.Millisecond)

	out := buf.String()
	for _, want := range []string{"batch finished", "succeeded=1", "failed=1", "disk full", "job-0002"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}
