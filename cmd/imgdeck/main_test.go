package main

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/waabox/imgdeck/internal/codec"
	"github.com/waabox/imgdeck/internal/config"
	"github.com/waabox/imgdeck/internal/domain"
	"github.com/waabox/imgdeck/internal/logging"
)

func TestParseFlags_OnlySetFlagsOverride(t *testing.T) {
	f, err := parseFlags([]string{"-o", "out", "-quality", "70", "-watermark", "(c) me", "-j", "3", "a.png", "dir"}, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.inputs) != 2 || f.inputs[0] != "a.png" {
		t.Fatalf("unexpected inputs %v", f.inputs)
	}

	cfg := config.Defaults()
	cfg.Watermark.Image = "logo.png"
	applyOverrides(&cfg, f)

	if cfg.Output.Dir != "out" || cfg.Output.Quality != 70 || cfg.Concurrency != 3 {
		t.Errorf("expected flag values, got %+v", cfg.Output)
	}
	if cfg.Watermark.Text != "(c) me" || cfg.Watermark.Image != "" {
		t.Errorf("text flag must replace the image watermark, got %+v", cfg.Watermark)
	}
	if cfg.Output.Format != "jpeg" || cfg.Resize.Width != 800 {
		t.Errorf("unset flags must keep config values, got %+v %+v", cfg.Output, cfg.Resize)
	}
}

func TestParseFlags_Unknown(t *testing.T) {
	if _, err := parseFlags([]string{"-blur", "3"}, io.Discard); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestInputDirs(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.png")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	got := inputDirs([]string{dir, file, filepath.Join(dir, "missing.jpg")})
	if len(got) != 1 || got[0] != dir {
		t.Errorf("expected [%s], got %v", dir, got)
	}
}

func TestRun_Version(t *testing.T) {
	if code := run([]string{"-version"}); code != 0 {
		t.Errorf("expected exit 0, got %d", code)
	}
}

func TestRun_ProcessesDirectory(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	in := filepath.Join(home, "in")
	out := filepath.Join(home, "out")
	if err := os.MkdirAll(in, 0o755); err != nil {
		t.Fatal(err)
	}
	writeTestPNG(t, filepath.Join(in, "one.png"))
	writeTestPNG(t, filepath.Join(in, "two.png"))

	cfgPath := filepath.Join(home, "config.toml")
	code := run([]string{"-config", cfgPath, "-no-tui", "-o", out, "-ops", "resize,convert", "-width", "4", "-height", "4", "-format", "png", "-save", in})
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	for _, name := range []string{"one.png", "two.png"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("expected output %s: %v", name, err)
		}
	}

	saved, err := config.LoadFrom(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Output.Format != "png" || len(saved.UI.RecentFolders) != 1 {
		t.Errorf("expected saved settings, got %+v %v", saved.Output, saved.UI.RecentFolders)
	}
}

func TestRun_FailedJobExitsNonZero(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	code := run([]string{"-config", filepath.Join(home, "c.toml"), "-no-tui", "-o", filepath.Join(home, "out"), filepath.Join(home, "missing.png")})
	if code != 1 {
		t.Errorf("expected exit 1, got %d", code)
	}
}

func TestHotFolder_ResavedSourceGetsItsOwnOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	if err := os.MkdirAll(in, 0o755); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(in, "a.png")
	writeTestPNG(t, src)

	cfg := config.Defaults()
	cfg.Output.Dir = out
	cfg.Concurrency = 1
	logger, err := logging.New(logging.Options{Console: io.Discard})
	if err != nil {
		t.Fatal(err)
	}
	defer logger.Close()

	ts := []domain.Transform{domain.Resize{Mode: domain.ResizeFit, Width: 4, Height: 4}}
	hf := newHotFolder(codec.New(), cfg, ts, logger)

	hf.process(context.Background(), []string{src})
	writeTestPNG(t, src)
	hf.process(context.Background(), []string{src})

	if hf.total.Succeeded != 2 || hf.total.Failed != 0 {
		t.Fatalf("expected both batches to succeed, got %+v", hf.total)
	}
	for _, name := range []string{"a.png", "a-1.png"} {
		path := filepath.Join(out, name)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected output %s: %v", name, err)
		}
		if !hf.produced(path) {
			t.Errorf("expected %s to be ignored by the watcher", name)
		}
	}
	if hf.produced(src) {
		t.Error("source must not be treated as an output")
	}
}

func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(1, 1, color.NRGBA{R: 200, A: 255})
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}
