package manifest_test

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/waabox/imgdeck/internal/config"
	"github.com/waabox/imgdeck/internal/domain"
	"github.com/waabox/imgdeck/internal/manifest"
)

const sample = `
output_dir: processed
concurrency: 2
jobs:
  - source: photos/beach.jpg
    transforms:
      - resize: {mode: fit, width: 100, height: 80}
      - watermark: {text: "(c) me", opacity: 0.25}
      - convert: {format: png}
  - source: /abs/logo.png
    output_dir: icons
    transforms:
      - watermark: {image: marks/logo.png, position: top-left, margin: 0}
      - rename: {pattern: "icon-{index:2}"}
`

func TestLoad_BuildsJobs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := manifest.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Concurrency != 2 || len(m.Jobs) != 2 {
		t.Fatalf("unexpected manifest %+v", m)
	}

	var loaded []string
	loader := func(p string) (image.Image, error) {
		loaded = append(loaded, p)
		return image.NewNRGBA(image.Rect(0, 0, 3, 3)), nil
	}
	jobs, err := m.Build(config.Defaults(), loader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := jobs[0]
	if first.SourcePath != filepath.Join(dir, "photos", "beach.jpg") {
		t.Errorf("expected source relative to manifest, got %s", first.SourcePath)
	}
	if first.OutputPath != filepath.Join(dir, "processed", "beach.png") {
		t.Errorf("unexpected output %s", first.OutputPath)
	}
	wm := first.Transforms[1].(domain.Watermark)
	if wm.Opacity != 0.25 || wm.Margin != 10 || wm.Position != domain.BottomRight {
		t.Errorf("expected explicit opacity with default margin and position, got %+v", wm)
	}

	second := jobs[1]
	if second.SourcePath != "/abs/logo.png" {
		t.Errorf("absolute source must be kept, got %s", second.SourcePath)
	}
	if second.OutputPath != filepath.Join(dir, "icons", "icon-02.png") {
		t.Errorf("unexpected output %s", second.OutputPath)
	}
	overlay := second.Transforms[0].(domain.Watermark)
	if overlay.Overlay == nil || overlay.Margin != 0 || overlay.Position != domain.TopLeft {
		t.Errorf("unexpected overlay watermark %+v", overlay)
	}
	if len(loaded) != 1 || loaded[0] != filepath.Join(dir, "marks", "logo.png") {
		t.Errorf("expected one overlay load, got %v", loaded)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":       "jobs: []",
		"no source":   "jobs:\n  - transforms: []\n",
		"two in step": "jobs:\n  - source: a.png\n    transforms:\n      - {resize: {mode: fit, width: 1, height: 1}, rename: {pattern: x}}\n",
		"empty step":  "jobs:\n  - source: a.png\n    transforms:\n      - {}\n",
		"unknown key": "jobs:\n  - source: a.png\n    blur: 3\n",
		"negative":    "concurrency: -1\njobs:\n  - source: a.png\n",
		"not yaml":    "jobs: [",
	}
	for name, doc := range tests {
		if _, err := manifest.Parse([]byte(doc), ""); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestBuild_InvalidParameters(t *testing.T) {
	m, err := manifest.Parse([]byte("jobs:\n  - source: a.png\n    transforms:\n      - convert: {format: psd}\n"), "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Build(config.Defaults(), nil); err == nil || !strings.Contains(err.Error(), "job 0 step 0") {
		t.Errorf("expected step error, got %v", err)
	}
}

func TestBuild_OverlayLoadFailure(t *testing.T) {
	m, err := manifest.Parse([]byte("jobs:\n  - source: a.png\n    transforms:\n      - watermark: {image: missing.png}\n"), "")
	if err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	_, err = m.Build(config.Defaults(), func(string) (image.Image, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected loader error, got %v", err)
	}
}

func TestBuild_DuplicateNamesAreSuffixed(t *testing.T) {
	doc := "output_dir: out\njobs:\n  - source: a/x.png\n  - source: b/x.png\n"
	m, err := manifest.Parse([]byte(doc), "")
	if err != nil {
		t.Fatal(err)
	}
	jobs, err := m.Build(config.Defaults(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(jobs[1].OutputPath) != "x-1.png" {
		t.Errorf("expected x-1.png, got %s", jobs[1].OutputPath)
	}
}
