// Package manifest loads YAML batch manifests that list jobs with their own
// transform pipelines.
//
// Example:
//
//	output_dir: processed
//	concurrency: 4
//	jobs:
//	  - source: photos/beach.jpg
//	    transforms:
//	      - resize: {mode: fit, width: 1024, height: 768}
//	      - watermark: {text: "(c) 2025", position: bottom-right, opacity: 0.4}
//	      - convert: {format: png}
//	  - source: photos/logo.png
//	    output_dir: icons
//	    transforms:
//	      - resize: {mode: fill, width: 64, height: 64}
//	      - rename: {pattern: "icon-{index:2}"}
package manifest

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/waabox/imgdeck/internal/config"
	"github.com/waabox/imgdeck/internal/domain"
	"github.com/waabox/imgdeck/internal/pipeline"
)

// Manifest is a batch description.
type Manifest struct {
	OutputDir   string    `yaml:"output_dir"`
	Overwrite   bool      `yaml:"overwrite"`
	Concurrency int       `yaml:"concurrency"`
	IndexStart  *int      `yaml:"index_start"`
	Jobs        []JobSpec `yaml:"jobs"`

	baseDir string
}

// JobSpec is one source with its transforms. OutputDir overrides the
// manifest-level directory.
type JobSpec struct {
	Source     string     `yaml:"source"`
	OutputDir  string     `yaml:"output_dir"`
	Transforms []StepSpec `yaml:"transforms"`
}

// StepSpec holds exactly one transform.
type StepSpec struct {
	Convert   *ConvertSpec   `yaml:"convert"`
	Resize    *ResizeSpec    `yaml:"resize"`
	Watermark *WatermarkSpec `yaml:"watermark"`
	Rename    *RenameSpec    `yaml:"rename"`
}

type ConvertSpec struct {
	Format  string `yaml:"format"`
	Quality int    `yaml:"quality"`
}

type ResizeSpec struct {
	Mode   string `yaml:"mode"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// WatermarkSpec sets Text or Image. Zero-valued style fields fall back to
// the configured watermark defaults.
type WatermarkSpec struct {
	Text     string   `yaml:"text"`
	Image    string   `yaml:"image"`
	Position string   `yaml:"position"`
	Opacity  *float64 `yaml:"opacity"`
	Margin   *int     `yaml:"margin"`
	Scale    int      `yaml:"scale"`
	Color    string   `yaml:"color"`
}

type RenameSpec struct {
	Pattern string `yaml:"pattern"`
}

// OverlayLoader decodes a watermark image from disk.
type OverlayLoader func(path string) (image.Image, error)

// CodecLoader returns an OverlayLoader that decodes files with c.
func CodecLoader(c domain.Codec) OverlayLoader {
	return func(path string) (image.Image, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		img, _, err := c.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding overlay %s: %w", path, err)
		}
		return img, nil
	}
}

// Load reads and parses the manifest file. Relative paths inside it are
// resolved against the manifest's directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data, filepath.Dir(path))
}

// Parse decodes a manifest; baseDir anchors relative paths.
func Parse(data []byte, baseDir string) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	m.baseDir = baseDir
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}

// Validate checks the structure. Transform parameters are checked when jobs are built.
func (m *Manifest) Validate() error {
	if len(m.Jobs) == 0 {
		return fmt.Errorf("no jobs")
	}
	if m.Concurrency < 0 || (m.IndexStart != nil && *m.IndexStart < 0) {
		return fmt.Errorf("concurrency and index_start must not be negative")
	}
	for i, j := range m.Jobs {
		if j.Source == "" {
			return fmt.Errorf("job %d: source is required", i)
		}
		for k, s := range j.Transforms {
			if n := s.count(); n != 1 {
				return fmt.Errorf("job %d step %d: expected exactly one transform, got %d", i, k, n)
			}
		}
	}
	return nil
}

// Build turns the manifest into jobs. defaults supplies the index start and
// the watermark styling a step leaves unset; load decodes overlay images,
// each path once.
func (m *Manifest) Build(defaults config.Config, load OverlayLoader) ([]domain.Job, error) {
	start := defaults.Rename.IndexStart
	if m.IndexStart != nil {
		start = *m.IndexStart
	}
	b := pipeline.NewBuilder(m.resolve(m.OutputDir), m.Overwrite, start)
	overlays := make(map[string]image.Image)

	jobs := make([]domain.Job, 0, len(m.Jobs))
	for i, spec := range m.Jobs {
		ts := make([]domain.Transform, 0, len(spec.Transforms))
		for k, step := range spec.Transforms {
			t, err := m.transform(step, defaults.Watermark, overlays, load)
			if err != nil {
				return nil, fmt.Errorf("job %d step %d: %w", i, k, err)
			}
			ts = append(ts, t)
		}
		job, err := b.Add(m.resolve(spec.Source), m.resolve(spec.OutputDir), ts)
		if err != nil {
			return nil, fmt.Errorf("job %d: %w", i, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (m *Manifest) transform(s StepSpec, wd config.WatermarkConfig, overlays map[string]image.Image, load OverlayLoader) (domain.Transform, error) {
	switch {
	case s.Convert != nil:
		format, err := domain.ParseFormat(s.Convert.Format)
		if err != nil {
			return nil, err
		}
		return domain.Convert{Format: format, Quality: s.Convert.Quality}, nil

	case s.Resize != nil:
		mode, err := domain.ParseResizeMode(s.Resize.Mode)
		if err != nil {
			return nil, err
		}
		return domain.Resize{Mode: mode, Width: s.Resize.Width, Height: s.Resize.Height}, nil

	case s.Watermark != nil:
		return m.watermark(*s.Watermark, wd, overlays, load)

	default:
		return domain.Rename{Pattern: s.Rename.Pattern}, nil
	}
}

func (m *Manifest) watermark(s WatermarkSpec, wd config.WatermarkConfig, overlays map[string]image.Image, load OverlayLoader) (domain.Watermark, error) {
	w := domain.Watermark{
		Text:     s.Text,
		Position: domain.ParsePosition(firstNonEmpty(s.Position, wd.Position)),
		Opacity:  wd.Opacity,
		Margin:   wd.Margin,
		Scale:    wd.Scale,
	}
	if s.Opacity != nil {
		w.Opacity = *s.Opacity
	}
	if s.Margin != nil {
		w.Margin = *s.Margin
	}
	if s.Scale > 0 {
		w.Scale = s.Scale
	}
	col, err := config.ParseHexColor(firstNonEmpty(s.Color, wd.Color))
	if err != nil {
		return domain.Watermark{}, err
	}
	w.Color = col

	if s.Image != "" {
		path := m.resolve(s.Image)
		img, ok := overlays[path]
		if !ok {
			if load == nil {
				return domain.Watermark{}, fmt.Errorf("no loader for watermark image %s", path)
			}
			if img, err = load(path); err != nil {
				return domain.Watermark{}, err
			}
			overlays[path] = img
		}
		w.Overlay = img
	}
	if err := w.Validate(); err != nil {
		return domain.Watermark{}, err
	}
	return w, nil
}

func (s StepSpec) count() int {
	n := 0
	if s.Convert != nil {
		n++
	}
	if s.Resize != nil {
		n++
	}
	if s.Watermark != nil {
		n++
	}
	if s.Rename != nil {
		n++
	}
	return n
}

func (m *Manifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || m.baseDir == "" {
		return p
	}
	return filepath.Join(m.baseDir, p)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
