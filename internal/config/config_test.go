package config_test

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/waabox/imgdeck/internal/config"
	"github.com/waabox/imgdeck/internal/domain"
)

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	content := `
concurrency = 3

[output]
dir = "/tmp/processed"
format = "png"

[watermark]
text = "(c) me"
position = "top-left"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Output.Dir != "/tmp/processed" {
		t.Errorf("expected output dir '/tmp/processed', got '%s'", cfg.Output.Dir)
	}
	if cfg.Output.Format != "png" {
		t.Errorf("expected format 'png', got '%s'", cfg.Output.Format)
	}
	if cfg.Concurrency != 3 {
		t.Errorf("expected concurrency 3, got %d", cfg.Concurrency)
	}
	if cfg.Watermark.Text != "(c) me" || cfg.Watermark.Position != "top-left" {
		t.Errorf("unexpected watermark %+v", cfg.Watermark)
	}
	// Unset keys keep their defaults.
	if cfg.Output.Quality != 85 {
		t.Errorf("expected default quality 85, got %d", cfg.Output.Quality)
	}
	if cfg.Watermark.Opacity != 0.5 {
		t.Errorf("expected default opacity 0.5, got %v", cfg.Watermark.Opacity)
	}
}

func TestLoad_EnvVarsTakePrecedence(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	content := `
[output]
dir = "fromfile"
format = "png"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("IMGDECK_OUTPUT_DIR", "fromenv")
	t.Setenv("IMGDECK_FORMAT", "gif")
	t.Setenv("IMGDECK_QUALITY", "40")
	t.Setenv("IMGDECK_CONCURRENCY", "6")
	t.Setenv("IMGDECK_WATERMARK_TEXT", "env mark")
	t.Setenv("IMGDECK_LOG_FILE", "/tmp/imgdeck.log")

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Output.Dir != "fromenv" {
		t.Errorf("expected env dir 'fromenv', got '%s'", cfg.Output.Dir)
	}
	if cfg.Output.Format != "gif" {
		t.Errorf("expected env format 'gif', got '%s'", cfg.Output.Format)
	}
	if cfg.Output.Quality != 40 || cfg.Concurrency != 6 {
		t.Errorf("expected quality 40 and concurrency 6, got %d and %d", cfg.Output.Quality, cfg.Concurrency)
	}
	if cfg.Watermark.Text != "env mark" {
		t.Errorf("expected env watermark, got '%s'", cfg.Watermark.Text)
	}
	if cfg.Log.File != "/tmp/imgdeck.log" {
		t.Errorf("expected env log file, got '%s'", cfg.Log.File)
	}
}

func TestLoad_BadEnvNumber(t *testing.T) {
	t.Setenv("IMGDECK_QUALITY", "high")
	if _, err := config.LoadFrom("/nonexistent/path/config.toml"); err == nil {
		t.Fatal("expected error for non-numeric quality")
	}
}

func TestLoad_MissingFileIsNotError(t *testing.T) {
	t.Setenv("IMGDECK_WATERMARK_TEXT", "only env")
	cfg, err := config.LoadFrom("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("missing file should not be an error, got: %v", err)
	}
	if cfg.Watermark.Text != "only env" {
		t.Errorf("expected watermark from env, got '%s'", cfg.Watermark.Text)
	}
	if cfg.Output.Format != "jpeg" || cfg.Resize.Width != 800 || cfg.Resize.Height != 600 {
		t.Errorf("expected defaults, got %+v %+v", cfg.Output, cfg.Resize)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[output\nformat = "), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := config.LoadFrom(configPath); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := config.Defaults()
	cfg.Output.Format = "png"
	cfg.AddRecentFolder("/photos/2024")

	if err := config.Save(configPath, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected 0600 permissions, got %v", info.Mode().Perm())
	}

	loaded, err := config.LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.Output.Format != "png" {
		t.Errorf("expected png, got %s", loaded.Output.Format)
	}
	if len(loaded.UI.RecentFolders) != 1 || loaded.UI.RecentFolders[0] != "/photos/2024" {
		t.Errorf("expected recent folder to persist, got %v", loaded.UI.RecentFolders)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("IMGDECK_FORMAT=bmp\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("IMGDECK_FORMAT", "")
	os.Unsetenv("IMGDECK_FORMAT")

	if err := config.LoadDotEnv(envPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, err := config.LoadFrom(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Format != "bmp" {
		t.Errorf("expected format from .env, got %s", cfg.Output.Format)
	}

	if err := config.LoadDotEnv(filepath.Join(dir, "nope.env")); err != nil {
		t.Errorf("missing .env should not be an error, got %v", err)
	}
}

func TestAddRecentFolder_DedupesAndCaps(t *testing.T) {
	cfg := config.Defaults()
	for _, d := range []string{"/a", "/b", "/c", "/d", "/e", "/f"} {
		cfg.AddRecentFolder(d)
	}
	cfg.AddRecentFolder("/c")

	want := []string{"/c", "/f", "/e", "/d", "/b"}
	if len(cfg.UI.RecentFolders) != len(want) {
		t.Fatalf("expected %d entries, got %v", len(want), cfg.UI.RecentFolders)
	}
	for i := range want {
		if cfg.UI.RecentFolders[i] != want[i] {
			t.Errorf("entry %d: got %s, want %s", i, cfg.UI.RecentFolders[i], want[i])
		}
	}
}

func TestValidate(t *testing.T) {
	if err := config.Defaults().Validate(); err != nil {
		t.Fatalf("defaults must be valid: %v", err)
	}
	tests := map[string]func(*config.Config){
		"format":   func(c *config.Config) { c.Output.Format = "psd" },
		"quality":  func(c *config.Config) { c.Output.Quality = 101 },
		"mode":     func(c *config.Config) { c.Resize.Mode = "stretch" },
		"width":    func(c *config.Config) { c.Resize.Width = 20000 },
		"position": func(c *config.Config) { c.Watermark.Position = "middle" },
		"opacity":  func(c *config.Config) { c.Watermark.Opacity = 1.5 },
		"color":    func(c *config.Config) { c.Watermark.Color = "#zzz" },
		"workers":  func(c *config.Config) { c.Concurrency = -1 },
		"level":    func(c *config.Config) { c.Log.Level = "loud" },
	}
	for name, mutate := range tests {
		cfg := config.Defaults()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestParseOps(t *testing.T) {
	ops, err := config.ParseOps(" Resize, convert ,rename")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ops) != 3 || ops[0] != config.OpResize || ops[1] != config.OpConvert || ops[2] != config.OpRename {
		t.Errorf("unexpected ops %v", ops)
	}
	for _, bad := range []string{"", "blur", "resize,resize"} {
		if _, err := config.ParseOps(bad); err == nil {
			t.Errorf("ParseOps(%q): expected error", bad)
		}
	}
}

func TestTransforms_FromDefaults(t *testing.T) {
	ts, err := config.Defaults().Transforms(config.DefaultOps, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ts) != 4 {
		t.Fatalf("expected 4 transforms, got %d", len(ts))
	}
	conv := ts[0].(domain.Convert)
	if conv.Format != domain.FormatJPEG || conv.Quality != 85 {
		t.Errorf("unexpected convert %+v", conv)
	}
	rs := ts[1].(domain.Resize)
	if rs.Mode != domain.ResizeFit || rs.Width != 800 || rs.Height != 600 {
		t.Errorf("unexpected resize %+v", rs)
	}
	wm := ts[2].(domain.Watermark)
	if wm.Text != "My Watermark" || wm.Position != domain.BottomRight || wm.Margin != 10 {
		t.Errorf("unexpected watermark %+v", wm)
	}
	if wm.Color != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("expected white, got %v", wm.Color)
	}
	if ts[3].(domain.Rename).Pattern != "{name}_{index:3}" {
		t.Errorf("unexpected rename %+v", ts[3])
	}
}

func TestTransforms_ImageWatermark(t *testing.T) {
	cfg := config.Defaults()
	cfg.Watermark.Image = "logo.png"

	if _, err := cfg.Transforms([]string{config.OpWatermark}, nil); err == nil {
		t.Fatal("expected error when the overlay was not loaded")
	}
	logo := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	ts, err := cfg.Transforms([]string{config.OpWatermark}, logo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wm := ts[0].(domain.Watermark)
	if wm.Overlay == nil || wm.Text != "" {
		t.Errorf("expected overlay watermark without text, got %+v", wm)
	}
}

func TestTransforms_InvalidStoredValue(t *testing.T) {
	cfg := config.Defaults()
	cfg.Resize.Width = 0
	if _, err := cfg.Transforms([]string{config.OpResize}, nil); err == nil {
		t.Error("expected fit resize without width to be rejected")
	}
}
