package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/waabox/imgdeck/internal/domain"
)

// OutputConfig controls where and how results are written.
type OutputConfig struct {
	Dir       string `toml:"dir"`
	Format    string `toml:"format"`
	Quality   int    `toml:"quality"`
	Overwrite bool   `toml:"overwrite"`
}

// ResizeConfig holds the default resize box.
type ResizeConfig struct {
	Mode   string `toml:"mode"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// WatermarkConfig holds the default watermark. Image, when set, is a path
// to an overlay and takes precedence over Text.
type WatermarkConfig struct {
	Text     string  `toml:"text"`
	Image    string  `toml:"image"`
	Position string  `toml:"position"`
	Opacity  float64 `toml:"opacity"`
	Margin   int     `toml:"margin"`
	Scale    int     `toml:"scale"`
	Color    string  `toml:"color"`
}

// RenameConfig holds the default rename pattern.
type RenameConfig struct {
	Pattern    string `toml:"pattern"`
	IndexStart int    `toml:"index_start"`
}

// LogConfig configures the console and file logger.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// UIConfig is state remembered between sessions.
type UIConfig struct {
	RecentFolders []string `toml:"recent_folders"`
}

// Config holds all imgdeck configuration.
type Config struct {
	Output      OutputConfig    `toml:"output"`
	Resize      ResizeConfig    `toml:"resize"`
	Watermark   WatermarkConfig `toml:"watermark"`
	Rename      RenameConfig    `toml:"rename"`
	Concurrency int             `toml:"concurrency"`
	Log         LogConfig       `toml:"log"`
	UI          UIConfig        `toml:"ui"`
}

// maxRecentFolders bounds UI.RecentFolders.
const maxRecentFolders = 5

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Output: OutputConfig{
			Dir:     "output",
			Format:  string(domain.FormatJPEG),
			Quality: 85,
		},
		Resize: ResizeConfig{
			Mode:   string(domain.ResizeFit),
			Width:  800,
			Height: 600,
		},
		Watermark: WatermarkConfig{
			Text:     "My Watermark",
			Position: string(domain.BottomRight),
			Opacity:  0.5,
			Margin:   10,
			Scale:    2,
			Color:    "#ffffff",
		},
		Rename: RenameConfig{
			Pattern:    "{name}_{index:3}",
			IndexStart: 1,
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadFrom reads configuration from the given TOML file path on top of
// Defaults. If the file does not exist, the defaults are returned without error.
// Environment variables always take precedence over file values:
//   - IMGDECK_OUTPUT_DIR     overrides output.dir
//   - IMGDECK_FORMAT         overrides output.format
//   - IMGDECK_QUALITY        overrides output.quality
//   - IMGDECK_CONCURRENCY    overrides concurrency
//   - IMGDECK_WATERMARK_TEXT overrides watermark.text
//   - IMGDECK_LOG_FILE       overrides log.file
func LoadFrom(path string) (Config, error) {
	cfg := Defaults()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from path into the environment without
// replacing variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// DefaultConfigPath returns the default path for the imgdeck config file.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return home + "/.config/imgdeck/config.toml"
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("IMGDECK_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("IMGDECK_FORMAT"); v != "" {
		cfg.Output.Format = v
	}
	if v := os.Getenv("IMGDECK_QUALITY"); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("IMGDECK_QUALITY: %w", err)
		}
		cfg.Output.Quality = q
	}
	if v := os.Getenv("IMGDECK_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("IMGDECK_CONCURRENCY: %w", err)
		}
		cfg.Concurrency = n
	}
	if v := os.Getenv("IMGDECK_WATERMARK_TEXT"); v != "" {
		cfg.Watermark.Text = v
	}
	if v := os.Getenv("IMGDECK_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	return nil
}

// Save writes cfg to the given TOML file path, creating parent directories as needed.
// Existing file contents are overwritten. Permissions on the written file are 0600.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	if encErr := toml.NewEncoder(f).Encode(cfg); encErr != nil {
		f.Close()
		return encErr
	}
	return f.Close()
}

// AddRecentFolder moves dir to the front of the recent folders list,
// dropping duplicates and keeping at most five entries.
func (c *Config) AddRecentFolder(dir string) {
	if dir == "" {
		return
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	recent := slices.DeleteFunc(slices.Clone(c.UI.RecentFolders), func(s string) bool { return s == dir })
	recent = append([]string{dir}, recent...)
	if len(recent) > maxRecentFolders {
		recent = recent[:maxRecentFolders]
	}
	c.UI.RecentFolders = recent
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, err := domain.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	if c.Output.Quality < 0 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality: %d out of range 0-100", c.Output.Quality)
	}
	if _, err := domain.ParseResizeMode(c.Resize.Mode); err != nil {
		return fmt.Errorf("resize.mode: %w", err)
	}
	if c.Resize.Width < 0 || c.Resize.Width > domain.MaxDimension ||
		c.Resize.Height < 0 || c.Resize.Height > domain.MaxDimension {
		return fmt.Errorf("resize: %dx%d out of range 0-%d", c.Resize.Width, c.Resize.Height, domain.MaxDimension)
	}
	if p := strings.TrimSpace(c.Watermark.Position); p != "" && string(domain.ParsePosition(p)) != strings.ToLower(p) {
		return fmt.Errorf("watermark.position: unknown position %q", p)
	}
	if c.Watermark.Opacity < 0 || c.Watermark.Opacity > 1 {
		return fmt.Errorf("watermark.opacity: %.2f out of range 0-1", c.Watermark.Opacity)
	}
	if _, err := ParseHexColor(c.Watermark.Color); err != nil {
		return fmt.Errorf("watermark.color: %w", err)
	}
	if c.Rename.IndexStart < 0 {
		return fmt.Errorf("rename.index_start: must not be negative")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency: must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	return nil
}
