package main

import (
	"flag"
	"io"
	"strings"

	"github.com/waabox/imgdeck/internal/config"
)

// cliFlags holds the parsed command line. Only flags the user actually set
// override the loaded configuration.
type cliFlags struct {
	configPath     string
	version        bool
	outputDir      string
	ops            string
	format         string
	quality        int
	mode           string
	width          int
	height         int
	watermark      string
	watermarkImage string
	position       string
	opacity        float64
	pattern        string
	concurrency    int
	recursive      bool
	overwrite      bool
	manifest       string
	watch          bool
	noTUI          bool
	save           bool
	verbose        bool

	inputs []string
	set    map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (cliFlags, error) {
	var f cliFlags
	fs := flag.NewFlagSet("imgdeck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		io.WriteString(stderr, "usage: imgdeck [flags] <file|dir>...\n       imgdeck -manifest batch.yaml\n\n")
		fs.PrintDefaults()
	}

	fs.StringVar(&f.configPath, "config", config.DefaultConfigPath(), "path to the TOML config file")
	fs.BoolVar(&f.version, "version", false, "print version and exit")
	fs.StringVar(&f.outputDir, "o", "", "output directory (empty writes next to each source)")
	fs.StringVar(&f.ops, "ops", strings.Join(config.DefaultOps, ","), "comma separated operations, applied in order")
	fs.StringVar(&f.format, "format", "", "target format: jpeg, png, gif, bmp, tiff")
	fs.IntVar(&f.quality, "quality", 0, "JPEG quality 1-100")
	fs.StringVar(&f.mode, "mode", "", "resize mode: exact, fit, fill")
	fs.IntVar(&f.width, "width", 0, "resize width")
	fs.IntVar(&f.height, "height", 0, "resize height")
	fs.StringVar(&f.watermark, "watermark", "", "watermark text")
	fs.StringVar(&f.watermarkImage, "watermark-image", "", "watermark overlay image (takes precedence over text)")
	fs.StringVar(&f.position, "position", "", "watermark position, e.g. bottom-right")
	fs.Float64Var(&f.opacity, "opacity", 0, "watermark opacity 0-1")
	fs.StringVar(&f.pattern, "pattern", "", "rename pattern, e.g. {name}_{index:3}")
	fs.IntVar(&f.concurrency, "j", 0, "maximum jobs in flight (0 uses the number of CPUs)")
	fs.BoolVar(&f.recursive, "recursive", false, "scan input directories recursively")
	fs.BoolVar(&f.overwrite, "overwrite", false, "replace existing output files")
	fs.StringVar(&f.manifest, "manifest", "", "YAML batch manifest")
	fs.BoolVar(&f.watch, "watch", false, "keep running and process images added to the input directories")
	fs.BoolVar(&f.noTUI, "no-tui", false, "log progress to the console instead of the interactive view")
	fs.BoolVar(&f.save, "save", false, "save the effective settings and input folders to the config file")
	fs.BoolVar(&f.verbose, "verbose", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return cliFlags{}, err
	}
	f.inputs = fs.Args()
	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, nil
}

// applyOverrides copies explicitly set flags into cfg.
func applyOverrides(cfg *config.Config, f cliFlags) {
	if f.set["o"] {
		cfg.Output.Dir = f.outputDir
	}
	if f.set["format"] {
		cfg.Output.Format = f.format
	}
	if f.set["quality"] {
		cfg.Output.Quality = f.quality
	}
	if f.set["overwrite"] {
		cfg.Output.Overwrite = f.overwrite
	}
	if f.set["mode"] {
		cfg.Resize.Mode = f.mode
	}
	if f.set["width"] {
		cfg.Resize.Width = f.width
	}
	if f.set["height"] {
		cfg.Resize.Height = f.height
	}
	if f.set["watermark"] {
		cfg.Watermark.Text = f.watermark
		cfg.Watermark.Image = ""
	}
	if f.set["watermark-image"] {
		cfg.Watermark.Image = f.watermarkImage
	}
	if f.set["position"] {
		cfg.Watermark.Position = f.position
	}
	if f.set["opacity"] {
		cfg.Watermark.Opacity = f.opacity
	}
	if f.set["pattern"] {
		cfg.Rename.Pattern = f.pattern
	}
	if f.set["j"] {
		cfg.Concurrency = f.concurrency
	}
}
