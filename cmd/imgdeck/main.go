package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"

	"github.com/waabox/imgdeck/internal/codec"
	"github.com/waabox/imgdeck/internal/config"
	"github.com/waabox/imgdeck/internal/domain"
	"github.com/waabox/imgdeck/internal/logging"
	"github.com/waabox/imgdeck/internal/manifest"
	"github.com/waabox/imgdeck/internal/pipeline"
	"github.com/waabox/imgdeck/internal/tui"
	"github.com/waabox/imgdeck/internal/watch"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

// session is everything a batch run needs once flags and config are resolved.
type session struct {
	cfg     config.Config
	flags   cliFlags
	log     *logging.Logger
	codec   domain.Codec
	useTUI  bool
	console *log.Logger
}

func run(args []string) int {
	fl, err := parseFlags(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fl.version {
		fmt.Println("imgdeck", version)
		return 0
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	cfg, err := config.LoadFrom(fl.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		return 1
	}
	applyOverrides(&cfg, fl)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid settings: %v\n", err)
		return 1
	}

	useTUI := !fl.noTUI && !fl.watch && isatty.IsTerminal(os.Stdout.Fd())
	logger, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Quiet:   useTUI,
		Verbose: fl.verbose,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log: %v\n", err)
		return 1
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := session{
		cfg:     cfg,
		flags:   fl,
		log:     logger,
		codec:   codec.NewLimited(codec.New(), codec.DefaultMaxPixels),
		useTUI:  useTUI,
		console: log.New(os.Stderr),
	}

	var code int
	switch {
	case fl.manifest != "":
		code = s.runManifest(ctx, stop)
	case len(fl.inputs) == 0:
		fmt.Fprintln(os.Stderr, "no input files: pass files or directories, or -manifest")
		return 2
	case fl.watch:
		code = s.runWatch(ctx)
	default:
		code = s.runInputs(ctx, stop)
	}

	if fl.save {
		for _, dir := range inputDirs(fl.inputs) {
			s.cfg.AddRecentFolder(dir)
		}
		if err := config.Save(fl.configPath, s.cfg); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not save config: %v\n", err)
		} else {
			logger.Info("settings saved", "path", fl.configPath)
		}
	}
	return code
}

func (s *session) runManifest(ctx context.Context, stop context.CancelFunc) int {
	m, err := manifest.Load(s.flags.manifest)
	if err != nil {
		s.log.Error("loading manifest", "err", err)
		return 1
	}
	jobs, err := m.Build(s.cfg, manifest.CodecLoader(s.codec))
	if err != nil {
		s.log.Error("building jobs", "err", err)
		return 1
	}
	concurrency := s.cfg.Concurrency
	if m.Concurrency > 0 && !s.flags.set["j"] {
		concurrency = m.Concurrency
	}
	return s.runBatch(ctx, stop, jobs, m.Overwrite || s.cfg.Output.Overwrite, concurrency)
}

func (s *session) runInputs(ctx context.Context, stop context.CancelFunc) int {
	ts, err := s.transforms()
	if err != nil {
		s.log.Error("invalid operations", "err", err)
		return 1
	}
	sources, err := pipeline.Discover(s.flags.inputs, s.flags.recursive)
	if err != nil {
		s.log.Error("finding images", "err", err)
		return 1
	}
	jobs, err := pipeline.NewBuilder(s.cfg.Output.Dir, s.cfg.Output.Overwrite, s.cfg.Rename.IndexStart).AddAll(sources, ts)
	if err != nil {
		s.log.Error("building jobs", "err", err)
		return 1
	}
	return s.runBatch(ctx, stop, jobs, s.cfg.Output.Overwrite, s.cfg.Concurrency)
}

// transforms resolves -ops against the config and loads the overlay image
// when an image watermark is requested.
func (s *session) transforms() ([]domain.Transform, error) {
	ops, err := config.ParseOps(s.flags.ops)
	if err != nil {
		return nil, err
	}
	var overlay image.Image
	if s.cfg.Watermark.Image != "" && slices.Contains(ops, config.OpWatermark) {
		overlay, err = manifest.CodecLoader(s.codec)(s.cfg.Watermark.Image)
		if err != nil {
			return nil, err
		}
	}
	return s.cfg.Transforms(ops, overlay)
}

func (s *session) runBatch(ctx context.Context, stop context.CancelFunc, jobs []domain.Job, overwrite bool, concurrency int) int {
	if len(jobs) == 0 {
		s.log.Warn("no images found")
		return 0
	}
	batch, err := pipeline.NewBatch(jobs)
	if err != nil {
		s.log.Error("invalid batch", "err", err)
		return 1
	}
	runner := pipeline.NewRunner(s.codec, pipeline.Options{Overwrite: overwrite, Logger: s.log.Logger})
	s.log.Info("starting batch", "batch", batch.ID, "jobs", batch.Len(), "concurrency", concurrency)

	exec := func(ctx context.Context, r domain.ProgressReporter) (domain.BatchResult, error) {
		return runner.Run(ctx, batch, concurrency, r)
	}

	started := time.Now()
	var res domain.BatchResult
	if s.useTUI {
		title := fmt.Sprintf("batch %.8s (%d images)", batch.ID, batch.Len())
		res, err = tui.Run(ctx, stop, title, batch.Jobs(), exec)
	} else {
		res, err = exec(ctx, logging.NewReporter(s.log.Logger, batch.Jobs()))
	}
	if err != nil {
		s.log.Error("batch failed", "err", err)
		return 1
	}

	elapsed := time.Since(started)
	logging.Summary(s.log.Logger, res, elapsed)
	if s.useTUI {
		logging.Summary(s.console, res, elapsed)
	}
	if c := res.Tally(); c.Failed > 0 || c.Cancelled > 0 {
		return 1
	}
	return 0
}

// runWatch processes the images already present, then every image that
// settles in the input directories until interrupted. One Builder spans
// the session so numbering and collision tracking carry across batches.
func (s *session) runWatch(ctx context.Context) int {
	dirs := inputDirs(s.flags.inputs)
	ts, err := s.transforms()
	if err != nil {
		s.log.Error("invalid operations", "err", err)
		return 1
	}
	hf := newHotFolder(s.codec, s.cfg, ts, s.log)

	existing, err := pipeline.Discover(s.flags.inputs, false)
	if err != nil {
		s.log.Error("finding images", "err", err)
		return 1
	}
	hf.process(ctx, existing)

	w, err := watch.New(dirs, watch.Options{
		Logger: s.log.Logger,
		Ignore: hf.produced,
	})
	if err != nil {
		s.log.Error("starting watcher", "err", err)
		return 1
	}
	defer w.Close()

	s.log.Info("waiting for images, press ctrl+c to stop")
	if err := w.Run(ctx, func(p string) { hf.process(ctx, []string{p}) }); err != nil {
		s.log.Error("watcher stopped", "err", err)
		return 1
	}

	total := hf.total
	s.log.Info("watch session finished",
		"total", total.Total,
		"succeeded", total.Succeeded,
		"failed", total.Failed,
		"cancelled", total.Cancelled,
	)
	if total.Failed > 0 {
		return 1
	}
	return 0
}

// hotFolder runs each group of settled sources as its own batch. A source
// saved again later becomes a new job with its own suffixed output, so an
// earlier result is never reported as a collision.
type hotFolder struct {
	builder     *pipeline.Builder
	runner      *pipeline.Runner
	ts          []domain.Transform
	concurrency int
	log         *logging.Logger
	outputs     map[string]bool
	total       domain.Counters
}

func newHotFolder(c domain.Codec, cfg config.Config, ts []domain.Transform, logger *logging.Logger) *hotFolder {
	overwrite := cfg.Output.Overwrite
	return &hotFolder{
		builder:     pipeline.NewBuilder(cfg.Output.Dir, overwrite, cfg.Rename.IndexStart),
		runner:      pipeline.NewRunner(c, pipeline.Options{Overwrite: overwrite, Logger: logger.Logger}),
		ts:          ts,
		concurrency: cfg.Concurrency,
		log:         logger,
		outputs:     make(map[string]bool),
	}
}

// produced reports whether p is an output of this session, so the watcher
// does not feed results back in.
func (h *hotFolder) produced(p string) bool {
	return h.outputs[absPath(p)]
}

func (h *hotFolder) process(ctx context.Context, sources []string) {
	jobs, err := h.builder.AddAll(sources, h.ts)
	if err != nil {
		h.log.Error("building jobs", "err", err)
		return
	}
	if len(jobs) == 0 {
		return
	}
	for _, j := range jobs {
		h.outputs[absPath(j.OutputPath)] = true
	}
	batch, err := pipeline.NewBatch(jobs)
	if err != nil {
		h.log.Error("invalid batch", "err", err)
		return
	}
	res, err := h.runner.Run(ctx, batch, h.concurrency, logging.NewReporter(h.log.Logger, batch.Jobs()))
	if err != nil {
		h.log.Error("batch failed", "err", err)
		return
	}
	c := res.Tally()
	h.total.Total += c.Total
	h.total.Succeeded += c.Succeeded
	h.total.Failed += c.Failed
	h.total.Cancelled += c.Cancelled
}

// inputDirs returns the directories among inputs, or the parent directory
// of each file input, without duplicates.
func inputDirs(inputs []string) []string {
	var dirs []string
	for _, in := range inputs {
		dir := in
		if info, err := os.Stat(in); err != nil || !info.IsDir() {
			dir = filepath.Dir(in)
		}
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
