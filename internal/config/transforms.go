package config

import (
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/waabox/imgdeck/internal/domain"
)

// Operation names accepted by ParseOps, in the default pipeline order.
const (
	OpConvert   = "convert"
	OpResize    = "resize"
	OpWatermark = "watermark"
	OpRename    = "rename"
)

// DefaultOps is the full pipeline.
var DefaultOps = []string{OpConvert, OpResize, OpWatermark, OpRename}

// ParseOps splits a comma separated list of operation names. Order is kept;
// repeats are rejected.
func ParseOps(s string) ([]string, error) {
	seen := make(map[string]bool)
	var ops []string
	for _, part := range strings.Split(s, ",") {
		op := strings.ToLower(strings.TrimSpace(part))
		if op == "" {
			continue
		}
		switch op {
		case OpConvert, OpResize, OpWatermark, OpRename:
		default:
			return nil, fmt.Errorf("unknown operation %q (use convert, resize, watermark, rename)", part)
		}
		if seen[op] {
			return nil, fmt.Errorf("operation %q listed twice", op)
		}
		seen[op] = true
		ops = append(ops, op)
	}
	if len(ops) == 0 {
		return nil, fmt.Errorf("no operations given")
	}
	return ops, nil
}

// Transforms builds the transform sequence for ops from the stored defaults.
// overlay is the decoded watermark image and is required when a watermark is
// requested and Watermark.Image is set.
func (c Config) Transforms(ops []string, overlay image.Image) ([]domain.Transform, error) {
	ts := make([]domain.Transform, 0, len(ops))
	for _, op := range ops {
		switch op {
		case OpConvert:
			format, err := domain.ParseFormat(c.Output.Format)
			if err != nil {
				return nil, err
			}
			ts = append(ts, domain.Convert{Format: format, Quality: c.Output.Quality})

		case OpResize:
			mode, err := domain.ParseResizeMode(c.Resize.Mode)
			if err != nil {
				return nil, err
			}
			ts = append(ts, domain.Resize{Mode: mode, Width: c.Resize.Width, Height: c.Resize.Height})

		case OpWatermark:
			w, err := c.watermark(overlay)
			if err != nil {
				return nil, err
			}
			ts = append(ts, w)

		case OpRename:
			ts = append(ts, domain.Rename{Pattern: c.Rename.Pattern})

		default:
			return nil, fmt.Errorf("unknown operation %q", op)
		}
	}
	if err := domain.ValidateAll(ts); err != nil {
		return nil, err
	}
	return ts, nil
}

func (c Config) watermark(overlay image.Image) (domain.Watermark, error) {
	col, err := ParseHexColor(c.Watermark.Color)
	if err != nil {
		return domain.Watermark{}, fmt.Errorf("watermark color: %w", err)
	}
	w := domain.Watermark{
		Position: domain.ParsePosition(c.Watermark.Position),
		Opacity:  c.Watermark.Opacity,
		Margin:   c.Watermark.Margin,
		Color:    col,
		Scale:    c.Watermark.Scale,
	}
	if c.Watermark.Image != "" {
		if overlay == nil {
			return domain.Watermark{}, fmt.Errorf("watermark image %s was not loaded", c.Watermark.Image)
		}
		w.Overlay = overlay
	} else {
		w.Text = c.Watermark.Text
	}
	return w, nil
}

// ParseHexColor accepts "#rrggbb" or "#rrggbbaa". An empty string is opaque white.
func ParseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if s == "" {
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}, nil
	}
	if len(s) != 6 && len(s) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	c := color.NRGBA{R: b[0], G: b[1], B: b[2], A: 255}
	if len(b) == 4 {
		c.A = b[3]
	}
	return c, nil
}
