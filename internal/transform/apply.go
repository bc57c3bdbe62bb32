// Package transform applies domain transforms to in-memory frames. Nothing
// here touches the filesystem.
package transform

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/waabox/imgdeck/internal/domain"
	"github.com/waabox/imgdeck/internal/naming"
)

// DefaultTextColor is used for text watermarks without an explicit colour.
var DefaultTextColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// Apply runs t against f and returns the new frame. On error the input
// frame is returned unchanged.
func Apply(c domain.Codec, f domain.Frame, t domain.Transform) (domain.Frame, error) {
	if t == nil {
		return f, &domain.TransformError{Kind: domain.InvalidParameters, Err: fmt.Errorf("nil transform")}
	}
	if err := t.Validate(); err != nil {
		return f, err
	}

	switch v := t.(type) {
	case domain.Convert:
		return convert(f, v), nil

	case domain.Resize:
		img, err := c.Resize(f.Image, v.Mode, v.Width, v.Height)
		if err != nil {
			return f, asTransformError(domain.KindResize, err)
		}
		f.Image = img
		return f, nil

	case domain.Watermark:
		overlay := v.Overlay
		if overlay == nil {
			col := v.Color
			if col.A == 0 {
				col = DefaultTextColor
			}
			overlay = c.RenderText(v.Text, col, max(v.Scale, 1))
		}
		img, err := c.Composite(f.Image, overlay, domain.ParsePosition(string(v.Position)), v.Margin, v.Opacity)
		if err != nil {
			return f, asTransformError(domain.KindWatermark, err)
		}
		f.Image = img
		return f, nil

	case domain.Rename:
		return rename(f, v)

	default:
		return f, &domain.TransformError{
			Kind: domain.InvalidParameters,
			Err:  fmt.Errorf("unknown transform %T", t),
		}
	}
}

// Fold applies ts left to right, stopping at the first failure.
func Fold(c domain.Codec, f domain.Frame, ts []domain.Transform) (domain.Frame, error) {
	for _, t := range ts {
		next, err := Apply(c, f, t)
		if err != nil {
			return f, err
		}
		f = next
	}
	return f, nil
}

// Quality returns the quality of the last Convert in ts, or 0.
func Quality(ts []domain.Transform) int {
	q := 0
	for _, t := range ts {
		if cv, ok := t.(domain.Convert); ok {
			q = cv.Quality
		}
	}
	return q
}

func convert(f domain.Frame, v domain.Convert) domain.Frame {
	format, _ := domain.ParseFormat(string(v.Format))
	f.Format = format
	if f.Path != "" {
		f.Path = strings.TrimSuffix(f.Path, filepath.Ext(f.Path)) + format.Ext()
	}
	return f
}

func rename(f domain.Frame, v domain.Rename) (domain.Frame, error) {
	base := filepath.Base(f.Path)
	name, err := naming.Render(v.Pattern, naming.Vars{
		Name:   strings.TrimSuffix(base, filepath.Ext(base)),
		Index:  v.Index,
		Ext:    strings.TrimPrefix(f.Format.Ext(), "."),
		Format: string(f.Format),
	})
	if err != nil {
		return f, &domain.TransformError{Transform: domain.KindRename, Kind: domain.InvalidParameters, Err: err}
	}
	f.Path = filepath.Join(filepath.Dir(f.Path), name)
	return f, nil
}

// asTransformError tags codec errors that are not already classified.
func asTransformError(kind domain.TransformKind, err error) error {
	var te *domain.TransformError
	if errors.As(err, &te) {
		if te.Transform != "" {
			return err
		}
		return &domain.TransformError{Transform: kind, Kind: te.Kind, Err: te.Err}
	}
	return &domain.TransformError{Transform: kind, Kind: domain.EncodingFailure, Err: err}
}
