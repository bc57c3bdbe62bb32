package domain

import (
	"fmt"
	"image"
	"image/color"
	"strings"
)

// TransformKind names a transform variant.
type TransformKind string

const (
	KindConvert   TransformKind = "convert"
	KindResize    TransformKind = "resize"
	KindWatermark TransformKind = "watermark"
	KindRename    TransformKind = "rename"
)

// MaxDimension bounds any requested width or height in pixels.
const MaxDimension = 10000

// Transform is one immutable step of a job's pipeline.
// The concrete variants are Convert, Resize, Watermark and Rename.
type Transform interface {
	Kind() TransformKind
	Validate() error
}

// Convert changes the output encoding. Quality 0 means the codec default.
type Convert struct {
	Format  Format
	Quality int
}

func (Convert) Kind() TransformKind { return KindConvert }

// Validate checks that the target format is known and quality is in range.
func (c Convert) Validate() error {
	if _, err := ParseFormat(string(c.Format)); err != nil {
		return invalidParams(KindConvert, err)
	}
	if c.Quality < 0 || c.Quality > 100 {
		return invalidParams(KindConvert, fmt.Errorf("quality %d out of range 0-100", c.Quality))
	}
	return nil
}

// ResizeMode selects how the target box is applied.
type ResizeMode string

const (
	// ResizeExact scales to exactly Width x Height. A zero side keeps the aspect ratio.
	ResizeExact ResizeMode = "exact"
	// ResizeFit scales down or up to fit inside the box, keeping the aspect ratio.
	ResizeFit ResizeMode = "fit"
	// ResizeFill scales and center-crops to cover the box exactly.
	ResizeFill ResizeMode = "fill"
)

// ParseResizeMode accepts "exact", "fit" or "fill" in any case.
func ParseResizeMode(s string) (ResizeMode, error) {
	switch m := ResizeMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ResizeExact, ResizeFit, ResizeFill:
		return m, nil
	default:
		return "", fmt.Errorf("invalid resize mode %q (use exact, fit or fill)", s)
	}
}

// Resize scales the image into a Width x Height box.
type Resize struct {
	Mode   ResizeMode
	Width  int
	Height int
}

func (Resize) Kind() TransformKind { return KindResize }

// Validate checks the mode and dimensions.
func (r Resize) Validate() error {
	if _, err := ParseResizeMode(string(r.Mode)); err != nil {
		return invalidDims(err)
	}
	if r.Width < 0 || r.Height < 0 || r.Width > MaxDimension || r.Height > MaxDimension {
		return invalidDims(fmt.Errorf("dimensions %dx%d out of range 0-%d", r.Width, r.Height, MaxDimension))
	}
	if r.Mode == ResizeExact && r.Width == 0 && r.Height == 0 {
		return invalidDims(fmt.Errorf("exact resize needs a width or a height"))
	}
	if r.Mode != ResizeExact && (r.Width == 0 || r.Height == 0) {
		return invalidDims(fmt.Errorf("%s resize needs both width and height", r.Mode))
	}
	return nil
}

// Position anchors a watermark inside the image.
type Position string

const (
	TopLeft      Position = "top-left"
	TopCenter    Position = "top-center"
	TopRight     Position = "top-right"
	CenterLeft   Position = "center-left"
	Center       Position = "center"
	CenterRight  Position = "center-right"
	BottomLeft   Position = "bottom-left"
	BottomCenter Position = "bottom-center"
	BottomRight  Position = "bottom-right"
)

// ParsePosition normalizes s. Unknown or empty values fall back to BottomRight.
func ParsePosition(s string) Position {
	switch p := Position(strings.ToLower(strings.TrimSpace(s))); p {
	case TopLeft, TopCenter, TopRight, CenterLeft, Center, CenterRight, BottomLeft, BottomCenter, BottomRight:
		return p
	default:
		return BottomRight
	}
}

// Watermark composites a text label or an overlay image onto the frame.
// Exactly one of Text and Overlay is set. Overlay must be loaded before
// the batch runs; the transform itself never touches the filesystem.
type Watermark struct {
	Text     string
	Overlay  image.Image
	Position Position
	Opacity  float64
	Margin   int
	Color    color.NRGBA
	// Scale multiplies the base glyph size of text watermarks. 0 means 1.
	Scale int
}

func (Watermark) Kind() TransformKind { return KindWatermark }

// Validate checks that exactly one source is set and opacity is in [0,1].
func (w Watermark) Validate() error {
	hasText := strings.TrimSpace(w.Text) != ""
	hasOverlay := w.Overlay != nil
	if hasText == hasOverlay {
		return invalidParams(KindWatermark, fmt.Errorf("set exactly one of text or overlay image"))
	}
	if w.Opacity < 0 || w.Opacity > 1 {
		return invalidParams(KindWatermark, fmt.Errorf("opacity %.2f out of range 0-1", w.Opacity))
	}
	if w.Margin < 0 || w.Scale < 0 {
		return invalidParams(KindWatermark, fmt.Errorf("margin and scale must not be negative"))
	}
	return nil
}

// Rename computes the output file name from Pattern. Index is the job's
// position in the batch (plus the configured start offset).
type Rename struct {
	Pattern string
	Index   int
}

func (Rename) Kind() TransformKind { return KindRename }

// Validate checks that the pattern is not blank. Token syntax is checked
// when the pattern is rendered.
func (r Rename) Validate() error {
	if strings.TrimSpace(r.Pattern) == "" {
		return invalidParams(KindRename, fmt.Errorf("empty rename pattern"))
	}
	if r.Index < 0 {
		return invalidParams(KindRename, fmt.Errorf("negative index %d", r.Index))
	}
	return nil
}

// ValidateAll validates every transform in order and returns the first failure.
func ValidateAll(ts []Transform) error {
	for i, t := range ts {
		if t == nil {
			return fmt.Errorf("transform %d is nil", i)
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("transform %d: %w", i, err)
		}
	}
	return nil
}

// Frame is the value threaded through a job's transform fold.
// Path is the destination computed so far.
type Frame struct {
	Image  image.Image
	Format Format
	Path   string
}

func invalidParams(t TransformKind, err error) error {
	return &TransformError{Transform: t, Kind: InvalidParameters, Err: err}
}

func invalidDims(err error) error {
	return &TransformError{Transform: KindResize, Kind: InvalidDimensions, Err: err}
}
