package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/waabox/imgdeck/internal/domain"
)

// DefaultMaxPixels rejects sources larger than 100 megapixels.
const DefaultMaxPixels = 100_000_000

// DimensionLimitError is returned when a source image exceeds the pixel budget.
type DimensionLimitError struct {
	Width, Height int
	MaxPixels     int
}

func (e *DimensionLimitError) Error() string {
	return fmt.Sprintf("image is %dx%d, exceeds %d pixel limit", e.Width, e.Height, e.MaxPixels)
}

// Unwrap lets callers match the condition with errors.Is(err, domain.ErrImageTooLarge).
func (e *DimensionLimitError) Unwrap() error { return domain.ErrImageTooLarge }

// Limited wraps a Codec and checks the header dimensions of every source
// before handing it to the inner decoder, so oversized images never get
// allocated. All other operations pass straight through.
type Limited struct {
	inner     domain.Codec
	maxPixels int
}

// Ensure Limited implements domain.Codec.
var _ domain.Codec = (*Limited)(nil)

// NewLimited creates a Limited codec. maxPixels <= 0 uses DefaultMaxPixels.
func NewLimited(inner domain.Codec, maxPixels int) *Limited {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &Limited{inner: inner, maxPixels: maxPixels}
}

func (l *Limited) Decode(r io.Reader) (image.Image, domain.Format, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil && cfg.Width*cfg.Height > l.maxPixels {
		return nil, "", &DimensionLimitError{Width: cfg.Width, Height: cfg.Height, MaxPixels: l.maxPixels}
	}
	// Header errors are left for the inner decoder to classify.
	return l.inner.Decode(bytes.NewReader(data))
}

func (l *Limited) Encode(w io.Writer, img image.Image, f domain.Format, quality int) error {
	return l.inner.Encode(w, img, f, quality)
}

func (l *Limited) Resize(img image.Image, mode domain.ResizeMode, width, height int) (image.Image, error) {
	return l.inner.Resize(img, mode, width, height)
}

func (l *Limited) Composite(img, overlay image.Image, pos domain.Position, margin int, opacity float64) (image.Image, error) {
	return l.inner.Composite(img, overlay, pos, margin, opacity)
}

func (l *Limited) RenderText(text string, c color.NRGBA, scale int) image.Image {
	return l.inner.RenderText(text, c, scale)
}
