package domain

import (
	"image"
	"image/color"
	"io"
)

// Codec is the port the pipeline uses for all pixel work. The domain does
// not know which image library sits behind it.
type Codec interface {
	Decode(r io.Reader) (image.Image, Format, error)
	Encode(w io.Writer, img image.Image, f Format, quality int) error
	Resize(img image.Image, mode ResizeMode, width, height int) (image.Image, error)
	Composite(img, overlay image.Image, pos Position, margin int, opacity float64) (image.Image, error)
	RenderText(text string, c color.NRGBA, scale int) image.Image
}
