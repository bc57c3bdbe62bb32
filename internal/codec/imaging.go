// Package codec adapts github.com/disintegration/imaging and golang.org/x/image
// to the domain.Codec port.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	// Registers the webp decoder with image.Decode.
	_ "golang.org/x/image/webp"

	"github.com/waabox/imgdeck/internal/domain"
)

// Imaging implements domain.Codec on top of the imaging library.
type Imaging struct {
	registry *Registry
	filter   imaging.ResampleFilter
}

// Ensure Imaging implements domain.Codec.
var _ domain.Codec = (*Imaging)(nil)

// New creates a codec with the default encoder registry and Lanczos resampling.
func New() *Imaging {
	return NewWithRegistry(DefaultRegistry())
}

// NewWithRegistry creates a codec that encodes only the formats in reg.
func NewWithRegistry(reg *Registry) *Imaging {
	return &Imaging{registry: reg, filter: imaging.Lanczos}
}

// Decode reads r fully, sniffs the format and decodes it honoring EXIF orientation.
func (c *Imaging) Decode(r io.Reader) (image.Image, domain.Format, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", err
	}
	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", domain.ErrUnsupportedSource
		}
		return nil, "", fmt.Errorf("decode header: %w", err)
	}
	format, err := domain.ParseFormat(name)
	if err != nil {
		return nil, "", domain.ErrUnsupportedSource
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", format, err)
	}
	return img, format, nil
}

// Encode writes img in format f. Formats without an alpha channel get the
// image flattened onto white first. Quality only applies to JPEG.
func (c *Imaging) Encode(w io.Writer, img image.Image, f domain.Format, quality int) error {
	enc, err := c.registry.Lookup(f)
	if err != nil {
		return &domain.TransformError{Transform: domain.KindConvert, Kind: domain.UnsupportedFormat, Err: err}
	}
	if !f.SupportsAlpha() && !isOpaque(img) {
		img = flatten(img, color.White)
	}
	var opts []imaging.EncodeOption
	switch f {
	case domain.FormatJPEG:
		if quality > 0 {
			opts = append(opts, imaging.JPEGQuality(quality))
		}
	case domain.FormatPNG:
		opts = append(opts, imaging.PNGCompressionLevel(png.DefaultCompression))
	}
	if err := imaging.Encode(w, img, enc, opts...); err != nil {
		return &domain.TransformError{Transform: domain.KindConvert, Kind: domain.EncodingFailure, Err: err}
	}
	return nil
}

// Resize scales img according to mode. See domain.ResizeMode for semantics.
func (c *Imaging) Resize(img image.Image, mode domain.ResizeMode, width, height int) (image.Image, error) {
	if err := (domain.Resize{Mode: mode, Width: width, Height: height}).Validate(); err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, &domain.TransformError{
			Transform: domain.KindResize,
			Kind:      domain.InvalidDimensions,
			Err:       fmt.Errorf("source image is %dx%d", b.Dx(), b.Dy()),
		}
	}
	switch mode {
	case domain.ResizeFit:
		w, h := fitSize(b.Dx(), b.Dy(), width, height)
		return imaging.Resize(img, w, h, c.filter), nil
	case domain.ResizeFill:
		return imaging.Fill(img, width, height, imaging.Center, c.filter), nil
	default:
		return imaging.Resize(img, width, height, c.filter), nil
	}
}

// Composite draws overlay onto img at the anchored position with the given opacity.
func (c *Imaging) Composite(img, overlay image.Image, pos domain.Position, margin int, opacity float64) (image.Image, error) {
	if overlay == nil {
		return nil, &domain.TransformError{
			Transform: domain.KindWatermark,
			Kind:      domain.InvalidParameters,
			Err:       errors.New("nil overlay"),
		}
	}
	pt := anchor(img.Bounds().Size(), overlay.Bounds().Size(), pos, margin)
	return imaging.Overlay(img, overlay, pt, opacity), nil
}

// RenderText rasterizes text with the built-in 7x13 face, then scales it up
// by nearest-neighbor so glyph edges stay crisp.
func (c *Imaging) RenderText(text string, col color.NRGBA, scale int) image.Image {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	height := face.Metrics().Height.Ceil()
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(0, face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
	if scale > 1 && width > 0 {
		return imaging.Resize(dst, width*scale, height*scale, imaging.NearestNeighbor)
	}
	return dst
}

// fitSize returns the largest size with the source aspect ratio that fits
// inside maxW x maxH. Sides never collapse below one pixel.
func fitSize(srcW, srcH, maxW, maxH int) (int, int) {
	ratio := min(float64(maxW)/float64(srcW), float64(maxH)/float64(srcH))
	w := int(float64(srcW) * ratio)
	h := int(float64(srcH) * ratio)
	return max(w, 1), max(h, 1)
}

// anchor computes the top-left point for an overlay of size ov inside an
// image of size im. Points are clamped so the overlay starts inside the image.
func anchor(im, ov image.Point, pos domain.Position, margin int) image.Point {
	left := margin
	hcenter := (im.X - ov.X) / 2
	right := im.X - ov.X - margin
	top := margin
	vcenter := (im.Y - ov.Y) / 2
	bottom := im.Y - ov.Y - margin

	var p image.Point
	switch pos {
	case domain.TopLeft:
		p = image.Pt(left, top)
	case domain.TopCenter:
		p = image.Pt(hcenter, top)
	case domain.TopRight:
		p = image.Pt(right, top)
	case domain.CenterLeft:
		p = image.Pt(left, vcenter)
	case domain.Center:
		p = image.Pt(hcenter, vcenter)
	case domain.CenterRight:
		p = image.Pt(right, vcenter)
	case domain.BottomLeft:
		p = image.Pt(left, bottom)
	case domain.BottomCenter:
		p = image.Pt(hcenter, bottom)
	default:
		p = image.Pt(right, bottom)
	}
	return image.Pt(max(p.X, 0), max(p.Y, 0))
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

func flatten(img image.Image, bg color.Color) image.Image {
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}
