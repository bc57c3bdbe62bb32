package codec

import (
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/waabox/imgdeck/internal/domain"
)

// Registry maps output formats to imaging encoders.
type Registry struct {
	entries []entry
}

type entry struct {
	format  domain.Format
	encoder imaging.Format
}

// NewRegistry creates an empty encoder registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry registers every format imaging can encode.
// WebP is decode-only and deliberately absent.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(domain.FormatJPEG, imaging.JPEG)
	r.Register(domain.FormatPNG, imaging.PNG)
	r.Register(domain.FormatGIF, imaging.GIF)
	r.Register(domain.FormatBMP, imaging.BMP)
	r.Register(domain.FormatTIFF, imaging.TIFF)
	return r
}

// Register associates a domain format with an imaging encoder.
// A later registration for the same format replaces the earlier one.
func (r *Registry) Register(f domain.Format, enc imaging.Format) {
	for i, e := range r.entries {
		if e.format == f {
			r.entries[i].encoder = enc
			return
		}
	}
	r.entries = append(r.entries, entry{format: f, encoder: enc})
}

// Lookup returns the encoder registered for f.
// Returns an error if no encoder is registered.
func (r *Registry) Lookup(f domain.Format) (imaging.Format, error) {
	for _, e := range r.entries {
		if e.format == f {
			return e.encoder, nil
		}
	}
	return 0, fmt.Errorf("no encoder registered for format: %s", f)
}

// Formats lists the registered formats in registration order.
func (r *Registry) Formats() []domain.Format {
	out := make([]domain.Format, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.format)
	}
	return out
}
