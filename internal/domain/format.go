package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies an image container format.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
	FormatWebP Format = "webp"
)

// extensions maps lowercase file extensions (with dot) to formats.
var extensions = map[string]Format{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
	".gif":  FormatGIF,
	".bmp":  FormatBMP,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
	".webp": FormatWebP,
}

// ParseFormat accepts a format name or extension in any case ("JPG", ".png", "tiff").
func ParseFormat(s string) (Format, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return "", fmt.Errorf("empty image format")
	}
	if !strings.HasPrefix(key, ".") {
		key = "." + key
	}
	f, ok := extensions[key]
	if !ok {
		return "", fmt.Errorf("unknown image format %q", s)
	}
	return f, nil
}

// FormatFromPath returns the format implied by the file extension of path.
func FormatFromPath(path string) (Format, bool) {
	f, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// IsImagePath reports whether path has a supported image extension.
func IsImagePath(path string) bool {
	_, ok := FormatFromPath(path)
	return ok
}

// Ext returns the canonical file extension for f, including the leading dot.
func (f Format) Ext() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatTIFF:
		return ".tiff"
	case "":
		return ""
	default:
		return "." + string(f)
	}
}

// SupportsAlpha reports whether the format can store transparency.
func (f Format) SupportsAlpha() bool {
	switch f {
	case FormatJPEG, FormatBMP:
		return false
	default:
		return true
	}
}
