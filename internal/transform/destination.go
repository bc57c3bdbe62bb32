package transform

import (
	"errors"
	"path/filepath"

	"github.com/waabox/imgdeck/internal/domain"
)

// ErrOverwritesSource is returned when a destination resolves to the source file itself.
var ErrOverwritesSource = errors.New("output path equals source path")

// Destination computes where source ends up after ts without decoding any
// pixels. Only Convert and Rename affect the result. An empty outputDir
// writes next to the source.
func Destination(source, outputDir string, ts []domain.Transform) (string, error) {
	dir := outputDir
	if dir == "" {
		dir = filepath.Dir(source)
	}
	format, _ := domain.FormatFromPath(source)
	f := domain.Frame{Format: format, Path: filepath.Join(dir, filepath.Base(source))}

	for _, t := range ts {
		switch t.(type) {
		case domain.Convert, domain.Rename:
			next, err := Apply(nil, f, t)
			if err != nil {
				return "", err
			}
			f = next
		}
	}

	if sameFile(f.Path, source) {
		return "", ErrOverwritesSource
	}
	return f.Path, nil
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
