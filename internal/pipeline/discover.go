package pipeline

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/waabox/imgdeck/internal/domain"
)

// Discover expands inputs into image files. Files are kept as given when
// they carry a supported extension; directories are scanned (recursively
// when recursive is set), skipping hidden entries. Each directory's results
// are sorted lexicographically, and duplicates are dropped.
func Discover(inputs []string, recursive bool) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			// A missing file becomes a failed job, not a discovery error.
			if os.IsNotExist(err) && domain.IsImagePath(input) {
				add(input)
				continue
			}
			return nil, fmt.Errorf("discover %s: %w", input, err)
		}
		if !info.IsDir() {
			if domain.IsImagePath(input) {
				add(input)
			}
			continue
		}
		found, err := scanDir(input, recursive)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}
	return files, nil
}

func scanDir(root string, recursive bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && domain.IsImagePath(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
