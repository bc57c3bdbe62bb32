package naming

import (
	"strings"
	"unicode"
)

// reserved holds characters that are illegal in file names on at least one
// supported platform.
const reserved = `<>:"/\|?*`

// Sanitize replaces path separators, reserved characters and control
// characters with underscores, then trims surrounding spaces and dots.
// The result is a single path element; it may be empty.
func Sanitize(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(reserved, r) || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, name)
	return strings.Trim(cleaned, " .")
}
