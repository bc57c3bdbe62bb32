package naming

import (
	"fmt"
	"strconv"
	"strings"
)

// maxIndexWidth caps the zero-padding of {index:N}.
const maxIndexWidth = 12

// Vars are the values a rename pattern can reference.
type Vars struct {
	// Name is the current file name without directory or extension. It is
	// the source stem unless an earlier rename changed it.
	Name string
	// Index is the job position in the batch.
	Index int
	// Ext is the extension of the current format without the dot ("jpg").
	Ext string
	// Format is the current format name ("jpeg").
	Format string
}

// Render expands the tokens in pattern:
//
//	{name}     source stem
//	{index}    job index
//	{index:N}  job index zero-padded to N digits
//	{ext}      current extension
//	{format}   current format name
//
// Everything outside braces is copied literally. The rendered name is
// sanitized and the current extension is appended unless the name already
// ends with it.
func Render(pattern string, v Vars) (string, error) {
	var b strings.Builder
	rest := pattern
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:open])
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", fmt.Errorf("unclosed token in pattern %q", pattern)
		}
		token := rest[open+1 : open+end]
		val, err := expand(token, v)
		if err != nil {
			return "", err
		}
		b.WriteString(val)
		rest = rest[open+end+1:]
	}

	name := Sanitize(b.String())
	if name == "" {
		return "", fmt.Errorf("pattern %q renders an empty file name", pattern)
	}
	if v.Ext != "" && !strings.HasSuffix(strings.ToLower(name), "."+strings.ToLower(v.Ext)) {
		name += "." + v.Ext
	}
	return name, nil
}

func expand(token string, v Vars) (string, error) {
	key, arg, hasArg := strings.Cut(token, ":")
	switch key {
	case "name":
		return v.Name, nil
	case "ext":
		return v.Ext, nil
	case "format":
		return v.Format, nil
	case "index":
		if !hasArg {
			return strconv.Itoa(v.Index), nil
		}
		width, err := strconv.Atoi(arg)
		if err != nil || width < 1 || width > maxIndexWidth {
			return "", fmt.Errorf("invalid index width %q", arg)
		}
		return fmt.Sprintf("%0*d", width, v.Index), nil
	default:
		return "", fmt.Errorf("unknown token {%s}", token)
	}
}
