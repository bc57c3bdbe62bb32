// internal/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

// ErrDuplicateJobID is returned when two jobs in one batch share an id.
var ErrDuplicateJobID = errors.New("duplicate job id")

// ErrUnsupportedSource is wrapped by SourceReadError when the source bytes
// are not in any decodable format.
var ErrUnsupportedSource = errors.New("unsupported source format")

// ErrFileTooLarge is wrapped by SourceReadError when the source exceeds the size limit.
var ErrFileTooLarge = errors.New("source file too large")

// ErrImageTooLarge is returned by decoders when the pixel count exceeds the budget.
var ErrImageTooLarge = errors.New("image dimensions exceed limit")

// ErrPathCollision is wrapped by SinkWriteError when the destination already
// exists and overwriting is disabled.
var ErrPathCollision = errors.New("output path already exists")

// ErrorKind classifies why a job failed.
type ErrorKind string

const (
	SourceRead        ErrorKind = "source_read"
	UnsupportedFormat ErrorKind = "unsupported_format"
	InvalidDimensions ErrorKind = "invalid_dimensions"
	IOFailure         ErrorKind = "io_failure"
	EncodingFailure   ErrorKind = "encoding_failure"
	InvalidParameters ErrorKind = "invalid_parameters"
	SinkWrite         ErrorKind = "sink_write"
	Unknown           ErrorKind = "unknown"
)

// SourceReadError reports a missing, unreadable or undecodable source file.
type SourceReadError struct {
	Path string
	Err  error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("read source %s: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *SourceReadError) Unwrap() error { return e.Err }

// TransformError reports a failure inside a single transform.
type TransformError struct {
	Transform TransformKind
	Kind      ErrorKind
	Err       error
}

func (e *TransformError) Error() string {
	if e.Transform == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Transform, e.Kind, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *TransformError) Unwrap() error { return e.Err }

// SinkWriteError reports a failure writing the final output file.
type SinkWriteError struct {
	Path string
	Err  error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("write output %s: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *SinkWriteError) Unwrap() error { return e.Err }

// KindOf maps err to its ErrorKind. It returns "" for a nil error.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var te *TransformError
	if errors.As(err, &te) {
		return te.Kind
	}
	var se *SourceReadError
	if errors.As(err, &se) {
		return SourceRead
	}
	var we *SinkWriteError
	if errors.As(err, &we) {
		return SinkWrite
	}
	return Unknown
}
