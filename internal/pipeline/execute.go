package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/waabox/imgdeck/internal/domain"
	"github.com/waabox/imgdeck/internal/transform"
)

// MaxSourceBytes is the largest source file a job will read.
const MaxSourceBytes = 50 << 20

// executor runs one job end to end. It holds no per-job state so one value
// is shared by all workers.
type executor struct {
	codec     domain.Codec
	overwrite bool
	maxBytes  int64
}

// execute reads, decodes, folds, encodes and writes job. It returns the
// written path. The output file only appears once every step succeeded.
func (e executor) execute(job domain.Job) (string, error) {
	data, err := e.readSource(job.SourcePath)
	if err != nil {
		return "", &domain.SourceReadError{Path: job.SourcePath, Err: err}
	}

	img, format, err := e.codec.Decode(bytes.NewReader(data))
	if err != nil {
		return "", &domain.SourceReadError{Path: job.SourcePath, Err: err}
	}

	frame, err := transform.Fold(e.codec, domain.Frame{Image: img, Format: format, Path: job.OutputPath}, job.Transforms)
	if err != nil {
		return "", err
	}
	if err := checkExtension(job.OutputPath, frame.Path); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := e.codec.Encode(&buf, frame.Image, frame.Format, transform.Quality(job.Transforms)); err != nil {
		var te *domain.TransformError
		if errors.As(err, &te) {
			return "", err
		}
		return "", &domain.TransformError{Transform: domain.KindConvert, Kind: domain.EncodingFailure, Err: err}
	}

	if err := writeAtomic(job.OutputPath, buf.Bytes(), e.overwrite); err != nil {
		return "", &domain.SinkWriteError{Path: job.OutputPath, Err: err}
	}
	return job.OutputPath, nil
}

// checkExtension rejects a job whose OutputPath extension disagrees with the
// format its steps encode, as happens when a Job is built by hand with a
// stale OutputPath. The stem is not compared because the Builder may have
// added a collision suffix.
func checkExtension(outputPath, folded string) error {
	got, ok := domain.FormatFromPath(folded)
	if !ok {
		return nil
	}
	if want, _ := domain.FormatFromPath(outputPath); want != got {
		return &domain.TransformError{
			Transform: domain.KindConvert,
			Kind:      domain.InvalidParameters,
			Err:       fmt.Errorf("output path %s does not end in %s", outputPath, got.Ext()),
		}
	}
	return nil
}

func (e executor) readSource(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	limit := e.maxBytes
	if limit <= 0 {
		limit = MaxSourceBytes
	}
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > limit {
		return nil, fmt.Errorf("%w: %d bytes", domain.ErrFileTooLarge, info.Size())
	}
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, domain.ErrFileTooLarge
	}
	return data, nil
}
