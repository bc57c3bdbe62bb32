package pipeline

import (
	"fmt"

	"github.com/waabox/imgdeck/internal/domain"
	"github.com/waabox/imgdeck/internal/naming"
	"github.com/waabox/imgdeck/internal/transform"
)

// Builder turns source paths into jobs with unique ids and collision-free
// output paths. Output paths are claimed in the order jobs are added.
// A Builder can outlive a single batch, so a watch session keeps numbering
// and collision tracking across batches.
type Builder struct {
	outputDir  string
	indexStart int
	resolver   *naming.Resolver
	next       int
}

// NewBuilder creates a Builder writing into outputDir ("" writes next to
// each source). Unless overwrite is set, files already on disk count as
// taken and new outputs get a numeric suffix instead.
func NewBuilder(outputDir string, overwrite bool, indexStart int) *Builder {
	exists := naming.FileExists
	if overwrite {
		exists = nil
	}
	return &Builder{
		outputDir:  outputDir,
		indexStart: indexStart,
		resolver:   naming.NewResolver(exists),
	}
}

// Add builds the next job. outputDir overrides the builder default when
// non-empty. Rename transforms get the job index filled in.
func (b *Builder) Add(source, outputDir string, ts []domain.Transform) (domain.Job, error) {
	if outputDir == "" {
		outputDir = b.outputDir
	}
	index := b.indexStart + b.next
	ts = withIndex(ts, index)

	dest, err := transform.Destination(source, outputDir, ts)
	if err != nil {
		return domain.Job{}, fmt.Errorf("output path for %s: %w", source, err)
	}
	b.next++
	id := domain.JobID(fmt.Sprintf("job-%04d", index))
	return domain.Job{
		ID:         id,
		SourcePath: source,
		Transforms: ts,
		OutputPath: b.resolver.Resolve(string(id), dest),
	}, nil
}

// AddAll builds one job per source sharing the same transforms.
func (b *Builder) AddAll(sources []string, ts []domain.Transform) ([]domain.Job, error) {
	jobs := make([]domain.Job, 0, len(sources))
	for _, src := range sources {
		j, err := b.Add(src, "", ts)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// withIndex copies ts with every Rename bound to index.
func withIndex(ts []domain.Transform, index int) []domain.Transform {
	out := make([]domain.Transform, len(ts))
	for i, t := range ts {
		if r, ok := t.(domain.Rename); ok {
			r.Index = index
			t = r
		}
		out[i] = t
	}
	return out
}
