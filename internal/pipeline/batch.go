package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/waabox/imgdeck/internal/domain"
)

// ErrBatchConsumed is returned by Run when the batch has already been run.
var ErrBatchConsumed = errors.New("batch already run")

// Batch is an ordered, immutable set of jobs that can be run once.
type Batch struct {
	ID   string
	jobs []domain.Job

	mu       sync.Mutex
	consumed bool
}

// NewBatch validates jobs and freezes them into a batch. Job ids must be
// unique and every job needs a source and an output path. Transform
// parameters are not checked here; a bad transform fails only its own job.
func NewBatch(jobs []domain.Job) (*Batch, error) {
	ids := make(map[domain.JobID]bool, len(jobs))
	frozen := make([]domain.Job, len(jobs))
	for i, j := range jobs {
		if j.ID == "" {
			return nil, fmt.Errorf("job %d has no id", i)
		}
		if ids[j.ID] {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateJobID, j.ID)
		}
		ids[j.ID] = true
		if j.SourcePath == "" || j.OutputPath == "" {
			return nil, fmt.Errorf("job %s needs a source and an output path", j.ID)
		}
		j.Transforms = append([]domain.Transform(nil), j.Transforms...)
		frozen[i] = j
	}
	return &Batch{ID: uuid.NewString(), jobs: frozen}, nil
}

// Len returns the number of jobs.
func (b *Batch) Len() int { return len(b.jobs) }

// Jobs returns a copy of the jobs in submission order.
func (b *Batch) Jobs() []domain.Job {
	out := make([]domain.Job, len(b.jobs))
	copy(out, b.jobs)
	return out
}

// claim marks the batch as run. It fails on the second call.
func (b *Batch) claim() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.consumed {
		return ErrBatchConsumed
	}
	b.consumed = true
	return nil
}
