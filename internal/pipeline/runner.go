// Package pipeline runs batches of image jobs on a bounded worker pool,
// isolating failures per job and honoring cooperative cancellation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/waabox/imgdeck/internal/domain"
)

var (
	// ErrNilBatch is returned by Run when no batch is given.
	ErrNilBatch = errors.New("nil batch")
	// ErrNilCodec is returned by Run when the runner was built without a codec.
	ErrNilCodec = errors.New("nil codec")
)

// Options configures a Runner.
type Options struct {
	// Overwrite replaces existing output files instead of failing the job.
	Overwrite bool
	// MaxSourceBytes overrides the source size limit. 0 keeps MaxSourceBytes.
	MaxSourceBytes int64
	// Logger receives debug lines per job. nil discards them.
	Logger *log.Logger
}

// Runner executes batches. It holds no per-batch state and can run many
// batches, one after another or concurrently.
type Runner struct {
	exec   executor
	logger *log.Logger
}

// NewRunner creates a Runner that does all pixel work through c.
func NewRunner(c domain.Codec, opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		exec:   executor{codec: c, overwrite: opts.Overwrite, maxBytes: opts.MaxSourceBytes},
		logger: logger,
	}
}

// Run executes every job of b with at most concurrency jobs in flight.
// concurrency <= 0 uses the number of CPUs. Cancelling ctx stops new jobs
// from starting; running jobs finish and the rest are reported cancelled.
//
// reporter may be nil. Its callbacks are never invoked concurrently.
// The error is non-nil only for a nil batch, a nil codec, or a batch that
// was already run; job failures are reported in the result.
func (r *Runner) Run(ctx context.Context, b *Batch, concurrency int, reporter domain.ProgressReporter) (domain.BatchResult, error) {
	if b == nil {
		return domain.BatchResult{}, ErrNilBatch
	}
	if r.exec.codec == nil {
		return domain.BatchResult{}, ErrNilCodec
	}
	if err := b.claim(); err != nil {
		return domain.BatchResult{}, err
	}

	jobs := b.Jobs()
	n := len(jobs)
	workers := concurrency
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	st := newRunState(b.ID, n, reporter)
	r.logger.Debug("batch started", "batch", b.ID, "jobs", n, "workers", workers)

	queue := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				r.runJob(ctx, st, jobs[i], i)
			}
		}()
	}

dispatch:
	for i := range jobs {
		if ctx.Err() != nil {
			st.cancelFrom(jobs, i)
			break
		}
		select {
		case queue <- i:
		case <-ctx.Done():
			st.cancelFrom(jobs, i)
			break dispatch
		}
	}
	close(queue)
	wg.Wait()

	result := domain.BatchResult{BatchID: b.ID, Outcomes: st.outcomes}
	for _, o := range result.Outcomes {
		if o.Status == domain.StatusCancelled {
			result.Cancelled = true
			break
		}
	}
	c := result.Tally()
	r.logger.Debug("batch finished", "batch", b.ID, "succeeded", c.Succeeded, "failed", c.Failed, "cancelled", c.Cancelled)
	return result, nil
}

// runJob re-checks cancellation, then executes one job and records its outcome.
func (r *Runner) runJob(ctx context.Context, st *runState, job domain.Job, i int) {
	if ctx.Err() != nil {
		st.finish(domain.Outcome{JobID: job.ID, Index: i, Status: domain.StatusCancelled}, false)
		return
	}
	st.start(job, i)

	began := time.Now()
	out, err := r.safeExecute(job)
	outcome := domain.Outcome{JobID: job.ID, Index: i, Duration: time.Since(began)}
	if err != nil {
		outcome.Status = domain.StatusFailed
		outcome.ErrorKind = domain.KindOf(err)
		outcome.Err = err
		r.logger.Debug("job failed", "job", job.ID, "source", job.SourcePath, "err", err)
	} else {
		outcome.Status = domain.StatusSuccess
		outcome.OutputPath = out
		r.logger.Debug("job done", "job", job.ID, "output", out, "took", outcome.Duration)
	}
	st.finish(outcome, true)
}

// safeExecute turns a panic inside the codec into a job failure so a single
// bad image cannot take down the batch.
func (r *Runner) safeExecute(job domain.Job) (out string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic processing %s: %v", job.SourcePath, p)
		}
	}()
	return r.exec.execute(job)
}

// runState holds the shared counters and outcome slots of one run. Events
// are delivered while mu is held, which serializes reporter calls and keeps
// counters monotonic in delivery order.
type runState struct {
	mu       sync.Mutex
	batchID  string
	counters domain.Counters
	outcomes []domain.Outcome
	reporter domain.ProgressReporter
	starter  domain.StartReporter
}

func newRunState(batchID string, total int, reporter domain.ProgressReporter) *runState {
	st := &runState{
		batchID:  batchID,
		counters: domain.Counters{Total: total},
		outcomes: make([]domain.Outcome, total),
		reporter: reporter,
	}
	if sr, ok := reporter.(domain.StartReporter); ok {
		st.starter = sr
	}
	return st
}

func (s *runState) start(job domain.Job, i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.Running++
	if s.starter != nil {
		s.starter.OnStart(domain.ProgressEvent{
			BatchID:  s.batchID,
			JobID:    job.ID,
			Index:    i,
			Status:   domain.StatusRunning,
			Counters: s.counters,
		})
	}
}

func (s *runState) finish(o domain.Outcome, wasRunning bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if wasRunning {
		s.counters.Running--
	}
	s.counters.Completed++
	switch o.Status {
	case domain.StatusSuccess:
		s.counters.Succeeded++
	case domain.StatusFailed:
		s.counters.Failed++
	case domain.StatusCancelled:
		s.counters.Cancelled++
	}
	s.outcomes[o.Index] = o
	if s.reporter != nil {
		oc := o
		s.reporter.OnProgress(domain.ProgressEvent{
			BatchID:  s.batchID,
			JobID:    o.JobID,
			Index:    o.Index,
			Status:   o.Status,
			Outcome:  &oc,
			Counters: s.counters,
		})
	}
}

// cancelFrom marks jobs[from:] as cancelled without running them.
func (s *runState) cancelFrom(jobs []domain.Job, from int) {
	for i := from; i < len(jobs); i++ {
		s.finish(domain.Outcome{JobID: jobs[i].ID, Index: i, Status: domain.StatusCancelled}, false)
	}
}
