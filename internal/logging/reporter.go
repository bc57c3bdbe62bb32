package logging

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/waabox/imgdeck/internal/domain"
)

// Reporter logs one line per job event.
type Reporter struct {
	log  *log.Logger
	jobs []domain.Job
}

// Ensure Reporter implements both reporter interfaces.
var (
	_ domain.ProgressReporter = (*Reporter)(nil)
	_ domain.StartReporter    = (*Reporter)(nil)
)

// NewReporter creates a Reporter for jobs, indexed as in the batch.
func NewReporter(l *log.Logger, jobs []domain.Job) *Reporter {
	return &Reporter{log: l, jobs: jobs}
}

func (r *Reporter) source(i int) string {
	if i >= 0 && i < len(r.jobs) {
		return r.jobs[i].SourcePath
	}
	return ""
}

// OnStart logs at debug level.
func (r *Reporter) OnStart(ev domain.ProgressEvent) {
	r.log.Debug("started", "job", ev.JobID, "source", r.source(ev.Index), "running", ev.Counters.Running)
}

// OnProgress logs the terminal state of a job.
func (r *Reporter) OnProgress(ev domain.ProgressEvent) {
	prefix := fmt.Sprintf("[%d/%d]", ev.Counters.Completed, ev.Counters.Total)
	src := r.source(ev.Index)
	var o domain.Outcome
	if ev.Outcome != nil {
		o = *ev.Outcome
	}

	switch ev.Status {
	case domain.StatusSuccess:
		r.log.Info(prefix+" done", "job", ev.JobID, "source", src, "output", o.OutputPath, "took", o.Duration.Round(time.Millisecond))
	case domain.StatusFailed:
		r.log.Error(prefix+" failed", "job", ev.JobID, "source", src, "kind", o.ErrorKind, "err", o.Err)
	default:
		r.log.Warn(prefix+" cancelled", "job", ev.JobID, "source", src)
	}
}

// Summary logs the end-of-batch tally and each failure.
func Summary(l *log.Logger, res domain.BatchResult, elapsed time.Duration) {
	c := res.Tally()
	l.Info("batch finished",
		"batch", res.BatchID,
		"total", c.Total,
		"succeeded", c.Succeeded,
		"failed", c.Failed,
		"cancelled", c.Cancelled,
		"elapsed", elapsed.Round(time.Millisecond),
	)
	for _, o := range res.Failures() {
		l.Error("failure", "job", o.JobID, "kind", o.ErrorKind, "err", o.Err)
	}
	if res.Cancelled {
		l.Warn("batch was cancelled before all jobs started")
	}
}
