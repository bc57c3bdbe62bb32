package domain

import "time"

// JobStatus represents the execution state of a job.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusSuccess   JobStatus = "success"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether s is a final state.
func (s JobStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusCancelled
}

// CanTransition enforces pending -> running -> {success, failed, cancelled},
// plus pending -> cancelled for jobs that never start.
func CanTransition(from, to JobStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusRunning || to == StatusCancelled
	case StatusRunning:
		return to.Terminal()
	default:
		return false
	}
}

// JobID identifies a job within its batch.
type JobID string

// Job binds one source image to its transforms and destination.
// OutputPath is final: the pipeline writes exactly there and does not
// recompute it from the transforms. Build jobs with pipeline.Builder, which
// derives it from the Convert and Rename steps and resolves collisions. A
// hand-built job whose OutputPath extension disagrees with the encoded
// format fails with invalid_parameters.
type Job struct {
	ID         JobID
	SourcePath string
	Transforms []Transform
	OutputPath string
}

// Outcome is the terminal result of a job.
type Outcome struct {
	JobID      JobID
	Index      int
	Status     JobStatus
	ErrorKind  ErrorKind
	Err        error
	OutputPath string
	Duration   time.Duration
}

// Counters are the aggregate progress of a batch run.
type Counters struct {
	Total     int
	Completed int
	Succeeded int
	Failed    int
	Cancelled int
	Running   int
}

// BatchResult holds every job outcome in submission order.
type BatchResult struct {
	BatchID   string
	Outcomes  []Outcome
	Cancelled bool
}

// Tally counts outcomes by status.
func (r BatchResult) Tally() Counters {
	c := Counters{Total: len(r.Outcomes)}
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusSuccess:
			c.Succeeded++
		case StatusFailed:
			c.Failed++
		case StatusCancelled:
			c.Cancelled++
		}
	}
	c.Completed = c.Succeeded + c.Failed + c.Cancelled
	return c
}

// Failures returns only the failed outcomes.
func (r BatchResult) Failures() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			failed = append(failed, o)
		}
	}
	return failed
}
