package domain

// ProgressEvent is delivered once when a job reaches a terminal state, and
// optionally once when it starts running.
type ProgressEvent struct {
	BatchID  string
	JobID    JobID
	Index    int
	Status   JobStatus
	Outcome  *Outcome
	Counters Counters
}

// ProgressReporter receives terminal job events.
type ProgressReporter interface {
	OnProgress(ev ProgressEvent)
}

// StartReporter is implemented by reporters that also want running events.
type StartReporter interface {
	OnStart(ev ProgressEvent)
}

// ProgressFunc adapts a plain function to ProgressReporter.
type ProgressFunc func(ev ProgressEvent)

// OnProgress calls f(ev).
func (f ProgressFunc) OnProgress(ev ProgressEvent) { f(ev) }

// Ensure ProgressFunc implements ProgressReporter.
var _ ProgressReporter = ProgressFunc(nil)
