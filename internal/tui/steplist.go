package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/waabox/imgdeck/internal/domain"
)

// Step is one stage of a job: decode, each transform in order, then write.
type Step struct {
	Name   string
	Status domain.JobStatus
}

// StepsFor derives per-stage status from the job's state and failure.
func StepsFor(r JobRow) []Step {
	steps := make([]Step, 0, len(r.Job.Transforms)+2)
	steps = append(steps, Step{Name: "decode"})
	for _, t := range r.Job.Transforms {
		steps = append(steps, Step{Name: describe(t)})
	}
	steps = append(steps, Step{Name: "encode and write"})

	switch r.Status {
	case domain.StatusSuccess:
		fill(steps, 0, len(steps), domain.StatusSuccess)
	case domain.StatusRunning:
		steps[0].Status = domain.StatusRunning
		fill(steps, 1, len(steps), domain.StatusPending)
	case domain.StatusCancelled:
		fill(steps, 0, len(steps), domain.StatusCancelled)
	case domain.StatusFailed:
		at := failedStep(r)
		fill(steps, 0, at, domain.StatusSuccess)
		steps[at].Status = domain.StatusFailed
		fill(steps, at+1, len(steps), domain.StatusCancelled)
	default:
		fill(steps, 0, len(steps), domain.StatusPending)
	}
	return steps
}

func failedStep(r JobRow) int {
	last := len(r.Job.Transforms) + 1
	if r.Outcome == nil || r.Outcome.Err == nil {
		return last
	}
	var se *domain.SourceReadError
	if errors.As(r.Outcome.Err, &se) {
		return 0
	}
	var te *domain.TransformError
	if errors.As(r.Outcome.Err, &te) && te.Transform != "" {
		for i, t := range r.Job.Transforms {
			if t.Kind() == te.Transform {
				return i + 1
			}
		}
	}
	return last
}

func fill(steps []Step, from, to int, s domain.JobStatus) {
	for i := from; i < to; i++ {
		steps[i].Status = s
	}
}

func describe(t domain.Transform) string {
	switch v := t.(type) {
	case domain.Convert:
		if v.Quality > 0 {
			return fmt.Sprintf("convert to %s (quality %d)", v.Format, v.Quality)
		}
		return fmt.Sprintf("convert to %s", v.Format)
	case domain.Resize:
		return fmt.Sprintf("resize %s %dx%d", v.Mode, v.Width, v.Height)
	case domain.Watermark:
		if v.Overlay != nil {
			return fmt.Sprintf("watermark image %s %.0f%%", v.Position, v.Opacity*100)
		}
		return fmt.Sprintf("watermark %q %s %.0f%%", v.Text, v.Position, v.Opacity*100)
	case domain.Rename:
		return fmt.Sprintf("rename %s", v.Pattern)
	default:
		return string(t.Kind())
	}
}

// StepListModel is an immutable model for the steps panel.
type StepListModel struct {
	steps  []Step
	cursor int
}

// NewStepListModel creates a step list model.
func NewStepListModel(steps []Step) StepListModel {
	return StepListModel{steps: steps, cursor: 0}
}

// MoveDown returns a new model with the cursor moved down by one.
func (m StepListModel) MoveDown() StepListModel {
	if m.cursor < len(m.steps)-1 {
		m.cursor++
	}
	return m
}

// MoveUp returns a new model with the cursor moved up by one.
func (m StepListModel) MoveUp() StepListModel {
	if m.cursor > 0 {
		m.cursor--
	}
	return m
}

// Cursor returns the current cursor position.
func (m StepListModel) Cursor() int {
	return m.cursor
}

// Steps returns the full step slice.
func (m StepListModel) Steps() []Step {
	return m.steps
}

// View renders the step list as a string with cursor indicators.
func (m StepListModel) View() string {
	if len(m.steps) == 0 {
		return "No steps found."
	}
	var sb strings.Builder
	for i, s := range m.steps {
		prefix := "  "
		if i == m.cursor {
			prefix = cursorStyle.Render(">") + " "
		}
		sb.WriteString(fmt.Sprintf("%s%s %s\n", prefix, statusIcon(s.Status), truncate(s.Name, 50)))
	}
	return sb.String()
}
