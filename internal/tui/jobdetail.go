package tui

import (
	"fmt"
	"strings"
)

// JobDetailModel shows a single job: paths, result and its steps.
type JobDetailModel struct {
	row   JobRow
	steps StepListModel
}

// NewJobDetailModel creates a detail model for row.
func NewJobDetailModel(row JobRow) JobDetailModel {
	return JobDetailModel{row: row, steps: NewStepListModel(StepsFor(row))}
}

// Refresh returns a model for the updated row, keeping the step cursor.
func (m JobDetailModel) Refresh(row JobRow) JobDetailModel {
	cursor := m.steps.Cursor()
	m.row = row
	m.steps = NewStepListModel(StepsFor(row))
	for i := 0; i < cursor; i++ {
		m.steps = m.steps.MoveDown()
	}
	return m
}

// MoveDown returns a new model with the step cursor moved down by one.
func (m JobDetailModel) MoveDown() JobDetailModel {
	m.steps = m.steps.MoveDown()
	return m
}

// MoveUp returns a new model with the step cursor moved up by one.
func (m JobDetailModel) MoveUp() JobDetailModel {
	m.steps = m.steps.MoveUp()
	return m
}

// Row returns the job shown.
func (m JobDetailModel) Row() JobRow {
	return m.row
}

// View renders the detail panel.
func (m JobDetailModel) View() string {
	if m.row.Job.ID == "" {
		return "Select a job to see its steps."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(" Source:  %s\n", m.row.Job.SourcePath))
	sb.WriteString(fmt.Sprintf(" Output:  %s\n", m.row.Job.OutputPath))
	sb.WriteString(fmt.Sprintf(" Status:  %s %s\n", statusIcon(m.row.Status), m.row.Status))
	if o := m.row.Outcome; o != nil {
		if o.Duration > 0 {
			sb.WriteString(fmt.Sprintf(" Took:    %s\n", formatDuration(o.Duration)))
		}
		if o.Err != nil {
			sb.WriteString(errorStyle.Render(fmt.Sprintf(" Error:   [%s] %v", o.ErrorKind, o.Err)) + "\n")
		}
	}
	sb.WriteString("\n")
	sb.WriteString(m.steps.View())
	return sb.String()
}
