package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/waabox/imgdeck/internal/domain"
)

// JobRow is a job and its latest known state.
type JobRow struct {
	Job     domain.Job
	Status  domain.JobStatus
	Outcome *domain.Outcome
}

// JobListModel is an immutable model for the job list panel.
type JobListModel struct {
	rows   []JobRow
	cursor int
}

// NewJobListModel creates a list with every job pending.
func NewJobListModel(jobs []domain.Job) JobListModel {
	rows := make([]JobRow, len(jobs))
	for i, j := range jobs {
		rows[i] = JobRow{Job: j, Status: domain.StatusPending}
	}
	return JobListModel{rows: rows}
}

// MoveDown returns a new model with the cursor moved down by one.
func (m JobListModel) MoveDown() JobListModel {
	if m.cursor < len(m.rows)-1 {
		m.cursor++
	}
	return m
}

// MoveUp returns a new model with the cursor moved up by one.
func (m JobListModel) MoveUp() JobListModel {
	if m.cursor > 0 {
		m.cursor--
	}
	return m
}

// SelectedIndex returns the current cursor position.
func (m JobListModel) SelectedIndex() int {
	return m.cursor
}

// Selected returns the highlighted row, or a zero JobRow if the list is empty.
func (m JobListModel) Selected() JobRow {
	if len(m.rows) == 0 {
		return JobRow{}
	}
	return m.rows[m.cursor]
}

// Rows returns the rows in submission order.
func (m JobListModel) Rows() []JobRow {
	return m.rows
}

// Apply returns a new model with the event's job updated. Events for
// unknown indexes are ignored.
func (m JobListModel) Apply(ev domain.ProgressEvent) JobListModel {
	if ev.Index < 0 || ev.Index >= len(m.rows) {
		return m
	}
	rows := make([]JobRow, len(m.rows))
	copy(rows, m.rows)
	rows[ev.Index].Status = ev.Status
	if ev.Outcome != nil {
		o := *ev.Outcome
		rows[ev.Index].Outcome = &o
	}
	m.rows = rows
	return m
}

// View renders up to height rows, scrolled to keep the cursor visible.
// height <= 0 renders every row.
func (m JobListModel) View(height int) string {
	if len(m.rows) == 0 {
		return "No images in this batch."
	}
	start, end := 0, len(m.rows)
	if height > 0 && len(m.rows) > height {
		start = m.cursor - height/2
		if start < 0 {
			start = 0
		}
		end = start + height
		if end > len(m.rows) {
			end = len(m.rows)
			start = end - height
		}
	}

	var sb strings.Builder
	for i := start; i < end; i++ {
		r := m.rows[i]
		prefix := "  "
		if i == m.cursor {
			prefix = cursorStyle.Render(">") + " "
		}
		sb.WriteString(fmt.Sprintf("%s%s %-30s %s\n",
			prefix,
			statusIcon(r.Status),
			truncate(filepath.Base(r.Job.SourcePath), 30),
			rowDetail(r),
		))
	}
	return sb.String()
}

func rowDetail(r JobRow) string {
	switch r.Status {
	case domain.StatusSuccess:
		took := "--"
		if r.Outcome != nil && r.Outcome.Duration > 0 {
			took = formatDuration(r.Outcome.Duration)
		}
		return dimStyle.Render(fmt.Sprintf("-> %s  %s", filepath.Base(r.Job.OutputPath), took))
	case domain.StatusFailed:
		if r.Outcome != nil {
			return errorStyle.Render(string(r.Outcome.ErrorKind))
		}
		return errorStyle.Render("failed")
	case domain.StatusRunning:
		return runningStyle.Render("processing")
	case domain.StatusCancelled:
		return cancelStyle.Render("cancelled")
	default:
		return ""
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
