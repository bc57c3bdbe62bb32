package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/waabox/imgdeck/internal/domain"
)

// JobStartedMsg is sent when a job begins running.
// It is exported so that tests can inject it directly into AppModel.Update.
type JobStartedMsg struct {
	Event domain.ProgressEvent
}

// JobFinishedMsg is sent when a job reaches a terminal state.
type JobFinishedMsg struct {
	Event domain.ProgressEvent
}

// BatchDoneMsg is sent once the runner has returned.
type BatchDoneMsg struct {
	Result domain.BatchResult
	Err    error
}

// cancelRequestedMsg is sent after the batch context has been cancelled.
type cancelRequestedMsg struct{}

// tickMsg refreshes the elapsed time while the batch runs.
type tickMsg struct{}

// viewState indicates the current navigation level.
type viewState int

const (
	viewJobs viewState = iota
	viewDetail
	viewSummary
)

// AppModel is the root Bubbletea model for imgdeck.
type AppModel struct {
	title  string
	cancel func()
	// Navigation
	view viewState
	// Job level
	list JobListModel
	// Detail level
	detail      JobDetailModel
	detailIndex int
	// Batch state
	counters   domain.Counters
	started    time.Time
	elapsed    time.Duration
	done       bool
	cancelling bool
	result     domain.BatchResult
	err        error
	// General state
	width         int
	height        int
	confirmAction string
}

// NewAppModel creates the root application model for jobs. cancel stops
// the batch; it may be nil.
func NewAppModel(title string, jobs []domain.Job, cancel func()) AppModel {
	return AppModel{
		title:    title,
		cancel:   cancel,
		list:     NewJobListModel(jobs),
		counters: domain.Counters{Total: len(jobs)},
		started:  time.Now(),
	}
}

// Init starts the elapsed-time ticker.
func (m AppModel) Init() tea.Cmd {
	return tickEvery(time.Second)
}

func tickEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(_ time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m AppModel) requestCancel() tea.Cmd {
	cancel := m.cancel
	return func() tea.Msg {
		if cancel != nil {
			cancel()
		}
		return cancelRequestedMsg{}
	}
}

// Done reports whether the batch has finished.
func (m AppModel) Done() bool {
	return m.done
}

// Counters returns the latest progress counters.
func (m AppModel) Counters() domain.Counters {
	return m.counters
}

// Update handles all incoming messages and key events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case JobStartedMsg:
		m = m.apply(msg.Event)

	case JobFinishedMsg:
		m = m.apply(msg.Event)

	case BatchDoneMsg:
		m.done = true
		m.confirmAction = ""
		m.elapsed = time.Since(m.started)
		m.result = msg.Result
		m.err = msg.Err
		if len(msg.Result.Outcomes) > 0 {
			m.counters = msg.Result.Tally()
		}
		m.counters.Running = 0

	case cancelRequestedMsg:
		m.cancelling = true

	case tickMsg:
		if m.done {
			return m, nil
		}
		m.elapsed = time.Since(m.started)
		return m, tickEvery(time.Second)

	case tea.KeyMsg:
		if m.confirmAction != "" {
			switch msg.String() {
			case "y":
				action := m.confirmAction
				m.confirmAction = ""
				if action == "quit" {
					return m, tea.Quit
				}
				return m, m.requestCancel()
			case "ctrl+c":
				return m, tea.Quit
			default:
				m.confirmAction = ""
				return m, nil
			}
		}
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.done {
				return m, tea.Quit
			}
			m.confirmAction = "quit"
			return m, nil
		case "x":
			if !m.done && !m.cancelling {
				m.confirmAction = "cancel"
			}
			return m, nil
		}
		switch m.view {
		case viewJobs:
			return m.updateJobs(msg)
		case viewDetail:
			return m.updateDetail(msg)
		case viewSummary:
			if msg.String() == "esc" || msg.String() == "s" {
				m.view = viewJobs
			}
		}
	}
	return m, nil
}

func (m AppModel) apply(ev domain.ProgressEvent) AppModel {
	m.list = m.list.Apply(ev)
	if !m.done {
		m.counters = ev.Counters
	}
	if m.view == viewDetail && ev.Index == m.detailIndex {
		m.detail = m.detail.Refresh(m.list.Rows()[ev.Index])
	}
	return m
}

func (m AppModel) updateJobs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "down":
		m.list = m.list.MoveDown()
	case "up":
		m.list = m.list.MoveUp()
	case "enter":
		if len(m.list.Rows()) > 0 {
			m.detailIndex = m.list.SelectedIndex()
			m.detail = NewJobDetailModel(m.list.Selected())
			m.view = viewDetail
		}
	case "s":
		if m.done {
			m.view = viewSummary
		}
	}
	return m, nil
}

func (m AppModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "down":
		m.detail = m.detail.MoveDown()
	case "up":
		m.detail = m.detail.MoveUp()
	case "esc":
		m.view = viewJobs
	}
	return m, nil
}

// View renders the full TUI.
func (m AppModel) View() string {
	header := titleStyle.Render(fmt.Sprintf(" imgdeck | %s", m.title)) + "\n" + m.progressLine()
	switch m.view {
	case viewDetail:
		return m.renderDetailView(header)
	case viewSummary:
		return m.renderSummaryView(header)
	default:
		return m.renderJobsView(header)
	}
}

func (m AppModel) progressLine() string {
	c := m.counters
	const width = 30
	filled := 0
	if c.Total > 0 {
		filled = c.Completed * width / c.Total
	}
	bar := strings.Repeat("█", filled) + dimStyle.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf(" %s %d/%d  %s %d  %s %d  %s %d  %s %d  %s\n",
		bar, c.Completed, c.Total,
		statusIcon(domain.StatusSuccess), c.Succeeded,
		statusIcon(domain.StatusFailed), c.Failed,
		statusIcon(domain.StatusCancelled), c.Cancelled,
		statusIcon(domain.StatusRunning), c.Running,
		formatDuration(m.elapsed.Round(100*time.Millisecond)),
	)
}

func (m AppModel) footer(keys string) string {
	switch {
	case m.confirmAction == "cancel":
		return " Cancel the batch? Running jobs will finish. [y/N] \n"
	case m.confirmAction == "quit":
		return " Quit and cancel the running batch? [y/N] \n"
	case m.done && m.err != nil:
		return errorStyle.Render(fmt.Sprintf(" Error: %v", m.err)) + "   q: quit\n"
	case m.done:
		return " Done. " + keys + "   s: summary   q: quit\n"
	case m.cancelling:
		return runningStyle.Render(" Cancelling, waiting for running jobs...") + "\n"
	default:
		return " " + keys + "   x: cancel   q: quit\n"
	}
}

func (m AppModel) renderJobsView(header string) string {
	title := " Jobs\n"
	height := 0
	if m.height > 0 {
		height = m.height - 8
		if height < 3 {
			height = 3
		}
	}
	listView := m.list.View(height)
	return header + separatorLine + title + listView + "\n" + separatorLine + m.footer("↑/↓: navigate   enter: steps")
}

func (m AppModel) renderDetailView(header string) string {
	title := fmt.Sprintf(" Steps for %s\n", filepath.Base(m.detail.Row().Job.SourcePath))
	return header + separatorLine + title + m.detail.View() + "\n" + separatorLine + m.footer("↑/↓: navigate   esc: back")
}

func (m AppModel) renderSummaryView(header string) string {
	c := m.counters
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(" Processed %d images in %s: %d succeeded, %d failed, %d cancelled\n\n",
		c.Total, formatDuration(m.elapsed), c.Succeeded, c.Failed, c.Cancelled))
	failures := m.result.Failures()
	if len(failures) == 0 {
		sb.WriteString(successStyle.Render(" No failures.") + "\n")
	}
	rows := m.list.Rows()
	for _, o := range failures {
		src := ""
		if o.Index >= 0 && o.Index < len(rows) {
			src = filepath.Base(rows[o.Index].Job.SourcePath)
		}
		sb.WriteString(fmt.Sprintf(" %s %-25s %s\n", statusIcon(domain.StatusFailed), truncate(src, 25), errorStyle.Render(fmt.Sprintf("[%s] %v", o.ErrorKind, o.Err))))
	}
	return header + separatorLine + " Summary\n" + sb.String() + "\n" + separatorLine + " esc: back   q: quit\n"
}

// Reporter forwards runner events into a running Bubbletea program.
type Reporter struct {
	send func(tea.Msg)
}

// Ensure Reporter implements both reporter interfaces.
var (
	_ domain.ProgressReporter = (*Reporter)(nil)
	_ domain.StartReporter    = (*Reporter)(nil)
)

// NewReporter creates a Reporter around send, usually (*tea.Program).Send.
func NewReporter(send func(tea.Msg)) *Reporter {
	return &Reporter{send: send}
}

// OnStart sends a JobStartedMsg.
func (r *Reporter) OnStart(ev domain.ProgressEvent) {
	r.send(JobStartedMsg{Event: ev})
}

// OnProgress sends a JobFinishedMsg.
func (r *Reporter) OnProgress(ev domain.ProgressEvent) {
	r.send(JobFinishedMsg{Event: ev})
}

// Run shows the progress UI while exec runs the batch with the UI's
// reporter. Leaving the UI calls cancel, and Run waits for exec to return.
func Run(ctx context.Context, cancel context.CancelFunc, title string, jobs []domain.Job, exec func(context.Context, domain.ProgressReporter) (domain.BatchResult, error)) (domain.BatchResult, error) {
	p := tea.NewProgram(NewAppModel(title, jobs, cancel), tea.WithAltScreen())

	type runResult struct {
		res domain.BatchResult
		err error
	}
	done := make(chan runResult, 1)
	go func() {
		res, err := exec(ctx, NewReporter(p.Send))
		done <- runResult{res: res, err: err}
		p.Send(BatchDoneMsg{Result: res, Err: err})
	}()

	_, uiErr := p.Run()
	cancel()
	out := <-done
	if uiErr != nil && out.err == nil {
		return out.res, fmt.Errorf("imgdeck ui: %w", uiErr)
	}
	return out.res, out.err
}
