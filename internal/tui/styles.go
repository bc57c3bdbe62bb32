package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/waabox/imgdeck/internal/domain"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	runningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	cancelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	separatorLine = dimStyle.Render("────────────────────────────────────────────────────────────") + "\n"
)

func statusIcon(s domain.JobStatus) string {
	switch s {
	case domain.StatusSuccess:
		return successStyle.Render("✓")
	case domain.StatusFailed:
		return errorStyle.Render("✗")
	case domain.StatusRunning:
		return runningStyle.Render("●")
	case domain.StatusPending:
		return dimStyle.Render("↷")
	case domain.StatusCancelled:
		return cancelStyle.Render("○")
	default:
		return "?"
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
