package theme

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"
)

// Colors
var (
	Primary   = lipgloss.Color("#33A8FF")
	Secondary = lipgloss.Color("#163047")
	Muted     = lipgloss.Color("#6B7280")
	Success   = lipgloss.Color("#10B981")
	Warning   = lipgloss.Color("#F59E0B")
	Error     = lipgloss.Color("#EF4444")
)

// Shared styles
var (
	StepStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	HeaderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(Muted)

	ProfileStyle = lipgloss.NewStyle().
			Foreground(Secondary)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(Warning)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	SummaryBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1)
)

// StatusColor maps NAT gateway, route and instance states to theme colors.
func StatusColor(status string) color.Color {
	switch strings.ToLower(status) {
	case "available", "running", "active", "ok", "converted", "done",
		"stopped", "terminated":
		return Success
	case "failed", "deleted", "error", "aborted", "blackhole":
		return Error
	case "pending", "deleting", "stopping", "shutting-down", "skipped",
		"partial":
		return Warning
	default:
		return Muted
	}
}

// RenderStatus renders a status string with a colored bullet.
func RenderStatus(status string) string {
	c := StatusColor(status)
	bullet := lipgloss.NewStyle().Foreground(c).Render("●")
	return bullet + " " + status
}

// Step renders a numbered workflow heading such as "[3/7] Creating NAT gateway".
func Step(n, total int, label string) string {
	return StepStyle.Render(fmt.Sprintf("[%d/%d]", n, total)) + " " + label
}
