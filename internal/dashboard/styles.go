package dashboard

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/smileynet/eventadmin/internal/api"
)

// MinSidebarWidth is the minimum character width for the sidebar.
const MinSidebarWidth = 20

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedText    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "245"})
	errorText    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "1", Dark: "9"})
	successText  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "2", Dark: "10"})
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "4", Dark: "12"})
	selectedItem = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "4", Dark: "12"})
)

// Event status badge colors.
var statusColors = map[api.EventStatus]lipgloss.AdaptiveColor{
	api.EventActive:    {Light: "2", Dark: "10"},
	api.EventCompleted: {Light: "4", Dark: "12"},
	api.EventCancelled: {Light: "1", Dark: "9"},
}

// StatusBadge returns a colored event status label.
func StatusBadge(status api.EventStatus) string {
	label := string(status)
	if label == "" {
		label = "UNKNOWN"
	}
	c, ok := statusColors[status]
	if !ok {
		c = lipgloss.AdaptiveColor{Light: "240", Dark: "245"}
	}
	return lipgloss.NewStyle().Foreground(c).Render(label)
}

// InvitationBadge renders a user's invitation status.
func InvitationBadge(s api.InvitationStatus) string {
	switch s {
	case api.InvitationSent:
		return successText.Render("✓ sent")
	case api.InvitationReady:
		return mutedText.Render("○ ready")
	default:
		return mutedText.Render("?")
	}
}

// FocusedBorder returns a lipgloss style with an accent-colored rounded border.
func FocusedBorder() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.AdaptiveColor{Light: "4", Dark: "12"})
}

// UnfocusedBorder returns a lipgloss style with a dim rounded border.
func UnfocusedBorder() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.AdaptiveColor{Light: "240", Dark: "240"})
}

// PaneWidths calculates the sidebar and main pane widths from a total width.
// The sidebar gets 1/4 (minimum MinSidebarWidth), the main pane the rest.
func PaneWidths(totalWidth int) (sidebar, main int) {
	if totalWidth <= 0 {
		return 0, 0
	}
	sidebar = totalWidth / 4
	if sidebar < MinSidebarWidth {
		sidebar = MinSidebarWidth
	}
	main = totalWidth - sidebar
	if main < 0 {
		main = 0
	}
	return sidebar, main
}
