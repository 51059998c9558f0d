package dashboard

import (
	"testing"

	"github.com/smileynet/eventadmin/internal/api"
)

func TestStatusBadge_ContainsLabel(t *testing.T) {
	// Given: each event status
	// When: StatusBadge is called
	// Then: the result contains the status label
	tests := []struct {
		status api.EventStatus
		want   string
	}{
		{api.EventActive, "ACTIVE"},
		{api.EventCompleted, "COMPLETED"},
		{api.EventCancelled, "CANCELLED"},
		{"", "UNKNOWN"},
		{"ARCHIVED", "ARCHIVED"},
	}
	for _, tt := range tests {
		got := StatusBadge(tt.status)
		if !containsPlainText(got, tt.want) {
			t.Errorf("StatusBadge(%q) = %q, want to contain %q", tt.status, got, tt.want)
		}
	}
}

func TestInvitationBadge(t *testing.T) {
	// Given: each invitation status
	// Then: the badge names it
	if got := InvitationBadge(api.InvitationSent); !containsPlainText(got, "sent") {
		t.Errorf("InvitationBadge(SENT) = %q, want to contain %q", got, "sent")
	}
	if got := InvitationBadge(api.InvitationReady); !containsPlainText(got, "ready") {
		t.Errorf("InvitationBadge(READY) = %q, want to contain %q", got, "ready")
	}
}

func TestPaneWidths_Normal(t *testing.T) {
	// Given: a normal terminal width of 120
	// When: PaneWidths is computed
	sidebar, main := PaneWidths(120)

	// Then: sidebar is 1/4 and main is 3/4
	if sidebar != 30 {
		t.Errorf("sidebar = %d, want 30 (1/4 of 120)", sidebar)
	}
	if main != 90 {
		t.Errorf("main = %d, want 90 (3/4 of 120)", main)
	}
}

func TestPaneWidths_MinSidebar(t *testing.T) {
	// Given: a small terminal width of 60
	// When: PaneWidths is computed
	sidebar, main := PaneWidths(60)

	// Then: sidebar is at least MinSidebarWidth and total equals input
	if sidebar < MinSidebarWidth {
		t.Errorf("sidebar = %d, want >= %d", sidebar, MinSidebarWidth)
	}
	if sidebar+main != 60 {
		t.Errorf("sidebar+main = %d, want 60", sidebar+main)
	}
}

func TestPaneWidths_VerySmall(t *testing.T) {
	// Given: a terminal width smaller than MinSidebarWidth
	// When: PaneWidths is computed
	sidebar, main := PaneWidths(10)

	// Then: sidebar gets MinSidebarWidth and main is clamped to 0
	if sidebar != MinSidebarWidth {
		t.Errorf("sidebar = %d, want %d", sidebar, MinSidebarWidth)
	}
	if main != 0 {
		t.Errorf("main = %d, want 0", main)
	}
}

func TestPaneWidths_Zero(t *testing.T) {
	// Given: a zero terminal width
	// When: PaneWidths is computed
	sidebar, main := PaneWidths(0)

	// Then: both panes are 0
	if sidebar != 0 || main != 0 {
		t.Errorf("PaneWidths(0) = (%d, %d), want (0, 0)", sidebar, main)
	}
}

func TestBorders_DoNotPanic(t *testing.T) {
	// Given/When: the border styles are built
	// Then: they do not panic
	_ = FocusedBorder()
	_ = UnfocusedBorder()
}
