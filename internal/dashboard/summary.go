package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smileynet/eventadmin/internal/api"
	"github.com/smileynet/eventadmin/internal/query"
)

// summaryLimit is the event listing size the summary counts from.
const summaryLimit = 100

// summaryState is the dashboard page: totals of events and users.
type summaryState struct {
	d      *deps
	events query.Entry
	users  query.Entry
}

func newSummaryState(d *deps) summaryState {
	return summaryState{d: d}
}

func (s summaryState) keys() []query.Key {
	return []query.Key{eventsKey(api.DefaultPage, summaryLimit), usersKey()}
}

func (s summaryState) apply(e query.Entry) screen {
	if e.Key.Class() == query.ClassUsers {
		s.users = e
	} else {
		s.events = e
	}
	return s
}

func (s summaryState) typing() bool      { return false }
func (s summaryState) help() help.KeyMap { return pageHelp() }

func (s summaryState) update(tea.Msg) (screen, tea.Cmd) {
	return s, nil
}

// Summary holds the dashboard counters.
type Summary struct {
	TotalEvents    int
	TotalUsers     int
	UpcomingEvents int
}

// summarize counts events and users; upcoming events are those dated
// after now.
func (s summaryState) summarize() Summary {
	var out Summary
	if page, ok := query.Value[api.EventsPage](s.events); ok {
		out.TotalEvents = max(page.Total, len(page.Events))
		now := s.d.now()
		for _, e := range page.Events {
			if e.EventDate.After(now) {
				out.UpcomingEvents++
			}
		}
	}
	if users, ok := query.Value[[]api.User](s.users); ok {
		out.TotalUsers = len(users)
	}
	return out
}

var cardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.AdaptiveColor{Light: "240", Dark: "240"}).
	Padding(0, 2)

func (s summaryState) view(width int, spin string) string {
	if s.events.Status == query.StatusError && !s.events.HasValue ||
		s.users.Status == query.StatusError && !s.users.HasValue {
		return errorText.Render("Error loading data.") + "\n\nPress r to retry"
	}
	if !s.events.HasValue || !s.users.HasValue {
		return spin + " Loading dashboard data..."
	}

	sum := s.summarize()
	cards := []string{
		card("Total Events", sum.TotalEvents),
		card("Total Users", sum.TotalUsers),
		card("Upcoming Events", sum.UpcomingEvents),
	}
	var body string
	if width >= 60 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left, cards...)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Dashboard"))
	b.WriteString("\n\n")
	b.WriteString(body)
	for _, e := range []query.Entry{s.events, s.users} {
		if note := freshness(e); note != "" {
			b.WriteString("\n" + note)
			break
		}
	}
	return b.String()
}

func card(title string, n int) string {
	return cardStyle.Render(fmt.Sprintf("%s\n%s", title, headerStyle.Render(fmt.Sprint(n))))
}
