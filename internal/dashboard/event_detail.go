package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/eventadmin/internal/api"
	"github.com/smileynet/eventadmin/internal/nav"
	"github.com/smileynet/eventadmin/internal/query"
)

// eventDetailState shows one event with its registration roster. Long
// rosters scroll inside a viewport.
type eventDetailState struct {
	d      *deps
	id     string
	entry  query.Entry
	notice string
	vp     viewport.Model
}

func newEventDetailState(d *deps, id string) eventDetailState {
	vp := viewport.New(d.width, d.height)
	vp.KeyMap = viewport.KeyMap{
		Up:       keys.Up,
		Down:     keys.Down,
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
	}
	return eventDetailState{d: d, id: id, vp: vp}
}

func (s eventDetailState) keys() []query.Key { return []query.Key{eventKey(s.id)} }

func (s eventDetailState) apply(e query.Entry) screen {
	s.entry = e
	return s
}

func (s eventDetailState) typing() bool { return false }

func (s eventDetailState) help() help.KeyMap {
	return pageHelp(keys.Up, keys.Down, keys.Edit, keys.Back)
}

func (s eventDetailState) update(msg tea.Msg) (screen, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	s.notice = ""
	switch {
	case key.Matches(km, keys.Back):
		return s, navigate(nav.PageEvents, nav.Params{})
	case key.Matches(km, keys.Edit):
		ev, ok := query.Value[api.EventDetails](s.entry)
		if !ok {
			return s, nil
		}
		if !ev.Editable() {
			s.notice = MsgNotEditable
			return s, nil
		}
		return s, navigate(nav.PageEditEvent, nav.Params{EventID: s.id})
	}
	if s.entry.HasValue {
		s.vp.Width, s.vp.Height = s.d.width, s.d.height
		s.vp.SetContent(s.body(s.d.width))
		var cmd tea.Cmd
		s.vp, cmd = s.vp.Update(km)
		return s, cmd
	}
	return s, nil
}

func (s eventDetailState) view(width int, spin string) string {
	if ph, ok := placeholder(s.entry, spin, "Loading event details...", "Failed to load event"); ok {
		return titleStyle.Render("Event Details") + "\n\n" + ph
	}
	body := s.body(width)
	if s.d.height < 1 {
		return body
	}
	vp := s.vp
	vp.Width, vp.Height = width, s.d.height
	vp.SetContent(body)
	return vp.View()
}

// body renders the loaded event.
func (s eventDetailState) body(width int) string {
	ev, _ := query.Value[api.EventDetails](s.entry)

	var b strings.Builder
	b.WriteString(titleStyle.Render(ev.Name))
	b.WriteString("  ")
	b.WriteString(StatusBadge(ev.EventStatus))
	b.WriteString("\n\n")

	info := [][2]string{
		{"Date", formatDate(ev.EventDate)},
		{"Time", formatClock(ev.StartTime) + " - " + formatClock(ev.EndTime)},
		{"Location", ev.Address},
		{"Type", ev.EventType},
		{"Organizer", ev.OrganizerName},
		{"Contact", ev.OrganizerContact},
	}
	for _, row := range info {
		fmt.Fprintf(&b, "%-10s %s\n", mutedText.Render(row[0]), row[1])
	}
	if ev.Description != "" {
		b.WriteString("\n" + ev.Description + "\n")
	}

	st := ev.Stats()
	b.WriteString("\n")
	b.WriteString(headerStyle.Render("Registrations"))
	fmt.Fprintf(&b, "\nTotal: %d  Registered: %d  Cancelled: %d\n\n", st.Total, st.Registered, st.Cancelled)

	if len(ev.RegisteredUsers) == 0 {
		b.WriteString(mutedText.Render("No users have registered for this event yet."))
	} else {
		nameWidth := max(12, min(24, (width-30)/2))
		fmt.Fprintf(&b, "%-*s  %-*s  %-10s  %s\n", nameWidth, "Name", nameWidth, "Email", "Status", "Registered")
		for _, u := range ev.RegisteredUsers {
			fmt.Fprintf(&b, "%-*s  %-*s  %-10s  %s\n",
				nameWidth, truncate(u.Username, nameWidth),
				nameWidth, truncate(u.Email, nameWidth),
				u.RegistrationStatus, formatDate(u.RegistrationDate))
		}
	}

	if s.notice != "" {
		b.WriteString("\n" + errorText.Render(s.notice))
	}
	if note := freshness(s.entry); note != "" {
		b.WriteString("\n" + note)
	}
	return b.String()
}
