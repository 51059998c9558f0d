package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/eventadmin/internal/api"
	"github.com/smileynet/eventadmin/internal/nav"
	"github.com/smileynet/eventadmin/internal/query"
)

// MsgNotEditable is shown when editing an event that is no longer active.
const MsgNotEditable = "Only active events can be edited."

// eventsState is the paginated event list.
type eventsState struct {
	d      *deps
	page   int
	limit  int
	entry  query.Entry
	cursor int
	notice string
}

func newEventsState(d *deps, page int) eventsState {
	if page < 1 {
		page = api.DefaultPage
	}
	return eventsState{d: d, page: page, limit: api.DefaultLimit}
}

func (s eventsState) keys() []query.Key { return []query.Key{eventsKey(s.page, s.limit)} }

func (s eventsState) apply(e query.Entry) screen {
	s.entry = e
	if n := len(s.events()); s.cursor >= n {
		s.cursor = max(n-1, 0)
	}
	return s
}

func (s eventsState) typing() bool { return false }

func (s eventsState) help() help.KeyMap {
	return pageHelp(keys.Up, keys.Down, keys.Open, keys.Edit, keys.New, keys.PrevPage, keys.NextPage)
}

func (s eventsState) events() []api.Event {
	page, _ := query.Value[api.EventsPage](s.entry)
	return page.Events
}

func (s eventsState) totalPages() int {
	page, _ := query.Value[api.EventsPage](s.entry)
	return page.TotalPages
}

func (s eventsState) selected() (api.Event, bool) {
	evs := s.events()
	if s.cursor < 0 || s.cursor >= len(evs) {
		return api.Event{}, false
	}
	return evs[s.cursor], true
}

func (s eventsState) update(msg tea.Msg) (screen, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	s.notice = ""
	evs := s.events()
	switch {
	case key.Matches(km, keys.Up):
		if len(evs) > 0 {
			s.cursor = (s.cursor - 1 + len(evs)) % len(evs)
		}
	case key.Matches(km, keys.Down):
		if len(evs) > 0 {
			s.cursor = (s.cursor + 1) % len(evs)
		}
	case key.Matches(km, keys.Open):
		if e, ok := s.selected(); ok {
			return s, navigate(nav.PageEventDetail, nav.Params{EventID: strconv.FormatInt(e.ID, 10)})
		}
	case key.Matches(km, keys.Edit):
		if e, ok := s.selected(); ok {
			if !e.Editable() {
				s.notice = MsgNotEditable
				return s, nil
			}
			return s, navigate(nav.PageEditEvent, nav.Params{EventID: strconv.FormatInt(e.ID, 10)})
		}
	case key.Matches(km, keys.New):
		return s, navigate(nav.PageCreateEvent, nav.Params{})
	case key.Matches(km, keys.PrevPage):
		if s.page > 1 {
			return s.turn(s.page - 1)
		}
	case key.Matches(km, keys.NextPage):
		if s.page < s.totalPages() {
			return s.turn(s.page + 1)
		}
	}
	return s, nil
}

// turn switches to page p. The previous page's rows stay visible until
// the new page arrives.
func (s eventsState) turn(p int) (screen, tea.Cmd) {
	s.page = p
	s.cursor = 0
	k := eventsKey(s.page, s.limit)
	if e, ok := s.d.cache.Peek(k); ok {
		s.entry = e
	}
	return s, s.d.load(k)
}

func (s eventsState) view(width int, spin string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Events"))
	b.WriteString("\n\n")

	if ph, ok := placeholder(s.entry, spin, "Loading events...", "Error loading events."); ok {
		b.WriteString(ph)
		return b.String()
	}

	page, _ := query.Value[api.EventsPage](s.entry)
	if len(page.Events) == 0 {
		msg := "No events found."
		if page.Message != "" && page.Message != api.NoEventsMessage {
			msg = page.Message
		}
		b.WriteString(mutedText.Render(msg))
		b.WriteString("\n\nPress n to create an event")
		return b.String()
	}

	nameWidth := max(16, min(40, width-50))
	fmt.Fprintf(&b, "  %-*s  %-10s  %-5s  %s\n", nameWidth, "Name", "Date", "Start", "Status")
	for i, e := range page.Events {
		marker := "  "
		name := truncate(e.Name, nameWidth)
		if i == s.cursor {
			marker = CursorMarker
			name = selectedItem.Render(fmt.Sprintf("%-*s", nameWidth, name))
		} else {
			name = fmt.Sprintf("%-*s", nameWidth, name)
		}
		fmt.Fprintf(&b, "%s%s  %-10s  %-5s  %s\n", marker, name, formatDate(e.EventDate), formatClock(e.StartTime), StatusBadge(e.EventStatus))
	}

	b.WriteByte('\n')
	b.WriteString(mutedText.Render(fmt.Sprintf("Page %d of %d · %d events", page.Page, max(page.TotalPages, 1), page.Total)))
	if s.notice != "" {
		b.WriteString("\n" + errorText.Render(s.notice))
	}
	if note := freshness(s.entry); note != "" {
		b.WriteString("\n" + note)
	}
	return b.String()
}
