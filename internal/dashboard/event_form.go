package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/eventadmin/internal/api"
	"github.com/smileynet/eventadmin/internal/nav"
	"github.com/smileynet/eventadmin/internal/query"
)

// Event form field indexes.
const (
	evName = iota
	evDescription
	evDate
	evStart
	evEnd
	evAddress
	evType
	evOrganizer
	evContact
	evImage
	evStatus
)

var eventLabels = []string{
	"Name", "Description", "Event Date", "Start Time", "End Time",
	"Address", "Event Type", "Organizer Name", "Organizer Contact", "Image URL",
}

// eventFormState creates an event, or edits one when id is set.
type eventFormState struct {
	d          *deps
	id         string
	form       form
	entry      query.Entry
	loaded     bool
	err        string
	submitting bool
}

func newEventFormState(d *deps, id string) eventFormState {
	labels := eventLabels
	if id != "" {
		labels = append(labels[:len(labels):len(labels)], "Status")
	}
	f := newForm(labels...)
	f.placeholder(evDate, "YYYY-MM-DD")
	f.placeholder(evStart, "HH:MM")
	f.placeholder(evEnd, "HH:MM")
	if id != "" {
		f.placeholder(evStatus, "ACTIVE, COMPLETED or CANCELLED")
	}
	return eventFormState{d: d, id: id, form: f}
}

func (s eventFormState) editing() bool { return s.id != "" }

func (s eventFormState) keys() []query.Key {
	if !s.editing() {
		return nil
	}
	return []query.Key{eventKey(s.id)}
}

// apply fills the form from the first loaded value only; later refreshes
// never overwrite what the user typed.
func (s eventFormState) apply(e query.Entry) screen {
	s.entry = e
	if s.loaded {
		return s
	}
	if ev, ok := query.Value[api.EventDetails](e); ok {
		s.fill(ev.Event)
		s.loaded = true
	}
	return s
}

func (s *eventFormState) fill(ev api.Event) {
	s.form.set(evName, ev.Name)
	s.form.set(evDescription, ev.Description)
	if !ev.EventDate.IsZero() {
		s.form.set(evDate, ev.EventDate.Local().Format(dateLayout))
	}
	if !ev.StartTime.IsZero() {
		s.form.set(evStart, ev.StartTime.Local().Format(timeLayout))
	}
	if !ev.EndTime.IsZero() {
		s.form.set(evEnd, ev.EndTime.Local().Format(timeLayout))
	}
	s.form.set(evAddress, ev.Address)
	s.form.set(evType, ev.EventType)
	s.form.set(evOrganizer, ev.OrganizerName)
	s.form.set(evContact, ev.OrganizerContact)
	s.form.set(evImage, ev.ImageURL)
	s.form.set(evStatus, string(ev.EventStatus))
}

func (s eventFormState) typing() bool      { return true }
func (s eventFormState) help() help.KeyMap { return formHelp() }

func (s eventFormState) back() tea.Cmd {
	if s.editing() {
		return navigate(nav.PageEventDetail, nav.Params{EventID: s.id})
	}
	return navigate(nav.PageEvents, nav.Params{})
}

func (s eventFormState) update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case MutationMsg:
		if msg.Kind != query.CreateEvent && msg.Kind != query.UpdateEvent {
			return s, nil
		}
		s.submitting = false
		if msg.Err != nil {
			s.err = msg.Err.Error()
			return s, nil
		}
		return s, s.back()

	case tea.KeyMsg:
		if s.submitting {
			return s, nil
		}
		switch {
		case key.Matches(msg, keys.Cancel):
			return s, s.back()
		case key.Matches(msg, keys.Submit):
			if s.editing() && !s.loaded {
				return s, nil
			}
			in, err := parseEventForm(s.form, s.editing())
			if err != nil {
				s.err = err.Error()
				return s, nil
			}
			s.err = ""
			s.submitting = true
			return s, s.submit(in)
		}
	}
	var cmd tea.Cmd
	s.form, cmd = s.form.update(msg)
	return s, cmd
}

func (s eventFormState) submit(in api.EventInput) tea.Cmd {
	b, id := s.d.backend, s.id
	if s.editing() {
		return s.d.write(query.UpdateEvent, func(ctx context.Context) (any, error) {
			return b.UpdateEvent(ctx, id, in)
		})
	}
	return s.d.write(query.CreateEvent, func(ctx context.Context) (any, error) {
		return b.CreateEvent(ctx, in)
	})
}

// parseEventForm validates the form and builds the request body. Times
// are read in the local zone on the event's date.
func parseEventForm(f form, withStatus bool) (api.EventInput, error) {
	in := api.EventInput{
		Name:             f.value(evName),
		Description:      f.value(evDescription),
		Address:          f.value(evAddress),
		EventType:        f.value(evType),
		OrganizerName:    f.value(evOrganizer),
		OrganizerContact: f.value(evContact),
		ImageURL:         f.value(evImage),
	}
	if in.Name == "" {
		return in, errors.New("name is required")
	}
	date, err := time.ParseInLocation(dateLayout, f.value(evDate), time.Local)
	if err != nil {
		return in, errors.New("event date must be YYYY-MM-DD")
	}
	in.EventDate = date
	if in.StartTime, err = clockOn(date, f.value(evStart)); err != nil {
		return in, errors.New("start time must be HH:MM")
	}
	if in.EndTime, err = clockOn(date, f.value(evEnd)); err != nil {
		return in, errors.New("end time must be HH:MM")
	}
	if in.EndTime.Before(in.StartTime) {
		return in, errors.New("end time must not be before start time")
	}
	if withStatus {
		status := api.EventStatus(strings.ToUpper(f.value(evStatus)))
		switch status {
		case api.EventActive, api.EventCompleted, api.EventCancelled:
			in.EventStatus = status
		default:
			return in, fmt.Errorf("status must be %s, %s or %s", api.EventActive, api.EventCompleted, api.EventCancelled)
		}
	}
	return in, nil
}

func clockOn(date time.Time, s string) (time.Time, error) {
	t, err := time.ParseInLocation(timeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, time.Local), nil
}

func (s eventFormState) view(_ int, spin string) string {
	title := "Create Event"
	if s.editing() {
		title = "Edit Event"
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")
	if s.editing() && !s.loaded {
		ph, _ := placeholder(s.entry, spin, "Loading event...", "Failed to load event")
		b.WriteString(ph)
		return b.String()
	}
	b.WriteString(s.form.view())
	b.WriteByte('\n')
	switch {
	case s.submitting:
		b.WriteString(spin + " Saving...")
	case s.err != "":
		b.WriteString(errorText.Render(s.err))
	}
	return b.String()
}
