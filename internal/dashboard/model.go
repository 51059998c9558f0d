package dashboard

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smileynet/eventadmin/internal/nav"
	"github.com/smileynet/eventadmin/internal/query"
)

// helpBarHeight is the number of lines reserved for the help bar at the bottom.
const helpBarHeight = 1

// headerHeight is the number of lines used by the title bar.
const headerHeight = 1

// borderChrome is the number of lines consumed by top + bottom borders.
const borderChrome = 2

// screen is the page currently rendered in the main pane.
type screen interface {
	// keys lists the queries the screen renders.
	keys() []query.Key
	// apply hands the screen the latest entry for one of its keys.
	apply(query.Entry) screen
	update(tea.Msg) (screen, tea.Cmd)
	view(width int, spin string) string
	help() help.KeyMap
	// typing reports whether the screen captures every key, so global
	// bindings must not fire.
	typing() bool
}

// Model is the root Bubble Tea model for the admin dashboard. It owns
// navigation and routes cache updates to the current screen.
type Model struct {
	nav     *nav.Controller
	d       *deps
	screen  screen
	visible nav.Page
	spinner spinner.Model
	help    help.Model
	width   int
	height  int

	// tickGen invalidates refresh ticks scheduled for earlier page visits.
	tickGen int
	// eventsPage is the list page to return to from an event page.
	eventsPage int
	initCmd    tea.Cmd
}

// Option configures a Model.
type Option func(*Model)

// WithBackend sets the API the dashboard reads and writes through.
func WithBackend(b Backend) Option {
	return func(m *Model) { m.d.backend = b }
}

// WithSession sets the auth gate.
func WithSession(s Session) Option {
	return func(m *Model) { m.d.session = s }
}

// WithCache sets the query cache. Share it with Cache.OnUpdate wiring.
func WithCache(c *query.Cache) Option {
	return func(m *Model) { m.d.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) { m.d.logger = l }
}

// WithClock overrides the time source used for upcoming-event counts.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.d.now = now }
}

// WithContext sets the context for API calls issued by commands.
func WithContext(ctx context.Context) Option {
	return func(m *Model) { m.d.ctx = ctx }
}

// WithController sets the navigation controller.
func WithController(c *nav.Controller) Option {
	return func(m *Model) { m.nav = c }
}

// NewModel creates a dashboard Model. WithBackend and WithSession are
// required. The first page follows the session: login when signed out,
// the dashboard otherwise.
func NewModel(opts ...Option) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	m := Model{
		d: &deps{
			ctx:    context.Background(),
			cache:  query.New(),
			now:    time.Now,
			logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		},
		spinner:    s,
		help:       help.New(),
		eventsPage: 1,
	}
	for _, opt := range opts {
		opt(&m)
	}
	if m.nav == nil {
		m.nav = nav.NewController(nav.WithLogger(m.d.logger))
	}
	m.nav.SetAuthenticated(m.d.session.Authenticated())
	m, m.initCmd = m.enter()
	return m
}

// Init starts the spinner and the first page's loads.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.initCmd)
}

// Update routes msg and re-enters the page whenever the visible page
// changes, whether by navigation or by a change of session.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.syncAuth()
	m, cmd := m.handle(msg)
	if m.nav.Visible() != m.visible {
		var enter tea.Cmd
		m, enter = m.enter()
		cmd = tea.Batch(cmd, enter)
	}
	return m, cmd
}

// syncAuth follows the session, which can expire outside the update loop
// when the API answers 401.
func (m *Model) syncAuth() {
	auth := m.d.session.Authenticated()
	if auth == m.nav.Authenticated() {
		return
	}
	if !auth {
		m.d.cache.Clear()
	}
	m.nav.SetAuthenticated(auth)
}

func (m Model) handle(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		_, mainWidth := PaneWidths(m.width)
		m.d.width, m.d.height = mainWidth-borderChrome, m.contentHeight()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case NavigateMsg:
		m.nav.NavigateTo(msg.Page, msg.Params)
		return m, nil

	case LoginResultMsg:
		var cmd tea.Cmd
		m, cmd = m.forward(msg)
		if msg.OK {
			m.nav.SetAuthenticated(true)
			m.nav.NavigateTo(nav.PageDashboard, nav.Params{})
		}
		return m, cmd

	case AuthChangedMsg:
		// syncAuth already applied the session's status.
		return m, nil

	case QueryMsg:
		return m.applyKey(msg.Key, msg.Entry)

	case CacheUpdatedMsg:
		return m.applyKey(msg.Entry.Key, msg.Entry)

	case refreshTickMsg:
		if msg.gen != m.tickGen {
			return m, nil
		}
		cmds := []tea.Cmd{m.scheduleRefresh()}
		for _, k := range m.screen.keys() {
			if e, ok := m.d.cache.Peek(k); ok {
				var cmd tea.Cmd
				m, cmd = m.applyKey(k, e)
				cmds = append(cmds, cmd)
			}
		}
		return m, tea.Batch(cmds...)
	}
	return m.forward(msg)
}

func (m Model) forward(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.screen, cmd = m.screen.update(msg)
	return m, cmd
}

// handleKey processes global bindings, then hands the key to the screen.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.screen.typing() {
		return m.forward(msg)
	}
	if key.Matches(msg, keys.Quit) {
		return m, tea.Quit
	}
	if !m.nav.Authenticated() {
		return m.forward(msg)
	}
	switch {
	case key.Matches(msg, keys.Dashboard):
		m.nav.NavigateTo(nav.PageDashboard, nav.Params{})
	case key.Matches(msg, keys.Events):
		m.nav.NavigateTo(nav.PageEvents, nav.Params{})
	case key.Matches(msg, keys.Users):
		m.nav.NavigateTo(nav.PageUsers, nav.Params{})
	case key.Matches(msg, keys.Logout):
		m.d.session.Logout()
		m.d.cache.Clear()
		m.nav.SetAuthenticated(false)
	case key.Matches(msg, keys.Refresh):
		return m, m.refresh()
	default:
		return m.forward(msg)
	}
	return m, nil
}

// refresh refetches everything the screen shows, including entries that
// failed; errors are never retried without it.
func (m Model) refresh() tea.Cmd {
	ks := m.screen.keys()
	if len(ks) == 0 {
		return nil
	}
	m.d.cache.Invalidate(ks...)
	cmds := make([]tea.Cmd, 0, len(ks))
	for _, k := range ks {
		cmds = append(cmds, m.d.load(k))
	}
	return tea.Batch(cmds...)
}

// applyKey gives the screen the latest entry for k and keeps it moving:
// a fetch in flight is awaited and a stale entry is refetched.
func (m Model) applyKey(k query.Key, fallback query.Entry) (Model, tea.Cmd) {
	if !m.displays(k) {
		return m, nil
	}
	e, ok := m.d.cache.Peek(k)
	if !ok {
		e = fallback
	}
	m.screen = m.screen.apply(e)
	switch {
	case e.Fetching:
		return m, m.d.wait(k)
	case e.Status == query.StatusStale:
		return m, m.d.load(k)
	}
	return m, nil
}

func (m Model) displays(k query.Key) bool {
	for _, sk := range m.screen.keys() {
		if sk.Equal(k) {
			return true
		}
	}
	return false
}

// enter builds the screen for the visible page, shows whatever the cache
// already holds for it and loads the rest.
func (m Model) enter() (Model, tea.Cmd) {
	if s, ok := m.screen.(eventsState); ok {
		m.eventsPage = s.page
	}
	m.visible = m.nav.Visible()
	m.screen = m.build(m.visible)
	m.tickGen++
	m.d.logger.Debug("entering page", "page", string(m.visible.ID()))

	var cmds []tea.Cmd
	for _, k := range m.screen.keys() {
		if e, ok := m.d.cache.Peek(k); ok {
			m.screen = m.screen.apply(e)
		}
		cmds = append(cmds, m.d.load(k))
	}
	cmds = append(cmds, m.scheduleRefresh())
	if m.screen.typing() {
		cmds = append(cmds, textinput.Blink)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) build(p nav.Page) screen {
	switch p := p.(type) {
	case nav.Login:
		return newLoginState(m.d)
	case nav.ResetPassword:
		return newResetState(m.d)
	case nav.Events:
		return newEventsState(m.d, m.eventsPage)
	case nav.CreateEvent:
		return newEventFormState(m.d, "")
	case nav.EditEvent:
		return newEventFormState(m.d, p.EventID)
	case nav.EventDetail:
		return newEventDetailState(m.d, p.EventID)
	case nav.Users:
		return newUsersState(m.d)
	case nav.CreateUser:
		return newUserFormState(m.d, "")
	case nav.EditUser:
		return newUserFormState(m.d, p.UserID)
	case nav.Invalid:
		return invalidState{page: p}
	}
	return newSummaryState(m.d)
}

// scheduleRefresh ticks a few times per refresh window of the screen's
// shortest-lived query, so staleness is noticed soon after it sets in.
func (m Model) scheduleRefresh() tea.Cmd {
	var every time.Duration
	for _, k := range m.screen.keys() {
		if w := m.d.cache.RefreshInterval(k); w > 0 && (every == 0 || w < every) {
			every = w
		}
	}
	if every == 0 {
		return nil
	}
	every = max(every/4, time.Second)
	gen := m.tickGen
	return tea.Tick(every, func(time.Time) tea.Msg { return refreshTickMsg{gen: gen} })
}

// contentHeight returns the usable height for pane content,
// accounting for border chrome, the header and the help bar.
func (m Model) contentHeight() int {
	h := m.height - borderChrome - helpBarHeight - headerHeight
	if h < 1 {
		return 1
	}
	return h
}

// section maps a page to the sidebar entry it belongs to.
func section(id nav.PageID) nav.PageID {
	switch id {
	case nav.PageEvents, nav.PageCreateEvent, nav.PageEditEvent, nav.PageEventDetail:
		return nav.PageEvents
	case nav.PageUsers, nav.PageCreateUser, nav.PageEditUser:
		return nav.PageUsers
	}
	return nav.PageDashboard
}

// View renders the header, sidebar, main pane and help bar. Signed-out
// pages get a single pane.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	helpView := m.help.View(m.screen.help())
	spin := m.spinner.View()

	if !m.nav.Authenticated() {
		w := min(m.width, 64)
		pane := FocusedBorder().
			Width(w - borderChrome).
			Height(m.contentHeight()).
			Render(m.screen.view(w-borderChrome, spin))
		return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Event Admin"), pane, helpView)
	}

	sidebarWidth, mainWidth := PaneWidths(m.width)
	contentHeight := m.contentHeight()

	sidebar := UnfocusedBorder().
		Width(sidebarWidth - borderChrome).
		Height(contentHeight).
		Render(m.viewMenu())
	main := FocusedBorder().
		Width(mainWidth - borderChrome).
		Height(contentHeight).
		Render(m.screen.view(mainWidth-borderChrome, spin))
	panes := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)

	return lipgloss.JoinVertical(lipgloss.Left, m.viewHeader(), panes, helpView)
}

func (m Model) viewHeader() string {
	h := titleStyle.Render("Event Admin")
	if u := m.d.session.User(); u != nil {
		h += mutedText.Render("  signed in as " + u.Username)
	}
	return h
}

func (m Model) viewMenu() string {
	current := section(m.visible.ID())
	shortcuts := []key.Binding{keys.Dashboard, keys.Events, keys.Users}
	var b strings.Builder
	for i, item := range m.nav.Menu() {
		label := item.Title
		if item.Page == current {
			b.WriteString(CursorMarker + selectedItem.Render(label))
		} else {
			b.WriteString("  " + label)
		}
		if i < len(shortcuts) {
			b.WriteString(mutedText.Render("  " + shortcuts[i].Help().Key))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
