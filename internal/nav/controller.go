package nav

import (
	"io"
	"log/slog"
)

// Controller holds the current page and authentication status and keeps
// the redirect rule in force: while unauthenticated, only public pages
// can be current. It is not safe for concurrent use; confine it to the
// Bubble Tea update loop.
type Controller struct {
	page          Page
	authenticated bool
	logger        *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for redirect diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController returns a Controller on the login page, unauthenticated.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		page:   Login{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Navigate makes p the current page. No transition is rejected; pages
// that need an id arrive here already resolved to Invalid when it was
// missing.
func (c *Controller) Navigate(p Page) {
	if p == nil {
		p = Dashboard{}
	}
	c.page = p
	c.enforce()
}

// NavigateTo resolves id with params and navigates to the result.
func (c *Controller) NavigateTo(id PageID, params Params) {
	c.Navigate(Resolve(id, params))
}

// SetAuthenticated records a change of authentication status and
// re-applies the redirect rule, so a session that expires while a
// protected page is open lands on login.
func (c *Controller) SetAuthenticated(authenticated bool) {
	c.authenticated = authenticated
	c.enforce()
}

func (c *Controller) enforce() {
	if c.authenticated || c.page.ID().Public() {
		return
	}
	c.logger.Debug("redirecting to login", "from", string(c.page.ID()))
	c.page = Login{}
}

// Page returns the current page.
func (c *Controller) Page() Page {
	return c.page
}

// State returns the flattened navigation state.
func (c *Controller) State() State {
	return StateOf(c.page)
}

// Authenticated reports the last status given to SetAuthenticated.
func (c *Controller) Authenticated() bool {
	return c.authenticated
}

// Visible returns the page to render. An authenticated session sitting
// on a public page sees the dashboard.
func (c *Controller) Visible() Page {
	if c.authenticated && c.page.ID().Public() {
		return Dashboard{}
	}
	return c.page
}

// MenuItem is an entry of the sidebar.
type MenuItem struct {
	Page  PageID
	Title string
}

// Menu returns the sidebar entries, empty when unauthenticated.
func (c *Controller) Menu() []MenuItem {
	if !c.authenticated {
		return nil
	}
	return []MenuItem{
		{Page: PageDashboard, Title: "Dashboard"},
		{Page: PageEvents, Title: "Events"},
		{Page: PageUsers, Title: "Users"},
	}
}
