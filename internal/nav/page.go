// Package nav implements the page state machine of the admin client:
// which page is shown, which entity it is about, and the rule that keeps
// unauthenticated sessions on the login and reset-password pages.
package nav

// PageID names a page.
type PageID string

const (
	PageLogin         PageID = "login"
	PageResetPassword PageID = "reset-password"
	PageDashboard     PageID = "dashboard"
	PageEvents        PageID = "events"
	PageCreateEvent   PageID = "create-event"
	PageEditEvent     PageID = "edit-event"
	PageEventDetail   PageID = "event-detail"
	PageUsers         PageID = "users"
	PageCreateUser    PageID = "create-user"
	PageEditUser      PageID = "edit-user"
)

// PageIDs lists every page in menu-independent order.
var PageIDs = []PageID{
	PageLogin, PageResetPassword, PageDashboard,
	PageEvents, PageCreateEvent, PageEditEvent, PageEventDetail,
	PageUsers, PageCreateUser, PageEditUser,
}

// Public reports whether id is reachable without a session.
func (id PageID) Public() bool {
	return id == PageLogin || id == PageResetPassword
}

// Messages shown when a page that needs an id is requested without one.
const (
	MsgEventIDMissingEdit   = "Event ID missing for editing."
	MsgEventIDMissingDetail = "Event ID missing for detail view."
	MsgUserIDMissingEdit    = "User ID missing for editing."
)

// Params carries the optional entity ids of a navigation request.
type Params struct {
	EventID string
	UserID  string
}

// Page is one of the page variants below. Each variant carries only the
// ids valid for it.
type Page interface {
	ID() PageID
	isPage()
}

type (
	Login         struct{}
	ResetPassword struct{}
	Dashboard     struct{}
	Events        struct{}
	CreateEvent   struct{}
	EditEvent     struct{ EventID string }
	EventDetail   struct{ EventID string }
	Users         struct{}
	CreateUser    struct{}
	EditUser      struct{ UserID string }

	// Invalid is a page requested without the id it needs. It renders
	// Reason instead of the page.
	Invalid struct {
		Target PageID
		Reason string
	}
)

func (Login) ID() PageID         { return PageLogin }
func (ResetPassword) ID() PageID { return PageResetPassword }
func (Dashboard) ID() PageID     { return PageDashboard }
func (Events) ID() PageID        { return PageEvents }
func (CreateEvent) ID() PageID   { return PageCreateEvent }
func (EditEvent) ID() PageID     { return PageEditEvent }
func (EventDetail) ID() PageID   { return PageEventDetail }
func (Users) ID() PageID         { return PageUsers }
func (CreateUser) ID() PageID    { return PageCreateUser }
func (EditUser) ID() PageID      { return PageEditUser }
func (p Invalid) ID() PageID     { return p.Target }

func (Login) isPage()         {}
func (ResetPassword) isPage() {}
func (Dashboard) isPage()     {}
func (Events) isPage()        {}
func (CreateEvent) isPage()   {}
func (EditEvent) isPage()     {}
func (EventDetail) isPage()   {}
func (Users) isPage()         {}
func (CreateUser) isPage()    {}
func (EditUser) isPage()      {}
func (Invalid) isPage()       {}

// Resolve builds the page variant for id. Ids a page does not use are
// dropped. A page that needs a missing id resolves to Invalid with the
// message to display; an unknown id resolves to Dashboard.
func Resolve(id PageID, p Params) Page {
	switch id {
	case PageLogin:
		return Login{}
	case PageResetPassword:
		return ResetPassword{}
	case PageEvents:
		return Events{}
	case PageCreateEvent:
		return CreateEvent{}
	case PageEditEvent:
		if p.EventID == "" {
			return Invalid{Target: id, Reason: MsgEventIDMissingEdit}
		}
		return EditEvent{EventID: p.EventID}
	case PageEventDetail:
		if p.EventID == "" {
			return Invalid{Target: id, Reason: MsgEventIDMissingDetail}
		}
		return EventDetail{EventID: p.EventID}
	case PageUsers:
		return Users{}
	case PageCreateUser:
		return CreateUser{}
	case PageEditUser:
		if p.UserID == "" {
			return Invalid{Target: id, Reason: MsgUserIDMissingEdit}
		}
		return EditUser{UserID: p.UserID}
	default:
		return Dashboard{}
	}
}

// State is the flat view of a page: its id and selected entity ids.
type State struct {
	Page            PageID
	SelectedEventID string
	SelectedUserID  string
}

// StateOf flattens p.
func StateOf(p Page) State {
	s := State{Page: p.ID()}
	switch p := p.(type) {
	case EditEvent:
		s.SelectedEventID = p.EventID
	case EventDetail:
		s.SelectedEventID = p.EventID
	case EditUser:
		s.SelectedUserID = p.UserID
	}
	return s
}
