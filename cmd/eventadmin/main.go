package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/smileynet/eventadmin/internal/api"
	"github.com/smileynet/eventadmin/internal/auth"
	"github.com/smileynet/eventadmin/internal/config"
	"github.com/smileynet/eventadmin/internal/dashboard"
	"github.com/smileynet/eventadmin/internal/logging"
	"github.com/smileynet/eventadmin/internal/mockapi"
	"github.com/smileynet/eventadmin/internal/query"
	"github.com/smileynet/eventadmin/internal/session"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errNotAuthenticated is returned by commands that need a session.
var errNotAuthenticated = errors.New("not logged in (run `eventadmin login`)")

// CLI is the top-level command structure for eventadmin.
type CLI struct {
	Version       kong.VersionFlag `help:"Show version." short:"V"`
	Dashboard     DashboardCmd     `cmd:"" help:"Open the interactive admin dashboard."`
	Login         LoginCmd         `cmd:"" help:"Sign in and remember the session."`
	Logout        LogoutCmd        `cmd:"" help:"Sign out and forget the session."`
	Whoami        WhoamiCmd        `cmd:"" help:"Show the signed-in user."`
	Events        EventsCmd        `cmd:"" help:"List events."`
	Users         UsersCmd         `cmd:"" help:"List users."`
	ResetPassword ResetPasswordCmd `cmd:"" name:"reset-password" help:"Request a password reset email."`
	MockAPI       MockAPICmd       `cmd:"" name:"mock-api" help:"Serve the in-memory admin API for local use."`
}

// loadConfig loads layered config from user and project paths with env overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadLayered(
		os.ExpandEnv("$HOME/.config/eventadmin/config.yaml"),
		".eventadmin/config.yaml",
	)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app holds the wired client, auth gate and cache shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
	client   *api.Client
	gate     *auth.Gate
	cache    *query.Cache
}

// newApp loads config and wires the remote API, the persisted session and
// the query cache. The persisted session is restored.
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, closeLog, err := logging.Open(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	a, err := wire(cfg, session.NewFileStore(cfg.Session.File), logger)
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	a.closeLog = closeLog
	return a, nil
}

// wire builds an app from cfg. The client reads its token from the gate,
// and a 401 on a call that carried one expires the gate's session.
func wire(cfg *config.Config, store session.Storage, logger *slog.Logger) (*app, error) {
	var gate *auth.Gate
	client, err := api.New(cfg.API.BaseURL,
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(logger),
		api.WithTokenSource(api.TokenFunc(func() string { return gate.Token() })),
		api.WithUnauthorizedHook(func() { gate.Expire() }),
	)
	if err != nil {
		return nil, err
	}
	gate = auth.NewGate(store, client, auth.WithLogger(logger))
	gate.Restore()

	cache := query.New(query.WithRefresh(cfg.Cache.Refresh), query.WithLogger(logger))
	return &app{
		cfg:      cfg,
		logger:   logger,
		closeLog: func() error { return nil },
		client:   client,
		gate:     gate,
		cache:    cache,
	}, nil
}

func (a *app) Close() error {
	return a.closeLog()
}

// requireSession returns errNotAuthenticated unless a session is active.
func (a *app) requireSession() error {
	if !a.gate.Authenticated() {
		return errNotAuthenticated
	}
	return nil
}

// withApp builds the app, runs fn, and closes the app.
func withApp(fn func(ctx context.Context, a *app) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck // log file close on exit

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return fn(ctx, a)
}

// --- Dashboard command ---

// DashboardCmd opens the interactive dashboard TUI.
type DashboardCmd struct{}

// teaRunner abstracts Bubble Tea program execution for testing.
type teaRunner interface {
	Run() (tea.Model, error)
	Send(msg tea.Msg)
}

// Run builds real dependencies and launches the dashboard TUI.
func (d *DashboardCmd) Run() error {
	isTTY := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	if !isTTY {
		return fmt.Errorf("dashboard: requires a terminal (TTY)")
	}
	return withApp(func(ctx context.Context, a *app) error {
		m := dashboard.NewModel(
			dashboard.WithBackend(a.client),
			dashboard.WithSession(a.gate),
			dashboard.WithCache(a.cache),
			dashboard.WithLogger(a.logger),
			dashboard.WithContext(ctx),
		)
		prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
		return d.run(isTTY, a, prog)
	})
}

// run connects cache and session notifications to the program and runs it.
func (d *DashboardCmd) run(isTTY bool, a *app, prog teaRunner) error {
	if !isTTY {
		return fmt.Errorf("dashboard: requires a terminal (TTY)")
	}
	dashboard.Forward(a.cache, a.gate, prog.Send)
	_, err := prog.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// --- Session commands ---

// LoginCmd signs in and persists the session.
type LoginCmd struct {
	Email    string `help:"Account email." required:""`
	Password string `help:"Account password." env:"EVENTADMIN_PASSWORD"`
}

// Run executes the login command.
func (c *LoginCmd) Run() error {
	return withApp(func(ctx context.Context, a *app) error {
		return c.run(ctx, a, os.Stdout)
	})
}

func (c *LoginCmd) run(ctx context.Context, a *app, w io.Writer) error {
	if c.Password == "" {
		return errors.New("login: --password or EVENTADMIN_PASSWORD is required")
	}
	if !a.gate.Login(ctx, c.Email, c.Password) {
		return fmt.Errorf("login: %w", errLoginFailed)
	}
	u := a.gate.User()
	_, _ = fmt.Fprintf(w, "Logged in as %s <%s>\n", u.Username, u.Email)
	return nil
}

var errLoginFailed = errors.New(dashboard.MsgLoginFailed)

// LogoutCmd forgets the session. It succeeds when already logged out.
type LogoutCmd struct{}

// Run executes the logout command.
func (c *LogoutCmd) Run() error {
	return withApp(func(_ context.Context, a *app) error {
		return c.run(a, os.Stdout)
	})
}

func (c *LogoutCmd) run(a *app, w io.Writer) error {
	a.gate.Logout()
	_, _ = fmt.Fprintln(w, "Logged out")
	return nil
}

// WhoamiCmd prints the signed-in user.
type WhoamiCmd struct{}

// Run executes the whoami command.
func (c *WhoamiCmd) Run() error {
	return withApp(func(_ context.Context, a *app) error {
		return c.run(a, os.Stdout)
	})
}

func (c *WhoamiCmd) run(a *app, w io.Writer) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	u := a.gate.User()
	_, _ = fmt.Fprintf(w, "%s <%s> %s\n", u.Username, u.Email, u.Role)
	return nil
}

// ResetPasswordCmd requests a password reset email.
type ResetPasswordCmd struct {
	Email string `arg:"" help:"Account email."`
}

// Run executes the reset-password command.
func (c *ResetPasswordCmd) Run() error {
	return withApp(func(ctx context.Context, a *app) error {
		return c.run(ctx, a, os.Stdout)
	})
}

func (c *ResetPasswordCmd) run(ctx context.Context, a *app, w io.Writer) error {
	if !a.gate.ResetPassword(ctx, c.Email) {
		return errors.New(dashboard.MsgResetFailed)
	}
	_, _ = fmt.Fprintln(w, dashboard.MsgResetSent)
	return nil
}

// --- Listing commands ---

// EventsCmd prints one page of events.
type EventsCmd struct {
	Page      int    `help:"Page number." default:"1"`
	Limit     int    `help:"Events per page." default:"6"`
	Search    string `help:"Filter by name."`
	SortBy    string `help:"Sort field, e.g. eventDate or name."`
	SortOrder string `help:"Sort direction (asc or desc)."`
}

// Run executes the events command.
func (c *EventsCmd) Run() error {
	return withApp(func(ctx context.Context, a *app) error {
		return c.run(ctx, a, os.Stdout)
	})
}

func (c *EventsCmd) run(ctx context.Context, a *app, w io.Writer) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	switch api.SortOrder(c.SortOrder) {
	case "", api.SortAsc, api.SortDesc:
	default:
		return fmt.Errorf("events: sort order must be asc or desc, got %q", c.SortOrder)
	}
	page := a.client.ListEvents(ctx, api.ListEventsParams{
		Page:      c.Page,
		Limit:     c.Limit,
		Search:    c.Search,
		SortBy:    c.SortBy,
		SortOrder: api.SortOrder(c.SortOrder),
	})
	// A listing degraded by a 401 means the session just expired.
	if err := a.requireSession(); err != nil {
		return err
	}
	if len(page.Events) == 0 {
		msg := page.Message
		if msg == "" {
			msg = api.NoEventsMessage
		}
		_, _ = fmt.Fprintln(w, msg)
		return nil
	}

	rows := make([][]string, 0, len(page.Events))
	for _, e := range page.Events {
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.Name,
			e.EventDate.Local().Format(time.DateOnly),
			e.StartTime.Local().Format("15:04") + "-" + e.EndTime.Local().Format("15:04"),
			string(e.EventStatus),
		})
	}
	_, _ = fmt.Fprintln(w, renderTable([]string{"ID", "Name", "Date", "Time", "Status"}, rows))
	_, _ = fmt.Fprintf(w, "Page %d of %d · %d events\n", page.Page, max(page.TotalPages, 1), page.Total)
	return nil
}

// UsersCmd prints every user.
type UsersCmd struct{}

// Run executes the users command.
func (c *UsersCmd) Run() error {
	return withApp(func(ctx context.Context, a *app) error {
		return c.run(ctx, a, os.Stdout)
	})
}

func (c *UsersCmd) run(ctx context.Context, a *app, w io.Writer) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	users, err := a.client.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("users: %w", err)
	}
	if len(users) == 0 {
		_, _ = fmt.Fprintln(w, "No users found in the system.")
		return nil
	}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{
			strconv.FormatInt(u.ID, 10), u.Username, u.Email, string(u.Role), string(u.Invitation),
		})
	}
	_, _ = fmt.Fprintln(w, renderTable([]string{"ID", "Name", "Email", "Role", "Invitation"}, rows))
	return nil
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		String()
}

// --- Mock API command ---

// MockAPICmd serves the in-memory admin API.
type MockAPICmd struct {
	Addr string `help:"Listen address." default:"localhost:8000"`
}

// Run serves until interrupted.
func (c *MockAPICmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("mock-api: %w", err)
	}
	lvl, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("mock-api: %w", err)
	}
	logger := logging.New(os.Stderr, lvl)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return c.serve(ctx, mockapi.New(mockapi.WithLogger(logger)), logger)
}

func (c *MockAPICmd) serve(ctx context.Context, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              c.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("mock api listening", "addr", c.Addr, "base_url", "http://"+c.Addr+"/api",
			"admin_email", mockapi.AdminEmail, "admin_password", mockapi.AdminPassword)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("mock-api: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("mock-api: shutdown: %w", err)
	}
	return nil
}

const (
	exitSuccess = 0
	exitError   = 1
	exitAuth    = 2
)

// exitCode maps an error to the appropriate exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	if errors.Is(err, errNotAuthenticated) || errors.Is(err, api.ErrUnauthorized) || errors.Is(err, api.ErrNoToken) {
		return exitAuth
	}
	return exitError
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("eventadmin"),
		kong.Description("Admin client for the events API."),
		kong.Vars{"version": version + " " + commit + " " + date},
	)
	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
