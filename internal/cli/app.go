package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"findash/internal/aggregate"
	"findash/internal/alert"
	"findash/internal/api"
	"findash/internal/config"
	"findash/internal/dashboard"
	"findash/internal/debounce"
	"findash/internal/export"
	"findash/internal/log"
	"findash/internal/session"
	"findash/internal/ui"
)

// ErrUsage is returned for an unknown command or bad arguments.
var ErrUsage = errors.New("usage error")

// App runs findash commands against one client.
type App struct {
	Config *config.Config
	Client *api.Client
	Clock  debounce.Clock
	In     io.Reader
	Out    io.Writer
	Err    io.Writer
	Logger *log.Logger

	input *bufio.Scanner
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Run dispatches args[0] to its command.
func (a *App) Run(ctx context.Context, args []string) error {
	if a.Logger == nil {
		a.Logger = log.Discard()
	}
	if a.Clock == nil {
		a.Clock = debounce.RealClock{}
	}
	a.Out = &syncWriter{w: a.Out}
	if a.In != nil {
		a.input = bufio.NewScanner(a.In)
	}

	if len(args) == 0 {
		a.usage()
		return ErrUsage
	}
	cmd, rest := args[0], args[1:]
	a.Logger.Debug("Running command", "command", cmd)
	ctx = log.WithContext(ctx, a.Logger.With("command", cmd))

	switch cmd {
	case "login":
		return a.runLogin(ctx, rest)
	case "register":
		return a.runRegister(ctx, rest)
	case "logout":
		return a.runLogout(ctx)
	case "whoami":
		return a.runWhoami(ctx)
	case "summary":
		return a.runSummary(ctx, rest)
	case "transactions":
		return a.runTransactions(ctx, rest)
	case "export":
		return a.runExport(ctx, rest)
	case "browse":
		return a.runBrowse(ctx, rest)
	case "help", "-h", "--help":
		a.usage()
		return nil
	default:
		fmt.Fprintf(a.Err, "Unknown command: %s\n\n", cmd)
		a.usage()
		return ErrUsage
	}
}

func (a *App) usage() {
	fmt.Fprintln(a.Out, "findash - financial transactions dashboard")
	fmt.Fprintln(a.Out, "\nUsage:")
	fmt.Fprintln(a.Out, "  findash <command> [options]")
	fmt.Fprintln(a.Out, "\nCommands:")
	fmt.Fprintln(a.Out, "  login         Sign in and store the session token")
	fmt.Fprintln(a.Out, "  register      Create an account and sign in")
	fmt.Fprintln(a.Out, "  logout        Sign out and drop the session token")
	fmt.Fprintln(a.Out, "  whoami        Show the signed-in user")
	fmt.Fprintln(a.Out, "  summary       Show totals and the revenue/expense chart")
	fmt.Fprintln(a.Out, "  transactions  List one page of transactions")
	fmt.Fprintln(a.Out, "  export        Export matching transactions to CSV")
	fmt.Fprintln(a.Out, "  browse        Interactive filtered transaction table")
	fmt.Fprintln(a.Out, "\nRun 'findash <command> -h' for the options of a command.")
}

func (a *App) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.Err)
	return fs
}

func (a *App) newPage(kind dashboard.Kind, sink export.Sink) *dashboard.Page {
	size := a.Config.DashboardPageSize
	if kind == dashboard.Transactions {
		size = a.Config.TransactionsPageSize
	}
	return dashboard.NewPage(dashboard.Config{
		Kind:          kind,
		Backend:       a.Client,
		Sink:          sink,
		Clock:         a.Clock,
		Window:        a.Config.DebounceWindow,
		AlertDuration: a.Config.AlertDuration,
		PageSize:      size,
		Now:           a.Clock.Now,
		Logger:        a.Logger,
	})
}

// readLine reads one line of input, for prompts.
func (a *App) readLine(prompt string) (string, bool) {
	if a.input == nil {
		return "", false
	}
	fmt.Fprint(a.Out, prompt)
	if !a.input.Scan() {
		return "", false
	}
	return strings.TrimSpace(a.input.Text()), true
}

func (a *App) credentials(fs *flag.FlagSet, args []string, email, password *string) error {
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if *email == "" {
		*email, _ = a.readLine("Email: ")
	}
	if *password == "" {
		*password, _ = a.readLine("Password: ")
	}
	if *email == "" || *password == "" {
		return fmt.Errorf("email and password are required: %w", ErrUsage)
	}
	return nil
}

func (a *App) runLogin(ctx context.Context, args []string) error {
	fs := a.newFlagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (prompted when empty)")
	if err := a.credentials(fs, args, email, password); err != nil {
		return err
	}

	resp, err := a.Client.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.Out, ui.Alert(alert.State{Open: true, Message: "Login successful!", Severity: alert.Success}))
	fmt.Fprintf(a.Out, "Signed in as %s <%s>\n", resp.User.Name, resp.User.Email)
	return nil
}

func (a *App) runRegister(ctx context.Context, args []string) error {
	fs := a.newFlagSet("register")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (prompted when empty)")
	name := fs.String("name", "", "display name")
	if err := a.credentials(fs, args, email, password); err != nil {
		return err
	}
	if *name == "" {
		*name, _ = a.readLine("Name: ")
	}

	resp, err := a.Client.Register(ctx, *email, *password, *name)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Registered and signed in as %s <%s>\n", resp.User.Name, resp.User.Email)
	return nil
}

func (a *App) runLogout(ctx context.Context) error {
	if err := a.Client.Logout(ctx); err != nil {
		// the local session is gone either way
		a.Logger.Warn("Remote logout failed", log.FieldError, err)
	}
	fmt.Fprintln(a.Out, "Signed out")
	return nil
}

func (a *App) runWhoami(ctx context.Context) error {
	claims, err := a.Client.Session().Claims()
	if errors.Is(err, session.ErrNoToken) {
		fmt.Fprintln(a.Out, "Not signed in")
		return nil
	}
	if err == nil && claims.Expired(a.Clock.Now()) {
		fmt.Fprintf(a.Out, "Token expired at %s\n", claims.ExpiresAt.Format(time.RFC3339))
	}

	user, err := a.Client.Verify(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "%s <%s> (%s)\n", user.Name, user.Email, user.ID)
	return nil
}

func (a *App) runSummary(ctx context.Context, args []string) error {
	fs := a.newFlagSet("summary")
	period := fs.String("period", string(aggregate.Month), "chart granularity: month, quarter or year")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	page := a.newPage(dashboard.Dashboard, nil)
	if err := page.Load(ctx); err != nil {
		return err
	}
	summary, _ := page.Summary()
	g := aggregate.ParseGranularity(*period)

	fmt.Fprintln(a.Out, ui.Summary(summary))
	fmt.Fprintln(a.Out, ui.Chart(page.Chart(g), g))
	if len(summary.CategoryData) > 0 {
		fmt.Fprintln(a.Out, ui.Categories(summary.CategoryData))
	}
	return nil
}

func (a *App) runTransactions(ctx context.Context, args []string) error {
	fs := a.newFlagSet("transactions")
	ff := bindFilterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	page := a.newPage(dashboard.Transactions, nil)
	if err := ff.apply(page.Filters); err != nil {
		return fmt.Errorf("%v: %w", err, ErrUsage)
	}
	out := page.Query.Fetch(ctx)
	if out.Err != nil {
		return out.Err
	}
	fmt.Fprintln(a.Out, ui.Table(ui.TableView{
		Page:          page.Transactions(),
		ActiveFilters: page.Filters.ActiveCount(),
	}))
	return nil
}

func (a *App) runExport(ctx context.Context, args []string) error {
	fs := a.newFlagSet("export")
	ff := bindFilterFlags(fs)
	columns := fs.String("columns", "", "comma separated columns (default: all)")
	dir := fs.String("dir", a.Config.ExportDir, "directory the CSV is written to")
	stdout := fs.Bool("stdout", false, "write the CSV to stdout instead of a file")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	var sink export.Sink = export.DirSink{Dir: *dir}
	if *stdout {
		sink = &export.WriterSink{W: a.Out}
	}
	page := a.newPage(dashboard.Transactions, sink)
	if err := ff.apply(page.Filters); err != nil {
		return fmt.Errorf("%v: %w", err, ErrUsage)
	}

	preview, err := page.Export.Open(ctx, page.Filters.Snapshot())
	if err != nil {
		return err
	}
	if cols := splitColumns(*columns); len(cols) > 0 {
		if err := page.Export.Select(cols...); err != nil {
			page.Export.Cancel()
			return fmt.Errorf("%v: %w", err, ErrUsage)
		}
	}
	if !*stdout {
		fmt.Fprintln(a.Err, ui.ExportDialog(preview, page.Export.Available(), page.Export.Selected()))
	}

	location, err := page.Export.Confirm(ctx)
	if err != nil {
		return err
	}
	if !*stdout {
		fmt.Fprintln(a.Out, ui.Alert(page.Alerts.State()))
		fmt.Fprintf(a.Out, "Saved %s\n", location)
	}
	return nil
}
