package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/gophtasks/internal/client/client"
	"github.com/dmitrijs2005/gophtasks/internal/client/config"
	"github.com/dmitrijs2005/gophtasks/internal/client/session"
	"github.com/dmitrijs2005/gophtasks/internal/client/tasks"
	"github.com/dmitrijs2005/gophtasks/internal/logging"
)

// router is the screen stack driven by the route guard and by the
// login/signup commands.
type router struct {
	mu     sync.Mutex
	screen session.Screen
}

func newRouter(s session.Screen) *router {
	return &router{screen: s}
}

func (r *router) Current() session.Screen {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.screen
}

func (r *router) Replace(s session.Screen) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.screen = s
}

type App struct {
	config  *config.Config
	backend client.Backend
	manager *session.Manager
	guard   *session.Guard
	tasks   *tasks.Controller
	router  *router
	logger  logging.Logger

	reader *bufio.Reader
	outMu  sync.Mutex
	out    io.Writer

	ready     chan struct{}
	readyOnce sync.Once
}

// NewApp builds the client around backend. Input is read from in, user
// facing output (including notices) goes to out.
func NewApp(c *config.Config, backend client.Backend, l logging.Logger, in io.Reader, out io.Writer) *App {
	a := &App{
		config:  c,
		backend: backend,
		manager: session.NewManager(backend, l),
		router:  newRouter(session.ScreenLogin),
		logger:  l.With("module", "cli"),
		reader:  bufio.NewReader(in),
		out:     out,
		ready:   make(chan struct{}),
	}
	a.guard = session.NewGuard(a.router)
	a.tasks = tasks.NewController(backend, backend, a, a, l)
	return a
}

// Run starts the session manager and blocks in the REPL until the user
// exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	cancel := a.manager.Subscribe(a.onSessionChange(ctx))
	defer cancel()
	defer a.manager.Close()
	defer a.tasks.Deactivate()

	if a.config != nil {
		a.logger.Info(ctx, "client started", "server", a.config.ServerEndpointAddr)
	}
	go a.manager.Start(ctx)

	a.println("Welcome to GophTasks (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader)
	return nil
}

// onSessionChange keeps the screen and the task controller in step with
// the session. The first settled snapshot releases the REPL.
func (a *App) onSessionChange(ctx context.Context) session.Observer {
	return func(s session.Snapshot) {
		if s.Loading {
			return
		}
		if to, ok := a.guard.Apply(s); ok {
			a.logger.Debug(ctx, "navigated", "screen", string(to))
		}
		if err := a.tasks.SetSession(ctx, s.Session); err != nil {
			a.logger.Warn(ctx, "task controller activation failed", "error", err)
		}
		a.readyOnce.Do(func() { close(a.ready) })
	}
}

func (a *App) screen() session.Screen {
	return a.router.Current()
}

// loading is true until the first settled session has been applied to the
// screen and the task controller.
func (a *App) loading() bool {
	select {
	case <-a.ready:
		return false
	default:
		return true
	}
}

func (a *App) waitReady(ctx context.Context) {
	select {
	case <-a.ready:
	case <-ctx.Done():
	}
}

func (a *App) status() string {
	s := string(a.screen())
	if cur := a.manager.Current(); cur != nil {
		s += " (" + cur.Email + ")"
	}
	return s
}

func (a *App) println(args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format+"\n", args...)
}

// Notify renders a notice block.
func (a *App) Notify(title, message string) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, "\n[%s] %s\n", title, message)
}

// Confirm asks a y/N question on the terminal.
func (a *App) Confirm(ctx context.Context, title, message string) bool {
	a.println(title)
	return GetYesNo(a.reader, message, a.out)
}
