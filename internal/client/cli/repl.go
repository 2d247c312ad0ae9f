package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophtasks/internal/client/session"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	screen() session.Screen
	loading() bool
	waitReady(ctx context.Context)

	Login(ctx context.Context) error
	Signup(ctx context.Context) error
	Logout(ctx context.Context) error

	List(ctx context.Context) error
	Refresh(ctx context.Context) error
	Add(ctx context.Context, text string) error
	Complete(ctx context.Context, ref string, done bool) error
	Delete(ctx context.Context, ref string) error
}

var aliases = map[string]string{
	"l":    "list",
	"quit": "exit",
}

var (
	authCommands = []string{"login", "signup", "help", "exit"}
	taskCommands = []string{"list", "add", "done", "undo", "delete", "refresh", "logout", "help", "exit"}
)

func commandsFor(s session.Screen) []string {
	if s.Unauthenticated() {
		return authCommands
	}
	return taskCommands
}

func known(cmd string) bool {
	for _, list := range [][]string{authCommands, taskCommands} {
		for _, c := range list {
			if c == cmd {
				return true
			}
		}
	}
	return false
}

func allowed(s session.Screen, cmd string) bool {
	for _, c := range commandsFor(s) {
		if c == cmd {
			return true
		}
	}
	return false
}

func helpText(s session.Screen) string {
	if s.Unauthenticated() {
		return "Available commands: login, signup, exit"
	}
	return "Available commands: (l)ist, add <text>, done <n|id>, undo <n|id>, delete <n|id>, refresh, logout, exit"
}

// runREPL starts a simple read–eval–print loop for the task client.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Commands that do not belong to the current
// screen are rejected. While the session is still being restored the loop
// prints a loading line and waits before reading input. The loop exits on
// EOF, on ctx cancellation, or when the user types "exit" or "quit".
//
//	login / signup screens:
//	  - login          sign in
//	  - signup         create an account
//	  - help, exit
//
//	tasks screen:
//	  - list | l       show the task list
//	  - add <text>     add a task (no text retries the last failed add)
//	  - done <n|id>    mark a task complete
//	  - undo <n|id>    mark a task not complete
//	  - delete <n|id>  delete a task after confirmation
//	  - refresh        reload the list from the server
//	  - logout         sign out
//	  - help, exit
//
// Errors returned by command handlers are ignored here; handlers report
// their own failures.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		if a.loading() {
			printlnFn("Loading session...")
			a.waitReady(ctx)
			continue
		}

		printlnFn(fmt.Sprintf("gt> %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		if alias, ok := aliases[cmd]; ok {
			cmd = alias
		}
		args := parts[1:]

		if !known(cmd) {
			printlnFn("Unknown command:", parts[0])
			continue
		}
		screen := a.screen()
		if !allowed(screen, cmd) {
			printlnFn(fmt.Sprintf("Command %q is not available on the %s screen", parts[0], screen))
			continue
		}

		switch cmd {
		case "help":
			printlnFn(helpText(screen))

		case "login":
			_ = a.Login(ctx)

		case "signup":
			_ = a.Signup(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "list":
			_ = a.List(ctx)

		case "refresh":
			_ = a.Refresh(ctx)

		case "add":
			text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), parts[0]))
			_ = a.Add(ctx, text)

		case "done", "undo":
			if len(args) != 1 {
				printlnFn(fmt.Sprintf("Usage: %s <n|id>", cmd))
				continue
			}
			_ = a.Complete(ctx, args[0], cmd == "done")

		case "delete":
			if len(args) != 1 {
				printlnFn("Usage: delete <n|id>")
				continue
			}
			_ = a.Delete(ctx, args[0])

		case "exit":
			printlnFn("Bye!")
			return
		}

		if err != nil {
			return
		}
	}
}
