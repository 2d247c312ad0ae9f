package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophtasks/internal/client/session"
)

type fakeExec struct {
	scr         session.Screen
	loadingLeft int
	waits       int

	calls []string
}

func (f *fakeExec) screen() session.Screen { return f.scr }
func (f *fakeExec) loading() bool          { return f.loadingLeft > 0 }
func (f *fakeExec) waitReady(context.Context) {
	f.waits++
	f.loadingLeft--
}

func (f *fakeExec) Login(ctx context.Context) error {
	f.calls = append(f.calls, "login")
	f.scr = session.ScreenTasks
	return nil
}
func (f *fakeExec) Signup(ctx context.Context) error {
	f.calls = append(f.calls, "signup")
	return nil
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.calls = append(f.calls, "logout")
	f.scr = session.ScreenLogin
	return nil
}
func (f *fakeExec) List(ctx context.Context) error { f.calls = append(f.calls, "list"); return nil }
func (f *fakeExec) Refresh(ctx context.Context) error {
	f.calls = append(f.calls, "refresh")
	return nil
}
func (f *fakeExec) Add(ctx context.Context, text string) error {
	f.calls = append(f.calls, "add:"+text)
	return nil
}
func (f *fakeExec) Complete(ctx context.Context, ref string, done bool) error {
	f.calls = append(f.calls, fmt.Sprintf("complete:%s:%t", ref, done))
	return nil
}
func (f *fakeExec) Delete(ctx context.Context, ref string) error {
	f.calls = append(f.calls, "delete:"+ref)
	return nil
}

func capturePrintln(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func run(exec *fakeExec, input ...string) {
	r := bufio.NewReader(strings.NewReader(strings.Join(input, "\n")))
	runREPL(context.Background(), exec, func() string { return string(exec.scr) }, r)
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	capturePrintln(t)

	exec := &fakeExec{scr: session.ScreenLogin}
	run(exec,
		"help",
		"login",
		"help",
		"l",
		"add   buy  milk ",
		"done 1",
		"undo abc",
		"delete 2",
		"refresh",
		"logout",
		"exit",
	)

	require.Equal(t, []string{
		"login",
		"list",
		"add:buy  milk",
		"complete:1:true",
		"complete:abc:false",
		"delete:2",
		"refresh",
		"logout",
	}, exec.calls)
}

func TestRunREPL_RejectsCommandsOfOtherScreen(t *testing.T) {
	lines := capturePrintln(t)

	exec := &fakeExec{scr: session.ScreenLogin}
	run(exec, "list", "add x", "logout", "quit")
	require.Empty(t, exec.calls)
	require.Contains(t, *lines, `Command "list" is not available on the login screen`)

	exec = &fakeExec{scr: session.ScreenTasks}
	run(exec, "login", "signup", "exit")
	require.Empty(t, exec.calls)
	require.Contains(t, *lines, `Command "signup" is not available on the tasks screen`)
}

func TestRunREPL_UsageUnknownAndQuit(t *testing.T) {
	lines := capturePrintln(t)

	exec := &fakeExec{scr: session.ScreenTasks}
	run(exec, "done", "delete 1 2", "frobnicate", "quit", "list")

	require.Empty(t, exec.calls)
	require.Contains(t, *lines, "Usage: done <n|id>")
	require.Contains(t, *lines, "Usage: delete <n|id>")
	require.Contains(t, *lines, "Unknown command: frobnicate")
	require.Equal(t, "Bye!", (*lines)[len(*lines)-1])
}

func TestRunREPL_WaitsWhileLoading(t *testing.T) {
	lines := capturePrintln(t)

	exec := &fakeExec{scr: session.ScreenLogin, loadingLeft: 2}
	run(exec, "exit")

	require.Equal(t, 2, exec.waits)
	require.Equal(t, "Loading session...", (*lines)[0])
	require.Equal(t, "gt> login > ", (*lines)[2])
}

func TestRunREPL_LastLineWithoutNewline(t *testing.T) {
	capturePrintln(t)

	exec := &fakeExec{scr: session.ScreenTasks}
	run(exec, "list")
	require.Equal(t, []string{"list"}, exec.calls)
}

func TestRunREPL_StopsOnCancelledContext(t *testing.T) {
	capturePrintln(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExec{scr: session.ScreenTasks}
	runREPL(ctx, exec, func() string { return "" }, bufio.NewReader(strings.NewReader("list\n")))
	require.Empty(t, exec.calls)
}

func TestHelpText_PerScreen(t *testing.T) {
	require.Contains(t, helpText(session.ScreenLogin), "signup")
	require.NotContains(t, helpText(session.ScreenLogin), "delete")
	require.Contains(t, helpText(session.ScreenTasks), "delete <n|id>")
	require.Contains(t, helpText(session.ScreenSignup), "login")
}
