package session

import "sync"

type Screen string

const (
	ScreenLogin  Screen = "login"
	ScreenSignup Screen = "signup"
	ScreenTasks  Screen = "tasks"
)

// Unauthenticated reports whether s belongs to the signed-out group.
func (s Screen) Unauthenticated() bool {
	return s == ScreenLogin || s == ScreenSignup
}

// Navigator is the screen stack the guard drives.
type Navigator interface {
	Current() Screen
	Replace(Screen)
}

// Guard keeps the current screen consistent with the session.
type Guard struct {
	mu  sync.Mutex
	nav Navigator
}

func NewGuard(nav Navigator) *Guard {
	return &Guard{nav: nav}
}

// Apply evaluates one snapshot and returns the screen it navigated to, if
// any. Nothing happens while loading.
func (g *Guard) Apply(s Snapshot) (Screen, bool) {
	if s.Loading {
		return "", false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	cur := g.nav.Current()
	switch {
	case s.Session == nil && !cur.Unauthenticated():
		g.nav.Replace(ScreenLogin)
		return ScreenLogin, true
	case s.Session != nil && cur.Unauthenticated():
		g.nav.Replace(ScreenTasks)
		return ScreenTasks, true
	}
	return "", false
}

// Observe adapts the guard to a Manager observer.
func (g *Guard) Observe(s Snapshot) {
	g.Apply(s)
}
