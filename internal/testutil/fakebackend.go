// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophtasks/internal/client/client"
	"github.com/dmitrijs2005/gophtasks/internal/client/models"
)

// Base is the creation time of the first task added to a FakeBackend. Each
// later task is one second younger.
var Base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// FakeBackend is an in-memory implementation of client.Backend for testing.
// Filtering and ordering follow the real server.
type FakeBackend struct {
	mu        sync.Mutex
	users     map[string]fakeUser // email -> user
	tasks     []models.Task
	seq       int
	session   *models.Session
	listeners map[int]client.AuthListener
	subs      map[int]*FakeSubscription
	nextID    int
	calls     map[string]int

	// StoredSession is what GetSession restores.
	StoredSession *models.Session

	// ConfirmationRequired makes SignUp succeed without a session.
	ConfirmationRequired bool

	// AutoEmit publishes a change event to matching subscriptions after each
	// successful write.
	AutoEmit bool

	// IgnoreFilter makes SelectTasks return every row, as a misbehaving
	// server would.
	IgnoreFilter bool

	// Error injection for testing
	SignUpErr     error
	SignInErr     error
	SignOutErr    error
	GetSessionErr error
	SelectErr     error
	InsertErr     error
	UpdateErr     error
	DeleteErr     error
	SubscribeErr  error

	// Hooks run before the operation, outside the lock. They may block to
	// hold a call in flight.
	BeforeGetSession func(ctx context.Context)
	BeforeSelect     func(ctx context.Context)
	BeforeInsert     func(ctx context.Context)
	BeforeUpdate     func(ctx context.Context)
	BeforeDelete     func(ctx context.Context)
}

type fakeUser struct {
	id       string
	password string
}

var _ client.Backend = (*FakeBackend)(nil)

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		users:     map[string]fakeUser{},
		listeners: map[int]client.AuthListener{},
		subs:      map[int]*FakeSubscription{},
		calls:     map[string]int{},
	}
}

// AddUser registers credentials SignIn will accept.
func (f *FakeBackend) AddUser(userID, email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[email] = fakeUser{id: userID, password: password}
}

// AddTask stores a task directly, bypassing hooks and errors, and returns
// its id.
func (f *FakeBackend) AddTask(userID, text string, done bool) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addLocked(userID, text, done).ID
}

func (f *FakeBackend) addLocked(userID, text string, done bool) models.Task {
	f.seq++
	t := models.Task{
		ID:         fmt.Sprintf("t%d", f.seq),
		UserID:     userID,
		TaskText:   text,
		IsComplete: done,
		CreatedAt:  Base.Add(time.Duration(f.seq) * time.Second),
	}
	f.tasks = append(f.tasks, t)
	return t
}

// ServerTasks returns the stored rows of userID, newest first.
func (f *FakeBackend) ServerTasks(userID string) []models.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Task
	for _, t := range f.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	models.SortTasks(out, models.Order{})
	return out
}

// SetServerComplete edits a row behind the client's back.
func (f *FakeBackend) SetServerComplete(id string, done bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks[i].IsComplete = done
		}
	}
}

// Calls reports how many times op ran past its hook, e.g. "InsertTask".
func (f *FakeBackend) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// NetworkCalls is the total of the record-store calls.
func (f *FakeBackend) NetworkCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls["SelectTasks"] + f.calls["InsertTask"] + f.calls["UpdateTask"] + f.calls["DeleteTask"]
}

func (f *FakeBackend) count(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func runHook(ctx context.Context, h func(context.Context)) {
	if h != nil {
		h(ctx)
	}
}

// FireAuth delivers an auth transition to the registered listeners as the
// real provider would, and makes s the current session.
func (f *FakeBackend) FireAuth(event models.AuthEvent, s *models.Session) {
	f.mu.Lock()
	f.session = s.Clone()
	ids := make([]int, 0, len(f.listeners))
	for id := range f.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]client.AuthListener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, f.listeners[id])
	}
	f.mu.Unlock()

	for _, fn := range listeners {
		fn(event, s.Clone())
	}
}

// Listeners reports how many auth listeners are registered.
func (f *FakeBackend) Listeners() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

func (f *FakeBackend) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	f.count("SignUp")
	if f.SignUpErr != nil {
		return nil, f.SignUpErr
	}

	f.mu.Lock()
	if _, ok := f.users[email]; ok {
		f.mu.Unlock()
		return nil, client.ErrAlreadyExists
	}
	id := fmt.Sprintf("u%d", len(f.users)+1)
	f.users[email] = fakeUser{id: id, password: password}
	f.mu.Unlock()

	if f.ConfirmationRequired {
		return nil, nil
	}

	s := &models.Session{UserID: id, Email: email, AccessToken: "access-" + id, RefreshToken: "refresh-" + id}
	f.FireAuth(models.AuthSignedIn, s)
	return s.Clone(), nil
}

func (f *FakeBackend) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	f.count("SignIn")
	if f.SignInErr != nil {
		return nil, f.SignInErr
	}

	f.mu.Lock()
	u, ok := f.users[email]
	f.mu.Unlock()
	if !ok || u.password != password {
		return nil, client.ErrUnauthorized
	}

	s := &models.Session{UserID: u.id, Email: email, AccessToken: "access-" + u.id, RefreshToken: "refresh-" + u.id}
	f.FireAuth(models.AuthSignedIn, s)
	return s.Clone(), nil
}

func (f *FakeBackend) SignOut(ctx context.Context) error {
	f.count("SignOut")
	f.FireAuth(models.AuthSignedOut, nil)
	return f.SignOutErr
}

func (f *FakeBackend) GetSession(ctx context.Context) (*models.Session, error) {
	runHook(ctx, f.BeforeGetSession)
	f.count("GetSession")
	if f.GetSessionErr != nil {
		return nil, f.GetSessionErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.StoredSession.Clone(), nil
}

func (f *FakeBackend) OnAuthStateChange(fn client.AuthListener) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.listeners, id)
			f.mu.Unlock()
		})
	}
}

func (f *FakeBackend) SelectTasks(ctx context.Context, filter models.Filter, o models.Order) ([]models.Task, error) {
	runHook(ctx, f.BeforeSelect)
	f.count("SelectTasks")
	if f.SelectErr != nil {
		return nil, f.SelectErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]models.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		if f.IgnoreFilter || filter.Match(t) {
			out = append(out, t)
		}
	}
	models.SortTasks(out, o)
	return out, nil
}

func (f *FakeBackend) InsertTask(ctx context.Context, t models.NewTask) error {
	runHook(ctx, f.BeforeInsert)
	f.count("InsertTask")
	if f.InsertErr != nil {
		return f.InsertErr
	}

	f.mu.Lock()
	row := f.addLocked(t.UserID, t.TaskText, false)
	f.mu.Unlock()

	f.autoEmit(models.EventInsert, row)
	return nil
}

func (f *FakeBackend) UpdateTask(ctx context.Context, filter models.Filter, p models.TaskPatch) error {
	runHook(ctx, f.BeforeUpdate)
	f.count("UpdateTask")
	if f.UpdateErr != nil {
		return f.UpdateErr
	}

	f.mu.Lock()
	var row *models.Task
	for i := range f.tasks {
		if filter.Match(f.tasks[i]) {
			f.tasks[i].IsComplete = p.IsComplete
			row = &f.tasks[i]
			break
		}
	}
	var changed models.Task
	if row != nil {
		changed = *row
	}
	f.mu.Unlock()

	if row == nil {
		return client.ErrNotFound
	}
	f.autoEmit(models.EventUpdate, changed)
	return nil
}

func (f *FakeBackend) DeleteTask(ctx context.Context, filter models.Filter) error {
	runHook(ctx, f.BeforeDelete)
	f.count("DeleteTask")
	if f.DeleteErr != nil {
		return f.DeleteErr
	}

	f.mu.Lock()
	idx := -1
	for i, t := range f.tasks {
		if filter.Match(t) {
			idx = i
			break
		}
	}
	var removed models.Task
	if idx >= 0 {
		removed = f.tasks[idx]
		f.tasks = append(f.tasks[:idx], f.tasks[idx+1:]...)
	}
	f.mu.Unlock()

	if idx < 0 {
		return client.ErrNotFound
	}
	f.autoEmit(models.EventDelete, removed)
	return nil
}

func (f *FakeBackend) autoEmit(typ models.EventType, t models.Task) {
	if !f.AutoEmit {
		return
	}
	f.Emit(models.ChangeEvent{Type: typ, Table: "tasks", TaskID: t.ID, UserID: t.UserID, CommittedAt: time.Now()})
}

// FakeSubscription records one Subscribe call.
type FakeSubscription struct {
	Channel  models.Channel
	onEvent  client.EventHandler
	onStatus client.StatusHandler

	mu     sync.Mutex
	closes int
}

// Close is counted so tests can assert exactly one teardown; every call
// after the first is a no-op.
func (s *FakeSubscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
}

// Closes reports how many times Close was called.
func (s *FakeSubscription) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

func (s *FakeSubscription) open() bool {
	return s.Closes() == 0
}

// Subscribe records the channel and reports SUBSCRIBED synchronously.
func (f *FakeBackend) Subscribe(ctx context.Context, ch models.Channel, onEvent client.EventHandler, onStatus client.StatusHandler) (client.Subscription, error) {
	f.count("Subscribe")
	if f.SubscribeErr != nil {
		return nil, f.SubscribeErr
	}

	sub := &FakeSubscription{Channel: ch, onEvent: onEvent, onStatus: onStatus}

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = sub
	f.mu.Unlock()

	if onStatus != nil {
		onStatus(models.FeedSubscribed, nil)
	}
	return sub, nil
}

// Subscriptions returns every subscription ever opened, in order.
func (f *FakeBackend) Subscriptions() []*FakeSubscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int, 0, len(f.subs))
	for id := range f.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]*FakeSubscription, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.subs[id])
	}
	return out
}

// OpenSubscriptions counts subscriptions not yet closed.
func (f *FakeBackend) OpenSubscriptions() int {
	n := 0
	for _, s := range f.Subscriptions() {
		if s.open() {
			n++
		}
	}
	return n
}

func matchesEvent(ch models.Channel, ev models.ChangeEvent) bool {
	if ch.Table != "" && ch.Table != ev.Table {
		return false
	}
	if ch.Filter.UserID != "" && ch.Filter.UserID != ev.UserID {
		return false
	}
	if len(ch.Events) == 0 {
		return true
	}
	for _, e := range ch.Events {
		if e == ev.Type {
			return true
		}
	}
	return false
}

// Emit delivers ev synchronously to every open subscription it matches.
func (f *FakeBackend) Emit(ev models.ChangeEvent) {
	for _, s := range f.Subscriptions() {
		if s.open() && s.onEvent != nil && matchesEvent(s.Channel, ev) {
			s.onEvent(ev)
		}
	}
}

// EmitStatus delivers a lifecycle status to every open subscription.
func (f *FakeBackend) EmitStatus(st models.FeedStatus, err error) {
	for _, s := range f.Subscriptions() {
		if s.open() && s.onStatus != nil {
			s.onStatus(st, err)
		}
	}
}

// Notice is one recorded user-facing notice.
type Notice struct {
	Title   string
	Message string
}

// RecordingNotifier collects notices.
type RecordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *RecordingNotifier) Notify(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, Notice{Title: title, Message: message})
}

func (n *RecordingNotifier) Notices() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.notices...)
}

// Titles lists the recorded notice titles in order.
func (n *RecordingNotifier) Titles() []string {
	var out []string
	for _, x := range n.Notices() {
		out = append(out, x.Title)
	}
	return out
}

// StaticConfirmer answers every confirmation with Answer and counts asks.
type StaticConfirmer struct {
	Answer bool

	mu   sync.Mutex
	asks int
}

func (c *StaticConfirmer) Confirm(ctx context.Context, title, message string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.asks++
	return c.Answer
}

func (c *StaticConfirmer) Asks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.asks
}
