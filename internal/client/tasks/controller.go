// Package tasks keeps the signed-in user's task list in step with the
// server. Mutations are applied locally first and rolled back when the
// server rejects them; any change-feed event triggers a full refresh.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophtasks/internal/client/client"
	"github.com/dmitrijs2005/gophtasks/internal/client/models"
	"github.com/dmitrijs2005/gophtasks/internal/common"
	"github.com/dmitrijs2005/gophtasks/internal/logging"
)

// Notice titles.
const (
	TitleFetch    = "Error fetching tasks"
	TitleAdd      = "Error adding task"
	TitleUpdate   = "Error updating task"
	TitleDelete   = "Error deleting task"
	TitleRealtime = "Realtime Connection Error"

	confirmDeleteTitle   = "Confirm Delete"
	confirmDeleteMessage = "Are you sure you want to delete this task?"
)

var (
	ErrEmptyText    = errors.New("task text is empty")
	ErrNoSession    = errors.New("no active session")
	ErrAddInFlight  = errors.New("an add is already in progress")
	ErrCancelled    = errors.New("cancelled")
	ErrTaskNotFound = errors.New("task not in list")
)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	}
	return "idle"
}

// Notifier shows a blocking notice to the user.
type Notifier interface {
	Notify(title, message string)
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, title, message string) bool
}

type Controller struct {
	store     client.Store
	feed      client.Feed
	notifier  Notifier
	confirmer Confirmer
	logger    logging.Logger

	mu      sync.Mutex
	session *models.Session
	gen     uint64
	// refreshSeq numbers Refresh calls; only the latest one may land.
	refreshSeq uint64
	tasks      []models.Task
	status     Status
	loading    bool
	adding     bool
	draft      string
	err        error
	sub        client.Subscription
}

func NewController(store client.Store, feed client.Feed, n Notifier, c Confirmer, l logging.Logger) *Controller {
	return &Controller{
		store:     store,
		feed:      feed,
		notifier:  n,
		confirmer: c,
		logger:    l.With("module", "tasks"),
	}
}

// SetSession activates the controller for s. A new user gets a fresh list
// and subscription; the same user only has the session copy replaced; nil
// deactivates.
func (c *Controller) SetSession(ctx context.Context, s *models.Session) error {
	if s == nil {
		c.Deactivate()
		return nil
	}

	c.mu.Lock()
	if c.session != nil && c.session.UserID == s.UserID {
		c.session = s.Clone()
		c.mu.Unlock()
		return nil
	}
	old := c.sub
	c.sub = nil
	c.session = s.Clone()
	c.gen++
	gen := c.gen
	c.tasks = nil
	c.status = StatusIdle
	c.err = nil
	c.adding = false
	c.mu.Unlock()

	if old != nil {
		old.Close()
	}

	_ = c.Refresh(ctx)

	ch := models.Channel{
		Table:  common.TasksTable,
		Filter: models.Filter{UserID: s.UserID},
		Events: models.AllEvents,
	}
	sub, err := c.feed.Subscribe(ctx, ch, c.onChange(ctx, gen), c.onStatus(gen))
	if err != nil {
		c.notifyRealtime(models.FeedChannelError, err)
		return err
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		sub.Close()
		return nil
	}
	c.sub = sub
	c.mu.Unlock()

	return nil
}

// Deactivate tears the subscription down and forgets the session and list.
func (c *Controller) Deactivate() {
	c.mu.Lock()
	sub := c.sub
	c.sub = nil
	c.session = nil
	c.gen++
	c.tasks = nil
	c.status = StatusIdle
	c.loading = false
	c.adding = false
	c.err = nil
	c.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}

func (c *Controller) onChange(ctx context.Context, gen uint64) client.EventHandler {
	return func(ev models.ChangeEvent) {
		c.mu.Lock()
		stale := c.gen != gen
		c.mu.Unlock()
		if stale {
			return
		}

		c.logger.Debug(ctx, "change received", "type", string(ev.Type), "task_id", ev.TaskID)
		_ = c.Refresh(ctx)
	}
}

func (c *Controller) onStatus(gen uint64) client.StatusHandler {
	return func(st models.FeedStatus, err error) {
		c.mu.Lock()
		stale := c.gen != gen
		c.mu.Unlock()
		if stale {
			return
		}

		if st == models.FeedSubscribed {
			c.logger.Info(context.Background(), "realtime channel subscribed")
			return
		}
		c.notifyRealtime(st, err)
	}
}

func (c *Controller) notifyRealtime(st models.FeedStatus, err error) {
	msg := fmt.Sprintf("Could not connect to live updates. Status: %s", st)
	if err != nil {
		msg += " " + err.Error()
	}
	c.logger.Error(context.Background(), "realtime subscription error or closed", "status", string(st), "error", err)
	c.notifier.Notify(TitleRealtime, msg)
}

// Refresh replaces the list with the server's rows for the session user.
// When calls overlap only the most recent one updates the list.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return ErrNoSession
	}
	userID := c.session.UserID
	gen := c.gen
	c.refreshSeq++
	seq := c.refreshSeq
	c.loading = true
	c.status = StatusLoading
	c.mu.Unlock()

	rows, err := c.store.SelectTasks(ctx, models.Filter{UserID: userID}, models.Order{})

	c.mu.Lock()
	if c.gen != gen || c.refreshSeq != seq {
		c.mu.Unlock()
		c.logger.Debug(ctx, "dropping superseded fetch result")
		return nil
	}
	c.loading = false
	if err != nil {
		c.tasks = nil
		c.status = StatusError
		c.err = err
		c.mu.Unlock()

		c.logger.Warn(ctx, "fetch failed", "error", err)
		c.notifier.Notify(TitleFetch, err.Error())
		return err
	}

	tasks := make([]models.Task, 0, len(rows))
	for _, t := range rows {
		if t.UserID == userID {
			tasks = append(tasks, t)
		}
	}
	models.SortTasks(tasks, models.Order{})

	c.tasks = tasks
	c.status = StatusReady
	c.err = nil
	c.mu.Unlock()
	return nil
}

// Add stores text as the draft and inserts it. The new row shows up through
// the change feed, not locally. Only one add runs at a time; a rejected
// second add keeps its text as the draft.
func (c *Controller) Add(ctx context.Context, text string) error {
	c.mu.Lock()
	c.draft = text
	trimmed := strings.TrimSpace(text)
	switch {
	case trimmed == "":
		c.mu.Unlock()
		return ErrEmptyText
	case c.session == nil:
		c.mu.Unlock()
		return ErrNoSession
	case c.adding:
		c.mu.Unlock()
		return ErrAddInFlight
	}
	c.adding = true
	userID := c.session.UserID
	gen := c.gen
	c.mu.Unlock()

	err := c.store.InsertTask(ctx, models.NewTask{UserID: userID, TaskText: trimmed})

	c.mu.Lock()
	if c.gen == gen {
		c.adding = false
	}
	if err == nil && c.draft == text {
		c.draft = ""
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn(ctx, "add failed", "error", err)
		c.notifier.Notify(TitleAdd, err.Error())
		return err
	}
	return nil
}

// ToggleComplete sets the completion flag locally, then on the server. A
// rejected update restores the previous flag unless the row changed since.
func (c *Controller) ToggleComplete(ctx context.Context, id string, done bool) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return ErrNoSession
	}
	idx := c.indexLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return ErrTaskNotFound
	}
	prev := c.tasks[idx].IsComplete
	c.tasks[idx].IsComplete = done
	userID := c.session.UserID
	gen := c.gen
	c.mu.Unlock()

	err := c.store.UpdateTask(ctx, models.Filter{UserID: userID, ID: id}, models.TaskPatch{IsComplete: done})
	if err == nil {
		return nil
	}

	c.mu.Lock()
	if c.gen == gen {
		if i := c.indexLocked(id); i >= 0 && c.tasks[i].IsComplete == done {
			c.tasks[i].IsComplete = prev
		}
	}
	c.mu.Unlock()

	c.logger.Warn(ctx, "update failed", "task_id", id, "error", err)
	c.notifier.Notify(TitleUpdate, err.Error())
	return err
}

// Delete asks for confirmation, removes the task locally and then on the
// server. A rejected delete restores the list as it was before the removal.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return ErrNoSession
	}
	if c.indexLocked(id) < 0 {
		c.mu.Unlock()
		return ErrTaskNotFound
	}
	gen := c.gen
	c.mu.Unlock()

	if !c.confirmer.Confirm(ctx, confirmDeleteTitle, confirmDeleteMessage) {
		return ErrCancelled
	}

	c.mu.Lock()
	if c.gen != gen || c.session == nil {
		c.mu.Unlock()
		return ErrNoSession
	}
	snapshot := append([]models.Task(nil), c.tasks...)
	if i := c.indexLocked(id); i >= 0 {
		c.tasks = append(append([]models.Task(nil), c.tasks[:i]...), c.tasks[i+1:]...)
	}
	userID := c.session.UserID
	c.mu.Unlock()

	err := c.store.DeleteTask(ctx, models.Filter{UserID: userID, ID: id})
	if err == nil {
		return nil
	}

	c.mu.Lock()
	if c.gen == gen {
		c.tasks = snapshot
	}
	c.mu.Unlock()

	c.logger.Warn(ctx, "delete failed", "task_id", id, "error", err)
	c.notifier.Notify(TitleDelete, err.Error())
	return err
}

func (c *Controller) indexLocked(id string) int {
	for i, t := range c.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Tasks returns a copy of the current list.
func (c *Controller) Tasks() []models.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Task(nil), c.tasks...)
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Controller) Adding() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.adding
}

func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Err is the last fetch error, cleared by a successful refresh.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Session returns a copy of the session the controller is bound to.
func (c *Controller) Session() *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Clone()
}
