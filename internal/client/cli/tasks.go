package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/gophtasks/internal/client/models"
	"github.com/dmitrijs2005/gophtasks/internal/client/tasks"
)

const timeLayout = "2006-01-02 15:04"

func formatTask(n int, t models.Task) string {
	mark := " "
	if t.IsComplete {
		mark = "x"
	}
	return fmt.Sprintf("%2d. [%s] %s  (%s, %s)", n, mark, t.TaskText, t.CreatedAt.Local().Format(timeLayout), t.ID)
}

// List prints the current task list as the controller holds it.
func (a *App) List(ctx context.Context) error {
	switch a.tasks.Status() {
	case tasks.StatusLoading:
		a.println("Loading tasks...")
		return nil
	case tasks.StatusError:
		a.println("Tasks could not be loaded, type 'refresh' to try again")
		return nil
	}

	list := a.tasks.Tasks()
	if len(list) == 0 {
		a.println("No tasks yet. Add one with: add <text>")
		return nil
	}
	for i, t := range list {
		a.println(formatTask(i+1, t))
	}
	return nil
}

// Refresh reloads the list from the server and prints it.
func (a *App) Refresh(ctx context.Context) error {
	if err := a.tasks.Refresh(ctx); err != nil {
		if errors.Is(err, tasks.ErrNoSession) {
			a.println("Not signed in")
		}
		return err
	}
	return a.List(ctx)
}

// Add inserts a task. An empty text retries the draft left by a failed add.
func (a *App) Add(ctx context.Context, text string) error {
	if text == "" {
		text = a.tasks.Draft()
	}

	err := a.tasks.Add(ctx, text)
	switch {
	case err == nil:
		a.println("Added")
	case errors.Is(err, tasks.ErrEmptyText):
		a.println("Usage: add <text>")
	case errors.Is(err, tasks.ErrAddInFlight):
		a.println("An add is already in progress")
	case errors.Is(err, tasks.ErrNoSession):
		a.println("Not signed in")
	}
	return err
}

// resolve turns a list position (1-based, as printed by List) or a task id
// into an id.
func (a *App) resolve(ref string) (string, error) {
	n, err := strconv.Atoi(ref)
	if err != nil {
		return ref, nil
	}
	list := a.tasks.Tasks()
	if n < 1 || n > len(list) {
		return "", tasks.ErrTaskNotFound
	}
	return list[n-1].ID, nil
}

// Complete marks the referenced task done or not done.
func (a *App) Complete(ctx context.Context, ref string, done bool) error {
	id, err := a.resolve(ref)
	if err == nil {
		err = a.tasks.ToggleComplete(ctx, id, done)
	}
	switch {
	case err == nil:
		if done {
			a.println("Completed")
		} else {
			a.println("Reopened")
		}
	case errors.Is(err, tasks.ErrTaskNotFound):
		a.printf("No such task: %s", ref)
	case errors.Is(err, tasks.ErrNoSession):
		a.println("Not signed in")
	}
	return err
}

// Delete removes the referenced task after confirmation.
func (a *App) Delete(ctx context.Context, ref string) error {
	id, err := a.resolve(ref)
	if err == nil {
		err = a.tasks.Delete(ctx, id)
	}
	switch {
	case err == nil:
		a.println("Deleted")
	case errors.Is(err, tasks.ErrCancelled):
		a.println("Cancelled")
	case errors.Is(err, tasks.ErrTaskNotFound):
		a.printf("No such task: %s", ref)
	case errors.Is(err, tasks.ErrNoSession):
		a.println("Not signed in")
	}
	return err
}
