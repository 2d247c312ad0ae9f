package models

import (
	"sort"
	"time"
)

// Task is one row of the user's task list.
type Task struct {
	ID         string
	UserID     string
	TaskText   string
	IsComplete bool
	CreatedAt  time.Time
}

// NewTask is the payload of an insert. The server assigns ID and CreatedAt.
type NewTask struct {
	UserID   string
	TaskText string
}

// TaskPatch carries the columns an update changes.
type TaskPatch struct {
	IsComplete bool
}

// Filter is an equality filter. UserID is always required; ID narrows a
// mutation to one row.
type Filter struct {
	UserID string
	ID     string
}

// Match reports whether t satisfies f.
func (f Filter) Match(t Task) bool {
	if f.UserID != "" && t.UserID != f.UserID {
		return false
	}
	if f.ID != "" && t.ID != f.ID {
		return false
	}
	return true
}

// Order selects the list ordering. The zero value is newest first.
type Order struct {
	Ascending bool
}

// SortTasks orders tasks by CreatedAt, breaking ties by ID so the result is
// total.
func SortTasks(tasks []Task, o Order) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if o.Ascending {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		if o.Ascending {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})
}
