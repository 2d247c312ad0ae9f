// Package models defines server-side data models persisted in the database.
package models

import "time"

// Task is a single to-do item owned by one user.
type Task struct {
	ID         string
	UserID     string
	Text       string
	IsComplete bool
	CreatedAt  time.Time
}

// ChangeType names the kind of committed change a feed event reports.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// ChangeEvent describes one committed change to a user's tasks.
type ChangeEvent struct {
	Type        ChangeType
	Table       string
	TaskID      string
	UserID      string
	CommittedAt time.Time
}
