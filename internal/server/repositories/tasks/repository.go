// Package tasks stores per-user task records. Every statement is scoped by
// user_id so one account can never read or change another's rows.
package tasks

import (
	"context"

	"github.com/dmitrijs2005/gophtasks/internal/server/models"
)

type Repository interface {
	// ListByUser returns the user's tasks, newest first.
	ListByUser(ctx context.Context, userID string) ([]*models.Task, error)
	// Create inserts task (ID already assigned) and fills CreatedAt.
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	// SetComplete returns common.ErrorNotFound when no row matches both ids.
	SetComplete(ctx context.Context, userID, id string, done bool) error
	// Delete returns common.ErrorNotFound when no row matches both ids.
	Delete(ctx context.Context, userID, id string) error
}
