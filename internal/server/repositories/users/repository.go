// Package users declares and implements the storage of registered accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophtasks/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills in its ID and CreatedAt. A duplicate
	// email yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByEmail returns common.ErrorNotFound when no account matches.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}
