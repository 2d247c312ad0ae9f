package client

import (
	"context"

	"github.com/dmitrijs2005/gophtasks/internal/client/models"
)

// AuthListener observes auth state transitions. It receives a copy of the
// new session, nil after sign-out.
type AuthListener func(event models.AuthEvent, s *models.Session)

type Auth interface {
	// SignUp returns a nil session when the backend wants the address
	// confirmed before signing in.
	SignUp(ctx context.Context, email, password string) (*models.Session, error)
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context) error
	// GetSession reads the persisted session without touching the network.
	GetSession(ctx context.Context) (*models.Session, error)
	OnAuthStateChange(fn AuthListener) (unsubscribe func())
}

type Store interface {
	SelectTasks(ctx context.Context, f models.Filter, o models.Order) ([]models.Task, error)
	InsertTask(ctx context.Context, t models.NewTask) error
	UpdateTask(ctx context.Context, f models.Filter, p models.TaskPatch) error
	DeleteTask(ctx context.Context, f models.Filter) error
}

// Subscription is a live feed listener. Close is idempotent. Once it returns
// no new callback starts, but one already running is not waited for.
type Subscription interface {
	Close()
}

type EventHandler func(models.ChangeEvent)

// StatusHandler receives lifecycle statuses. err carries the cause for
// CHANNEL_ERROR and TIMED_OUT.
type StatusHandler func(status models.FeedStatus, err error)

type Feed interface {
	Subscribe(ctx context.Context, ch models.Channel, onEvent EventHandler, onStatus StatusHandler) (Subscription, error)
}

// Backend is everything the task client needs from the server.
type Backend interface {
	Auth
	Store
	Feed
}
