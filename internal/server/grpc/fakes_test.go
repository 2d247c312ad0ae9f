package grpc

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophtasks/internal/common"
	"github.com/dmitrijs2005/gophtasks/internal/logging"
	"github.com/dmitrijs2005/gophtasks/internal/server/models"
	"github.com/dmitrijs2005/gophtasks/internal/server/services"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

type fakeUsers struct {
	result *services.AuthResult
	err    error

	signedOut string
}

func (f *fakeUsers) SignUp(context.Context, string, string) (*services.AuthResult, error) {
	return f.result, f.err
}

func (f *fakeUsers) SignIn(context.Context, string, string) (*services.AuthResult, error) {
	return f.result, f.err
}

func (f *fakeUsers) RefreshToken(context.Context, string) (*services.AuthResult, error) {
	return f.result, f.err
}

func (f *fakeUsers) SignOut(_ context.Context, token string) error {
	f.signedOut = token
	return f.err
}

// fakeTasks stores tasks per user and reports which user each call was
// scoped to.
type fakeTasks struct {
	mu       sync.Mutex
	rows     map[string][]*models.Task
	err      error
	lastUser string
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{rows: map[string][]*models.Task{}}
}

func (f *fakeTasks) List(_ context.Context, userID string) ([]*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUser = userID
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[userID], nil
}

func (f *fakeTasks) Create(_ context.Context, userID, text string) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUser = userID
	if f.err != nil {
		return nil, f.err
	}
	t := &models.Task{ID: "t-new", UserID: userID, Text: text, CreatedAt: time.Unix(100, 0).UTC()}
	f.rows[userID] = append([]*models.Task{t}, f.rows[userID]...)
	return t, nil
}

func (f *fakeTasks) SetComplete(_ context.Context, userID, id string, done bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUser = userID
	if f.err != nil {
		return f.err
	}
	for _, t := range f.rows[userID] {
		if t.ID == id {
			t.IsComplete = done
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeTasks) Delete(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUser = userID
	if f.err != nil {
		return f.err
	}
	rows := f.rows[userID]
	for i, t := range rows {
		if t.ID == id {
			f.rows[userID] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return common.ErrorNotFound
}
