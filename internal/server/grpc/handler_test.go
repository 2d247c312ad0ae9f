package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophtasks/internal/api"
	"github.com/dmitrijs2005/gophtasks/internal/common"
	"github.com/dmitrijs2005/gophtasks/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestSignIn_MapsResult(t *testing.T) {
	exp := time.Unix(1000, 0).UTC()
	users := &fakeUsers{result: &services.AuthResult{
		UserID: "u1",
		Email:  "a@b.c",
		Tokens: &services.TokenPair{AccessToken: "a", RefreshToken: "r", ExpiresAt: exp},
	}}
	s := NewGRPCServer("", nopLogger{}, users, newFakeTasks(), nil, testSecret)

	resp, err := s.SignIn(context.Background(), &api.SignInRequest{Email: "a@b.c", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, &api.AuthResponse{UserID: "u1", Email: "a@b.c", AccessToken: "a", RefreshToken: "r", ExpiresAt: exp}, resp)
}

func TestSignOut_PassesRefreshToken(t *testing.T) {
	users := &fakeUsers{}
	s := NewGRPCServer("", nopLogger{}, users, newFakeTasks(), nil, testSecret)

	_, err := s.SignOut(context.Background(), &api.SignOutRequest{RefreshToken: "r1"})
	require.NoError(t, err)
	assert.Equal(t, "r1", users.signedOut)
}

func TestUserHandlers_MapErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"validation", fmt.Errorf("%w: bad email", common.ErrorValidation), codes.InvalidArgument},
		{"exists", common.ErrorAlreadyExists, codes.AlreadyExists},
		{"unauthorized", common.ErrorUnauthorized, codes.Unauthenticated},
		{"refresh expired", common.ErrRefreshTokenExpired, codes.Unauthenticated},
		{"other", errors.New("boom"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewGRPCServer("", nopLogger{}, &fakeUsers{err: tt.err}, newFakeTasks(), nil, testSecret)

			_, err := s.SignUp(context.Background(), &api.SignUpRequest{})
			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}

func TestTaskHandlers_RequireUserInContext(t *testing.T) {
	s := NewGRPCServer("", nopLogger{}, &fakeUsers{}, newFakeTasks(), nil, testSecret)

	_, err := s.ListTasks(context.Background(), &api.ListTasksRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestInsertTask_EmptyFilterUsesTokenUser(t *testing.T) {
	tasks := newFakeTasks()
	s := NewGRPCServer("", nopLogger{}, &fakeUsers{}, tasks, nil, testSecret)
	ctx := context.WithValue(context.Background(), UserIDKey, "u1")

	resp, err := s.InsertTask(ctx, &api.InsertTaskRequest{TaskText: "x"})
	require.NoError(t, err)
	assert.Equal(t, "u1", resp.Task.UserID)
	assert.Equal(t, "u1", tasks.lastUser)
}

func TestUpdateTask_OtherUsersTaskIsNotFound(t *testing.T) {
	tasks := newFakeTasks()
	s := NewGRPCServer("", nopLogger{}, &fakeUsers{}, tasks, nil, testSecret)

	_, err := s.InsertTask(context.WithValue(context.Background(), UserIDKey, "u1"), &api.InsertTaskRequest{TaskText: "x"})
	require.NoError(t, err)

	_, err = s.UpdateTask(context.WithValue(context.Background(), UserIDKey, "u2"), &api.UpdateTaskRequest{ID: "t-new", IsComplete: true})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestListTasks_InternalErrorIsHidden(t *testing.T) {
	tasks := newFakeTasks()
	tasks.err = errors.New("db error: connection reset")
	s := NewGRPCServer("", nopLogger{}, &fakeUsers{}, tasks, nil, testSecret)

	_, err := s.ListTasks(context.WithValue(context.Background(), UserIDKey, "u1"), &api.ListTasksRequest{UserID: "u1"})
	st, _ := status.FromError(err)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "internal error", st.Message())
}
