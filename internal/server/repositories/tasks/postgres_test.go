package tasks

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophtasks/internal/common"
	"github.com/dmitrijs2005/gophtasks/internal/server/models"
	"github.com/stretchr/testify/require"
)

const (
	listQ   = `(?s)^\s*SELECT\s+id,\s*user_id,\s*task_text,\s*is_complete,\s*created_at\s+FROM\s+tasks\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC,\s*id\s+DESC\s*$`
	insertQ = `(?s)^\s*INSERT\s+INTO\s+tasks\s*\(id,\s*user_id,\s*task_text,\s*is_complete\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+created_at\s*$`
	updateQ = `(?s)^\s*UPDATE\s+tasks\s+SET\s+is_complete\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2\s+AND\s+user_id\s*=\s*\$3\s*$`
	deleteQ = `(?s)^\s*DELETE\s+FROM\s+tasks\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2\s*$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock, db
}

func TestListByUser_ReturnsRowsInQueryOrder(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	t1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	mock.ExpectQuery(listQ).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "task_text", "is_complete", "created_at"}).
			AddRow("t2", "u1", "later", false, t2).
			AddRow("t1", "u1", "earlier", true, t1))

	got, err := repo.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "t2", got[0].ID)
	require.Equal(t, "t1", got[1].ID)
	require.True(t, got[1].IsComplete)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUser_EmptyIsNotNil(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(listQ).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "task_text", "is_complete", "created_at"}))

	got, err := repo.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestListByUser_DBError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(listQ).WithArgs("u1").WillReturnError(errors.New("db down"))

	_, err := repo.ListByUser(context.Background(), "u1")
	require.Error(t, err)
	require.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
}

func TestListByUser_ScanError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(listQ).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "task_text", "is_complete", "created_at"}).
			AddRow("t1", "u1", "x", "not-a-bool", "not-a-time"))

	_, err := repo.ListByUser(context.Background(), "u1")
	require.Error(t, err)
}

func TestCreate_Success(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	now := time.Now()
	mock.ExpectQuery(insertQ).
		WithArgs("t1", "u1", "Buy milk", false).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	got, err := repo.Create(context.Background(), &models.Task{ID: "t1", UserID: "u1", Text: "Buy milk"})
	require.NoError(t, err)
	require.True(t, got.CreatedAt.Equal(now))
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(insertQ).
		WithArgs("t1", "u1", "Buy milk", false).
		WillReturnError(errors.New("fk violation"))

	_, err := repo.Create(context.Background(), &models.Task{ID: "t1", UserID: "u1", Text: "Buy milk"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "db error")
}

func TestSetComplete(t *testing.T) {
	t.Run("row matched", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectExec(updateQ).WithArgs(true, "t1", "u1").WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.SetComplete(context.Background(), "u1", "t1", true))
	})

	t.Run("other user's row is not found", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectExec(updateQ).WithArgs(true, "t1", "u2").WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SetComplete(context.Background(), "u2", "t1", true)
		require.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("driver error is wrapped", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectExec(updateQ).WithArgs(false, "t1", "u1").WillReturnError(errors.New("conn reset"))

		err := repo.SetComplete(context.Background(), "u1", "t1", false)
		require.Error(t, err)
		require.NotErrorIs(t, err, common.ErrorNotFound)
		require.Contains(t, err.Error(), "db error")
	})
}

func TestDelete(t *testing.T) {
	t.Run("row matched", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectExec(deleteQ).WithArgs("t1", "u1").WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Delete(context.Background(), "u1", "t1"))
	})

	t.Run("no row is not found", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectExec(deleteQ).WithArgs("t1", "u2").WillReturnResult(sqlmock.NewResult(0, 0))

		require.ErrorIs(t, repo.Delete(context.Background(), "u2", "t1"), common.ErrorNotFound)
	})
}
