package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophtasks/internal/common"
	"github.com/dmitrijs2005/gophtasks/internal/server/models"
	"github.com/dmitrijs2005/gophtasks/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Publisher receives every committed task change.
type Publisher interface {
	Publish(ctx context.Context, ev models.ChangeEvent)
}

// TaskService runs task CRUD for the authenticated user and announces each
// committed change on the feed.
type TaskService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	feed        Publisher
	now         func() time.Time
}

func NewTaskService(db *sql.DB, m repomanager.RepositoryManager, feed Publisher) *TaskService {
	return &TaskService{db: db, repomanager: m, feed: feed, now: time.Now}
}

func (s *TaskService) List(ctx context.Context, userID string) ([]*models.Task, error) {
	tasks, err := s.repomanager.Tasks(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing tasks: %w", err)
	}
	return tasks, nil
}

// Create stores a new incomplete task. Text is trimmed and must not be empty.
func (s *TaskService) Create(ctx context.Context, userID, text string) (*models.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: task text is empty", common.ErrorValidation)
	}

	task, err := s.repomanager.Tasks(s.db).Create(ctx, &models.Task{
		ID:     uuid.NewString(),
		UserID: userID,
		Text:   text,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}

	s.publish(ctx, models.ChangeInsert, userID, task.ID)
	return task, nil
}

// SetComplete fails with common.ErrorNotFound unless id belongs to userID.
func (s *TaskService) SetComplete(ctx context.Context, userID, id string, done bool) error {
	if err := s.repomanager.Tasks(s.db).SetComplete(ctx, userID, id, done); err != nil {
		return err
	}
	s.publish(ctx, models.ChangeUpdate, userID, id)
	return nil
}

// Delete fails with common.ErrorNotFound unless id belongs to userID.
func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repomanager.Tasks(s.db).Delete(ctx, userID, id); err != nil {
		return err
	}
	s.publish(ctx, models.ChangeDelete, userID, id)
	return nil
}

func (s *TaskService) publish(ctx context.Context, t models.ChangeType, userID, taskID string) {
	if s.feed == nil {
		return
	}
	s.feed.Publish(ctx, models.ChangeEvent{
		Type:        t,
		Table:       common.TasksTable,
		TaskID:      taskID,
		UserID:      userID,
		CommittedAt: s.now(),
	})
}
