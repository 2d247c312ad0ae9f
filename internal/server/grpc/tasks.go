package grpc

import (
	"context"

	"github.com/dmitrijs2005/gophtasks/internal/api"
	"github.com/dmitrijs2005/gophtasks/internal/server/models"
)

func toAPITask(t *models.Task) api.Task {
	return api.Task{
		ID:         t.ID,
		UserID:     t.UserID,
		TaskText:   t.Text,
		IsComplete: t.IsComplete,
		CreatedAt:  t.CreatedAt,
	}
}

func (s *GRPCServer) ListTasks(ctx context.Context, req *api.ListTasksRequest) (*api.ListTasksResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(userID, req.UserID); err != nil {
		return nil, err
	}

	tasks, err := s.tasks.List(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	resp := &api.ListTasksResponse{Tasks: make([]api.Task, 0, len(tasks))}
	for _, t := range tasks {
		resp.Tasks = append(resp.Tasks, toAPITask(t))
	}
	return resp, nil
}

func (s *GRPCServer) InsertTask(ctx context.Context, req *api.InsertTaskRequest) (*api.InsertTaskResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(userID, req.UserID); err != nil {
		return nil, err
	}

	task, err := s.tasks.Create(ctx, userID, req.TaskText)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Debug(ctx, "Task added", "user_id", userID, "task_id", task.ID)
	return &api.InsertTaskResponse{Task: toAPITask(task)}, nil
}

func (s *GRPCServer) UpdateTask(ctx context.Context, req *api.UpdateTaskRequest) (*api.Empty, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(userID, req.UserID); err != nil {
		return nil, err
	}

	if err := s.tasks.SetComplete(ctx, userID, req.ID, req.IsComplete); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.Empty{}, nil
}

func (s *GRPCServer) DeleteTask(ctx context.Context, req *api.DeleteTaskRequest) (*api.Empty, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(userID, req.UserID); err != nil {
		return nil, err
	}

	if err := s.tasks.Delete(ctx, userID, req.ID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.Empty{}, nil
}
