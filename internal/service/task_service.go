package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
)

// AttachmentBucket issues upload URLs and derives read URLs for attachments.
// Attachments are keyed by task ID.
type AttachmentBucket interface {
	PresignUpload(ctx context.Context, key string) (string, error)
	ObjectURL(key string) string
}

// TaskService provides the task operations exposed by the HTTP API.
// Every method acts only on the tasks of userID.
type TaskService interface {
	// ListTasks returns the user's tasks, each with its attachment URL set.
	ListTasks(ctx context.Context, userID string) ([]*domain.Task, error)

	// CreateTask stores a new, not yet done task and returns it.
	CreateTask(ctx context.Context, userID, name, dueDate string) (*domain.Task, error)

	// UpdateTask replaces the name, due date and done flag of a task.
	UpdateTask(ctx context.Context, userID, taskID string, update domain.TaskUpdate) error

	// DeleteTask removes a task. Deleting a missing task succeeds.
	DeleteTask(ctx context.Context, userID, taskID string) error

	// GenerateUploadURL returns a presigned URL for uploading the task's attachment.
	GenerateUploadURL(ctx context.Context, userID, taskID string) (string, error)
}

// TaskServiceOptions tunes a TaskService.
type TaskServiceOptions struct {
	// RequireExistingTask issues upload URLs only for tasks that exist.
	// When false, a URL is issued only for task IDs with no stored task.
	RequireExistingTask bool

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	tasks               store.TaskStore
	attachments         AttachmentBucket
	requireExistingTask bool
	now                 func() time.Time
	logger              *slog.Logger
}

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	tasks store.TaskStore,
	attachments AttachmentBucket,
	opts TaskServiceOptions,
	logger *slog.Logger,
) (TaskService, error) {
	if tasks == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "tasks cannot be nil",
		}
	}
	if attachments == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "attachments cannot be nil",
		}
	}

	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &taskServiceImpl{
		tasks:               tasks,
		attachments:         attachments,
		requireExistingTask: opts.RequireExistingTask,
		now:                 now,
		logger:              logger.With(slog.String("component", "task_service")),
	}, nil
}

// ListTasks implements TaskService.ListTasks
func (s *taskServiceImpl) ListTasks(ctx context.Context, userID string) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	tasks, err := s.tasks.List(ctx, userID)
	if err != nil {
		log.Error("failed to list tasks",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("list_tasks", "failed to list tasks", err)
	}

	for _, task := range tasks {
		task.AttachmentURL = s.attachments.ObjectURL(task.TaskID)
	}

	return tasks, nil
}

// CreateTask implements TaskService.CreateTask
func (s *taskServiceImpl) CreateTask(ctx context.Context, userID, name, dueDate string) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(userID, name, dueDate, s.now())
	if err != nil {
		log.Debug("rejected invalid task",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("create_task", "invalid task", err)
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		log.Error("failed to create task",
			slog.String("user_id", userID),
			slog.String("task_id", task.TaskID),
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("create_task", "failed to save task", err)
	}

	return task, nil
}

// UpdateTask implements TaskService.UpdateTask
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	userID, taskID string,
	update domain.TaskUpdate,
) error {
	if err := update.Validate(); err != nil {
		return NewTaskServiceError("update_task", "invalid update", err)
	}

	if err := s.tasks.Update(ctx, userID, taskID, update); err != nil {
		if !store.IsNotFoundError(err) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to update task",
				slog.String("user_id", userID),
				slog.String("task_id", taskID),
				slog.String("error", err.Error()))
		}
		return NewTaskServiceError("update_task", "failed to update task", err)
	}

	return nil
}

// DeleteTask implements TaskService.DeleteTask
func (s *taskServiceImpl) DeleteTask(ctx context.Context, userID, taskID string) error {
	if err := s.tasks.Delete(ctx, userID, taskID); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete task",
			slog.String("user_id", userID),
			slog.String("task_id", taskID),
			slog.String("error", err.Error()))
		return NewTaskServiceError("delete_task", "failed to delete task", err)
	}
	return nil
}

// GenerateUploadURL implements TaskService.GenerateUploadURL
//
// By default a URL is issued only when no task is stored under taskID, and a
// stored task is rejected with ErrUploadNotAllowed. With RequireExistingTask
// the check is the other way round.
func (s *taskServiceImpl) GenerateUploadURL(ctx context.Context, userID, taskID string) (string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.tasks.Get(ctx, userID, taskID)
	found := err == nil
	if err != nil && !errors.Is(err, store.ErrTaskNotFound) {
		log.Error("failed to look up task for upload",
			slog.String("user_id", userID),
			slog.String("task_id", taskID),
			slog.String("error", err.Error()))
		return "", NewTaskServiceError("generate_upload_url", "failed to look up task", err)
	}

	if found != s.requireExistingTask {
		log.Debug("upload url refused",
			slog.String("user_id", userID),
			slog.String("task_id", taskID),
			slog.Bool("task_found", found))
		return "", ErrUploadNotAllowed
	}

	url, err := s.attachments.PresignUpload(ctx, taskID)
	if err != nil {
		return "", NewTaskServiceError("generate_upload_url", "failed to presign upload", err)
	}

	log.Info("issued upload url",
		slog.String("user_id", userID),
		slog.String("task_id", taskID))
	return url, nil
}
