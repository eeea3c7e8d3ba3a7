package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// List implements store.TaskStore.List
func (s *PostgresTaskStore) List(ctx context.Context, userID string) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT user_id, task_id, created_at, name, due_date, done
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at, task_id
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to query tasks",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "list", "failed to query tasks", MapError(err))
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, store.NewStoreError("task", "list", "failed to scan task", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("task", "list", "failed to iterate tasks", err)
	}

	log.Debug("listed tasks",
		slog.String("user_id", userID),
		slog.Int("count", len(tasks)))
	return tasks, nil
}

// Get implements store.TaskStore.Get
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) Get(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT user_id, task_id, created_at, name, due_date, done
		FROM tasks
		WHERE user_id = $1 AND task_id = $2
	`
	task, err := scanTask(s.db.QueryRowContext(ctx, query, userID, taskID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found",
				slog.String("user_id", userID),
				slog.String("task_id", taskID))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task",
			slog.String("user_id", userID),
			slog.String("task_id", taskID),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "get", "failed to get task", MapError(err))
	}

	return task, nil
}

// Create implements store.TaskStore.Create
// Returns store.ErrDuplicate if a task with the same key already exists.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("task_id", task.TaskID),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO tasks (user_id, task_id, created_at, name, due_date, done)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		task.UserID,
		task.TaskID,
		task.CreatedAt,
		task.Name,
		task.DueDate,
		task.Done,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: task %s", store.ErrDuplicate, task.TaskID)
		}
		log.Error("failed to create task",
			slog.String("user_id", task.UserID),
			slog.String("task_id", task.TaskID),
			slog.String("error", err.Error()))
		return store.NewStoreError("task", "create", "failed to insert task", MapError(err))
	}

	log.Info("task created successfully",
		slog.String("user_id", task.UserID),
		slog.String("task_id", task.TaskID))
	return nil
}

// Update implements store.TaskStore.Update
// Returns store.ErrTaskNotFound if no row matches.
func (s *PostgresTaskStore) Update(ctx context.Context, userID, taskID string, update domain.TaskUpdate) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET name = $3, due_date = $4, done = $5
		WHERE user_id = $1 AND task_id = $2
	`
	result, err := s.db.ExecContext(ctx, query, userID, taskID, update.Name, update.DueDate, update.Done)
	if err != nil {
		log.Error("failed to update task",
			slog.String("user_id", userID),
			slog.String("task_id", taskID),
			slog.String("error", err.Error()))
		return store.NewStoreError("task", "update", "failed to update task", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("task not found for update",
				slog.String("user_id", userID),
				slog.String("task_id", taskID))
		}
		return err
	}

	log.Info("task updated successfully",
		slog.String("user_id", userID),
		slog.String("task_id", taskID))
	return nil
}

// Delete implements store.TaskStore.Delete
// Deleting a missing task succeeds.
func (s *PostgresTaskStore) Delete(ctx context.Context, userID, taskID string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM tasks WHERE user_id = $1 AND task_id = $2`
	if _, err := s.db.ExecContext(ctx, query, userID, taskID); err != nil {
		log.Error("failed to delete task",
			slog.String("user_id", userID),
			slog.String("task_id", taskID),
			slog.String("error", err.Error()))
		return store.NewStoreError("task", "delete", "failed to delete task", MapError(err))
	}

	log.Info("task deleted",
		slog.String("user_id", userID),
		slog.String("task_id", taskID))
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	if err := row.Scan(
		&task.UserID,
		&task.TaskID,
		&task.CreatedAt,
		&task.Name,
		&task.DueDate,
		&task.Done,
	); err != nil {
		return nil, err
	}
	task.CreatedAt = task.CreatedAt.UTC()
	return &task, nil
}
