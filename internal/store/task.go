package store

import (
	"context"

	"github.com/phrazzld/todo-api/internal/domain"
)

// TaskStore defines the interface for task persistence.
// Every method is scoped by the owning user's ID; there is no way to reach
// another user's tasks through it.
type TaskStore interface {
	// List returns all tasks owned by userID, in store order.
	// An owner with no tasks yields an empty slice and no error.
	List(ctx context.Context, userID string) ([]*domain.Task, error)

	// Get retrieves a single task.
	// Returns ErrTaskNotFound if no task exists for (userID, taskID).
	Get(ctx context.Context, userID, taskID string) (*domain.Task, error)

	// Create stores a new task. The task must already carry its ID and
	// creation time.
	Create(ctx context.Context, task *domain.Task) error

	// Update overwrites the name, due date and done flag of an existing task.
	// Returns ErrTaskNotFound if no task exists for (userID, taskID).
	Update(ctx context.Context, userID, taskID string, update domain.TaskUpdate) error

	// Delete removes a task. Deleting a task that does not exist is not an error.
	Delete(ctx context.Context, userID, taskID string) error
}
