package api

import "github.com/phrazzld/todo-api/internal/domain"

// CreateTaskRequest is the body of POST /todos.
type CreateTaskRequest struct {
	Name    string `json:"name"    validate:"required,max=1024"`
	DueDate string `json:"dueDate" validate:"required,datetime=2006-01-02"`
}

// UpdateTaskRequest is the body of PATCH /todos/{taskId}. Every field is
// required: the update replaces all three.
type UpdateTaskRequest struct {
	Name    string `json:"name"    validate:"required,max=1024"`
	DueDate string `json:"dueDate" validate:"required,datetime=2006-01-02"`
	Done    *bool  `json:"done"    validate:"required"`
}

// TaskUpdate converts the request into the domain patch.
func (r UpdateTaskRequest) TaskUpdate() domain.TaskUpdate {
	return domain.TaskUpdate{
		Name:    r.Name,
		DueDate: r.DueDate,
		Done:    r.Done != nil && *r.Done,
	}
}

// TaskListResponse is the body of GET /todos.
type TaskListResponse struct {
	Items []*domain.Task `json:"items"`
}

// TaskResponse wraps a single task.
type TaskResponse struct {
	Item *domain.Task `json:"item"`
}

// UploadURLResponse is the body of POST /todos/{taskId}/attachment.
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
}
