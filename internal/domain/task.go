package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DueDateLayout is the calendar date format accepted for Task.DueDate.
const DueDateLayout = "2006-01-02"

// Validation errors for Task. Each wraps ErrValidation.
var (
	ErrTaskIDEmpty     = fmt.Errorf("%w: task ID cannot be empty", ErrValidation)
	ErrTaskUserIDEmpty = fmt.Errorf("%w: task user ID cannot be empty", ErrValidation)
	ErrTaskNameEmpty   = fmt.Errorf("%w: task name cannot be empty", ErrValidation)
	ErrTaskDueDate     = fmt.Errorf("%w: task due date must be YYYY-MM-DD", ErrValidation)
)

// Task is a single to-do item. It is owned by exactly one user and every
// read or write is keyed by (UserID, TaskID).
type Task struct {
	UserID        string    `json:"userId" dynamodbav:"userId"`
	TaskID        string    `json:"todoId" dynamodbav:"todoId"`
	CreatedAt     time.Time `json:"createdAt" dynamodbav:"createdAt"`
	Name          string    `json:"name" dynamodbav:"name"`
	DueDate       string    `json:"dueDate" dynamodbav:"dueDate"`
	Done          bool      `json:"done" dynamodbav:"done"`
	AttachmentURL string    `json:"attachmentUrl,omitempty" dynamodbav:"-"`
}

// TaskUpdate is the patch applied by an update. It is never stored on its own.
type TaskUpdate struct {
	Name    string `json:"name"`
	DueDate string `json:"dueDate"`
	Done    bool   `json:"done"`
}

// NewTask creates a task for userID with a fresh random ID, the creation
// time set to now and Done false.
func NewTask(userID, name, dueDate string, now time.Time) (*Task, error) {
	task := &Task{
		UserID:    userID,
		TaskID:    uuid.NewString(),
		CreatedAt: now.UTC(),
		Name:      name,
		DueDate:   dueDate,
		Done:      false,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks the fields required to store the task.
func (t *Task) Validate() error {
	if t.TaskID == "" {
		return ErrTaskIDEmpty
	}
	if t.UserID == "" {
		return ErrTaskUserIDEmpty
	}
	if t.Name == "" {
		return ErrTaskNameEmpty
	}
	if !isValidDueDate(t.DueDate) {
		return ErrTaskDueDate
	}
	return nil
}

// Validate checks the patch carries the same fields a stored task needs.
func (u TaskUpdate) Validate() error {
	if u.Name == "" {
		return ErrTaskNameEmpty
	}
	if !isValidDueDate(u.DueDate) {
		return ErrTaskDueDate
	}
	return nil
}

func isValidDueDate(s string) bool {
	_, err := time.Parse(DueDateLayout, s)
	return err == nil
}
