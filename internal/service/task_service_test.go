package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))

func newTestService(t *testing.T, opts TaskServiceOptions) (TaskService, *MockTaskStore, *MockAttachmentBucket) {
	t.Helper()
	tasks := &MockTaskStore{}
	bucket := &MockAttachmentBucket{}
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	svc, err := NewTaskService(tasks, bucket, opts, nil)
	require.NoError(t, err)
	return svc, tasks, bucket
}

func TestNewTaskService_Validation(t *testing.T) {
	_, err := NewTaskService(nil, &MockAttachmentBucket{}, TaskServiceOptions{}, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "tasks cannot be nil")

	_, err = NewTaskService(&MockTaskStore{}, nil, TaskServiceOptions{}, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "attachments cannot be nil")
}

func TestListTasks_SetsAttachmentURL(t *testing.T) {
	svc, tasks, _ := newTestService(t, TaskServiceOptions{})
	ctx := context.Background()

	stored := []*domain.Task{
		{UserID: "u1", TaskID: "t1", Name: "a", DueDate: "2024-01-01"},
		{UserID: "u1", TaskID: "t2", Name: "b", DueDate: "2024-01-02"},
	}
	tasks.On("List", ctx, "u1").Return(stored, nil)

	got, err := svc.ListTasks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "https://attachments.s3.us-east-1.amazonaws.com/t1", got[0].AttachmentURL)
	assert.Equal(t, "https://attachments.s3.us-east-1.amazonaws.com/t2", got[1].AttachmentURL)
	tasks.AssertExpectations(t)
}

func TestListTasks_Empty(t *testing.T) {
	svc, tasks, _ := newTestService(t, TaskServiceOptions{})
	ctx := context.Background()
	tasks.On("List", ctx, "nobody").Return([]*domain.Task{}, nil)

	got, err := svc.ListTasks(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListTasks_StoreError(t *testing.T) {
	svc, tasks, _ := newTestService(t, TaskServiceOptions{})
	ctx := context.Background()
	storeErr := store.NewStoreError("task", "list", "failed to query tasks", errors.New("timeout"))
	tasks.On("List", ctx, "u1").Return(nil, storeErr)

	_, err := svc.ListTasks(ctx, "u1")
	assert.ErrorIs(t, err, storeErr)
	var serviceErr *TaskServiceError
	assert.ErrorAs(t, err, &serviceErr)
}

func TestCreateTask(t *testing.T) {
	svc, tasks, _ := newTestService(t, TaskServiceOptions{})
	ctx := context.Background()
	tasks.On("Create", ctx, mock.AnythingOfType("*domain.Task")).Return(nil)

	first, err := svc.CreateTask(ctx, "u1", "Buy milk", "2024-03-02")
	require.NoError(t, err)
	second, err := svc.CreateTask(ctx, "u1", "Buy milk", "2024-03-02")
	require.NoError(t, err)

	assert.NotEmpty(t, first.TaskID)
	assert.NotEqual(t, first.TaskID, second.TaskID)
	assert.Equal(t, "u1", first.UserID)
	assert.Equal(t, "Buy milk", first.Name)
	assert.Equal(t, "2024-03-02", first.DueDate)
	assert.False(t, first.Done)
	assert.Equal(t, time.UTC, first.CreatedAt.Location())
	assert.True(t, fixedNow.Equal(first.CreatedAt))
	tasks.AssertNumberOfCalls(t, "Create", 2)
}

func TestCreateTask_Invalid(t *testing.T) {
	svc, tasks, _ := newTestService(t, TaskServiceOptions{})

	_, err := svc.CreateTask(context.Background(), "u1", "", "2024-03-02")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.CreateTask(context.Background(), "u1", "x", "tomorrow")
	assert.ErrorIs(t, err, domain.ErrTaskDueDate)

	tasks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateTask_StoreError(t *testing.T) {
	svc, tasks, _ := newTestService(t, TaskServiceOptions{})
	ctx := context.Background()
	storeErr := errors.New("throttled")
	tasks.On("Create", ctx, mock.Anything).Return(storeErr)

	_, err := svc.CreateTask(ctx, "u1", "Buy milk", "2024-03-02")
	assert.ErrorIs(t, err, storeErr)
}

func TestUpdateTask(t *testing.T) {
	update := domain.TaskUpdate{Name: "Buy oat milk", DueDate: "2024-03-03", Done: true}

	tests := []struct {
		name     string
		update   domain.TaskUpdate
		storeErr error
		wantErr  error
		noStore  bool
	}{
		{name: "success", update: update},
		{name: "missing task", update: update, storeErr: store.ErrTaskNotFound, wantErr: ErrTaskNotFound},
		{
			name:    "invalid update",
			update:  domain.TaskUpdate{Name: "", DueDate: "2024-03-03"},
			wantErr: domain.ErrValidation,
			noStore: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, tasks, _ := newTestService(t, TaskServiceOptions{})
			ctx := context.Background()
			tasks.On("Update", ctx, "u1", "t1", tc.update).Return(tc.storeErr)

			err := svc.UpdateTask(ctx, "u1", "t1", tc.update)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
			if tc.noStore {
				tasks.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			} else {
				tasks.AssertExpectations(t)
			}
		})
	}
}

func TestDeleteTask(t *testing.T) {
	svc, tasks, _ := newTestService(t, TaskServiceOptions{})
	ctx := context.Background()
	tasks.On("Delete", ctx, "u1", "never-existed").Return(nil)
	tasks.On("Delete", ctx, "u1", "broken").Return(errors.New("throttled"))

	assert.NoError(t, svc.DeleteTask(ctx, "u1", "never-existed"))
	assert.Error(t, svc.DeleteTask(ctx, "u1", "broken"))
}

func TestGenerateUploadURL(t *testing.T) {
	existing := &domain.Task{UserID: "u1", TaskID: "t1", Name: "a", DueDate: "2024-01-01"}
	const presigned = "https://attachments.s3.amazonaws.com/t1?X-Amz-Signature=abc"

	tests := []struct {
		name        string
		requireTask bool
		found       bool
		wantURL     bool
	}{
		{name: "default refuses stored task", requireTask: false, found: true, wantURL: false},
		{name: "default issues for unknown id", requireTask: false, found: false, wantURL: true},
		{name: "require existing issues for stored task", requireTask: true, found: true, wantURL: true},
		{name: "require existing refuses unknown id", requireTask: true, found: false, wantURL: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, tasks, bucket := newTestService(t, TaskServiceOptions{RequireExistingTask: tc.requireTask})
			ctx := context.Background()
			if tc.found {
				tasks.On("Get", ctx, "u1", "t1").Return(existing, nil)
			} else {
				tasks.On("Get", ctx, "u1", "t1").Return(nil, store.ErrTaskNotFound)
			}
			bucket.On("PresignUpload", ctx, "t1").Return(presigned, nil)

			url, err := svc.GenerateUploadURL(ctx, "u1", "t1")
			if tc.wantURL {
				require.NoError(t, err)
				assert.Equal(t, presigned, url)
			} else {
				assert.ErrorIs(t, err, ErrUploadNotAllowed)
				assert.Empty(t, url)
				bucket.AssertNotCalled(t, "PresignUpload", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestGenerateUploadURL_Errors(t *testing.T) {
	t.Run("lookup failure", func(t *testing.T) {
		svc, tasks, bucket := newTestService(t, TaskServiceOptions{})
		ctx := context.Background()
		lookupErr := errors.New("throttled")
		tasks.On("Get", ctx, "u1", "t1").Return(nil, lookupErr)

		_, err := svc.GenerateUploadURL(ctx, "u1", "t1")
		assert.ErrorIs(t, err, lookupErr)
		assert.NotErrorIs(t, err, ErrUploadNotAllowed)
		bucket.AssertNotCalled(t, "PresignUpload", mock.Anything, mock.Anything)
	})

	t.Run("presign failure", func(t *testing.T) {
		svc, tasks, bucket := newTestService(t, TaskServiceOptions{})
		ctx := context.Background()
		presignErr := errors.New("no credentials")
		tasks.On("Get", ctx, "u1", "t1").Return(nil, store.ErrTaskNotFound)
		bucket.On("PresignUpload", ctx, "t1").Return("", presignErr)

		_, err := svc.GenerateUploadURL(ctx, "u1", "t1")
		assert.ErrorIs(t, err, presignErr)
	})
}
