package service

import (
	"context"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockTaskStore mocks the store.TaskStore interface
type MockTaskStore struct {
	mock.Mock
}

func (m *MockTaskStore) List(ctx context.Context, userID string) ([]*domain.Task, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Task), args.Error(1)
}

func (m *MockTaskStore) Get(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	args := m.Called(ctx, userID, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskStore) Update(
	ctx context.Context,
	userID, taskID string,
	update domain.TaskUpdate,
) error {
	args := m.Called(ctx, userID, taskID, update)
	return args.Error(0)
}

func (m *MockTaskStore) Delete(ctx context.Context, userID, taskID string) error {
	args := m.Called(ctx, userID, taskID)
	return args.Error(0)
}

// MockAttachmentBucket mocks the AttachmentBucket interface
type MockAttachmentBucket struct {
	mock.Mock
}

func (m *MockAttachmentBucket) PresignUpload(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockAttachmentBucket) ObjectURL(key string) string {
	return "https://attachments.s3.us-east-1.amazonaws.com/" + key
}
