package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
)

// Attribute names of the tasks table.
const (
	attrUserID  = "userId"
	attrTaskID  = "todoId"
	attrName    = "name"
	attrDueDate = "dueDate"
	attrDone    = "done"
)

const entityTask = "task"

// API is the subset of the DynamoDB client used by TaskStore.
// *dynamodb.Client satisfies it.
type API interface {
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// TaskStore implements store.TaskStore on a DynamoDB table.
type TaskStore struct {
	client    API
	tableName string
	logger    *slog.Logger
}

// Ensure TaskStore implements store.TaskStore interface
var _ store.TaskStore = (*TaskStore)(nil)

// NewTaskStore creates a TaskStore for tableName.
// If logger is nil, a default logger will be used.
func NewTaskStore(client API, tableName string, logger *slog.Logger) *TaskStore {
	if client == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("client cannot be nil for dynamo TaskStore")
	}
	if tableName == "" {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("tableName cannot be empty for dynamo TaskStore")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskStore{
		client:    client,
		tableName: tableName,
		logger:    logger.With(slog.String("component", "task_store"), slog.String("table", tableName)),
	}
}

// List implements store.TaskStore.List.
// It follows the query's pagination to the end, so the result holds every
// task of the owner.
func (s *TaskStore) List(ctx context.Context, userID string) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	keyCond := expression.Key(attrUserID).Equal(expression.Value(userID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, store.NewStoreError(entityTask, "list", "failed to build key condition", err)
	}

	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	tasks := make([]*domain.Task, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			log.Error("failed to query tasks",
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
			return nil, store.NewStoreError(entityTask, "list", "failed to query tasks", err)
		}

		var items []*domain.Task
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, store.NewStoreError(entityTask, "list", "failed to decode tasks", err)
		}
		tasks = append(tasks, items...)
	}

	log.Debug("listed tasks",
		slog.String("user_id", userID),
		slog.Int("count", len(tasks)))
	return tasks, nil
}

// Get implements store.TaskStore.Get.
// Returns store.ErrTaskNotFound if the item does not exist.
func (s *TaskStore) Get(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       taskKey(userID, taskID),
	})
	if err != nil {
		log.Error("failed to get task",
			slog.String("user_id", userID),
			slog.String("task_id", taskID),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError(entityTask, "get", "failed to get task", err)
	}

	if len(out.Item) == 0 {
		log.Debug("task not found",
			slog.String("user_id", userID),
			slog.String("task_id", taskID))
		return nil, store.ErrTaskNotFound
	}

	var task domain.Task
	if err := attributevalue.UnmarshalMap(out.Item, &task); err != nil {
		return nil, store.NewStoreError(entityTask, "get", "failed to decode task", err)
	}
	return &task, nil
}

// Create implements store.TaskStore.Create.
// Returns store.ErrDuplicate if an item with the same key already exists.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("task_id", task.TaskID),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	item, err := attributevalue.MarshalMap(task)
	if err != nil {
		return store.NewStoreError(entityTask, "create", "failed to encode task", err)
	}

	cond := expression.AttributeNotExists(expression.Name(attrTaskID))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return store.NewStoreError(entityTask, "create", "failed to build condition", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.tableName),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("%w: task %s", store.ErrDuplicate, task.TaskID)
		}
		log.Error("failed to create task",
			slog.String("user_id", task.UserID),
			slog.String("task_id", task.TaskID),
			slog.String("error", err.Error()))
		return store.NewStoreError(entityTask, "create", "failed to put task", err)
	}

	log.Info("task created successfully",
		slog.String("user_id", task.UserID),
		slog.String("task_id", task.TaskID))
	return nil
}

// Update implements store.TaskStore.Update.
// The write is conditional on the item existing, so an unknown key returns
// store.ErrTaskNotFound instead of creating a partial item.
func (s *TaskStore) Update(ctx context.Context, userID, taskID string, update domain.TaskUpdate) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	set := expression.Set(expression.Name(attrName), expression.Value(update.Name)).
		Set(expression.Name(attrDueDate), expression.Value(update.DueDate)).
		Set(expression.Name(attrDone), expression.Value(update.Done))
	cond := expression.AttributeExists(expression.Name(attrTaskID))

	expr, err := expression.NewBuilder().WithUpdate(set).WithCondition(cond).Build()
	if err != nil {
		return store.NewStoreError(entityTask, "update", "failed to build update", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       taskKey(userID, taskID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailed(err) {
			log.Debug("task not found for update",
				slog.String("user_id", userID),
				slog.String("task_id", taskID))
			return store.ErrTaskNotFound
		}
		log.Error("failed to update task",
			slog.String("user_id", userID),
			slog.String("task_id", taskID),
			slog.String("error", err.Error()))
		return store.NewStoreError(entityTask, "update", "failed to update task", err)
	}

	log.Info("task updated successfully",
		slog.String("user_id", userID),
		slog.String("task_id", taskID))
	return nil
}

// Delete implements store.TaskStore.Delete.
// Deleting a missing item succeeds.
func (s *TaskStore) Delete(ctx context.Context, userID, taskID string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       taskKey(userID, taskID),
	})
	if err != nil {
		log.Error("failed to delete task",
			slog.String("user_id", userID),
			slog.String("task_id", taskID),
			slog.String("error", err.Error()))
		return store.NewStoreError(entityTask, "delete", "failed to delete task", err)
	}

	log.Info("task deleted",
		slog.String("user_id", userID),
		slog.String("task_id", taskID))
	return nil
}

func taskKey(userID, taskID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrUserID: &types.AttributeValueMemberS{Value: userID},
		attrTaskID: &types.AttributeValueMemberS{Value: taskID},
	}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
