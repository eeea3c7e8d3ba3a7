package dynamo_test

import (
	"context"
	"errors"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamo is an in-memory stand-in for the tasks table. It understands
// only the requests TaskStore sends: a single userId key condition for
// Query and existence conditions on writes.
type fakeDynamo struct {
	mu       sync.Mutex
	items    []map[string]types.AttributeValue
	pageSize int
	err      error

	queries []*dynamodb.QueryInput
	updates []*dynamodb.UpdateItemInput
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{pageSize: 100}
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if s, ok := item[name].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeDynamo) find(key map[string]types.AttributeValue) int {
	for i, item := range f.items {
		if stringAttr(item, "userId") == stringAttr(key, "userId") &&
			stringAttr(item, "todoId") == stringAttr(key, "todoId") {
			return i
		}
	}
	return -1
}

func (f *fakeDynamo) Query(
	_ context.Context,
	params *dynamodb.QueryInput,
	_ ...func(*dynamodb.Options),
) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, params)
	if f.err != nil {
		return nil, f.err
	}

	var userID string
	for _, v := range params.ExpressionAttributeValues {
		if s, ok := v.(*types.AttributeValueMemberS); ok {
			userID = s.Value
		}
	}

	var matching []map[string]types.AttributeValue
	for _, item := range f.items {
		if stringAttr(item, "userId") == userID {
			matching = append(matching, item)
		}
	}

	start := 0
	if params.ExclusiveStartKey != nil {
		for i, item := range matching {
			if stringAttr(item, "todoId") == stringAttr(params.ExclusiveStartKey, "todoId") {
				start = i + 1
			}
		}
	}

	end := start + f.pageSize
	out := &dynamodb.QueryOutput{}
	if end < len(matching) {
		last := matching[end-1]
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"userId": last["userId"],
			"todoId": last["todoId"],
		}
	} else {
		end = len(matching)
	}
	out.Items = matching[start:end]
	out.Count = int32(len(out.Items))
	return out, nil
}

func (f *fakeDynamo) GetItem(
	_ context.Context,
	params *dynamodb.GetItemInput,
	_ ...func(*dynamodb.Options),
) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if i := f.find(params.Key); i >= 0 {
		return &dynamodb.GetItemOutput{Item: f.items[i]}, nil
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (f *fakeDynamo) PutItem(
	_ context.Context,
	params *dynamodb.PutItemInput,
	_ ...func(*dynamodb.Options),
) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if i := f.find(params.Item); i >= 0 {
		if params.ConditionExpression != nil {
			return nil, &types.ConditionalCheckFailedException{Message: stringPtr("The conditional request failed")}
		}
		f.items[i] = params.Item
		return &dynamodb.PutItemOutput{}, nil
	}
	f.items = append(f.items, params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

// UpdateItem records the request and enforces the existence condition.
// Tests assert on the recorded expression rather than on stored values.
func (f *fakeDynamo) UpdateItem(
	_ context.Context,
	params *dynamodb.UpdateItemInput,
	_ ...func(*dynamodb.Options),
) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, params)
	if f.err != nil {
		return nil, f.err
	}
	i := f.find(params.Key)
	if i < 0 {
		if params.ConditionExpression != nil {
			return nil, &types.ConditionalCheckFailedException{Message: stringPtr("The conditional request failed")}
		}
		return nil, errors.New("fake: unconditional upsert not supported")
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(
	_ context.Context,
	params *dynamodb.DeleteItemInput,
	_ ...func(*dynamodb.Options),
) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if i := f.find(params.Key); i >= 0 {
		f.items = append(f.items[:i], f.items[i+1:]...)
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

func stringPtr(s string) *string {
	return &s
}
