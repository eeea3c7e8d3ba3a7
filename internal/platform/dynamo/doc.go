// Package dynamo provides the DynamoDB implementation of store.TaskStore.
//
// Tasks live in a single table keyed by userId (partition key) and todoId
// (sort key), the schema of deployed todos tables, so every operation is
// scoped to one owner by construction.
package dynamo
