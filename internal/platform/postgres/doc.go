// Package postgres provides the PostgreSQL implementation of store.TaskStore,
// used for local development in place of DynamoDB. It owns the tasks schema,
// applied with goose from migrations embedded in the binary.
package postgres
