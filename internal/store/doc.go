// Package store defines interfaces for task persistence.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic, so the same service runs against DynamoDB
// in production and PostgreSQL during local development.
package store
