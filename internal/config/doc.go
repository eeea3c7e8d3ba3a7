// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional config.yaml. It provides
// type-safe access to the settings needed by the Lambda handlers (table,
// bucket, URL expiry, key-set endpoint) while keeping configuration details
// separate from business logic.
package config
