// Package service contains the application use cases. It coordinates the
// task store (defined in internal/store) and the attachment bucket to fulfill
// the HTTP API's operations, and never depends on a specific storage
// implementation.
package service
