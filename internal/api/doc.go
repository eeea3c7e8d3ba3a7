// Package api handles the task HTTP API: request decoding and validation,
// mapping of service errors to status codes, and JSON responses. Routing and
// middleware wiring live in cmd/api.
package api
