// Package middleware provides the HTTP middleware of the task API: trace IDs
// and request scoped loggers, CORS headers, and resolution of the requesting
// user.
package middleware
