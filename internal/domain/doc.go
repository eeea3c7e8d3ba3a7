// Package domain contains the core business entities of the task tracker:
// tasks owned by a single user and the partial updates applied to them.
// It has no knowledge of storage or transport.
package domain
