package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
)

// TaskIDParam is the route parameter holding the task ID.
const TaskIDParam = "taskId"

// maxTaskIDLength bounds task IDs taken from the path. DynamoDB sort keys
// allow far more, but generated IDs are 36 characters.
const maxTaskIDLength = 128

// getPathTaskID extracts the task ID from the URL path parameters.
func getPathTaskID(r *http.Request) (string, error) {
	taskID := chi.URLParam(r, TaskIDParam)
	if taskID == "" {
		return "", domain.NewValidationError(TaskIDParam, "is required", domain.ErrValidation)
	}
	if len(taskID) > maxTaskIDLength {
		return "", domain.NewValidationError(TaskIDParam, "is too long", domain.ErrInvalidID)
	}
	return taskID, nil
}

// handleUserID extracts the user ID placed in the context by the auth
// middleware. It writes a 401 response and returns false when it is missing.
func handleUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := shared.GetUserID(r.Context())
	if !ok {
		logger.FromContextOrDefault(r.Context(), slog.Default()).
			Warn("user ID not found in request context")
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return "", false
	}
	return userID, true
}

// handleUserIDAndTaskID is a composite helper that extracts both the user ID
// from context and the task ID from the path. It writes an error response if
// either extraction fails.
func handleUserIDAndTaskID(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	userID, ok := handleUserID(w, r)
	if !ok {
		return "", "", false
	}

	taskID, err := getPathTaskID(r)
	if err != nil {
		logger.FromContextOrDefault(r.Context(), slog.Default()).
			Warn("invalid task ID", slog.Int("length", len(chi.URLParam(r, TaskIDParam))))
		HandleAPIError(w, r, err, "")
		return "", "", false
	}

	return userID, taskID, true
}
