package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/service"
	"github.com/phrazzld/todo-api/internal/store"
	"github.com/phrazzld/todo-api/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOrigin = "https://app.example.com"

// memStore is an in-memory store.TaskStore.
type memStore struct {
	mu    sync.Mutex
	tasks map[string]*domain.Task
}

func newMemStore() *memStore {
	return &memStore{tasks: make(map[string]*domain.Task)}
}

func memKey(userID, taskID string) string { return userID + "/" + taskID }

func (s *memStore) List(_ context.Context, userID string) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*domain.Task{}
	for _, t := range s.tasks {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) Get(_ context.Context, userID, taskID string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[memKey(userID, taskID)]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memStore) Create(_ context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *task
	s.tasks[memKey(task.UserID, task.TaskID)] = &cp
	return nil
}

func (s *memStore) Update(_ context.Context, userID, taskID string, update domain.TaskUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[memKey(userID, taskID)]
	if !ok {
		return store.ErrTaskNotFound
	}
	t.Name, t.DueDate, t.Done = update.Name, update.DueDate, update.Done
	return nil
}

func (s *memStore) Delete(_ context.Context, userID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, memKey(userID, taskID))
	return nil
}

type stubBucket struct{}

func (stubBucket) PresignUpload(_ context.Context, key string) (string, error) {
	return "https://attachments.example.com/" + key + "?X-Amz-Expires=300", nil
}

func (stubBucket) ObjectURL(key string) string {
	return "https://attachments.example.com/" + key
}

// newTestApp builds an application over an in-memory store. A nil authCfg
// leaves the router trusting the API Gateway authorizer.
func newTestApp(t *testing.T, authCfg *config.AuthConfig) *application {
	t.Helper()

	cfg := &config.Config{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ts := newMemStore()
	svc, err := service.NewTaskService(ts, stubBucket{}, service.TaskServiceOptions{
		RequireExistingTask: true,
		Now:                 func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	}, logger)
	require.NoError(t, err)

	app := &application{
		config:      cfg,
		logger:      logger,
		taskStore:   ts,
		taskService: svc,
	}
	if authCfg != nil {
		app.verifier = newVerifier(*authCfg)
	}
	return app
}

func serve(t *testing.T, h http.Handler, method, path, body, authorization string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	router := newTestApp(t, nil).setupRouter()

	rec := serve(t, router, http.MethodGet, "/healthz", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestTodosRequireUser(t *testing.T) {
	router := newTestApp(t, nil).setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/todos", nil)
	req.Header.Set("Origin", testOrigin)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Unauthorized", body["error"])
	assert.NotEmpty(t, body["trace_id"])
	assert.Equal(t, testOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	router := newTestApp(t, nil).setupRouter()

	req := httptest.NewRequest(http.MethodOptions, "/todos/abc", nil)
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestTaskLifecycleWithVerifiedToken(t *testing.T) {
	key := testutils.SharedSigningKey(t)
	jwks := testutils.NewJWKSServer(t, http.StatusOK, key.JWKSDocument(t, testutils.TestKeyID))

	app := newTestApp(t, &config.AuthConfig{
		JWKSURL:             jwks.URL,
		FetchTimeoutSeconds: 2,
	})
	router := app.setupRouter()
	bearer := "Bearer " + key.SignToken(t, testutils.TestKeyID, "auth0|alice")

	rec := serve(t, router, http.MethodPost, "/todos", `{"name":"buy milk","dueDate":"2026-02-01"}`, bearer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Item domain.Task `json:"item"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "auth0|alice", created.Item.UserID)
	assert.Equal(t, "buy milk", created.Item.Name)
	assert.False(t, created.Item.Done)
	taskID := created.Item.TaskID
	require.NotEmpty(t, taskID)

	rec = serve(t, router, http.MethodPatch, "/todos/"+taskID,
		`{"name":"buy oat milk","dueDate":"2026-02-02","done":true}`, bearer)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = serve(t, router, http.MethodGet, "/todos", "", bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Items []domain.Task `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "buy oat milk", list.Items[0].Name)
	assert.True(t, list.Items[0].Done)
	assert.Equal(t, "https://attachments.example.com/"+taskID, list.Items[0].AttachmentURL)

	rec = serve(t, router, http.MethodPost, "/todos/"+taskID+"/attachment", "", bearer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"uploadUrl"`)

	rec = serve(t, router, http.MethodDelete, "/todos/"+taskID, "", bearer)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(t, router, http.MethodGet, "/todos", "", bearer)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
}

func TestVerifiedTokenIsolatesUsers(t *testing.T) {
	key := testutils.SharedSigningKey(t)
	jwks := testutils.NewJWKSServer(t, http.StatusOK, key.JWKSDocument(t, testutils.TestKeyID))

	app := newTestApp(t, &config.AuthConfig{JWKSURL: jwks.URL})
	router := app.setupRouter()
	alice := "Bearer " + key.SignToken(t, testutils.TestKeyID, "auth0|alice")
	bob := "Bearer " + key.SignToken(t, testutils.TestKeyID, "auth0|bob")

	rec := serve(t, router, http.MethodPost, "/todos", `{"name":"secret","dueDate":"2026-02-01"}`, alice)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(t, router, http.MethodGet, "/todos", "", bob)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
}

func TestUnverifiableTokenIsRejected(t *testing.T) {
	key := testutils.SharedSigningKey(t)
	jwks := testutils.NewJWKSServer(t, http.StatusOK, key.JWKSDocument(t, testutils.TestKeyID))

	app := newTestApp(t, &config.AuthConfig{JWKSURL: jwks.URL})
	other := testutils.NewSigningKey(t)

	rec := serve(t, app.setupRouter(), http.MethodGet, "/todos", "",
		"Bearer "+other.SignToken(t, testutils.TestKeyID, "auth0|mallory"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLambdaHandlerUsesAuthorizerPrincipal(t *testing.T) {
	app := newTestApp(t, nil)
	handler := app.lambdaHandler()

	resp, err := handler(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/todos",
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       `{"name":"from lambda","dueDate":"2026-03-01"}`,
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID:  "req-123",
			Authorizer: map[string]interface{}{"principalId": "auth0|carol"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, resp.Body)
	assert.Contains(t, resp.Body, `"userId":"auth0|carol"`)

	tasks, err := app.taskStore.List(context.Background(), "auth0|carol")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "from lambda", tasks[0].Name)
}

func TestLambdaHandlerWithoutPrincipal(t *testing.T) {
	handler := newTestApp(t, nil).lambdaHandler()

	resp, err := handler(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/todos",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
