package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/models"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/queue"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/request"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/store"
)

// fakeQueue records enqueued jobs.
type fakeQueue struct {
	mu   sync.Mutex
	jobs []*queue.Job
}

func (q *fakeQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, errors.New("not implemented")
}

func (q *fakeQueue) Close() error { return nil }

func (q *fakeQueue) HealthCheck(ctx context.Context) error { return nil }

func (q *fakeQueue) enqueued() []*queue.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*queue.Job(nil), q.jobs...)
}

// createFailStore fails Create after a threshold to simulate a partial
// recurring completion.
type createFailStore struct {
	store.Store
	failAfter int
	creates   int
}

func (s *createFailStore) Create(ctx context.Context, task *models.Task) error {
	s.creates++
	if s.creates > s.failAfter {
		return errors.New("disk full")
	}
	return s.Store.Create(ctx, task)
}

type singleStoreProvider struct {
	st store.Store
}

func (p *singleStoreProvider) For(ctx context.Context, owner string) (store.Store, error) {
	return p.st, nil
}

func (p *singleStoreProvider) Close() error { return nil }

func newTestRouter(provider store.Provider, jobQueue queue.JobQueue) *mux.Router {
	handler := NewTaskHandler(provider, jobQueue, zap.NewNop())
	router := mux.NewRouter()
	handler.RegisterRoutes(router.PathPrefix("/tasks").Subrouter())
	return router
}

func doRequest(t *testing.T, router *mux.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req = req.WithContext(request.WithOwner(req.Context(), "tester"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// envelope decodes the standard response wrapper and unmarshals data into dst.
func envelope(t *testing.T, rec *httptest.ResponseRecorder, dst any) (success bool) {
	t.Helper()

	var wrapper struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &wrapper); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	if dst != nil && len(wrapper.Data) > 0 {
		if err := json.Unmarshal(wrapper.Data, dst); err != nil {
			t.Fatalf("decoding data %q: %v", wrapper.Data, err)
		}
	}
	return wrapper.Success
}

func TestCreateTask(t *testing.T) {
	t.Parallel()

	router := newTestRouter(store.NewMemoryProvider(), nil)

	rec := doRequest(t, router, http.MethodPost, "/tasks", map[string]any{
		"title":    "buy milk",
		"priority": "high",
		"tags":     []string{"errands"},
		"due_date": "2025-06-20",
		"due_time": "09:00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var task models.Task
	if !envelope(t, rec, &task) {
		t.Fatal("success = false")
	}
	if task.ID != 1 || task.Title != "buy milk" || task.Priority != models.PriorityHigh {
		t.Errorf("unexpected task: %+v", task)
	}
	if task.DueDate == nil || task.DueDate.String() != "2025-06-20" {
		t.Errorf("due date = %v", task.DueDate)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	t.Parallel()

	router := newTestRouter(store.NewMemoryProvider(), nil)

	tests := []struct {
		name string
		body any
	}{
		{name: "missing title", body: map[string]any{"priority": "high"}},
		{name: "invalid priority", body: map[string]any{"title": "t", "priority": "urgent"}},
		{name: "invalid recurrence", body: map[string]any{"title": "t", "recurrence": "yearly"}},
		{name: "malformed due date", body: map[string]any{"title": "t", "due_date": "June 20"}},
		{name: "malformed due time", body: map[string]any{"title": "t", "due_date": "2025-06-20", "due_time": "9am"}},
		{name: "recurrence without due date", body: map[string]any{"title": "t", "recurrence": "daily"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := doRequest(t, router, http.MethodPost, "/tasks", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreateTaskInvalidBody(t *testing.T) {
	t.Parallel()

	router := newTestRouter(store.NewMemoryProvider(), nil)

	req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString("{not json"))
	req = req.WithContext(request.WithOwner(req.Context(), "tester"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestGetTask(t *testing.T) {
	t.Parallel()

	router := newTestRouter(store.NewMemoryProvider(), nil)

	doRequest(t, router, http.MethodPost, "/tasks", map[string]any{"title": "find me"})

	rec := doRequest(t, router, http.MethodGet, "/tasks/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var task models.Task
	envelope(t, rec, &task)
	if task.Title != "find me" {
		t.Errorf("title = %q", task.Title)
	}

	if rec := doRequest(t, router, http.MethodGet, "/tasks/99", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d", rec.Code)
	}
	if rec := doRequest(t, router, http.MethodGet, "/tasks/abc", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric id status = %d", rec.Code)
	}
	if rec := doRequest(t, router, http.MethodGet, "/tasks/0", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("zero id status = %d", rec.Code)
	}
}

func TestListTasks(t *testing.T) {
	t.Parallel()

	router := newTestRouter(store.NewMemoryProvider(), nil)

	for _, body := range []map[string]any{
		{"title": "alpha", "priority": "high", "tags": []string{"work"}},
		{"title": "bravo", "priority": "low"},
		{"title": "charlie", "priority": "high"},
	} {
		if rec := doRequest(t, router, http.MethodPost, "/tasks", body); rec.Code != http.StatusCreated {
			t.Fatalf("seed failed: %s", rec.Body.String())
		}
	}

	var result struct {
		Tasks []models.Task `json:"tasks"`
		Count int           `json:"count"`
	}

	rec := doRequest(t, router, http.MethodGet, "/tasks?priority=high&sort=title&order=desc", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	envelope(t, rec, &result)
	if result.Count != 2 || len(result.Tasks) != 2 {
		t.Fatalf("count = %d, tasks = %d", result.Count, len(result.Tasks))
	}
	if result.Tasks[0].Title != "charlie" || result.Tasks[1].Title != "alpha" {
		t.Errorf("unexpected order: %q, %q", result.Tasks[0].Title, result.Tasks[1].Title)
	}

	rec = doRequest(t, router, http.MethodGet, "/tasks?tag=WORK", nil)
	envelope(t, rec, &result)
	if result.Count != 1 || result.Tasks[0].Title != "alpha" {
		t.Errorf("tag filter result: %+v", result)
	}

	if rec := doRequest(t, router, http.MethodGet, "/tasks?status=done", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid status filter status = %d", rec.Code)
	}
}

func TestUpdateTask(t *testing.T) {
	t.Parallel()

	router := newTestRouter(store.NewMemoryProvider(), nil)

	doRequest(t, router, http.MethodPost, "/tasks", map[string]any{
		"title":       "original",
		"description": "keep or clear",
		"priority":    "low",
		"due_date":    "2025-06-20",
		"due_time":    "09:00",
	})

	t.Run("set and clear fields", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPatch, "/tasks/1", map[string]any{
			"title":    "renamed",
			"priority": nil,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var task models.Task
		envelope(t, rec, &task)
		if task.Title != "renamed" {
			t.Errorf("title = %q", task.Title)
		}
		if task.Priority != models.PriorityNone {
			t.Errorf("priority not cleared: %q", task.Priority)
		}
		if task.Description != "keep or clear" {
			t.Errorf("absent field changed: %q", task.Description)
		}
	})

	t.Run("clearing due date clears due time", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPatch, "/tasks/1", map[string]any{"due_date": nil})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var task models.Task
		envelope(t, rec, &task)
		if task.DueDate != nil || task.DueTime != nil {
			t.Errorf("due date/time survived clearing: %+v", task)
		}
	})

	t.Run("null title is rejected", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPatch, "/tasks/1", map[string]any{"title": nil})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPatch, "/tasks/1", map[string]any{"color": "red"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("wrong type is rejected", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPatch, "/tasks/1", map[string]any{"tags": "not-an-array"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPatch, "/tasks/99", map[string]any{"title": "x"})
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()

	router := newTestRouter(store.NewMemoryProvider(), nil)

	doRequest(t, router, http.MethodPost, "/tasks", map[string]any{"title": "doomed"})

	if rec := doRequest(t, router, http.MethodDelete, "/tasks/1", nil); rec.Code != http.StatusNoContent {
		t.Errorf("status = %d", rec.Code)
	}
	if rec := doRequest(t, router, http.MethodDelete, "/tasks/1", nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d", rec.Code)
	}
}

func TestToggleTask(t *testing.T) {
	t.Parallel()

	router := newTestRouter(store.NewMemoryProvider(), nil)

	doRequest(t, router, http.MethodPost, "/tasks", map[string]any{"title": "one-off"})
	doRequest(t, router, http.MethodPost, "/tasks", map[string]any{
		"title":      "daily chore",
		"due_date":   "2025-06-20",
		"recurrence": "daily",
	})

	t.Run("non-recurring toggles without a successor", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/tasks/1/toggle", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var result struct {
			Task        models.Task  `json:"task"`
			CreatedNext *models.Task `json:"created_next"`
		}
		envelope(t, rec, &result)
		if !result.Task.Complete || result.CreatedNext != nil {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("completing a recurring task creates a successor", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/tasks/2/toggle", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var result struct {
			Task        models.Task  `json:"task"`
			CreatedNext *models.Task `json:"created_next"`
		}
		envelope(t, rec, &result)
		if result.CreatedNext == nil {
			t.Fatal("no successor in response")
		}
		if result.CreatedNext.DueDate == nil || result.CreatedNext.DueDate.String() != "2025-06-21" {
			t.Errorf("successor due date = %v", result.CreatedNext.DueDate)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/tasks/99/toggle", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestToggleTaskAdvanceFailureEnqueuesRetry(t *testing.T) {
	t.Parallel()

	failing := &createFailStore{Store: store.NewMemoryStore(), failAfter: 1}
	jobs := &fakeQueue{}
	router := newTestRouter(&singleStoreProvider{st: failing}, jobs)

	rec := doRequest(t, router, http.MethodPost, "/tasks", map[string]any{
		"title":      "daily chore",
		"due_date":   "2025-06-20",
		"recurrence": "daily",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed failed: %s", rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodPost, "/tasks/1/toggle", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// The response still carries the durably completed task.
	var result struct {
		Task models.Task `json:"task"`
	}
	if envelope(t, rec, &result) {
		t.Error("success = true on a partial failure")
	}
	if !result.Task.Complete {
		t.Error("response does not carry the completed task")
	}

	enqueued := jobs.enqueued()
	if len(enqueued) != 1 {
		t.Fatalf("enqueued %d jobs, want 1", len(enqueued))
	}
	job := enqueued[0]
	if job.Type != queue.JobTypeRecurrenceAdvance || job.TaskID != 1 || job.Owner != "tester" {
		t.Errorf("unexpected job: %+v", job)
	}
}

func TestAdvanceTask(t *testing.T) {
	t.Parallel()

	router := newTestRouter(store.NewMemoryProvider(), nil)

	doRequest(t, router, http.MethodPost, "/tasks", map[string]any{
		"title":      "weekly sync",
		"due_date":   "2025-06-20",
		"recurrence": "weekly",
	})

	// Not complete yet, so advancing is a caller error.
	if rec := doRequest(t, router, http.MethodPost, "/tasks/1/advance", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("advance before completion status = %d", rec.Code)
	}

	if rec := doRequest(t, router, http.MethodPost, "/tasks/1/toggle", nil); rec.Code != http.StatusOK {
		t.Fatalf("toggle failed: %s", rec.Body.String())
	}

	// The toggle already created the successor; advancing again creates
	// another occurrence, which is allowed.
	rec := doRequest(t, router, http.MethodPost, "/tasks/1/advance", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var next models.Task
	envelope(t, rec, &next)
	if next.DueDate == nil || next.DueDate.String() != "2025-06-27" {
		t.Errorf("successor due date = %v", next.DueDate)
	}
}

func TestMissingOwnerIsUnauthorized(t *testing.T) {
	t.Parallel()

	router := newTestRouter(store.NewMemoryProvider(), nil)

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestOwnersAreIsolated(t *testing.T) {
	t.Parallel()

	router := newTestRouter(store.NewMemoryProvider(), nil)

	asOwner := func(owner, method, path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			if err := json.NewEncoder(&buf).Encode(body); err != nil {
				t.Fatalf("encoding request body: %v", err)
			}
		}
		req := httptest.NewRequest(method, path, &buf)
		req = req.WithContext(request.WithOwner(req.Context(), owner))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	if rec := asOwner("alice", http.MethodPost, "/tasks", map[string]any{"title": "alice's task"}); rec.Code != http.StatusCreated {
		t.Fatalf("seed failed: %s", rec.Body.String())
	}

	rec := asOwner("bob", http.MethodGet, "/tasks", nil)
	var result struct {
		Count int `json:"count"`
	}
	envelope(t, rec, &result)
	if result.Count != 0 {
		t.Errorf("bob sees %d of alice's tasks", result.Count)
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	t.Parallel()

	if got := sanitizeErrorMessage("short"); got != "short" {
		t.Errorf("got %q", got)
	}
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	got := sanitizeErrorMessage(string(long))
	if len(got) != 203 || got[200:] != "..." {
		t.Errorf("long message not truncated: len=%d", len(got))
	}
}
