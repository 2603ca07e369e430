package todo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTaskStore struct {
	tasks map[string]*Task
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[string]*Task)}
}

func (f *fakeTaskStore) List(context.Context) ([]Task, error) {
	tasks := make([]Task, 0, len(f.tasks))
	for _, task := range f.tasks {
		tasks = append(tasks, *task)
	}
	return tasks, nil
}

func (f *fakeTaskStore) Create(_ context.Context, params CreateTaskParams) (*Task, error) {
	task := &Task{
		ID:          params.ID,
		Task:        params.Title,
		Description: params.Description,
		Priority:    params.Priority,
		DueDate:     params.DueDate,
		CreatedAt:   time.Now().UTC(),
	}
	f.tasks[task.ID] = task
	return task, nil
}

func (f *fakeTaskStore) Toggle(_ context.Context, id string) (*Task, error) {
	task, ok := f.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	task.Completed = !task.Completed
	return task, nil
}

func (f *fakeTaskStore) Delete(_ context.Context, id string) error {
	if _, ok := f.tasks[id]; !ok {
		return ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func TestNormalizePriority(t *testing.T) {
	assert.Equal(t, "High", NormalizePriority("High"))
	assert.Equal(t, "Critical", NormalizePriority("Critical"))
	assert.Equal(t, "Medium", NormalizePriority(""))
	assert.Equal(t, "Medium", NormalizePriority("urgent"))
	// Raw lowercase input is not valid; the handler title-cases first.
	assert.Equal(t, "Medium", NormalizePriority("high"))
}

func TestCreateTask(t *testing.T) {
	store := newFakeTaskStore()
	handler := NewHandler(store)

	req := httptest.NewRequest(http.MethodPost, "/todos",
		strings.NewReader(`{"task":"Review ban appeals","description":"queue is full","priority":"high","due_date":"2026-09-15"}`))
	recorder := httptest.NewRecorder()
	handler.CreateTask(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, true, body["success"])

	task := body["task"].(map[string]any)
	assert.Equal(t, "Review ban appeals", task["task"])
	assert.Equal(t, "High", task["priority"])
	assert.NotEmpty(t, task["due_date"])
	require.Len(t, store.tasks, 1)
}

func TestCreateTaskValidation(t *testing.T) {
	handler := NewHandler(newFakeTaskStore())

	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"description":"no title"}`},
		{"blank title", `{"task":"   "}`},
		{"bad due date", `{"task":"x","due_date":"15/09/2026"}`},
		{"bad json", `{"task":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/todos", strings.NewReader(tt.body))
			recorder := httptest.NewRecorder()
			handler.CreateTask(recorder, req)
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
		})
	}
}

func TestToggleTaskTwiceRoundTrips(t *testing.T) {
	store := newFakeTaskStore()
	handler := NewHandler(store)

	id := uuid.NewString()
	store.tasks[id] = &Task{ID: id, Task: "x", Priority: DefaultPriority}

	toggle := func() map[string]any {
		req := httptest.NewRequest(http.MethodPost, "/todos/"+id+"/toggle", nil)
		req.SetPathValue("id", id)
		recorder := httptest.NewRecorder()
		handler.ToggleTask(recorder, req)
		require.Equal(t, http.StatusOK, recorder.Code)
		return decodeBody(t, recorder)["task"].(map[string]any)
	}

	assert.Equal(t, true, toggle()["completed"])
	assert.Equal(t, false, toggle()["completed"])
}

func TestToggleTaskErrors(t *testing.T) {
	handler := NewHandler(newFakeTaskStore())

	req := httptest.NewRequest(http.MethodPost, "/todos/not-a-uuid/toggle", nil)
	req.SetPathValue("id", "not-a-uuid")
	recorder := httptest.NewRecorder()
	handler.ToggleTask(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	missing := uuid.NewString()
	req = httptest.NewRequest(http.MethodPost, "/todos/"+missing+"/toggle", nil)
	req.SetPathValue("id", missing)
	recorder = httptest.NewRecorder()
	handler.ToggleTask(recorder, req)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestDeleteTask(t *testing.T) {
	store := newFakeTaskStore()
	handler := NewHandler(store)

	id := uuid.NewString()
	store.tasks[id] = &Task{ID: id, Task: "x"}

	req := httptest.NewRequest(http.MethodDelete, "/todos/"+id, nil)
	req.SetPathValue("id", id)
	recorder := httptest.NewRecorder()
	handler.DeleteTask(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, store.tasks)

	// Deleting again is a 404, not a crash.
	recorder = httptest.NewRecorder()
	handler.DeleteTask(recorder, req)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}
