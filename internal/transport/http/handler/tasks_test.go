package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taskflow-api/internal/domain"
)

type mockTaskSvc struct{ mock.Mock }

func (m *mockTaskSvc) Create(ctx context.Context, req domain.CreateTaskRequest) (*domain.TaskView, error) {
	args := m.Called(ctx, req)
	v, _ := args.Get(0).(*domain.TaskView)
	return v, args.Error(1)
}

func (m *mockTaskSvc) List(ctx context.Context) ([]domain.TaskView, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.TaskView), args.Error(1)
}

func (m *mockTaskSvc) ListMine(ctx context.Context, contractorID string) ([]domain.TaskView, error) {
	args := m.Called(ctx, contractorID)
	return args.Get(0).([]domain.TaskView), args.Error(1)
}

func (m *mockTaskSvc) Get(ctx context.Context, taskID string, actor domain.Actor) (*domain.TaskView, error) {
	args := m.Called(ctx, taskID, actor)
	v, _ := args.Get(0).(*domain.TaskView)
	return v, args.Error(1)
}

func (m *mockTaskSvc) Update(ctx context.Context, taskID string, req domain.UpdateTaskRequest) (*domain.TaskView, []domain.TaskChange, error) {
	args := m.Called(ctx, taskID, req)
	v, _ := args.Get(0).(*domain.TaskView)
	changes, _ := args.Get(1).([]domain.TaskChange)
	return v, changes, args.Error(2)
}

func (m *mockTaskSvc) Accept(ctx context.Context, taskID, contractorID string) (*domain.TaskView, error) {
	args := m.Called(ctx, taskID, contractorID)
	v, _ := args.Get(0).(*domain.TaskView)
	return v, args.Error(1)
}

func (m *mockTaskSvc) Complete(ctx context.Context, taskID, contractorID string) (*domain.TaskView, error) {
	args := m.Called(ctx, taskID, contractorID)
	v, _ := args.Get(0).(*domain.TaskView)
	return v, args.Error(1)
}

func (m *mockTaskSvc) Delete(ctx context.Context, taskID string) error {
	return m.Called(ctx, taskID).Error(0)
}

func taskRouter(h *TaskHandler) chi.Router {
	r := chi.NewRouter()
	r.Post("/tasks", h.Create)
	r.Get("/tasks/mine", h.ListMine)
	r.Get("/tasks/{id}", h.Get)
	r.Put("/tasks/{id}", h.Update)
	r.Post("/tasks/{id}/accept", h.Accept)
	r.Post("/tasks/{id}/complete", h.Complete)
	r.Delete("/tasks/{id}", h.Delete)
	return r
}

func TestTaskHandler_Create_InvalidType(t *testing.T) {
	svc := &mockTaskSvc{}
	body := `{"name":"n","project_id":"p1","date_from":"2026-01-01","date_to":"2026-01-02","contractor_id":"c1","type":"Designer"}`
	r := withActor(httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(body)), "d1", domain.RoleDirector)
	rr := httptest.NewRecorder()
	taskRouter(NewTaskHandler(svc)).ServeHTTP(rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTaskHandler_Create(t *testing.T) {
	svc := &mockTaskSvc{}
	req := domain.CreateTaskRequest{
		Name: "n", ProjectID: "p1", DateFrom: "2026-01-01", DateTo: "2026-01-02",
		ContractorID: "c1", Type: domain.TaskTypeTester,
	}
	svc.On("Create", mock.Anything, req).Return(&domain.TaskView{Task: domain.Task{TaskID: "t1", Status: domain.TaskPending}}, nil)

	body := `{"name":"n","project_id":"p1","date_from":"2026-01-01","date_to":"2026-01-02","contractor_id":"c1","type":"Tester"}`
	r := withActor(httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(body)), "d1", domain.RoleDirector)
	rr := httptest.NewRecorder()
	taskRouter(NewTaskHandler(svc)).ServeHTTP(rr, r)

	assert.Equal(t, http.StatusCreated, rr.Code)
	var v domain.TaskView
	decodeBody(t, rr, &v)
	assert.Equal(t, domain.TaskPending, v.Status)
}

func TestTaskHandler_ListMine_UsesCaller(t *testing.T) {
	svc := &mockTaskSvc{}
	svc.On("ListMine", mock.Anything, "c1").Return([]domain.TaskView{{Task: domain.Task{TaskID: "t1"}}}, nil)

	r := withActor(httptest.NewRequest(http.MethodGet, "/tasks/mine", nil), "c1", domain.RoleContractor)
	rr := httptest.NewRecorder()
	taskRouter(NewTaskHandler(svc)).ServeHTTP(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestTaskHandler_Get_PassesActor(t *testing.T) {
	svc := &mockTaskSvc{}
	actor := domain.Actor{UserID: "c2", Role: domain.RoleContractor}
	svc.On("Get", mock.Anything, "t1", actor).Return(nil, domain.ErrForbidden)

	r := withActor(httptest.NewRequest(http.MethodGet, "/tasks/t1", nil), "c2", domain.RoleContractor)
	rr := httptest.NewRecorder()
	taskRouter(NewTaskHandler(svc)).ServeHTTP(rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestTaskHandler_Update_ReturnsChanges(t *testing.T) {
	svc := &mockTaskSvc{}
	req := domain.UpdateTaskRequest{Description: "d", DateFrom: "2026-01-01", DateTo: "2026-01-09"}
	changes := []domain.TaskChange{{Field: "date_to", Value: "2026-01-09"}}
	svc.On("Update", mock.Anything, "t1", req).Return(&domain.TaskView{Task: domain.Task{TaskID: "t1"}}, changes, nil)

	body := `{"description":"d","date_from":"2026-01-01","date_to":"2026-01-09"}`
	r := withActor(httptest.NewRequest(http.MethodPut, "/tasks/t1", strings.NewReader(body)), "d1", domain.RoleDirector)
	rr := httptest.NewRecorder()
	taskRouter(NewTaskHandler(svc)).ServeHTTP(rr, r)

	require.Equal(t, http.StatusOK, rr.Code)
	var env TaskEnvelope
	decodeBody(t, rr, &env)
	assert.Equal(t, changes, env.Changes)
}

func TestTaskHandler_Update_NoChangesIsEmptyList(t *testing.T) {
	svc := &mockTaskSvc{}
	svc.On("Update", mock.Anything, "t1", mock.Anything).Return(&domain.TaskView{}, nil, nil)

	body := `{"description":"d","date_from":"2026-01-01","date_to":"2026-01-09"}`
	r := withActor(httptest.NewRequest(http.MethodPut, "/tasks/t1", strings.NewReader(body)), "d1", domain.RoleDirector)
	rr := httptest.NewRecorder()
	taskRouter(NewTaskHandler(svc)).ServeHTTP(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"changes":[]`)
}

func TestTaskHandler_Accept(t *testing.T) {
	svc := &mockTaskSvc{}
	svc.On("Accept", mock.Anything, "t1", "c1").
		Return(&domain.TaskView{Task: domain.Task{TaskID: "t1", Status: domain.TaskInProgress}}, nil)

	r := withActor(httptest.NewRequest(http.MethodPost, "/tasks/t1/accept", nil), "c1", domain.RoleContractor)
	rr := httptest.NewRecorder()
	taskRouter(NewTaskHandler(svc)).ServeHTTP(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestTaskHandler_Complete_InvalidTransition(t *testing.T) {
	svc := &mockTaskSvc{}
	svc.On("Complete", mock.Anything, "t1", "c1").Return(nil, domain.ErrInvalidStatusTransition)

	r := withActor(httptest.NewRequest(http.MethodPost, "/tasks/t1/complete", nil), "c1", domain.RoleContractor)
	rr := httptest.NewRecorder()
	taskRouter(NewTaskHandler(svc)).ServeHTTP(rr, r)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestTaskHandler_TransitionWithoutClaims(t *testing.T) {
	svc := &mockTaskSvc{}
	rr := httptest.NewRecorder()
	taskRouter(NewTaskHandler(svc)).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/tasks/t1/accept", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	svc.AssertNotCalled(t, "Accept", mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskHandler_Delete(t *testing.T) {
	svc := &mockTaskSvc{}
	svc.On("Delete", mock.Anything, "t1").Return(nil)

	r := withActor(httptest.NewRequest(http.MethodDelete, "/tasks/t1", nil), "d1", domain.RoleDirector)
	rr := httptest.NewRecorder()
	taskRouter(NewTaskHandler(svc)).ServeHTTP(rr, r)

	assert.Equal(t, http.StatusNoContent, rr.Code)
}
