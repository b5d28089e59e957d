package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/taskflow-api/internal/application/notification"
	"github.com/taskflow-api/internal/domain"
)

type mockProjectSvc struct{ mock.Mock }

func (m *mockProjectSvc) Create(ctx context.Context, in domain.ProjectInput) (*domain.Project, error) {
	args := m.Called(ctx, in)
	p, _ := args.Get(0).(*domain.Project)
	return p, args.Error(1)
}

func (m *mockProjectSvc) List(ctx context.Context) ([]domain.Project, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Project), args.Error(1)
}

func (m *mockProjectSvc) Get(ctx context.Context, projectID string) (*domain.Project, error) {
	args := m.Called(ctx, projectID)
	p, _ := args.Get(0).(*domain.Project)
	return p, args.Error(1)
}

func (m *mockProjectSvc) Update(ctx context.Context, projectID string, in domain.ProjectInput) (*domain.Project, error) {
	args := m.Called(ctx, projectID, in)
	p, _ := args.Get(0).(*domain.Project)
	return p, args.Error(1)
}

func (m *mockProjectSvc) Delete(ctx context.Context, projectID string) error {
	return m.Called(ctx, projectID).Error(0)
}

type mockNotificationSvc struct{ mock.Mock }

func (m *mockNotificationSvc) Notify(ctx context.Context, ev notification.Event) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *mockNotificationSvc) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Notification), args.Error(1)
}

func (m *mockNotificationSvc) MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID, userID)
	n, _ := args.Get(0).(*domain.Notification)
	return n, args.Error(1)
}

func TestProjectHandler_Create_NameTooLong(t *testing.T) {
	svc := &mockProjectSvc{}
	body := fmt.Sprintf(`{"name":%q}`, strings.Repeat("x", 51))
	rr := httptest.NewRecorder()
	NewProjectHandler(svc).Create(rr, httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProjectHandler_Delete_StillReferenced(t *testing.T) {
	svc := &mockProjectSvc{}
	svc.On("Delete", mock.Anything, "p1").Return(fmt.Errorf("project has tasks: %w", domain.ErrConflict))

	r := chi.NewRouter()
	r.Delete("/projects/{id}", NewProjectHandler(svc).Delete)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/projects/p1", nil))

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestProjectHandler_Get_NotFound(t *testing.T) {
	svc := &mockProjectSvc{}
	svc.On("Get", mock.Anything, "nope").Return(nil, domain.ErrNotFound)

	r := chi.NewRouter()
	r.Get("/projects/{id}", NewProjectHandler(svc).Get)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/projects/nope", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestNotificationHandler_ListUnread(t *testing.T) {
	svc := &mockNotificationSvc{}
	svc.On("ListUnread", mock.Anything, "c1").Return([]domain.Notification{{NotificationID: "n1"}}, nil)

	rr := httptest.NewRecorder()
	r := withActor(httptest.NewRequest(http.MethodGet, "/notifications", nil), "c1", domain.RoleContractor)
	NewNotificationHandler(svc).ListUnread(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"id":"n1"`)
}

func TestNotificationHandler_MarkAsRead_NotOwner(t *testing.T) {
	svc := &mockNotificationSvc{}
	svc.On("MarkAsRead", mock.Anything, "n1", "c2").Return(nil, domain.ErrForbidden)

	router := chi.NewRouter()
	router.Put("/notifications/{id}", NewNotificationHandler(svc).MarkAsRead)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, withActor(httptest.NewRequest(http.MethodPut, "/notifications/n1", nil), "c2", domain.RoleContractor))

	assert.Equal(t, http.StatusForbidden, rr.Code)
}
