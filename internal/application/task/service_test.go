package task

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taskflow-api/internal/application/notification"
	"github.com/taskflow-api/internal/domain"
)

// --- mocks ---

type mockTaskStore struct{ mock.Mock }

func (m *mockTaskStore) Put(ctx context.Context, t *domain.Task) error {
	return m.Called(ctx, t).Error(0)
}
func (m *mockTaskStore) Get(ctx context.Context, taskID string) (*domain.Task, error) {
	args := m.Called(ctx, taskID)
	if t, _ := args.Get(0).(*domain.Task); t != nil {
		cp := *t
		return &cp, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTaskStore) List(ctx context.Context) ([]domain.Task, error) {
	args := m.Called(ctx)
	tasks, _ := args.Get(0).([]domain.Task)
	return tasks, args.Error(1)
}
func (m *mockTaskStore) ListByContractor(ctx context.Context, contractorID string) ([]domain.Task, error) {
	args := m.Called(ctx, contractorID)
	tasks, _ := args.Get(0).([]domain.Task)
	return tasks, args.Error(1)
}
func (m *mockTaskStore) UpdateDetails(ctx context.Context, taskID string, in domain.UpdateTaskRequest) error {
	return m.Called(ctx, taskID, in).Error(0)
}
func (m *mockTaskStore) UpdateStatus(ctx context.Context, taskID string, from, to domain.TaskStatus) error {
	return m.Called(ctx, taskID, from, to).Error(0)
}
func (m *mockTaskStore) Delete(ctx context.Context, taskID string) error {
	return m.Called(ctx, taskID).Error(0)
}

type mockProjectGetter struct{ mock.Mock }

func (m *mockProjectGetter) Get(ctx context.Context, projectID string) (*domain.Project, error) {
	args := m.Called(ctx, projectID)
	if p, _ := args.Get(0).(*domain.Project); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockUserGetter struct{ mock.Mock }

func (m *mockUserGetter) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(ctx context.Context, ev notification.Event) error {
	return m.Called(ctx, ev).Error(0)
}

// --- fixture ---

type fixture struct {
	tasks    *mockTaskStore
	projects *mockProjectGetter
	users    *mockUserGetter
	notifier *mockNotifier
	svc      Service
}

func newFixture() *fixture {
	f := &fixture{
		tasks:    &mockTaskStore{},
		projects: &mockProjectGetter{},
		users:    &mockUserGetter{},
		notifier: &mockNotifier{},
	}
	f.svc = NewService(ServiceDeps{
		TaskRepo:    f.tasks,
		ProjectRepo: f.projects,
		UserRepo:    f.users,
		Notifier:    f.notifier,
	})
	return f
}

var (
	apollo     = &domain.Project{ProjectID: "p1", Name: "Apollo"}
	contractor = &domain.User{UserID: "c1", Email: "c@x.com"}
)

func storedTask(status domain.TaskStatus) *domain.Task {
	return &domain.Task{
		TaskID: "t1", Name: "Build", ProjectID: "p1", Description: "old",
		DateFrom: "2024-01-01", DateTo: "2024-01-31", ContractorID: "c1",
		Type: domain.TaskTypeDeveloper, Status: status,
	}
}

func kindIs(kind domain.NotificationKind) interface{} {
	return mock.MatchedBy(func(ev notification.Event) bool { return ev.Kind == kind })
}

// --- Create ---

func createReq() domain.CreateTaskRequest {
	return domain.CreateTaskRequest{
		Name: "Build", ProjectID: "p1", DateFrom: "2024-01-01", DateTo: "2024-01-31",
		ContractorID: "c1", Type: domain.TaskTypeDeveloper,
	}
}

func TestCreate_DateOrder(t *testing.T) {
	f := newFixture()
	req := createReq()
	req.DateFrom, req.DateTo = "2024-02-01", "2024-01-01"

	_, err := f.svc.Create(context.Background(), req)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestCreate_SameDayAllowed(t *testing.T) {
	f := newFixture()
	req := createReq()
	req.DateTo = req.DateFrom
	f.projects.On("Get", mock.Anything, "p1").Return(apollo, nil)
	f.users.On("Get", mock.Anything, "c1").Return(contractor, nil)
	f.tasks.On("Put", mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
}

func TestCreate_UnknownProject(t *testing.T) {
	f := newFixture()
	f.projects.On("Get", mock.Anything, "p1").Return(nil, domain.ErrNotFound)

	_, err := f.svc.Create(context.Background(), createReq())
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestCreate_UnknownContractor(t *testing.T) {
	f := newFixture()
	f.projects.On("Get", mock.Anything, "p1").Return(apollo, nil)
	f.users.On("Get", mock.Anything, "c1").Return(nil, domain.ErrNotFound)

	_, err := f.svc.Create(context.Background(), createReq())
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	f.tasks.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestCreate_PendingAndNotified(t *testing.T) {
	f := newFixture()
	f.projects.On("Get", mock.Anything, "p1").Return(apollo, nil)
	f.users.On("Get", mock.Anything, "c1").Return(contractor, nil)
	f.tasks.On("Put", mock.Anything, mock.MatchedBy(func(t *domain.Task) bool {
		return t.Status == domain.TaskPending && t.TaskID != ""
	})).Return(nil)
	f.notifier.On("Notify", mock.Anything, kindIs(domain.NotificationTaskAssigned)).Return(nil)

	v, err := f.svc.Create(context.Background(), createReq())
	require.NoError(t, err)
	assert.Equal(t, "Apollo", v.ProjectName)
	assert.Equal(t, "c@x.com", v.ContractorEmail)
	f.notifier.AssertExpectations(t)
}

func TestCreate_NotifyFailureDoesNotFail(t *testing.T) {
	f := newFixture()
	f.projects.On("Get", mock.Anything, "p1").Return(apollo, nil)
	f.users.On("Get", mock.Anything, "c1").Return(contractor, nil)
	f.tasks.On("Put", mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	_, err := f.svc.Create(context.Background(), createReq())
	assert.NoError(t, err)
}

// --- Get ---

func TestGet_OtherContractorForbidden(t *testing.T) {
	f := newFixture()
	f.tasks.On("Get", mock.Anything, "t1").Return(storedTask(domain.TaskPending), nil)

	_, err := f.svc.Get(context.Background(), "t1", domain.Actor{UserID: "c2", Role: domain.RoleContractor})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestGet_DirectorSeesAnyTask(t *testing.T) {
	f := newFixture()
	f.tasks.On("Get", mock.Anything, "t1").Return(storedTask(domain.TaskPending), nil)
	f.projects.On("Get", mock.Anything, "p1").Return(apollo, nil)
	f.users.On("Get", mock.Anything, "c1").Return(contractor, nil)

	v, err := f.svc.Get(context.Background(), "t1", domain.Actor{UserID: "d1", Role: domain.RoleDirector})
	require.NoError(t, err)
	assert.Equal(t, "Apollo", v.ProjectName)
}

// --- Update ---

func TestDetectChanges(t *testing.T) {
	cur := *storedTask(domain.TaskPending)
	assert.Empty(t, DetectChanges(cur, domain.UpdateTaskRequest{Description: "old", DateFrom: "2024-01-01", DateTo: "2024-01-31"}))

	changes := DetectChanges(cur, domain.UpdateTaskRequest{Description: "new", DateFrom: "2024-01-01", DateTo: "2024-02-15"})
	assert.Equal(t, []domain.TaskChange{
		{Field: "description", Value: "new"},
		{Field: "date_to", Value: "2024-02-15"},
	}, changes)
}

func TestUpdate_NoChangesNoWriteNoNotify(t *testing.T) {
	f := newFixture()
	f.tasks.On("Get", mock.Anything, "t1").Return(storedTask(domain.TaskPending), nil)
	f.projects.On("Get", mock.Anything, "p1").Return(apollo, nil)
	f.users.On("Get", mock.Anything, "c1").Return(contractor, nil)

	_, changes, err := f.svc.Update(context.Background(), "t1", domain.UpdateTaskRequest{
		Description: "old", DateFrom: "2024-01-01", DateTo: "2024-01-31",
	})
	require.NoError(t, err)
	assert.Empty(t, changes)
	f.tasks.AssertNotCalled(t, "UpdateDetails", mock.Anything, mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestUpdate_ChangesNotified(t *testing.T) {
	f := newFixture()
	req := domain.UpdateTaskRequest{Description: "new", DateFrom: "2024-01-01", DateTo: "2024-01-31"}
	f.tasks.On("Get", mock.Anything, "t1").Return(storedTask(domain.TaskPending), nil)
	f.tasks.On("UpdateDetails", mock.Anything, "t1", req).Return(nil)
	f.projects.On("Get", mock.Anything, "p1").Return(apollo, nil)
	f.users.On("Get", mock.Anything, "c1").Return(contractor, nil)
	f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(ev notification.Event) bool {
		return ev.Kind == domain.NotificationTaskChanged && len(ev.Changes) == 1 && ev.Changes[0].Field == "description"
	})).Return(nil)

	v, changes, err := f.svc.Update(context.Background(), "t1", req)
	require.NoError(t, err)
	assert.Len(t, changes, 1)
	assert.Equal(t, "new", v.Description)
	f.notifier.AssertExpectations(t)
}

// --- Accept / Complete ---

func TestAccept_PendingToInProgress(t *testing.T) {
	f := newFixture()
	f.tasks.On("Get", mock.Anything, "t1").Return(storedTask(domain.TaskPending), nil)
	f.tasks.On("UpdateStatus", mock.Anything, "t1", domain.TaskPending, domain.TaskInProgress).Return(nil)
	f.projects.On("Get", mock.Anything, "p1").Return(apollo, nil)
	f.users.On("Get", mock.Anything, "c1").Return(contractor, nil)
	f.notifier.On("Notify", mock.Anything, kindIs(domain.NotificationTaskAccepted)).Return(nil)

	v, err := f.svc.Accept(context.Background(), "t1", "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskInProgress, v.Status)
	f.notifier.AssertExpectations(t)
}

func TestAccept_NotOwner(t *testing.T) {
	f := newFixture()
	f.tasks.On("Get", mock.Anything, "t1").Return(storedTask(domain.TaskPending), nil)

	_, err := f.svc.Accept(context.Background(), "t1", "c2")
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestAccept_AlreadyInProgress(t *testing.T) {
	f := newFixture()
	f.tasks.On("Get", mock.Anything, "t1").Return(storedTask(domain.TaskInProgress), nil)

	_, err := f.svc.Accept(context.Background(), "t1", "c1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidStatusTransition))
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestComplete_FromPendingRejected(t *testing.T) {
	f := newFixture()
	f.tasks.On("Get", mock.Anything, "t1").Return(storedTask(domain.TaskPending), nil)

	_, err := f.svc.Complete(context.Background(), "t1", "c1")
	assert.True(t, errors.Is(err, domain.ErrInvalidStatusTransition))
}

func TestComplete_ConcurrentTransitionLost(t *testing.T) {
	f := newFixture()
	f.tasks.On("Get", mock.Anything, "t1").Return(storedTask(domain.TaskInProgress), nil)
	f.tasks.On("UpdateStatus", mock.Anything, "t1", domain.TaskInProgress, domain.TaskCompleted).
		Return(domain.ErrInvalidStatusTransition)

	_, err := f.svc.Complete(context.Background(), "t1", "c1")
	assert.True(t, errors.Is(err, domain.ErrConflict))
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

// --- List ---

func TestListMine_JoinsAndCaches(t *testing.T) {
	f := newFixture()
	a, b := *storedTask(domain.TaskPending), *storedTask(domain.TaskCompleted)
	b.TaskID = "t2"
	f.tasks.On("ListByContractor", mock.Anything, "c1").Return([]domain.Task{a, b}, nil)
	f.projects.On("Get", mock.Anything, "p1").Return(apollo, nil).Once()
	f.users.On("Get", mock.Anything, "c1").Return(contractor, nil).Once()

	views, err := f.svc.ListMine(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Apollo", views[1].ProjectName)
	assert.Equal(t, "c@x.com", views[1].ContractorEmail)
	f.projects.AssertExpectations(t)
	f.users.AssertExpectations(t)
}

func TestList_Empty(t *testing.T) {
	f := newFixture()
	f.tasks.On("List", mock.Anything).Return(nil, nil)

	views, err := f.svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
}
