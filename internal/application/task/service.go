package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taskflow-api/internal/application/notification"
	"github.com/taskflow-api/internal/domain"
	"github.com/taskflow-api/internal/pkg/id"
)

type Service interface {
	Create(ctx context.Context, req domain.CreateTaskRequest) (*domain.TaskView, error)
	List(ctx context.Context) ([]domain.TaskView, error)
	ListMine(ctx context.Context, contractorID string) ([]domain.TaskView, error)
	Get(ctx context.Context, taskID string, actor domain.Actor) (*domain.TaskView, error)
	Update(ctx context.Context, taskID string, req domain.UpdateTaskRequest) (*domain.TaskView, []domain.TaskChange, error)
	Accept(ctx context.Context, taskID, contractorID string) (*domain.TaskView, error)
	Complete(ctx context.Context, taskID, contractorID string) (*domain.TaskView, error)
	Delete(ctx context.Context, taskID string) error
}

type taskStore interface {
	Put(ctx context.Context, t *domain.Task) error
	Get(ctx context.Context, taskID string) (*domain.Task, error)
	List(ctx context.Context) ([]domain.Task, error)
	ListByContractor(ctx context.Context, contractorID string) ([]domain.Task, error)
	UpdateDetails(ctx context.Context, taskID string, in domain.UpdateTaskRequest) error
	UpdateStatus(ctx context.Context, taskID string, from, to domain.TaskStatus) error
	Delete(ctx context.Context, taskID string) error
}

type projectGetter interface {
	Get(ctx context.Context, projectID string) (*domain.Project, error)
}

type userGetter interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type notifier interface {
	Notify(ctx context.Context, ev notification.Event) error
}

type service struct {
	repo     taskStore
	projects projectGetter
	users    userGetter
	notifier notifier
}

type ServiceDeps struct {
	TaskRepo    taskStore
	ProjectRepo projectGetter
	UserRepo    userGetter
	Notifier    notifier
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:     deps.TaskRepo,
		projects: deps.ProjectRepo,
		users:    deps.UserRepo,
		notifier: deps.Notifier,
	}
}

func (s *service) Create(ctx context.Context, req domain.CreateTaskRequest) (*domain.TaskView, error) {
	if err := checkDates(req.DateFrom, req.DateTo); err != nil {
		return nil, err
	}
	p, err := s.projects.Get(ctx, req.ProjectID)
	if err != nil {
		return nil, asBadRequest(err, "project")
	}
	contractor, err := s.users.Get(ctx, req.ContractorID)
	if err != nil {
		return nil, asBadRequest(err, "contractor")
	}

	now := time.Now().UTC()
	t := &domain.Task{
		TaskID:       id.New(),
		Name:         strings.TrimSpace(req.Name),
		ProjectID:    p.ProjectID,
		Description:  req.Description,
		DateFrom:     req.DateFrom,
		DateTo:       req.DateTo,
		ContractorID: contractor.UserID,
		Type:         req.Type,
		Status:       domain.TaskPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, t); err != nil {
		return nil, err
	}
	view := &domain.TaskView{Task: *t, ProjectName: p.Name, ContractorEmail: contractor.Email}
	s.notify(ctx, domain.NotificationTaskAssigned, contractor, view, nil)
	return view, nil
}

func (s *service) List(ctx context.Context) ([]domain.TaskView, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, tasks)
}

func (s *service) ListMine(ctx context.Context, contractorID string) ([]domain.TaskView, error) {
	tasks, err := s.repo.ListByContractor(ctx, contractorID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, tasks)
}

func (s *service) Get(ctx context.Context, taskID string, actor domain.Actor) (*domain.TaskView, error) {
	t, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !actor.IsDirector() && t.ContractorID != actor.UserID {
		return nil, fmt.Errorf("task belongs to another contractor: %w", domain.ErrForbidden)
	}
	view, _, err := s.view(ctx, t)
	return view, err
}

// Update rewrites the editable fields and returns the fields that actually changed.
// The contractor is notified only when something changed.
func (s *service) Update(ctx context.Context, taskID string, req domain.UpdateTaskRequest) (*domain.TaskView, []domain.TaskChange, error) {
	if err := checkDates(req.DateFrom, req.DateTo); err != nil {
		return nil, nil, err
	}
	t, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	changes := DetectChanges(*t, req)
	if len(changes) > 0 {
		if err := s.repo.UpdateDetails(ctx, taskID, req); err != nil {
			return nil, nil, err
		}
		t.Description, t.DateFrom, t.DateTo = req.Description, req.DateFrom, req.DateTo
		t.UpdatedAt = time.Now().UTC()
	}
	view, contractor, err := s.view(ctx, t)
	if err != nil {
		return nil, nil, err
	}
	if len(changes) > 0 {
		s.notify(ctx, domain.NotificationTaskChanged, contractor, view, changes)
	}
	return view, changes, nil
}

func (s *service) Accept(ctx context.Context, taskID, contractorID string) (*domain.TaskView, error) {
	return s.transition(ctx, taskID, contractorID, domain.TaskInProgress, domain.NotificationTaskAccepted)
}

func (s *service) Complete(ctx context.Context, taskID, contractorID string) (*domain.TaskView, error) {
	return s.transition(ctx, taskID, contractorID, domain.TaskCompleted, domain.NotificationTaskCompleted)
}

func (s *service) Delete(ctx context.Context, taskID string) error {
	return s.repo.Delete(ctx, taskID)
}

func (s *service) transition(ctx context.Context, taskID, contractorID string, to domain.TaskStatus, kind domain.NotificationKind) (*domain.TaskView, error) {
	t, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.ContractorID != contractorID {
		return nil, fmt.Errorf("task belongs to another contractor: %w", domain.ErrForbidden)
	}
	if !t.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("%s -> %s: %w", t.Status, to, domain.ErrInvalidStatusTransition)
	}
	if err := s.repo.UpdateStatus(ctx, taskID, t.Status, to); err != nil {
		return nil, err
	}
	t.Status = to
	t.UpdatedAt = time.Now().UTC()

	view, contractor, err := s.view(ctx, t)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, kind, contractor, view, nil)
	return view, nil
}

// view joins a task with its project name and contractor.
func (s *service) view(ctx context.Context, t *domain.Task) (*domain.TaskView, *domain.User, error) {
	v := &domain.TaskView{Task: *t}
	p, err := s.projects.Get(ctx, t.ProjectID)
	switch {
	case err == nil:
		v.ProjectName = p.Name
	case !errors.Is(err, domain.ErrNotFound):
		return nil, nil, err
	}
	u, err := s.users.Get(ctx, t.ContractorID)
	switch {
	case err == nil:
		v.ContractorEmail = u.Email
	case !errors.Is(err, domain.ErrNotFound):
		return nil, nil, err
	}
	return v, u, nil
}

func (s *service) views(ctx context.Context, tasks []domain.Task) ([]domain.TaskView, error) {
	projectNames := map[string]string{}
	emails := map[string]string{}
	out := make([]domain.TaskView, 0, len(tasks))
	for _, t := range tasks {
		name, ok := projectNames[t.ProjectID]
		if !ok {
			p, err := s.projects.Get(ctx, t.ProjectID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
			if p != nil {
				name = p.Name
			}
			projectNames[t.ProjectID] = name
		}
		email, ok := emails[t.ContractorID]
		if !ok {
			u, err := s.users.Get(ctx, t.ContractorID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
			if u != nil {
				email = u.Email
			}
			emails[t.ContractorID] = email
		}
		out = append(out, domain.TaskView{Task: t, ProjectName: name, ContractorEmail: email})
	}
	return out, nil
}

// notify never fails the calling operation; the task change is already stored.
func (s *service) notify(ctx context.Context, kind domain.NotificationKind, to *domain.User, view *domain.TaskView, changes []domain.TaskChange) {
	if s.notifier == nil || to == nil {
		return
	}
	ev := notification.Event{Kind: kind, Recipient: to, Task: *view, Changes: changes}
	if err := s.notifier.Notify(ctx, ev); err != nil {
		slog.Error("notify task event", "task_id", view.TaskID, "kind", kind, "err", err)
	}
}

// DetectChanges lists the editable fields whose values differ between t and req.
func DetectChanges(t domain.Task, req domain.UpdateTaskRequest) []domain.TaskChange {
	var changes []domain.TaskChange
	if t.Description != req.Description {
		changes = append(changes, domain.TaskChange{Field: "description", Value: req.Description})
	}
	if t.DateFrom != req.DateFrom {
		changes = append(changes, domain.TaskChange{Field: "date_from", Value: req.DateFrom})
	}
	if t.DateTo != req.DateTo {
		changes = append(changes, domain.TaskChange{Field: "date_to", Value: req.DateTo})
	}
	return changes
}

func checkDates(from, to string) error {
	f, err := time.Parse(domain.DateLayout, from)
	if err != nil {
		return fmt.Errorf("date_from must be YYYY-MM-DD: %w", domain.ErrBadRequest)
	}
	t, err := time.Parse(domain.DateLayout, to)
	if err != nil {
		return fmt.Errorf("date_to must be YYYY-MM-DD: %w", domain.ErrBadRequest)
	}
	if t.Before(f) {
		return fmt.Errorf("date_to is before date_from: %w", domain.ErrBadRequest)
	}
	return nil
}

func asBadRequest(err error, what string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%s does not exist: %w", what, domain.ErrBadRequest)
	}
	return err
}
