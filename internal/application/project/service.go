package project

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/taskflow-api/internal/domain"
	"github.com/taskflow-api/internal/pkg/id"
)

type Service interface {
	Create(ctx context.Context, in domain.ProjectInput) (*domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
	Get(ctx context.Context, projectID string) (*domain.Project, error)
	Update(ctx context.Context, projectID string, in domain.ProjectInput) (*domain.Project, error)
	Delete(ctx context.Context, projectID string) error
}

type projectStore interface {
	Put(ctx context.Context, p *domain.Project) error
	Get(ctx context.Context, projectID string) (*domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
	Update(ctx context.Context, projectID string, in domain.ProjectInput) error
	Delete(ctx context.Context, projectID string) error
}

type taskCounter interface {
	CountByProject(ctx context.Context, projectID string) (int, error)
}

type service struct {
	repo  projectStore
	tasks taskCounter
}

type ServiceDeps struct {
	ProjectRepo projectStore
	TaskRepo    taskCounter
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.ProjectRepo, tasks: deps.TaskRepo}
}

func (s *service) Create(ctx context.Context, in domain.ProjectInput) (*domain.Project, error) {
	now := time.Now().UTC()
	p := &domain.Project{
		ProjectID:   id.New(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) List(ctx context.Context) ([]domain.Project, error) {
	projects, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	return projects, nil
}

func (s *service) Get(ctx context.Context, projectID string) (*domain.Project, error) {
	return s.repo.Get(ctx, projectID)
}

func (s *service) Update(ctx context.Context, projectID string, in domain.ProjectInput) (*domain.Project, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.repo.Update(ctx, projectID, in); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, projectID)
}

// Delete removes a project that no task references.
func (s *service) Delete(ctx context.Context, projectID string) error {
	if _, err := s.repo.Get(ctx, projectID); err != nil {
		return err
	}
	n, err := s.tasks.CountByProject(ctx, projectID)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("project has %d tasks: %w", n, domain.ErrConflict)
	}
	return s.repo.Delete(ctx, projectID)
}
