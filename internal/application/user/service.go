package user

import (
	"context"

	"github.com/taskflow-api/internal/domain"
)

type Service interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

type service struct {
	repo userStore
}

type ServiceDeps struct {
	UserRepo userStore
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.UserRepo}
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}
