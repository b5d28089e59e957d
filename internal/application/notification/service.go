package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taskflow-api/internal/domain"
	"github.com/taskflow-api/internal/infrastructure/smtp"
	"github.com/taskflow-api/internal/infrastructure/sns"
	"github.com/taskflow-api/internal/pkg/id"
)

// Event is a task lifecycle event addressed to one user.
type Event struct {
	Kind      domain.NotificationKind
	Recipient *domain.User
	Task      domain.TaskView
	Changes   []domain.TaskChange
}

type Service interface {
	// Notify emails the recipient, records an in-app notification and
	// publishes the event when a topic is configured.
	Notify(ctx context.Context, ev Event) error
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error)
}

type notificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID string) error
}

type eventPublisher interface {
	PublishTaskEvent(ctx context.Context, ev sns.TaskEvent) error
}

type service struct {
	repo      notificationStore
	mailer    smtp.Mailer
	publisher eventPublisher
}

type ServiceDeps struct {
	NotificationRepo notificationStore
	Mailer           smtp.Mailer
	Publisher        eventPublisher // optional
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:      deps.NotificationRepo,
		mailer:    deps.Mailer,
		publisher: deps.Publisher,
	}
}

func (s *service) Notify(ctx context.Context, ev Event) error {
	if ev.Recipient == nil {
		return fmt.Errorf("notification without recipient: %w", domain.ErrBadRequest)
	}
	subject, body, err := compose(ev)
	if err != nil {
		return err
	}

	var errs []error
	if err := s.mailer.SendEmail(ev.Recipient.Email, subject, body); err != nil {
		errs = append(errs, fmt.Errorf("email: %w", err))
	}

	now := time.Now().UTC()
	n := &domain.Notification{
		NotificationID: id.New(),
		UserID:         ev.Recipient.UserID,
		TaskID:         ev.Task.TaskID,
		Kind:           ev.Kind,
		Message:        subject + ": " + ev.Task.Name,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Put(ctx, n); err != nil {
		errs = append(errs, fmt.Errorf("store notification: %w", err))
	}

	if s.publisher != nil {
		err := s.publisher.PublishTaskEvent(ctx, sns.TaskEvent{
			Kind:    ev.Kind,
			TaskID:  ev.Task.TaskID,
			UserID:  ev.Recipient.UserID,
			Message: n.Message,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("publish: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		slog.Warn("task notification incomplete", "task_id", ev.Task.TaskID, "kind", ev.Kind, "err", err)
		return err
	}
	return nil
}

func (s *service) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	list, err := s.repo.ListUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Notification{}
	}
	return list, nil
}

func (s *service) MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, fmt.Errorf("forbidden: %w", domain.ErrForbidden)
	}
	if err := s.repo.MarkAsRead(ctx, notificationID); err != nil {
		return nil, err
	}
	n.Readed = 1
	return n, nil
}
