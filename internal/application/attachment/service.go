package attachment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/taskflow-api/internal/domain"
	"github.com/taskflow-api/internal/pkg/id"
)

type UploadInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

type Service interface {
	Upload(ctx context.Context, taskID string, actor domain.Actor, in UploadInput) (*domain.Attachment, error)
	List(ctx context.Context, taskID string, actor domain.Actor) ([]domain.Attachment, error)
	Download(ctx context.Context, attachmentID string, actor domain.Actor) (io.ReadCloser, *domain.Attachment, error)
	Delete(ctx context.Context, attachmentID string, actor domain.Actor) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type attachmentStore interface {
	Put(ctx context.Context, a *domain.Attachment) error
	Get(ctx context.Context, attachmentID string) (*domain.Attachment, error)
	ListByTask(ctx context.Context, taskID string) ([]domain.Attachment, error)
	Delete(ctx context.Context, attachmentID string) error
}

type taskGetter interface {
	Get(ctx context.Context, taskID string) (*domain.Task, error)
}

type service struct {
	objects objectStore
	repo    attachmentStore
	tasks   taskGetter
}

type ServiceDeps struct {
	Objects        objectStore
	AttachmentRepo attachmentStore
	TaskRepo       taskGetter
}

func NewService(deps ServiceDeps) Service {
	return &service{objects: deps.Objects, repo: deps.AttachmentRepo, tasks: deps.TaskRepo}
}

func (s *service) Upload(ctx context.Context, taskID string, actor domain.Actor, in UploadInput) (*domain.Attachment, error) {
	if err := s.authorize(ctx, taskID, actor); err != nil {
		return nil, err
	}
	attachmentID := id.New()
	safeName := sanitizeFilename(in.Filename)
	key := fmt.Sprintf("tasks/%s/%s-%s", taskID, attachmentID, safeName)
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	hasher := sha256.New()
	if err := s.objects.Upload(ctx, key, io.TeeReader(in.Reader, hasher), in.Size, contentType); err != nil {
		return nil, err
	}
	a := &domain.Attachment{
		AttachmentID:     attachmentID,
		TaskID:           taskID,
		Object:           key,
		Name:             safeName,
		Type:             contentType,
		Size:             in.Size,
		Hash:             hex.EncodeToString(hasher.Sum(nil)),
		UploadedByUserID: actor.UserID,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.repo.Put(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) List(ctx context.Context, taskID string, actor domain.Actor) ([]domain.Attachment, error) {
	if err := s.authorize(ctx, taskID, actor); err != nil {
		return nil, err
	}
	list, err := s.repo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Attachment{}
	}
	return list, nil
}

func (s *service) Download(ctx context.Context, attachmentID string, actor domain.Actor) (io.ReadCloser, *domain.Attachment, error) {
	a, err := s.repo.Get(ctx, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.authorize(ctx, a.TaskID, actor); err != nil {
		return nil, nil, err
	}
	rc, err := s.objects.Download(ctx, a.Object)
	if err != nil {
		return nil, nil, err
	}
	return rc, a, nil
}

func (s *service) Delete(ctx context.Context, attachmentID string, actor domain.Actor) error {
	a, err := s.repo.Get(ctx, attachmentID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, a.TaskID, actor); err != nil {
		return err
	}
	if err := s.objects.Delete(ctx, a.Object); err != nil {
		return err
	}
	return s.repo.Delete(ctx, attachmentID)
}

// authorize allows directors and the contractor assigned to the task.
func (s *service) authorize(ctx context.Context, taskID string, actor domain.Actor) error {
	t, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if !actor.IsDirector() && t.ContractorID != actor.UserID {
		return fmt.Errorf("access denied: %w", domain.ErrForbidden)
	}
	return nil
}

// sanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) so names cannot escape the task prefix.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." && result != ".." {
		return result
	}
	return "_"
}
