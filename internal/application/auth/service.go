package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taskflow-api/internal/application/verification"
	"github.com/taskflow-api/internal/domain"
	"github.com/taskflow-api/internal/infrastructure/smtp"
	"github.com/taskflow-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

const confirmationSubject = "Your registration confirmation code"

// maxPasswordBytes is bcrypt's input limit. Validation counts runes, so
// multibyte passwords are checked again here.
const maxPasswordBytes = 72

type Service interface {
	// Register starts a registration and returns the signed pending-registration token.
	Register(ctx context.Context, req domain.RegisterRequest) (string, error)
	// ResendCode issues a fresh code for the registration carried by pendingToken.
	ResendCode(ctx context.Context, pendingToken string) error
	// ConfirmRegistration checks the code, creates the account and returns it with a session token.
	ConfirmRegistration(ctx context.Context, pendingToken string, code int) (*domain.User, string, error)
	Login(ctx context.Context, req domain.LoginRequest) (*domain.User, string, error)
}

type codeStore interface {
	Issue(email string) (verification.Code, error)
	Verify(email string, code verification.Code) bool
	Discard(email string)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
}

type tokenSigner interface {
	Sign(userID, role string) (string, error)
	SignPending(pending domain.PendingRegistration) (string, error)
	VerifyPending(tokenStr string) (*domain.PendingRegistration, error)
}

type service struct {
	codes      codeStore
	repo       userStore
	mailer     smtp.Mailer
	tokens     tokenSigner
	directors  map[string]struct{}
	bcryptCost int
}

type ServiceDeps struct {
	Codes          codeStore
	UserRepo       userStore
	Mailer         smtp.Mailer
	Tokens         tokenSigner
	DirectorEmails []string
	BcryptCost     int // zero selects bcrypt.DefaultCost
}

func NewService(deps ServiceDeps) Service {
	directors := make(map[string]struct{}, len(deps.DirectorEmails))
	for _, e := range deps.DirectorEmails {
		directors[normalizeEmail(e)] = struct{}{}
	}
	cost := deps.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &service{
		codes:      deps.Codes,
		repo:       deps.UserRepo,
		mailer:     deps.Mailer,
		tokens:     deps.Tokens,
		directors:  directors,
		bcryptCost: cost,
	}
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (string, error) {
	if len(req.Password) > maxPasswordBytes {
		return "", fmt.Errorf("password exceeds %d bytes: %w", maxPasswordBytes, domain.ErrBadRequest)
	}
	email := normalizeEmail(req.Email)
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	if err := s.sendCode(email); err != nil {
		return "", err
	}
	return s.tokens.SignPending(domain.PendingRegistration{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Position:     req.Position,
	})
}

func (s *service) ResendCode(ctx context.Context, pendingToken string) error {
	pending, err := s.pending(pendingToken)
	if err != nil {
		return err
	}
	return s.sendCode(pending.Email)
}

func (s *service) ConfirmRegistration(ctx context.Context, pendingToken string, code int) (*domain.User, string, error) {
	pending, err := s.pending(pendingToken)
	if err != nil {
		return nil, "", err
	}
	if !s.codes.Verify(pending.Email, verification.Code(code)) {
		return nil, "", domain.ErrInvalidCode
	}
	if err := s.ensureEmailFree(ctx, pending.Email); err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	_, director := s.directors[pending.Email]
	u := &domain.User{
		UserID:       id.New(),
		Name:         pending.Name,
		Email:        pending.Email,
		PasswordHash: pending.PasswordHash,
		Position:     pending.Position,
		IsDirector:   director,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Sign(u.UserID, u.Role())
	if err != nil {
		return nil, "", err
	}
	slog.Info("user registered", "user_id", u.UserID, "email", u.Email, "director", director)
	return u, token, nil
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*domain.User, string, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", fmt.Errorf("user not found: %w", domain.ErrNotFound)
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	token, err := s.tokens.Sign(u.UserID, u.Role())
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return fmt.Errorf("email already registered: %w", domain.ErrConflict)
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return err
	}
}

func (s *service) pending(token string) (*domain.PendingRegistration, error) {
	if token == "" {
		return nil, fmt.Errorf("no pending registration: %w", domain.ErrUnauthorized)
	}
	p, err := s.tokens.VerifyPending(token)
	if err != nil {
		return nil, fmt.Errorf("pending registration expired or invalid: %w", domain.ErrUnauthorized)
	}
	return p, nil
}

func (s *service) sendCode(email string) error {
	code, err := s.codes.Issue(email)
	if err != nil {
		return fmt.Errorf("issue verification code: %w", err)
	}
	body := fmt.Sprintf("Hello, here is your confirmation code: %d", code)
	if err := s.mailer.SendEmail(email, confirmationSubject, body); err != nil {
		s.codes.Discard(email)
		return fmt.Errorf("send verification code: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
