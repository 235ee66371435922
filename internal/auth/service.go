package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/fundflow/fundflow/internal/platform/httpx"
)

// RepositoryPort defines persistence operations for the auth module.
type RepositoryPort interface {
	FindByEmail(ctx context.Context, email string) (Account, error)
	CreateSession(ctx context.Context, rec SessionRecord) error
	DeleteSession(ctx context.Context, id string) error
}

// Service wraps authentication business rules.
type Service struct {
	repo      RepositoryPort
	validator *httpx.Validator
}

// NewService constructs a new Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validator: httpx.NewValidator()}
}

// Authenticate validates email/password credentials. Inactive accounts never sign in.
func (s *Service) Authenticate(ctx context.Context, input LoginInput) (Account, error) {
	if err := s.validator.Struct(input); err != nil {
		return Account{}, err
	}
	acc, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		return Account{}, ErrInvalidCredentials
	}
	if !acc.IsActive {
		return Account{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(input.Password)); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	return acc, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, rec SessionRecord) error {
	return s.repo.CreateSession(ctx, rec)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

// HashPassword returns the bcrypt hash stored for new accounts.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
