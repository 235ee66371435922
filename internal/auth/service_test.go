package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundflow/fundflow/internal/platform/httpx"
)

type memoryRepo struct {
	accounts map[string]Account
	sessions map[string]SessionRecord
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{accounts: make(map[string]Account), sessions: make(map[string]SessionRecord)}
}

func (m *memoryRepo) add(t *testing.T, email, password string, active bool) Account {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	acc := Account{ID: uuid.New(), Email: email, PasswordHash: hash, IsActive: active}
	m.accounts[strings.ToLower(email)] = acc
	return acc
}

func (m *memoryRepo) FindByEmail(_ context.Context, email string) (Account, error) {
	acc, ok := m.accounts[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return acc, nil
}

func (m *memoryRepo) CreateSession(_ context.Context, rec SessionRecord) error {
	m.sessions[rec.ID] = rec
	return nil
}

func (m *memoryRepo) DeleteSession(_ context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func TestAuthenticate(t *testing.T) {
	repo := newMemoryRepo()
	active := repo.add(t, "coordinator@fundflow.test", "s3cret!", true)
	repo.add(t, "gone@fundflow.test", "s3cret!", false)
	svc := NewService(repo)

	acc, err := svc.Authenticate(context.Background(), LoginInput{Email: "Coordinator@fundflow.test", Password: "s3cret!"})
	require.NoError(t, err)
	assert.Equal(t, active.ID, acc.ID)

	_, err = svc.Authenticate(context.Background(), LoginInput{Email: "coordinator@fundflow.test", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, httpx.ErrUnauthorized)

	_, err = svc.Authenticate(context.Background(), LoginInput{Email: "nobody@fundflow.test", Password: "s3cret!"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), LoginInput{Email: "gone@fundflow.test", Password: "s3cret!"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateValidatesInput(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Authenticate(context.Background(), LoginInput{Email: "not-an-email", Password: "x"})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Authenticate(context.Background(), LoginInput{Email: "a@fundflow.test"})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}
