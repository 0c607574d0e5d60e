package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskchat/taskchat-api/internal/config"
	"github.com/taskchat/taskchat-api/internal/domain"
	"github.com/taskchat/taskchat-api/internal/service/auth"
	"github.com/taskchat/taskchat-api/internal/store"
)

// fakeUserStore is an in-memory UserStore keyed by id and email.
type fakeUserStore struct {
	byID    map[uuid.UUID]*domain.User
	byEmail map[string]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byID:    make(map[uuid.UUID]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

func (f *fakeUserStore) Create(_ context.Context, user *domain.User) error {
	if _, exists := f.byEmail[user.Email]; exists {
		return store.ErrEmailExists
	}
	copied := *user
	f.byID[user.ID] = &copied
	f.byEmail[user.Email] = &copied
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) Update(_ context.Context, user *domain.User) error {
	existing, ok := f.byID[user.ID]
	if !ok {
		return store.ErrUserNotFound
	}
	if other, taken := f.byEmail[user.Email]; taken && other.ID != user.ID {
		return store.ErrEmailExists
	}
	delete(f.byEmail, existing.Email)
	copied := *user
	f.byID[user.ID] = &copied
	f.byEmail[user.Email] = &copied
	return nil
}

func (f *fakeUserStore) WithTx(_ *sql.Tx) store.UserStore { return f }

func newUserService(t *testing.T) (*UserService, *fakeUserStore) {
	t.Helper()

	jwtSvc, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:                   "test-secret-that-is-at-least-32-chars-long",
		TokenLifetimeMinutes:        15,
		RefreshTokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)

	users := newFakeUserStore()
	// Minimum bcrypt cost keeps the tests fast.
	svc := NewUserService(users, auth.NewBcryptHasher(4), jwtSvc, nil)
	return svc, users
}

func TestRegister_HashesPasswordAndIssuesTokens(t *testing.T) {
	svc, users := newUserService(t)

	user, pair, err := svc.Register(context.Background(), "alice@example.com", "password123")

	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	stored := users.byEmail["alice@example.com"]
	require.NotNil(t, stored)
	assert.Equal(t, user.ID, stored.ID)
	assert.Empty(t, stored.Password, "plaintext never persisted")
	assert.NotEmpty(t, stored.HashedPassword)
	assert.NotEqual(t, "password123", stored.HashedPassword)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newUserService(t)

	_, _, err := svc.Register(context.Background(), "bob@example.com", "password123")
	require.NoError(t, err)

	_, _, err = svc.Register(context.Background(), "bob@example.com", "different456")
	assert.ErrorIs(t, err, store.ErrEmailExists)
}

func TestRegister_InvalidInput(t *testing.T) {
	svc, _ := newUserService(t)

	_, _, err := svc.Register(context.Background(), "not-an-email", "password123")
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, _, err = svc.Register(context.Background(), "ok@example.com", "short")
	assert.ErrorIs(t, err, domain.ErrPasswordTooShort)
}

func TestLogin_Success(t *testing.T) {
	svc, _ := newUserService(t)

	registered, _, err := svc.Register(context.Background(), "carol@example.com", "password123")
	require.NoError(t, err)

	user, pair, err := svc.Login(context.Background(), "carol@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, pair.AccessToken)
}

func TestLogin_BadCredentialsIndistinguishable(t *testing.T) {
	svc, _ := newUserService(t)

	_, _, err := svc.Register(context.Background(), "dan@example.com", "password123")
	require.NoError(t, err)

	_, _, wrongPassword := svc.Login(context.Background(), "dan@example.com", "wrong-password")
	_, _, noSuchUser := svc.Login(context.Background(), "ghost@example.com", "password123")

	assert.ErrorIs(t, wrongPassword, auth.ErrInvalidCredentials)
	assert.ErrorIs(t, noSuchUser, auth.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), noSuchUser.Error())
}

func TestRefresh_RoundTrip(t *testing.T) {
	svc, _ := newUserService(t)

	_, pair, err := svc.Register(context.Background(), "erin@example.com", "password123")
	require.NoError(t, err)

	newPair, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, newPair.AccessToken)
	assert.NotEmpty(t, newPair.RefreshToken)
}

func TestRefresh_RejectsAccessTokenAndGarbage(t *testing.T) {
	svc, _ := newUserService(t)

	_, pair, err := svc.Register(context.Background(), "frank@example.com", "password123")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, auth.ErrWrongTokenType)

	_, err = svc.Refresh(context.Background(), "garbage")
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}

func TestTaskService_FilterValidation(t *testing.T) {
	svc := NewTaskService(nil, nil)

	_, err := svc.List(context.Background(), uuid.New(), "urgent")
	assert.ErrorIs(t, err, ErrInvalidTaskFilter)
}
