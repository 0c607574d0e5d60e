package api

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskchat/taskchat-api/internal/api/shared"
	"github.com/taskchat/taskchat-api/internal/config"
	"github.com/taskchat/taskchat-api/internal/domain"
	"github.com/taskchat/taskchat-api/internal/service"
	"github.com/taskchat/taskchat-api/internal/service/auth"
	"github.com/taskchat/taskchat-api/internal/store"
)

// Low bcrypt cost keeps the registration tests fast.
const testBcryptCost = 4

// memUserStore is an in-memory UserStore for handler tests.
type memUserStore struct {
	byID    map[uuid.UUID]*domain.User
	byEmail map[string]*domain.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{
		byID:    make(map[uuid.UUID]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

func (s *memUserStore) Create(_ context.Context, user *domain.User) error {
	if _, exists := s.byEmail[user.Email]; exists {
		return store.ErrEmailExists
	}
	copied := *user
	s.byID[user.ID] = &copied
	s.byEmail[user.Email] = &copied
	return nil
}

func (s *memUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *memUserStore) Update(_ context.Context, user *domain.User) error {
	existing, ok := s.byID[user.ID]
	if !ok {
		return store.ErrUserNotFound
	}
	if other, taken := s.byEmail[user.Email]; taken && other.ID != user.ID {
		return store.ErrEmailExists
	}
	delete(s.byEmail, existing.Email)
	copied := *user
	s.byID[user.ID] = &copied
	s.byEmail[user.Email] = &copied
	return nil
}

func (s *memUserStore) WithTx(_ *sql.Tx) store.UserStore { return s }

func newAuthTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	jwtService, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:                   "test-secret-key-that-is-at-least-32-chars",
		TokenLifetimeMinutes:        15,
		RefreshTokenLifetimeMinutes: 60 * 24,
	})
	require.NoError(t, err)

	users := service.NewUserService(newMemUserStore(), auth.NewBcryptHasher(testBcryptCost), jwtService, nil)
	handler := NewAuthHandler(users)

	r := chi.NewRouter()
	r.Post("/api/auth/register", handler.Register)
	r.Post("/api/auth/login", handler.Login)
	r.Post("/api/auth/refresh", handler.Refresh)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func TestAuthHandler_Register(t *testing.T) {
	t.Parallel()

	server := newAuthTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/auth/register", map[string]any{
		"email":    "new@example.com",
		"password": "a-strong-password",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody[AuthResponse](t, resp)
	assert.Equal(t, "new@example.com", body.Email)
	assert.NotEmpty(t, body.UserID)
	assert.NotEmpty(t, body.AccessToken)
	assert.NotEmpty(t, body.RefreshToken)
	assert.NotEqual(t, body.AccessToken, body.RefreshToken)
}

func TestAuthHandler_RegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	server := newAuthTestServer(t)
	payload := map[string]any{
		"email":    "taken@example.com",
		"password": "a-strong-password",
	}

	resp := doJSON(t, http.MethodPost, server.URL+"/api/auth/register", payload)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/auth/register", payload)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decodeBody[shared.ErrorResponse](t, resp)
	assert.Equal(t, "Email already exists", body.Error)
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	t.Parallel()

	server := newAuthTestServer(t)

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"missing email", map[string]any{"password": "a-strong-password"}},
		{"malformed email", map[string]any{"email": "not-an-email", "password": "a-strong-password"}},
		{"short password", map[string]any{"email": "ok@example.com", "password": "short"}},
		{"long password", map[string]any{"email": "ok@example.com", "password": strings.Repeat("x", 73)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			resp := doJSON(t, http.MethodPost, server.URL+"/api/auth/register", tc.payload)
			_ = resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestAuthHandler_LoginRoundTrip(t *testing.T) {
	t.Parallel()

	server := newAuthTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/auth/register", map[string]any{
		"email":    "alice@example.com",
		"password": "correct-horse-battery",
	})
	_ = resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "correct-horse-battery",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[AuthResponse](t, resp)
	assert.Equal(t, "alice@example.com", body.Email)
	assert.NotEmpty(t, body.AccessToken)
}

func TestAuthHandler_LoginBadCredentials(t *testing.T) {
	t.Parallel()

	server := newAuthTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/auth/register", map[string]any{
		"email":    "bob@example.com",
		"password": "the-right-password",
	})
	_ = resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Wrong password and unknown email produce identical responses so an
	// attacker cannot enumerate registered addresses.
	wrongPassword := doJSON(t, http.MethodPost, server.URL+"/api/auth/login", map[string]any{
		"email":    "bob@example.com",
		"password": "the-wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, wrongPassword.StatusCode)
	wrongBody := decodeBody[shared.ErrorResponse](t, wrongPassword)

	unknownEmail := doJSON(t, http.MethodPost, server.URL+"/api/auth/login", map[string]any{
		"email":    "nobody@example.com",
		"password": "the-right-password",
	})
	require.Equal(t, http.StatusUnauthorized, unknownEmail.StatusCode)
	unknownBody := decodeBody[shared.ErrorResponse](t, unknownEmail)

	assert.Equal(t, wrongBody.Error, unknownBody.Error)
	assert.Equal(t, "Invalid email or password", wrongBody.Error)
}

func TestAuthHandler_Refresh(t *testing.T) {
	t.Parallel()

	server := newAuthTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/auth/register", map[string]any{
		"email":    "carol@example.com",
		"password": "a-strong-password",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	registered := decodeBody[AuthResponse](t, resp)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/auth/refresh", map[string]any{
		"refresh_token": registered.RefreshToken,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	refreshed := decodeBody[AuthResponse](t, resp)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEmpty(t, refreshed.RefreshToken)
}

func TestAuthHandler_RefreshRejectsAccessToken(t *testing.T) {
	t.Parallel()

	server := newAuthTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/auth/register", map[string]any{
		"email":    "dave@example.com",
		"password": "a-strong-password",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	registered := decodeBody[AuthResponse](t, resp)

	// An access token must not be usable as a refresh token.
	resp = doJSON(t, http.MethodPost, server.URL+"/api/auth/refresh", map[string]any{
		"refresh_token": registered.AccessToken,
	})
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthHandler_RefreshRejectsGarbage(t *testing.T) {
	t.Parallel()

	server := newAuthTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/auth/refresh", map[string]any{
		"refresh_token": "not.a.jwt",
	})
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
