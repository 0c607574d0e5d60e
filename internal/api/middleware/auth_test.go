package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskchat/taskchat-api/internal/api/shared"
	"github.com/taskchat/taskchat-api/internal/service/auth"
)

// stubJWTService returns canned claims or errors for ValidateToken.
type stubJWTService struct {
	claims *auth.Claims
	err    error
}

func (s *stubJWTService) GenerateToken(_ context.Context, _ uuid.UUID) (string, error) {
	return "", nil
}

func (s *stubJWTService) ValidateToken(_ context.Context, _ string) (*auth.Claims, error) {
	return s.claims, s.err
}

func (s *stubJWTService) GenerateRefreshToken(_ context.Context, _ uuid.UUID) (string, error) {
	return "", nil
}

func (s *stubJWTService) ValidateRefreshToken(_ context.Context, _ string) (*auth.Claims, error) {
	return s.claims, s.err
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body shared.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	t.Parallel()

	m := NewAuthMiddleware(&stubJWTService{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	m.Authenticate(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("handler should not be called")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authorization header required", errorBody(t, rec))
}

func TestAuthenticate_MalformedHeader(t *testing.T) {
	t.Parallel()

	m := NewAuthMiddleware(&stubJWTService{})

	for _, header := range []string{"token-without-scheme", "Basic abc123", "Bearer"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)

		m.Authenticate(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			t.Fatalf("handler should not be called for header %q", header)
		})).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	t.Parallel()

	m := NewAuthMiddleware(&stubJWTService{err: auth.ErrExpiredToken})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer some.expired.token")

	m.Authenticate(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("handler should not be called")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token expired", errorBody(t, rec))
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	t.Parallel()

	m := NewAuthMiddleware(&stubJWTService{err: auth.ErrInvalidToken})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")

	m.Authenticate(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("handler should not be called")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token", errorBody(t, rec))
}

func TestAuthenticate_UnexpectedValidationError(t *testing.T) {
	t.Parallel()

	m := NewAuthMiddleware(&stubJWTService{err: errors.New("keystore offline")})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer whatever")

	m.Authenticate(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("handler should not be called")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAuthenticate_ValidTokenSetsUserID(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	m := NewAuthMiddleware(&stubJWTService{claims: &auth.Claims{UserID: userID, TokenType: "access"}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer valid.token.here")

	var called bool
	m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		got, ok := GetUserID(r)
		assert.True(t, ok)
		assert.Equal(t, userID, got)
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// withRouteParam injects a chi URL parameter the way the router would.
func withRouteParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// withUserID injects an authenticated user into the request context.
func withUserID(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, userID))
}

func TestRequireSelf_NoAuthenticatedUser(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := withRouteParam(httptest.NewRequest(http.MethodGet, "/", nil), "userID", uuid.New().String())

	RequireSelf(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("handler should not be called")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireSelf_MalformedPathID(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = withUserID(req, uuid.New())
	req = withRouteParam(req, "userID", "not-a-uuid")

	RequireSelf(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("handler should not be called")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid user ID", errorBody(t, rec))
}

func TestRequireSelf_MismatchForbidden(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = withUserID(req, uuid.New())
	req = withRouteParam(req, "userID", uuid.New().String())

	RequireSelf(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("handler should not be called")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Cannot access another user's resources", errorBody(t, rec))
}

func TestRequireSelf_MatchPassesThrough(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = withUserID(req, userID)
	req = withRouteParam(req, "userID", userID.String())

	var called bool
	RequireSelf(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}
