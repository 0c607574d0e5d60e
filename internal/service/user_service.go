package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskchat/taskchat-api/internal/domain"
	"github.com/taskchat/taskchat-api/internal/platform/logger"
	"github.com/taskchat/taskchat-api/internal/service/auth"
	"github.com/taskchat/taskchat-api/internal/store"
)

// TokenPair is an access/refresh token set issued after registration,
// login, or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserService handles registration, login, and token refresh.
type UserService struct {
	users  store.UserStore
	hasher auth.PasswordHasher
	jwt    auth.JWTService
	logger *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(
	users store.UserStore,
	hasher auth.PasswordHasher,
	jwt auth.JWTService,
	log *slog.Logger,
) *UserService {
	if log == nil {
		log = slog.Default()
	}
	return &UserService{
		users:  users,
		hasher: hasher,
		jwt:    jwt,
		logger: log.With(slog.String("component", "user_service")),
	}
}

// Register creates a new user account and issues a token pair.
// Returns store.ErrEmailExists if the email is taken.
func (s *UserService) Register(ctx context.Context, email, password string) (*domain.User, *TokenPair, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(email, password)
	if err != nil {
		return nil, nil, err
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, nil, fmt.Errorf("hashing password: %w", err)
	}
	user.HashedPassword = hashed
	user.Password = ""

	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	pair, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	log.Info("user registered",
		slog.String("user_id", user.ID.String()))
	return user, pair, nil
}

// Login verifies credentials and issues a token pair. A missing user
// and a wrong password both yield auth.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, *TokenPair, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, nil, auth.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		log.Debug("password mismatch on login",
			slog.String("user_id", user.ID.String()))
		return nil, nil, auth.ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	log.Info("user logged in",
		slog.String("user_id", user.ID.String()))
	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	// The user must still exist; deleted accounts cannot refresh.
	if _, err := s.users.GetByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, auth.ErrInvalidRefreshToken
		}
		return nil, err
	}

	return s.issueTokens(ctx, claims.UserID)
}

// UpdateProfileParams carries the optional fields of a profile update.
// A nil Email leaves the address unchanged; a non-empty NewPassword
// requires CurrentPassword for verification.
type UpdateProfileParams struct {
	Email           *string
	CurrentPassword string
	NewPassword     string
}

// GetProfile retrieves the user's account details.
func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile changes the user's email and/or password. Password
// changes must prove knowledge of the current password; email conflicts
// surface as store.ErrEmailExists.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, params UpdateProfileParams) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if params.Email != nil {
		user.Email = *params.Email
	}

	if params.NewPassword != "" {
		if params.CurrentPassword == "" {
			return nil, ErrCurrentPasswordRequired
		}
		if err := s.hasher.Compare(user.HashedPassword, params.CurrentPassword); err != nil {
			log.Debug("current password mismatch on profile update",
				slog.String("user_id", userID.String()))
			return nil, ErrCurrentPasswordIncorrect
		}

		// Run the new password through the domain's length bounds before
		// hashing it.
		user.Password = params.NewPassword
		if err := user.Validate(); err != nil {
			user.Password = ""
			return nil, err
		}
		user.Password = ""

		hashed, err := s.hasher.Hash(params.NewPassword)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		user.HashedPassword = hashed
	}

	user.UpdatedAt = time.Now().UTC()
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Info("user profile updated",
		slog.String("user_id", userID.String()))
	return user, nil
}

func (s *UserService) issueTokens(ctx context.Context, userID uuid.UUID) (*TokenPair, error) {
	access, err := s.jwt.GenerateToken(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("generating access token: %w", err)
	}
	refresh, err := s.jwt.GenerateRefreshToken(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("generating refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
