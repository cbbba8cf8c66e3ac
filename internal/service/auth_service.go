package service

import (
	"context"
	"errors"
	"strings"

	"geosocial/internal/cache"
	"geosocial/internal/middleware"
	"geosocial/internal/models"
	"geosocial/internal/repository"
	"geosocial/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any failed login; it does not reveal whether the user exists.
var ErrInvalidCredentials = models.NewUnauthorizedError("Invalid username or password")

// dummyHash keeps the unknown-user path as slow as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("geosocial-dummy-password"), bcrypt.DefaultCost)

type AuthService struct {
	userRepo  repository.UserRepository
	jwtSecret string
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// AuthResult is a signed token for an authenticated user.
type AuthResult struct {
	Token  string                 `json:"token"`
	User   *models.User           `json:"user"`
	Claims middleware.TokenClaims `json:"-"`
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{userRepo: userRepo, jwtSecret: jwtSecret}
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, claims, err := middleware.GenerateToken(s.jwtSecret, user.ID, user.Username)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{Token: token, User: user, Claims: claims}, nil
}

// Register creates a user with an empty profile and signs them in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	username := models.NormalizeUsername(in.Username)
	email := strings.TrimSpace(in.Email)

	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
	}
	if err := s.userRepo.CreateWithProfile(ctx, user); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return s.issue(user)
}

// Login checks the credentials and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			middleware.Logger.WarnContext(ctx, "password hash check failed", "user_id", user.ID, "error", err)
		}
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

// Logout revokes the token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, claims middleware.TokenClaims) error {
	if err := cache.Revoke(ctx, claims.JTI, claims.ExpiresAt); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
