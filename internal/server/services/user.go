// Package services contains server-side business logic: account
// registration and login, report intake, and report listing.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ibalodis/fieldsignal/internal/common"
	"github.com/ibalodis/fieldsignal/internal/server/auth"
	"github.com/ibalodis/fieldsignal/internal/server/config"
	"github.com/ibalodis/fieldsignal/internal/server/models"
	"github.com/ibalodis/fieldsignal/internal/server/repositories/users"
)

// UserService handles registration and login, minting JWT access tokens on
// successful authentication.
type UserService struct {
	users                       users.Repository
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

func NewUserService(repo users.Repository, cfg *config.Config) *UserService {
	return &UserService{
		users:                       repo,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// Register creates a new account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %v", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("error creating user: %v", err)
	}
	return user, nil
}

// Login verifies the credentials and returns a signed access token.
// Unknown users and wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrUnauthorized
		}
		return "", common.ErrInternal
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return "", common.ErrUnauthorized
	}

	return auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
}
