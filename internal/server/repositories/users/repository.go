package users

import (
	"context"

	"github.com/ibalodis/fieldsignal/internal/server/models"
)

// Repository stores accounts.
type Repository interface {
	// Create inserts a new user.
	Create(ctx context.Context, user *models.User) error

	// GetByUsername returns a user or common.ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}
