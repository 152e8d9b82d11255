package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUser means the username or national id is already taken.
	ErrDuplicateUser = errors.New("username or national id already registered")
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	// ListProviders returns active physicians ordered by last name.
	ListProviders(ctx context.Context) ([]*User, error)
}
