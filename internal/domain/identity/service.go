package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sgc/sgc/internal/platform/auth"
)

// ErrInvalidCredentials covers unknown users, wrong passwords and disabled
// accounts alike, so login failures do not reveal which one it was.
var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	repo   Repository
	issuer *auth.TokenIssuer
}

func NewService(repo Repository, issuer *auth.TokenIssuer) *Service {
	return &Service{repo: repo, issuer: issuer}
}

// Authenticate checks the credentials and returns a signed access token plus
// the authenticated user.
func (s *Service) Authenticate(ctx context.Context, username, password string) (string, *User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !u.Active {
		return "", nil, ErrInvalidCredentials
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(u.ID, u.Role)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return token, u, nil
}

// Register creates a new account with a hashed password. Usernames and
// national ids are unique.
func (s *Service) Register(ctx context.Context, u *User, password string) error {
	if u.Username == "" {
		return fmt.Errorf("username is required")
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	if u.FirstName == "" || u.LastName == "" {
		return fmt.Errorf("first and last name are required")
	}
	if u.NationalID == "" {
		return fmt.Errorf("national_id is required")
	}
	if !auth.IsValidRole(u.Role) {
		return fmt.Errorf("unknown role: %s", u.Role)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u.PasswordHash = hash
	u.Active = true
	return s.repo.Create(ctx, u)
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListProviders(ctx context.Context) ([]*User, error) {
	return s.repo.ListProviders(ctx)
}
