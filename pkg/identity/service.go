package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/umtracker/platform/pkg/common/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("role must be admin or user")
)

type userStore interface {
	CreateUser(ctx context.Context, input CreateUserInput) (models.User, error)
	UpdateUserPassword(ctx context.Context, userID string, passwordHash string) error
	GetCredentials(ctx context.Context, username string) (models.User, string, error)
}

type Service struct {
	repo userStore
	cost int
}

func NewService(repo userStore) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost}
}

func ValidRole(role string) bool {
	return role == models.RoleAdmin || role == models.RoleUser
}

func (s *Service) CreateUser(ctx context.Context, username, password, role string) (models.User, error) {
	if username == "" {
		return models.User{}, fmt.Errorf("username required")
	}
	if password == "" {
		return models.User{}, fmt.Errorf("password required")
	}
	if !ValidRole(role) {
		return models.User{}, ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.User{}, err
	}

	return s.repo.CreateUser(ctx, CreateUserInput{
		Username:     username,
		Role:         role,
		PasswordHash: string(hash),
	})
}

// Authenticate checks the password and that the requested role is the one on
// record. Every mismatch comes back as ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password, requestedRole string) (models.User, error) {
	if password == "" {
		return models.User{}, ErrInvalidCredentials
	}
	user, hash, err := s.repo.GetCredentials(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}
	if requestedRole != "" && requestedRole != user.Role {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) SetPassword(ctx context.Context, username, password string) error {
	if password == "" {
		return fmt.Errorf("password required")
	}
	user, _, err := s.repo.GetCredentials(ctx, username)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}
	return s.repo.UpdateUserPassword(ctx, user.ID, string(hash))
}
