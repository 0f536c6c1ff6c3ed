package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/umtracker/platform/pkg/circuits"
	"github.com/umtracker/platform/pkg/common/models"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrUsernameAlreadyExists = errors.New("username already registered")
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type UserModel struct {
	ID           string `gorm:"primaryKey;size:26"`
	Username     string `gorm:"uniqueIndex"`
	Role         string `gorm:"index"`
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (UserModel) TableName() string {
	return "users"
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&UserModel{})
}

type CreateUserInput struct {
	Username     string
	Role         string
	PasswordHash string
}

func (r *Repository) CreateUser(ctx context.Context, input CreateUserInput) (models.User, error) {
	now := time.Now().UTC()
	user := UserModel{
		ID:           circuits.NewID(),
		Username:     normalizeUsername(input.Username),
		Role:         input.Role,
		PasswordHash: input.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := r.db.WithContext(ctx).Create(&user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return models.User{}, ErrUsernameAlreadyExists
	}
	if err != nil {
		return models.User{}, err
	}
	return mapUserModel(user), nil
}

func (r *Repository) UpdateUserPassword(ctx context.Context, userID string, passwordHash string) error {
	result := r.db.WithContext(ctx).Model(&UserModel{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"password_hash": passwordHash,
		"updated_at":    time.Now().UTC(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// GetCredentials returns the user and stored password hash for a username.
func (r *Repository) GetCredentials(ctx context.Context, username string) (models.User, string, error) {
	var user UserModel
	err := r.db.WithContext(ctx).Where("username = ?", normalizeUsername(username)).Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, "", ErrUserNotFound
		}
		return models.User{}, "", err
	}
	return mapUserModel(user), user.PasswordHash, nil
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func mapUserModel(user UserModel) models.User {
	return models.User{
		ID:        user.ID,
		Username:  user.Username,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}
