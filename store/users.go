package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	authcore "github.com/pixelmint/authcore"
	"github.com/pixelmint/authcore/session"
	"gorm.io/gorm"
)

// User is the account row.
type User struct {
	ID        string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Email    string `gorm:"size:255;uniqueIndex;not null"`
	Username string `gorm:"size:64;uniqueIndex"`
	Password []byte `gorm:"not null"`
	Role     string `gorm:"size:32;not null;default:user"`
	Active   bool   `gorm:"not null;default:true"`
}

// AutoMigrate creates/updates the user and session tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &session.Session{})
}

const defaultTimeout = 3 * time.Second

// GormUsers implements authcore.UserStore on a relational database.
type GormUsers struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGormUsers wraps db. A timeout of zero selects the default.
func NewGormUsers(db *gorm.DB, timeout time.Duration) *GormUsers {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &GormUsers{db: db, timeout: timeout}
}

// GetByEmail looks an account up by email.
func (s *GormUsers) GetByEmail(ctx context.Context, email string) (authcore.UserRecord, error) {
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var user User
	if err := s.db.WithContext(tctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return authcore.UserRecord{}, authcore.ErrUserNotFound
		}
		return authcore.UserRecord{}, err
	}

	return toRecord(user), nil
}

// GetByID looks an account up by subject ID.
func (s *GormUsers) GetByID(ctx context.Context, id string) (authcore.UserRecord, error) {
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var user User
	if err := s.db.WithContext(tctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return authcore.UserRecord{}, authcore.ErrUserNotFound
		}
		return authcore.UserRecord{}, err
	}

	return toRecord(user), nil
}

// Create inserts a new account. Duplicates are reported as ErrEmailTaken or
// ErrUsernameTaken.
func (s *GormUsers) Create(ctx context.Context, input authcore.CreateUserInput) (authcore.UserRecord, error) {
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// Pre-check for a friendlier duplicate error; the unique index still
	// backstops the race below.
	var count int64
	if err := s.db.WithContext(tctx).Model(&User{}).Where("email = ?", input.Email).Count(&count).Error; err == nil && count > 0 {
		return authcore.UserRecord{}, authcore.ErrEmailTaken
	}

	user := User{
		ID:       uuid.NewString(),
		Email:    input.Email,
		Username: input.Username,
		Password: input.PasswordHash,
		Role:     input.Role,
		Active:   true,
	}
	if err := s.db.WithContext(tctx).Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "username") {
				return authcore.UserRecord{}, authcore.ErrUsernameTaken
			}
			return authcore.UserRecord{}, authcore.ErrEmailTaken
		}
		return authcore.UserRecord{}, fmt.Errorf("create user: %w", err)
	}

	return toRecord(user), nil
}

func toRecord(user User) authcore.UserRecord {
	return authcore.UserRecord{
		ID:           user.ID,
		Email:        user.Email,
		Username:     user.Username,
		PasswordHash: user.Password,
		Role:         user.Role,
		Active:       user.Active,
	}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint")
}
