package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// DefaultTimeout bounds every registry round trip to the relational store.
// Exceeding it surfaces as ErrUnavailable, never as a silent retry.
const DefaultTimeout = 3 * time.Second

// GormRegistry is a [Registry] backed by a relational store through GORM.
type GormRegistry struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGormRegistry wraps db. A timeout of zero selects [DefaultTimeout].
func NewGormRegistry(db *gorm.DB, timeout time.Duration) *GormRegistry {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &GormRegistry{db: db, timeout: timeout}
}

// Replace deletes every session for subjectID and inserts the new one inside
// a single transaction. Concurrent logins for the same subject serialize on
// the transaction; last writer wins and the one-session invariant holds.
func (r *GormRegistry) Replace(ctx context.Context, subjectID, refreshToken string, expiresAt time.Time) error {
	tctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.WithContext(tctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("subject_id = ?", subjectID).Delete(&Session{}).Error; err != nil {
			return err
		}
		return tx.Create(&Session{
			SubjectID:    subjectID,
			RefreshToken: refreshToken,
			ExpiresAt:    expiresAt,
		}).Error
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil
}

// Find looks up the session holding refreshToken.
func (r *GormRegistry) Find(ctx context.Context, refreshToken string) (*Session, error) {
	tctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var sess Session
	err := r.db.WithContext(tctx).Where("refresh_token = ?", refreshToken).First(&sess).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &sess, nil
}

// RevokeAll deletes every session for subjectID. Deleting zero rows is not
// an error.
func (r *GormRegistry) RevokeAll(ctx context.Context, subjectID string) error {
	tctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.db.WithContext(tctx).Where("subject_id = ?", subjectID).Delete(&Session{}).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil
}
