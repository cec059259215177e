package gormstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	portalauth "github.com/charansai0108/portal-auth"
	"github.com/charansai0108/portal-auth/otp"
	"github.com/charansai0108/portal-auth/session"
)

// Store implements the engine's full persistence contract over a GORM
// connection. Safe for concurrent use; all mutations that must be atomic
// run inside transactions.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open GORM connection. The connection must have been
// opened with TranslateError enabled so unique violations surface as
// gorm.ErrDuplicatedKey.
func NewStore(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("gorm db required")
	}
	return &Store{db: db}, nil
}

/*
====================================
USER PROVIDER
====================================
*/

// GetUserByEmail describes the getuserbyemail operation and its observable behavior.
//
// GetUserByEmail may return an error when input validation, dependency calls, or security checks fail.
// GetUserByEmail does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (portalauth.UserRecord, error) {
	var row User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return portalauth.UserRecord{}, portalauth.ErrProviderUserNotFound
		}
		return portalauth.UserRecord{}, err
	}
	return toUserRecord(row), nil
}

// GetUserByID describes the getuserbyid operation and its observable behavior.
//
// GetUserByID may return an error when input validation, dependency calls, or security checks fail.
// GetUserByID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) GetUserByID(ctx context.Context, userID string) (portalauth.UserRecord, error) {
	var row User
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return portalauth.UserRecord{}, portalauth.ErrProviderUserNotFound
		}
		return portalauth.UserRecord{}, err
	}
	return toUserRecord(row), nil
}

// CreateUser inserts the account row and its role profile row in one
// transaction. A unique-email violation maps to
// [portalauth.ErrProviderDuplicateEmail].
func (s *Store) CreateUser(ctx context.Context, input portalauth.CreateUserInput) (portalauth.UserRecord, error) {
	row := User{
		Email:           input.Email,
		PasswordHash:    input.PasswordHash,
		Role:            string(input.Role),
		Status:          string(input.Status),
		EmailVerified:   input.EmailVerified,
		EmailVerifiedAt: input.EmailVerifiedAt,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		switch input.Role {
		case portalauth.RoleStudent:
			return tx.Create(&StudentProfile{UserID: row.ID}).Error
		case portalauth.RoleRecruiter:
			return tx.Create(&RecruiterProfile{UserID: row.ID}).Error
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return portalauth.UserRecord{}, portalauth.ErrProviderDuplicateEmail
		}
		return portalauth.UserRecord{}, err
	}

	return toUserRecord(row), nil
}

// UpdatePasswordHash describes the updatepasswordhash operation and its observable behavior.
//
// UpdatePasswordHash may return an error when input validation, dependency calls, or security checks fail.
// UpdatePasswordHash does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	res := s.db.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", userID).
		Update("password_hash", newHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return portalauth.ErrProviderUserNotFound
	}
	return nil
}

// UpdateLastLogin describes the updatelastlogin operation and its observable behavior.
//
// UpdateLastLogin may return an error when input validation, dependency calls, or security checks fail.
// UpdateLastLogin does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	return s.db.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", userID).
		Update("last_login_at", at).Error
}

/*
====================================
ONE-TIME CODES
====================================
*/

// InvalidateThenCreate marks every live code for the record's scope as
// used and inserts the new row, atomically. This is what keeps at most
// one live code per (email, purpose).
func (s *Store) InvalidateThenCreate(ctx context.Context, rec otp.Code, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&OneTimeCode{}).
			Where("email = ? AND purpose = ? AND is_used = ? AND expires_at > ?",
				rec.Email, string(rec.Purpose), false, now).
			Updates(map[string]interface{}{"is_used": true, "used_at": now}).Error
		if err != nil {
			return err
		}

		return tx.Create(&OneTimeCode{
			Email:     rec.Email,
			Purpose:   string(rec.Purpose),
			Code:      rec.Code,
			ExpiresAt: rec.ExpiresAt,
			CreatedAt: rec.CreatedAt,
		}).Error
	})
}

// ConsumeLatest marks the most recent live row matching (email, code,
// purpose) as used. The guarded update makes consumption single-use
// under concurrent calls: only one caller sees RowsAffected == 1.
func (s *Store) ConsumeLatest(ctx context.Context, email, code string, purpose otp.Purpose, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row OneTimeCode
		err := tx.Where("email = ? AND purpose = ? AND code = ? AND is_used = ? AND expires_at > ?",
			email, string(purpose), code, false, now).
			Order("id DESC").
			First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return otp.ErrNoMatch
			}
			return err
		}

		res := tx.Model(&OneTimeCode{}).
			Where("id = ? AND is_used = ?", row.ID, false).
			Updates(map[string]interface{}{"is_used": true, "used_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return otp.ErrNoMatch
		}
		return nil
	})
}

// LatestUsedAfter describes the latestusedafter operation and its observable behavior.
//
// LatestUsedAfter may return an error when input validation, dependency calls, or security checks fail.
// LatestUsedAfter does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) LatestUsedAfter(ctx context.Context, email string, purpose otp.Purpose, cutoff time.Time) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&OneTimeCode{}).
		Where("email = ? AND purpose = ? AND is_used = ? AND used_at > ?",
			email, string(purpose), true, cutoff).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

/*
====================================
REFRESH TOKENS
====================================
*/

// CreateRefreshToken describes the createrefreshtoken operation and its observable behavior.
//
// CreateRefreshToken may return an error when input validation, dependency calls, or security checks fail.
// CreateRefreshToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) CreateRefreshToken(ctx context.Context, rec session.RefreshRecord) error {
	return s.db.WithContext(ctx).Create(&RefreshToken{
		UserID:    rec.UserID,
		Role:      rec.Role,
		TokenHash: rec.TokenHash,
		ExpiresAt: rec.ExpiresAt,
		CreatedAt: rec.CreatedAt,
	}).Error
}

// GetRefreshToken describes the getrefreshtoken operation and its observable behavior.
//
// GetRefreshToken may return an error when input validation, dependency calls, or security checks fail.
// GetRefreshToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) GetRefreshToken(ctx context.Context, tokenHash string) (session.RefreshRecord, error) {
	var row RefreshToken
	err := s.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return session.RefreshRecord{}, session.ErrNotFound
		}
		return session.RefreshRecord{}, err
	}
	return session.RefreshRecord{
		UserID:    row.UserID,
		Role:      row.Role,
		TokenHash: row.TokenHash,
		ExpiresAt: row.ExpiresAt,
		CreatedAt: row.CreatedAt,
	}, nil
}

// DeleteRefreshToken is idempotent: deleting an absent row succeeds.
func (s *Store) DeleteRefreshToken(ctx context.Context, tokenHash string) error {
	return s.db.WithContext(ctx).
		Where("token_hash = ?", tokenHash).
		Delete(&RefreshToken{}).Error
}

// ReplaceRefreshToken deletes the old row and inserts the new one in a
// single transaction; used by refresh rotation.
func (s *Store) ReplaceRefreshToken(ctx context.Context, oldHash string, rec session.RefreshRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("token_hash = ?", oldHash).Delete(&RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Create(&RefreshToken{
			UserID:    rec.UserID,
			Role:      rec.Role,
			TokenHash: rec.TokenHash,
			ExpiresAt: rec.ExpiresAt,
			CreatedAt: rec.CreatedAt,
		}).Error
	})
}

// PruneExpiredRefreshTokens describes the pruneexpiredrefreshtokens operation and its observable behavior.
//
// PruneExpiredRefreshTokens may return an error when input validation, dependency calls, or security checks fail.
// PruneExpiredRefreshTokens does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) PruneExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&RefreshToken{})
	return res.RowsAffected, res.Error
}

func toUserRecord(row User) portalauth.UserRecord {
	return portalauth.UserRecord{
		UserID:          row.ID,
		Email:           row.Email,
		PasswordHash:    row.PasswordHash,
		Role:            portalauth.Role(row.Role),
		Status:          portalauth.AccountStatus(row.Status),
		EmailVerified:   row.EmailVerified,
		EmailVerifiedAt: row.EmailVerifiedAt,
		LastLoginAt:     row.LastLoginAt,
		CreatedAt:       row.CreatedAt,
	}
}
