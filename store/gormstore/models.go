package gormstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the account row. The primary key is a UUID string assigned on
// insert.
type User struct {
	ID              string `gorm:"primaryKey;size:36"`
	Email           string `gorm:"uniqueIndex;size:254;not null"`
	PasswordHash    string `gorm:"not null"`
	Role            string `gorm:"size:16;not null"`
	Status          string `gorm:"size:16;not null"`
	EmailVerified   bool
	EmailVerifiedAt *time.Time
	LastLoginAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// OneTimeCode is a persisted OTP row. Rows are retained after use and
// expiry; IsUsed plus UsedAt drive single-use consumption and the
// recency window check.
type OneTimeCode struct {
	ID        uint   `gorm:"primaryKey"`
	Email     string `gorm:"index:idx_codes_scope;size:254;not null"`
	Purpose   string `gorm:"index:idx_codes_scope;size:32;not null"`
	Code      string `gorm:"size:10;not null"`
	IsUsed    bool   `gorm:"not null"`
	UsedAt    *time.Time
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}

// RefreshToken stores the SHA-256 digest of an opaque refresh token.
// Role is denormalized so a refresh skips the account lookup.
type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"index;size:36;not null"`
	Role      string `gorm:"size:16;not null"`
	TokenHash string `gorm:"uniqueIndex;size:64;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}

// StudentProfile is created alongside a STUDENT account. Portal-facing
// fields are filled in later by the profile service.
type StudentProfile struct {
	ID         uint   `gorm:"primaryKey"`
	UserID     string `gorm:"uniqueIndex;size:36;not null"`
	FullName   string `gorm:"size:128"`
	RollNumber string `gorm:"size:32"`
	Branch     string `gorm:"size:64"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RecruiterProfile is created alongside a RECRUITER account. The account
// stays PENDING until an admin approves the company.
type RecruiterProfile struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      string `gorm:"uniqueIndex;size:36;not null"`
	CompanyName string `gorm:"size:128"`
	Website     string `gorm:"size:254"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
