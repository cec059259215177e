package portalauth

import (
	"context"
	"time"

	"github.com/charansai0108/portal-auth/otp"
	"github.com/charansai0108/portal-auth/session"
)

// Role represents the account type of a portal user.
type Role string

const (
	// RoleStudent is a placement-seeking student account.
	RoleStudent Role = "STUDENT"
	// RoleRecruiter is a company recruiter account.
	RoleRecruiter Role = "RECRUITER"
	// RoleAdmin is a portal administrator account.
	RoleAdmin Role = "ADMIN"
)

// AccountStatus represents the lifecycle state of a user account.
type AccountStatus string

const (
	// StatusPending marks an account awaiting admin approval.
	StatusPending AccountStatus = "PENDING"
	// StatusActive marks an account allowed to log in.
	StatusActive AccountStatus = "ACTIVE"
	// StatusBlocked marks an account refused at login.
	StatusBlocked AccountStatus = "BLOCKED"
)

// UserRecord is the full account record returned by [UserProvider]. It
// carries the credential hash, role, status, and email verification state.
type UserRecord struct {
	UserID          string
	Email           string
	PasswordHash    string
	Role            Role
	Status          AccountStatus
	EmailVerified   bool
	EmailVerifiedAt *time.Time
	LastLoginAt     *time.Time
	CreatedAt       time.Time
}

// CreateUserInput is the input for [UserProvider.CreateUser]. The provider
// is expected to create the role-specific profile row in the same
// transaction as the user row.
type CreateUserInput struct {
	Email           string
	PasswordHash    string
	Role            Role
	Status          AccountStatus
	EmailVerified   bool
	EmailVerifiedAt *time.Time
}

// UserProvider is the account-lookup half of the persistence contract.
// Implementations must return [ErrProviderUserNotFound] for missing
// accounts and [ErrProviderDuplicateEmail] for unique-email violations.
type UserProvider interface {
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	GetUserByID(ctx context.Context, userID string) (UserRecord, error)
	CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error)
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
}

// Store is the full persistence contract the [Builder] requires: account
// records, one-time codes, and refresh tokens. The secret-store half
// (otp.Store, session.RefreshStore) must provide atomic
// invalidate+insert and consume operations; see store/gormstore for the
// relational implementation.
type Store interface {
	UserProvider
	otp.Store
	session.RefreshStore
}

// OTPStatusPending is the status string reported while a one-time code is
// outstanding and the caller is expected to verify it.
const OTPStatusPending = "PENDING_VERIFICATION"

// OTPPending is returned by [Engine.SendOTP] and
// [Engine.RequestPasswordReset]. The shape is identical whether or not a
// code was actually issued; enumeration-sensitive flows synthesize a
// plausible expiry instead of revealing account absence.
type OTPPending struct {
	OTPStatus    string
	OTPExpiresAt time.Time
}

// AuthResult is returned by [Engine.Register] and [Engine.Login].
type AuthResult struct {
	User         UserRecord
	AccessToken  string
	RefreshToken string
}

// RefreshResult is returned by [Engine.Refresh]. RefreshToken is empty
// unless refresh rotation is enabled, in which case the presented token has
// been invalidated and the caller must switch to the returned one.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
}

// RegisterRequest is the input for [Engine.Register]. VerificationToken is
// optional unless [AccountConfig.RequireVerifiedEmail] is set; with or
// without one, the email must have completed OTP verification inside the
// verification window.
type RegisterRequest struct {
	Email             string
	Password          string
	Role              Role
	VerificationToken string
}

// ValidateResult is returned by [Engine.Validate] for middleware use.
type ValidateResult struct {
	UserID string
	Role   Role
}
