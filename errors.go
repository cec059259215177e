package portalauth

import "errors"

var (
	// ErrValidation reports malformed request input before any
	// dependency is touched.
	ErrValidation = errors.New("invalid request input")
	// ErrInvalidOrExpiredCode reports an OTP that did not match the
	// live code, whether wrong, expired, or already used.
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")
	// ErrInvalidCredentials reports a failed email+password check. An
	// unknown email produces the same error as a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountBlocked reports a login against a BLOCKED account.
	ErrAccountBlocked = errors.New("account blocked")
	// ErrRoleMismatch reports a login whose expected role does not
	// match the account's role.
	ErrRoleMismatch = errors.New("role mismatch")
	// ErrRoleInvalid reports a role outside the known set or outside
	// the configured allow-list.
	ErrRoleInvalid = errors.New("invalid account role")
	// ErrEmailAlreadyRegistered reports an address that already holds
	// an account.
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	// ErrEmailVerificationRequired reports a registration that needs a
	// completed OTP verification first.
	ErrEmailVerificationRequired = errors.New("email verification required")
	// ErrResetVerificationRequired reports a password update whose
	// reset verification fell outside the allowed window.
	ErrResetVerificationRequired = errors.New("reset verification required")
	// ErrTokenInvalid reports a signed token that failed signature,
	// expiry, purpose, or email binding checks.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrInvalidRefreshToken reports a refresh token that is unknown,
	// expired, or revoked.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrPasswordPolicy reports a password below the configured
	// minimum length.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrOTPRateLimited reports an OTP request or attempt budget that
	// is exhausted for the current window.
	ErrOTPRateLimited = errors.New("otp rate limited")
	// ErrLoginRateLimited reports a login failure budget that is
	// exhausted for the current window.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrOTPUnavailable reports a backend failure behind an OTP or
	// rate-limit operation, as opposed to a caller mistake.
	ErrOTPUnavailable = errors.New("otp backend unavailable")
	// ErrSessionCreationFailed reports that the account exists but no
	// session could be persisted for it.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrEngineNotReady reports a call on an engine that was not built
	// through the Builder.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrProviderDuplicateEmail is returned by Store implementations
	// when an insert collides on the email unique index.
	ErrProviderDuplicateEmail = errors.New("provider duplicate email")
	// ErrProviderUserNotFound is returned by Store implementations
	// when no account row matches the lookup.
	ErrProviderUserNotFound = errors.New("provider user not found")
)
