package portalauth

import (
	"context"
	"errors"
	"time"

	"github.com/charansai0108/portal-auth/otp"
	"github.com/charansai0108/portal-auth/token"
)

// Register creates an account and immediately opens a session for it.
// A verification token from VerifyOTP marks the account email-verified;
// without one the account is created unverified unless
// RequireVerifiedEmail makes the token mandatory. Recruiter accounts
// start PENDING until an admin approves them; students and admins
// start ACTIVE.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	if e == nil || e.users == nil || e.sessions == nil || e.passwordHash == nil {
		return nil, ErrEngineNotReady
	}

	email := normalizeEmail(req.Email)
	if !isValidEmail(email) {
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", ErrValidation, func() map[string]string {
			return map[string]string{"reason": "invalid_email"}
		})
		return nil, ErrValidation
	}
	if len(req.Password) < e.config.Password.MinLength {
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", ErrPasswordPolicy, func() map[string]string {
			return map[string]string{"email": email}
		})
		return nil, ErrPasswordPolicy
	}
	if err := e.checkRole(req.Role); err != nil {
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", err, func() map[string]string {
			return map[string]string{"email": email, "role": string(req.Role)}
		})
		return nil, err
	}

	verified, err := e.checkEmailVerified(ctx, email, req.VerificationToken)
	if err != nil {
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", err, func() map[string]string {
			return map[string]string{"email": email}
		})
		return nil, err
	}

	hash, err := e.passwordHash.Hash(req.Password)
	if err != nil {
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", err, nil)
		return nil, err
	}

	status := StatusActive
	if req.Role == RoleRecruiter {
		status = StatusPending
	}

	input := CreateUserInput{
		Email:         email,
		PasswordHash:  hash,
		Role:          req.Role,
		Status:        status,
		EmailVerified: verified,
	}
	if verified {
		verifiedAt := time.Now()
		input.EmailVerifiedAt = &verifiedAt
	}
	user, err := e.users.CreateUser(ctx, input)
	if err != nil {
		if errors.Is(err, ErrProviderDuplicateEmail) {
			e.metricInc(MetricRegisterDuplicate)
			e.emitAudit(ctx, auditEventRegisterDuplicate, false, "", ErrEmailAlreadyRegistered, func() map[string]string {
				return map[string]string{"email": email}
			})
			return nil, ErrEmailAlreadyRegistered
		}
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", err, func() map[string]string {
			return map[string]string{"email": email}
		})
		return nil, err
	}

	accessToken, refreshToken, err := e.sessions.Issue(ctx, user.UserID, string(user.Role))
	if err != nil {
		e.emitAudit(ctx, auditEventRegisterFailure, false, user.UserID, ErrSessionCreationFailed, nil)
		return nil, ErrSessionCreationFailed
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, user.UserID, nil, func() map[string]string {
		return map[string]string{"email": email, "role": string(user.Role)}
	})

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (e *Engine) checkRole(role Role) error {
	switch role {
	case RoleStudent, RoleRecruiter, RoleAdmin:
	default:
		return ErrRoleInvalid
	}

	if len(e.config.Account.AllowedRoles) == 0 {
		return nil
	}
	for _, allowed := range e.config.Account.AllowedRoles {
		if role == allowed {
			return nil
		}
	}
	return ErrRoleInvalid
}

// checkEmailVerified decides whether the new account is email-verified.
// A presented verification token must be purpose-tagged, bound to the
// same email, and backed by a code consumed inside the verification
// window. An absent token means an unverified account, unless
// RequireVerifiedEmail makes the token mandatory.
func (e *Engine) checkEmailVerified(ctx context.Context, email, verificationToken string) (bool, error) {
	if verificationToken == "" {
		if e.config.Account.RequireVerifiedEmail {
			return false, ErrEmailVerificationRequired
		}
		return false, nil
	}

	claims, err := e.tokens.VerifyPurpose(verificationToken, token.PurposeVerification)
	if err != nil {
		return false, ErrTokenInvalid
	}
	if normalizeEmail(claims.Email) != email {
		return false, ErrTokenInvalid
	}

	verified, err := e.otpEngine.WasRecentlyVerified(ctx, email, otp.PurposeVerifyEmail, e.config.Account.VerificationWindow)
	if err != nil {
		return false, ErrOTPUnavailable
	}
	if !verified {
		return false, ErrEmailVerificationRequired
	}
	return true, nil
}
